package publisher

// Publisher pushes catalog updates to downstream consumers.
type Publisher interface {
	// Publish publishes one message under the given key
	Publish(key string, message []byte) error

	// TrimStreams caps every stream at the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
