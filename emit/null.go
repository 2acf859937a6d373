package emit

// NullEmitter implements Emitter by discarding all events.
//
// Use it to disable event emission without changing wiring, or in tests
// where event capture is not needed. Safe for concurrent use.
type NullEmitter struct{}

// NewNullEmitter creates a NullEmitter.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event without any processing.
func (n *NullEmitter) Emit(event Event) {}
