package emit

import "context"

// NullEmitter implements Emitter by discarding every event. Useful when a
// host application wants to run without observability overhead, or in
// tests that don't care about the event stream.
type NullEmitter struct{}

// NewNullEmitter returns a NullEmitter.
func NewNullEmitter() *NullEmitter { return &NullEmitter{} }

func (n *NullEmitter) Emit(Event) {}

func (n *NullEmitter) EmitBatch(context.Context, []Event) error { return nil }

func (n *NullEmitter) Flush(context.Context) error { return nil }
