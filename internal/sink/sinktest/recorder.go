// Package sinktest provides an in-memory Emitter for classifier tests.
package sinktest

import (
	"context"
	"sync"

	"eopbot/internal/sink"
)

// Recorder keeps every emitted message.
type Recorder struct {
	mu   sync.Mutex
	msgs []sink.Message
}

var _ sink.Emitter = (*Recorder)(nil)

func (r *Recorder) Emit(_ context.Context, msg sink.Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *Recorder) Messages() []sink.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sink.Message(nil), r.msgs...)
}

// Texts returns the emitted texts in order.
func (r *Recorder) Texts() []string {
	msgs := r.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = string(m.Text)
	}
	return out
}
