package nats

import (
	"context"
	"fmt"

	"github.com/arloliu/activity"

	"github.com/nats-io/nats.go/jetstream"
)

// MessageHandler wraps a handler function in process scopes started on source.
// The returned jetstream.MessageHandler starts a consumer scope whose parent is
// read lazily from the message headers, then calls your handler with the scope
// in msg.Context().
//
// The stream name is automatically extracted from message metadata. Use WithStream
// to override if needed. A panicking handler marks the activity as failed and
// the panic is propagated.
//
// Example:
//
//	consumer.Consume(activitynats.MessageHandler(src, func(msg *activitynats.TracedMsg) {
//	    processOrder(msg.Context(), msg.Data())
//	    msg.Ack()
//	}))
//
// Panics if handler is nil.
func MessageHandler(source *activity.Source, handler func(*TracedMsg), opts ...Option) jetstream.MessageHandler {
	if handler == nil {
		panic("activity/nats: handler must not be nil")
	}

	return func(msg jetstream.Msg) {
		traced := NewTracedMsg(context.Background(), msg)
		ctx, end := traced.StartProcess(source, opts...)
		traced.ctx = ctx

		defer func() {
			if r := recover(); r != nil {
				end(panicError{value: r})
				panic(r)
			}
			end(nil)
		}()

		handler(traced)
	}
}

// panicError records a recovered panic as an activity status.
type panicError struct {
	value any
}

func (e panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}
