package nats

import (
	"context"

	"github.com/arloliu/activity"

	"github.com/nats-io/nats.go/jetstream"
)

// TracedMsg wraps a jetstream.Msg with the context it is processed in.
type TracedMsg struct {
	jetstream.Msg
	ctx context.Context
}

// Context returns the processing context. Inside MessageHandler it carries the
// process scope; for fetched messages it is the context passed to the consumer.
func (m *TracedMsg) Context() context.Context {
	if m.ctx == nil {
		return context.Background()
	}

	return m.ctx
}

// Parent returns the trace context propagated in the message headers.
func (m *TracedMsg) Parent() (activity.ActivityContext, bool) {
	if m.Msg == nil {
		return activity.ActivityContext{}, false
	}

	return Extract(m.Msg.Headers())
}

// StartProcess starts a consumer scope for this message on source.
// It returns a context carrying the scope and an end function that should be
// called when processing is complete.
//
// The parent is the trace context propagated in the message headers, resolved
// only if a listener needs it. The stream name is extracted from the message
// metadata automatically.
//
// Example:
//
//	consumer.Consume(func(msg jetstream.Msg) {
//	    tracedMsg := activitynats.NewTracedMsg(context.Background(), msg)
//	    ctx, end := tracedMsg.StartProcess(src)
//	    defer end(nil)
//
//	    if err := processOrder(ctx, msg.Data()); err != nil {
//	        end(err) // Records the error; later calls are no-ops
//	        msg.Nak()
//	        return
//	    }
//	    msg.Ack()
//	})
func (m *TracedMsg) StartProcess(source *activity.Source, opts ...Option) (context.Context, func(error)) {
	o := applyOptions(opts)

	var (
		stream       string
		consumerName string
		subject      string
		bodySize     int
	)
	var header any
	if m.Msg != nil {
		if metadata, err := m.Msg.Metadata(); err == nil && metadata != nil {
			stream = metadata.Stream
			consumerName = metadata.Consumer
		}
		subject = m.Msg.Subject()
		bodySize = len(m.Msg.Data())
		header = m.Msg.Headers()
	}
	if o.stream != "" {
		stream = o.stream
	}

	ctx, scope := source.StartWithResolver(m.Context(),
		headerResolver, header,
		activity.WithKind(activity.KindConsumer),
	)
	if scope.IsMaterialized() {
		scope.SetDisplayName(o.namer.Name(activity.NameMessaging(opTypeProcess, stream)))
		processTags(scope, stream, consumerName, subject, bodySize)
	}

	end := func(err error) {
		if scope.IsEnded() {
			return
		}
		scope.SetStatus(err)
		scope.End()
	}

	return ctx, end
}

// NewTracedMsg wraps msg for processing in ctx.
//
// Use this function when you have a jetstream.Msg from your own consumption
// mechanism (e.g., from Consumer.Consume callback) and want to start process
// scopes without fully adopting TracedConsumer.
func NewTracedMsg(ctx context.Context, msg jetstream.Msg) *TracedMsg {
	return &TracedMsg{Msg: msg, ctx: ctx}
}

// TracedMessageBatch wraps a jetstream.MessageBatch.
type TracedMessageBatch struct {
	batch   jetstream.MessageBatch
	msgChan chan *TracedMsg
	ctx     context.Context
}

// Messages returns a channel of traced messages.
// The channel blocks until messages arrive or the batch completes.
// Always check Error() after the channel closes to detect fetch failures.
func (b *TracedMessageBatch) Messages() <-chan *TracedMsg {
	if b.msgChan != nil {
		return b.msgChan
	}

	b.msgChan = make(chan *TracedMsg)

	go func() {
		defer close(b.msgChan)

		for msg := range b.batch.Messages() {
			b.msgChan <- &TracedMsg{Msg: msg, ctx: b.ctx}
		}
	}()

	return b.msgChan
}

// Error returns any error that occurred during the fetch operation.
// Should be called after Messages() channel is closed.
func (b *TracedMessageBatch) Error() error {
	return b.batch.Error()
}

// TracedMessagesContext wraps a jetstream.MessagesContext.
type TracedMessagesContext struct {
	messagesCtx jetstream.MessagesContext
	ctx         context.Context
}

// Next retrieves the next message.
func (c *TracedMessagesContext) Next() (*TracedMsg, error) {
	msg, err := c.messagesCtx.Next()
	if err != nil {
		return nil, err
	}

	return &TracedMsg{Msg: msg, ctx: c.ctx}, nil
}

// Stop signals the iterator to stop.
func (c *TracedMessagesContext) Stop() {
	c.messagesCtx.Stop()
}

// Drain allows in-flight messages to be processed before stopping.
func (c *TracedMessagesContext) Drain() {
	c.messagesCtx.Drain()
}
