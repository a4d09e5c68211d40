package nats

import (
	"context"
	"strconv"

	"github.com/arloliu/activity"

	"github.com/nats-io/nats.go/jetstream"
)

// TracedConsumer wraps a jetstream.Consumer so that every fetch runs in a
// receive scope started on source.
type TracedConsumer struct {
	consumer jetstream.Consumer
	stream   string
	source   *activity.Source
	opts     options
}

// WrapConsumer wraps a Consumer.
//
// Panics if c is nil.
func WrapConsumer(c jetstream.Consumer, stream string, source *activity.Source, opts ...Option) *TracedConsumer {
	if c == nil {
		panic("activity/nats: Consumer must not be nil")
	}

	return &TracedConsumer{
		consumer: c,
		stream:   stream,
		source:   source,
		opts:     applyOptions(opts),
	}
}

// Consumer returns the underlying jetstream.Consumer for uninstrumented operations.
func (tc *TracedConsumer) Consumer() jetstream.Consumer {
	return tc.consumer
}

// CachedInfo returns the cached consumer info.
func (tc *TracedConsumer) CachedInfo() *jetstream.ConsumerInfo {
	return tc.consumer.CachedInfo()
}

// Info fetches the latest consumer info.
func (tc *TracedConsumer) Info(ctx context.Context) (*jetstream.ConsumerInfo, error) {
	return tc.consumer.Info(ctx)
}

func (tc *TracedConsumer) startReceive(ctx context.Context) (context.Context, *activity.Scope) {
	consumerName := ""
	if info := tc.consumer.CachedInfo(); info != nil {
		consumerName = info.Name
	}

	ctx, scope := tc.source.Start(ctx, activity.WithKind(activity.KindClient))
	if scope.IsMaterialized() {
		scope.SetDisplayName(tc.opts.namer.Name(activity.NameMessaging(opTypeReceive, tc.stream)))
		receiveTags(scope, tc.stream, consumerName)
	}

	return ctx, scope
}

// Fetch retrieves a batch of messages in a receive scope.
// The scope ends once the fetch request is issued; messages arrive on the batch.
func (tc *TracedConsumer) Fetch(ctx context.Context, batch int, opts ...jetstream.FetchOpt) (*TracedMessageBatch, error) {
	_, scope := tc.startReceive(ctx)
	defer scope.End()

	msgBatch, err := tc.consumer.Fetch(batch, opts...)
	scope.SetStatus(err)
	if err != nil {
		return nil, err
	}

	return &TracedMessageBatch{batch: msgBatch, ctx: ctx}, nil
}

// FetchBytes retrieves messages up to maxBytes in a receive scope.
func (tc *TracedConsumer) FetchBytes(ctx context.Context, maxBytes int, opts ...jetstream.FetchOpt) (*TracedMessageBatch, error) {
	_, scope := tc.startReceive(ctx)
	defer scope.End()

	msgBatch, err := tc.consumer.FetchBytes(maxBytes, opts...)
	scope.SetStatus(err)
	if err != nil {
		return nil, err
	}

	return &TracedMessageBatch{batch: msgBatch, ctx: ctx}, nil
}

// FetchNoWait retrieves available messages without waiting.
func (tc *TracedConsumer) FetchNoWait(ctx context.Context, batch int) (*TracedMessageBatch, error) {
	_, scope := tc.startReceive(ctx)
	defer scope.End()

	msgBatch, err := tc.consumer.FetchNoWait(batch)
	scope.SetStatus(err)
	if err != nil {
		return nil, err
	}

	return &TracedMessageBatch{batch: msgBatch, ctx: ctx}, nil
}

// Messages returns an iterator for continuous message consumption.
func (tc *TracedConsumer) Messages(ctx context.Context, opts ...jetstream.PullMessagesOpt) (*TracedMessagesContext, error) {
	messagesCtx, err := tc.consumer.Messages(opts...)
	if err != nil {
		return nil, err
	}

	return &TracedMessagesContext{messagesCtx: messagesCtx, ctx: ctx}, nil
}

// Next retrieves a single message in a receive scope.
func (tc *TracedConsumer) Next(ctx context.Context, opts ...jetstream.FetchOpt) (*TracedMsg, error) {
	_, scope := tc.startReceive(ctx)
	defer scope.End()

	msg, err := tc.consumer.Next(opts...)
	scope.SetStatus(err)
	if err != nil {
		return nil, err
	}
	if msg != nil && scope.IsMaterialized() {
		scope.SetTag(attrMessagingMessageBodySize, strconv.Itoa(len(msg.Data())))
	}

	return &TracedMsg{Msg: msg, ctx: ctx}, nil
}

// Consume starts consuming messages with handler wrapped by MessageHandler,
// so each message runs in a process scope started on the consumer's source.
func (tc *TracedConsumer) Consume(
	handler func(*TracedMsg),
	opts ...jetstream.PullConsumeOpt,
) (jetstream.ConsumeContext, error) {
	wrapped := MessageHandler(tc.source, handler, WithStream(tc.stream), WithNamer(tc.opts.namer))

	return tc.consumer.Consume(wrapped, opts...)
}
