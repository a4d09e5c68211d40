package nats

import (
	"context"
	"strconv"

	"github.com/arloliu/activity"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamPublisher is the part of jetstream.JetStream used by Publisher.
type JetStreamPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
	PublishMsgAsync(msg *nats.Msg, opts ...jetstream.PublishOpt) (jetstream.PubAckFuture, error)
}

// Publisher wraps JetStream publish operations in producer scopes.
type Publisher struct {
	js     JetStreamPublisher
	source *activity.Source
	opts   options
}

// NewPublisher creates a Publisher whose scopes are started on source.
//
// Panics if js is nil.
func NewPublisher(js JetStreamPublisher, source *activity.Source, opts ...Option) *Publisher {
	if js == nil {
		panic("activity/nats: JetStream must not be nil")
	}

	return &Publisher{
		js:     js,
		source: source,
		opts:   applyOptions(opts),
	}
}

// JetStream returns the underlying publisher for uninstrumented operations.
func (p *Publisher) JetStream() JetStreamPublisher {
	return p.js
}

// Publish publishes data with tracing.
// A producer scope is started and its trace context is injected into message headers.
func (p *Publisher) Publish(
	ctx context.Context,
	subject string,
	data []byte,
	opts ...jetstream.PublishOpt,
) (*jetstream.PubAck, error) {
	return p.PublishMsg(ctx, &nats.Msg{Subject: subject, Data: data}, opts...)
}

// PublishMsg publishes a message with tracing.
// If msg.Header is nil, it will be initialized before injecting trace context.
func (p *Publisher) PublishMsg(
	ctx context.Context,
	msg *nats.Msg,
	opts ...jetstream.PublishOpt,
) (*jetstream.PubAck, error) {
	ctx, scope := p.start(ctx, msg)
	defer scope.End()

	ack, err := p.js.PublishMsg(ctx, msg, opts...)
	if err != nil {
		scope.SetStatus(err)
		return nil, err
	}

	if ack != nil && scope.IsMaterialized() {
		scope.SetTag(attrMessagingMessageID, strconv.FormatUint(ack.Sequence, 10))
	}
	scope.SetStatus(nil)

	return ack, nil
}

// PublishAsync publishes data asynchronously with tracing.
// When WithAsyncScopes(false), no scope is started and no headers are injected.
func (p *Publisher) PublishAsync(
	subject string,
	data []byte,
	opts ...jetstream.PublishOpt,
) (jetstream.PubAckFuture, error) {
	return p.PublishAsyncMsg(&nats.Msg{Subject: subject, Data: data}, opts...)
}

// PublishAsyncMsg publishes a message asynchronously with tracing.
// The scope covers the publish initiation, not the ack receipt.
// When WithAsyncScopes(false), no scope is started and no headers are injected.
func (p *Publisher) PublishAsyncMsg(
	msg *nats.Msg,
	opts ...jetstream.PublishOpt,
) (jetstream.PubAckFuture, error) {
	if !p.opts.asyncScopes {
		return p.js.PublishMsgAsync(msg, opts...)
	}

	_, scope := p.start(context.Background(), msg)
	defer scope.End()

	future, err := p.js.PublishMsgAsync(msg, opts...)
	scope.SetStatus(err)
	if err != nil {
		return nil, err
	}

	return future, nil
}

func (p *Publisher) start(ctx context.Context, msg *nats.Msg) (context.Context, *activity.Scope) {
	ctx, scope := p.source.Start(ctx, activity.WithKind(activity.KindProducer))
	if scope.IsMaterialized() {
		scope.SetDisplayName(p.opts.namer.Name(activity.NameMessaging(opTypePublish, msg.Subject)))
		publishTags(scope, msg.Subject, "", len(msg.Data))
	}
	Inject(ctx, msg)

	return ctx, scope
}

var _ JetStreamPublisher = (jetstream.JetStream)(nil)
