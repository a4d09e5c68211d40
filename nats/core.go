package nats

import (
	"context"

	"github.com/arloliu/activity"

	"github.com/nats-io/nats.go"
)

// MsgPublisher publishes core NATS messages. *nats.Conn satisfies it.
type MsgPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// Publish publishes msg through pub in a producer scope started on source.
// The scope's trace context is injected into the message headers.
func Publish(ctx context.Context, pub MsgPublisher, source *activity.Source, msg *nats.Msg, opts ...Option) error {
	o := applyOptions(opts)

	ctx, scope := source.Start(ctx, activity.WithKind(activity.KindProducer))
	defer scope.End()

	if scope.IsMaterialized() {
		scope.SetDisplayName(o.namer.Name(activity.NameMessaging(opTypePublish, msg.Subject)))
		publishTags(scope, msg.Subject, "", len(msg.Data))
	}
	Inject(ctx, msg)

	err := pub.PublishMsg(msg)
	scope.SetStatus(err)

	return err
}

// Handler wraps handler in a nats.MsgHandler that runs each message in a
// consumer scope started on source. The parent is read lazily from the
// message headers.
//
// Panics if handler is nil.
func Handler(source *activity.Source, handler func(ctx context.Context, msg *nats.Msg), opts ...Option) nats.MsgHandler {
	if handler == nil {
		panic("activity/nats: handler must not be nil")
	}
	o := applyOptions(opts)

	return func(msg *nats.Msg) {
		ctx, scope := source.StartWithResolver(context.Background(),
			headerResolver, msg.Header,
			activity.WithKind(activity.KindConsumer),
		)
		defer endOnPanic(scope)

		if scope.IsMaterialized() {
			scope.SetDisplayName(o.namer.Name(activity.NameMessaging(opTypeProcess, msg.Subject)))
			processTags(scope, "", "", msg.Subject, len(msg.Data))
		}

		handler(ctx, msg)
	}
}

// endOnPanic ends scope, recording a panic in flight as an error before re-panicking.
func endOnPanic(scope *activity.Scope) {
	if r := recover(); r != nil {
		scope.SetStatus(panicError{value: r})
		scope.End()
		panic(r)
	}
	scope.End()
}
