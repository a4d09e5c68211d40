// Package nats instruments NATS and NATS JetStream with activity scopes.
//
// Trace context travels in the traceparent and tracestate message headers.
// Producers start producer scopes and inject their context; consumers start
// consumer scopes whose parent is read lazily from the headers.
//
// # Core NATS
//
//	src := activity.MustNewSource("orders.events")
//	err := activitynats.Publish(ctx, nc, src, &nats.Msg{Subject: "orders.created", Data: data})
//
//	nc.Subscribe("orders.created", activitynats.Handler(src, func(ctx context.Context, msg *nats.Msg) {
//	    processOrder(ctx, msg.Data)
//	}))
//
// # Publisher Usage
//
// Wrap a JetStream client to add scopes to publish operations:
//
//	js, _ := jetstream.New(nc)
//	publisher := activitynats.NewPublisher(js, src)
//
//	publisher.Publish(ctx, "orders.created", data)
//
// # Consumer Usage
//
// Wrap a Consumer to add receive scopes to fetch operations:
//
//	consumer, _ := stream.CreateConsumer(ctx, cfg)
//	traced := activitynats.WrapConsumer(consumer, "ORDERS", src)
//
//	msgs, _ := traced.Fetch(ctx, 10)
//	for msg := range msgs.Messages() {
//	    ctx, end := msg.StartProcess(src)
//	    end(processOrder(ctx, msg.Data()))
//	    msg.Ack()
//	}
//	if err := msgs.Error(); err != nil {
//	    log.Error("fetch error", err)
//	}
//
// # Callback-Style Consumption
//
// Use MessageHandler for callback-style consumption:
//
//	consumer.Consume(activitynats.MessageHandler(src, func(msg *activitynats.TracedMsg) {
//	    processOrder(msg.Context(), msg.Data())
//	    msg.Ack()
//	}, activitynats.WithStream("ORDERS")))
//
// # Semantic Conventions
//
// Display names and tags follow the OpenTelemetry messaging semantic conventions:
//   - Producer scopes use kind PRODUCER with name "publish {subject}"
//   - Receive scopes use kind CLIENT with name "receive {stream}"
//   - Process scopes use kind CONSUMER with name "process {stream}"
//
// For more details, see https://opentelemetry.io/docs/specs/semconv/messaging/
package nats
