// Package activity is a lightweight tracing core: named sources start scopes,
// listeners decide which scopes become recorded activities, and exporters ship
// those activities to OpenTelemetry.
//
// # Overview
//
// Instrumented code owns a [Source] and wraps each operation in a [Scope]:
//
//	var src = activity.MustNewSource("orders.repository")
//
//	func (r *Repo) Load(ctx context.Context, id string) (*Order, error) {
//	    ctx, scope := src.Start(ctx, activity.WithKind(activity.KindClient))
//	    defer scope.End()
//
//	    scope.SetTag("order.id", id)
//	    order, err := r.load(ctx, id)
//	    scope.SetStatus(err)
//
//	    return order, err
//	}
//
// Until a [Listener] is attached to the source, Start and End cost one atomic
// load each and no ids are generated. Scope identity is lazy: the parent, the
// trace id and the [Activity] payload are computed the first time someone
// asks for them.
//
// # Parents
//
// A scope's parent comes from one of three places:
//   - [Source.StartWithParent]: an explicit [ActivityContext]
//   - [Source.StartWithResolver]: a [ParentResolver] invoked only if needed,
//     such as [CarrierResolver] reading an inbound traceparent header
//   - [Source.Start]: the ambient current scope carried by the context
//
// # Registry and listeners
//
// Sources register in a [Registry] ([DefaultRegistry] unless
// [WithRegistry] says otherwise). A [SourceObserver] subscribed to the
// registry sees every existing and future source, which is how the
// [SamplingListener] attaches to sources created after it.
//
// # Export
//
// [Setup] builds a complete pipeline from a [TelemetryConfig]:
//
//	cfg, err := activity.LoadConfig("telemetry.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tel, err := activity.Setup(ctx, cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(ctx)
//
// Configuration follows the OTel environment variables (OTEL_SERVICE_NAME,
// OTEL_TRACES_SAMPLER, OTEL_EXPORTER_OTLP_ENDPOINT and friends); source
// selection uses ACTIVITY_SOURCES_INCLUDE and ACTIVITY_SOURCES_EXCLUDE.
//
// # Propagation
//
// [Inject] and [Extract] carry the W3C traceparent and tracestate headers over
// any propagation.TextMapCarrier. The http, grpc and nats sub-packages wire
// this into servers, clients and message handlers.
package activity
