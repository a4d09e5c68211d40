package nats

import (
	"context"
	"sync"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/activity"
)

const testTraceParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

type recorder struct {
	mu         sync.Mutex
	activities []*activity.Activity
}

func (r *recorder) ExportActivity(_ context.Context, a *activity.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities = append(r.activities, a)

	return nil
}

func (r *recorder) all() []*activity.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]*activity.Activity(nil), r.activities...)
}

func newTestSource(t *testing.T, name string) (*activity.Source, *recorder) {
	t.Helper()

	reg := activity.NewRegistry()
	rec := &recorder{}
	l, err := activity.NewSamplingListener(
		activity.WithSampler(activity.AlwaysSample()),
		activity.WithExporters(rec),
	)
	require.NoError(t, err)
	l.Attach(reg)
	t.Cleanup(l.Close)

	src, err := activity.NewSource(name, activity.WithRegistry(reg))
	require.NoError(t, err)

	return src, rec
}

// mockMsg implements the parts of jetstream.Msg the instrumentation reads.
type mockMsg struct {
	jetstream.Msg
	subject  string
	data     []byte
	headers  nats.Header
	metadata *jetstream.MsgMetadata
}

func (m *mockMsg) Subject() string                           { return m.subject }
func (m *mockMsg) Data() []byte                              { return m.data }
func (m *mockMsg) Headers() nats.Header                      { return m.headers }
func (m *mockMsg) Metadata() (*jetstream.MsgMetadata, error) { return m.metadata, nil }

func tag(t *testing.T, a *activity.Activity, key string) string {
	t.Helper()

	v, ok := a.Tag(key)
	require.True(t, ok, "missing tag %q", key)

	return v
}

func TestHeaderCarrier_GetSetKeys(t *testing.T) {
	header := make(nats.Header)
	carrier := headerCarrier(header)

	carrier.Set("traceparent", "00-abc-def-01")
	carrier.Set("tracestate", "key=value")

	assert.Equal(t, "00-abc-def-01", carrier.Get("traceparent"))
	assert.Equal(t, "key=value", carrier.Get("tracestate"))
	assert.Equal(t, "", carrier.Get("nonexistent"))

	keys := carrier.Keys()
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, "traceparent")
	assert.Contains(t, keys, "tracestate")
}

func TestInject_NilHeader(t *testing.T) {
	src, _ := newTestSource(t, "nats.test")
	ctx, scope := src.Start(context.Background())
	defer scope.End()

	msg := &nats.Msg{Subject: "test.subject", Data: []byte("test")}
	Inject(ctx, msg)

	require.NotNil(t, msg.Header)
	assert.Equal(t, scope.Context().TraceParent(), msg.Header.Get("traceparent"))
}

func TestExtract(t *testing.T) {
	_, ok := Extract(nil)
	assert.False(t, ok)

	header := nats.Header{}
	header.Set("traceparent", testTraceParent)
	ac, ok := Extract(header)
	require.True(t, ok)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", ac.TraceID.String())
	assert.True(t, ac.IsRecorded())
}

func TestOptions(t *testing.T) {
	o := applyOptions(nil)
	assert.True(t, o.asyncScopes)
	assert.Empty(t, o.stream)
	assert.IsType(t, activity.DefaultNamer{}, o.namer)

	o = applyOptions([]Option{WithAsyncScopes(false), WithStream("ORDERS"), WithNamer(nil)})
	assert.False(t, o.asyncScopes)
	assert.Equal(t, "ORDERS", o.stream)
	assert.NotNil(t, o.namer)
}

type fakeConn struct {
	msgs []*nats.Msg
	err  error
}

func (c *fakeConn) PublishMsg(msg *nats.Msg) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

func TestPublishAndHandler(t *testing.T) {
	src, rec := newTestSource(t, "nats.core")
	conn := &fakeConn{}

	require.NoError(t, Publish(context.Background(), conn, src, &nats.Msg{Subject: "orders.created", Data: []byte("{}")}))
	require.Len(t, conn.msgs, 1)

	var handled context.Context
	handler := Handler(src, func(ctx context.Context, _ *nats.Msg) {
		handled = ctx
	})
	handler(conn.msgs[0])
	require.NotNil(t, activity.ScopeFromContext(handled))

	activities := rec.all()
	require.Len(t, activities, 2)
	producer, consumer := activities[0], activities[1]

	assert.Equal(t, "publish orders.created", producer.DisplayName())
	assert.Equal(t, activity.KindProducer, producer.Kind())
	assert.Equal(t, "2", tag(t, producer, attrMessagingMessageBodySize))

	assert.Equal(t, "process orders.created", consumer.DisplayName())
	assert.Equal(t, activity.KindConsumer, consumer.Kind())
	assert.Equal(t, producer.TraceID(), consumer.TraceID())
	parent, ok := consumer.Parent()
	require.True(t, ok)
	assert.Equal(t, producer.SpanID(), parent.SpanID)
}

func TestHandler_Panic(t *testing.T) {
	src, rec := newTestSource(t, "nats.core")
	handler := Handler(src, func(context.Context, *nats.Msg) {
		panic("boom")
	})

	assert.PanicsWithValue(t, "boom", func() {
		handler(&nats.Msg{Subject: "orders.created"})
	})

	activities := rec.all()
	require.Len(t, activities, 1)
	assert.Equal(t, activity.StatusError, activities[0].Status().Code)
	assert.Equal(t, "panic: boom", activities[0].Status().Description)
	assert.True(t, activities[0].IsStopped())
}

func TestHandler_NilHandler_Panics(t *testing.T) {
	src, _ := newTestSource(t, "nats.core")
	assert.Panics(t, func() { Handler(src, nil) })
	assert.Panics(t, func() { MessageHandler(src, nil) })
}
