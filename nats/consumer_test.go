package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/activity"
)

type fakeBatch struct {
	msgs []jetstream.Msg
	err  error
}

func (b *fakeBatch) Messages() <-chan jetstream.Msg {
	ch := make(chan jetstream.Msg, len(b.msgs))
	for _, m := range b.msgs {
		ch <- m
	}
	close(ch)

	return ch
}

func (b *fakeBatch) Error() error { return b.err }

// fakeConsumer implements the parts of jetstream.Consumer the wrapper calls.
type fakeConsumer struct {
	jetstream.Consumer
	batch    *fakeBatch
	next     jetstream.Msg
	err      error
	consumed jetstream.MessageHandler
}

func (c *fakeConsumer) CachedInfo() *jetstream.ConsumerInfo {
	return &jetstream.ConsumerInfo{Name: "order-worker"}
}

func (c *fakeConsumer) Fetch(int, ...jetstream.FetchOpt) (jetstream.MessageBatch, error) {
	if c.err != nil {
		return nil, c.err
	}

	return c.batch, nil
}

func (c *fakeConsumer) Next(...jetstream.FetchOpt) (jetstream.Msg, error) {
	return c.next, c.err
}

func (c *fakeConsumer) Consume(h jetstream.MessageHandler, _ ...jetstream.PullConsumeOpt) (jetstream.ConsumeContext, error) {
	c.consumed = h
	return nil, nil
}

func tracedHeader() nats.Header {
	h := nats.Header{}
	h.Set("traceparent", testTraceParent)

	return h
}

func TestTracedConsumer_Fetch_StartsReceiveScope(t *testing.T) {
	src, rec := newTestSource(t, "nats.consumer")
	fc := &fakeConsumer{batch: &fakeBatch{msgs: []jetstream.Msg{
		&mockMsg{subject: "orders.created", headers: tracedHeader()},
		&mockMsg{subject: "orders.created"},
	}}}
	tc := WrapConsumer(fc, "ORDERS", src)

	batch, err := tc.Fetch(context.Background(), 10)
	require.NoError(t, err)

	var msgs []*TracedMsg
	for m := range batch.Messages() {
		msgs = append(msgs, m)
	}
	require.NoError(t, batch.Error())
	require.Len(t, msgs, 2)

	parent, ok := msgs[0].Parent()
	require.True(t, ok)
	assert.Equal(t, "00f067aa0ba902b7", parent.SpanID.String())
	_, ok = msgs[1].Parent()
	assert.False(t, ok)

	activities := rec.all()
	require.Len(t, activities, 1)
	a := activities[0]
	assert.Equal(t, "receive ORDERS", a.DisplayName())
	assert.Equal(t, activity.KindClient, a.Kind())
	assert.Equal(t, "order-worker", tag(t, a, attrMessagingConsumerGroup))
	assert.Equal(t, "ORDERS", tag(t, a, attrNATSStream))
}

func TestTracedConsumer_Fetch_RecordsError(t *testing.T) {
	src, rec := newTestSource(t, "nats.consumer")
	tc := WrapConsumer(&fakeConsumer{err: errors.New("consumer deleted")}, "ORDERS", src)

	_, err := tc.Fetch(context.Background(), 10)
	require.Error(t, err)

	activities := rec.all()
	require.Len(t, activities, 1)
	assert.Equal(t, activity.StatusError, activities[0].Status().Code)
}

func TestTracedConsumer_Next(t *testing.T) {
	src, rec := newTestSource(t, "nats.consumer")
	tc := WrapConsumer(&fakeConsumer{next: &mockMsg{subject: "orders.created", data: []byte("abc")}}, "ORDERS", src)

	msg, err := tc.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "orders.created", msg.Subject())

	activities := rec.all()
	require.Len(t, activities, 1)
	assert.Equal(t, "3", tag(t, activities[0], attrMessagingMessageBodySize))
}

func TestTracedMsg_StartProcess(t *testing.T) {
	src, rec := newTestSource(t, "nats.consumer")
	msg := NewTracedMsg(context.Background(), &mockMsg{
		subject:  "orders.created",
		data:     []byte("payload"),
		headers:  tracedHeader(),
		metadata: &jetstream.MsgMetadata{Stream: "ORDERS", Consumer: "order-worker"},
	})

	ctx, end := msg.StartProcess(src)
	require.NotNil(t, activity.Current(ctx))
	end(errors.New("invalid order"))
	end(nil)

	activities := rec.all()
	require.Len(t, activities, 1)
	a := activities[0]
	assert.Equal(t, "process ORDERS", a.DisplayName())
	assert.Equal(t, activity.KindConsumer, a.Kind())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", a.TraceID().String())
	assert.Equal(t, activity.StatusError, a.Status().Code)
	assert.Equal(t, "orders.created", tag(t, a, attrMessagingDestinationName))
}

func TestTracedMsg_StartProcess_NilMsg(t *testing.T) {
	src, rec := newTestSource(t, "nats.consumer")
	msg := NewTracedMsg(nil, nil) //nolint:staticcheck // nil context falls back to Background

	ctx, end := msg.StartProcess(src, WithStream("ORDERS"))
	assert.NotNil(t, ctx)
	end(nil)

	activities := rec.all()
	require.Len(t, activities, 1)
	_, ok := activities[0].Parent()
	assert.False(t, ok)
	assert.Equal(t, "process ORDERS", activities[0].DisplayName())
}

func TestTracedConsumer_Consume_WrapsHandler(t *testing.T) {
	src, rec := newTestSource(t, "nats.consumer")
	fc := &fakeConsumer{}
	tc := WrapConsumer(fc, "ORDERS", src)

	var current *activity.Scope
	_, err := tc.Consume(func(msg *TracedMsg) {
		current = activity.Current(msg.Context())
	})
	require.NoError(t, err)
	require.NotNil(t, fc.consumed)

	fc.consumed(&mockMsg{subject: "orders.created", headers: tracedHeader()})

	require.NotNil(t, current)
	activities := rec.all()
	require.Len(t, activities, 1)
	assert.Equal(t, "process ORDERS", activities[0].DisplayName())
	assert.Equal(t, activity.StatusOK, activities[0].Status().Code)
}

func TestMessageHandler_Panic(t *testing.T) {
	src, rec := newTestSource(t, "nats.consumer")
	handler := MessageHandler(src, func(*TracedMsg) { panic("boom") }, WithStream("ORDERS"))

	assert.Panics(t, func() {
		handler(&mockMsg{subject: "orders.created"})
	})

	activities := rec.all()
	require.Len(t, activities, 1)
	assert.Equal(t, activity.StatusError, activities[0].Status().Code)
}

func TestWrapConsumer_NilConsumer_Panics(t *testing.T) {
	src, _ := newTestSource(t, "nats.consumer")
	assert.Panics(t, func() { WrapConsumer(nil, "ORDERS", src) })
}
