package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHookChain_OrderAndThreading(t *testing.T) {
	var order []string
	mk := func(name string) ConsumerHook {
		return HookFuncs{
			Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
				order = append(order, "before:"+name)
				return ctx, km, append(data, name...), nil
			},
			After: func(context.Context, string, kafka.Message, []byte, error) {
				order = append(order, "after:"+name)
			},
		}
	}
	chain := NewHookChain(mk("a"), nil, mk("b"))

	_, _, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "xab", string(data))

	chain.AfterHandle(context.Background(), "t", kafka.Message{}, data, nil)
	assert.Equal(t, []string{"before:a", "before:b", "after:b", "after:a"}, order)
}

func TestHookChain_PanicBecomesHookError(t *testing.T) {
	var notified error
	chain := NewHookChain(
		HookFuncs{Err: func(_ context.Context, _ string, _ kafka.Message, _ []byte, err error) { notified = err }},
		HookFuncs{Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("boom")
		}},
	)

	_, _, _, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var he *HookError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "ERR_PANIC", he.Code)
	assert.Equal(t, err, notified)
}

func TestExtractTraceID(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	assert.Equal(t, "abc", ExtractTraceID(km))
	assert.Equal(t, "abc", TraceIDFrom(WithTraceID(context.Background(), "abc")))
	assert.Empty(t, TraceIDFrom(WithTraceID(context.Background(), "")))
}

func TestBackoffWithJitter(t *testing.T) {
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(100*time.Millisecond, time.Second, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
}

func TestBuildMessages(t *testing.T) {
	now := time.Now()
	msgs, total, err := buildMessages("snap", []Message{
		{Key: []byte("k1"), Value: []byte("raw")},
		{Key: []byte("k2"), Value: map[string]int{"n": 1}, Headers: map[string]string{"trace_id": "t1"}},
	}, now)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "raw", string(msgs[0].Value))
	assert.JSONEq(t, `{"n":1}`, string(msgs[1].Value))
	assert.Equal(t, "t1", ExtractTraceID(msgs[1]))
	assert.Equal(t, int64(len("raw")+len(`{"n":1}`)), total)

	_, _, err = buildMessages("snap", []Message{{Value: make(chan int)}}, now)
	assert.Error(t, err)
}

func TestNewProducerAndConsumer_RequireBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
	_, err = NewConsumer()
	assert.Error(t, err)
}
