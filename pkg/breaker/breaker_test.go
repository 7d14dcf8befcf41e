package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_PassesValuesThrough(t *testing.T) {
	b := New("feed", Settings{})
	v, err := Do(b, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, "feed", b.Name())
	assert.Equal(t, "closed", b.State())
}

func TestDo_TripsAfterConsecutiveFailures(t *testing.T) {
	var transitions []string
	b := New("feed", Settings{
		ConsecutiveFailures: 2,
		Timeout:             time.Hour,
		OnStateChange: func(_, from, to string) {
			transitions = append(transitions, from+"->"+to)
		},
	})
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_, err := Do(b, func() (string, error) { return "", boom })
		assert.ErrorIs(t, err, boom)
	}

	called := false
	_, err := Do(b, func() (string, error) {
		called = true
		return "ok", nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
	assert.Equal(t, "open", b.State())
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestDo_NilBreaker(t *testing.T) {
	v, err := Do[string](nil, func() (string, error) { return "x", nil })
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}
