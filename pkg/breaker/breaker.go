package breaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker open")

// Settings tunes the trip policy.
type Settings struct {
	ConsecutiveFailures uint32
	Interval            time.Duration
	Timeout             time.Duration
	// OnStateChange is optional.
	OnStateChange func(name, from, to string)
}

// Breaker wraps gobreaker for one upstream.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New trips after ConsecutiveFailures failures in a row, or when more than
// 5% of at least 20 requests in the interval failed.
func New(name string, s Settings) *Breaker {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 3
	}
	if s.Interval <= 0 {
		s.Interval = 60 * time.Second
	}
	if s.Timeout <= 0 {
		s.Timeout = 60 * time.Second
	}
	st := gobreaker.Settings{
		Name:     name,
		Interval: s.Interval,
		Timeout:  s.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.ConsecutiveFailures >= s.ConsecutiveFailures {
				return true
			}
			if c.Requests < 20 {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) > 0.05
		},
	}
	if s.OnStateChange != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			s.OnStateChange(name, from.String(), to.String())
		}
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *Breaker) Name() string  { return b.cb.Name() }
func (b *Breaker) State() string { return b.cb.State().String() }

// Do runs fn through the breaker.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if b == nil {
		return fn()
	}
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, errors.Join(ErrOpen, err)
		}
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}
