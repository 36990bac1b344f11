package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker"
)

var (
	// MaxConsecutiveFailures ...
	MaxConsecutiveFailures uint32 = 3
	// OpenTimeout is how long the breaker stays open before letting a trial
	// request through.
	OpenTimeout = 5 * time.Minute
)

// Opts ...
type Opts struct {
	Name                   string
	MaxConsecutiveFailures uint32
	OpenTimeout            time.Duration
	OnStateChange          func(name string, from, to gobreaker.State)
}

// NewCircuitBreaker is a factory function returning a *gobreaker.CircuitBreaker
// that opens once the number of consecutive failing requests reaches
// MaxConsecutiveFailures. Zero values in opts are replaced by the package
// defaults.
func NewCircuitBreaker(opts Opts) *gobreaker.CircuitBreaker {
	name := opts.Name
	if name == "" {
		name = "circuitbreaker"
	}
	maxFailures := opts.MaxConsecutiveFailures
	if maxFailures == 0 {
		maxFailures = MaxConsecutiveFailures
	}
	timeout := opts.OpenTimeout
	if timeout <= 0 {
		timeout = OpenTimeout
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:          name,
		MaxRequests:   1,
		Timeout:       timeout,
		OnStateChange: opts.OnStateChange,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	})
}
