package circuitbreaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Kenbak/zipher/pkg/circuitbreaker"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
)

var errFailing = errors.New("failing")

func TestCircuitBreaker(t *testing.T) {
	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Opts{
		MaxConsecutiveFailures: 3,
		OpenTimeout:            time.Hour,
	})

	fail := func() (interface{}, error) { return nil, errFailing }
	succeed := func() (interface{}, error) { return nil, nil }

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(fail)
		require.ErrorIs(t, err, errFailing)
	}
	_, err := cb.Execute(succeed)
	require.NoError(t, err)
	require.Equal(t, gobreaker.StateClosed, cb.State())

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(fail)
		require.ErrorIs(t, err, errFailing)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	_, err = cb.Execute(succeed)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
}
