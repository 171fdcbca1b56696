package circuitbreaker

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripsAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "test", MaxRequests: 3, Timeout: time.Minute})
	fail := func() error { return fmt.Errorf("boom") }

	for i := 0; i < 3; i++ {
		assert.Error(t, cb.Execute(fail))
	}

	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrOpen)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "test", MaxRequests: 2, Timeout: time.Minute})
	fail := func() error { return fmt.Errorf("boom") }
	ok := func() error { return nil }

	assert.Error(t, cb.Execute(fail))
	require.NoError(t, cb.Execute(ok))
	assert.Error(t, cb.Execute(fail))

	// Still closed: the success in between reset the count.
	assert.NoError(t, cb.Execute(ok))
}

func TestHalfOpenProbeRecovers(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "test", MaxRequests: 1, Timeout: 10 * time.Millisecond})

	assert.Error(t, cb.Execute(func() error { return fmt.Errorf("boom") }))
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrOpen)

	time.Sleep(20 * time.Millisecond)
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.NoError(t, cb.Execute(func() error { return nil }))
}
