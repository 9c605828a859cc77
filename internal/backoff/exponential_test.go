package backoff_test

import (
	"testing"
	"time"

	"github.com/michalkurzeja/go-clock"
	"github.com/stretchr/testify/assert"

	"github.com/futurehomeno/edge-niu-adapter/internal/backoff"
)

func TestExponential_Fail(t *testing.T) { //nolint:paralleltest
	tests := []struct {
		name            string
		backoff         *backoff.Exponential
		expectedResults []time.Duration
	}{
		{
			name:    "delay doubles up to the cap",
			backoff: backoff.NewExponential(time.Second),
			expectedResults: []time.Duration{
				time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 16 * time.Second,
			},
		},
		{
			name:            "disabled backoff",
			backoff:         backoff.NewExponential(0),
			expectedResults: []time.Duration{0, 0, 0},
		},
	}

	for _, tt := range tests { //nolint:paralleltest
		test := tt
		t.Run(test.name, func(t *testing.T) {
			for i, expected := range test.expectedResults {
				assert.Equal(t, expected, test.backoff.Fail(), "invalid %d backoff", i+1)
			}

			test.backoff.Reset()

			for i, expected := range test.expectedResults {
				assert.Equal(t, expected, test.backoff.Fail(), "invalid %d backoff after reset", i+1)
			}
		})
	}
}

func TestExponential_Should(t *testing.T) { //nolint:paralleltest
	mock := clock.Mock(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	t.Cleanup(func() {
		clock.Restore()
	})

	b := backoff.NewExponential(time.Minute)
	assert.False(t, b.Should(), "fresh backoff must not block")

	b.Fail()
	assert.True(t, b.Should())

	mock.Add(59 * time.Second)
	assert.True(t, b.Should())

	mock.Add(time.Second)
	assert.False(t, b.Should())

	b.Fail()
	mock.Add(time.Minute)
	assert.True(t, b.Should(), "second failure doubles the delay")

	b.Reset()
	assert.False(t, b.Should())
	assert.True(t, b.RetryAt().IsZero())

	disabled := backoff.NewExponential(0)
	disabled.Fail()
	assert.False(t, disabled.Should())
}
