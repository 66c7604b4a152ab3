// SPDX-License-Identifier: Apache-2.0

package backoff

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoff_RetryNotify(t *testing.T) {
	t.Parallel()

	errTest := errors.New("oh noes")

	tests := []struct {
		name     string
		provider Provider
		failures int
		opErr    error

		wantCalls int
		wantErr   error
	}{
		{
			name: "ok - succeeds after retries",
			provider: NewProvider(&Config{
				Constant: &ConstantConfig{Interval: time.Millisecond, MaxRetries: 3},
			}),
			failures:  2,
			opErr:     errTest,
			wantCalls: 3,
			wantErr:   nil,
		},
		{
			name: "error - max retries reached",
			provider: NewProvider(&Config{
				Constant: &ConstantConfig{Interval: time.Millisecond, MaxRetries: 2},
			}),
			failures:  10,
			opErr:     errTest,
			wantCalls: 3,
			wantErr:   errTest,
		},
		{
			name: "error - permanent error is not retried",
			provider: NewProvider(&Config{
				Exponential: &ExponentialConfig{InitialInterval: time.Millisecond, MaxInterval: time.Second, MaxRetries: 5},
			}),
			failures:  10,
			opErr:     fmt.Errorf("%w: %w", errTest, ErrPermanent),
			wantCalls: 1,
			wantErr:   ErrPermanent,
		},
		{
			name:      "error - no config does not retry",
			provider:  NewProvider(nil),
			failures:  10,
			opErr:     errTest,
			wantCalls: 1,
			wantErr:   errTest,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			notified := 0
			err := tc.provider(context.Background()).RetryNotify(func() error {
				calls++
				if calls <= tc.failures {
					return tc.opErr
				}
				return nil
			}, func(error, time.Duration) {
				notified++
			})
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, tc.wantCalls, calls)
			require.Equal(t, tc.wantCalls-1, notified)
		})
	}
}
