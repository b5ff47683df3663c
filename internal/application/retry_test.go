package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	t.Parallel()
	policy := RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
	timeout := domain.NewAdapterError("op", domain.ErrTimeout, nil)
	conn := domain.NewAdapterError("op", domain.ErrConnection, errors.New("refused"))
	fatal := domain.NewAdapterError("op", domain.ErrDecode, errors.New("bad shape"))

	tests := []struct {
		name         string
		errs         []error
		wantAttempts int
		wantErr      error
	}{
		{name: "first attempt succeeds", errs: []error{nil}, wantAttempts: 1},
		{name: "timeout then success", errs: []error{timeout, nil}, wantAttempts: 2},
		{name: "connection errors exhaust attempts", errs: []error{conn, conn, conn}, wantAttempts: 3, wantErr: domain.ErrConnection},
		{name: "non transient fails fast", errs: []error{fatal, nil}, wantAttempts: 1, wantErr: domain.ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			attempts, err := withRetry(context.Background(), policy, "test", func(context.Context) error {
				err := tt.errs[calls]
				calls++
				return err
			})
			require.Equal(t, tt.wantAttempts, attempts)
			require.Equal(t, tt.wantAttempts, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Hour}

	attempts, err := withRetry(ctx, policy, "test", func(context.Context) error {
		cancel()
		return domain.NewAdapterError("op", domain.ErrTimeout, nil)
	})
	require.Equal(t, 1, attempts)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, err, domain.ErrTimeout)
}

func TestRetryPolicy_AtLeastOneAttempt(t *testing.T) {
	t.Parallel()
	require.Equal(t, 1, RetryPolicy{}.attempts())
	require.Equal(t, 4, RetryPolicy{MaxAttempts: 4}.attempts())
}
