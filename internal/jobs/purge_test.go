package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-cart/internal/jobs"
)

type stubPurger struct {
	retention time.Duration
	purged    int64
	err       error
}

func (s *stubPurger) PurgeExpired(_ context.Context, retention time.Duration) (int64, error) {
	s.retention = retention
	return s.purged, s.err
}

func TestHandleCartPurge(t *testing.T) {
	purger := &stubPurger{purged: 3}
	handler := &jobs.Handler{Carts: purger, Logger: zerolog.Nop()}

	task, err := jobs.NewCartPurgeTask(48 * time.Hour)
	require.NoError(t, err)

	require.NoError(t, handler.HandleCartPurge(context.Background(), task))
	require.Equal(t, 48*time.Hour, purger.retention)
}

func TestHandleCartPurgeDefaultsRetention(t *testing.T) {
	purger := &stubPurger{}
	handler := &jobs.Handler{Carts: purger, Logger: zerolog.Nop()}

	task := asynq.NewTask(jobs.TypeCartPurge, []byte(`{}`))

	require.NoError(t, handler.HandleCartPurge(context.Background(), task))
	require.Equal(t, 30*24*time.Hour, purger.retention)
}

func TestHandleCartPurgePropagatesError(t *testing.T) {
	wantErr := errors.New("db down")
	handler := &jobs.Handler{Carts: &stubPurger{err: wantErr}, Logger: zerolog.Nop()}

	task, err := jobs.NewCartPurgeTask(time.Hour)
	require.NoError(t, err)

	require.ErrorIs(t, handler.HandleCartPurge(context.Background(), task), wantErr)
}
