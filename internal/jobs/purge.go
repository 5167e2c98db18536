// Package jobs holds the asynchronous maintenance tasks of the cart
// service, processed by the worker binary via asynq.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-cart/internal/lock"
	"github.com/noah-isme/backend-cart/internal/obs"
)

// TypeCartPurge identifies the expired cart purge task.
const TypeCartPurge = "cart:purge_expired"

// CartPurgePayload carries the retention window for one purge run.
type CartPurgePayload struct {
	RetentionSeconds int64 `json:"retentionSeconds"`
}

// NewCartPurgeTask builds the purge task for the given retention window.
func NewCartPurgeTask(retention time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(CartPurgePayload{RetentionSeconds: int64(retention.Seconds())})
	if err != nil {
		return nil, fmt.Errorf("marshal purge payload: %w", err)
	}
	return asynq.NewTask(TypeCartPurge, payload), nil
}

// Purger removes carts untouched for longer than the retention window.
type Purger interface {
	PurgeExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// Handler processes cart maintenance tasks. When Lock is set the purge runs
// under a distributed lock so concurrent workers never purge twice.
type Handler struct {
	Carts  Purger
	Lock   *lock.Locker
	Logger zerolog.Logger
}

// HandleCartPurge implements the asynq handler for TypeCartPurge.
func (h *Handler) HandleCartPurge(ctx context.Context, task *asynq.Task) error {
	var payload CartPurgePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal purge payload: %w", err)
	}
	retention := time.Duration(payload.RetentionSeconds) * time.Second
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}

	purged, err := h.purge(ctx, retention)
	if err != nil {
		return fmt.Errorf("purge expired carts: %w", err)
	}
	if obs.CartsPurgedTotal != nil {
		obs.CartsPurgedTotal.Add(float64(purged))
	}
	h.Logger.Info().
		Int64("purged", purged).
		Dur("retention", retention).
		Msg("expired carts purged")
	return nil
}

func (h *Handler) purge(ctx context.Context, retention time.Duration) (int64, error) {
	if h.Lock == nil {
		return h.Carts.PurgeExpired(ctx, retention)
	}
	var purged int64
	err := h.Lock.WithLock(ctx, "cart:purge:lock", 5*time.Minute, func(ctx context.Context) error {
		var err error
		purged, err = h.Carts.PurgeExpired(ctx, retention)
		return err
	})
	return purged, err
}
