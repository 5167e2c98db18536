package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/shop"
)

// RedisPersister stores cart containers as JSON payloads in Redis with a
// sliding TTL, one key per (token, name) pair. It is the hot-path store; the
// SQL persister is the durable one. Both implement the same contract so
// deployments pick one.
type RedisPersister struct {
	Client *redis.Client
	TTL    time.Duration
}

func (p *RedisPersister) key(token, name string) string {
	return "cart:" + token + ":" + name
}

func (p *RedisPersister) ttl() time.Duration {
	if p.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return p.TTL
}

// Load restores the container stored for the token under the cart name.
func (p *RedisPersister) Load(ctx context.Context, token, name string) (*cart.Container, error) {
	raw, err := p.Client.Get(ctx, p.key(token, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load cart %s: %w", token, cart.ErrTokenNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", token, err)
	}
	return decodeContainer(raw)
}

// Save stores the container and refreshes the TTL. Saving a cart without
// line items deletes the key instead. The shop context is not persisted
// here; the denormalized session columns are a SQL store concern.
func (p *RedisPersister) Save(ctx context.Context, calculated *cart.Calculated, _ *shop.Context) error {
	container := calculated.Container()
	if container.Items().Count() == 0 {
		return p.Delete(ctx, container.Token, container.Name)
	}
	raw, err := encodeContainer(container)
	if err != nil {
		return fmt.Errorf("save cart %s: %w", container.Token, err)
	}
	if err := p.Client.Set(ctx, p.key(container.Token, container.Name), raw, p.ttl()).Err(); err != nil {
		return fmt.Errorf("save cart %s: %w", container.Token, err)
	}
	return nil
}

// Delete removes the cart key for the token and name. An empty name scans
// for and removes every cart of the token. Deleting an unknown token is a
// no-op.
func (p *RedisPersister) Delete(ctx context.Context, token, name string) error {
	if name != "" {
		if err := p.Client.Del(ctx, p.key(token, name)).Err(); err != nil {
			return fmt.Errorf("delete cart %s: %w", token, err)
		}
		return nil
	}
	iter := p.Client.Scan(ctx, 0, "cart:"+token+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := p.Client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("delete cart %s: %w", token, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("delete cart %s: %w", token, err)
	}
	return nil
}
