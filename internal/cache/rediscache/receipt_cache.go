package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Gunvolt24/ticket_service/internal/domain"
	"github.com/Gunvolt24/ticket_service/internal/ports"
	"github.com/Gunvolt24/ticket_service/pkg/metrics"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

var _ ports.ReceiptCache = (*ReceiptCache)(nil)

// ErrEmptyKey — попытка сохранить чек без ключа идемпотентности.
var ErrEmptyKey = errors.New("empty idempotency key")

// KeyPrefix — пространство ключей чеков в Redis.
const KeyPrefix = "tickets:receipt:"

// ReceiptCache — чеки по ключу идемпотентности в Redis (общий кэш для нескольких реплик).
// TTL выставляется при записи (SET ... EX) и при чтении не продлевается.
type ReceiptCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewReceiptCache — ttl <= 0 — без истечения.
func NewReceiptCache(client redis.Cmdable, ttl time.Duration) *ReceiptCache {
	if ttl < 0 {
		ttl = 0
	}
	return &ReceiptCache{client: client, ttl: ttl}
}

// NewClient — клиент go-redis с Ping для fail-fast; withTracing подключает redisotel.
func NewClient(ctx context.Context, addr string, withTracing bool) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if withTracing {
		if err := redisotel.InstrumentTracing(client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis tracing: %w", err)
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Get — ошибка Redis считается промахом: покупка пройдёт заново, а не упадёт.
func (c *ReceiptCache) Get(ctx context.Context, key string) (*domain.Receipt, bool) {
	raw, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.CacheOps.WithLabelValues("miss").Inc()
		return nil, false
	case err != nil:
		metrics.CacheOps.WithLabelValues("error").Inc()
		return nil, false
	}

	var receipt domain.Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		metrics.CacheOps.WithLabelValues("error").Inc()
		return nil, false
	}
	metrics.CacheOps.WithLabelValues("hit").Inc()
	return &receipt, true
}

func (c *ReceiptCache) Set(ctx context.Context, key string, receipt *domain.Receipt) error {
	if key == "" {
		return ErrEmptyKey
	}
	if receipt == nil {
		return nil
	}

	raw, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	if err := c.client.Set(ctx, KeyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
