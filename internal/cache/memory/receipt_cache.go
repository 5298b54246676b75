package memory

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gunvolt24/ticket_service/internal/domain"
	"github.com/Gunvolt24/ticket_service/internal/ports"
	"github.com/Gunvolt24/ticket_service/pkg/metrics"
)

var _ ports.ReceiptCache = (*ReceiptCache)(nil)

// ErrEmptyKey — попытка сохранить чек без ключа идемпотентности.
var ErrEmptyKey = errors.New("empty idempotency key")

type entry struct {
	key       string
	receipt   domain.Receipt
	expiresAt time.Time
}

// ReceiptCache — LRU с TTL для чеков успешных покупок по ключу идемпотентности.
// TTL отсчитывается от записи и не продлевается при чтении: повтор с тем же ключом
// после истечения считается новой покупкой.
type ReceiptCache struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	ll    *list.List
	index map[string]*list.Element

	mu sync.Mutex
}

// NewReceiptCache — capacity <= 0 трактуется как 1, ttl <= 0 — без истечения.
func NewReceiptCache(capacity int, ttl time.Duration) *ReceiptCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &ReceiptCache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		ll:       list.New(),
		index:    make(map[string]*list.Element),
	}
}

func (c *ReceiptCache) Get(_ context.Context, key string) (*domain.Receipt, bool) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[key]
	if !ok {
		metrics.CacheOps.WithLabelValues("miss").Inc()
		return nil, false
	}
	ent := elem.Value.(*entry)
	if c.isExpired(ent, now) {
		metrics.CacheOps.WithLabelValues("expired").Inc()
		c.removeElement(elem)
		c.reportSize()
		return nil, false
	}
	c.ll.MoveToFront(elem)

	metrics.CacheOps.WithLabelValues("hit").Inc()
	receipt := ent.receipt
	return &receipt, true
}

func (c *ReceiptCache) Set(_ context.Context, key string, receipt *domain.Receipt) error {
	if key == "" {
		return ErrEmptyKey
	}
	if receipt == nil {
		return nil
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[key]; ok {
		ent := elem.Value.(*entry)
		ent.receipt = *receipt
		ent.expiresAt = c.expiryFrom(now)
		c.ll.MoveToFront(elem)
		return nil
	}

	c.pruneExpiredFromBack(now)

	elem := c.ll.PushFront(&entry{
		key:       key,
		receipt:   *receipt,
		expiresAt: c.expiryFrom(now),
	})
	c.index[key] = elem

	if c.ll.Len() > c.capacity {
		c.evictLRU()
	}
	c.reportSize()
	return nil
}

// Len — текущее число записей (включая ещё не вычищенные просроченные).
func (c *ReceiptCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
