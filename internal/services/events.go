package services

import (
	"context"
	"sync"
	"time"

	"campusconnect/internal/models"
)

// EventPublisher emits order events for the notification gateway.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event models.OrderCreatedEvent) error
	PublishStatusChanged(ctx context.Context, event models.OrderStatusChangedEvent) error
}

// Locker runs fn while holding a named lock.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, models.OrderCreatedEvent) error { return nil }

func (NopPublisher) PublishStatusChanged(context.Context, models.OrderStatusChangedEvent) error {
	return nil
}

// LocalLock serialises holders of the same key within this process. It is
// used when no Redis is configured. The TTL is ignored.
type LocalLock struct {
	mu   sync.Mutex
	held map[string]*localSlot
}

type localSlot struct {
	sem  chan struct{}
	refs int
}

// NewLocalLock creates an empty LocalLock.
func NewLocalLock() *LocalLock {
	return &LocalLock{held: make(map[string]*localSlot)}
}

// WithLock waits for key until ctx is done, then runs fn.
func (l *LocalLock) WithLock(ctx context.Context, key string, _ time.Duration, fn func(ctx context.Context) error) error {
	slot := l.acquireSlot(key)
	defer l.releaseSlot(key, slot)

	select {
	case slot.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-slot.sem }()
	return fn(ctx)
}

func (l *LocalLock) acquireSlot(key string) *localSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.held[key]
	if !ok {
		slot = &localSlot{sem: make(chan struct{}, 1)}
		l.held[key] = slot
	}
	slot.refs++
	return slot
}

func (l *LocalLock) releaseSlot(key string, slot *localSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.held, key)
	}
}
