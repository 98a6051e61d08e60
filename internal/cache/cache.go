// Package cache provides the in-process caches the HTTP layer puts in
// front of insight computations. Entries expire by TTL and are evicted
// least-recently-used once a cache is full; writes to a user's records
// invalidate that user's keys by prefix.
package cache

import (
	"time"

	"github.com/Raajp10/ai-expense-tracker/internal/log"
)

// Cache is the read/write surface handlers use.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// DeletePrefix drops every key with the given prefix and reports how
	// many were removed.
	DeletePrefix(prefix string) int
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager owns the periodic expiry sweep across all registered caches.
type Manager struct {
	caches  []Cleaner
	logger  *log.Logger
	stop    chan struct{}
	stopped chan struct{}
}

func NewManager(logger *log.Logger) *Manager {
	return &Manager{
		logger:  logger.WithComponent(log.ComponentCache),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// StartCleanup sweeps expired entries on a fixed interval until Stop.
func (m *Manager) StartCleanup(interval time.Duration) {
	go func() {
		defer close(m.stopped)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cleaned := 0
				for _, c := range m.caches {
					cleaned += c.CleanExpired()
				}
				if cleaned > 0 {
					m.logger.Debug("removed expired cache entries", "count", cleaned)
				}
			case <-m.stop:
				return
			}
		}
	}()
}

func (m *Manager) Stop() {
	close(m.stop)
	<-m.stopped
}
