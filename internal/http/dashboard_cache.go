package http

import (
	"sync"
	"time"

	"finledger/internal/cache"
	"finledger/internal/core"
	"finledger/internal/events"
	"finledger/internal/services"
)

// dashboardCache memoizes the monthly summary and budget progress per
// month. Any ledger or settings change drops everything and bumps the
// generation, so a value computed before the change is never stored.
type dashboardCache struct {
	mu         sync.Mutex
	generation uint64
	summaries  *cache.LRUCache[services.MonthSummary]
	budgets    *cache.LRUCache[[]services.BudgetLine]
}

func newDashboardCache(size int, ttl time.Duration) *dashboardCache {
	return &dashboardCache{
		summaries: cache.NewLRUCache[services.MonthSummary](size, ttl),
		budgets:   cache.NewLRUCache[[]services.BudgetLine](size, ttl),
	}
}

// register hands both caches to m for periodic expiry sweeps.
func (c *dashboardCache) register(m *cache.Manager) {
	if m == nil {
		return
	}
	m.Register(c.summaries)
	m.Register(c.budgets)
}

func (c *dashboardCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.summaries.Purge()
	c.budgets.Purge()
}

// current returns the generation to pass to the set methods. Read it
// before loading the data the cached value is computed from.
func (c *dashboardCache) current() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// setSummary stores v unless a purge happened since gen was read.
func (c *dashboardCache) setSummary(gen uint64, key string, v services.MonthSummary) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	c.summaries.Set(key, v)
	return true
}

// setBudget stores v unless a purge happened since gen was read.
func (c *dashboardCache) setBudget(gen uint64, key string, v []services.BudgetLine) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	c.budgets.Set(key, v)
	return true
}

// onLedgerEvent is an events.Handler.
func (c *dashboardCache) onLedgerEvent(events.Event) { c.purge() }

// onSettingsChange is a settings change hook.
func (c *dashboardCache) onSettingsChange(core.Settings) { c.purge() }
