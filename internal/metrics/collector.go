// Package metrics aggregates workspace activity from the event bus into
// session counters for the status endpoint.
package metrics

import (
	"sync"
	"time"

	"github.com/lifedesk/lifedesk/internal/bus"
)

// SessionStats is the aggregate since process start.
type SessionStats struct {
	StartedAt        time.Time `json:"startedAt"`
	Turns            int64     `json:"turns"`
	TurnsCompleted   int64     `json:"turnsCompleted"`
	ActionsProposed  int64     `json:"actionsProposed"`
	ActionsApproved  int64     `json:"actionsApproved"`
	ActionsRejected  int64     `json:"actionsRejected"`
	Navigations      int64     `json:"navigations"`
	WorkspaceChanges int64     `json:"workspaceChanges"`
	LastEventAt      time.Time `json:"lastEventAt,omitempty"`
}

// Collector subscribes to the bus and counts events.
type Collector struct {
	bus   *bus.Bus
	subID bus.SubscriptionID

	mu    sync.RWMutex
	stats SessionStats
}

// NewCollector attaches a collector to the bus and starts counting.
func NewCollector(b *bus.Bus) *Collector {
	c := &Collector{
		bus:   b,
		stats: SessionStats{StartedAt: time.Now().UTC()},
	}
	c.subID = b.Subscribe("", c.handle)
	return c
}

// Stop detaches the collector from the bus.
func (c *Collector) Stop() {
	_ = c.bus.Unsubscribe(c.subID)
}

func (c *Collector) handle(e bus.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Type {
	case bus.EventTurnStarted:
		c.stats.Turns++
	case bus.EventTurnCompleted:
		c.stats.TurnsCompleted++
	case bus.EventActionProposed:
		c.stats.ActionsProposed++
	case bus.EventActionApproved:
		c.stats.ActionsApproved++
	case bus.EventActionRejected:
		c.stats.ActionsRejected++
	case bus.EventNavigate:
		c.stats.Navigations++
	case bus.EventWorkspaceChanged:
		c.stats.WorkspaceChanges++
	}
	c.stats.LastEventAt = e.Timestamp
}

// Snapshot returns a copy of the current counters.
func (c *Collector) Snapshot() SessionStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}
