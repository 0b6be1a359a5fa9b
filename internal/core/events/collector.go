// Package events accumulates the per-tick side effects of a simulation step
// (agent errors, hits, destructions, debug overlays) for snapshots and the UI.
package events

import (
	"github.com/zeusync/fleetsim/internal/core/models"
)

// SimEvents is one tick's worth of events.
type SimEvents struct {
	Errors     []models.AgentError
	Hits       []models.Vec2
	Destroyed  []models.Vec2
	DebugLines map[uint64][]models.Line
}

// Collector is cleared at the start of every step and appended to during it.
// It is owned by a single simulation and not safe for concurrent use.
type Collector struct {
	errors     []models.AgentError
	hits       []models.Vec2
	destroyed  []models.Vec2
	debugLines map[uint64][]models.Line
	debugOrder []uint64
}

func NewCollector() *Collector {
	return &Collector{debugLines: make(map[uint64][]models.Line)}
}

// Clear drops everything recorded during the previous tick.
func (c *Collector) Clear() {
	c.errors = c.errors[:0]
	c.hits = c.hits[:0]
	c.destroyed = c.destroyed[:0]
	for _, id := range c.debugOrder {
		delete(c.debugLines, id)
	}
	c.debugOrder = c.debugOrder[:0]
}

func (c *Collector) AddError(err models.AgentError) {
	c.errors = append(c.errors, err)
}

func (c *Collector) AddHit(pos models.Vec2) {
	c.hits = append(c.hits, pos)
}

func (c *Collector) AddDestroyed(pos models.Vec2) {
	c.destroyed = append(c.destroyed, pos)
}

// AddDebugLines appends lines to the overlay of ship. Empty batches are ignored.
func (c *Collector) AddDebugLines(ship uint64, lines []models.Line) {
	if len(lines) == 0 {
		return
	}
	if _, ok := c.debugLines[ship]; !ok {
		c.debugOrder = append(c.debugOrder, ship)
	}
	c.debugLines[ship] = append(c.debugLines[ship], lines...)
}

func (c *Collector) Errors() []models.AgentError {
	return append([]models.AgentError(nil), c.errors...)
}

func (c *Collector) Hits() []models.Vec2 {
	return append([]models.Vec2(nil), c.hits...)
}

func (c *Collector) Destroyed() []models.Vec2 {
	return append([]models.Vec2(nil), c.destroyed...)
}

// DebugLines returns a deep copy of the overlays, keyed by ship id.
func (c *Collector) DebugLines() map[uint64][]models.Line {
	out := make(map[uint64][]models.Line, len(c.debugOrder))
	for _, id := range c.debugOrder {
		out[id] = append([]models.Line(nil), c.debugLines[id]...)
	}
	return out
}

// Events returns a copy that stays valid after the next Clear.
func (c *Collector) Events() SimEvents {
	return SimEvents{
		Errors:     c.Errors(),
		Hits:       c.Hits(),
		Destroyed:  c.Destroyed(),
		DebugLines: c.DebugLines(),
	}
}
