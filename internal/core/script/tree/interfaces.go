// Package tree is a small behavior tree engine for ship controllers. Trees
// are described in YAML, instantiated through a Registry of node factories,
// and ticked once per ship per simulation tick under a node-visit budget.
package tree

import (
	"errors"
	"math/rand"

	"github.com/zeusync/fleetsim/internal/core/models"
)

var (
	ErrBudgetExceeded = errors.New("node budget exceeded")
	ErrNoShip         = errors.New("node requires a ship")
)

// Status is the result of ticking a node.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Ship is the part of a ship's sensor/actuator surface that tree nodes use.
type Ship interface {
	ID() uint64
	Position() models.Vec2
	Velocity() models.Vec2
	Heading() float64
	AngularVelocity() float64
	Health() float64
	Scan() (models.Contact, bool)
	Accelerate(acc models.Vec2)
	Torque(angularAcc float64)
	Fire() bool
	DebugLine(a, b models.Vec2, color [4]float32)
	Explode()
}

// Blackboard is key/value storage shared by the nodes of a tree.
type Blackboard interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
	// Keys returns the stored keys, sorted.
	Keys() []string
}

// TickContext carries everything a node may touch during one tree tick.
// Ship is nil for team-level trees.
type TickContext struct {
	Ship  Ship
	BB    Blackboard
	Team  Blackboard
	Tick  uint32
	Rand  *rand.Rand
	Debug bool

	budget int
	visits int
}

// NewTickContext returns a context that allows at most budget node visits.
// A budget <= 0 disables the limit.
func NewTickContext(ship Ship, bb, team Blackboard, tick uint32, rng *rand.Rand, budget int) *TickContext {
	return &TickContext{Ship: ship, BB: bb, Team: team, Tick: tick, Rand: rng, budget: budget}
}

// Run ticks n, charging one visit against the budget.
func (t *TickContext) Run(n Node) (Status, error) {
	t.visits++
	if t.budget > 0 && t.visits > t.budget {
		return StatusFailure, ErrBudgetExceeded
	}
	return n.Tick(t)
}

// Visits reports how many nodes were ticked so far.
func (t *TickContext) Visits() int { return t.visits }

func (t *TickContext) ship() (Ship, error) {
	if t.Ship == nil {
		return nil, ErrNoShip
	}
	return t.Ship, nil
}

// Node is a behavior tree node. Nodes keep per-ship state in the blackboard
// so a built tree can be shared by every ship of a team.
type Node interface {
	Tick(t *TickContext) (Status, error)
	Name() string
}

// Decorator wraps a single child.
type Decorator interface {
	Node
	SetChild(child Node)
}

// Composite manages multiple children.
type Composite interface {
	Node
	SetChildren(children ...Node)
}

type (
	ActionFactory    func(name string, params Params) (Node, error)
	ConditionFactory func(name string, params Params) (Node, error)
	DecoratorFactory func(name string, params Params) (Decorator, error)
)

// Registry maps node type names from configuration onto factories.
type Registry interface {
	RegisterAction(kind string, factory ActionFactory)
	RegisterCondition(kind string, factory ConditionFactory)
	RegisterDecorator(kind string, factory DecoratorFactory)

	NewAction(kind, name string, params Params) (Node, error)
	NewCondition(kind, name string, params Params) (Node, error)
	NewDecorator(kind, name string, params Params) (Decorator, error)
}
