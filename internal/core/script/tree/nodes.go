package tree

import (
	"errors"
)

type baseNode struct{ name string }

func (b baseNode) Name() string { return b.name }

// ActionFunc wraps a function as an action node.
type ActionFunc struct {
	baseNode
	Fn func(t *TickContext) (Status, error)
}

func NewAction(name string, fn func(t *TickContext) (Status, error)) ActionFunc {
	return ActionFunc{baseNode: baseNode{name: name}, Fn: fn}
}

func (a ActionFunc) Tick(t *TickContext) (Status, error) { return a.Fn(t) }

// ConditionFunc wraps a predicate as a condition node.
type ConditionFunc struct {
	baseNode
	Fn func(t *TickContext) (bool, error)
}

func NewCondition(name string, fn func(t *TickContext) (bool, error)) ConditionFunc {
	return ConditionFunc{baseNode: baseNode{name: name}, Fn: fn}
}

func (c ConditionFunc) Tick(t *TickContext) (Status, error) {
	ok, err := c.Fn(t)
	if err != nil {
		return StatusFailure, err
	}
	if ok {
		return StatusSuccess, nil
	}
	return StatusFailure, nil
}

// Sequence runs children until one fails or is running.
type Sequence struct {
	baseNode
	children []Node
}

func NewSequence(name string, children ...Node) *Sequence {
	return &Sequence{baseNode: baseNode{name: name}, children: children}
}

func (s *Sequence) SetChildren(children ...Node) { s.children = children }

func (s *Sequence) Tick(t *TickContext) (Status, error) {
	for _, ch := range s.children {
		st, err := t.Run(ch)
		if err != nil {
			return StatusFailure, err
		}
		switch st {
		case StatusFailure:
			return StatusFailure, nil
		case StatusRunning:
			return StatusRunning, nil
		}
	}
	return StatusSuccess, nil
}

// Selector runs children until one succeeds or is running.
type Selector struct {
	baseNode
	children []Node
}

func NewSelector(name string, children ...Node) *Selector {
	return &Selector{baseNode: baseNode{name: name}, children: children}
}

func (s *Selector) SetChildren(children ...Node) { s.children = children }

func (s *Selector) Tick(t *TickContext) (Status, error) {
	for _, ch := range s.children {
		st, err := t.Run(ch)
		if err != nil {
			return StatusFailure, err
		}
		switch st {
		case StatusSuccess:
			return StatusSuccess, nil
		case StatusRunning:
			return StatusRunning, nil
		}
	}
	return StatusFailure, nil
}

type ParallelPolicy int

const (
	ParallelRequireAllSuccess ParallelPolicy = iota
	ParallelRequireOneSuccess
)

// Parallel ticks every child and combines their statuses by policy.
type Parallel struct {
	baseNode
	children []Node
	policy   ParallelPolicy
}

func NewParallel(name string, policy ParallelPolicy, children ...Node) *Parallel {
	return &Parallel{baseNode: baseNode{name: name}, policy: policy, children: children}
}

func (p *Parallel) SetChildren(children ...Node) { p.children = children }

func (p *Parallel) Tick(t *TickContext) (Status, error) {
	if len(p.children) == 0 {
		return StatusSuccess, nil
	}
	successes := 0
	var anyRunning bool
	for _, ch := range p.children {
		st, err := t.Run(ch)
		if err != nil {
			return StatusFailure, err
		}
		switch st {
		case StatusSuccess:
			successes++
		case StatusRunning:
			anyRunning = true
		}
	}
	switch {
	case p.policy == ParallelRequireAllSuccess && successes == len(p.children),
		p.policy == ParallelRequireOneSuccess && successes > 0:
		return StatusSuccess, nil
	case anyRunning:
		return StatusRunning, nil
	default:
		return StatusFailure, nil
	}
}

// Repeat ticks its child up to Times times in a single tick.
type Repeat struct {
	baseNode
	child         Node
	Times         int
	StopOnFailure bool
}

func NewRepeat(name string, times int, stopOnFailure bool) *Repeat {
	return &Repeat{baseNode: baseNode{name: name}, Times: times, StopOnFailure: stopOnFailure}
}

func (r *Repeat) SetChild(child Node) { r.child = child }

func (r *Repeat) Tick(t *TickContext) (Status, error) {
	if r.child == nil {
		return StatusFailure, errors.New("repeat: child is nil")
	}
	for i := 0; i < r.Times; i++ {
		st, err := t.Run(r.child)
		if err != nil {
			return StatusFailure, err
		}
		if st == StatusRunning {
			return StatusRunning, nil
		}
		if st == StatusFailure && r.StopOnFailure {
			return StatusFailure, nil
		}
	}
	return StatusSuccess, nil
}

// Invert swaps success and failure of its child.
type Invert struct {
	baseNode
	child Node
}

func NewInvert(name string) *Invert {
	return &Invert{baseNode: baseNode{name: name}}
}

func (d *Invert) SetChild(child Node) { d.child = child }

func (d *Invert) Tick(t *TickContext) (Status, error) {
	if d.child == nil {
		return StatusFailure, errors.New("invert: child is nil")
	}
	st, err := t.Run(d.child)
	if err != nil {
		return StatusFailure, err
	}
	switch st {
	case StatusSuccess:
		return StatusFailure, nil
	case StatusFailure:
		return StatusSuccess, nil
	default:
		return st, nil
	}
}

// Cooldown lets its child run at most once every Ticks simulation ticks and
// fails in between. The last run tick lives in the blackboard.
type Cooldown struct {
	baseNode
	child Node
	Ticks uint32
}

func NewCooldown(name string, ticks uint32) *Cooldown {
	return &Cooldown{baseNode: baseNode{name: name}, Ticks: ticks}
}

func (d *Cooldown) SetChild(child Node) { d.child = child }

func (d *Cooldown) Tick(t *TickContext) (Status, error) {
	if d.child == nil {
		return StatusFailure, errors.New("cooldown: child is nil")
	}
	key := d.name + ".last"
	if v, ok := t.BB.Get(key); ok {
		if last, _ := v.(uint32); t.Tick-last < d.Ticks {
			return StatusFailure, nil
		}
	}
	t.BB.Set(key, t.Tick)
	return t.Run(d.child)
}

// Probability runs its child with chance P, drawn from the context RNG.
type Probability struct {
	baseNode
	child Node
	P     float64
}

func NewProbability(name string, p float64) *Probability {
	return &Probability{baseNode: baseNode{name: name}, P: p}
}

func (p *Probability) SetChild(child Node) { p.child = child }

func (p *Probability) Tick(t *TickContext) (Status, error) {
	if p.child == nil {
		return StatusFailure, errors.New("probability: child is nil")
	}
	if p.P <= 0 {
		return StatusFailure, nil
	}
	if p.P >= 1 || t.Rand == nil {
		return t.Run(p.child)
	}
	if t.Rand.Float64() < p.P {
		return t.Run(p.child)
	}
	return StatusFailure, nil
}

// Tree holds a root node.
type Tree struct{ root Node }

func (t Tree) Root() Node { return t.root }

// Tick runs the whole tree once. An empty tree succeeds.
func (t Tree) Tick(tc *TickContext) (Status, error) {
	if t.root == nil {
		return StatusSuccess, nil
	}
	return tc.Run(t.root)
}
