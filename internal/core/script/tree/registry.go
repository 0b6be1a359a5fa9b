package tree

import (
	"fmt"
	"sync"
)

type reg struct {
	mu    sync.RWMutex
	acts  map[string]ActionFactory
	conds map[string]ConditionFactory
	decos map[string]DecoratorFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() Registry {
	return &reg{
		acts:  make(map[string]ActionFactory),
		conds: make(map[string]ConditionFactory),
		decos: make(map[string]DecoratorFactory),
	}
}

var (
	defaultOnce sync.Once
	defaultReg  Registry
)

// Default returns a shared registry with the built-in nodes.
func Default() Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry()
		RegisterBuiltins(defaultReg)
	})
	return defaultReg
}

func (r *reg) RegisterAction(kind string, factory ActionFactory) {
	r.mu.Lock()
	r.acts[kind] = factory
	r.mu.Unlock()
}

func (r *reg) RegisterCondition(kind string, factory ConditionFactory) {
	r.mu.Lock()
	r.conds[kind] = factory
	r.mu.Unlock()
}

func (r *reg) RegisterDecorator(kind string, factory DecoratorFactory) {
	r.mu.Lock()
	r.decos[kind] = factory
	r.mu.Unlock()
}

func (r *reg) NewAction(kind, name string, params Params) (Node, error) {
	r.mu.RLock()
	f := r.acts[kind]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("unknown action: %q", kind)
	}
	return f(name, params)
}

func (r *reg) NewCondition(kind, name string, params Params) (Node, error) {
	r.mu.RLock()
	f := r.conds[kind]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("unknown condition: %q", kind)
	}
	return f(name, params)
}

func (r *reg) NewDecorator(kind, name string, params Params) (Decorator, error) {
	r.mu.RLock()
	f := r.decos[kind]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("unknown decorator: %q", kind)
	}
	return f(name, params)
}
