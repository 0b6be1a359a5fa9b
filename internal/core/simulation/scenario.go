package simulation

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zeusync/fleetsim/internal/core/models"
)

// Scenario governs initial placement, per-tick rules and the outcome of a
// simulation. It may create and destroy entities through the Simulation API.
// Status and Lines must not modify the simulation.
type Scenario interface {
	Name() string
	Init(sim *Simulation, seed int64) error
	Tick(sim *Simulation)
	Status(sim *Simulation) models.Status
	Lines() []models.Line
}

// ScenarioFactory returns a fresh scenario instance.
type ScenarioFactory func() Scenario

var (
	scenarioMu sync.RWMutex
	scenarios  = make(map[string]ScenarioFactory)
)

// RegisterScenario makes a scenario available to New by name.
func RegisterScenario(name string, factory ScenarioFactory) {
	scenarioMu.Lock()
	defer scenarioMu.Unlock()
	scenarios[name] = factory
}

// LoadScenario instantiates a registered scenario.
func LoadScenario(name string) (Scenario, error) {
	scenarioMu.RLock()
	factory, ok := scenarios[name]
	scenarioMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return factory(), nil
}

// Scenarios lists registered scenario names, sorted.
func Scenarios() []string {
	scenarioMu.RLock()
	defer scenarioMu.RUnlock()
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
