package runner

import (
	"fmt"
	"sort"

	"github.com/zeusync/fleetsim/internal/config"
	_ "github.com/zeusync/fleetsim/internal/core/scenario"
	"github.com/zeusync/fleetsim/internal/core/simulation"
)

// Build creates a simulation from the simulation section of cfg. Team 0 code
// is passed to simulation.New; every other team is installed after the
// scenario has set up its own opponents. Extra options are applied last.
func Build(cfg config.Config, opts ...simulation.Option) (*simulation.Simulation, error) {
	code, err := cfg.TeamCode()
	if err != nil {
		return nil, err
	}

	sc := cfg.Simulation
	base := []simulation.Option{
		simulation.WithBudget(sc.Budget),
		simulation.WithStrictIntegrity(sc.Strict),
		simulation.WithCheats(sc.Cheats),
	}
	ids := make([]int, 0, len(code))
	for id := range code {
		if id != 0 {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	for _, id := range ids {
		base = append(base, simulation.WithTeamCode(id, code[id]))
	}

	sim, err := simulation.New(sc.Scenario, int64(sc.Seed), code[0], append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("build simulation: %w", err)
	}
	return sim, nil
}
