// Package scenario holds the built-in rulesets. Importing it registers them
// with the simulation package.
package scenario

import (
	"sort"

	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/internal/core/physics"
	"github.com/zeusync/fleetsim/internal/core/simulation"
)

func init() {
	simulation.RegisterScenario(WelcomeName, func() simulation.Scenario { return &Welcome{} })
	simulation.RegisterScenario(DuelName, func() simulation.Scenario { return &Duel{} })
	simulation.RegisterScenario(GunneryName, func() simulation.Scenario { return &Gunnery{} })
	simulation.RegisterScenario(FurballName, func() simulation.Scenario { return &Furball{} })
}

// liveTeams returns the sorted ids of teams that still have a ship that is
// not destroyed.
func liveTeams(sim *simulation.Simulation) []int {
	var teams []int
	for _, h := range sim.Ships() {
		v, err := sim.Ship(h)
		if err != nil || v.Data.Destroyed {
			continue
		}
		i := sort.SearchInts(teams, v.Data.Team)
		if i < len(teams) && teams[i] == v.Data.Team {
			continue
		}
		teams = append(teams, 0)
		copy(teams[i+1:], teams[i:])
		teams[i] = v.Data.Team
	}
	return teams
}

// lastTeamStanding is the outcome rule of the deathmatch scenarios.
func lastTeamStanding(sim *simulation.Simulation) models.Status {
	switch teams := liveTeams(sim); len(teams) {
	case 0:
		return models.Draw()
	case 1:
		return models.Victory(teams[0])
	default:
		return models.Running()
	}
}

func arenaBounds() []models.Line {
	return models.Square(models.V(0, 0), physics.WorldSize/2, models.ColorGray)
}

// Welcome is an empty sandbox.
type Welcome struct{}

const WelcomeName = "welcome"

func (*Welcome) Name() string                                { return WelcomeName }
func (*Welcome) Init(*simulation.Simulation, int64) error    { return nil }
func (*Welcome) Tick(*simulation.Simulation)                 {}
func (*Welcome) Status(*simulation.Simulation) models.Status { return models.Running() }
func (*Welcome) Lines() []models.Line                        { return nil }
