package scenario

import (
	"math"

	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/internal/core/simulation"
)

const DuelName = "duel"

// Duel pits one team 0 fighter against one team 1 fighter 2 km apart.
// Team 1 idles unless code is uploaded for it.
type Duel struct{}

func (*Duel) Name() string { return DuelName }

func (*Duel) Init(sim *simulation.Simulation, _ int64) error {
	if err := sim.UploadCode(1, "native:idle"); err != nil {
		return err
	}
	if _, err := sim.AddShip(simulation.ShipSpec{
		Team:     0,
		Class:    models.Fighter,
		Position: models.V(-1000, 0),
		Heading:  0,
	}); err != nil {
		return err
	}
	_, err := sim.AddShip(simulation.ShipSpec{
		Team:     1,
		Class:    models.Fighter,
		Position: models.V(1000, 0),
		Heading:  math.Pi,
	})
	return err
}

func (*Duel) Tick(*simulation.Simulation) {}

func (*Duel) Status(sim *simulation.Simulation) models.Status { return lastTeamStanding(sim) }

func (*Duel) Lines() []models.Line { return arenaBounds() }
