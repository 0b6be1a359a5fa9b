package scenario

import (
	"math"
	"math/rand"

	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/internal/core/simulation"
)

const (
	FurballName = "furball"

	furballShips   = 4
	furballSpacing = 200.0
	furballOffset  = 2000.0
	furballJitter  = 50.0
)

// Furball is a 4v4 fighter brawl against the reference AI.
type Furball struct{}

func (*Furball) Name() string { return FurballName }

func (*Furball) Init(sim *simulation.Simulation, seed int64) error {
	if err := sim.UploadCode(1, "native:reference"); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(seed))
	jitter := func() float64 { return (rng.Float64()*2 - 1) * furballJitter }

	for _, side := range []struct {
		team    int
		x       float64
		heading float64
	}{
		{team: 0, x: -furballOffset, heading: 0},
		{team: 1, x: furballOffset, heading: math.Pi},
	} {
		for i := 0; i < furballShips; i++ {
			y := (float64(i) - float64(furballShips-1)/2) * furballSpacing
			if _, err := sim.AddShip(simulation.ShipSpec{
				Team:     side.team,
				Class:    models.Fighter,
				Position: models.V(side.x+jitter(), y+jitter()),
				Heading:  side.heading,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (*Furball) Tick(*simulation.Simulation) {}

func (*Furball) Status(sim *simulation.Simulation) models.Status { return lastTeamStanding(sim) }

func (*Furball) Lines() []models.Line { return arenaBounds() }
