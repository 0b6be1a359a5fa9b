package scenario

import (
	"math"
	"math/rand"

	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/internal/core/simulation"
)

const (
	GunneryName = "gunnery"

	gunneryTargets = 5
	gunneryRadius  = 1500.0
	// one minute at 60 ticks per second
	gunneryTickLimit = 60 * 60
)

// Gunnery places stationary targets on a ring around a team 0 fighter.
// Destroying all of them wins; the clock runs out after a minute.
type Gunnery struct {
	lines []models.Line
}

func (*Gunnery) Name() string { return GunneryName }

func (g *Gunnery) Init(sim *simulation.Simulation, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	if _, err := sim.AddShip(simulation.ShipSpec{Team: 0, Class: models.Fighter}); err != nil {
		return err
	}
	for i := 0; i < gunneryTargets; i++ {
		angle := rng.Float64() * 2 * math.Pi
		if _, err := sim.AddShip(simulation.ShipSpec{
			Team:     1,
			Class:    models.Target,
			Position: models.FromAngle(angle).Mul(gunneryRadius),
		}); err != nil {
			return err
		}
	}
	g.lines = models.Circle(models.V(0, 0), gunneryRadius, 64, models.ColorGray)
	return nil
}

func (*Gunnery) Tick(*simulation.Simulation) {}

func (*Gunnery) Status(sim *simulation.Simulation) models.Status {
	targets := false
	for _, team := range liveTeams(sim) {
		if team == 1 {
			targets = true
		}
	}
	switch {
	case !targets:
		return models.Victory(0)
	case sim.Tick() >= gunneryTickLimit:
		return models.Failed()
	default:
		return models.Running()
	}
}

func (g *Gunnery) Lines() []models.Line { return g.lines }
