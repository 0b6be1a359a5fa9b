package bus

import "github.com/zeusync/fleetsim/internal/core/models"

// TickCompleted is published after every simulation step.
type TickCompleted struct {
	Tick    uint32
	Time    float64
	Status  models.Status
	Ships   int
	Bullets int
	Hash    uint64
}

// ShipDestroyed is published when a ship's health reaches zero.
type ShipDestroyed struct {
	Ship     uint64
	Team     int
	Class    models.ShipClass
	Position models.Vec2
}

// CodeChange is published for both accepted and rejected uploads.
type CodeChange struct {
	Team  int
	Error string
}
