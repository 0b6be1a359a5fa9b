package models

import "strconv"

// ShipHandle identifies a live ship inside one simulation.
// The zero value is never assigned to a ship.
type ShipHandle uint32

// BulletHandle identifies a live bullet inside one simulation.
// The zero value is never assigned to a bullet.
type BulletHandle uint32

// ID returns the handle as a wire identifier.
func (h ShipHandle) ID() uint64 { return uint64(h) }

func (h ShipHandle) String() string { return "ship#" + strconv.FormatUint(uint64(h), 10) }

// ID returns the handle as a wire identifier.
func (h BulletHandle) ID() uint64 { return uint64(h) }

func (h BulletHandle) String() string { return "bullet#" + strconv.FormatUint(uint64(h), 10) }

// ShipData is the game state attached to a ship handle.
// Health only decreases through damage unless a scenario resets it.
// Destroyed is set once and never cleared.
type ShipData struct {
	Team      int
	Class     ShipClass
	Health    float64
	Destroyed bool

	// ReloadTicks counts down to the next allowed shot.
	ReloadTicks uint32
}

// BulletData is the game state attached to a bullet handle.
type BulletData struct {
	Team   int
	Damage float64
	// TTLTicks is the number of ticks left before the bullet expires.
	TTLTicks uint32
}
