package simulation

import (
	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/internal/core/observability/log"
	"github.com/zeusync/fleetsim/internal/core/physics"
)

// resolveCollisions applies bullet hits reported by the last physics step.
// Pairs without a live bullet are ignored. Bodies removed earlier in the same
// pass no longer map to anything and are skipped.
func (s *Simulation) resolveCollisions(collisions []physics.Collision) {
	for _, c := range collisions {
		refA, okA := s.bodies[c.A]
		refB, okB := s.bodies[c.B]

		switch {
		case okA && refA.kind == refBullet && s.bullets.Contains(refA.bullet):
			s.resolveHit(refA.bullet, refB, okB)
		case okB && refB.kind == refBullet && s.bullets.Contains(refB.bullet):
			s.resolveHit(refB.bullet, refA, okA)
		}
	}
}

// resolveHit settles one bullet against whatever it touched. The bullet is
// always destroyed. Only enemy ships take damage; the hit event is recorded
// at the bullet and the destruction event, at most once, at the ship.
func (s *Simulation) resolveHit(bh models.BulletHandle, other entityRef, mapped bool) {
	b, err := s.bullets.Get(bh)
	if err != nil {
		s.integrity("mapped bullet is stale", log.Uint64("bullet", bh.ID()))
		return
	}
	data, body := b.data, b.body
	defer s.removeBullet(bh)

	if !mapped || other.kind != refShip {
		return
	}
	sh, err := s.ships.Get(other.ship)
	if err != nil {
		s.integrity("mapped ship is stale", log.Uint64("ship", other.ship.ID()))
		return
	}
	if sh.data.Team == data.Team {
		return
	}

	pos, err := s.world.Position(body)
	if err != nil {
		s.integrity("bullet without body", log.Uint64("bullet", bh.ID()))
	}
	sh.data.Health -= data.Damage
	s.events.AddHit(pos)
	s.metrics.Hit()
	if sh.data.Health <= 0 {
		s.markDestroyed(other.ship, sh)
	}
}
