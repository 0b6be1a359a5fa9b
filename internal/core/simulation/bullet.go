package simulation

import (
	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/internal/core/observability/log"
	"github.com/zeusync/fleetsim/internal/core/physics"
)

// DefaultBulletTTL applies to bullets added without a lifetime.
const DefaultBulletTTL = 600

const bulletMass = 1.0

type bullet struct {
	data models.BulletData
	body physics.BodyID
}

// BulletSpec describes a bullet to add.
type BulletSpec struct {
	Team     int
	Position models.Vec2
	Velocity models.Vec2
	Damage   float64
	TTLTicks uint32
}

// BulletView is a read-only copy of a bullet's state.
type BulletView struct {
	Handle   models.BulletHandle
	Data     models.BulletData
	Position models.Vec2
	Velocity models.Vec2
}

// AddBullet creates a bullet. It collides with ships and walls but never with
// other bullets.
func (s *Simulation) AddBullet(spec BulletSpec) models.BulletHandle {
	ttl := spec.TTLTicks
	if ttl == 0 {
		ttl = DefaultBulletTTL
	}
	body := s.world.CreateBody(physics.BodyDef{
		Kind:     physics.KindBullet,
		Position: spec.Position,
		Heading:  models.Angle(spec.Velocity),
		Velocity: spec.Velocity,
		Radius:   BulletRadius,
		Mass:     bulletMass,
	})
	h := s.bullets.Insert(bullet{
		data: models.BulletData{Team: spec.Team, Damage: spec.Damage, TTLTicks: ttl},
		body: body,
	})
	s.bodies[body] = entityRef{kind: refBullet, bullet: h}
	return h
}

func (s *Simulation) DestroyBullet(h models.BulletHandle) error {
	if !s.bullets.Contains(h) {
		return ErrStaleHandle
	}
	s.removeBullet(h)
	return nil
}

func (s *Simulation) Bullet(h models.BulletHandle) (BulletView, error) {
	b, err := s.bullets.Get(h)
	if err != nil {
		return BulletView{}, err
	}
	st, err := s.world.State(b.body)
	if err != nil {
		s.integrity("bullet without body", log.Uint64("bullet", h.ID()))
		return BulletView{}, ErrStaleHandle
	}
	return BulletView{Handle: h, Data: b.data, Position: st.Position, Velocity: st.Velocity}, nil
}

// Bullets returns the live bullet handles in iteration order.
func (s *Simulation) Bullets() []models.BulletHandle { return s.bullets.Handles() }

func (s *Simulation) removeBullet(h models.BulletHandle) {
	b, ok := s.bullets.Remove(h)
	if !ok {
		return
	}
	delete(s.bodies, b.body)
	if err := s.world.RemoveBody(b.body); err != nil {
		s.integrity("bullet body already gone", log.Uint64("bullet", h.ID()), log.Error(err))
	}
}

// tickBullets ages every bullet and removes the expired ones.
func (s *Simulation) tickBullets() {
	var expired []models.BulletHandle
	s.bullets.Each(func(h models.BulletHandle, b *bullet) bool {
		if b.data.TTLTicks <= 1 {
			expired = append(expired, h)
		} else {
			b.data.TTLTicks--
		}
		return true
	})
	for _, h := range expired {
		s.removeBullet(h)
	}
}
