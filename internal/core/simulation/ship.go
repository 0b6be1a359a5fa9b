package simulation

import (
	"math"

	"github.com/zeusync/fleetsim/internal/core/events/bus"
	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/internal/core/observability/log"
	"github.com/zeusync/fleetsim/internal/core/physics"
	"github.com/zeusync/fleetsim/internal/core/script"
)

// BulletRadius is the collision radius of every bullet, in metres.
const BulletRadius = 1.0

type ship struct {
	data       models.ShipData
	body       physics.BodyID
	controller script.ShipController

	// actuator requests for the current tick, applied by tickShip
	acceleration models.Vec2
	torque       float64
	explode      bool
}

// ShipSpec describes a ship to add.
type ShipSpec struct {
	Team     int
	Class    models.ShipClass
	Position models.Vec2
	Heading  float64
	Velocity models.Vec2
}

// ShipView is a read-only copy of a ship's state.
type ShipView struct {
	Handle          models.ShipHandle
	Data            models.ShipData
	Position        models.Vec2
	Velocity        models.Vec2
	Heading         float64
	AngularVelocity float64
}

// AddShip creates a ship with its class defaults and gives it a controller
// from its team, if the team has one.
func (s *Simulation) AddShip(spec ShipSpec) (models.ShipHandle, error) {
	if !spec.Class.Valid() {
		return 0, models.ErrUnknownClass
	}
	cs := spec.Class.Spec()
	body := s.world.CreateBody(physics.BodyDef{
		Kind:     physics.KindShip,
		Position: spec.Position,
		Heading:  spec.Heading,
		Velocity: spec.Velocity,
		Radius:   cs.Radius,
		Mass:     cs.Mass,
	})
	h := s.ships.Insert(ship{
		data: models.ShipData{Team: spec.Team, Class: spec.Class, Health: cs.Health},
		body: body,
	})
	s.bodies[body] = entityRef{kind: refShip, ship: h}
	s.installShipController(h)
	return h, nil
}

// DestroyShip removes a ship immediately without a destruction event.
func (s *Simulation) DestroyShip(h models.ShipHandle) error {
	if !s.ships.Contains(h) {
		return ErrStaleHandle
	}
	s.removeShip(h)
	return nil
}

// Ship returns a snapshot of one ship.
func (s *Simulation) Ship(h models.ShipHandle) (ShipView, error) {
	sh, err := s.ships.Get(h)
	if err != nil {
		return ShipView{}, err
	}
	st, err := s.world.State(sh.body)
	if err != nil {
		s.integrity("ship without body", log.Uint64("ship", h.ID()))
		return ShipView{}, ErrStaleHandle
	}
	return ShipView{
		Handle:          h,
		Data:            sh.data,
		Position:        st.Position,
		Velocity:        st.Velocity,
		Heading:         st.Heading,
		AngularVelocity: st.AngularVelocity,
	}, nil
}

// UpdateShip lets scenario logic edit a ship's game data in place.
func (s *Simulation) UpdateShip(h models.ShipHandle, fn func(*models.ShipData)) error {
	sh, err := s.ships.Get(h)
	if err != nil {
		return err
	}
	fn(&sh.data)
	return nil
}

// Ships returns the live ship handles in iteration order.
func (s *Simulation) Ships() []models.ShipHandle { return s.ships.Handles() }

func (s *Simulation) removeShip(h models.ShipHandle) {
	sh, ok := s.ships.Remove(h)
	if !ok {
		return
	}
	delete(s.bodies, sh.body)
	if err := s.world.RemoveBody(sh.body); err != nil {
		s.integrity("ship body already gone", log.Uint64("ship", h.ID()), log.Error(err))
	}
}

func (s *Simulation) installShipController(h models.ShipHandle) {
	sh, err := s.ships.Get(h)
	if err != nil {
		return
	}
	t, ok := s.teams[sh.data.Team]
	if !ok {
		sh.controller = nil
		return
	}
	ctrl, err := t.controller.NewShipController(&shipBridge{sim: s, h: h})
	if err != nil {
		s.agentError(&script.AgentError{Ship: h.ID(), Team: sh.data.Team, Err: err})
		ctrl = nil
	}
	// NewShipController may have inserted entities and moved the arena.
	if sh, err = s.ships.Get(h); err == nil {
		sh.controller = ctrl
	}
}

func (s *Simulation) runShipController(h models.ShipHandle) {
	sh, err := s.ships.Get(h)
	if err != nil || sh.controller == nil || sh.data.Destroyed {
		return
	}
	ctrl, teamID := sh.controller, sh.data.Team
	if err := script.Invoke(ctrl.Tick); err != nil {
		s.agentError(&script.AgentError{Ship: h.ID(), Team: teamID, Err: err})
	}
}

// tickShip applies the actuator requests of the tick and removes the ship if
// it was destroyed.
func (s *Simulation) tickShip(h models.ShipHandle) {
	sh, err := s.ships.Get(h)
	if err != nil {
		return
	}

	if sh.explode && !sh.data.Destroyed {
		sh.data.Health = 0
		s.markDestroyed(h, sh)
	}
	if sh.data.Destroyed {
		s.removeShip(h)
		return
	}

	acc, torque := sh.acceleration, sh.torque
	sh.acceleration, sh.torque = models.Vec2{}, 0
	if sh.data.ReloadTicks > 0 {
		sh.data.ReloadTicks--
	}

	if acc != (models.Vec2{}) {
		if err := s.thrust(sh, acc); err != nil {
			s.integrity("ship without body", log.Uint64("ship", h.ID()), log.Error(err))
			return
		}
	}
	if torque != 0 {
		if err := s.turn(sh, torque); err != nil {
			s.integrity("ship without body", log.Uint64("ship", h.ID()), log.Error(err))
			return
		}
	}
}

// thrust applies acc, given in the ship's frame, as a world-frame force.
func (s *Simulation) thrust(sh *ship, acc models.Vec2) error {
	heading, err := s.world.Heading(sh.body)
	if err != nil {
		return err
	}
	mass, err := s.world.Mass(sh.body)
	if err != nil {
		return err
	}
	return s.world.ApplyForce(sh.body, models.Rotate(acc, heading).Mul(mass))
}

func (s *Simulation) turn(sh *ship, angularAcc float64) error {
	inertia, err := s.world.Inertia(sh.body)
	if err != nil {
		return err
	}
	return s.world.ApplyTorque(sh.body, angularAcc*inertia)
}

// markDestroyed flags sh destroyed and records the destruction once.
func (s *Simulation) markDestroyed(h models.ShipHandle, sh *ship) {
	if sh.data.Destroyed {
		return
	}
	sh.data.Destroyed = true
	pos, err := s.world.Position(sh.body)
	if err != nil {
		s.integrity("ship without body", log.Uint64("ship", h.ID()))
	}
	s.events.AddDestroyed(pos)
	s.metrics.ShipDestroyed()
	s.publish(bus.TypeShipDestroyed, bus.ShipDestroyed{
		Ship:     h.ID(),
		Team:     sh.data.Team,
		Class:    sh.data.Class,
		Position: pos,
	})
}

func (s *Simulation) fire(h models.ShipHandle) bool {
	sh, err := s.ships.Get(h)
	if err != nil || sh.data.Destroyed {
		return false
	}
	cs := sh.data.Class.Spec()
	if cs.Weapon == nil || sh.data.ReloadTicks > 0 {
		return false
	}
	st, err := s.world.State(sh.body)
	if err != nil {
		s.integrity("ship without body", log.Uint64("ship", h.ID()))
		return false
	}
	sh.data.ReloadTicks = cs.Weapon.ReloadTicks
	teamID := sh.data.Team

	dir := models.FromAngle(st.Heading)
	s.AddBullet(BulletSpec{
		Team:     teamID,
		Position: st.Position.Add(dir.Mul(cs.Radius + 2*BulletRadius)),
		Velocity: st.Velocity.Add(dir.Mul(cs.Weapon.BulletSpeed)),
		Damage:   cs.Weapon.Damage,
		TTLTicks: cs.Weapon.TTLTicks,
	})
	return true
}

// scan returns the nearest live enemy within radar range. Ties go to the
// ship that comes first in iteration order.
func (s *Simulation) scan(h models.ShipHandle) (models.Contact, bool) {
	self, err := s.Ship(h)
	if err != nil {
		return models.Contact{}, false
	}
	radar := self.Data.Class.Spec().RadarRange
	best := math.Inf(1)
	var found models.Contact
	var ok bool
	s.ships.Each(func(oh models.ShipHandle, other *ship) bool {
		if oh == h || other.data.Team == self.Data.Team || other.data.Destroyed {
			return true
		}
		st, err := s.world.State(other.body)
		if err != nil {
			return true
		}
		d := models.Distance(self.Position, st.Position)
		if d <= radar && d < best {
			best = d
			found = models.Contact{ID: oh.ID(), Position: st.Position, Velocity: st.Velocity, Class: other.data.Class}
			ok = true
		}
		return true
	})
	return found, ok
}

// shipBridge is the script.Ship surface of one ship. Every call re-resolves
// the handle, so a bridge outliving its ship reads zeros and does nothing.
type shipBridge struct {
	sim *Simulation
	h   models.ShipHandle
}

func (b *shipBridge) view() ShipView {
	v, _ := b.sim.Ship(b.h)
	return v
}

func (b *shipBridge) ID() uint64                   { return b.h.ID() }
func (b *shipBridge) Team() int                    { return b.view().Data.Team }
func (b *shipBridge) Class() models.ShipClass      { return b.view().Data.Class }
func (b *shipBridge) Position() models.Vec2        { return b.view().Position }
func (b *shipBridge) Velocity() models.Vec2        { return b.view().Velocity }
func (b *shipBridge) Heading() float64             { return b.view().Heading }
func (b *shipBridge) AngularVelocity() float64     { return b.view().AngularVelocity }
func (b *shipBridge) Health() float64              { return b.view().Data.Health }
func (b *shipBridge) CurrentTick() uint32          { return b.sim.tick }
func (b *shipBridge) Time() float64                { return b.sim.Time() }
func (b *shipBridge) RadarRange() float64          { return b.Class().Spec().RadarRange }
func (b *shipBridge) Scan() (models.Contact, bool) { return b.sim.scan(b.h) }
func (b *shipBridge) Fire() bool                   { return b.sim.fire(b.h) }

func (b *shipBridge) Accelerate(acc models.Vec2) {
	sh, err := b.sim.ships.Get(b.h)
	if err != nil {
		return
	}
	cs := sh.data.Class.Spec()
	sh.acceleration = models.V(
		clamp(acc.X(), cs.MaxForwardAcceleration),
		clamp(acc.Y(), cs.MaxLateralAcceleration),
	)
}

func (b *shipBridge) Torque(angularAcc float64) {
	sh, err := b.sim.ships.Get(b.h)
	if err != nil {
		return
	}
	sh.torque = clamp(angularAcc, sh.data.Class.Spec().MaxAngularAcceleration)
}

func (b *shipBridge) Explode() {
	if sh, err := b.sim.ships.Get(b.h); err == nil {
		sh.explode = true
	}
}

func (b *shipBridge) DebugLine(a, c models.Vec2, color [4]float32) {
	if !b.sim.ships.Contains(b.h) {
		return
	}
	b.sim.EmitDebugLines(b.h, []models.Line{{A: a, B: c, Color: color}})
}

// clamp limits v to [-limit, limit]; NaN becomes zero.
func clamp(v, limit float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-limit, math.Min(limit, v))
}
