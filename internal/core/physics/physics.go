// Package physics wraps a Box2D world stepped at a fixed rate. It owns all
// rigid body state and reports collision starts as raw body pairs; it has no
// notion of ships, bullets or damage.
package physics

import (
	"errors"
	"math"

	"github.com/ByteArena/box2d"

	"github.com/zeusync/fleetsim/internal/core/models"
)

const (
	// TickLength is the fixed timestep, in seconds.
	TickLength = 1.0 / 60.0
	// WorldSize is the side of the square arena, in metres, centred on the origin.
	WorldSize = 10_000.0

	// Scale converts metres into Box2D units. Box2D caps translation per step
	// at 2 units, which bounds speed at 2/(Scale*TickLength) m/s.
	Scale    = 1.0 / 20.0
	MaxSpeed = 2.0 / (Scale * TickLength)

	velocityIterations = 8
	positionIterations = 3
)

const (
	categoryWall uint16 = 1 << iota
	categoryShip
	categoryBullet
)

var ErrUnknownBody = errors.New("unknown physics body")

// BodyID identifies a rigid body. IDs are never reused within a World.
type BodyID uint64

// Kind selects collision filtering and CCD behavior for a body.
type Kind uint8

const (
	KindShip Kind = iota
	KindBullet
)

// BodyDef describes a body to create. Units are metres, seconds, radians, kg.
type BodyDef struct {
	Kind            Kind
	Position        models.Vec2
	Heading         float64
	Velocity        models.Vec2
	AngularVelocity float64
	Radius          float64
	Mass            float64
}

// State is the kinematic state of a body.
type State struct {
	Position        models.Vec2
	Velocity        models.Vec2
	Heading         float64
	AngularVelocity float64
}

// Collision reports that two bodies started touching during a step.
type Collision struct {
	A, B BodyID
}

// World is a zero-gravity Box2D world enclosed by static walls.
type World struct {
	world   box2d.B2World
	bodies  map[BodyID]*box2d.B2Body
	walls   map[BodyID]struct{}
	nextID  BodyID
	pending []Collision
}

// NewWorld creates an empty arena of WorldSize metres.
func NewWorld() *World {
	w := &World{
		world:  box2d.MakeB2World(box2d.MakeB2Vec2(0, 0)),
		bodies: make(map[BodyID]*box2d.B2Body),
		walls:  make(map[BodyID]struct{}),
	}
	w.world.SetContactFilter(&box2d.B2ContactFilter{})
	w.world.SetContactListener(&contactListener{world: w})
	w.createWalls()
	return w
}

func (w *World) createWalls() {
	h := WorldSize / 2 * Scale
	corners := []box2d.B2Vec2{
		box2d.MakeB2Vec2(-h, -h),
		box2d.MakeB2Vec2(h, -h),
		box2d.MakeB2Vec2(h, h),
		box2d.MakeB2Vec2(-h, h),
	}
	for i := range corners {
		id := w.allocID()
		def := box2d.MakeB2BodyDef()
		def.Type = box2d.B2BodyType.B2_staticBody
		def.UserData = id
		body := w.world.CreateBody(&def)

		edge := box2d.MakeB2EdgeShape()
		edge.Set(corners[i], corners[(i+1)%len(corners)])
		fd := box2d.MakeB2FixtureDef()
		fd.Shape = &edge
		fd.Filter.CategoryBits = categoryWall
		fd.Filter.MaskBits = categoryShip | categoryBullet
		body.CreateFixtureFromDef(&fd)

		w.bodies[id] = body
		w.walls[id] = struct{}{}
	}
}

func (w *World) allocID() BodyID {
	w.nextID++
	return w.nextID
}

// CreateBody adds a dynamic circular body and returns its id.
func (w *World) CreateBody(d BodyDef) BodyID {
	id := w.allocID()

	def := box2d.MakeB2BodyDef()
	def.Type = box2d.B2BodyType.B2_dynamicBody
	def.Position = toB2(d.Position)
	def.Angle = d.Heading
	def.LinearVelocity = toB2(d.Velocity)
	def.AngularVelocity = d.AngularVelocity
	def.AllowSleep = false
	def.Bullet = d.Kind == KindBullet
	def.UserData = id
	body := w.world.CreateBody(&def)

	radius := d.Radius * Scale
	circle := box2d.MakeB2CircleShape()
	circle.M_radius = radius

	fd := box2d.MakeB2FixtureDef()
	fd.Shape = &circle
	fd.Density = d.Mass / (math.Pi * radius * radius)
	fd.Friction = 0
	fd.Restitution = 0.2
	switch d.Kind {
	case KindBullet:
		fd.Filter.CategoryBits = categoryBullet
		fd.Filter.MaskBits = categoryWall | categoryShip
	default:
		fd.Filter.CategoryBits = categoryShip
		fd.Filter.MaskBits = categoryWall | categoryShip | categoryBullet
	}
	body.CreateFixtureFromDef(&fd)

	w.bodies[id] = body
	return id
}

// RemoveBody destroys a body. Removing an unknown body reports ErrUnknownBody.
func (w *World) RemoveBody(id BodyID) error {
	body, ok := w.bodies[id]
	if !ok {
		return ErrUnknownBody
	}
	if _, wall := w.walls[id]; wall {
		return ErrUnknownBody
	}
	w.world.DestroyBody(body)
	delete(w.bodies, id)
	return nil
}

// Contains reports whether id is a live body.
func (w *World) Contains(id BodyID) bool {
	_, ok := w.bodies[id]
	return ok
}

// IsWall reports whether id is one of the arena boundaries.
func (w *World) IsWall(id BodyID) bool {
	_, ok := w.walls[id]
	return ok
}

// Len returns the number of bodies, walls excluded.
func (w *World) Len() int {
	return len(w.bodies) - len(w.walls)
}

// State returns the full kinematic state of a body.
func (w *World) State(id BodyID) (State, error) {
	body, ok := w.bodies[id]
	if !ok {
		return State{}, ErrUnknownBody
	}
	return State{
		Position:        fromB2(body.GetPosition()),
		Velocity:        fromB2(body.GetLinearVelocity()),
		Heading:         models.NormalizeAngle(body.GetAngle()),
		AngularVelocity: body.GetAngularVelocity(),
	}, nil
}

func (w *World) Position(id BodyID) (models.Vec2, error) {
	s, err := w.State(id)
	return s.Position, err
}

func (w *World) Velocity(id BodyID) (models.Vec2, error) {
	s, err := w.State(id)
	return s.Velocity, err
}

func (w *World) Heading(id BodyID) (float64, error) {
	s, err := w.State(id)
	return s.Heading, err
}

func (w *World) AngularVelocity(id BodyID) (float64, error) {
	s, err := w.State(id)
	return s.AngularVelocity, err
}

// Mass returns the body mass in kg.
func (w *World) Mass(id BodyID) (float64, error) {
	body, ok := w.bodies[id]
	if !ok {
		return 0, ErrUnknownBody
	}
	return body.GetMass(), nil
}

// Inertia returns the rotational inertia about the centre of mass in kg·m².
func (w *World) Inertia(id BodyID) (float64, error) {
	body, ok := w.bodies[id]
	if !ok {
		return 0, ErrUnknownBody
	}
	return body.GetInertia() * (1 / (Scale * Scale)), nil
}

// ApplyForce applies a force in newtons at the centre of mass until the next step.
func (w *World) ApplyForce(id BodyID, force models.Vec2) error {
	body, ok := w.bodies[id]
	if !ok {
		return ErrUnknownBody
	}
	body.ApplyForceToCenter(toB2(force), true)
	return nil
}

// ApplyImpulse applies a linear impulse in N·s at the centre of mass.
func (w *World) ApplyImpulse(id BodyID, impulse models.Vec2) error {
	body, ok := w.bodies[id]
	if !ok {
		return ErrUnknownBody
	}
	body.ApplyLinearImpulse(toB2(impulse), body.GetWorldCenter(), true)
	return nil
}

// ApplyTorque applies a torque in N·m until the next step.
func (w *World) ApplyTorque(id BodyID, torque float64) error {
	body, ok := w.bodies[id]
	if !ok {
		return ErrUnknownBody
	}
	body.ApplyTorque(torque*Scale*Scale, true)
	return nil
}

// SetVelocity overrides the linear velocity of a body.
func (w *World) SetVelocity(id BodyID, v models.Vec2) error {
	body, ok := w.bodies[id]
	if !ok {
		return ErrUnknownBody
	}
	body.SetLinearVelocity(toB2(v))
	return nil
}

// Step advances the world by exactly one TickLength. Collisions that started
// during the step are buffered until DrainCollisions.
func (w *World) Step() {
	w.world.Step(TickLength, velocityIterations, positionIterations)
}

// DrainCollisions returns the collisions buffered since the last drain.
func (w *World) DrainCollisions() []Collision {
	out := w.pending
	w.pending = nil
	return out
}

func toB2(v models.Vec2) box2d.B2Vec2 {
	return box2d.MakeB2Vec2(v.X()*Scale, v.Y()*Scale)
}

func fromB2(v box2d.B2Vec2) models.Vec2 {
	return models.V(v.X*(1/Scale), v.Y*(1/Scale))
}

// contactListener forwards collision starts into the world buffer. Box2D
// invokes it while the world is locked, so it must not touch bodies.
type contactListener struct {
	world *World
}

func (l *contactListener) BeginContact(contact box2d.B2ContactInterface) {
	a, okA := bodyID(contact.GetFixtureA())
	b, okB := bodyID(contact.GetFixtureB())
	if !okA || !okB {
		return
	}
	l.world.pending = append(l.world.pending, Collision{A: a, B: b})
}

func (l *contactListener) EndContact(box2d.B2ContactInterface) {}

func (l *contactListener) PreSolve(box2d.B2ContactInterface, box2d.B2Manifold) {}

func (l *contactListener) PostSolve(box2d.B2ContactInterface, *box2d.B2ContactImpulse) {}

func bodyID(f *box2d.B2Fixture) (BodyID, bool) {
	if f == nil {
		return 0, false
	}
	body := f.GetBody()
	if body == nil {
		return 0, false
	}
	id, ok := body.GetUserData().(BodyID)
	return id, ok
}
