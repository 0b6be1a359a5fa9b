package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/fleetsim/internal/core/models"
)

func ship(pos, vel models.Vec2) BodyDef {
	return BodyDef{Kind: KindShip, Position: pos, Velocity: vel, Radius: 10, Mass: 15000}
}

func TestWorld_StepMovesBodies(t *testing.T) {
	w := NewWorld()
	id := w.CreateBody(ship(models.V(0, 0), models.V(60, 0)))

	w.Step()

	pos, err := w.Position(id)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, pos.X(), 1e-6)
	assert.InDelta(t, 0.0, pos.Y(), 1e-6)

	vel, err := w.Velocity(id)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, vel.X(), 1e-6)
}

func TestWorld_BodyIDsAreNeverReused(t *testing.T) {
	w := NewWorld()
	a := w.CreateBody(ship(models.V(0, 0), models.V(0, 0)))
	require.NoError(t, w.RemoveBody(a))
	b := w.CreateBody(ship(models.V(0, 0), models.V(0, 0)))

	assert.Greater(t, b, a)
	assert.False(t, w.Contains(a))
	assert.True(t, w.Contains(b))
	assert.Equal(t, 1, w.Len())
}

func TestWorld_RemovedBodyQueries(t *testing.T) {
	w := NewWorld()
	id := w.CreateBody(ship(models.V(0, 0), models.V(0, 0)))
	require.NoError(t, w.RemoveBody(id))

	_, err := w.Position(id)
	assert.ErrorIs(t, err, ErrUnknownBody)
	assert.ErrorIs(t, w.ApplyForce(id, models.V(1, 0)), ErrUnknownBody)
	assert.ErrorIs(t, w.RemoveBody(id), ErrUnknownBody)
}

func TestWorld_MassAndInertiaInMetres(t *testing.T) {
	w := NewWorld()
	id := w.CreateBody(ship(models.V(0, 0), models.V(0, 0)))

	mass, err := w.Mass(id)
	require.NoError(t, err)
	assert.InDelta(t, 15000.0, mass, 1e-6)

	inertia, err := w.Inertia(id)
	require.NoError(t, err)
	// solid disc: m r² / 2
	assert.InDelta(t, 15000.0*100/2, inertia, 1)
}

func TestWorld_ForceProducesAcceleration(t *testing.T) {
	w := NewWorld()
	id := w.CreateBody(ship(models.V(0, 0), models.V(0, 0)))

	require.NoError(t, w.ApplyForce(id, models.V(15000*60, 0)))
	w.Step()

	vel, err := w.Velocity(id)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vel.X(), 1e-6)
}

func TestWorld_TorqueProducesAngularAcceleration(t *testing.T) {
	w := NewWorld()
	id := w.CreateBody(ship(models.V(0, 0), models.V(0, 0)))
	inertia, err := w.Inertia(id)
	require.NoError(t, err)

	require.NoError(t, w.ApplyTorque(id, inertia*math.Pi))
	w.Step()

	av, err := w.AngularVelocity(id)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/60, av, 1e-6)
}

func TestWorld_ReportsCollisionStart(t *testing.T) {
	w := NewWorld()
	a := w.CreateBody(ship(models.V(-30, 0), models.V(300, 0)))
	b := w.CreateBody(ship(models.V(30, 0), models.V(-300, 0)))

	var collisions []Collision
	for i := 0; i < 10 && len(collisions) == 0; i++ {
		w.Step()
		collisions = w.DrainCollisions()
	}

	require.Len(t, collisions, 1)
	pair := []BodyID{collisions[0].A, collisions[0].B}
	assert.ElementsMatch(t, []BodyID{a, b}, pair)
	assert.Empty(t, w.DrainCollisions())
}

func TestWorld_FastBulletDoesNotTunnel(t *testing.T) {
	w := NewWorld()
	target := w.CreateBody(BodyDef{Kind: KindShip, Radius: 2, Mass: 1000})
	bullet := w.CreateBody(BodyDef{
		Kind:     KindBullet,
		Position: models.V(-20, 0),
		Velocity: models.V(2000, 0),
		Radius:   0.5,
		Mass:     1,
	})

	hit := false
	for i := 0; i < 3 && !hit; i++ {
		w.Step()
		for _, c := range w.DrainCollisions() {
			if (c.A == target && c.B == bullet) || (c.A == bullet && c.B == target) {
				hit = true
			}
		}
	}
	assert.True(t, hit)
}

func TestWorld_BulletsIgnoreEachOther(t *testing.T) {
	w := NewWorld()
	w.CreateBody(BodyDef{Kind: KindBullet, Position: models.V(-5, 0), Velocity: models.V(100, 0), Radius: 1, Mass: 1})
	w.CreateBody(BodyDef{Kind: KindBullet, Position: models.V(5, 0), Velocity: models.V(-100, 0), Radius: 1, Mass: 1})

	for i := 0; i < 10; i++ {
		w.Step()
		assert.Empty(t, w.DrainCollisions())
	}
}

func TestWorld_WallsEncloseArena(t *testing.T) {
	w := NewWorld()
	edge := WorldSize/2 - 20
	id := w.CreateBody(ship(models.V(edge, 0), models.V(600, 0)))

	var wall bool
	for i := 0; i < 10; i++ {
		w.Step()
		for _, c := range w.DrainCollisions() {
			if c.A == id && w.IsWall(c.B) || c.B == id && w.IsWall(c.A) {
				wall = true
			}
		}
	}
	assert.True(t, wall)
	pos, err := w.Position(id)
	require.NoError(t, err)
	assert.Less(t, pos.X(), WorldSize/2)
}
