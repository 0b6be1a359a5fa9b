package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/internal/core/observability/log"
	"github.com/zeusync/fleetsim/internal/core/physics"
)

type blankScenario struct{}

func (blankScenario) Name() string                     { return "blank" }
func (blankScenario) Init(*Simulation, int64) error    { return nil }
func (blankScenario) Tick(*Simulation)                 {}
func (blankScenario) Status(*Simulation) models.Status { return models.Running() }
func (blankScenario) Lines() []models.Line             { return nil }

func init() {
	RegisterScenario("blank", func() Scenario { return blankScenario{} })
}

func newBlank(t *testing.T, opts ...Option) *Simulation {
	t.Helper()
	sim, err := New("blank", 1, "", opts...)
	require.NoError(t, err)
	return sim
}

func addFighter(t *testing.T, sim *Simulation, team int, pos models.Vec2) models.ShipHandle {
	t.Helper()
	h, err := sim.AddShip(ShipSpec{Team: team, Class: models.Fighter, Position: pos})
	require.NoError(t, err)
	return h
}

func shipRef(h models.ShipHandle) entityRef { return entityRef{kind: refShip, ship: h} }

func TestResolveHit_EnemyDamage(t *testing.T) {
	sim := newBlank(t)
	h := addFighter(t, sim, 0, models.V(0, 0))
	b := sim.AddBullet(BulletSpec{Team: 1, Damage: 30})

	sim.resolveHit(b, shipRef(h), true)

	v, err := sim.Ship(h)
	require.NoError(t, err)
	assert.Equal(t, 70.0, v.Data.Health)
	assert.False(t, v.Data.Destroyed)
	assert.Len(t, sim.events.Hits(), 1)
	assert.Empty(t, sim.events.Destroyed())
	assert.Empty(t, sim.Bullets())
}

func TestResolveHit_LethalHitDestroysOnce(t *testing.T) {
	sim := newBlank(t)
	h := addFighter(t, sim, 0, models.V(0, 0))
	first := sim.AddBullet(BulletSpec{Team: 1, Damage: 100})
	second := sim.AddBullet(BulletSpec{Team: 2, Damage: 100})

	sim.resolveHit(first, shipRef(h), true)

	v, err := sim.Ship(h)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v.Data.Health)
	assert.True(t, v.Data.Destroyed)
	require.Len(t, sim.events.Destroyed(), 1)

	sim.resolveHit(second, shipRef(h), true)

	v, err = sim.Ship(h)
	require.NoError(t, err)
	assert.Equal(t, -100.0, v.Data.Health)
	assert.True(t, v.Data.Destroyed)
	assert.Len(t, sim.events.Destroyed(), 1)
	assert.Len(t, sim.events.Hits(), 2)
}

func TestResolveHit_DamageIsExact(t *testing.T) {
	sim := newBlank(t)
	h := addFighter(t, sim, 0, models.V(0, 0))
	health, damage := 0.3, 0.1
	require.NoError(t, sim.UpdateShip(h, func(d *models.ShipData) { d.Health = health }))
	b := sim.AddBullet(BulletSpec{Team: 1, Damage: damage})

	sim.resolveHit(b, shipRef(h), true)

	v, err := sim.Ship(h)
	require.NoError(t, err)
	assert.Equal(t, health-damage, v.Data.Health)
}

func TestResolveHit_FriendlyFire(t *testing.T) {
	sim := newBlank(t)
	h := addFighter(t, sim, 3, models.V(0, 0))
	b := sim.AddBullet(BulletSpec{Team: 3, Damage: 100})

	sim.resolveHit(b, shipRef(h), true)

	v, err := sim.Ship(h)
	require.NoError(t, err)
	assert.Equal(t, 100.0, v.Data.Health)
	assert.Empty(t, sim.events.Hits())
	assert.Empty(t, sim.events.Destroyed())
	assert.False(t, sim.bullets.Contains(b))
}

func TestResolveHit_NonShip(t *testing.T) {
	sim := newBlank(t)
	b := sim.AddBullet(BulletSpec{Team: 1, Damage: 10})

	sim.resolveHit(b, entityRef{}, false)

	assert.False(t, sim.bullets.Contains(b))
	assert.Empty(t, sim.events.Hits())
}

func TestResolveCollisions_SkipsUnmappedAndSpentBullets(t *testing.T) {
	sim := newBlank(t, WithStrictIntegrity(true))
	a := addFighter(t, sim, 0, models.V(0, 0))
	c := addFighter(t, sim, 0, models.V(100, 0))
	b := sim.AddBullet(BulletSpec{Team: 1, Damage: 10})

	shipA, _ := sim.ships.Get(a)
	shipC, _ := sim.ships.Get(c)
	bullet, _ := sim.bullets.Get(b)
	bulletBody := bullet.body

	require.NotPanics(t, func() {
		sim.resolveCollisions([]physics.Collision{
			{A: 9999, B: 9998},
			{A: shipA.body, B: bulletBody},
			{A: bulletBody, B: shipC.body},
			{A: shipA.body, B: shipC.body},
		})
	})

	va, _ := sim.Ship(a)
	vc, _ := sim.Ship(c)
	assert.Equal(t, 90.0, va.Data.Health)
	assert.Equal(t, 100.0, vc.Data.Health)
	assert.Len(t, sim.events.Hits(), 1)
}

func TestResolveHit_IntegrityViolation(t *testing.T) {
	ghost := models.ShipHandle(42)

	strict := newBlank(t, WithStrictIntegrity(true))
	b := strict.AddBullet(BulletSpec{Team: 1, Damage: 10})
	assert.Panics(t, func() { strict.resolveHit(b, shipRef(ghost), true) })

	lenient := newBlank(t)
	b = lenient.AddBullet(BulletSpec{Team: 1, Damage: 10})
	assert.NotPanics(t, func() { lenient.resolveHit(b, shipRef(ghost), true) })
	assert.False(t, lenient.bullets.Contains(b))
}

func TestTickBullets_Expire(t *testing.T) {
	sim := newBlank(t)
	b := sim.AddBullet(BulletSpec{Team: 1, Velocity: models.V(0, 100), TTLTicks: 3})

	sim.Step()
	sim.Step()
	assert.True(t, sim.bullets.Contains(b))
	sim.Step()
	assert.False(t, sim.bullets.Contains(b))
	assert.Zero(t, sim.world.Len())
}

func TestResolveCollisions_BulletOnEitherSide(t *testing.T) {
	for _, bulletFirst := range []bool{true, false} {
		sim := newBlank(t, WithStrictIntegrity(true))
		h := addFighter(t, sim, 0, models.V(0, 0))
		b := sim.AddBullet(BulletSpec{Team: 1, Position: models.V(500, 0), Damage: 25})

		sh, err := sim.ships.Get(h)
		require.NoError(t, err)
		bl, err := sim.bullets.Get(b)
		require.NoError(t, err)
		pair := physics.Collision{A: sh.body, B: bl.body}
		if bulletFirst {
			pair = physics.Collision{A: bl.body, B: sh.body}
		}

		sim.resolveCollisions([]physics.Collision{pair})

		v, err := sim.Ship(h)
		require.NoError(t, err)
		assert.Equal(t, 75.0, v.Data.Health, "bullet first: %v", bulletFirst)
		assert.Len(t, sim.events.Hits(), 1)
		assert.False(t, sim.bullets.Contains(b))
		assert.NotContains(t, sim.bodies, bl.body)
	}
}

func TestStep_VolleyDestroysShipOnce(t *testing.T) {
	sim := newBlank(t, WithStrictIntegrity(true))
	h := addFighter(t, sim, 0, models.V(0, 0))
	for _, x := range []float64{-3, 0, 3} {
		sim.AddBullet(BulletSpec{Team: 1, Position: models.V(x, 0), Damage: 100})
	}

	sim.Step()

	ev := sim.Events()
	assert.Len(t, ev.Hits, 3)
	require.Len(t, ev.Destroyed, 1)
	assert.Empty(t, sim.Bullets())
	assert.False(t, sim.ships.Contains(h))
}

func TestStep_BulletsPassThroughEachOther(t *testing.T) {
	sim := newBlank(t, WithStrictIntegrity(true))
	a := sim.AddBullet(BulletSpec{Team: 0, Position: models.V(-50, 0), Velocity: models.V(600, 0)})
	b := sim.AddBullet(BulletSpec{Team: 1, Position: models.V(50, 0), Velocity: models.V(-600, 0)})

	for i := 0; i < 10; i++ {
		sim.Step()
	}

	va, err := sim.Bullet(a)
	require.NoError(t, err)
	vb, err := sim.Bullet(b)
	require.NoError(t, err)
	assert.InDelta(t, 600.0, va.Velocity.X(), 1e-9)
	assert.InDelta(t, 0.0, va.Velocity.Y(), 1e-9)
	assert.InDelta(t, -600.0, vb.Velocity.X(), 1e-9)
	assert.InDelta(t, 0.0, vb.Velocity.Y(), 1e-9)
	assert.Greater(t, va.Position.X(), vb.Position.X())
}

func TestTickShip_MissingBody(t *testing.T) {
	setup := func(opts ...Option) (*Simulation, models.ShipHandle) {
		sim := newBlank(t, opts...)
		h := addFighter(t, sim, 0, models.V(0, 0))
		sh, err := sim.ships.Get(h)
		require.NoError(t, err)
		require.NoError(t, sim.world.RemoveBody(sh.body))
		sh.acceleration = models.V(10, 0)
		return sim, h
	}

	strict, h := setup(WithStrictIntegrity(true))
	assert.Panics(t, func() { strict.tickShip(h) })

	core, logs := observer.New(zap.DebugLevel)
	lenient, h := setup(WithLogger(log.FromZap(zap.New(core), log.LevelDebug)))
	require.NotPanics(t, func() { lenient.tickShip(h) })

	entries := logs.FilterMessage("integrity violation: ship without body").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap(), "error")
	assert.Equal(t, h.ID(), entries[0].ContextMap()["ship"])
}
