package script

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/fleetsim/internal/core/models"
)

type stubShip struct {
	id      uint64
	pos     models.Vec2
	heading float64
	contact *models.Contact
	acc     models.Vec2
	torque  float64
	fired   int
	lines   int
}

func (s *stubShip) ID() uint64                 { return s.id }
func (s *stubShip) Team() int                  { return 0 }
func (s *stubShip) Class() models.ShipClass    { return models.Fighter }
func (s *stubShip) Position() models.Vec2      { return s.pos }
func (s *stubShip) Velocity() models.Vec2      { return models.Vec2{} }
func (s *stubShip) Heading() float64           { return s.heading }
func (s *stubShip) AngularVelocity() float64   { return 0 }
func (s *stubShip) Health() float64            { return 100 }
func (s *stubShip) CurrentTick() uint32        { return 0 }
func (s *stubShip) Time() float64              { return 0 }
func (s *stubShip) RadarRange() float64        { return 10_000 }
func (s *stubShip) Accelerate(acc models.Vec2) { s.acc = acc }
func (s *stubShip) Torque(a float64)           { s.torque = a }
func (s *stubShip) Fire() bool                 { s.fired++; return true }
func (s *stubShip) Explode()                   {}

func (s *stubShip) DebugLine(_, _ models.Vec2, _ [4]float32) { s.lines++ }

func (s *stubShip) Scan() (models.Contact, bool) {
	if s.contact == nil {
		return models.Contact{}, false
	}
	return *s.contact, true
}

func shipController(t *testing.T, code string, env Env, ship Ship) ShipController {
	t.Helper()
	team, err := Compile(code, env)
	require.NoError(t, err)
	sc, err := team.NewShipController(ship)
	require.NoError(t, err)
	return sc
}

func TestCompile_EmptyIsNoop(t *testing.T) {
	ship := &stubShip{id: 1}
	sc := shipController(t, "  \n\t", Env{}, ship)
	assert.NoError(t, sc.Tick())
	assert.Zero(t, ship.fired)
}

func TestCompile_UnknownNative(t *testing.T) {
	_, err := Compile("native:skynet", Env{Team: 3})

	var install *InstallError
	require.ErrorAs(t, err, &install)
	assert.Equal(t, 3, install.Team)
	assert.ErrorIs(t, err, ErrUnknownNative)
}

func TestCompile_Garbage(t *testing.T) {
	_, err := Compile("fn tick() { fire(); }", Env{Team: 1})

	var install *InstallError
	require.ErrorAs(t, err, &install)
	assert.ErrorIs(t, err, ErrCompile)
}

func TestCompile_BehaviorTree(t *testing.T) {
	ship := &stubShip{id: 4}
	sc := shipController(t, `
root: shoot
nodes:
  shoot:
    type: action
    action: fire
`, Env{}, ship)

	require.NoError(t, sc.Tick())
	require.NoError(t, sc.Tick())
	assert.Equal(t, 2, ship.fired)
}

const fireOnceTree = `
root: once
nodes:
  once:
    type: selector
    children: [armed, arm]
  armed:
    type: condition
    condition: is_true
    params: {key: armed}
  arm:
    type: sequence
    children: [mark, shoot]
  mark:
    type: action
    action: set
    params: {key: armed, value: true}
  shoot:
    type: action
    action: fire
`

func TestTreeTeam_ShipMemoryIsPrivate(t *testing.T) {
	team, err := Compile(fireOnceTree, Env{})
	require.NoError(t, err)

	first, second := &stubShip{id: 1}, &stubShip{id: 2}
	a, err := team.NewShipController(first)
	require.NoError(t, err)
	b, err := team.NewShipController(second)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, a.Tick())
	}
	require.NoError(t, b.Tick())

	assert.Equal(t, 1, first.fired)
	assert.Equal(t, 1, second.fired)
}

func TestCompile_BudgetSurfacesAsError(t *testing.T) {
	ship := &stubShip{id: 1}
	sc := shipController(t, `
root: loop
nodes:
  loop:
    type: repeat
    child: shoot
    params: {times: 1000000000}
  shoot:
    type: action
    action: fire
`, Env{Budget: 50}, ship)

	err := sc.Tick()
	assert.ErrorIs(t, err, ErrBudgetExceeded)
	assert.Equal(t, 49, ship.fired)
}

func TestNative_Fault(t *testing.T) {
	sc := shipController(t, "native:fault", Env{}, &stubShip{id: 1})
	assert.Error(t, sc.Tick())
}

func TestNative_PanicIsRecovered(t *testing.T) {
	sc := shipController(t, "native:panic", Env{}, &stubShip{id: 9})

	err := Invoke(sc.Tick)
	assert.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "ship 9")
}

func TestNative_ReferenceAimsAndFires(t *testing.T) {
	ship := &stubShip{id: 1, contact: &models.Contact{Position: models.V(1000, 0)}}
	sc := shipController(t, "native:reference", Env{}, ship)

	require.NoError(t, sc.Tick())
	assert.Equal(t, 1, ship.fired)
	assert.Equal(t, 1, ship.lines)

	ship.contact = &models.Contact{Position: models.V(0, 8000)}
	require.NoError(t, sc.Tick())
	assert.Equal(t, 1, ship.fired)
	assert.Greater(t, ship.torque, 0.0)
	assert.Greater(t, ship.acc.X(), 0.0)
}

func TestNatives_Listed(t *testing.T) {
	assert.Subset(t, Natives(), []string{"fault", "idle", "panic", "reference"})
}

func TestInvoke_PassesErrorsThrough(t *testing.T) {
	want := errors.New("nope")
	assert.Same(t, want, Invoke(func() error { return want }))
	assert.NoError(t, Invoke(func() error { return nil }))
}

func TestAgentError_Record(t *testing.T) {
	err := &AgentError{Ship: 2, Team: 1, Err: errFault}
	rec := err.Record()
	assert.Equal(t, models.AgentError{Ship: 2, Team: 1, Message: errFault.Error()}, rec)
	assert.ErrorIs(t, err, errFault)
	assert.Equal(t, "team 1: fault controller", (&AgentError{Team: 1, Err: errFault}).Error())
}
