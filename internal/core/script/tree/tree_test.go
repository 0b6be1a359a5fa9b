package tree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/fleetsim/internal/core/models"
)

type fakeShip struct {
	pos, vel   models.Vec2
	heading    float64
	health     float64
	contact    *models.Contact
	acc        models.Vec2
	torque     float64
	fired      int
	exploded   bool
	debugLines int
}

func (s *fakeShip) ID() uint64                 { return 1 }
func (s *fakeShip) Position() models.Vec2      { return s.pos }
func (s *fakeShip) Velocity() models.Vec2      { return s.vel }
func (s *fakeShip) Heading() float64           { return s.heading }
func (s *fakeShip) AngularVelocity() float64   { return 0 }
func (s *fakeShip) Health() float64            { return s.health }
func (s *fakeShip) Accelerate(acc models.Vec2) { s.acc = acc }
func (s *fakeShip) Torque(a float64)           { s.torque = a }
func (s *fakeShip) Fire() bool                 { s.fired++; return true }
func (s *fakeShip) Explode()                   { s.exploded = true }

func (s *fakeShip) DebugLine(_, _ models.Vec2, _ [4]float32) { s.debugLines++ }

func (s *fakeShip) Scan() (models.Contact, bool) {
	if s.contact == nil {
		return models.Contact{}, false
	}
	return *s.contact, true
}

const attackYAML = `
root: main
nodes:
  main:
    type: selector
    children: [attack, idle]
  attack:
    type: sequence
    children: [seen, aim, shoot]
  seen:
    type: condition
    condition: contact_within
    params: {range: 5000}
  aim:
    type: action
    action: turn_to_contact
  shoot:
    type: action
    action: fire
  idle:
    type: action
    action: accelerate
    params: {x: 10, y: 0}
`

func build(t *testing.T, src string) (Tree, Tree) {
	t.Helper()
	cfg, err := Parse([]byte(src))
	require.NoError(t, err)
	ship, team, err := cfg.Build(Default())
	require.NoError(t, err)
	return ship, team
}

func tickCtx(s Ship, budget int) *TickContext {
	mem := NewMemory()
	return NewTickContext(s, mem.Ship(1), mem.Team(), 0, rand.New(rand.NewSource(1)), budget)
}

func TestTree_AttackBranch(t *testing.T) {
	tr, _ := build(t, attackYAML)
	s := &fakeShip{health: 100, contact: &models.Contact{Position: models.V(0, 1000)}}

	st, err := tr.Tick(tickCtx(s, 0))
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, st)
	assert.Equal(t, 1, s.fired)
	assert.Greater(t, s.torque, 0.0)
	assert.Equal(t, models.Vec2{}, s.acc)
}

func TestTree_FallbackBranch(t *testing.T) {
	tr, _ := build(t, attackYAML)
	s := &fakeShip{health: 100}

	st, err := tr.Tick(tickCtx(s, 0))
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, st)
	assert.Zero(t, s.fired)
	assert.Equal(t, models.V(10, 0), s.acc)
}

func TestTree_BudgetExceeded(t *testing.T) {
	tr, _ := build(t, `
root: spin
nodes:
  spin:
    type: repeat
    child: noop
    params: {times: 1000000}
  noop:
    type: action
    action: set
    params: {key: x, value: 1}
`)
	tc := tickCtx(&fakeShip{}, 100)
	_, err := tr.Tick(tc)
	assert.ErrorIs(t, err, ErrBudgetExceeded)
	assert.Equal(t, 101, tc.Visits())
}

func TestTree_Cooldown(t *testing.T) {
	tr, _ := build(t, `
root: gate
nodes:
  gate:
    type: cooldown
    child: shoot
    params: {ticks: 10}
  shoot:
    type: action
    action: fire
`)
	s := &fakeShip{}
	mem := NewMemory()
	for tick := uint32(0); tick < 25; tick++ {
		_, err := tr.Tick(NewTickContext(s, mem.Ship(1), mem.Team(), tick, nil, 0))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, s.fired)
}

func TestTree_ProbabilityIsSeeded(t *testing.T) {
	src := `
root: maybe
nodes:
  maybe:
    type: probability
    child: shoot
    params: {p: 0.5}
  shoot:
    type: action
    action: fire
`
	run := func() int {
		tr, _ := build(t, src)
		s := &fakeShip{}
		bb := Store{}
		rng := rand.New(rand.NewSource(42))
		for tick := uint32(0); tick < 100; tick++ {
			_, _ = tr.Tick(NewTickContext(s, bb, bb, tick, rng, 0))
		}
		return s.fired
	}
	first := run()
	assert.Equal(t, first, run())
	assert.Greater(t, first, 20)
	assert.Less(t, first, 80)
}

func TestTree_InvertAndTeamScope(t *testing.T) {
	ship, team := build(t, `
root: check
team_root: mark
nodes:
  mark:
    type: action
    action: set
    params: {key: go, value: true, scope: team}
  check:
    type: invert
    child: flag
  flag:
    type: condition
    condition: is_true
    params: {key: go, scope: team}
`)
	mem := NewMemory()
	s := &fakeShip{}

	st, err := ship.Tick(NewTickContext(s, mem.Ship(1), mem.Team(), 0, nil, 0))
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, st)

	_, err = team.Tick(NewTickContext(nil, mem.Team(), mem.Team(), 0, nil, 0))
	require.NoError(t, err)

	st, err = ship.Tick(NewTickContext(s, mem.Ship(1), mem.Team(), 1, nil, 0))
	require.NoError(t, err)
	assert.Equal(t, StatusFailure, st)
}

func TestTree_ShipActionWithoutShip(t *testing.T) {
	_, team := build(t, `
root: x
team_root: x
nodes:
  x:
    type: action
    action: fire
`)
	bb := Store{}
	_, err := team.Tick(NewTickContext(nil, bb, bb, 0, nil, 0))
	assert.ErrorIs(t, err, ErrNoShip)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"not yaml mapping": "this is not a tree",
		"missing root":     "nodes: {}",
		"unknown field":    "root: a\nbogus: 1\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown node":      "root: a\nnodes: {}\n",
		"unknown action":    "root: a\nnodes:\n  a: {type: action, action: warp}\n",
		"unknown decorator": "root: a\nnodes:\n  a: {type: teleport, child: b}\n  b: {type: action, action: fire}\n",
		"cycle":             "root: a\nnodes:\n  a: {type: sequence, children: [b]}\n  b: {type: selector, children: [a]}\n",
		"missing child":     "root: a\nnodes:\n  a: {type: invert}\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Parse([]byte(src))
			require.NoError(t, err)
			_, _, err = cfg.Build(Default())
			assert.Error(t, err)
		})
	}
}

func TestMemory_Scopes(t *testing.T) {
	mem := NewMemory()
	a := mem.Ship(1)
	b := mem.Ship(2)
	a.Set("target", 1)
	b.Set("target", 2)
	mem.Team().Set("rally", 3)

	v, ok := a.Get("target")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, []string{"target"}, b.Keys())
	assert.Equal(t, []string{"rally"}, mem.Team().Keys())

	mem.Ship(1).Set("seen", true)
	assert.Equal(t, []string{"seen", "target"}, a.Keys())

	a.Delete("target")
	_, ok = a.Get("target")
	assert.False(t, ok)
	v, ok = b.Get("target")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}
