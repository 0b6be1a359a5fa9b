package script

import (
	"math/rand"

	"github.com/zeusync/fleetsim/internal/core/script/tree"
)

// treeTeam runs a behavior tree for every ship of a team. All ships share the
// built nodes and the team's memory; each ship gets its own store and RNG.
type treeTeam struct {
	env  Env
	ship tree.Tree
	team tree.Tree
	mem  *tree.Memory
	rng  *rand.Rand
}

func compileTree(src []byte, env Env) (*treeTeam, error) {
	cfg, err := tree.Parse(src)
	if err != nil {
		return nil, err
	}
	ship, team, err := cfg.Build(tree.Default())
	if err != nil {
		return nil, err
	}
	return &treeTeam{
		env:  env,
		ship: ship,
		team: team,
		mem:  tree.NewMemory(),
		rng:  rand.New(rand.NewSource(env.Seed ^ int64(env.Team)<<32)),
	}, nil
}

func (t *treeTeam) NewShipController(ship Ship) (ShipController, error) {
	return &treeShip{
		team: t,
		ship: ship,
		bb:   t.mem.Ship(ship.ID()),
		rng:  rand.New(rand.NewSource(t.env.Seed ^ int64(ship.ID())<<16 ^ int64(t.env.Team))),
	}, nil
}

func (t *treeTeam) Tick() error {
	if t.team.Root() == nil {
		return nil
	}
	tc := tree.NewTickContext(nil, t.mem.Team(), t.mem.Team(), t.env.tick(), t.rng, t.env.budget())
	_, err := t.team.Tick(tc)
	return err
}

type treeShip struct {
	team *treeTeam
	ship Ship
	bb   tree.Blackboard
	rng  *rand.Rand
}

func (s *treeShip) Tick() error {
	tc := tree.NewTickContext(s.ship, s.bb, s.team.mem.Team(), s.ship.CurrentTick(), s.rng, s.team.env.budget())
	_, err := s.team.ship.Tick(tc)
	return err
}
