// Package simulation is the deterministic tick loop of the game: it owns the
// physics world and every entity, resolves collisions into damage, runs team
// controllers and lets a scenario decide the outcome.
//
// A Simulation is single-threaded. Callers that share one across goroutines
// must serialize access themselves (see internal/runner).
package simulation

import (
	"fmt"
	"sort"
	"time"

	"github.com/zeusync/fleetsim/internal/core/events"
	"github.com/zeusync/fleetsim/internal/core/events/bus"
	"github.com/zeusync/fleetsim/internal/core/handle"
	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/internal/core/observability/log"
	"github.com/zeusync/fleetsim/internal/core/observability/metrics"
	"github.com/zeusync/fleetsim/internal/core/physics"
	"github.com/zeusync/fleetsim/internal/core/script"
)

type refKind uint8

const (
	refShip refKind = iota + 1
	refBullet
)

// entityRef maps a physics body back to the entity that owns it.
type entityRef struct {
	kind   refKind
	ship   models.ShipHandle
	bullet models.BulletHandle
}

type team struct {
	id         int
	controller script.TeamController
}

type Simulation struct {
	cfg      Config
	log      log.Log
	metrics  *metrics.Collector
	bus      bus.EventBus
	scenario Scenario
	seed     int64
	tick     uint32

	world   *physics.World
	ships   *handle.Registry[models.ShipHandle, ship]
	bullets *handle.Registry[models.BulletHandle, bullet]
	bodies  map[physics.BodyID]entityRef
	teams   map[int]*team
	order   []int
	events  *events.Collector
}

// New builds a world for the named scenario, installs code for team 0 and
// initializes the scenario with seed. Code that fails to compile is recorded
// as an error event and team 0 runs no controller.
func New(scenarioName string, seed int64, code string, opts ...Option) (*Simulation, error) {
	scn, err := LoadScenario(scenarioName)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Simulation{
		cfg:      cfg,
		log:      cfg.Logger.With(log.String("scenario", scenarioName), log.Int64("seed", seed)),
		metrics:  cfg.Metrics,
		bus:      cfg.Bus,
		scenario: scn,
		seed:     seed,
		world:    physics.NewWorld(),
		ships:    handle.New[models.ShipHandle, ship](),
		bullets:  handle.New[models.BulletHandle, bullet](),
		bodies:   make(map[physics.BodyID]entityRef),
		teams:    make(map[int]*team),
		events:   events.NewCollector(),
	}

	_ = s.UploadCode(0, code)
	if err = scn.Init(s, seed); err != nil {
		return nil, fmt.Errorf("init scenario %s: %w", scenarioName, err)
	}

	ids := make([]int, 0, len(cfg.TeamCode))
	for id := range cfg.TeamCode {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		_ = s.UploadCode(id, cfg.TeamCode[id])
	}

	s.log.Debug("simulation created", log.Int("ships", s.ships.Len()))
	return s, nil
}

// Step advances the world by exactly one tick:
// physics, collisions, bullets, ships, teams, scenario, in that order.
func (s *Simulation) Step() {
	start := time.Now()
	s.events.Clear()

	s.world.Step()
	s.resolveCollisions(s.world.DrainCollisions())
	s.tickBullets()

	for _, h := range s.ships.Handles() {
		if !s.ships.Contains(h) {
			continue
		}
		s.runShipController(h)
		s.tickShip(h)
	}

	for _, id := range s.order {
		t := s.teams[id]
		if err := script.Invoke(t.controller.Tick); err != nil {
			s.agentError(&script.AgentError{Team: id, Err: err})
		}
	}

	s.scenario.Tick(s)
	s.tick++

	s.metrics.ObserveStep(time.Since(start), s.ships.Len(), s.bullets.Len())
	if s.bus != nil {
		s.publish(bus.TypeTickCompleted, bus.TickCompleted{
			Tick:    s.tick,
			Time:    s.Time(),
			Status:  s.Status(),
			Ships:   s.ships.Len(),
			Bullets: s.bullets.Len(),
			Hash:    s.Hash(),
		})
	}
}

// UploadCode compiles code and installs it as the controller of team. On
// success every live ship of the team gets a fresh ship controller. On failure
// the error is recorded as an event, returned, and the previous controller
// stays in place.
func (s *Simulation) UploadCode(teamID int, code string) error {
	ctrl, err := script.Compile(code, script.Env{
		Team:   teamID,
		Seed:   s.seed,
		Budget: s.cfg.Budget,
		Clock:  s.Tick,
	})
	if err != nil {
		s.events.AddError(models.AgentError{Team: teamID, Message: err.Error()})
		s.metrics.AgentError(teamID)
		s.log.Debug("code rejected", log.Int("team", teamID), log.Error(err))
		s.publish(bus.TypeCodeRejected, bus.CodeChange{Team: teamID, Error: err.Error()})
		return err
	}

	t, ok := s.teams[teamID]
	if !ok {
		t = &team{id: teamID}
		s.teams[teamID] = t
		s.order = append(s.order, teamID)
		sort.Ints(s.order)
	}
	t.controller = ctrl

	s.ships.Each(func(h models.ShipHandle, sh *ship) bool {
		if sh.data.Team == teamID {
			s.installShipController(h)
		}
		return true
	})

	s.log.Debug("code installed", log.Int("team", teamID))
	s.publish(bus.TypeCodeInstalled, bus.CodeChange{Team: teamID})
	return nil
}

// Tick returns the number of completed steps.
func (s *Simulation) Tick() uint32 { return s.tick }

// Time returns the simulated seconds elapsed.
func (s *Simulation) Time() float64 { return float64(s.tick) * physics.TickLength }

func (s *Simulation) Seed() int64 { return s.seed }

func (s *Simulation) Cheats() bool { return s.cfg.Cheats }

func (s *Simulation) ScenarioName() string { return s.scenario.Name() }

// Status asks the scenario for the current outcome.
func (s *Simulation) Status() models.Status { return s.scenario.Status(s) }

// Events returns a copy of the events recorded during the last step.
func (s *Simulation) Events() events.SimEvents { return s.events.Events() }

// EmitDebugLines attaches overlay geometry to ship for the current tick.
func (s *Simulation) EmitDebugLines(h models.ShipHandle, lines []models.Line) {
	s.events.AddDebugLines(h.ID(), lines)
}

func (s *Simulation) agentError(err *script.AgentError) {
	s.events.AddError(err.Record())
	s.metrics.AgentError(err.Team)
	s.publish(bus.TypeAgentError, err.Record())
}

// integrity handles a violated internal invariant: counted, logged, and
// skipped unless strict mode is on.
func (s *Simulation) integrity(msg string, fields ...log.Field) {
	s.metrics.IntegrityViolation()
	s.log.Warn("integrity violation: "+msg, append(fields, log.Uint32("tick", s.tick))...)
	if s.cfg.StrictIntegrity {
		panic("integrity violation: " + msg)
	}
}

func (s *Simulation) publish(typ string, data any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(bus.NewEvent(typ, "simulation", s.tick, data)); err != nil {
		s.log.Warn("event handler failed", log.String("type", typ), log.Error(err))
	}
}
