// Package script turns uploaded team code into controllers the simulation can
// tick. Controllers only see the Ship surface; they never touch world state
// directly and their failures are contained per ship.
package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/internal/core/script/tree"
)

// DefaultBudget is the node-visit limit for a single controller call.
const DefaultBudget = 10_000

// NativePrefix selects a registered Go controller instead of a tree.
const NativePrefix = "native:"

var (
	ErrCompile        = errors.New("compile failed")
	ErrUnknownNative  = errors.New("unknown native controller")
	ErrBudgetExceeded = tree.ErrBudgetExceeded
	ErrPanic          = errors.New("controller panicked")
)

// Ship is the sensor/actuator surface handed to controllers. Actuator calls
// are requests: the simulation clamps them to the ship class limits and
// applies them during the ship's own tick.
type Ship interface {
	ID() uint64
	Team() int
	Class() models.ShipClass
	Position() models.Vec2
	Velocity() models.Vec2
	Heading() float64
	AngularVelocity() float64
	Health() float64
	CurrentTick() uint32
	Time() float64
	RadarRange() float64
	Scan() (models.Contact, bool)

	// Accelerate requests a linear acceleration in the ship frame (x forward).
	Accelerate(acc models.Vec2)
	// Torque requests an angular acceleration in rad/s².
	Torque(angularAcc float64)
	// Fire shoots the ship's gun and reports whether a bullet was spawned.
	Fire() bool
	DebugLine(a, b models.Vec2, color [4]float32)
	// Explode destroys the ship at the end of its tick.
	Explode()
}

type ShipController interface {
	Tick() error
}

type TeamController interface {
	NewShipController(ship Ship) (ShipController, error)
	Tick() error
}

// Env parameterizes compilation for one team.
type Env struct {
	Team   int
	Seed   int64
	Budget int

	// Clock reports the current simulation tick to team-level code.
	Clock func() uint32
}

func (e Env) budget() int {
	if e.Budget <= 0 {
		return DefaultBudget
	}
	return e.Budget
}

func (e Env) tick() uint32 {
	if e.Clock == nil {
		return 0
	}
	return e.Clock()
}

// AgentError is a failure raised by a ship or team controller.
// Ship is zero for team-level failures.
type AgentError struct {
	Ship uint64
	Team int
	Err  error
}

func (e *AgentError) Error() string {
	if e.Ship == 0 {
		return fmt.Sprintf("team %d: %v", e.Team, e.Err)
	}
	return fmt.Sprintf("team %d ship %d: %v", e.Team, e.Ship, e.Err)
}

func (e *AgentError) Unwrap() error { return e.Err }

// Record converts the error into its event-log form.
func (e *AgentError) Record() models.AgentError {
	return models.AgentError{Ship: e.Ship, Team: e.Team, Message: e.Err.Error()}
}

// InstallError is returned when uploaded code cannot be compiled.
type InstallError struct {
	Team int
	Err  error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install code for team %d: %v", e.Team, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// Compile builds a team controller from source. Empty code yields a controller
// that does nothing; "native:<name>" selects a registered Go controller;
// anything else is parsed as a YAML behavior tree.
func Compile(code string, env Env) (TeamController, error) {
	src := strings.TrimSpace(code)
	switch {
	case src == "":
		return noopTeam{}, nil
	case strings.HasPrefix(src, NativePrefix):
		name := strings.TrimSpace(strings.TrimPrefix(src, NativePrefix))
		factory, ok := lookupNative(name)
		if !ok {
			return nil, &InstallError{Team: env.Team, Err: fmt.Errorf("%w: %q", ErrUnknownNative, name)}
		}
		return factory(env), nil
	default:
		tc, err := compileTree([]byte(code), env)
		if err != nil {
			return nil, &InstallError{Team: env.Team, Err: fmt.Errorf("%w: %w", ErrCompile, err)}
		}
		return tc, nil
	}
}

// Invoke runs fn and converts a panic into an error wrapping ErrPanic.
func Invoke(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}

type noopTeam struct{}

func (noopTeam) NewShipController(Ship) (ShipController, error) { return noopShip{}, nil }
func (noopTeam) Tick() error                                    { return nil }

type noopShip struct{}

func (noopShip) Tick() error { return nil }
