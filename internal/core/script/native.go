package script

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/internal/core/script/tree"
)

// NativeFactory builds a Go team controller.
type NativeFactory func(env Env) TeamController

var (
	nativeMu sync.RWMutex
	natives  = make(map[string]NativeFactory)
)

// RegisterNative makes a Go controller available as "native:<name>".
func RegisterNative(name string, factory NativeFactory) {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	natives[name] = factory
}

func lookupNative(name string) (NativeFactory, bool) {
	nativeMu.RLock()
	defer nativeMu.RUnlock()
	f, ok := natives[name]
	return f, ok
}

// Natives lists the registered native controller names, sorted.
func Natives() []string {
	nativeMu.RLock()
	defer nativeMu.RUnlock()
	names := make([]string, 0, len(natives))
	for name := range natives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterNative("idle", func(Env) TeamController { return noopTeam{} })
	RegisterNative("reference", func(Env) TeamController { return referenceTeam{} })
	RegisterNative("fault", func(Env) TeamController { return faultTeam{} })
	RegisterNative("panic", func(Env) TeamController { return panicTeam{} })
}

// funcShip adapts a plain function into a ShipController.
type funcShip func() error

func (f funcShip) Tick() error { return f() }

// referenceTeam is the stock opponent: turn toward the nearest contact,
// close to firing range, and shoot when aligned.
type referenceTeam struct{}

const (
	referenceRange     = 3000.0
	referenceTolerance = 0.05
)

func (referenceTeam) NewShipController(ship Ship) (ShipController, error) {
	return funcShip(func() error {
		c, ok := ship.Scan()
		if !ok {
			ship.Torque(-5 * ship.AngularVelocity())
			return nil
		}
		offset := c.Position.Sub(ship.Position())
		bearing := models.Angle(offset)
		tree.TurnTo(ship, bearing, 10, 5)
		if offset.Len() > referenceRange/2 {
			ship.Accelerate(models.V(1e3, 0))
		}
		if offset.Len() <= referenceRange && tree.Aligned(ship, bearing, referenceTolerance) {
			ship.Fire()
		}
		ship.DebugLine(ship.Position(), c.Position, models.ColorGray)
		return nil
	}), nil
}

func (referenceTeam) Tick() error { return nil }

var errFault = errors.New("fault controller")

// faultTeam fails on every ship tick.
type faultTeam struct{}

func (faultTeam) NewShipController(Ship) (ShipController, error) {
	return funcShip(func() error { return errFault }), nil
}

func (faultTeam) Tick() error { return nil }

// panicTeam panics on every ship tick.
type panicTeam struct{}

func (panicTeam) NewShipController(ship Ship) (ShipController, error) {
	return funcShip(func() error {
		panic(fmt.Sprintf("ship %d lost control", ship.ID()))
	}), nil
}

func (panicTeam) Tick() error { return nil }
