package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeusync/fleetsim/internal/config"
	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/internal/core/simulation"
	"github.com/zeusync/fleetsim/pkg/concurrent"
)

var ErrDivergence = errors.New("replicas diverged")

// checkEvery is how many ticks pass between context checks in batch loops.
const checkEvery = 64

// Result summarizes a finished headless run.
type Result struct {
	Tick   uint32
	Status models.Status
	Hash   uint64
}

// Run steps a simulation built from cfg without wall-clock pacing. It stops
// after ticks steps or as soon as the scenario reports an outcome. Zero ticks
// falls back to cfg.Simulation.Ticks; if that is zero too, only the outcome
// or ctx ends the run.
func Run(ctx context.Context, cfg config.Config, ticks uint32, opts ...simulation.Option) (Result, error) {
	if ticks == 0 {
		ticks = cfg.Simulation.Ticks
	}
	sim, err := Build(cfg, opts...)
	if err != nil {
		return Result{}, err
	}

	for n := uint32(0); ticks == 0 || n < ticks; n++ {
		if n%checkEvery == 0 {
			if err = ctx.Err(); err != nil {
				return result(sim), err
			}
		}
		if !sim.Status().IsRunning() {
			break
		}
		sim.Step()
	}
	return result(sim), nil
}

func result(sim *simulation.Simulation) Result {
	return Result{
		Tick:   sim.Tick(),
		Status: sim.Status(),
		Hash:   sim.Hash(),
	}
}

// DivergenceError reports the first tick at which a replica's world hash
// differed from replica 0.
type DivergenceError struct {
	Replica int
	Tick    uint32
	Want    uint64
	Got     uint64
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("%s: replica %d at tick %d: hash %016x, want %016x",
		ErrDivergence, e.Replica, e.Tick, e.Got, e.Want)
}

func (e *DivergenceError) Is(target error) bool { return target == ErrDivergence }

// Verify runs replicas copies of the configured simulation concurrently for
// ticks steps and compares their per-tick hashes. It returns the final hash
// of replica 0, or an error matching ErrDivergence on the first mismatch.
func Verify(ctx context.Context, cfg config.Config, replicas int, ticks uint32, opts ...simulation.Option) (uint64, error) {
	if replicas < 2 {
		return 0, fmt.Errorf("verify needs at least 2 replicas, got %d", replicas)
	}
	if ticks == 0 {
		ticks = cfg.Simulation.Ticks
	}

	indices := make([]int, replicas)
	for i := range indices {
		indices[i] = i
	}
	traces := make([][]uint64, replicas)

	err := concurrent.Concurrent(ctx, indices, 0, func(ctx context.Context, i int) error {
		sim, err := Build(cfg, opts...)
		if err != nil {
			return err
		}
		trace := make([]uint64, 0, ticks)
		for n := uint32(0); n < ticks; n++ {
			if n%checkEvery == 0 {
				if err = ctx.Err(); err != nil {
					return err
				}
			}
			sim.Step()
			trace = append(trace, sim.Hash())
		}
		traces[i] = trace
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err = firstDivergence(traces); err != nil {
		return 0, err
	}
	if len(traces[0]) == 0 {
		return 0, nil
	}
	return traces[0][len(traces[0])-1], nil
}

func firstDivergence(traces [][]uint64) error {
	for i := 1; i < len(traces); i++ {
		for n, want := range traces[0] {
			if n >= len(traces[i]) {
				return &DivergenceError{Replica: i, Tick: uint32(n + 1), Want: want}
			}
			if got := traces[i][n]; got != want {
				return &DivergenceError{Replica: i, Tick: uint32(n + 1), Want: want, Got: got}
			}
		}
	}
	return nil
}
