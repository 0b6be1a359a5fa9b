package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/fleetsim/internal/config"
	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/internal/core/observability/log"
	"github.com/zeusync/fleetsim/internal/core/script"
	"github.com/zeusync/fleetsim/internal/core/simulation"
)

func duelConfig() config.Config {
	cfg := config.Default()
	cfg.Simulation.Scenario = "duel"
	cfg.Simulation.Seed = 3
	cfg.Simulation.Ticks = 120
	return cfg
}

func startRunner(t *testing.T, cfg config.Config, opts ...Option) (*Runner, context.Context) {
	t.Helper()
	r, err := New(func() (*simulation.Simulation, error) { return Build(cfg) }, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return r, ctx
}

func currentTick(t *testing.T, ctx context.Context, r *Runner) uint32 {
	t.Helper()
	var tick uint32
	require.NoError(t, r.Do(ctx, func(sim *simulation.Simulation) error {
		tick = sim.Tick()
		return nil
	}))
	return tick
}

func TestBuildInstallsConfiguredTeams(t *testing.T) {
	cfg := duelConfig()
	cfg.Simulation.Teams[0] = config.Team{Code: "native:reference"}
	cfg.Simulation.Teams[1] = config.Team{Code: "native:nope"}
	cfg.Simulation.Cheats = true

	sim, err := Build(cfg)
	require.NoError(t, err)
	assert.True(t, sim.Cheats())
	assert.Equal(t, "duel", sim.ScenarioName())
	assert.Equal(t, int64(3), sim.Seed())

	errs := sim.Events().Errors
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Team)
}

func TestBuildUnknownScenario(t *testing.T) {
	cfg := duelConfig()
	cfg.Simulation.Scenario = "nowhere"
	_, err := Build(cfg)
	assert.ErrorIs(t, err, simulation.ErrUnknownScenario)
}

func TestRunnerStepsAndPublishes(t *testing.T) {
	r, ctx := startRunner(t, duelConfig(), WithSnapshotEvery(10))
	snaps, cancel := r.Subscribe(4)
	defer cancel()

	first := <-snaps
	assert.Len(t, first.Ships, 2)

	select {
	case snap := <-snaps:
		assert.Greater(t, snap.Nonce, first.Nonce)
		assert.Zero(t, snap.Tick%10)
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot published")
	}
	assert.Greater(t, currentTick(t, ctx, r), uint32(0))
}

func TestRunnerPauseResume(t *testing.T) {
	r, ctx := startRunner(t, duelConfig())

	require.NoError(t, r.Pause(ctx))
	paused := currentTick(t, ctx, r)
	assert.Equal(t, paused, currentTick(t, ctx, r))

	require.NoError(t, r.Resume(ctx))
	require.Eventually(t, func() bool {
		return currentTick(t, ctx, r) > paused
	}, 5*time.Second, time.Millisecond)
}

func TestRunnerUploadCode(t *testing.T) {
	r, ctx := startRunner(t, duelConfig())
	require.NoError(t, r.Pause(ctx))

	require.NoError(t, r.UploadCode(ctx, 0, "native:reference"))

	err := r.UploadCode(ctx, 0, "native:missing")
	assert.ErrorIs(t, err, script.ErrUnknownNative)
	latest := r.Latest()
	require.Len(t, latest.Errors, 1)
	assert.Equal(t, 0, latest.Errors[0].Team)
}

func TestRunnerReset(t *testing.T) {
	r, ctx := startRunner(t, duelConfig())
	require.Eventually(t, func() bool {
		return currentTick(t, ctx, r) > 5
	}, 5*time.Second, time.Millisecond)

	require.NoError(t, r.Pause(ctx))
	require.NoError(t, r.Reset(ctx))
	assert.Zero(t, currentTick(t, ctx, r))
	assert.Zero(t, r.Latest().Tick)
}

func TestRunnerStopsWhenFinished(t *testing.T) {
	cfg := duelConfig()
	r, ctx := startRunner(t, cfg)

	require.NoError(t, r.Do(ctx, func(sim *simulation.Simulation) error {
		for _, h := range sim.Ships() {
			v, err := sim.Ship(h)
			if err != nil {
				return err
			}
			if v.Data.Team == 1 {
				return sim.DestroyShip(h)
			}
		}
		return errors.New("no enemy")
	}))

	require.Eventually(t, func() bool {
		return r.Latest().Status == models.Victory(0)
	}, 5*time.Second, time.Millisecond)

	tick := currentTick(t, ctx, r)
	assert.Equal(t, tick, currentTick(t, ctx, r))
	assert.ErrorIs(t, r.Resume(ctx), ErrFinished)
}

func TestRunTwiceFails(t *testing.T) {
	r, _ := startRunner(t, duelConfig())
	require.Eventually(t, r.running.Load, time.Second, time.Millisecond)
	assert.ErrorIs(t, r.Run(context.Background()), ErrAlreadyRunning)
}

func TestCommandHonorsContext(t *testing.T) {
	r, err := New(func() (*simulation.Simulation, error) { return Build(duelConfig()) })
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Pause(ctx), context.DeadlineExceeded)
}

func TestRunLogsFinalTick(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r, err := New(func() (*simulation.Simulation, error) { return Build(duelConfig()) },
		WithLogger(log.FromZap(zap.New(core), log.LevelDebug)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		return currentTick(t, ctx, r) > 5
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, r.Pause(ctx))
	stopped := currentTick(t, ctx, r)
	cancel()
	require.NoError(t, <-done)

	entries := logs.FilterMessage("runner stopped").All()
	require.Len(t, entries, 1)
	assert.Equal(t, stopped, entries[0].ContextMap()["tick"])
}
