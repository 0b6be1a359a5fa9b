package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/fleetsim/internal/config"
	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/internal/core/simulation"
)

func furballConfig(seed uint32) config.Config {
	cfg := config.Default()
	cfg.Simulation.Scenario = "furball"
	cfg.Simulation.Seed = seed
	cfg.Simulation.Teams[0] = config.Team{Code: "native:reference"}
	return cfg
}

func TestRunHeadlessIsRepeatable(t *testing.T) {
	ctx := context.Background()
	a, err := Run(ctx, furballConfig(11), 240)
	require.NoError(t, err)
	b, err := Run(ctx, furballConfig(11), 240)
	require.NoError(t, err)

	assert.Equal(t, uint32(240), a.Tick)
	assert.Equal(t, a, b)

	c, err := Run(ctx, furballConfig(12), 240)
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash, c.Hash)
}

func TestRunUsesConfiguredTicks(t *testing.T) {
	cfg := duelConfig()
	cfg.Simulation.Ticks = 30
	res, err := Run(context.Background(), cfg, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(30), res.Tick)
	assert.Equal(t, models.Running(), res.Status)
}

func TestRunStopsAtOutcome(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Scenario = "gunnery"
	cfg.Simulation.Ticks = 0

	res, err := Run(context.Background(), cfg, 0)
	require.NoError(t, err)
	assert.Equal(t, models.Failed(), res.Status)
	assert.Equal(t, uint32(60*60), res.Tick)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, duelConfig(), 100)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifyReplicasAgree(t *testing.T) {
	hash, err := Verify(context.Background(), furballConfig(5), 3, 180)
	require.NoError(t, err)

	res, err := Run(context.Background(), furballConfig(5), 180)
	require.NoError(t, err)
	assert.Equal(t, res.Hash, hash)
}

func TestVerifyOptionsApplyToEveryReplica(t *testing.T) {
	_, err := Verify(context.Background(), furballConfig(5), 2, 60, simulation.WithStrictIntegrity(true))
	assert.NoError(t, err)
}

func TestVerifyNeedsTwoReplicas(t *testing.T) {
	_, err := Verify(context.Background(), duelConfig(), 1, 10)
	assert.Error(t, err)
}

func TestFirstDivergence(t *testing.T) {
	assert.NoError(t, firstDivergence([][]uint64{{1, 2, 3}, {1, 2, 3}}))

	err := firstDivergence([][]uint64{{1, 2, 3}, {1, 2, 3}, {1, 9, 3}})
	assert.ErrorIs(t, err, ErrDivergence)
	var div *DivergenceError
	require.ErrorAs(t, err, &div)
	assert.Equal(t, 2, div.Replica)
	assert.Equal(t, uint32(2), div.Tick)
	assert.Equal(t, uint64(2), div.Want)
	assert.Equal(t, uint64(9), div.Got)

	err = firstDivergence([][]uint64{{1, 2}, {1}})
	require.ErrorAs(t, err, &div)
	assert.Equal(t, uint32(2), div.Tick)
}
