package simulation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/fleetsim/internal/core/models"
)

func pairSim(t *testing.T, healthA, healthB float64) (*Simulation, models.ShipHandle, models.ShipHandle) {
	t.Helper()
	sim := newBlank(t)
	a := addFighter(t, sim, 0, models.V(0, 0))
	b := addFighter(t, sim, 1, models.V(100, 0))
	require.NoError(t, sim.UpdateShip(a, func(d *models.ShipData) { d.Health = healthA }))
	require.NoError(t, sim.UpdateShip(b, func(d *models.ShipData) { d.Health = healthB }))
	return sim, a, b
}

func TestHash_Quantization(t *testing.T) {
	const base = 50.0000000002

	tests := []struct {
		name    string
		update  func(*models.ShipData)
		changed bool
	}{
		{
			name:    "health drop",
			update:  func(d *models.ShipData) { d.Health -= 1 },
			changed: true,
		},
		{
			name:    "one quantum",
			update:  func(d *models.ShipData) { d.Health = base + 2e-9 },
			changed: true,
		},
		{
			name:    "below one quantum",
			update:  func(d *models.ShipData) { d.Health = 50.0000000008 },
			changed: false,
		},
		{
			name:    "reload counter",
			update:  func(d *models.ShipData) { d.ReloadTicks = 7 },
			changed: false,
		},
		{
			name:    "team",
			update:  func(d *models.ShipData) { d.Team = 5 },
			changed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, a, _ := pairSim(t, base, base)
			before := sim.Hash()
			require.Equal(t, before, sim.Hash())

			require.NoError(t, sim.UpdateShip(a, tt.update))

			if tt.changed {
				assert.NotEqual(t, before, sim.Hash())
			} else {
				assert.Equal(t, before, sim.Hash())
			}
		})
	}
}

func TestHash_IterationOrder(t *testing.T) {
	first, _, _ := pairSim(t, 100, 40)
	second, _, _ := pairSim(t, 40, 100)
	same, _, _ := pairSim(t, 100, 40)

	assert.Equal(t, first.Hash(), same.Hash())
	assert.NotEqual(t, first.Hash(), second.Hash())
}

func TestHash_SkipsRemovedShips(t *testing.T) {
	sim, a, b := pairSim(t, 100, 100)
	require.NoError(t, sim.DestroyShip(b))

	only := newBlank(t)
	addFighter(t, only, 0, models.V(0, 0))

	require.True(t, sim.ships.Contains(a))
	assert.Equal(t, only.Hash(), sim.Hash())
}

func TestFixedPoint(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{in: 0, want: 0},
		{in: 1.5, want: 1_500_000_000},
		{in: -1.5, want: -1_500_000_000},
		{in: 2.9999999999, want: 2_999_999_999},
		{in: math.NaN(), want: 0},
		{in: math.Inf(1), want: math.MaxInt64},
		{in: math.Inf(-1), want: math.MinInt64},
		{in: 1e12, want: math.MaxInt64},
		{in: -1e12, want: math.MinInt64},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fixedPoint(tt.in), "fixedPoint(%v)", tt.in)
	}
}
