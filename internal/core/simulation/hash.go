package simulation

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/pkg/generic"
)

// hashScale is the fixed-point scale applied before hashing.
const hashScale = 1e9

var digests = generic.NewPool(xxhash.New, (*xxhash.Digest).Reset)

// Hash fingerprints the physical state and health of every live ship, in
// iteration order. Two runs with the same seed and code hash identically
// after the same number of ticks.
func (s *Simulation) Hash() uint64 {
	d := digests.Get()
	defer digests.Put(d)
	buf := make([]byte, 0, 7*8)
	s.ships.Each(func(_ models.ShipHandle, sh *ship) bool {
		st, err := s.world.State(sh.body)
		if err != nil {
			return true
		}
		buf = buf[:0]
		for _, v := range [...]float64{
			st.Position.X(),
			st.Position.Y(),
			st.Heading,
			st.Velocity.X(),
			st.Velocity.Y(),
			st.AngularVelocity,
			sh.data.Health,
		} {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(fixedPoint(v)))
		}
		_, _ = d.Write(buf)
		return true
	})
	return d.Sum64()
}

// fixedPoint converts v to the hash's fixed-point form. NaN maps to zero and
// values outside the int64 range saturate, so the result does not depend on
// the host's float conversion.
func fixedPoint(v float64) int64 {
	x := v * hashScale
	switch {
	case math.IsNaN(x):
		return 0
	case x >= math.MaxInt64:
		return math.MaxInt64
	case x <= math.MinInt64:
		return math.MinInt64
	}
	return int64(x)
}
