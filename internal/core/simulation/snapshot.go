package simulation

import (
	"github.com/zeusync/fleetsim/internal/core/models"
)

// Snapshot projects the current world into a render-ready view. It has no
// side effects; calling it any number of times does not change the run.
func (s *Simulation) Snapshot(nonce uint32) models.Snapshot {
	ev := s.events.Events()
	snap := models.Snapshot{
		Nonce:          nonce,
		Tick:           s.tick,
		Time:           s.Time(),
		Status:         s.Status(),
		Ships:          make([]models.ShipSnapshot, 0, s.ships.Len()),
		Bullets:        make([]models.BulletSnapshot, 0, s.bullets.Len()),
		ScenarioLines:  append([]models.Line(nil), s.scenario.Lines()...),
		DebugLines:     ev.DebugLines,
		Hits:           ev.Hits,
		ShipsDestroyed: ev.Destroyed,
		Errors:         ev.Errors,
		Cheats:         s.cfg.Cheats,
	}

	s.ships.Each(func(h models.ShipHandle, sh *ship) bool {
		st, err := s.world.State(sh.body)
		if err != nil {
			return true
		}
		snap.Ships = append(snap.Ships, models.ShipSnapshot{
			ID:              h.ID(),
			Position:        st.Position,
			Velocity:        st.Velocity,
			Heading:         st.Heading,
			AngularVelocity: st.AngularVelocity,
			Team:            sh.data.Team,
			Class:           sh.data.Class,
			Health:          sh.data.Health,
		})
		return true
	})
	s.bullets.Each(func(_ models.BulletHandle, b *bullet) bool {
		st, err := s.world.State(b.body)
		if err != nil {
			return true
		}
		snap.Bullets = append(snap.Bullets, models.BulletSnapshot{
			Position: st.Position,
			Velocity: st.Velocity,
			Team:     b.data.Team,
		})
		return true
	})
	return snap
}
