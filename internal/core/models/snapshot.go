package models

// AgentError is a controller failure recorded in the event log.
// Ship is zero for team-level and installation failures.
type AgentError struct {
	Ship    uint64 `json:"ship,omitempty"`
	Team    int    `json:"team"`
	Message string `json:"message"`
}

// ShipSnapshot is the render view of a single ship.
type ShipSnapshot struct {
	ID              uint64    `json:"id"`
	Position        Vec2      `json:"position"`
	Velocity        Vec2      `json:"velocity"`
	Heading         float64   `json:"heading"`
	AngularVelocity float64   `json:"angular_velocity"`
	Team            int       `json:"team"`
	Class           ShipClass `json:"class"`
	Health          float64   `json:"health"`
}

// BulletSnapshot is the render view of a single bullet.
type BulletSnapshot struct {
	Position Vec2 `json:"position"`
	Velocity Vec2 `json:"velocity"`
	Team     int  `json:"team"`
}

// Snapshot is an immutable projection of the world at a tick boundary.
// All slices and maps are owned by the snapshot.
type Snapshot struct {
	Nonce          uint32            `json:"nonce"`
	Tick           uint32            `json:"tick"`
	Time           float64           `json:"time"`
	Status         Status            `json:"status"`
	Ships          []ShipSnapshot    `json:"ships"`
	Bullets        []BulletSnapshot  `json:"bullets"`
	ScenarioLines  []Line            `json:"scenario_lines"`
	DebugLines     map[uint64][]Line `json:"debug_lines"`
	Hits           []Vec2            `json:"hits"`
	ShipsDestroyed []Vec2            `json:"ships_destroyed"`
	Errors         []AgentError      `json:"errors"`
	Cheats         bool              `json:"cheats"`
}
