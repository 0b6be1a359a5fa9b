package models

// Contact is a radar return: the nearest enemy ship within radar range.
type Contact struct {
	ID       uint64    `json:"id"`
	Position Vec2      `json:"position"`
	Velocity Vec2      `json:"velocity"`
	Class    ShipClass `json:"class"`
}
