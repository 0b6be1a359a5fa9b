package models

// Line is a colored segment used for scenario overlays and agent debug output.
type Line struct {
	A     Vec2       `json:"a"`
	B     Vec2       `json:"b"`
	Color [4]float32 `json:"color"`
}

var (
	ColorWhite = [4]float32{1, 1, 1, 1}
	ColorRed   = [4]float32{1, 0.2, 0.2, 1}
	ColorGreen = [4]float32{0.2, 1, 0.2, 1}
	ColorGray  = [4]float32{0.5, 0.5, 0.5, 0.6}
)

// Square returns the four edges of an axis-aligned square centred on c.
func Square(c Vec2, half float64, color [4]float32) []Line {
	p0 := c.Add(V(-half, -half))
	p1 := c.Add(V(half, -half))
	p2 := c.Add(V(half, half))
	p3 := c.Add(V(-half, half))
	return []Line{
		{A: p0, B: p1, Color: color},
		{A: p1, B: p2, Color: color},
		{A: p2, B: p3, Color: color},
		{A: p3, B: p0, Color: color},
	}
}

// Circle approximates a circle of radius r with n segments.
func Circle(c Vec2, r float64, n int, color [4]float32) []Line {
	if n < 3 {
		n = 3
	}
	lines := make([]Line, 0, n)
	step := 2 * 3.141592653589793 / float64(n)
	prev := c.Add(FromAngle(0).Mul(r))
	for i := 1; i <= n; i++ {
		next := c.Add(FromAngle(step * float64(i)).Mul(r))
		lines = append(lines, Line{A: prev, B: next, Color: color})
		prev = next
	}
	return lines
}
