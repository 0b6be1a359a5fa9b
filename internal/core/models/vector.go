package models

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is the 2D vector type used throughout the simulation, in metres.
type Vec2 = mgl64.Vec2

// V builds a Vec2.
func V(x, y float64) Vec2 { return Vec2{x, y} }

// FromAngle returns the unit vector pointing at angle a (radians).
func FromAngle(a float64) Vec2 { return Vec2{math.Cos(a), math.Sin(a)} }

// Angle returns the direction of v in radians, in (-π, π].
func Angle(v Vec2) float64 { return math.Atan2(v.Y(), v.X()) }

// Rotate rotates v counter-clockwise by a radians.
func Rotate(v Vec2, a float64) Vec2 {
	s, c := math.Sincos(a)
	return Vec2{v.X()*c - v.Y()*s, v.X()*s + v.Y()*c}
}

// NormalizeAngle maps a into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// AngleDiff returns the signed shortest rotation from a to b, in [-π, π).
func AngleDiff(a, b float64) float64 {
	c := NormalizeAngle(b - a)
	if c >= math.Pi {
		c -= 2 * math.Pi
	}
	return c
}

// Distance returns the euclidean distance between two points.
func Distance(a, b Vec2) float64 { return b.Sub(a).Len() }
