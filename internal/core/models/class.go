package models

import (
	"math"
	"strings"
)

// ShipClass is the archetype a ship is built from.
type ShipClass uint8

const (
	Fighter ShipClass = iota
	Frigate
	Cruiser
	Target
	Asteroid
)

var classNames = [...]string{
	Fighter:  "fighter",
	Frigate:  "frigate",
	Cruiser:  "cruiser",
	Target:   "target",
	Asteroid: "asteroid",
}

func (c ShipClass) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "unknown"
}

// Valid reports whether c is one of the defined classes.
func (c ShipClass) Valid() bool { return int(c) < len(classNames) }

func (c ShipClass) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ShipClass) UnmarshalText(b []byte) error {
	parsed, ok := ParseShipClass(string(b))
	if !ok {
		return ErrUnknownClass
	}
	*c = parsed
	return nil
}

// ParseShipClass resolves a class by its lowercase name.
func ParseShipClass(name string) (ShipClass, bool) {
	for i, n := range classNames {
		if strings.EqualFold(n, name) {
			return ShipClass(i), true
		}
	}
	return 0, false
}

// WeaponSpec describes the single gun a class carries.
type WeaponSpec struct {
	Damage      float64
	BulletSpeed float64
	ReloadTicks uint32
	TTLTicks    uint32
}

// ClassSpec holds the physical and combat parameters of a ship class.
type ClassSpec struct {
	Radius float64
	Mass   float64
	Health float64

	MaxForwardAcceleration float64
	MaxLateralAcceleration float64
	MaxAngularAcceleration float64
	RadarRange             float64
	Weapon                 *WeaponSpec
}

var classSpecs = [...]ClassSpec{
	Fighter: {
		Radius:                 10,
		Mass:                   15_000,
		Health:                 100,
		MaxForwardAcceleration: 60,
		MaxLateralAcceleration: 30,
		MaxAngularAcceleration: 2 * math.Pi,
		RadarRange:             10_000,
		Weapon:                 &WeaponSpec{Damage: 20, BulletSpeed: 1000, ReloadTicks: 4, TTLTicks: 300},
	},
	Frigate: {
		Radius:                 30,
		Mass:                   4_000_000,
		Health:                 10_000,
		MaxForwardAcceleration: 10,
		MaxLateralAcceleration: 5,
		MaxAngularAcceleration: math.Pi / 4,
		RadarRange:             20_000,
		Weapon:                 &WeaponSpec{Damage: 60, BulletSpeed: 1000, ReloadTicks: 12, TTLTicks: 300},
	},
	Cruiser: {
		Radius:                 50,
		Mass:                   9_000_000,
		Health:                 20_000,
		MaxForwardAcceleration: 5,
		MaxLateralAcceleration: 2.5,
		MaxAngularAcceleration: math.Pi / 8,
		RadarRange:             20_000,
		Weapon:                 &WeaponSpec{Damage: 100, BulletSpeed: 900, ReloadTicks: 30, TTLTicks: 400},
	},
	Target: {
		Radius: 10,
		Mass:   10_000,
		Health: 1,
	},
	Asteroid: {
		Radius: 40,
		Mass:   1_000_000,
		Health: 1_000_000,
	},
}

// Spec returns the parameters of the class.
func (c ShipClass) Spec() ClassSpec {
	if int(c) < len(classSpecs) {
		return classSpecs[c]
	}
	return classSpecs[Target]
}
