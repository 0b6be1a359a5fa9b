package tree

import (
	"errors"
	"fmt"
	"math"

	"github.com/zeusync/fleetsim/internal/core/models"
)

// RegisterBuiltins registers the stock decorators, ship actions and conditions.
func RegisterBuiltins(r Registry) {
	registerDecorators(r)
	registerActions(r)
	registerConditions(r)
}

func registerDecorators(r Registry) {
	r.RegisterDecorator("repeat", func(name string, p Params) (Decorator, error) {
		times, err := p.Int("times", 1)
		if err != nil {
			return nil, err
		}
		return NewRepeat(name, times, p.Bool("stop_on_failure", false)), nil
	})
	r.RegisterDecorator("invert", func(name string, _ Params) (Decorator, error) {
		return NewInvert(name), nil
	})
	r.RegisterDecorator("cooldown", func(name string, p Params) (Decorator, error) {
		ticks, err := p.Int("ticks", 1)
		if err != nil {
			return nil, err
		}
		if ticks < 0 {
			return nil, errors.New("cooldown: ticks must be >= 0")
		}
		return NewCooldown(name, uint32(ticks)), nil
	})
	r.RegisterDecorator("probability", func(name string, p Params) (Decorator, error) {
		v, err := p.Float("p", 0.5)
		if err != nil {
			return nil, err
		}
		return NewProbability(name, v), nil
	})
}

// scope picks the ship or team blackboard from the "scope" param.
func scope(p Params) func(t *TickContext) Blackboard {
	if p.String("scope", "ship") == "team" {
		return func(t *TickContext) Blackboard { return t.Team }
	}
	return func(t *TickContext) Blackboard { return t.BB }
}

func registerActions(r Registry) {
	r.RegisterAction("accelerate", func(name string, p Params) (Node, error) {
		x, err := p.Float("x", 0)
		if err != nil {
			return nil, err
		}
		y, err := p.Float("y", 0)
		if err != nil {
			return nil, err
		}
		return NewAction(name, func(t *TickContext) (Status, error) {
			s, err := t.ship()
			if err != nil {
				return StatusFailure, err
			}
			s.Accelerate(models.V(x, y))
			return StatusSuccess, nil
		}), nil
	})

	r.RegisterAction("accelerate_to_contact", func(name string, p Params) (Node, error) {
		acc, err := p.Float("acceleration", 100)
		if err != nil {
			return nil, err
		}
		return NewAction(name, func(t *TickContext) (Status, error) {
			s, err := t.ship()
			if err != nil {
				return StatusFailure, err
			}
			c, ok := s.Scan()
			if !ok {
				return StatusFailure, nil
			}
			dir := c.Position.Sub(s.Position())
			if dir.Len() == 0 {
				return StatusSuccess, nil
			}
			local := models.Rotate(dir.Normalize().Mul(acc), -s.Heading())
			s.Accelerate(local)
			return StatusSuccess, nil
		}), nil
	})

	r.RegisterAction("turn_to_contact", func(name string, p Params) (Node, error) {
		gain, err := p.Float("gain", 10)
		if err != nil {
			return nil, err
		}
		damping, err := p.Float("damping", 5)
		if err != nil {
			return nil, err
		}
		return NewAction(name, func(t *TickContext) (Status, error) {
			s, err := t.ship()
			if err != nil {
				return StatusFailure, err
			}
			c, ok := s.Scan()
			if !ok {
				return StatusFailure, nil
			}
			TurnTo(s, models.Angle(c.Position.Sub(s.Position())), gain, damping)
			return StatusSuccess, nil
		}), nil
	})

	r.RegisterAction("turn", func(name string, p Params) (Node, error) {
		v, err := p.Float("value", 0)
		if err != nil {
			return nil, err
		}
		return NewAction(name, func(t *TickContext) (Status, error) {
			s, err := t.ship()
			if err != nil {
				return StatusFailure, err
			}
			s.Torque(v)
			return StatusSuccess, nil
		}), nil
	})

	r.RegisterAction("fire", func(name string, _ Params) (Node, error) {
		return NewAction(name, func(t *TickContext) (Status, error) {
			s, err := t.ship()
			if err != nil {
				return StatusFailure, err
			}
			if s.Fire() {
				return StatusSuccess, nil
			}
			return StatusFailure, nil
		}), nil
	})

	r.RegisterAction("explode", func(name string, _ Params) (Node, error) {
		return NewAction(name, func(t *TickContext) (Status, error) {
			s, err := t.ship()
			if err != nil {
				return StatusFailure, err
			}
			s.Explode()
			return StatusSuccess, nil
		}), nil
	})

	r.RegisterAction("set", func(name string, p Params) (Node, error) {
		key := p.String("key", "")
		if key == "" {
			return nil, errors.New("set requires 'key'")
		}
		val := p["value"]
		bb := scope(p)
		return NewAction(name, func(t *TickContext) (Status, error) {
			bb(t).Set(key, val)
			return StatusSuccess, nil
		}), nil
	})

	r.RegisterAction("debug_contact", func(name string, _ Params) (Node, error) {
		return NewAction(name, func(t *TickContext) (Status, error) {
			s, err := t.ship()
			if err != nil {
				return StatusFailure, err
			}
			c, ok := s.Scan()
			if !ok {
				return StatusFailure, nil
			}
			s.DebugLine(s.Position(), c.Position, models.ColorRed)
			return StatusSuccess, nil
		}), nil
	})

	r.RegisterAction("fail", func(name string, p Params) (Node, error) {
		msg := p.String("message", "script failure")
		return NewAction(name, func(*TickContext) (Status, error) {
			return StatusFailure, errors.New(msg)
		}), nil
	})
}

func registerConditions(r Registry) {
	r.RegisterCondition("has_contact", func(name string, _ Params) (Node, error) {
		return NewCondition(name, func(t *TickContext) (bool, error) {
			s, err := t.ship()
			if err != nil {
				return false, err
			}
			_, ok := s.Scan()
			return ok, nil
		}), nil
	})

	r.RegisterCondition("contact_within", func(name string, p Params) (Node, error) {
		rng, err := p.Float("range", 0)
		if err != nil {
			return nil, err
		}
		if rng <= 0 {
			return nil, fmt.Errorf("contact_within requires positive 'range'")
		}
		return NewCondition(name, func(t *TickContext) (bool, error) {
			s, err := t.ship()
			if err != nil {
				return false, err
			}
			c, ok := s.Scan()
			return ok && models.Distance(s.Position(), c.Position) <= rng, nil
		}), nil
	})

	r.RegisterCondition("health_below", func(name string, p Params) (Node, error) {
		v, err := p.Float("value", 0)
		if err != nil {
			return nil, err
		}
		return NewCondition(name, func(t *TickContext) (bool, error) {
			s, err := t.ship()
			if err != nil {
				return false, err
			}
			return s.Health() < v, nil
		}), nil
	})

	r.RegisterCondition("is_true", func(name string, p Params) (Node, error) {
		key := p.String("key", "")
		if key == "" {
			return nil, errors.New("is_true requires 'key'")
		}
		bb := scope(p)
		return NewCondition(name, func(t *TickContext) (bool, error) {
			v, ok := bb(t).Get(key)
			if !ok {
				return false, nil
			}
			b, ok := v.(bool)
			return ok && b, nil
		}), nil
	})
}

// TurnTo drives a ship's heading toward target with a PD controller.
func TurnTo(s Ship, target, gain, damping float64) {
	diff := models.AngleDiff(s.Heading(), target)
	s.Torque(gain*diff - damping*s.AngularVelocity())
}

// Aligned reports whether the ship points within tolerance of target.
func Aligned(s Ship, target, tolerance float64) bool {
	return math.Abs(models.AngleDiff(s.Heading(), target)) <= tolerance
}
