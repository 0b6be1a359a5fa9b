package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// StatusKind enumerates the outcomes a scenario can report.
type StatusKind uint8

const (
	StatusRunning StatusKind = iota
	StatusVictory
	StatusFailed
	StatusDraw
)

// Status is the world status reported by a scenario.
// Team is only meaningful for StatusVictory.
type Status struct {
	Kind StatusKind
	Team int
}

func Running() Status { return Status{Kind: StatusRunning} }
func Victory(team int) Status { return Status{Kind: StatusVictory, Team: team} }
func Failed() Status { return Status{Kind: StatusFailed} }
func Draw() Status { return Status{Kind: StatusDraw} }

// IsRunning reports whether the scenario has not concluded yet.
func (s Status) IsRunning() bool { return s.Kind == StatusRunning }

func (s Status) String() string {
	switch s.Kind {
	case StatusRunning:
		return "running"
	case StatusVictory:
		return "victory(team=" + strconv.Itoa(s.Team) + ")"
	case StatusFailed:
		return "failed"
	case StatusDraw:
		return "draw"
	default:
		return "unknown"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	switch {
	case str == "running":
		*s = Running()
	case str == "failed":
		*s = Failed()
	case str == "draw":
		*s = Draw()
	case strings.HasPrefix(str, "victory(team=") && strings.HasSuffix(str, ")"):
		team, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(str, "victory(team="), ")"))
		if err != nil {
			return fmt.Errorf("invalid status %q: %w", str, err)
		}
		*s = Victory(team)
	default:
		return fmt.Errorf("invalid status %q", str)
	}
	return nil
}
