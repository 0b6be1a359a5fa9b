package simulation

import (
	"github.com/zeusync/fleetsim/internal/core/events/bus"
	"github.com/zeusync/fleetsim/internal/core/observability/log"
	"github.com/zeusync/fleetsim/internal/core/observability/metrics"
	"github.com/zeusync/fleetsim/internal/core/script"
)

// Option configures a Simulation.
type Option func(*Config)

// Config holds the collaborators and knobs of a Simulation.
type Config struct {
	Logger  log.Log            // Defaults to a no-op logger
	Metrics *metrics.Collector // Nil records nothing
	Bus     bus.EventBus       // Nil publishes nothing

	// Budget is the per-call node-visit limit for tree controllers.
	Budget int
	// StrictIntegrity panics on integrity violations instead of skipping them.
	StrictIntegrity bool
	// Cheats marks snapshots as produced by a modified run.
	Cheats bool
	// TeamCode is installed after the scenario has been initialized.
	TeamCode map[int]string
}

func defaultConfig() Config {
	return Config{
		Logger: log.NewNop(),
		Budget: script.DefaultBudget,
	}
}

// WithLogger sets the logger used for lifecycle and integrity messages.
func WithLogger(l log.Log) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithMetrics reports step, hit and error counters to m.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Config) { c.Metrics = m }
}

// WithBus publishes lifecycle events to b.
func WithBus(b bus.EventBus) Option {
	return func(c *Config) { c.Bus = b }
}

// WithBudget sets the per-call node-visit limit for tree controllers.
func WithBudget(n int) Option {
	return func(c *Config) { c.Budget = n }
}

// WithStrictIntegrity makes integrity violations fatal. Meant for tests.
func WithStrictIntegrity(strict bool) Option {
	return func(c *Config) { c.StrictIntegrity = strict }
}

func WithCheats(enabled bool) Option {
	return func(c *Config) { c.Cheats = enabled }
}

// WithTeamCode installs code for a team once the scenario is set up,
// overriding whatever the scenario installed.
func WithTeamCode(team int, code string) Option {
	return func(c *Config) {
		if c.TeamCode == nil {
			c.TeamCode = make(map[int]string)
		}
		c.TeamCode[team] = code
	}
}
