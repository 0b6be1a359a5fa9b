// Package config loads the YAML configuration shared by the CLI subcommands.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/fleetsim/internal/core/observability/log"
	"github.com/zeusync/fleetsim/internal/core/script"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Simulation Simulation `yaml:"simulation"`
	Server     Server     `yaml:"server"`
	Storage    Storage    `yaml:"storage"`
	Log        Log        `yaml:"log"`

	dir string
}

type Simulation struct {
	Scenario string `yaml:"scenario"`
	Seed     uint32 `yaml:"seed"`
	// Ticks bounds headless runs. Zero runs until the scenario finishes.
	Ticks  uint32       `yaml:"ticks"`
	Strict bool         `yaml:"strict"`
	Budget int          `yaml:"budget"`
	Cheats bool         `yaml:"cheats"`
	Teams  map[int]Team `yaml:"teams"`
}

// Team selects controller code either inline or from a file. File paths are
// resolved against the directory of the config file.
type Team struct {
	Code string `yaml:"code"`
	File string `yaml:"file"`
}

type Server struct {
	ListenAddr string `yaml:"listen_addr"`
	// TickRate is steps per second. Zero steps as fast as possible.
	TickRate      int `yaml:"tick_rate"`
	SnapshotEvery int `yaml:"snapshot_every"`
	// UploadToken guards code uploads when set.
	UploadToken string `yaml:"upload_token"`
}

// TickInterval returns the wall-clock time between steps.
func (s Server) TickInterval() time.Duration {
	if s.TickRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(s.TickRate)
}

type Storage struct {
	Path string `yaml:"path"`
}

type Log struct {
	Level string `yaml:"level"`
}

func (l Log) ParsedLevel() log.Level { return log.ParseLevel(l.Level) }

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Simulation: Simulation{
			Scenario: "welcome",
			Seed:     0,
			Ticks:    3600,
			Budget:   script.DefaultBudget,
			Teams:    map[int]Team{},
		},
		Server: Server{
			ListenAddr:    "127.0.0.1:8080",
			TickRate:      60,
			SnapshotEvery: 1,
		},
		Storage: Storage{Path: "fleetsim.db"},
		Log:     Log{Level: "info"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	if err = cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Simulation.Scenario == "" {
		errs = append(errs, errors.New("simulation.scenario is required"))
	}
	if c.Simulation.Budget < 0 {
		errs = append(errs, errors.New("simulation.budget must not be negative"))
	}
	for id, team := range c.Simulation.Teams {
		if id < 0 {
			errs = append(errs, fmt.Errorf("simulation.teams: negative team id %d", id))
		}
		if team.Code != "" && team.File != "" {
			errs = append(errs, fmt.Errorf("simulation.teams.%d: code and file are exclusive", id))
		}
	}
	if c.Server.TickRate < 0 {
		errs = append(errs, errors.New("server.tick_rate must not be negative"))
	}
	if c.Server.SnapshotEvery < 1 {
		errs = append(errs, errors.New("server.snapshot_every must be at least 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// TeamCode resolves the controller source of every configured team.
func (c Config) TeamCode() (map[int]string, error) {
	out := make(map[int]string, len(c.Simulation.Teams))
	for id, team := range c.Simulation.Teams {
		if team.File == "" {
			out[id] = team.Code
			continue
		}
		path := team.File
		if !filepath.IsAbs(path) && c.dir != "" {
			path = filepath.Join(c.dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("team %d code: %w", id, err)
		}
		out[id] = string(data)
	}
	return out, nil
}
