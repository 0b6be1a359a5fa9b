package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/zeusync/fleetsim/internal/config"
	"github.com/zeusync/fleetsim/internal/core/observability/log"
	"github.com/zeusync/fleetsim/internal/core/simulation"
	"github.com/zeusync/fleetsim/internal/core/storage"
	"github.com/zeusync/fleetsim/internal/injector"
	"github.com/zeusync/fleetsim/internal/runner"
)

const usage = `usage: fleetsim <command> [flags]

commands:
  run       step a scenario headless and print the final hash
  verify    run replicas concurrently and check they stay identical
  serve     stream a live simulation to viewers over websocket
  save      store a code file as a new version
  versions  list stored versions of a scenario
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "fleetsim:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "run":
		return runCmd(ctx, args, stdout, stderr)
	case "verify":
		return verifyCmd(ctx, args, stdout, stderr)
	case "serve":
		return serveCmd(ctx, args, stderr)
	case "save":
		return saveCmd(ctx, args, stdout, stderr)
	case "versions":
		return versionsCmd(ctx, args, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return errUsage
	}
}

// simFlags registers the flags shared by every command that builds a
// simulation. The returned function loads the config file, if any, and applies
// the flags that were set explicitly on top of it.
func simFlags(fs *flag.FlagSet) func() (config.Config, error) {
	path := fs.String("config", "", "path to a YAML config file")
	scenario := fs.String("scenario", "", "scenario name ("+strings.Join(simulation.Scenarios(), ", ")+")")
	var seed, ticks uint32Flag
	fs.Var(&seed, "seed", "world seed")
	fs.Var(&ticks, "ticks", "number of ticks to step")
	strict := fs.Bool("strict", false, "panic on integrity violations")
	level := fs.String("log-level", "", "log level (debug, info, warn, error, silent)")
	var codes teamFlags
	fs.Var(&codes, "team", "team code as id=file, repeatable")

	return func() (config.Config, error) {
		cfg := config.Default()
		if *path != "" {
			var err error
			if cfg, err = config.Load(*path); err != nil {
				return cfg, err
			}
		}

		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "scenario":
				cfg.Simulation.Scenario = *scenario
			case "seed":
				cfg.Simulation.Seed = uint32(seed)
			case "ticks":
				cfg.Simulation.Ticks = uint32(ticks)
			case "strict":
				cfg.Simulation.Strict = *strict
			case "log-level":
				cfg.Log.Level = *level
			case "team":
				for id, file := range codes {
					if cfg.Simulation.Teams == nil {
						cfg.Simulation.Teams = map[int]config.Team{}
					}
					cfg.Simulation.Teams[id] = config.Team{File: file}
				}
			}
		})
		return cfg, cfg.Validate()
	}
}

// uint32Flag is a flag.Value that rejects values wider than 32 bits.
type uint32Flag uint32

func (u *uint32Flag) String() string {
	if u == nil {
		return "0"
	}
	return strconv.FormatUint(uint64(*u), 10)
}

func (u *uint32Flag) Set(v string) error {
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return err
	}
	*u = uint32Flag(n)
	return nil
}

// teamFlags collects -team id=file pairs.
type teamFlags map[int]string

func (t *teamFlags) String() string {
	if t == nil || *t == nil {
		return ""
	}
	return fmt.Sprint(map[int]string(*t))
}

func (t *teamFlags) Set(v string) error {
	id, file, ok := strings.Cut(v, "=")
	if !ok || file == "" {
		return fmt.Errorf("want id=file, got %q", v)
	}
	var n int
	if _, err := fmt.Sscanf(id, "%d", &n); err != nil || n < 0 {
		return fmt.Errorf("bad team id %q", id)
	}
	if *t == nil {
		*t = make(teamFlags)
	}
	(*t)[n] = file
	return nil
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func runCmd(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("run", stderr)
	load := simFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := load()
	if err != nil {
		return err
	}

	logger := log.New(cfg.Log.ParsedLevel())
	defer func() { _ = logger.Sync() }()

	res, err := runner.Run(ctx, cfg, 0, simulation.WithLogger(logger))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "scenario=%s seed=%d tick=%d status=%s hash=%016x\n",
		cfg.Simulation.Scenario, cfg.Simulation.Seed, res.Tick, res.Status, res.Hash)
	return nil
}

func verifyCmd(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("verify", stderr)
	load := simFlags(fs)
	replicas := fs.Int("replicas", 4, "number of concurrent replicas")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := load()
	if err != nil {
		return err
	}

	hash, err := runner.Verify(ctx, cfg, *replicas, 0)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "ok: %d replicas agree after %d ticks, hash=%016x\n",
		*replicas, cfg.Simulation.Ticks, hash)
	return nil
}

func serveCmd(ctx context.Context, args []string, stderr io.Writer) error {
	fs := newFlagSet("serve", stderr)
	load := simFlags(fs)
	listen := fs.String("listen", "", "listen address")
	db := fs.String("db", "", "code store path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := load()
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.Server.ListenAddr = *listen
	}
	if *db != "" {
		cfg.Storage.Path = *db
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	defer func() { _ = app.Logger.Sync() }()

	if err = app.Server.Start(ctx); err != nil {
		return err
	}

	runErr := app.Runner.Run(ctx)
	if err = app.Server.Stop(); err != nil {
		app.Logger.Error("server stop failed", log.Error(err))
	}
	return runErr
}

func openStore(path string) (*storage.VersionControl, error) {
	return storage.Open(path, storage.WithLogger(log.Provide()))
}

func saveCmd(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("save", stderr)
	db := fs.String("db", config.Default().Storage.Path, "code store path")
	scenario := fs.String("scenario", config.Default().Simulation.Scenario, "scenario the code was written for")
	label := fs.String("label", "", "optional label")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: fleetsim save [flags] <code file>")
		return errUsage
	}

	code, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	store, err := openStore(*db)
	if err != nil {
		return err
	}
	defer store.Close()

	v, err := store.CreateVersion(ctx, storage.CreateVersionParams{
		Code:         string(code),
		ScenarioName: *scenario,
		Label:        *label,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, v.ID)
	return nil
}

func versionsCmd(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("versions", stderr)
	db := fs.String("db", config.Default().Storage.Path, "code store path")
	scenario := fs.String("scenario", config.Default().Simulation.Scenario, "scenario to list")
	show := fs.String("show", "", "print the code of the version with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*db)
	if err != nil {
		return err
	}
	defer store.Close()

	if *show != "" {
		v, err := store.GetVersion(ctx, *show)
		if err != nil {
			return fmt.Errorf("version %s: %w", *show, err)
		}
		code, err := store.GetCode(ctx, v.Digest)
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, code)
		return nil
	}

	versions, err := store.ListVersions(ctx, *scenario)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tLABEL")
	for _, v := range versions {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.ID, v.Timestamp.UTC().Format("2006-01-02 15:04:05"), v.Label)
	}
	return tw.Flush()
}
