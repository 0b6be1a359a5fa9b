// Package runner drives simulations outside of tests: a real-time loop that
// feeds viewers, a headless batch run and a multi-replica determinism check.
package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/internal/core/observability/log"
	"github.com/zeusync/fleetsim/internal/core/simulation"
)

var (
	ErrAlreadyRunning = errors.New("runner is already running")
	ErrFinished       = errors.New("scenario has finished")
)

// Builder creates a fresh simulation. It is called once by New and again on
// every Reset.
type Builder func() (*simulation.Simulation, error)

type Option func(*Runner)

// WithInterval sets the wall-clock time between steps. Zero steps as fast as
// the loop can run.
func WithInterval(d time.Duration) Option {
	return func(r *Runner) { r.interval = d }
}

// WithSnapshotEvery publishes a snapshot every n steps.
func WithSnapshotEvery(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.every = n
		}
	}
}

func WithLogger(l log.Log) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

type command struct {
	fn    func() error
	reply chan error
}

// Runner owns one simulation and steps it on its own goroutine. All access
// to the simulation goes through the command channel, so the simulation
// itself stays single-threaded.
type Runner struct {
	build    Builder
	interval time.Duration
	every    int
	logger   log.Log
	commands chan command
	running  atomic.Bool

	mu     sync.RWMutex
	subs   map[uuid.UUID]chan models.Snapshot
	latest models.Snapshot

	// owned by the loop goroutine once Run has started
	sim      *simulation.Simulation
	paused   bool
	finished bool
	nonce    uint32
}

// New builds the initial simulation and publishes its first snapshot.
func New(build Builder, opts ...Option) (*Runner, error) {
	r := &Runner{
		build:    build,
		every:    1,
		logger:   log.NewNop(),
		commands: make(chan command),
		subs:     make(map[uuid.UUID]chan models.Snapshot),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.reset(); err != nil {
		return nil, err
	}
	return r, nil
}

// Run steps the simulation until ctx is canceled. Stepping stops by itself
// once the scenario reports an outcome; commands are still served.
func (r *Runner) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer r.running.Store(false)

	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	r.logger.Info("runner started",
		log.String("scenario", r.sim.ScenarioName()),
		log.Duration("interval", r.interval),
	)
	defer func() { r.logger.Info("runner stopped", log.Uint32("tick", r.sim.Tick())) }()

	for {
		if r.paused || r.finished {
			select {
			case <-ctx.Done():
				return nil
			case cmd := <-r.commands:
				r.exec(cmd)
			}
			continue
		}

		if tick == nil {
			select {
			case <-ctx.Done():
				return nil
			case cmd := <-r.commands:
				r.exec(cmd)
			default:
				r.step()
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case cmd := <-r.commands:
			r.exec(cmd)
		case <-tick:
			r.step()
		}
	}
}

// UploadCode installs code for team on the loop goroutine and publishes a
// snapshot carrying the resulting error event, if any.
func (r *Runner) UploadCode(ctx context.Context, team int, code string) error {
	return r.send(ctx, func() error {
		err := r.sim.UploadCode(team, code)
		r.publish()
		return err
	})
}

func (r *Runner) Pause(ctx context.Context) error {
	return r.send(ctx, func() error {
		r.paused = true
		return nil
	})
}

func (r *Runner) Resume(ctx context.Context) error {
	return r.send(ctx, func() error {
		r.paused = false
		if r.finished {
			return ErrFinished
		}
		return nil
	})
}

// Reset replaces the simulation with a freshly built one.
func (r *Runner) Reset(ctx context.Context) error {
	return r.send(ctx, r.reset)
}

// Do runs fn against the simulation on the loop goroutine.
func (r *Runner) Do(ctx context.Context, fn func(*simulation.Simulation) error) error {
	return r.send(ctx, func() error { return fn(r.sim) })
}

// Subscribe returns a channel that receives published snapshots, starting
// with the latest one. Snapshots are dropped for a subscriber whose buffer
// is full. The returned function unsubscribes and closes the channel.
func (r *Runner) Subscribe(buffer int) (<-chan models.Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	id := uuid.New()
	ch := make(chan models.Snapshot, buffer)

	r.mu.Lock()
	r.subs[id] = ch
	ch <- r.latest
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			close(ch)
			r.mu.Unlock()
		})
	}
}

// Latest returns the most recently published snapshot.
func (r *Runner) Latest() models.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

func (r *Runner) send(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	select {
	case r.commands <- command{fn: fn, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) exec(cmd command) {
	cmd.reply <- cmd.fn()
}

func (r *Runner) reset() error {
	sim, err := r.build()
	if err != nil {
		return err
	}
	r.sim = sim
	r.finished = false
	r.publish()
	return nil
}

func (r *Runner) step() {
	r.sim.Step()

	status := r.sim.Status()
	if !status.IsRunning() {
		r.finished = true
		r.logger.Info("scenario finished",
			log.String("status", status.String()),
			log.Uint32("tick", r.sim.Tick()),
		)
	}
	if r.finished || r.sim.Tick()%uint32(r.every) == 0 {
		r.publish()
	}
}

func (r *Runner) publish() {
	r.nonce++
	snap := r.sim.Snapshot(r.nonce)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = snap
	for _, ch := range r.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
