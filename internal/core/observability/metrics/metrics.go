package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus series a simulation reports.
// A nil *Collector is valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Ticks               prometheus.Counter
	StepDuration        prometheus.Histogram
	AgentErrors         *prometheus.CounterVec
	Hits                prometheus.Counter
	ShipsDestroyed      prometheus.Counter
	IntegrityViolations prometheus.Counter
	Ships               prometheus.Gauge
	Bullets             prometheus.Gauge
}

// New registers the simulation metrics against reg, defaulting to the global
// Prometheus registry when nil. Registering twice against the same registry
// reuses the existing collectors.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.Ticks, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleetsim_ticks_total",
		Help: "Total number of simulation steps executed.",
	})); err != nil {
		return nil, err
	}
	if c.StepDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fleetsim_step_duration_seconds",
		Help:    "Wall-clock duration of a single simulation step.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.016, 0.025, 0.05},
	})); err != nil {
		return nil, err
	}
	if c.AgentErrors, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetsim_agent_errors_total",
		Help: "Agent controller failures recorded in the event log, labeled by team.",
	}, []string{"team"})); err != nil {
		return nil, err
	}
	if c.Hits, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleetsim_hits_total",
		Help: "Bullet hits on enemy ships.",
	})); err != nil {
		return nil, err
	}
	if c.ShipsDestroyed, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleetsim_ships_destroyed_total",
		Help: "Ships destroyed by damage.",
	})); err != nil {
		return nil, err
	}
	if c.IntegrityViolations, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleetsim_integrity_violations_total",
		Help: "Skipped operations caused by stale handles or physics/entity desynchronization.",
	})); err != nil {
		return nil, err
	}
	if c.Ships, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleetsim_ships",
		Help: "Live ships after the last step.",
	})); err != nil {
		return nil, err
	}
	if c.Bullets, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleetsim_bullets",
		Help: "Live bullets after the last step.",
	})); err != nil {
		return nil, err
	}

	return c, nil
}

// ObserveStep records one completed step.
func (c *Collector) ObserveStep(d time.Duration, ships, bullets int) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.StepDuration.Observe(d.Seconds())
	c.Ships.Set(float64(ships))
	c.Bullets.Set(float64(bullets))
}

// AgentError counts a controller failure for team.
func (c *Collector) AgentError(team int) {
	if c == nil {
		return
	}
	c.AgentErrors.WithLabelValues(strconv.Itoa(team)).Inc()
}

// Hit counts a bullet hit.
func (c *Collector) Hit() {
	if c == nil {
		return
	}
	c.Hits.Inc()
}

// ShipDestroyed counts a destruction.
func (c *Collector) ShipDestroyed() {
	if c == nil {
		return
	}
	c.ShipsDestroyed.Inc()
}

// IntegrityViolation counts a skipped stale lookup.
func (c *Collector) IntegrityViolation() {
	if c == nil {
		return
	}
	c.IntegrityViolations.Inc()
}

// Handler exposes the gatherer over HTTP.
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return collector, nil
}
