package injector

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/zeusync/fleetsim/internal/config"
	"github.com/zeusync/fleetsim/internal/core/events/bus"
	"github.com/zeusync/fleetsim/internal/core/observability/log"
	"github.com/zeusync/fleetsim/internal/core/observability/metrics"
	"github.com/zeusync/fleetsim/internal/core/simulation"
	"github.com/zeusync/fleetsim/internal/core/storage"
	"github.com/zeusync/fleetsim/internal/runner"
	"github.com/zeusync/fleetsim/internal/server"
)

// App is the object graph behind the serve command.
type App struct {
	Config config.Config
	Logger *log.Logger
	Store  *storage.VersionControl
	Runner *runner.Runner
	Server *server.Server
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideBus,
	ProvideStore,
	ProvideRunner,
	ProvideServer,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg config.Config) *log.Logger {
	return log.New(cfg.Log.ParsedLevel())
}

func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}

func ProvideMetrics(reg *prometheus.Registry) (*metrics.Collector, error) {
	return metrics.New(reg)
}

// ProvideBus returns an event bus that logs every simulation event at debug
// level and warns about failing handlers.
func ProvideBus(logger *log.Logger) (bus.EventBus, error) {
	b := bus.New()
	b.AddObserver(bus.LogObserver{Logger: logger})
	if !logger.Enabled(log.LevelDebug) {
		return b, nil
	}
	_, err := b.Subscribe("", func(e bus.Event) error {
		if e.Type == bus.TypeTickCompleted {
			return nil
		}
		logger.Debug("simulation event",
			log.String("type", e.Type),
			log.Uint32("tick", e.Tick),
			log.Any("data", e.Data),
		)
		return nil
	})
	return b, err
}

func ProvideStore(cfg config.Config, logger *log.Logger) (*storage.VersionControl, func(), error) {
	store, err := storage.Open(cfg.Storage.Path, storage.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

func ProvideRunner(cfg config.Config, logger *log.Logger, m *metrics.Collector, b bus.EventBus) (*runner.Runner, error) {
	build := func() (*simulation.Simulation, error) {
		return runner.Build(cfg,
			simulation.WithLogger(logger),
			simulation.WithMetrics(m),
			simulation.WithBus(b),
		)
	}
	return runner.New(build,
		runner.WithInterval(cfg.Server.TickInterval()),
		runner.WithSnapshotEvery(cfg.Server.SnapshotEvery),
		runner.WithLogger(logger),
	)
}

func ProvideServer(cfg config.Config, r *runner.Runner, store *storage.VersionControl, m *metrics.Collector, logger *log.Logger) *server.Server {
	sc := server.DefaultServerConfig()
	sc.ListenAddr = cfg.Server.ListenAddr
	sc.Scenario = cfg.Simulation.Scenario
	sc.UploadToken = cfg.Server.UploadToken

	return server.NewServer(sc, r, store, m.Handler(), logger)
}
