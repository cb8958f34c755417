package cmdutil

import (
	"context"
	"errors"
	"time"

	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/config"
	"github.com/mpapenbr/simresults-indexer/pkg/notify"
	"github.com/mpapenbr/simresults-indexer/pkg/processing/stats"
	"github.com/mpapenbr/simresults-indexer/pkg/scan"
	"github.com/mpapenbr/simresults-indexer/pkg/service"
	"github.com/mpapenbr/simresults-indexer/pkg/store"
)

type (
	EnvOption func(*envConfig)
	envConfig struct {
		withStore   bool
		degrade     bool
		statsSource service.StatsSource
		notifiers   []notify.Notifier
	}
	// Env bundles everything a command needs to work on the results
	Env struct {
		Settings  *config.Settings
		Store     *store.Store
		Service   *service.ResultsService
		telemetry *config.Telemetry
		nats      *notify.NatsNotifier
	}
)

// WithoutStore skips opening the store
func WithoutStore() EnvOption {
	return func(c *envConfig) {
		c.withStore = false
	}
}

// WithStrictStore fails instead of falling back to an in-memory store
func WithStrictStore() EnvOption {
	return func(c *envConfig) {
		c.degrade = false
	}
}

func WithStatsSource(src service.StatsSource) EnvOption {
	return func(c *envConfig) {
		c.statsSource = src
	}
}

// WithExtraNotifier adds n to the notifiers of the indexer
func WithExtraNotifier(n notify.Notifier) EnvOption {
	return func(c *envConfig) {
		c.notifiers = append(c.notifiers, n)
	}
}

// LoadSettings reads the settings file and applies the command line overrides
func LoadSettings() (*config.Settings, error) {
	file := config.SettingsFile
	if file == "" {
		file = config.DefaultSettingsFile()
	}
	s, err := config.LoadSettings(file)
	if err != nil {
		return nil, err
	}
	return config.Resolve(s), nil
}

// WaitForServicesTimeout parses config.WaitForServices
func WaitForServicesTimeout() time.Duration {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}
	return timeout
}

// OpenStore opens config.DB. Unless strict is set an unusable location
// falls back to an in-memory store.
func OpenStore(ctx context.Context, sqlLogger *log.Logger, strict bool) (*store.Store, error) {
	opts := []store.Option{
		store.WithWaitForServices(WaitForServicesTimeout()),
		store.WithTelemetry(config.EnableTelemetry),
	}
	if sqlLogger != nil {
		opts = append(opts, store.WithSQLLogger(sqlLogger))
	}
	if strict {
		return store.Open(ctx, config.DB, opts...)
	}
	return store.OpenOrDegrade(ctx, config.DB, opts...)
}

// NewEnv sets up logging, telemetry, settings, store and the results service
//
//nolint:funlen // by design
func NewEnv(ctx context.Context, opts ...EnvOption) (*Env, error) {
	cfg := &envConfig{withStore: true, degrade: true, statsSource: service.SourceScan}
	for _, opt := range opts {
		opt(cfg)
	}
	sqlLogger := SetupLogging()
	env := &Env{}
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if env.telemetry, err = config.SetupTelemetry(ctx); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}
	var err error
	if env.Settings, err = LoadSettings(); err != nil {
		env.Close()
		return nil, err
	}
	svcOpts := []service.Option{
		service.WithScanner(scan.NewScanner(
			scan.WithWorkers(config.Workers),
			scan.WithExtension(config.FileExtension))),
		service.WithStatsSource(cfg.statsSource),
		service.WithStatsCache(stats.NewCache()),
	}
	if cfg.withStore {
		if env.Store, err = OpenStore(ctx, sqlLogger, !cfg.degrade); err != nil {
			env.Close()
			return nil, err
		}
		svcOpts = append(svcOpts, service.WithStore(env.Store))
	}
	notifiers := cfg.notifiers
	if config.NatsURL != "" {
		if env.nats, err = notify.ConnectNats(config.NatsURL); err != nil {
			log.Warn("Could not connect to nats, events are not published",
				log.String("url", config.NatsURL), log.ErrorField(err))
		} else {
			notifiers = append(notifiers, env.nats)
		}
	}
	if len(notifiers) > 0 {
		svcOpts = append(svcOpts, service.WithNotifier(notify.Multi(notifiers)))
	}
	env.Service = service.New(env.Settings, svcOpts...)
	return env, nil
}

func (e *Env) Close() {
	if e.nats != nil {
		e.nats.Close()
	}
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			log.Warn("closing store", log.ErrorField(err))
		}
	}
	if e.telemetry != nil {
		e.telemetry.Shutdown()
	}
	//nolint:errcheck // stderr sync fails on some platforms
	log.Sync()
}

// Unwrap converts a service result into the value/error convention
func Unwrap[T any](r service.Result[T]) (T, error) {
	if !r.OK {
		var zero T
		if r.Error == "" {
			return zero, errors.New("operation failed")
		}
		return zero, errors.New(r.Error)
	}
	return r.Data, nil
}
