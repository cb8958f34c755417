package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/cmd/cmdutil"
	"github.com/mpapenbr/simresults-indexer/pkg/config"
	"github.com/mpapenbr/simresults-indexer/pkg/endpoints/admin"
	"github.com/mpapenbr/simresults-indexer/pkg/endpoints/events"
	"github.com/mpapenbr/simresults-indexer/pkg/endpoints/public"
	"github.com/mpapenbr/simresults-indexer/pkg/notify"
	"github.com/mpapenbr/simresults-indexer/pkg/service"
	"github.com/mpapenbr/simresults-indexer/pkg/watch"
)

var statsSource string

func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "starts the http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"addr",
		"a",
		"localhost:8090",
		"http server listen address")
	cmd.Flags().StringVar(&config.RescanSchedule,
		"rescan-schedule",
		"",
		"cron expression for periodic rescans, e.g. \"*/15 * * * *\" (empty: disabled)")
	cmd.Flags().BoolVar(&config.WatchFolder,
		"watch",
		false,
		"rescan when files in the results folder change")
	cmd.Flags().StringVar(&statsSource,
		"stats-source",
		string(service.SourceStore),
		"compute statistics from the last scan (scan) or from the store (store)")
	cmd.Flags().StringVar(&config.AdminToken,
		"admin-token",
		"",
		"admin token value")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	return cmd
}

//nolint:funlen,cyclop // by design
func startServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	local := notify.NewLocal()
	defer local.Close()
	env, err := cmdutil.NewEnv(ctx,
		cmdutil.WithStatsSource(service.StatsSource(statsSource)),
		cmdutil.WithExtraNotifier(local))
	if err != nil {
		log.Error("server could not be started", log.ErrorField(err))
		return err
	}
	defer env.Close()
	svc := env.Service

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	refresh := func(ctx context.Context) {
		if res := svc.Refresh(ctx); !res.OK {
			log.Warn("refresh failed", log.String("error", res.Error))
		}
	}
	go refresh(ctx)

	var scheduler *cron.Cron
	if config.RescanSchedule != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(config.RescanSchedule, func() { refresh(ctx) }); err != nil {
			return fmt.Errorf("invalid rescan schedule %q: %w", config.RescanSchedule, err)
		}
		scheduler.Start()
		log.Info("Periodic rescan enabled", log.String("schedule", config.RescanSchedule))
	}
	if config.WatchFolder {
		if folder := svc.Settings().ResultsFolder; folder != "" {
			w := watch.New(folder, refresh, watch.WithExtension(config.FileExtension))
			go func() {
				if err := w.Run(ctx); err != nil {
					log.Error("folder watcher stopped", log.ErrorField(err))
				}
			}()
		} else {
			log.Warn("no results folder configured, watching disabled")
		}
	}

	settingsFile := config.SettingsFile
	if settingsFile == "" {
		settingsFile = config.DefaultSettingsFile()
	}
	mux := http.NewServeMux()
	public.Register(mux, svc)
	admin.Register(mux, svc, settingsFile, config.AdminToken)
	events.Register(mux, local)

	registry := prometheus.NewRegistry()
	registry.MustRegister(newInfoCollector(svc))
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	//nolint:gosec // by design
	server := &http.Server{
		Addr:    config.ServerAddr,
		Handler: h2c.NewHandler(newCORS().Handler(mux), &http2.Server{}),
	}
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting http server", log.String("addr", config.ServerAddr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	setupGoRoutinesDump()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case v := <-sigChan:
		log.Debug("Got signal ", log.Any("signal", v))
	case err := <-errChan:
		log.Error("server could not be started", log.ErrorField(err))
		return err
	}
	cancel()
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", log.ErrorField(err))
	}
	log.Info("Server terminated")
	return nil
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			"Accept",
			"Accept-Encoding",
			"Content-Encoding",
		},
		MaxAge: int(2 * time.Hour / time.Second),
	})
}
