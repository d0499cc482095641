package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/peerhub-go/internal/core/service"
	"github.com/yndnr/peerhub-go/internal/infra/buildinfo"
	"github.com/yndnr/peerhub-go/internal/infra/confloader"
	"github.com/yndnr/peerhub-go/internal/infra/shutdown"
	"github.com/yndnr/peerhub-go/internal/server/config"
	"github.com/yndnr/peerhub-go/internal/server/httpserver"
	"github.com/yndnr/peerhub-go/internal/server/httpserver/handler"
	"github.com/yndnr/peerhub-go/internal/storage"
	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
	"github.com/yndnr/peerhub-go/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "peerhub-server",
		Usage:   "peer directory and message relay tracker",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file",
				EnvVars: []string{"PEERHUB_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "HTTP listen address (overrides server.http.addr)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (overrides log.level)",
			},
		},
		Action: run,
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "show version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "peerhub-server %s\n", buildinfo.String())
					return nil
				},
			},
		},
	}
}

func run(c *cli.Context) error {
	// Load configuration
	loader, cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize logger
	log, err := logger.New(cfg.Logger())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	safe := config.Sanitize(cfg)
	log.Info("starting peerhub-server",
		"version", info.Version,
		"commit", info.Commit,
		"config_sources", loader.Sources(),
		"credentials_backend", safe.Credentials.Backend,
		"seed_users", len(safe.Credentials.SeedUsers))

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	shut := shutdown.NewHandler(shutdownTimeout, log)

	// Metrics
	reg := metric.NewRegistry()

	// Credentials
	store, err := storage.Open(cfg.Storage(), log, reg)
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	shut.OnShutdown("credential store", func(context.Context) error {
		return store.Close()
	})
	creds := service.NewCredentialService(store, log)
	if n, err := creds.Seed(ctx, cfg.Credentials.SeedUsers); err != nil {
		shut.Shutdown()
		return fmt.Errorf("seed users: %w", err)
	} else if n > 0 {
		log.Info("seeded users", "count", n)
	}

	// Sessions and directory
	sessions := service.NewSessionStore(cfg.Session.TTL,
		service.WithSessionLogger(log),
		service.WithSessionMetrics(reg))
	dir := service.NewDirectory(
		service.WithPeerTTL(cfg.Peer.TTL),
		service.WithDirectoryLogger(log),
		service.WithDirectoryMetrics(reg))
	relay := service.NewRelay(dir, cfg.Relay(),
		service.WithRelayLogger(log),
		service.WithRelayMetrics(reg))
	reg.MustRegister(metric.NewCollector(service.Stats{Sessions: sessions, Directory: dir}))

	go sessions.Run(ctx, cfg.Session.GCInterval)
	go dir.Run(ctx, cfg.Peer.GCInterval)
	shut.OnShutdown("janitors", func(context.Context) error {
		cancel()
		return nil
	})

	// HTTP
	h := handler.New(handler.Services{
		Sessions:    sessions,
		Directory:   dir,
		Relay:       relay,
		Credentials: creds,
	}, cfg.Handler(), reg, log)
	router, err := httpserver.NewRouter(h.Routes()...)
	if err != nil {
		shut.Shutdown()
		return fmt.Errorf("build router: %w", err)
	}
	srv := httpserver.New(cfg.HTTPServer(), router,
		httpserver.WithLogger(log),
		httpserver.WithMetrics(reg),
		httpserver.WithSessions(sessions))
	if err := srv.Start(ctx); err != nil {
		shut.Shutdown()
		return fmt.Errorf("start http server: %w", err)
	}
	shut.OnShutdown("http server", srv.Shutdown)

	// Config reload
	if path := loader.FilePath(); path != "" {
		w, err := watchConfig(c, path, log)
		if err != nil {
			log.Warn("config watch disabled", "path", path, "error", err)
		} else {
			shut.OnShutdown("config watcher", func(context.Context) error { return w.Stop() })
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shut.Wait(c.Context); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// loadConfig layers defaults, the config file, PEERHUB_ environment
// variables and command line overrides.
func loadConfig(c *cli.Context) (*confloader.Loader, *config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	opts = append(opts, confloader.WithOverrides(overrides(c)))

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return loader, cfg, nil
}

func overrides(c *cli.Context) map[string]any {
	m := map[string]any{}
	if c.IsSet("addr") {
		m["server.http.addr"] = c.String("addr")
	}
	if c.IsSet("log-level") {
		m["log.level"] = c.String("log-level")
	}
	return m
}

// watchConfig re-reads the config file on change and applies the log
// level. Other settings need a restart.
func watchConfig(c *cli.Context, path string, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil, err
	}
	w.OnChange(func(string) {
		_, cfg, err := loadConfig(c)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	return w, nil
}
