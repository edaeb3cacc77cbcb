package daemon

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vigor-app/vigor/internal/api"
	"github.com/vigor-app/vigor/internal/app/goals"
	"github.com/vigor-app/vigor/internal/app/notify"
	"github.com/vigor-app/vigor/internal/app/progression"
	"github.com/vigor-app/vigor/internal/app/tracker"
	"github.com/vigor-app/vigor/internal/health"
	_ "github.com/vigor-app/vigor/internal/infra/metrics" // Register Prometheus metrics
	"github.com/vigor-app/vigor/internal/infra/sqlite"
)

// Daemon is the core Vigor runtime. It wires together all services.
type Daemon struct {
	Config      Config
	DB          *sqlite.DB
	Coordinator *progression.Coordinator
	Tracker     *tracker.Service
	Goals       *goals.Service
	Notify      *notify.Service
	Health      *health.Checker
	Server      *api.Server
	cancel      context.CancelFunc
	logFile     *os.File
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	dataDir := cfg.Storage.Dir
	if dataDir == "" {
		dataDir = vigorHome()
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sqlite.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	coord := progression.New(db, cfg.Progression.Tuning())

	trk := tracker.NewService(db, coord)
	srv := api.NewServer(db, coord, trk)
	srv.SetCORSOrigins(cfg.API.CORSOrigins)

	d := &Daemon{
		Config:      cfg,
		DB:          db,
		Coordinator: coord,
		Tracker:     trk,
		Server:      srv,
	}
	d.logFile = setupLogging(cfg.Logging)

	if cfg.Goals.Enabled {
		d.Goals = goals.NewService(db, coord).WithPerWeek(cfg.Goals.GoalsPerWeek)
		trk.WithGoals(d.Goals)
		srv.SetGoals(d.Goals)
	}

	if cfg.Notifications.Enabled {
		d.Notify = notify.NewServiceWithPolicy(db, cfg.Notifications.Policy())
		trk.WithNotifications(d.Notify)
		srv.SetNotify(d.Notify)
	}

	d.Health = health.NewChecker(db, dataDir)
	srv.SetHealth(d.Health)

	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return d, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	fmt.Printf("Vigor serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.logFile != nil {
		_ = d.logFile.Close()
	}
}

// setupLogging mirrors daemon logs to the configured file and applies the
// log level. Returns the file handle for Close, nil if file logging is
// off or the file cannot be opened.
func setupLogging(cfg LoggingConfig) *os.File {
	if cfg.Level == "debug" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	if cfg.File == "" {
		return nil
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		log.Printf("[daemon] log file %s: %v (stderr only)", cfg.File, err)
		return nil
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return f
}
