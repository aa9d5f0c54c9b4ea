// Package app wires configuration, the print service and the HTTP server
// into a go-svc program that runs in a console or as a Windows service.
package app

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/judwhite/go-svc"

	"github.com/MrSnakeDoc/printshare/internal/advertise"
	"github.com/MrSnakeDoc/printshare/internal/backend"
	"github.com/MrSnakeDoc/printshare/internal/config"
	"github.com/MrSnakeDoc/printshare/internal/httpserver"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/printshare/internal/logger"
	"github.com/MrSnakeDoc/printshare/internal/metrics"
	"github.com/MrSnakeDoc/printshare/internal/printsvc"
	"github.com/MrSnakeDoc/printshare/internal/scheduler"
	"github.com/MrSnakeDoc/printshare/internal/token"
	"github.com/MrSnakeDoc/printshare/internal/version"
)

// App implements svc.Service.
type App struct {
	args []string

	cfg     *config.Config
	logger  logger.Logger
	service *printsvc.Service
	server  *httpserver.Server
	resync  *scheduler.PrinterSync
	ln      net.Listener
	done    chan struct{}
}

// New returns an App configured from args (program name excluded) on Init.
func New(args []string) *App {
	return &App{args: args, logger: logger.Nop()}
}

// Init loads configuration, resolves the access token and builds every
// component. Nothing is bound or advertised yet.
func (a *App) Init(env svc.Environment) error {
	cfg, err := config.Load(a.args)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.logger = logger.New(cfg.LogLevel, cfg.PrettyLog)

	a.logger.Infof("printshare %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)
	a.logger.Debug("configuration loaded", logger.String("config", fmt.Sprintf("%+v", cfg.Redacted())))
	if env != nil && env.IsWindowsService() {
		a.logger.Info("running as a Windows service")
	}

	tok, src, err := token.Resolve(cfg.Token, cfg.EnvToken)
	if err != nil {
		a.logger.Error("token resolution failed", logger.Error(err))
		return err
	}
	if src == token.SourceGenerated {
		a.logger.Warn("no token configured, generated one for this run; set "+config.EnvToken+" to keep it stable",
			logger.String("token", tok))
	} else {
		a.logger.Info("access token loaded", logger.String("source", string(src)))
	}

	be, err := backend.New(backend.Options{
		CUPSAddr:  cfg.CUPSAddr,
		UserAgent: version.UserAgent(),
		Logger:    a.logger.With(logger.String("component", "backend")),
	})
	if err != nil {
		return fmt.Errorf("init print backend: %w", err)
	}
	adv := advertise.New(advertise.Options{
		HostIdentity: cfg.HostIdentity,
		ProbeTimeout: cfg.ProbeTimeout,
		Logger:       a.logger.With(logger.String("component", "advertise")),
	})
	m := metrics.New()

	a.service = printsvc.New(be, adv, printsvc.Options{
		HostIdentity: cfg.HostIdentity,
		Port:         cfg.Port,
		Logger:       a.logger.With(logger.String("component", "printsvc")),
		Recorder:     m,
	})

	if cfg.SyncInterval > 0 {
		a.resync = scheduler.NewPrinterSync(a.service, a.logger.With(logger.String("component", "scheduler")), cfg.SyncInterval)
	}

	a.server = httpserver.New(cfg.ListenAddr(), deps.Deps{
		Logger:         a.logger,
		Service:        a.service,
		Metrics:        m,
		Token:          tok,
		TrustProxy:     cfg.TrustProxy,
		AllowedHosts:   cfg.AllowedHosts,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RequestTimeout: cfg.RequestTimeout,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		StartTime:      time.Now(),
	})

	a.logger.Info("print backend selected",
		logger.String("kind", string(be.Kind())),
		logger.String("host_identity", cfg.HostIdentity))
	return nil
}

// Start binds the listener and serves in the background.
func (a *App) Start() error {
	ln, err := a.server.Listen()
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.ListenAddr(), err)
	}
	a.ln = ln
	a.done = make(chan struct{})

	go func() {
		defer close(a.done)
		if err := a.server.Serve(ln); err != nil {
			a.logger.Error("http server stopped", logger.Error(err))
		}
	}()

	if a.resync != nil {
		a.resync.Start(context.Background())
	}
	return nil
}

// Addr is the bound address once Start has returned.
func (a *App) Addr() string {
	if a.ln == nil {
		return ""
	}
	return a.ln.Addr().String()
}

// Stop drains HTTP traffic and withdraws every DNS-SD record, whether or not
// sharing was disabled through the API.
func (a *App) Stop() error {
	a.logger.Info("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var stopErr error
	if a.server != nil {
		if err := a.server.Stop(ctx); err != nil {
			stopErr = fmt.Errorf("stop http server: %w", err)
		}
	}
	if a.done != nil {
		<-a.done
	}
	if a.resync != nil && a.ln != nil {
		a.resync.Stop()
	}
	if a.service != nil {
		if err := a.service.Close(); err != nil {
			a.logger.Warn("releasing advertisements failed", logger.Error(err))
		}
	}

	a.logger.Info("printshare stopped")
	_ = a.logger.Sync()
	return stopErr
}

var _ svc.Service = (*App)(nil)
