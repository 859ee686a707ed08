package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/emiliopalmerini/ccptracker/internal/adapters/logger"
	"github.com/emiliopalmerini/ccptracker/internal/adapters/otel"
	"github.com/emiliopalmerini/ccptracker/internal/adapters/storage"
	"github.com/emiliopalmerini/ccptracker/internal/adapters/turso"
	"github.com/emiliopalmerini/ccptracker/internal/config"
	"github.com/emiliopalmerini/ccptracker/internal/parser"
	"github.com/emiliopalmerini/ccptracker/internal/ports"
	"github.com/emiliopalmerini/ccptracker/internal/tracker"
	"github.com/emiliopalmerini/ccptracker/internal/util"
)

// AppContext holds all shared dependencies for CLI commands.
type AppContext struct {
	Config   *config.Config
	Ledger   *storage.LedgerStore
	Sessions *storage.SessionStore
	Logger   ports.Logger
	Metrics  ports.MetricsExporter
	Archive  *turso.ConversationRepository
	Tracker  *tracker.Service
}

// NewAppContext resolves configuration for projectPath and wires the
// tracker. Metrics and the archive are optional: when they fail to start a
// warning is printed and the hook carries on without them.
func NewAppContext(ctx context.Context, scopeOverride, projectPath string) (*AppContext, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	if projectPath == "" {
		projectPath, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	cfg, err := config.Resolve(env, scopeOverride, projectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configuration: %w", err)
	}

	app := &AppContext{
		Config:   cfg,
		Ledger:   storage.NewLedgerStore(cfg.LedgerPath, cfg.Scope, cfg.LockTimeout),
		Sessions: storage.NewSessionStore(cfg.SessionPath, cfg.LockTimeout),
		Logger:   logger.NewNoOpLogger(),
		Metrics:  otel.NewNoOpExporter(),
	}
	if cfg.Debug {
		app.Logger = logger.NewFileLogger(cfg.LogPath)
	}

	otelCfg := otel.Config{Endpoint: cfg.OTELEndpoint, Enabled: cfg.OTELEnabled, Insecure: cfg.OTELInsecure}
	if otelCfg.Active() {
		exp, err := otel.NewExporter(ctx, otelCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to start metrics exporter: %v\n", err)
		} else {
			app.Metrics = exp
		}
	}

	if cfg.ArchiveURL != "" {
		archive, err := turso.OpenArchive(ctx, cfg.ArchiveURL, cfg.ArchiveToken)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to open archive: %v\n", err)
		} else {
			app.Archive = archive
		}
	}

	projectsDir, err := util.GetClaudeProjectsDir()
	if err != nil {
		projectsDir = ""
	}

	app.Tracker = tracker.NewService(
		app.Ledger,
		app.Sessions,
		parser.NewExtractor(projectsDir),
		app.Metrics,
		app.Logger,
		tracker.Project{Path: cfg.ProjectPath, Name: cfg.ProjectName},
	)
	if app.Archive != nil {
		app.Tracker.WithArchive(app.Archive)
	}

	return app, nil
}

// Close flushes metrics and releases the archive connection.
func (a *AppContext) Close(ctx context.Context) error {
	var firstErr error
	if err := a.Metrics.Close(ctx); err != nil {
		firstErr = err
	}
	if a.Archive != nil {
		if err := a.Archive.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
