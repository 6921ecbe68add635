// Package internal provides the App struct that wires all components of
// docup together and initializes the CLI layer.
package internal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/valter-silva-au/docup/internal/cli"
	"github.com/valter-silva-au/docup/internal/core"
	"github.com/valter-silva-au/docup/internal/integration"
	"github.com/valter-silva-au/docup/internal/observability"
	"github.com/valter-silva-au/docup/internal/storage"
	"github.com/valter-silva-au/docup/pkg/models"
)

// App holds all service dependencies for docup.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.Config

	// Logging
	Logger    *logrus.Logger
	logCloser io.Closer

	// Storage layer
	Pages storage.PageStore

	// Integration services
	Catalog    integration.ToolCatalog
	Executor   integration.CLIExecutor
	Dispatcher core.Dispatcher

	// Core services
	Builder      *core.PromptBuilder
	Orchestrator *core.Orchestrator

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all services. Configuration is loaded but not
// validated here: commands that dispatch validate it, so page management
// works without credentials.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	app.Config = cfg

	// --- Logging ---
	app.Logger, app.logCloser, err = observability.NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	// --- Storage layer ---
	app.Pages = storage.NewPageStore(filepath.Join(basePath, core.DataDirName, "pages.yaml"))
	if err := app.Pages.Load(); err != nil {
		return nil, fmt.Errorf("loading page registry: %w", err)
	}
	app.Pages.Seed(cfg.Pages)

	// --- Observability ---
	app.EventLog, err = observability.NewJSONLEventLog(cfg.EventsPath)
	if err != nil {
		// Non-fatal: run without history when no event log path is set.
		app.Logger.WithError(err).Warn("event log disabled")
		app.EventLog = nil
	}
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}

	// --- Integration services ---
	app.Catalog = integration.NewMCPToolCatalog(cli.AppVersion())
	app.Executor = integration.NewCLIExecutor()
	switch cfg.Backend {
	case models.BackendClaudeCLI:
		app.Dispatcher = integration.NewClaudeCLIDispatcher(cfg, app.Executor)
	default:
		var catalog integration.ToolCatalog
		if cfg.DiscoverTools {
			catalog = app.Catalog
		}
		app.Dispatcher = integration.NewAnthropicDispatcher(cfg, catalog)
	}

	// --- Core services ---
	app.Builder = core.NewPromptBuilder(cfg)
	var events core.EventLogger
	if app.EventLog != nil {
		events = app.EventLog
	}
	app.Orchestrator = core.NewOrchestrator(
		app.Builder,
		app.Pages,
		app.Dispatcher,
		events,
		app.Logger.WithFields(logrus.Fields{"backend": cfg.Backend, "model": cfg.Model}),
	)

	// --- Wire CLI package-level variables ---
	cli.Orchestrator = app.Orchestrator
	cli.Pages = app.Pages
	cli.Config = app.Config
	cli.ConfigMgr = app.ConfigMgr
	cli.Catalog = app.Catalog
	cli.Executor = app.Executor
	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

// Close releases resources held by the App.
func (a *App) Close() error {
	var errs []error
	if a.EventLog != nil {
		errs = append(errs, a.EventLog.Close())
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}
	return errors.Join(errs...)
}

// ResolveBasePath determines the docup base directory.
// It checks for DOCUP_HOME env var, then walks up from the current directory
// looking for .docup.yaml, and falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("DOCUP_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName+".yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}
