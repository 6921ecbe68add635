package cli

import (
	"github.com/valter-silva-au/docup/internal/core"
	"github.com/valter-silva-au/docup/internal/integration"
	"github.com/valter-silva-au/docup/internal/observability"
	"github.com/valter-silva-au/docup/internal/storage"
	"github.com/valter-silva-au/docup/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	Orchestrator *core.Orchestrator
	Pages        storage.PageStore
	Config       *models.Config
	ConfigMgr    core.ConfigurationManager
	Catalog      integration.ToolCatalog
	Executor     integration.CLIExecutor
)

// Observability service instances. EventLog and MetricsCalc are nil when the
// event log could not be opened.
var (
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
)

// eventLogger returns EventLog as a core.EventLogger, keeping a disabled log
// a true nil.
func eventLogger() core.EventLogger {
	if EventLog == nil {
		return nil
	}
	return EventLog
}
