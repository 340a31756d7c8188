package handler

import (
	"github.com/vcscsvcscs/healthmate/pkg/api"
)

// APIHandler implements the ServerInterface by composing the individual handlers
type APIHandler struct {
	*HealthHandler
	*AuthHandler
	*MetricsHandler
	*MedicationHandler
	*SymptomHandler
	*ChatHandler
	*PreferenceHandler
	*ReportHandler
}

var _ api.ServerInterface = (*APIHandler)(nil)
