package handler

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/ukair/dataselector/internal/api/models"
	"github.com/ukair/dataselector/internal/api/response"
	"github.com/ukair/dataselector/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	providers *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, providers *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		providers: providers,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. Reports
// DEGRADED with a 503 when any upstream circuit breaker is open, so a
// load balancer can drain the instance until UK-AIR recovers.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.providers != nil {
		for _, p := range h.providers.GetAllHealth() {
			providerStatus := models.HealthStatusOK
			switch p.CircuitState {
			case gobreaker.StateOpen:
				providerStatus = models.HealthStatusFail
				status.Status = models.HealthStatusDegraded
			case gobreaker.StateHalfOpen:
				providerStatus = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, models.ProviderStatus{
				Provider: p.Name,
				Status:   providerStatus,
			})
		}
	}

	code := http.StatusOK
	if status.Status == models.HealthStatusDegraded {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, status)
}
