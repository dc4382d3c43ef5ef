package report

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger reports database reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves computed report tables as JSON for the charting front end.
// Read-only; report generation happens on demand per request.
type Handler struct {
	svc    *Service
	pinger Pinger
}

func NewHandler(svc *Service, pinger Pinger) *Handler {
	return &Handler{svc: svc, pinger: pinger}
}

// RegisterRoutes registers the report API routes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/datasets", h.ListDatasets)
	e.GET("/report", h.GenerateReport)
	e.GET("/healthz", h.Health)
}

// ListDatasets returns the registered dataset definitions.
func (h *Handler) ListDatasets(c echo.Context) error {
	return c.JSON(http.StatusOK, Datasets)
}

// GenerateReport runs a full report and returns it.
func (h *Handler) GenerateReport(c echo.Context) error {
	rep, err := h.svc.Generate(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rep)
}

// Health pings the database.
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
