package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"report-dispatch/geo"
	"report-dispatch/mapview"
	"report-dispatch/middleware"
	"report-dispatch/models"
	"report-dispatch/rewards"
	"report-dispatch/simulation"
)

const maxLeaderboard = 100

// Backend is what the HTTP layer needs from the dispatch service
type Backend interface {
	SubmitReport(ctx context.Context, req models.CreateReportRequest) (models.Report, rewards.Award, error)
	Report(id string) (models.Report, error)
	Reports() []models.Report
	Stats() models.ReportStats
	SetReportStatus(ctx context.Context, id string, status models.ReportStatus) (models.Report, error)
	SetPenaltyStatus(ctx context.Context, id string, status models.PenaltyStatus) (models.Report, error)
	AssignBuilding(ctx context.Context, reportID, buildingID string) (models.Report, models.Building, error)

	Vehicles() []models.Vehicle
	Dispatch(ctx context.Context, vehicleID, reportID string) (simulation.DispatchResult, error)
	DispatchNearest(ctx context.Context, reportID string) (simulation.DispatchResult, error)

	Buildings() []models.Building
	Building(id string) (models.Building, error)
	AddBuilding(ctx context.Context, b models.Building) models.Building
	AddWarning(ctx context.Context, buildingID, reason string) (models.Building, error)
	AddPenalty(ctx context.Context, buildingID string, typ models.PenaltyType, details string, amount *decimal.Decimal) (models.Building, error)
	OutstandingFines(buildingID string) (decimal.Decimal, error)

	LiveMap(bounds *geo.Bounds) mapview.LiveMap
	Clusters(vp mapview.ViewPort) []mapview.Cluster
	ServeLiveMap(w http.ResponseWriter, r *http.Request) error

	Account(userID string) (rewards.Account, bool)
	Leaderboard(n int) []rewards.Account

	Ticks() int64
	ConnectedClients() int
}

// Handlers contains all HTTP handlers
type Handlers struct {
	backend         Backend
	reportRateLimit int
}

// NewHandlers creates a new handlers instance. reportRateLimit is the number
// of submissions allowed per client IP per minute.
func NewHandlers(backend Backend, reportRateLimit int) *Handlers {
	return &Handlers{
		backend:         backend,
		reportRateLimit: reportRateLimit,
	}
}

// RegisterRoutes mounts the API on a router group
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/reports", middleware.RateLimitMiddleware(h.reportRateLimit), h.SubmitReport)
	api.GET("/reports", h.ListReports)
	api.GET("/reports/stats", h.GetStats)
	api.GET("/reports/:id", h.GetReport)
	api.PUT("/reports/:id/status", h.UpdateStatus)
	api.PUT("/reports/:id/penalty", h.UpdatePenalty)
	api.PUT("/reports/:id/building", h.AssignBuilding)

	api.GET("/vehicles", h.ListVehicles)
	api.POST("/dispatch", h.Dispatch)
	api.POST("/dispatch/nearest", h.DispatchNearest)

	api.GET("/buildings", h.ListBuildings)
	api.POST("/buildings", h.AddBuilding)
	api.GET("/buildings/:id", h.GetBuilding)
	api.POST("/buildings/:id/warnings", h.AddWarning)
	api.POST("/buildings/:id/penalties", h.AddPenalty)

	api.GET("/map", h.GetLiveMap)
	api.GET("/map/clusters", h.GetClusters)
	api.GET("/map/listen", h.ListenMap)

	api.GET("/rewards/:user_id", h.GetAccount)
	api.GET("/leaderboard", h.GetLeaderboard)
}

// HealthCheck reports liveness with hub and tick counters
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:           "healthy",
		Service:          "report-dispatch",
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ConnectedClients: h.backend.ConnectedClients(),
		Tick:             h.backend.Ticks(),
	})
}

// writeError maps domain errors to HTTP status codes
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, simulation.ErrReportNotFound),
		errors.Is(err, simulation.ErrVehicleNotFound),
		errors.Is(err, simulation.ErrBuildingNotFound):
		status = http.StatusNotFound
	case errors.Is(err, simulation.ErrReportHasNoLocation),
		errors.Is(err, simulation.ErrInvalidLocation),
		errors.Is(err, simulation.ErrReportResolved),
		errors.Is(err, simulation.ErrInvalidStatus),
		errors.Is(err, simulation.ErrInvalidPenaltyType):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, simulation.ErrVehicleBusy),
		errors.Is(err, simulation.ErrReportAssigned),
		errors.Is(err, simulation.ErrNoIdleVehicle):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, models.ErrorResponse{Error: err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
}

func parseLimit(c *gin.Context, def, max int) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
