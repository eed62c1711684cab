package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"report-dispatch/models"
	"report-dispatch/simulation"
)

// ListVehicles handles GET /vehicles
func (h *Handlers) ListVehicles(c *gin.Context) {
	vehicles := h.backend.Vehicles()
	c.JSON(http.StatusOK, gin.H{
		"vehicles": vehicles,
		"count":    len(vehicles),
	})
}

// Dispatch handles POST /dispatch
func (h *Handlers) Dispatch(c *gin.Context) {
	var req models.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.backend.Dispatch(c.Request.Context(), req.VehicleID, req.ReportID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispatchResponse(res))
}

// DispatchNearest handles POST /dispatch/nearest
func (h *Handlers) DispatchNearest(c *gin.Context) {
	var req models.DispatchNearestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.backend.DispatchNearest(c.Request.Context(), req.ReportID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispatchResponse(res))
}

func dispatchResponse(res simulation.DispatchResult) models.DispatchResponse {
	return models.DispatchResponse{
		Vehicle:           res.Vehicle,
		Report:            res.Report,
		PreemptedReportID: res.PreemptedReportID,
		OrphanedReportID:  res.OrphanedReportID,
	}
}
