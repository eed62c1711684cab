package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"report-dispatch/models"
	"report-dispatch/rewards"
)

type submitReportResponse struct {
	Report models.Report `json:"report"`
	Award  rewards.Award `json:"award"`
}

// SubmitReport handles POST /reports
func (h *Handlers) SubmitReport(c *gin.Context) {
	var req models.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, award, err := h.backend.SubmitReport(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submitReportResponse{Report: r, Award: award})
}

// ListReports handles GET /reports, optionally filtered by ?status=
func (h *Handlers) ListReports(c *gin.Context) {
	reports := h.backend.Reports()
	if status := models.ReportStatus(c.Query("status")); status != "" {
		filtered := make([]models.Report, 0, len(reports))
		for _, r := range reports {
			if r.Status == status {
				filtered = append(filtered, r)
			}
		}
		reports = filtered
	}
	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"count":   len(reports),
	})
}

// GetReport handles GET /reports/:id
func (h *Handlers) GetReport(c *gin.Context) {
	r, err := h.backend.Report(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// GetStats handles GET /reports/stats
func (h *Handlers) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.backend.Stats())
}

// UpdateStatus handles PUT /reports/:id/status
func (h *Handlers) UpdateStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.backend.SetReportStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// UpdatePenalty handles PUT /reports/:id/penalty
func (h *Handlers) UpdatePenalty(c *gin.Context) {
	var req models.UpdatePenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.backend.SetPenaltyStatus(c.Request.Context(), c.Param("id"), req.PenaltyStatus)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// AssignBuilding handles PUT /reports/:id/building
func (h *Handlers) AssignBuilding(c *gin.Context) {
	var req models.AssignBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, b, err := h.backend.AssignBuilding(c.Request.Context(), c.Param("id"), req.BuildingID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report":   r,
		"building": b,
	})
}
