package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"report-dispatch/models"
)

// ListBuildings handles GET /buildings
func (h *Handlers) ListBuildings(c *gin.Context) {
	buildings := h.backend.Buildings()
	c.JSON(http.StatusOK, gin.H{
		"buildings": buildings,
		"count":     len(buildings),
	})
}

// AddBuilding handles POST /buildings
func (h *Handlers) AddBuilding(c *gin.Context) {
	var req models.AddBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b := h.backend.AddBuilding(c.Request.Context(), models.Building{Name: req.Name, Address: req.Address})
	c.JSON(http.StatusCreated, b)
}

// GetBuilding handles GET /buildings/:id
func (h *Handlers) GetBuilding(c *gin.Context) {
	b, err := h.backend.Building(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	fines, err := h.backend.OutstandingFines(b.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"building":          b,
		"outstanding_fines": fines,
	})
}

// AddWarning handles POST /buildings/:id/warnings
func (h *Handlers) AddWarning(c *gin.Context) {
	var req models.AddWarningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.backend.AddWarning(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// AddPenalty handles POST /buildings/:id/penalties
func (h *Handlers) AddPenalty(c *gin.Context) {
	var req models.AddPenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.backend.AddPenalty(c.Request.Context(), c.Param("id"), req.Type, req.Details, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}
