package models

import (
	"time"

	"report-dispatch/geo"

	"github.com/shopspring/decimal"
)

// CreateReportRequest is the body of POST /api/v3/reports
type CreateReportRequest struct {
	ReporterID  string          `json:"reporter_id"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Location    *geo.Point      `json:"location"`
	Analysis    *ReportAnalysis `json:"analysis"`
}

// UpdateStatusRequest is the body of PUT /api/v3/reports/:id/status
type UpdateStatusRequest struct {
	Status ReportStatus `json:"status" binding:"required"`
}

// UpdatePenaltyRequest is the body of PUT /api/v3/reports/:id/penalty
type UpdatePenaltyRequest struct {
	PenaltyStatus PenaltyStatus `json:"penalty_status" binding:"required"`
}

// AssignBuildingRequest is the body of PUT /api/v3/reports/:id/building
type AssignBuildingRequest struct {
	BuildingID string `json:"building_id" binding:"required"`
}

// DispatchRequest is the body of POST /api/v3/dispatch
type DispatchRequest struct {
	VehicleID string `json:"vehicle_id" binding:"required"`
	ReportID  string `json:"report_id" binding:"required"`
}

// DispatchNearestRequest is the body of POST /api/v3/dispatch/nearest
type DispatchNearestRequest struct {
	ReportID string `json:"report_id" binding:"required"`
}

// DispatchResponse describes the entities touched by a dispatch
type DispatchResponse struct {
	Vehicle           Vehicle `json:"vehicle"`
	Report            Report  `json:"report"`
	PreemptedReportID string  `json:"preempted_report_id,omitempty"`
	OrphanedReportID  string  `json:"orphaned_report_id,omitempty"`
}

// AddBuildingRequest is the body of POST /api/v3/buildings
type AddBuildingRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

// AddWarningRequest is the body of POST /api/v3/buildings/:id/warnings
type AddWarningRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// AddPenaltyRequest is the body of POST /api/v3/buildings/:id/penalties.
// Amount defaults per penalty type when omitted.
type AddPenaltyRequest struct {
	Type    PenaltyType      `json:"type" binding:"required"`
	Details string           `json:"details"`
	Amount  *decimal.Decimal `json:"amount"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	Timestamp        string `json:"timestamp"`
	ConnectedClients int    `json:"connected_clients"`
	Tick             int64  `json:"tick"`
}

// BroadcastMessage represents a message sent to WebSocket clients
type BroadcastMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// ReportStatusEvent is published whenever a report changes status
type ReportStatusEvent struct {
	ReportID   string       `json:"report_id"`
	ReporterID string       `json:"reporter_id"`
	From       ReportStatus `json:"from"`
	To         ReportStatus `json:"to"`
	VehicleID  string       `json:"vehicle_id,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// VehicleEvent is published on dispatch, arrival and stall
type VehicleEvent struct {
	VehicleID string        `json:"vehicle_id"`
	ReportID  string        `json:"report_id"`
	Status    VehicleStatus `json:"status"`
	Location  geo.Point     `json:"location"`
	Timestamp time.Time     `json:"timestamp"`
}
