package models

import (
	"time"

	"report-dispatch/geo"
)

// ReportStatus is the lifecycle status of a waste report
type ReportStatus string

const (
	ReportPending    ReportStatus = "Pending"
	ReportInProgress ReportStatus = "In Progress"
	ReportResolved   ReportStatus = "Resolved"
)

// Valid reports whether s is one of the known report statuses
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportPending, ReportInProgress, ReportResolved:
		return true
	}
	return false
}

// Rank orders statuses for listing: Pending first, Resolved last
func (s ReportStatus) Rank() int {
	switch s {
	case ReportPending:
		return 1
	case ReportInProgress:
		return 2
	case ReportResolved:
		return 3
	}
	return 4
}

// PenaltyStatus tracks the enforcement state attached to a report
type PenaltyStatus string

const (
	PenaltyNone    PenaltyStatus = "None"
	PenaltyDrafted PenaltyStatus = "Drafted"
	PenaltyIssued  PenaltyStatus = "Issued"
)

// Valid reports whether s is one of the known penalty statuses
func (s PenaltyStatus) Valid() bool {
	switch s {
	case PenaltyNone, PenaltyDrafted, PenaltyIssued:
		return true
	}
	return false
}

// ReportAnalysis is the AI analysis payload attached to a report.
// It is stored and echoed, never interpreted beyond IsBulkGenerator.
type ReportAnalysis struct {
	EstimatedVolume   string `json:"estimated_volume"`
	WasteTypeCategory string `json:"waste_type_category"`
	IsBulkGenerator   bool   `json:"is_bulk_generator"`
	AnalysisSummary   string `json:"analysis_summary"`
}

// Report represents a citizen-submitted waste report
type Report struct {
	ID            string          `json:"id" db:"id"`
	ReporterID    string          `json:"reporter_id" db:"reporter_id"`
	Timestamp     time.Time       `json:"timestamp" db:"ts"`
	Image         string          `json:"image,omitempty" db:"image"`
	Description   string          `json:"description" db:"description"`
	Location      *geo.Point      `json:"location,omitempty"`
	Status        ReportStatus    `json:"status" db:"status"`
	BuildingID    string          `json:"building_id,omitempty" db:"building_id"`
	PenaltyStatus PenaltyStatus   `json:"penalty_status" db:"penalty_status"`
	Analysis      *ReportAnalysis `json:"analysis,omitempty"`
}

// HasLocation reports whether the report carries usable coordinates
func (r *Report) HasLocation() bool {
	return r.Location != nil && r.Location.IsFinite()
}

// ReportStats holds the admin dashboard counters
type ReportStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
}
