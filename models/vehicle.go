package models

import (
	"report-dispatch/geo"
)

// VehicleStatus is the dispatch status of a collection vehicle
type VehicleStatus string

const (
	VehicleIdle       VehicleStatus = "Idle"
	VehicleEnRoute    VehicleStatus = "En Route"
	VehicleCollecting VehicleStatus = "Collecting"
)

// Vehicle represents a simulated collection truck.
// AssignedReportID and Destination are both set or both empty, except while
// Collecting, when Destination is cleared and AssignedReportID is kept.
type Vehicle struct {
	ID               string        `json:"id" db:"id"`
	CurrentLocation  geo.Point     `json:"current_location"`
	Status           VehicleStatus `json:"status" db:"status"`
	AssignedReportID string        `json:"assigned_report_id,omitempty" db:"assigned_report_id"`
	Destination      *geo.Point    `json:"destination,omitempty"`
	// EnRouteTicks counts ticks spent travelling on the current assignment
	EnRouteTicks int `json:"en_route_ticks" db:"en_route_ticks"`
}
