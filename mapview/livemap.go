// Package mapview projects reports and vehicles into display space for the
// live dispatch map.
package mapview

import (
	"math"

	"report-dispatch/geo"
	"report-dispatch/models"
)

// ReportMarker is a report pin on the live map.
type ReportMarker struct {
	ReportID string              `json:"report_id"`
	Status   models.ReportStatus `json:"status"`
	Location geo.Point           `json:"location"`
	Position geo.MapPosition     `json:"position"`
}

// VehicleMarker is a truck icon on the live map.
type VehicleMarker struct {
	VehicleID        string               `json:"vehicle_id"`
	Status           models.VehicleStatus `json:"status"`
	AssignedReportID string               `json:"assigned_report_id,omitempty"`
	Location         geo.Point            `json:"location"`
	Position         geo.MapPosition      `json:"position"`
}

// DispatchLine connects an En Route vehicle to its report.
// Length and Angle are in display space; Angle is in degrees measured from
// the positive Left axis toward positive Top.
type DispatchLine struct {
	VehicleID      string          `json:"vehicle_id"`
	ReportID       string          `json:"report_id"`
	Start          geo.MapPosition `json:"start"`
	End            geo.MapPosition `json:"end"`
	Length         float64         `json:"length"`
	Angle          float64         `json:"angle"`
	Bearing        float64         `json:"bearing"`
	DistanceMeters float64         `json:"distance_meters"`
}

// LiveMap is one rendered frame of the dispatch map.
type LiveMap struct {
	Bounds   geo.Bounds      `json:"bounds"`
	Tick     int64           `json:"tick"`
	Reports  []ReportMarker  `json:"reports"`
	Vehicles []VehicleMarker `json:"vehicles"`
	Lines    []DispatchLine  `json:"lines"`
}

// Build renders reports and vehicles inside bounds. Only located reports
// that are Pending or In Progress are drawn, and a line is drawn only for
// En Route vehicles whose report is drawn.
func Build(reports []models.Report, vehicles []models.Vehicle, bounds geo.Bounds) LiveMap {
	m := LiveMap{
		Bounds:   bounds,
		Reports:  []ReportMarker{},
		Vehicles: []VehicleMarker{},
		Lines:    []DispatchLine{},
	}

	drawn := make(map[string]ReportMarker)
	for _, r := range reports {
		if !r.HasLocation() || r.Status == models.ReportResolved || !bounds.Contains(*r.Location) {
			continue
		}
		marker := ReportMarker{
			ReportID: r.ID,
			Status:   r.Status,
			Location: *r.Location,
			Position: geo.Project(*r.Location, bounds),
		}
		drawn[r.ID] = marker
		m.Reports = append(m.Reports, marker)
	}

	for _, v := range vehicles {
		if !bounds.Contains(v.CurrentLocation) {
			continue
		}
		vm := VehicleMarker{
			VehicleID:        v.ID,
			Status:           v.Status,
			AssignedReportID: v.AssignedReportID,
			Location:         v.CurrentLocation,
			Position:         geo.Project(v.CurrentLocation, bounds),
		}
		m.Vehicles = append(m.Vehicles, vm)

		if v.Status != models.VehicleEnRoute || v.AssignedReportID == "" {
			continue
		}
		rm, ok := drawn[v.AssignedReportID]
		if !ok {
			continue
		}
		m.Lines = append(m.Lines, line(vm, rm))
	}
	return m
}

func line(v VehicleMarker, r ReportMarker) DispatchLine {
	dx := r.Position.Left - v.Position.Left
	dy := r.Position.Top - v.Position.Top
	return DispatchLine{
		VehicleID:      v.VehicleID,
		ReportID:       r.ReportID,
		Start:          v.Position,
		End:            r.Position,
		Length:         math.Hypot(dx, dy),
		Angle:          math.Atan2(dy, dx) * 180 / math.Pi,
		Bearing:        geo.Bearing(v.Location, r.Location),
		DistanceMeters: geo.HaversineMeters(v.Location, r.Location),
	}
}
