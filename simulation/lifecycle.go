package simulation

import (
	"strings"

	"report-dispatch/models"

	"github.com/apex/log"
)

// StatusChange records one report status transition.
type StatusChange struct {
	ReportID   string
	ReporterID string
	From       models.ReportStatus
	To         models.ReportStatus
	VehicleID  string
}

// AddReport stores a new report as Pending. Reports flagged as coming from a
// bulk generator get a drafted penalty.
func (s *Simulation) AddReport(r models.Report) (models.Report, error) {
	if r.Location != nil && !r.Location.IsFinite() {
		return models.Report{}, ErrInvalidLocation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(r.ID) == "" {
		r.ID = "report-" + s.newID()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = s.now().UTC()
	}
	r.Status = models.ReportPending
	r.PenaltyStatus = models.PenaltyNone
	if r.Analysis != nil && r.Analysis.IsBulkGenerator {
		r.PenaltyStatus = models.PenaltyDrafted
	}

	stored := copyReport(&r)
	s.state.Reports[r.ID] = &stored
	return copyReport(&stored), nil
}

// SetStatus replaces the status of a report. Any status may follow any other.
func (s *Simulation) SetStatus(reportID string, status models.ReportStatus) (StatusChange, error) {
	if !status.Valid() {
		return StatusChange{}, ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStatusLocked(reportID, status)
}

func (s *Simulation) setStatusLocked(reportID string, status models.ReportStatus) (StatusChange, error) {
	r, ok := s.state.Reports[reportID]
	if !ok {
		return StatusChange{}, ErrReportNotFound
	}
	ch := StatusChange{
		ReportID:   r.ID,
		ReporterID: r.ReporterID,
		From:       r.Status,
		To:         status,
	}
	r.Status = status
	log.WithFields(log.Fields{
		"report": r.ID,
		"from":   ch.From,
		"to":     ch.To,
	}).Debug("report status changed")
	return ch, nil
}

// SetPenaltyStatus replaces the penalty status of a report.
func (s *Simulation) SetPenaltyStatus(reportID string, status models.PenaltyStatus) (models.Report, error) {
	if !status.Valid() {
		return models.Report{}, ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.state.Reports[reportID]
	if !ok {
		return models.Report{}, ErrReportNotFound
	}
	r.PenaltyStatus = status
	return copyReport(r), nil
}

// AssignBuilding attributes a report to a known building. The building is
// moved to UnderReview if it was compliant.
func (s *Simulation) AssignBuilding(reportID, buildingID string) (models.Report, models.Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.state.Reports[reportID]
	if !ok {
		return models.Report{}, models.Building{}, ErrReportNotFound
	}
	b, ok := s.state.Buildings[buildingID]
	if !ok {
		return models.Report{}, models.Building{}, ErrBuildingNotFound
	}
	r.BuildingID = b.ID
	if b.Status == models.BuildingCompliant {
		b.Status = models.BuildingUnderReview
	}
	return copyReport(r), copyBuilding(b), nil
}
