package simulation

import (
	"math"

	"report-dispatch/geo"
	"report-dispatch/models"

	"github.com/apex/log"
)

// DispatchResult describes the entities touched by a successful dispatch.
type DispatchResult struct {
	Vehicle models.Vehicle
	Report  models.Report
	// Changes lists every report status change the dispatch caused, the
	// dispatched report first.
	Changes []StatusChange
	// PreemptedReportID is the report put back to Pending under PolicyPreempt.
	PreemptedReportID string
	// OrphanedReportID is the report left In Progress under PolicyOverwrite.
	OrphanedReportID string
}

// Dispatch sends a vehicle to a report. On error nothing is changed.
func (s *Simulation) Dispatch(vehicleID, reportID string) (DispatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(vehicleID, reportID)
}

// DispatchNearest sends the idle vehicle closest to the report. Ties go to
// the smallest vehicle id.
func (s *Simulation) DispatchNearest(reportID string) (DispatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.dispatchableReportLocked(reportID)
	if err != nil {
		return DispatchResult{}, err
	}

	best := ""
	bestDist := math.Inf(1)
	for _, id := range s.vehicleIDs() {
		v := s.state.Vehicles[id]
		if v.Status != models.VehicleIdle {
			continue
		}
		if d := geo.Distance(v.CurrentLocation, *r.Location); d < bestDist {
			best, bestDist = id, d
		}
	}
	if best == "" {
		return DispatchResult{}, ErrNoIdleVehicle
	}
	return s.dispatchLocked(best, reportID)
}

func (s *Simulation) dispatchableReportLocked(reportID string) (*models.Report, error) {
	r, ok := s.state.Reports[reportID]
	if !ok {
		return nil, ErrReportNotFound
	}
	if r.Location == nil {
		return nil, ErrReportHasNoLocation
	}
	if !r.Location.IsFinite() {
		return nil, ErrInvalidLocation
	}
	if r.Status == models.ReportResolved {
		return nil, ErrReportResolved
	}
	return r, nil
}

func (s *Simulation) dispatchLocked(vehicleID, reportID string) (DispatchResult, error) {
	v, ok := s.state.Vehicles[vehicleID]
	if !ok {
		return DispatchResult{}, ErrVehicleNotFound
	}
	r, err := s.dispatchableReportLocked(reportID)
	if err != nil {
		return DispatchResult{}, err
	}

	if s.cfg.BusyPolicy != PolicyOverwrite {
		for _, other := range s.state.Vehicles {
			if other.ID != v.ID && other.AssignedReportID == r.ID {
				return DispatchResult{}, ErrReportAssigned
			}
		}
	}

	var res DispatchResult
	prev := v.AssignedReportID
	if v.Status != models.VehicleIdle {
		switch s.cfg.BusyPolicy {
		case PolicyPreempt:
			if prev != "" && prev != r.ID {
				if pr, ok := s.state.Reports[prev]; ok && pr.Status == models.ReportInProgress {
					ch, _ := s.setStatusLocked(prev, models.ReportPending)
					res.Changes = append(res.Changes, ch)
				}
				res.PreemptedReportID = prev
				log.WithFields(log.Fields{
					"vehicle": v.ID,
					"report":  prev,
				}).Info("assignment preempted, report back to Pending")
			}
		case PolicyOverwrite:
			if prev != "" && prev != r.ID {
				res.OrphanedReportID = prev
				log.WithFields(log.Fields{
					"vehicle": v.ID,
					"report":  prev,
				}).Warn("assignment overwritten, report left In Progress")
			}
		default:
			return DispatchResult{}, ErrVehicleBusy
		}
	}

	dest := *r.Location
	v.Status = models.VehicleEnRoute
	v.AssignedReportID = r.ID
	v.Destination = &dest
	v.EnRouteTicks = 0

	ch, _ := s.setStatusLocked(r.ID, models.ReportInProgress)
	ch.VehicleID = v.ID
	res.Changes = append([]StatusChange{ch}, res.Changes...)

	res.Vehicle = copyVehicle(v)
	res.Report = copyReport(r)
	return res, nil
}
