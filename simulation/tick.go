package simulation

import (
	"report-dispatch/geo"
	"report-dispatch/models"

	"github.com/apex/log"
)

// Assignment links a vehicle to the report it serves.
type Assignment struct {
	VehicleID string
	ReportID  string
}

// TickResult lists what one tick changed.
type TickResult struct {
	Tick int64
	// Moved are vehicles that travelled toward their destination.
	Moved []string
	// Arrived are vehicles that switched to Collecting.
	Arrived []Assignment
	// Completed are vehicles that finished collecting and went Idle.
	Completed []Assignment
	// Stalled are vehicles released after MaxEnRouteTicks.
	Stalled []Assignment
	// Changes are the report status changes caused by the tick.
	Changes []StatusChange
}

// Changed reports whether the tick mutated any entity.
func (r TickResult) Changed() bool {
	return len(r.Moved) > 0 || len(r.Arrived) > 0 || len(r.Completed) > 0 || len(r.Stalled) > 0
}

// VehicleIDs returns every vehicle the tick touched, without duplicates.
func (r TickResult) VehicleIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range r.Moved {
		add(id)
	}
	for _, groups := range [][]Assignment{r.Arrived, r.Completed, r.Stalled} {
		for _, a := range groups {
			add(a.VehicleID)
		}
	}
	return ids
}

// Tick advances every vehicle by one step, in vehicle id order.
//
//	En Route:   arrive (Collecting) when closer than ArrivalEpsilon,
//	            else cover ApproachFraction of the remaining vector.
//	Collecting: go Idle and resolve the assigned report.
//	Idle:       nothing.
func (s *Simulation) Tick() TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticks++
	res := TickResult{Tick: s.ticks}

	for _, id := range s.vehicleIDs() {
		v := s.state.Vehicles[id]
		switch v.Status {
		case models.VehicleEnRoute:
			s.stepEnRoute(v, &res)
		case models.VehicleCollecting:
			s.finishCollecting(v, &res)
		}
	}
	return res
}

func (s *Simulation) stepEnRoute(v *models.Vehicle, res *TickResult) {
	if v.Destination == nil {
		log.WithField("vehicle", v.ID).Warn("en route without destination, releasing")
		s.release(v, res)
		return
	}

	if geo.Distance(v.CurrentLocation, *v.Destination) < s.cfg.ArrivalEpsilon {
		v.Status = models.VehicleCollecting
		v.Destination = nil
		v.EnRouteTicks = 0
		res.Arrived = append(res.Arrived, Assignment{VehicleID: v.ID, ReportID: v.AssignedReportID})
		return
	}

	if s.cfg.MaxEnRouteTicks > 0 && v.EnRouteTicks >= s.cfg.MaxEnRouteTicks {
		log.WithFields(log.Fields{
			"vehicle": v.ID,
			"report":  v.AssignedReportID,
			"ticks":   v.EnRouteTicks,
		}).Warn("vehicle did not arrive in time, releasing")
		s.release(v, res)
		return
	}

	v.CurrentLocation = geo.Approach(v.CurrentLocation, *v.Destination, s.cfg.ApproachFraction)
	v.EnRouteTicks++
	res.Moved = append(res.Moved, v.ID)
}

func (s *Simulation) finishCollecting(v *models.Vehicle, res *TickResult) {
	a := Assignment{VehicleID: v.ID, ReportID: v.AssignedReportID}
	v.Status = models.VehicleIdle
	v.AssignedReportID = ""
	v.Destination = nil
	v.EnRouteTicks = 0

	if a.ReportID != "" {
		if ch, err := s.setStatusLocked(a.ReportID, models.ReportResolved); err == nil {
			ch.VehicleID = v.ID
			res.Changes = append(res.Changes, ch)
		} else {
			log.WithFields(log.Fields{
				"vehicle": v.ID,
				"report":  a.ReportID,
			}).Warnf("collected report is gone: %v", err)
		}
	}
	res.Completed = append(res.Completed, a)
}

// release returns a vehicle to Idle without collecting and puts its report
// back to Pending.
func (s *Simulation) release(v *models.Vehicle, res *TickResult) {
	a := Assignment{VehicleID: v.ID, ReportID: v.AssignedReportID}
	v.Status = models.VehicleIdle
	v.AssignedReportID = ""
	v.Destination = nil
	v.EnRouteTicks = 0

	if r, ok := s.state.Reports[a.ReportID]; ok && r.Status == models.ReportInProgress {
		ch, _ := s.setStatusLocked(a.ReportID, models.ReportPending)
		ch.VehicleID = v.ID
		res.Changes = append(res.Changes, ch)
	}
	res.Stalled = append(res.Stalled, a)
}
