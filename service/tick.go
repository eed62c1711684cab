package service

import (
	"context"
	"time"

	"github.com/apex/log"

	"report-dispatch/metrics"
	"report-dispatch/models"
	"report-dispatch/simulation"
)

// step runs one simulation tick and publishes its effects
func (s *Service) step(ctx context.Context) simulation.TickResult {
	start := time.Now()
	defer func() {
		metrics.TickDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	s.persistMu.Lock()
	res := s.sim.Tick()
	metrics.TicksTotal.Inc()

	vehicles := s.sim.Vehicles()
	metrics.ObserveFleet(vehicles)
	if !res.Changed() {
		s.persistMu.Unlock()
		return res
	}

	byID := make(map[string]models.Vehicle, len(vehicles))
	for _, v := range vehicles {
		byID[v.ID] = v
	}

	changedVehicles := make([]models.Vehicle, 0, len(byID))
	for _, id := range res.VehicleIDs() {
		changedVehicles = append(changedVehicles, byID[id])
	}
	s.persistSnapshot(ctx, s.changedReports(res.Changes), changedVehicles)
	s.persistMu.Unlock()

	s.events.StatusChanged(ctx, res.Changes)
	for _, a := range res.Arrived {
		s.events.Arrived(ctx, byID[a.VehicleID], a.ReportID)
	}
	for _, a := range res.Stalled {
		s.events.Stalled(ctx, byID[a.VehicleID], a.ReportID)
	}
	metrics.StalledTotal.Add(float64(len(res.Stalled)))

	s.reward(res.Changes)
	s.broadcastMap(res.Tick)

	log.WithFields(log.Fields{
		"tick":      res.Tick,
		"moved":     len(res.Moved),
		"arrived":   len(res.Arrived),
		"completed": len(res.Completed),
		"stalled":   len(res.Stalled),
	}).Debug("tick")
	return res
}

// reward credits reporters for reports that just became Resolved
func (s *Service) reward(changes []simulation.StatusChange) {
	for _, c := range changes {
		if c.To != models.ReportResolved || c.From == models.ReportResolved {
			continue
		}
		metrics.ReportsResolvedTotal.Inc()
		if c.ReporterID == "" {
			continue
		}
		award, ok := s.ledger.RecordResolution(c.ReporterID, c.ReportID)
		if ok && award.Wei != nil {
			log.WithFields(log.Fields{
				"report": c.ReportID,
				"wallet": award.Wallet,
				"wei":    award.Wei.String(),
			}).Info("resolution reward owed")
		}
	}
}

func (s *Service) changedReports(changes []simulation.StatusChange) []models.Report {
	reports := make([]models.Report, 0, len(changes))
	seen := make(map[string]bool, len(changes))
	for _, c := range changes {
		if seen[c.ReportID] {
			continue
		}
		seen[c.ReportID] = true
		if r, err := s.sim.Report(c.ReportID); err == nil {
			reports = append(reports, r)
		}
	}
	return reports
}

func (s *Service) persistSnapshot(ctx context.Context, reports []models.Report, vehicles []models.Vehicle) {
	if s.store == nil || (len(reports) == 0 && len(vehicles) == 0) {
		return
	}
	if err := s.store.SaveSnapshot(ctx, reports, vehicles); err != nil {
		metrics.PersistErrorTotal.Inc()
		log.Errorf("Failed to persist state: %v", err)
	}
}

func (s *Service) broadcastMap(tick int64) {
	s.hub.Broadcast("live_map", s.LiveMap(nil), tick)
}
