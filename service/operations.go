package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/apex/log"
	"github.com/shopspring/decimal"

	"report-dispatch/geo"
	"report-dispatch/mapview"
	"report-dispatch/metrics"
	"report-dispatch/models"
	"report-dispatch/rewards"
	"report-dispatch/simulation"
	"report-dispatch/websocket"
)

// SubmitReport stores a new report and credits the reporter
func (s *Service) SubmitReport(ctx context.Context, req models.CreateReportRequest) (models.Report, rewards.Award, error) {
	s.persistMu.Lock()
	r, err := s.sim.AddReport(models.Report{
		ReporterID:  req.ReporterID,
		Image:       req.Image,
		Description: req.Description,
		Location:    req.Location,
		Analysis:    req.Analysis,
	})
	if err != nil {
		s.persistMu.Unlock()
		return models.Report{}, rewards.Award{}, err
	}
	s.persistReport(ctx, r)
	s.persistMu.Unlock()
	metrics.ReportsSubmittedTotal.Inc()

	var award rewards.Award
	if r.ReporterID != "" {
		award = s.ledger.RecordReport(r.ReporterID)
	}

	log.WithFields(log.Fields{
		"report":   r.ID,
		"reporter": r.ReporterID,
		"located":  r.HasLocation(),
		"penalty":  r.PenaltyStatus,
	}).Info("report submitted")

	s.broadcastMap(s.sim.Ticks())
	return r, award, nil
}

// Report returns one report
func (s *Service) Report(id string) (models.Report, error) {
	return s.sim.Report(id)
}

// Reports lists all reports, Pending first
func (s *Service) Reports() []models.Report {
	return s.sim.Reports()
}

// Stats returns the report counters
func (s *Service) Stats() models.ReportStats {
	return s.sim.Stats()
}

// SetReportStatus overrides a report status
func (s *Service) SetReportStatus(ctx context.Context, id string, status models.ReportStatus) (models.Report, error) {
	s.persistMu.Lock()
	ch, err := s.sim.SetStatus(id, status)
	if err != nil {
		s.persistMu.Unlock()
		return models.Report{}, err
	}
	r, err := s.sim.Report(id)
	if err != nil {
		s.persistMu.Unlock()
		return models.Report{}, err
	}
	s.persistReport(ctx, r)
	s.persistMu.Unlock()

	changes := []simulation.StatusChange{ch}
	s.events.StatusChanged(ctx, changes)
	s.reward(changes)
	s.broadcastMap(s.sim.Ticks())
	return r, nil
}

// SetPenaltyStatus updates the penalty status of a report
func (s *Service) SetPenaltyStatus(ctx context.Context, id string, status models.PenaltyStatus) (models.Report, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	r, err := s.sim.SetPenaltyStatus(id, status)
	if err != nil {
		return models.Report{}, err
	}
	s.persistReport(ctx, r)
	return r, nil
}

// AssignBuilding attributes a report to a building
func (s *Service) AssignBuilding(ctx context.Context, reportID, buildingID string) (models.Report, models.Building, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	r, b, err := s.sim.AssignBuilding(reportID, buildingID)
	if err != nil {
		return models.Report{}, models.Building{}, err
	}
	s.persistReport(ctx, r)
	s.persistBuilding(ctx, b)
	return r, b, nil
}

// Vehicles lists the fleet
func (s *Service) Vehicles() []models.Vehicle {
	return s.sim.Vehicles()
}

// Dispatch sends a specific vehicle to a report
func (s *Service) Dispatch(ctx context.Context, vehicleID, reportID string) (simulation.DispatchResult, error) {
	return s.dispatch(ctx, func() (simulation.DispatchResult, error) {
		return s.sim.Dispatch(vehicleID, reportID)
	})
}

// DispatchNearest sends the closest idle vehicle to a report
func (s *Service) DispatchNearest(ctx context.Context, reportID string) (simulation.DispatchResult, error) {
	return s.dispatch(ctx, func() (simulation.DispatchResult, error) {
		return s.sim.DispatchNearest(reportID)
	})
}

func (s *Service) dispatch(ctx context.Context, run func() (simulation.DispatchResult, error)) (simulation.DispatchResult, error) {
	s.persistMu.Lock()
	res, err := run()
	metrics.DispatchesTotal.WithLabelValues(dispatchResultLabel(err)).Inc()
	if err != nil {
		s.persistMu.Unlock()
		return res, err
	}

	s.persistSnapshot(ctx, s.changedReports(res.Changes), []models.Vehicle{res.Vehicle})
	s.persistMu.Unlock()
	s.events.StatusChanged(ctx, res.Changes)
	s.events.Dispatched(ctx, res.Vehicle)
	metrics.ObserveFleet(s.sim.Vehicles())

	log.WithFields(log.Fields{
		"vehicle":   res.Vehicle.ID,
		"report":    res.Report.ID,
		"preempted": res.PreemptedReportID,
		"orphaned":  res.OrphanedReportID,
	}).Info("vehicle dispatched")

	s.broadcastMap(s.sim.Ticks())
	return res, nil
}

func dispatchResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, simulation.ErrVehicleBusy):
		return "busy"
	case errors.Is(err, simulation.ErrNoIdleVehicle):
		return "no_idle_vehicle"
	case errors.Is(err, simulation.ErrReportAssigned):
		return "assigned"
	case errors.Is(err, simulation.ErrReportHasNoLocation), errors.Is(err, simulation.ErrInvalidLocation):
		return "no_location"
	case errors.Is(err, simulation.ErrReportResolved):
		return "resolved"
	case errors.Is(err, simulation.ErrReportNotFound), errors.Is(err, simulation.ErrVehicleNotFound):
		return "not_found"
	}
	return "error"
}

// Buildings lists buildings by name
func (s *Service) Buildings() []models.Building {
	return s.sim.Buildings()
}

// Building returns one building
func (s *Service) Building(id string) (models.Building, error) {
	return s.sim.Building(id)
}

// AddBuilding registers a building
func (s *Service) AddBuilding(ctx context.Context, b models.Building) models.Building {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	b = s.sim.AddBuilding(b)
	s.persistBuilding(ctx, b)
	return b
}

// AddWarning issues a warning to a building
func (s *Service) AddWarning(ctx context.Context, buildingID, reason string) (models.Building, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	b, err := s.sim.AddWarning(buildingID, reason)
	if err != nil {
		return models.Building{}, err
	}
	s.persistBuilding(ctx, b)
	return b, nil
}

// AddPenalty applies a penalty to a building
func (s *Service) AddPenalty(ctx context.Context, buildingID string, typ models.PenaltyType, details string, amount *decimal.Decimal) (models.Building, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	b, err := s.sim.AddPenalty(buildingID, typ, details, amount)
	if err != nil {
		return models.Building{}, err
	}
	s.persistBuilding(ctx, b)
	return b, nil
}

// OutstandingFines sums the unresolved fines of a building
func (s *Service) OutstandingFines(buildingID string) (decimal.Decimal, error) {
	return s.sim.OutstandingFines(buildingID)
}

// LiveMap renders the current state. A nil bounds renders the whole world.
func (s *Service) LiveMap(bounds *geo.Bounds) mapview.LiveMap {
	b := geo.WorldBounds
	if bounds != nil {
		b = *bounds
	}
	m := mapview.Build(s.sim.Reports(), s.sim.Vehicles(), b)
	m.Tick = s.sim.Ticks()
	return m
}

// Clusters aggregates open reports inside the viewport
func (s *Service) Clusters(vp mapview.ViewPort) []mapview.Cluster {
	return mapview.ClusterReports(s.sim.Reports(), vp)
}

// Account returns the reward account of a user
func (s *Service) Account(userID string) (rewards.Account, bool) {
	return s.ledger.Account(userID)
}

// Leaderboard returns the top n reward accounts
func (s *Service) Leaderboard(n int) []rewards.Account {
	return s.ledger.Leaderboard(n)
}

// Ticks returns the number of ticks run
func (s *Service) Ticks() int64 {
	return s.sim.Ticks()
}

// ConnectedClients returns the number of live map listeners
func (s *Service) ConnectedClients() int {
	return s.hub.ClientCount()
}

// ServeLiveMap upgrades a request to a live map WebSocket, sending the
// current map first.
func (s *Service) ServeLiveMap(w http.ResponseWriter, r *http.Request) error {
	initial, err := websocket.Encode("live_map", s.LiveMap(nil))
	if err != nil {
		return err
	}
	return websocket.ServeWS(s.hub, w, r, initial)
}

func (s *Service) persistReport(ctx context.Context, r models.Report) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveReport(ctx, &r); err != nil {
		metrics.PersistErrorTotal.Inc()
		log.WithField("report", r.ID).Errorf("Failed to persist report: %v", err)
	}
}

func (s *Service) persistBuilding(ctx context.Context, b models.Building) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveBuilding(ctx, &b); err != nil {
		metrics.PersistErrorTotal.Inc()
		log.WithField("building", b.ID).Errorf("Failed to persist building: %v", err)
	}
}
