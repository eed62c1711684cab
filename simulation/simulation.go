// Package simulation implements the report lifecycle, the vehicle state
// machine and the dispatch coordinator over one in-memory state.
package simulation

import (
	"sort"
	"sync"
	"time"

	"report-dispatch/geo"
	"report-dispatch/models"

	"github.com/google/uuid"
)

// State is the full set of entities the simulation owns.
type State struct {
	Reports   map[string]*models.Report
	Vehicles  map[string]*models.Vehicle
	Buildings map[string]*models.Building
}

func newState() *State {
	return &State{
		Reports:   make(map[string]*models.Report),
		Vehicles:  make(map[string]*models.Vehicle),
		Buildings: make(map[string]*models.Building),
	}
}

// Simulation is the single controller of State. Every mutation goes through
// its methods; getters return copies.
type Simulation struct {
	cfg   Config
	mu    sync.Mutex
	state *State
	ticks int64

	now   func() time.Time
	newID func() string
}

// NewSimulation creates a simulation seeded with the given vehicles.
func NewSimulation(cfg Config, vehicles []models.Vehicle) *Simulation {
	s := &Simulation{
		cfg:   cfg,
		state: newState(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for i := range vehicles {
		v := vehicles[i]
		s.state.Vehicles[v.ID] = &v
	}
	return s
}

// Config returns the simulation settings.
func (s *Simulation) Config() Config {
	return s.cfg
}

// Ticks returns the number of ticks evaluated so far.
func (s *Simulation) Ticks() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Load replaces the current entities, e.g. with a snapshot from storage.
// Vehicles are only replaced when the snapshot has any.
func (s *Simulation) Load(reports []models.Report, vehicles []models.Vehicle, buildings []models.Building) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Reports = make(map[string]*models.Report, len(reports))
	for i := range reports {
		r := reports[i]
		s.state.Reports[r.ID] = &r
	}
	if len(vehicles) > 0 {
		s.state.Vehicles = make(map[string]*models.Vehicle, len(vehicles))
		for i := range vehicles {
			v := vehicles[i]
			s.state.Vehicles[v.ID] = &v
		}
	}
	s.state.Buildings = make(map[string]*models.Building, len(buildings))
	for i := range buildings {
		b := buildings[i]
		s.state.Buildings[b.ID] = &b
	}
}

// Report returns a copy of one report.
func (s *Simulation) Report(id string) (models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.Reports[id]
	if !ok {
		return models.Report{}, ErrReportNotFound
	}
	return copyReport(r), nil
}

// Reports returns all reports, Pending first, then In Progress, then
// Resolved; newest first within a status.
func (s *Simulation) Reports() []models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]models.Report, 0, len(s.state.Reports))
	for _, r := range s.state.Reports {
		res = append(res, copyReport(r))
	}
	sort.Slice(res, func(i, j int) bool {
		if ri, rj := res[i].Status.Rank(), res[j].Status.Rank(); ri != rj {
			return ri < rj
		}
		if !res[i].Timestamp.Equal(res[j].Timestamp) {
			return res[i].Timestamp.After(res[j].Timestamp)
		}
		return res[i].ID < res[j].ID
	})
	return res
}

// Vehicle returns a copy of one vehicle.
func (s *Simulation) Vehicle(id string) (models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state.Vehicles[id]
	if !ok {
		return models.Vehicle{}, ErrVehicleNotFound
	}
	return copyVehicle(v), nil
}

// Vehicles returns all vehicles ordered by id.
func (s *Simulation) Vehicles() []models.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]models.Vehicle, 0, len(s.state.Vehicles))
	for _, id := range s.vehicleIDs() {
		res = append(res, copyVehicle(s.state.Vehicles[id]))
	}
	return res
}

// Stats counts reports by status.
func (s *Simulation) Stats() models.ReportStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st models.ReportStats
	for _, r := range s.state.Reports {
		st.Total++
		switch r.Status {
		case models.ReportPending:
			st.Pending++
		case models.ReportInProgress:
			st.InProgress++
		case models.ReportResolved:
			st.Resolved++
		}
	}
	return st
}

// vehicleIDs returns the vehicle ids in a stable order. Callers hold mu.
func (s *Simulation) vehicleIDs() []string {
	ids := make([]string, 0, len(s.state.Vehicles))
	for id := range s.state.Vehicles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func copyPoint(p *geo.Point) *geo.Point {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func copyReport(r *models.Report) models.Report {
	c := *r
	c.Location = copyPoint(r.Location)
	if r.Analysis != nil {
		a := *r.Analysis
		c.Analysis = &a
	}
	return c
}

func copyVehicle(v *models.Vehicle) models.Vehicle {
	c := *v
	c.Destination = copyPoint(v.Destination)
	return c
}

func copyBuilding(b *models.Building) models.Building {
	c := *b
	c.Warnings = append([]models.Warning(nil), b.Warnings...)
	c.Penalties = append([]models.Penalty(nil), b.Penalties...)
	return c
}
