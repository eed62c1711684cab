package simulation

import (
	"math"
	"testing"

	"report-dispatch/geo"
	"report-dispatch/models"
)

func TestTickFullCycle(t *testing.T) {
	s := newTestSimulation(DefaultConfig(), idleVehicle("V1", 0, 0))
	mustAddReport(t, s, located("R1", 1, 1))
	if _, err := s.Dispatch("V1", "R1"); err != nil {
		t.Fatal(err)
	}

	dest := geo.Point{Latitude: 1, Longitude: 1}
	// ceil(ln(0.001/sqrt2)/ln(0.9)) moving ticks bring the vehicle within epsilon.
	moving := int(math.Ceil(math.Log(0.001/math.Sqrt2) / math.Log(0.9)))
	if moving != 69 {
		t.Fatalf("expected 69 moving ticks, computed %d", moving)
	}

	prev := math.Sqrt2
	for i := 1; i <= moving; i++ {
		res := s.Tick()
		v, _ := s.Vehicle("V1")
		if v.Status != models.VehicleEnRoute {
			t.Fatalf("tick %d: expected En Route, got %s", i, v.Status)
		}
		d := geo.Distance(v.CurrentLocation, dest)
		if d >= prev {
			t.Fatalf("tick %d: distance did not decrease: %v -> %v", i, prev, d)
		}
		prev = d
		if len(res.Moved) != 1 || res.Moved[0] != "V1" {
			t.Fatalf("tick %d: expected V1 to move, got %+v", i, res.Moved)
		}
	}
	if prev >= 0.001 {
		t.Fatalf("expected distance under epsilon after %d ticks, got %v", moving, prev)
	}

	res := s.Tick()
	v, _ := s.Vehicle("V1")
	if v.Status != models.VehicleCollecting {
		t.Fatalf("expected Collecting, got %s", v.Status)
	}
	if v.Destination != nil {
		t.Errorf("expected destination cleared while collecting, got %v", v.Destination)
	}
	if v.AssignedReportID != "R1" {
		t.Errorf("expected assignment kept while collecting, got %q", v.AssignedReportID)
	}
	if len(res.Arrived) != 1 || res.Arrived[0] != (Assignment{VehicleID: "V1", ReportID: "R1"}) {
		t.Errorf("unexpected arrivals %+v", res.Arrived)
	}
	if r, _ := s.Report("R1"); r.Status != models.ReportInProgress {
		t.Errorf("expected R1 In Progress while collecting, got %s", r.Status)
	}

	res = s.Tick()
	v, _ = s.Vehicle("V1")
	r, _ := s.Report("R1")
	if v.Status != models.VehicleIdle || v.AssignedReportID != "" || v.Destination != nil {
		t.Errorf("expected an idle unassigned vehicle, got %+v", v)
	}
	if r.Status != models.ReportResolved {
		t.Errorf("expected R1 Resolved, got %s", r.Status)
	}
	if len(res.Completed) != 1 || len(res.Changes) != 1 || res.Changes[0].To != models.ReportResolved {
		t.Errorf("unexpected tick result %+v", res)
	}

	res = s.Tick()
	if res.Changed() {
		t.Errorf("expected an idle fleet to produce no changes, got %+v", res)
	}
	if s.Ticks() != int64(moving+3) {
		t.Errorf("expected %d ticks, got %d", moving+3, s.Ticks())
	}
}

func TestTickMovesTenPercent(t *testing.T) {
	s := newTestSimulation(DefaultConfig(), idleVehicle("V1", 0, 0))
	mustAddReport(t, s, located("R1", 0, 10))
	s.Dispatch("V1", "R1")

	s.Tick()
	v, _ := s.Vehicle("V1")
	if math.Abs(v.CurrentLocation.Longitude-1) > 1e-9 || v.CurrentLocation.Latitude != 0 {
		t.Errorf("expected (0, 1), got %v", v.CurrentLocation)
	}
	if v.EnRouteTicks != 1 {
		t.Errorf("expected 1 en route tick, got %d", v.EnRouteTicks)
	}
}

func TestTickCollectingLastsOneTick(t *testing.T) {
	s := newTestSimulation(DefaultConfig(), idleVehicle("V1", 1, 1))
	mustAddReport(t, s, located("R1", 1, 1))
	s.Dispatch("V1", "R1")

	// Already on site: arrives on the first tick.
	s.Tick()
	if v, _ := s.Vehicle("V1"); v.Status != models.VehicleCollecting {
		t.Fatalf("expected Collecting, got %s", v.Status)
	}
	s.Tick()
	if v, _ := s.Vehicle("V1"); v.Status != models.VehicleIdle {
		t.Errorf("expected Idle after one collecting tick, got %s", v.Status)
	}
}

func TestTickIdleVehicleDoesNothing(t *testing.T) {
	s := newTestSimulation(DefaultConfig(), idleVehicle("V1", 3, 4))
	res := s.Tick()
	v, _ := s.Vehicle("V1")
	if res.Changed() || v.CurrentLocation != (geo.Point{Latitude: 3, Longitude: 4}) {
		t.Errorf("expected idle vehicle to stay put, got %+v / %+v", v, res)
	}
}

func TestTickReleasesEnRouteWithoutDestination(t *testing.T) {
	broken := models.Vehicle{ID: "V1", Status: models.VehicleEnRoute, AssignedReportID: "R1"}
	s := newTestSimulation(DefaultConfig(), broken)
	mustAddReport(t, s, located("R1", 1, 1))
	s.SetStatus("R1", models.ReportInProgress)

	res := s.Tick()
	v, _ := s.Vehicle("V1")
	r, _ := s.Report("R1")
	if v.Status != models.VehicleIdle || v.AssignedReportID != "" {
		t.Errorf("expected the vehicle released, got %+v", v)
	}
	if r.Status != models.ReportPending {
		t.Errorf("expected R1 back to Pending, got %s", r.Status)
	}
	if len(res.Stalled) != 1 {
		t.Errorf("expected one stalled assignment, got %+v", res.Stalled)
	}
}

func TestTickMaxEnRouteTicks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEnRouteTicks = 3
	s := newTestSimulation(cfg, idleVehicle("V1", 0, 0))
	mustAddReport(t, s, located("R1", 50, 50))
	s.Dispatch("V1", "R1")

	for i := 0; i < 3; i++ {
		if res := s.Tick(); len(res.Stalled) != 0 {
			t.Fatalf("tick %d: released too early", i+1)
		}
	}
	res := s.Tick()
	if len(res.Stalled) != 1 || res.Stalled[0].ReportID != "R1" {
		t.Fatalf("expected R1 to stall, got %+v", res)
	}
	v, _ := s.Vehicle("V1")
	r, _ := s.Report("R1")
	if v.Status != models.VehicleIdle || v.Destination != nil {
		t.Errorf("expected vehicle released, got %+v", v)
	}
	if r.Status != models.ReportPending {
		t.Errorf("expected R1 Pending, got %s", r.Status)
	}
	if len(res.Changes) != 1 || res.Changes[0].To != models.ReportPending {
		t.Errorf("unexpected changes %+v", res.Changes)
	}
}

func TestTickResultVehicleIDs(t *testing.T) {
	res := TickResult{
		Moved:     []string{"V1", "V2"},
		Arrived:   []Assignment{{VehicleID: "V2"}},
		Completed: []Assignment{{VehicleID: "V3"}},
	}
	ids := res.VehicleIDs()
	if len(ids) != 3 || ids[0] != "V1" || ids[1] != "V2" || ids[2] != "V3" {
		t.Errorf("unexpected ids %v", ids)
	}
}
