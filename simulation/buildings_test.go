package simulation

import (
	"errors"
	"testing"

	"report-dispatch/models"

	"github.com/shopspring/decimal"
)

func TestBuildingCompliance(t *testing.T) {
	s := newTestSimulation(DefaultConfig())
	b := s.AddBuilding(models.Building{Name: "Green Towers", Address: "12 MG Road"})
	if b.ID != "bldg-1" || b.Status != models.BuildingCompliant {
		t.Fatalf("unexpected building %+v", b)
	}
	mustAddReport(t, s, models.Report{ID: "r1"})

	r, b, err := s.AssignBuilding("r1", b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if r.BuildingID != b.ID || b.Status != models.BuildingUnderReview {
		t.Errorf("expected report linked and building under review, got %+v / %+v", r, b)
	}

	b, err = s.AddWarning(b.ID, "mixed waste at gate")
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != models.BuildingWarningIssued || len(b.Warnings) != 1 || b.Warnings[0].Reason != "mixed waste at gate" {
		t.Errorf("unexpected building after warning %+v", b)
	}

	b, err = s.AddPenalty(b.ID, models.PenaltyFine, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != models.BuildingPenaltyActive {
		t.Errorf("expected PenaltyActive, got %s", b.Status)
	}
	if !b.Penalties[0].Amount.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("expected default fine 5000, got %s", b.Penalties[0].Amount)
	}
	if b.Penalties[0].Details == "" {
		t.Errorf("expected default details")
	}

	custom := decimal.RequireFromString("1250.50")
	b, _ = s.AddPenalty(b.ID, models.PenaltyFine, "second offence", &custom)
	b, _ = s.AddPenalty(b.ID, models.PenaltyCollectionSuspended, "", nil)
	if !b.Penalties[2].Amount.IsZero() {
		t.Errorf("expected suspension without amount, got %s", b.Penalties[2].Amount)
	}

	total, err := s.OutstandingFines(b.ID)
	if err != nil || !total.Equal(decimal.RequireFromString("6250.50")) {
		t.Errorf("expected outstanding 6250.50, got %s (%v)", total, err)
	}

	// A warning does not downgrade an active penalty.
	b, _ = s.AddWarning(b.ID, "again")
	if b.Status != models.BuildingPenaltyActive {
		t.Errorf("expected PenaltyActive to stick, got %s", b.Status)
	}
}

func TestBuildingErrors(t *testing.T) {
	s := newTestSimulation(DefaultConfig())
	s.AddBuilding(models.Building{ID: "b1", Name: "B"})
	mustAddReport(t, s, models.Report{ID: "r1"})

	if _, _, err := s.AssignBuilding("r1", "nope"); !errors.Is(err, ErrBuildingNotFound) {
		t.Errorf("expected ErrBuildingNotFound, got %v", err)
	}
	if _, _, err := s.AssignBuilding("nope", "b1"); !errors.Is(err, ErrReportNotFound) {
		t.Errorf("expected ErrReportNotFound, got %v", err)
	}
	if _, err := s.AddPenalty("b1", "Jail", "", nil); !errors.Is(err, ErrInvalidPenaltyType) {
		t.Errorf("expected ErrInvalidPenaltyType, got %v", err)
	}
	if _, err := s.AddWarning("nope", "x"); !errors.Is(err, ErrBuildingNotFound) {
		t.Errorf("expected ErrBuildingNotFound, got %v", err)
	}
}

func TestBuildingsSortedByName(t *testing.T) {
	s := newTestSimulation(DefaultConfig())
	s.AddBuilding(models.Building{ID: "b2", Name: "Zeta"})
	s.AddBuilding(models.Building{ID: "b1", Name: "Alpha"})

	bs := s.Buildings()
	if len(bs) != 2 || bs[0].Name != "Alpha" || bs[1].Name != "Zeta" {
		t.Errorf("unexpected order %+v", bs)
	}
}
