package simulation

import (
	"sort"
	"strings"

	"report-dispatch/models"

	"github.com/shopspring/decimal"
)

// defaultFine is applied when a fine is issued without an explicit amount.
var defaultFine = decimal.NewFromInt(5000)

var defaultPenaltyDetails = map[models.PenaltyType]string{
	models.PenaltyFine:                "Fine for repeated non-compliance",
	models.PenaltyCollectionSuspended: "Waste collection suspended for 3 days",
}

// AddBuilding registers a building, Compliant unless a status is given.
func (s *Simulation) AddBuilding(b models.Building) models.Building {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(b.ID) == "" {
		b.ID = "bldg-" + s.newID()
	}
	if b.Status == "" {
		b.Status = models.BuildingCompliant
	}
	stored := copyBuilding(&b)
	s.state.Buildings[b.ID] = &stored
	return copyBuilding(&stored)
}

// Building returns a copy of one building.
func (s *Simulation) Building(id string) (models.Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.state.Buildings[id]
	if !ok {
		return models.Building{}, ErrBuildingNotFound
	}
	return copyBuilding(b), nil
}

// Buildings returns all buildings ordered by name.
func (s *Simulation) Buildings() []models.Building {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]models.Building, 0, len(s.state.Buildings))
	for _, b := range s.state.Buildings {
		res = append(res, copyBuilding(b))
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Name != res[j].Name {
			return res[i].Name < res[j].Name
		}
		return res[i].ID < res[j].ID
	})
	return res
}

// AddWarning issues a warning. A building with an active penalty keeps
// PenaltyActive.
func (s *Simulation) AddWarning(buildingID, reason string) (models.Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.state.Buildings[buildingID]
	if !ok {
		return models.Building{}, ErrBuildingNotFound
	}
	b.Warnings = append(b.Warnings, models.Warning{
		ID:        "warn-" + s.newID(),
		Timestamp: s.now().UTC(),
		Reason:    reason,
	})
	if b.Status != models.BuildingPenaltyActive {
		b.Status = models.BuildingWarningIssued
	}
	return copyBuilding(b), nil
}

// AddPenalty applies a penalty and marks the building PenaltyActive.
// A nil amount means the default for the penalty type.
func (s *Simulation) AddPenalty(buildingID string, typ models.PenaltyType, details string, amount *decimal.Decimal) (models.Building, error) {
	if !typ.Valid() {
		return models.Building{}, ErrInvalidPenaltyType
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.state.Buildings[buildingID]
	if !ok {
		return models.Building{}, ErrBuildingNotFound
	}

	p := models.Penalty{
		ID:        "pen-" + s.newID(),
		Timestamp: s.now().UTC(),
		Type:      typ,
		Details:   details,
		Amount:    decimal.Zero,
	}
	if p.Details == "" {
		p.Details = defaultPenaltyDetails[typ]
	}
	switch {
	case amount != nil:
		p.Amount = *amount
	case typ == models.PenaltyFine:
		p.Amount = defaultFine
	}

	b.Penalties = append(b.Penalties, p)
	b.Status = models.BuildingPenaltyActive
	return copyBuilding(b), nil
}

// OutstandingFines sums the unresolved fines of a building.
func (s *Simulation) OutstandingFines(buildingID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.state.Buildings[buildingID]
	if !ok {
		return decimal.Zero, ErrBuildingNotFound
	}
	total := decimal.Zero
	for _, p := range b.Penalties {
		if !p.IsResolved && p.Type == models.PenaltyFine {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}
