package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BuildingStatus is the compliance state of a building
type BuildingStatus string

const (
	BuildingCompliant     BuildingStatus = "Compliant"
	BuildingUnderReview   BuildingStatus = "UnderReview"
	BuildingWarningIssued BuildingStatus = "WarningIssued"
	BuildingPenaltyActive BuildingStatus = "PenaltyActive"
)

// PenaltyType is the kind of penalty applied to a building
type PenaltyType string

const (
	PenaltyFine                PenaltyType = "Fine"
	PenaltyCollectionSuspended PenaltyType = "CollectionSuspended"
)

// Valid reports whether t is one of the known penalty types
func (t PenaltyType) Valid() bool {
	return t == PenaltyFine || t == PenaltyCollectionSuspended
}

// Warning is a compliance warning issued to a building
type Warning struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason"`
}

// Penalty is a fine or collection suspension applied to a building
type Penalty struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Type       PenaltyType     `json:"type"`
	Details    string          `json:"details"`
	Amount     decimal.Decimal `json:"amount"`
	IsResolved bool            `json:"is_resolved"`
}

// Building is a property reports can be attributed to
type Building struct {
	ID        string         `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	Address   string         `json:"address" db:"address"`
	Status    BuildingStatus `json:"status" db:"status"`
	Warnings  []Warning      `json:"warnings"`
	Penalties []Penalty      `json:"penalties"`
}
