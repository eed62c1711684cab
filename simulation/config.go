package simulation

import (
	"fmt"
	"strings"
)

// BusyPolicy decides what Dispatch does with a vehicle that is not Idle.
type BusyPolicy string

const (
	// PolicyReject refuses the dispatch with ErrVehicleBusy.
	PolicyReject BusyPolicy = "reject"
	// PolicyPreempt re-targets the vehicle and puts its previous report
	// back to Pending.
	PolicyPreempt BusyPolicy = "preempt"
	// PolicyOverwrite re-targets the vehicle and leaves the previous report
	// In Progress with nobody collecting it.
	PolicyOverwrite BusyPolicy = "overwrite"
)

// ParseBusyPolicy parses a policy name, case-insensitively.
func ParseBusyPolicy(s string) (BusyPolicy, error) {
	switch p := BusyPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyReject, PolicyPreempt, PolicyOverwrite:
		return p, nil
	}
	return "", fmt.Errorf("unknown busy policy %q", s)
}

// Config holds the tunables of the vehicle state machine.
type Config struct {
	// ApproachFraction is the share of the remaining vector covered per tick.
	ApproachFraction float64
	// ArrivalEpsilon is the distance below which a vehicle has arrived.
	ArrivalEpsilon float64
	// MaxEnRouteTicks releases vehicles that travel longer than this.
	// Zero disables the limit.
	MaxEnRouteTicks int
	BusyPolicy      BusyPolicy
}

// DefaultConfig returns the stock simulation settings.
func DefaultConfig() Config {
	return Config{
		ApproachFraction: 0.1,
		ArrivalEpsilon:   0.001,
		MaxEnRouteTicks:  0,
		BusyPolicy:       PolicyReject,
	}
}
