package simulation

import "errors"

var (
	ErrReportNotFound      = errors.New("report not found")
	ErrVehicleNotFound     = errors.New("vehicle not found")
	ErrBuildingNotFound    = errors.New("building not found")
	ErrReportHasNoLocation = errors.New("report has no location")
	ErrInvalidLocation     = errors.New("location is not a finite coordinate")
	ErrReportResolved      = errors.New("report is already resolved")
	ErrReportAssigned      = errors.New("report is already assigned to another vehicle")
	ErrVehicleBusy         = errors.New("vehicle is not idle")
	ErrNoIdleVehicle       = errors.New("no idle vehicle available")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidPenaltyType  = errors.New("invalid penalty type")
)
