package simulation

import (
	"fmt"

	"report-dispatch/geo"
	"report-dispatch/models"
)

// DefaultFleet returns n idle trucks spread around the depot.
func DefaultFleet(depot geo.Point, n int) []models.Vehicle {
	offsets := []geo.Point{
		{Latitude: 0.01, Longitude: 0.01},
		{Latitude: -0.01, Longitude: 0.015},
		{Latitude: 0.005, Longitude: -0.02},
		{Latitude: -0.015, Longitude: -0.005},
	}
	fleet := make([]models.Vehicle, 0, n)
	for i := 0; i < n; i++ {
		off := offsets[i%len(offsets)]
		fleet = append(fleet, models.Vehicle{
			ID: fmt.Sprintf("TRUCK-%02d", i+1),
			CurrentLocation: geo.Point{
				Latitude:  depot.Latitude + off.Latitude,
				Longitude: depot.Longitude + off.Longitude,
			},
			Status: models.VehicleIdle,
		})
	}
	return fleet
}
