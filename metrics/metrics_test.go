package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"report-dispatch/models"
)

func TestObserveFleet(t *testing.T) {
	ObserveFleet([]models.Vehicle{
		{ID: "TRUCK-01", Status: models.VehicleIdle},
		{ID: "TRUCK-02", Status: models.VehicleEnRoute},
		{ID: "TRUCK-03", Status: models.VehicleEnRoute},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(Vehicles.WithLabelValues("Idle")))
	assert.Equal(t, 2.0, testutil.ToFloat64(Vehicles.WithLabelValues("En Route")))
	assert.Equal(t, 0.0, testutil.ToFloat64(Vehicles.WithLabelValues("Collecting")))
}

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}
