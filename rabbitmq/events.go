package rabbitmq

import (
	"context"
	"time"

	"github.com/apex/log"

	"report-dispatch/models"
	"report-dispatch/simulation"
)

// Routing keys of the dispatch exchange
const (
	RoutingReportStatus      = "report.status"
	RoutingReportResolved    = "report.resolved"
	RoutingVehicleDispatched = "vehicle.dispatched"
	RoutingVehicleArrived    = "vehicle.arrived"
	RoutingVehicleStalled    = "vehicle.stalled"
)

// Sender is the transport Events publishes through; *Publisher implements it.
type Sender interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Events turns simulation results into broker messages. A nil sender makes
// every method a no-op so the service runs without a broker.
type Events struct {
	sender Sender
	now    func() time.Time
}

// NewEvents creates an event emitter over sender
func NewEvents(sender Sender) *Events {
	return &Events{sender: sender, now: time.Now}
}

// StatusChanged publishes report.status, and report.resolved when the
// report reached Resolved.
func (e *Events) StatusChanged(ctx context.Context, changes []simulation.StatusChange) {
	for _, c := range changes {
		ev := models.ReportStatusEvent{
			ReportID:   c.ReportID,
			ReporterID: c.ReporterID,
			From:       c.From,
			To:         c.To,
			VehicleID:  c.VehicleID,
			Timestamp:  e.now().UTC(),
		}
		e.send(ctx, RoutingReportStatus, ev)
		if c.To == models.ReportResolved {
			e.send(ctx, RoutingReportResolved, ev)
		}
	}
}

// Dispatched publishes vehicle.dispatched for a new assignment
func (e *Events) Dispatched(ctx context.Context, v models.Vehicle) {
	e.send(ctx, RoutingVehicleDispatched, e.vehicleEvent(v, v.AssignedReportID))
}

// Arrived publishes vehicle.arrived for a vehicle that started collecting
func (e *Events) Arrived(ctx context.Context, v models.Vehicle, reportID string) {
	e.send(ctx, RoutingVehicleArrived, e.vehicleEvent(v, reportID))
}

// Stalled publishes vehicle.stalled for a vehicle released mid-trip. The
// vehicle no longer carries the assignment, so the report id is passed in.
func (e *Events) Stalled(ctx context.Context, v models.Vehicle, reportID string) {
	e.send(ctx, RoutingVehicleStalled, e.vehicleEvent(v, reportID))
}

func (e *Events) vehicleEvent(v models.Vehicle, reportID string) models.VehicleEvent {
	return models.VehicleEvent{
		VehicleID: v.ID,
		ReportID:  reportID,
		Status:    v.Status,
		Location:  v.CurrentLocation,
		Timestamp: e.now().UTC(),
	}
}

func (e *Events) send(ctx context.Context, routingKey string, msg any) {
	if e == nil || e.sender == nil {
		return
	}
	if err := e.sender.Publish(ctx, routingKey, msg); err != nil {
		log.WithField("routing_key", routingKey).Errorf("failed to publish event: %v", err)
	}
}
