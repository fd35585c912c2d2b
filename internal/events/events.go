package events

import "context"

// Routing keys for lifecycle events published by the workflows.
const (
	AppointmentCreated   = "appointment.created"
	AppointmentConfirmed = "appointment.confirmed"
	AppointmentCancelled = "appointment.cancelled"
	AppointmentCompleted = "appointment.completed"
	RescheduleCreated    = "reschedule.created"
	RescheduleApproved   = "reschedule.approved"
	RescheduleRejected   = "reschedule.rejected"
)

// Publisher delivers lifecycle events to interested consumers. Events are
// advisory: a failed publish must never fail the originating request.
type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
	Close() error
}

// NopPublisher discards all events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, key string, payload any) error {
	return nil
}

func (NopPublisher) Close() error {
	return nil
}
