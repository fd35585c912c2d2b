package appointment

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thekade/nopolin-appointments/internal/database"
	"github.com/thekade/nopolin-appointments/internal/events"
	"github.com/thekade/nopolin-appointments/pkg/logger"
)

// DefaultDurationMinutes is applied when a booking request omits the duration
const DefaultDurationMinutes = 60

// CreateInput is a booking request from an authenticated citizen
type CreateInput struct {
	UserID             uint
	LawyerID           uint
	AppointmentDate    time.Time
	DurationMinutes    int
	AppointmentType    database.AppointmentType
	LegalIssueType     string
	Description        string
	IsFreeConsultation bool
}

// Workflow owns the appointment state machine:
// PENDING -> CONFIRMED | CANCELLED, CONFIRMED -> COMPLETED | CANCELLED.
// CANCELLED and COMPLETED are terminal; rows are never deleted.
type Workflow struct {
	db     *gorm.DB
	pub    events.Publisher
	logger *logger.Logger
}

func NewWorkflow(db *gorm.DB, pub events.Publisher, log *logger.Logger) *Workflow {
	return &Workflow{db: db, pub: pub, logger: log}
}

// Create books a new appointment. The availability gate, the conflict scan
// and the insert run in one transaction, serialized per lawyer by an
// advisory lock so that two concurrent bookings for the same window cannot
// both pass the scan and insert.
func (w *Workflow) Create(ctx context.Context, in CreateInput) (*database.Appointment, error) {
	if in.DurationMinutes == 0 {
		in.DurationMinutes = DefaultDurationMinutes
	}
	if in.DurationMinutes < 0 || in.DurationMinutes > MaxDurationMinutes {
		return nil, ErrInvalidWindow
	}
	if !in.AppointmentDate.After(time.Now()) {
		return nil, ErrInvalidWindow
	}
	if !database.ValidAppointmentType(in.AppointmentType) {
		return nil, ErrInvalidType
	}

	appt := &database.Appointment{
		UserID:             in.UserID,
		LawyerID:           in.LawyerID,
		AppointmentDate:    in.AppointmentDate,
		DurationMinutes:    in.DurationMinutes,
		AppointmentType:    in.AppointmentType,
		Status:             database.AppointmentPending,
		LegalIssueType:     in.LegalIssueType,
		Description:        in.Description,
		IsFreeConsultation: in.IsFreeConsultation,
	}

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.AcquireTxLock(tx, database.LockBookingWindow, in.LawyerID); err != nil {
			return err
		}

		gate := NewAvailabilityGate(NewGormLawyerReader(tx))
		if err := gate.Check(ctx, in.LawyerID); err != nil {
			return err
		}

		conflicts, err := NewConflictChecker(tx).FindConflicts(ctx, in.LawyerID, appt.AppointmentDate, appt.WindowEnd())
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return ErrSlotTaken
		}

		return tx.Create(appt).Error
	})
	if err != nil {
		return nil, err
	}

	w.publish(ctx, events.AppointmentCreated, appt)
	return appt, nil
}

// Confirm moves a PENDING appointment to CONFIRMED
func (w *Workflow) Confirm(ctx context.Context, id uint) (*database.Appointment, error) {
	appt, err := w.transition(ctx, id, database.AppointmentConfirmed, database.AppointmentPending)
	if err != nil {
		return nil, err
	}
	w.publish(ctx, events.AppointmentConfirmed, appt)
	return appt, nil
}

// Cancel moves a PENDING or CONFIRMED appointment to CANCELLED. Cancelling
// an already-terminal appointment is rejected; the legacy behavior of
// accepting it was judged an accident, not a feature.
func (w *Workflow) Cancel(ctx context.Context, id uint) (*database.Appointment, error) {
	appt, err := w.transition(ctx, id, database.AppointmentCancelled,
		database.AppointmentPending, database.AppointmentConfirmed)
	if err != nil {
		return nil, err
	}
	w.publish(ctx, events.AppointmentCancelled, appt)
	return appt, nil
}

// Complete moves a CONFIRMED appointment to COMPLETED
func (w *Workflow) Complete(ctx context.Context, id uint) (*database.Appointment, error) {
	appt, err := w.transition(ctx, id, database.AppointmentCompleted, database.AppointmentConfirmed)
	if err != nil {
		return nil, err
	}
	w.publish(ctx, events.AppointmentCompleted, appt)
	return appt, nil
}

// transition re-reads the row under lock, checks the current status against
// the allowed source states and writes the new status. A concurrent
// transition on the same row serializes here; the loser observes the
// already-applied status and fails with ErrInvalidTransition.
func (w *Workflow) transition(ctx context.Context, id uint, to database.AppointmentStatus, from ...database.AppointmentStatus) (*database.Appointment, error) {
	var appt database.Appointment

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if database.SupportsRowLocking(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&appt, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		allowed := false
		for _, s := range from {
			if appt.Status == s {
				allowed = true
				break
			}
		}
		if !allowed {
			return ErrInvalidTransition
		}

		return tx.Model(&appt).Update("status", to).Error
	})
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// Get fetches an appointment by id
func (w *Workflow) Get(ctx context.Context, id uint) (*database.Appointment, error) {
	var appt database.Appointment
	if err := w.db.WithContext(ctx).First(&appt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &appt, nil
}

// ListByUser returns a user's appointments, optionally filtered by status
func (w *Workflow) ListByUser(ctx context.Context, userID uint, status *database.AppointmentStatus) ([]database.Appointment, error) {
	return w.list(ctx, "user_id", userID, status)
}

// ListByLawyer returns a lawyer's appointments, optionally filtered by status
func (w *Workflow) ListByLawyer(ctx context.Context, lawyerID uint, status *database.AppointmentStatus) ([]database.Appointment, error) {
	return w.list(ctx, "lawyer_id", lawyerID, status)
}

func (w *Workflow) list(ctx context.Context, column string, id uint, status *database.AppointmentStatus) ([]database.Appointment, error) {
	var appts []database.Appointment
	q := w.db.WithContext(ctx).Where(column+" = ?", id)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("appointment_date ASC").Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}

// Upcoming returns CONFIRMED appointments within the date range
func (w *Workflow) Upcoming(ctx context.Context, from, to time.Time) ([]database.Appointment, error) {
	var appts []database.Appointment
	err := w.db.WithContext(ctx).
		Where("appointment_date >= ? AND appointment_date <= ?", from, to).
		Where("status = ?", database.AppointmentConfirmed).
		Order("appointment_date ASC").
		Find(&appts).Error
	if err != nil {
		return nil, err
	}
	return appts, nil
}

func (w *Workflow) publish(ctx context.Context, key string, appt *database.Appointment) {
	err := w.pub.Publish(ctx, key, map[string]any{
		"appointment_id": appt.ID,
		"user_id":        appt.UserID,
		"lawyer_id":      appt.LawyerID,
		"status":         appt.Status,
		"starts_at":      appt.AppointmentDate.Unix(),
		"ends_at":        appt.WindowEnd().Unix(),
	})
	if err != nil {
		w.logger.Error("Failed to publish event", "key", key, "appointment_id", appt.ID, "error", err)
	}
}
