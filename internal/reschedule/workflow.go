package reschedule

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thekade/nopolin-appointments/internal/database"
	"github.com/thekade/nopolin-appointments/internal/events"
	"github.com/thekade/nopolin-appointments/pkg/logger"
)

var (
	// ErrNotFound means the reschedule request id did not resolve
	ErrNotFound = errors.New("reschedule request not found")

	// ErrHearingNotFound means the court hearing id did not resolve
	ErrHearingNotFound = errors.New("court hearing not found")

	// ErrNotOwner means the caller does not own the hearing's court case
	ErrNotOwner = errors.New("reschedule requests are limited to your own court cases")

	// ErrPendingExists means the hearing already has a pending request
	ErrPendingExists = errors.New("a pending reschedule request already exists for this hearing")

	// ErrReasonRequired means the request carried a blank reason
	ErrReasonRequired = errors.New("reason is required")

	// ErrInvalidTransition means the request is already resolved
	ErrInvalidTransition = errors.New("reschedule request is already resolved")
)

// HearingInfo carries the only hearing fields the reschedule path consumes:
// the hearing id and the user owning the case it belongs to
type HearingInfo struct {
	ID          uint
	OwnerUserID uint
}

// HearingReader resolves a hearing id to its case ownership
type HearingReader interface {
	HearingByID(ctx context.Context, id uint) (*HearingInfo, error)
}

// Workflow owns the reschedule-request state machine:
// PENDING -> APPROVED | REJECTED, both terminal. Rows are never deleted.
//
// Approving a request does not move the underlying hearing date. That
// remains a manual follow-up outside this service; the reschedule.approved
// event is the hook for it.
type Workflow struct {
	db     *gorm.DB
	pub    events.Publisher
	logger *logger.Logger
}

func NewWorkflow(db *gorm.DB, pub events.Publisher, log *logger.Logger) *Workflow {
	return &Workflow{db: db, pub: pub, logger: log}
}

// Create files a reschedule request for a hearing owned by the caller. The
// hearing lookup, the ownership check, the pending-duplicate scan and the
// insert run in one transaction, serialized per hearing by an advisory lock
// so that two concurrent requests for the same hearing cannot both pass the
// duplicate check.
func (w *Workflow) Create(ctx context.Context, userID, hearingID uint, requestedDate *time.Time, reason string) (*database.RescheduleRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}

	req := &database.RescheduleRequest{
		UserID:         userID,
		CourtHearingID: hearingID,
		RequestedDate:  requestedDate,
		Reason:         reason,
		Status:         database.ReschedulePending,
	}

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.AcquireTxLock(tx, database.LockHearingRequests, hearingID); err != nil {
			return err
		}

		hearing, err := newGormHearingReader(tx).HearingByID(ctx, hearingID)
		if err != nil {
			return err
		}
		if hearing.OwnerUserID != userID {
			return ErrNotOwner
		}

		q := tx.Model(&database.RescheduleRequest{}).
			Where("court_hearing_id = ? AND status = ?", hearingID, database.ReschedulePending)
		if database.SupportsRowLocking(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var existing database.RescheduleRequest
		err = q.Take(&existing).Error
		if err == nil {
			return ErrPendingExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(req).Error
	})
	if err != nil {
		return nil, err
	}

	w.publish(ctx, events.RescheduleCreated, req)
	return req, nil
}

// Approve resolves a pending request as APPROVED and stores the notes
func (w *Workflow) Approve(ctx context.Context, id uint, adminNotes string) (*database.RescheduleRequest, error) {
	req, err := w.resolve(ctx, id, database.RescheduleApproved, adminNotes)
	if err != nil {
		return nil, err
	}
	w.publish(ctx, events.RescheduleApproved, req)
	return req, nil
}

// Reject resolves a pending request as REJECTED and stores the notes
func (w *Workflow) Reject(ctx context.Context, id uint, adminNotes string) (*database.RescheduleRequest, error) {
	req, err := w.resolve(ctx, id, database.RescheduleRejected, adminNotes)
	if err != nil {
		return nil, err
	}
	w.publish(ctx, events.RescheduleRejected, req)
	return req, nil
}

// resolve re-reads the row under lock, requires status PENDING and writes
// the terminal status plus notes. Concurrent resolutions serialize; the
// loser gets ErrInvalidTransition.
func (w *Workflow) resolve(ctx context.Context, id uint, to database.RescheduleStatus, adminNotes string) (*database.RescheduleRequest, error) {
	var req database.RescheduleRequest

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if database.SupportsRowLocking(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if req.Status != database.ReschedulePending {
			return ErrInvalidTransition
		}

		return tx.Model(&req).Updates(map[string]any{
			"status":      to,
			"admin_notes": adminNotes,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Get fetches a reschedule request by id
func (w *Workflow) Get(ctx context.Context, id uint) (*database.RescheduleRequest, error) {
	var req database.RescheduleRequest
	if err := w.db.WithContext(ctx).First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListByUser returns a user's requests, optionally filtered by status
func (w *Workflow) ListByUser(ctx context.Context, userID uint, status *database.RescheduleStatus) ([]database.RescheduleRequest, error) {
	var reqs []database.RescheduleRequest
	q := w.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// ListPending returns all pending requests, oldest first
func (w *Workflow) ListPending(ctx context.Context) ([]database.RescheduleRequest, error) {
	var reqs []database.RescheduleRequest
	err := w.db.WithContext(ctx).
		Where("status = ?", database.ReschedulePending).
		Order("created_at ASC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (w *Workflow) publish(ctx context.Context, key string, req *database.RescheduleRequest) {
	payload := map[string]any{
		"request_id":       req.ID,
		"user_id":          req.UserID,
		"court_hearing_id": req.CourtHearingID,
		"status":           req.Status,
	}
	if req.RequestedDate != nil {
		payload["requested_date"] = req.RequestedDate.Unix()
	}
	if err := w.pub.Publish(ctx, key, payload); err != nil {
		w.logger.Error("Failed to publish event", "key", key, "request_id", req.ID, "error", err)
	}
}

// gormHearingReader joins hearings to their case to surface ownership,
// without loading either record in full
type gormHearingReader struct {
	db *gorm.DB
}

func newGormHearingReader(db *gorm.DB) HearingReader {
	return &gormHearingReader{db: db}
}

func (r *gormHearingReader) HearingByID(ctx context.Context, id uint) (*HearingInfo, error) {
	var row struct {
		ID     uint
		UserID uint
	}
	err := r.db.WithContext(ctx).
		Model(&database.CourtHearing{}).
		Select("court_hearings.id", "court_cases.user_id").
		Joins("JOIN court_cases ON court_cases.id = court_hearings.court_case_id").
		Where("court_hearings.id = ?", id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHearingNotFound
		}
		return nil, err
	}
	return &HearingInfo{ID: row.ID, OwnerUserID: row.UserID}, nil
}
