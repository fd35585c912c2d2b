package reschedule

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/thekade/nopolin-appointments/internal/database"
	"github.com/thekade/nopolin-appointments/internal/events"
	"github.com/thekade/nopolin-appointments/pkg/logger"
)

const ownerID uint = 7

func setupWorkflow(t *testing.T) (*Workflow, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	log, err := logger.NewLogger("error", "json")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	return NewWorkflow(db, events.NopPublisher{}, log), db
}

func seedHearing(t *testing.T, db *gorm.DB, owner uint) uint {
	t.Helper()

	courtCase := &database.CourtCase{
		CaseNumber: "CIV/2026/0042",
		UserID:     owner,
		CourtName:  "Central Administrative Court",
		CaseType:   "LAND",
	}
	if err := db.Create(courtCase).Error; err != nil {
		t.Fatalf("failed to seed case: %v", err)
	}

	hearing := &database.CourtHearing{
		CourtCaseID: courtCase.ID,
		HearingDate: time.Now().Add(72 * time.Hour),
		Status:      database.HearingScheduled,
	}
	if err := db.Create(hearing).Error; err != nil {
		t.Fatalf("failed to seed hearing: %v", err)
	}
	return hearing.ID
}

func TestCreateRequest(t *testing.T) {
	w, db := setupWorkflow(t)
	hearingID := seedHearing(t, db, ownerID)

	requested := time.Now().Add(96 * time.Hour)
	req, err := w.Create(context.Background(), ownerID, hearingID, &requested, "witness unavailable")
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if req.Status != database.ReschedulePending {
		t.Errorf("expected status PENDING, got %s", req.Status)
	}
	if req.RequestedDate == nil {
		t.Errorf("expected requested date to be stored")
	}
}

func TestCreateRequest_BlankReason(t *testing.T) {
	w, db := setupWorkflow(t)
	hearingID := seedHearing(t, db, ownerID)

	for _, reason := range []string{"", "   ", "\t\n"} {
		if _, err := w.Create(context.Background(), ownerID, hearingID, nil, reason); !errors.Is(err, ErrReasonRequired) {
			t.Errorf("reason %q: expected ErrReasonRequired, got %v", reason, err)
		}
	}
}

func TestCreateRequest_HearingNotFound(t *testing.T) {
	w, _ := setupWorkflow(t)

	_, err := w.Create(context.Background(), ownerID, 9999, nil, "whatever")
	if !errors.Is(err, ErrHearingNotFound) {
		t.Fatalf("expected ErrHearingNotFound, got %v", err)
	}
}

func TestCreateRequest_NotOwner(t *testing.T) {
	w, db := setupWorkflow(t)
	hearingID := seedHearing(t, db, ownerID)

	_, err := w.Create(context.Background(), ownerID+1, hearingID, nil, "not my case")
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	var count int64
	db.Model(&database.RescheduleRequest{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no rows persisted, got %d", count)
	}
}

func TestCreateRequest_DuplicatePending(t *testing.T) {
	w, db := setupWorkflow(t)
	hearingID := seedHearing(t, db, ownerID)

	if _, err := w.Create(context.Background(), ownerID, hearingID, nil, "first"); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := w.Create(context.Background(), ownerID, hearingID, nil, "second")
	if !errors.Is(err, ErrPendingExists) {
		t.Fatalf("expected ErrPendingExists, got %v", err)
	}
}

// A resolved request frees the hearing for a fresh one.
func TestCreateRequest_AfterResolution(t *testing.T) {
	w, db := setupWorkflow(t)
	hearingID := seedHearing(t, db, ownerID)

	first, err := w.Create(context.Background(), ownerID, hearingID, nil, "first")
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	if _, err := w.Create(context.Background(), ownerID, hearingID, nil, "duplicate"); !errors.Is(err, ErrPendingExists) {
		t.Fatalf("expected ErrPendingExists, got %v", err)
	}

	approved, err := w.Approve(context.Background(), first.ID, "ok")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != database.RescheduleApproved {
		t.Errorf("expected status APPROVED, got %s", approved.Status)
	}

	if _, err := w.Create(context.Background(), ownerID, hearingID, nil, "second round"); err != nil {
		t.Fatalf("expected new request after approval, got %v", err)
	}
}

func TestApprove_StoresNotes(t *testing.T) {
	w, db := setupWorkflow(t)
	hearingID := seedHearing(t, db, ownerID)

	req, err := w.Create(context.Background(), ownerID, hearingID, nil, "conflict of dates")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := w.Approve(context.Background(), req.ID, "moved to next session"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	got, err := w.Get(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != database.RescheduleApproved {
		t.Errorf("expected status APPROVED, got %s", got.Status)
	}
	if got.AdminNotes != "moved to next session" {
		t.Errorf("expected admin notes to persist, got %q", got.AdminNotes)
	}

	// Approval never touches the hearing itself
	var hearing database.CourtHearing
	if err := db.First(&hearing, hearingID).Error; err != nil {
		t.Fatalf("hearing lookup failed: %v", err)
	}
	if hearing.Status != database.HearingScheduled {
		t.Errorf("expected hearing status unchanged, got %s", hearing.Status)
	}
}

func TestReject(t *testing.T) {
	w, db := setupWorkflow(t)
	hearingID := seedHearing(t, db, ownerID)

	req, err := w.Create(context.Background(), ownerID, hearingID, nil, "need more time")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rejected, err := w.Reject(context.Background(), req.ID, "insufficient grounds")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != database.RescheduleRejected {
		t.Errorf("expected status REJECTED, got %s", rejected.Status)
	}
}

func TestResolve_TerminalGuard(t *testing.T) {
	w, db := setupWorkflow(t)
	hearingID := seedHearing(t, db, ownerID)

	req, err := w.Create(context.Background(), ownerID, hearingID, nil, "reason")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := w.Approve(context.Background(), req.ID, ""); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if _, err := w.Approve(context.Background(), req.ID, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("re-approve: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := w.Reject(context.Background(), req.ID, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reject after approve: expected ErrInvalidTransition, got %v", err)
	}
}

func TestResolve_NotFound(t *testing.T) {
	w, _ := setupWorkflow(t)

	if _, err := w.Approve(context.Background(), 123, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("approve: expected ErrNotFound, got %v", err)
	}
	if _, err := w.Reject(context.Background(), 123, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("reject: expected ErrNotFound, got %v", err)
	}
}

// Exercises the per-hearing advisory lock on the create path. Two concurrent
// first requests both scan an empty pending set, so serializing them needs a
// real postgres instance; sqlite's single-writer connection hides the race.
func TestCreateRequest_ConcurrentSameHearing(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set TEST_POSTGRES_DSN to run the duplicate race test against postgres")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	db.Exec("DELETE FROM reschedule_requests")
	db.Exec("DELETE FROM court_hearings")
	db.Exec("DELETE FROM court_cases")

	log, err := logger.NewLogger("error", "json")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	w := NewWorkflow(db, events.NopPublisher{}, log)
	hearingID := seedHearing(t, db, ownerID)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = w.Create(context.Background(), ownerID, hearingID, nil, "race")
		}(i)
	}
	wg.Wait()

	created := 0
	for i, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrPendingExists):
		default:
			t.Errorf("worker %d: unexpected error %v", i, err)
		}
	}
	if created != 1 {
		t.Errorf("expected exactly 1 request to win, got %d", created)
	}

	var count int64
	db.Model(&database.RescheduleRequest{}).
		Where("court_hearing_id = ? AND status = ?", hearingID, database.ReschedulePending).
		Count(&count)
	if count != 1 {
		t.Errorf("expected 1 pending request persisted, got %d", count)
	}
}

func TestListByUserAndPending(t *testing.T) {
	w, db := setupWorkflow(t)
	firstHearing := seedHearing(t, db, ownerID)

	// Second case and hearing for a different user
	otherCase := &database.CourtCase{CaseNumber: "CIV/2026/0043", UserID: ownerID + 1, CourtName: "Provincial Court"}
	if err := db.Create(otherCase).Error; err != nil {
		t.Fatalf("failed to seed case: %v", err)
	}
	otherHearing := &database.CourtHearing{CourtCaseID: otherCase.ID, HearingDate: time.Now().Add(48 * time.Hour), Status: database.HearingScheduled}
	if err := db.Create(otherHearing).Error; err != nil {
		t.Fatalf("failed to seed hearing: %v", err)
	}

	mine, err := w.Create(context.Background(), ownerID, firstHearing, nil, "mine")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := w.Create(context.Background(), ownerID+1, otherHearing.ID, nil, "theirs"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	byUser, err := w.ListByUser(context.Background(), ownerID, nil)
	if err != nil {
		t.Fatalf("list by user failed: %v", err)
	}
	if len(byUser) != 1 || byUser[0].ID != mine.ID {
		t.Errorf("expected only the owner's request, got %d rows", len(byUser))
	}

	pending, err := w.ListPending(context.Background())
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("expected 2 pending requests, got %d", len(pending))
	}

	if _, err := w.Reject(context.Background(), mine.ID, "no"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	pending, err = w.ListPending(context.Background())
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("expected 1 pending request after rejection, got %d", len(pending))
	}

	rejected := database.RescheduleRejected
	filtered, err := w.ListByUser(context.Background(), ownerID, &rejected)
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if len(filtered) != 1 {
		t.Errorf("expected 1 rejected request for owner, got %d", len(filtered))
	}
}
