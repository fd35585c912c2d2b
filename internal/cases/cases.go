package cases

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/thekade/nopolin-appointments/internal/database"
)

var (
	// ErrCaseNotFound means the court case id did not resolve
	ErrCaseNotFound = errors.New("court case not found")

	// ErrHearingNotFound means the court hearing id did not resolve
	ErrHearingNotFound = errors.New("court hearing not found")

	// ErrNotOwner means the caller does not own the court case
	ErrNotOwner = errors.New("court case belongs to another user")

	// ErrDuplicateCaseNumber means the case number is already registered
	ErrDuplicateCaseNumber = errors.New("case number already registered")
)

// CreateCaseInput carries the fields of a new court case record
type CreateCaseInput struct {
	CaseNumber string
	UserID     uint
	CourtName  string
	CaseType   string
	CaseTitle  string
}

// AddHearingInput carries the fields of a new hearing under a case
type AddHearingInput struct {
	CourtCaseID uint
	HearingDate time.Time
	HearingType string
	CourtRoom   string
	JudgeName   string
	Notes       string
}

// Service manages court case and hearing records. The reschedule workflow
// reads these; hearing lifecycle changes happen outside this service.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateCase registers a court case for a citizen
func (s *Service) CreateCase(ctx context.Context, in CreateCaseInput) (*database.CourtCase, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&database.CourtCase{}).Where("case_number = ?", in.CaseNumber).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateCaseNumber
	}

	cc := &database.CourtCase{
		CaseNumber: in.CaseNumber,
		UserID:     in.UserID,
		CourtName:  in.CourtName,
		CaseType:   in.CaseType,
		CaseTitle:  in.CaseTitle,
		IsActive:   true,
	}
	if err := s.db.WithContext(ctx).Create(cc).Error; err != nil {
		return nil, err
	}
	return cc, nil
}

// AddHearing schedules a hearing under an existing case
func (s *Service) AddHearing(ctx context.Context, in AddHearingInput) (*database.CourtHearing, error) {
	var cc database.CourtCase
	if err := s.db.WithContext(ctx).First(&cc, in.CourtCaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	hearing := &database.CourtHearing{
		CourtCaseID: in.CourtCaseID,
		HearingDate: in.HearingDate,
		HearingType: in.HearingType,
		CourtRoom:   in.CourtRoom,
		JudgeName:   in.JudgeName,
		Status:      database.HearingScheduled,
		Notes:       in.Notes,
	}
	if err := s.db.WithContext(ctx).Create(hearing).Error; err != nil {
		return nil, err
	}
	return hearing, nil
}

// CaseByNumber fetches a case by its court-assigned number
func (s *Service) CaseByNumber(ctx context.Context, caseNumber string) (*database.CourtCase, error) {
	var cc database.CourtCase
	if err := s.db.WithContext(ctx).Where("case_number = ?", caseNumber).First(&cc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	return &cc, nil
}

// DeactivateCase marks a case inactive; its records and hearings remain
func (s *Service) DeactivateCase(ctx context.Context, id uint) (*database.CourtCase, error) {
	var cc database.CourtCase
	if err := s.db.WithContext(ctx).First(&cc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&cc).Update("is_active", false).Error; err != nil {
		return nil, err
	}
	return &cc, nil
}

// CasesByUser lists a citizen's own court cases
func (s *Service) CasesByUser(ctx context.Context, userID uint) ([]database.CourtCase, error) {
	var ccs []database.CourtCase
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&ccs).Error
	if err != nil {
		return nil, err
	}
	return ccs, nil
}

// HearingsByCase lists the hearings of a case. When requireOwner is set the
// case must belong to userID.
func (s *Service) HearingsByCase(ctx context.Context, caseID, userID uint, requireOwner bool) ([]database.CourtHearing, error) {
	var cc database.CourtCase
	if err := s.db.WithContext(ctx).First(&cc, caseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	if requireOwner && cc.UserID != userID {
		return nil, ErrNotOwner
	}

	var hearings []database.CourtHearing
	err := s.db.WithContext(ctx).
		Where("court_case_id = ?", caseID).
		Order("hearing_date ASC").
		Find(&hearings).Error
	if err != nil {
		return nil, err
	}
	return hearings, nil
}

// UpcomingHearingsByUser lists the still-scheduled future hearings across a
// citizen's cases, soonest first
func (s *Service) UpcomingHearingsByUser(ctx context.Context, userID uint) ([]database.CourtHearing, error) {
	var hearings []database.CourtHearing
	err := s.db.WithContext(ctx).
		Joins("JOIN court_cases ON court_cases.id = court_hearings.court_case_id").
		Where("court_cases.user_id = ?", userID).
		Where("court_hearings.hearing_date > ?", time.Now()).
		Where("court_hearings.status = ?", database.HearingScheduled).
		Order("court_hearings.hearing_date ASC").
		Find(&hearings).Error
	if err != nil {
		return nil, err
	}
	return hearings, nil
}

// ScheduledHearingsInRange lists scheduled hearings within the date range
func (s *Service) ScheduledHearingsInRange(ctx context.Context, from, to time.Time) ([]database.CourtHearing, error) {
	var hearings []database.CourtHearing
	err := s.db.WithContext(ctx).
		Where("hearing_date >= ? AND hearing_date <= ?", from, to).
		Where("status = ?", database.HearingScheduled).
		Order("hearing_date ASC").
		Find(&hearings).Error
	if err != nil {
		return nil, err
	}
	return hearings, nil
}

// HearingByID fetches a hearing record
func (s *Service) HearingByID(ctx context.Context, id uint) (*database.CourtHearing, error) {
	var hearing database.CourtHearing
	if err := s.db.WithContext(ctx).First(&hearing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHearingNotFound
		}
		return nil, err
	}
	return &hearing, nil
}
