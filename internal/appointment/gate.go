package appointment

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/thekade/nopolin-appointments/internal/database"
)

// LawyerInfo carries the only lawyer fields the booking path consumes
type LawyerInfo struct {
	ID         uint
	IsActive   bool
	IsVerified bool
}

// LawyerReader resolves a lawyer id to its eligibility flags
type LawyerReader interface {
	LawyerByID(ctx context.Context, id uint) (*LawyerInfo, error)
}

// AvailabilityGate checks that a lawyer may receive bookings. Pure
// predicate, no side effects.
type AvailabilityGate struct {
	reader LawyerReader
}

func NewAvailabilityGate(reader LawyerReader) *AvailabilityGate {
	return &AvailabilityGate{reader: reader}
}

// Check returns ErrLawyerNotFound or ErrLawyerUnavailable when the lawyer
// cannot take bookings
func (g *AvailabilityGate) Check(ctx context.Context, lawyerID uint) error {
	info, err := g.reader.LawyerByID(ctx, lawyerID)
	if err != nil {
		return err
	}
	if !info.IsActive || !info.IsVerified {
		return ErrLawyerUnavailable
	}
	return nil
}

// gormLawyerReader reads eligibility flags directly from the lawyers table.
// Bound to a transaction handle so the gate check shares the booking
// transaction.
type gormLawyerReader struct {
	db *gorm.DB
}

func NewGormLawyerReader(db *gorm.DB) LawyerReader {
	return &gormLawyerReader{db: db}
}

func (r *gormLawyerReader) LawyerByID(ctx context.Context, id uint) (*LawyerInfo, error) {
	var lawyer database.Lawyer
	err := r.db.WithContext(ctx).
		Select("id", "is_active", "is_verified").
		First(&lawyer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLawyerNotFound
		}
		return nil, err
	}
	return &LawyerInfo{ID: lawyer.ID, IsActive: lawyer.IsActive, IsVerified: lawyer.IsVerified}, nil
}
