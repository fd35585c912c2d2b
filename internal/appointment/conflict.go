package appointment

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thekade/nopolin-appointments/internal/database"
)

// MaxDurationMinutes bounds a single appointment to one day. It also bounds
// the conflict scan: any active appointment starting earlier than
// windowStart minus this bound cannot reach into the window.
const MaxDurationMinutes = 24 * 60

// ConflictChecker detects time-overlapping active appointments for a lawyer
type ConflictChecker struct {
	db *gorm.DB
}

func NewConflictChecker(db *gorm.DB) *ConflictChecker {
	return &ConflictChecker{db: db}
}

// FindConflicts returns the ids of PENDING or CONFIRMED appointments whose
// half-open window [appointment_date, appointment_date+duration) overlaps
// [windowStart, windowEnd). Candidate rows are locked for update when the
// dialect supports it, so a caller running inside a transaction holds them
// until commit.
func (c *ConflictChecker) FindConflicts(ctx context.Context, lawyerID uint, windowStart, windowEnd time.Time) ([]uint, error) {
	earliest := windowStart.Add(-time.Duration(MaxDurationMinutes) * time.Minute)

	q := c.db.WithContext(ctx).
		Model(&database.Appointment{}).
		Where("lawyer_id = ?", lawyerID).
		Where("status IN ?", []database.AppointmentStatus{database.AppointmentPending, database.AppointmentConfirmed}).
		Where("appointment_date < ? AND appointment_date > ?", windowEnd, earliest)

	if database.SupportsRowLocking(c.db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var candidates []database.Appointment
	if err := q.Find(&candidates).Error; err != nil {
		return nil, err
	}

	var conflicts []uint
	for i := range candidates {
		if overlaps(candidates[i].AppointmentDate, candidates[i].WindowEnd(), windowStart, windowEnd) {
			conflicts = append(conflicts, candidates[i].ID)
		}
	}
	return conflicts, nil
}

// overlaps tests two half-open intervals: [startA, endA) and [startB, endB)
// overlap iff startA < endB && startB < endA
func overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && startB.Before(endA)
}
