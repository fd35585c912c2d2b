package lawyers

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/thekade/nopolin-appointments/internal/cache"
	"github.com/thekade/nopolin-appointments/internal/database"
)

// ErrNotFound means the lawyer id did not resolve
var ErrNotFound = errors.New("lawyer not found")

// ErrDuplicateUser means the user already has a lawyer profile
var ErrDuplicateUser = errors.New("lawyer profile already exists for this user")

// RegisterInput carries the fields of a new lawyer profile
type RegisterInput struct {
	UserID                      uint
	Name                        string
	Email                       string
	PhoneNumber                 string
	Address                     string
	City                        string
	Specialization              string
	ExperienceYears             int
	HourlyRate                  float64
	IsFreeConsultationAvailable bool
	Bio                         string
}

// Directory manages lawyer profiles and serves the verified listings the
// booking flow links to. Listing reads go through the TTL cache; profile
// writes invalidate it.
type Directory struct {
	db    *gorm.DB
	cache cache.Cache
}

func NewDirectory(db *gorm.DB, c cache.Cache) *Directory {
	return &Directory{db: db, cache: c}
}

// Register creates an unverified lawyer profile
func (d *Directory) Register(ctx context.Context, in RegisterInput) (*database.Lawyer, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&database.Lawyer{}).Where("user_id = ?", in.UserID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateUser
	}

	lawyer := &database.Lawyer{
		UserID:                      in.UserID,
		Name:                        in.Name,
		Email:                       in.Email,
		PhoneNumber:                 in.PhoneNumber,
		Address:                     in.Address,
		City:                        in.City,
		Specialization:              in.Specialization,
		ExperienceYears:             in.ExperienceYears,
		HourlyRate:                  in.HourlyRate,
		IsFreeConsultationAvailable: in.IsFreeConsultationAvailable,
		IsVerified:                  false,
		IsActive:                    true,
		Bio:                         in.Bio,
	}
	if err := d.db.WithContext(ctx).Create(lawyer).Error; err != nil {
		return nil, err
	}
	return lawyer, nil
}

// Get fetches a lawyer profile by id
func (d *Directory) Get(ctx context.Context, id uint) (*database.Lawyer, error) {
	var lawyer database.Lawyer
	if err := d.db.WithContext(ctx).First(&lawyer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lawyer, nil
}

// GetByUser fetches the lawyer profile attached to a user account
func (d *Directory) GetByUser(ctx context.Context, userID uint) (*database.Lawyer, error) {
	var lawyer database.Lawyer
	if err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&lawyer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lawyer, nil
}

// Verified lists verified, active lawyers, optionally filtered by
// specialization and city
func (d *Directory) Verified(ctx context.Context, specialization, city string) ([]database.Lawyer, error) {
	key := cache.GenerateListingKey("verified", specialization, city)
	if cached, found := d.cache.Get(key); found {
		return cached, nil
	}

	q := d.db.WithContext(ctx).
		Where("is_verified = ? AND is_active = ?", true, true)
	if specialization != "" {
		q = q.Where("specialization = ?", specialization)
	}
	if city != "" {
		q = q.Where("city = ?", city)
	}

	var lawyers []database.Lawyer
	if err := q.Order("name ASC").Find(&lawyers).Error; err != nil {
		return nil, err
	}

	d.cache.Set(key, lawyers)
	return lawyers, nil
}

// FreeConsultation lists verified, active lawyers offering free consultations
func (d *Directory) FreeConsultation(ctx context.Context) ([]database.Lawyer, error) {
	key := cache.GenerateListingKey("free-consultation")
	if cached, found := d.cache.Get(key); found {
		return cached, nil
	}

	var lawyers []database.Lawyer
	err := d.db.WithContext(ctx).
		Where("is_free_consultation_available = ? AND is_verified = ? AND is_active = ?", true, true, true).
		Order("name ASC").
		Find(&lawyers).Error
	if err != nil {
		return nil, err
	}

	d.cache.Set(key, lawyers)
	return lawyers, nil
}

// Verify marks a lawyer profile as verified
func (d *Directory) Verify(ctx context.Context, id uint) (*database.Lawyer, error) {
	return d.setFlag(ctx, id, "is_verified", true)
}

// Deactivate takes a lawyer out of all listings and blocks new bookings
func (d *Directory) Deactivate(ctx context.Context, id uint) (*database.Lawyer, error) {
	return d.setFlag(ctx, id, "is_active", false)
}

func (d *Directory) setFlag(ctx context.Context, id uint, column string, value bool) (*database.Lawyer, error) {
	var lawyer database.Lawyer
	if err := d.db.WithContext(ctx).First(&lawyer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := d.db.WithContext(ctx).Model(&lawyer).Update(column, value).Error; err != nil {
		return nil, err
	}

	// Listing membership changed; drop all cached listings
	d.cache.Clear()
	return &lawyer, nil
}
