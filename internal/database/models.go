package database

import (
	"time"

	"gorm.io/gorm"
)

// AppointmentStatus is the appointment state machine label
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "PENDING"
	AppointmentConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
)

// ValidAppointmentStatus reports whether s is a known status label
func ValidAppointmentStatus(s AppointmentStatus) bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCancelled, AppointmentCompleted:
		return true
	}
	return false
}

// AppointmentType is the closed set of consultation kinds
type AppointmentType string

const (
	TypeConsultation    AppointmentType = "CONSULTATION"
	TypeFollowUp        AppointmentType = "FOLLOW_UP"
	TypeDocumentReview  AppointmentType = "DOCUMENT_REVIEW"
	TypeCasePreparation AppointmentType = "CASE_PREPARATION"
)

// ValidAppointmentType reports whether t is a known appointment type
func ValidAppointmentType(t AppointmentType) bool {
	switch t {
	case TypeConsultation, TypeFollowUp, TypeDocumentReview, TypeCasePreparation:
		return true
	}
	return false
}

// RescheduleStatus is the reschedule-request state machine label
type RescheduleStatus string

const (
	ReschedulePending  RescheduleStatus = "PENDING"
	RescheduleApproved RescheduleStatus = "APPROVED"
	RescheduleRejected RescheduleStatus = "REJECTED"
)

// ValidRescheduleStatus reports whether s is a known status label
func ValidRescheduleStatus(s RescheduleStatus) bool {
	switch s {
	case ReschedulePending, RescheduleApproved, RescheduleRejected:
		return true
	}
	return false
}

// HearingStatus is a closed label set; the hearing lifecycle itself is
// managed outside this service
type HearingStatus string

const (
	HearingScheduled HearingStatus = "SCHEDULED"
	HearingCompleted HearingStatus = "COMPLETED"
	HearingCancelled HearingStatus = "CANCELLED"
	HearingPostponed HearingStatus = "POSTPONED"
)

type Lawyer struct {
	gorm.Model
	UserID                      uint    `json:"user_id" gorm:"uniqueIndex;not null"`
	Name                        string  `json:"name" gorm:"not null"`
	Email                       string  `json:"email" gorm:"not null"`
	PhoneNumber                 string  `json:"phone_number"`
	Address                     string  `json:"address"`
	City                        string  `json:"city" gorm:"index"`
	Specialization              string  `json:"specialization" gorm:"index;not null"`
	ExperienceYears             int     `json:"experience_years"`
	HourlyRate                  float64 `json:"hourly_rate"`
	IsFreeConsultationAvailable bool    `json:"is_free_consultation_available" gorm:"default:false"`
	IsVerified                  bool    `json:"is_verified" gorm:"default:false"`
	IsActive                    bool    `json:"is_active" gorm:"default:true"`
	Bio                         string  `json:"bio" gorm:"type:text"`
}

type Appointment struct {
	gorm.Model
	UserID             uint              `json:"user_id" gorm:"index;not null"`
	LawyerID           uint              `json:"lawyer_id" gorm:"index;not null"`
	AppointmentDate    time.Time         `json:"appointment_date" gorm:"index;not null"`
	DurationMinutes    int               `json:"duration_minutes" gorm:"default:60"`
	AppointmentType    AppointmentType   `json:"appointment_type" gorm:"not null"`
	Status             AppointmentStatus `json:"status" gorm:"index;not null;default:'PENDING'"`
	LegalIssueType     string            `json:"legal_issue_type"`
	Description        string            `json:"description" gorm:"type:text"`
	IsFreeConsultation bool              `json:"is_free_consultation" gorm:"default:false"`
}

// WindowEnd returns the exclusive end of the occupied time window
func (a *Appointment) WindowEnd() time.Time {
	return a.AppointmentDate.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

type CourtCase struct {
	gorm.Model
	CaseNumber string `json:"case_number" gorm:"uniqueIndex;not null"`
	UserID     uint   `json:"user_id" gorm:"index;not null"`
	CourtName  string `json:"court_name"`
	CaseType   string `json:"case_type"`
	CaseTitle  string `json:"case_title"`
	IsActive   bool   `json:"is_active" gorm:"default:true"`
}

type CourtHearing struct {
	gorm.Model
	CourtCaseID uint          `json:"court_case_id" gorm:"index;not null"`
	HearingDate time.Time     `json:"hearing_date" gorm:"not null"`
	HearingType string        `json:"hearing_type"`
	CourtRoom   string        `json:"court_room"`
	JudgeName   string        `json:"judge_name"`
	Status      HearingStatus `json:"status" gorm:"default:'SCHEDULED'"`
	Notes       string        `json:"notes" gorm:"type:text"`
}

type RescheduleRequest struct {
	gorm.Model
	UserID         uint             `json:"user_id" gorm:"index;not null"`
	CourtHearingID uint             `json:"court_hearing_id" gorm:"index;not null"`
	RequestedDate  *time.Time       `json:"requested_date"`
	Reason         string           `json:"reason" gorm:"type:text;not null"`
	Status         RescheduleStatus `json:"status" gorm:"index;not null;default:'PENDING'"`
	AdminNotes     string           `json:"admin_notes" gorm:"type:text"`
}

func (Lawyer) TableName() string {
	return "lawyers"
}

func (Appointment) TableName() string {
	return "appointments"
}

func (CourtCase) TableName() string {
	return "court_cases"
}

func (CourtHearing) TableName() string {
	return "court_hearings"
}

func (RescheduleRequest) TableName() string {
	return "reschedule_requests"
}
