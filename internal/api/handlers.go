package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/thekade/nopolin-appointments/internal/appointment"
	"github.com/thekade/nopolin-appointments/internal/auth"
	"github.com/thekade/nopolin-appointments/internal/cache"
	"github.com/thekade/nopolin-appointments/internal/cases"
	"github.com/thekade/nopolin-appointments/internal/config"
	"github.com/thekade/nopolin-appointments/internal/database"
	"github.com/thekade/nopolin-appointments/internal/lawyers"
	"github.com/thekade/nopolin-appointments/internal/reschedule"
	"github.com/thekade/nopolin-appointments/pkg/logger"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	db           *gorm.DB
	appointments *appointment.Workflow
	reschedules  *reschedule.Workflow
	directory    *lawyers.Directory
	cases        *cases.Service
	cache        cache.Cache
	logger       *logger.Logger
	cfg          *config.Config
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	db *gorm.DB,
	appointments *appointment.Workflow,
	reschedules *reschedule.Workflow,
	directory *lawyers.Directory,
	caseSvc *cases.Service,
	c cache.Cache,
	log *logger.Logger,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		db:           db,
		appointments: appointments,
		reschedules:  reschedules,
		directory:    directory,
		cases:        caseSvc,
		cache:        c,
		logger:       log,
		cfg:          cfg,
	}
}

// respondError maps domain errors to HTTP statuses
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, appointment.ErrNotFound),
		errors.Is(err, appointment.ErrLawyerNotFound),
		errors.Is(err, reschedule.ErrNotFound),
		errors.Is(err, reschedule.ErrHearingNotFound),
		errors.Is(err, lawyers.ErrNotFound),
		errors.Is(err, cases.ErrCaseNotFound),
		errors.Is(err, cases.ErrHearingNotFound):
		status = http.StatusNotFound
	case errors.Is(err, reschedule.ErrNotOwner),
		errors.Is(err, cases.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, appointment.ErrSlotTaken),
		errors.Is(err, appointment.ErrLawyerUnavailable),
		errors.Is(err, appointment.ErrInvalidTransition),
		errors.Is(err, reschedule.ErrPendingExists),
		errors.Is(err, reschedule.ErrInvalidTransition),
		errors.Is(err, lawyers.ErrDuplicateUser),
		errors.Is(err, cases.ErrDuplicateCaseNumber):
		status = http.StatusConflict
	case errors.Is(err, appointment.ErrInvalidWindow),
		errors.Is(err, appointment.ErrInvalidType),
		errors.Is(err, reschedule.ErrReasonRequired):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"success": false, "error": "internal error"})
		return
	}

	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// BookAppointment books a legal consultation appointment for the caller
func (h *Handlers) BookAppointment(c *gin.Context) {
	var req struct {
		LawyerID           uint      `json:"lawyer_id" binding:"required"`
		AppointmentDate    time.Time `json:"appointment_date" binding:"required"`
		DurationMinutes    int       `json:"duration_minutes"`
		AppointmentType    string    `json:"appointment_type" binding:"required"`
		LegalIssueType     string    `json:"legal_issue_type"`
		Description        string    `json:"description"`
		IsFreeConsultation bool      `json:"is_free_consultation"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	claims := auth.FromContext(c)
	appt, err := h.appointments.Create(c.Request.Context(), appointment.CreateInput{
		UserID:             claims.UserID,
		LawyerID:           req.LawyerID,
		AppointmentDate:    req.AppointmentDate,
		DurationMinutes:    req.DurationMinutes,
		AppointmentType:    database.AppointmentType(req.AppointmentType),
		LegalIssueType:     req.LegalIssueType,
		Description:        req.Description,
		IsFreeConsultation: req.IsFreeConsultation,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": appt})
}

// GetUserAppointments returns the caller's appointments
func (h *Handlers) GetUserAppointments(c *gin.Context) {
	claims := auth.FromContext(c)
	appts, err := h.appointments.ListByUser(c.Request.Context(), claims.UserID, nil)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": appts})
}

// GetUserAppointmentsByStatus returns the caller's appointments with a status
func (h *Handlers) GetUserAppointmentsByStatus(c *gin.Context) {
	status := database.AppointmentStatus(c.Param("status"))
	if !database.ValidAppointmentStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown status"})
		return
	}

	claims := auth.FromContext(c)
	appts, err := h.appointments.ListByUser(c.Request.Context(), claims.UserID, &status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": appts})
}

// GetLawyerAppointments returns a lawyer's appointments
func (h *Handlers) GetLawyerAppointments(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	appts, err := h.appointments.ListByLawyer(c.Request.Context(), id, nil)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": appts})
}

// GetLawyerAppointmentsByStatus returns a lawyer's appointments with a status
func (h *Handlers) GetLawyerAppointmentsByStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	status := database.AppointmentStatus(c.Param("status"))
	if !database.ValidAppointmentStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown status"})
		return
	}
	appts, err := h.appointments.ListByLawyer(c.Request.Context(), id, &status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": appts})
}

// GetAppointmentByID returns a single appointment
func (h *Handlers) GetAppointmentByID(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	appt, err := h.appointments.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": appt})
}

// ConfirmAppointment confirms a pending appointment
func (h *Handlers) ConfirmAppointment(c *gin.Context) {
	h.transitionAppointment(c, h.appointments.Confirm)
}

// CancelAppointment cancels a pending or confirmed appointment
func (h *Handlers) CancelAppointment(c *gin.Context) {
	h.transitionAppointment(c, h.appointments.Cancel)
}

// CompleteAppointment marks a confirmed appointment as completed
func (h *Handlers) CompleteAppointment(c *gin.Context) {
	h.transitionAppointment(c, h.appointments.Complete)
}

func (h *Handlers) transitionAppointment(c *gin.Context, op func(ctx context.Context, id uint) (*database.Appointment, error)) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	appt, err := op(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": appt})
}

// GetUpcomingAppointments returns confirmed appointments in a date range
func (h *Handlers) GetUpcomingAppointments(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid start"})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid end"})
		return
	}

	appts, err := h.appointments.Upcoming(c.Request.Context(), start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": appts})
}

// CreateRescheduleRequest files a hearing reschedule request for the caller
func (h *Handlers) CreateRescheduleRequest(c *gin.Context) {
	var req struct {
		CourtHearingID uint       `json:"court_hearing_id" binding:"required"`
		RequestedDate  *time.Time `json:"requested_date"`
		Reason         string     `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	claims := auth.FromContext(c)
	r, err := h.reschedules.Create(c.Request.Context(), claims.UserID, req.CourtHearingID, req.RequestedDate, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": r})
}

// GetUserRescheduleRequests returns the caller's reschedule requests
func (h *Handlers) GetUserRescheduleRequests(c *gin.Context) {
	claims := auth.FromContext(c)
	reqs, err := h.reschedules.ListByUser(c.Request.Context(), claims.UserID, nil)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": reqs})
}

// GetUserRescheduleRequestsByStatus filters the caller's requests by status
func (h *Handlers) GetUserRescheduleRequestsByStatus(c *gin.Context) {
	status := database.RescheduleStatus(c.Param("status"))
	if !database.ValidRescheduleStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown status"})
		return
	}

	claims := auth.FromContext(c)
	reqs, err := h.reschedules.ListByUser(c.Request.Context(), claims.UserID, &status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": reqs})
}

// GetPendingRescheduleRequests returns all pending requests for review
func (h *Handlers) GetPendingRescheduleRequests(c *gin.Context) {
	reqs, err := h.reschedules.ListPending(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": reqs})
}

// GetRescheduleRequestByID returns a single reschedule request
func (h *Handlers) GetRescheduleRequestByID(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	r, err := h.reschedules.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": r})
}

// ApproveRescheduleRequest approves a pending request with optional notes
func (h *Handlers) ApproveRescheduleRequest(c *gin.Context) {
	h.resolveReschedule(c, h.reschedules.Approve)
}

// RejectRescheduleRequest rejects a pending request with optional notes
func (h *Handlers) RejectRescheduleRequest(c *gin.Context) {
	h.resolveReschedule(c, h.reschedules.Reject)
}

func (h *Handlers) resolveReschedule(c *gin.Context, op func(ctx context.Context, id uint, notes string) (*database.RescheduleRequest, error)) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req struct {
		AdminNotes string `json:"admin_notes"`
	}
	// Body is optional; notes default to empty
	_ = c.ShouldBindJSON(&req)

	r, err := op(c.Request.Context(), id, req.AdminNotes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": r})
}

// RegisterLawyer creates an unverified lawyer profile
func (h *Handlers) RegisterLawyer(c *gin.Context) {
	var req struct {
		UserID                      uint    `json:"user_id" binding:"required"`
		Name                        string  `json:"name" binding:"required"`
		Email                       string  `json:"email" binding:"required,email"`
		PhoneNumber                 string  `json:"phone_number"`
		Address                     string  `json:"address"`
		City                        string  `json:"city"`
		Specialization              string  `json:"specialization" binding:"required"`
		ExperienceYears             int     `json:"experience_years"`
		HourlyRate                  float64 `json:"hourly_rate"`
		IsFreeConsultationAvailable bool    `json:"is_free_consultation_available"`
		Bio                         string  `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	lawyer, err := h.directory.Register(c.Request.Context(), lawyers.RegisterInput{
		UserID:                      req.UserID,
		Name:                        req.Name,
		Email:                       req.Email,
		PhoneNumber:                 req.PhoneNumber,
		Address:                     req.Address,
		City:                        req.City,
		Specialization:              req.Specialization,
		ExperienceYears:             req.ExperienceYears,
		HourlyRate:                  req.HourlyRate,
		IsFreeConsultationAvailable: req.IsFreeConsultationAvailable,
		Bio:                         req.Bio,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": lawyer})
}

// ListLawyers returns verified, active lawyers with optional filters
func (h *Handlers) ListLawyers(c *gin.Context) {
	list, err := h.directory.Verified(c.Request.Context(), c.Query("specialization"), c.Query("city"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
}

// ListFreeConsultationLawyers returns lawyers offering free consultations
func (h *Handlers) ListFreeConsultationLawyers(c *gin.Context) {
	list, err := h.directory.FreeConsultation(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
}

// GetLawyerByID returns a single lawyer profile
func (h *Handlers) GetLawyerByID(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	lawyer, err := h.directory.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": lawyer})
}

// GetLawyerByUserID returns the lawyer profile attached to a user account
func (h *Handlers) GetLawyerByUserID(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	lawyer, err := h.directory.GetByUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": lawyer})
}

// VerifyLawyer marks a lawyer as verified
func (h *Handlers) VerifyLawyer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	lawyer, err := h.directory.Verify(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": lawyer})
}

// DeactivateLawyer takes a lawyer out of listings and blocks new bookings
func (h *Handlers) DeactivateLawyer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	lawyer, err := h.directory.Deactivate(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": lawyer})
}

// CreateCase registers a court case for the caller
func (h *Handlers) CreateCase(c *gin.Context) {
	var req struct {
		CaseNumber string `json:"case_number" binding:"required"`
		CourtName  string `json:"court_name"`
		CaseType   string `json:"case_type"`
		CaseTitle  string `json:"case_title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	claims := auth.FromContext(c)
	cc, err := h.cases.CreateCase(c.Request.Context(), cases.CreateCaseInput{
		CaseNumber: req.CaseNumber,
		UserID:     claims.UserID,
		CourtName:  req.CourtName,
		CaseType:   req.CaseType,
		CaseTitle:  req.CaseTitle,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": cc})
}

// GetUserCases returns the caller's court cases
func (h *Handlers) GetUserCases(c *gin.Context) {
	claims := auth.FromContext(c)
	ccs, err := h.cases.CasesByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": ccs})
}

// AddHearing schedules a hearing under a case
func (h *Handlers) AddHearing(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req struct {
		HearingDate time.Time `json:"hearing_date" binding:"required"`
		HearingType string    `json:"hearing_type"`
		CourtRoom   string    `json:"court_room"`
		JudgeName   string    `json:"judge_name"`
		Notes       string    `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	hearing, err := h.cases.AddHearing(c.Request.Context(), cases.AddHearingInput{
		CourtCaseID: id,
		HearingDate: req.HearingDate,
		HearingType: req.HearingType,
		CourtRoom:   req.CourtRoom,
		JudgeName:   req.JudgeName,
		Notes:       req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": hearing})
}

// GetCaseByNumber looks a case up by its court-assigned number; citizens
// can only resolve their own cases. The number rides in a query parameter
// because it contains slashes.
func (h *Handlers) GetCaseByNumber(c *gin.Context) {
	number := c.Query("number")
	if number == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "number is required"})
		return
	}

	cc, err := h.cases.CaseByNumber(c.Request.Context(), number)
	if err != nil {
		h.respondError(c, err)
		return
	}

	claims := auth.FromContext(c)
	if claims.Role == auth.RoleCitizen && cc.UserID != claims.UserID {
		h.respondError(c, cases.ErrNotOwner)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cc})
}

// DeactivateCase marks a case inactive
func (h *Handlers) DeactivateCase(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	cc, err := h.cases.DeactivateCase(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cc})
}

// GetUpcomingHearings returns the caller's future scheduled hearings
func (h *Handlers) GetUpcomingHearings(c *gin.Context) {
	claims := auth.FromContext(c)
	hearings, err := h.cases.UpcomingHearingsByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": hearings})
}

// GetScheduledHearings returns scheduled hearings in a date range
func (h *Handlers) GetScheduledHearings(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid start"})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid end"})
		return
	}

	hearings, err := h.cases.ScheduledHearingsInRange(c.Request.Context(), start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": hearings})
}

// GetCaseHearings lists the hearings of a case; citizens see only their own
func (h *Handlers) GetCaseHearings(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	claims := auth.FromContext(c)
	requireOwner := claims.Role == auth.RoleCitizen
	hearings, err := h.cases.HearingsByCase(c.Request.Context(), id, claims.UserID, requireOwner)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": hearings})
}

// IssueDevToken mints a token for local development and tests
func (h *Handlers) IssueDevToken(c *gin.Context) {
	var req struct {
		UserID uint   `json:"user_id" binding:"required"`
		Role   string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if !auth.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown role"})
		return
	}

	token, err := auth.CreateAccessToken(h.cfg.JWTSecret, req.UserID, req.Role, h.cfg.TokenTTL)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

// HealthCheck returns the health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	// Check database connection
	var count int64
	dbHealthy := h.db.Model(&database.Appointment{}).Count(&count).Error == nil

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": dbHealthy,
		"cache":    h.cache.Stats(),
		"time":     time.Now().Unix(),
	})
}

// CacheStats returns cache statistics
func (h *Handlers) CacheStats(c *gin.Context) {
	stats := h.cache.Stats()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}
