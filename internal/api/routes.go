package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/thekade/nopolin-appointments/internal/appointment"
	"github.com/thekade/nopolin-appointments/internal/auth"
	"github.com/thekade/nopolin-appointments/internal/cache"
	"github.com/thekade/nopolin-appointments/internal/cases"
	"github.com/thekade/nopolin-appointments/internal/config"
	"github.com/thekade/nopolin-appointments/internal/events"
	"github.com/thekade/nopolin-appointments/internal/lawyers"
	"github.com/thekade/nopolin-appointments/internal/reschedule"
	"github.com/thekade/nopolin-appointments/pkg/logger"
)

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, c cache.Cache, pub events.Publisher, log *logger.Logger, cfg *config.Config) {
	h := NewHandlers(
		db,
		appointment.NewWorkflow(db, pub, log),
		reschedule.NewWorkflow(db, pub, log),
		lawyers.NewDirectory(db, c),
		cases.NewService(db),
		c,
		log,
		cfg,
	)

	authed := auth.RequireAuth(cfg.JWTSecret)
	citizenOnly := auth.RequireRoles(auth.RoleCitizen)
	staffOnly := auth.RequireRoles(auth.RoleAdmin, auth.RoleGovOfficer)
	anyRole := auth.RequireRoles(auth.RoleCitizen, auth.RoleAdmin, auth.RoleGovOfficer)

	api := router.Group("/api")
	{
		// Health check
		api.GET("/health", h.HealthCheck)

		// Cache stats
		api.GET("/cache/stats", h.CacheStats)

		if cfg.DevTokenIssuer {
			api.POST("/auth/token", h.IssueDevToken)
		}

		appts := api.Group("/appointments", authed)
		{
			appts.POST("", citizenOnly, h.BookAppointment)
			appts.GET("/user", citizenOnly, h.GetUserAppointments)
			appts.GET("/user/status/:status", citizenOnly, h.GetUserAppointmentsByStatus)
			appts.GET("/lawyer/:id", staffOnly, h.GetLawyerAppointments)
			appts.GET("/lawyer/:id/status/:status", staffOnly, h.GetLawyerAppointmentsByStatus)
			appts.GET("/upcoming", staffOnly, h.GetUpcomingAppointments)
			appts.GET("/:id", h.GetAppointmentByID)
			appts.PUT("/:id/confirm", staffOnly, h.ConfirmAppointment)
			appts.PUT("/:id/cancel", anyRole, h.CancelAppointment)
			appts.PUT("/:id/complete", staffOnly, h.CompleteAppointment)
		}

		resch := api.Group("/reschedule-requests", authed)
		{
			resch.POST("", citizenOnly, h.CreateRescheduleRequest)
			resch.GET("/user", citizenOnly, h.GetUserRescheduleRequests)
			resch.GET("/user/status/:status", citizenOnly, h.GetUserRescheduleRequestsByStatus)
			resch.GET("/pending", staffOnly, h.GetPendingRescheduleRequests)
			resch.GET("/:id", h.GetRescheduleRequestByID)
			resch.PUT("/:id/approve", staffOnly, h.ApproveRescheduleRequest)
			resch.PUT("/:id/reject", staffOnly, h.RejectRescheduleRequest)
		}

		lwy := api.Group("/lawyers")
		{
			lwy.GET("", h.ListLawyers)
			lwy.GET("/free-consultation", h.ListFreeConsultationLawyers)
			lwy.GET("/user/:id", h.GetLawyerByUserID)
			lwy.GET("/:id", h.GetLawyerByID)
			lwy.POST("", authed, auth.RequireRoles(auth.RoleAdmin), h.RegisterLawyer)
			lwy.PUT("/:id/verify", authed, auth.RequireRoles(auth.RoleAdmin), h.VerifyLawyer)
			lwy.PUT("/:id/deactivate", authed, auth.RequireRoles(auth.RoleAdmin), h.DeactivateLawyer)
		}

		cs := api.Group("/cases", authed)
		{
			cs.POST("", citizenOnly, h.CreateCase)
			cs.GET("/user", citizenOnly, h.GetUserCases)
			cs.GET("/number", anyRole, h.GetCaseByNumber)
			cs.GET("/hearings/upcoming", citizenOnly, h.GetUpcomingHearings)
			cs.GET("/hearings/scheduled", staffOnly, h.GetScheduledHearings)
			cs.POST("/:id/hearings", staffOnly, h.AddHearing)
			cs.GET("/:id/hearings", anyRole, h.GetCaseHearings)
			cs.PUT("/:id/deactivate", staffOnly, h.DeactivateCase)
		}
	}
}
