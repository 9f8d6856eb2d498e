package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/tashmeduni/navbat-back/docs"
	"github.com/tashmeduni/navbat-back/internal/auth"
	"github.com/tashmeduni/navbat-back/internal/catchup"
	"github.com/tashmeduni/navbat-back/internal/config"
	"github.com/tashmeduni/navbat-back/internal/db"
	"github.com/tashmeduni/navbat-back/internal/external"
)

// @title           Navbat API
// @version         1.0
// @description     Queue management backend for university catch-up classes.
// @host            localhost:8000
// @BasePath        /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func SetupRouter(cfg *config.Config, svc *catchup.Service) *gin.Engine {
	auth.InitGoogle(cfg)

	r := gin.Default()

	ch := NewCatchupHandler(svc)
	hemis := external.NewHemisClient(cfg.HemisAPIURL, cfg.HemisAPIToken)

	r.GET("/health", func(c *gin.Context) {
		if err := db.PingDB(); err != nil {
			c.JSON(500, gin.H{"status": "db_ping_error"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")

	// Public routes
	api.POST("/auth/admin-login", auth.AdminLoginHandler(cfg))
	api.POST("/auth/student-login", auth.StudentLoginHandler(cfg))
	api.POST("/auth/refresh", auth.RefreshHandler(cfg))
	api.GET("/auth/google/login", auth.GoogleLoginHandler())
	api.GET("/auth/google/callback", auth.GoogleCallbackHandler(cfg))

	// Queue monitor screens poll this without a session.
	api.GET("/catchup-schedule/pending-students-admin/:id", ch.QueueMonitor)

	// Admin routes
	admin := api.Group("")
	admin.Use(auth.Middleware(cfg), auth.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/building", ListBuildings)
		admin.POST("/building", CreateBuilding)
		admin.PATCH("/building/:id", UpdateBuilding)
		admin.DELETE("/building/:id", DeleteBuilding)

		admin.GET("/facultet", ListFacultets)
		admin.GET("/facultet/by-building/:id", FacultetsByBuilding)
		admin.POST("/facultet", CreateFacultet)
		admin.PATCH("/facultet/:id", UpdateFacultet)
		admin.DELETE("/facultet/:id", DeleteFacultet)

		admin.GET("/student", ListStudents)
		admin.POST("/student", CreateStudent)
		admin.PATCH("/student/:id", UpdateStudent)
		admin.DELETE("/student/:id", DeleteStudent)
		admin.POST("/student/import", ImportStudents)

		admin.GET("/catchup-schedule", ch.ListSchedules)
		admin.POST("/catchup-schedule", ch.CreateSchedule)
		admin.PATCH("/catchup-schedule/:id", ch.UpdateSchedule)
		admin.DELETE("/catchup-schedule/:id", ch.DeleteSchedule)
		admin.GET("/catchup-schedule/by-catchup-schedule", ch.RegistrationsBySchedule)
		admin.POST("/catchup-schedule/scan-qr", ch.ScanQR)
		admin.POST("/catchup-schedule/mark-arrived", ch.MarkArrived)
		admin.POST("/catchup-schedule/mark-absent", ch.MarkAbsent)
		admin.GET("/catchup-schedule/export/:id", ch.ExportSchedule)

		admin.GET("/external/get-2mb-student/:hemisId", StudentArrears(hemis))
	}

	// Routes shared by both roles
	authed := api.Group("")
	authed.Use(auth.Middleware(cfg))
	{
		authed.GET("/catchup-schedule/by-student", ch.SchedulesByStudent)
		authed.GET("/catchup-schedule/time-slot-statistics/:id", ch.TimeSlotStatistics)
		authed.GET("/catchup-schedule/queue-student", ch.StudentQueues)
		authed.GET("/catchup-schedule/:id", ch.GetSchedule)
	}

	// Student-only routes
	student := api.Group("")
	student.Use(auth.Middleware(cfg), auth.RequireRole(auth.RoleStudent))
	{
		student.POST("/catchup-schedule/register-queue", ch.RegisterQueue)
		student.DELETE("/catchup-schedule/queue-student/:id", ch.CancelQueue)
	}

	return r
}
