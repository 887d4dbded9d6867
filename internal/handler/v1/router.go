package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vhealth/vhealth-api/internal/config"
	"github.com/vhealth/vhealth-api/internal/domain"
	"github.com/vhealth/vhealth-api/internal/service"
	"github.com/vhealth/vhealth-api/pkg/auth"
	"github.com/vhealth/vhealth-api/pkg/metrics"
	"github.com/vhealth/vhealth-api/pkg/pdftext"
)

// Services bundles the wired service layer for route registration.
type Services struct {
	Auth      *service.AuthService
	Patients  *service.PatientService
	Doctors   *service.DoctorService
	Records   *service.RecordService
	Emergency *service.EmergencyService
}

// NewRouter builds the gin engine with the full /api/v1 surface.
func NewRouter(cfg *config.Config, svcs Services, jwtManager *auth.JWTManager, extractor *pdftext.Extractor, coll *metrics.Collector, log *zap.Logger) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(Metrics(coll))
	r.Use(cors(cfg.CORS))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.App.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	authHandler := NewAuthHandler(svcs.Auth)
	patientHandler := NewPatientHandler(svcs.Patients, svcs.Records, svcs.Emergency, svcs.Auth, log)
	doctorHandler := NewDoctorHandler(svcs.Doctors, svcs.Auth, log)
	recordHandler := NewRecordHandler(svcs.Records, svcs.Doctors, extractor, log)
	emergencyHandler := NewEmergencyHandler(svcs.Emergency, svcs.Doctors, log)

	api := r.Group("/api/v1")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.Refresh)
		authRoutes.POST("/change-password", Authenticate(jwtManager), authHandler.ChangePassword)
	}

	patients := api.Group("/patients")
	{
		patients.POST("", patientHandler.Register)

		own := patients.Group("", Authenticate(jwtManager), RequireRole(domain.RolePatient))
		{
			own.GET("/me", patientHandler.GetProfile)
			own.PATCH("/me/contacts", patientHandler.UpdateContacts)
			own.PATCH("/me/medications", patientHandler.UpdateMedications)
			own.GET("/me/records", patientHandler.ListRecords)
			own.GET("/me/notifications", patientHandler.ListNotifications)
		}
	}

	doctors := api.Group("/doctors")
	{
		doctors.POST("", doctorHandler.Register)
		doctors.GET("/me", Authenticate(jwtManager), RequireRole(domain.RoleDoctor), doctorHandler.GetProfile)
	}

	records := api.Group("/records", Authenticate(jwtManager))
	{
		doctorOnly := records.Group("", RequireRole(domain.RoleDoctor))
		doctorOnly.POST("", recordHandler.Upload)
		doctorOnly.POST("/extract-text", recordHandler.ExtractText)

		records.GET("/:id/file", RequireRole(domain.RoleDoctor, domain.RolePatient), recordHandler.Download)
	}

	emergencyRoutes := api.Group("/emergency", Authenticate(jwtManager), RequireRole(domain.RoleDoctor))
	{
		emergencyRoutes.POST("/access", emergencyHandler.Access)
		emergencyRoutes.GET("/patients", emergencyHandler.ListPatients)
	}

	return r
}

func cors(cfg config.CORSConfig) gin.HandlerFunc {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	wildcard := false
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			wildcard = true
		}
		allowed[origin] = true
	}

	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(int(cfg.MaxAge.Seconds()))

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (wildcard || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Allow-Headers", headers)
			c.Header("Access-Control-Max-Age", maxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
