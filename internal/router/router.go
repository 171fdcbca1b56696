package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	appointmenthandler "github.com/citamed/scheduling-api/internal/handler/appointment"
	"github.com/citamed/scheduling-api/internal/handler/health"
	patienthandler "github.com/citamed/scheduling-api/internal/handler/patient"
	professionalhandler "github.com/citamed/scheduling-api/internal/handler/professional"
	settingshandler "github.com/citamed/scheduling-api/internal/handler/settings"
	specialtyhandler "github.com/citamed/scheduling-api/internal/handler/specialty"
	waitlisthandler "github.com/citamed/scheduling-api/internal/handler/waitlist"
	"github.com/citamed/scheduling-api/internal/handler/webhook"
	"github.com/citamed/scheduling-api/internal/middleware"
)

// Handlers bundles every route group the API exposes.
type Handlers struct {
	Appointment  *appointmenthandler.Handler
	Waitlist     *waitlisthandler.Handler
	Webhook      *webhook.Handler
	Patient      *patienthandler.Handler
	Professional *professionalhandler.Handler
	Specialty    *specialtyhandler.Handler
	Settings     *settingshandler.Handler
}

// New builds the gin engine with the shared middleware chain and
// mounts every handler under /api/v1.
func New(db *sqlx.DB, handlers Handlers, timeout time.Duration) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Timeout(middleware.TimeoutConfig{Duration: timeout}))

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  rate.Limit(100),
		Burst: 200,
	})
	r.Use(limiter.RateLimit())

	health.NewHandler(db).RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		handlers.Appointment.RegisterRoutes(v1)
		handlers.Waitlist.RegisterRoutes(v1)
		handlers.Webhook.RegisterRoutes(v1)
		handlers.Patient.RegisterRoutes(v1)
		handlers.Professional.RegisterRoutes(v1)
		handlers.Specialty.RegisterRoutes(v1)
		handlers.Settings.RegisterRoutes(v1)
	}

	return r
}
