package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/citamed/scheduling-api/internal/config"
	"github.com/citamed/scheduling-api/internal/email"
	"github.com/citamed/scheduling-api/internal/repository/postgres"
	"github.com/citamed/scheduling-api/internal/service/notification"
	"github.com/citamed/scheduling-api/internal/service/settings"
	"github.com/citamed/scheduling-api/internal/service/waitlist"
	"github.com/citamed/scheduling-api/pkg/logger"
	redisbroker "github.com/citamed/scheduling-api/pkg/messaging/redis"
	"github.com/citamed/scheduling-api/pkg/metrics"
	"github.com/citamed/scheduling-api/pkg/worker"
)

// Standalone expiry sweeper, for deployments that keep the API
// replicas stateless and run exactly one sweep loop.
func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load config")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     5,
		MinIdleConns: 1,
	}, &zl)
	if err != nil {
		log.Fatal(err, "failed to connect to redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("citamed_worker")

	patientRepo := postgres.NewPatientRepository(db)
	professionalRepo := postgres.NewProfessionalRepository(db)
	specialtyRepo := postgres.NewSpecialtyRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	waitlistRepo := postgres.NewWaitlistRepository(db)
	settingRepo := postgres.NewSettingRepository(db)

	settingsProvider := settings.NewService(settingRepo, cfg.Waitlist.SettingCacheTTL)
	messenger := redisbroker.NewMessenger(broker, cfg.Redis.OutboundChannel)
	emailService := email.NewService(cfg.SMTP)

	dispatcher := notification.NewDispatcher(
		settingsProvider, messenger, emailService,
		professionalRepo, specialtyRepo, log, m)

	selector := waitlist.NewSelector(waitlistRepo, professionalRepo, settingsProvider)
	offers := waitlist.NewOfferManager(
		waitlistRepo, appointmentRepo, professionalRepo,
		settingsProvider, dispatcher, log, m)
	engine := waitlist.NewEngine(
		waitlistRepo, patientRepo, selector, offers, settingsProvider, log, m)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("sweeper starting", "interval", cfg.Waitlist.SweepInterval.String())
	worker.NewSweeper(engine, cfg.Waitlist.SweepInterval, log).Run(ctx)
}
