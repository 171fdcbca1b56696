package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/citamed/scheduling-api/internal/config"
	"github.com/citamed/scheduling-api/internal/email"
	appointmenthandler "github.com/citamed/scheduling-api/internal/handler/appointment"
	patienthandler "github.com/citamed/scheduling-api/internal/handler/patient"
	professionalhandler "github.com/citamed/scheduling-api/internal/handler/professional"
	settingshandler "github.com/citamed/scheduling-api/internal/handler/settings"
	specialtyhandler "github.com/citamed/scheduling-api/internal/handler/specialty"
	waitlisthandler "github.com/citamed/scheduling-api/internal/handler/waitlist"
	"github.com/citamed/scheduling-api/internal/handler/webhook"
	"github.com/citamed/scheduling-api/internal/repository/postgres"
	"github.com/citamed/scheduling-api/internal/router"
	appointmentservice "github.com/citamed/scheduling-api/internal/service/appointment"
	"github.com/citamed/scheduling-api/internal/service/notification"
	"github.com/citamed/scheduling-api/internal/service/settings"
	"github.com/citamed/scheduling-api/internal/service/waitlist"
	"github.com/citamed/scheduling-api/pkg/logger"
	redisbroker "github.com/citamed/scheduling-api/pkg/messaging/redis"
	"github.com/citamed/scheduling-api/pkg/metrics"
	"github.com/citamed/scheduling-api/pkg/worker"
)

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
		PoolSize:     10,
		MinIdleConns: 2,
	}, &zl)
	if err != nil {
		log.Fatal(err, "failed to connect to redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("citamed")

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
	replyRouter := waitlist.NewRouter(waitlistRepo, offers, log, m)

	appointmentSvc := appointmentservice.NewService(
		appointmentRepo, professionalRepo, patientRepo, engine, log)

	handlers := router.Handlers{
		Appointment:  appointmenthandler.NewHandler(appointmentSvc),
		Waitlist:     waitlisthandler.NewHandler(waitlistRepo, patientRepo),
		Webhook:      webhook.NewHandler(replyRouter, log),
		Patient:      patienthandler.NewHandler(patientRepo),
		Professional: professionalhandler.NewHandler(professionalRepo, specialtyRepo),
		Specialty:    specialtyhandler.NewHandler(specialtyRepo),
		Settings:     settingshandler.NewHandler(settingRepo, settingsProvider),
	}

	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	engine2 := router.New(db, handlers, timeout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := worker.NewSweeper(engine, cfg.Waitlist.SweepInterval, log)
	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: engine2,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "graceful shutdown failed")
	}
}
