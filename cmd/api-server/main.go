package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clinicdesk/clinic-api/internal/api"
	"github.com/clinicdesk/clinic-api/internal/appointment"
	"github.com/clinicdesk/clinic-api/internal/config"
	"github.com/clinicdesk/clinic-api/internal/db"
	"github.com/clinicdesk/clinic-api/internal/doctor"
	"github.com/clinicdesk/clinic-api/internal/invoice"
	"github.com/clinicdesk/clinic-api/internal/logging"
	"github.com/clinicdesk/clinic-api/internal/patient"
	"github.com/clinicdesk/clinic-api/internal/prescription"
	redisclient "github.com/clinicdesk/clinic-api/internal/redis"
	"github.com/clinicdesk/clinic-api/internal/user"
	"github.com/clinicdesk/clinic-api/internal/visit"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	logging.Init("clinic-api", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer rdb.Close()

	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)

	userRepo := user.NewPgRepository(pool)
	patientRepo := patient.NewPgRepository(pool)
	doctorRepo := doctor.NewPgRepository(pool)
	appointmentRepo := appointment.NewPgRepository(pool)
	visitRepo := visit.NewPgRepository(pool)
	prescriptionRepo := prescription.NewPgRepository(pool)
	invoiceRepo := invoice.NewPgRepository(pool)

	userSvc := user.NewService(userRepo)
	patientSvc := patient.NewService(patientRepo)
	doctorSvc := doctor.NewService(doctorRepo)
	appointmentSvc := appointment.NewService(appointmentRepo, patientRepo, doctorRepo, locker)
	visitSvc := visit.NewService(visitRepo, patientRepo, doctorRepo)
	prescriptionSvc := prescription.NewService(prescriptionRepo)
	invoiceSvc := invoice.NewService(invoiceRepo, visitRepo)

	secret := []byte(cfg.JWTSecret)

	router := api.NewRouter(api.RouterConfig{
		Auth:          api.NewAuthHandler(userSvc, doctorRepo, secret, cfg.TokenTTL),
		Patients:      api.NewPatientHandler(patientSvc),
		Doctors:       api.NewDoctorHandler(doctorSvc),
		Appointments:  api.NewAppointmentHandler(appointmentSvc),
		Visits:        api.NewVisitHandler(visitSvc),
		Prescriptions: api.NewPrescriptionHandler(prescriptionSvc),
		Invoices:      api.NewInvoiceHandler(invoiceSvc),
		Health:        api.NewHealthHandler(pool, rdb, cfg.Env, version),
		JWTSecret:     secret,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("env", cfg.Env).Msg("api server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
