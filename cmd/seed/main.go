package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog/log"

	"github.com/clinicdesk/clinic-api/internal/config"
	"github.com/clinicdesk/clinic-api/internal/db"
	"github.com/clinicdesk/clinic-api/internal/doctor"
	"github.com/clinicdesk/clinic-api/internal/jsontypes"
	"github.com/clinicdesk/clinic-api/internal/logging"
	"github.com/clinicdesk/clinic-api/internal/patient"
	"github.com/clinicdesk/clinic-api/internal/policy"
	"github.com/clinicdesk/clinic-api/internal/user"
)

const (
	numDoctors  = 8
	numPatients = 120

	seedPassword = "password123"
)

var specializations = []string{
	"General Medicine", "Pediatrics", "Cardiology", "Dermatology",
	"Orthopedics", "Gynecology", "Ophthalmology", "ENT",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Init("clinic-seed", cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	userRepo := user.NewPgRepository(pool)
	users := user.NewService(userRepo)
	doctors := doctor.NewService(doctor.NewPgRepository(pool))
	patients := patient.NewService(patient.NewPgRepository(pool))

	admin := mustUser(ctx, users, "Admin User", "admin@clinic.local", policy.RoleAdmin)
	if admin == nil {
		admin, err = userRepo.GetByEmail(ctx, "admin@clinic.local")
		if err != nil {
			log.Fatal().Err(err).Msg("load seeded admin")
		}
	}
	mustUser(ctx, users, "Front Desk", "reception@clinic.local", policy.RoleReceptionist)

	for i := 0; i < numDoctors; i++ {
		name := gofakeit.Name()
		email := fmt.Sprintf("doctor%d@clinic.local", i+1)
		u := mustUser(ctx, users, name, email, policy.RoleDoctor)
		if u == nil {
			continue
		}

		spec := specializations[i%len(specializations)]
		phone := gofakeit.Phone()
		if _, err := doctors.Create(ctx, doctor.Input{
			Name:           "Dr. " + name,
			Specialization: &spec,
			Phone:          &phone,
			Email:          &email,
			UserID:         &u.ID,
		}); err != nil {
			log.Fatal().Err(err).Msg("seed doctor")
		}
	}

	created := 0
	for i := 0; i < numPatients; i++ {
		gender := gofakeit.Gender()
		dob := jsontypes.NewDate(gofakeit.DateRange(
			time.Now().AddDate(-90, 0, 0),
			time.Now().AddDate(-1, 0, 0),
		))
		address := gofakeit.Address().Address

		_, err := patients.Create(ctx, patient.CreateInput{
			FirstName:   gofakeit.FirstName(),
			LastName:    gofakeit.LastName(),
			Phone:       gofakeit.Phone(),
			Gender:      &gender,
			DateOfBirth: &dob,
			Address:     &address,
		}, admin.ID)
		if err != nil {
			if errors.Is(err, patient.ErrPhoneTaken) {
				continue // fake phone collided, skip
			}
			log.Fatal().Err(err).Msg("seed patient")
		}
		created++
	}

	log.Info().
		Int("doctors", numDoctors).
		Int("patients", created).
		Str("admin", "admin@clinic.local").
		Str("password", seedPassword).
		Msg("seed complete")
}

func mustUser(ctx context.Context, users *user.Service, name, email string, role policy.Role) *user.User {
	u, err := users.Register(ctx, user.RegisterInput{
		Name:     name,
		Email:    email,
		Password: seedPassword,
		Role:     role,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			log.Warn().Str("email", email).Msg("user already seeded, skipping")
			return nil
		}
		log.Fatal().Err(err).Str("email", email).Msg("seed user")
	}
	return u
}
