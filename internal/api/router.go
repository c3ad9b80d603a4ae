package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Auth          *AuthHandler
	Patients      *PatientHandler
	Doctors       *DoctorHandler
	Appointments  *AppointmentHandler
	Visits        *VisitHandler
	Prescriptions *PrescriptionHandler
	Invoices      *InvoiceHandler
	Health        *HealthHandler
	JWTSecret     []byte
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	r.Get("/health/live", cfg.Health.Liveness)
	r.Get("/health/ready", cfg.Health.Readiness)

	r.Post("/login", cfg.Auth.Login)

	r.Group(func(r chi.Router) {
		r.Use(Authenticator(cfg.JWTSecret))

		r.Post("/logout", cfg.Auth.Logout)
		r.Get("/user", cfg.Auth.Me)

		r.Route("/patients", func(r chi.Router) {
			r.Get("/", cfg.Patients.List)
			r.Post("/", cfg.Patients.Create)
			r.Get("/search", cfg.Patients.Search)
			r.Get("/{id}", cfg.Patients.Get)
			r.Put("/{id}", cfg.Patients.Update)
			r.Delete("/{id}", cfg.Patients.Delete)
		})

		r.Route("/doctors", func(r chi.Router) {
			r.Get("/", cfg.Doctors.List)
			r.Post("/", cfg.Doctors.Create)
			r.Get("/{id}", cfg.Doctors.Get)
			r.Put("/{id}", cfg.Doctors.Update)
			r.Delete("/{id}", cfg.Doctors.Delete)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", cfg.Appointments.List)
			r.Post("/", cfg.Appointments.Create)
			r.Get("/{id}", cfg.Appointments.Get)
			r.Patch("/{id}/status", cfg.Appointments.UpdateStatus)
			r.Delete("/{id}", cfg.Appointments.Delete)
		})

		r.Route("/visits", func(r chi.Router) {
			r.Get("/", cfg.Visits.List)
			r.Post("/", cfg.Visits.Create)
			r.Post("/from-appointment/{appointmentId}", cfg.Visits.ConvertFromAppointment)
			r.Get("/{id}", cfg.Visits.Get)
			r.Put("/{id}", cfg.Visits.Update)
			r.Delete("/{id}", cfg.Visits.Delete)
		})

		r.Route("/prescriptions", func(r chi.Router) {
			r.Get("/", cfg.Prescriptions.List)
			r.Post("/", cfg.Prescriptions.Create)
			r.Get("/{id}", cfg.Prescriptions.Get)
			r.Put("/{id}", cfg.Prescriptions.Update)
			r.Delete("/{id}", cfg.Prescriptions.Delete)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", cfg.Invoices.List)
			r.Post("/", cfg.Invoices.Create)
			r.Get("/{id}", cfg.Invoices.Get)
			r.Patch("/{id}/pay", cfg.Invoices.Pay)
			r.Delete("/{id}", cfg.Invoices.Delete)
		})
	})

	return r
}
