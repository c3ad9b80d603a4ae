package visit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicdesk/clinic-api/internal/doctor"
	"github.com/clinicdesk/clinic-api/internal/patient"
)

var (
	ErrPatientNotFound = patient.ErrNotFound
	ErrDoctorNotFound  = doctor.ErrNotFound
)

// PatientDirectory and DoctorDirectory are the lookups standalone visit
// creation needs from the neighbouring domains.
type PatientDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type DoctorDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}

type Service struct {
	repo     Repository
	patients PatientDirectory
	doctors  DoctorDirectory
}

func NewService(repo Repository, patients PatientDirectory, doctors DoctorDirectory) *Service {
	return &Service{repo: repo, patients: patients, doctors: doctors}
}

// CreateFromAppointment converts a scheduled appointment into a visit. The
// conversion is idempotent per appointment: a second call returns the visit
// created by the first with created=false.
func (s *Service) CreateFromAppointment(ctx context.Context, appointmentID, actorID uuid.UUID) (*Visit, bool, error) {
	v, created, err := s.repo.ConvertFromAppointment(ctx, appointmentID, &actorID)
	if err != nil {
		return nil, false, err
	}

	if created {
		log.Info().
			Str("visit_id", v.ID.String()).
			Str("appointment_id", appointmentID.String()).
			Msg("appointment converted to visit")
	}
	return v, created, nil
}

type CreateInput struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Symptoms  *string
	Diagnosis *string
	Notes     *string
	VisitDate *time.Time
}

func (s *Service) Create(ctx context.Context, in CreateInput, actorID uuid.UUID) (*Visit, error) {
	if _, err := s.patients.GetByID(ctx, in.PatientID); err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if _, err := s.doctors.GetByID(ctx, in.DoctorID); err != nil {
		if errors.Is(err, doctor.ErrNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	v := &Visit{
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		Symptoms:  in.Symptoms,
		Diagnosis: in.Diagnosis,
		Notes:     in.Notes,
		CreatedBy: &actorID,
	}
	if in.VisitDate != nil {
		v.VisitDate = *in.VisitDate
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("create visit: %w", err)
	}
	return v, nil
}

type UpdateInput struct {
	Symptoms  *string
	Diagnosis *string
	Notes     *string
	VisitDate *time.Time
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Visit, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Symptoms != nil {
		v.Symptoms = in.Symptoms
	}
	if in.Diagnosis != nil {
		v.Diagnosis = in.Diagnosis
	}
	if in.Notes != nil {
		v.Notes = in.Notes
	}
	if in.VisitDate != nil {
		v.VisitDate = *in.VisitDate
	}

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("update visit: %w", err)
	}
	return v, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	return s.repo.GetDetail(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Detail, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	visits, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	return visits, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}
