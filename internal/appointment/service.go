package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicdesk/clinic-api/internal/doctor"
	"github.com/clinicdesk/clinic-api/internal/jsontypes"
	"github.com/clinicdesk/clinic-api/internal/patient"
	redisclient "github.com/clinicdesk/clinic-api/internal/redis"
)

var (
	ErrPastDate        = errors.New("appointment date must not be in the past")
	ErrSlotContended   = errors.New("slot is currently being booked, please retry")
	ErrPatientNotFound = patient.ErrNotFound
	ErrDoctorNotFound  = doctor.ErrNotFound
)

// PatientDirectory and DoctorDirectory are the lookups the booking flow needs
// from the neighbouring domains.
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
	locker   redisclient.Locker
}

func NewService(repo Repository, patients PatientDirectory, doctors DoctorDirectory, locker redisclient.Locker) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		doctors:  doctors,
		locker:   locker,
	}
}

type CreateInput struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      jsontypes.Date
	Timeslot  string
	Notes     *string
}

// Create books a slot for a patient. The caller-facing slot check runs inside
// a distributed lock keyed by (doctor, date, timeslot) so concurrent requests
// for the same slot cannot both pass it; the partial unique index is the
// final guarantor either way.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID uuid.UUID) (*Appointment, error) {
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

	if in.Date.Before(jsontypes.Today()) {
		return nil, ErrPastDate
	}

	var created *Appointment

	err := s.locker.WithSlotLock(ctx, in.DoctorID, in.Date, in.Timeslot, func(lockCtx context.Context) error {
		booked, err := s.repo.IsSlotBooked(lockCtx, in.DoctorID, in.Date, in.Timeslot, nil)
		if err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if booked {
			return ErrSlotTaken
		}

		appt := &Appointment{
			PatientID: in.PatientID,
			DoctorID:  in.DoctorID,
			Date:      in.Date,
			Timeslot:  in.Timeslot,
			Status:    StatusScheduled, // forced regardless of caller input
			Notes:     in.Notes,
			CreatedBy: &actorID,
		}
		if err := s.repo.Create(lockCtx, appt); err != nil {
			return err
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotContended
		}
		return nil, err
	}

	log.Info().
		Str("appointment_id", created.ID.String()).
		Str("doctor_id", in.DoctorID.String()).
		Str("date", in.Date.String()).
		Str("timeslot", in.Timeslot).
		Msg("appointment booked")

	return created, nil
}

// UpdateStatus sets the appointment's status. Any of the known statuses is
// accepted; irregular transitions (anything but leaving scheduled) are only
// logged, not rejected.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !Regular(appt.Status, status) {
		log.Warn().
			Str("appointment_id", appt.ID.String()).
			Str("from", string(appt.Status)).
			Str("to", string(status)).
			Msg("irregular appointment status transition")
	}

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, status)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	return updated, nil
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

	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

// IsSlotBooked is the raw conflict check, exposed for re-validation flows.
func (s *Service) IsSlotBooked(ctx context.Context, doctorID uuid.UUID, date jsontypes.Date, timeslot string, excludeID *uuid.UUID) (bool, error) {
	return s.repo.IsSlotBooked(ctx, doctorID, date, timeslot, excludeID)
}
