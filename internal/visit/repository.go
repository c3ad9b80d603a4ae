package visit

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("visit not found")
	ErrNotConvertible = errors.New("appointment must be scheduled to convert to visit")
)

type ListFilter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Limit     int
	Offset    int
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Visit, error)
	List(ctx context.Context, filter ListFilter) ([]Detail, error)
	Update(ctx context.Context, v *Visit) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// ConvertFromAppointment atomically marks the appointment completed and
	// creates its linked visit. When a linked visit already exists it is
	// returned with created=false and nothing is written. The appointment row
	// is locked for the duration, so concurrent conversions serialize.
	// Errors: appointment.ErrNotFound, ErrNotConvertible.
	ConvertFromAppointment(ctx context.Context, appointmentID uuid.UUID, actorID *uuid.UUID) (v *Visit, created bool, err error)
}
