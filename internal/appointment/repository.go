package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/jsontypes"
)

var (
	ErrNotFound  = errors.New("appointment not found")
	ErrSlotTaken = errors.New("timeslot already booked for this doctor")
)

type ListFilter struct {
	Date     *jsontypes.Date
	Status   *Status
	DoctorID *uuid.UUID
	Limit    int
	Offset   int
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// IsSlotBooked reports whether a scheduled appointment already occupies
	// (doctorID, date, timeslot). excludeID, when non-nil, is left out of the
	// check. Cancelled, completed and no_show rows never count.
	IsSlotBooked(ctx context.Context, doctorID uuid.UUID, date jsontypes.Date, timeslot string, excludeID *uuid.UUID) (bool, error)

	// Create inserts the appointment. A violation of the active-slot unique
	// index surfaces as ErrSlotTaken.
	Create(ctx context.Context, a *Appointment) error

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)
	List(ctx context.Context, filter ListFilter) ([]Detail, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
