package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/doctor"
	"github.com/clinicdesk/clinic-api/internal/jsontypes"
	"github.com/clinicdesk/clinic-api/internal/patient"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return Status(s), true
	}
	return "", false
}

// transitions describes the regular lifecycle: scheduled is the only initial
// state and the other three are terminal. Status updates are deliberately not
// rejected on irregular transitions (the admin flow relies on being able to
// correct a mis-marked appointment); Regular is used to log them instead.
var transitions = map[Status][]Status{
	StatusScheduled: {StatusCompleted, StatusCancelled, StatusNoShow},
}

func Regular(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      jsontypes.Date
	Timeslot  string
	Status    Status
	Notes     *string
	CreatedBy *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Detail is an appointment hydrated with its relations.
type Detail struct {
	Appointment
	Patient *patient.Patient
	Doctor  *doctor.Doctor
	VisitID *uuid.UUID
}
