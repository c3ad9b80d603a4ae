package visit

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/appointment"
	"github.com/clinicdesk/clinic-api/internal/doctor"
	"github.com/clinicdesk/clinic-api/internal/patient"
)

type Visit struct {
	ID            uuid.UUID
	PatientID     uuid.UUID
	DoctorID      uuid.UUID
	AppointmentID *uuid.UUID
	Symptoms      *string
	Diagnosis     *string
	Notes         *string
	VisitDate     time.Time
	CreatedBy     *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Detail is a visit hydrated with its relations.
type Detail struct {
	Visit
	Patient     *patient.Patient
	Doctor      *doctor.Doctor
	Appointment *appointment.Appointment
}
