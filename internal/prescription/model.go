package prescription

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusActive, StatusCompleted, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

type Prescription struct {
	ID        uuid.UUID
	VisitID   uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Diagnosis *string
	Status    Status
	Notes     *string
	CreatedBy *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Items     []Item
}

type Item struct {
	ID             uuid.UUID
	PrescriptionID uuid.UUID
	Medication     string
	Dosage         string
	Frequency      string
	Duration       string
	Instructions   *string
}
