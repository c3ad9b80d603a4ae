package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/jsontypes"
)

type Patient struct {
	ID          uuid.UUID
	FirstName   string
	LastName    string
	Phone       string
	Gender      *string
	DateOfBirth *jsontypes.Date
	Address     *string
	CreatedBy   *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
