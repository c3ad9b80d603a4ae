package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("prescription not found")

type ListFilter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	VisitID   *uuid.UUID
	Limit     int
	Offset    int
}

type Repository interface {
	// CreateWithItems inserts the prescription and its line items in one
	// transaction.
	CreateWithItems(ctx context.Context, p *Prescription) error

	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	List(ctx context.Context, filter ListFilter) ([]Prescription, error)

	// UpdateWithItems updates header fields; when items is non-nil the line
	// items are replaced wholesale, in the same transaction.
	UpdateWithItems(ctx context.Context, p *Prescription, items []Item) error

	SoftDelete(ctx context.Context, id uuid.UUID) error
}
