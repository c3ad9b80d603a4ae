package invoice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("invoice not found")

type ListFilter struct {
	PaymentStatus *PaymentStatus
	PatientID     *uuid.UUID
	Limit         int
	Offset        int
}

type Repository interface {
	// CreateWithItems inserts the invoice and its line items in one
	// transaction.
	CreateWithItems(ctx context.Context, inv *Invoice) error

	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]Invoice, error)
	MarkPaid(ctx context.Context, id uuid.UUID, method PaymentMethod, paidAt time.Time) (*Invoice, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
