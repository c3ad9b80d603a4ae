package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/visit"
)

var ErrNoItems = errors.New("invoice requires at least one item")

// VisitDirectory resolves the visit an invoice bills for.
type VisitDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*visit.Visit, error)
}

type Service struct {
	repo   Repository
	visits VisitDirectory
}

func NewService(repo Repository, visits VisitDirectory) *Service {
	return &Service{repo: repo, visits: visits}
}

type ItemInput struct {
	Description string
	Quantity    float64
	UnitPrice   float64
}

type CreateInput struct {
	VisitID       uuid.UUID
	Discount      float64
	PaymentMethod *PaymentMethod
	Items         []ItemInput
}

// Create bills a visit. Line amounts, subtotal and total are computed here;
// the caller supplies only quantities and unit prices. Parent and items land
// in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID uuid.UUID) (*Invoice, error) {
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}

	v, err := s.visits.GetByID(ctx, in.VisitID)
	if err != nil {
		if errors.Is(err, visit.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load visit: %w", err)
	}

	items := make([]Item, 0, len(in.Items))
	subtotal := 0.0
	for _, item := range in.Items {
		amount := Round2(item.Quantity * item.UnitPrice)
		subtotal += amount
		items = append(items, Item{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      amount,
		})
	}
	subtotal = Round2(subtotal)

	inv := &Invoice{
		VisitID:       v.ID,
		PatientID:     v.PatientID,
		Subtotal:      subtotal,
		Discount:      in.Discount,
		Total:         Round2(subtotal - in.Discount),
		PaymentStatus: PaymentStatusUnpaid,
		PaymentMethod: in.PaymentMethod,
		CreatedBy:     &actorID,
		Items:         items,
	}

	if err := s.repo.CreateWithItems(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}

// Pay marks the invoice paid with the given method.
func (s *Service) Pay(ctx context.Context, id uuid.UUID, method PaymentMethod) (*Invoice, error) {
	if _, err := s.repo.MarkPaid(ctx, id, method, time.Now()); err != nil {
		return nil, err
	}
	// Re-read to include line items in the response.
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	invoices, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}
