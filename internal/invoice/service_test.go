package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-api/internal/visit"
)

type memoryRepo struct {
	invoices map[uuid.UUID]*Invoice
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{invoices: make(map[uuid.UUID]*Invoice)}
}

func (m *memoryRepo) CreateWithItems(_ context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	for i := range inv.Items {
		inv.Items[i].ID = uuid.New()
		inv.Items[i].InvoiceID = inv.ID
	}
	cp := *inv
	m.invoices[inv.ID] = &cp
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		if filter.PaymentStatus != nil && inv.PaymentStatus != *filter.PaymentStatus {
			continue
		}
		if filter.PatientID != nil && inv.PatientID != *filter.PatientID {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

func (m *memoryRepo) MarkPaid(_ context.Context, id uuid.UUID, method PaymentMethod, paidAt time.Time) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	inv.PaymentStatus = PaymentStatusPaid
	inv.PaymentMethod = &method
	inv.PaidAt = &paidAt
	cp := *inv
	return &cp, nil
}

func (m *memoryRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.invoices[id]; !ok {
		return ErrNotFound
	}
	delete(m.invoices, id)
	return nil
}

type staticVisits struct{ visits map[uuid.UUID]*visit.Visit }

func (s staticVisits) GetByID(_ context.Context, id uuid.UUID) (*visit.Visit, error) {
	v, ok := s.visits[id]
	if !ok {
		return nil, visit.ErrNotFound
	}
	return v, nil
}

func newFixture() (*Service, uuid.UUID, uuid.UUID) {
	repo := newMemoryRepo()
	visitID := uuid.New()
	patientID := uuid.New()
	visits := staticVisits{visits: map[uuid.UUID]*visit.Visit{
		visitID: {ID: visitID, PatientID: patientID, DoctorID: uuid.New()},
	}}
	return NewService(repo, visits), visitID, patientID
}

func TestCreateComputesTotals(t *testing.T) {
	svc, visitID, patientID := newFixture()

	inv, err := svc.Create(context.Background(), CreateInput{
		VisitID:  visitID,
		Discount: 50,
		Items: []ItemInput{
			{Description: "Consultation", Quantity: 1, UnitPrice: 500},
			{Description: "Lab test", Quantity: 3, UnitPrice: 120.50},
		},
	}, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, patientID, inv.PatientID)
	assert.Equal(t, PaymentStatusUnpaid, inv.PaymentStatus)

	require.Len(t, inv.Items, 2)
	assert.InDelta(t, 500.0, inv.Items[0].Amount, 0.001)
	assert.InDelta(t, 361.50, inv.Items[1].Amount, 0.001)
	assert.InDelta(t, 861.50, inv.Subtotal, 0.001)
	assert.InDelta(t, 811.50, inv.Total, 0.001)
}

func TestCreateRoundsToCents(t *testing.T) {
	svc, visitID, _ := newFixture()

	inv, err := svc.Create(context.Background(), CreateInput{
		VisitID: visitID,
		Items: []ItemInput{
			{Description: "Dose", Quantity: 3, UnitPrice: 0.10},
		},
	}, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 0.30, inv.Items[0].Amount)
	assert.Equal(t, 0.30, inv.Subtotal)
	assert.Equal(t, 0.30, inv.Total)
}

func TestCreateRequiresItems(t *testing.T) {
	svc, visitID, _ := newFixture()

	_, err := svc.Create(context.Background(), CreateInput{VisitID: visitID}, uuid.New())
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestCreateUnknownVisit(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.Create(context.Background(), CreateInput{
		VisitID: uuid.New(),
		Items:   []ItemInput{{Description: "Consultation", Quantity: 1, UnitPrice: 500}},
	}, uuid.New())
	assert.ErrorIs(t, err, visit.ErrNotFound)
}

func TestPayMarksInvoicePaid(t *testing.T) {
	svc, visitID, _ := newFixture()

	inv, err := svc.Create(context.Background(), CreateInput{
		VisitID: visitID,
		Items:   []ItemInput{{Description: "Consultation", Quantity: 1, UnitPrice: 500}},
	}, uuid.New())
	require.NoError(t, err)

	paid, err := svc.Pay(context.Background(), inv.ID, PaymentMethodCash)
	require.NoError(t, err)

	assert.Equal(t, PaymentStatusPaid, paid.PaymentStatus)
	require.NotNil(t, paid.PaymentMethod)
	assert.Equal(t, PaymentMethodCash, *paid.PaymentMethod)
	assert.NotNil(t, paid.PaidAt)
	assert.Len(t, paid.Items, 1)
}

func TestPayUnknownInvoice(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.Pay(context.Background(), uuid.New(), PaymentMethodChapa)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.30, Round2(0.1+0.2))
	assert.Equal(t, 10.13, Round2(10.125))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, -2.50, Round2(-2.499999))
}
