package prescription

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	prescriptions map[uuid.UUID]*Prescription
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{prescriptions: make(map[uuid.UUID]*Prescription)}
}

func (m *memoryRepo) CreateWithItems(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	for i := range p.Items {
		p.Items[i].ID = uuid.New()
		p.Items[i].PrescriptionID = p.ID
	}
	cp := *p
	m.prescriptions[p.ID] = &cp
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.prescriptions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]Prescription, error) {
	var out []Prescription
	for _, p := range m.prescriptions {
		if filter.DoctorID != nil && p.DoctorID != *filter.DoctorID {
			continue
		}
		if filter.PatientID != nil && p.PatientID != *filter.PatientID {
			continue
		}
		if filter.VisitID != nil && p.VisitID != *filter.VisitID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *memoryRepo) UpdateWithItems(_ context.Context, p *Prescription, items []Item) error {
	stored, ok := m.prescriptions[p.ID]
	if !ok {
		return ErrNotFound
	}
	*stored = *p
	if items != nil {
		for i := range items {
			items[i].ID = uuid.New()
			items[i].PrescriptionID = p.ID
		}
		stored.Items = items
		p.Items = items
	}
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *memoryRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.prescriptions[id]; !ok {
		return ErrNotFound
	}
	delete(m.prescriptions, id)
	return nil
}

func sampleInput() CreateInput {
	return CreateInput{
		VisitID:   uuid.New(),
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		Items: []ItemInput{
			{Medication: "Amoxicillin", Dosage: "500mg", Frequency: "3x daily", Duration: "7 days"},
		},
	}
}

func TestCreatePrescription(t *testing.T) {
	svc := NewService(newMemoryRepo())
	actorID := uuid.New()

	p, err := svc.Create(context.Background(), sampleInput(), actorID)
	require.NoError(t, err)

	assert.Equal(t, StatusActive, p.Status)
	require.NotNil(t, p.CreatedBy)
	assert.Equal(t, actorID, *p.CreatedBy)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "Amoxicillin", p.Items[0].Medication)
	assert.Equal(t, p.ID, p.Items[0].PrescriptionID)
}

func TestCreateRequiresItems(t *testing.T) {
	svc := NewService(newMemoryRepo())

	in := sampleInput()
	in.Items = nil
	_, err := svc.Create(context.Background(), in, uuid.New())
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestCreateWithExplicitStatus(t *testing.T) {
	svc := NewService(newMemoryRepo())

	in := sampleInput()
	status := StatusCompleted
	in.Status = &status

	p, err := svc.Create(context.Background(), in, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, p.Status)
}

func TestUpdateHeaderKeepsItems(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), sampleInput(), uuid.New())
	require.NoError(t, err)

	notes := "take after meals"
	updated, err := svc.Update(context.Background(), p.ID, UpdateInput{Notes: &notes})
	require.NoError(t, err)

	require.NotNil(t, updated.Notes)
	assert.Equal(t, notes, *updated.Notes)

	stored, _ := repo.GetByID(context.Background(), p.ID)
	assert.Len(t, stored.Items, 1)
}

func TestUpdateReplacesItems(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), sampleInput(), uuid.New())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), p.ID, UpdateInput{
		Items: []ItemInput{
			{Medication: "Ibuprofen", Dosage: "200mg", Frequency: "2x daily", Duration: "5 days"},
			{Medication: "Vitamin D", Dosage: "1000IU", Frequency: "1x daily", Duration: "30 days"},
		},
	})
	require.NoError(t, err)

	stored, _ := repo.GetByID(context.Background(), p.ID)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "Ibuprofen", stored.Items[0].Medication)
}

func TestUpdateRejectsEmptyItemList(t *testing.T) {
	svc := NewService(newMemoryRepo())

	p, err := svc.Create(context.Background(), sampleInput(), uuid.New())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), p.ID, UpdateInput{Items: []ItemInput{}})
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestUpdateUnknownPrescription(t *testing.T) {
	svc := NewService(newMemoryRepo())

	notes := "n/a"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateInput{Notes: &notes})
	assert.ErrorIs(t, err, ErrNotFound)
}
