package prescription

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNoItems = errors.New("prescription requires at least one item")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type ItemInput struct {
	Medication   string
	Dosage       string
	Frequency    string
	Duration     string
	Instructions *string
}

type CreateInput struct {
	VisitID   uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Diagnosis *string
	Status    *Status
	Notes     *string
	Items     []ItemInput
}

func (s *Service) Create(ctx context.Context, in CreateInput, actorID uuid.UUID) (*Prescription, error) {
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}

	status := StatusActive
	if in.Status != nil {
		status = *in.Status
	}

	p := &Prescription{
		VisitID:   in.VisitID,
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		Diagnosis: in.Diagnosis,
		Status:    status,
		Notes:     in.Notes,
		CreatedBy: &actorID,
		Items:     itemsFromInput(in.Items),
	}

	if err := s.repo.CreateWithItems(ctx, p); err != nil {
		return nil, fmt.Errorf("create prescription: %w", err)
	}
	return p, nil
}

type UpdateInput struct {
	Diagnosis *string
	Status    *Status
	Notes     *string
	Items     []ItemInput // nil leaves items untouched, non-nil replaces them
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Diagnosis != nil {
		p.Diagnosis = in.Diagnosis
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Notes != nil {
		p.Notes = in.Notes
	}

	var items []Item
	if in.Items != nil {
		if len(in.Items) == 0 {
			return nil, ErrNoItems
		}
		items = itemsFromInput(in.Items)
	}

	if err := s.repo.UpdateWithItems(ctx, p, items); err != nil {
		return nil, fmt.Errorf("update prescription: %w", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Prescription, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	prescriptions, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	return prescriptions, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func itemsFromInput(inputs []ItemInput) []Item {
	items := make([]Item, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, Item{
			Medication:   in.Medication,
			Dosage:       in.Dosage,
			Frequency:    in.Frequency,
			Duration:     in.Duration,
			Instructions: in.Instructions,
		})
	}
	return items
}
