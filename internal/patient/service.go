package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/jsontypes"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	FirstName   string
	LastName    string
	Phone       string
	Gender      *string
	DateOfBirth *jsontypes.Date
	Address     *string
}

func (s *Service) Create(ctx context.Context, in CreateInput, actorID uuid.UUID) (*Patient, error) {
	p := &Patient{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Phone:       in.Phone,
		Gender:      in.Gender,
		DateOfBirth: in.DateOfBirth,
		Address:     in.Address,
		CreatedBy:   &actorID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrPhoneTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in CreateInput) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.FirstName = in.FirstName
	p.LastName = in.LastName
	p.Phone = in.Phone
	p.Gender = in.Gender
	p.DateOfBirth = in.DateOfBirth
	p.Address = in.Address

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, ErrPhoneTaken) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Patient, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	patients, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}
