package doctor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type Input struct {
	Name           string
	Specialization *string
	Phone          *string
	Email          *string
	UserID         *uuid.UUID
}

func (s *Service) Create(ctx context.Context, in Input) (*Doctor, error) {
	d := &Doctor{
		Name:           in.Name,
		Specialization: in.Specialization,
		Phone:          in.Phone,
		Email:          in.Email,
		UserID:         in.UserID,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d.Name = in.Name
	d.Specialization = in.Specialization
	d.Phone = in.Phone
	d.Email = in.Email
	if in.UserID != nil {
		d.UserID = in.UserID
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Doctor, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	doctors, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}
