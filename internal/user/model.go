package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/policy"
)

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         policy.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
