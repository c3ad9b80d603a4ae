package doctor

import (
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID             uuid.UUID
	UserID         *uuid.UUID
	Name           string
	Specialization *string
	Phone          *string
	Email          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
