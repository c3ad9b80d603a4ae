package invoice

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusUnpaid PaymentStatus = "unpaid"
)

type PaymentMethod string

const (
	PaymentMethodCash  PaymentMethod = "cash"
	PaymentMethodChapa PaymentMethod = "chapa"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case PaymentMethodCash, PaymentMethodChapa:
		return PaymentMethod(s), true
	}
	return "", false
}

type Invoice struct {
	ID            uuid.UUID
	VisitID       uuid.UUID
	PatientID     uuid.UUID
	Subtotal      float64
	Discount      float64
	Total         float64
	PaymentStatus PaymentStatus
	PaymentMethod *PaymentMethod
	PaidAt        *time.Time
	CreatedBy     *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Items         []Item
}

type Item struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	Description string
	Quantity    float64
	UnitPrice   float64
	Amount      float64
}

// Round2 rounds monetary amounts to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
