package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/appointment"
	"github.com/clinicdesk/clinic-api/internal/doctor"
	"github.com/clinicdesk/clinic-api/internal/invoice"
	"github.com/clinicdesk/clinic-api/internal/jsontypes"
	"github.com/clinicdesk/clinic-api/internal/patient"
	"github.com/clinicdesk/clinic-api/internal/prescription"
	"github.com/clinicdesk/clinic-api/internal/user"
	"github.com/clinicdesk/clinic-api/internal/visit"
)

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type PatientRequest struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Phone       string  `json:"phone"`
	Gender      *string `json:"gender"`
	DateOfBirth *string `json:"date_of_birth"`
	Address     *string `json:"address"`
}

type PatientResponse struct {
	ID          uuid.UUID       `json:"id"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	FullName    string          `json:"full_name"`
	Phone       string          `json:"phone"`
	Gender      *string         `json:"gender"`
	DateOfBirth *jsontypes.Date `json:"date_of_birth"`
	Address     *string         `json:"address"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toPatientResponse(p *patient.Patient) PatientResponse {
	return PatientResponse{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		FullName:    p.FullName(),
		Phone:       p.Phone,
		Gender:      p.Gender,
		DateOfBirth: p.DateOfBirth,
		Address:     p.Address,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type DoctorRequest struct {
	Name           string  `json:"name"`
	Specialization *string `json:"specialization"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
	UserID         *string `json:"user_id"`
}

type DoctorResponse struct {
	ID             uuid.UUID  `json:"id"`
	UserID         *uuid.UUID `json:"user_id"`
	Name           string     `json:"name"`
	Specialization *string    `json:"specialization"`
	Phone          *string    `json:"phone"`
	Email          *string    `json:"email"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toDoctorResponse(d *doctor.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:             d.ID,
		UserID:         d.UserID,
		Name:           d.Name,
		Specialization: d.Specialization,
		Phone:          d.Phone,
		Email:          d.Email,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type AppointmentRequest struct {
	PatientID string  `json:"patient_id"`
	DoctorID  string  `json:"doctor_id"`
	Date      string  `json:"appointment_date"`
	Timeslot  string  `json:"timeslot"`
	Notes     *string `json:"notes"`
}

type AppointmentStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID        uuid.UUID        `json:"id"`
	PatientID uuid.UUID        `json:"patient_id"`
	DoctorID  uuid.UUID        `json:"doctor_id"`
	Date      jsontypes.Date   `json:"appointment_date"`
	Timeslot  string           `json:"timeslot"`
	Status    string           `json:"status"`
	Notes     *string          `json:"notes"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Patient   *PatientResponse `json:"patient,omitempty"`
	Doctor    *DoctorResponse  `json:"doctor,omitempty"`
	VisitID   *uuid.UUID       `json:"visit_id,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		Date:      a.Date,
		Timeslot:  a.Timeslot,
		Status:    string(a.Status),
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toAppointmentDetailResponse(d *appointment.Detail) AppointmentResponse {
	resp := toAppointmentResponse(&d.Appointment)
	if d.Patient != nil {
		p := toPatientResponse(d.Patient)
		resp.Patient = &p
	}
	if d.Doctor != nil {
		doc := toDoctorResponse(d.Doctor)
		resp.Doctor = &doc
	}
	resp.VisitID = d.VisitID
	return resp
}

type VisitRequest struct {
	PatientID string     `json:"patient_id"`
	DoctorID  string     `json:"doctor_id"`
	Symptoms  *string    `json:"symptoms"`
	Diagnosis *string    `json:"diagnosis"`
	Notes     *string    `json:"notes"`
	VisitDate *time.Time `json:"visit_date"`
}

type VisitUpdateRequest struct {
	Symptoms  *string    `json:"symptoms"`
	Diagnosis *string    `json:"diagnosis"`
	Notes     *string    `json:"notes"`
	VisitDate *time.Time `json:"visit_date"`
}

type VisitResponse struct {
	ID            uuid.UUID            `json:"id"`
	PatientID     uuid.UUID            `json:"patient_id"`
	DoctorID      uuid.UUID            `json:"doctor_id"`
	AppointmentID *uuid.UUID           `json:"appointment_id"`
	Symptoms      *string              `json:"symptoms"`
	Diagnosis     *string              `json:"diagnosis"`
	Notes         *string              `json:"notes"`
	VisitDate     time.Time            `json:"visit_date"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	Patient       *PatientResponse     `json:"patient,omitempty"`
	Doctor        *DoctorResponse      `json:"doctor,omitempty"`
	Appointment   *AppointmentResponse `json:"appointment,omitempty"`
}

func toVisitResponse(v *visit.Visit) VisitResponse {
	return VisitResponse{
		ID:            v.ID,
		PatientID:     v.PatientID,
		DoctorID:      v.DoctorID,
		AppointmentID: v.AppointmentID,
		Symptoms:      v.Symptoms,
		Diagnosis:     v.Diagnosis,
		Notes:         v.Notes,
		VisitDate:     v.VisitDate,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

func toVisitDetailResponse(d *visit.Detail) VisitResponse {
	resp := toVisitResponse(&d.Visit)
	if d.Patient != nil {
		p := toPatientResponse(d.Patient)
		resp.Patient = &p
	}
	if d.Doctor != nil {
		doc := toDoctorResponse(d.Doctor)
		resp.Doctor = &doc
	}
	if d.Appointment != nil {
		a := toAppointmentResponse(d.Appointment)
		resp.Appointment = &a
	}
	return resp
}

type ConversionResponse struct {
	Visit   VisitResponse `json:"visit"`
	Created bool          `json:"created"`
}

type PrescriptionItemRequest struct {
	Medication   string  `json:"medication"`
	Dosage       string  `json:"dosage"`
	Frequency    string  `json:"frequency"`
	Duration     string  `json:"duration"`
	Instructions *string `json:"instructions"`
}

type PrescriptionRequest struct {
	VisitID   string                    `json:"visit_id"`
	PatientID string                    `json:"patient_id"`
	DoctorID  string                    `json:"doctor_id"`
	Diagnosis *string                   `json:"diagnosis"`
	Status    *string                   `json:"status"`
	Notes     *string                   `json:"notes"`
	Items     []PrescriptionItemRequest `json:"items"`
}

type PrescriptionUpdateRequest struct {
	Diagnosis *string                   `json:"diagnosis"`
	Status    *string                   `json:"status"`
	Notes     *string                   `json:"notes"`
	Items     []PrescriptionItemRequest `json:"items"`
}

type PrescriptionItemResponse struct {
	ID           uuid.UUID `json:"id"`
	Medication   string    `json:"medication"`
	Dosage       string    `json:"dosage"`
	Frequency    string    `json:"frequency"`
	Duration     string    `json:"duration"`
	Instructions *string   `json:"instructions"`
}

type PrescriptionResponse struct {
	ID        uuid.UUID                  `json:"id"`
	VisitID   uuid.UUID                  `json:"visit_id"`
	PatientID uuid.UUID                  `json:"patient_id"`
	DoctorID  uuid.UUID                  `json:"doctor_id"`
	Diagnosis *string                    `json:"diagnosis"`
	Status    string                     `json:"status"`
	Notes     *string                    `json:"notes"`
	Items     []PrescriptionItemResponse `json:"items"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

func toPrescriptionResponse(p *prescription.Prescription) PrescriptionResponse {
	items := make([]PrescriptionItemResponse, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, PrescriptionItemResponse{
			ID:           item.ID,
			Medication:   item.Medication,
			Dosage:       item.Dosage,
			Frequency:    item.Frequency,
			Duration:     item.Duration,
			Instructions: item.Instructions,
		})
	}
	return PrescriptionResponse{
		ID:        p.ID,
		VisitID:   p.VisitID,
		PatientID: p.PatientID,
		DoctorID:  p.DoctorID,
		Diagnosis: p.Diagnosis,
		Status:    string(p.Status),
		Notes:     p.Notes,
		Items:     items,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type InvoiceItemRequest struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type InvoiceRequest struct {
	VisitID       string               `json:"visit_id"`
	Discount      float64              `json:"discount"`
	PaymentMethod *string              `json:"payment_method"`
	Items         []InvoiceItemRequest `json:"items"`
}

type InvoicePayRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type InvoiceItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Quantity    float64   `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Amount      float64   `json:"amount"`
}

type InvoiceResponse struct {
	ID            uuid.UUID             `json:"id"`
	VisitID       uuid.UUID             `json:"visit_id"`
	PatientID     uuid.UUID             `json:"patient_id"`
	Subtotal      float64               `json:"subtotal"`
	Discount      float64               `json:"discount"`
	Total         float64               `json:"total"`
	PaymentStatus string                `json:"payment_status"`
	PaymentMethod *string               `json:"payment_method"`
	PaidAt        *time.Time            `json:"paid_at"`
	Items         []InvoiceItemResponse `json:"items"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func toInvoiceResponse(inv *invoice.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, InvoiceItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}
	var method *string
	if inv.PaymentMethod != nil {
		m := string(*inv.PaymentMethod)
		method = &m
	}
	return InvoiceResponse{
		ID:            inv.ID,
		VisitID:       inv.VisitID,
		PatientID:     inv.PatientID,
		Subtotal:      inv.Subtotal,
		Discount:      inv.Discount,
		Total:         inv.Total,
		PaymentStatus: string(inv.PaymentStatus),
		PaymentMethod: method,
		PaidAt:        inv.PaidAt,
		Items:         items,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}
