package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinic-api/internal/doctor"
	"github.com/clinicdesk/clinic-api/internal/jsontypes"
	"github.com/clinicdesk/clinic-api/internal/patient"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var date time.Time
	var status string

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&date,
		&a.Timeslot,
		&status,
		&a.Notes,
		&a.CreatedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	a.Date = jsontypes.NewDate(date)
	a.Status = Status(status)
	return &a, nil
}

const detailColumns = `
	a.id, a.patient_id, a.doctor_id, a.appointment_date, a.timeslot, a.status, a.notes, a.created_by, a.created_at, a.updated_at,
	p.id, p.first_name, p.last_name, p.phone, p.gender, p.date_of_birth, p.address, p.created_by, p.created_at, p.updated_at,
	d.id, d.user_id, d.name, d.specialization, d.phone, d.email, d.created_at, d.updated_at,
	v.id
`

func scanDetail(row pgx.Row) (*Detail, error) {
	var det Detail
	var date time.Time
	var status string
	var pat patient.Patient
	var dob *time.Time
	var doc doctor.Doctor
	var visitID *uuid.UUID

	err := row.Scan(
		&det.ID, &det.PatientID, &det.DoctorID, &date, &det.Timeslot, &status, &det.Notes, &det.CreatedBy, &det.CreatedAt, &det.UpdatedAt,
		&pat.ID, &pat.FirstName, &pat.LastName, &pat.Phone, &pat.Gender, &dob, &pat.Address, &pat.CreatedBy, &pat.CreatedAt, &pat.UpdatedAt,
		&doc.ID, &doc.UserID, &doc.Name, &doc.Specialization, &doc.Phone, &doc.Email, &doc.CreatedAt, &doc.UpdatedAt,
		&visitID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	det.Date = jsontypes.NewDate(date)
	det.Status = Status(status)
	if dob != nil {
		d := jsontypes.NewDate(*dob)
		pat.DateOfBirth = &d
	}
	det.Patient = &pat
	det.Doctor = &doc
	det.VisitID = visitID
	return &det, nil
}

// Interface methods

func (r *PgRepository) IsSlotBooked(ctx context.Context, doctorID uuid.UUID, date jsontypes.Date, timeslot string, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			  AND appointment_date = $2
			  AND timeslot = $3
			  AND status = 'scheduled'
			  AND deleted_at IS NULL
	`
	args := []any{doctorID, date.Time(), timeslot}

	if excludeID != nil {
		query += ` AND id != $4`
		args = append(args, *excludeID)
	}
	query += `)`

	var booked bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&booked); err != nil {
		return false, err
	}
	return booked, nil
}

func (r *PgRepository) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, appointment_date, timeslot, status, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id, patient_id, doctor_id, appointment_date, timeslot, status, notes, created_by, created_at, updated_at
	`, a.ID, a.PatientID, a.DoctorID, a.Date.Time(), a.Timeslot, string(a.Status), a.Notes, a.CreatedBy)

	created, err := scanAppointment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlotTaken
		}
		return err
	}
	*a = *created
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, appointment_date, timeslot, status, notes, created_by, created_at, updated_at
		FROM appointments
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+detailColumns+`
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN doctors d ON d.id = a.doctor_id
		LEFT JOIN visits v ON v.appointment_id = a.id AND v.deleted_at IS NULL
		WHERE a.id = $1 AND a.deleted_at IS NULL
	`, id)
	return scanDetail(row)
}

func (r *PgRepository) List(ctx context.Context, filter ListFilter) ([]Detail, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN doctors d ON d.id = a.doctor_id
		LEFT JOIN visits v ON v.appointment_id = a.id AND v.deleted_at IS NULL
		WHERE a.deleted_at IS NULL
	`
	args := []any{}

	if filter.DoctorID != nil {
		args = append(args, *filter.DoctorID)
		query += fmt.Sprintf(` AND a.doctor_id = $%d`, len(args))
	}
	if filter.Date != nil {
		args = append(args, filter.Date.Time())
		query += fmt.Sprintf(` AND a.appointment_date = $%d`, len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(` AND a.status = $%d`, len(args))
	}

	query += ` ORDER BY a.appointment_date DESC, a.created_at DESC`
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Detail
	for rows.Next() {
		det, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *det)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, patient_id, doctor_id, appointment_date, timeslot, status, notes, created_by, created_at, updated_at
	`, id, string(status))

	return scanAppointment(row)
}

func (r *PgRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
