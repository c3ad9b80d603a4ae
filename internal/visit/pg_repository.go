package visit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinic-api/internal/appointment"
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

const visitColumns = `id, patient_id, doctor_id, appointment_id, symptoms, diagnosis, notes, visit_date, created_by, created_at, updated_at`

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit

	err := row.Scan(
		&v.ID,
		&v.PatientID,
		&v.DoctorID,
		&v.AppointmentID,
		&v.Symptoms,
		&v.Diagnosis,
		&v.Notes,
		&v.VisitDate,
		&v.CreatedBy,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &v, nil
}

func (r *PgRepository) Create(ctx context.Context, v *Visit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.VisitDate.IsZero() {
		v.VisitDate = time.Now()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO visits (id, patient_id, doctor_id, appointment_id, symptoms, diagnosis, notes, visit_date, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+visitColumns+`
	`, v.ID, v.PatientID, v.DoctorID, v.AppointmentID, v.Symptoms, v.Diagnosis, v.Notes, v.VisitDate, v.CreatedBy)

	created, err := scanVisit(row)
	if err != nil {
		return err
	}
	*v = *created
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+visitColumns+`
		FROM visits
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return scanVisit(row)
}

func (r *PgRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Visit, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+visitColumns+`
		FROM visits
		WHERE appointment_id = $1 AND deleted_at IS NULL
	`, appointmentID)
	return scanVisit(row)
}

const detailColumns = `
	v.id, v.patient_id, v.doctor_id, v.appointment_id, v.symptoms, v.diagnosis, v.notes, v.visit_date, v.created_by, v.created_at, v.updated_at,
	p.id, p.first_name, p.last_name, p.phone, p.gender, p.date_of_birth, p.address, p.created_by, p.created_at, p.updated_at,
	d.id, d.user_id, d.name, d.specialization, d.phone, d.email, d.created_at, d.updated_at,
	a.id, a.patient_id, a.doctor_id, a.appointment_date, a.timeslot, a.status, a.notes, a.created_by, a.created_at, a.updated_at
`

func scanDetail(row pgx.Row) (*Detail, error) {
	var det Detail
	var pat patient.Patient
	var dob *time.Time
	var doc doctor.Doctor

	var apptID *uuid.UUID
	var apptPatientID, apptDoctorID *uuid.UUID
	var apptDate *time.Time
	var apptTimeslot, apptStatus *string
	var apptNotes *string
	var apptCreatedBy *uuid.UUID
	var apptCreatedAt, apptUpdatedAt *time.Time

	err := row.Scan(
		&det.ID, &det.PatientID, &det.DoctorID, &det.AppointmentID, &det.Symptoms, &det.Diagnosis, &det.Notes, &det.VisitDate, &det.CreatedBy, &det.CreatedAt, &det.UpdatedAt,
		&pat.ID, &pat.FirstName, &pat.LastName, &pat.Phone, &pat.Gender, &dob, &pat.Address, &pat.CreatedBy, &pat.CreatedAt, &pat.UpdatedAt,
		&doc.ID, &doc.UserID, &doc.Name, &doc.Specialization, &doc.Phone, &doc.Email, &doc.CreatedAt, &doc.UpdatedAt,
		&apptID, &apptPatientID, &apptDoctorID, &apptDate, &apptTimeslot, &apptStatus, &apptNotes, &apptCreatedBy, &apptCreatedAt, &apptUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if dob != nil {
		d := jsontypes.NewDate(*dob)
		pat.DateOfBirth = &d
	}
	det.Patient = &pat
	det.Doctor = &doc

	if apptID != nil {
		det.Appointment = &appointment.Appointment{
			ID:        *apptID,
			PatientID: *apptPatientID,
			DoctorID:  *apptDoctorID,
			Date:      jsontypes.NewDate(*apptDate),
			Timeslot:  *apptTimeslot,
			Status:    appointment.Status(*apptStatus),
			Notes:     apptNotes,
			CreatedBy: apptCreatedBy,
			CreatedAt: *apptCreatedAt,
			UpdatedAt: *apptUpdatedAt,
		}
	}
	return &det, nil
}

func (r *PgRepository) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+detailColumns+`
		FROM visits v
		JOIN patients p ON p.id = v.patient_id
		JOIN doctors d ON d.id = v.doctor_id
		LEFT JOIN appointments a ON a.id = v.appointment_id
		WHERE v.id = $1 AND v.deleted_at IS NULL
	`, id)
	return scanDetail(row)
}

func (r *PgRepository) List(ctx context.Context, filter ListFilter) ([]Detail, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM visits v
		JOIN patients p ON p.id = v.patient_id
		JOIN doctors d ON d.id = v.doctor_id
		LEFT JOIN appointments a ON a.id = v.appointment_id
		WHERE v.deleted_at IS NULL
	`
	args := []any{}

	if filter.DoctorID != nil {
		args = append(args, *filter.DoctorID)
		query += fmt.Sprintf(` AND v.doctor_id = $%d`, len(args))
	}
	if filter.PatientID != nil {
		args = append(args, *filter.PatientID)
		query += fmt.Sprintf(` AND v.patient_id = $%d`, len(args))
	}

	query += ` ORDER BY v.visit_date DESC`
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

func (r *PgRepository) Update(ctx context.Context, v *Visit) error {
	row := r.pool.QueryRow(ctx, `
		UPDATE visits
		SET symptoms = $2,
		    diagnosis = $3,
		    notes = $4,
		    visit_date = $5,
		    updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+visitColumns+`
	`, v.ID, v.Symptoms, v.Diagnosis, v.Notes, v.VisitDate)

	updated, err := scanVisit(row)
	if err != nil {
		return err
	}
	*v = *updated
	return nil
}

func (r *PgRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE visits SET deleted_at = now(), updated_at = now()
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

func (r *PgRepository) ConvertFromAppointment(ctx context.Context, appointmentID uuid.UUID, actorID *uuid.UUID) (*Visit, bool, error) {
	var result *Visit
	var created bool

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var apptStatus string
		var patientID, doctorID uuid.UUID
		var apptCreatedBy *uuid.UUID

		err := tx.QueryRow(ctx, `
			SELECT patient_id, doctor_id, status, created_by
			FROM appointments
			WHERE id = $1 AND deleted_at IS NULL
			FOR UPDATE
		`, appointmentID).Scan(&patientID, &doctorID, &apptStatus, &apptCreatedBy)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return appointment.ErrNotFound
			}
			return fmt.Errorf("lock appointment: %w", err)
		}

		existing, err := scanVisit(tx.QueryRow(ctx, `
			SELECT `+visitColumns+`
			FROM visits
			WHERE appointment_id = $1 AND deleted_at IS NULL
		`, appointmentID))
		if err == nil {
			result = existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("check existing visit: %w", err)
		}

		if appointment.Status(apptStatus) != appointment.StatusScheduled {
			return ErrNotConvertible
		}

		if _, err := tx.Exec(ctx, `
			UPDATE appointments SET status = $2, updated_at = now()
			WHERE id = $1
		`, appointmentID, string(appointment.StatusCompleted)); err != nil {
			return fmt.Errorf("complete appointment: %w", err)
		}

		createdBy := actorID
		if createdBy == nil {
			createdBy = apptCreatedBy
		}

		v, err := scanVisit(tx.QueryRow(ctx, `
			INSERT INTO visits (id, patient_id, doctor_id, appointment_id, visit_date, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), $5, now(), now())
			RETURNING `+visitColumns+`
		`, uuid.New(), patientID, doctorID, appointmentID, createdBy))
		if err != nil {
			return fmt.Errorf("create visit: %w", err)
		}

		result = v
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return result, created, nil
}
