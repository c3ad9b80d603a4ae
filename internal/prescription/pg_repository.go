package prescription

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const prescriptionColumns = `id, visit_id, patient_id, doctor_id, diagnosis, status, notes, created_by, created_at, updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	var status string

	err := row.Scan(
		&p.ID,
		&p.VisitID,
		&p.PatientID,
		&p.DoctorID,
		&p.Diagnosis,
		&status,
		&p.Notes,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p.Status = Status(status)
	return &p, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, prescriptionID uuid.UUID, items []Item) ([]Item, error) {
	result := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.PrescriptionID = prescriptionID

		_, err := tx.Exec(ctx, `
			INSERT INTO prescription_items (id, prescription_id, medication, dosage, frequency, duration, instructions)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.ID, item.PrescriptionID, item.Medication, item.Dosage, item.Frequency, item.Duration, item.Instructions)
		if err != nil {
			return nil, fmt.Errorf("insert prescription item: %w", err)
		}
		result = append(result, item)
	}
	return result, nil
}

func (r *PgRepository) CreateWithItems(ctx context.Context, p *Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		created, err := scanPrescription(tx.QueryRow(ctx, `
			INSERT INTO prescriptions (id, visit_id, patient_id, doctor_id, diagnosis, status, notes, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			RETURNING `+prescriptionColumns+`
		`, p.ID, p.VisitID, p.PatientID, p.DoctorID, p.Diagnosis, string(p.Status), p.Notes, p.CreatedBy))
		if err != nil {
			return fmt.Errorf("insert prescription: %w", err)
		}

		items, err := insertItems(ctx, tx, created.ID, p.Items)
		if err != nil {
			return err
		}

		created.Items = items
		*p = *created
		return nil
	})
}

func (r *PgRepository) loadItems(ctx context.Context, prescriptionID uuid.UUID) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, prescription_id, medication, dosage, frequency, duration, instructions
		FROM prescription_items
		WHERE prescription_id = $1
		ORDER BY id
	`, prescriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.PrescriptionID, &item.Medication, &item.Dosage, &item.Frequency, &item.Duration, &item.Instructions); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.pool.QueryRow(ctx, `
		SELECT `+prescriptionColumns+`
		FROM prescriptions
		WHERE id = $1 AND deleted_at IS NULL
	`, id))
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("load prescription items: %w", err)
	}
	p.Items = items
	return p, nil
}

func (r *PgRepository) List(ctx context.Context, filter ListFilter) ([]Prescription, error) {
	query := `
		SELECT ` + prescriptionColumns + `
		FROM prescriptions
		WHERE deleted_at IS NULL
	`
	args := []any{}

	if filter.DoctorID != nil {
		args = append(args, *filter.DoctorID)
		query += fmt.Sprintf(` AND doctor_id = $%d`, len(args))
	}
	if filter.PatientID != nil {
		args = append(args, *filter.PatientID)
		query += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}
	if filter.VisitID != nil {
		args = append(args, *filter.VisitID)
		query += fmt.Sprintf(` AND visit_id = $%d`, len(args))
	}

	query += ` ORDER BY created_at DESC`
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdateWithItems(ctx context.Context, p *Prescription, items []Item) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		updated, err := scanPrescription(tx.QueryRow(ctx, `
			UPDATE prescriptions
			SET diagnosis = $2,
			    status = $3,
			    notes = $4,
			    updated_at = now()
			WHERE id = $1 AND deleted_at IS NULL
			RETURNING `+prescriptionColumns+`
		`, p.ID, p.Diagnosis, string(p.Status), p.Notes))
		if err != nil {
			return err
		}

		if items != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM prescription_items WHERE prescription_id = $1`, p.ID); err != nil {
				return fmt.Errorf("clear prescription items: %w", err)
			}
			inserted, err := insertItems(ctx, tx, p.ID, items)
			if err != nil {
				return err
			}
			updated.Items = inserted
		} else {
			updated.Items = p.Items
		}

		*p = *updated
		return nil
	})
}

func (r *PgRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE prescriptions SET deleted_at = now(), updated_at = now()
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
