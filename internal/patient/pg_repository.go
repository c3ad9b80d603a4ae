package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinic-api/internal/jsontypes"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var dob *time.Time

	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Phone,
		&p.Gender,
		&dob,
		&p.Address,
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

	if dob != nil {
		d := jsontypes.NewDate(*dob)
		p.DateOfBirth = &d
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PgRepository) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	var dob *time.Time
	if p.DateOfBirth != nil {
		t := p.DateOfBirth.Time()
		dob = &t
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, first_name, last_name, phone, gender, date_of_birth, address, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id, first_name, last_name, phone, gender, date_of_birth, address, created_by, created_at, updated_at
	`, p.ID, p.FirstName, p.LastName, p.Phone, p.Gender, dob, p.Address, p.CreatedBy)

	created, err := scanPatient(row)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPhoneTaken
		}
		return err
	}
	*p = *created
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, phone, gender, date_of_birth, address, created_by, created_at, updated_at
		FROM patients
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) Update(ctx context.Context, p *Patient) error {
	var dob *time.Time
	if p.DateOfBirth != nil {
		t := p.DateOfBirth.Time()
		dob = &t
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET first_name = $2,
		    last_name = $3,
		    phone = $4,
		    gender = $5,
		    date_of_birth = $6,
		    address = $7,
		    updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, first_name, last_name, phone, gender, date_of_birth, address, created_by, created_at, updated_at
	`, p.ID, p.FirstName, p.LastName, p.Phone, p.Gender, dob, p.Address)

	updated, err := scanPatient(row)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPhoneTaken
		}
		return err
	}
	*p = *updated
	return nil
}

func (r *PgRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients SET deleted_at = now(), updated_at = now()
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

func (r *PgRepository) List(ctx context.Context, filter ListFilter) ([]Patient, error) {
	query := `
		SELECT id, first_name, last_name, phone, gender, date_of_birth, address, created_by, created_at, updated_at
		FROM patients
		WHERE deleted_at IS NULL
	`
	args := []any{}

	if filter.Search != "" {
		query += ` AND (first_name ILIKE '%' || $1 || '%' OR last_name ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%')`
		args = append(args, filter.Search)
	}

	query += ` ORDER BY created_at DESC`
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}
