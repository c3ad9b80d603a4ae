package doctor

import (
	"context"
	"errors"

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

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Name,
		&d.Specialization,
		&d.Phone,
		&d.Email,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &d, nil
}

func (r *PgRepository) Create(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctors (id, user_id, name, specialization, phone, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, user_id, name, specialization, phone, email, created_at, updated_at
	`, d.ID, d.UserID, d.Name, d.Specialization, d.Phone, d.Email)

	created, err := scanDoctor(row)
	if err != nil {
		return err
	}
	*d = *created
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, specialization, phone, email, created_at, updated_at
		FROM doctors
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, specialization, phone, email, created_at, updated_at
		FROM doctors
		WHERE user_id = $1 AND deleted_at IS NULL
	`, userID)
	return scanDoctor(row)
}

func (r *PgRepository) Update(ctx context.Context, d *Doctor) error {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctors
		SET name = $2,
		    specialization = $3,
		    phone = $4,
		    email = $5,
		    user_id = $6,
		    updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, user_id, name, specialization, phone, email, created_at, updated_at
	`, d.ID, d.Name, d.Specialization, d.Phone, d.Email, d.UserID)

	updated, err := scanDoctor(row)
	if err != nil {
		return err
	}
	*d = *updated
	return nil
}

func (r *PgRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors SET deleted_at = now(), updated_at = now()
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

func (r *PgRepository) List(ctx context.Context, limit, offset int) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, specialization, phone, email, created_at, updated_at
		FROM doctors
		WHERE deleted_at IS NULL
		ORDER BY name
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}
