package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const invoiceColumns = `id, visit_id, patient_id, subtotal, discount, total, payment_status, payment_method, paid_at, created_by, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var status string
	var method *string

	err := row.Scan(
		&inv.ID,
		&inv.VisitID,
		&inv.PatientID,
		&inv.Subtotal,
		&inv.Discount,
		&inv.Total,
		&status,
		&method,
		&inv.PaidAt,
		&inv.CreatedBy,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	inv.PaymentStatus = PaymentStatus(status)
	if method != nil {
		m := PaymentMethod(*method)
		inv.PaymentMethod = &m
	}
	return &inv, nil
}

func (r *PgRepository) CreateWithItems(ctx context.Context, inv *Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}

	var method *string
	if inv.PaymentMethod != nil {
		m := string(*inv.PaymentMethod)
		method = &m
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		created, err := scanInvoice(tx.QueryRow(ctx, `
			INSERT INTO invoices (id, visit_id, patient_id, subtotal, discount, total, payment_status, payment_method, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
			RETURNING `+invoiceColumns+`
		`, inv.ID, inv.VisitID, inv.PatientID, inv.Subtotal, inv.Discount, inv.Total, string(inv.PaymentStatus), method, inv.CreatedBy))
		if err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}

		items := make([]Item, 0, len(inv.Items))
		for _, item := range inv.Items {
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.InvoiceID = created.ID

			_, err := tx.Exec(ctx, `
				INSERT INTO invoice_items (id, invoice_id, description, quantity, unit_price, amount)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, item.ID, item.InvoiceID, item.Description, item.Quantity, item.UnitPrice, item.Amount)
			if err != nil {
				return fmt.Errorf("insert invoice item: %w", err)
			}
			items = append(items, item)
		}

		created.Items = items
		*inv = *created
		return nil
	})
}

func (r *PgRepository) loadItems(ctx context.Context, invoiceID uuid.UUID) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, description, quantity, unit_price, amount
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &item.UnitPrice, &item.Amount); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1 AND deleted_at IS NULL
	`, id))
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("load invoice items: %w", err)
	}
	inv.Items = items
	return inv, nil
}

func (r *PgRepository) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE deleted_at IS NULL
	`
	args := []any{}

	if filter.PaymentStatus != nil {
		args = append(args, string(*filter.PaymentStatus))
		query += fmt.Sprintf(` AND payment_status = $%d`, len(args))
	}
	if filter.PatientID != nil {
		args = append(args, *filter.PatientID)
		query += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}

	query += ` ORDER BY created_at DESC`
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *inv)
	}
	return result, rows.Err()
}

func (r *PgRepository) MarkPaid(ctx context.Context, id uuid.UUID, method PaymentMethod, paidAt time.Time) (*Invoice, error) {
	return scanInvoice(r.pool.QueryRow(ctx, `
		UPDATE invoices
		SET payment_status = $2,
		    payment_method = $3,
		    paid_at = $4,
		    updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+invoiceColumns+`
	`, id, string(PaymentStatusPaid), string(method), paidAt))
}

func (r *PgRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET deleted_at = now(), updated_at = now()
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
