package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/backline-erp/backline/internal/documents"
	"github.com/backline-erp/backline/internal/platform/db"
	"github.com/backline-erp/backline/internal/platform/httpx"
)

// Repository defines persistence operations for invoices and their items.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	NextNumber(ctx context.Context, now time.Time) (string, error)
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	Create(ctx context.Context, inv Invoice) (int64, error)
	UpdateHeader(ctx context.Context, inv Invoice) error
	Delete(ctx context.Context, id int64) error
	GetItem(ctx context.Context, invoiceID, itemID int64) (*Item, error)
	InsertItem(ctx context.Context, item Item) (*Item, error)
	UpdateItem(ctx context.Context, item Item) (*Item, error)
	DeleteItem(ctx context.Context, invoiceID, itemID int64) error
	ListItemTotals(ctx context.Context, invoiceID int64) ([]decimal.Decimal, error)
	UpdateTotals(ctx context.Context, id int64, totals documents.Totals) error
	EquipmentExists(ctx context.Context, equipmentID int64) (bool, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) NextNumber(ctx context.Context, now time.Time) (string, error) {
	return documents.NextNumber(ctx, r.db, documents.TypeInvoice, now)
}

const invoiceColumns = `id, document_number, client_name, client_email, client_phone, client_address,
	issue_date, due_date, tax_rate, subtotal, tax_amount, total_amount, status, notes,
	created_by, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var status string
	var taxRate, subtotal, taxAmount, totalAmount pgtype.Numeric
	err := row.Scan(&inv.ID, &inv.DocumentNumber, &inv.ClientName, &inv.ClientEmail,
		&inv.ClientPhone, &inv.ClientAddress, &inv.IssueDate, &inv.DueDate, &taxRate,
		&subtotal, &taxAmount, &totalAmount, &status, &inv.Notes, &inv.CreatedBy,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: invoice", httpx.ErrNotFound)
		}
		return nil, err
	}
	inv.Status = Status(status)
	inv.TaxRate = db.NumericToDecimal(taxRate)
	inv.Subtotal = db.NumericToDecimal(subtotal)
	inv.TaxAmount = db.NumericToDecimal(taxAmount)
	inv.TotalAmount = db.NumericToDecimal(totalAmount)
	return &inv, nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	var unitPrice, totalPrice pgtype.Numeric
	err := row.Scan(&item.ID, &item.InvoiceID, &item.EquipmentID, &item.Description,
		&item.Quantity, &unitPrice, &totalPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: invoice item", httpx.ErrNotFound)
		}
		return nil, err
	}
	item.UnitPrice = db.NumericToDecimal(unitPrice)
	item.TotalPrice = db.NumericToDecimal(totalPrice)
	return &item, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, equipment_id, description, quantity, unit_price, total_price
		FROM invoice_items WHERE invoice_id = $1 ORDER BY id ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, *item)
	}
	return inv, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(document_number ILIKE $%d OR client_name ILIKE $%d OR client_email ILIKE $%d)",
			argPos, argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM invoices %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM invoices
		%s
		ORDER BY issue_date DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, invoiceColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, (req.Page-1)*req.Limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *inv)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoices (document_number, client_name, client_email, client_phone,
			client_address, issue_date, due_date, tax_rate, subtotal, tax_amount,
			total_amount, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, inv.DocumentNumber, inv.ClientName, inv.ClientEmail, inv.ClientPhone, inv.ClientAddress,
		inv.IssueDate, inv.DueDate, db.DecimalToNumeric(inv.TaxRate),
		db.DecimalToNumeric(inv.Subtotal), db.DecimalToNumeric(inv.TaxAmount),
		db.DecimalToNumeric(inv.TotalAmount), string(inv.Status), inv.Notes, inv.CreatedBy).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: document number already exists", httpx.ErrConflict)
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateHeader(ctx context.Context, inv Invoice) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET client_name = $1, client_email = $2, client_phone = $3, client_address = $4,
		    issue_date = $5, due_date = $6, tax_rate = $7, status = $8, notes = $9,
		    updated_at = $10
		WHERE id = $11
	`, inv.ClientName, inv.ClientEmail, inv.ClientPhone, inv.ClientAddress, inv.IssueDate,
		inv.DueDate, db.DecimalToNumeric(inv.TaxRate), string(inv.Status), inv.Notes,
		time.Now().UTC(), inv.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice", httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice", httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) GetItem(ctx context.Context, invoiceID, itemID int64) (*Item, error) {
	return scanItem(r.db.QueryRow(ctx, `
		SELECT id, invoice_id, equipment_id, description, quantity, unit_price, total_price
		FROM invoice_items WHERE id = $1 AND invoice_id = $2
	`, itemID, invoiceID))
}

func (r *repository) InsertItem(ctx context.Context, item Item) (*Item, error) {
	return scanItem(r.db.QueryRow(ctx, `
		INSERT INTO invoice_items (invoice_id, equipment_id, description, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, invoice_id, equipment_id, description, quantity, unit_price, total_price
	`, item.InvoiceID, item.EquipmentID, item.Description, item.Quantity,
		db.DecimalToNumeric(item.UnitPrice), db.DecimalToNumeric(item.TotalPrice)))
}

func (r *repository) UpdateItem(ctx context.Context, item Item) (*Item, error) {
	return scanItem(r.db.QueryRow(ctx, `
		UPDATE invoice_items
		SET equipment_id = $1, description = $2, quantity = $3, unit_price = $4, total_price = $5
		WHERE id = $6 AND invoice_id = $7
		RETURNING id, invoice_id, equipment_id, description, quantity, unit_price, total_price
	`, item.EquipmentID, item.Description, item.Quantity,
		db.DecimalToNumeric(item.UnitPrice), db.DecimalToNumeric(item.TotalPrice),
		item.ID, item.InvoiceID))
}

func (r *repository) DeleteItem(ctx context.Context, invoiceID, itemID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM invoice_items WHERE id = $1 AND invoice_id = $2`, itemID, invoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice item", httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) ListItemTotals(ctx context.Context, invoiceID int64) ([]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT total_price FROM invoice_items WHERE invoice_id = $1`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []decimal.Decimal
	for rows.Next() {
		var n pgtype.Numeric
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		totals = append(totals, db.NumericToDecimal(n))
	}
	return totals, rows.Err()
}

func (r *repository) UpdateTotals(ctx context.Context, id int64, totals documents.Totals) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET subtotal = $1, tax_amount = $2, total_amount = $3, updated_at = $4
		WHERE id = $5
	`, db.DecimalToNumeric(totals.Subtotal), db.DecimalToNumeric(totals.TaxAmount),
		db.DecimalToNumeric(totals.Total), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice", httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) EquipmentExists(ctx context.Context, equipmentID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM equipment WHERE id = $1)`, equipmentID).Scan(&exists)
	return exists, err
}

// MarkOverdue flips sent invoices past their due date into overdue and
// returns how many rows changed. Driven by the nightly worker job.
func (r *repository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET status = $1, updated_at = $2
		WHERE status = $3 AND due_date IS NOT NULL AND due_date < $4
	`, string(StatusOverdue), time.Now().UTC(), string(StatusSent), asOf)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
