package quotes

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

// Repository defines persistence operations for quotes and their items.
// Item writes and total recomputation run through WithTx so derived fields
// can never drift from the items.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	NextNumber(ctx context.Context, now time.Time) (string, error)
	Get(ctx context.Context, id int64) (*Quote, error)
	List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error)
	Create(ctx context.Context, q Quote) (int64, error)
	UpdateHeader(ctx context.Context, q Quote) error
	Delete(ctx context.Context, id int64) error
	GetItem(ctx context.Context, quoteID, itemID int64) (*Item, error)
	InsertItem(ctx context.Context, item Item) (*Item, error)
	UpdateItem(ctx context.Context, item Item) (*Item, error)
	DeleteItem(ctx context.Context, quoteID, itemID int64) error
	ListItemTotals(ctx context.Context, quoteID int64) ([]decimal.Decimal, error)
	UpdateTotals(ctx context.Context, id int64, totals documents.Totals) error
	EquipmentExists(ctx context.Context, equipmentID int64) (bool, error)
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
	return documents.NextNumber(ctx, r.db, documents.TypeQuote, now)
}

const quoteColumns = `id, document_number, client_name, client_email, client_phone, client_address,
	issue_date, valid_until, tax_rate, subtotal, tax_amount, total_amount, status, notes,
	created_by, created_at, updated_at`

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	var status string
	var taxRate, subtotal, taxAmount, totalAmount pgtype.Numeric
	err := row.Scan(&q.ID, &q.DocumentNumber, &q.ClientName, &q.ClientEmail, &q.ClientPhone,
		&q.ClientAddress, &q.IssueDate, &q.ValidUntil, &taxRate, &subtotal, &taxAmount,
		&totalAmount, &status, &q.Notes, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: quote", httpx.ErrNotFound)
		}
		return nil, err
	}
	q.Status = Status(status)
	q.TaxRate = db.NumericToDecimal(taxRate)
	q.Subtotal = db.NumericToDecimal(subtotal)
	q.TaxAmount = db.NumericToDecimal(taxAmount)
	q.TotalAmount = db.NumericToDecimal(totalAmount)
	return &q, nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	var unitPrice, totalPrice pgtype.Numeric
	err := row.Scan(&item.ID, &item.QuoteID, &item.EquipmentID, &item.Description,
		&item.Quantity, &unitPrice, &totalPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: quote item", httpx.ErrNotFound)
		}
		return nil, err
	}
	item.UnitPrice = db.NumericToDecimal(unitPrice)
	item.TotalPrice = db.NumericToDecimal(totalPrice)
	return &item, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, quote_id, equipment_id, description, quantity, unit_price, total_price
		FROM quote_items WHERE quote_id = $1 ORDER BY id ASC
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
		q.Items = append(q.Items, *item)
	}
	return q, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
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
		fmt.Sprintf("SELECT COUNT(*) FROM quotes %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM quotes
		%s
		ORDER BY issue_date DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, quoteColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, (req.Page-1)*req.Limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *q)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, q Quote) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotes (document_number, client_name, client_email, client_phone,
			client_address, issue_date, valid_until, tax_rate, subtotal, tax_amount,
			total_amount, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, q.DocumentNumber, q.ClientName, q.ClientEmail, q.ClientPhone, q.ClientAddress,
		q.IssueDate, q.ValidUntil, db.DecimalToNumeric(q.TaxRate),
		db.DecimalToNumeric(q.Subtotal), db.DecimalToNumeric(q.TaxAmount),
		db.DecimalToNumeric(q.TotalAmount), string(q.Status), q.Notes, q.CreatedBy).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: document number already exists", httpx.ErrConflict)
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateHeader(ctx context.Context, q Quote) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotes
		SET client_name = $1, client_email = $2, client_phone = $3, client_address = $4,
		    issue_date = $5, valid_until = $6, tax_rate = $7, status = $8, notes = $9,
		    updated_at = $10
		WHERE id = $11
	`, q.ClientName, q.ClientEmail, q.ClientPhone, q.ClientAddress, q.IssueDate,
		q.ValidUntil, db.DecimalToNumeric(q.TaxRate), string(q.Status), q.Notes,
		time.Now().UTC(), q.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quote", httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quote", httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) GetItem(ctx context.Context, quoteID, itemID int64) (*Item, error) {
	return scanItem(r.db.QueryRow(ctx, `
		SELECT id, quote_id, equipment_id, description, quantity, unit_price, total_price
		FROM quote_items WHERE id = $1 AND quote_id = $2
	`, itemID, quoteID))
}

func (r *repository) InsertItem(ctx context.Context, item Item) (*Item, error) {
	return scanItem(r.db.QueryRow(ctx, `
		INSERT INTO quote_items (quote_id, equipment_id, description, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, quote_id, equipment_id, description, quantity, unit_price, total_price
	`, item.QuoteID, item.EquipmentID, item.Description, item.Quantity,
		db.DecimalToNumeric(item.UnitPrice), db.DecimalToNumeric(item.TotalPrice)))
}

func (r *repository) UpdateItem(ctx context.Context, item Item) (*Item, error) {
	return scanItem(r.db.QueryRow(ctx, `
		UPDATE quote_items
		SET equipment_id = $1, description = $2, quantity = $3, unit_price = $4, total_price = $5
		WHERE id = $6 AND quote_id = $7
		RETURNING id, quote_id, equipment_id, description, quantity, unit_price, total_price
	`, item.EquipmentID, item.Description, item.Quantity,
		db.DecimalToNumeric(item.UnitPrice), db.DecimalToNumeric(item.TotalPrice),
		item.ID, item.QuoteID))
}

func (r *repository) DeleteItem(ctx context.Context, quoteID, itemID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM quote_items WHERE id = $1 AND quote_id = $2`, itemID, quoteID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quote item", httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) ListItemTotals(ctx context.Context, quoteID int64) ([]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT total_price FROM quote_items WHERE quote_id = $1`, quoteID)
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
		UPDATE quotes
		SET subtotal = $1, tax_amount = $2, total_amount = $3, updated_at = $4
		WHERE id = $5
	`, db.DecimalToNumeric(totals.Subtotal), db.DecimalToNumeric(totals.TaxAmount),
		db.DecimalToNumeric(totals.Total), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quote", httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) EquipmentExists(ctx context.Context, equipmentID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM equipment WHERE id = $1)`, equipmentID).Scan(&exists)
	return exists, err
}
