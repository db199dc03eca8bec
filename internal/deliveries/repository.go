package deliveries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/backline-erp/backline/internal/documents"
	"github.com/backline-erp/backline/internal/platform/db"
	"github.com/backline-erp/backline/internal/platform/httpx"
)

// Repository defines persistence operations for delivery notes.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	NextNumber(ctx context.Context, now time.Time) (string, error)
	Get(ctx context.Context, id int64) (*DeliveryNote, error)
	List(ctx context.Context, req ListDeliveryNotesRequest) ([]DeliveryNote, int, error)
	Create(ctx context.Context, note DeliveryNote) (int64, error)
	UpdateHeader(ctx context.Context, note DeliveryNote) error
	Delete(ctx context.Context, id int64) error
	GetItem(ctx context.Context, noteID, itemID int64) (*Item, error)
	InsertItem(ctx context.Context, item Item) (*Item, error)
	UpdateItem(ctx context.Context, item Item) (*Item, error)
	DeleteItem(ctx context.Context, noteID, itemID int64) error
	ProjectExists(ctx context.Context, projectID int64) (bool, error)
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
	return documents.NextNumber(ctx, r.db, documents.TypeDeliveryNote, now)
}

const noteColumns = `id, document_number, project_id, client_name, client_email, client_phone,
	client_address, issue_date, delivery_date, status, notes, created_by, created_at, updated_at`

func scanNote(row pgx.Row) (*DeliveryNote, error) {
	var note DeliveryNote
	var status string
	err := row.Scan(&note.ID, &note.DocumentNumber, &note.ProjectID, &note.ClientName,
		&note.ClientEmail, &note.ClientPhone, &note.ClientAddress, &note.IssueDate,
		&note.DeliveryDate, &status, &note.Notes, &note.CreatedBy, &note.CreatedAt,
		&note.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: delivery note", httpx.ErrNotFound)
		}
		return nil, err
	}
	note.Status = Status(status)
	return &note, nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.DeliveryNoteID, &item.EquipmentID, &item.Description, &item.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: delivery item", httpx.ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*DeliveryNote, error) {
	note, err := scanNote(r.db.QueryRow(ctx,
		`SELECT `+noteColumns+` FROM delivery_notes WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, delivery_note_id, equipment_id, description, quantity
		FROM delivery_items WHERE delivery_note_id = $1 ORDER BY id ASC
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
		note.Items = append(note.Items, *item)
	}
	return note, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListDeliveryNotesRequest) ([]DeliveryNote, int, error) {
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
	if req.ProjectID != nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argPos))
		args = append(args, *req.ProjectID)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM delivery_notes %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM delivery_notes
		%s
		ORDER BY issue_date DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, noteColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, (req.Page-1)*req.Limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []DeliveryNote
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *note)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, note DeliveryNote) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO delivery_notes (document_number, project_id, client_name, client_email,
			client_phone, client_address, issue_date, delivery_date, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, note.DocumentNumber, note.ProjectID, note.ClientName, note.ClientEmail, note.ClientPhone,
		note.ClientAddress, note.IssueDate, note.DeliveryDate, string(note.Status), note.Notes,
		note.CreatedBy).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: document number already exists", httpx.ErrConflict)
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateHeader(ctx context.Context, note DeliveryNote) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE delivery_notes
		SET project_id = $1, client_name = $2, client_email = $3, client_phone = $4,
		    client_address = $5, issue_date = $6, delivery_date = $7, status = $8,
		    notes = $9, updated_at = $10
		WHERE id = $11
	`, note.ProjectID, note.ClientName, note.ClientEmail, note.ClientPhone, note.ClientAddress,
		note.IssueDate, note.DeliveryDate, string(note.Status), note.Notes,
		time.Now().UTC(), note.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: delivery note", httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM delivery_notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: delivery note", httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) GetItem(ctx context.Context, noteID, itemID int64) (*Item, error) {
	return scanItem(r.db.QueryRow(ctx, `
		SELECT id, delivery_note_id, equipment_id, description, quantity
		FROM delivery_items WHERE id = $1 AND delivery_note_id = $2
	`, itemID, noteID))
}

func (r *repository) InsertItem(ctx context.Context, item Item) (*Item, error) {
	return scanItem(r.db.QueryRow(ctx, `
		INSERT INTO delivery_items (delivery_note_id, equipment_id, description, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, delivery_note_id, equipment_id, description, quantity
	`, item.DeliveryNoteID, item.EquipmentID, item.Description, item.Quantity))
}

func (r *repository) UpdateItem(ctx context.Context, item Item) (*Item, error) {
	return scanItem(r.db.QueryRow(ctx, `
		UPDATE delivery_items
		SET equipment_id = $1, description = $2, quantity = $3
		WHERE id = $4 AND delivery_note_id = $5
		RETURNING id, delivery_note_id, equipment_id, description, quantity
	`, item.EquipmentID, item.Description, item.Quantity, item.ID, item.DeliveryNoteID))
}

func (r *repository) DeleteItem(ctx context.Context, noteID, itemID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM delivery_items WHERE id = $1 AND delivery_note_id = $2`, itemID, noteID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: delivery item", httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) ProjectExists(ctx context.Context, projectID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, projectID).Scan(&exists)
	return exists, err
}

func (r *repository) EquipmentExists(ctx context.Context, equipmentID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM equipment WHERE id = $1)`, equipmentID).Scan(&exists)
	return exists, err
}
