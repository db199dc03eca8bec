package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/backline-erp/backline/internal/platform/db"
	"github.com/backline-erp/backline/internal/platform/httpx"
)

// Repository defines persistence operations for projects and allocations.
// WithTx yields a Repository bound to one transaction so the allocation state
// machine runs atomically.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Project, error)
	List(ctx context.Context, req ListProjectsRequest) ([]Project, int, error)
	Create(ctx context.Context, p Project) (*Project, error)
	Update(ctx context.Context, p Project) (*Project, error)
	Delete(ctx context.Context, id int64) error
	ListAllocations(ctx context.Context, projectID int64) ([]Allocation, error)
	GetOpenAllocation(ctx context.Context, projectID, equipmentID int64) (*Allocation, error)
	HasOpenAllocations(ctx context.Context, projectID int64) (bool, error)
	InsertAllocation(ctx context.Context, a Allocation) (*Allocation, error)
	CloseAllocation(ctx context.Context, id int64, returnedDate time.Time) error
	LockEquipment(ctx context.Context, equipmentID int64) (available bool, err error)
	SetEquipmentAvailability(ctx context.Context, equipmentID int64, available bool) error
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

const projectColumns = `id, name, description, client_name, client_email, client_phone, client_address,
	start_date, end_date, status, created_by, created_at, updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	var status string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.ClientName, &p.ClientEmail,
		&p.ClientPhone, &p.ClientAddress, &p.StartDate, &p.EndDate, &status,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: project", httpx.ErrNotFound)
		}
		return nil, err
	}
	p.Status = Status(status)
	return &p, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Project, error) {
	p, err := scanProject(r.db.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	allocations, err := r.ListAllocations(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Allocations = allocations
	return p, nil
}

func (r *repository) List(ctx context.Context, req ListProjectsRequest) ([]Project, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR client_name ILIKE $%d)", argPos, argPos))
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
		fmt.Sprintf("SELECT COUNT(*) FROM projects %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM projects
		%s
		ORDER BY start_date DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, projectColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, (req.Page-1)*req.Limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *p)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Project) (*Project, error) {
	return scanProject(r.db.QueryRow(ctx, `
		INSERT INTO projects (name, description, client_name, client_email, client_phone,
			client_address, start_date, end_date, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+projectColumns,
		p.Name, p.Description, p.ClientName, p.ClientEmail, p.ClientPhone,
		p.ClientAddress, p.StartDate, p.EndDate, string(p.Status), p.CreatedBy))
}

func (r *repository) Update(ctx context.Context, p Project) (*Project, error) {
	return scanProject(r.db.QueryRow(ctx, `
		UPDATE projects
		SET name = $1, description = $2, client_name = $3, client_email = $4,
		    client_phone = $5, client_address = $6, start_date = $7, end_date = $8,
		    status = $9, updated_at = $10
		WHERE id = $11
		RETURNING `+projectColumns,
		p.Name, p.Description, p.ClientName, p.ClientEmail, p.ClientPhone,
		p.ClientAddress, p.StartDate, p.EndDate, string(p.Status), time.Now().UTC(), p.ID))
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: project", httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) ListAllocations(ctx context.Context, projectID int64) ([]Allocation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT pe.id, pe.project_id, pe.equipment_id, e.name, pe.quantity,
		       pe.allocated_date, pe.returned_date
		FROM project_equipment pe
		JOIN equipment e ON e.id = pe.equipment_id
		WHERE pe.project_id = $1
		ORDER BY pe.allocated_date DESC, pe.id DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Allocation
	for rows.Next() {
		var a Allocation
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.EquipmentID, &a.EquipmentName,
			&a.Quantity, &a.AllocatedDate, &a.ReturnedDate); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *repository) GetOpenAllocation(ctx context.Context, projectID, equipmentID int64) (*Allocation, error) {
	var a Allocation
	err := r.db.QueryRow(ctx, `
		SELECT id, project_id, equipment_id, quantity, allocated_date, returned_date
		FROM project_equipment
		WHERE project_id = $1 AND equipment_id = $2 AND returned_date IS NULL
	`, projectID, equipmentID).Scan(&a.ID, &a.ProjectID, &a.EquipmentID,
		&a.Quantity, &a.AllocatedDate, &a.ReturnedDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: allocation", httpx.ErrNotFound)
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) HasOpenAllocations(ctx context.Context, projectID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM project_equipment
			WHERE project_id = $1 AND returned_date IS NULL
		)
	`, projectID).Scan(&exists)
	return exists, err
}

func (r *repository) InsertAllocation(ctx context.Context, a Allocation) (*Allocation, error) {
	var inserted Allocation
	err := r.db.QueryRow(ctx, `
		INSERT INTO project_equipment (project_id, equipment_id, quantity, allocated_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, project_id, equipment_id, quantity, allocated_date, returned_date
	`, a.ProjectID, a.EquipmentID, a.Quantity, a.AllocatedDate).Scan(
		&inserted.ID, &inserted.ProjectID, &inserted.EquipmentID,
		&inserted.Quantity, &inserted.AllocatedDate, &inserted.ReturnedDate)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: equipment already allocated to this project", httpx.ErrConflict)
		}
		return nil, err
	}
	return &inserted, nil
}

func (r *repository) CloseAllocation(ctx context.Context, id int64, returnedDate time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE project_equipment SET returned_date = $1 WHERE id = $2 AND returned_date IS NULL`,
		returnedDate, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: allocation", httpx.ErrNotFound)
	}
	return nil
}

// LockEquipment takes a row lock on the equipment unit and returns its
// availability. Two concurrent allocation attempts serialize here, so only
// the first can still see an available unit.
func (r *repository) LockEquipment(ctx context.Context, equipmentID int64) (bool, error) {
	var available bool
	err := r.db.QueryRow(ctx,
		`SELECT is_available FROM equipment WHERE id = $1 FOR UPDATE`, equipmentID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("%w: equipment", httpx.ErrNotFound)
		}
		return false, err
	}
	return available, nil
}

func (r *repository) SetEquipmentAvailability(ctx context.Context, equipmentID int64, available bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE equipment SET is_available = $1, updated_at = $2 WHERE id = $3`,
		available, time.Now().UTC(), equipmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: equipment", httpx.ErrNotFound)
	}
	return nil
}
