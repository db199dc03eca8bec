package equipment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/backline-erp/backline/internal/platform/db"
	"github.com/backline-erp/backline/internal/platform/httpx"
)

// Repository defines persistence operations for equipment.
type Repository interface {
	Get(ctx context.Context, id int64) (*Equipment, error)
	List(ctx context.Context, req ListEquipmentRequest) ([]Equipment, int, error)
	Create(ctx context.Context, e Equipment) (*Equipment, error)
	Update(ctx context.Context, e Equipment) (*Equipment, error)
	Delete(ctx context.Context, id int64) error
	HasOpenAllocation(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const equipmentColumns = `id, name, category, brand, model, serial_number, condition, is_available,
	purchase_price, current_value, purchase_date, last_maintenance, next_maintenance, notes,
	created_at, updated_at`

func scanEquipment(row pgx.Row) (*Equipment, error) {
	var e Equipment
	var condition string
	var purchasePrice, currentValue pgtype.Numeric
	err := row.Scan(&e.ID, &e.Name, &e.Category, &e.Brand, &e.Model, &e.SerialNumber,
		&condition, &e.IsAvailable, &purchasePrice, &currentValue,
		&e.PurchaseDate, &e.LastMaintenance, &e.NextMaintenance, &e.Notes,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: equipment", httpx.ErrNotFound)
		}
		return nil, err
	}
	e.Condition = Condition(condition)
	if purchasePrice.Valid {
		v := db.NumericToDecimal(purchasePrice)
		e.PurchasePrice = &v
	}
	if currentValue.Valid {
		v := db.NumericToDecimal(currentValue)
		e.CurrentValue = &v
	}
	return &e, nil
}

func numericPtr(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return db.DecimalToNumeric(*d)
}

func (r *repository) Get(ctx context.Context, id int64) (*Equipment, error) {
	return scanEquipment(r.pool.QueryRow(ctx,
		`SELECT `+equipmentColumns+` FROM equipment WHERE id = $1`, id))
}

func (r *repository) List(ctx context.Context, req ListEquipmentRequest) ([]Equipment, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR brand ILIKE $%d OR model ILIKE $%d OR serial_number ILIKE $%d)",
			argPos, argPos, argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}
	if req.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argPos))
		args = append(args, req.Category)
		argPos++
	}
	if req.Condition != nil {
		conditions = append(conditions, fmt.Sprintf("condition = $%d", argPos))
		args = append(args, string(*req.Condition))
		argPos++
	}
	if req.Available != nil {
		conditions = append(conditions, fmt.Sprintf("is_available = $%d", argPos))
		args = append(args, *req.Available)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM equipment %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM equipment
		%s
		ORDER BY name ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, equipmentColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, (req.Page-1)*req.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *e)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, e Equipment) (*Equipment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO equipment (name, category, brand, model, serial_number, condition, is_available,
			purchase_price, current_value, purchase_date, last_maintenance, next_maintenance, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+equipmentColumns,
		e.Name, e.Category, e.Brand, e.Model, e.SerialNumber, string(e.Condition), e.IsAvailable,
		numericPtr(e.PurchasePrice), numericPtr(e.CurrentValue),
		e.PurchaseDate, e.LastMaintenance, e.NextMaintenance, e.Notes)
	created, err := scanEquipment(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: serial number already registered", httpx.ErrConflict)
		}
		return nil, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, e Equipment) (*Equipment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE equipment
		SET name = $1, category = $2, brand = $3, model = $4, serial_number = $5,
		    condition = $6, purchase_price = $7, current_value = $8, purchase_date = $9,
		    last_maintenance = $10, next_maintenance = $11, notes = $12, updated_at = $13
		WHERE id = $14
		RETURNING `+equipmentColumns,
		e.Name, e.Category, e.Brand, e.Model, e.SerialNumber, string(e.Condition),
		numericPtr(e.PurchasePrice), numericPtr(e.CurrentValue), e.PurchaseDate,
		e.LastMaintenance, e.NextMaintenance, e.Notes, time.Now().UTC(), e.ID)
	updated, err := scanEquipment(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: serial number already registered", httpx.ErrConflict)
		}
		return nil, err
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: equipment", httpx.ErrNotFound)
	}
	return nil
}

// HasOpenAllocation reports whether the unit is allocated to a project still
// in planning or active.
func (r *repository) HasOpenAllocation(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM project_equipment pe
			JOIN projects p ON p.id = pe.project_id
			WHERE pe.equipment_id = $1
			  AND pe.returned_date IS NULL
			  AND p.status IN ('planning', 'active')
		)
	`, id).Scan(&exists)
	return exists, err
}
