// internal/adapters/db/inventory_repository.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"

	"github.com/Masterminds/squirrel"

	"github.com/ammerola/inventory-api/internal/core/domain"
	"github.com/ammerola/inventory-api/internal/core/ports"
)

const inventoryTable = "inventory"

var inventoryColumns = []string{"id", "inventory_name", "description", "photo"}

// InventoryRepository stores one row per item in the inventory table
type InventoryRepository struct {
	db      *sql.DB
	dialect Dialect
	sb      squirrel.StatementBuilderType
	logger  *slog.Logger
}

var _ ports.InventoryRepository = (*InventoryRepository)(nil)

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(sqlDB *sql.DB, dialect Dialect, logger *slog.Logger) *InventoryRepository {
	return &InventoryRepository{
		db:      sqlDB,
		dialect: dialect,
		sb:      dialect.builder().RunWith(sqlDB),
		logger: logger.With(
			slog.String("repository", "inventory"),
			slog.String("dialect", dialect.String())),
	}
}

// Create inserts a new row and returns it with the generated id
func (r *InventoryRepository) Create(ctx context.Context, name, description string, photo *string) (*domain.InventoryItem, error) {
	item, err := domain.NewInventoryItem(name, description, photo)
	if err != nil {
		return nil, err
	}

	insert := r.sb.Insert(inventoryTable).
		Columns("inventory_name", "description", "photo").
		Values(item.Name, item.Description, nullable(item.Photo))

	var id int64
	switch r.dialect {
	case DialectPostgres:
		if err := insert.Suffix("RETURNING id").QueryRowContext(ctx).Scan(&id); err != nil {
			return nil, domain.NewStorageError("failed to insert inventory item", err)
		}
	default:
		res, err := insert.ExecContext(ctx)
		if err != nil {
			return nil, domain.NewStorageError("failed to insert inventory item", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return nil, domain.NewStorageError("failed to read inserted id", err)
		}
	}

	item.ID = strconv.FormatInt(id, 10)

	r.logger.DebugContext(ctx, "inventory item saved",
		slog.String("id", item.ID))

	return item, nil
}

// List returns every row ordered by id
func (r *InventoryRepository) List(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := r.sb.Select(inventoryColumns...).
		From(inventoryTable).
		OrderBy("id ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, domain.NewStorageError("failed to list inventory", err)
	}
	defer rows.Close()

	items := []domain.InventoryItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, domain.NewStorageError("failed to scan inventory item", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("failed to iterate inventory", err)
	}

	return items, nil
}

// GetByID reads a single row by primary key
func (r *InventoryRepository) GetByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, domain.ItemNotFound(id)
	}

	item, err := scanItem(r.sb.Select(inventoryColumns...).
		From(inventoryTable).
		Where(squirrel.Eq{"id": key}).
		QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ItemNotFound(id)
		}
		return nil, domain.NewStorageError("failed to get inventory item", err)
	}

	return item, nil
}

// Update sets only the supplied columns, then re-reads the row
func (r *InventoryRepository) Update(ctx context.Context, id string, patch domain.ItemPatch) (*domain.InventoryItem, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	key, ok := parseID(id)
	if !ok {
		return nil, domain.ItemNotFound(id)
	}

	// Apply normalises the name the same way the file backend does
	var patched domain.InventoryItem
	patch.Apply(&patched)

	update := r.sb.Update(inventoryTable).Where(squirrel.Eq{"id": key})
	if patch.Name != nil {
		update = update.Set("inventory_name", patched.Name)
	}
	if patch.Description != nil {
		update = update.Set("description", patched.Description)
	}

	if err := r.execOne(ctx, update, id, "failed to update inventory item"); err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "inventory item updated", slog.String("id", id))
	return r.GetByID(ctx, id)
}

// SetPhoto overwrites the photo reference of an existing row
func (r *InventoryRepository) SetPhoto(ctx context.Context, id, photo string) (*domain.InventoryItem, error) {
	if photo == "" {
		return nil, &domain.ValidationError{Field: "photo", Reason: "is required"}
	}

	key, ok := parseID(id)
	if !ok {
		return nil, domain.ItemNotFound(id)
	}

	update := r.sb.Update(inventoryTable).
		Set("photo", photo).
		Where(squirrel.Eq{"id": key})

	if err := r.execOne(ctx, update, id, "failed to set inventory photo"); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// Delete removes a row
func (r *InventoryRepository) Delete(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		return domain.ItemNotFound(id)
	}

	res, err := r.sb.Delete(inventoryTable).
		Where(squirrel.Eq{"id": key}).
		ExecContext(ctx)
	if err != nil {
		return domain.NewStorageError("failed to delete inventory item", err)
	}

	if err := requireRow(res, id); err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "inventory item deleted", slog.String("id", id))
	return nil
}

// Ping verifies database connectivity
func (r *InventoryRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return domain.NewStorageError("failed to ping database", err)
	}
	return nil
}

func (r *InventoryRepository) execOne(ctx context.Context, update squirrel.UpdateBuilder, id, op string) error {
	res, err := update.ExecContext(ctx)
	if err != nil {
		return domain.NewStorageError(op, err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewStorageError("failed to read affected rows", err)
	}
	if n == 0 {
		return domain.ItemNotFound(id)
	}
	return nil
}

// parseID accepts only the canonical decimal form an id is rendered in, so
// "01" or "1.0" never alias row 1
func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != id {
		return 0, false
	}
	return n, true
}

func scanItem(row squirrel.RowScanner) (*domain.InventoryItem, error) {
	var (
		id    int64
		item  domain.InventoryItem
		photo sql.NullString
	)

	if err := row.Scan(&id, &item.Name, &item.Description, &photo); err != nil {
		return nil, err
	}

	item.ID = strconv.FormatInt(id, 10)
	if photo.Valid && photo.String != "" {
		p := photo.String
		item.Photo = &p
	}

	return &item, nil
}

func nullable(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
