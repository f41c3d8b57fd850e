package internal

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

// Query describes a list request
type Query struct {
	// Page is 1-based; Size 0 disables pagination
	Page int
	Size int

	// Filter is a column equality filter
	Filter map[string]interface{}

	// Order holds ORDER BY terms applied in sequence, e.g. "display_order ASC"
	Order []string
}

// DAO provides generic database operations for resources keyed by a string id
type DAO[T any] struct {
	db *gorm.DB
}

// NewDAO creates a new DAO instance
func NewDAO[T any](db *gorm.DB) *DAO[T] {
	return &DAO[T]{db: db}
}

// Create creates a new resource
func (d *DAO[T]) Create(ctx context.Context, resource *T) error {
	return d.db.WithContext(ctx).Create(resource).Error
}

// Get retrieves a resource by ID
func (d *DAO[T]) Get(ctx context.Context, id string) (*T, error) {
	var resource T
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&resource).Error
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

// List retrieves resources matching the query together with the unpaginated total
func (d *DAO[T]) List(ctx context.Context, q Query) ([]T, int64, error) {
	var resources []T
	var total int64

	query := d.db.WithContext(ctx).Model(new(T))
	if len(q.Filter) > 0 {
		query = query.Where(q.Filter)
	}

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	for _, term := range q.Order {
		query = query.Order(term)
	}
	if q.Size > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * q.Size).Limit(q.Size)
	}

	err = query.Find(&resources).Error
	if err != nil {
		return nil, 0, err
	}

	return resources, total, nil
}

// Save writes every field of a previously loaded resource
func (d *DAO[T]) Save(ctx context.Context, resource *T) error {
	return d.db.WithContext(ctx).Save(resource).Error
}

// UpdateColumns writes the given columns on the row with the given ID and returns
// the row as read back inside the same transaction. It returns nil, nil when no
// row matched.
func (d *DAO[T]) UpdateColumns(ctx context.Context, id string, columns map[string]interface{}) (*T, error) {
	var updated *T
	err := d.Transaction(ctx, func(tx *gorm.DB) error {
		result := tx.Model(new(T)).Where("id = ?", id).Updates(columns)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		var resource T
		if err := tx.Where("id = ?", id).First(&resource).Error; err != nil {
			return err
		}
		updated = &resource
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete deletes a resource by ID
func (d *DAO[T]) Delete(ctx context.Context, id string) error {
	result := d.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Max returns the largest value of an integer column; ok is false when the table is empty
func (d *DAO[T]) Max(ctx context.Context, column string) (int64, bool, error) {
	var value sql.NullInt64
	row := d.db.WithContext(ctx).Model(new(T)).Select(fmt.Sprintf("MAX(%s)", column)).Row()
	if err := row.Scan(&value); err != nil {
		return 0, false, err
	}
	return value.Int64, value.Valid, nil
}

// AutoMigrate performs database migration for the resource
func (d *DAO[T]) AutoMigrate() error {
	return d.db.AutoMigrate(new(T))
}

// Transaction executes a function within a database transaction
func (d *DAO[T]) Transaction(ctx context.Context, fc func(tx *gorm.DB) error) error {
	return d.db.WithContext(ctx).Transaction(fc)
}
