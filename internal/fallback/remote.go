package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
	"gorm.io/gorm"
)

// Remote is the authoritative store for a collection.
type Remote[T any] interface {
	List(ctx context.Context, collection string) ([]T, error)
	Insert(ctx context.Context, collection string, rec *T) error
	Update(ctx context.Context, collection, id string, patch Patch) (*T, error)
	Delete(ctx context.Context, collection, id string) error
}

// GormRemote implements Remote on a gorm table named after the collection.
type GormRemote[T any, PT interface {
	*T
	Entity
}] struct {
	db *db.DB
}

func NewGormRemote[T any, PT interface {
	*T
	Entity
}](database *db.DB) *GormRemote[T, PT] {
	return &GormRemote[T, PT]{db: database}
}

func (r *GormRemote[T, PT]) List(ctx context.Context, collection string) ([]T, error) {
	var out []T
	err := r.db.WithContext(ctx).Table(collection).
		Order("display_order ASC").
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRemote[T, PT]) Insert(ctx context.Context, collection string, rec *T) error {
	return r.db.WithContext(ctx).Table(collection).Create(rec).Error
}

func (r *GormRemote[T, PT]) Update(ctx context.Context, collection, id string, patch Patch) (*T, error) {
	var rec T
	err := r.db.WithContext(ctx).Table(collection).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	if err != nil {
		return nil, err
	}

	if err := ApplyPatch(PT(&rec), patch); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Table(collection).Save(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *GormRemote[T, PT]) Delete(ctx context.Context, collection, id string) error {
	var rec T
	return r.db.WithContext(ctx).Table(collection).Where("id = ?", id).Delete(&rec).Error
}

// isMissingTable reports errors meaning the collection's table was never migrated.
func isMissingTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	return strings.Contains(err.Error(), "no such table")
}
