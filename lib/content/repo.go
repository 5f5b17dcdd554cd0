package content

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("content: record not found")
	ErrConflict     = errors.New("content: record conflicts with an existing one")
	ErrNoSlug       = errors.New("content: record type has no slug")
	ErrUnknownField = errors.New("content: unknown field")
)

type orderedRecord interface{ ordering() *Ordered }

type sluggedRecord interface{ slug() string }

type identified interface{ setID(id uint) }

// ListOptions narrows a List or Count call.
type ListOptions struct {
	// ActiveOnly hides inactive records. Ignored for types without Ordered.
	ActiveOnly bool

	// Where holds column equality filters. Keys must be column names the
	// caller controls, never user input.
	Where map[string]any

	Limit  int
	Offset int
}

// Repo is CRUD over one record type.
type Repo[T any] struct {
	db      *gorm.DB
	order   string
	ordered bool
	slugged bool
}

// NewRepo builds a Repo. Records embedding Ordered are listed by position,
// everything else newest first.
func NewRepo[T any](db *gorm.DB) *Repo[T] {
	var zero T
	_, ordered := any(&zero).(orderedRecord)
	_, slugged := any(&zero).(sluggedRecord)

	order := "id desc"
	if ordered {
		order = "position asc, id asc"
	}

	return &Repo[T]{db: db, order: order, ordered: ordered, slugged: slugged}
}

func (r *Repo[T]) scope(ctx context.Context, opts ListOptions) *gorm.DB {
	q := r.db.WithContext(ctx).Model(new(T))
	if opts.ActiveOnly && r.ordered {
		q = q.Where("active = ?", true)
	}
	if len(opts.Where) != 0 {
		q = q.Where(opts.Where)
	}
	return q
}

func (r *Repo[T]) List(ctx context.Context, opts ListOptions) ([]T, error) {
	q := r.scope(ctx, opts).Order(r.order)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	var result []T
	if err := q.Find(&result).Error; err != nil {
		return nil, translate(err)
	}

	return result, nil
}

func (r *Repo[T]) Count(ctx context.Context, opts ListOptions) (int64, error) {
	var n int64
	if err := r.scope(ctx, opts).Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (r *Repo[T]) Get(ctx context.Context, id uint) (*T, error) {
	var result T
	if err := r.db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, fmt.Errorf("%w: id %d", translate(err), id)
	}
	return &result, nil
}

// GetBySlug finds a record by slug. With activeOnly, inactive records are
// reported as not found.
func (r *Repo[T]) GetBySlug(ctx context.Context, slug string, activeOnly bool) (*T, error) {
	if !r.slugged {
		return nil, ErrNoSlug
	}

	var result T
	q := r.scope(ctx, ListOptions{ActiveOnly: activeOnly}).Where("slug = ?", slug)
	if err := q.First(&result).Error; err != nil {
		return nil, fmt.Errorf("%w: slug %q", translate(err), slug)
	}
	return &result, nil
}

// Create inserts rec. Any id set by the caller is ignored.
func (r *Repo[T]) Create(ctx context.Context, rec *T) error {
	if id, ok := any(rec).(identified); ok {
		id.setID(0)
	}
	return translate(r.db.WithContext(ctx).Create(rec).Error)
}

// Update overwrites every field of the record with the given id, zero
// values included, and returns the stored result.
func (r *Repo[T]) Update(ctx context.Context, id uint, rec *T) (*T, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}

	any(rec).(identified).setID(id)

	if err := r.db.WithContext(ctx).Model(rec).Select("*").Omit("id", "created_at").Updates(rec).Error; err != nil {
		return nil, translate(err)
	}

	return r.Get(ctx, id)
}

// Set changes a single column.
func (r *Repo[T]) Set(ctx context.Context, id uint, column string, value any) error {
	res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

func (r *Repo[T]) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return err
	}
}
