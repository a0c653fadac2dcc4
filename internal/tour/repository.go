package tour

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/minh-le0205/tour-rest-api/internal/database"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListOptions filters and pages tours. Sort takes a field name, prefixed
// with "-" for descending order.
type ListOptions struct {
	Limit         int
	Offset        int
	Difficulty    *Difficulty
	MaxPriceCents *int64
	Sort          string
}

var sortColumns = map[string]string{
	"name":            "name",
	"price":           "price_cents",
	"duration":        "duration_days",
	"ratings_average": "ratings_average",
	"created_at":      "created_at",
}

// OrderExpr resolves Sort against the allowed columns.
func (o ListOptions) OrderExpr() (string, error) {
	if o.Sort == "" {
		return "created_at DESC", nil
	}
	field, dir := o.Sort, "ASC"
	if rest, ok := strings.CutPrefix(field, "-"); ok {
		field, dir = rest, "DESC"
	}
	col, ok := sortColumns[field]
	if !ok {
		return "", invalid(fmt.Sprintf("cannot sort by %q", field))
	}
	return col + " " + dir, nil
}

func (o ListOptions) normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// Repository handles tour persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, in Input) (*Tour, error) {
	if err := in.ValidateCreate(); err != nil {
		return nil, err
	}

	t := &Tour{ID: uuid.New(), RatingsAverage: DefaultRating}
	in.Apply(t)
	row := mapModelToDBTour(t)

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create tour: %w", err)
	}

	return mapDBTourToModel(row), nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Tour, error) {
	row := new(database.Tour)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find tour: %w", err)
	}
	return mapDBTourToModel(row), nil
}

func (r *Repository) List(ctx context.Context, opts ListOptions) ([]*Tour, error) {
	opts = opts.normalized()
	order, err := opts.OrderExpr()
	if err != nil {
		return nil, err
	}

	var rows []database.Tour
	q := r.db.NewSelect().Model(&rows)
	if opts.Difficulty != nil {
		q = q.Where("difficulty = ?", string(*opts.Difficulty))
	}
	if opts.MaxPriceCents != nil {
		q = q.Where("price_cents <= ?", *opts.MaxPriceCents)
	}

	err = q.OrderExpr(order).
		Limit(opts.Limit).
		Offset(opts.Offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}

	tours := make([]*Tour, 0, len(rows))
	for i := range rows {
		tours = append(tours, mapDBTourToModel(&rows[i]))
	}
	return tours, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, in Input) (*Tour, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Empty() {
		return r.FindByID(ctx, id)
	}

	row := new(database.Tour)
	q := r.db.NewUpdate().
		Model(row).
		Set("updated_at = NOW()").
		Where("id = ?", id)

	var patched Tour
	in.Apply(&patched)
	if in.Name != nil {
		q = q.Set("name = ?", patched.Name)
	}
	if in.Summary != nil {
		q = q.Set("summary = ?", patched.Summary)
	}
	if in.Description != nil {
		q = q.Set("description = ?", patched.Description)
	}
	if in.DurationDays != nil {
		q = q.Set("duration_days = ?", patched.DurationDays)
	}
	if in.MaxGroupSize != nil {
		q = q.Set("max_group_size = ?", patched.MaxGroupSize)
	}
	if in.Difficulty != nil {
		q = q.Set("difficulty = ?", string(patched.Difficulty))
	}
	if in.PriceCents != nil {
		q = q.Set("price_cents = ?", patched.PriceCents)
	}

	err := q.Returning("*").Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update tour: %w", err)
	}
	return mapDBTourToModel(row), nil
}

// Delete removes a tour and, through the foreign key, its reviews.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*database.Tour)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete tour: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete tour: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func mapDBTourToModel(row *database.Tour) *Tour {
	return &Tour{
		ID:              row.ID,
		Name:            row.Name,
		Summary:         row.Summary,
		Description:     row.Description,
		DurationDays:    row.DurationDays,
		MaxGroupSize:    row.MaxGroupSize,
		Difficulty:      Difficulty(row.Difficulty),
		PriceCents:      row.PriceCents,
		RatingsAverage:  row.RatingsAverage,
		RatingsQuantity: row.RatingsQuantity,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func mapModelToDBTour(t *Tour) *database.Tour {
	return &database.Tour{
		ID:              t.ID,
		Name:            t.Name,
		Summary:         t.Summary,
		Description:     t.Description,
		DurationDays:    t.DurationDays,
		MaxGroupSize:    t.MaxGroupSize,
		Difficulty:      string(t.Difficulty),
		PriceCents:      t.PriceCents,
		RatingsAverage:  t.RatingsAverage,
		RatingsQuantity: t.RatingsQuantity,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}
