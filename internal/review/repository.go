package review

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
	DefaultListLimit = 50
	MaxListLimit     = 100
)

type ListOptions struct {
	TourID *uuid.UUID
	UserID *uuid.UUID
	Limit  int
	Offset int
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

// recalcRatings refreshes the cached rating summary of a tour from its
// reviews. Tours without reviews fall back to the default average.
const recalcRatings = `UPDATE tours
SET ratings_quantity = s.n, ratings_average = s.avg, updated_at = NOW()
FROM (
	SELECT count(*) AS n, coalesce(round(avg(rating)::numeric, 1), 4.5) AS avg
	FROM reviews WHERE tour_id = ?
) AS s
WHERE tours.id = ?`

// Repository persists reviews and keeps each tour's rating summary in step
// with them.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, userID uuid.UUID, in Input) (*Review, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	row := &database.Review{
		ID:     uuid.New(),
		TourID: in.TourID,
		UserID: userID,
		Body:   strings.TrimSpace(in.Body),
		Rating: in.Rating,
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(row).Returning("*").Exec(ctx); err != nil {
			return err
		}
		return updateTourRatings(ctx, tx, row.TourID)
	})
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return nil, ErrDuplicate
		case database.IsForeignKeyViolation(err):
			return nil, ErrTourNotFound
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return mapDBReviewToModel(row), nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Review, error) {
	return findByID(ctx, r.db, id)
}

func findByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*Review, error) {
	row := new(database.Review)
	err := db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	return mapDBReviewToModel(row), nil
}

// List returns reviews newest first.
func (r *Repository) List(ctx context.Context, opts ListOptions) ([]*Review, error) {
	opts = opts.normalized()

	var rows []database.Review
	q := r.db.NewSelect().Model(&rows)
	if opts.TourID != nil {
		q = q.Where("tour_id = ?", *opts.TourID)
	}
	if opts.UserID != nil {
		q = q.Where("user_id = ?", *opts.UserID)
	}

	err := q.OrderExpr("created_at DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	reviews := make([]*Review, 0, len(rows))
	for i := range rows {
		reviews = append(reviews, mapDBReviewToModel(&rows[i]))
	}
	return reviews, nil
}

// Delete removes a review and refreshes its tour's ratings in the same
// transaction.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := findByID(ctx, tx, id)
		if err != nil {
			return err
		}

		res, err := tx.NewDelete().
			Model((*database.Review)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}

		return updateTourRatings(ctx, tx, existing.TourID)
	})
}

func updateTourRatings(ctx context.Context, tx bun.Tx, tourID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, recalcRatings, tourID, tourID); err != nil {
		return fmt.Errorf("failed to update tour ratings: %w", err)
	}
	return nil
}

func mapDBReviewToModel(row *database.Review) *Review {
	return &Review{
		ID:        row.ID,
		TourID:    row.TourID,
		UserID:    row.UserID,
		Body:      row.Body,
		Rating:    row.Rating,
		CreatedAt: row.CreatedAt,
	}
}
