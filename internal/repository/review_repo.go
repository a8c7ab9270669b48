package repository

import (
	"context"
	"errors"
	"fmt"

	"reviewhub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReviewFilter narrows ListByLocation results.
type ReviewFilter struct {
	Published *bool
	MinRating int
	Limit     int
	Offset    int
}

// ReviewRepository defines methods for accessing synced reviews.
type ReviewRepository interface {
	GetByExternalID(ctx context.Context, locationID, googleReviewID string) (*model.Review, error)
	GetByIDForUser(ctx context.Context, reviewID, userID string) (*model.Review, error)
	// Upsert inserts or updates by (location_id, google_review_id), mapping
	// every field to the latest upstream values. Running it twice with the
	// same input is a no-op.
	Upsert(ctx context.Context, rev *model.Review) error
	ListByLocation(ctx context.Context, locationID string, f ReviewFilter) ([]model.Review, error)
	// ListPublished returns published reviews for the public widget,
	// featured first, newest first within each group.
	ListPublished(ctx context.Context, locationID string, minRating, limit int) ([]model.Review, error)
	UpdateReply(ctx context.Context, reviewID string, comment *string) error
	SetPublished(ctx context.Context, reviewID string, published bool) error
	SetFeatured(ctx context.Context, reviewID string, featured bool) error
}

type reviewRepo struct {
	pool *pgxpool.Pool
}

// NewReviewRepo creates a new ReviewRepository.
func NewReviewRepo(pool *pgxpool.Pool) ReviewRepository {
	return &reviewRepo{pool: pool}
}

const reviewColumns = `review_id, location_id, google_review_id, reviewer_name, reviewer_photo_url,
        rating, comment, reply_comment, reply_updated_at, google_created_at, google_updated_at,
        published, published_at, featured, created_at, updated_at`

func scanReview(row pgx.Row) (*model.Review, error) {
	var rv model.Review
	err := row.Scan(
		&rv.ReviewID,
		&rv.LocationID,
		&rv.GoogleReviewID,
		&rv.ReviewerName,
		&rv.ReviewerPhotoURL,
		&rv.Rating,
		&rv.Comment,
		&rv.ReplyComment,
		&rv.ReplyUpdatedAt,
		&rv.GoogleCreatedAt,
		&rv.GoogleUpdatedAt,
		&rv.Published,
		&rv.PublishedAt,
		&rv.Featured,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepo) GetByExternalID(ctx context.Context, locationID, googleReviewID string) (*model.Review, error) {
	const q = `SELECT ` + reviewColumns + ` FROM reviews WHERE location_id = $1 AND google_review_id = $2`
	rv, err := scanReview(r.pool.QueryRow(ctx, q, locationID, googleReviewID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch review %s for location %s: %w", googleReviewID, locationID, err)
	}
	return rv, nil
}

func (r *reviewRepo) GetByIDForUser(ctx context.Context, reviewID, userID string) (*model.Review, error) {
	const q = `
        SELECT r.review_id, r.location_id, r.google_review_id, r.reviewer_name, r.reviewer_photo_url,
               r.rating, r.comment, r.reply_comment, r.reply_updated_at, r.google_created_at, r.google_updated_at,
               r.published, r.published_at, r.featured, r.created_at, r.updated_at
        FROM reviews r
        JOIN locations l ON l.location_id = r.location_id
        WHERE r.review_id = $1 AND l.user_id = $2
    `
	rv, err := scanReview(r.pool.QueryRow(ctx, q, reviewID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch review %s for user %s: %w", reviewID, userID, err)
	}
	return rv, nil
}

func (r *reviewRepo) Upsert(ctx context.Context, rev *model.Review) error {
	const q = `
        INSERT INTO reviews (review_id, location_id, google_review_id, reviewer_name, reviewer_photo_url,
                             rating, comment, reply_comment, reply_updated_at, google_created_at, google_updated_at,
                             published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
        ON CONFLICT (location_id, google_review_id) DO UPDATE
        SET reviewer_name = EXCLUDED.reviewer_name,
            reviewer_photo_url = EXCLUDED.reviewer_photo_url,
            rating = EXCLUDED.rating,
            comment = EXCLUDED.comment,
            reply_comment = EXCLUDED.reply_comment,
            reply_updated_at = EXCLUDED.reply_updated_at,
            google_updated_at = EXCLUDED.google_updated_at,
            updated_at = NOW()
        RETURNING ` + reviewColumns
	got, err := scanReview(r.pool.QueryRow(ctx, q,
		rev.ReviewID, rev.LocationID, rev.GoogleReviewID, rev.ReviewerName, rev.ReviewerPhotoURL,
		rev.Rating, rev.Comment, rev.ReplyComment, rev.ReplyUpdatedAt, rev.GoogleCreatedAt, rev.GoogleUpdatedAt,
		rev.Published))
	if err != nil {
		return fmt.Errorf("upsert review %s for location %s: %w", rev.GoogleReviewID, rev.LocationID, err)
	}
	*rev = *got
	return nil
}

func (r *reviewRepo) ListByLocation(ctx context.Context, locationID string, f ReviewFilter) ([]model.Review, error) {
	q := `SELECT ` + reviewColumns + ` FROM reviews WHERE location_id = $1`
	args := []interface{}{locationID}
	if f.Published != nil {
		args = append(args, *f.Published)
		q += fmt.Sprintf(" AND published = $%d", len(args))
	}
	if f.MinRating > 0 {
		args = append(args, f.MinRating)
		q += fmt.Sprintf(" AND rating >= $%d", len(args))
	}
	q += " ORDER BY google_created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews for location %s: %w", locationID, err)
	}
	defer rows.Close()

	var out []model.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, *rv)
	}
	return out, rows.Err()
}

func (r *reviewRepo) ListPublished(ctx context.Context, locationID string, minRating, limit int) ([]model.Review, error) {
	const q = `
        SELECT ` + reviewColumns + `
        FROM reviews
        WHERE location_id = $1 AND published = TRUE AND rating >= $2
        ORDER BY featured DESC, google_created_at DESC
        LIMIT $3
    `
	rows, err := r.pool.Query(ctx, q, locationID, minRating, limit)
	if err != nil {
		return nil, fmt.Errorf("list published reviews for location %s: %w", locationID, err)
	}
	defer rows.Close()

	var out []model.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, *rv)
	}
	return out, rows.Err()
}

func (r *reviewRepo) UpdateReply(ctx context.Context, reviewID string, comment *string) error {
	const q = `
        UPDATE reviews
        SET reply_comment = $2,
            reply_updated_at = CASE WHEN $2::text IS NULL THEN NULL ELSE NOW() END,
            updated_at = NOW()
        WHERE review_id = $1
    `
	_, err := r.pool.Exec(ctx, q, reviewID, comment)
	if err != nil {
		return fmt.Errorf("update reply for review %s: %w", reviewID, err)
	}
	return nil
}

func (r *reviewRepo) SetPublished(ctx context.Context, reviewID string, published bool) error {
	const q = `
        UPDATE reviews
        SET published = $2,
            published_at = CASE WHEN $2 THEN NOW() ELSE NULL END,
            updated_at = NOW()
        WHERE review_id = $1
    `
	_, err := r.pool.Exec(ctx, q, reviewID, published)
	if err != nil {
		return fmt.Errorf("set published=%t for review %s: %w", published, reviewID, err)
	}
	return nil
}

func (r *reviewRepo) SetFeatured(ctx context.Context, reviewID string, featured bool) error {
	const q = `UPDATE reviews SET featured = $2, updated_at = NOW() WHERE review_id = $1`
	_, err := r.pool.Exec(ctx, q, reviewID, featured)
	if err != nil {
		return fmt.Errorf("set featured=%t for review %s: %w", featured, reviewID, err)
	}
	return nil
}
