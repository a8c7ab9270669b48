package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewhub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LocationRepository defines methods for accessing business locations.
type LocationRepository interface {
	Upsert(ctx context.Context, loc *model.Location) error
	GetByID(ctx context.Context, locationID string) (*model.Location, error)
	GetByIDForUser(ctx context.Context, locationID, userID string) (*model.Location, error)
	GetByWidgetKey(ctx context.Context, widgetKey string) (*model.Location, error)
	ListByUser(ctx context.Context, userID string) ([]model.Location, error)
	// ListSyncable returns active locations whose subscription status is
	// active or trialing, ordered by owning user so the sync driver can
	// group them with one token fetch per user.
	ListSyncable(ctx context.Context) ([]model.Location, error)
	UpdateTitle(ctx context.Context, locationID, title string) error
	UpdateAggregates(ctx context.Context, locationID string, avgRating *float64, reviewCount int, syncedAt time.Time) error
	SetActive(ctx context.Context, locationID string, active bool) error
}

type locationRepo struct {
	pool *pgxpool.Pool
}

// NewLocationRepo creates a new LocationRepository.
func NewLocationRepo(pool *pgxpool.Pool) LocationRepository {
	return &locationRepo{pool: pool}
}

const locationColumns = `location_id, user_id, google_account_id, google_location_id, title,
        average_rating, review_count, last_synced_at, active, widget_key, created_at, updated_at`

func scanLocation(row pgx.Row) (*model.Location, error) {
	var l model.Location
	err := row.Scan(
		&l.LocationID,
		&l.UserID,
		&l.GoogleAccountID,
		&l.GoogleLocationID,
		&l.Title,
		&l.AverageRating,
		&l.ReviewCount,
		&l.LastSyncedAt,
		&l.Active,
		&l.WidgetKey,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *locationRepo) Upsert(ctx context.Context, loc *model.Location) error {
	const q = `
        INSERT INTO locations (location_id, user_id, google_account_id, google_location_id, title, active, widget_key, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, FALSE, $6, NOW(), NOW())
        ON CONFLICT (user_id, google_account_id, google_location_id) DO UPDATE
        SET title = EXCLUDED.title,
            updated_at = NOW()
        RETURNING ` + locationColumns
	got, err := scanLocation(r.pool.QueryRow(ctx, q,
		loc.LocationID, loc.UserID, loc.GoogleAccountID, loc.GoogleLocationID, loc.Title, loc.WidgetKey))
	if err != nil {
		return fmt.Errorf("upsert location %s/%s for user %s: %w", loc.GoogleAccountID, loc.GoogleLocationID, loc.UserID, err)
	}
	*loc = *got
	return nil
}

func (r *locationRepo) GetByID(ctx context.Context, locationID string) (*model.Location, error) {
	const q = `SELECT ` + locationColumns + ` FROM locations WHERE location_id = $1`
	loc, err := scanLocation(r.pool.QueryRow(ctx, q, locationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch location %s: %w", locationID, err)
	}
	return loc, nil
}

func (r *locationRepo) GetByIDForUser(ctx context.Context, locationID, userID string) (*model.Location, error) {
	const q = `SELECT ` + locationColumns + ` FROM locations WHERE location_id = $1 AND user_id = $2`
	loc, err := scanLocation(r.pool.QueryRow(ctx, q, locationID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch location %s for user %s: %w", locationID, userID, err)
	}
	return loc, nil
}

func (r *locationRepo) GetByWidgetKey(ctx context.Context, widgetKey string) (*model.Location, error) {
	const q = `SELECT ` + locationColumns + ` FROM locations WHERE widget_key = $1`
	loc, err := scanLocation(r.pool.QueryRow(ctx, q, widgetKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch location by widget key: %w", err)
	}
	return loc, nil
}

func (r *locationRepo) ListByUser(ctx context.Context, userID string) ([]model.Location, error) {
	const q = `SELECT ` + locationColumns + ` FROM locations WHERE user_id = $1 ORDER BY title`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list locations for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []model.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, *loc)
	}
	return out, rows.Err()
}

func (r *locationRepo) ListSyncable(ctx context.Context) ([]model.Location, error) {
	const q = `
        SELECT l.location_id, l.user_id, l.google_account_id, l.google_location_id, l.title,
               l.average_rating, l.review_count, l.last_synced_at, l.active, l.widget_key, l.created_at, l.updated_at
        FROM locations l
        JOIN subscriptions s ON s.location_id = l.location_id
        WHERE l.active = TRUE
          AND s.status IN ('active', 'trialing')
        ORDER BY l.user_id, l.title
    `
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list syncable locations: %w", err)
	}
	defer rows.Close()

	var out []model.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, *loc)
	}
	return out, rows.Err()
}

func (r *locationRepo) UpdateTitle(ctx context.Context, locationID, title string) error {
	const q = `UPDATE locations SET title = $2, updated_at = NOW() WHERE location_id = $1`
	_, err := r.pool.Exec(ctx, q, locationID, title)
	if err != nil {
		return fmt.Errorf("update title for location %s: %w", locationID, err)
	}
	return nil
}

func (r *locationRepo) UpdateAggregates(ctx context.Context, locationID string, avgRating *float64, reviewCount int, syncedAt time.Time) error {
	const q = `
        UPDATE locations
        SET average_rating = $2, review_count = $3, last_synced_at = $4, updated_at = NOW()
        WHERE location_id = $1
    `
	_, err := r.pool.Exec(ctx, q, locationID, avgRating, reviewCount, syncedAt)
	if err != nil {
		return fmt.Errorf("update aggregates for location %s: %w", locationID, err)
	}
	return nil
}

func (r *locationRepo) SetActive(ctx context.Context, locationID string, active bool) error {
	const q = `UPDATE locations SET active = $2, updated_at = NOW() WHERE location_id = $1`
	_, err := r.pool.Exec(ctx, q, locationID, active)
	if err != nil {
		return fmt.Errorf("set active=%t for location %s: %w", active, locationID, err)
	}
	return nil
}
