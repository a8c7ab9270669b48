package repository

import (
	"context"
	"errors"
	"fmt"

	"reviewhub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WidgetRepository stores per-location widget settings. A missing row means
// the location uses in-memory defaults.
type WidgetRepository interface {
	Get(ctx context.Context, locationID string) (*model.WidgetSettings, error)
	Upsert(ctx context.Context, ws *model.WidgetSettings) error
}

type widgetRepo struct {
	pool *pgxpool.Pool
}

// NewWidgetRepo creates a new WidgetRepository.
func NewWidgetRepo(pool *pgxpool.Pool) WidgetRepository {
	return &widgetRepo{pool: pool}
}

func (r *widgetRepo) Get(ctx context.Context, locationID string) (*model.WidgetSettings, error) {
	const q = `
        SELECT location_id, layout, theme, accent_color, min_rating, show_reviewer_photo,
               show_dates, show_replies, auto_publish_min_rating, created_at, updated_at
        FROM widget_settings
        WHERE location_id = $1
    `
	var ws model.WidgetSettings
	err := r.pool.QueryRow(ctx, q, locationID).Scan(
		&ws.LocationID,
		&ws.Layout,
		&ws.Theme,
		&ws.AccentColor,
		&ws.MinRating,
		&ws.ShowReviewerPhoto,
		&ws.ShowDates,
		&ws.ShowReplies,
		&ws.AutoPublishMinRating,
		&ws.CreatedAt,
		&ws.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch widget settings for location %s: %w", locationID, err)
	}
	return &ws, nil
}

func (r *widgetRepo) Upsert(ctx context.Context, ws *model.WidgetSettings) error {
	const q = `
        INSERT INTO widget_settings (location_id, layout, theme, accent_color, min_rating,
                                     show_reviewer_photo, show_dates, show_replies, auto_publish_min_rating,
                                     created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
        ON CONFLICT (location_id) DO UPDATE
        SET layout = EXCLUDED.layout,
            theme = EXCLUDED.theme,
            accent_color = EXCLUDED.accent_color,
            min_rating = EXCLUDED.min_rating,
            show_reviewer_photo = EXCLUDED.show_reviewer_photo,
            show_dates = EXCLUDED.show_dates,
            show_replies = EXCLUDED.show_replies,
            auto_publish_min_rating = EXCLUDED.auto_publish_min_rating,
            updated_at = NOW()
    `
	_, err := r.pool.Exec(ctx, q,
		ws.LocationID, ws.Layout, ws.Theme, ws.AccentColor, ws.MinRating,
		ws.ShowReviewerPhoto, ws.ShowDates, ws.ShowReplies, ws.AutoPublishMinRating)
	if err != nil {
		return fmt.Errorf("upsert widget settings for location %s: %w", ws.LocationID, err)
	}
	return nil
}
