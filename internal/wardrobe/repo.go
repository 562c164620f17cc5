package wardrobe

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tryonhub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Save inserts or refreshes a favorited garment.
func (r *Repo) Save(ctx context.Context, e models.WardrobeEntry) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO wardrobe (user_id, garment_id, garment_image, garment_type, garment_url, date_added)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, garment_id) DO UPDATE SET
			garment_image = excluded.garment_image,
			garment_type = excluded.garment_type,
			garment_url = excluded.garment_url
	`, e.UserID, e.GarmentID, e.GarmentImage, e.GarmentType, e.GarmentURL, e.DateAdded.UTC())
	if err != nil {
		return fmt.Errorf("save wardrobe entry: %w", err)
	}
	return nil
}

// Delete removes by garment ID. Returns whether a row existed.
func (r *Repo) Delete(ctx context.Context, userID, garmentID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM wardrobe
		WHERE user_id = ? AND garment_id = ?
	`, userID, garmentID)
	if err != nil {
		return false, fmt.Errorf("delete wardrobe entry: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteByImage removes by exact garment image data. The unfavorite action
// often only knows the image, not the ID it was stored under.
func (r *Repo) DeleteByImage(ctx context.Context, userID, garmentImage string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM wardrobe
		WHERE user_id = ? AND garment_image = ?
	`, userID, garmentImage)
	if err != nil {
		return false, fmt.Errorf("delete wardrobe entry by image: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListByUser returns a user's wardrobe, newest first.
func (r *Repo) ListByUser(ctx context.Context, userID string) ([]models.WardrobeEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, garment_id, garment_image, garment_type, garment_url, date_added
		FROM wardrobe
		WHERE user_id = ?
		ORDER BY date_added DESC, garment_id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wardrobe: %w", err)
	}
	defer rows.Close()

	var out []models.WardrobeEntry
	for rows.Next() {
		var (
			e     models.WardrobeEntry
			url   sql.NullString
			added time.Time
		)
		if err := rows.Scan(&e.UserID, &e.GarmentID, &e.GarmentImage, &e.GarmentType, &url, &added); err != nil {
			return nil, fmt.Errorf("scan wardrobe row: %w", err)
		}
		e.GarmentURL = url.String
		e.DateAdded = added
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}
