package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tryonhub/pkg/models"
	"tryonhub/pkg/storage"
)

// MaxUploads caps how many locally uploaded garments are kept around.
const MaxUploads = 20

// UploadedGarment is one user-provided garment image, persisted so it
// survives restarts like the rest of the session state.
type UploadedGarment struct {
	Src        string    `json:"src"` // data URI
	Title      string    `json:"title,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Uploads manages the locally uploaded garment list and its gallery
// presentation. Uploaded garments are an Online-mode variant: showing
// them switches the gallery to the uploaded mode and records that as the
// last display mode.
type Uploads struct {
	Store storage.Store
}

func NewUploads(store storage.Store) *Uploads {
	return &Uploads{Store: store}
}

// Add persists a new uploaded garment at the front of the list. Oldest
// entries fall off past MaxUploads.
func (u *Uploads) Add(ctx context.Context, src, title string) (UploadedGarment, error) {
	src = strings.TrimSpace(src)
	if !strings.HasPrefix(src, "data:image/") {
		return UploadedGarment{}, fmt.Errorf("add upload: src must be an image data uri")
	}

	garments, err := u.List(ctx)
	if err != nil {
		return UploadedGarment{}, err
	}

	// re-uploading the same image moves it to the front
	for i, g := range garments {
		if g.Src == src {
			garments = append(garments[:i], garments[i+1:]...)
			break
		}
	}

	g := UploadedGarment{Src: src, Title: title, UploadedAt: time.Now().UTC()}
	garments = append([]UploadedGarment{g}, garments...)
	if len(garments) > MaxUploads {
		garments = garments[:MaxUploads]
	}

	if err := u.Store.Set(ctx, storage.KeyUploadedGarments, garments); err != nil {
		return UploadedGarment{}, fmt.Errorf("add upload: %w", err)
	}
	return g, nil
}

// List returns the persisted uploads, newest first.
func (u *Uploads) List(ctx context.Context) ([]UploadedGarment, error) {
	var garments []UploadedGarment
	if err := u.Store.Get(ctx, storage.KeyUploadedGarments, &garments); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return garments, nil
}

// Remove deletes one upload by src. Removing the last one clears the key.
func (u *Uploads) Remove(ctx context.Context, src string) error {
	garments, err := u.List(ctx)
	if err != nil {
		return err
	}

	kept := garments[:0]
	for _, g := range garments {
		if g.Src != src {
			kept = append(kept, g)
		}
	}
	if len(kept) == len(garments) {
		return fmt.Errorf("remove upload: %w", storage.ErrNotFound)
	}

	if len(kept) == 0 {
		return u.Store.Remove(ctx, storage.KeyUploadedGarments)
	}
	if err := u.Store.Set(ctx, storage.KeyUploadedGarments, kept); err != nil {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// Show populates g with the uploaded garments and records the uploaded
// mode as the last display mode.
func (u *Uploads) Show(ctx context.Context, g *Gallery) error {
	garments, err := u.List(ctx)
	if err != nil {
		return err
	}

	items := make([]models.GalleryItem, 0, len(garments))
	for _, up := range garments {
		items = append(items, models.GalleryItem{
			Src:   up.Src,
			Title: up.Title,
		})
	}

	g.SetItems(models.ModeUploaded, items)
	if err := u.Store.SetString(ctx, storage.KeyDisplayMode, models.ModeUploaded); err != nil {
		return fmt.Errorf("persist display mode: %w", err)
	}
	return nil
}

// LastMode reads the persisted display mode; online when never set.
func (u *Uploads) LastMode(ctx context.Context) string {
	mode, err := u.Store.GetString(ctx, storage.KeyDisplayMode)
	if err != nil || mode == "" {
		return models.ModeOnline
	}
	return mode
}
