package avatar

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"tryonhub/internal/tryon"
	"tryonhub/pkg/models"
	"tryonhub/pkg/storage"
)

// Manager owns the current avatar: it decodes uploads, squeezes them
// under the storage byte budget, keeps the raw and background-removed
// variants in the store and optionally mirrors them to the account
// backend.
type Manager struct {
	Store    storage.Store
	Pipeline *tryon.Client // nil disables background removal
	Remote   *Syncer       // nil disables remote sync
}

func NewManager(store storage.Store, pipeline *tryon.Client, remote *Syncer) *Manager {
	return &Manager{Store: store, Pipeline: pipeline, Remote: remote}
}

// SetAvatar ingests an uploaded image. Decode and compression failures
// abort; background removal and remote sync are best-effort.
func (m *Manager) SetAvatar(ctx context.Context, upload []byte) (*models.AvatarRecord, error) {
	img, format, err := image.Decode(bytes.NewReader(upload))
	if err != nil {
		return nil, fmt.Errorf("decode avatar (%s?): %w", format, err)
	}

	compressed, err := Compress(img, MaxStoredBytes)
	if err != nil {
		return nil, fmt.Errorf("compress avatar: %w", err)
	}

	record := &models.AvatarRecord{
		RawImage: toDataURI("image/jpeg", compressed),
	}
	if err := m.Store.SetString(ctx, storage.KeyAvatarImg, record.RawImage); err != nil {
		return nil, fmt.Errorf("persist avatar: %w", err)
	}

	// a stale bg-removed variant would belong to the previous avatar
	if err := m.Store.Remove(ctx, storage.KeyAvatarBgRemoved); err != nil {
		log.Printf("[avatar] clearing old bg-removed variant: %v", err)
	}

	if m.Pipeline != nil {
		if stripped, err := m.Pipeline.RemoveBackground(ctx, compressed); err != nil {
			log.Printf("[avatar] bg removal failed, keeping raw only: %v", err)
		} else {
			record.BgRemovedImage = toDataURI("image/png", stripped)
			if err := m.Store.SetString(ctx, storage.KeyAvatarBgRemoved, record.BgRemovedImage); err != nil {
				log.Printf("[avatar] persist bg-removed variant: %v", err)
				record.BgRemovedImage = ""
			}
		}
	}

	if m.Remote != nil {
		if err := m.Remote.Push(ctx, record); err != nil {
			log.Printf("[avatar] remote sync failed: %v", err)
		}
	}

	return record, nil
}

// Current loads the stored avatar. Returns nil when none is set.
func (m *Manager) Current(ctx context.Context) (*models.AvatarRecord, error) {
	record := &models.AvatarRecord{}

	raw, err := m.Store.GetString(ctx, storage.KeyAvatarImg)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load avatar: %w", err)
	}
	record.RawImage = raw

	bg, err := m.Store.GetString(ctx, storage.KeyAvatarBgRemoved)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load avatar: %w", err)
	}
	record.BgRemovedImage = bg

	if record.RawImage == "" && record.BgRemovedImage == "" {
		return nil, nil
	}
	return record, nil
}

// ClearAvatar drops both stored variants.
func (m *Manager) ClearAvatar(ctx context.Context) error {
	if err := m.Store.Remove(ctx, storage.KeyAvatarImg); err != nil {
		return fmt.Errorf("clear avatar: %w", err)
	}
	if err := m.Store.Remove(ctx, storage.KeyAvatarBgRemoved); err != nil {
		return fmt.Errorf("clear avatar: %w", err)
	}
	return nil
}

func toDataURI(mime string, b []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b)
}
