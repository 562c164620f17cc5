// Package storage is the uniform key-value persistence adapter the client
// core talks to. The browser original wrapped a callback storage API in ad
// hoc promises; here it is one typed async interface with a sqlite backing.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Well-known keys.
const (
	KeySignedIn         = "signed_in"
	KeyUserID           = "user_id"
	KeyUserEmail        = "user_email"
	KeyUserProfile      = "user_profile"
	KeyAvatarImg        = "avatar_img"
	KeyAvatarBgRemoved  = "avatar_bg_removed_img"
	KeyUploadedGarments = "uploaded_garments"
	KeyDisplayMode      = "display_mode"
)

// ErrNotFound is returned when a key has never been set or was removed.
var ErrNotFound = errors.New("storage: key not found")

// Store is the capability handed to the orchestrators and the gallery.
type Store interface {
	Get(ctx context.Context, key string, out any) error
	GetString(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any) error
	SetString(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

type SQLStore struct {
	DB *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db}
}

func (s *SQLStore) GetString(ctx context.Context, key string) (string, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT value FROM kv_store WHERE key = ?
	`, key)

	var v string
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	return v, nil
}

// Get unmarshals the stored JSON value into out.
func (s *SQLStore) Get(ctx context.Context, key string, out any) error {
	v, err := s.GetString(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(v), out); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) SetString(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Set stores value as JSON.
func (s *SQLStore) Set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.SetString(ctx, key, string(b))
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}
