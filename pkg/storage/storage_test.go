package storage

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE kv_store (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	require.NoError(t, err)

	return NewSQLStore(db)
}

func TestSetGetString(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetString(ctx, KeyDisplayMode, "wardrobe"))

	v, err := s.GetString(ctx, KeyDisplayMode)
	require.NoError(t, err)
	assert.Equal(t, "wardrobe", v)
}

func TestSetOverwritesPrevious(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetString(ctx, KeyAvatarImg, "data:image/png;base64,AAA"))
	require.NoError(t, s.SetString(ctx, KeyAvatarImg, "data:image/png;base64,BBB"))

	v, err := s.GetString(ctx, KeyAvatarImg)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,BBB", v)
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetString(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetString(ctx, KeySignedIn, "true"))
	require.NoError(t, s.Remove(ctx, KeySignedIn))

	_, err := s.GetString(ctx, KeySignedIn)
	assert.ErrorIs(t, err, ErrNotFound)

	// removing an absent key is not an error
	require.NoError(t, s.Remove(ctx, KeySignedIn))
}

func TestJSONRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	type uploaded struct {
		Src  string `json:"src"`
		Type string `json:"type"`
	}

	in := []uploaded{
		{Src: "data:image/png;base64,AAA", Type: "upper"},
		{Src: "data:image/png;base64,BBB", Type: "lower"},
	}
	require.NoError(t, s.Set(ctx, KeyUploadedGarments, in))

	var out []uploaded
	require.NoError(t, s.Get(ctx, KeyUploadedGarments, &out))
	assert.Equal(t, in, out)
}
