package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tryonhub/internal/tryon"
	"tryonhub/pkg/storage"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore { return &memStore{data: map[string]string{}} }

func (m *memStore) GetString(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (m *memStore) Get(ctx context.Context, key string, out any) error {
	v, err := m.GetString(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(v), out)
}

func (m *memStore) SetString(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) Set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return m.SetString(ctx, key, string(b))
}

func (m *memStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// gradientJPEG renders a smooth gradient, which compresses predictably.
func gradientJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := gradientImage(w, h)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func gradientImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 255 / w), uint8(y * 255 / h), 128, 255})
		}
	}
	return img
}

func TestSetAvatarStoresCompressedDataURI(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, nil, nil)

	record, err := m.SetAvatar(context.Background(), gradientJPEG(t, 64, 64))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(record.RawImage, "data:image/jpeg;base64,"))
	assert.Empty(t, record.BgRemovedImage)
	assert.Equal(t, record.RawImage, record.Best())

	stored, err := store.GetString(context.Background(), storage.KeyAvatarImg)
	require.NoError(t, err)
	assert.Equal(t, record.RawImage, stored)
}

func TestSetAvatarRunsBackgroundRemoval(t *testing.T) {
	pipeline := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/remove-bg", r.URL.Path)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("stripped"))
	}))
	t.Cleanup(pipeline.Close)

	store := newMemStore()
	m := NewManager(store, tryon.NewClient(pipeline.URL), nil)

	record, err := m.SetAvatar(context.Background(), gradientJPEG(t, 64, 64))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(record.BgRemovedImage, "data:image/png;base64,"))
	assert.Equal(t, record.BgRemovedImage, record.Best(), "bg-removed variant wins")

	stored, err := store.GetString(context.Background(), storage.KeyAvatarBgRemoved)
	require.NoError(t, err)
	assert.Equal(t, record.BgRemovedImage, stored)
}

func TestSetAvatarDegradesWhenRemovalFails(t *testing.T) {
	pipeline := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(pipeline.Close)

	store := newMemStore()
	m := NewManager(store, tryon.NewClient(pipeline.URL), nil)

	record, err := m.SetAvatar(context.Background(), gradientJPEG(t, 64, 64))
	require.NoError(t, err, "background removal is best-effort")
	assert.NotEmpty(t, record.RawImage)
	assert.Empty(t, record.BgRemovedImage)
}

func TestSetAvatarDropsStaleVariant(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.SetString(context.Background(), storage.KeyAvatarBgRemoved, "data:old"))

	m := NewManager(store, nil, nil)
	_, err := m.SetAvatar(context.Background(), gradientJPEG(t, 64, 64))
	require.NoError(t, err)

	_, err = store.GetString(context.Background(), storage.KeyAvatarBgRemoved)
	assert.ErrorIs(t, err, storage.ErrNotFound, "old bg variant belongs to the previous avatar")
}

func TestSetAvatarRejectsGarbage(t *testing.T) {
	m := NewManager(newMemStore(), nil, nil)
	_, err := m.SetAvatar(context.Background(), []byte("not an image"))
	assert.Error(t, err)
}

func TestCurrent(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, nil, nil)

	record, err := m.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, record)

	_, err = m.SetAvatar(context.Background(), gradientJPEG(t, 64, 64))
	require.NoError(t, err)

	record, err = m.Current(context.Background())
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.NotEmpty(t, record.RawImage)

	require.NoError(t, m.ClearAvatar(context.Background()))
	record, err = m.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestCompressMeetsBudget(t *testing.T) {
	budget := 30 << 10
	out, err := Compress(gradientImage(1024, 1024), budget)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), budget)
}

func TestCompressLeavesSmallImagesAlone(t *testing.T) {
	out, err := Compress(gradientImage(64, 64), MaxStoredBytes)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), MaxStoredBytes)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx(), "under-budget images keep their dimensions")
}

func TestSyncerPush(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/update-avatar", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	t.Cleanup(backend.Close)

	store := newMemStore()
	m := NewManager(store, nil, NewSyncer(backend.URL, "tok123"))

	record, err := m.SetAvatar(context.Background(), gradientJPEG(t, 64, 64))
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.Equal(t, record.RawImage, gotBody["avatar_image"])
}
