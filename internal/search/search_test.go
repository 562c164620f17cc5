package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tryonhub/pkg/models"
	"tryonhub/pkg/storage"
)

type fakeSource struct {
	name  string
	items []models.GalleryItem
	err   error
	calls int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Search(_ context.Context, _ string) ([]models.GalleryItem, error) {
	f.calls++
	return f.items, f.err
}

func TestAggregatorMergesDuplicateHits(t *testing.T) {
	a := NewAggregator(
		&fakeSource{name: "store-a", items: []models.GalleryItem{
			{Src: "https://cdn/1.jpg", Title: "Jeans", Store: "store-a"},
			{Src: "", Title: "no image"},
		}},
		&fakeSource{name: "store-b", items: []models.GalleryItem{
			{Src: "https://cdn/1.jpg", Title: "Jeans Slim", Price: "49.99", Store: "store-b"},
			{Src: "https://cdn/2.jpg", Title: "Shirt", Store: "store-b"},
		}},
	)

	out, err := a.Search(context.Background(), "jeans")
	require.NoError(t, err)
	require.Len(t, out, 2)

	for _, item := range out {
		assert.Equal(t, models.ModeExplorer, item.SourceMode)
	}

	// duplicate kept the first source's title and filled the missing price
	var merged models.GalleryItem
	for _, item := range out {
		if item.Src == "https://cdn/1.jpg" {
			merged = item
		}
	}
	assert.Equal(t, "Jeans", merged.Title)
	assert.Equal(t, "49.99", merged.Price)
	assert.Equal(t, "store-a", merged.Store)
}

func TestAggregatorSkipsBrokenSource(t *testing.T) {
	broken := &fakeSource{name: "down", err: errors.New("boom")}
	ok := &fakeSource{name: "up", items: []models.GalleryItem{{Src: "https://cdn/3.jpg"}}}

	out, err := NewAggregator(broken, ok).Search(context.Background(), "dress")
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, 1, broken.calls)
}

func TestAggregatorCapsResults(t *testing.T) {
	items := make([]models.GalleryItem, 0, MaxResults+10)
	for i := 0; i < MaxResults+10; i++ {
		items = append(items, models.GalleryItem{Src: fmt.Sprintf("https://cdn/%d.jpg", i)})
	}

	out, err := NewAggregator(&fakeSource{name: "big", items: items}).Search(context.Background(), "coat")
	require.NoError(t, err)
	assert.Len(t, out, MaxResults)
}

func TestJSONSourceSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "jeans slim", r.URL.Query().Get("q"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"products": []map[string]string{
				{"name": "Slim Jeans", "price": "49.99 EUR", "image_url": "https://cdn/1.jpg", "product_url": "https://store/p/1"},
				{"name": "missing image"},
			},
		})
	}))
	t.Cleanup(srv.Close)

	src := NewJSONSource("teststore", srv.URL)
	out, err := src.Search(context.Background(), "jeans slim")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Slim Jeans", out[0].Title)
	assert.Equal(t, "teststore", out[0].Store)
}

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

func TestHandlerCachesResults(t *testing.T) {
	gin.SetMode(gin.TestMode)

	src := &fakeSource{name: "store", items: []models.GalleryItem{{Src: "https://cdn/1.jpg", Title: "Jeans"}}}
	handler := NewHandler(NewAggregator(src), newMemStore())

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api"))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	query := func() (bool, []models.GalleryItem) {
		body, _ := json.Marshal(map[string]string{"query": "jeans"})
		resp, err := http.Post(srv.URL+"/api/unified-search", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Success bool                 `json:"success"`
			Cached  bool                 `json:"cached"`
			Images  []models.GalleryItem `json:"garment_images"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.True(t, out.Success)
		return out.Cached, out.Images
	}

	cached, images := query()
	assert.False(t, cached)
	assert.Len(t, images, 1)

	cached, images = query()
	assert.True(t, cached)
	assert.Len(t, images, 1)
	assert.Equal(t, 1, src.calls, "second query must be served from the cache")
}

func TestHandlerRejectsEmptyQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(NewAggregator(), nil)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api"))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	body, _ := json.Marshal(map[string]string{"query": "   "})
	resp, err := http.Post(srv.URL+"/api/unified-search", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
