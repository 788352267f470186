package public_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sngm3741/delicious/api/internal/catalog/application"
	"github.com/sngm3741/delicious/api/internal/catalog/domain"
	"github.com/sngm3741/delicious/api/internal/infrastructure/memory"
	"github.com/sngm3741/delicious/api/internal/interfaces/http/public"
)

type nopBlobs struct{}

func (nopBlobs) Write(context.Context, string, string, io.Reader) error { return nil }

type passResizer struct{}

func (passResizer) Resize(data []byte, _ string, _ int) ([]byte, error) { return data, nil }

type photoReader map[string][]byte

func (p photoReader) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	data, ok := p[key]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), "image/png", nil
}

type testServer struct {
	router   chi.Router
	catalog  *memory.Catalog
	commands application.StoreCommandService
	author   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := memory.NewCatalog()
	photos := application.NewPhotoIngester(nopBlobs{}, passResizer{}, logger)

	h := public.NewHandler(public.Config{
		Logger:  logger,
		Stores:  application.NewStoreQueryService(catalog, catalog, catalog.Users()),
		Ranking: application.NewRankingService(catalog),
		Photos:  photoReader{"abc.png": []byte("png")},
	})
	router := chi.NewRouter()
	h.Register(router)

	return &testServer{
		router:   router,
		catalog:  catalog,
		commands: application.NewStoreCommandService(catalog, application.NewSlugGenerator(catalog), photos, nil, logger),
		author:   primitive.NewObjectID().Hex(),
	}
}

func (s *testServer) create(t *testing.T, name string, lng, lat float64, tags ...string) *domain.Store {
	t.Helper()
	store, err := s.commands.Create(context.Background(), s.author, application.UpsertStoreCommand{
		Name:      name,
		Tags:      tags,
		Longitude: lng,
		Latitude:  lat,
		Address:   "1 Main St",
	})
	require.NoError(t, err)
	return store
}

func (s *testServer) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

type tagPage struct {
	Tag  string `json:"tag"`
	Tags []struct {
		Tag   string `json:"tag"`
		Count int    `json:"count"`
	} `json:"tags"`
	Stores []map[string]any `json:"stores"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestStoreListAndRedirect(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 5; i++ {
		s.create(t, fmt.Sprintf("Store %d", i), 0, 0)
	}

	rec := s.get(t, "/stores")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Len(t, body["items"], 4)
	assert.EqualValues(t, 2, body["pageCount"])

	rec = s.get(t, "/stores/page/99")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/stores/page/2", rec.Header().Get("Location"))

	for _, huge := range []string{"4611686018427387904", "4611686018427387905"} {
		rec = s.get(t, "/stores/page/"+huge)
		assert.Equal(t, http.StatusFound, rec.Code, huge)
		assert.Equal(t, "/stores/page/2", rec.Header().Get("Location"), huge)
	}

	rec = s.get(t, "/stores/page/zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreDetailBySlug(t *testing.T) {
	s := newTestServer(t)
	store := s.create(t, "Corner Cafe", 0, 0)
	s.catalog.AddReview(domain.Review{StoreID: store.ID, Rating: 4, Text: "good"})

	rec := s.get(t, "/store/corner-cafe")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Corner Cafe", body["name"])
	assert.Len(t, body["reviews"], 1)

	assert.Equal(t, http.StatusNotFound, s.get(t, "/store/nope").Code)
}

func TestTagsEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.create(t, "Bar", 0, 0, "Licensed", "Wifi")
	s.create(t, "Cafe", 0, 0, "Wifi")

	rec := s.get(t, "/tags/Licensed")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[tagPage](t, rec)
	assert.Equal(t, "Licensed", body.Tag)
	require.Len(t, body.Stores, 1)
	assert.Equal(t, "Wifi", body.Tags[0].Tag)
	assert.Equal(t, 2, body.Tags[0].Count)

	rec = s.get(t, "/tags")
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[map[string]any](t, rec)
	assert.Len(t, all["stores"], 2)
}

func TestTopStoresEndpoint(t *testing.T) {
	s := newTestServer(t)
	a := s.create(t, "A", 0, 0)
	for _, rating := range []float64{5, 4} {
		s.catalog.AddReview(domain.Review{StoreID: a.ID, Rating: rating})
	}

	rec := s.get(t, "/top")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[[]map[string]any](t, rec)
	require.Len(t, body, 1)
	assert.InDelta(t, 4.5, body[0]["averageRating"], 1e-9)
	assert.EqualValues(t, 2, body[0]["reviewCount"])
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.create(t, "Coffee Corner", 0, 0)
	s.create(t, "Tea Room", 0, 0)

	rec := s.get(t, "/api/search?q=coffee")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[[]map[string]any](t, rec)
	require.Len(t, body, 1)
	assert.Equal(t, "Coffee Corner", body[0]["name"])
	assert.Contains(t, body[0], "score")

	assert.Equal(t, http.StatusBadRequest, s.get(t, "/api/search?q=").Code)
}

func TestNearbyEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.create(t, "Close", 0.001, 0)
	s.create(t, "Closer", 0.0005, 0)
	s.create(t, "Far Away", 3, 3)

	rec := s.get(t, "/api/stores/near?lng=0&lat=0")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[[]map[string]any](t, rec)
	require.Len(t, body, 2)
	assert.Equal(t, "Closer", body[0]["name"])
	assert.Less(t, body[0]["distance"], body[1]["distance"])

	assert.Equal(t, http.StatusBadRequest, s.get(t, "/api/stores/near?lng=abc&lat=0").Code)
	assert.Equal(t, http.StatusBadRequest, s.get(t, "/api/stores/near?lng=0&lat=95").Code)
}

func TestPhotoEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.get(t, "/uploads/abc.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "png", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, s.get(t, "/uploads/missing.png").Code)
}
