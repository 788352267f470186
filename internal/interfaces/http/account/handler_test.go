package account_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sngm3741/delicious/api/internal/catalog/application"
	"github.com/sngm3741/delicious/api/internal/infrastructure/memory"
	"github.com/sngm3741/delicious/api/internal/interfaces/http/account"
	"github.com/sngm3741/delicious/api/internal/interfaces/http/common"
)

const userHeader = "X-Test-User"

type memoryBlobs struct {
	mu    sync.Mutex
	files map[string]string
}

func (b *memoryBlobs) Write(_ context.Context, key, contentType string, r io.Reader) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[key] = contentType
	return nil
}

type passResizer struct{}

func (passResizer) Resize(data []byte, _ string, _ int) ([]byte, error) { return data, nil }

// headerAuth stands in for the JWT middleware.
func headerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(userHeader); id != "" {
			r = r.WithContext(common.ContextWithUser(r.Context(), common.AuthenticatedUser{ID: id}))
		}
		next.ServeHTTP(w, r)
	})
}

type testServer struct {
	router chi.Router
	blobs  *memoryBlobs
	owner  string
	other  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := memory.NewCatalog()
	users := catalog.Users()
	blobs := &memoryBlobs{files: make(map[string]string)}

	h := account.NewHandler(account.Config{
		Logger: logger,
		Commands: application.NewStoreCommandService(
			catalog,
			application.NewSlugGenerator(catalog),
			application.NewPhotoIngester(blobs, passResizer{}, logger),
			nil,
			logger,
		),
		Queries: application.NewStoreQueryService(catalog, catalog, users),
		Hearts:  application.NewHeartService(users),
	})
	router := chi.NewRouter()
	h.Register(router, headerAuth)

	return &testServer{
		router: router,
		blobs:  blobs,
		owner:  primitive.NewObjectID().Hex(),
		other:  primitive.NewObjectID().Hex(),
	}
}

func (s *testServer) do(req *http.Request, user string) *httptest.ResponseRecorder {
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func multipartRequest(t *testing.T, path string, fields map[string]string, photoType string, photo []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if photo != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="photo"; filename="photo.png"`)
		header.Set("Content-Type", photoType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func storeForm(name string) url.Values {
	return url.Values{
		"name":        {name},
		"description": {"Good coffee"},
		"tags":        {"Wifi,Family Friendly", "Wifi"},
		"lng":         {"-79.38"},
		"lat":         {"43.65"},
		"address":     {"1 Main St"},
	}
}

type storeBody struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Tags     []string `json:"tags"`
	Photo    string   `json:"photo"`
	PhotoURL string   `json:"photoUrl"`
	AuthorID string   `json:"authorId"`
	Location struct {
		Coordinates []float64 `json:"coordinates"`
		Address     string    `json:"address"`
	} `json:"location"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) createStore(t *testing.T, name string) storeBody {
	t.Helper()
	rec := s.do(formRequest("/stores", storeForm(name)), s.owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[storeBody](t, rec)
}

func TestRoutesRequireAuthentication(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/auth/verify"},
		{http.MethodPost, "/stores"},
		{http.MethodGet, "/stores/abc/edit"},
		{http.MethodPost, "/api/stores/abc/heart"},
		{http.MethodGet, "/hearts"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := s.do(httptest.NewRequest(tc.method, tc.path, nil), "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthVerify(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/auth/verify", nil), s.owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), s.owner)
}

func TestCreateStoreFromURLEncodedForm(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(formRequest("/stores", storeForm("Corner Cafe")), s.owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/store/corner-cafe", rec.Header().Get("Location"))

	body := decode[storeBody](t, rec)
	assert.Equal(t, "corner-cafe", body.Slug)
	assert.Equal(t, s.owner, body.AuthorID)
	assert.Equal(t, []string{"Wifi", "Family Friendly"}, body.Tags)
	assert.Equal(t, []float64{-79.38, 43.65}, body.Location.Coordinates)
	assert.Empty(t, body.Photo)
}

func TestCreateStoreAcceptsNestedLocationFields(t *testing.T) {
	s := newTestServer(t)

	values := url.Values{
		"name":                     {"Nested"},
		"location[coordinates][0]": {"10.5"},
		"location[coordinates][1]": {"-3.25"},
		"location[address]":        {"Somewhere"},
	}
	rec := s.do(formRequest("/stores", values), s.owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[storeBody](t, rec)
	assert.Equal(t, []float64{10.5, -3.25}, body.Location.Coordinates)
	assert.Equal(t, "Somewhere", body.Location.Address)
}

func TestCreateStoreWithPhoto(t *testing.T) {
	s := newTestServer(t)

	fields := map[string]string{"name": "Photo Place", "lng": "1", "lat": "2", "address": "here"}
	rec := s.do(multipartRequest(t, "/stores", fields, "image/png", []byte("fake-png")), s.owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode[storeBody](t, rec)
	require.True(t, strings.HasSuffix(body.Photo, ".png"), body.Photo)
	assert.Equal(t, common.UploadsPath+body.Photo, body.PhotoURL)
	assert.Equal(t, "image/png", s.blobs.files[body.Photo])
}

func TestCreateStoreRejectsBadInput(t *testing.T) {
	cases := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
	}{
		{
			name: "missing name",
			req: func(*testing.T) *http.Request {
				values := storeForm("")
				return formRequest("/stores", values)
			},
			status: http.StatusBadRequest,
		},
		{
			name: "latitude out of range",
			req: func(*testing.T) *http.Request {
				values := storeForm("Cafe")
				values.Set("lat", "91")
				return formRequest("/stores", values)
			},
			status: http.StatusBadRequest,
		},
		{
			name: "longitude not a number",
			req: func(*testing.T) *http.Request {
				values := storeForm("Cafe")
				values.Set("lng", "east")
				return formRequest("/stores", values)
			},
			status: http.StatusBadRequest,
		},
		{
			name: "description too long",
			req: func(*testing.T) *http.Request {
				values := storeForm("Cafe")
				values.Set("description", strings.Repeat("a", common.MaxStoreDescriptionRunes+1))
				return formRequest("/stores", values)
			},
			status: http.StatusBadRequest,
		},
		{
			name: "photo is not an image",
			req: func(t *testing.T) *http.Request {
				fields := map[string]string{"name": "Cafe", "lng": "1", "lat": "2", "address": "here"}
				return multipartRequest(t, "/stores", fields, "text/plain", []byte("hello"))
			},
			status: http.StatusUnsupportedMediaType,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.do(tc.req(t), s.owner)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Empty(t, s.blobs.files)
		})
	}
}

func TestSequentialSlugsThroughHTTP(t *testing.T) {
	s := newTestServer(t)

	for i, want := range []string{"pizza-place", "pizza-place-2", "pizza-place-3"} {
		body := s.createStore(t, "Pizza Place")
		assert.Equal(t, want, body.Slug, fmt.Sprintf("store %d", i))
	}
}

func TestEditAndUpdateRequireOwnership(t *testing.T) {
	s := newTestServer(t)
	created := s.createStore(t, "Corner Cafe")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/stores/"+created.ID+"/edit", nil), s.other)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// ownership wins over the malformed coordinates
	bad := storeForm("Stolen")
	bad.Set("lat", "north")
	rec = s.do(formRequest("/stores/"+created.ID, bad), s.other)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/stores/"+created.ID+"/edit", nil), s.owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Corner Cafe", decode[storeBody](t, rec).Name)
}

func TestUpdateStoreRenamesSlug(t *testing.T) {
	s := newTestServer(t)
	created := s.createStore(t, "Corner Cafe")

	rec := s.do(formRequest("/stores/"+created.ID, storeForm("Corner Bistro")), s.owner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[storeBody](t, rec)
	assert.Equal(t, created.ID, body.ID)
	assert.Equal(t, "corner-bistro", body.Slug)

	rec = s.do(formRequest("/stores/"+primitive.NewObjectID().Hex(), storeForm("Ghost")), s.owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHeartToggleAndList(t *testing.T) {
	s := newTestServer(t)
	created := s.createStore(t, "Corner Cafe")
	path := "/api/stores/" + created.ID + "/heart"

	rec := s.do(httptest.NewRequest(http.MethodPost, path, nil), s.other)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[struct {
		Hearts  []string `json:"hearts"`
		Hearted bool     `json:"hearted"`
	}](t, rec)
	assert.True(t, first.Hearted)
	assert.Equal(t, []string{created.ID}, first.Hearts)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/hearts", nil), s.other)
	require.Equal(t, http.StatusOK, rec.Code)
	hearted := decode[[]storeBody](t, rec)
	require.Len(t, hearted, 1)
	assert.Equal(t, "corner-cafe", hearted[0].Slug)

	rec = s.do(httptest.NewRequest(http.MethodPost, path, nil), s.other)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"hearts":[],"hearted":false}`, rec.Body.String())

	rec = s.do(httptest.NewRequest(http.MethodPost, "/api/stores/not-an-id/heart", nil), s.other)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
