package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"community-admin/apiv1"
	"community-admin/internal/config"
	"community-admin/internal/logger"
)

func setupTestEngine(t *testing.T, auth config.AuthSettings) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	cfg := config.NewConfig()
	cfg.Server.PublicBaseURL = testBaseURL
	cfg.Auth = auth

	engine := gin.New()
	RegisterRoutes(engine, NewDependencies(db, cfg, logger.NewNopLogger()))
	return engine, db
}

func doJSON(t *testing.T, engine http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeRows(t *testing.T, w *httptest.ResponseRecorder) []apiv1.PartnerTestimonial {
	t.Helper()
	var rows []apiv1.PartnerTestimonial
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	return rows
}

func TestTestimonialHandler_Create(t *testing.T) {
	engine, _ := setupTestEngine(t, config.AuthSettings{})

	w := doJSON(t, engine, http.MethodPost, "/api/v1/partner-testimonials", gin.H{
		"partner_name": "Acme",
		"testimonial":  "Reliable partners",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	rows := decodeRows(t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].DisplayOrder)
	assert.True(t, rows[0].IsActive)

	// The next row is placed after the first
	w = doJSON(t, engine, http.MethodPost, "/api/v1/partner-testimonials", gin.H{
		"partner_name":  "Globex",
		"partner_title": "CEO",
		"testimonial":   "Wonderful",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	rows = decodeRows(t, w)
	require.Len(t, rows, 2)
	assert.Equal(t, "Globex", rows[1].PartnerName)
	assert.Equal(t, 2, rows[1].DisplayOrder)

	// An explicit order is kept
	w = doJSON(t, engine, http.MethodPost, "/api/v1/partner-testimonials", gin.H{
		"partner_name":  "Initech",
		"testimonial":   "Fine",
		"display_order": 0,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	rows = decodeRows(t, w)
	assert.Equal(t, "Initech", rows[0].PartnerName)
	assert.Equal(t, 0, rows[0].DisplayOrder)
}

func TestTestimonialHandler_CreateInvalid(t *testing.T) {
	engine, _ := setupTestEngine(t, config.AuthSettings{})

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "missing name", body: gin.H{"testimonial": "x"}},
		{name: "missing testimonial", body: gin.H{"partner_name": "x"}},
		{name: "blank name", body: gin.H{"partner_name": "   ", "testimonial": "x"}},
		{name: "wrong type", body: gin.H{"partner_name": "x", "testimonial": "y", "display_order": "first"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, engine, http.MethodPost, "/api/v1/partner-testimonials", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestTestimonialHandler_ListFilters(t *testing.T) {
	engine, db := setupTestEngine(t, config.AuthSettings{})
	now := time.Now()
	seedTestimonial(t, db, "Acme", 1, now)
	hidden := seedTestimonial(t, db, "Globex", 2, now)
	require.NoError(t, db.Model(&apiv1.PartnerTestimonial{}).Where("id = ?", hidden.ID).Update("is_active", false).Error)

	w := doJSON(t, engine, http.MethodGet, "/api/v1/partner-testimonials", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeRows(t, w), 2)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/partner-testimonials?q=acme", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decodeRows(t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0].PartnerName)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/partner-testimonials?active=false", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows = decodeRows(t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, "Globex", rows[0].PartnerName)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/partner-testimonials?active=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTestimonialHandler_ListViews(t *testing.T) {
	engine, db := setupTestEngine(t, config.AuthSettings{})
	seedTestimonial(t, db, "Acme", 1, time.Now())

	w := doJSON(t, engine, http.MethodGet, "/api/v1/partners", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var views []apiv1.PartnerView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Acme", views[0].Name)
	assert.Equal(t, "", views[0].Title)
	assert.Equal(t, "", views[0].Avatar)
	assert.Contains(t, w.Body.String(), `"title":""`)
}

func TestTestimonialHandler_Update(t *testing.T) {
	engine, db := setupTestEngine(t, config.AuthSettings{})
	seeded := seedTestimonial(t, db, "Acme", 1, time.Now())

	w := doJSON(t, engine, http.MethodPatch, "/api/v1/partner-testimonials/"+seeded.ID, gin.H{
		"testimonial": "Updated words",
		"avatar_url":  "http://localhost:8080/storage/v1/object/public/partners_images/partner_testimonials/x.png",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var row apiv1.PartnerTestimonial
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &row))
	assert.Equal(t, seeded.ID, row.ID)
	assert.Equal(t, "Updated words", row.Testimonial)
	require.NotNil(t, row.AvatarURL)

	w = doJSON(t, engine, http.MethodPatch, "/api/v1/partner-testimonials/missing", gin.H{"testimonial": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, engine, http.MethodPatch, "/api/v1/partner-testimonials/"+seeded.ID, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTestimonialHandler_Ordering(t *testing.T) {
	engine, db := setupTestEngine(t, config.AuthSettings{})
	now := time.Now()
	a := seedTestimonial(t, db, "a", 1, now)
	b := seedTestimonial(t, db, "b", 2, now)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/partner-testimonials/swap", gin.H{
		"a": apiv1.OrderRef{ID: a.ID, DisplayOrder: 1},
		"b": apiv1.OrderRef{ID: b.ID, DisplayOrder: 2},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"b", "a"}, names(decodeRows(t, w)))

	w = doJSON(t, engine, http.MethodPost, "/api/v1/partner-testimonials/"+a.ID+"/move?direction=up", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"a", "b"}, names(decodeRows(t, w)))

	w = doJSON(t, engine, http.MethodPost, "/api/v1/partner-testimonials/"+a.ID+"/move?direction=up", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/api/v1/partner-testimonials/"+a.ID+"/move?direction=left", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/api/v1/partner-testimonials/missing/move?direction=down", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, engine, http.MethodPut, "/api/v1/partner-testimonials/"+b.ID+"/order", gin.H{"display_order": -1})
	require.Equal(t, http.StatusOK, w.Code)
	rows := decodeRows(t, w)
	assert.Equal(t, []string{"b", "a"}, names(rows))
	assert.Equal(t, -1, rows[0].DisplayOrder)

	w = doJSON(t, engine, http.MethodPut, "/api/v1/partner-testimonials/"+b.ID+"/order", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTestimonialHandler_SwapPartialFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rows := []apiv1.PartnerTestimonial{
		{PartnerName: "a", DisplayOrder: 2},
		{PartnerName: "b", DisplayOrder: 2},
	}

	store := new(mockTestimonialStore)
	store.On("UpdateColumns", mock.Anything, "a", mock.Anything).Return(&rows[0], nil).Once()
	store.On("UpdateColumns", mock.Anything, "b", mock.Anything).Return(nil, errors.New("connection reset")).Once()
	store.On("List", mock.Anything, mock.Anything).Return(rows, nil)

	engine := gin.New()
	handler := NewTestimonialHandler(NewTestimonialService(store, nil, logger.NewNopLogger()), logger.NewNopLogger())
	handler.Register(engine)

	w := doJSON(t, engine, http.MethodPost, "/partner-testimonials/swap", gin.H{
		"a": apiv1.OrderRef{ID: "a", DisplayOrder: 1},
		"b": apiv1.OrderRef{ID: "b", DisplayOrder: 2},
	})
	require.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		Error string                     `json:"error"`
		Step  int                        `json:"step"`
		Items []apiv1.PartnerTestimonial `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Step)
	assert.Contains(t, body.Error, "connection reset")
	assert.Len(t, body.Items, 2)
	store.AssertExpectations(t)
}

func TestTestimonialHandler_FetchFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := new(mockTestimonialStore)
	store.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("relation does not exist"))

	engine := gin.New()
	NewTestimonialHandler(NewTestimonialService(store, nil, logger.NewNopLogger()), logger.NewNopLogger()).Register(engine)

	w := doJSON(t, engine, http.MethodGet, "/partner-testimonials", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"relation does not exist"}`, w.Body.String())
}

func TestTestimonialHandler_Delete(t *testing.T) {
	engine, db := setupTestEngine(t, config.AuthSettings{})
	seeded := seedTestimonial(t, db, "Acme", 1, time.Now())

	w := doJSON(t, engine, http.MethodDelete, "/api/v1/partner-testimonials/"+seeded.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, engine, http.MethodDelete, "/api/v1/partner-testimonials/"+seeded.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/partner-testimonials", nil)
	assert.Empty(t, decodeRows(t, w))
}

func newUploadRequest(t *testing.T, fileName, contentType string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/partner-testimonials/avatar", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestTestimonialHandler_UploadAvatar(t *testing.T) {
	engine, _ := setupTestEngine(t, config.AuthSettings{})
	data := []byte("\x89PNG fake image body")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, newUploadRequest(t, "Logo.PNG", "image/png", data))
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, strings.HasPrefix(body.URL, testBaseURL+"/storage/v1/object/public/partners_images/partner_testimonials/"))
	assert.True(t, strings.HasSuffix(body.URL, ".png"))

	// The public URL serves the stored bytes back
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, strings.TrimPrefix(body.URL, testBaseURL), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, data, w.Body.Bytes())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "max-age=3600", w.Header().Get("Cache-Control"))
}

func TestTestimonialHandler_UploadAvatarInvalid(t *testing.T) {
	engine, _ := setupTestEngine(t, config.AuthSettings{})

	w := doJSON(t, engine, http.MethodPost, "/api/v1/partner-testimonials/avatar", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, newUploadRequest(t, "empty.png", "image/png", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStorageHandler(t *testing.T) {
	engine, db := setupTestEngine(t, config.AuthSettings{})
	store := NewGormObjectStore(db, testBaseURL)
	require.NoError(t, store.Upload(context.Background(), "docs", "a/b/readme.txt", []byte("hello"), UploadOptions{ContentType: "text/plain"}))

	w := doJSON(t, engine, http.MethodGet, "/storage/v1/object/public/docs/a/b/readme.txt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Empty(t, w.Header().Get("Cache-Control"))

	w = doJSON(t, engine, http.MethodGet, "/storage/v1/object/public/docs/missing.txt", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterRoutes_Health(t *testing.T) {
	engine, _ := setupTestEngine(t, config.AuthSettings{})

	w := doJSON(t, engine, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = doJSON(t, engine, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
