package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farellandr/eventboard/config"
	"github.com/farellandr/eventboard/internal/logging"
	"github.com/farellandr/eventboard/internal/models"
)

func newTestApp(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logging.Silence()

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "server_test.db"),
		},
		JWT:    config.JWTConfig{Secret: "server-test-secret", TTL: time.Hour},
		Events: config.EventsConfig{DailyLimit: config.DefaultDailyEventLimit},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	db, err := config.InitDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return New(cfg, db, nil).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type session struct {
	ID    uint
	Token string
}

func registerAndLogin(t *testing.T, h http.Handler) session {
	t.Helper()

	email := gofakeit.Email()
	password := gofakeit.Password(true, true, true, false, false, 12)

	rec := doJSON(t, h, http.MethodPost, "/auth/register", "", gin.H{
		"name":     gofakeit.Name(),
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/auth/login", "", gin.H{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string            `json:"token"`
		User  models.PublicUser `json:"user"`
	}
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return session{ID: resp.User.ID, Token: resp.Token}
}

func createEvent(t *testing.T, h http.Handler, s session) *httptest.ResponseRecorder {
	t.Helper()
	return doJSON(t, h, http.MethodPost, "/events", s.Token, gin.H{
		"title":    gofakeit.Sentence(3),
		"date":     time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"category": models.CategoryConcert,
	})
}

func TestParticipationScenario(t *testing.T) {
	h := newTestApp(t)
	owner := registerAndLogin(t, h)
	guest := registerAndLogin(t, h)

	rec := createEvent(t, h, owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var event models.Event
	decode(t, rec, &event)
	assert.Equal(t, owner.ID, event.CreatedBy)

	base := fmt.Sprintf("/events/%d", event.ID)

	rec = doJSON(t, h, http.MethodPost, base+"/participate", guest.Token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, base+"/participants", guest.Token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodPost, base+"/participate", owner.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, base+"/participants", owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var participants []map[string]interface{}
	decode(t, rec, &participants)
	require.Len(t, participants, 1)
	user, ok := participants[0]["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(guest.ID), user["id"])
	assert.Len(t, user, 3)

	rec = doJSON(t, h, http.MethodGet, base+"/participants/count", owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, base+"/participants/check", guest.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isParticipating":true}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("%s/participants/%d", base, owner.ID), guest.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("%s/participants/%d", base, guest.ID), guest.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, base+"/participants/count", owner.Token, nil)
	assert.JSONEq(t, `{"count":0}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodDelete, base+"/participants", guest.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/events/9999/participants", owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	h := newTestApp(t)
	s := registerAndLogin(t, h)

	rec := doJSON(t, h, http.MethodGet, "/users/me", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/auth/logout", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/users/me", s.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/events", s.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEventCreationRateLimit(t *testing.T) {
	h := newTestApp(t)
	s := registerAndLogin(t, h)

	for i := 0; i < config.DefaultDailyEventLimit; i++ {
		rec := createEvent(t, h, s)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := createEvent(t, h, s)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rec, &body)
	assert.Contains(t, body.Error, "limit 5 per day")
}

func TestCreateEventValidation(t *testing.T) {
	h := newTestApp(t)
	s := registerAndLogin(t, h)
	other := registerAndLogin(t, h)

	rec := doJSON(t, h, http.MethodPost, "/events", s.Token, gin.H{
		"title":    "",
		"category": "party",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "Validation failed.", body.Error)
	assert.Equal(t, []string{
		"Title is required.",
		"Date is required.",
		"Category must be one of: " + strings.Join(models.Categories, ", ") + ".",
	}, body.Details)

	// Every field problem is reported together, not just the first one.
	rec = doJSON(t, h, http.MethodPost, "/events", s.Token, gin.H{
		"title":    "   ",
		"date":     time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
		"category": "party",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body.Details = nil
	decode(t, rec, &body)
	assert.Len(t, body.Details, 3)
	assert.Contains(t, body.Details, "Date must be in the future.")

	rec = doJSON(t, h, http.MethodPost, "/events", s.Token, gin.H{
		"title":    gofakeit.LetterN(256),
		"category": "",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body.Details = nil
	decode(t, rec, &body)
	assert.Equal(t, []string{
		"Title must be at most 255 characters.",
		"Date is required.",
		"Category is required.",
	}, body.Details)

	rec = doJSON(t, h, http.MethodPost, "/events", s.Token, gin.H{
		"title":    "Yesterday",
		"date":     time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339),
		"category": models.CategoryLecture,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/events", s.Token, gin.H{
		"title":     "Not mine",
		"date":      time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"category":  models.CategoryLecture,
		"createdBy": other.ID,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEventOwnership(t *testing.T) {
	h := newTestApp(t)
	owner := registerAndLogin(t, h)
	other := registerAndLogin(t, h)

	rec := createEvent(t, h, owner)
	require.Equal(t, http.StatusCreated, rec.Code)
	var event models.Event
	decode(t, rec, &event)
	path := fmt.Sprintf("/events/%d", event.ID)

	rec = doJSON(t, h, http.MethodPut, path, other.Token, gin.H{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, path, other.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodPut, path, owner.Token, gin.H{"category": models.CategoryExhibition})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/events/user/%d", owner.ID), other.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []models.Event
	decode(t, rec, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, models.CategoryExhibition, mine[0].Category)

	rec = doJSON(t, h, http.MethodDelete, path, owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, path, owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthAndPublicRoutes(t *testing.T) {
	h := newTestApp(t)

	rec := doJSON(t, h, http.MethodGet, "/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/events", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/public/events?category="+models.CategoryLecture, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/public/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"categories":["концерт","лекция","выставка"]}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/auth/login", "", gin.H{"email": "ghost@example.com", "password": "whatever"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/auth/register", "", gin.H{"name": "x", "email": "bad", "password": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDuplicateRegistration(t *testing.T) {
	h := newTestApp(t)
	body := gin.H{
		"name":     gofakeit.Name(),
		"email":    gofakeit.Email(),
		"password": "secret123",
	}

	rec := doJSON(t, h, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateEventDateFormats(t *testing.T) {
	h := newTestApp(t)
	s := registerAndLogin(t, h)
	future := time.Now().UTC().Add(72 * time.Hour)

	accepted := []string{
		future.Format(time.RFC3339),
		future.Format(time.RFC3339Nano),
		future.In(time.FixedZone("MSK", 3*60*60)).Format(time.RFC3339),
		future.Format("2006-01-02T15:04:05"),
		future.Format("2006-01-02T15:04"),
		future.Format("2006-01-02"),
	}
	for _, date := range accepted {
		t.Run(date, func(t *testing.T) {
			creator := registerAndLogin(t, h)
			rec := doJSON(t, h, http.MethodPost, "/events", creator.Token, gin.H{
				"title":    gofakeit.Sentence(3),
				"date":     date,
				"category": models.CategoryConcert,
			})
			assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		})
	}

	rejected := []interface{}{"20/10/2030", "next friday", "2030-13-01", "", 1767225600}
	for _, date := range rejected {
		t.Run(fmt.Sprint(date), func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/events", s.Token, gin.H{
				"title":    gofakeit.Sentence(3),
				"date":     date,
				"category": models.CategoryConcert,
			})
			require.Equal(t, http.StatusBadRequest, rec.Code)
			var body struct {
				Error string `json:"error"`
			}
			decode(t, rec, &body)
			assert.Equal(t, "Date must be an ISO 8601 timestamp.", body.Error)
		})
	}
}

func TestUpdateEventDescription(t *testing.T) {
	h := newTestApp(t)
	owner := registerAndLogin(t, h)

	rec := doJSON(t, h, http.MethodPost, "/events", owner.Token, gin.H{
		"title":       gofakeit.Sentence(3),
		"description": "Bring a friend",
		"date":        time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"category":    models.CategoryLecture,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var event models.Event
	decode(t, rec, &event)
	path := fmt.Sprintf("/events/%d", event.ID)

	rec = doJSON(t, h, http.MethodPut, path, owner.Token, gin.H{"title": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Event
	decode(t, rec, &updated)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "Bring a friend", *updated.Description)

	rec = doJSON(t, h, http.MethodPut, path, owner.Token, gin.H{"description": nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated = models.Event{}
	decode(t, rec, &updated)
	assert.Nil(t, updated.Description)

	rec = doJSON(t, h, http.MethodGet, path, owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	updated = models.Event{}
	decode(t, rec, &updated)
	assert.Nil(t, updated.Description)
	assert.Equal(t, "Renamed", updated.Title)
}
