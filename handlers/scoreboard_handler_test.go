package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ctfboard/ctfboard/middleware"
	"github.com/ctfboard/ctfboard/models"
	"github.com/ctfboard/ctfboard/scoring"
	"github.com/ctfboard/ctfboard/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixedStateSource struct {
	state *models.State
}

func (s *fixedStateSource) GetState(ctx context.Context) (*models.State, error) {
	return s.state, nil
}

func newTestRouter(t *testing.T) (*chi.Mux, *services.ScoreboardService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := scoring.NewHub(logger)
	go hub.Run()

	source := &fixedStateSource{state: &models.State{
		TeamNames: map[string]string{"t1": "Alpha"},
		PointsLog: models.AwardList{
			{When: 100, TeamID: "t1", Category: "crypto", Points: 10},
		},
		Enabled: true,
	}}

	scoreboard := services.NewScoreboardService(services.ScoreboardServiceConfig{
		Gateway:        source,
		Hub:            hub,
		Logger:         logger,
		ReplayDuration: time.Second,
		ReplayMaxFPS:   24,
	})

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := services.NewAdminAuthService(string(hash), "test-secret")

	handler := NewScoreboardHandler(scoreboard, nil, nil, logger)
	router := chi.NewRouter()
	router.Get("/scoreboard", handler.GetScoreboard)
	router.Get("/scoreboard/replay", handler.GetReplay)
	router.Get("/state", handler.GetState)
	router.Post("/admin/login", NewAuthHandler(auth, logger).Login)
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(auth))
		r.Use(middleware.Authorize("admin"))
		r.Post("/admin/refresh", handler.Refresh)
	})
	return router, scoreboard
}

func TestServerErrorsLogThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/scoreboard", nil)
	serverErrorResponse(logger, rec, req, errors.New("archive exploded"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "internal server error")
	assert.Contains(t, buf.String(), "archive exploded")
}

func TestGetScoreboardBeforeFirstPoll(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scoreboard", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetScoreboardAfterRefresh(t *testing.T) {
	router, scoreboard := newTestRouter(t)
	require.NoError(t, scoreboard.Refresh(context.Background()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scoreboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Snapshot scoring.Snapshot `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Snapshot.Standings, 1)
	assert.Equal(t, "t1", body.Snapshot.Standings[0].TeamID)
}

func TestGetReplayReturnsSequence(t *testing.T) {
	router, scoreboard := newTestRouter(t)
	require.NoError(t, scoreboard.Refresh(context.Background()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scoreboard/replay", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Snapshots []scoring.Snapshot `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Snapshots, 1)
}

func TestAdminRefreshRequiresToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/refresh", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLoginAndRefresh(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/login",
		strings.NewReader(`{"password":"hunter2"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	req := httptest.NewRequest(http.MethodPost, "/admin/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
