package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunoh/radiovault/internal/config"
	"github.com/sunoh/radiovault/internal/models"
	"github.com/sunoh/radiovault/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	cfg := &config.Config{ServerPort: "0", MetadataDir: "metadata"}
	return New(m, cfg, nil), m
}

func seed(t *testing.T, m *store.Memory, name, url, country, status string) *models.Station {
	t.Helper()
	st := &models.Station{
		Name:          name,
		Slug:          strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		StreamURL:     url,
		NormalizedURL: url,
		Providers:     map[string]string{"orb": "x"},
		Countries:     []string{country},
		Genres:        []string{"pop"},
		Languages:     []string{"en"},
		Status:        status,
	}
	_, err := m.UpsertStation(context.Background(), st)
	require.NoError(t, err)
	return st
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListStationsFiltersWorkingByCountry(t *testing.T) {
	srv, m := newTestServer(t)
	seed(t, m, "Jazz US", "http://s/1", "US", models.StatusWorking)
	seed(t, m, "Jazz GB", "http://s/2", "GB", models.StatusWorking)
	seed(t, m, "Dead US", "http://s/3", "US", models.StatusBroken)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stations?country=US", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Stations []models.Station `json:"stations"`
		Total    int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "Jazz US", body.Stations[0].Name)
}

func TestGetStationBySlug(t *testing.T) {
	srv, m := newTestServer(t)
	st := seed(t, m, "Jazz FM", "http://s/1", "US", models.StatusWorking)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stations/"+st.Slug, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Station
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Jazz FM", got.Name)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stations/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifyStation(t *testing.T) {
	srv, m := newTestServer(t)
	st := seed(t, m, "Jazz FM", "http://s/1", "US", models.StatusWorking)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/stations/1/verify", strings.NewReader(`{"verified":true}`))
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := m.GetStationBySlug(context.Background(), st.Slug)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
}

func TestEnqueueSyncWithoutRedis(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sync", strings.NewReader(`{"provider":"orb"}`))
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListStationsBadLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stations?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
