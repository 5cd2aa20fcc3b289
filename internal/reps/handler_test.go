package reps

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRateStore struct {
	rates       map[string]float64
	defaultRate float64
	upserted    map[string]float64
}

func newMockRateStore(defaultRate float64) *mockRateStore {
	return &mockRateStore{
		rates:       make(map[string]float64),
		defaultRate: defaultRate,
		upserted:    make(map[string]float64),
	}
}

func (m *mockRateStore) GetRate(_ context.Context, repName string) (float64, error) {
	if rate, ok := m.rates[repName]; ok {
		return rate, nil
	}
	return m.defaultRate, nil
}

func (m *mockRateStore) UpsertRate(_ context.Context, repName string, rate float64) (RepRate, error) {
	m.rates[repName] = rate
	m.upserted[repName] = rate
	return RepRate{RepName: repName, Rate: rate, UpdatedAt: time.Now()}, nil
}

func (m *mockRateStore) DeleteRate(_ context.Context, repName string) error {
	if _, ok := m.rates[repName]; !ok {
		return ErrNotFound
	}
	delete(m.rates, repName)
	return nil
}

func (m *mockRateStore) ListRates(context.Context) ([]RepRate, error) {
	out := make([]RepRate, 0, len(m.rates))
	for name, rate := range m.rates {
		out = append(out, RepRate{RepName: name, Rate: rate})
	}
	return out, nil
}

func newTestHandler(store RateStore) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), DefaultRegistry(), store)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestListRepsMergesStoredRates(t *testing.T) {
	store := newMockRateStore(0.05)
	store.rates["KLH"] = 0.07
	srv := newTestHandler(store)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reps", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Reps []struct {
			Name  string   `json:"name"`
			Class string   `json:"class"`
			Rate  *float64 `json:"rate"`
		} `json:"reps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	byName := make(map[string]*float64)
	for _, rep := range body.Reps {
		byName[rep.Name] = rep.Rate
	}
	require.NotNil(t, byName["KLH"])
	assert.InDelta(t, 0.07, *byName["KLH"], 1e-9)
	assert.Nil(t, byName["DM"])
}

func TestGetRateCanonicalizesRepParam(t *testing.T) {
	store := newMockRateStore(0.05)
	store.rates["KLH"] = 0.07
	srv := newTestHandler(store)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reps/klh/rate", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		RepName string  `json:"rep_name"`
		Rate    float64 `json:"rate"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "KLH", body.RepName)
	assert.InDelta(t, 0.07, body.Rate, 1e-9)
}

func TestPutRate(t *testing.T) {
	store := newMockRateStore(0.05)
	srv := newTestHandler(store)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/reps/dm/rate", strings.NewReader(`{"rate":0.08}`))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.08, store.upserted["DM"], 1e-9)
}

func TestPutRateRejectsOutOfRange(t *testing.T) {
	store := newMockRateStore(0.05)
	srv := newTestHandler(store)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/reps/dm/rate", strings.NewReader(`{"rate":1.5}`))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.upserted)
}

func TestDeleteRateRevertsToDefault(t *testing.T) {
	store := newMockRateStore(0.05)
	store.rates["KLH"] = 0.07
	srv := newTestHandler(store)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/reps/klh/rate", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	_, stored := store.rates["KLH"]
	assert.False(t, stored)
}

func TestDeleteRateWithoutOverrideNotFound(t *testing.T) {
	store := newMockRateStore(0.05)
	srv := newTestHandler(store)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/reps/dm/rate", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
