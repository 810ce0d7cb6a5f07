package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vozant-ai/valuation-engine/internal/appraisal"
	"github.com/vozant-ai/valuation-engine/internal/cache"
	"github.com/vozant-ai/valuation-engine/internal/imagery"
	"github.com/vozant-ai/valuation-engine/internal/insight"
	"github.com/vozant-ai/valuation-engine/internal/observability"
	"github.com/vozant-ai/valuation-engine/internal/prediction"
	"github.com/vozant-ai/valuation-engine/internal/selection"
	"github.com/vozant-ai/valuation-engine/internal/storage"
	"github.com/vozant-ai/valuation-engine/internal/taxonomy"
)

func testSnapshot() *taxonomy.Snapshot {
	return &taxonomy.Snapshot{
		Brands: []string{"Bentley"},
		Models: map[string][]string{"Bentley": {"Batur"}},
		Years:  map[string]map[string][]int{"Bentley": {"Batur": {2024, 2025}}},
		Attrs: map[string]map[string]taxonomy.ModelAttrs{
			"Bentley": {"Batur": {
				FuelTypes:     []string{"Gasoline"},
				Transmissions: []string{"A"},
				EngineTypes:   []string{"W12"},
				Displacements: []int{5950},
				Horsepowers:   []int{740},
				Torques:       []int{1000},
			}},
		},
	}
}

func newTestOrchestrator() *appraisal.Orchestrator {
	predictor := &prediction.MockPredictor{Response: &prediction.Response{EstimatedPrice: 2000000}}
	source := &insight.MockTextSource{Text: "Bentley Batur\nA coachbuilt grand tourer."}
	svc := insight.NewService(source, nil, nil)
	return appraisal.NewOrchestrator(predictor, svc, svc, &imagery.MockImager{}, appraisal.Options{}, nil)
}

func TestAppraisalHandler(t *testing.T) {
	h := NewAppraisalHandler(observability.Discard(), newTestOrchestrator())

	r := chi.NewRouter()
	r.Post("/appraisals", h.Submit)
	r.Get("/appraisals/{sessionId}", h.Latest)

	t.Run("submit complete selection", func(t *testing.T) {
		body := `{"language":"en","features":{"brand":"Bentley","model":"Batur","year":2024,"fuelType":"Gasoline","transmission":"A","engineType":"W12","engineDisplacement":5950,"horsepower":740,"torque":1000,"isNew":true}}`
		req := httptest.NewRequest(http.MethodPost, "/appraisals", strings.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp AppraiseResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.SessionID)
		require.NotNil(t, resp.Result)
		assert.Equal(t, 2000000.0, resp.Result.EstimatedPrice)
		assert.Equal(t, int64(1900000), resp.Result.PriceRange.Lower)

		// The committed result is retrievable under the session.
		getReq := httptest.NewRequest(http.MethodGet, "/appraisals/"+resp.SessionID, nil)
		getRec := httptest.NewRecorder()
		r.ServeHTTP(getRec, getReq)
		require.Equal(t, http.StatusOK, getRec.Code)
	})

	t.Run("submit incomplete selection", func(t *testing.T) {
		body := `{"language":"tr","features":{"brand":"Bentley"}}`
		req := httptest.NewRequest(http.MethodPost, "/appraisals", strings.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp AppraiseResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Lütfen marka, model ve yıl seçiniz.", resp.Result.Message)
		assert.Zero(t, resp.Result.EstimatedPrice)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/appraisals", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/appraisals/nope", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestOptionsHandler(t *testing.T) {
	provider := &taxonomy.MockProvider{Snapshot: testSnapshot()}
	memCache := cache.NewMemoryClient(10)
	defer memCache.Close()
	h := NewOptionsHandler(observability.Discard(), provider, memCache, selection.MileageRule{})

	r := chi.NewRouter()
	r.Get("/options", h.Options)
	r.Post("/options/resolve", h.Resolve)
	r.Post("/options/refresh", h.Refresh)

	t.Run("options", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/options", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var snap taxonomy.Snapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		assert.Equal(t, []string{"Bentley"}, snap.Brands)
	})

	t.Run("resolve corrects attributes", func(t *testing.T) {
		body := `{"features":{"brand":"Bentley","model":"Batur","year":2024,"engineType":"I4","engineDisplacement":2000}}`
		req := httptest.NewRequest(http.MethodPost, "/options/resolve", strings.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp ResolveResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "W12", resp.Features.EngineType)
		assert.Equal(t, 5950, resp.Features.Displacement)
		assert.Equal(t, []string{"Batur"}, resp.ValidSets.Models)
	})

	t.Run("resolve zeroes mileage for a new vehicle", func(t *testing.T) {
		body := `{"features":{"brand":"Bentley","model":"Batur","year":2024,"isNew":true,"mileage":999999}}`
		req := httptest.NewRequest(http.MethodPost, "/options/resolve", strings.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp ResolveResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 0, resp.Features.Mileage)
	})

	t.Run("resolve clamps mileage for a used vehicle", func(t *testing.T) {
		body := `{"features":{"brand":"Bentley","model":"Batur","year":2024,"isNew":false,"mileage":999999}}`
		req := httptest.NewRequest(http.MethodPost, "/options/resolve", strings.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp ResolveResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 350000, resp.Features.Mileage)

		body = `{"features":{"brand":"Bentley","model":"Batur","year":2024,"isNew":false,"mileage":100}}`
		req = httptest.NewRequest(http.MethodPost, "/options/resolve", strings.NewReader(body))
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 5000, resp.Features.Mileage)
	})

	t.Run("snapshot is cached", func(t *testing.T) {
		before := provider.Fetches
		req := httptest.NewRequest(http.MethodGet, "/options", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, before, provider.Fetches)
	})

	t.Run("refresh drops the cached snapshot", func(t *testing.T) {
		before := provider.Fetches
		req := httptest.NewRequest(http.MethodPost, "/options/refresh", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, before+1, provider.Fetches)

		var snap taxonomy.Snapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		assert.Equal(t, []string{"Bentley"}, snap.Brands)
	})
}

func TestPreferencesHandler(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, storage.Bootstrap(context.Background(), db))

	h := NewPreferencesHandler(observability.Discard(), storage.NewPreferenceRepository(db))

	r := chi.NewRouter()
	r.Get("/preferences", h.Get)
	r.Put("/preferences", h.Update)

	t.Run("empty to begin with", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/preferences", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{}`, rec.Body.String())
	})

	t.Run("partial update", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/preferences", strings.NewReader(`{"theme":"dark"}`))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var dto PreferencesDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		require.NotNil(t, dto.Theme)
		assert.Equal(t, "dark", *dto.Theme)
		assert.Nil(t, dto.Language)
	})

	t.Run("second field preserved", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/preferences", strings.NewReader(`{"language":"tr"}`))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var dto PreferencesDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		require.NotNil(t, dto.Theme)
		assert.Equal(t, "dark", *dto.Theme)
		require.NotNil(t, dto.Language)
		assert.Equal(t, "tr", *dto.Language)
	})
}
