package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oslo-method/nldnorm/internal/config"
	"github.com/oslo-method/nldnorm/internal/model"
	"github.com/oslo-method/nldnorm/internal/norm"
	"github.com/oslo-method/nldnorm/internal/solver"
	"github.com/oslo-method/nldnorm/internal/spincut"
	"github.com/oslo-method/nldnorm/internal/store"
)

// serveTestConfig installs a small-solver configuration so async fits
// finish quickly.
func serveTestConfig(t *testing.T) {
	t.Helper()
	orig := cfg
	cfg = &config.Config{
		Norm: config.NormConfig{
			Model:      "CT",
			Window:     norm.Window{E1Low: 0.2, E2Low: 1.0, E1High: 2.0, E2High: 3.0},
			Resolution: 0.1,
		},
		Spincut: config.SpincutConfig{
			Model:  "const",
			Params: spincut.Params{Sigma: 5.5},
		},
		Solver: config.SolverConfig{
			Bounds: config.BoundsConfig{
				A:     solver.Bound{Lo: 0.01, Hi: 100},
				Alpha: solver.Bound{Lo: -5, Hi: 5},
				T:     solver.Bound{Lo: 0.05, Hi: 2},
				D0:    solver.Bound{Lo: 0.1, Hi: 100},
			},
			PopSize: 10,
			MaxIter: 10,
			Samples: 50,
			BurnIn:  10,
		},
	}
	t.Cleanup(func() { cfg = orig })
}

func newServeTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestBuildMux_HealthEndpoint(t *testing.T) {
	serveTestConfig(t)
	mux := buildMux(context.Background(), newServeTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestBuildMux_GetRun(t *testing.T) {
	serveTestConfig(t)
	st := newServeTestStore(t)
	mux := buildMux(context.Background(), st)

	run := &model.Run{
		ID:       "run-1",
		Status:   model.RunStatusComplete,
		Strategy: model.StrategyTwoPoint,
	}
	require.NoError(t, st.SaveRun(context.Background(), run))

	req := httptest.NewRequest(http.MethodGet, "/runs/run-1", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.ID)
}

func TestBuildMux_GetRun_NotFound(t *testing.T) {
	serveTestConfig(t)
	mux := buildMux(context.Background(), newServeTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/runs/nope", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBuildMux_Normalize_BadBody(t *testing.T) {
	serveTestConfig(t)
	mux := buildMux(context.Background(), newServeTestStore(t))

	req := httptest.NewRequest(http.MethodPost, "/normalize", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBuildMux_Normalize_MissingInputs(t *testing.T) {
	serveTestConfig(t)
	mux := buildMux(context.Background(), newServeTestStore(t))

	body, _ := json.Marshal(normalizeRequest{})
	req := httptest.NewRequest(http.MethodPost, "/normalize", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBuildMux_Normalize_InvalidCurve(t *testing.T) {
	serveTestConfig(t)
	mux := buildMux(context.Background(), newServeTestStore(t))

	// keV-scale energies fail curve validation at construction.
	body, _ := json.Marshal(normalizeRequest{
		Curve:  model.Curve{Ex: []float64{100, 2000}, Value: []float64{10, 50}},
		Levels: []float64{0.1},
		Anchor: model.ResonanceAnchor{D0: 2, Sn: 8},
	})
	req := httptest.NewRequest(http.MethodPost, "/normalize", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "error")
}

func TestBuildMux_Normalize_InvertedWindow(t *testing.T) {
	serveTestConfig(t)
	mux := buildMux(context.Background(), newServeTestStore(t))

	// A reversed fit window in the job body must be rejected up front
	// instead of reaching the async fit.
	body, _ := json.Marshal(normalizeRequest{
		Curve:  serveTestCurve(),
		Levels: []float64{0.1, 0.3},
		Anchor: model.ResonanceAnchor{D0: 2.0, Sn: 8.0},
		Window: &norm.Window{E1Low: 1.0, E2Low: 0.2, E1High: 2.0, E2High: 3.0},
	})
	req := httptest.NewRequest(http.MethodPost, "/normalize", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "windows must be ordered")
}

func TestBuildMux_Normalize_AcceptedAndPersisted(t *testing.T) {
	serveTestConfig(t)
	st := newServeTestStore(t)
	mux := buildMux(context.Background(), st)

	body, _ := json.Marshal(normalizeRequest{
		Curve:  serveTestCurve(),
		Levels: []float64{0.1, 0.3, 0.45, 0.7},
		Anchor: model.ResonanceAnchor{D0: 2.0, Sn: 8.0, Jtarget: 2.5},
		Seed:   42,
	})
	req := httptest.NewRequest(http.MethodPost, "/normalize", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])
	runID := resp["run_id"]
	require.NotEmpty(t, runID)

	// The async fit lands in the store regardless of outcome.
	require.Eventually(t, func() bool {
		_, err := st.GetRun(context.Background(), runID)
		return err == nil
	}, 30*time.Second, 100*time.Millisecond)
}

func serveTestCurve() model.Curve {
	n := 15
	c := model.Curve{
		Ex:    make([]float64, n),
		Value: make([]float64, n),
		Unc:   make([]float64, n),
	}
	for i := 0; i < n; i++ {
		c.Ex[i] = 0.2 + 0.2*float64(i)
		c.Value[i] = 5 * math.Exp(c.Ex[i])
		c.Unc[i] = 0.05 * c.Value[i]
	}
	return c
}
