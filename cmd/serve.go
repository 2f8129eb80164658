package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oslo-method/nldnorm/internal/extrapolate"
	"github.com/oslo-method/nldnorm/internal/model"
	"github.com/oslo-method/nldnorm/internal/norm"
	"github.com/oslo-method/nldnorm/internal/store"
)

var servePort int

// normalizeRequest is the JSON job body for POST /normalize.
type normalizeRequest struct {
	Curve   model.Curve           `json:"curve"`
	Levels  []float64             `json:"levels"`
	Anchor  model.ResonanceAnchor `json:"anchor"`
	D0Sigma float64               `json:"d0_sigma,omitempty"`
	Window  *norm.Window          `json:"window,omitempty"`
	Seed    uint64                `json:"seed,omitempty"`
}

// buildMux wires the job server's routes against the given store.
func buildMux(ctx context.Context, st store.Store) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		run, err := st.GetRun(r.Context(), r.PathValue("id"))
		if err != nil {
			if eris.Is(err, store.ErrNotFound) {
				http.Error(w, `{"error":"run not found"}`, http.StatusNotFound)
				return
			}
			http.Error(w, `{"error":"store failure"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(run)
	})

	mux.HandleFunc("POST /normalize", func(w http.ResponseWriter, r *http.Request) {
		var req normalizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Curve.Len() == 0 || len(req.Levels) == 0 {
			http.Error(w, `{"error":"curve and levels are required"}`, http.StatusBadRequest)
			return
		}

		spin, err := buildSpin()
		if err != nil {
			http.Error(w, `{"error":"spin-cut configuration invalid"}`, http.StatusInternalServerError)
			return
		}

		ncfg := norm.FindNormConfig{
			Window:     cfg.Norm.Window,
			Bounds:     cfg.Solver.Bounds.Slice(),
			Resolution: cfg.Norm.Resolution,
			D0Sigma:    req.D0Sigma,
			ExtLo:      cfg.Norm.ExtLo,
			ExtHi:      cfg.Norm.ExtHi,
		}
		if req.Window != nil {
			ncfg.Window = *req.Window
		}

		rng := newRand(req.Seed)
		n, err := norm.NewFindNorm(req.Curve, req.Levels, req.Anchor, spin,
			extrapolate.Model(cfg.Norm.Model), ncfg, buildDeps(rng))
		if err != nil {
			http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusBadRequest)
			return
		}

		runID := uuid.New().String()

		// Run the fit asynchronously; the result lands in the store.
		go func() {
			res, runErr := n.Run(ctx)
			run := &model.Run{
				ID:       runID,
				Status:   model.RunStatusComplete,
				Strategy: model.StrategyFindNorm,
				Result:   res,
			}
			if runErr != nil {
				run.Status = model.RunStatusFailed
				run.Error = runErr.Error()
				run.Result = nil
				zap.L().Error("serve: normalization failed",
					zap.String("run_id", runID),
					zap.Error(runErr),
				)
			}
			if err := st.SaveRun(ctx, run); err != nil {
				zap.L().Error("serve: persist run failed",
					zap.String("run_id", runID),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("serve: normalization complete",
				zap.String("run_id", runID),
			)
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "accepted",
			"run_id": runID,
		})
	})

	return mux
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an HTTP server accepting normalization jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		mux := buildMux(ctx, st)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
