package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/keyword-cli/internal/geotarget"
	"github.com/sells-group/keyword-cli/internal/metrics"
	"github.com/sells-group/keyword-cli/internal/model"
	"github.com/sells-group/keyword-cli/internal/pipeline"
	"github.com/sells-group/keyword-cli/internal/repair"
	"github.com/sells-group/keyword-cli/internal/store"
	"github.com/sells-group/keyword-cli/pkg/googleads"
)

// maxBodyBytes bounds request bodies; blog posts are the largest input.
const maxBodyBytes = 2 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initKeywordEnv(ctx, true)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(newAPI(env.Pipeline, env.Resolver, env.Store), cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return eris.Wrap(srv.Shutdown(shutdownCtx), "server shutdown")
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type pipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

type geoResolver interface {
	Resolve(ctx context.Context, names []string) ([]string, geotarget.Stats)
}

type runReader interface {
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// api serves the HTTP endpoints. The geo cache is not safe for concurrent
// batches, so pipeline runs and resolutions take mu.
type api struct {
	pipeline pipelineRunner
	resolver geoResolver
	runs     runReader
	mu       sync.Mutex
}

func newAPI(p pipelineRunner, r geoResolver, runs runReader) *api {
	return &api{pipeline: p, resolver: r, runs: runs}
}

func buildRouter(a *api, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/generate", a.handleGenerate)
		r.Post("/geo/resolve", a.handleResolve)
		r.Post("/repair", a.handleRepair)
		r.Get("/runs", a.handleListRuns)
		r.Get("/runs/{id}", a.handleGetRun)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

type errorBody struct {
	Error       string `json:"error"`
	Class       string `json:"class,omitempty"`
	Remediation string `json:"remediation,omitempty"`
}

type generateResponse struct {
	*pipeline.Result
	CSV string `json:"csv"`
}

func (a *api) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	a.mu.Lock()
	result, err := a.pipeline.Run(r.Context(), req)
	a.mu.Unlock()
	if err != nil {
		writeError(w, generateStatus(err), generateError(err))
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Result: result, CSV: result.CSV})
}

func generateStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrNoGeoTargets), errors.Is(err, pipeline.ErrNoKeywordIdeas):
		return http.StatusUnprocessableEntity
	case errors.Is(err, googleads.ErrInvalidSeedURL), errors.Is(err, googleads.ErrMissingSeedURL):
		return http.StatusBadRequest
	}
	if _, ok := googleads.AsAPIError(err); ok {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func generateError(err error) errorBody {
	body := errorBody{Error: err.Error()}
	if apiErr, ok := googleads.AsAPIError(err); ok {
		body.Class = string(apiErr.Classify())
		body.Remediation = apiErr.Remediation()
	}
	return body
}

func (a *api) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Names []string `json:"names"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if len(req.Names) == 0 {
		req.Names = geotarget.DefaultCountries
	}

	a.mu.Lock()
	ids, stats := a.resolver.Resolve(r.Context(), req.Names)
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"geo_targets": ids,
		"stats":       stats,
	})
}

func (a *api) handleRepair(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	rec, strategy := repair.Attempt(string(raw))
	writeJSON(w, http.StatusOK, map[string]any{
		"strategy": strategy,
		"record":   rec,
	})
}

func (a *api) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if a.runs == nil {
		writeError(w, http.StatusServiceUnavailable, errorBody{Error: "run history is not enabled"})
		return
	}
	q := r.URL.Query()
	filter := store.RunFilter{
		Status:  model.RunStatus(q.Get("status")),
		SeedURL: q.Get("seed_url"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, errorBody{Error: "unknown status"})
		return
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, errorBody{Error: key + " must be a non-negative integer"})
				return
			}
			*dst = n
		}
	}

	runs, err := a.runs.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errorBody{Error: "list runs failed"})
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (a *api) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if a.runs == nil {
		writeError(w, http.StatusServiceUnavailable, errorBody{Error: "run history is not enabled"})
		return
	}
	run, err := a.runs.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, errorBody{Error: "run not found"})
		return
	}
	if err != nil {
		zap.L().Error("get run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errorBody{Error: "get run failed"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, body)
}
