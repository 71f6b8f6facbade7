package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/keyword-cli/internal/geotarget"
	"github.com/sells-group/keyword-cli/internal/model"
	"github.com/sells-group/keyword-cli/internal/pipeline"
	"github.com/sells-group/keyword-cli/internal/repair"
	"github.com/sells-group/keyword-cli/internal/store"
	"github.com/sells-group/keyword-cli/pkg/googleads"
)

type fakePipeline struct {
	req    pipeline.Request
	result *pipeline.Result
	err    error
}

func (f *fakePipeline) Run(_ context.Context, req pipeline.Request) (*pipeline.Result, error) {
	f.req = req
	return f.result, f.err
}

type fakeResolver struct {
	names []string
}

func (f *fakeResolver) Resolve(_ context.Context, names []string) ([]string, geotarget.Stats) {
	f.names = names
	return []string{"geoTargetConstants/2840"}, geotarget.Stats{Requested: len(names), Resolved: 1, Failed: len(names) - 1}
}

type fakeRuns struct {
	runs   map[string]*model.Run
	filter store.RunFilter
}

func (f *fakeRuns) GetRun(_ context.Context, id string) (*model.Run, error) {
	if r, ok := f.runs[id]; ok {
		return r, nil
	}
	return nil, eris.Wrapf(store.ErrNotFound, "fake: get run %s", id)
}

func (f *fakeRuns) ListRuns(_ context.Context, filter store.RunFilter) ([]model.Run, error) {
	f.filter = filter
	out := make([]model.Run, 0, len(f.runs))
	for _, r := range f.runs {
		out = append(out, *r)
	}
	return out, nil
}

func serveRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestRouter_Health(t *testing.T) {
	h := buildRouter(newAPI(nil, nil, nil), nil)

	rr := serveRequest(t, h, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "ok", decodeBody(t, rr)["status"])
}

func TestRouter_Metrics(t *testing.T) {
	h := buildRouter(newAPI(nil, nil, nil), nil)

	rr := serveRequest(t, h, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	h := buildRouter(newAPI(nil, nil, nil), []string{"https://blog.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/v1/repair", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "https://blog.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestGenerate_Success(t *testing.T) {
	p := &fakePipeline{result: &pipeline.Result{
		RunID:      "run-1",
		Status:     model.RunStatusSucceeded,
		GeoTargets: []string{"geoTargetConstants/2840"},
		CSV:        "keyword,avg_monthly_searches\n",
		Record:     repair.Record{FocusKeyphrase: "ehr"},
		Duration:   time.Second,
	}}
	h := buildRouter(newAPI(p, nil, nil), nil)

	rr := serveRequest(t, h, http.MethodPost, "/v1/generate",
		`{"blog": "A post", "seed_url": "https://example.com", "countries": ["Canada"]}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	assert.Equal(t, "run-1", body["run_id"])
	assert.Equal(t, "succeeded", body["status"])
	assert.Equal(t, "keyword,avg_monthly_searches\n", body["csv"])
	assert.Equal(t, []string{"Canada"}, p.req.Countries)
}

func TestGenerate_Validation(t *testing.T) {
	h := buildRouter(newAPI(&fakePipeline{}, nil, nil), nil)

	rr := serveRequest(t, h, http.MethodPost, "/v1/generate", `{"seed_url": "https://example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeBody(t, rr)["error"], "blog text is required")

	rr = serveRequest(t, h, http.MethodPost, "/v1/generate", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGenerateStatus(t *testing.T) {
	apiErr := &googleads.APIError{Operation: "generateKeywordIdeas", HTTPStatus: 403, Status: "PERMISSION_DENIED"}
	tests := []struct {
		err  error
		want int
	}{
		{pipeline.ErrNoGeoTargets, http.StatusUnprocessableEntity},
		{eris.Wrap(pipeline.ErrNoKeywordIdeas, "pipeline"), http.StatusUnprocessableEntity},
		{eris.Wrap(googleads.ErrInvalidSeedURL, "generate"), http.StatusBadRequest},
		{eris.Wrap(apiErr, "generate"), http.StatusBadGateway},
		{eris.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, generateStatus(tt.err), tt.err.Error())
	}
}

func TestGenerate_APIErrorCarriesRemediation(t *testing.T) {
	apiErr := &googleads.APIError{Operation: "generateKeywordIdeas", HTTPStatus: 403, Status: "PERMISSION_DENIED"}
	p := &fakePipeline{err: eris.Wrap(apiErr, "pipeline: generate keyword ideas")}
	h := buildRouter(newAPI(p, nil, nil), nil)

	rr := serveRequest(t, h, http.MethodPost, "/v1/generate", `{"blog": "b", "seed_url": "https://example.com"}`)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "PERMISSION_DENIED", body["class"])
	assert.NotEmpty(t, body["remediation"])
}

func TestResolve(t *testing.T) {
	r := &fakeResolver{}
	h := buildRouter(newAPI(nil, r, nil), nil)

	rr := serveRequest(t, h, http.MethodPost, "/v1/geo/resolve", `{"names": ["United States", "Atlantis"]}`)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, []any{"geoTargetConstants/2840"}, body["geo_targets"])
	stats := body["stats"].(map[string]any)
	assert.EqualValues(t, 2, stats["requested"])
	assert.EqualValues(t, 1, stats["failed"])
	assert.Equal(t, []string{"United States", "Atlantis"}, r.names)
}

func TestResolve_DefaultsToBuiltInCountries(t *testing.T) {
	r := &fakeResolver{}
	h := buildRouter(newAPI(nil, r, nil), nil)

	rr := serveRequest(t, h, http.MethodPost, "/v1/geo/resolve", `{}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, geotarget.DefaultCountries, r.names)
}

func TestRepairEndpoint(t *testing.T) {
	h := buildRouter(newAPI(nil, nil, nil), nil)

	rr := serveRequest(t, h, http.MethodPost, "/v1/repair", `Sure! {"FocusKeyphrase": "ehr", "SEOTitle": "t"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, repair.StrategyDirect, body["strategy"])
	assert.Equal(t, "ehr", body["record"].(map[string]any)["FocusKeyphrase"])
}

func TestRuns_Disabled(t *testing.T) {
	h := buildRouter(newAPI(nil, nil, nil), nil)

	assert.Equal(t, http.StatusServiceUnavailable, serveRequest(t, h, http.MethodGet, "/v1/runs", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serveRequest(t, h, http.MethodGet, "/v1/runs/abc", "").Code)
}

func TestRuns_ListAndGet(t *testing.T) {
	runs := &fakeRuns{runs: map[string]*model.Run{
		"run-1": {ID: "run-1", SeedURL: "https://example.com", Status: model.RunStatusSucceeded},
	}}
	h := buildRouter(newAPI(nil, nil, runs), nil)

	rr := serveRequest(t, h, http.MethodGet, "/v1/runs?status=succeeded&seed_url=https://example.com&limit=5&offset=2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody(t, rr)["runs"], 1)
	assert.Equal(t, store.RunFilter{Status: model.RunStatusSucceeded, SeedURL: "https://example.com", Limit: 5, Offset: 2}, runs.filter)

	rr = serveRequest(t, h, http.MethodGet, "/v1/runs/run-1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "run-1", decodeBody(t, rr)["id"])

	rr = serveRequest(t, h, http.MethodGet, "/v1/runs/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRuns_BadQuery(t *testing.T) {
	h := buildRouter(newAPI(nil, nil, &fakeRuns{}), nil)

	assert.Equal(t, http.StatusBadRequest, serveRequest(t, h, http.MethodGet, "/v1/runs?status=bogus", "").Code)
	assert.Equal(t, http.StatusBadRequest, serveRequest(t, h, http.MethodGet, "/v1/runs?limit=-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, serveRequest(t, h, http.MethodGet, "/v1/runs?offset=x", "").Code)
}
