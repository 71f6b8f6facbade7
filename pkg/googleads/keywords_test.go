package googleads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() KeywordIdeasRequest {
	return KeywordIdeasRequest{
		CustomerID: "123-456-7890",
		GeoTargets: []string{"geoTargetConstants/2840", "geoTargetConstants/2124"},
		SeedURL:    "www.example.com",
	}
}

func TestPrepareKeywordIdeasRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*KeywordIdeasRequest)
		wantErr error
	}{
		{"missing customer", func(r *KeywordIdeasRequest) { r.CustomerID = " " }, ErrMissingCustomerID},
		{"short customer", func(r *KeywordIdeasRequest) { r.CustomerID = "123-456" }, ErrInvalidCustomerID},
		{"no geo targets", func(r *KeywordIdeasRequest) { r.GeoTargets = nil }, ErrNoGeoTargets},
		{"only blanks", func(r *KeywordIdeasRequest) { r.GeoTargets = []string{"", "  "} }, ErrNoValidGeoTargets},
		{"only malformed", func(r *KeywordIdeasRequest) { r.GeoTargets = []string{"geoTargetConstants/", "Canada"} }, ErrNoValidGeoTargets},
		{"missing seed", func(r *KeywordIdeasRequest) { r.SeedURL = "" }, ErrMissingSeedURL},
		{"hostless seed", func(r *KeywordIdeasRequest) { r.SeedURL = "https://" }, ErrInvalidSeedURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, _, err := PrepareKeywordIdeasRequest(req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPrepareKeywordIdeasRequest_Normalizes(t *testing.T) {
	req := validRequest()
	req.GeoTargets = []string{
		" geoTargetConstants/2840 ", "geoTargetConstants/2840", "", "bogus", "geoTargetConstants/2124",
	}

	got, warnings, err := PrepareKeywordIdeasRequest(req)

	require.NoError(t, err)
	assert.Equal(t, "1234567890", got.CustomerID)
	assert.Equal(t, []string{"geoTargetConstants/2840", "geoTargetConstants/2124"}, got.GeoTargets)
	assert.Equal(t, "https://www.example.com", got.SeedURL)
	assert.Equal(t, DefaultLanguage, got.Language)
	assert.Equal(t, DefaultMaxResults, got.MaxResults)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "bogus")
}

func TestNormalizeGeoTargets_CapsAtTen(t *testing.T) {
	var in []string
	for i := 1; i <= 12; i++ {
		in = append(in, fmt.Sprintf("geoTargetConstants/%d", 2000+i))
	}

	got, warnings, err := NormalizeGeoTargets(in)

	require.NoError(t, err)
	assert.Equal(t, in[:10], got)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "had 12")
}

func TestNormalizeSeedURL(t *testing.T) {
	got, err := NormalizeSeedURL("http://example.com/blog")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/blog", got)

	got, err = NormalizeSeedURL("example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got)
}

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, "languageConstants/1000", normalizeLanguage(""))
	assert.Equal(t, "languageConstants/1002", normalizeLanguage("1002"))
	assert.Equal(t, "languageConstants/1003", normalizeLanguage("languageConstants/1003"))
}

func TestGenerateKeywordIdeas_ValidationBeforeRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls.Add(1) }))
	defer srv.Close()

	req := validRequest()
	req.GeoTargets = []string{"nope"}
	_, err := testClient(t, srv).GenerateKeywordIdeas(context.Background(), req)

	require.ErrorIs(t, err, ErrNoValidGeoTargets)
	assert.Zero(t, calls.Load())
}

func TestGenerateKeywordIdeas_RequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20/customers/1234567890:generateKeywordIdeas", r.URL.Path)

		var body keywordIdeasBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "languageConstants/1000", body.Language)
		assert.Equal(t, "GOOGLE_SEARCH", body.KeywordPlanNetwork)
		assert.Equal(t, "https://www.example.com", body.URLSeed.URL)
		assert.True(t, body.IncludeAdultKeywords)
		assert.Equal(t, []string{"geoTargetConstants/2840", "geoTargetConstants/2124"}, body.GeoTargetConstants)

		_, _ = w.Write([]byte(`{"results": [
			{"text": "ehr software", "keywordIdeaMetrics": {
				"competition": "HIGH", "avgMonthlySearches": "5400", "competitionIndex": "87",
				"lowTopOfPageBidMicros": "2500000", "highTopOfPageBidMicros": "9100000",
				"monthlySearchVolumes": [{"month": "JANUARY", "year": "2025", "monthlySearches": "4400"}]}},
			{"text": "telehealth near me"}
		], "totalSize": "2"}`))
	}))
	defer srv.Close()

	req := validRequest()
	req.IncludeAdult = true
	resp, err := testClient(t, srv).GenerateKeywordIdeas(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, resp.Ideas, 2)
	assert.Equal(t, int64(2), resp.TotalSize)

	m := resp.Ideas[0].Metrics
	require.NotNil(t, m)
	assert.Equal(t, "HIGH", m.Competition)
	assert.Equal(t, Int64(5400), *m.AvgMonthlySearches)
	assert.Equal(t, Int64(87), *m.CompetitionIndex)
	require.Len(t, m.MonthlySearchVolumes, 1)
	assert.Equal(t, "JANUARY", m.MonthlySearchVolumes[0].Month)
	assert.Equal(t, Int64(2025), m.MonthlySearchVolumes[0].Year)

	assert.Nil(t, resp.Ideas[1].Metrics)
}

func TestGenerateKeywordIdeas_SendsFirstTenTargets(t *testing.T) {
	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body keywordIdeasBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		sent = body.GeoTargetConstants
		_, _ = w.Write([]byte(`{"results": [{"text": "a"}]}`))
	}))
	defer srv.Close()

	req := validRequest()
	req.GeoTargets = nil
	for i := 0; i < 11; i++ {
		req.GeoTargets = append(req.GeoTargets, fmt.Sprintf("geoTargetConstants/%d", 3000+i))
	}
	resp, err := testClient(t, srv).GenerateKeywordIdeas(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, req.GeoTargets[:10], sent)
	assert.Equal(t, req.GeoTargets[:10], resp.GeoTargets)
	assert.Len(t, resp.Warnings, 1)
}

func TestGenerateKeywordIdeas_SinglePageCoversMax(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body keywordIdeasBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 3, body.PageSize)
		_, _ = w.Write([]byte(`{"results": [{"text": "a"}, {"text": "b"}, {"text": "c"}], "nextPageToken": "page-2"}`))
	}))
	defer srv.Close()

	req := validRequest()
	req.MaxResults = 3
	resp, err := testClient(t, srv).GenerateKeywordIdeas(context.Background(), req)

	require.NoError(t, err)
	assert.Len(t, resp.Ideas, 3)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateKeywordIdeas_PagesUntilMaxResults(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		var body keywordIdeasBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if n > 1 {
			assert.Equal(t, fmt.Sprintf("page-%d", n), body.PageToken)
		}
		_, _ = fmt.Fprintf(w, `{"results": [{"text": "a%[1]d"}, {"text": "b%[1]d"}, {"text": "c%[1]d"}], "nextPageToken": "page-%[2]d"}`, n, n+1)
	}))
	defer srv.Close()

	req := validRequest()
	req.MaxResults = 5
	resp, err := testClient(t, srv).GenerateKeywordIdeas(context.Background(), req)

	require.NoError(t, err)
	assert.Len(t, resp.Ideas, 5)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "a1", resp.Ideas[0].Text)
	assert.Equal(t, "b2", resp.Ideas[4].Text)
}

func TestGenerateKeywordIdeas_StopsWithoutNextPage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"results": [{"text": "only"}]}`))
	}))
	defer srv.Close()

	resp, err := testClient(t, srv).GenerateKeywordIdeas(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Len(t, resp.Ideas, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateKeywordIdeas_InvalidArgument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "status": "INVALID_ARGUMENT",
			"message": "Request contains an invalid argument.",
			"details": [{"@type": "type.googleapis.com/google.ads.googleads.v20.errors.GoogleAdsFailure",
				"errors": [{"errorCode": {"criterionError": "INVALID_GEO_TARGET_CONSTANT"}, "message": "bad geo"}]}]}}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv).GenerateKeywordIdeas(context.Background(), validRequest())

	require.Error(t, err)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, ClassInvalidArgument, apiErr.Classify())
	assert.Equal(t, []string{"INVALID_GEO_TARGET_CONSTANT"}, apiErr.Reasons)
	assert.Contains(t, apiErr.Remediation(), "geo targets")
}
