package googleads

import (
	"errors"
	"net/http"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Classify(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want Class
	}{
		{"permission status", &APIError{HTTPStatus: 403, Status: "PERMISSION_DENIED"}, ClassPermissionDenied},
		{"bare 403", &APIError{HTTPStatus: 403}, ClassPermissionDenied},
		{"invalid status", &APIError{HTTPStatus: 400, Status: "INVALID_ARGUMENT"}, ClassInvalidArgument},
		{"invalid value message", &APIError{HTTPStatus: 500, Status: "INTERNAL", Message: "Invalid value at 'geo'"}, ClassInvalidArgument},
		{"unauthenticated", &APIError{HTTPStatus: 401, Status: "UNAUTHENTICATED"}, ClassUnauthenticated},
		{"service disabled reason", &APIError{HTTPStatus: 403, Status: "PERMISSION_DENIED", Reasons: []string{"SERVICE_DISABLED"}}, ClassServiceDisabled},
		{"service disabled message", &APIError{
			HTTPStatus: 403, Status: "PERMISSION_DENIED",
			Message: "Google Ads API has not been used in project 12345 before or it is disabled.",
		}, ClassServiceDisabled},
		{"other", &APIError{HTTPStatus: 404, Status: "NOT_FOUND"}, ClassOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Classify())
		})
	}
}

func TestAPIError_Remediation(t *testing.T) {
	assert.Contains(t, (&APIError{Status: "PERMISSION_DENIED"}).Remediation(), "test accounts")
	assert.Contains(t, (&APIError{Status: "PERMISSION_DENIED"}).Remediation(), "login_customer_id")
	assert.Contains(t, (&APIError{Status: "INVALID_ARGUMENT"}).Remediation(), "seed URL")
	assert.Contains(t, (&APIError{Reasons: []string{"SERVICE_DISABLED"}}).Remediation(), "googleads.googleapis.com")
	assert.Contains(t, (&APIError{Status: "UNAUTHENTICATED"}).Remediation(), "refresh token")
	assert.Empty(t, (&APIError{Status: "NOT_FOUND"}).Remediation())
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{
		Operation:  "generate_keyword_ideas",
		HTTPStatus: 400,
		Status:     "INVALID_ARGUMENT",
		Message:    "bad request",
		Reasons:    []string{"INVALID_GEO_TARGET_CONSTANT"},
	}
	assert.Equal(t, "googleads: generate_keyword_ideas: INVALID_ARGUMENT (HTTP 400): bad request [INVALID_GEO_TARGET_CONSTANT]", err.Error())

	bare := &APIError{Operation: "suggest_geo_targets", HTTPStatus: http.StatusBadGateway}
	assert.Equal(t, "googleads: suggest_geo_targets: Bad Gateway (HTTP 502)", bare.Error())
}

func TestParseAPIError(t *testing.T) {
	body := []byte(`{"error": {"code": 403, "status": "PERMISSION_DENIED", "message": "disabled",
		"details": [{"@type": "type.googleapis.com/google.rpc.ErrorInfo", "reason": "SERVICE_DISABLED"}]}}`)
	e := parseAPIError("suggest_geo_targets", 403, body)

	assert.Equal(t, "PERMISSION_DENIED", e.Status)
	assert.Equal(t, "disabled", e.Message)
	assert.Equal(t, []string{"SERVICE_DISABLED"}, e.Reasons)
	assert.Equal(t, ClassServiceDisabled, e.Classify())
}

func TestParseAPIError_NonJSONBody(t *testing.T) {
	e := parseAPIError("suggest_geo_targets", 502, []byte("  upstream connect error  "))
	assert.Equal(t, "upstream connect error", e.Message)
	assert.Empty(t, e.Status)
}

func TestAsAPIError(t *testing.T) {
	base := &APIError{HTTPStatus: 403}
	got, ok := AsAPIError(eris.Wrap(base, "pipeline: generate keyword ideas"))
	require.True(t, ok)
	assert.Same(t, base, got)

	_, ok = AsAPIError(errors.New("plain"))
	assert.False(t, ok)
}
