package googleads

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
)

// Validation errors, returned before any request is sent.
var (
	ErrMissingCredentials = eris.New("googleads: missing credentials")
	ErrMissingCustomerID  = eris.New("googleads: customer id is required")
	ErrInvalidCustomerID  = eris.New("googleads: customer id must be 10 digits")
	ErrNoGeoTargets       = eris.New("googleads: at least one geo target constant is required")
	ErrNoValidGeoTargets  = eris.New("googleads: no valid geo target constants found after validation")
	ErrMissingSeedURL     = eris.New("googleads: seed url is required")
	ErrInvalidSeedURL     = eris.New("googleads: invalid seed url")
)

// Class groups API failures by what the user has to fix.
type Class string

const (
	ClassPermissionDenied Class = "PERMISSION_DENIED"
	ClassInvalidArgument  Class = "INVALID_ARGUMENT"
	ClassServiceDisabled  Class = "SERVICE_DISABLED"
	ClassUnauthenticated  Class = "UNAUTHENTICATED"
	ClassOther            Class = "OTHER"
)

// APIError is a non-200 reply from the API.
type APIError struct {
	Operation  string
	HTTPStatus int
	// Status is the RPC status name, e.g. "PERMISSION_DENIED".
	Status  string
	Message string
	// Reasons are the ErrorInfo reasons and Ads error codes found in details.
	Reasons []string
	Body    string
}

func (e *APIError) Error() string {
	status := e.Status
	if status == "" {
		status = http.StatusText(e.HTTPStatus)
	}
	msg := fmt.Sprintf("googleads: %s: %s (HTTP %d)", e.Operation, status, e.HTTPStatus)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if len(e.Reasons) > 0 {
		msg += " [" + strings.Join(e.Reasons, ", ") + "]"
	}
	return msg
}

// Classify maps the error to a Class.
func (e *APIError) Classify() Class {
	if e.hasReason("SERVICE_DISABLED") ||
		strings.Contains(e.Message, "SERVICE_DISABLED") ||
		strings.Contains(e.Message, "has not been used in project") {
		return ClassServiceDisabled
	}
	switch {
	case e.Status == "PERMISSION_DENIED" || (e.Status == "" && e.HTTPStatus == http.StatusForbidden):
		return ClassPermissionDenied
	case e.Status == "UNAUTHENTICATED" || (e.Status == "" && e.HTTPStatus == http.StatusUnauthorized):
		return ClassUnauthenticated
	case e.Status == "INVALID_ARGUMENT" || (e.Status == "" && e.HTTPStatus == http.StatusBadRequest):
		return ClassInvalidArgument
	}
	if strings.Contains(strings.ToLower(e.Message), "invalid value") {
		return ClassInvalidArgument
	}
	return ClassOther
}

// Remediation returns guidance for the error's class, or "" for ClassOther.
func (e *APIError) Remediation() string {
	return remediation[e.Classify()]
}

func (e *APIError) hasReason(reason string) bool {
	for _, r := range e.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}

var remediation = map[Class]string{
	ClassPermissionDenied: `PERMISSION_DENIED. Possible causes:
1. The developer token is approved for test accounts only. Test tokens work
   only with test customer ids; set ads.customer_id to a test account.
2. The developer token is still pending approval (Tools & Settings > API Center).
3. The OAuth account has no access to this customer id.
4. The refresh token lacks the adwords scope; generate a new one.
5. When going through a manager account, ads.login_customer_id must be set
   to the manager's 10-digit id.`,
	ClassInvalidArgument: `INVALID_ARGUMENT. Possible causes:
1. One or more geo targets are invalid or unsupported. Retry with fewer
   countries or inspect the geo-target cache.
2. The seed URL is malformed; use a full URL such as https://www.example.com.
3. No geo targets were resolved for the request.
4. The configured API version does not accept a request field.`,
	ClassServiceDisabled: `The Google Ads API is not enabled for the Cloud project that owns the
OAuth client. Enable googleads.googleapis.com in the Cloud console, wait a
few minutes and retry.`,
	ClassUnauthenticated: `UNAUTHENTICATED. The OAuth credentials were rejected. Check
ads.client_id and ads.client_secret, and generate a new refresh token if it
was revoked or expired.`,
}

// AsAPIError finds an *APIError in err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

type errorEnvelope struct {
	Error struct {
		Code    int               `json:"code"`
		Message string            `json:"message"`
		Status  string            `json:"status"`
		Details []json.RawMessage `json:"details"`
	} `json:"error"`
}

type errorDetail struct {
	Type   string `json:"@type"`
	Reason string `json:"reason"`
	Errors []struct {
		ErrorCode map[string]string `json:"errorCode"`
		Message   string            `json:"message"`
	} `json:"errors"`
}

func parseAPIError(operation string, httpStatus int, body []byte) *APIError {
	e := &APIError{Operation: operation, HTTPStatus: httpStatus, Body: string(body)}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		e.Message = strings.TrimSpace(string(body))
		return e
	}
	e.Status = env.Error.Status
	e.Message = env.Error.Message

	for _, raw := range env.Error.Details {
		var d errorDetail
		if json.Unmarshal(raw, &d) != nil {
			continue
		}
		if d.Reason != "" {
			e.Reasons = append(e.Reasons, d.Reason)
		}
		for _, ae := range d.Errors {
			for _, code := range ae.ErrorCode {
				e.Reasons = append(e.Reasons, code)
			}
		}
	}
	return e
}
