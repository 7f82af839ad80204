// Package testutil holds helpers shared by handler and router tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ErrorBody is the envelope every failing endpoint writes.
type ErrorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// NewJSONRequest marshals body and sets the JSON content type.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err, "marshal request body")
	return NewRequestWithBody(t, method, path, string(raw))
}

// NewRequest builds a bodyless request, typically a GET or DELETE.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// NewRequestWithBody sends body verbatim, which lets tests post section
// payloads exactly as a browser would.
func NewRequestWithBody(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithBearer attaches an access token.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// Login posts credentials to /auth/login and returns the access token.
func Login(t *testing.T, handler http.Handler, email, password string) string {
	t.Helper()
	rr := DoRequest(handler, NewJSONRequest(t, http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": password}))
	AssertStatusOK(t, rr)
	resp := DecodeJSON[struct {
		AccessToken string `json:"access_token"`
	}](t, rr)
	require.NotEmpty(t, resp.AccessToken, "login returned no token")
	return resp.AccessToken
}

// DecodeJSON reads the response body into T without draining the recorder.
func DecodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "decode response: %s", rr.Body.String())
	return out
}

func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	assert.Equal(t, want, rr.Code, "body: %s", rr.Body.String())
}

func AssertStatusOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	AssertStatus(t, rr, http.StatusOK)
}

// AssertError checks the status and the machine-readable kind, and that a
// human-readable description accompanies it. Internal errors must never
// leak their cause.
func AssertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) ErrorBody {
	t.Helper()
	AssertStatus(t, rr, status)
	body := DecodeJSON[ErrorBody](t, rr)
	assert.Equal(t, code, body.Error)
	assert.NotEmpty(t, body.Description, "error %q has no description", code)
	if code == "internal_error" {
		assert.False(t, strings.Contains(body.Description, ":"), "internal description leaks detail: %q", body.Description)
	}
	return body
}

// AssertJSONField compares one top-level field of a JSON object response.
func AssertJSONField(t *testing.T, rr *httptest.ResponseRecorder, key string, want any) {
	t.Helper()
	body := DecodeJSON[map[string]any](t, rr)
	got, ok := body[key]
	require.True(t, ok, "response has no %q field: %s", key, rr.Body.String())
	assert.Equal(t, want, got, "field %q", key)
}
