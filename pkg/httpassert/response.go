// SPDX-License-Identifier: Apache-2.0

// Package httpassert provides assertion helpers for HTTP responses and JSON
// documents: status and header checks, semantic JSON comparison with
// readable diffs, JSON Schema validation and YAML fixtures.
package httpassert

import (
	"io"
	"mime"
	"net/http"
	"strings"
	"testing"
)

// ResponseAssertion wraps an HTTP response for chained assertions. The body
// is read and closed when the wrapper is created, so assertions can be made
// in any order and more than once.
type ResponseAssertion struct {
	t    *testing.T
	resp *http.Response
	body []byte
}

// Response wraps resp for assertions, consuming its body.
func Response(t *testing.T, resp *http.Response) *ResponseAssertion {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Failed to close response body: %v", err)
	}

	return &ResponseAssertion{t: t, resp: resp, body: body}
}

// Status asserts the response status code.
func (a *ResponseAssertion) Status(code int) *ResponseAssertion {
	a.t.Helper()

	if a.resp.StatusCode != code {
		a.t.Errorf("expected status %d, got %d; body: %s", code, a.resp.StatusCode, a.body)
	}
	return a
}

// Header asserts that the named header has the given value.
func (a *ResponseAssertion) Header(key, want string) *ResponseAssertion {
	a.t.Helper()

	if got := a.resp.Header.Get(key); got != want {
		a.t.Errorf("expected header %s to be %q, got %q", key, want, got)
	}
	return a
}

// ContentType asserts the media type of the response, ignoring parameters
// such as charset.
func (a *ResponseAssertion) ContentType(want string) *ResponseAssertion {
	a.t.Helper()

	raw := a.resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		a.t.Errorf("unparseable Content-Type %q: %v", raw, err)
		return a
	}
	if mediaType != want {
		a.t.Errorf("expected content type %q, got %q", want, mediaType)
	}
	return a
}

// BodyContains asserts that the body contains the given substring.
func (a *ResponseAssertion) BodyContains(s string) *ResponseAssertion {
	a.t.Helper()

	if !strings.Contains(string(a.body), s) {
		a.t.Errorf("expected body to contain %q; body: %s", s, a.body)
	}
	return a
}

// JSONEq asserts that the body is JSON semantically equal to want.
func (a *ResponseAssertion) JSONEq(want string) *ResponseAssertion {
	a.t.Helper()

	JSONEq(a.t, want, string(a.body))
	return a
}

// MatchesSchema asserts that the body validates against the JSON Schema at
// schemaPath.
func (a *ResponseAssertion) MatchesSchema(schemaPath string) *ResponseAssertion {
	a.t.Helper()

	MatchesSchema(a.t, schemaPath, string(a.body))
	return a
}

// Body returns the response body.
func (a *ResponseAssertion) Body() []byte {
	return a.body
}
