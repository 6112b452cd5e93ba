package httputil

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseErrorResponse_Success(t *testing.T) {
	resp := &http.Response{
		StatusCode: 200,
		Body:       http.NoBody,
	}

	err := ParseErrorResponse(resp)
	if err != nil {
		t.Errorf("Expected nil error for 200 response, got: %v", err)
	}
}

func TestParseErrorResponse_Error(t *testing.T) {
	body := `{"message": "Record Not Found", "errors": [{"resource": "Activity"}]}`
	resp := &http.Response{
		StatusCode: 404,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    httptest.NewRequest("GET", "https://www.strava.com/api/v3/activities/123", nil),
	}

	err := ParseErrorResponse(resp)
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}

	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("Expected *HTTPError, got %T", err)
	}
	if httpErr.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", httpErr.StatusCode)
	}
	if !strings.Contains(httpErr.Body, "Record Not Found") {
		t.Errorf("Expected body to contain upstream message, got: %s", httpErr.Body)
	}
	if !strings.Contains(httpErr.Error(), "Record Not Found") {
		t.Errorf("Expected Error() to contain body, got: %s", httpErr.Error())
	}
	if httpErr.URL != "https://www.strava.com/api/v3/activities/123" {
		t.Errorf("Expected request URL to be captured, got: %s", httpErr.URL)
	}

	// Body should still be readable after parsing
	remaining, _ := io.ReadAll(resp.Body)
	if string(remaining) != body {
		t.Error("Expected body to be re-readable after ParseErrorResponse")
	}
}

func TestParseErrorResponse_TruncatesLongBody(t *testing.T) {
	body := strings.Repeat("x", MaxErrorBodySize+100)
	resp := &http.Response{
		StatusCode: 500,
		Body:       io.NopCloser(strings.NewReader(body)),
	}

	err := ParseErrorResponse(resp)
	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("Expected *HTTPError, got %T", err)
	}
	if len(httpErr.Body) != MaxErrorBodySize+3 {
		t.Errorf("Expected truncated body of %d chars, got %d", MaxErrorBodySize+3, len(httpErr.Body))
	}
	if !strings.HasSuffix(httpErr.Body, "...") {
		t.Error("Expected truncation marker")
	}
}

func TestIsStatus(t *testing.T) {
	notFound := &HTTPError{StatusCode: 404, Status: "Not Found"}
	wrapped := fmt.Errorf("strava get activity: %w", notFound)

	if !IsStatus(notFound, 404) {
		t.Error("Expected IsStatus to match direct error")
	}
	if !IsStatus(wrapped, 404) {
		t.Error("Expected IsStatus to match wrapped error")
	}
	if IsStatus(notFound, 500) {
		t.Error("Expected IsStatus to reject other codes")
	}
	if IsStatus(errors.New("plain"), 404) {
		t.Error("Expected IsStatus to reject non-HTTP errors")
	}
}
