package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

func TestLoggingRecordsResponseStatus(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: buf})

	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil))

	if resp.Code != http.StatusTeapot {
		t.Fatalf("expected status passthrough, got %d", resp.Code)
	}
	if !strings.Contains(buf.String(), `"status":418`) {
		t.Fatalf("expected logged status 418; entries=%s", buf.String())
	}
}

func TestLoggingDefaultsImplicitStatusToOK(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: buf})

	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if !strings.Contains(buf.String(), `"status":200`) {
		t.Fatalf("expected implicit 200 in log; entries=%s", buf.String())
	}
}
