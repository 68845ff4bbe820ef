package handlers

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"nihongo/internal/logger"
)

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logger.FromZap(zap.New(core)), logs
}

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	log, logs := observedLogger()
	recorder := httptest.NewRecorder()

	respondWithError(log, recorder, 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}
	if body := strings.TrimSpace(recorder.Body.String()); body != "Teapot" {
		t.Fatalf("expected body 'Teapot', got %q", body)
	}
	if logs.Len() != 0 {
		t.Errorf("nothing should be logged without an error, got %d entries", logs.Len())
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	log, logs := observedLogger()
	recorder := httptest.NewRecorder()

	respondWithError(log, recorder, 500, ErrInternalServerError, "", errors.New("boom"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].Message != ErrInternalServerError {
		t.Errorf("log message = %q", entries[0].Message)
	}
	if got := entries[0].ContextMap()["error"]; got != "boom" {
		t.Errorf("logged error = %v", got)
	}
}

func TestRespondJSONErrorHidesCause(t *testing.T) {
	log, logs := observedLogger()
	recorder := httptest.NewRecorder()

	respondJSONError(log, recorder, 400, MsgEmailTaken, errors.New("unique constraint users.email"))

	var body apiResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body.Message != MsgEmailTaken {
		t.Errorf("message = %q", body.Message)
	}
	if strings.Contains(recorder.Body.String(), "unique constraint") {
		t.Error("internal error leaked into the response")
	}
	if logs.Len() != 1 {
		t.Errorf("expected the cause to be logged")
	}
	if ct := recorder.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
}
