package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func decodeErrorEnvelope(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var envelope errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return envelope
}

func TestWriteVerbErrorBadRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	writeVerbError(rec, newBadRequestError("BAD_JSON"), "t")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	envelope := decodeErrorEnvelope(t, rec)
	if envelope.Error.Code != "BAD_JSON" || envelope.Error.Retryable {
		t.Fatalf("error=%+v", envelope.Error)
	}
}

func TestWriteVerbErrorConstraintViolation(t *testing.T) {
	rec := httptest.NewRecorder()
	writeVerbError(rec, &pgconn.PgError{ConstraintName: "scene_audit_log_idempotency_unique"}, "t")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d", rec.Code)
	}
	envelope := decodeErrorEnvelope(t, rec)
	if envelope.Error.Code != "AUDIT_DUPLICATE_ENTRY" {
		t.Fatalf("error=%+v", envelope.Error)
	}
}

func TestWriteVerbErrorPgInvalidInput(t *testing.T) {
	rec := httptest.NewRecorder()
	writeVerbError(rec, &pgconn.PgError{Code: "22P02"}, "t")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	envelope := decodeErrorEnvelope(t, rec)
	if envelope.Error.Code != "INVALID_INPUT" {
		t.Fatalf("error=%+v", envelope.Error)
	}
}

func TestWriteVerbErrorStoreFaultIsRetryable(t *testing.T) {
	rec := httptest.NewRecorder()
	writeVerbError(rec, errors.New("db down"), "t")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	envelope := decodeErrorEnvelope(t, rec)
	if envelope.Error.Code != "INTERNAL_ERROR" || !envelope.Error.Retryable {
		t.Fatalf("error=%+v", envelope.Error)
	}
}
