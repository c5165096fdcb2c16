package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"deal-parity/internal/ingestion"
	"deal-parity/internal/pipeline"
	"deal-parity/internal/storage"
)

// Stable machine-readable error codes. Clients branch on Code, never on
// the message text.
const (
	CodeCurrencyMismatch = "CURRENCY_MISMATCH"
	CodeInvalidSchema    = "INVALID_SCHEMA"
	CodeNotFound         = "NOT_FOUND"
	CodeBadRequest       = "BAD_REQUEST"
)

// ErrorBody is the JSON error envelope returned on every failure.
type ErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	NextAction string `json:"next_action"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message, nextAction string) {
	writeJSON(w, status, ErrorBody{Code: code, Message: message, NextAction: nextAction})
}

// writeDomainError maps known service errors onto the envelope; anything
// unrecognized becomes a 500 with a generic body.
func writeDomainError(w http.ResponseWriter, err error) {
	var schemaErr *ingestion.InvalidSchemaError
	var currencyErr *ingestion.CurrencyMismatchError

	switch {
	case errors.As(err, &currencyErr):
		writeError(w, http.StatusUnprocessableEntity, CodeCurrencyMismatch, currencyErr.Error(),
			"confirm the deal currency or correct the document, then resubmit")
	case errors.As(err, &schemaErr):
		writeError(w, http.StatusUnprocessableEntity, CodeInvalidSchema, schemaErr.Error(),
			"fix the reported row and resubmit the whole document")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, err.Error(),
			"check the identifier")
	case errors.Is(err, pipeline.ErrNoTransactions):
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error(),
			"ingest at least one transaction document first")
	case errors.Is(err, storage.ErrDuplicateKey):
		writeError(w, http.StatusConflict, CodeBadRequest, err.Error(),
			"use a new identifier")
	default:
		writeError(w, http.StatusInternalServerError, CodeBadRequest, "internal error",
			"retry; contact support if the error persists")
	}
}
