package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-courses/internal/course"
	"github.com/p-n-ai/pai-courses/internal/quality"
)

const (
	msgQualityFailed   = "Automated Quality Check Failed"
	msgInvalidCourse   = "Invalid course submission"
	msgGateUnavailable = "Quality check unavailable"
)

type errorBody struct {
	Error   string            `json:"error"`
	Details []string          `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		qErr     *course.QualityError
		vErr     *course.ValidationError
		fetchErr *quality.FetchError
	)

	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgInvalidCourse, Fields: vErr.Fields})
	case errors.As(err, &qErr):
		writeQualityFailure(w, qErr.Result.Flags)
	case errors.As(err, &fetchErr):
		slog.Error("quality gate lookup failed", "lookup", fetchErr.Lookup, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: msgGateUnavailable})
	case errors.Is(err, course.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, course.ErrInvalidDecision), errors.Is(err, course.ErrInstructorRequired):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, course.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// writeQualityFailure always emits details, even when empty.
func writeQualityFailure(w http.ResponseWriter, flags []string) {
	if flags == nil {
		flags = []string{}
	}
	writeJSON(w, http.StatusUnprocessableEntity, struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}{msgQualityFailed, flags})
}
