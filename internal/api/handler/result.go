package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daehyunkim/repopersona/internal/api/response"
	"github.com/daehyunkim/repopersona/internal/store"
	"github.com/daehyunkim/repopersona/pkg/models"
)

// ResultGetter loads analysis results by id.
type ResultGetter interface {
	GetResult(ctx context.Context, id uuid.UUID) (*models.AnalysisResult, error)
}

// NewResultHandler returns an http.HandlerFunc for GET /api/v1/results/{resultID}.
// This is the endpoint behind share URLs, so it stays public and read-only.
func NewResultHandler(results ResultGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "resultID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"resultID must be a valid UUID", nil)
			return
		}

		result, err := results.GetResult(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Result not found", nil)
				return
			}
			slog.Error("loading result", "error", err, "result_id", id)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, result)
	}
}
