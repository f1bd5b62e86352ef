package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/kjstillabower/city-explorer-service/internal/apperr"
	"github.com/kjstillabower/city-explorer-service/internal/requestctx"
	"github.com/kjstillabower/city-explorer-service/internal/traffic"
)

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the standard error envelope with the correlation ID as requestId.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": requestctx.CorrelationID(r.Context()),
		},
	})
}

func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, v interface{}) {
	traffic.RecordSuccess(routeLabel(r))
	writeJSON(w, http.StatusOK, v)
}

// writeAppError maps err's kind to a status and public message. The cause is logged only.
func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := kind.Status()
	logger := requestctx.LoggerOr(r.Context(), h.logger)

	if status >= http.StatusInternalServerError {
		traffic.RecordError(routeLabel(r))
		logger.Error("request failed",
			zap.String("route", routeLabel(r)),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
	} else {
		logger.Debug("rejected request", zap.String("kind", kind.String()), zap.Error(err))
	}
	writeError(w, r, status, kind.Code(), kind.Message())
}
