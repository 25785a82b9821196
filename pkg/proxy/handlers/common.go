package handlers

import (
	"log/slog"
	"net/http"

	"mercator-hq/quill/pkg/proxy"
	"mercator-hq/quill/pkg/proxy/types"
)

// requireMethod writes a 405 and returns false unless r uses method.
func requireMethod(w http.ResponseWriter, r *http.Request, method string, logger *slog.Logger) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, types.NewMethodNotAllowedError(r.Method), logger)
	return false
}

func writeError(w http.ResponseWriter, r *http.Request, errResp *types.ErrorResponse, logger *slog.Logger) {
	if err := proxy.WriteErrorResponse(w, errResp); err != nil {
		logger.ErrorContext(r.Context(), "failed to write error response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, data interface{}, logger *slog.Logger) {
	if err := proxy.WriteJSONResponse(w, http.StatusOK, data); err != nil {
		logger.ErrorContext(r.Context(), "failed to write response", "error", err)
	}
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
