package handlers

import (
	"log/slog"
	"net/http"

	"mercator-hq/quill/pkg/copywriter"
	"mercator-hq/quill/pkg/proxy"
	"mercator-hq/quill/pkg/proxy/types"
)

// CopyHandler serves POST /xiaohongshu/copy.
type CopyHandler struct {
	generator CopyGenerator
	maxBody   int64
	logger    *slog.Logger
}

// NewCopyHandler creates a copy handler. maxBody <= 0 selects
// proxy.MaxRequestBodySize.
func NewCopyHandler(generator CopyGenerator, maxBody int64, logger *slog.Logger) *CopyHandler {
	return &CopyHandler{
		generator: generator,
		maxBody:   maxBody,
		logger:    loggerOrDefault(logger).With("handler", "copy"),
	}
}

// ServeHTTP generates one copy. Any generation failure is reported as a
// generic 500; the cause is only logged.
func (h *CopyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}

	copyReq, err := proxy.ParseCopyRequest(r, h.maxBody)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected copy request", "error", err)
		writeError(w, r, proxy.HandleError(err), h.logger)
		return
	}

	out, err := h.generator.Generate(ctx, copywriter.SceneRequest{
		Scene:  copywriter.Scene(copyReq.Scene),
		Fields: copywriter.Fields(copyReq.Config),
	})
	if err != nil {
		writeError(w, r, proxy.HandleError(err), h.logger)
		return
	}

	writeJSON(w, r, types.CopyResponse{Copy: out.Copy}, h.logger)
}

// ScenesHandler serves GET /xiaohongshu/scenes.
type ScenesHandler struct {
	body   types.ScenesResponse
	logger *slog.Logger
}

// NewScenesHandler creates a scenes handler over the built-in catalogue.
func NewScenesHandler(logger *slog.Logger) *ScenesHandler {
	defs := copywriter.Scenes()
	scenes := make([]types.Scene, 0, len(defs))
	for _, def := range defs {
		fields := make([]types.SceneField, 0, len(def.Fields))
		for _, f := range def.Fields {
			fields = append(fields, types.SceneField{
				Key:      f.Key,
				Label:    f.Label,
				Required: f.Required,
				Unit:     f.Unit,
			})
		}
		scenes = append(scenes, types.Scene{ID: string(def.Scene), Name: def.Name, Fields: fields})
	}

	return &ScenesHandler{
		body:   types.ScenesResponse{Scenes: scenes},
		logger: loggerOrDefault(logger).With("handler", "scenes"),
	}
}

func (h *ScenesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	writeJSON(w, r, h.body, h.logger)
}
