package httpapi

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"foodforward-data/internal/media"
	"foodforward-data/internal/service"
)

// MediaHandler 捐赠图片上传/删除 Handler
type MediaHandler struct {
	store  *media.Store
	logger *zap.Logger
}

func NewMediaHandler(store *media.Store, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{store: store, logger: logger}
}

// Upload multipart 图片上传，返回外部 URL 与 public id
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request, actor service.Actor) {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("media storage not configured"))
		return
	}

	if err := r.ParseMultipartForm(media.MaxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("missing image field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, media.MaxUploadBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to read upload"))
		return
	}

	result, err := h.store.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		if errors.Is(err, media.ErrTooLarge) || errors.Is(err, media.ErrNotAnImage) {
			writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
			return
		}
		h.logger.Error("Image upload failed", zap.String("actor", actor.UserID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("upload failed"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

// Delete 按 public id 删除图片（尽力而为）
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request, actor service.Actor, publicID string) {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("media storage not configured"))
		return
	}
	if err := h.store.Delete(r.Context(), publicID); err != nil {
		h.logger.Warn("Image delete failed",
			zap.String("public_id", publicID), zap.String("actor", actor.UserID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": true}))
}
