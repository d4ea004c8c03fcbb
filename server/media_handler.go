package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"Bt1Clip/core/media"
	"Bt1Clip/logger"
	"Bt1Clip/model"
	"Bt1Clip/storage"
)

// UploadMediaHandler 处理素材上传。
// multipart 表单字段：
//   - mediaFile: 媒体文件（MP4、WebM、MP3 等）
//   - name: 素材显示名（可选，默认取文件名）
func (h *APIHandler) UploadMediaHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST method is allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(256 << 20); err != nil { // 256MB max memory
		http.Error(w, fmt.Sprintf("Failed to parse multipart form: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("mediaFile")
	if err != nil {
		http.Error(w, "Missing 'mediaFile' in form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	trackType, ok := media.TypeForFilename(header.Filename)
	if !ok {
		http.Error(w, "Unsupported media type", http.StatusBadRequest)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	// 先落到临时文件，时长探测需要本地路径
	if err := os.MkdirAll(h.cfg.UploadDir, 0755); err != nil {
		http.Error(w, "Failed to prepare upload directory", http.StatusInternalServerError)
		return
	}
	tmp, err := os.CreateTemp(h.cfg.UploadDir, "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		http.Error(w, "Failed to create temp file", http.StatusInternalServerError)
		return
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, file)
	if err != nil {
		http.Error(w, "Failed to save uploaded file", http.StatusInternalServerError)
		return
	}

	duration := h.prober.Duration(r.Context(), tmp.Name())

	mediaID := uuid.NewString()
	objectKey := fmt.Sprintf("media/%d/%s%s", userID, mediaID, filepath.Ext(header.Filename))

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		http.Error(w, "Failed to read uploaded file", http.StatusInternalServerError)
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := storage.UploadObject(r.Context(), h.cfg.MinioBucket, objectKey, tmp, size, contentType); err != nil {
		logger.Error("素材上传到对象存储失败", logger.ErrorField(err), logger.String("objectKey", objectKey))
		http.Error(w, "Failed to store media", http.StatusInternalServerError)
		return
	}

	item := &model.MediaItem{
		ID:        mediaID,
		UserID:    userID,
		Type:      trackType,
		Name:      name,
		Duration:  duration,
		ObjectKey: objectKey,
		Status:    model.MediaStatusReady,
	}
	if err := h.mediaRepo.Create(r.Context(), item); err != nil {
		logger.Error("素材入库失败", logger.ErrorField(err), logger.String("mediaId", mediaID))
		http.Error(w, "Failed to catalog media", http.StatusInternalServerError)
		return
	}

	logger.Info("素材上传成功",
		logger.String("mediaId", mediaID),
		logger.Int64("userId", userID),
		logger.String("name", name),
		logger.Float64("duration", duration))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(item)
}

// ListMediaHandler 返回当前用户可见的素材（本人上传 + 预置示例）
func (h *APIHandler) ListMediaHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Only GET method is allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := h.mediaRepo.ListByUser(r.Context(), userID)
	if err != nil {
		logger.Error("素材列表查询失败", logger.ErrorField(err), logger.Int64("userId", userID))
		http.Error(w, "Failed to list media", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*model.MediaItem{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// MediaURLHandler 为一个素材签发临时预览地址
func (h *APIHandler) MediaURLHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	mediaID := vars["id"]

	item, err := h.mediaRepo.GetByID(r.Context(), mediaID)
	if err != nil {
		http.Error(w, "Failed to get media", http.StatusInternalServerError)
		return
	}
	if item == nil {
		http.Error(w, "Media not found", http.StatusNotFound)
		return
	}

	// 远程素材直接返回原地址
	if item.ObjectKey == "" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"url": item.SourceURL})
		return
	}

	url, err := storage.PresignedGetURL(r.Context(), h.cfg.MinioBucket, item.ObjectKey, time.Hour)
	if err != nil {
		logger.Error("预签名地址签发失败", logger.ErrorField(err), logger.String("mediaId", mediaID))
		http.Error(w, "Failed to sign media URL", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"url": url})
}
