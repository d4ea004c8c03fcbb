package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"Bt1Clip/logger"
	"Bt1Clip/model"
)

// CreateProjectRequest 创建工程请求
type CreateProjectRequest struct {
	Name string `json:"name"`
}

// CreateProjectHandler 创建工程
func (h *APIHandler) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		req.Name = "未命名工程"
	}

	p := model.NewProject(userID, req.Name)
	if err := h.projectRepo.Create(r.Context(), p); err != nil {
		logger.Error("创建工程失败", logger.ErrorField(err), logger.Int64("userId", userID))
		http.Error(w, "Failed to create project", http.StatusInternalServerError)
		return
	}

	logger.Info("工程已创建",
		logger.String("projectId", p.ID),
		logger.Int64("userId", userID),
		logger.String("name", p.Name))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(p)
}

// ListProjectsHandler 列出当前用户的工程
func (h *APIHandler) ListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	projects, err := h.projectRepo.ListByUser(r.Context(), userID)
	if err != nil {
		logger.Error("工程列表查询失败", logger.ErrorField(err), logger.Int64("userId", userID))
		http.Error(w, "Failed to list projects", http.StatusInternalServerError)
		return
	}
	if projects == nil {
		projects = []*model.Project{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(projects)
}

// GetProjectHandler 获取单个工程，优先读缓存中的最新快照
func (h *APIHandler) GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	projectID := vars["id"]

	p, err := h.loadProject(r, projectID)
	if err != nil {
		http.Error(w, "Failed to get project", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	if p.UserID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

// DeleteProjectHandler 删除工程及其缓存快照
func (h *APIHandler) DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	projectID := vars["id"]

	p, err := h.projectRepo.GetByID(r.Context(), projectID)
	if err != nil {
		http.Error(w, "Failed to get project", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	if p.UserID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := h.projectRepo.Delete(r.Context(), projectID); err != nil {
		logger.Error("删除工程失败", logger.ErrorField(err), logger.String("projectId", projectID))
		http.Error(w, "Failed to delete project", http.StatusInternalServerError)
		return
	}
	if err := h.projects.DeleteProject(r.Context(), projectID); err != nil {
		logger.Warn("工程缓存删除失败", logger.ErrorField(err), logger.String("projectId", projectID))
	}

	logger.Info("工程已删除", logger.String("projectId", projectID))
	w.WriteHeader(http.StatusNoContent)
}

// ExportProjectHandler 接受导出请求。
// 服务端渲染导出尚未实现，这里只校验工程并回执受理。
func (h *APIHandler) ExportProjectHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	projectID := vars["id"]

	p, err := h.loadProject(r, projectID)
	if err != nil {
		http.Error(w, "Failed to get project", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	if p.UserID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	logger.Info("收到导出请求",
		logger.String("projectId", projectID),
		logger.Float64("duration", p.Duration))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":   "导出任务已受理",
		"projectId": projectID,
		"status":    "pending",
	})
}

// loadProject 缓存优先读取工程，未命中回落到数据库
func (h *APIHandler) loadProject(r *http.Request, projectID string) (*model.Project, error) {
	if p, err := h.projects.GetProject(r.Context(), projectID); err == nil && p != nil {
		return p, nil
	}
	return h.projectRepo.GetByID(r.Context(), projectID)
}
