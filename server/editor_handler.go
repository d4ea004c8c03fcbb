package server

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"Bt1Clip/core/auth"
	"Bt1Clip/core/session"
	"Bt1Clip/logger"
)

// EditorHandler 编辑会话的 WebSocket 接入
type EditorHandler struct {
	api      *APIHandler
	upgrader websocket.Upgrader
}

// NewEditorHandler 创建编辑会话处理器
func NewEditorHandler(api *APIHandler) *EditorHandler {
	return &EditorHandler{
		api: api,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// WebSocketHandler 把一条连接升级为编辑会话。
// WebSocket 无法通过 header 传递 token，从查询参数取。
func (h *EditorHandler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	projectID := vars["project_id"]
	if projectID == "" {
		http.Error(w, "工程ID不能为空", http.StatusBadRequest)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "缺少认证信息", http.StatusUnauthorized)
		return
	}
	claims, err := auth.ParseToken(token)
	if err != nil {
		http.Error(w, "无效的 token", http.StatusUnauthorized)
		return
	}

	project, err := h.api.loadProject(r, projectID)
	if err != nil {
		http.Error(w, "读取工程失败", http.StatusInternalServerError)
		return
	}
	if project == nil {
		http.Error(w, "工程不存在", http.StatusNotFound)
		return
	}
	if project.UserID != claims.UserID {
		http.Error(w, "无权访问该工程", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket 升级失败", logger.ErrorField(err))
		return
	}

	s := session.NewSession(
		h.api.hub,
		conn,
		project,
		claims.UserID,
		h.api.resolver,
		h.api.mediaRepo,
		h.api.projectRepo,
		h.api.projects,
	)
	h.api.hub.Register(s)

	ctx, cancel := context.WithCancel(context.Background())
	go s.WritePump()
	go func() {
		defer cancel()
		s.ReadPump(ctx)
	}()
	go s.Run(ctx)

	logger.Info("编辑会话建立",
		logger.String("projectId", projectID),
		logger.Int64("userId", claims.UserID),
		logger.String("session", s.ID))
}

// RegisterEditorRoutes 注册编辑会话路由
func RegisterEditorRoutes(router *mux.Router, handler *EditorHandler) {
	router.HandleFunc("/ws/editor/{project_id}", handler.WebSocketHandler)
}
