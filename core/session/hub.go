package session

import (
	"encoding/json"
	"sync"
	"time"

	"Bt1Clip/logger"
	"Bt1Clip/model"
)

// Hub 会话管理中心。按工程聚合会话，同一工程的多条连接
// 会互相收到彼此编辑后的状态快照。
type Hub struct {
	// 工程 -> 会话集合
	projects map[string]map[*Session]bool

	register   chan *Session
	unregister chan *Session
	broadcast  chan *broadcastMessage

	mu   sync.RWMutex
	done chan struct{}
}

// broadcastMessage 工程内广播
type broadcastMessage struct {
	projectID string
	payload   []byte
	excludeID string // 不回发给发起编辑的会话
}

// NewHub 创建会话 Hub
func NewHub() *Hub {
	return &Hub{
		projects:   make(map[string]map[*Session]bool),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		broadcast:  make(chan *broadcastMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run 启动 Hub 主循环
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.addSession(s)
		case s := <-h.unregister:
			h.removeSession(s)
		case msg := <-h.broadcast:
			h.broadcastToProject(msg)
		case <-h.done:
			return
		}
	}
}

// Stop 停止 Hub
func (h *Hub) Stop() {
	close(h.done)
}

// Register 注册会话。Hub 已停止时不阻塞调用方
func (h *Hub) Register(s *Session) {
	select {
	case h.register <- s:
	case <-h.done:
	}
}

// Unregister 注销会话。Hub 已停止时不阻塞调用方，
// 会话的读泵拆除不依赖 Hub 的生命周期
func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// BroadcastState 把工程快照广播给同一工程的其他会话
func (h *Hub) BroadcastState(projectID, originID string, p *model.Project) {
	msg := &WSMessage{Type: MsgTypeState, Timestamp: time.Now().UnixMilli()}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	msg.Data = raw
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{projectID: projectID, payload: payload, excludeID: originID}:
	default:
		// 广播队列满，丢弃一次快照，后续编辑会再推
	}
}

// SessionCount 返回一个工程上的在线会话数
func (h *Hub) SessionCount(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.projects[projectID])
}

func (h *Hub) addSession(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	projectID := s.ProjectID()
	if h.projects[projectID] == nil {
		h.projects[projectID] = make(map[*Session]bool)
	}
	h.projects[projectID][s] = true

	logger.Info("会话注册",
		logger.String("session", s.ID),
		logger.String("projectId", projectID),
		logger.Int64("userId", s.UserID))
}

func (h *Hub) removeSession(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	projectID := s.ProjectID()
	if sessions, ok := h.projects[projectID]; ok {
		if _, ok := sessions[s]; ok {
			delete(sessions, s)
			if len(sessions) == 0 {
				delete(h.projects, projectID)
			}
		}
	}

	logger.Info("会话注销",
		logger.String("session", s.ID),
		logger.String("projectId", projectID))
}

func (h *Hub) broadcastToProject(msg *broadcastMessage) {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.projects[msg.projectID]))
	for s := range h.projects[msg.projectID] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		if s.ID == msg.excludeID {
			continue
		}
		s.Push(msg.payload)
	}
}
