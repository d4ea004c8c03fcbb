package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"Bt1Clip/cache"
	"Bt1Clip/core/playback"
	"Bt1Clip/core/timeline"
	"Bt1Clip/logger"
	"Bt1Clip/model"
	"Bt1Clip/repository"
)

// pollInterval 设备时钟轮询周期，约等于一个渲染帧
const pollInterval = 16 * time.Millisecond

// Session 一条连接上的编辑会话。
// 工程状态、同步器、绑定器全部归属会话自己的事件循环，
// 所有变更在 Run 循环内串行执行，不持锁。
type Session struct {
	ID     string
	UserID int64

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// inbound 由读协程写入，Run 循环消费
	inbound chan *WSMessage

	project  *model.Project
	sync     *playback.Synchronizer
	binder   *playback.Binder
	device   *RemoteDevice
	viewport ViewportData

	mediaRepo   repository.MediaRepository
	projectRepo repository.ProjectRepository
	projects    *cache.ProjectCache
}

// NewSession 创建编辑会话并完成内部接线
func NewSession(
	hub *Hub,
	conn *websocket.Conn,
	project *model.Project,
	userID int64,
	resolver playback.SourceResolver,
	mediaRepo repository.MediaRepository,
	projectRepo repository.ProjectRepository,
	projects *cache.ProjectCache,
) *Session {
	s := &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		inbound:     make(chan *WSMessage, 64),
		project:     project,
		mediaRepo:   mediaRepo,
		projectRepo: projectRepo,
		projects:    projects,
	}

	s.sync = playback.NewSynchronizer(func() float64 { return s.project.Duration })
	s.sync.OnTime(s.handleTime)
	s.sync.OnPlay(func(playing bool) {
		s.enqueue(MsgTypePlayState, &PlayStateData{Playing: playing})
	})
	s.sync.OnError(func(msg string) {
		s.enqueue(MsgTypePlaybackError, &ErrorData{Message: msg})
	})

	s.binder = playback.NewBinder(resolver, func(clip *model.Clip) playback.Device {
		d := NewRemoteDevice(s.enqueue)
		s.device = d
		return d
	}, s.sync)

	return s
}

// ProjectID 返回会话绑定的工程 ID
func (s *Session) ProjectID() string { return s.project.ID }

// Run 会话主循环。消费入站消息并按帧轮询设备时钟，
// 退出时拆除设备绑定并落盘工程。
func (s *Session) Run(ctx context.Context) {
	// 恢复到上次保存的指针位置并绑定初始活动片段
	s.sync.Seek(s.project.CurrentTime)
	s.refreshActive(ctx)
	s.pushState()

	ticker := time.NewTicker(pollInterval)
	defer func() {
		ticker.Stop()
		s.binder.Close()
		s.persist(context.Background())
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.inbound:
			if !ok {
				return
			}
			s.dispatch(ctx, msg)
		case <-ticker.C:
			if a := s.binder.Adapter(); a != nil && a.ShouldPoll() {
				a.Poll()
			}
		}
	}
}

// ========== 消息分发 ==========

// dispatch 在事件循环上处理一条入站消息
func (s *Session) dispatch(ctx context.Context, msg *WSMessage) {
	switch msg.Type {
	case MsgTypeAddClip:
		var data AddClipData
		if !s.decode(msg, &data) {
			return
		}
		s.addClip(ctx, data.MediaID)

	case MsgTypeMoveClip:
		var data MoveClipData
		if !s.decode(msg, &data) {
			return
		}
		timeline.MoveClip(s.project, data.ClipID, data.NewStart)
		s.afterEdit(ctx)

	case MsgTypeSplitClip:
		var data SplitClipData
		if !s.decode(msg, &data) {
			return
		}
		timeline.SplitClip(s.project, data.ClipID, data.AtTime)
		s.afterEdit(ctx)

	case MsgTypeDeleteClip:
		var data ClipRefData
		if !s.decode(msg, &data) {
			return
		}
		timeline.DeleteClip(s.project, data.ClipID)
		// 删除后指针可能落在工程之外
		s.sync.Seek(s.sync.CurrentTime())
		s.afterEdit(ctx)

	case MsgTypeSelectClip:
		var data ClipRefData
		if !s.decode(msg, &data) {
			return
		}
		if clip, _ := s.project.FindClip(data.ClipID); clip != nil {
			s.project.SelectedClipID = data.ClipID
		} else {
			s.project.SelectedClipID = ""
		}
		s.afterEdit(ctx)

	case MsgTypeSetZoom:
		var data ZoomData
		if !s.decode(msg, &data) {
			return
		}
		if data.Zoom > 0 {
			s.project.Zoom = data.Zoom
			s.afterEdit(ctx)
		}

	case MsgTypeSeek:
		var data TimeData
		if !s.decode(msg, &data) {
			return
		}
		s.sync.Seek(data.Time)
		s.refreshActive(ctx)

	case MsgTypeScrubStart:
		s.sync.BeginScrub()

	case MsgTypeScrub:
		var data TimeData
		if !s.decode(msg, &data) {
			return
		}
		s.sync.ScrubTo(data.Time)

	case MsgTypeScrubEnd:
		s.sync.EndScrub()
		s.refreshActive(ctx)

	case MsgTypeTogglePlay:
		s.sync.TogglePlay()

	case MsgTypeViewport:
		var data ViewportData
		if !s.decode(msg, &data) {
			return
		}
		s.viewport = data

	case MsgTypeDeviceEvent:
		var ev playback.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			s.enqueue(MsgTypeError, &ErrorData{Message: "无效的设备事件"})
			return
		}
		s.handleDeviceEvent(ctx, ev)

	default:
		logger.Warn("未知消息类型",
			logger.String("type", string(msg.Type)),
			logger.String("session", s.ID))
	}
}

// handleDeviceEvent 把浏览器转发来的设备事件交给时钟适配器
func (s *Session) handleDeviceEvent(ctx context.Context, ev playback.Event) {
	// 先刷新远端设备的时钟缓存，适配器随后可能同步读取
	if s.device != nil {
		switch ev.Type {
		case playback.EventTimeChanged, playback.EventSeeking, playback.EventSeeked, playback.EventPause:
			s.device.ReportTime(ev.Time)
		}
	}

	if ev.Type == playback.EventPlayRejected {
		s.sync.HandlePlayRejected()
		return
	}

	if a := s.binder.Adapter(); a != nil {
		a.HandleEvent(ev)
	}
}

// ========== 编辑与播放回调 ==========

// addClip 从媒体库取素材并追加到对应轨道
func (s *Session) addClip(ctx context.Context, mediaID string) {
	item, err := s.mediaRepo.GetByID(ctx, mediaID)
	if err != nil {
		logger.Error("读取素材失败", logger.ErrorField(err), logger.String("mediaId", mediaID))
		s.enqueue(MsgTypeError, &ErrorData{Message: "读取素材失败"})
		return
	}
	if item == nil {
		s.enqueue(MsgTypeError, &ErrorData{Message: "素材不存在"})
		return
	}
	if clip := timeline.AddClip(s.project, item); clip == nil {
		s.enqueue(MsgTypeError, &ErrorData{Message: "没有匹配的轨道"})
		return
	}
	s.afterEdit(ctx)
}

// afterEdit 每次结构性编辑后的固定收尾：
// 重新绑定活动片段、落盘、推送快照。
func (s *Session) afterEdit(ctx context.Context) {
	s.refreshActive(ctx)
	s.persist(ctx)
	s.pushState()
	s.hub.BroadcastState(s.project.ID, s.ID, s.project)
}

// refreshActive 按权威当前时间解析活动片段并更新设备绑定
func (s *Session) refreshActive(ctx context.Context) {
	active := timeline.ResolveActiveClip(s.project, s.sync.CurrentTime())
	prev := s.binder.Adapter()
	if err := s.binder.Update(ctx, active); err != nil {
		logger.Error("活动片段绑定失败", logger.ErrorField(err))
		s.enqueue(MsgTypePlaybackError, &ErrorData{Message: "媒体源解析失败"})
		return
	}
	if a := s.binder.Adapter(); a != nil && a != prev {
		a.OnReady(func() {
			// 新设备就绪后恢复播放意图
			if s.sync.Playing() {
				s.sync.SetPlaying(true)
			}
		})
		a.OnError(func(msg string) {
			s.enqueue(MsgTypePlaybackError, &ErrorData{Message: msg})
		})
	}
}

// handleTime 同步器的权威时间更新：推送给浏览器、
// 跟随播放头自动滚动、随时间推进切换活动片段。
func (s *Session) handleTime(t float64) {
	s.project.CurrentTime = t
	s.enqueue(MsgTypeTimeUpdate, &TimeData{Time: t})

	if s.viewport.Width > 0 {
		m := timeline.NewMapper(s.project.Zoom)
		if target, ok := s.sync.AutoScroll(m, s.viewport.Width, s.viewport.ScrollLeft); ok {
			s.viewport.ScrollLeft = target
			s.enqueue(MsgTypeScroll, &ScrollData{ScrollLeft: target})
		}
	}

	// 播放推进可能越过片段边界
	s.refreshActive(context.Background())
}

// ========== 持久化与出站 ==========

// persist 写穿：先更新缓存再落库，两者失败都只记日志不中断编辑
func (s *Session) persist(ctx context.Context) {
	s.project.CurrentTime = s.sync.CurrentTime()
	if err := s.projects.SaveProject(ctx, s.project); err != nil {
		logger.Warn("工程缓存写入失败", logger.ErrorField(err), logger.String("projectId", s.project.ID))
	}
	if err := s.projectRepo.Save(ctx, s.project); err != nil {
		logger.Error("工程落库失败", logger.ErrorField(err), logger.String("projectId", s.project.ID))
	}
}

// pushState 推送完整工程快照
func (s *Session) pushState() {
	s.enqueue(MsgTypeState, s.project)
}

// enqueue 序列化并放入发送队列，缓冲区满时丢弃
func (s *Session) enqueue(t MessageType, data interface{}) {
	msg := &WSMessage{Type: t, Timestamp: time.Now().UnixMilli()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			logger.Error("消息序列化失败", logger.ErrorField(err), logger.String("type", string(t)))
			return
		}
		msg.Data = raw
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case s.send <- payload:
	default:
		logger.Warn("发送缓冲区满，丢弃消息",
			logger.String("type", string(t)),
			logger.String("session", s.ID))
	}
}

// Push 把已序列化的消息放入发送队列（Hub 广播用）
func (s *Session) Push(payload []byte) {
	select {
	case s.send <- payload:
	default:
	}
}

// decode 解析消息数据，失败时回发错误
func (s *Session) decode(msg *WSMessage, v interface{}) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		s.enqueue(MsgTypeError, &ErrorData{Message: "无效的请求数据"})
		return false
	}
	return true
}

// ========== 读写协程 ==========

// ReadPump 从连接读取消息并送入事件循环。
// 连接断开时注销会话并关闭入站通道，进而结束 Run 循环。
func (s *Session) ReadPump(ctx context.Context) {
	defer func() {
		s.hub.Unregister(s)
		close(s.inbound)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(64 * 1024)
	s.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket 读取失败",
					logger.ErrorField(err),
					logger.String("session", s.ID))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Warn("消息格式无效", logger.ErrorField(err), logger.String("session", s.ID))
			continue
		}

		select {
		case s.inbound <- &msg:
		case <-ctx.Done():
			return
		}
	}
}

// WritePump 把发送队列写出到连接，并维持心跳
func (s *Session) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
