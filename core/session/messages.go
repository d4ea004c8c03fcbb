// Package session 实现编辑会话：每条 WebSocket 连接对应一个工程的
// 编辑事件循环。浏览器是渲染层，也托管不透明播放设备；所有权威状态
// 都在服务端，浏览器只发送编辑命令与设备事件，接收状态快照与设备指令。
package session

import "encoding/json"

// MessageType 消息类型
type MessageType string

const (
	// 编辑命令（浏览器 -> 服务端）
	MsgTypeAddClip    MessageType = "add_clip"    // 添加片段
	MsgTypeMoveClip   MessageType = "move_clip"   // 移动片段
	MsgTypeSplitClip  MessageType = "split_clip"  // 分割片段
	MsgTypeDeleteClip MessageType = "delete_clip" // 删除片段
	MsgTypeSelectClip MessageType = "select_clip" // 选中片段
	MsgTypeSetZoom    MessageType = "set_zoom"    // 调整缩放

	// 播放控制命令（浏览器 -> 服务端）
	MsgTypeSeek       MessageType = "seek"        // 跳转
	MsgTypeScrubStart MessageType = "scrub_start" // 开始拖动指针
	MsgTypeScrub      MessageType = "scrub"       // 拖动中
	MsgTypeScrubEnd   MessageType = "scrub_end"   // 结束拖动
	MsgTypeTogglePlay MessageType = "toggle_play" // 播放/暂停切换
	MsgTypeViewport   MessageType = "viewport"    // 视口几何上报

	// 设备事件（浏览器 -> 服务端，转发给时钟适配器）
	MsgTypeDeviceEvent MessageType = "device_event"

	// 服务端 -> 浏览器
	MsgTypeState         MessageType = "state"          // 工程状态快照
	MsgTypeTimeUpdate    MessageType = "time_update"    // 播放指针更新
	MsgTypePlayState     MessageType = "play_state"     // 播放/暂停状态
	MsgTypeScroll        MessageType = "scroll"         // 自动滚动指令
	MsgTypeLoadSource    MessageType = "load_source"    // 让设备绑定媒体源
	MsgTypeDevicePlay    MessageType = "device_play"    // 让设备播放
	MsgTypeDevicePause   MessageType = "device_pause"   // 让设备暂停
	MsgTypeDeviceSeek    MessageType = "device_seek"    // 让设备跳转
	MsgTypeDeviceDispose MessageType = "device_dispose" // 让设备销毁
	MsgTypePlaybackError MessageType = "playback_error" // 播放错误
	MsgTypeError         MessageType = "error"          // 命令错误
)

// WSMessage WebSocket 消息结构
type WSMessage struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// AddClipData 添加片段命令数据
type AddClipData struct {
	MediaID string `json:"mediaId"`
}

// MoveClipData 移动片段命令数据
type MoveClipData struct {
	ClipID   string  `json:"clipId"`
	NewStart float64 `json:"newStart"`
}

// SplitClipData 分割片段命令数据
type SplitClipData struct {
	ClipID string  `json:"clipId"`
	AtTime float64 `json:"atTime"`
}

// ClipRefData 只携带片段 ID 的命令数据
type ClipRefData struct {
	ClipID string `json:"clipId"`
}

// ZoomData 缩放命令数据
type ZoomData struct {
	Zoom float64 `json:"zoom"`
}

// TimeData 携带一个时间值的命令数据
type TimeData struct {
	Time float64 `json:"time"`
}

// ViewportData 浏览器上报的视口几何
type ViewportData struct {
	Width      float64 `json:"width"`      // 可视区域宽度（像素）
	ScrollLeft float64 `json:"scrollLeft"` // 当前水平滚动偏移（像素）
}

// ScrollData 服务端下发的滚动目标
type ScrollData struct {
	ScrollLeft float64 `json:"scrollLeft"`
}

// LoadSourceData 设备绑定源指令数据
type LoadSourceData struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
}

// PlayData 设备播放指令数据
type PlayData struct {
	Muted bool `json:"muted"`
}

// PlayStateData 播放状态数据
type PlayStateData struct {
	Playing bool `json:"playing"`
}

// ErrorData 错误消息数据
type ErrorData struct {
	Message string `json:"message"`
}
