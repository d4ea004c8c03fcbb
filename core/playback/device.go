// Package playback 实现播放时钟适配与时间轴同步。
//
// 播放设备是外部协作者（浏览器端的解码/渲染组件），这里只按其接口
// 边界建模：绑定源、播放、暂停、读写当前时间、销毁，以及一条离散
// 事件流。所有状态变更都发生在单一事件循环里，没有并行，正确性依赖
// 顺序与限速纪律而不是锁。
package playback

// DeviceState 设备状态机：
// Unbound → Loading → Ready → Playing ⇄ Paused → Disposed，
// Error 可从任何非 Disposed 状态到达
type DeviceState string

const (
	StateUnbound  DeviceState = "unbound"
	StateLoading  DeviceState = "loading"
	StateReady    DeviceState = "ready"
	StatePlaying  DeviceState = "playing"
	StatePaused   DeviceState = "paused"
	StateError    DeviceState = "error"
	StateDisposed DeviceState = "disposed"
)

// EventType 设备事件类型
type EventType string

const (
	EventReady        EventType = "ready"         // 设备实例就绪，可以绑定源
	EventDataLoaded   EventType = "data_loaded"   // 源数据加载完成
	EventTimeChanged  EventType = "time_changed"  // 播放中连续触发
	EventPlay         EventType = "play"          // 开始播放
	EventPause        EventType = "pause"         // 暂停
	EventSeeking      EventType = "seeking"       // 跳转中（用户在设备上拖动）
	EventSeeked       EventType = "seeked"        // 跳转完成
	EventPlayRejected EventType = "play_rejected" // 播放被拒绝（自动播放策略）
	EventError        EventType = "error"         // 解码/网络错误
)

// Event 设备事件
type Event struct {
	Type    EventType `json:"type"`
	Time    float64   `json:"time,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Device 不透明播放设备。
// 一个实例只绑定一个活动片段，片段切换时销毁重建，从不复用。
type Device interface {
	// Bind 绑定媒体源
	Bind(source, mimeType string)
	// Play 尝试开始播放，可能因自动播放策略失败
	Play(muted bool) error
	// Pause 暂停播放
	Pause()
	// CurrentTime 读取设备时钟（秒）
	CurrentTime() float64
	// SetCurrentTime 设置设备时钟（秒）
	SetCurrentTime(t float64)
	// Dispose 销毁设备实例，之后所有回调都不得再生效
	Dispose()
	// Disposed 返回设备是否已销毁
	Disposed() bool
}
