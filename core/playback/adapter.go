package playback

import (
	"time"

	"Bt1Clip/logger"
)

const (
	// timeChangedMinInterval time_changed 事件的最小转发间隔，
	// 约每秒 30 次，在保持感知流畅的同时限制更新量
	timeChangedMinInterval = 33 * time.Millisecond

	// seekingMinInterval seeking 事件的最小转发间隔
	seekingMinInterval = 16 * time.Millisecond

	// pollEpsilon 轮询读数与上次已知值的最小差值（秒），
	// 小于该值的漂移不转发
	pollEpsilon = 0.01
)

// ClockAdapter 包装一个绑定到单个活动片段的播放设备，把它的事件流
// 归一化为去重、限速的"当前时间变化"信号。
//
// 限速规则作为状态机的转移守卫存在：
//   - time_changed：最小间隔 33ms
//   - seeking：最小间隔 16ms
//   - seeked / pause：立即转发，不限速
//   - error 之后：不再转发时间更新，直到恢复
type ClockAdapter struct {
	dev      Device
	source   string
	mimeType string
	state    DeviceState

	// resumeAt 读取权威当前时间，data_loaded 时取值并把设备
	// 跳转到这里再渲染第一帧。加载期间权威时间可能被拖动改变，
	// 所以不能在绑定时刻冻结
	resumeAt func() float64

	lastTime     float64
	lastEmit     time.Time
	lastSeekEmit time.Time

	onTime  func(t float64)
	onReady func()
	onError func(msg string)

	// now 可注入的时钟，便于测试限速边界
	now func() time.Time
}

// NewClockAdapter 创建时钟适配器。
// resumeAt 返回权威当前时间，数据加载完成后读取一次，
// 非零时先把设备跳转到该位置。
func NewClockAdapter(dev Device, source, mimeType string, resumeAt func() float64) *ClockAdapter {
	if resumeAt == nil {
		resumeAt = func() float64 { return 0 }
	}
	return &ClockAdapter{
		dev:      dev,
		source:   source,
		mimeType: mimeType,
		state:    StateUnbound,
		resumeAt: resumeAt,
		now:      time.Now,
	}
}

// OnTime 注册时间更新回调
func (a *ClockAdapter) OnTime(fn func(t float64)) { a.onTime = fn }

// OnReady 注册就绪回调
func (a *ClockAdapter) OnReady(fn func()) { a.onReady = fn }

// OnError 注册错误回调
func (a *ClockAdapter) OnError(fn func(msg string)) { a.onError = fn }

// State 返回适配器观察到的设备状态
func (a *ClockAdapter) State() DeviceState { return a.state }

// Ready 设备是否已就绪（数据已加载且未出错未销毁）
func (a *ClockAdapter) Ready() bool {
	return a.state == StateReady || a.state == StatePlaying || a.state == StatePaused
}

// HandleEvent 处理一条设备事件。必须在拥有适配器的事件循环上调用。
func (a *ClockAdapter) HandleEvent(ev Event) {
	if a.state == StateDisposed {
		// 销毁后到达的滞留事件一律丢弃
		return
	}

	switch ev.Type {
	case EventReady:
		// 设备就绪后绑定源，就绪状态要等数据加载完成才上报
		a.dev.Bind(a.source, a.mimeType)
		a.state = StateLoading

	case EventDataLoaded:
		a.state = StateReady
		resume := a.resumeAt()
		a.lastTime = resume
		if resume > 0 {
			// 首帧渲染前恢复到权威时间
			a.dev.SetCurrentTime(resume)
		}
		if a.onReady != nil {
			a.onReady()
		}

	case EventTimeChanged:
		if !a.Ready() {
			return
		}
		if a.now().Sub(a.lastEmit) < timeChangedMinInterval {
			return
		}
		a.emit(ev.Time)

	case EventPlay:
		if a.Ready() {
			a.state = StatePlaying
		}

	case EventPause:
		if !a.Ready() {
			return
		}
		a.state = StatePaused
		// 离散低频事件，精度优先于量控，立即转发
		a.emit(ev.Time)

	case EventSeeking:
		if !a.Ready() {
			return
		}
		if a.now().Sub(a.lastSeekEmit) < seekingMinInterval {
			return
		}
		a.lastSeekEmit = a.now()
		a.emit(ev.Time)

	case EventSeeked:
		if !a.Ready() {
			return
		}
		a.emit(ev.Time)

	case EventError:
		a.state = StateError
		logger.Warn("播放设备报告错误", logger.String("message", ev.Message))
		if a.onError != nil {
			a.onError(ev.Message)
		}
	}
}

// ShouldPoll 高频轮询循环的存活条件：设备在播放且未销毁。
// 条件不满足时轮询必须立即自行终止，不允许泄漏到片段切换之后。
func (a *ClockAdapter) ShouldPoll() bool {
	return a.state == StatePlaying && !a.dev.Disposed()
}

// Poll 每个渲染帧重读一次设备时钟，与上次已知值相差超过 pollEpsilon
// 时补发一次更新。弥补 time_changed 原生事件在播放期间触发不足的设备。
func (a *ClockAdapter) Poll() {
	if !a.ShouldPoll() {
		return
	}
	t := a.dev.CurrentTime()
	diff := t - a.lastTime
	if diff < 0 {
		diff = -diff
	}
	if diff > pollEpsilon {
		a.emit(t)
	}
}

// Dispose 销毁适配器及其设备实例
func (a *ClockAdapter) Dispose() {
	if a.state == StateDisposed {
		return
	}
	a.state = StateDisposed
	a.dev.Dispose()
}

func (a *ClockAdapter) emit(t float64) {
	a.lastTime = t
	a.lastEmit = a.now()
	if a.onTime != nil {
		a.onTime(t)
	}
}
