package playback

import (
	"Bt1Clip/core/timeline"
	"Bt1Clip/logger"
)

const (
	// SeekTolerance 程序化跳转只有在设备时钟与权威时间的偏差超过
	// 该容差（秒）时才下发给设备，避免微小漂移触发重复跳转的反馈环
	SeekTolerance = 0.5

	// scrollEdgeRatio 播放头距视口任一边缘超出该比例的内侧带时
	// 才触发自动滚动
	scrollEdgeRatio = 0.30

	// scrollMinDelta 小于该像素差的滚动目标不下发，避免亚像素漂移
	// 反复触发平滑滚动动画
	scrollMinDelta = 50.0
)

// Synchronizer 持有唯一权威的当前时间，在三个写入源之间仲裁：
//  1. 设备驱动的更新（经 ClockAdapter）：设备就绪且不处于拖动时接受
//  2. 指针拖动输入：拖动手势进行期间是唯一事实来源，期间设备更新
//     一律忽略以防抖动
//  3. 程序化跳转：立即生效一次，偏差超过容差时才传播给设备
//
// 播放/暂停是独立于当前时间的二元意图标志。
type Synchronizer struct {
	current   float64
	playing   bool // 播放意图
	scrubbing bool

	// mutedRetried 自动播放被拒后是否已做过一次静音重试
	mutedRetried bool

	dev     Device
	adapter *ClockAdapter

	// durationFn 返回工程时长，用于钳制跳转与拖动
	durationFn func() float64

	onTime  func(t float64)
	onPlay  func(playing bool)
	onError func(msg string)
}

// NewSynchronizer 创建同步器
func NewSynchronizer(durationFn func() float64) *Synchronizer {
	return &Synchronizer{durationFn: durationFn}
}

// OnTime 注册权威时间变化回调
func (s *Synchronizer) OnTime(fn func(t float64)) { s.onTime = fn }

// OnPlay 注册播放意图变化回调
func (s *Synchronizer) OnPlay(fn func(playing bool)) { s.onPlay = fn }

// OnError 注册播放错误回调
func (s *Synchronizer) OnError(fn func(msg string)) { s.onError = fn }

// CurrentTime 返回权威当前时间
func (s *Synchronizer) CurrentTime() float64 { return s.current }

// Playing 返回播放意图
func (s *Synchronizer) Playing() bool { return s.playing }

// Scrubbing 返回是否正处于拖动手势中
func (s *Synchronizer) Scrubbing() bool { return s.scrubbing }

// Attach 把同步器指向新的设备与适配器（活动片段切换后调用）。
// 旧适配器由绑定方负责销毁，这里只接管新实例。
func (s *Synchronizer) Attach(dev Device, adapter *ClockAdapter) {
	s.dev = dev
	s.adapter = adapter
	s.mutedRetried = false
	if adapter != nil {
		adapter.OnTime(s.onDeviceTime)
	}
}

// Detach 解除设备引用（活动片段变为空时调用）
func (s *Synchronizer) Detach() {
	s.dev = nil
	s.adapter = nil
	s.playing = false
}

// onDeviceTime 设备驱动的时间更新。拖动期间忽略。
func (s *Synchronizer) onDeviceTime(t float64) {
	if s.scrubbing {
		return
	}
	s.setCurrent(t)
}

// BeginScrub 开始拖动手势，此后指针位置是唯一事实来源
func (s *Synchronizer) BeginScrub() {
	s.scrubbing = true
}

// ScrubTo 拖动中更新权威时间
func (s *Synchronizer) ScrubTo(t float64) {
	if !s.scrubbing {
		s.scrubbing = true
	}
	s.setCurrent(s.clamp(t))
}

// EndScrub 结束拖动手势，把最终位置作为一次程序化跳转下发
func (s *Synchronizer) EndScrub() {
	if !s.scrubbing {
		return
	}
	s.scrubbing = false
	s.Seek(s.current)
}

// Seek 程序化跳转：立即更新权威时间；只有当设备时钟与权威时间的
// 偏差超过 SeekTolerance 时才向设备下发，避免反馈环。
func (s *Synchronizer) Seek(t float64) {
	t = s.clamp(t)
	s.setCurrent(t)

	if s.dev == nil || s.dev.Disposed() {
		return
	}
	diff := s.dev.CurrentTime() - t
	if diff < 0 {
		diff = -diff
	}
	if diff > SeekTolerance {
		s.dev.SetCurrentTime(t)
	}
}

// TogglePlay 切换播放意图并尝试启动/停止设备
func (s *Synchronizer) TogglePlay() {
	s.SetPlaying(!s.playing)
}

// SetPlaying 设置播放意图。启动失败时先做一次静音重试，
// 重试仍失败才上报播放错误。
func (s *Synchronizer) SetPlaying(playing bool) {
	s.playing = playing
	if s.onPlay != nil {
		s.onPlay(playing)
	}
	if s.dev == nil || s.dev.Disposed() {
		return
	}
	if !playing {
		s.dev.Pause()
		return
	}

	if err := s.dev.Play(false); err != nil {
		logger.Info("播放启动被拒，静音重试", logger.ErrorField(err))
		s.mutedRetried = true
		if err := s.dev.Play(true); err != nil {
			s.playing = false
			s.reportError("播放启动失败: " + err.Error())
		}
	}
}

// HandlePlayRejected 处理异步到达的自动播放拒绝事件。
// 首次出现不向用户暴露，自动静音重试；重试后再次被拒才升级为播放错误。
func (s *Synchronizer) HandlePlayRejected() {
	if s.dev == nil || s.dev.Disposed() || !s.playing {
		return
	}
	if !s.mutedRetried {
		s.mutedRetried = true
		logger.Info("自动播放被拒，静音重试")
		if err := s.dev.Play(true); err != nil {
			s.playing = false
			s.reportError("播放启动失败: " + err.Error())
		}
		return
	}
	s.playing = false
	s.reportError("播放被设备拒绝")
}

// AutoScroll 计算让播放头保持可见的自动滚动目标。
// 播放头像素位置停留在视口两侧各 30% 的内侧带之内时不滚动；
// 越过后重新居中，且只有与当前滚动偏移相差超过 50px 才下发。
func (s *Synchronizer) AutoScroll(m timeline.Mapper, viewportWidth, scrollLeft float64) (float64, bool) {
	if viewportWidth <= 0 {
		return 0, false
	}
	px := m.TimeToPixel(s.current)
	rel := px - scrollLeft
	band := viewportWidth * scrollEdgeRatio
	if rel >= band && rel <= viewportWidth-band {
		return 0, false
	}

	target := px - viewportWidth/2
	if target < 0 {
		target = 0
	}
	delta := target - scrollLeft
	if delta < 0 {
		delta = -delta
	}
	if delta < scrollMinDelta {
		return 0, false
	}
	return target, true
}

func (s *Synchronizer) setCurrent(t float64) {
	if t == s.current {
		return
	}
	s.current = t
	if s.onTime != nil {
		s.onTime(t)
	}
}

func (s *Synchronizer) clamp(t float64) float64 {
	if t < 0 {
		return 0
	}
	if s.durationFn != nil {
		if d := s.durationFn(); t > d {
			return d
		}
	}
	return t
}

func (s *Synchronizer) reportError(msg string) {
	logger.Warn("播放错误", logger.String("message", msg))
	if s.onError != nil {
		s.onError(msg)
	}
}
