package playback

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice 测试用播放设备
type fakeDevice struct {
	bound     string
	mimeType  string
	playMuted []bool
	playErrs  []error
	paused    bool
	current   float64
	seeks     []float64
	disposed  bool
}

func (d *fakeDevice) Bind(source, mimeType string) {
	d.bound = source
	d.mimeType = mimeType
}

func (d *fakeDevice) Play(muted bool) error {
	d.playMuted = append(d.playMuted, muted)
	if len(d.playErrs) > 0 {
		err := d.playErrs[0]
		d.playErrs = d.playErrs[1:]
		return err
	}
	return nil
}

func (d *fakeDevice) Pause()                  { d.paused = true }
func (d *fakeDevice) CurrentTime() float64    { return d.current }
func (d *fakeDevice) SetCurrentTime(t float64) {
	d.current = t
	d.seeks = append(d.seeks, t)
}
func (d *fakeDevice) Dispose()       { d.disposed = true }
func (d *fakeDevice) Disposed() bool { return d.disposed }

// fakeClock 可推进的测试时钟
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time            { return c.t }
func (c *fakeClock) advance(d time.Duration)   { c.t = c.t.Add(d) }

func newReadyAdapter(dev *fakeDevice, resumeAt float64) (*ClockAdapter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	a := NewClockAdapter(dev, "http://src/a.mp4", "video/mp4", func() float64 { return resumeAt })
	a.now = clock.now
	a.HandleEvent(Event{Type: EventReady})
	a.HandleEvent(Event{Type: EventDataLoaded})
	return a, clock
}

func TestAdapterBindsOnReadyAndResumesOnLoad(t *testing.T) {
	dev := &fakeDevice{}
	var ready bool
	clock := &fakeClock{t: time.Unix(1700000000, 0)}

	a := NewClockAdapter(dev, "http://src/a.mp4", "video/mp4", func() float64 { return 7.5 })
	a.now = clock.now
	a.OnReady(func() { ready = true })

	a.HandleEvent(Event{Type: EventReady})
	assert.Equal(t, "http://src/a.mp4", dev.bound)
	assert.Equal(t, StateLoading, a.State())
	assert.False(t, ready) // 就绪只在数据加载完成后上报

	a.HandleEvent(Event{Type: EventDataLoaded})
	assert.True(t, ready)
	assert.Equal(t, StateReady, a.State())
	// 权威时间非零，首帧渲染前先恢复
	assert.Equal(t, []float64{7.5}, dev.seeks)
}

func TestAdapterZeroResumeSkipsSeek(t *testing.T) {
	dev := &fakeDevice{}
	a, _ := newReadyAdapter(dev, 0)

	assert.True(t, a.Ready())
	assert.Empty(t, dev.seeks)
}

func TestAdapterResumeReadsTimeAtLoad(t *testing.T) {
	dev := &fakeDevice{}
	clock := &fakeClock{t: time.Unix(1700000000, 0)}

	// 权威时间在源加载期间被拖动改变
	authoritative := 7.5
	a := NewClockAdapter(dev, "http://src/a.mp4", "video/mp4", func() float64 { return authoritative })
	a.now = clock.now

	a.HandleEvent(Event{Type: EventReady})
	authoritative = 12.25
	a.HandleEvent(Event{Type: EventDataLoaded})

	// 恢复位置取加载完成时刻的值，而非绑定时刻的旧值
	assert.Equal(t, []float64{12.25}, dev.seeks)
}

func TestAdapterTimeChangedRateLimit(t *testing.T) {
	dev := &fakeDevice{}
	a, clock := newReadyAdapter(dev, 0)

	var emitted []float64
	a.OnTime(func(tt float64) { emitted = append(emitted, tt) })

	// 设备每 5ms 上报一次，持续 1 秒
	for i := 0; i < 200; i++ {
		a.HandleEvent(Event{Type: EventTimeChanged, Time: float64(i) * 0.005})
		clock.advance(5 * time.Millisecond)
	}

	// 33ms 地板下 1 秒最多转发 ~31 次
	require.NotEmpty(t, emitted)
	assert.LessOrEqual(t, len(emitted), 31)
	assert.GreaterOrEqual(t, len(emitted), 25)
}

func TestAdapterSeekingRateLimit(t *testing.T) {
	dev := &fakeDevice{}
	a, clock := newReadyAdapter(dev, 0)

	var emitted []float64
	a.OnTime(func(tt float64) { emitted = append(emitted, tt) })

	// 每 4ms 一个 seeking 事件，100 个
	for i := 0; i < 100; i++ {
		a.HandleEvent(Event{Type: EventSeeking, Time: float64(i) * 0.1})
		clock.advance(4 * time.Millisecond)
	}

	// 16ms 地板：400ms 内最多 ~26 次
	assert.LessOrEqual(t, len(emitted), 26)
	assert.GreaterOrEqual(t, len(emitted), 20)
}

func TestAdapterSeekedAndPauseEmitImmediately(t *testing.T) {
	dev := &fakeDevice{}
	a, _ := newReadyAdapter(dev, 0)

	var emitted []float64
	a.OnTime(func(tt float64) { emitted = append(emitted, tt) })

	// 不推进时钟：离散低频事件不受限速约束
	a.HandleEvent(Event{Type: EventSeeked, Time: 3})
	a.HandleEvent(Event{Type: EventPause, Time: 3.2})
	a.HandleEvent(Event{Type: EventSeeked, Time: 4})

	assert.Equal(t, []float64{3, 3.2, 4}, emitted)
}

func TestAdapterIgnoresTimeBeforeLoaded(t *testing.T) {
	dev := &fakeDevice{}
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	a := NewClockAdapter(dev, "http://src/a.mp4", "video/mp4", nil)
	a.now = clock.now

	var emitted []float64
	a.OnTime(func(tt float64) { emitted = append(emitted, tt) })

	a.HandleEvent(Event{Type: EventTimeChanged, Time: 1})
	a.HandleEvent(Event{Type: EventReady})
	a.HandleEvent(Event{Type: EventTimeChanged, Time: 2})

	assert.Empty(t, emitted)
}

func TestAdapterErrorStopsEmissions(t *testing.T) {
	dev := &fakeDevice{}
	a, clock := newReadyAdapter(dev, 0)

	var emitted []float64
	var errMsg string
	a.OnTime(func(tt float64) { emitted = append(emitted, tt) })
	a.OnError(func(msg string) { errMsg = msg })

	a.HandleEvent(Event{Type: EventError, Message: "decode failed"})
	assert.Equal(t, "decode failed", errMsg)

	clock.advance(time.Second)
	a.HandleEvent(Event{Type: EventTimeChanged, Time: 5})
	assert.Empty(t, emitted)

	// 错误之后的 pause / seeked 同样不得转发时间更新
	a.HandleEvent(Event{Type: EventPause, Time: 7.7})
	a.HandleEvent(Event{Type: EventSeeked, Time: 8})
	assert.Empty(t, emitted)
	assert.Equal(t, StateError, a.State())
}

func TestAdapterIgnoresPauseBeforeLoaded(t *testing.T) {
	dev := &fakeDevice{}
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	a := NewClockAdapter(dev, "http://src/a.mp4", "video/mp4", nil)
	a.now = clock.now

	var emitted []float64
	a.OnTime(func(tt float64) { emitted = append(emitted, tt) })

	a.HandleEvent(Event{Type: EventPause, Time: 1})
	a.HandleEvent(Event{Type: EventReady})
	a.HandleEvent(Event{Type: EventPause, Time: 2})

	assert.Empty(t, emitted)
	assert.Equal(t, StateLoading, a.State())
}

func TestAdapterPollEmitsBeyondEpsilon(t *testing.T) {
	dev := &fakeDevice{}
	a, _ := newReadyAdapter(dev, 0)
	a.HandleEvent(Event{Type: EventPlay})
	require.True(t, a.ShouldPoll())

	var emitted []float64
	a.OnTime(func(tt float64) { emitted = append(emitted, tt) })

	// 与上次已知值的差在 epsilon 之内：不转发
	dev.current = 0.005
	a.Poll()
	assert.Empty(t, emitted)

	// 超过 epsilon：补发
	dev.current = 0.05
	a.Poll()
	assert.Equal(t, []float64{0.05}, emitted)

	// 再次轮询同一读数：去重
	a.Poll()
	assert.Len(t, emitted, 1)
}

func TestAdapterPollLivenessStopsOnPauseAndDispose(t *testing.T) {
	dev := &fakeDevice{}
	a, _ := newReadyAdapter(dev, 0)

	a.HandleEvent(Event{Type: EventPlay})
	assert.True(t, a.ShouldPoll())

	a.HandleEvent(Event{Type: EventPause, Time: 1})
	assert.False(t, a.ShouldPoll())

	a.HandleEvent(Event{Type: EventPlay})
	assert.True(t, a.ShouldPoll())

	a.Dispose()
	assert.False(t, a.ShouldPoll())
	assert.True(t, dev.disposed)
}

func TestAdapterDropsStaleEventsAfterDispose(t *testing.T) {
	dev := &fakeDevice{}
	a, clock := newReadyAdapter(dev, 0)

	var emitted []float64
	a.OnTime(func(tt float64) { emitted = append(emitted, tt) })

	a.Dispose()
	clock.advance(time.Second)

	// 销毁后滞留的回调不得再生效
	a.HandleEvent(Event{Type: EventTimeChanged, Time: 9})
	a.HandleEvent(Event{Type: EventSeeked, Time: 9})
	a.Poll()

	assert.Empty(t, emitted)
	assert.Equal(t, StateDisposed, a.State())
}

var errRejected = errors.New("autoplay rejected")
