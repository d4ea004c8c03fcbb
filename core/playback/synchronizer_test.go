package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Bt1Clip/core/timeline"
)

func newAttachedSync(dev *fakeDevice, duration float64) *Synchronizer {
	s := NewSynchronizer(func() float64 { return duration })
	a, _ := newReadyAdapter(dev, 0)
	s.Attach(dev, a)
	return s
}

func TestSyncDeviceUpdatesAccepted(t *testing.T) {
	dev := &fakeDevice{}
	s := newAttachedSync(dev, 60)

	var seen []float64
	s.OnTime(func(tt float64) { seen = append(seen, tt) })

	s.onDeviceTime(1.5)
	s.onDeviceTime(2.0)

	assert.Equal(t, []float64{1.5, 2.0}, seen)
	assert.Equal(t, 2.0, s.CurrentTime())
}

func TestSyncScrubOwnsTimeDuringDrag(t *testing.T) {
	dev := &fakeDevice{}
	s := newAttachedSync(dev, 60)

	s.BeginScrub()
	s.ScrubTo(10)
	require.Equal(t, 10.0, s.CurrentTime())

	// 拖动期间设备更新被忽略，防止抖动
	s.onDeviceTime(3.3)
	assert.Equal(t, 10.0, s.CurrentTime())

	s.ScrubTo(12)
	s.EndScrub()
	assert.Equal(t, 12.0, s.CurrentTime())
	assert.False(t, s.Scrubbing())

	// 结束后设备更新重新被接受
	s.onDeviceTime(12.4)
	assert.Equal(t, 12.4, s.CurrentTime())
}

func TestSyncScrubClampedToProjectBounds(t *testing.T) {
	dev := &fakeDevice{}
	s := newAttachedSync(dev, 30)

	s.BeginScrub()
	s.ScrubTo(-4)
	assert.Equal(t, 0.0, s.CurrentTime())
	s.ScrubTo(99)
	assert.Equal(t, 30.0, s.CurrentTime())
}

func TestSyncSeekToleranceGuardsDevicePropagation(t *testing.T) {
	dev := &fakeDevice{current: 10.0}
	s := newAttachedSync(dev, 60)

	devSeeks := len(dev.seeks)

	// 偏差在容差内：不下发，避免反馈环
	s.Seek(10.3)
	assert.Equal(t, 10.3, s.CurrentTime())
	assert.Len(t, dev.seeks, devSeeks)

	// 偏差超过容差：下发
	s.Seek(20)
	assert.Equal(t, 20.0, s.CurrentTime())
	require.Len(t, dev.seeks, devSeeks+1)
	assert.Equal(t, 20.0, dev.seeks[len(dev.seeks)-1])
}

func TestSyncSeekWithoutDevice(t *testing.T) {
	s := NewSynchronizer(func() float64 { return 60 })

	s.Seek(5)
	assert.Equal(t, 5.0, s.CurrentTime())
}

func TestSyncPlayMutedRetryOnFailure(t *testing.T) {
	dev := &fakeDevice{playErrs: []error{errRejected}}
	s := newAttachedSync(dev, 60)

	var errMsg string
	s.OnError(func(msg string) { errMsg = msg })

	s.TogglePlay()

	// 第一次带声播放失败，自动静音重试成功，不暴露错误
	require.Equal(t, []bool{false, true}, dev.playMuted)
	assert.True(t, s.Playing())
	assert.Empty(t, errMsg)
}

func TestSyncPlayErrorWhenMutedRetryFails(t *testing.T) {
	dev := &fakeDevice{playErrs: []error{errRejected, errRejected}}
	s := newAttachedSync(dev, 60)

	var errMsg string
	s.OnError(func(msg string) { errMsg = msg })

	s.TogglePlay()

	assert.Equal(t, []bool{false, true}, dev.playMuted)
	assert.False(t, s.Playing())
	assert.NotEmpty(t, errMsg)
}

func TestSyncAsyncPlayRejectedRetriesMutedOnce(t *testing.T) {
	dev := &fakeDevice{}
	s := newAttachedSync(dev, 60)

	var errMsg string
	s.OnError(func(msg string) { errMsg = msg })

	s.TogglePlay()
	require.True(t, s.Playing())
	require.Equal(t, []bool{false}, dev.playMuted)

	// 异步到达的拒绝：首次自动静音重试，不暴露错误
	s.HandlePlayRejected()
	assert.Equal(t, []bool{false, true}, dev.playMuted)
	assert.True(t, s.Playing())
	assert.Empty(t, errMsg)

	// 重试后再次被拒才升级为播放错误
	s.HandlePlayRejected()
	assert.False(t, s.Playing())
	assert.NotEmpty(t, errMsg)
}

func TestSyncPauseStopsDevice(t *testing.T) {
	dev := &fakeDevice{}
	s := newAttachedSync(dev, 60)

	s.TogglePlay()
	require.True(t, s.Playing())

	s.TogglePlay()
	assert.False(t, s.Playing())
	assert.True(t, dev.paused)
}

func TestSyncAutoScrollHysteresis(t *testing.T) {
	dev := &fakeDevice{}
	s := newAttachedSync(dev, 600)
	m := timeline.NewMapper(1) // 50 px/s

	// 视口 1000px，滚动偏移 0，内侧带 [300, 700]
	s.Seek(10) // 播放头 500px，带内：不滚动
	_, ok := s.AutoScroll(m, 1000, 0)
	assert.False(t, ok)

	// 播放头 800px，越过右侧带：重新居中到 800-500=300
	s.Seek(16)
	target, ok := s.AutoScroll(m, 1000, 0)
	require.True(t, ok)
	assert.Equal(t, 300.0, target)

	// 滚动到 280px 后播放头回到带内：不再滚动
	_, ok = s.AutoScroll(m, 1000, 280)
	assert.False(t, ok)

	// 越带但目标与当前偏移相差不足 50px：不下发
	s.Seek(2) // 100px，scrollLeft 30 → rel 70 越过左侧带，目标钳制到 0
	_, ok = s.AutoScroll(m, 1000, 30)
	assert.False(t, ok)

	// 播放头回到视口左缘之前：向左重新居中，目标钳制到 0
	s.Seek(1) // 50px，scrollLeft 280 → rel = -230
	target, ok = s.AutoScroll(m, 1000, 280)
	require.True(t, ok)
	assert.Equal(t, 0.0, target)
}

func TestSyncDetachClearsPlaybackIntent(t *testing.T) {
	dev := &fakeDevice{}
	s := newAttachedSync(dev, 60)

	s.TogglePlay()
	require.True(t, s.Playing())

	s.Detach()
	assert.False(t, s.Playing())

	// 无设备时这些操作都是安全的空操作
	s.TogglePlay()
	s.Seek(3)
	assert.Equal(t, 3.0, s.CurrentTime())
}
