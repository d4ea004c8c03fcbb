package playback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Bt1Clip/model"
)

// fakeHandle 测试用字节源句柄，记录释放次数
type fakeHandle struct {
	url      string
	released int
}

func (h *fakeHandle) URL() string      { return h.url }
func (h *fakeHandle) MimeType() string { return "video/mp4" }
func (h *fakeHandle) Release()         { h.released++ }

// fakeResolver 测试用字节源解析器
type fakeResolver struct {
	handles []*fakeHandle
	err     error
}

func (r *fakeResolver) Resolve(_ context.Context, clip *model.Clip) (SourceHandle, error) {
	if r.err != nil {
		return nil, r.err
	}
	h := &fakeHandle{url: "http://src/" + clip.ID}
	r.handles = append(r.handles, h)
	return h, nil
}

func newTestBinder() (*Binder, *fakeResolver, *[]*fakeDevice, *Synchronizer) {
	resolver := &fakeResolver{}
	devices := &[]*fakeDevice{}
	sync := NewSynchronizer(func() float64 { return 100 })
	factory := func(clip *model.Clip) Device {
		d := &fakeDevice{}
		*devices = append(*devices, d)
		return d
	}
	return NewBinder(resolver, factory, sync), resolver, devices, sync
}

func videoClip(id string) *model.Clip {
	return &model.Clip{ID: id, Type: model.TrackTypeVideo, Start: 0, Duration: 10}
}

func TestBinderCreatesDeviceForActiveClip(t *testing.T) {
	b, resolver, devices, _ := newTestBinder()

	require.NoError(t, b.Update(context.Background(), videoClip("c1")))

	assert.Equal(t, "c1", b.ActiveClipID())
	require.Len(t, *devices, 1)
	require.Len(t, resolver.handles, 1)
	require.NotNil(t, b.Adapter())
}

func TestBinderSameClipIsNoop(t *testing.T) {
	b, resolver, devices, _ := newTestBinder()
	clip := videoClip("c1")

	require.NoError(t, b.Update(context.Background(), clip))
	require.NoError(t, b.Update(context.Background(), clip))

	assert.Len(t, *devices, 1)
	assert.Len(t, resolver.handles, 1)
	assert.Equal(t, 0, resolver.handles[0].released)
}

func TestBinderDisposeAndRecreateOnClipChange(t *testing.T) {
	b, resolver, devices, _ := newTestBinder()

	require.NoError(t, b.Update(context.Background(), videoClip("c1")))
	require.NoError(t, b.Update(context.Background(), videoClip("c2")))

	require.Len(t, *devices, 2)
	// 旧设备销毁，旧句柄恰好释放一次
	assert.True(t, (*devices)[0].disposed)
	assert.False(t, (*devices)[1].disposed)
	assert.Equal(t, 1, resolver.handles[0].released)
	assert.Equal(t, 0, resolver.handles[1].released)
	assert.Equal(t, "c2", b.ActiveClipID())
}

func TestBinderTransitionToNoneReleasesEverything(t *testing.T) {
	b, resolver, devices, sync := newTestBinder()

	require.NoError(t, b.Update(context.Background(), videoClip("c1")))
	require.NoError(t, b.Update(context.Background(), nil))

	assert.Empty(t, b.ActiveClipID())
	assert.True(t, (*devices)[0].disposed)
	assert.Equal(t, 1, resolver.handles[0].released)
	assert.False(t, sync.Playing())
	assert.Nil(t, b.Adapter())
}

func TestBinderResolveErrorLeavesNoActiveClip(t *testing.T) {
	b, resolver, devices, _ := newTestBinder()
	resolver.err = errors.New("object missing")

	err := b.Update(context.Background(), videoClip("c1"))

	assert.Error(t, err)
	assert.Empty(t, b.ActiveClipID())
	assert.Empty(t, *devices)
}

func TestBinderCloseReleasesExactlyOnce(t *testing.T) {
	b, resolver, devices, _ := newTestBinder()

	require.NoError(t, b.Update(context.Background(), videoClip("c1")))
	b.Close()
	b.Close() // 重复拆除是空操作

	assert.True(t, (*devices)[0].disposed)
	assert.Equal(t, 1, resolver.handles[0].released)
}

func TestBinderResumeAtCarriesAuthoritativeTime(t *testing.T) {
	b, _, devices, sync := newTestBinder()

	sync.Seek(42)
	require.NoError(t, b.Update(context.Background(), videoClip("c1")))

	// 适配器在数据加载后把设备恢复到权威时间
	b.Adapter().HandleEvent(Event{Type: EventReady})
	b.Adapter().HandleEvent(Event{Type: EventDataLoaded})
	assert.Equal(t, []float64{42}, (*devices)[0].seeks)
}
