package playback

import (
	"context"

	"Bt1Clip/logger"
	"Bt1Clip/model"
)

// SourceHandle 一次性的字节源句柄。
// 本地持有的媒体对应一个临时的预签名地址，必须且只能释放一次：
// 被新句柄替换时一次，最终拆除时一次。重复释放定义为空操作，
// 但通过"同一时刻至多持有一个句柄"来避免。
type SourceHandle interface {
	URL() string
	MimeType() string
	Release()
}

// SourceResolver 把片段解析为可播放的字节源
type SourceResolver interface {
	Resolve(ctx context.Context, clip *model.Clip) (SourceHandle, error)
}

// DeviceFactory 为一个片段构造新的播放设备实例
type DeviceFactory func(clip *model.Clip) Device

// Binder 管理活动片段与设备实例的生命周期绑定。
// 设备实例的创建/销毁以活动片段的存续为界：片段成为活动时构造，
// 构造下一个之前销毁，最终拆除时无条件销毁。
type Binder struct {
	resolver SourceResolver
	factory  DeviceFactory
	sync     *Synchronizer

	activeID string
	handle   SourceHandle
	adapter  *ClockAdapter
}

// NewBinder 创建绑定器
func NewBinder(resolver SourceResolver, factory DeviceFactory, sync *Synchronizer) *Binder {
	return &Binder{resolver: resolver, factory: factory, sync: sync}
}

// ActiveClipID 返回当前绑定的活动片段 ID，空串表示无
func (b *Binder) ActiveClipID() string { return b.activeID }

// Adapter 返回当前适配器，无活动片段时为 nil
func (b *Binder) Adapter() *ClockAdapter { return b.adapter }

// Update 根据解析出的活动片段更新绑定。
// 片段未变化时不做任何事；变化时销毁旧设备、释放旧句柄、
// 解析新字节源并重建设备与适配器。clip 为 nil 表示活动片段为空，
// 完全释放既有资源以避免泄漏。
func (b *Binder) Update(ctx context.Context, clip *model.Clip) error {
	newID := ""
	if clip != nil {
		newID = clip.ID
	}
	if newID == b.activeID {
		return nil
	}

	b.teardown()

	if clip == nil {
		b.activeID = ""
		b.sync.Detach()
		return nil
	}

	handle, err := b.resolver.Resolve(ctx, clip)
	if err != nil {
		b.activeID = ""
		b.sync.Detach()
		return err
	}

	dev := b.factory(clip)
	adapter := NewClockAdapter(dev, handle.URL(), handle.MimeType(), b.sync.CurrentTime)

	b.activeID = newID
	b.handle = handle
	b.adapter = adapter
	b.sync.Attach(dev, adapter)

	logger.Debug("活动片段切换",
		logger.String("clipId", newID),
		logger.Float64("resumeAt", b.sync.CurrentTime()))
	return nil
}

// Close 最终拆除：无条件销毁设备并释放句柄
func (b *Binder) Close() {
	b.teardown()
	b.activeID = ""
	b.sync.Detach()
}

// teardown 销毁当前设备实例并释放字节源句柄（各至多一次）
func (b *Binder) teardown() {
	if b.adapter != nil {
		b.adapter.Dispose()
		b.adapter = nil
	}
	if b.handle != nil {
		b.handle.Release()
		b.handle = nil
	}
}
