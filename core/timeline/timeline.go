// Package timeline 实现时间轴/片段数据模型上的编辑操作。
//
// 所有操作都是状态上的全函数：非法输入返回未修改的状态，从不向调用方
// 抛出错误。每次结构性编辑后由操作自身重新计算工程时长。
package timeline

import (
	"github.com/google/uuid"

	"Bt1Clip/model"
)

// AddClip 把一个素材追加到与其类型匹配的轨道末尾。
// 新片段的 start 等于该轨道上现有片段的最大结束时间（轨道为空时为 0），
// duration 从素材复制。副作用：选中新片段并重新计算工程时长。
// 没有匹配类型的轨道时静默不做任何事（轨道集合固定，属调用方配置错误）。
func AddClip(p *model.Project, item *model.MediaItem) *model.Clip {
	track := p.TrackByType(item.Type)
	if track == nil {
		return nil
	}

	start := 0.0
	for _, c := range track.Clips {
		if c.End() > start {
			start = c.End()
		}
	}

	clip := &model.Clip{
		ID:        uuid.NewString(),
		MediaID:   item.ID,
		Type:      item.Type,
		Name:      item.Name,
		Start:     start,
		Duration:  item.Duration,
		ObjectKey: item.ObjectKey,
		SourceURL: item.SourceURL,
	}
	track.Clips = append(track.Clips, clip)
	p.SelectedClipID = clip.ID
	RecomputeDuration(p)
	return clip
}

// MoveClip 移动片段到新的起始时间，负值钳制为 0。
// 不检查也不阻止与同轨道其他片段重叠（重叠的归属由活动片段解析
// 的先到先得规则决定）。
func MoveClip(p *model.Project, clipID string, newStart float64) {
	clip, _ := p.FindClip(clipID)
	if clip == nil {
		return
	}
	if newStart < 0 {
		newStart = 0
	}
	clip.Start = newStart
	RecomputeDuration(p)
}

// SplitClip 把一个片段一分为二。
// 仅当 start < atTime < start+duration 时生效，否则静默不做任何事。
// 前半段保留原 ID 和 start，duration = atTime-start；
// 后半段获得全新 ID，start = atTime，duration = 原结束时间-atTime。
// 两段引用同一素材和字节源，选中状态不变。
func SplitClip(p *model.Project, clipID string, atTime float64) *model.Clip {
	clip, track := p.FindClip(clipID)
	if clip == nil {
		return nil
	}
	if atTime <= clip.Start || atTime >= clip.End() {
		return nil
	}

	second := &model.Clip{
		ID:        uuid.NewString(),
		MediaID:   clip.MediaID,
		Type:      clip.Type,
		Name:      clip.Name,
		Start:     atTime,
		Duration:  clip.End() - atTime,
		ObjectKey: clip.ObjectKey,
		SourceURL: clip.SourceURL,
	}
	clip.Duration = atTime - clip.Start
	track.Clips = append(track.Clips, second)

	// 总跨度守恒，时长数值不变，但仍然重算以保持一致性
	RecomputeDuration(p)
	return second
}

// DeleteClip 从持有它的轨道上移除片段。
// 如果被删片段正处于选中状态则清除选中，之后重新计算工程时长。
func DeleteClip(p *model.Project, clipID string) {
	for _, track := range p.Tracks {
		for i, clip := range track.Clips {
			if clip.ID == clipID {
				track.Clips = append(track.Clips[:i], track.Clips[i+1:]...)
				if p.SelectedClipID == clipID {
					p.SelectedClipID = ""
				}
				RecomputeDuration(p)
				return
			}
		}
	}
}

// RecomputeDuration 从当前状态重新计算工程时长。
// 取所有轨道所有片段 start+duration 的最大值，没有片段时为 0。
// 纯函数式地整体重算而非增量修补，避免其他操作的缺陷造成漂移。
func RecomputeDuration(p *model.Project) {
	max := 0.0
	for _, track := range p.Tracks {
		for _, clip := range track.Clips {
			if clip.End() > max {
				max = clip.End()
			}
		}
	}
	p.Duration = max
}
