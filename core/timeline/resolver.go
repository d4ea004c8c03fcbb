package timeline

import "Bt1Clip/model"

// ResolveActiveClip 根据当前时间在视频轨道上解析活动片段。
// 过滤 start <= t < start+duration 的片段；多个命中（重叠）时按轨道
// 内片段顺序取第一个（先到先得）；没有命中时返回 nil。
func ResolveActiveClip(p *model.Project, t float64) *model.Clip {
	track := p.VideoTrack()
	if track == nil {
		return nil
	}
	for _, clip := range track.Clips {
		if clip.ActiveAt(t) {
			return clip
		}
	}
	return nil
}
