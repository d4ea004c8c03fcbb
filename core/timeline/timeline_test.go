package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Bt1Clip/model"
)

func newVideoItem(name string, duration float64) *model.MediaItem {
	return &model.MediaItem{
		ID:       "media-" + name,
		Type:     model.TrackTypeVideo,
		Name:     name,
		Duration: duration,
	}
}

// maxEnd 按定义重新计算时长，用于对照工程字段
func maxEnd(p *model.Project) float64 {
	max := 0.0
	for _, track := range p.Tracks {
		for _, c := range track.Clips {
			if c.End() > max {
				max = c.End()
			}
		}
	}
	return max
}

func TestAddClipToEmptyProject(t *testing.T) {
	p := model.NewProject(1, "test")

	clip := AddClip(p, newVideoItem("a", 15))
	require.NotNil(t, clip)

	assert.Equal(t, 0.0, clip.Start)
	assert.Equal(t, 15.0, clip.Duration)
	assert.Equal(t, 15.0, p.Duration)
	assert.Equal(t, clip.ID, p.SelectedClipID)
	assert.Len(t, p.VideoTrack().Clips, 1)
}

func TestAddClipAppendsAfterLastClip(t *testing.T) {
	p := model.NewProject(1, "test")

	first := AddClip(p, newVideoItem("a", 15))
	second := AddClip(p, newVideoItem("b", 12))
	require.NotNil(t, second)

	assert.Equal(t, 0.0, first.Start)
	assert.Equal(t, 15.0, second.Start)
	assert.Equal(t, 27.0, p.Duration)
	assert.Equal(t, second.ID, p.SelectedClipID)
}

func TestAddClipMissingTrackIsNoop(t *testing.T) {
	p := model.NewProject(1, "test")
	p.Tracks = model.TrackList{p.VideoTrack()} // 只保留视频轨道

	clip := AddClip(p, &model.MediaItem{ID: "m", Type: model.TrackTypeAudio, Duration: 10})

	assert.Nil(t, clip)
	assert.Equal(t, 0.0, p.Duration)
	assert.Empty(t, p.SelectedClipID)
}

func TestMoveClipClampsNegativeStart(t *testing.T) {
	p := model.NewProject(1, "test")
	clip := AddClip(p, newVideoItem("a", 15))

	MoveClip(p, clip.ID, -5)

	assert.Equal(t, 0.0, clip.Start)
	assert.Equal(t, 15.0, p.Duration)
}

func TestMoveClipAllowsOverlapAndRecomputesDuration(t *testing.T) {
	p := model.NewProject(1, "test")
	a := AddClip(p, newVideoItem("a", 15))
	b := AddClip(p, newVideoItem("b", 12))

	// 与 a 重叠：模型不禁止
	MoveClip(p, b.ID, 5)

	assert.Equal(t, 5.0, b.Start)
	assert.Equal(t, 17.0, p.Duration)
	assert.Equal(t, 15.0, a.End())
	assert.Equal(t, maxEnd(p), p.Duration)
}

func TestMoveUnknownClipIsNoop(t *testing.T) {
	p := model.NewProject(1, "test")
	AddClip(p, newVideoItem("a", 15))

	MoveClip(p, "missing", 3)

	assert.Equal(t, 0.0, p.VideoTrack().Clips[0].Start)
	assert.Equal(t, 15.0, p.Duration)
}

func TestSplitClipConservesSpanAndIds(t *testing.T) {
	p := model.NewProject(1, "test")
	orig := AddClip(p, newVideoItem("a", 15))
	origID := orig.ID
	selected := p.SelectedClipID

	second := SplitClip(p, origID, 6)
	require.NotNil(t, second)

	// 前半段保留原 ID 和起点
	assert.Equal(t, origID, orig.ID)
	assert.Equal(t, 0.0, orig.Start)
	assert.Equal(t, 6.0, orig.Duration)

	// 后半段获得新 ID
	assert.NotEqual(t, origID, second.ID)
	assert.Equal(t, 6.0, second.Start)
	assert.Equal(t, 9.0, second.Duration)
	assert.Equal(t, orig.MediaID, second.MediaID)

	// 总跨度守恒，时长与选中状态不变
	assert.Equal(t, 15.0, p.Duration)
	assert.Equal(t, selected, p.SelectedClipID)
	assert.Len(t, p.VideoTrack().Clips, 2)
}

func TestSplitClipOutOfBoundsIsNoop(t *testing.T) {
	p := model.NewProject(1, "test")
	clip := AddClip(p, newVideoItem("a", 15))

	for _, at := range []float64{0, -1, 15, 20} {
		second := SplitClip(p, clip.ID, at)
		assert.Nil(t, second)
		assert.Len(t, p.VideoTrack().Clips, 1)
		assert.Equal(t, 15.0, clip.Duration)
	}
}

func TestSplitAtClipBoundaryAfterMove(t *testing.T) {
	p := model.NewProject(1, "test")
	clip := AddClip(p, newVideoItem("a", 10))
	MoveClip(p, clip.ID, 5)

	// 边界恰好落在 start 和 end 上都是空操作
	assert.Nil(t, SplitClip(p, clip.ID, 5))
	assert.Nil(t, SplitClip(p, clip.ID, 15))

	second := SplitClip(p, clip.ID, 8)
	require.NotNil(t, second)
	assert.Equal(t, 3.0, clip.Duration)
	assert.Equal(t, 8.0, second.Start)
	assert.Equal(t, 7.0, second.Duration)
	assert.Equal(t, 15.0, p.Duration)
}

func TestDeleteClipClearsSelectionAndDuration(t *testing.T) {
	p := model.NewProject(1, "test")
	clip := AddClip(p, newVideoItem("a", 15))

	DeleteClip(p, clip.ID)

	assert.Empty(t, p.VideoTrack().Clips)
	assert.Empty(t, p.SelectedClipID)
	assert.Equal(t, 0.0, p.Duration)
}

func TestDeleteClipKeepsOtherSelection(t *testing.T) {
	p := model.NewProject(1, "test")
	a := AddClip(p, newVideoItem("a", 15))
	b := AddClip(p, newVideoItem("b", 12))
	p.SelectedClipID = b.ID

	DeleteClip(p, a.ID)

	assert.Equal(t, b.ID, p.SelectedClipID)
	assert.Len(t, p.VideoTrack().Clips, 1)
	assert.Equal(t, 27.0, p.Duration) // b 仍然从 15 开始
}

func TestDurationInvariantOverEditSequence(t *testing.T) {
	p := model.NewProject(1, "test")

	a := AddClip(p, newVideoItem("a", 15))
	assert.Equal(t, maxEnd(p), p.Duration)

	b := AddClip(p, newVideoItem("b", 12))
	assert.Equal(t, maxEnd(p), p.Duration)

	MoveClip(p, b.ID, 100)
	assert.Equal(t, maxEnd(p), p.Duration)
	assert.Equal(t, 112.0, p.Duration)

	second := SplitClip(p, a.ID, 6)
	assert.Equal(t, maxEnd(p), p.Duration)

	DeleteClip(p, b.ID)
	assert.Equal(t, maxEnd(p), p.Duration)
	assert.Equal(t, 15.0, p.Duration)

	DeleteClip(p, a.ID)
	DeleteClip(p, second.ID)
	assert.Equal(t, 0.0, p.Duration)
}
