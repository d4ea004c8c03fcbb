package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapperRoundTrip(t *testing.T) {
	for _, zoom := range []float64{0.25, 0.5, 1, 2, 4} {
		m := NewMapper(zoom)
		for _, tt := range []float64{0, 0.5, 1, 13.37, 59.99, 3600} {
			got := m.PixelToTime(m.TimeToPixel(tt))
			assert.InDelta(t, tt, got, 1e-9, "zoom=%v t=%v", zoom, tt)
		}
	}
}

func TestMapperMonotonic(t *testing.T) {
	m := NewMapper(1.5)
	prev := -1.0
	for tt := 0.0; tt <= 120; tt += 0.37 {
		px := m.TimeToPixel(tt)
		assert.Greater(t, px, prev)
		prev = px
	}
}

func TestMapperInvalidZoomFallsBack(t *testing.T) {
	assert.Equal(t, 1.0, NewMapper(0).Zoom)
	assert.Equal(t, 1.0, NewMapper(-2).Zoom)
}

func TestContentWidthFloor(t *testing.T) {
	m := NewMapper(1)

	// 短工程仍然渲染出可用画布
	assert.Equal(t, MinTimelineWidth, m.ContentWidth(2))
	// 长工程按比例扩展
	assert.Equal(t, 100*BaseScale, m.ContentWidth(100))
}

func TestPointerTimeAccountsForScroll(t *testing.T) {
	m := NewMapper(1) // 50 px/s

	// 指针在容器内 100px 处，容器左缘 20px，已滚动 400px
	got := m.PointerTime(120, 20, 400, 60)
	assert.InDelta(t, 10.0, got, 1e-9)

	// 钳制到 [0, duration]
	assert.Equal(t, 0.0, m.PointerTime(0, 50, 0, 60))
	assert.Equal(t, 60.0, m.PointerTime(5000, 0, 0, 60))
}

func TestGeometry(t *testing.T) {
	m := NewMapper(2) // 100 px/s
	got := m.Geometry([]ClipSpan{
		{ID: "a", Start: 0, Duration: 5},
		{ID: "b", Start: 5, Duration: 2.5},
	})

	assert.Equal(t, []ClipGeometry{
		{ClipID: "a", Left: 0, Width: 500},
		{ClipID: "b", Left: 500, Width: 250},
	}, got)
}
