package timeline

const (
	// BaseScale 缩放因子为 1 时每秒对应的像素数
	BaseScale = 50.0

	// MinTimelineWidth 时间轴内容的最小宽度（像素），
	// 保证很短的工程也能渲染出可用的画布
	MinTimelineWidth = 800.0
)

// Mapper 时间与水平像素偏移之间的无状态双向换算，
// 由缩放因子参数化
type Mapper struct {
	Zoom float64
}

// NewMapper 创建映射器，非正的缩放因子回退为 1
func NewMapper(zoom float64) Mapper {
	if zoom <= 0 {
		zoom = 1
	}
	return Mapper{Zoom: zoom}
}

// PixelsPerSecond 每秒对应的像素数
func (m Mapper) PixelsPerSecond() float64 {
	return BaseScale * m.Zoom
}

// TimeToPixel 时间换算为像素偏移
func (m Mapper) TimeToPixel(t float64) float64 {
	return t * m.PixelsPerSecond()
}

// PixelToTime 像素偏移换算为时间
func (m Mapper) PixelToTime(x float64) float64 {
	return x / m.PixelsPerSecond()
}

// ContentWidth 时间轴内容宽度
func (m Mapper) ContentWidth(duration float64) float64 {
	w := duration * m.PixelsPerSecond()
	if w < MinTimelineWidth {
		return MinTimelineWidth
	}
	return w
}

// PointerTime 把指针位置换算为时间。
// 必须计入当前水平滚动偏移，结果钳制到 [0, duration]。
func (m Mapper) PointerTime(pointerX, containerLeft, scrollLeft, duration float64) float64 {
	t := m.PixelToTime(pointerX - containerLeft + scrollLeft)
	if t < 0 {
		return 0
	}
	if t > duration {
		return duration
	}
	return t
}

// ClipGeometry 片段在时间轴上的几何位置（起始像素与宽度），
// 供渲染层使用的只读派生视图
type ClipGeometry struct {
	ClipID string  `json:"clipId"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
}

// Geometry 计算一组片段的渲染几何
func (m Mapper) Geometry(clips []ClipSpan) []ClipGeometry {
	out := make([]ClipGeometry, 0, len(clips))
	for _, c := range clips {
		out = append(out, ClipGeometry{
			ClipID: c.ID,
			Left:   m.TimeToPixel(c.Start),
			Width:  m.TimeToPixel(c.Duration),
		})
	}
	return out
}

// ClipSpan 几何计算所需的最小片段信息
type ClipSpan struct {
	ID       string
	Start    float64
	Duration float64
}
