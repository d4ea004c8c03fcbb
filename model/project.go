package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TrackType 轨道类型
type TrackType string

const (
	TrackTypeVideo TrackType = "video"
	TrackTypeAudio TrackType = "audio"
	TrackTypeText  TrackType = "text"
)

// Clip 时间轴上的一个片段，引用媒体库中的一个素材
type Clip struct {
	ID       string    `json:"id"`
	MediaID  string    `json:"mediaId"`
	Type     TrackType `json:"type"`
	Name     string    `json:"name"`
	Start    float64   `json:"start"`    // 起始时间（秒，>= 0）
	Duration float64   `json:"duration"` // 时长（秒，> 0）

	// 字节源二选一：本地持有的 MinIO 对象，或远程地址
	ObjectKey string `json:"objectKey,omitempty"`
	SourceURL string `json:"sourceUrl,omitempty"`
}

// End 返回片段的结束时间
func (c *Clip) End() float64 {
	return c.Start + c.Duration
}

// ActiveAt 判断片段在时间 t 是否处于活动区间 [start, start+duration)
func (c *Clip) ActiveAt(t float64) bool {
	return c.Start <= t && t < c.End()
}

// Track 固定类型的轨道，持有若干片段
// 片段按插入顺序存储，不要求按时间排序，允许重叠
type Track struct {
	ID    string    `json:"id"`
	Type  TrackType `json:"type"`
	Clips []*Clip   `json:"clips"`
}

// TrackList 自定义类型用于 GORM JSON 字段的自动扫描
type TrackList []*Track

// Scan 实现 sql.Scanner 接口
func (t *TrackList) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*t = nil
		return nil
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*t = nil
		return nil
	}
	return json.Unmarshal(bytes, t)
}

// Value 实现 driver.Valuer 接口
func (t TrackList) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

// Project 一个编辑工程
// Duration 是派生值：所有片段 start+duration 的最大值，片段为空时为 0，
// 每次结构性编辑后必须重新计算，不允许增量修补
type Project struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	UserID         int64     `json:"userId" gorm:"index;not null"`
	Name           string    `json:"name" gorm:"size:200;not null"`
	CurrentTime    float64   `json:"currentTime"`
	Duration       float64   `json:"duration"`
	Tracks         TrackList `json:"tracks" gorm:"type:json"`
	SelectedClipID string    `json:"selectedClipId,omitempty" gorm:"size:36"`
	Zoom           float64   `json:"zoom" gorm:"default:1"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

// NewProject 创建工程，三条固定轨道在初始化时创建且随工程存续
func NewProject(userID int64, name string) *Project {
	return &Project{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   name,
		Zoom:   1,
		Tracks: TrackList{
			{ID: uuid.NewString(), Type: TrackTypeVideo, Clips: []*Clip{}},
			{ID: uuid.NewString(), Type: TrackTypeAudio, Clips: []*Clip{}},
			{ID: uuid.NewString(), Type: TrackTypeText, Clips: []*Clip{}},
		},
	}
}

// TrackByType 返回指定类型的轨道，不存在时返回 nil
func (p *Project) TrackByType(t TrackType) *Track {
	for _, track := range p.Tracks {
		if track.Type == t {
			return track
		}
	}
	return nil
}

// VideoTrack 返回视频轨道
func (p *Project) VideoTrack() *Track {
	return p.TrackByType(TrackTypeVideo)
}

// FindClip 按 ID 查找片段及其所在轨道
func (p *Project) FindClip(clipID string) (*Clip, *Track) {
	for _, track := range p.Tracks {
		for _, clip := range track.Clips {
			if clip.ID == clipID {
				return clip, track
			}
		}
	}
	return nil, nil
}
