package model

import "time"

// 媒体处理状态
const (
	MediaStatusProcessing = "processing"
	MediaStatusReady      = "ready"
	MediaStatusFailed     = "failed"
)

// MediaItem 媒体库中的一个素材，独立于工程，可被多个片段引用
// Duration 在入库时探测一次并缓存
type MediaItem struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    int64     `json:"userId" gorm:"index"` // 0 表示预置示例素材
	Type      TrackType `json:"type" gorm:"size:20;not null"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Duration  float64   `json:"duration"` // 时长（秒），探测一次后缓存
	ObjectKey string    `json:"objectKey,omitempty" gorm:"size:512"`
	SourceURL string    `json:"sourceUrl,omitempty" gorm:"size:1024"`
	Status    string    `json:"status" gorm:"size:20;default:'ready'"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (MediaItem) TableName() string {
	return "media_items"
}
