package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"Bt1Clip/model"
)

// MediaRepository 媒体库数据访问
type MediaRepository interface {
	Create(ctx context.Context, item *model.MediaItem) error
	GetByID(ctx context.Context, id string) (*model.MediaItem, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.MediaItem, error)
	UpdateStatus(ctx context.Context, id, status string, duration float64) error
	ExistsByObjectKey(ctx context.Context, objectKey string) (bool, error)
}

// GormMediaRepository 基于 GORM 的媒体库实现
type GormMediaRepository struct {
	db *gorm.DB
}

// NewGormMediaRepository 创建媒体库仓储
func NewGormMediaRepository(db *gorm.DB) *GormMediaRepository {
	return &GormMediaRepository{db: db}
}

// Create 新增媒体素材
func (r *GormMediaRepository) Create(ctx context.Context, item *model.MediaItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("创建媒体素材失败: %w", err)
	}
	return nil
}

// GetByID 按 ID 获取媒体素材，不存在时返回 (nil, nil)
func (r *GormMediaRepository) GetByID(ctx context.Context, id string) (*model.MediaItem, error) {
	var item model.MediaItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询媒体素材失败: %w", err)
	}
	return &item, nil
}

// ListByUser 列出用户可见的素材（含预置示例素材 userID=0）
func (r *GormMediaRepository) ListByUser(ctx context.Context, userID int64) ([]*model.MediaItem, error) {
	var items []*model.MediaItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? OR user_id = 0", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("查询媒体库失败: %w", err)
	}
	return items, nil
}

// UpdateStatus 更新处理状态与探测到的时长
func (r *GormMediaRepository) UpdateStatus(ctx context.Context, id, status string, duration float64) error {
	err := r.db.WithContext(ctx).Model(&model.MediaItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "duration": duration}).Error
	if err != nil {
		return fmt.Errorf("更新媒体状态失败: %w", err)
	}
	return nil
}

// ExistsByObjectKey 检查对象键是否已入库（示例素材去重用）
func (r *GormMediaRepository) ExistsByObjectKey(ctx context.Context, objectKey string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.MediaItem{}).
		Where("object_key = ?", objectKey).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询对象键失败: %w", err)
	}
	return count > 0, nil
}
