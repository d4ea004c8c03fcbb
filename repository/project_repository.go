package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"Bt1Clip/model"
)

// ProjectRepository 工程数据访问
type ProjectRepository interface {
	Create(ctx context.Context, p *model.Project) error
	GetByID(ctx context.Context, id string) (*model.Project, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Project, error)
	Save(ctx context.Context, p *model.Project) error
	Delete(ctx context.Context, id string) error
}

// GormProjectRepository 基于 GORM 的工程仓储，
// 轨道与片段以 JSON 列整体嵌入工程行
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository 创建工程仓储
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create 新增工程
func (r *GormProjectRepository) Create(ctx context.Context, p *model.Project) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("创建工程失败: %w", err)
	}
	return nil
}

// GetByID 按 ID 获取工程，不存在时返回 (nil, nil)
func (r *GormProjectRepository) GetByID(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询工程失败: %w", err)
	}
	return &p, nil
}

// ListByUser 列出用户的工程
func (r *GormProjectRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Project, error) {
	var projects []*model.Project
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("查询工程列表失败: %w", err)
	}
	return projects, nil
}

// Save 整体保存工程（编辑后的写回路径）
func (r *GormProjectRepository) Save(ctx context.Context, p *model.Project) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("保存工程失败: %w", err)
	}
	return nil
}

// Delete 删除工程
func (r *GormProjectRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&model.Project{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("删除工程失败: %w", err)
	}
	return nil
}
