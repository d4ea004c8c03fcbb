package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"Bt1Clip/model"
)

// UserRepository 用户数据访问
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// GormUserRepository 基于 GORM 的用户仓储
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository 创建用户仓储
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create 新增用户
func (r *GormUserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("创建用户失败: %w", err)
	}
	return nil
}

// GetByID 按 ID 获取用户，不存在时返回 (nil, nil)
func (r *GormUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getBy(ctx, "id = ?", id)
}

// GetByUsername 按用户名获取用户
func (r *GormUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getBy(ctx, "username = ?", username)
}

// GetByEmail 按邮箱获取用户
func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, "email = ?", email)
}

func (r *GormUserRepository) getBy(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &user, nil
}
