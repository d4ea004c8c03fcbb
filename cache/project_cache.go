package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"Bt1Clip/model"
)

const (
	projectKey = "project:%s" // String: 序列化的工程 JSON
	projectTTL = 24 * time.Hour
)

// ProjectCache 工程状态缓存。
// 每次结构性编辑后整体写入序列化的工程快照（纯嵌套记录，不含任何
// 函数值或不透明句柄），会话打开时优先从这里恢复。
type ProjectCache struct {
	client *redis.Client
}

// NewProjectCache 创建工程缓存
func NewProjectCache() *ProjectCache {
	return &ProjectCache{client: RedisClient}
}

// GetProjectKey 根据工程ID生成Redis键
func GetProjectKey(projectID string) string {
	return fmt.Sprintf(projectKey, projectID)
}

// SaveProject 写入工程快照
func (c *ProjectCache) SaveProject(ctx context.Context, p *model.Project) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	if err := c.client.Set(ctx, GetProjectKey(p.ID), data, projectTTL).Err(); err != nil {
		return fmt.Errorf("failed to save project to cache: %w", err)
	}

	return nil
}

// GetProject 读取工程快照，缓存未命中时返回 (nil, nil)
func (c *ProjectCache) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	if c.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	data, err := c.client.Get(ctx, GetProjectKey(projectID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project from cache: %w", err)
	}

	var p model.Project
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	return &p, nil
}

// DeleteProject 删除工程快照
func (c *ProjectCache) DeleteProject(ctx context.Context, projectID string) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	return c.client.Del(ctx, GetProjectKey(projectID)).Err()
}
