package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"learnpath_backend/internal/model"
	"learnpath_backend/internal/util"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const contentCacheTTL = 5 * time.Minute

type ContentRepository struct {
	DB  *gorm.DB
	RDB *redis.Client
}

func NewContentRepository(db *gorm.DB, rdb *redis.Client) *ContentRepository {
	return &ContentRepository{DB: db, RDB: rdb}
}

// ContentFor 返回知识点下的全部资料。没有资料返回空列表，不是错误。
func (r *ContentRepository) ContentFor(ctx context.Context, kpID uint) ([]model.ContentItem, error) {
	cacheKey := contentCacheKey(kpID)
	if r.RDB != nil {
		if cached, err := r.RDB.Get(ctx, cacheKey).Result(); err == nil {
			var items []model.ContentItem
			if json.Unmarshal([]byte(cached), &items) == nil {
				return items, nil
			}
		}
	}

	var items []model.ContentItem
	err := r.DB.WithContext(ctx).
		Where("knowledge_point_id = ?", kpID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("%w: content for kp %d: %v", util.ErrDependency, kpID, err)
	}
	if items == nil {
		items = []model.ContentItem{}
	}

	if r.RDB != nil {
		if data, err := json.Marshal(items); err == nil {
			r.RDB.Set(ctx, cacheKey, data, contentCacheTTL)
		}
	}

	return items, nil
}

func (r *ContentRepository) Create(ctx context.Context, item *model.ContentItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.DB.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("%w: create content item: %v", util.ErrDependency, err)
	}
	r.invalidate(ctx, item.KnowledgePointID)
	return nil
}

func (r *ContentRepository) Delete(ctx context.Context, id string) error {
	var item model.ContentItem
	if err := r.DB.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: content item %s", util.ErrKPNotFound, id)
		}
		return fmt.Errorf("%w: find content item %s: %v", util.ErrDependency, id, err)
	}
	if err := r.DB.WithContext(ctx).Delete(&item).Error; err != nil {
		return fmt.Errorf("%w: delete content item %s: %v", util.ErrDependency, id, err)
	}
	r.invalidate(ctx, item.KnowledgePointID)
	return nil
}

func (r *ContentRepository) invalidate(ctx context.Context, kpID uint) {
	if r.RDB == nil {
		return
	}
	r.RDB.Del(ctx, contentCacheKey(kpID))
}

func contentCacheKey(kpID uint) string {
	return fmt.Sprintf("kp:content:%d", kpID)
}
