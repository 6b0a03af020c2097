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
	"gorm.io/gorm"
)

const prereqCacheTTL = 5 * time.Minute

type KnowledgePointRepository struct {
	DB  *gorm.DB
	RDB *redis.Client
}

func NewKnowledgePointRepository(db *gorm.DB, rdb *redis.Client) *KnowledgePointRepository {
	return &KnowledgePointRepository{DB: db, RDB: rdb}
}

// FindByID 目标不存在返回 util.ErrKPNotFound，存储故障返回 util.ErrDependency
func (r *KnowledgePointRepository) FindByID(ctx context.Context, kpID uint) (*model.KPRef, error) {
	var kp model.KnowledgePoint
	err := r.DB.WithContext(ctx).First(&kp, kpID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: kp %d", util.ErrKPNotFound, kpID)
		}
		return nil, fmt.Errorf("%w: query kp %d: %v", util.ErrDependency, kpID, err)
	}
	return &model.KPRef{ID: kp.ID, Name: kp.Name, Difficulty: kp.Difficulty}, nil
}

func (r *KnowledgePointRepository) NameOf(ctx context.Context, kpID uint) (string, error) {
	ref, err := r.FindByID(ctx, kpID)
	if err != nil {
		return "", err
	}
	return ref.Name, nil
}

// PrerequisitesOf 直接先修列表，按难度、名称排序保证同一快照内结果确定。
// 查询结果在 Redis 短缓存，管理端写操作负责失效。
func (r *KnowledgePointRepository) PrerequisitesOf(ctx context.Context, kpID uint) ([]model.KPRef, error) {
	cacheKey := prereqCacheKey(kpID)
	if r.RDB != nil {
		if cached, err := r.RDB.Get(ctx, cacheKey).Result(); err == nil {
			var refs []model.KPRef
			if json.Unmarshal([]byte(cached), &refs) == nil {
				return refs, nil
			}
		}
	}

	var refs []model.KPRef
	err := r.DB.WithContext(ctx).
		Table("knowledge_points").
		Select("knowledge_points.id, knowledge_points.name, knowledge_points.difficulty").
		Joins("JOIN knowledge_prerequisites ON knowledge_prerequisites.prerequisite_id = knowledge_points.id").
		Where("knowledge_prerequisites.dependent_id = ? AND knowledge_points.deleted_at IS NULL", kpID).
		Order("knowledge_points.difficulty ASC, knowledge_points.name ASC").
		Scan(&refs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: prerequisites of kp %d: %v", util.ErrDependency, kpID, err)
	}
	if refs == nil {
		refs = []model.KPRef{}
	}

	if r.RDB != nil {
		if data, err := json.Marshal(refs); err == nil {
			r.RDB.Set(ctx, cacheKey, data, prereqCacheTTL)
		}
	}

	return refs, nil
}

func (r *KnowledgePointRepository) Create(ctx context.Context, kp *model.KnowledgePoint) error {
	if err := r.DB.WithContext(ctx).Create(kp).Error; err != nil {
		return fmt.Errorf("%w: create kp: %v", util.ErrDependency, err)
	}
	return nil
}

func (r *KnowledgePointRepository) List(ctx context.Context, name string) ([]model.KnowledgePoint, error) {
	query := r.DB.WithContext(ctx).Model(&model.KnowledgePoint{}).Order("id ASC")
	if name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	var kps []model.KnowledgePoint
	if err := query.Find(&kps).Error; err != nil {
		return nil, fmt.Errorf("%w: list kps: %v", util.ErrDependency, err)
	}
	return kps, nil
}

func (r *KnowledgePointRepository) Update(ctx context.Context, kp *model.KnowledgePoint) error {
	if err := r.DB.WithContext(ctx).Save(kp).Error; err != nil {
		return fmt.Errorf("%w: update kp %d: %v", util.ErrDependency, kp.ID, err)
	}
	return nil
}

func (r *KnowledgePointRepository) Delete(ctx context.Context, kpID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("prerequisite_id = ? OR dependent_id = ?", kpID, kpID).
			Delete(&model.KnowledgePrerequisite{}).Error; err != nil {
			return fmt.Errorf("%w: delete edges of kp %d: %v", util.ErrDependency, kpID, err)
		}
		if err := tx.Delete(&model.KnowledgePoint{}, kpID).Error; err != nil {
			return fmt.Errorf("%w: delete kp %d: %v", util.ErrDependency, kpID, err)
		}
		r.invalidateAll(context.Background())
		return nil
	})
}

// AddPrerequisite 建边：prerequisiteID 必须先于 dependentID 学习
func (r *KnowledgePointRepository) AddPrerequisite(ctx context.Context, prerequisiteID, dependentID uint) error {
	if prerequisiteID == dependentID {
		return fmt.Errorf("%w: a knowledge point cannot be its own prerequisite", util.ErrValidation)
	}
	for _, id := range []uint{prerequisiteID, dependentID} {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}

	edge := model.KnowledgePrerequisite{PrerequisiteID: prerequisiteID, DependentID: dependentID}
	if err := r.DB.WithContext(ctx).Create(&edge).Error; err != nil {
		return fmt.Errorf("%w: create edge %d->%d: %v", util.ErrDependency, prerequisiteID, dependentID, err)
	}
	r.invalidatePrereqs(ctx, dependentID)
	return nil
}

func (r *KnowledgePointRepository) RemovePrerequisite(ctx context.Context, prerequisiteID, dependentID uint) error {
	err := r.DB.WithContext(ctx).
		Where("prerequisite_id = ? AND dependent_id = ?", prerequisiteID, dependentID).
		Delete(&model.KnowledgePrerequisite{}).Error
	if err != nil {
		return fmt.Errorf("%w: delete edge %d->%d: %v", util.ErrDependency, prerequisiteID, dependentID, err)
	}
	r.invalidatePrereqs(ctx, dependentID)
	return nil
}

func (r *KnowledgePointRepository) invalidatePrereqs(ctx context.Context, kpID uint) {
	if r.RDB == nil {
		return
	}
	r.RDB.Del(ctx, prereqCacheKey(kpID))
}

func (r *KnowledgePointRepository) invalidateAll(ctx context.Context) {
	if r.RDB == nil {
		return
	}
	iter := r.RDB.Scan(ctx, 0, "kp:prereqs:*", 0).Iterator()
	for iter.Next(ctx) {
		r.RDB.Del(ctx, iter.Val())
	}
}

func prereqCacheKey(kpID uint) string {
	return fmt.Sprintf("kp:prereqs:%d", kpID)
}
