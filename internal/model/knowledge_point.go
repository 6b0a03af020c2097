package model

import (
	"time"

	"gorm.io/gorm"
)

// KnowledgePoint 知识点（依赖图的节点）
type KnowledgePoint struct {
	ID         uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string         `gorm:"size:255;not null" json:"name"`
	Difficulty int            `gorm:"default:1" json:"difficulty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (KnowledgePoint) TableName() string {
	return "knowledge_points"
}

// KnowledgePrerequisite 先修边：PrerequisiteID 必须先于 DependentID 学习
type KnowledgePrerequisite struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PrerequisiteID uint      `gorm:"not null;uniqueIndex:idx_prereq_edge" json:"prerequisiteId"`
	DependentID    uint      `gorm:"not null;uniqueIndex:idx_prereq_edge" json:"dependentId"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (KnowledgePrerequisite) TableName() string {
	return "knowledge_prerequisites"
}

// KPRef 图查询返回的轻量节点引用
type KPRef struct {
	ID         uint   `json:"kp_id"`
	Name       string `json:"name"`
	Difficulty int    `json:"difficulty"`
}
