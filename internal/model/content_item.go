package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// JSONMap 以 JSON 文本存储的元数据字段
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for JSONMap")
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}

type ContentType string

const (
	ContentVideo      ContentType = "video"
	ContentReading    ContentType = "reading"
	ContentPractice   ContentType = "practice"
	ContentQuiz       ContentType = "quiz"
	ContentAssessment ContentType = "assessment"
)

// ContentItem 挂在知识点下的学习资料，结构与对外响应契约一致
type ContentItem struct {
	ID               string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	KnowledgePointID uint           `gorm:"index;not null" json:"-"`
	Type             ContentType    `gorm:"size:50;not null" json:"type"`
	Title            string         `gorm:"size:255;not null" json:"title"`
	URL              string         `gorm:"size:500;not null" json:"url"`
	EstMinutes       int            `gorm:"default:0" json:"est_minutes"`
	Difficulty       int            `gorm:"default:1" json:"difficulty"`
	Metadata         JSONMap        `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt        time.Time      `json:"-"`
	UpdatedAt        time.Time      `json:"-"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ContentItem) TableName() string {
	return "content_items"
}

// ContentTypeRank 资料在一个知识点内的固定排序：先看视频再阅读，练习、测验靠后
var ContentTypeRank = map[ContentType]int{
	ContentVideo:      1,
	ContentReading:    2,
	ContentPractice:   3,
	ContentQuiz:       4,
	ContentAssessment: 5,
}
