package database

import (
	"fmt"
	"learnpath_backend/internal/config"
	"learnpath_backend/internal/model"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.KnowledgePoint{},
		&model.KnowledgePrerequisite{},
		&model.ContentItem{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	if err := seedGraph(db); err != nil {
		return nil, err
	}

	return db, nil
}

// seedGraph 图为空时写入默认的 C 语言入门知识点、先修边与资料，
// 让服务开箱即可生成路径
func seedGraph(db *gorm.DB) error {
	var kpCount int64
	db.Model(&model.KnowledgePoint{}).Count(&kpCount)
	if kpCount > 0 {
		return nil
	}

	kps := []model.KnowledgePoint{
		{ID: 1, Name: "变量与数据类型", Difficulty: 1},
		{ID: 2, Name: "控制结构", Difficulty: 1},
		{ID: 3, Name: "循环", Difficulty: 2},
		{ID: 4, Name: "函数", Difficulty: 2},
		{ID: 5, Name: "数组", Difficulty: 2},
		{ID: 6, Name: "指针", Difficulty: 3},
	}
	for i := range kps {
		if err := db.Create(&kps[i]).Error; err != nil {
			return err
		}
	}

	edges := []model.KnowledgePrerequisite{
		{PrerequisiteID: 1, DependentID: 2},
		{PrerequisiteID: 2, DependentID: 3},
		{PrerequisiteID: 3, DependentID: 4},
		{PrerequisiteID: 3, DependentID: 5},
		{PrerequisiteID: 5, DependentID: 6},
		{PrerequisiteID: 4, DependentID: 6},
	}
	for i := range edges {
		if err := db.Create(&edges[i]).Error; err != nil {
			return err
		}
	}

	contents := []model.ContentItem{
		{ID: "vid-101", KnowledgePointID: 1, Type: model.ContentVideo, Title: "变量入门", URL: "https://example.com/vid-101", EstMinutes: 6, Difficulty: 1, Metadata: model.JSONMap{"source": "internal"}},
		{ID: "quiz-101", KnowledgePointID: 1, Type: model.ContentQuiz, Title: "变量练习测验", URL: "https://example.com/quiz-101", EstMinutes: 8, Difficulty: 1},
		{ID: "vid-201", KnowledgePointID: 2, Type: model.ContentVideo, Title: "if/else 详解", URL: "https://example.com/vid-201", EstMinutes: 7, Difficulty: 1, Metadata: model.JSONMap{"source": "youtube"}},
		{ID: "quiz-201", KnowledgePointID: 2, Type: model.ContentQuiz, Title: "条件逻辑测验", URL: "https://example.com/quiz-201", EstMinutes: 10, Difficulty: 2},
		{ID: "vid-301", KnowledgePointID: 3, Type: model.ContentVideo, Title: "循环深入讲解", URL: "https://example.com/vid-301", EstMinutes: 12, Difficulty: 2, Metadata: model.JSONMap{"source": "vimeo"}},
		{ID: "quiz-301", KnowledgePointID: 3, Type: model.ContentQuiz, Title: "循环检查点", URL: "https://example.com/quiz-301", EstMinutes: 10, Difficulty: 2},
		{ID: "read-301", KnowledgePointID: 3, Type: model.ContentReading, Title: "for 与 while 对比", URL: "https://example.com/read-301", EstMinutes: 5, Difficulty: 2},
		{ID: "vid-401", KnowledgePointID: 4, Type: model.ContentVideo, Title: "函数与作用域", URL: "https://example.com/vid-401", EstMinutes: 9, Difficulty: 2},
		{ID: "quiz-401", KnowledgePointID: 4, Type: model.ContentQuiz, Title: "函数测验", URL: "https://example.com/quiz-401", EstMinutes: 11, Difficulty: 3},
		{ID: "vid-501", KnowledgePointID: 5, Type: model.ContentVideo, Title: "数组与索引", URL: "https://example.com/vid-501", EstMinutes: 8, Difficulty: 2},
		{ID: "prac-601", KnowledgePointID: 6, Type: model.ContentPractice, Title: "指针实战练习", URL: "https://example.com/prac-601", EstMinutes: 15, Difficulty: 3},
	}
	for i := range contents {
		if err := db.Create(&contents[i]).Error; err != nil {
			return err
		}
	}

	log.Println("Seeded default knowledge graph and content catalogue")
	return nil
}
