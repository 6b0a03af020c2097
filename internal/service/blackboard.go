package service

import "learnpath_backend/internal/model"

// MockBlackboard 本地联调用的模拟学习平台：按学生返回固定的交互历史。
// 接入真实 LMS 后由其历史接口替换。测试与演示账号的数据保持确定性。
type MockBlackboard struct {
	histories map[string][]model.InteractionRecord
}

func NewMockBlackboard() *MockBlackboard {
	return &MockBlackboard{
		histories: map[string][]model.InteractionRecord{
			"student-123": {
				{KPID: 1, Score: 0.9, Type: "quiz"},
				{KPID: 2, Score: 0.7, Type: "quiz"},
				{KPID: 3, Score: 0.5, Type: "quiz"},
			},
			"student-456": {
				{KPID: 1, Score: 1.0, Type: "quiz"},
				{KPID: 4, Score: 0.6, Type: "quiz"},
			},
			"student-new": {},
		},
	}
}

// HistoryFor 未知学生返回 nil，由调用方决定如何处理
func (b *MockBlackboard) HistoryFor(studentID string) []model.InteractionRecord {
	return b.histories[studentID]
}
