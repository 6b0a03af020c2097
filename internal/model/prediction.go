package model

// InteractionType 历史交互的类别
type InteractionType string

const (
	InteractionQuiz     InteractionType = "quiz"
	InteractionPractice InteractionType = "practice"
	InteractionExam     InteractionType = "exam"
)

// InteractionRecord 学生的一次答题记录，按时间先后排列（最新的在末尾）
type InteractionRecord struct {
	KPID  uint    `json:"kp_id"`
	Score float64 `json:"score"`
	Type  string  `json:"type"`
}

// PredictionSource 预测结果来源：模型推理或降级启发式，两者必居其一
type PredictionSource string

const (
	SourceModel    PredictionSource = "model"
	SourceFallback PredictionSource = "fallback"
)

type PredictionCandidate struct {
	KPID       uint    `json:"kp_id"`
	Confidence float64 `json:"confidence"`
}

// PredictionResult 排序后的弱点候选列表，Top 恒等于 Candidates[0]
type PredictionResult struct {
	Top        PredictionCandidate   `json:"top"`
	Candidates []PredictionCandidate `json:"candidates"`
	Source     PredictionSource      `json:"source"`
}

// PathSegment 学习路径中的一站：知识点与其按固定顺序排列的资料
type PathSegment struct {
	KPID    uint          `json:"kp_id"`
	KPName  string        `json:"kp_name"`
	Content []ContentItem `json:"content"`
}
