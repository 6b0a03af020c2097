package service

import (
	"context"
	"learnpath_backend/internal/model"
	"learnpath_backend/pkg/logger"

	"go.uber.org/zap"
)

// PredictionInfo 对外暴露的预测信息，含完整 top-k 候选以便前端透明展示
type PredictionInfo struct {
	KPID       uint                        `json:"kp_id"`
	Confidence float64                     `json:"confidence"`
	Source     model.PredictionSource      `json:"source"`
	TopK       []model.PredictionCandidate `json:"top_k"`
}

// GenerateResult 生成接口的完整响应体，结构在模型更换间保持稳定
type GenerateResult struct {
	StudentID    string              `json:"student_id"`
	Prediction   *PredictionInfo     `json:"prediction_info"`
	LearningPath []model.PathSegment `json:"learning_path"`
}

// PredictionService 编排层：校验 → 特征 → 预测 → 建路径。
// 内部不做任何重试，分类错误原样抛给边界层。
type PredictionService struct {
	preprocessor *FeaturePreprocessor
	engine       *ModelService
	pathBuilder  *PathService
}

func NewPredictionService(engine *ModelService, pathBuilder *PathService) *PredictionService {
	s := &PredictionService{
		engine:      engine,
		pathBuilder: pathBuilder,
	}
	if engine.ModelReady() {
		s.preprocessor = NewFeaturePreprocessor(engine.Metadata(), engine.Scaler())
	}
	return s
}

// Generate 为学生生成弱点预测与补救路径。
// forceKPID 大于 0 时跳过预测直接为该知识点建路径（此时允许空历史，
// prediction_info 为 null）。空历史且未指定 forceKPID 属于校验错误，
// 在触碰图存储之前就返回。
func (s *PredictionService) Generate(ctx context.Context, studentID string, history []model.InteractionRecord, forceKPID uint) (*GenerateResult, error) {
	var info *PredictionInfo
	targetKPID := forceKPID

	if targetKPID == 0 {
		if err := ValidateHistory(history); err != nil {
			return nil, err
		}

		var features [][]float64
		if s.preprocessor != nil {
			var err error
			features, err = s.preprocessor.Prepare(history)
			if err != nil {
				// 校验已通过，这里只剩特征工程与元信息不一致的情况，
				// 按单次调用降级处理
				logger.Log.Error("Feature preprocessing failed, falling back for this call", zap.Error(err))
				features = nil
			}
		}

		pred := s.engine.Predict(history, features)
		targetKPID = pred.Top.KPID
		info = &PredictionInfo{
			KPID:       pred.Top.KPID,
			Confidence: pred.Top.Confidence,
			Source:     pred.Source,
			TopK:       pred.Candidates,
		}
	}

	path, err := s.pathBuilder.BuildPath(ctx, targetKPID)
	if err != nil {
		return nil, err
	}

	return &GenerateResult{
		StudentID:    studentID,
		Prediction:   info,
		LearningPath: path,
	}, nil
}
