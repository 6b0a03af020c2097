package service

import (
	"fmt"
	"learnpath_backend/internal/config"
	"learnpath_backend/internal/model"
	"learnpath_backend/pkg/inference"
	"learnpath_backend/pkg/logger"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

const (
	metadataFile = "metadata.json"
	scalerFile   = "scaler.json"
	networkFile  = "model.json"
)

// ModelService 预测引擎。启动时一次性决定工作模式：
// 任一模型工件缺失或损坏即永久进入降级模式；模型模式下单次推理
// 失败仅让该次调用降级。加载完成后所有状态只读，并发安全。
type ModelService struct {
	meta   *inference.Metadata
	scaler *inference.Scaler
	net    *inference.Network

	mu   sync.RWMutex
	topK int
}

func NewModelService(cfg config.ModelConfig) *ModelService {
	s := &ModelService{topK: cfg.TopK}

	dir := cfg.ArtifactDir

	meta, err := inference.LoadMetadata(filepath.Join(dir, metadataFile))
	if err != nil {
		logger.Log.Warn("Model metadata unavailable, fallback predictor will be used", zap.Error(err))
		return s
	}

	scaler, err := inference.LoadScaler(filepath.Join(dir, scalerFile))
	if err != nil {
		logger.Log.Warn("Feature scaler unavailable, fallback predictor will be used", zap.Error(err))
		return s
	}

	net, err := inference.LoadNetwork(filepath.Join(dir, networkFile))
	if err != nil {
		logger.Log.Warn("Model weights unavailable, fallback predictor will be used", zap.Error(err))
		return s
	}

	if net.InputDim != meta.MaxSeqLen*meta.NumFeatures() {
		logger.Log.Warn("Model input dim does not match metadata, fallback predictor will be used",
			zap.Int("input_dim", net.InputDim),
			zap.Int("expected", meta.MaxSeqLen*meta.NumFeatures()))
		return s
	}
	if net.OutputDim() != len(meta.KPLabels) {
		logger.Log.Warn("Model output dim does not match label map, fallback predictor will be used",
			zap.Int("output_dim", net.OutputDim()),
			zap.Int("labels", len(meta.KPLabels)))
		return s
	}

	s.meta = meta
	s.scaler = scaler
	s.net = net
	logger.Log.Info("Prediction model loaded",
		zap.Int("max_seq_len", meta.MaxSeqLen),
		zap.Int("features", meta.NumFeatures()),
		zap.Int("classes", len(meta.KPLabels)))
	return s
}

// ModelReady 是否处于模型模式（启动时定死）
func (s *ModelService) ModelReady() bool {
	return s.net != nil
}

// Metadata 供特征预处理器共享，降级模式下为 nil
func (s *ModelService) Metadata() *inference.Metadata {
	return s.meta
}

func (s *ModelService) Scaler() *inference.Scaler {
	return s.scaler
}

// SetTopK 配置热更入口
func (s *ModelService) SetTopK(k int) {
	if k <= 0 {
		return
	}
	s.mu.Lock()
	s.topK = k
	s.mu.Unlock()
}

func (s *ModelService) currentTopK() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topK
}

// Predict 对已校验的历史给出排序后的弱点候选。对合法输入绝不报错：
// 模型模式推理失败时记日志并对该次调用走降级启发式。
// features 为预处理结果，降级模式下可为 nil。
func (s *ModelService) Predict(history []model.InteractionRecord, features [][]float64) *model.PredictionResult {
	if s.ModelReady() && features != nil {
		res, err := s.predictModel(features)
		if err == nil {
			return res
		}
		logger.Log.Error("Model inference failed, falling back for this call", zap.Error(err))
	}
	return s.predictFallback(history)
}

func (s *ModelService) predictModel(features [][]float64) (*model.PredictionResult, error) {
	input := make([]float64, 0, s.net.InputDim)
	for _, row := range features {
		input = append(input, row...)
	}

	probs, err := s.net.Forward(input)
	if err != nil {
		return nil, err
	}
	if !s.net.OutputsProbabilities() {
		probs = inference.Softmax(probs)
	}

	candidates := make([]model.PredictionCandidate, 0, len(probs))
	for idx, p := range probs {
		kpID, err := s.meta.KPForIndex(idx)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, model.PredictionCandidate{KPID: kpID, Confidence: p})
	}

	// 置信度降序，同分按知识点ID升序，保证可复现
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].KPID < candidates[j].KPID
	})

	if k := s.currentTopK(); len(candidates) > k {
		candidates = candidates[:k]
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("model produced no candidates")
	}

	return &model.PredictionResult{
		Top:        candidates[0],
		Candidates: candidates,
		Source:     model.SourceModel,
	}, nil
}

// predictFallback 启发式：按知识点聚合原始分数取均值，均分最低者
// 视为最弱；置信度取 1-均分（截断到 [0,1]），只是排序依据而非校准概率。
// 历史中未出现的知识点不会成为候选——没有数据就无从排它。
func (s *ModelService) predictFallback(history []model.InteractionRecord) *model.PredictionResult {
	sums := make(map[uint]float64)
	counts := make(map[uint]int)
	for _, rec := range history {
		sums[rec.KPID] += rec.Score
		counts[rec.KPID]++
	}

	type kpMean struct {
		kpID uint
		mean float64
	}
	means := make([]kpMean, 0, len(sums))
	for kpID, sum := range sums {
		means = append(means, kpMean{kpID: kpID, mean: sum / float64(counts[kpID])})
	}

	// 均分升序（最弱在前），同分按知识点ID升序
	sort.SliceStable(means, func(i, j int) bool {
		if means[i].mean != means[j].mean {
			return means[i].mean < means[j].mean
		}
		return means[i].kpID < means[j].kpID
	})

	if k := s.currentTopK(); len(means) > k {
		means = means[:k]
	}

	candidates := make([]model.PredictionCandidate, len(means))
	for i, m := range means {
		confidence := 1 - m.mean
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}
		candidates[i] = model.PredictionCandidate{KPID: m.kpID, Confidence: confidence}
	}

	return &model.PredictionResult{
		Top:        candidates[0],
		Candidates: candidates,
		Source:     model.SourceFallback,
	}
}
