package service

import (
	"fmt"
	"learnpath_backend/internal/model"
	"learnpath_backend/internal/util"
	"learnpath_backend/pkg/inference"
	"strings"
)

// unknownCategory 词表外的交互类型统一落到该桶，不报错
const unknownCategory = "unknown"

// ValidateHistory 校验交互历史。降级模式下不做特征工程，
// 但入参校验必须照常执行。
func ValidateHistory(history []model.InteractionRecord) error {
	if len(history) == 0 {
		return fmt.Errorf("%w: history is empty", util.ErrValidation)
	}
	for i, rec := range history {
		if rec.KPID == 0 {
			return fmt.Errorf("%w: record %d has invalid kp_id", util.ErrValidation, i)
		}
		if rec.Score < 0 || rec.Score > 1 {
			return fmt.Errorf("%w: record %d score %.3f out of [0,1]", util.ErrValidation, i, rec.Score)
		}
	}
	return nil
}

// FeaturePreprocessor 把变长交互历史转成定形数值序列。
// 依赖启动时加载的元信息与标准化参数，均为只读共享状态。
type FeaturePreprocessor struct {
	meta   *inference.Metadata
	scaler *inference.Scaler
}

func NewFeaturePreprocessor(meta *inference.Metadata, scaler *inference.Scaler) *FeaturePreprocessor {
	return &FeaturePreprocessor{meta: meta, scaler: scaler}
}

// Prepare 输出 maxSeqLen 行、每行 NumFeatures 列的矩阵：
// 超长历史只保留最近 maxSeqLen 条，不足则左补零行，
// 保证最新一条记录永远落在最后一行。
func (p *FeaturePreprocessor) Prepare(history []model.InteractionRecord) ([][]float64, error) {
	if err := ValidateHistory(history); err != nil {
		return nil, err
	}

	maxSeqLen := p.meta.MaxSeqLen
	if len(history) > maxSeqLen {
		history = history[len(history)-maxSeqLen:]
	}

	rows := make([][]float64, 0, len(history))
	for _, rec := range history {
		row, err := p.encode(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	scaled, err := p.scaleNumeric(rows)
	if err != nil {
		return nil, err
	}

	// 左填充
	width := p.meta.NumFeatures()
	padded := make([][]float64, maxSeqLen)
	offset := maxSeqLen - len(scaled)
	for i := 0; i < offset; i++ {
		padded[i] = make([]float64, width)
	}
	copy(padded[offset:], scaled)

	return padded, nil
}

// encode 单条记录 → 按 sequence_features 列顺序排好的一行
func (p *FeaturePreprocessor) encode(rec model.InteractionRecord) ([]float64, error) {
	values := make(map[string]float64, p.meta.NumFeatures())

	for _, feat := range p.meta.NumericFeatures {
		values[feat] = numericValue(rec, feat)
	}

	for base, categories := range p.meta.CategoricalFeatures {
		raw := categoricalValue(rec, base)
		matched := false
		for _, cat := range categories {
			col := base + "_" + cat
			if raw == cat {
				values[col] = 1
				matched = true
			} else {
				values[col] = 0
			}
		}
		// 词表外类别进 unknown 桶；词表没有该桶时整行 one-hot 全零
		if !matched && hasCategory(categories, unknownCategory) {
			values[base+"_"+unknownCategory] = 1
		}
	}

	row := make([]float64, 0, p.meta.NumFeatures())
	for _, col := range p.meta.SequenceFeatures {
		v, ok := values[col]
		if !ok {
			return nil, fmt.Errorf("feature column %q has no encoder", col)
		}
		row = append(row, v)
	}
	return row, nil
}

// scaleNumeric 用训练时拟合的参数标准化数值列，类别列不动
func (p *FeaturePreprocessor) scaleNumeric(rows [][]float64) ([][]float64, error) {
	if p.scaler == nil || len(p.meta.NumericFeatures) == 0 {
		return rows, nil
	}

	indices := make([]int, 0, len(p.meta.NumericFeatures))
	for _, feat := range p.meta.NumericFeatures {
		for ci, col := range p.meta.SequenceFeatures {
			if col == feat {
				indices = append(indices, ci)
				break
			}
		}
	}
	if len(indices) != p.scaler.Dim() {
		return nil, fmt.Errorf("scaler covers %d features, metadata has %d numeric columns", p.scaler.Dim(), len(indices))
	}

	for ri := range rows {
		numeric := make([]float64, len(indices))
		for k, ci := range indices {
			numeric[k] = rows[ri][ci]
		}
		scaled, err := p.scaler.Transform(numeric)
		if err != nil {
			return nil, err
		}
		for k, ci := range indices {
			rows[ri][ci] = scaled[k]
		}
	}
	return rows, nil
}

func numericValue(rec model.InteractionRecord, feature string) float64 {
	switch feature {
	case "score":
		return rec.Score
	case "kp_id":
		return float64(rec.KPID)
	default:
		return 0
	}
}

func categoricalValue(rec model.InteractionRecord, feature string) string {
	switch feature {
	case "type":
		return strings.ToLower(strings.TrimSpace(rec.Type))
	default:
		return ""
	}
}

func hasCategory(categories []string, want string) bool {
	for _, c := range categories {
		if c == want {
			return true
		}
	}
	return false
}
