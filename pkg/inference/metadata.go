package inference

import (
	"encoding/json"
	"fmt"
	"os"
)

// Metadata 训练侧导出的模型元信息：序列长度、特征排列、
// 类别词表与 输出下标→知识点ID 的标签映射。
// 推理侧必须严格按 SequenceFeatures 的列顺序构造输入，
// 否则与训练环境不一致。
type Metadata struct {
	MaxSeqLen           int                 `json:"max_seq_len"`
	NumericFeatures     []string            `json:"numeric_features"`
	CategoricalFeatures map[string][]string `json:"categorical_features_map"`
	SequenceFeatures    []string            `json:"sequence_features"`
	KPLabels            []uint              `json:"kp_labels"`
}

func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}

	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (m *Metadata) Validate() error {
	if m.MaxSeqLen <= 0 {
		return fmt.Errorf("metadata: max_seq_len must be positive, got %d", m.MaxSeqLen)
	}
	if len(m.SequenceFeatures) == 0 {
		return fmt.Errorf("metadata: sequence_features is empty")
	}
	if len(m.KPLabels) == 0 {
		return fmt.Errorf("metadata: kp_labels is empty")
	}

	seen := make(map[uint]bool, len(m.KPLabels))
	for _, id := range m.KPLabels {
		if id == 0 {
			return fmt.Errorf("metadata: kp_labels contains a zero id")
		}
		if seen[id] {
			return fmt.Errorf("metadata: duplicate kp id %d in kp_labels", id)
		}
		seen[id] = true
	}

	// 每个数值/类别特征列都必须出现在最终列顺序里
	cols := make(map[string]bool, len(m.SequenceFeatures))
	for _, f := range m.SequenceFeatures {
		cols[f] = true
	}
	for _, f := range m.NumericFeatures {
		if !cols[f] {
			return fmt.Errorf("metadata: numeric feature %q missing from sequence_features", f)
		}
	}
	for base, categories := range m.CategoricalFeatures {
		for _, cat := range categories {
			col := base + "_" + cat
			if !cols[col] {
				return fmt.Errorf("metadata: one-hot column %q missing from sequence_features", col)
			}
		}
	}

	return nil
}

// NumFeatures 每个时间步的特征列数
func (m *Metadata) NumFeatures() int {
	return len(m.SequenceFeatures)
}

// KPForIndex 将模型输出下标映射回知识点ID
func (m *Metadata) KPForIndex(idx int) (uint, error) {
	if idx < 0 || idx >= len(m.KPLabels) {
		return 0, fmt.Errorf("class index %d out of range for %d labels", idx, len(m.KPLabels))
	}
	return m.KPLabels[idx], nil
}
