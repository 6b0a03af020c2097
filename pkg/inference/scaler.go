package inference

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scaler 训练时拟合的标准化参数，推理侧只读
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func LoadScaler(path string) (*Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Scaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scaler: %w", err)
	}

	if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("scaler: mean/scale length mismatch (%d vs %d)", len(s.Mean), len(s.Scale))
	}
	return &s, nil
}

// Dim 标准化覆盖的数值特征个数
func (s *Scaler) Dim() int {
	return len(s.Mean)
}

// Transform 对一行数值特征做 (x - mean) / scale，scale 为 0 的列原样返回
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("scaler: expected %d values, got %d", len(s.Mean), len(row))
	}

	out := make([]float64, len(row))
	for i, v := range row {
		if s.Scale[i] == 0 {
			out[i] = v - s.Mean[i]
			continue
		}
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}
