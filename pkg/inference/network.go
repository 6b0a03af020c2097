package inference

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// 序列分类器以 JSON 权重形式交付：展平后的时间步序列经过若干全连接层，
// 最后一层输出各知识点类别的得分。训练端负责导出该格式。

const (
	ActivationReLU    = "relu"
	ActivationLinear  = "linear"
	ActivationSoftmax = "softmax"
)

type Layer struct {
	// Weights[i][j] 为第 i 个输出神经元对第 j 个输入的权重
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
	Activation string      `json:"activation"`
}

type Network struct {
	InputDim int     `json:"input_dim"`
	Layers   []Layer `json:"layers"`
}

func LoadNetwork(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var n Network
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("parse network: %w", err)
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

func (n *Network) Validate() error {
	if n.InputDim <= 0 {
		return fmt.Errorf("network: input_dim must be positive, got %d", n.InputDim)
	}
	if len(n.Layers) == 0 {
		return fmt.Errorf("network: no layers")
	}

	prev := n.InputDim
	for li, layer := range n.Layers {
		if len(layer.Weights) == 0 {
			return fmt.Errorf("network: layer %d has no weights", li)
		}
		if len(layer.Biases) != len(layer.Weights) {
			return fmt.Errorf("network: layer %d bias/weight row mismatch (%d vs %d)", li, len(layer.Biases), len(layer.Weights))
		}
		for ri, row := range layer.Weights {
			if len(row) != prev {
				return fmt.Errorf("network: layer %d row %d expects %d inputs, got %d", li, ri, prev, len(row))
			}
		}
		switch layer.Activation {
		case ActivationReLU, ActivationLinear, ActivationSoftmax:
		default:
			return fmt.Errorf("network: layer %d has unknown activation %q", li, layer.Activation)
		}
		prev = len(layer.Weights)
	}
	return nil
}

// OutputDim 最后一层的神经元个数，即类别数
func (n *Network) OutputDim() int {
	return len(n.Layers[len(n.Layers)-1].Weights)
}

// OutputsProbabilities 最后一层已是 softmax 时输出即为概率
func (n *Network) OutputsProbabilities() bool {
	return n.Layers[len(n.Layers)-1].Activation == ActivationSoftmax
}

// Forward 前向推理。输入长度必须等于 input_dim。
func (n *Network) Forward(input []float64) ([]float64, error) {
	if len(input) != n.InputDim {
		return nil, fmt.Errorf("network: expected %d inputs, got %d", n.InputDim, len(input))
	}

	current := input
	for _, layer := range n.Layers {
		next := make([]float64, len(layer.Weights))
		for i, row := range layer.Weights {
			sum := layer.Biases[i]
			for j, w := range row {
				sum += w * current[j]
			}
			next[i] = sum
		}

		switch layer.Activation {
		case ActivationReLU:
			for i, v := range next {
				if v < 0 {
					next[i] = 0
				}
			}
		case ActivationSoftmax:
			next = Softmax(next)
		}
		current = next
	}

	return current, nil
}

// Softmax 数值稳定实现（先减最大值）
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}

	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(v - max)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
