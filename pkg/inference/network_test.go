package inference

import (
	"math"
	"testing"
)

func TestNetwork_Forward(t *testing.T) {
	t.Run("single linear layer", func(t *testing.T) {
		n := &Network{
			InputDim: 2,
			Layers: []Layer{
				{
					Weights:    [][]float64{{1, 2}, {3, 4}},
					Biases:     []float64{0.5, -0.5},
					Activation: ActivationLinear,
				},
			},
		}
		if err := n.Validate(); err != nil {
			t.Fatalf("unexpected validate error: %v", err)
		}

		out, err := n.Forward([]float64{1, 1})
		if err != nil {
			t.Fatalf("unexpected forward error: %v", err)
		}
		want := []float64{3.5, 6.5}
		for i := range want {
			if math.Abs(out[i]-want[i]) > 1e-9 {
				t.Errorf("output[%d] = %v, want %v", i, out[i], want[i])
			}
		}
	})

	t.Run("relu clamps negatives", func(t *testing.T) {
		n := &Network{
			InputDim: 1,
			Layers: []Layer{
				{
					Weights:    [][]float64{{-1}, {1}},
					Biases:     []float64{0, 0},
					Activation: ActivationReLU,
				},
			},
		}
		out, err := n.Forward([]float64{2})
		if err != nil {
			t.Fatalf("unexpected forward error: %v", err)
		}
		if out[0] != 0 {
			t.Errorf("expected relu to clamp negative output, got %v", out[0])
		}
		if out[1] != 2 {
			t.Errorf("expected positive output to pass through, got %v", out[1])
		}
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		n := &Network{
			InputDim: 3,
			Layers: []Layer{
				{Weights: [][]float64{{1, 1, 1}}, Biases: []float64{0}, Activation: ActivationLinear},
			},
		}
		if _, err := n.Forward([]float64{1, 2}); err == nil {
			t.Fatal("expected error for wrong input length")
		}
	})
}

func TestNetwork_Validate(t *testing.T) {
	cases := []struct {
		name string
		net  Network
	}{
		{
			name: "no layers",
			net:  Network{InputDim: 2},
		},
		{
			name: "bias mismatch",
			net: Network{
				InputDim: 2,
				Layers: []Layer{
					{Weights: [][]float64{{1, 1}}, Biases: []float64{0, 0}, Activation: ActivationLinear},
				},
			},
		},
		{
			name: "row width mismatch",
			net: Network{
				InputDim: 2,
				Layers: []Layer{
					{Weights: [][]float64{{1, 1, 1}}, Biases: []float64{0}, Activation: ActivationLinear},
				},
			},
		},
		{
			name: "unknown activation",
			net: Network{
				InputDim: 2,
				Layers: []Layer{
					{Weights: [][]float64{{1, 1}}, Biases: []float64{0}, Activation: "tanh"},
				},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.net.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSoftmax(t *testing.T) {
	out := Softmax([]float64{1, 2, 3})

	var sum float64
	for _, v := range out {
		if v <= 0 || v >= 1 {
			t.Errorf("probability %v out of (0,1)", v)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("probabilities sum to %v, want 1", sum)
	}
	if !(out[2] > out[1] && out[1] > out[0]) {
		t.Errorf("softmax did not preserve ordering: %v", out)
	}

	// 大数值输入不溢出
	big := Softmax([]float64{1000, 1001})
	if math.IsNaN(big[0]) || math.IsNaN(big[1]) {
		t.Errorf("softmax overflowed on large logits: %v", big)
	}
}
