package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"learnpath_backend/internal/config"
	"learnpath_backend/internal/model"
	"learnpath_backend/pkg/inference"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linearNet 构造单层线性网络：权重全零，输出即偏置，便于手算排序
func linearNet(inputDim int, biases []float64) *inference.Network {
	weights := make([][]float64, len(biases))
	for i := range weights {
		weights[i] = make([]float64, inputDim)
	}
	return &inference.Network{
		InputDim: inputDim,
		Layers: []inference.Layer{
			{Weights: weights, Biases: biases, Activation: inference.ActivationLinear},
		},
	}
}

func modelMetadata() *inference.Metadata {
	return &inference.Metadata{
		MaxSeqLen:       2,
		NumericFeatures: []string{"score"},
		CategoricalFeatures: map[string][]string{
			"type": {"quiz", "unknown"},
		},
		SequenceFeatures: []string{"score", "type_quiz", "type_unknown"},
		KPLabels:         []uint{7, 3, 9},
	}
}

func TestModelService_PredictFallback(t *testing.T) {
	engine := &ModelService{topK: 3}
	require.False(t, engine.ModelReady())

	t.Run("lowest mean score wins", func(t *testing.T) {
		history := []model.InteractionRecord{
			{KPID: 1, Score: 0.9, Type: "quiz"},
			{KPID: 2, Score: 0.7, Type: "quiz"},
			{KPID: 3, Score: 0.5, Type: "quiz"},
		}
		res := engine.Predict(history, nil)

		assert.Equal(t, model.SourceFallback, res.Source)
		assert.Equal(t, uint(3), res.Top.KPID)
		assert.InDelta(t, 0.5, res.Top.Confidence, 1e-9)

		require.Len(t, res.Candidates, 3)
		assert.Equal(t, uint(3), res.Candidates[0].KPID)
		assert.Equal(t, uint(2), res.Candidates[1].KPID)
		assert.Equal(t, uint(1), res.Candidates[2].KPID)
		assert.InDelta(t, 0.3, res.Candidates[1].Confidence, 1e-9)
		assert.InDelta(t, 0.1, res.Candidates[2].Confidence, 1e-9)
	})

	t.Run("scores aggregate per knowledge point", func(t *testing.T) {
		history := []model.InteractionRecord{
			{KPID: 1, Score: 0.2, Type: "quiz"},
			{KPID: 1, Score: 0.8, Type: "quiz"},
			{KPID: 2, Score: 0.4, Type: "quiz"},
		}
		res := engine.Predict(history, nil)
		// kp 1 均分 0.5，kp 2 均分 0.4 → kp 2 更弱
		assert.Equal(t, uint(2), res.Top.KPID)
	})

	t.Run("tie broken by ascending kp id", func(t *testing.T) {
		history := []model.InteractionRecord{
			{KPID: 5, Score: 0.5, Type: "quiz"},
			{KPID: 2, Score: 0.5, Type: "quiz"},
		}
		res := engine.Predict(history, nil)
		assert.Equal(t, uint(2), res.Top.KPID)
	})

	t.Run("top k truncates candidates", func(t *testing.T) {
		history := []model.InteractionRecord{
			{KPID: 1, Score: 0.1, Type: "quiz"},
			{KPID: 2, Score: 0.2, Type: "quiz"},
			{KPID: 3, Score: 0.3, Type: "quiz"},
			{KPID: 4, Score: 0.4, Type: "quiz"},
			{KPID: 5, Score: 0.6, Type: "quiz"},
		}
		res := engine.Predict(history, nil)
		require.Len(t, res.Candidates, 3)

		engine.SetTopK(2)
		defer engine.SetTopK(3)
		res = engine.Predict(history, nil)
		require.Len(t, res.Candidates, 2)
		assert.Equal(t, uint(1), res.Candidates[0].KPID)
	})
}

func TestModelService_PredictModel(t *testing.T) {
	meta := modelMetadata()
	scaler := testScaler()

	history := []model.InteractionRecord{
		{KPID: 7, Score: 0.9, Type: "quiz"},
		{KPID: 3, Score: 0.2, Type: "quiz"},
	}

	prepare := func(t *testing.T) [][]float64 {
		t.Helper()
		features, err := NewFeaturePreprocessor(meta, scaler).Prepare(history)
		require.NoError(t, err)
		return features
	}

	t.Run("label map decides candidate ids", func(t *testing.T) {
		// 偏置 [0,1,2]：下标 2 概率最高，对应标签表里的 kp 9
		engine := &ModelService{meta: meta, scaler: scaler, net: linearNet(6, []float64{0, 1, 2}), topK: 3}
		require.True(t, engine.ModelReady())

		res := engine.Predict(history, prepare(t))
		assert.Equal(t, model.SourceModel, res.Source)
		assert.Equal(t, uint(9), res.Top.KPID)

		require.Len(t, res.Candidates, 3)
		assert.Equal(t, uint(9), res.Candidates[0].KPID)
		assert.Equal(t, uint(3), res.Candidates[1].KPID)
		assert.Equal(t, uint(7), res.Candidates[2].KPID)

		// 概率降序且归一
		var sum float64
		for i, c := range res.Candidates {
			if i > 0 {
				assert.GreaterOrEqual(t, res.Candidates[i-1].Confidence, c.Confidence)
			}
			sum += c.Confidence
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	})

	t.Run("equal probabilities tie broken by kp id", func(t *testing.T) {
		engine := &ModelService{meta: meta, scaler: scaler, net: linearNet(6, []float64{0, 0, 0}), topK: 3}

		res := engine.Predict(history, prepare(t))
		assert.Equal(t, model.SourceModel, res.Source)
		assert.Equal(t, uint(3), res.Top.KPID)
		assert.Equal(t, uint(7), res.Candidates[1].KPID)
		assert.Equal(t, uint(9), res.Candidates[2].KPID)
	})

	t.Run("runtime inference failure falls back for the call", func(t *testing.T) {
		// 输入维度与特征不匹配，前向传播必然失败
		engine := &ModelService{meta: meta, scaler: scaler, net: linearNet(99, []float64{0, 0, 0}), topK: 3}
		require.True(t, engine.ModelReady())

		res := engine.Predict(history, prepare(t))
		assert.Equal(t, model.SourceFallback, res.Source)
		assert.Equal(t, uint(3), res.Top.KPID) // 降级按均分：kp 3 得 0.2 更弱
	})

	t.Run("nil features force fallback", func(t *testing.T) {
		engine := &ModelService{meta: meta, scaler: scaler, net: linearNet(6, []float64{0, 1, 2}), topK: 3}
		res := engine.Predict(history, nil)
		assert.Equal(t, model.SourceFallback, res.Source)
	})
}

func writeArtifact(t *testing.T, dir, name string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestNewModelService(t *testing.T) {
	t.Run("loads complete artifacts", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifact(t, dir, "metadata.json", modelMetadata())
		writeArtifact(t, dir, "scaler.json", testScaler())
		writeArtifact(t, dir, "model.json", linearNet(6, []float64{0, 1, 2}))

		engine := NewModelService(config.ModelConfig{ArtifactDir: dir, TopK: 3})
		assert.True(t, engine.ModelReady())
		require.NotNil(t, engine.Metadata())
		assert.Equal(t, []uint{7, 3, 9}, engine.Metadata().KPLabels)
	})

	t.Run("missing artifacts mean permanent fallback", func(t *testing.T) {
		engine := NewModelService(config.ModelConfig{ArtifactDir: t.TempDir(), TopK: 3})
		assert.False(t, engine.ModelReady())
		assert.Nil(t, engine.Metadata())
	})

	t.Run("input dim mismatch means fallback", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifact(t, dir, "metadata.json", modelMetadata())
		writeArtifact(t, dir, "scaler.json", testScaler())
		writeArtifact(t, dir, "model.json", linearNet(5, []float64{0, 1, 2}))

		engine := NewModelService(config.ModelConfig{ArtifactDir: dir, TopK: 3})
		assert.False(t, engine.ModelReady())
	})

	t.Run("output dim mismatch means fallback", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifact(t, dir, "metadata.json", modelMetadata())
		writeArtifact(t, dir, "scaler.json", testScaler())
		writeArtifact(t, dir, "model.json", linearNet(6, []float64{0, 1}))

		engine := NewModelService(config.ModelConfig{ArtifactDir: dir, TopK: 3})
		assert.False(t, engine.ModelReady())
	})

	t.Run("corrupt weights mean fallback", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifact(t, dir, "metadata.json", modelMetadata())
		writeArtifact(t, dir, "scaler.json", testScaler())
		require.NoError(t, os.WriteFile(filepath.Join(dir, "model.json"), []byte("{not json"), 0o644))

		engine := NewModelService(config.ModelConfig{ArtifactDir: dir, TopK: 3})
		assert.False(t, engine.ModelReady())
	})
}
