package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"learnpath_backend/internal/config"
	"learnpath_backend/internal/model"
	"learnpath_backend/internal/service"
	"learnpath_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGraph struct {
	nodes   map[uint]model.KPRef
	prereqs map[uint][]uint
}

func (g *stubGraph) FindByID(_ context.Context, kpID uint) (*model.KPRef, error) {
	kp, ok := g.nodes[kpID]
	if !ok {
		return nil, fmt.Errorf("%w: knowledge point %d", util.ErrKPNotFound, kpID)
	}
	return &kp, nil
}

func (g *stubGraph) PrerequisitesOf(_ context.Context, kpID uint) ([]model.KPRef, error) {
	refs := make([]model.KPRef, 0)
	for _, id := range g.prereqs[kpID] {
		refs = append(refs, g.nodes[id])
	}
	return refs, nil
}

type stubContent struct{}

func (stubContent) ContentFor(_ context.Context, _ uint) ([]model.ContentItem, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	graph := &stubGraph{
		nodes: map[uint]model.KPRef{
			1: {ID: 1, Name: "变量与数据类型", Difficulty: 1},
			2: {ID: 2, Name: "控制结构", Difficulty: 2},
			3: {ID: 3, Name: "循环", Difficulty: 2},
		},
		prereqs: map[uint][]uint{2: {1}, 3: {2}},
	}

	engine := service.NewModelService(config.ModelConfig{ArtifactDir: t.TempDir(), TopK: 3})
	path := service.NewPathService(graph, stubContent{}, 2, 3)
	svc := service.NewPredictionService(engine, path)

	ctrl := NewPathController(svc, service.NewMockBlackboard())

	r := gin.New()
	r.POST("/api/generate-path", ctrl.GeneratePath)
	r.GET("/api/mock/students/:id/history", ctrl.GetMockHistory)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, util.Response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp util.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestPathController_GeneratePath(t *testing.T) {
	r := newTestRouter(t)

	t.Run("returns prediction and path", func(t *testing.T) {
		w, resp := doJSON(t, r, http.MethodPost, "/api/generate-path", gin.H{
			"student_id": "student-123",
			"history": []gin.H{
				{"kp_id": 1, "score": 0.9, "type": "quiz"},
				{"kp_id": 2, "score": 0.7, "type": "quiz"},
				{"kp_id": 3, "score": 0.5, "type": "quiz"},
			},
		})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "success", resp.Message)

		data, ok := resp.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "student-123", data["student_id"])

		pred, ok := data["prediction_info"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(3), pred["kp_id"])
		assert.Equal(t, "fallback", pred["source"])

		path, ok := data["learning_path"].([]interface{})
		require.True(t, ok)
		require.Len(t, path, 3)
		last := path[2].(map[string]interface{})
		assert.Equal(t, float64(3), last["kp_id"])
	})

	t.Run("missing student_id is a binding error", func(t *testing.T) {
		w, _ := doJSON(t, r, http.MethodPost, "/api/generate-path", gin.H{
			"history": []gin.H{{"kp_id": 1, "score": 0.5, "type": "quiz"}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty history without forced target", func(t *testing.T) {
		w, _ := doJSON(t, r, http.MethodPost, "/api/generate-path", gin.H{
			"student_id": "student-new",
			"history":    []gin.H{},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("forced target skips prediction", func(t *testing.T) {
		w, resp := doJSON(t, r, http.MethodPost, "/api/generate-path", gin.H{
			"student_id":  "student-new",
			"force_kp_id": 2,
		})

		require.Equal(t, http.StatusOK, w.Code)
		data := resp.Data.(map[string]interface{})
		assert.Nil(t, data["prediction_info"])

		path := data["learning_path"].([]interface{})
		require.Len(t, path, 2)
	})

	t.Run("unknown knowledge point", func(t *testing.T) {
		w, _ := doJSON(t, r, http.MethodPost, "/api/generate-path", gin.H{
			"student_id":  "student-new",
			"force_kp_id": 99,
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPathController_GetMockHistory(t *testing.T) {
	r := newTestRouter(t)

	t.Run("known student", func(t *testing.T) {
		w, resp := doJSON(t, r, http.MethodGet, "/api/mock/students/student-123/history", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := resp.Data.(map[string]interface{})
		history := data["history"].([]interface{})
		assert.Len(t, history, 3)
	})

	t.Run("unknown student", func(t *testing.T) {
		w, _ := doJSON(t, r, http.MethodGet, "/api/mock/students/nobody/history", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
