package service

import (
	"context"
	"fmt"
	"testing"

	"learnpath_backend/internal/model"
	"learnpath_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGraph 内存图，边按 prereqs 里的存储顺序返回（仓储层已保证确定顺序）
type fakeGraph struct {
	nodes   map[uint]model.KPRef
	prereqs map[uint][]uint
	calls   int
}

func (g *fakeGraph) FindByID(_ context.Context, kpID uint) (*model.KPRef, error) {
	g.calls++
	kp, ok := g.nodes[kpID]
	if !ok {
		return nil, fmt.Errorf("%w: knowledge point %d", util.ErrKPNotFound, kpID)
	}
	return &kp, nil
}

func (g *fakeGraph) PrerequisitesOf(_ context.Context, kpID uint) ([]model.KPRef, error) {
	g.calls++
	ids := g.prereqs[kpID]
	refs := make([]model.KPRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, g.nodes[id])
	}
	return refs, nil
}

type fakeContent struct {
	items map[uint][]model.ContentItem
}

func (c *fakeContent) ContentFor(_ context.Context, kpID uint) ([]model.ContentItem, error) {
	return c.items[kpID], nil
}

func kpIDs(segments []model.PathSegment) []uint {
	ids := make([]uint, len(segments))
	for i, s := range segments {
		ids[i] = s.KPID
	}
	return ids
}

func TestPathService_BuildPath(t *testing.T) {
	ctx := context.Background()
	noContent := &fakeContent{items: map[uint][]model.ContentItem{}}

	t.Run("direct prerequisite comes before the target", func(t *testing.T) {
		graph := &fakeGraph{
			nodes: map[uint]model.KPRef{
				2:  {ID: 2, Name: "控制结构", Difficulty: 2},
				10: {ID: 10, Name: "指针", Difficulty: 5},
			},
			prereqs: map[uint][]uint{10: {2}},
		}
		svc := NewPathService(graph, noContent, 2, 3)

		segments, err := svc.BuildPath(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, []uint{2, 10}, kpIDs(segments))
		assert.Equal(t, "控制结构", segments[0].KPName)
		assert.Equal(t, "指针", segments[1].KPName)
	})

	t.Run("deepest prerequisites come first", func(t *testing.T) {
		graph := &fakeGraph{
			nodes: map[uint]model.KPRef{
				1: {ID: 1, Name: "a", Difficulty: 3},
				2: {ID: 2, Name: "b", Difficulty: 2},
				3: {ID: 3, Name: "c", Difficulty: 1},
			},
			prereqs: map[uint][]uint{1: {2}, 2: {3}},
		}
		svc := NewPathService(graph, noContent, 2, 3)

		segments, err := svc.BuildPath(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []uint{3, 2, 1}, kpIDs(segments))
	})

	t.Run("depth bound stops the walk", func(t *testing.T) {
		graph := &fakeGraph{
			nodes: map[uint]model.KPRef{
				1: {ID: 1, Name: "a"}, 2: {ID: 2, Name: "b"}, 3: {ID: 3, Name: "c"},
				4: {ID: 4, Name: "d"}, 5: {ID: 5, Name: "e"},
			},
			prereqs: map[uint][]uint{1: {2}, 2: {3}, 3: {4}, 4: {5}},
		}
		svc := NewPathService(graph, noContent, 2, 3)

		segments, err := svc.BuildPath(ctx, 1)
		require.NoError(t, err)
		// 链式图下段数不超过 maxDepth+1
		assert.Equal(t, []uint{3, 2, 1}, kpIDs(segments))
	})

	t.Run("breadth cap limits each level", func(t *testing.T) {
		graph := &fakeGraph{
			nodes: map[uint]model.KPRef{
				1: {ID: 1, Name: "target", Difficulty: 5},
				2: {ID: 2, Name: "w", Difficulty: 4},
				3: {ID: 3, Name: "x", Difficulty: 1},
				4: {ID: 4, Name: "y", Difficulty: 2},
				5: {ID: 5, Name: "z", Difficulty: 3},
			},
			prereqs: map[uint][]uint{1: {2, 3, 4, 5}},
		}
		svc := NewPathService(graph, noContent, 2, 3)

		segments, err := svc.BuildPath(ctx, 1)
		require.NoError(t, err)
		require.Len(t, segments, 4)
		assert.NotContains(t, kpIDs(segments), uint(5))
		// 同层按难度升序
		assert.Equal(t, []uint{3, 4, 2, 1}, kpIDs(segments))
	})

	t.Run("cycles do not repeat knowledge points", func(t *testing.T) {
		graph := &fakeGraph{
			nodes: map[uint]model.KPRef{
				1: {ID: 1, Name: "a"},
				2: {ID: 2, Name: "b"},
			},
			prereqs: map[uint][]uint{1: {2}, 2: {1}},
		}
		svc := NewPathService(graph, noContent, 5, 5)

		segments, err := svc.BuildPath(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []uint{2, 1}, kpIDs(segments))
	})

	t.Run("shared prerequisite appears once", func(t *testing.T) {
		graph := &fakeGraph{
			nodes: map[uint]model.KPRef{
				1: {ID: 1, Name: "a"}, 2: {ID: 2, Name: "b"},
				3: {ID: 3, Name: "c"}, 4: {ID: 4, Name: "d"},
			},
			prereqs: map[uint][]uint{1: {2, 3}, 2: {4}, 3: {4}},
		}
		svc := NewPathService(graph, noContent, 2, 3)

		segments, err := svc.BuildPath(ctx, 1)
		require.NoError(t, err)

		seen := map[uint]int{}
		for _, id := range kpIDs(segments) {
			seen[id]++
		}
		assert.Equal(t, 1, seen[4])
		assert.Equal(t, uint(1), segments[len(segments)-1].KPID)
	})

	t.Run("unknown target", func(t *testing.T) {
		graph := &fakeGraph{nodes: map[uint]model.KPRef{}}
		svc := NewPathService(graph, noContent, 2, 3)

		_, err := svc.BuildPath(ctx, 42)
		require.ErrorIs(t, err, util.ErrKPNotFound)
	})

	t.Run("missing content yields an empty segment", func(t *testing.T) {
		graph := &fakeGraph{
			nodes:   map[uint]model.KPRef{1: {ID: 1, Name: "a"}},
			prereqs: map[uint][]uint{},
		}
		svc := NewPathService(graph, noContent, 2, 3)

		segments, err := svc.BuildPath(ctx, 1)
		require.NoError(t, err)
		require.Len(t, segments, 1)
		require.NotNil(t, segments[0].Content)
		assert.Empty(t, segments[0].Content)
	})

	t.Run("content sorted by type then difficulty", func(t *testing.T) {
		graph := &fakeGraph{
			nodes:   map[uint]model.KPRef{1: {ID: 1, Name: "a"}},
			prereqs: map[uint][]uint{},
		}
		content := &fakeContent{items: map[uint][]model.ContentItem{
			1: {
				{ID: "q1", Type: model.ContentQuiz, Difficulty: 1},
				{ID: "v2", Type: model.ContentVideo, Difficulty: 2},
				{ID: "v1", Type: model.ContentVideo, Difficulty: 1},
				{ID: "r1", Type: model.ContentReading, Difficulty: 1},
			},
		}}
		svc := NewPathService(graph, content, 2, 3)

		segments, err := svc.BuildPath(ctx, 1)
		require.NoError(t, err)
		require.Len(t, segments[0].Content, 4)

		order := make([]string, 0, 4)
		for _, item := range segments[0].Content {
			order = append(order, item.ID)
		}
		assert.Equal(t, []string{"v1", "v2", "r1", "q1"}, order)
	})

	t.Run("bounds can be updated at runtime", func(t *testing.T) {
		graph := &fakeGraph{
			nodes: map[uint]model.KPRef{
				1: {ID: 1, Name: "a"}, 2: {ID: 2, Name: "b"}, 3: {ID: 3, Name: "c"},
			},
			prereqs: map[uint][]uint{1: {2}, 2: {3}},
		}
		svc := NewPathService(graph, noContent, 2, 3)
		svc.SetBounds(1, 3)

		segments, err := svc.BuildPath(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []uint{2, 1}, kpIDs(segments))
	})
}
