package service

import (
	"context"
	"learnpath_backend/internal/model"
	"sort"
	"sync"
)

// GraphLookup 图存储能力：给定知识点ID，取直接先修与展示名。
// 一次请求内对同一快照必须返回确定的结果。
type GraphLookup interface {
	FindByID(ctx context.Context, kpID uint) (*model.KPRef, error)
	PrerequisitesOf(ctx context.Context, kpID uint) ([]model.KPRef, error)
}

// ContentLookup 资料存储能力，只读
type ContentLookup interface {
	ContentFor(ctx context.Context, kpID uint) ([]model.ContentItem, error)
}

// PathService 从目标知识点沿先修边向后广度优先展开，
// 生成"先学依赖、最后攻弱点"的有序补救路径。
type PathService struct {
	graph   GraphLookup
	content ContentLookup

	mu         sync.RWMutex
	maxDepth   int
	maxBreadth int
}

func NewPathService(graph GraphLookup, content ContentLookup, maxDepth, maxBreadth int) *PathService {
	return &PathService{
		graph:      graph,
		content:    content,
		maxDepth:   maxDepth,
		maxBreadth: maxBreadth,
	}
}

// SetBounds 配置热更入口
func (s *PathService) SetBounds(maxDepth, maxBreadth int) {
	if maxDepth <= 0 || maxBreadth <= 0 {
		return
	}
	s.mu.Lock()
	s.maxDepth = maxDepth
	s.maxBreadth = maxBreadth
	s.mu.Unlock()
}

func (s *PathService) bounds() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxDepth, s.maxBreadth
}

// BuildPath 输出顺序固定为：最深层的先修最先出现，目标永远是最后一段。
// visited 集合保证同一知识点只出现一次，图里误存环也不会死循环。
// 目标不在图中时返回 util.ErrKPNotFound（由图存储映射）。
func (s *PathService) BuildPath(ctx context.Context, targetKPID uint) ([]model.PathSegment, error) {
	target, err := s.graph.FindByID(ctx, targetKPID)
	if err != nil {
		return nil, err
	}

	maxDepth, maxBreadth := s.bounds()

	visited := map[uint]bool{target.ID: true}
	levels := make([][]model.KPRef, 0, maxDepth)
	frontier := []model.KPRef{*target}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		next := make([]model.KPRef, 0, maxBreadth)
		for _, node := range frontier {
			if len(next) >= maxBreadth {
				break
			}
			prereqs, err := s.graph.PrerequisitesOf(ctx, node.ID)
			if err != nil {
				return nil, err
			}
			for _, p := range prereqs {
				if len(next) >= maxBreadth {
					break
				}
				if visited[p.ID] {
					continue
				}
				visited[p.ID] = true
				next = append(next, p)
			}
		}
		if len(next) == 0 {
			break
		}
		levels = append(levels, next)
		frontier = next
	}

	// 反向线性化：越深的先修越靠前，目标收尾
	ordered := make([]model.KPRef, 0, len(visited))
	for i := len(levels) - 1; i >= 0; i-- {
		level := levels[i]
		// 同层按难度、名称排序，与图查询的确定性约定一致
		sort.SliceStable(level, func(a, b int) bool {
			if level[a].Difficulty != level[b].Difficulty {
				return level[a].Difficulty < level[b].Difficulty
			}
			return level[a].Name < level[b].Name
		})
		ordered = append(ordered, level...)
	}
	ordered = append(ordered, *target)

	segments := make([]model.PathSegment, 0, len(ordered))
	for _, kp := range ordered {
		items, err := s.content.ContentFor(ctx, kp.ID)
		if err != nil {
			return nil, err
		}
		// 资料为空不是错误：照常产出空段，提示内容缺口
		segments = append(segments, model.PathSegment{
			KPID:    kp.ID,
			KPName:  kp.Name,
			Content: sortContent(items),
		})
	}

	return segments, nil
}

// sortContent 段内资料按固定类型顺序排列，同类型按难度、ID
func sortContent(items []model.ContentItem) []model.ContentItem {
	if items == nil {
		return []model.ContentItem{}
	}
	sorted := make([]model.ContentItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, oki := model.ContentTypeRank[sorted[i].Type]
		rj, okj := model.ContentTypeRank[sorted[j].Type]
		if !oki {
			ri = 99
		}
		if !okj {
			rj = 99
		}
		if ri != rj {
			return ri < rj
		}
		if sorted[i].Difficulty != sorted[j].Difficulty {
			return sorted[i].Difficulty < sorted[j].Difficulty
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}
