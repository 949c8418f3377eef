package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/dep2p/go-introducer/pkg/interfaces"
	"github.com/dep2p/go-introducer/pkg/types"
)

// MockPuzzleStore 模拟 PuzzleStore，按插入顺序视为新旧
type MockPuzzleStore struct {
	mu      sync.Mutex
	puzzles map[types.PuzzleID]*types.Puzzle
	order   []types.PuzzleID

	// 可覆盖的方法
	StoreFunc        func(ctx context.Context, p *types.Puzzle) error
	PurgeExpiredFunc func(ctx context.Context, horizon time.Time) (int, error)
	EvictOldestFunc  func(ctx context.Context, keep int) (int, error)

	// 调用记录
	StoreCalls        []types.Puzzle
	PurgeExpiredCalls []time.Time
	EvictOldestCalls  []int
}

// NewMockPuzzleStore 创建空的 MockPuzzleStore
func NewMockPuzzleStore() *MockPuzzleStore {
	return &MockPuzzleStore{puzzles: make(map[types.PuzzleID]*types.Puzzle)}
}

// Store 保存谜题
func (m *MockPuzzleStore) Store(ctx context.Context, p *types.Puzzle) error {
	m.mu.Lock()
	m.StoreCalls = append(m.StoreCalls, *p)
	m.mu.Unlock()
	if m.StoreFunc != nil {
		return m.StoreFunc(ctx, p)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.puzzles[p.ID]; ok {
		return types.ErrPuzzleExists
	}
	cp := *p
	m.puzzles[p.ID] = &cp
	m.order = append(m.order, p.ID)
	return nil
}

// Get 读取谜题
func (m *MockPuzzleStore) Get(_ context.Context, id types.PuzzleID) (*types.Puzzle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.puzzles[id]
	if !ok {
		return nil, types.ErrPuzzleNotFound
	}
	cp := *p
	return &cp, nil
}

// MarkSolved 设置解答，已有解答时返回 ErrAlreadySolved
func (m *MockPuzzleStore) MarkSolved(_ context.Context, id types.PuzzleID, solution string, solver types.IdentityID) (*types.Puzzle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if solution == "" {
		return nil, types.ErrEmptySolution
	}
	p, ok := m.puzzles[id]
	if !ok {
		return nil, types.ErrPuzzleNotFound
	}
	if p.IsSolved() {
		return nil, types.ErrAlreadySolved
	}
	p.Solution = solution
	p.Solver = solver
	cp := *p
	return &cp, nil
}

// PurgeExpired 删除过期谜题
func (m *MockPuzzleStore) PurgeExpired(ctx context.Context, horizon time.Time) (int, error) {
	m.mu.Lock()
	m.PurgeExpiredCalls = append(m.PurgeExpiredCalls, horizon)
	m.mu.Unlock()
	if m.PurgeExpiredFunc != nil {
		return m.PurgeExpiredFunc(ctx, horizon)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	kept := make([]types.PuzzleID, 0, len(m.order))
	for _, id := range m.order {
		if m.puzzles[id].Expired(horizon) {
			delete(m.puzzles, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return n, nil
}

// EvictOldest 淘汰最早插入的谜题
func (m *MockPuzzleStore) EvictOldest(ctx context.Context, keep int) (int, error) {
	m.mu.Lock()
	m.EvictOldestCalls = append(m.EvictOldestCalls, keep)
	m.mu.Unlock()
	if m.EvictOldestFunc != nil {
		return m.EvictOldestFunc(ctx, keep)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.order) - keep
	if n <= 0 {
		return 0, nil
	}
	for _, id := range m.order[:n] {
		delete(m.puzzles, id)
	}
	m.order = append([]types.PuzzleID(nil), m.order[n:]...)
	return n, nil
}

// Count 谜题数量
func (m *MockPuzzleStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order), nil
}

// Unsolved 返回未解答谜题，从新到旧
func (m *MockPuzzleStore) Unsolved(_ context.Context, typ types.PuzzleType) ([]*types.Puzzle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Puzzle
	for i := len(m.order) - 1; i >= 0; i-- {
		p := m.puzzles[m.order[i]]
		if p.IsSolved() || (typ != "" && p.Type != typ) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// IDs 当前池中的谜题 ID，按插入顺序
func (m *MockPuzzleStore) IDs() []types.PuzzleID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.PuzzleID(nil), m.order...)
}

var _ interfaces.PuzzleStore = (*MockPuzzleStore)(nil)
