package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dep2p/go-introducer/pkg/interfaces"
	"github.com/dep2p/go-introducer/pkg/types"
)

// MockTrustStore 模拟 TrustStore
type MockTrustStore struct {
	mu         sync.Mutex
	identities map[types.IdentityID]types.Identity
	scores     map[[2]types.IdentityID]int

	// 可覆盖的方法
	ScoreOfFunc            func(ctx context.Context, local, id types.IdentityID) (int, error)
	AllKnownIdentitiesFunc func(ctx context.Context, excludeOwn bool, changedSince time.Time) ([]types.Identity, error)

	// 调用记录
	AllKnownIdentitiesCalls int
}

// NewMockTrustStore 创建空的 MockTrustStore
func NewMockTrustStore() *MockTrustStore {
	return &MockTrustStore{
		identities: make(map[types.IdentityID]types.Identity),
		scores:     make(map[[2]types.IdentityID]int),
	}
}

// Add 添加身份并设置相对于 local 的评分
func (m *MockTrustStore) Add(local types.IdentityID, ident types.Identity, score int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[ident.ID] = ident
	m.scores[[2]types.IdentityID{local, ident.ID}] = score
}

// AddWithoutScore 添加没有评分的身份
func (m *MockTrustStore) AddWithoutScore(ident types.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[ident.ID] = ident
}

// ScoreOf 返回评分
func (m *MockTrustStore) ScoreOf(ctx context.Context, local, id types.IdentityID) (int, error) {
	if m.ScoreOfFunc != nil {
		return m.ScoreOfFunc(ctx, local, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	score, ok := m.scores[[2]types.IdentityID{local, id}]
	if !ok {
		return 0, types.ErrNoScore
	}
	return score, nil
}

// AllKnownIdentities 返回按新鲜度降序排列的身份
func (m *MockTrustStore) AllKnownIdentities(ctx context.Context, excludeOwn bool, changedSince time.Time) ([]types.Identity, error) {
	m.mu.Lock()
	m.AllKnownIdentitiesCalls++
	m.mu.Unlock()
	if m.AllKnownIdentitiesFunc != nil {
		return m.AllKnownIdentitiesFunc(ctx, excludeOwn, changedSince)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Identity
	for _, id := range m.identities {
		if excludeOwn && id.Own {
			continue
		}
		if !changedSince.IsZero() && !id.LastChange.After(changedSince) {
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastChange.Equal(out[j].LastChange) {
			return out[i].LastChange.After(out[j].LastChange)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// HasCapability 检查能力标签
func (m *MockTrustStore) HasCapability(_ context.Context, id types.IdentityID, tag string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ident, ok := m.identities[id]
	return ok && ident.HasContext(tag), nil
}

// Identity 返回身份
func (m *MockTrustStore) Identity(_ context.Context, id types.IdentityID) (*types.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ident, ok := m.identities[id]
	if !ok {
		return nil, types.ErrIdentityNotFound
	}
	return &ident, nil
}

var _ interfaces.TrustStore = (*MockTrustStore)(nil)
