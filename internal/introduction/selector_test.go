package introduction

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dep2p/go-introducer/pkg/types"
	"github.com/dep2p/go-introducer/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

const testLocal types.IdentityID = "local"

func newMockClock() *clock.Mock {
	clk := clock.NewMock()
	clk.Set(testNow)
	return clk
}

func candidate(id string, age time.Duration) types.Identity {
	return types.Identity{
		ID:         types.IdentityID(id),
		Nickname:   id,
		LastChange: testNow.Add(-age),
		Contexts:   []string{types.IntroductionContext},
	}
}

func selectorConfig() Config {
	cfg := DefaultConfig()
	cfg.LocalIdentity = testLocal
	return cfg
}

func ids(idents []types.Identity) []types.IdentityID {
	out := make([]types.IdentityID, 0, len(idents))
	for _, i := range idents {
		out = append(out, i.ID)
	}
	return out
}

// TestSelector_FreshestFirst 测试按新鲜度降序取前 N 个
func TestSelector_FreshestFirst(t *testing.T) {
	trust := mocks.NewMockTrustStore()
	for i := 1; i <= 5; i++ {
		// t5 最新鲜
		trust.Add(testLocal, candidate(fmt.Sprintf("t%d", i), time.Duration(6-i)*time.Minute), 20)
	}

	s := NewSelector(trust, selectorConfig(), newMockClock())
	sel, err := s.Select(context.Background(), testLocal, 3, nil)
	require.NoError(t, err)

	assert.Equal(t, []types.IdentityID{"t5", "t4", "t3"}, ids(sel.Identities))
	assert.False(t, sel.Fallback)
}

// TestSelector_Filters 测试评分、能力、本地身份过滤
func TestSelector_Filters(t *testing.T) {
	trust := mocks.NewMockTrustStore()

	trust.Add(testLocal, candidate("good", time.Minute), 11)
	trust.Add(testLocal, candidate("at-threshold", 2*time.Minute), 10)
	trust.Add(testLocal, candidate("negative", 3*time.Minute), -5)
	trust.AddWithoutScore(candidate("unscored", 4*time.Minute))

	noCap := candidate("no-capability", 5*time.Minute)
	noCap.Contexts = []string{"Forum"}
	trust.Add(testLocal, noCap, 100)

	own := candidate("own", 6*time.Minute)
	own.Own = true
	trust.Add(testLocal, own, 100)

	trust.Add(testLocal, candidate("stale", 48*time.Hour), 100)

	s := NewSelector(trust, selectorConfig(), newMockClock())
	sel, err := s.Select(context.Background(), testLocal, 10, nil)
	require.NoError(t, err)

	assert.Equal(t, []types.IdentityID{"good"}, ids(sel.Identities))
}

// TestSelector_NoMaxAge 测试不限新鲜度时考虑所有身份
func TestSelector_NoMaxAge(t *testing.T) {
	trust := mocks.NewMockTrustStore()
	trust.Add(testLocal, candidate("old", 30*24*time.Hour), 20)

	cfg := selectorConfig()
	cfg.CandidateMaxAge = 0
	s := NewSelector(trust, cfg, newMockClock())
	sel, err := s.Select(context.Background(), testLocal, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, []types.IdentityID{"old"}, ids(sel.Identities))
}

// TestSelector_ExcludesWindow 测试排除最近请求过的身份
func TestSelector_ExcludesWindow(t *testing.T) {
	trust := mocks.NewMockTrustStore()
	trust.Add(testLocal, candidate("a", time.Minute), 20)
	trust.Add(testLocal, candidate("b", 2*time.Minute), 20)
	trust.Add(testLocal, candidate("c", 3*time.Minute), 20)

	s := NewSelector(trust, selectorConfig(), newMockClock())
	exclude := map[types.IdentityID]struct{}{"a": {}}
	sel, err := s.Select(context.Background(), testLocal, 2, exclude)
	require.NoError(t, err)

	assert.Equal(t, []types.IdentityID{"b", "c"}, ids(sel.Identities))
	assert.False(t, sel.Fallback)
}

// TestSelector_Fallback 测试首轮为空时忽略窗口重选
func TestSelector_Fallback(t *testing.T) {
	trust := mocks.NewMockTrustStore()
	trust.Add(testLocal, candidate("a", time.Minute), 20)
	trust.Add(testLocal, candidate("b", 2*time.Minute), 20)
	exclude := map[types.IdentityID]struct{}{"a": {}, "b": {}}

	t.Run("enabled", func(t *testing.T) {
		s := NewSelector(trust, selectorConfig(), newMockClock())
		sel, err := s.Select(context.Background(), testLocal, 5, exclude)
		require.NoError(t, err)
		assert.True(t, sel.Fallback)
		assert.Equal(t, []types.IdentityID{"a", "b"}, ids(sel.Identities))
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := selectorConfig()
		cfg.FallbackOnEmpty = false
		s := NewSelector(trust, cfg, newMockClock())
		sel, err := s.Select(context.Background(), testLocal, 5, exclude)
		require.NoError(t, err)
		assert.False(t, sel.Fallback)
		assert.Empty(t, sel.Identities)
	})
}

// TestSelector_FewerThanBatch 测试候选不足时返回较小的批次
func TestSelector_FewerThanBatch(t *testing.T) {
	trust := mocks.NewMockTrustStore()
	trust.Add(testLocal, candidate("a", time.Minute), 20)

	s := NewSelector(trust, selectorConfig(), newMockClock())
	sel, err := s.Select(context.Background(), testLocal, 16, nil)
	require.NoError(t, err)
	assert.Len(t, sel.Identities, 1)

	sel, err = s.Select(context.Background(), testLocal, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, sel.Identities)
}

// TestSelector_StoreError 测试信任存储错误向上传递
func TestSelector_StoreError(t *testing.T) {
	boom := errors.New("trust store down")

	trust := mocks.NewMockTrustStore()
	trust.AllKnownIdentitiesFunc = func(context.Context, bool, time.Time) ([]types.Identity, error) {
		return nil, boom
	}
	s := NewSelector(trust, selectorConfig(), newMockClock())
	_, err := s.Select(context.Background(), testLocal, 3, nil)
	assert.ErrorIs(t, err, boom)

	trust = mocks.NewMockTrustStore()
	trust.Add(testLocal, candidate("a", time.Minute), 20)
	trust.ScoreOfFunc = func(context.Context, types.IdentityID, types.IdentityID) (int, error) {
		return 0, boom
	}
	s = NewSelector(trust, selectorConfig(), newMockClock())
	_, err = s.Select(context.Background(), testLocal, 3, nil)
	assert.ErrorIs(t, err, boom)
}
