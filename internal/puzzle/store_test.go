package puzzle

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-introducer/internal/core/storage"
	"github.com/dep2p/go-introducer/internal/core/storage/kv"
	"github.com/dep2p/go-introducer/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, _ := newClockedStore(t)
	return s
}

// newClockedStore 返回使用模拟时钟的谜题存储，时钟起始于 epoch
func newClockedStore(t *testing.T) (*Store, *clock.Mock) {
	t.Helper()
	eng, err := storage.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	clk := clock.NewMock()
	clk.Set(epoch)
	return NewStore(kv.New(eng, []byte(KeyPrefix)), clk), clk
}

func testPuzzle(name string, created time.Time) *types.Puzzle {
	return &types.Puzzle{
		ID:         types.PuzzleID(name),
		Type:       types.PuzzleTypeCaptcha,
		Inserter:   "alice",
		CreatedAt:  created,
		ValidUntil: created.Add(72 * time.Hour),
	}
}

func ids(ps []*types.Puzzle) []types.PuzzleID {
	out := make([]types.PuzzleID, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

// TestStore_StoreAndGet 测试保存、读取与重复保存
func TestStore_StoreAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := testPuzzle("p1", epoch)
	p.Data = []byte{1, 2, 3}
	require.NoError(t, s.Store(ctx, p))

	got, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, p.Data, got.Data)
	assert.Equal(t, types.IdentityID("alice"), got.Inserter)
	assert.True(t, got.CreatedAt.Equal(epoch))

	assert.ErrorIs(t, s.Store(ctx, testPuzzle("p1", epoch)), types.ErrPuzzleExists)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrPuzzleNotFound)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// TestStore_EvictOldest_Scenario 测试容量为 2 时插入 P1、P2、P3 淘汰 P1
func TestStore_EvictOldest_Scenario(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i, name := range []string{"P1", "P2", "P3"} {
		require.NoError(t, s.Store(ctx, testPuzzle(name, epoch.Add(time.Duration(i)*time.Minute))))
		_, err := s.EvictOldest(ctx, 2)
		require.NoError(t, err)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.LessOrEqual(t, n, 2)
	}

	left, err := s.Unsolved(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.PuzzleID{"P2", "P3"}, ids(left))

	_, err = s.Get(ctx, "P1")
	assert.ErrorIs(t, err, types.ErrPuzzleNotFound)
}

// TestStore_EvictOldest_Order 测试淘汰按本地保存时间，不看发布者声明的创建时间
func TestStore_EvictOldest_Order(t *testing.T) {
	ctx := context.Background()
	s, clk := newClockedStore(t)

	require.NoError(t, s.Store(ctx, testPuzzle("first", epoch.Add(time.Hour))))
	clk.Add(time.Minute)
	require.NoError(t, s.Store(ctx, testPuzzle("second", epoch.Add(-time.Hour))))
	require.NoError(t, s.Store(ctx, testPuzzle("tie-first", epoch)))
	require.NoError(t, s.Store(ctx, testPuzzle("tie-second", epoch)))

	n, err := s.EvictOldest(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// 同一时刻保存的按插入顺序
	left, err := s.Unsolved(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []types.PuzzleID{"tie-second", "tie-first"}, ids(left))

	n, err = s.EvictOldest(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.EvictOldest(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// TestStore_EvictOldest_FutureCreatedAt 测试创建时间在未来的谜题不会挤掉后保存的谜题
func TestStore_EvictOldest_FutureCreatedAt(t *testing.T) {
	ctx := context.Background()
	s, clk := newClockedStore(t)

	future := testPuzzle("future", epoch.AddDate(10, 0, 0))
	for _, p := range []*types.Puzzle{future, testPuzzle("p2", epoch), testPuzzle("p3", epoch)} {
		require.NoError(t, s.Store(ctx, p))
		_, err := s.EvictOldest(ctx, 2)
		require.NoError(t, err)
		clk.Add(time.Second)
	}

	left, err := s.Unsolved(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []types.PuzzleID{"p3", "p2"}, ids(left))

	_, err = s.Get(ctx, "future")
	assert.ErrorIs(t, err, types.ErrPuzzleNotFound)
}

// TestStore_MarkSolved 测试解答只能设置一次
func TestStore_MarkSolved(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Store(ctx, testPuzzle("p", epoch)))

	_, err := s.MarkSolved(ctx, "p", "", "me")
	assert.ErrorIs(t, err, types.ErrEmptySolution)

	solved, err := s.MarkSolved(ctx, "p", "xyzzy", "me")
	require.NoError(t, err)
	assert.Equal(t, "xyzzy", solved.Solution)

	_, err = s.MarkSolved(ctx, "p", "other", "someone")
	assert.ErrorIs(t, err, types.ErrAlreadySolved)

	got, err := s.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "xyzzy", got.Solution)
	assert.Equal(t, types.IdentityID("me"), got.Solver)

	_, err = s.MarkSolved(ctx, "missing", "a", "me")
	assert.ErrorIs(t, err, types.ErrPuzzleNotFound)

	unsolved, err := s.Unsolved(ctx, types.PuzzleTypeCaptcha)
	require.NoError(t, err)
	assert.Empty(t, unsolved)
}

// TestStore_PurgeExpired 测试过期删除同时清理索引
func TestStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 4; i++ {
		p := testPuzzle(fmt.Sprintf("p%d", i), epoch)
		p.ValidUntil = epoch.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.Store(ctx, p))
	}
	forever := testPuzzle("forever", epoch)
	forever.ValidUntil = time.Time{}
	require.NoError(t, s.Store(ctx, forever))

	n, err := s.PurgeExpired(ctx, epoch.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := s.Unsolved(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.PuzzleID{"p2", "p3", "forever"}, ids(left))

	// 索引同步删除：淘汰只看剩余的 3 个
	evicted, err := s.EvictOldest(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, evicted)
}

// TestStore_Unsolved_Type 测试按类型过滤
func TestStore_Unsolved_Type(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := testPuzzle("a", epoch)
	b := testPuzzle("b", epoch.Add(time.Minute))
	b.Type = "Riddle"
	require.NoError(t, s.Store(ctx, a))
	require.NoError(t, s.Store(ctx, b))

	got, err := s.Unsolved(ctx, types.PuzzleTypeCaptcha)
	require.NoError(t, err)
	assert.Equal(t, []types.PuzzleID{"a"}, ids(got))
}
