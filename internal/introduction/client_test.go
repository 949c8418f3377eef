package introduction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dep2p/go-introducer/internal/puzzle"
	"github.com/dep2p/go-introducer/pkg/lib/log"
	"github.com/dep2p/go-introducer/pkg/types"
	"github.com/dep2p/go-introducer/tests/mocks"
	"github.com/dep2p/go-introducer/tests/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// ============================================================================
//                              测试环境
// ============================================================================

type testEnv struct {
	client    *Client
	trust     *mocks.MockTrustStore
	puzzles   *mocks.MockPuzzleStore
	transport *mocks.MockTransport
	codec     *puzzle.Codec
	clock     *clock.Mock
}

func testConfig() Config {
	return Config{
		LocalIdentity:      testLocal,
		BatchSize:          3,
		PoolCapacity:       10,
		WindowCapacity:     10,
		MaxChainIndex:      3,
		MinScoreToDownload: 10,
		MinScoreToDisplay:  50,
		Period:             10 * time.Minute,
		JitterFraction:     0,
		// 调度循环不会自行运行，测试直接调用 RunCycle
		StartupDelayMin:  time.Hour,
		StartupDelayMax:  time.Hour,
		PuzzleValidity:   72 * time.Hour,
		CandidateMaxAge:  24 * time.Hour,
		FallbackOnEmpty:  true,
		CompletionBuffer: 16,
	}
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()
	log.Discard()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	codec, err := puzzle.NewCodec()
	require.NoError(t, err)
	t.Cleanup(codec.Close)

	env := &testEnv{
		trust:     mocks.NewMockTrustStore(),
		puzzles:   mocks.NewMockPuzzleStore(),
		transport: mocks.NewMockTransport(),
		codec:     codec,
		clock:     newMockClock(),
	}
	env.client, err = New(cfg, Deps{
		Trust:     env.trust,
		Puzzles:   env.puzzles,
		Transport: env.transport,
		Codec:     codec,
		Clock:     env.clock,
	})
	require.NoError(t, err)
	return env
}

// start 启动调度器并在测试结束时停止
func (e *testEnv) start(t *testing.T) {
	t.Helper()
	require.NoError(t, e.client.Start())
	t.Cleanup(e.client.Terminate)
}

// payload 编码 inserter 在序号 index 的谜题
func (e *testEnv) payload(t *testing.T, inserter types.IdentityID, index int) []byte {
	t.Helper()
	p := puzzle.NewPuzzle(inserter, types.PuzzleTypeCaptcha, "image/png", []byte("captcha"), index, e.clock.Now(), 24*time.Hour)
	b, err := e.codec.EncodePuzzle(p)
	require.NoError(t, err)
	return b
}

// onlyFetch 等待唯一的在途下载指向 (id, index)
func (e *testEnv) onlyFetch(t *testing.T, id types.IdentityID, index int) mocks.Request {
	t.Helper()
	want := puzzle.RequestAddress(id, e.clock.Now(), index)
	testutil.Eventually(t, func() bool {
		active := e.transport.ActiveFetches()
		return len(active) == 1 && active[0].Addr == want
	}, "fetch of "+string(want))
	return e.transport.ActiveFetches()[0]
}

// identityOf 返回请求序号 0 的候选身份
func (e *testEnv) identityOf(t *testing.T, r mocks.Request, candidates ...types.IdentityID) types.IdentityID {
	t.Helper()
	for _, id := range candidates {
		if r.Addr == puzzle.RequestAddress(id, e.clock.Now(), 0) {
			return id
		}
	}
	t.Fatalf("unexpected fetch address %s", r.Addr)
	return ""
}

// ============================================================================
//                              构造与配置
// ============================================================================

// TestNew_Validation 测试配置和依赖校验
func TestNew_Validation(t *testing.T) {
	codec, err := puzzle.NewCodec()
	require.NoError(t, err)
	defer codec.Close()

	deps := Deps{
		Trust:     mocks.NewMockTrustStore(),
		Puzzles:   mocks.NewMockPuzzleStore(),
		Transport: mocks.NewMockTransport(),
		Codec:     codec,
	}

	cfg := testConfig()
	cfg.LocalIdentity = ""
	_, err = New(cfg, deps)
	assert.ErrorIs(t, err, ErrNoLocalIdentity)

	cfg = testConfig()
	cfg.JitterFraction = 1
	_, err = New(cfg, deps)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(testConfig(), Deps{Trust: deps.Trust})
	assert.ErrorIs(t, err, ErrMissingDependency)
}

// ============================================================================
//                              调度周期
// ============================================================================

// TestRunCycle_TracksSelectedCandidates 测试周期结束后在途下载数等于选中的候选数
func TestRunCycle_TracksSelectedCandidates(t *testing.T) {
	env := newTestEnv(t, nil)
	for i, id := range []string{"a", "b", "c", "d"} {
		env.trust.Add(testLocal, candidate(id, time.Duration(i+1)*time.Minute), 20)
	}
	env.start(t)

	require.NoError(t, env.client.RunCycle(context.Background()))

	st := env.client.Stats()
	assert.Equal(t, 3, st.PendingFetches)
	assert.Equal(t, uint64(1), st.Cycles)
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, []types.IdentityID{"a", "b", "c"}, env.client.RecentIdentities())

	active := env.transport.ActiveFetches()
	require.Len(t, active, 3)
	for _, r := range active {
		assert.Equal(t, types.PriorityBulk, r.Priority)
		env.identityOf(t, r, "a", "b", "c")
	}
	assert.Len(t, env.puzzles.PurgeExpiredCalls, 1)
	assert.Equal(t, testNow, env.puzzles.PurgeExpiredCalls[0])
}

// TestRunCycle_CancelsPreviousBatch 测试每个周期先取消上一批，即使候选为空
func TestRunCycle_CancelsPreviousBatch(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.FallbackOnEmpty = false })
	env.trust.Add(testLocal, candidate("a", time.Minute), 20)
	env.trust.Add(testLocal, candidate("b", 2*time.Minute), 20)
	env.start(t)

	require.NoError(t, env.client.RunCycle(context.Background()))
	first := env.transport.ActiveFetches()
	require.Len(t, first, 2)

	// 两个身份都在窗口中，关闭回退后第二轮没有候选
	require.NoError(t, env.client.RunCycle(context.Background()))
	assert.Empty(t, env.transport.ActiveFetches())
	assert.Equal(t, 2, env.transport.Cancelled())
	assert.Equal(t, 0, env.client.Stats().PendingFetches)

	// 被取消请求的迟到完成是无操作
	env.transport.DeliverStale(first[0], env.payload(t, "a", 0))
	testutil.Eventually(t, func() bool {
		return promtest.ToFloat64(env.client.metrics.Completions.WithLabelValues(kindFetch, outcomeStale)) == 1
	}, "stale completion counted")
	assert.Empty(t, env.puzzles.StoreCalls)
}

// TestRunCycle_FallbackClearsWindow 测试回退时清空窗口并重新请求
func TestRunCycle_FallbackClearsWindow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.trust.Add(testLocal, candidate("a", time.Minute), 20)
	env.start(t)

	require.NoError(t, env.client.RunCycle(context.Background()))
	require.NoError(t, env.client.RunCycle(context.Background()))

	assert.Len(t, env.transport.ActiveFetches(), 1)
	assert.Equal(t, []types.IdentityID{"a"}, env.client.RecentIdentities())
	assert.Equal(t, 1.0, promtest.ToFloat64(env.client.metrics.Fallbacks))
}

// TestRunCycle_StoreError 测试存储错误返回给调用方且不破坏状态
func TestRunCycle_StoreError(t *testing.T) {
	env := newTestEnv(t, nil)
	env.trust.Add(testLocal, candidate("a", time.Minute), 20)
	env.start(t)

	require.NoError(t, env.client.RunCycle(context.Background()))

	boom := errors.New("puzzle store unavailable")
	env.puzzles.PurgeExpiredFunc = func(context.Context, time.Time) (int, error) {
		return 0, boom
	}
	err := env.client.RunCycle(context.Background())
	assert.ErrorIs(t, err, boom)

	st := env.client.Stats()
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, 1, st.PendingFetches, "失败的周期不取消上一批")
	assert.Equal(t, 1.0, promtest.ToFloat64(env.client.metrics.CycleErrors))
}

// TestRunCycle_FetchErrorNotRemembered 测试发起失败的身份不进入窗口
func TestRunCycle_FetchErrorNotRemembered(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.FallbackOnEmpty = false })
	env.trust.Add(testLocal, candidate("a", time.Minute), 20)
	env.trust.Add(testLocal, candidate("b", 2*time.Minute), 20)
	down := puzzle.RequestAddress("b", env.clock.Now(), 0)
	env.transport.FetchFunc = func(addr types.Address, _ types.Priority) error {
		if addr == down {
			return mocks.ErrMockTransport
		}
		return nil
	}
	env.start(t)

	require.NoError(t, env.client.RunCycle(context.Background()))
	assert.Equal(t, []types.IdentityID{"a"}, env.client.RecentIdentities())
	assert.Equal(t, 1, env.client.Stats().PendingFetches)

	// b 不在窗口中，下一轮仍会被选中
	env.transport.FetchFunc = nil
	require.NoError(t, env.client.RunCycle(context.Background()))
	env.onlyFetch(t, "b", 0)
	assert.Equal(t, []types.IdentityID{"a", "b"}, env.client.RecentIdentities())
}

// ============================================================================
//                              完成处理
// ============================================================================

// TestCompletion_ChainedDiscovery 测试成功后链式请求下一个序号，直到上限
func TestCompletion_ChainedDiscovery(t *testing.T) {
	env := newTestEnv(t, nil)
	env.trust.Add(testLocal, candidate("x", time.Minute), 20)
	env.start(t)

	require.NoError(t, env.client.RunCycle(context.Background()))

	for index := 0; index <= 3; index++ {
		r := env.onlyFetch(t, "x", index)
		require.True(t, env.transport.CompleteFetch(r.Req, env.payload(t, "x", index)))
	}

	// 序号 3 达到上限，不再发起下载
	testutil.Eventually(t, func() bool {
		n, _ := env.puzzles.Count(context.Background())
		return n == 4 && env.client.Stats().ActiveChains == 0
	}, "four puzzles stored")
	assert.Empty(t, env.transport.ActiveFetches())
	assert.Equal(t, 0, env.client.Stats().PendingFetches)
	assert.Equal(t, 1.0, promtest.ToFloat64(env.client.metrics.ChainsCompleted))

	for _, p := range env.puzzles.StoreCalls {
		assert.Equal(t, types.IdentityID("x"), p.Inserter)
		assert.False(t, p.ValidUntil.After(p.CreatedAt.Add(72*time.Hour)))
	}
}

// TestCompletion_FetchFailureEndsChain 测试失败结束本轮的链
func TestCompletion_FetchFailureEndsChain(t *testing.T) {
	env := newTestEnv(t, nil)
	env.trust.Add(testLocal, candidate("x", time.Minute), 20)
	env.start(t)

	require.NoError(t, env.client.RunCycle(context.Background()))
	r := env.onlyFetch(t, "x", 0)
	require.True(t, env.transport.CompleteFetch(r.Req, env.payload(t, "x", 0)))

	r = env.onlyFetch(t, "x", 1)
	require.True(t, env.transport.FailFetch(r.Req, types.ErrContentNotFound))

	testutil.Eventually(t, func() bool {
		st := env.client.Stats()
		return st.PendingFetches == 0 && st.ActiveChains == 0
	}, "chain ended")
	testutil.Never(t, 50*time.Millisecond, func() bool {
		return len(env.transport.ActiveFetches()) > 0
	}, "no fetch after failure")
	assert.Len(t, env.puzzles.StoreCalls, 1)

	// 身份在下一个周期仍可被选中
	require.NoError(t, env.client.RunCycle(context.Background()))
	env.onlyFetch(t, "x", 0)
}

// TestCompletion_NewCycleStopsChain 测试保存期间开始新周期时旧链不再推进
func TestCompletion_NewCycleStopsChain(t *testing.T) {
	env := newTestEnv(t, nil)
	env.trust.Add(testLocal, candidate("x", time.Minute), 20)

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	env.puzzles.StoreFunc = func(context.Context, *types.Puzzle) error {
		entered <- struct{}{}
		<-release
		return nil
	}
	env.start(t)
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})

	require.NoError(t, env.client.RunCycle(context.Background()))
	r := env.onlyFetch(t, "x", 0)
	require.True(t, env.transport.CompleteFetch(r.Req, env.payload(t, "x", 0)))
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("store was not called")
	}

	// 保存阻塞期间开始新周期，重新请求序号 0
	require.NoError(t, env.client.RunCycle(context.Background()))
	fresh := env.onlyFetch(t, "x", 0)
	close(release)

	testutil.Eventually(t, func() bool {
		return promtest.ToFloat64(env.client.metrics.Completions.WithLabelValues(kindFetch, outcomeSuccess)) == 1
	}, "old completion handled")
	next := puzzle.RequestAddress("x", env.clock.Now(), 1)
	testutil.Never(t, 50*time.Millisecond, func() bool {
		for _, a := range env.transport.ActiveFetches() {
			if a.Addr == next {
				return true
			}
		}
		return false
	}, "old generation must not chain to index 1")
	active := env.transport.ActiveFetches()
	require.Len(t, active, 1)
	assert.Equal(t, fresh.Req, active[0].Req)
	assert.Equal(t, 1, env.client.Stats().PendingFetches)
}

// TestCompletion_InvalidPayload 测试解析失败与错配的谜题按失败处理
func TestCompletion_InvalidPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload func(e *testEnv) []byte
	}{
		{"garbage", func(*testEnv) []byte { return []byte{0xff, 0xff, 0xff} }},
		{"wrong inserter", func(e *testEnv) []byte { return e.payload(t, "someone-else", 0) }},
		{"wrong index", func(e *testEnv) []byte { return e.payload(t, "x", 5) }},
		{"created in the future", func(e *testEnv) []byte {
			p := puzzle.NewPuzzle("x", types.PuzzleTypeCaptcha, "image/png", []byte("captcha"), 0, e.clock.Now().AddDate(10, 0, 0), 24*time.Hour)
			b, err := e.codec.EncodePuzzle(p)
			require.NoError(t, err)
			return b
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.trust.Add(testLocal, candidate("x", time.Minute), 20)
			env.start(t)

			require.NoError(t, env.client.RunCycle(context.Background()))
			r := env.onlyFetch(t, "x", 0)
			require.True(t, env.transport.CompleteFetch(r.Req, tt.payload(env)))

			testutil.Eventually(t, func() bool {
				return promtest.ToFloat64(env.client.metrics.Completions.WithLabelValues(kindFetch, outcomeInvalid)) == 1
			}, "invalid completion counted")
			assert.Empty(t, env.puzzles.StoreCalls)
			assert.Empty(t, env.transport.ActiveFetches())
			assert.Equal(t, 0, env.client.Stats().PendingFetches)
		})
	}
}

// TestCompletion_PoolCapacity 测试池容量，溢出淘汰最旧的谜题
func TestCompletion_PoolCapacity(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.PoolCapacity = 2
		c.MaxChainIndex = 0
	})
	for i, id := range []types.IdentityID{"p1", "p2", "p3"} {
		env.trust.Add(testLocal, candidate(string(id), time.Duration(i+1)*time.Minute), 20)
	}
	env.start(t)
	require.NoError(t, env.client.RunCycle(context.Background()))

	active := env.transport.ActiveFetches()
	require.Len(t, active, 3)
	for _, r := range active {
		id := env.identityOf(t, r, "p1", "p2", "p3")
		require.True(t, env.transport.CompleteFetch(r.Req, env.payload(t, id, 0)))
		testutil.Eventually(t, func() bool {
			return env.client.Stats().PendingFetches == len(env.transport.ActiveFetches())
		}, "completion handled")
	}

	testutil.Eventually(t, func() bool {
		return len(env.puzzles.EvictOldestCalls) == 3
	}, "eviction after each store")
	ids := env.puzzles.IDs()
	require.Len(t, ids, 2)
	assert.Equal(t, env.puzzles.StoreCalls[1].ID, ids[0])
	assert.Equal(t, env.puzzles.StoreCalls[2].ID, ids[1])
	for _, keep := range env.puzzles.EvictOldestCalls {
		assert.Equal(t, 2, keep)
	}
}

// ============================================================================
//                              解答与展示
// ============================================================================

func (e *testEnv) storePuzzle(t *testing.T, inserter types.IdentityID) *types.Puzzle {
	t.Helper()
	p := puzzle.NewPuzzle(inserter, types.PuzzleTypeCaptcha, "image/png", []byte("captcha"), 0, e.clock.Now(), 24*time.Hour)
	require.NoError(t, e.puzzles.Store(context.Background(), p))
	return p
}

// TestInsertSolution 测试解答只设置一次，上传失败不重试
func TestInsertSolution(t *testing.T) {
	env := newTestEnv(t, nil)
	env.trust.AddWithoutScore(types.Identity{ID: "solver", Nickname: "alice", Own: true})
	env.start(t)
	p := env.storePuzzle(t, "publisher")

	require.NoError(t, env.client.InsertSolution(context.Background(), p.ID, "x7k2", "solver"))

	inserts := env.transport.ActiveInserts()
	require.Len(t, inserts, 1)
	assert.Equal(t, puzzle.SolutionAddress(p, "x7k2"), inserts[0].Addr)
	assert.Equal(t, types.PriorityUpdate, inserts[0].Priority)

	intro, err := env.codec.DecodeIntroduction(inserts[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, p.ID, intro.PuzzleID)
	assert.Equal(t, "x7k2", intro.Solution)
	assert.Equal(t, "alice", intro.SolverNickname)

	// 解答不可覆盖
	err = env.client.InsertSolution(context.Background(), p.ID, "other", "solver")
	assert.ErrorIs(t, err, types.ErrAlreadySolved)

	// 上传失败：移除记录，解答保留，不自动重试
	require.True(t, env.transport.FailInsert(inserts[0].Req, nil))
	testutil.Eventually(t, func() bool {
		return env.client.Stats().PendingInserts == 0
	}, "insert untracked")
	testutil.Never(t, 50*time.Millisecond, func() bool {
		return len(env.transport.ActiveInserts()) > 0
	}, "insert retried")

	stored, err := env.puzzles.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "x7k2", stored.Solution)

	// 显式重新上传落在同一地址
	require.NoError(t, env.client.ReinsertSolution(context.Background(), p.ID))
	inserts = env.transport.ActiveInserts()
	require.Len(t, inserts, 1)
	assert.Equal(t, puzzle.SolutionAddress(p, "x7k2"), inserts[0].Addr)
	assert.ErrorIs(t, env.client.ReinsertSolution(context.Background(), p.ID), ErrInsertPending)

	require.True(t, env.transport.CompleteInsert(inserts[0].Req))
	testutil.Eventually(t, func() bool {
		return promtest.ToFloat64(env.client.metrics.Completions.WithLabelValues(kindInsert, outcomeSuccess)) == 1
	}, "insert success counted")
}

// TestReinsertSolution_Unsolved 测试未解答的谜题不能重新上传
func TestReinsertSolution_Unsolved(t *testing.T) {
	env := newTestEnv(t, nil)
	p := env.storePuzzle(t, "publisher")

	assert.ErrorIs(t, env.client.ReinsertSolution(context.Background(), p.ID), ErrNotSolved)
	assert.ErrorIs(t, env.client.ReinsertSolution(context.Background(), "missing"), types.ErrPuzzleNotFound)
	assert.ErrorIs(t, env.client.InsertSolution(context.Background(), p.ID, "", "solver"), types.ErrEmptySolution)
}

// TestGetPuzzles 测试展示过滤：评分、已解答、每个发布者一个
func TestGetPuzzles(t *testing.T) {
	env := newTestEnv(t, nil)
	env.trust.Add(testLocal, candidate("trusted", time.Minute), 80)
	env.trust.Add(testLocal, candidate("borderline", time.Minute), 50)
	env.trust.Add(testLocal, candidate("also-trusted", time.Minute), 60)
	env.trust.AddWithoutScore(candidate("unknown", time.Minute))

	env.storePuzzle(t, "trusted")
	env.storePuzzle(t, "borderline")
	env.storePuzzle(t, "unknown")
	solved := env.storePuzzle(t, "also-trusted")
	_, err := env.puzzles.MarkSolved(context.Background(), solved.ID, "done", testLocal)
	require.NoError(t, err)
	newest := env.storePuzzle(t, "trusted")

	got, err := env.client.GetPuzzles(context.Background(), types.PuzzleTypeCaptcha, testLocal, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, newest.ID, got[0].ID)

	got, err = env.client.GetPuzzles(context.Background(), "Other", testLocal, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = env.client.GetPuzzles(context.Background(), types.PuzzleTypeCaptcha, testLocal, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// ============================================================================
//                              生命周期
// ============================================================================

// TestTerminate_CancelsInFlight 测试停止时取消在途下载并等待循环退出
func TestTerminate_CancelsInFlight(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.StartupDelayMin = 0
		c.StartupDelayMax = 0
	})
	env.trust.Add(testLocal, candidate("a", time.Minute), 20)
	env.trust.Add(testLocal, candidate("b", 2*time.Minute), 20)

	ignore := goleak.IgnoreCurrent()
	require.NoError(t, env.client.Start())

	testutil.Eventually(t, func() bool {
		return len(env.transport.ActiveFetches()) == 2
	}, "two fetches in flight")

	env.client.Terminate()

	st := env.client.Stats()
	assert.Equal(t, StateStopped, st.State)
	assert.Equal(t, 0, st.PendingFetches)
	assert.Equal(t, 2, env.transport.Cancelled())
	assert.Empty(t, env.transport.ActiveFetches())
	goleak.VerifyNone(t, ignore)

	// 可重复调用，停止后拒绝新操作
	env.client.Terminate()
	assert.ErrorIs(t, env.client.Start(), ErrStopped)
	assert.ErrorIs(t, env.client.RunCycle(context.Background()), ErrStopped)
}

// TestTerminate_NotStarted 测试未启动时停止
func TestTerminate_NotStarted(t *testing.T) {
	env := newTestEnv(t, nil)
	env.trust.Add(testLocal, candidate("a", time.Minute), 20)
	require.NoError(t, env.client.RunCycle(context.Background()))

	require.NoError(t, env.client.Stop(context.Background()))
	assert.Equal(t, StateStopped, env.client.State())
	assert.Equal(t, 1, env.transport.Cancelled())
}

// TestLoop_Periodic 测试启动延迟后立即运行并按周期重复
func TestLoop_Periodic(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.StartupDelayMin = time.Minute
		c.StartupDelayMax = time.Minute
	})
	env.trust.Add(testLocal, candidate("a", time.Minute), 20)
	env.start(t)
	assert.Equal(t, StateStarting, env.client.State())

	testutil.Eventually(t, func() bool {
		env.clock.Add(10 * time.Second)
		return env.client.Stats().Cycles >= 1
	}, "first cycle after startup delay")

	testutil.Eventually(t, func() bool {
		env.clock.Add(time.Minute)
		return env.client.Stats().Cycles >= 2
	}, "second cycle after period")

	require.NoError(t, env.client.Stop(context.Background()))
	assert.Equal(t, StateStopped, env.client.State())
}

// TestClient_Jitter 测试启动延迟与周期抖动范围
func TestClient_Jitter(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.StartupDelayMin = 30 * time.Second
		c.StartupDelayMax = 90 * time.Second
		c.JitterFraction = 0.5
	})

	for i := 0; i < 100; i++ {
		d := env.client.startupDelay()
		assert.GreaterOrEqual(t, d, 30*time.Second)
		assert.LessOrEqual(t, d, 90*time.Second)

		p := env.client.nextPeriod()
		assert.GreaterOrEqual(t, p, 5*time.Minute)
		assert.LessOrEqual(t, p, 15*time.Minute)
	}
}
