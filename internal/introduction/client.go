package introduction

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dep2p/go-introducer/internal/puzzle"
	"github.com/dep2p/go-introducer/pkg/interfaces"
	"github.com/dep2p/go-introducer/pkg/lib/log"
	"github.com/dep2p/go-introducer/pkg/types"
)

var logger = log.Logger("introduction")

// ============================================================================
//                              状态
// ============================================================================

// State 调度循环状态
type State int

const (
	// StateStarting 等待启动延迟
	StateStarting State = iota
	// StateIdle 两个周期之间休眠
	StateIdle
	// StateSelecting 清理过期谜题并选择候选
	StateSelecting
	// StateRequesting 取消上一批并发起新一批
	StateRequesting
	// StateStopping 收到停止信号
	StateStopping
	// StateStopped 循环已退出
	StateStopped
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateIdle:
		return "idle"
	case StateSelecting:
		return "selecting"
	case StateRequesting:
		return "requesting"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              依赖
// ============================================================================

// DocumentCodec 谜题与介绍文档编解码
type DocumentCodec interface {
	// Parse 把下载到的内容解析为谜题
	Parse(payload []byte) (*types.Puzzle, error)
	// EncodeIntroduction 编码解答者的介绍文档
	EncodeIntroduction(in *puzzle.Introduction) []byte
}

// Deps 调度器依赖
type Deps struct {
	Trust     interfaces.TrustStore
	Puzzles   interfaces.PuzzleStore
	Transport interfaces.Transport
	Codec     DocumentCodec

	// Clock 可选，默认真实时钟
	Clock clock.Clock

	// Metrics 可选，默认创建不注册的指标
	Metrics *Metrics
}

// Stats 调度器状态快照
type Stats struct {
	State          State
	Cycles         uint64
	Generation     uint64
	PendingFetches int
	PendingInserts int
	ActiveChains   int
	WindowSize     int
	LastCycle      time.Time
}

// ============================================================================
//                              Client
// ============================================================================

// Client 谜题介绍调度器
//
// 一个后台 goroutine 运行调度循环，另一个消费传输层的完成通知。
// 所有可变状态由 mu 保护，调用存储时不持有 mu。
type Client struct {
	cfg       Config
	trust     interfaces.TrustStore
	puzzles   interfaces.PuzzleStore
	transport interfaces.Transport
	codec     DocumentCodec
	clock     clock.Clock
	metrics   *Metrics
	selector  *Selector

	ctx    context.Context
	cancel context.CancelFunc

	// cycleMu 串行化周期，避免两个周期的步骤交错
	cycleMu sync.Mutex

	mu         sync.Mutex
	state      State
	started    bool
	stopping   bool
	tracker    *Tracker
	window     *Window
	chains     *chains
	generation uint64
	cycles     uint64
	lastCycle  time.Time

	completions chan completion
	sink        *sink
	stopCh      chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// New 创建调度器
func New(cfg Config, deps Deps) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Trust == nil || deps.Puzzles == nil || deps.Transport == nil || deps.Codec == nil {
		return nil, ErrMissingDependency
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Metrics == nil {
		deps.Metrics = newMetrics("")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:         cfg,
		trust:       deps.Trust,
		puzzles:     deps.Puzzles,
		transport:   deps.Transport,
		codec:       deps.Codec,
		clock:       deps.Clock,
		metrics:     deps.Metrics,
		selector:    NewSelector(deps.Trust, cfg, deps.Clock),
		ctx:         ctx,
		cancel:      cancel,
		state:       StateStarting,
		tracker:     NewTracker(),
		window:      NewWindow(cfg.WindowCapacity),
		chains:      newChains(cfg.MaxChainIndex),
		completions: make(chan completion, cfg.CompletionBuffer),
		stopCh:      make(chan struct{}),
	}
	c.sink = &sink{ch: c.completions, stop: c.stopCh}
	return c, nil
}

// Start 启动调度循环与完成处理
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopping {
		return ErrStopped
	}
	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true

	c.wg.Add(2)
	go c.loop()
	go c.handleLoop()

	logger.Info("介绍调度器已启动",
		"local", c.cfg.LocalIdentity.ShortString(),
		"batch", c.cfg.BatchSize,
		"period", c.cfg.Period)
	return nil
}

// Terminate 停止调度器并等待后台 goroutine 退出
//
// 返回时调度循环已退出，所有在途请求都已请求取消，Tracker 为空。
// 可重复调用。
func (c *Client) Terminate() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.stopping = true
		c.state = StateStopping
		c.mu.Unlock()

		close(c.stopCh)
		c.cancel()
	})

	c.wg.Wait()
	c.shutdown()
}

// Stop 在 ctx 期限内停止调度器
func (c *Client) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.Terminate()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shutdown 取消所有在途请求并进入 Stopped
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateStopped {
		return
	}
	fetches, inserts := c.tracker.CancelAll(c.transport.Cancel)
	c.chains.reset()
	c.state = StateStopped
	c.metrics.Cancelled.WithLabelValues(kindFetch).Add(float64(fetches))
	c.metrics.Cancelled.WithLabelValues(kindInsert).Add(float64(inserts))
	c.metrics.setPending(0, 0, c.window.Len())
	logger.Info("介绍调度器已停止", "cancelledFetches", fetches, "cancelledInserts", inserts, "cycles", c.cycles)
}

// loop 调度循环
func (c *Client) loop() {
	defer c.wg.Done()
	defer c.shutdown()

	delay := c.startupDelay()
	logger.Debug("等待启动延迟", "delay", delay)
	if !c.sleep(delay) {
		return
	}

	for {
		c.setState(StateIdle, StateStarting, StateIdle)
		if err := c.RunCycle(c.ctx); err != nil {
			if errors.Is(err, ErrStopped) || c.ctx.Err() != nil {
				return
			}
			logger.Error("调度周期失败", "error", err)
		}

		if !c.sleep(c.nextPeriod()) {
			return
		}
	}
}

// sleep 休眠 d，被停止时返回 false
func (c *Client) sleep(d time.Duration) bool {
	if d <= 0 {
		select {
		case <-c.stopCh:
			return false
		default:
			return true
		}
	}
	timer := c.clock.Timer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.stopCh:
		return false
	}
}

// startupDelay 在 [StartupDelayMin, StartupDelayMax] 内均匀取值
func (c *Client) startupDelay() time.Duration {
	spread := c.cfg.StartupDelayMax - c.cfg.StartupDelayMin
	if spread <= 0 {
		return c.cfg.StartupDelayMin
	}
	return c.cfg.StartupDelayMin + time.Duration(rand.Int64N(int64(spread)+1))
}

// nextPeriod 在 Period*(1±JitterFraction) 内均匀取值
func (c *Client) nextPeriod() time.Duration {
	f := c.cfg.JitterFraction
	if f <= 0 {
		return c.cfg.Period
	}
	scale := 1 - f + 2*f*rand.Float64()
	return time.Duration(float64(c.cfg.Period) * scale)
}

// setState 仅当当前状态属于 from 时切换到 to
func (c *Client) setState(to State, from ...State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range from {
		if c.state == s {
			c.state = to
			return
		}
	}
}

// ============================================================================
//                              调度周期
// ============================================================================

// RunCycle 执行一个调度周期
//
// 清理过期谜题，选择候选，取消上一批请求，为每个候选发起序号 0 的下载。
// 候选为空时仍然执行取消。存储错误被返回给调用方。
func (c *Client) RunCycle(ctx context.Context) (err error) {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	start := c.clock.Now()
	defer func() {
		if !errors.Is(err, ErrStopped) {
			c.metrics.observeCycle(start, c.clock.Now(), err)
		}
	}()

	c.mu.Lock()
	if c.stopping {
		c.mu.Unlock()
		return ErrStopped
	}
	c.state = StateSelecting
	exclude := c.window.snapshot()
	c.mu.Unlock()

	purged, err := c.puzzles.PurgeExpired(ctx, start)
	if err != nil {
		c.setState(StateIdle, StateSelecting)
		return fmt.Errorf("purge expired puzzles: %w", err)
	}
	c.metrics.PuzzlesPurged.Add(float64(purged))

	sel, err := c.selector.Select(ctx, c.cfg.LocalIdentity, c.cfg.BatchSize, exclude)
	if err != nil {
		c.setState(StateIdle, StateSelecting)
		return fmt.Errorf("select candidates: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopping {
		return ErrStopped
	}
	c.state = StateRequesting

	if sel.Fallback {
		c.window.Clear()
		c.metrics.Fallbacks.Inc()
	}

	cancelledFetches, cancelledInserts := c.tracker.CancelAll(c.transport.Cancel)
	c.chains.reset()
	c.generation++
	c.metrics.Cancelled.WithLabelValues(kindFetch).Add(float64(cancelledFetches))
	c.metrics.Cancelled.WithLabelValues(kindInsert).Add(float64(cancelledInserts))

	issued := 0
	for _, ident := range sel.Identities {
		if c.issueFetchLocked(ident.ID, 0) {
			issued++
			c.window.Remember(ident.ID)
		}
	}

	c.cycles++
	c.lastCycle = c.clock.Now()
	c.state = StateIdle
	c.metrics.setPending(c.tracker.Fetches(), c.tracker.Inserts(), c.window.Len())

	logger.Info("调度周期完成",
		"cycle", c.cycles,
		"purged", purged,
		"considered", sel.Considered,
		"selected", len(sel.Identities),
		"fallback", sel.Fallback,
		"cancelled", cancelledFetches+cancelledInserts,
		"issued", issued)
	return nil
}

// issueFetchLocked 为 (身份, 序号) 发起下载，调用方持有 mu
func (c *Client) issueFetchLocked(id types.IdentityID, index int) bool {
	if c.tracker.HasFetch(id, index) {
		c.metrics.Duplicates.Inc()
		return false
	}

	now := c.clock.Now()
	addr := puzzle.RequestAddress(id, now, index)
	req, err := c.transport.Fetch(addr, types.PriorityBulk, c.sink)
	if err != nil {
		logger.Warn("发起下载失败", "identity", id.ShortString(), "index", index, "error", err)
		return false
	}
	if !c.tracker.TrackFetch(PendingFetch{Req: req, Identity: id, Index: index, Addr: addr, IssuedAt: now}) {
		c.transport.Cancel(req)
		c.metrics.Duplicates.Inc()
		return false
	}
	c.chains.await(id, index)
	c.metrics.Requests.WithLabelValues(kindFetch).Inc()
	logger.Debug("发起下载", "identity", id.ShortString(), "index", index, "req", req)
	return true
}

// ============================================================================
//                              解答与展示
// ============================================================================

// GetPuzzles 返回最多 count 个可展示给 own 的谜题
//
// 只返回未解答、未过期、类型匹配、且发布者相对 own 的评分严格大于展示阈值的谜题，
// 每个发布者最多一个，从新到旧。
func (c *Client) GetPuzzles(ctx context.Context, typ types.PuzzleType, own types.IdentityID, count int) ([]*types.Puzzle, error) {
	if count <= 0 {
		return nil, nil
	}
	unsolved, err := c.puzzles.Unsolved(ctx, typ)
	if err != nil {
		return nil, fmt.Errorf("list unsolved puzzles: %w", err)
	}

	now := c.clock.Now()
	seen := make(map[types.IdentityID]struct{})
	out := make([]*types.Puzzle, 0, count)
	for _, p := range unsolved {
		if len(out) >= count {
			break
		}
		if _, dup := seen[p.Inserter]; dup || p.Expired(now) || p.Inserter == own {
			continue
		}
		score, err := c.trust.ScoreOf(ctx, own, p.Inserter)
		if errors.Is(err, types.ErrNoScore) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("score of %s: %w", p.Inserter.ShortString(), err)
		}
		if score <= c.cfg.MinScoreToDisplay {
			continue
		}
		seen[p.Inserter] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// InsertSolution 记录解答并上传介绍文档
//
// 解答只能设置一次。上传失败不会自动重试，解答仍然保留在本地。
func (c *Client) InsertSolution(ctx context.Context, id types.PuzzleID, solution string, solver types.IdentityID) error {
	if err := solver.Validate(); err != nil {
		return err
	}
	p, err := c.puzzles.MarkSolved(ctx, id, solution, solver)
	if err != nil {
		return fmt.Errorf("mark solved: %w", err)
	}
	return c.insertIntroduction(ctx, p)
}

// ReinsertSolution 为已解答的谜题重新上传介绍文档，地址不变
func (c *Client) ReinsertSolution(ctx context.Context, id types.PuzzleID) error {
	p, err := c.puzzles.Get(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsSolved() {
		return ErrNotSolved
	}
	return c.insertIntroduction(ctx, p)
}

func (c *Client) insertIntroduction(ctx context.Context, p *types.Puzzle) error {
	var nickname string
	if ident, err := c.trust.Identity(ctx, p.Solver); err == nil {
		nickname = ident.Nickname
	} else if !errors.Is(err, types.ErrIdentityNotFound) {
		return fmt.Errorf("solver identity: %w", err)
	}

	doc := c.codec.EncodeIntroduction(&puzzle.Introduction{
		PuzzleID:       p.ID,
		Solution:       p.Solution,
		Solver:         p.Solver,
		SolverNickname: nickname,
		CreatedAt:      p.Day(),
	})
	addr := puzzle.SolutionAddress(p, p.Solution)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopping {
		return ErrStopped
	}
	if c.tracker.HasInsert(addr) {
		return ErrInsertPending
	}
	req, err := c.transport.Insert(addr, doc, types.PriorityUpdate, c.sink)
	if err != nil {
		return fmt.Errorf("insert introduction: %w", err)
	}
	now := c.clock.Now()
	if !c.tracker.TrackInsert(PendingInsert{Req: req, Addr: addr, PuzzleID: p.ID, IssuedAt: now}) {
		c.transport.Cancel(req)
		return ErrInsertPending
	}
	c.metrics.Requests.WithLabelValues(kindInsert).Inc()
	c.metrics.setPending(c.tracker.Fetches(), c.tracker.Inserts(), c.window.Len())
	logger.Info("上传解答", "puzzle", p.ID, "solver", p.Solver.ShortString(), "req", req)
	return nil
}

// ============================================================================
//                              查询
// ============================================================================

// Stats 返回状态快照
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		State:          c.state,
		Cycles:         c.cycles,
		Generation:     c.generation,
		PendingFetches: c.tracker.Fetches(),
		PendingInserts: c.tracker.Inserts(),
		ActiveChains:   c.chains.len(),
		WindowSize:     c.window.Len(),
		LastCycle:      c.lastCycle,
	}
}

// State 当前状态
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RecentIdentities 最近请求过的身份，从旧到新
func (c *Client) RecentIdentities() []types.IdentityID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window.Members()
}
