package introducer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-introducer/config"
	"github.com/dep2p/go-introducer/internal/core/storage/engine"
	"github.com/dep2p/go-introducer/internal/introduction"
	"github.com/dep2p/go-introducer/internal/puzzle"
	"github.com/dep2p/go-introducer/internal/transport/local"
	"github.com/dep2p/go-introducer/internal/trust"
	"github.com/dep2p/go-introducer/pkg/lib/log"
	"github.com/dep2p/go-introducer/pkg/types"
)

var logger = log.Logger("introducer")

// ════════════════════════════════════════════════════════════════════════════
//                              常量
// ════════════════════════════════════════════════════════════════════════════

const (
	// startTimeout Fx App 启动超时
	startTimeout = 30 * time.Second
)

// ════════════════════════════════════════════════════════════════════════════
//                              Introducer
// ════════════════════════════════════════════════════════════════════════════

// Introducer 介绍客户端门面
//
// 持有 Fx 应用与其构造的组件。可安全地并发调用。
type Introducer struct {
	app    *fx.App
	config *config.Config
	clock  clock.Clock

	engine    engine.Engine
	client    *introduction.Client
	trust     *trust.Store
	puzzles   *puzzle.Store
	codec     *puzzle.Codec
	transport *local.Transport

	mu      sync.Mutex
	started bool
	closed  bool
}

// New 创建 Introducer，不启动调度
func New(opts ...Option) (*Introducer, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	clk := o.clock
	if clk == nil {
		clk = clock.New()
	}
	n := &Introducer{config: o.config, clock: clk}
	app, err := buildFxApp(o, n)
	if err != nil {
		return nil, err
	}
	n.app = app
	return n, nil
}

// Start 启动所有组件
func (n *Introducer) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrClosed
	}
	if n.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := n.app.Start(startCtx); err != nil {
		logger.Error("启动失败", "error", err)
		return fmt.Errorf("start: %w", err)
	}
	n.started = true
	logger.Info("介绍客户端已启动",
		"version", Version,
		"local", log.TruncateID(n.config.Introduction.LocalIdentity, 8),
		"dataDir", n.config.Storage.DataDir,
		"inMemory", n.config.Storage.InMemory)
	return nil
}

// Stop 停止调度并关闭存储；可重复调用
func (n *Introducer) Stop(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	var err error
	if n.started {
		err = multierr.Append(err, n.app.Stop(ctx))
	} else {
		// 未启动时 OnStop 不会执行，引擎由构造阶段打开
		err = multierr.Append(err, n.engine.Close())
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = multierr.Append(err, fmt.Errorf("stop: %w", ctxErr))
	}
	if err != nil {
		logger.Warn("停止时出错", "error", err)
		return err
	}
	logger.Info("介绍客户端已停止")
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              组件访问
// ════════════════════════════════════════════════════════════════════════════

// Client 调度器
func (n *Introducer) Client() *introduction.Client { return n.client }

// Trust 可写的信任存储
func (n *Introducer) Trust() *trust.Store { return n.trust }

// Puzzles 谜题存储
func (n *Introducer) Puzzles() *puzzle.Store { return n.puzzles }

// Transport 本地传输
func (n *Introducer) Transport() *local.Transport { return n.transport }

// Config 生效的配置
func (n *Introducer) Config() *config.Config { return n.config }

// ════════════════════════════════════════════════════════════════════════════
//                              信任数据
// ════════════════════════════════════════════════════════════════════════════

// ImportIdentities 导入身份及其相对本地身份的评分
//
// scores 中没有的身份不写评分（视为不合格）。单个身份失败不影响其余身份，
// 所有错误合并返回。
func (n *Introducer) ImportIdentities(ctx context.Context, idents []types.Identity, scores map[types.IdentityID]int) error {
	local := types.IdentityID(n.config.Introduction.LocalIdentity)

	var errs error
	imported := 0
	for _, ident := range idents {
		if err := n.trust.PutIdentity(ctx, ident); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("identity %s: %w", ident.ID.ShortString(), err))
			continue
		}
		if score, ok := scores[ident.ID]; ok && !local.IsEmpty() {
			if err := n.trust.SetScore(ctx, local, ident.ID, score); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("score %s: %w", ident.ID.ShortString(), err))
				continue
			}
		}
		imported++
	}
	logger.Debug("导入身份", "imported", imported, "failed", len(multierr.Errors(errs)))
	return errs
}

// ════════════════════════════════════════════════════════════════════════════
//                              谜题
// ════════════════════════════════════════════════════════════════════════════

// PublishPuzzle 以 inserter 的身份在今天的第 index 个地址发布谜题
func (n *Introducer) PublishPuzzle(inserter types.IdentityID, typ types.PuzzleType, mime string, data []byte, index int) (*types.Puzzle, error) {
	now := n.clock.Now()
	p := puzzle.NewPuzzle(inserter, typ, mime, data, index, now,
		time.Duration(n.config.Introduction.PuzzleValidityDays)*24*time.Hour)
	doc, err := n.codec.EncodePuzzle(p)
	if err != nil {
		return nil, err
	}
	if err := n.transport.Publish(puzzle.RequestAddress(inserter, now, index), doc); err != nil {
		return nil, fmt.Errorf("publish puzzle: %w", err)
	}
	return p, nil
}

// GetPuzzles 返回可展示给 own 的谜题
func (n *Introducer) GetPuzzles(ctx context.Context, typ types.PuzzleType, own types.IdentityID, count int) ([]*types.Puzzle, error) {
	return n.client.GetPuzzles(ctx, typ, own, count)
}

// InsertSolution 记录解答并上传介绍文档
func (n *Introducer) InsertSolution(ctx context.Context, id types.PuzzleID, solution string, solver types.IdentityID) error {
	return n.client.InsertSolution(ctx, id, solution, solver)
}

// ReinsertSolution 重新上传已解答谜题的介绍文档
func (n *Introducer) ReinsertSolution(ctx context.Context, id types.PuzzleID) error {
	return n.client.ReinsertSolution(ctx, id)
}

// RunCycle 立即执行一个调度周期
func (n *Introducer) RunCycle(ctx context.Context) error {
	n.mu.Lock()
	started, closed := n.started, n.closed
	n.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if !started {
		return ErrNotStarted
	}
	return n.client.RunCycle(ctx)
}

// Stats 调度器状态快照
func (n *Introducer) Stats() introduction.Stats {
	return n.client.Stats()
}
