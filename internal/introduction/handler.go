package introduction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dep2p/go-introducer/pkg/interfaces"
	"github.com/dep2p/go-introducer/pkg/types"
)

// ============================================================================
//                              完成通知
// ============================================================================

type completionKind int

const (
	fetchSucceeded completionKind = iota
	fetchFailed
	insertSucceeded
	insertFailed
)

// completion 传输层的一次完成通知
type completion struct {
	kind    completionKind
	req     types.RequestID
	payload []byte
	err     error
}

// sink 把传输层回调转成完成通道上的消息
//
// 回调可能在任意 goroutine 上到达，sink 不触碰调度器状态。
// 停止后到达的回调被丢弃。
type sink struct {
	ch   chan<- completion
	stop <-chan struct{}
}

func (s *sink) deliver(c completion) {
	select {
	case s.ch <- c:
	case <-s.stop:
	}
}

func (s *sink) OnFetchSuccess(req types.RequestID, payload []byte) {
	s.deliver(completion{kind: fetchSucceeded, req: req, payload: payload})
}

func (s *sink) OnFetchFailure(req types.RequestID, err error) {
	s.deliver(completion{kind: fetchFailed, req: req, err: err})
}

func (s *sink) OnInsertSuccess(req types.RequestID) {
	s.deliver(completion{kind: insertSucceeded, req: req})
}

func (s *sink) OnInsertFailure(req types.RequestID, err error) {
	s.deliver(completion{kind: insertFailed, req: req, err: err})
}

var _ interfaces.TransportCallback = (*sink)(nil)

// ============================================================================
//                              完成处理
// ============================================================================

// handleLoop 消费完成通道直到停止
func (c *Client) handleLoop() {
	defer c.wg.Done()
	for {
		select {
		case comp := <-c.completions:
			c.handle(c.ctx, comp)
		case <-c.stopCh:
			return
		}
	}
}

// handle 处理一次完成通知
func (c *Client) handle(ctx context.Context, comp completion) {
	switch comp.kind {
	case fetchSucceeded:
		c.onFetchSuccess(ctx, comp.req, comp.payload)
	case fetchFailed:
		c.onFetchFailure(comp.req, comp.err)
	case insertSucceeded:
		c.onInsertDone(comp.req, nil)
	case insertFailed:
		if comp.err == nil {
			comp.err = errors.New("insert failed")
		}
		c.onInsertDone(comp.req, comp.err)
	}
}

// untrackFetch 移除下载记录，返回记录与当时的代数
func (c *Client) untrackFetch(req types.RequestID) (PendingFetch, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pf, ok := c.tracker.UntrackFetch(req)
	if ok {
		c.metrics.setPending(c.tracker.Fetches(), c.tracker.Inserts(), c.window.Len())
	}
	return pf, c.generation, ok
}

// endChain 结束 pf 所在的链
func (c *Client) endChain(pf PendingFetch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chains.end(pf.Identity, pf.Index)
}

// onFetchSuccess 解析、校验并存储谜题，然后链式请求下一个序号
func (c *Client) onFetchSuccess(ctx context.Context, req types.RequestID, payload []byte) {
	pf, gen, ok := c.untrackFetch(req)
	if !ok {
		c.metrics.completion(kindFetch, outcomeStale)
		logger.Debug("忽略过期的下载完成", "req", req)
		return
	}

	p, err := c.codec.Parse(payload)
	if err == nil {
		err = c.validate(pf, p)
	}
	if err != nil {
		c.metrics.completion(kindFetch, outcomeInvalid)
		logger.Warn("谜题无效", "identity", pf.Identity.ShortString(), "index", pf.Index, "error", err)
		c.endChain(pf)
		return
	}

	switch err := c.puzzles.Store(ctx, p); {
	case err == nil:
		c.metrics.PuzzlesStored.Inc()
	case errors.Is(err, types.ErrPuzzleExists):
		logger.Debug("谜题已存在", "puzzle", p.ID, "identity", pf.Identity.ShortString())
	default:
		c.metrics.completion(kindFetch, outcomeFailure)
		logger.Error("保存谜题失败", "puzzle", p.ID, "error", err)
		c.endChain(pf)
		return
	}

	evicted, err := c.puzzles.EvictOldest(ctx, c.cfg.PoolCapacity)
	if err != nil {
		logger.Error("淘汰谜题失败", "error", err)
	}
	c.metrics.PuzzlesEvicted.Add(float64(evicted))
	c.metrics.completion(kindFetch, outcomeSuccess)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopping || c.generation != gen {
		return
	}
	next, ok := c.chains.advance(pf.Identity, pf.Index)
	if !ok {
		if pf.Index >= c.cfg.MaxChainIndex {
			c.metrics.ChainsCompleted.Inc()
		}
		return
	}
	c.issueFetchLocked(pf.Identity, next)
	c.metrics.setPending(c.tracker.Fetches(), c.tracker.Inserts(), c.window.Len())
}

// maxClockSkew 允许发布者时钟超前本地的最大时长
const maxClockSkew = 10 * time.Minute

// validate 检查谜题与请求一致，并把有效期限制在 PuzzleValidity 内
func (c *Client) validate(pf PendingFetch, p *types.Puzzle) error {
	if p.Inserter != pf.Identity {
		return fmt.Errorf("%w: inserter %s, requested %s", ErrUnexpectedPuzzle, p.Inserter.ShortString(), pf.Identity.ShortString())
	}
	if p.Index != pf.Index {
		return fmt.Errorf("%w: index %d, requested %d", ErrUnexpectedPuzzle, p.Index, pf.Index)
	}

	now := c.clock.Now()
	if p.CreatedAt.After(now.Add(maxClockSkew)) {
		return fmt.Errorf("%w: created in the future at %s", ErrUnexpectedPuzzle, p.CreatedAt.Format(time.RFC3339))
	}

	limit := p.CreatedAt.Add(c.cfg.PuzzleValidity)
	if p.ValidUntil.IsZero() || p.ValidUntil.After(limit) {
		p.ValidUntil = limit
	}
	if p.Expired(now) {
		return fmt.Errorf("%w: expired at %s", ErrUnexpectedPuzzle, p.ValidUntil.Format(time.RFC3339))
	}
	return nil
}

// onFetchFailure 移除记录并结束链；身份可在之后的周期重新选中
func (c *Client) onFetchFailure(req types.RequestID, err error) {
	pf, _, ok := c.untrackFetch(req)
	if !ok {
		c.metrics.completion(kindFetch, outcomeStale)
		return
	}
	c.endChain(pf)
	c.metrics.completion(kindFetch, outcomeFailure)
	if errors.Is(err, types.ErrContentNotFound) {
		logger.Debug("链结束", "identity", pf.Identity.ShortString(), "index", pf.Index)
		return
	}
	logger.Info("下载失败", "identity", pf.Identity.ShortString(), "index", pf.Index, "error", err)
}

// onInsertDone 移除上传记录；失败不重试
func (c *Client) onInsertDone(req types.RequestID, err error) {
	c.mu.Lock()
	pi, ok := c.tracker.UntrackInsert(req)
	if ok {
		c.metrics.setPending(c.tracker.Fetches(), c.tracker.Inserts(), c.window.Len())
	}
	c.mu.Unlock()

	if !ok {
		c.metrics.completion(kindInsert, outcomeStale)
		return
	}
	if err != nil {
		c.metrics.completion(kindInsert, outcomeFailure)
		logger.Warn("上传解答失败", "puzzle", pi.PuzzleID, "addr", pi.Addr, "error", err)
		return
	}
	c.metrics.completion(kindInsert, outcomeSuccess)
	logger.Info("上传解答成功", "puzzle", pi.PuzzleID)
}
