package introduction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dep2p/go-introducer/pkg/interfaces"
	"github.com/dep2p/go-introducer/pkg/types"
)

// Selection 一次候选选择的结果
type Selection struct {
	// Identities 选中的身份，按新鲜度降序
	Identities []types.Identity

	// Fallback 首轮为空，结果来自忽略窗口的第二轮
	Fallback bool

	// Considered 检查过的身份数
	Considered int
}

// Selector 候选身份选择器
type Selector struct {
	trust    interfaces.TrustStore
	clock    clock.Clock
	minScore int
	maxAge   time.Duration
	fallback bool
}

// NewSelector 创建选择器
func NewSelector(trust interfaces.TrustStore, cfg Config, clk clock.Clock) *Selector {
	if clk == nil {
		clk = clock.New()
	}
	return &Selector{
		trust:    trust,
		clock:    clk,
		minScore: cfg.MinScoreToDownload,
		maxAge:   cfg.CandidateMaxAge,
		fallback: cfg.FallbackOnEmpty,
	}
}

// Select 为 local 选出最多 n 个不同的候选身份
//
// 候选必须：不是本地控制的身份；声明了介绍能力；相对 local 的评分严格大于阈值；
// 不在 exclude 中。按新鲜度降序考虑。若排除窗口后结果为空且启用了回退，
// 则忽略 exclude 重选，并在结果中标记 Fallback。候选不足 n 个不是错误。
func (s *Selector) Select(ctx context.Context, local types.IdentityID, n int, exclude map[types.IdentityID]struct{}) (Selection, error) {
	var sel Selection
	if n <= 0 {
		return sel, nil
	}

	var since time.Time
	if s.maxAge > 0 {
		since = s.clock.Now().Add(-s.maxAge)
	}
	all, err := s.trust.AllKnownIdentities(ctx, true, since)
	if err != nil {
		return sel, fmt.Errorf("list identities: %w", err)
	}

	picked := make([]types.Identity, 0, n)
	// 被窗口排除但合格的身份，供回退使用
	var excluded []types.Identity
	seen := make(map[types.IdentityID]struct{}, len(all))

	for _, ident := range all {
		if len(picked) >= n {
			break
		}
		if err := ctx.Err(); err != nil {
			return sel, err
		}
		if _, dup := seen[ident.ID]; dup {
			continue
		}
		seen[ident.ID] = struct{}{}
		sel.Considered++

		ok, err := s.eligible(ctx, local, ident)
		if err != nil {
			return sel, err
		}
		if !ok {
			continue
		}
		if _, skip := exclude[ident.ID]; skip {
			if len(excluded) < n {
				excluded = append(excluded, ident)
			}
			continue
		}
		picked = append(picked, ident)
	}

	if len(picked) == 0 && len(excluded) > 0 && s.fallback {
		sel.Identities = excluded
		sel.Fallback = true
		return sel, nil
	}
	sel.Identities = picked
	return sel, nil
}

// eligible 检查身份是否满足下载条件
func (s *Selector) eligible(ctx context.Context, local types.IdentityID, ident types.Identity) (bool, error) {
	if ident.Own || ident.ID == local || ident.ID.Validate() != nil {
		return false, nil
	}

	capable, err := s.trust.HasCapability(ctx, ident.ID, types.IntroductionContext)
	if err != nil {
		return false, fmt.Errorf("capability of %s: %w", ident.ID.ShortString(), err)
	}
	if !capable {
		return false, nil
	}

	score, err := s.trust.ScoreOf(ctx, local, ident.ID)
	if errors.Is(err, types.ErrNoScore) || errors.Is(err, types.ErrIdentityNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("score of %s: %w", ident.ID.ShortString(), err)
	}
	return score > s.minScore, nil
}
