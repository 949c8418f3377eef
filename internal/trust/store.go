// Package trust 实现基于 BadgerDB 的信任存储
//
// 信任评分的计算不在本包范围内：评分由外部写入（SetScore），
// 调度器只通过 interfaces.TrustStore 读取。
package trust

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dep2p/go-introducer/internal/core/storage/engine"
	"github.com/dep2p/go-introducer/internal/core/storage/kv"
	"github.com/dep2p/go-introducer/pkg/interfaces"
	"github.com/dep2p/go-introducer/pkg/lib/log"
	"github.com/dep2p/go-introducer/pkg/types"
)

var logger = log.Logger("trust")

// 存储前缀
const (
	identityPrefix = "i/" // 身份记录
	scorePrefix    = "s/" // 相对评分 s/<local>/<id>
)

// scoreRecord 评分记录
type scoreRecord struct {
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store 信任存储
type Store struct {
	kv *kv.Store
}

// New 在给定 KVStore 上创建信任存储
func New(store *kv.Store) *Store {
	return &Store{kv: store}
}

func identityKey(id types.IdentityID) []byte {
	return []byte(identityPrefix + string(id))
}

func scoreKey(local, id types.IdentityID) []byte {
	return []byte(scorePrefix + string(local) + "/" + string(id))
}

// ============================================================================
//                              读取（interfaces.TrustStore）
// ============================================================================

// ScoreOf 返回 id 相对于 local 的评分
func (s *Store) ScoreOf(_ context.Context, local, id types.IdentityID) (int, error) {
	var rec scoreRecord
	if err := s.kv.GetJSON(scoreKey(local, id), &rec); err != nil {
		if engine.IsNotFound(err) {
			return 0, types.ErrNoScore
		}
		return 0, fmt.Errorf("trust: read score: %w", err)
	}
	return rec.Score, nil
}

// AllKnownIdentities 返回按新鲜度降序排列的身份
//
// 新鲜度相同时按 ID 排序，保证结果稳定。
func (s *Store) AllKnownIdentities(ctx context.Context, excludeOwn bool, changedSince time.Time) ([]types.Identity, error) {
	var (
		out     []types.Identity
		scanErr error
	)
	err := s.kv.PrefixScan([]byte(identityPrefix), false, func(_, value []byte) bool {
		if err := ctx.Err(); err != nil {
			scanErr = err
			return false
		}
		var id types.Identity
		if err := decodeIdentity(value, &id); err != nil {
			logger.Warn("跳过损坏的身份记录", "error", err)
			return true
		}
		if excludeOwn && id.Own {
			return true
		}
		if !changedSince.IsZero() && !id.LastChange.After(changedSince) {
			return true
		}
		out = append(out, id)
		return true
	})
	if err == nil {
		err = scanErr
	}
	if err != nil {
		return nil, fmt.Errorf("trust: scan identities: %w", err)
	}

	slices.SortFunc(out, func(a, b types.Identity) int {
		if c := b.LastChange.Compare(a.LastChange); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// HasCapability 检查身份是否声明了能力标签
func (s *Store) HasCapability(ctx context.Context, id types.IdentityID, tag string) (bool, error) {
	ident, err := s.Identity(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrIdentityNotFound) {
			return false, nil
		}
		return false, err
	}
	return ident.HasContext(tag), nil
}

// Identity 返回单个身份记录
func (s *Store) Identity(_ context.Context, id types.IdentityID) (*types.Identity, error) {
	data, err := s.kv.Get(identityKey(id))
	if err != nil {
		if engine.IsNotFound(err) {
			return nil, types.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("trust: read identity: %w", err)
	}
	var ident types.Identity
	if err := decodeIdentity(data, &ident); err != nil {
		return nil, err
	}
	return &ident, nil
}

// ============================================================================
//                              写入
// ============================================================================

// PutIdentity 创建或替换身份记录
func (s *Store) PutIdentity(_ context.Context, ident types.Identity) error {
	if err := ident.ID.Validate(); err != nil {
		return err
	}
	if err := s.kv.PutJSON(identityKey(ident.ID), ident); err != nil {
		return fmt.Errorf("trust: write identity: %w", err)
	}
	return nil
}

// SetScore 设置 id 相对于 local 的评分
func (s *Store) SetScore(_ context.Context, local, id types.IdentityID, score int) error {
	if err := local.Validate(); err != nil {
		return err
	}
	if err := id.Validate(); err != nil {
		return err
	}
	rec := scoreRecord{Score: score, UpdatedAt: time.Now()}
	if err := s.kv.PutJSON(scoreKey(local, id), rec); err != nil {
		return fmt.Errorf("trust: write score: %w", err)
	}
	return nil
}

// DeleteIdentity 删除身份以及与其相关的所有评分
func (s *Store) DeleteIdentity(_ context.Context, id types.IdentityID) error {
	asLocal := scorePrefix + string(id) + "/"
	asTarget := "/" + string(id)
	return s.kv.Update(func(txn *kv.Txn) error {
		var stale [][]byte
		err := txn.Scan([]byte(scorePrefix), false, func(key, _ []byte) bool {
			k := string(key)
			if strings.HasPrefix(k, asLocal) || strings.HasSuffix(k, asTarget) {
				stale = append(stale, key)
			}
			return true
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return txn.Delete(identityKey(id))
	})
}

var _ interfaces.TrustStore = (*Store)(nil)
