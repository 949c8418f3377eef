package puzzle

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-introducer/internal/core/storage/engine"
	"github.com/dep2p/go-introducer/internal/core/storage/kv"
	"github.com/dep2p/go-introducer/pkg/interfaces"
	"github.com/dep2p/go-introducer/pkg/lib/log"
	"github.com/dep2p/go-introducer/pkg/types"
)

var logger = log.Logger("puzzle")

// 存储前缀
const (
	recordPrefix  = "r/" // 谜题记录 r/<id>
	createdPrefix = "c/" // 保存顺序索引 c/<stored 8B><seq 8B>/<id>
	seqKey        = "m/seq"
)

// record 存储的谜题记录
//
// StoredAt 是本地保存时间，与 Seq 一起组成索引键。CreatedAt 来自发布者，
// 不参与排序。
type record struct {
	types.Puzzle
	StoredAt time.Time `json:"stored_at"`
	Seq      uint64    `json:"seq"`
}

// Store 谜题存储
type Store struct {
	kv    *kv.Store
	clock clock.Clock
}

// NewStore 在给定 KVStore 上创建谜题存储；clk 为 nil 时使用系统时钟
func NewStore(store *kv.Store, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.New()
	}
	return &Store{kv: store, clock: clk}
}

func recordKey(id types.PuzzleID) []byte {
	return []byte(recordPrefix + string(id))
}

// createdKey 保存顺序索引键；1970 年之前的时间归零
func createdKey(stored time.Time, seq uint64, id types.PuzzleID) []byte {
	ns := stored.UnixNano()
	if ns < 0 {
		ns = 0
	}
	k := make([]byte, 0, len(createdPrefix)+17+len(id))
	k = append(k, createdPrefix...)
	k = binary.BigEndian.AppendUint64(k, uint64(ns))
	k = binary.BigEndian.AppendUint64(k, seq)
	k = append(k, '/')
	return append(k, id...)
}

func (r *record) indexKey() []byte {
	return createdKey(r.StoredAt, r.Seq, r.ID)
}

func decodeRecord(data []byte) (*record, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: puzzle record: %v", engine.ErrCorrupted, err)
	}
	return &r, nil
}

// ============================================================================
//                              写入
// ============================================================================

// Store 保存新谜题
func (s *Store) Store(_ context.Context, p *types.Puzzle) error {
	if p.ID == "" {
		return fmt.Errorf("%w: id", ErrMissingField)
	}
	err := s.kv.Update(func(txn *kv.Txn) error {
		exists, err := txn.Has(recordKey(p.ID))
		if err != nil {
			return err
		}
		if exists {
			return types.ErrPuzzleExists
		}

		seq, err := txn.GetUint64([]byte(seqKey))
		if err != nil && !engine.IsNotFound(err) {
			return err
		}
		seq++
		if err := txn.SetUint64([]byte(seqKey), seq); err != nil {
			return err
		}

		r := &record{Puzzle: *p, StoredAt: s.clock.Now(), Seq: seq}
		if err := txn.SetJSON(recordKey(p.ID), r); err != nil {
			return err
		}
		return txn.Set(r.indexKey(), []byte(p.ID))
	})
	if err != nil && !errors.Is(err, types.ErrPuzzleExists) {
		return fmt.Errorf("puzzle: store: %w", err)
	}
	return err
}

// MarkSolved 设置解答，已有解答时不覆盖
func (s *Store) MarkSolved(_ context.Context, id types.PuzzleID, solution string, solver types.IdentityID) (*types.Puzzle, error) {
	if solution == "" {
		return nil, types.ErrEmptySolution
	}
	var out types.Puzzle
	err := s.kv.Update(func(txn *kv.Txn) error {
		data, err := txn.Get(recordKey(id))
		if err != nil {
			if engine.IsNotFound(err) {
				return types.ErrPuzzleNotFound
			}
			return err
		}
		r, err := decodeRecord(data)
		if err != nil {
			return err
		}
		if r.IsSolved() {
			return types.ErrAlreadySolved
		}
		r.Solution = solution
		r.Solver = solver
		out = r.Puzzle
		return txn.SetJSON(recordKey(id), r)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PurgeExpired 删除 ValidUntil 早于 horizon 的谜题
func (s *Store) PurgeExpired(_ context.Context, horizon time.Time) (int, error) {
	removed := 0
	err := s.kv.Update(func(txn *kv.Txn) error {
		removed = 0
		var expired []*record
		var decodeErr error
		err := txn.Scan([]byte(recordPrefix), false, func(_, value []byte) bool {
			r, err := decodeRecord(value)
			if err != nil {
				decodeErr = err
				return false
			}
			if r.Expired(horizon) {
				expired = append(expired, r)
			}
			return true
		})
		if err == nil {
			err = decodeErr
		}
		if err != nil {
			return err
		}
		for _, r := range expired {
			if err := deleteRecord(txn, r); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("puzzle: purge expired: %w", err)
	}
	if removed > 0 {
		logger.Debug("删除过期谜题", "count", removed)
	}
	return removed, nil
}

// EvictOldest 按本地保存顺序删除最早的谜题，直到最多剩余 keep 个
func (s *Store) EvictOldest(_ context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	evicted := 0
	err := s.kv.Update(func(txn *kv.Txn) error {
		evicted = 0
		var index [][]byte
		err := txn.Scan([]byte(createdPrefix), false, func(key, _ []byte) bool {
			index = append(index, key)
			return true
		})
		if err != nil {
			return err
		}
		if len(index) <= keep {
			return nil
		}
		for _, key := range index[:len(index)-keep] {
			id := types.PuzzleID(key[len(createdPrefix)+17:])
			if err := txn.Delete(recordKey(id)); err != nil {
				return err
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
			evicted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("puzzle: evict oldest: %w", err)
	}
	if evicted > 0 {
		logger.Debug("淘汰最旧谜题", "count", evicted, "keep", keep)
	}
	return evicted, nil
}

func deleteRecord(txn *kv.Txn, r *record) error {
	if err := txn.Delete(recordKey(r.ID)); err != nil {
		return err
	}
	return txn.Delete(r.indexKey())
}

// ============================================================================
//                              读取
// ============================================================================

// Get 读取谜题
func (s *Store) Get(_ context.Context, id types.PuzzleID) (*types.Puzzle, error) {
	data, err := s.kv.Get(recordKey(id))
	if err != nil {
		if engine.IsNotFound(err) {
			return nil, types.ErrPuzzleNotFound
		}
		return nil, fmt.Errorf("puzzle: get: %w", err)
	}
	r, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	return &r.Puzzle, nil
}

// Count 当前谜题数量
func (s *Store) Count(_ context.Context) (int, error) {
	return s.kv.Count([]byte(recordPrefix))
}

// Unsolved 返回未解答谜题，按保存时间从新到旧；typ 为空时不过滤类型
func (s *Store) Unsolved(_ context.Context, typ types.PuzzleType) ([]*types.Puzzle, error) {
	var out []*types.Puzzle
	err := s.kv.View(func(txn *kv.Txn) error {
		var ids []types.PuzzleID
		err := txn.Scan([]byte(createdPrefix), true, func(key, _ []byte) bool {
			ids = append(ids, types.PuzzleID(key[len(createdPrefix)+17:]))
			return true
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			data, err := txn.Get(recordKey(id))
			if err != nil {
				return err
			}
			r, err := decodeRecord(data)
			if err != nil {
				logger.Warn("跳过损坏的谜题记录", "puzzle", id, "error", err)
				continue
			}
			if !r.IsSolved() && (typ == "" || r.Type == typ) {
				p := r.Puzzle
				out = append(out, &p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("puzzle: list unsolved: %w", err)
	}
	return out, nil
}

var _ interfaces.PuzzleStore = (*Store)(nil)
