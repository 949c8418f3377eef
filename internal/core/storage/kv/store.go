package kv

import (
	"encoding/binary"
	"encoding/json"
	"errors"

	"github.com/dep2p/go-introducer/internal/core/storage/engine"
)

// maxConflictRetries 事务冲突时的重试次数
const maxConflictRetries = 16

// Store 带前缀的键值存储
type Store struct {
	engine engine.Engine
	prefix []byte
}

// New 创建 Store
func New(eng engine.Engine, prefix []byte) *Store {
	return &Store{engine: eng, prefix: append([]byte(nil), prefix...)}
}

func (s *Store) prefixKey(key []byte) []byte {
	out := make([]byte, 0, len(s.prefix)+len(key))
	out = append(out, s.prefix...)
	return append(out, key...)
}

func (s *Store) stripPrefix(key []byte) []byte {
	return key[len(s.prefix):]
}

// ============================================================================
//                              基础操作
// ============================================================================

// Get 获取值
func (s *Store) Get(key []byte) ([]byte, error) {
	return s.engine.Get(s.prefixKey(key))
}

// Put 设置值
func (s *Store) Put(key, value []byte) error {
	return s.engine.Put(s.prefixKey(key), value)
}

// GetJSON 获取并反序列化 JSON 值
func (s *Store) GetJSON(key []byte, v any) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// PutJSON 序列化为 JSON 并存储
func (s *Store) PutJSON(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(key, data)
}

// ============================================================================
//                              迭代
// ============================================================================

// PrefixScan 按子前缀迭代，fn 收到去除 Store 前缀后的键；返回 false 停止
func (s *Store) PrefixScan(subPrefix []byte, reverse bool, fn func(key, value []byte) bool) error {
	it := s.engine.NewIterator(&engine.IteratorOptions{
		Prefix:  s.prefixKey(subPrefix),
		Reverse: reverse,
	})
	defer it.Close()

	for it.First(); it.Valid(); it.Next() {
		if !fn(s.stripPrefix(it.Key()), it.Value()) {
			break
		}
	}
	return it.Error()
}

// Count 统计子前缀下的键数量
func (s *Store) Count(subPrefix []byte) (int, error) {
	it := s.engine.NewIterator(&engine.IteratorOptions{
		Prefix:   s.prefixKey(subPrefix),
		KeysOnly: true,
	})
	defer it.Close()

	n := 0
	for it.First(); it.Valid(); it.Next() {
		n++
	}
	return n, it.Error()
}

// ============================================================================
//                              事务
// ============================================================================

// Txn 带前缀的事务视图
type Txn struct {
	store *Store
	txn   engine.Txn
}

// View 在只读事务中执行 fn
func (s *Store) View(fn func(txn *Txn) error) error {
	return s.engine.View(func(t engine.Txn) error {
		return fn(&Txn{store: s, txn: t})
	})
}

// Update 在读写事务中执行 fn，写冲突时自动重试
func (s *Store) Update(fn func(txn *Txn) error) error {
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		err = s.engine.Update(func(t engine.Txn) error {
			return fn(&Txn{store: s, txn: t})
		})
		if !errors.Is(err, engine.ErrTransactionConflict) {
			return err
		}
	}
	return err
}

// Get 读取键
func (t *Txn) Get(key []byte) ([]byte, error) {
	return t.txn.Get(t.store.prefixKey(key))
}

// Set 写入键
func (t *Txn) Set(key, value []byte) error {
	return t.txn.Set(t.store.prefixKey(key), value)
}

// Delete 删除键
func (t *Txn) Delete(key []byte) error {
	return t.txn.Delete(t.store.prefixKey(key))
}

// Has 检查键在事务快照中是否存在
func (t *Txn) Has(key []byte) (bool, error) {
	_, err := t.Get(key)
	if err == nil {
		return true, nil
	}
	if engine.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// SetJSON 序列化为 JSON 并写入
func (t *Txn) SetJSON(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.Set(key, data)
}

// GetUint64 读取大端计数器
func (t *Txn) GetUint64(key []byte) (uint64, error) {
	data, err := t.Get(key)
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, engine.ErrCorrupted
	}
	return binary.BigEndian.Uint64(data), nil
}

// SetUint64 写入大端计数器
func (t *Txn) SetUint64(key []byte, v uint64) error {
	return t.Set(key, binary.BigEndian.AppendUint64(nil, v))
}

// Scan 在事务快照上按子前缀迭代
func (t *Txn) Scan(subPrefix []byte, reverse bool, fn func(key, value []byte) bool) error {
	opts := &engine.IteratorOptions{
		Prefix:  t.store.prefixKey(subPrefix),
		Reverse: reverse,
	}
	return t.txn.Iterate(opts, func(key, value []byte) bool {
		return fn(t.store.stripPrefix(key), value)
	})
}

// ============================================================================
//                              辅助
// ============================================================================

// SubStore 创建子前缀 Store
func (s *Store) SubStore(subPrefix []byte) *Store {
	return New(s.engine, s.prefixKey(subPrefix))
}
