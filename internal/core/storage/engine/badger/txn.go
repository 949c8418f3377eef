package badger

import (
	"github.com/dep2p/go-introducer/internal/core/storage/engine"
	"github.com/dgraph-io/badger/v4"
)

// Txn 事务适配器，只在 View/Update 回调内有效
type Txn struct {
	txn *badger.Txn
}

// Get 读取键
func (t *Txn) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, engine.ErrEmptyKey
	}
	item, err := t.txn.Get(key)
	if err != nil {
		return nil, convertError(err)
	}
	return item.ValueCopy(nil)
}

// Set 写入键
func (t *Txn) Set(key, value []byte) error {
	if len(key) == 0 {
		return engine.ErrEmptyKey
	}
	if err := t.txn.Set(key, value); err != nil {
		return convertError(err)
	}
	return nil
}

// Delete 删除键
func (t *Txn) Delete(key []byte) error {
	if len(key) == 0 {
		return engine.ErrEmptyKey
	}
	if err := t.txn.Delete(key); err != nil {
		return convertError(err)
	}
	return nil
}

// Iterate 在事务快照上迭代
func (t *Txn) Iterate(opts *engine.IteratorOptions, fn func(key, value []byte) bool) error {
	it := newIterator(t.txn, opts, false)
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		if !fn(it.Key(), it.Value()) {
			break
		}
	}
	return it.Error()
}

var _ engine.Txn = (*Txn)(nil)
