package badger

import (
	"bytes"

	"github.com/dep2p/go-introducer/internal/core/storage/engine"
	"github.com/dgraph-io/badger/v4"
)

// Iterator BadgerDB 迭代器
type Iterator struct {
	txn     *badger.Txn
	iter    *badger.Iterator
	opts    engine.IteratorOptions
	ownsTxn bool
	started bool
	closed  bool
	err     error
}

func newIterator(txn *badger.Txn, opts *engine.IteratorOptions, ownsTxn bool) *Iterator {
	if opts == nil {
		opts = &engine.IteratorOptions{}
	}
	bo := badger.DefaultIteratorOptions
	bo.Reverse = opts.Reverse
	bo.PrefetchValues = !opts.KeysOnly
	bo.Prefix = opts.Prefix

	return &Iterator{
		txn:     txn,
		iter:    txn.NewIterator(bo),
		opts:    *opts,
		ownsTxn: ownsTxn,
	}
}

// First 定位到第一个键
//
// 逆序迭代时需要 seek 到前缀之后的第一个位置。
func (it *Iterator) First() bool {
	if it.closed {
		return false
	}
	it.started = true
	switch {
	case len(it.opts.Prefix) == 0:
		it.iter.Rewind()
	case it.opts.Reverse:
		it.iter.Seek(append(bytes.Clone(it.opts.Prefix), 0xFF))
	default:
		it.iter.Seek(it.opts.Prefix)
	}
	return it.Valid()
}

// Next 前进一步
func (it *Iterator) Next() bool {
	if it.closed {
		return false
	}
	if !it.started {
		return it.First()
	}
	it.iter.Next()
	return it.Valid()
}

// Valid 当前位置是否有效
func (it *Iterator) Valid() bool {
	if it.closed || !it.iter.Valid() {
		return false
	}
	return bytes.HasPrefix(it.iter.Item().Key(), it.opts.Prefix)
}

// Key 返回当前键的副本
func (it *Iterator) Key() []byte {
	if !it.Valid() {
		return nil
	}
	return it.iter.Item().KeyCopy(nil)
}

// Value 返回当前值的副本
func (it *Iterator) Value() []byte {
	if !it.Valid() || it.opts.KeysOnly {
		return nil
	}
	v, err := it.iter.Item().ValueCopy(nil)
	if err != nil {
		it.err = err
		return nil
	}
	return v
}

// Close 关闭迭代器
func (it *Iterator) Close() {
	if it.closed {
		return
	}
	it.closed = true
	it.iter.Close()
	if it.ownsTxn {
		it.txn.Discard()
	}
}

// Error 返回迭代中遇到的错误
func (it *Iterator) Error() error {
	return it.err
}

var _ engine.Iterator = (*Iterator)(nil)
