// Package engine 定义存储引擎抽象
//
// 上层通过 kv.Store 使用引擎；引擎只负责字节级键值操作、
// 前缀迭代与原子事务。默认实现见 engine/badger。
package engine

// Engine 存储引擎接口
//
// 线程安全：实现必须保证所有方法的线程安全性。
type Engine interface {
	// Get 获取指定键的值，键不存在返回 ErrNotFound
	Get(key []byte) ([]byte, error)

	// Put 设置键值对
	Put(key, value []byte) error

	// NewIterator 创建迭代器，调用者必须 Close
	NewIterator(opts *IteratorOptions) Iterator

	// View 在只读事务中执行 fn
	View(fn func(txn Txn) error) error

	// Update 在读写事务中执行 fn，fn 返回 nil 时提交
	//
	// 发生写冲突时返回 ErrTransactionConflict，由调用者决定是否重试。
	Update(fn func(txn Txn) error) error

	// Start 启动后台任务（值日志 GC）
	Start() error

	// Close 关闭引擎，多次调用安全
	Close() error
}

// Iterator 键值迭代器
//
//	it := eng.NewIterator(&engine.IteratorOptions{Prefix: p})
//	defer it.Close()
//	for it.First(); it.Valid(); it.Next() { ... }
type Iterator interface {
	First() bool
	Next() bool
	Valid() bool

	// Key 返回当前键的副本
	Key() []byte

	// Value 返回当前值的副本
	Value() []byte

	Close()
	Error() error
}

// IteratorOptions 迭代器选项
type IteratorOptions struct {
	// Prefix 只迭代以此为前缀的键
	Prefix []byte

	// Reverse 逆序迭代
	Reverse bool

	// KeysOnly 不预取值
	KeysOnly bool
}

// Txn 事务内的操作集合
type Txn interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error

	// Iterate 在事务快照上按前缀迭代，fn 返回 false 时停止
	Iterate(opts *IteratorOptions, fn func(key, value []byte) bool) error
}
