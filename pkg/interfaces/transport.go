package interfaces

import "github.com/dep2p/go-introducer/pkg/types"

// Transport 内容寻址的异步传输
//
// Fetch 与 Insert 立即返回请求句柄，结果通过 TransportCallback 异步送达。
// 实现不得在 Fetch/Insert 内同步调用回调。
type Transport interface {
	// Fetch 下载 addr 处的内容
	Fetch(addr types.Address, prio types.Priority, cb TransportCallback) (types.RequestID, error)

	// Insert 在 addr 处上传 payload
	Insert(addr types.Address, payload []byte, prio types.Priority, cb TransportCallback) (types.RequestID, error)

	// Cancel 尽力取消请求；对已完成或未知的句柄调用是安全的
	Cancel(req types.RequestID)
}

// TransportCallback 传输完成回调
//
// 回调可能在任意 goroutine 上并发到达。
type TransportCallback interface {
	OnFetchSuccess(req types.RequestID, payload []byte)
	OnFetchFailure(req types.RequestID, err error)
	OnInsertSuccess(req types.RequestID)
	OnInsertFailure(req types.RequestID, err error)
}
