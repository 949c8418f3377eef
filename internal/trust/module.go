package trust

import (
	"github.com/dep2p/go-introducer/internal/core/storage/kv"
	"github.com/dep2p/go-introducer/pkg/interfaces"
	"go.uber.org/fx"
)

// KeyPrefix 信任存储在根 KVStore 中的前缀
const KeyPrefix = "trust/"

// Params Trust 模块依赖参数
type Params struct {
	fx.In

	Root *kv.Store
}

// Result Trust 模块提供的结果
type Result struct {
	fx.Out

	Store      *Store
	TrustStore interfaces.TrustStore
}

// Module 返回 Trust Fx 模块
//
// 提供:
//   - *Store: 可写的信任存储（导入身份、写入评分）
//   - interfaces.TrustStore: 调度器使用的只读视图
func Module() fx.Option {
	return fx.Module("trust",
		fx.Provide(ProvideStore),
	)
}

// ProvideStore 提供信任存储
func ProvideStore(p Params) Result {
	s := New(p.Root.SubStore([]byte(KeyPrefix)))
	return Result{Store: s, TrustStore: s}
}
