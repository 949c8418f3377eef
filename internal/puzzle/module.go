package puzzle

import (
	"context"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-introducer/internal/core/storage/kv"
	"github.com/dep2p/go-introducer/pkg/interfaces"
	"go.uber.org/fx"
)

// KeyPrefix 谜题存储在根 KVStore 中的前缀
const KeyPrefix = "puzzle/"

// Params Puzzle 模块依赖参数
type Params struct {
	fx.In

	Root  *kv.Store
	Clock clock.Clock `optional:"true"`
}

// Result Puzzle 模块提供的结果
type Result struct {
	fx.Out

	Store       *Store
	PuzzleStore interfaces.PuzzleStore
}

// Module 返回 Puzzle Fx 模块
//
// 提供:
//   - *Store / interfaces.PuzzleStore: 谜题存储
//   - *Codec: 谜题与介绍文档编解码器
func Module() fx.Option {
	return fx.Module("puzzle",
		fx.Provide(
			ProvideStore,
			NewCodec,
		),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideStore 提供谜题存储
func ProvideStore(p Params) Result {
	s := NewStore(p.Root.SubStore([]byte(KeyPrefix)), p.Clock)
	return Result{Store: s, PuzzleStore: s}
}

func registerLifecycle(lc fx.Lifecycle, codec *Codec) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			codec.Close()
			return nil
		},
	})
}
