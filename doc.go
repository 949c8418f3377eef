// Package introducer 提供信任网络的谜题介绍客户端
//
// 身份发布谜题，陌生方解答后上传介绍文档，证明自己是有意参与的独立个体。
// 本地身份借此在没有中心目录的情况下发现并接纳新的对等方。
//
// # 快速开始
//
//	import introducer "github.com/dep2p/go-introducer"
//
//	node, err := introducer.New(
//	    introducer.WithDataDir("./data"),
//	    introducer.WithLocalIdentity("8Ydu3..."),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := node.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Stop(context.Background())
//
//	// 导入身份与评分（通常来自外部的信任图计算）
//	_ = node.ImportIdentities(ctx, idents, scores)
//
//	// 展示谜题并上传解答
//	puzzles, _ := node.GetPuzzles(ctx, types.PuzzleTypeCaptcha, own, 4)
//	_ = node.InsertSolution(ctx, puzzles[0].ID, "x7k2", own)
//
// # 组件
//
//	┌──────────────────────────────────────────────────────────┐
//	│  introducer.Introducer          门面                      │
//	├──────────────────────────────────────────────────────────┤
//	│  introduction.Client            调度循环 + 完成处理        │
//	├──────────────┬───────────────┬───────────────────────────┤
//	│  trust.Store │ puzzle.Store  │ transport/local.Transport │
//	├──────────────┴───────────────┴───────────────────────────┤
//	│  storage (BadgerDB)                                      │
//	└──────────────────────────────────────────────────────────┘
//
// 组件通过 Fx 装配，生命周期由 Start/Stop 驱动。
package introducer
