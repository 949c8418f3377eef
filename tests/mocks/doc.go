// Package mocks 提供统一的测试 Mock 实现
//
// # 核心 Mock
//
//   - MockTrustStore: 模拟 interfaces.TrustStore，内存中的身份与评分
//   - MockPuzzleStore: 模拟 interfaces.PuzzleStore，内存中的谜题池
//   - MockTransport: 模拟 interfaces.Transport，由测试手动驱动完成回调
//
// # 设计原则
//
// 1. 函数式注入: 每个 Mock 都支持通过 XxxFunc 字段注入自定义行为
// 2. 调用记录: 关键 Mock 记录调用历史，便于验证测试行为
// 3. 并发安全: 被测代码会在后台 goroutine 中调用 Mock
//
// # 使用示例
//
//	tr := mocks.NewMockTransport()
//	client, _ := introduction.New(cfg, trust, store, tr, codec, clk, nil)
//	...
//	fetch := tr.ActiveFetches()[0]
//	tr.CompleteFetch(fetch.Req, payload)
package mocks
