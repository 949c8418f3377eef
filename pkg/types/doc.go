// Package types 定义 go-introducer 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - ids.go       - IdentityID, PuzzleID, RequestID, Address
//   - identity.go  - Identity 及能力标签
//   - puzzle.go    - Puzzle 及其生命周期辅助方法
//   - priority.go  - 传输优先级
//   - errors.go    - 公共错误定义
package types
