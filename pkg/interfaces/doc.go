// Package interfaces 定义 go-introducer 的公共接口
//
// 调度核心只依赖这里的接口，具体实现位于 internal/：
//   - trust.go      - 信任存储（只读查询）
//   - puzzle.go     - 谜题存储
//   - transport.go  - 内容寻址的异步 fetch/insert 传输
//
// 嵌入方可以通过 fx.Decorate 或 fx.Replace 替换任意实现。
package interfaces
