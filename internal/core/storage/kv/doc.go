// Package kv 提供带前缀隔离的键值存储抽象
//
// 各组件通过 SubStore 获得独立的键空间，例如信任存储使用 "trust/"，
// 谜题存储使用 "puzzle/"。值可以是原始字节、JSON 或大端 uint64 计数器。
package kv
