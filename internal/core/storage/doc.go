// Package storage 提供统一的持久化存储服务
//
// 基于 BadgerDB，为信任存储、谜题存储和本地传输内容存储提供键值后端。
//
// # 键空间
//
//	前缀        | 模块                 | 说明
//	------------|----------------------|-----------------------------
//	trust/i/    | internal/trust       | 身份记录（JSON）
//	trust/s/    | internal/trust       | 相对评分 <local>/<id>
//	puzzle/r/   | internal/puzzle      | 谜题记录（JSON）
//	puzzle/c/   | internal/puzzle      | 按本地保存时间排序的索引
//	puzzle/m/   | internal/puzzle      | 序号计数器
//	content/    | internal/transport   | 本地传输的内容寻址数据
package storage
