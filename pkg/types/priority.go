package types

// Priority 传输请求优先级
type Priority int

const (
	// PriorityBulk 批量下载（谜题抓取）
	PriorityBulk Priority = iota
	// PriorityUpdate 用户触发的更新（解答上传）
	PriorityUpdate
	// PriorityInteractive 交互式请求
	PriorityInteractive
)

// String 返回优先级名称
func (p Priority) String() string {
	switch p {
	case PriorityBulk:
		return "bulk"
	case PriorityUpdate:
		return "update"
	case PriorityInteractive:
		return "interactive"
	default:
		return "unknown"
	}
}
