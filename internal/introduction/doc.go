// Package introduction 实现谜题介绍调度器
//
// # 模块概述
//
// 陌生身份通过解答其他身份发布的谜题并上传介绍文档来加入信任网络。
// 本包负责后台调度：周期性地从候选身份中挑选一批，下载它们发布的谜题，
// 处理异步完成通知，链式发现同一身份的后续谜题，并在停止时干净地取消。
//
// # 核心组件
//
//   - Selector: 按新鲜度降序挑选合格的候选身份（评分、能力标签、最近窗口）
//   - Tracker: 记录在途的下载和上传请求，保证每个 (身份, 序号) 最多一个
//   - Window: 固定容量的最近请求身份集合，O(1) 成员检查，溢出淘汰最旧
//   - Client: 调度循环与完成处理
//
// # 调度周期
//
//	启动延迟 → [清理过期谜题 → 选择候选 → 取消上一批 → 发起新一批 → 休眠] → ...
//
// 即使候选为空也会执行取消，使系统总是追随最新鲜的候选。
//
// # 完成处理
//
// 传输层回调只把结果投递到完成通道，由单独的 goroutine 消费：
//
//   - 下载成功: 解析 → 校验 → 存储 → 按容量淘汰 → 链式请求下一个序号
//   - 下载失败 / 解析失败: 结束该身份本轮的链
//   - 上传成功 / 失败: 移除记录，不自动重试
//
// # 并发模型
//
// 所有可变状态（Tracker、Window、链状态、计数）由一把粗粒度锁保护。
// 调用存储时不持有该锁。
//
// # 使用示例
//
//	client, err := introduction.New(cfg, introduction.Deps{
//	    Trust:     trustStore,
//	    Puzzles:   puzzleStore,
//	    Transport: transport,
//	    Codec:     codec,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := client.Start(); err != nil {
//	    return err
//	}
//	defer client.Terminate()
package introduction
