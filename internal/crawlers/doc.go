// Package crawlers 提供任务队列、浏览器会话与滚动加载原语
//
// # 概述
//
// crawlers包承载抓取运行的基础设施层: 按URL幂等去重的任务队列、
// 可旋转的go-rod浏览器会话、有界的滚动稳定性探测,以及系统资源监控。
// 页面语义(选择器、字段抽取)不在本包,由internal/extract负责。
//
// # 核心组件
//
// ## TaskQueue (任务队列)
//
// 并发安全的无界任务队列,入队即按规范化URL标记去重,
// 同一URL的重复提交被静默吸收。失败任务经Requeue带计数重新入队,
// 重试余量耗尽后由调用方转入终态失败。Push与Pop都不会阻塞:
// 生产与消费发生在同一个工作循环里,阻塞即死锁。
//
//	queue := NewTaskQueue(0)
//	defer queue.Close()
//
//	added, err := queue.Push(task)
//	task, ok := queue.Pop(ctx)
//
// ## BrowserSession (浏览器会话)
//
// go-rod浏览器的生命周期管理: 启动参数、代理轮换、请求策略注入。
// Rotate()清空Cookie与缓存后整体重启浏览器,并推进代理序号,
// 用于反爬拦截后的会话更新。
//
//	session := NewBrowserSession(SessionConfig{Headless: true})
//	if err := session.Start(); err != nil { /* 处理错误 */ }
//	defer session.Close()
//
//	page, err := session.NewPage()
//	err = session.Navigate(page, url)
//
// ## ScrollUntilStable (滚动稳定性探测)
//
// 无限滚动列表的有界轮询原语: 每步执行一次滚动并读取单调信号
// (滚动高度或已加载节点数),信号连续两步不变、达到目标值、
// 触达步数上限或上下文取消时终止,并报告终止原因。
//
//	result, err := ScrollUntilStable(ctx, ScrollOptions{
//	    MaxIterations: 25,
//	    Interval:      time.Second,
//	}, stepFunc)
//
// ## ResourceMonitor (资源监控器)
//
// 基于gopsutil的系统内存/CPU监控,为联系方式挖掘等额外开销
// 提供准入判断,内存逼近危险区时建议重启浏览器。
//
//	monitor := NewResourceMonitor(ResourceMonitorConfig{
//	    SafetyReserveMemory: 500,
//	    SafetyThreshold:     1024,
//	    CPULoadThreshold:    90,
//	})
//	monitor.StartMonitoring(30 * time.Second)
//	defer monitor.StopMonitoring()
//
//	canOpen, reason := monitor.CanOpenExtraPage()
//
// # 并发安全
//
// 所有核心组件都是并发安全的:
//   - TaskQueue: 切片 + sync.Mutex
//   - BrowserSession: sync.Mutex
//   - ResourceMonitor: sync.RWMutex
package crawlers
