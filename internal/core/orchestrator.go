package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/google/uuid"

	"github.com/RecoveryAshes/GmapLeads/internal/contact"
	"github.com/RecoveryAshes/GmapLeads/internal/crawlers"
	"github.com/RecoveryAshes/GmapLeads/internal/models"
	"github.com/RecoveryAshes/GmapLeads/internal/store"
	"github.com/RecoveryAshes/GmapLeads/internal/utils"
)

// Orchestrator 抓取调度器
// 单工作循环: 播种初始任务后逐个消费队列,页面处理产出的后续任务
// 在消费前已经入队,因此队列取空即代表运行完成
type Orchestrator struct {
	input *models.RunInput

	queue      *crawlers.TaskQueue
	session    *crawlers.BrowserSession
	estimator  *CostEstimator
	stateStore models.StateStore
	dataset    models.DatasetSink
	failures   *store.FailureSink
	miner      *contact.Miner
	monitor    *crawlers.ResourceMonitor

	state   *models.RunState
	summary models.RunSummary

	// baseScraped 运行开始时的历史输出数(全局商家上限的基准)
	baseScraped int

	// detailEnqueued 本次运行已入队的DETAIL任务数
	detailEnqueued int
}

// OrchestratorDeps 调度器的协作组件
type OrchestratorDeps struct {
	Queue      *crawlers.TaskQueue
	Session    *crawlers.BrowserSession
	Estimator  *CostEstimator
	StateStore models.StateStore
	Dataset    models.DatasetSink
	Failures   *store.FailureSink
	Miner      *contact.Miner
	Monitor    *crawlers.ResourceMonitor
}

// NewOrchestrator 创建调度器
func NewOrchestrator(input *models.RunInput, deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{
		input:      input,
		queue:      deps.Queue,
		session:    deps.Session,
		estimator:  deps.Estimator,
		stateStore: deps.StateStore,
		dataset:    deps.Dataset,
		failures:   deps.Failures,
		miner:      deps.Miner,
		monitor:    deps.Monitor,
		state:      &models.RunState{},
	}
}

// Run 执行一次完整的抓取运行
// 恢复状态 → 播种 → 消费循环 → 收尾落盘; 运行时长护栏到点后
// 停止取新任务,已有产出全部保留
func (o *Orchestrator) Run(ctx context.Context) (*models.RunSummary, error) {
	o.summary.RunID = uuid.New().String()
	o.summary.StartTime = time.Now()
	o.summary.Input = *o.input

	if o.input.MaxRunMinutes > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(o.input.MaxRunMinutes)*time.Minute)
		defer cancel()
	}

	o.loadState()
	o.baseScraped = o.state.ScrapedItemsCount

	if _, err := SeedTasks(o.queue, o.input); err != nil {
		return nil, err
	}

	bar := utils.NewTaskProgressBar("处理任务")

	for {
		if ctx.Err() != nil {
			utils.Warnf("⏰ 运行时长达到上限,提前收尾")
			break
		}

		task, ok := o.queue.Pop(ctx)
		if !ok {
			break
		}

		o.summary.TasksProcessed++
		if bar != nil {
			_ = bar.Add(1)
		}

		if err := o.processTask(ctx, task); err != nil {
			o.handleTaskFailure(ctx, task, err)
		}

		// 内存压力逼近危险区时主动重启浏览器
		if o.monitor != nil && o.session != nil && o.monitor.ShouldRestartBrowser() {
			utils.Warnf("⚠️ 内存不足,重启浏览器会话")
			if err := o.session.Rotate(); err != nil {
				utils.Errorf("❌ 浏览器会话重启失败: %v", err)
			}
		}
	}

	o.finish()
	return &o.summary, nil
}

// processTask 处理单个任务: 开页 → 导航 → 反爬检查 → 按标签分发
func (o *Orchestrator) processTask(ctx context.Context, task *models.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	utils.Infof("🌐 处理任务 [%s] %s", task.Label, task.URL)

	if o.session == nil {
		return fmt.Errorf("浏览器会话未初始化")
	}

	page, err := o.session.NewPage()
	if err != nil {
		return err
	}
	defer func() { _ = page.Close() }()

	if err := o.session.Navigate(page, task.URL); err != nil {
		return err
	}

	dismissConsent(page)
	if err := checkCaptcha(page); err != nil {
		return err
	}

	switch task.Label {
	case models.LabelSearch:
		return o.handleSearch(ctx, task, page)
	case models.LabelDetail:
		return o.handleDetail(ctx, task, page)
	case models.LabelExtractAndSearch:
		return o.handleExtractAndSearch(ctx, task, page)
	default:
		return fmt.Errorf("未知任务标签: %s", task.Label)
	}
}

// handleTaskFailure 任务失败处置
// 阻断型失败先旋转会话再重试; 重试余量耗尽转入终态失败记录
func (o *Orchestrator) handleTaskFailure(ctx context.Context, task *models.Task, err error) {
	utils.Errorf("❌ 任务失败 [%s] %s: %v", task.Label, task.URL, err)

	if shouldRotateSession(ctx, err) && o.session != nil {
		utils.Warnf("🔄 检测到阻断型失败,旋转浏览器会话")
		if rotateErr := o.session.Rotate(); rotateErr != nil {
			utils.Errorf("❌ 会话旋转失败: %v", rotateErr)
		}
	}

	if o.queue.Requeue(task) {
		utils.Warnf("🔄 任务重新入队 (第%d/%d次重试): %s", task.Retries, models.MaxTaskRetries, task.URL)
		return
	}

	o.summary.FailedTasks++
	info := models.FailedTaskInfo{
		URL:      task.URL,
		Label:    task.Label,
		Retries:  task.Retries,
		ErrorMsg: err.Error(),
		FailedAt: time.Now(),
	}
	o.summary.Failures = append(o.summary.Failures, info)
	if o.failures != nil {
		o.failures.Append(info)
	}
}

// shouldRotateSession 阻断型失败在重试前需要旋转会话;
// 运行级取消(时长护栏/中断信号)造成的超时属于收尾,重启浏览器毫无意义
func shouldRotateSession(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return isBlockingError(err)
}

// isBlockingError 判定失败是否为阻断型(反爬拦截/网络层故障)
// 阻断型失败意味着当前会话已被识别,重试前需要旋转会话
func isBlockingError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCaptchaDetected) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	markers := []string{
		"net::err",
		"timeout",
		"status code 403",
		"status code 429",
		"too many requests",
		"target closed",
		"connection reset",
		"connection refused",
	}
	for _, marker := range markers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// loadState 从外部存储恢复运行状态
// 键不存在时保持零值(全新运行); 损坏的状态记录告警后从零开始
func (o *Orchestrator) loadState() {
	if o.stateStore == nil {
		return
	}

	data, err := o.stateStore.Get(models.StateKey)
	if err != nil {
		utils.Warnf("⚠️ 读取运行状态失败,从零开始: %v", err)
		return
	}
	if data == nil {
		return
	}

	if err := o.state.FromJSON(data); err != nil {
		utils.Warnf("⚠️ 运行状态损坏,从零开始: %v", err)
		o.state = &models.RunState{}
		return
	}

	o.estimator.Restore(o.state)
	utils.Infof("🔄 恢复运行状态: 历史输出 %d 条, 当前成本 $%.4f",
		o.state.ScrapedItemsCount, o.estimator.CurrentCost())
}

// persistCheckpoint 状态与成本汇总落盘
func (o *Orchestrator) persistCheckpoint() {
	if o.stateStore == nil {
		return
	}

	if data, err := o.state.ToJSON(); err == nil {
		if err := o.stateStore.Set(models.StateKey, data); err != nil {
			utils.Warnf("⚠️ 运行状态落盘失败: %v", err)
		}
	}

	costSummary := o.estimator.Summary()
	if data, err := costSummary.ToJSON(); err == nil {
		if err := o.stateStore.Set(models.CostSummaryKey, data); err != nil {
			utils.Warnf("⚠️ 成本汇总落盘失败: %v", err)
		}
	}
}

// finish 运行收尾: 最终检查点、失败清单落盘、汇总定稿
func (o *Orchestrator) finish() {
	o.estimator.Snapshot(o.state)
	o.state.UpdatedAt = time.Now()
	o.persistCheckpoint()

	if o.failures != nil {
		if err := o.failures.Flush(); err != nil {
			utils.Warnf("⚠️ 失败清单落盘失败: %v", err)
		}
	}

	o.summary.EndTime = time.Now()
	o.summary.Duration = o.summary.EndTime.Sub(o.summary.StartTime).Seconds()
	o.summary.Cost = o.estimator.Summary()
	if o.session != nil {
		o.summary.SessionRotations = o.session.Rotations()
	}

	utils.Infof("📊 运行结束: 处理 %d 任务, 输出 %d 商家, 失败 %d, 成本 $%s",
		o.summary.TasksProcessed, o.summary.PlacesScraped,
		o.summary.FailedTasks, o.summary.Cost.Costs.TotalCost)
}

// snapshotPage 捕获页面当前HTML与URL,交给goquery解析
func snapshotPage(page *rod.Page) (*goquery.Document, string, error) {
	html, err := page.HTML()
	if err != nil {
		return nil, "", fmt.Errorf("获取页面HTML失败: %w", err)
	}
	info, err := page.Info()
	if err != nil {
		return nil, "", fmt.Errorf("获取页面信息失败: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", fmt.Errorf("解析页面HTML失败: %w", err)
	}
	return doc, info.URL, nil
}
