package crawlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/RecoveryAshes/GmapLeads/internal/models"
)

// ErrQueueClosed 队列已关闭
var ErrQueueClosed = fmt.Errorf("队列已关闭")

// TaskQueue 任务队列管理器
// 职责: 管理待处理任务,按URL幂等去重,维护重试簿记
// 同一URL的重复提交会被静默吸收(added=false且无错误)
//
// 底层为无界切片而非有界通道: 生产与消费发生在同一个工作循环里,
// 有界通道会在积压超过容量时让Push把工作循环自己卡死
type TaskQueue struct {
	// 待处理任务(FIFO)
	pending []*models.Task

	// 已入队URL标记集合(入队即标记,重复提交静默丢弃)
	seenURLs map[string]bool

	// 保护pending与seenURLs的互斥锁
	mu sync.Mutex

	// 入队任务总数(去重后)
	enqueued int

	// 队列是否已关闭
	closed bool
}

// NewTaskQueue 创建任务队列实例
// capacity仅作为底层切片的初始容量提示,队列本身无上限
func NewTaskQueue(capacity int) *TaskQueue {
	if capacity <= 0 {
		capacity = 64
	}
	return &TaskQueue{
		pending:  make([]*models.Task, 0, capacity),
		seenURLs: make(map[string]bool),
	}
}

// normalizeURL 入队去重使用的URL规范化
// 去掉fragment,主机名小写,其余部分原样保留
func normalizeURL(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}
	parsed.Fragment = ""
	parsed.Host = strings.ToLower(parsed.Hostname()) + portSuffix(parsed)
	return parsed.String()
}

func portSuffix(u *url.URL) string {
	if p := u.Port(); p != "" {
		return ":" + p
	}
	return ""
}

// Push 提交任务
// 检查队列状态、任务合法性、URL去重; 重复URL静默吸收(added=false且无错误),
// 调用方据added决定是否累计计数; 任何情况下都不会阻塞
func (q *TaskQueue) Push(task *models.Task) (added bool, err error) {
	if err := task.Validate(); err != nil {
		return false, err
	}
	if err := models.ValidateURL(task.URL); err != nil {
		return false, fmt.Errorf("任务URL无效: %w", err)
	}

	key := normalizeURL(task.URL)

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false, ErrQueueClosed
	}
	if q.seenURLs[key] {
		// 幂等提交: 重复URL直接吸收
		return false, nil
	}
	q.seenURLs[key] = true
	q.enqueued++
	q.pending = append(q.pending, task)
	return true, nil
}

// Requeue 失败任务重新入队
// 重试计数+1,绕过URL去重(该URL本就已标记); 重试耗尽时返回false
func (q *TaskQueue) Requeue(task *models.Task) bool {
	if !task.CanRetry() {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	task.Retries++
	q.pending = append(q.pending, task)
	return true
}

// Pop 取出下一个待处理任务
// 队列空时立即返回(nil, false)而非阻塞等待 —— 单工作循环下,
// 队列暂空即代表运行完成(没有其他生产者)
func (q *TaskQueue) Pop(ctx context.Context) (*models.Task, bool) {
	if ctx.Err() != nil {
		return nil, false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil, false
	}
	task := q.pending[0]
	q.pending = q.pending[1:]
	return task, true
}

// EnqueuedCount 去重后的累计入队任务数
func (q *TaskQueue) EnqueuedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enqueued
}

// PendingCount 当前待处理任务数
func (q *TaskQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close 关闭队列
// 关闭后Push返回ErrQueueClosed,Requeue返回false
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
