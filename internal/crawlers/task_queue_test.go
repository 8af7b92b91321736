package crawlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/RecoveryAshes/GmapLeads/internal/models"
)

func mustSearchTask(t *testing.T, url string) *models.Task {
	t.Helper()
	task, err := models.NewSearchTask(url, models.SearchPayload{})
	if err != nil {
		t.Fatalf("创建任务失败: %v", err)
	}
	return task
}

func TestTaskQueuePushDeduplication(t *testing.T) {
	tests := []struct {
		name         string
		urls         []string
		wantEnqueued int
	}{
		{
			name:         "不同URL全部入队",
			urls:         []string{"https://example.com/a", "https://example.com/b"},
			wantEnqueued: 2,
		},
		{
			name:         "完全相同的URL静默吸收",
			urls:         []string{"https://example.com/a", "https://example.com/a"},
			wantEnqueued: 1,
		},
		{
			name:         "主机名大小写不敏感",
			urls:         []string{"https://Example.COM/a", "https://example.com/a"},
			wantEnqueued: 1,
		},
		{
			name:         "fragment差异视为同一URL",
			urls:         []string{"https://example.com/a#top", "https://example.com/a"},
			wantEnqueued: 1,
		},
		{
			name:         "路径大小写敏感",
			urls:         []string{"https://example.com/A", "https://example.com/a"},
			wantEnqueued: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := NewTaskQueue(0)
			defer queue.Close()

			for _, u := range tt.urls {
				if _, err := queue.Push(mustSearchTask(t, u)); err != nil {
					t.Fatalf("入队失败 [%s]: %v", u, err)
				}
			}
			if got := queue.EnqueuedCount(); got != tt.wantEnqueued {
				t.Errorf("入队数 = %d, 期望 %d", got, tt.wantEnqueued)
			}
		})
	}
}

func TestTaskQueuePushInvalid(t *testing.T) {
	queue := NewTaskQueue(0)
	defer queue.Close()

	// 标签与载荷不匹配
	bad := &models.Task{URL: "https://example.com", Label: models.LabelSearch}
	if _, err := queue.Push(bad); err == nil {
		t.Error("缺载荷的任务入队应报错")
	}

	// URL非法
	bad2 := &models.Task{URL: "not-a-url", Label: models.LabelSearch, Search: &models.SearchPayload{}}
	if _, err := queue.Push(bad2); err == nil {
		t.Error("非法URL入队应报错")
	}
}

func TestTaskQueueRequeue(t *testing.T) {
	queue := NewTaskQueue(0)
	defer queue.Close()

	task := mustSearchTask(t, "https://example.com/a")
	if _, err := queue.Push(task); err != nil {
		t.Fatalf("入队失败: %v", err)
	}

	popped, ok := queue.Pop(context.Background())
	if !ok {
		t.Fatal("队列不应为空")
	}

	// 重试计数逐次+1,第MaxTaskRetries+1次被拒绝
	for i := 1; i <= models.MaxTaskRetries; i++ {
		if !queue.Requeue(popped) {
			t.Fatalf("第%d次重试应被接受", i)
		}
		if popped.Retries != i {
			t.Errorf("重试计数 = %d, 期望 %d", popped.Retries, i)
		}
		popped, ok = queue.Pop(context.Background())
		if !ok {
			t.Fatal("重新入队后队列不应为空")
		}
	}

	if queue.Requeue(popped) {
		t.Errorf("重试%d次后应拒绝再入队", models.MaxTaskRetries)
	}
}

func TestTaskQueuePopEmpty(t *testing.T) {
	queue := NewTaskQueue(0)
	defer queue.Close()

	// 空队列立即返回而非阻塞
	if task, ok := queue.Pop(context.Background()); ok || task != nil {
		t.Error("空队列Pop应返回(nil, false)")
	}
}

func TestTaskQueuePushBeyondCapacityHint(t *testing.T) {
	// 生产与消费在同一个工作循环: 积压超过初始容量时Push绝不能阻塞
	queue := NewTaskQueue(2)
	defer queue.Close()

	for i := 0; i < 10; i++ {
		added, err := queue.Push(mustSearchTask(t, fmt.Sprintf("https://example.com/p/%d", i)))
		if err != nil {
			t.Fatalf("第%d次入队失败: %v", i+1, err)
		}
		if !added {
			t.Fatalf("第%d次入队被误判为重复", i+1)
		}
	}
	if got := queue.PendingCount(); got != 10 {
		t.Fatalf("待处理数 = %d, 期望 10", got)
	}

	// FIFO顺序保持
	first, ok := queue.Pop(context.Background())
	if !ok || first.URL != "https://example.com/p/0" {
		t.Errorf("首个出队 = %v, 期望最早入队的任务", first)
	}
}

func TestTaskQueueClosed(t *testing.T) {
	queue := NewTaskQueue(0)
	queue.Close()

	if _, err := queue.Push(mustSearchTask(t, "https://example.com/a")); err != ErrQueueClosed {
		t.Errorf("关闭后入队错误 = %v, 期望 ErrQueueClosed", err)
	}
}
