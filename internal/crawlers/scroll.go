package crawlers

import (
	"context"
	"math/rand"
	"time"
)

// ScrollStopReason 滚动循环的终止原因
type ScrollStopReason string

const (
	// ScrollStopStable 进度信号与上一轮相同(内容到底)
	ScrollStopStable ScrollStopReason = "stable"
	// ScrollStopCapReached 达到迭代上限
	ScrollStopCapReached ScrollStopReason = "cap_reached"
	// ScrollStopTargetReached 达到调用方指定的目标值
	ScrollStopTargetReached ScrollStopReason = "target_reached"
	// ScrollStopCancelled context取消
	ScrollStopCancelled ScrollStopReason = "cancelled"
)

// ScrollOptions 滚动稳定性循环的参数
type ScrollOptions struct {
	// MaxIterations 最大滚动次数(必须>0)
	MaxIterations int

	// Target 目标进度值,>0时信号达到该值即提前终止
	Target int

	// Interval 每轮滚动后的基础等待时间
	Interval time.Duration

	// Jitter 追加的随机等待上限(0表示不加抖动)
	Jitter time.Duration
}

// ScrollResult 滚动循环的结果
type ScrollResult struct {
	// Iterations 实际执行的滚动次数
	Iterations int

	// FinalSignal 最后一次测得的进度信号
	FinalSignal int

	// Reason 终止原因
	Reason ScrollStopReason
}

// ScrollStep 单步滚动函数
// 执行一次"滚到底部并重新测量"动作,返回当前进度信号
// (搜索列表用容器scrollHeight,评论面板用可见节点数)
type ScrollStep func(ctx context.Context) (int, error)

// ScrollUntilStable 有界轮询滚动循环
// 反复执行step并比较进度信号,满足以下任一条件即终止:
//   - 信号与上一轮相同(可用内容已到底)
//   - 达到迭代上限
//   - 信号达到调用方目标值
//
// 幂等终止: 到达上限不算错误,正常停止,"结果比期望少"由调用方
// 视为普通非异常结果
func ScrollUntilStable(ctx context.Context, opts ScrollOptions, step ScrollStep) (ScrollResult, error) {
	result := ScrollResult{Reason: ScrollStopCapReached}
	if opts.MaxIterations <= 0 {
		return result, nil
	}

	previous := -1
	for i := 0; i < opts.MaxIterations; i++ {
		signal, err := step(ctx)
		if err != nil {
			result.Reason = ScrollStopCancelled
			return result, err
		}
		result.Iterations = i + 1
		result.FinalSignal = signal

		if opts.Target > 0 && signal >= opts.Target {
			result.Reason = ScrollStopTargetReached
			return result, nil
		}
		if signal == previous {
			result.Reason = ScrollStopStable
			return result, nil
		}
		previous = signal

		if !scrollWait(ctx, opts) {
			result.Reason = ScrollStopCancelled
			return result, ctx.Err()
		}
	}

	result.Reason = ScrollStopCapReached
	return result, nil
}

// scrollWait 轮次之间的等待(基础间隔+随机抖动),context感知
func scrollWait(ctx context.Context, opts ScrollOptions) bool {
	wait := opts.Interval
	if opts.Jitter > 0 {
		wait += time.Duration(rand.Int63n(int64(opts.Jitter)))
	}
	if wait <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
