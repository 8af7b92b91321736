package crawlers

import (
	"context"
	"testing"
)

func TestScrollUntilStable(t *testing.T) {
	tests := []struct {
		name           string
		signals        []int
		opts           ScrollOptions
		wantIterations int
		wantReason     ScrollStopReason
	}{
		{
			name:           "信号在第K步停止增长时第K+1步终止",
			signals:        []int{100, 200, 300, 300, 300},
			opts:           ScrollOptions{MaxIterations: 10},
			wantIterations: 4,
			wantReason:     ScrollStopStable,
		},
		{
			name:           "持续增长时恰好执行上限次",
			signals:        []int{100, 200, 300, 400, 500, 600},
			opts:           ScrollOptions{MaxIterations: 3},
			wantIterations: 3,
			wantReason:     ScrollStopCapReached,
		},
		{
			name:           "信号达到目标值提前终止",
			signals:        []int{3, 7, 12, 20},
			opts:           ScrollOptions{MaxIterations: 10, Target: 10},
			wantIterations: 3,
			wantReason:     ScrollStopTargetReached,
		},
		{
			name:           "首步即为0时第二步判稳",
			signals:        []int{0, 0},
			opts:           ScrollOptions{MaxIterations: 10},
			wantIterations: 2,
			wantReason:     ScrollStopStable,
		},
		{
			name:           "迭代上限为0时不执行",
			signals:        []int{100},
			opts:           ScrollOptions{MaxIterations: 0},
			wantIterations: 0,
			wantReason:     ScrollStopCapReached,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			step := func(context.Context) (int, error) {
				signal := tt.signals[calls]
				calls++
				return signal, nil
			}

			result, err := ScrollUntilStable(context.Background(), tt.opts, step)
			if err != nil {
				t.Fatalf("滚动循环出错: %v", err)
			}
			if result.Iterations != tt.wantIterations {
				t.Errorf("迭代次数 = %d, 期望 %d", result.Iterations, tt.wantIterations)
			}
			if result.Reason != tt.wantReason {
				t.Errorf("终止原因 = %s, 期望 %s", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestScrollUntilStableCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	step := func(context.Context) (int, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return calls * 100, nil
	}

	result, err := ScrollUntilStable(ctx, ScrollOptions{MaxIterations: 10}, step)
	if err == nil {
		t.Error("context取消后应返回错误")
	}
	if result.Reason != ScrollStopCancelled {
		t.Errorf("终止原因 = %s, 期望 %s", result.Reason, ScrollStopCancelled)
	}
}

func TestScrollUntilStableStepError(t *testing.T) {
	wantErr := context.DeadlineExceeded
	step := func(context.Context) (int, error) {
		return 0, wantErr
	}

	_, err := ScrollUntilStable(context.Background(), ScrollOptions{MaxIterations: 5}, step)
	if err != wantErr {
		t.Errorf("错误 = %v, 期望 %v", err, wantErr)
	}
}
