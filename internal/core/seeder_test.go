package core

import (
	"context"

	"strings"
	"testing"

	"github.com/RecoveryAshes/GmapLeads/internal/crawlers"
	"github.com/RecoveryAshes/GmapLeads/internal/models"
)

func TestZoomForRadius(t *testing.T) {
	tests := []struct {
		name     string
		radiusKm float64
		want     int
	}{
		{"1公里取16", 1, 16},
		{"2公里取15", 2, 15},
		{"5公里取14", 5, 14},
		{"8公里取13", 8, 13},
		{"超大半径下限为10", 500, 10},
		{"非正半径按1公里", 0, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ZoomForRadius(tt.radiusKm); got != tt.want {
				t.Errorf("ZoomForRadius(%v) = %d, 期望 %d", tt.radiusKm, got, tt.want)
			}
		})
	}
}

func TestBuildSearchURL(t *testing.T) {
	tests := []struct {
		name  string
		term  string
		input models.RunInput
		want  []string
	}{
		{
			name: "自定义坐标优先并携带缩放",
			term: "coffee shop",
			input: models.RunInput{
				Language:          "en",
				SearchLocation:    "Berlin",
				CustomGeolocation: &models.CustomGeolocation{Coordinates: []float64{13.405, 52.52}, RadiusKm: 5},
			},
			want: []string{"/maps/search/", "@52.5200000,13.4050000,14z", "hl=en"},
		},
		{
			name: "文本位置拼入搜索词",
			term: "coffee shop",
			input: models.RunInput{
				Language:       "de",
				SearchLocation: "Berlin, Germany",
			},
			want: []string{"coffee shop in Berlin, Germany", "hl=de"},
		},
		{
			name:  "裸搜索词",
			term:  "coffee shop",
			input: models.RunInput{Language: "en"},
			want:  []string{"/maps/search/coffee%20shop", "hl=en"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSearchURL(tt.term, &tt.input)
			for _, fragment := range tt.want {
				if !strings.Contains(got, fragment) {
					t.Errorf("URL缺少片段 %q: %s", fragment, got)
				}
			}
		})
	}
}

func TestEnsureLanguageParam(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "无hl参数时补充",
			url:  "https://www.google.com/maps/place/Acme",
			want: "hl=en",
		},
		{
			name: "已有hl参数时保留原值",
			url:  "https://www.google.com/maps/place/Acme?hl=de",
			want: "hl=de",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ensureLanguageParam(tt.url, "en")
			if !strings.Contains(got, tt.want) {
				t.Errorf("URL = %s, 期望包含 %q", got, tt.want)
			}
		})
	}
}

func TestSeedTasks(t *testing.T) {
	t.Run("搜索词与起始URL各播种一个任务", func(t *testing.T) {
		queue := crawlers.NewTaskQueue(0)
		defer queue.Close()

		input := &models.RunInput{
			StartUrls: []models.StartURL{
				{URL: "https://www.google.com/maps/search/pizza"},
			},
			SearchStringsArray: []string{"coffee shop"},
			Language:           "en",
		}

		seeded, err := SeedTasks(queue, input)
		if err != nil {
			t.Fatalf("播种失败: %v", err)
		}
		if seeded != 2 {
			t.Errorf("播种任务数 = %d, 期望 2", seeded)
		}
	})

	t.Run("重复播种被幂等吸收", func(t *testing.T) {
		queue := crawlers.NewTaskQueue(0)
		defer queue.Close()

		input := &models.RunInput{
			SearchStringsArray: []string{"coffee shop"},
			Language:           "en",
		}

		if _, err := SeedTasks(queue, input); err != nil {
			t.Fatalf("首次播种失败: %v", err)
		}
		seeded, err := SeedTasks(queue, input)
		if err != nil {
			t.Fatalf("重复播种不应报错: %v", err)
		}
		if seeded != 0 {
			t.Errorf("重复播种新增任务 = %d, 期望 0", seeded)
		}
		if queue.EnqueuedCount() != 1 {
			t.Errorf("累计入队 = %d, 期望 1", queue.EnqueuedCount())
		}
	})

	t.Run("同时给出详情URL与搜索词时升级为锚点任务", func(t *testing.T) {
		queue := crawlers.NewTaskQueue(0)
		defer queue.Close()

		input := &models.RunInput{
			StartUrls: []models.StartURL{
				{URL: "https://www.google.com/maps/place/Acme+Plumbing"},
			},
			SearchStringsArray: []string{"plumber"},
			Language:           "en",
		}

		if _, err := SeedTasks(queue, input); err != nil {
			t.Fatalf("播种失败: %v", err)
		}

		var sawAnchor bool
		for {
			task, ok := queue.Pop(context.Background())
			if !ok {
				break
			}
			if task.Label == models.LabelExtractAndSearch {
				sawAnchor = true
				if len(task.Anchor.Terms) != 1 || task.Anchor.Terms[0] != "plumber" {
					t.Errorf("锚点载荷 = %v, 期望 [plumber]", task.Anchor.Terms)
				}
			}
		}
		if !sawAnchor {
			t.Error("应播种EXTRACT_AND_SEARCH任务")
		}
	})

	t.Run("显式标签优先于推断", func(t *testing.T) {
		queue := crawlers.NewTaskQueue(0)
		defer queue.Close()

		input := &models.RunInput{
			StartUrls: []models.StartURL{
				{URL: "https://www.google.com/maps/place/Acme", Label: string(models.LabelSearch)},
			},
			Language: "en",
		}

		if _, err := SeedTasks(queue, input); err != nil {
			t.Fatalf("播种失败: %v", err)
		}

		task, ok := queue.Pop(context.Background())
		if !ok {
			t.Fatal("队列不应为空")
		}
		if task.Label != models.LabelSearch {
			t.Errorf("标签 = %s, 期望显式指定的SEARCH", task.Label)
		}
	})

	t.Run("未知显式标签回退URL推断", func(t *testing.T) {
		queue := crawlers.NewTaskQueue(0)
		defer queue.Close()

		input := &models.RunInput{
			StartUrls: []models.StartURL{
				{URL: "https://www.google.com/maps/place/Acme", Label: "FOO"},
			},
			Language: "en",
		}

		if _, err := SeedTasks(queue, input); err != nil {
			t.Fatalf("播种失败: %v", err)
		}

		task, ok := queue.Pop(context.Background())
		if !ok {
			t.Fatal("队列不应为空")
		}
		if task.Label != models.LabelDetail {
			t.Errorf("标签 = %s, 期望按URL形态推断为DETAIL", task.Label)
		}
	})

	t.Run("空输入报错", func(t *testing.T) {
		queue := crawlers.NewTaskQueue(0)
		defer queue.Close()

		if _, err := SeedTasks(queue, &models.RunInput{Language: "en"}); err == nil {
			t.Error("零任务播种应报错")
		}
	})
}
