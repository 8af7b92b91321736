package models

import (
	"encoding/json"
	"time"
)

// CostOperations 各类操作的计数
type CostOperations struct {
	Searches           int     `json:"searches"`
	ListingsFound      int     `json:"listingsFound"`
	DetailPagesScrapes float64 `json:"detailPagesScrapes"`
	ContactExtractions int     `json:"contactExtractions"`
}

// CostBreakdown 各类操作的估算成本(美元,保留4位小数的字符串)
type CostBreakdown struct {
	SearchCost             string `json:"searchCost"`
	ListingsCost           string `json:"listingsCost"`
	DetailPagesCost        string `json:"detailPagesCost"`
	ContactExtractionsCost string `json:"contactExtractionsCost"`
	TotalCost              string `json:"totalCost"`
}

// CostLimits 成本上限信息
type CostLimits struct {
	// MaxCost 上限金额,无限制时为"Unlimited"
	MaxCost          string `json:"maxCost"`
	CostLimitReached bool   `json:"costLimitReached"`
}

// CostSummary 成本汇总
type CostSummary struct {
	Operations CostOperations `json:"operations"`
	Costs      CostBreakdown  `json:"costs"`
	Limits     CostLimits     `json:"limits"`
}

// ToJSON 序列化为JSON
func (c *CostSummary) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// FailedTaskInfo 终态失败任务信息
type FailedTaskInfo struct {
	URL      string    `json:"url"`
	Label    TaskLabel `json:"label"`
	Retries  int       `json:"retries"`
	ErrorMsg string    `json:"error_msg"`
	FailedAt time.Time `json:"failed_at"`
}

// RunSummary 运行汇总报告
type RunSummary struct {
	// 运行信息
	RunID string `json:"run_id"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	TasksProcessed int `json:"tasks_processed"`
	SearchPages    int `json:"search_pages"`
	DetailPages    int `json:"detail_pages"`
	PlacesScraped  int `json:"places_scraped"`
	SkippedClosed  int `json:"skipped_closed"`
	FailedTasks    int `json:"failed_tasks"`

	// 会话轮换次数
	SessionRotations int `json:"session_rotations"`

	// 成本汇总
	Cost CostSummary `json:"cost"`

	// 失败任务列表
	Failures []FailedTaskInfo `json:"failures,omitempty"`

	// 输出路径
	DatasetFile string `json:"dataset_file"`
	OutputDir   string `json:"output_dir"`

	// 输入快照
	Input RunInput `json:"input"`
}

// ToJSON 序列化为JSON
func (r *RunSummary) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *RunSummary) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
