package models

import (
	"encoding/json"
	"time"
)

// KV存储中的固定键
const (
	// StateKey 运行状态的存储键
	StateKey = "STATE"
	// CostSummaryKey 成本汇总的存储键
	CostSummaryKey = "COST_SUMMARY"
)

// CheckpointInterval 每输出N条记录做一次状态检查点
// 限制写放大的同时,把崩溃丢失的数据量控制在N-1条以内
const CheckpointInterval = 20

// RunState 进程级运行状态
// 运行开始时从外部存储加载一次(缺省为零值),每条记录输出后更新,
// 周期性检查点落盘,运行结束时最终写入
type RunState struct {
	// ScrapedItemsCount 累计输出记录数
	// 自首次运行起单调不减,跨恢复续算
	ScrapedItemsCount int `json:"scrapedItemsCount"`

	// 成本核算计数(与预算账本同步快照)
	Searches           int     `json:"searches"`
	ListingsFound      int     `json:"listingsFound"`
	DetailPages        float64 `json:"detailPages"`
	ContactExtractions int     `json:"contactExtractions"`

	// UpdatedAt 最后检查点时间
	UpdatedAt time.Time `json:"updatedAt"`
}

// ShouldCheckpoint 当前输出计数是否命中检查点间隔
func (s *RunState) ShouldCheckpoint() bool {
	return s.ScrapedItemsCount > 0 && s.ScrapedItemsCount%CheckpointInterval == 0
}

// ToJSON 序列化为JSON
func (s *RunState) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// FromJSON 从JSON反序列化
func (s *RunState) FromJSON(data []byte) error {
	return json.Unmarshal(data, s)
}

// StateStore 键值状态存储契约
// 实现方: 文件存储(internal/store),测试中用内存实现
type StateStore interface {
	// Get 读取指定键,键不存在时返回(nil, nil)
	Get(key string) ([]byte, error)
	// Set 写入指定键
	Set(key string, value []byte) error
}

// DatasetSink 数据集输出契约
// 仅追加,本核心不重复输出同一任务,天然去重
type DatasetSink interface {
	// Push 追加一条商家记录
	Push(record *ListingRecord) error
	// Count 已追加的记录数
	Count() int
}
