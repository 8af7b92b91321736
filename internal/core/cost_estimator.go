package core

import (
	"fmt"
	"math"

	"github.com/RecoveryAshes/GmapLeads/internal/models"
)

// 各类操作的默认单位成本(美元)
// 按典型算力与代理开销估算,可通过字段覆盖,并非精确计费
const (
	DefaultCostPerSearch            = 0.005 // 每次搜索查询
	DefaultCostPerListingBatch      = 0.001 // 搜索结果中每10个商家
	DefaultCostPerDetailPage        = 0.01  // 每个详情页
	DefaultCostPerContactExtraction = 0.02  // 每次网站联系方式挖掘
)

// CostEstimator 成本估算器(预算账本)
// 职责: 累计各类操作计数,折算为单一成本标量,按配置上限做预算闸门
// 计数只增不减,currentCost在单次运行内单调不减
type CostEstimator struct {
	// 操作计数
	placeSearches      int
	placesListed       int
	detailPageScrapes  float64 // AddDetails按0.5个详情页计
	contactExtractions int

	// maxCost 成本上限(美元),0表示不限
	maxCost float64

	// 单位成本(可配置,非关键常量)
	CostPerSearch            float64
	CostPerListingBatch      float64
	CostPerDetailPage        float64
	CostPerContactExtraction float64
}

// NewCostEstimator 创建成本估算器
func NewCostEstimator(maxCostUsd float64) *CostEstimator {
	if maxCostUsd < 0 {
		maxCostUsd = 0
	}
	return &CostEstimator{
		maxCost:                  maxCostUsd,
		CostPerSearch:            DefaultCostPerSearch,
		CostPerListingBatch:      DefaultCostPerListingBatch,
		CostPerDetailPage:        DefaultCostPerDetailPage,
		CostPerContactExtraction: DefaultCostPerContactExtraction,
	}
}

// SetMaxCost 设置成本上限(0=不限)
func (ce *CostEstimator) SetMaxCost(maxCostUsd float64) {
	if maxCostUsd < 0 {
		maxCostUsd = 0
	}
	ce.maxCost = maxCostUsd
}

// Restore 从持久化的运行状态恢复计数
// 跨恢复续算: 成本上限覆盖的是整次运行,不是单个进程
func (ce *CostEstimator) Restore(state *models.RunState) {
	if state == nil {
		return
	}
	ce.placeSearches = state.Searches
	ce.placesListed = state.ListingsFound
	ce.detailPageScrapes = state.DetailPages
	ce.contactExtractions = state.ContactExtractions
}

// Snapshot 把当前计数写回运行状态
func (ce *CostEstimator) Snapshot(state *models.RunState) {
	state.Searches = ce.placeSearches
	state.ListingsFound = ce.placesListed
	state.DetailPages = ce.detailPageScrapes
	state.ContactExtractions = ce.contactExtractions
}

// AddSearches 记录搜索操作
func (ce *CostEstimator) AddSearches(count int) {
	ce.placeSearches += count
}

// AddListings 记录搜索结果中发现的商家数
func (ce *CostEstimator) AddListings(count int) {
	ce.placesListed += count
}

// AddPlace 记录一次详情页抓取,返回预算是否仍有余量
// 计数无条件增加,是否跳过后续工作由调用方决定
func (ce *CostEstimator) AddPlace(count int) bool {
	ce.detailPageScrapes += float64(count)
	return ce.CheckBudget()
}

// AddDetails 记录一次轻量字段抽取(按0.5个详情页计),返回预算是否仍有余量
func (ce *CostEstimator) AddDetails(count int) bool {
	ce.detailPageScrapes += float64(count) * 0.5
	return ce.CheckBudget()
}

// AddContact 记录一次联系方式挖掘,返回预算是否仍有余量
func (ce *CostEstimator) AddContact(count int) bool {
	ce.contactExtractions += count
	return ce.CheckBudget()
}

// CurrentCost 当前估算成本(美元)
func (ce *CostEstimator) CurrentCost() float64 {
	return float64(ce.placeSearches)*ce.CostPerSearch +
		math.Ceil(float64(ce.placesListed)/10)*ce.CostPerListingBatch +
		ce.detailPageScrapes*ce.CostPerDetailPage +
		float64(ce.contactExtractions)*ce.CostPerContactExtraction
}

// CheckBudget 预算是否仍有余量
// maxCost为0时恒为true; 否则currentCost < maxCost才为true
func (ce *CostEstimator) CheckBudget() bool {
	if ce.maxCost <= 0 {
		return true
	}
	return ce.CurrentCost() < ce.maxCost
}

// IsCostLimitReached 成本是否已达到或超过上限
func (ce *CostEstimator) IsCostLimitReached() bool {
	if ce.maxCost <= 0 {
		return false
	}
	return ce.CurrentCost() >= ce.maxCost
}

// Summary 生成成本汇总
func (ce *CostEstimator) Summary() models.CostSummary {
	maxCostStr := "Unlimited"
	if ce.maxCost > 0 {
		maxCostStr = fmt.Sprintf("%.2f", ce.maxCost)
	}

	return models.CostSummary{
		Operations: models.CostOperations{
			Searches:           ce.placeSearches,
			ListingsFound:      ce.placesListed,
			DetailPagesScrapes: ce.detailPageScrapes,
			ContactExtractions: ce.contactExtractions,
		},
		Costs: models.CostBreakdown{
			SearchCost:             fmt.Sprintf("%.4f", float64(ce.placeSearches)*ce.CostPerSearch),
			ListingsCost:           fmt.Sprintf("%.4f", math.Ceil(float64(ce.placesListed)/10)*ce.CostPerListingBatch),
			DetailPagesCost:        fmt.Sprintf("%.4f", ce.detailPageScrapes*ce.CostPerDetailPage),
			ContactExtractionsCost: fmt.Sprintf("%.4f", float64(ce.contactExtractions)*ce.CostPerContactExtraction),
			TotalCost:              fmt.Sprintf("%.4f", ce.CurrentCost()),
		},
		Limits: models.CostLimits{
			MaxCost:          maxCostStr,
			CostLimitReached: ce.IsCostLimitReached(),
		},
	}
}
