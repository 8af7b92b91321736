package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TaskLabel 任务标签
// 闭合枚举: 每个标签对应一种处理分支,并携带各自的载荷结构
type TaskLabel string

const (
	// LabelSearch 搜索结果页任务: 枚举列表中的商家链接
	LabelSearch TaskLabel = "SEARCH"
	// LabelDetail 详情页任务: 抽取单个商家的完整信息
	LabelDetail TaskLabel = "DETAIL"
	// LabelExtractAndSearch 锚点任务: 先从起始页推导坐标锚点,再派生搜索任务
	LabelExtractAndSearch TaskLabel = "EXTRACT_AND_SEARCH"
)

// MaxTaskRetries 单个任务的最大重试次数
const MaxTaskRetries = 3

// SearchPayload SEARCH任务的载荷
type SearchPayload struct {
	// Term 搜索关键词(起始URL直接入队时可能为空)
	Term string `json:"term,omitempty"`

	// Location 自由文本位置描述
	Location string `json:"location,omitempty"`

	// Anchor 坐标锚点(由EXTRACT_AND_SEARCH派生或customGeolocation提供)
	Anchor *Coordinates `json:"anchor,omitempty"`

	// EnqueuedDetails 本次搜索已入队的详情任务数(跨重试累计)
	EnqueuedDetails int `json:"enqueued_details"`
}

// DetailPayload DETAIL任务的载荷
type DetailPayload struct {
	// SearchTerm 来源搜索词(起始URL直接入队时为空)
	SearchTerm string `json:"search_term,omitempty"`

	// KnownName 在搜索结果页已知的展示名称(可为空)
	KnownName string `json:"known_name,omitempty"`
}

// AnchorPayload EXTRACT_AND_SEARCH任务的载荷
type AnchorPayload struct {
	// Terms 派生SEARCH任务使用的搜索词列表
	Terms []string `json:"terms"`
}

// Task 一个爬取工作单元
// 由编排器在播种或页面产出后续工作时创建,被工作循环恰好消费一次;
// 瞬时失败时带重试计数重新入队,重试耗尽后终态失败
type Task struct {
	// ID 任务唯一标识
	ID string `json:"id"`

	// URL 目标URL
	URL string `json:"url"`

	// Label 任务标签,决定处理分支
	Label TaskLabel `json:"label"`

	// Retries 已重试次数
	Retries int `json:"retries"`

	// 各标签专属载荷,恰好一个非nil(与Label对应)
	Search *SearchPayload `json:"search,omitempty"`
	Detail *DetailPayload `json:"detail,omitempty"`
	Anchor *AnchorPayload `json:"anchor,omitempty"`

	// CreatedAt 创建时间
	CreatedAt time.Time `json:"created_at"`
}

// NewSearchTask 创建SEARCH任务
func NewSearchTask(urlStr string, payload SearchPayload) (*Task, error) {
	if err := ValidateURL(urlStr); err != nil {
		return nil, err
	}
	return &Task{
		ID:        generateID(),
		URL:       urlStr,
		Label:     LabelSearch,
		Search:    &payload,
		CreatedAt: time.Now(),
	}, nil
}

// NewDetailTask 创建DETAIL任务
func NewDetailTask(urlStr string, payload DetailPayload) (*Task, error) {
	if err := ValidateURL(urlStr); err != nil {
		return nil, err
	}
	return &Task{
		ID:        generateID(),
		URL:       urlStr,
		Label:     LabelDetail,
		Detail:    &payload,
		CreatedAt: time.Now(),
	}, nil
}

// NewAnchorTask 创建EXTRACT_AND_SEARCH任务
func NewAnchorTask(urlStr string, payload AnchorPayload) (*Task, error) {
	if err := ValidateURL(urlStr); err != nil {
		return nil, err
	}
	return &Task{
		ID:        generateID(),
		URL:       urlStr,
		Label:     LabelExtractAndSearch,
		Anchor:    &payload,
		CreatedAt: time.Now(),
	}, nil
}

// Validate 校验标签与载荷的对应关系
// 每个任务必须恰好携带与其标签匹配的载荷
func (t *Task) Validate() error {
	switch t.Label {
	case LabelSearch:
		if t.Search == nil {
			return fmt.Errorf("SEARCH任务缺少搜索载荷: %s", t.URL)
		}
	case LabelDetail:
		if t.Detail == nil {
			return fmt.Errorf("DETAIL任务缺少详情载荷: %s", t.URL)
		}
	case LabelExtractAndSearch:
		if t.Anchor == nil {
			return fmt.Errorf("EXTRACT_AND_SEARCH任务缺少锚点载荷: %s", t.URL)
		}
	default:
		return fmt.Errorf("未知任务标签: %s", t.Label)
	}
	return nil
}

// CanRetry 是否还有重试余量
func (t *Task) CanRetry() bool {
	return t.Retries < MaxTaskRetries
}

// ToJSON 序列化为JSON
func (t *Task) ToJSON() ([]byte, error) {
	return json.Marshal(t)
}

// FromJSON 从JSON反序列化
func (t *Task) FromJSON(data []byte) error {
	return json.Unmarshal(data, t)
}

// InferLabelFromURL 按URL形状推断任务标签
// /maps/search/ → SEARCH, /maps/place/ → DETAIL, 其他 → DETAIL(返回warning=true)
func InferLabelFromURL(urlStr string) (label TaskLabel, warning bool) {
	switch {
	case strings.Contains(urlStr, "/maps/search/"):
		return LabelSearch, false
	case strings.Contains(urlStr, "/maps/place/"):
		return LabelDetail, false
	default:
		return LabelDetail, true
	}
}

// StartURL 起始URL条目
// 输入中既可以是裸字符串,也可以是带label的对象
type StartURL struct {
	URL   string `json:"url"`
	Label string `json:"label,omitempty"`
}

// UnmarshalJSON 同时接受 "https://..." 与 {"url": "...", "label": "..."}
func (s *StartURL) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		s.URL = plain
		s.Label = ""
		return nil
	}

	type alias StartURL
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("startUrls条目格式无效: %w", err)
	}
	*s = StartURL(obj)
	return nil
}

// CustomGeolocation 自定义地理位置
type CustomGeolocation struct {
	// Coordinates 坐标对,顺序为 [lng, lat] (GeoJSON约定)
	Coordinates []float64 `json:"coordinates"`

	// RadiusKm 搜索半径(公里)
	RadiusKm float64 `json:"radiusKm"`
}

// Point 返回 (lat, lng)
func (g *CustomGeolocation) Point() (lat, lng float64, ok bool) {
	if g == nil || len(g.Coordinates) != 2 {
		return 0, 0, false
	}
	return g.Coordinates[1], g.Coordinates[0], true
}

// ProxyConfig 代理配置
type ProxyConfig struct {
	// ProxyUrls 代理地址列表,会话轮换时按序取用
	ProxyUrls []string `json:"proxyUrls"`
}

// 评论排序方式
const (
	ReviewsSortNewest         = "newest"
	ReviewsSortMostRelevant   = "mostRelevant"
	ReviewsSortHighestRanking = "highestRanking"
	ReviewsSortLowestRanking  = "lowestRanking"
)

// RunInput 单次运行的JSON输入对象
type RunInput struct {
	StartUrls                 []StartURL         `json:"startUrls"`
	SearchStringsArray        []string           `json:"searchStringsArray"`
	SearchLocation            string             `json:"searchLocation"`
	CustomGeolocation         *CustomGeolocation `json:"customGeolocation"`
	MaxCrawledPlacesPerSearch int                `json:"maxCrawledPlacesPerSearch"`
	MaxCrawledPlaces          int                `json:"maxCrawledPlaces"`
	MaxCostPerRun             float64            `json:"maxCostPerRun"`
	ScrapeContacts            bool               `json:"scrapeContacts"`
	ScrapePlaceDetailPage     bool               `json:"scrapePlaceDetailPage"`
	SkipClosedPlaces          bool               `json:"skipClosedPlaces"`
	MaxImages                 int                `json:"maxImages"`
	MaxReviews                int                `json:"maxReviews"`
	ReviewsSort               string             `json:"reviewsSort"`
	Language                  string             `json:"language"`
	ProxyConfig               *ProxyConfig       `json:"proxyConfig"`
	CostOptimizedMode         bool               `json:"costOptimizedMode"`
	SkipContactExtraction     bool               `json:"skipContactExtraction"`
	MaxRunMinutes             int                `json:"maxRunMinutes"`
}

// Validate 快速失败校验
// 在任何浏览器工作之前执行,失败属于配置错误,不重试
func (c *RunInput) Validate() error {
	if len(c.StartUrls) == 0 && len(c.SearchStringsArray) == 0 {
		return fmt.Errorf("配置错误: 必须提供startUrls或searchStringsArray之一")
	}

	for i, s := range c.StartUrls {
		if err := ValidateURL(s.URL); err != nil {
			return fmt.Errorf("startUrls第%d项无效: %w", i+1, err)
		}
	}

	if c.CustomGeolocation != nil {
		if _, _, ok := c.CustomGeolocation.Point(); !ok {
			return fmt.Errorf("customGeolocation.coordinates必须为[lng, lat]两元素数组")
		}
		if c.CustomGeolocation.RadiusKm <= 0 {
			return fmt.Errorf("customGeolocation.radiusKm必须大于0")
		}
	}

	if c.MaxCrawledPlaces < 0 || c.MaxCrawledPlacesPerSearch < 0 {
		return fmt.Errorf("商家数量上限不能为负数")
	}
	if c.MaxCostPerRun < 0 {
		return fmt.Errorf("maxCostPerRun不能为负数")
	}
	if c.MaxImages < 0 || c.MaxReviews < 0 {
		return fmt.Errorf("maxImages/maxReviews不能为负数")
	}

	switch c.ReviewsSort {
	case "", ReviewsSortNewest, ReviewsSortMostRelevant,
		ReviewsSortHighestRanking, ReviewsSortLowestRanking:
	default:
		return fmt.Errorf("不支持的reviewsSort: %s", c.ReviewsSort)
	}

	return nil
}

// ApplyDefaults 填充缺省值
func (c *RunInput) ApplyDefaults() {
	if c.Language == "" {
		c.Language = "en"
	}
	if c.ReviewsSort == "" {
		c.ReviewsSort = ReviewsSortMostRelevant
	}
	if c.MaxRunMinutes <= 0 {
		c.MaxRunMinutes = 10
	}
}

// ApplyCostOptimizedMode 应用省钱模式覆盖
// 图片/评论上限压到1,关闭联系方式挖掘,收紧滚动步数
func (c *RunInput) ApplyCostOptimizedMode() {
	if !c.CostOptimizedMode {
		return
	}
	if c.MaxImages > 1 {
		c.MaxImages = 1
	}
	if c.MaxReviews > 1 {
		c.MaxReviews = 1
	}
	c.ScrapeContacts = false
	c.SkipContactExtraction = true
}

// FeedScrollCap 搜索结果列表的最大滚动步数
func (c *RunInput) FeedScrollCap() int {
	if c.CostOptimizedMode {
		return 5
	}
	return 25
}

// ReviewScrollCap 评论面板的最大滚动步数
func (c *RunInput) ReviewScrollCap() int {
	if c.CostOptimizedMode {
		return 2
	}
	return 5
}

// ContactsEnabled 是否启用联系方式挖掘
func (c *RunInput) ContactsEnabled() bool {
	return c.ScrapeContacts && !c.SkipContactExtraction
}
