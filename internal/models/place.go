package models

import (
	"encoding/json"
	"strings"
	"time"
)

// PlaceStatus 商家营业状态
type PlaceStatus string

const (
	StatusOperational       PlaceStatus = "Operational"        // 正常营业
	StatusTemporarilyClosed PlaceStatus = "Temporarily closed" // 暂停营业
	StatusPermanentlyClosed PlaceStatus = "Permanently closed" // 永久停业
)

// ParsePlaceStatus 从页面状态文本推断营业状态
// 固定短语匹配"permanently closed"(不区分大小写),其余默认为正常营业
func ParsePlaceStatus(statusText string) PlaceStatus {
	lower := strings.ToLower(statusText)
	switch {
	case strings.Contains(lower, "permanently closed"):
		return StatusPermanentlyClosed
	case strings.Contains(lower, "temporarily closed"):
		return StatusTemporarilyClosed
	default:
		return StatusOperational
	}
}

// Coordinates 经纬度坐标
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Review 单条评论
// 仅随父记录嵌套输出,不单独持久化
type Review struct {
	// Name 评论者名称
	Name string `json:"name"`

	// Stars 评分(1-5),无法解析时为nil
	Stars *float64 `json:"stars"`

	// PublishedAt 相对或绝对日期文本(如"2 months ago")
	PublishedAt string `json:"publishedAtDate,omitempty"`

	// Text 评论正文
	Text string `json:"text,omitempty"`

	// OwnerReply 商家回复(可选)
	OwnerReply string `json:"ownerReply,omitempty"`
}

// IsEmpty 判断评论节点是否为空壳
// 作者/评分/日期/正文全缺失的节点会被丢弃
func (r *Review) IsEmpty() bool {
	return r.Name == "" && r.Stars == nil && r.PublishedAt == "" && r.Text == ""
}

// OpeningHoursRow 营业时间表中的一行
type OpeningHoursRow struct {
	Day   string `json:"day"`
	Hours string `json:"hours"`
}

// ListingRecord 单个商家的输出记录
// 每个DETAIL任务完成时创建一次,输出后不可变,不做upsert
type ListingRecord struct {
	// 身份标识(name与scrapedUrl为必填,其余可为空)
	PlaceID    string `json:"placeId,omitempty"`
	ScrapedURL string `json:"scrapedUrl"`
	Name       string `json:"name"`

	// 位置信息
	Address  string       `json:"address,omitempty"`
	Location *Coordinates `json:"location,omitempty"`
	PlusCode string       `json:"plusCode,omitempty"`

	// 分类信息
	Category string      `json:"category,omitempty"`
	Status   PlaceStatus `json:"status"`

	// 联系方式
	Phone          string            `json:"phone,omitempty"`
	Website        string            `json:"website,omitempty"`
	Email          string            `json:"email,omitempty"`
	SocialProfiles map[string]string `json:"socialProfiles,omitempty"`

	// 富内容(有序)
	OpeningHours []OpeningHoursRow `json:"openingHours,omitempty"`
	ImageUrls    []string          `json:"imageUrls,omitempty"`
	Reviews      []Review          `json:"reviews,omitempty"`

	// 来源与时间
	SearchString string    `json:"searchString,omitempty"`
	ScrapedAt    time.Time `json:"scrapedAt"`

	// ErrorNotes 软失败注记,多条用"; "连接,无失败时省略
	ErrorNotes string `json:"_error,omitempty"`
}

// AppendErrorNote 追加一条软失败注记
// 可选字段抽取失败时调用,记录后继续处理,绝不升级为任务失败
func (r *ListingRecord) AppendErrorNote(note string) {
	if note == "" {
		return
	}
	if r.ErrorNotes == "" {
		r.ErrorNotes = note
		return
	}
	r.ErrorNotes += "; " + note
}

// MergeSocialProfiles 合并联系方式挖掘得到的社交链接
// 键冲突时保留详情页原生抽取的值
func (r *ListingRecord) MergeSocialProfiles(found map[string]string) {
	if len(found) == 0 {
		return
	}
	if r.SocialProfiles == nil {
		r.SocialProfiles = make(map[string]string, len(found))
	}
	for platform, profileURL := range found {
		if _, exists := r.SocialProfiles[platform]; !exists {
			r.SocialProfiles[platform] = profileURL
		}
	}
}

// ToJSON 序列化为单行JSON(数据集为JSONL格式)
func (r *ListingRecord) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON 从JSON反序列化
func (r *ListingRecord) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
