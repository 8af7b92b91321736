package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/RecoveryAshes/GmapLeads/internal/models"
)

// placeIDPattern 详情页URL内嵌的商家标识token
var placeIDPattern = regexp.MustCompile(`!1s(0x[0-9a-f]+:0x[0-9a-f]+)`)

// CoreFields 详情页核心字段(原始文本,已做图标清洗)
type CoreFields struct {
	Name       string
	Category   string
	Address    string
	Phone      string
	Website    string
	PlusCode   string
	StatusText string
}

// 各字段的选择器级联
// 第一项是当前页面结构,后续为历史结构兜底
var (
	nameCascade = Cascade{Queries: []string{
		"h1.DUwDvf",
		"h1.fontHeadlineLarge",
		"h1",
	}}

	categoryCascade = Cascade{Queries: []string{
		"button.DkEaL",
		"button[jsaction*='category']",
		"span.DkEaL",
	}}

	addressCascade = Cascade{Queries: []string{
		"button[data-item-id='address']",
		"div[data-item-id='address']",
		"button[aria-label^='Address']",
	}}

	phoneCascade = Cascade{Queries: []string{
		"button[data-item-id^='phone:tel']",
		"button[data-item-id^='phone']",
		"a[href^='tel:']",
	}}

	websiteCascade = Cascade{Queries: []string{
		"a[data-item-id='authority']",
		"a[aria-label^='Website']",
	}, Get: AttrTransform("href")}

	plusCodeCascade = Cascade{Queries: []string{
		"button[data-item-id='oloc']",
		"button[data-item-id='plus_code']",
	}}

	statusCascade = Cascade{Queries: []string{
		"span.JZ9JDb",
		"div.mgr77e span",
		"span.ZDu9vd",
	}}
)

// ExtractCoreFields 抽取详情页核心字段
// 每个字段独立回退,互不阻塞
func ExtractCoreFields(doc *goquery.Document) CoreFields {
	return CoreFields{
		Name:       nameCascade.First(doc),
		Category:   categoryCascade.First(doc),
		Address:    StripIconLabel(addressCascade.First(doc)),
		Phone:      StripIconLabel(phoneCascade.First(doc)),
		Website:    normalizeWebsiteURL(websiteCascade.First(doc)),
		PlusCode:   StripIconLabel(plusCodeCascade.First(doc)),
		StatusText: statusCascade.First(doc),
	}
}

// ExtractPlaceID 解析商家标识token
// 先查当前URL,再兜底扫描页面源码; 找不到时返回空串(允许为空)
func ExtractPlaceID(pageURL string, doc *goquery.Document) string {
	if m := placeIDPattern.FindStringSubmatch(pageURL); m != nil {
		return m[1]
	}
	if doc != nil {
		if html, err := doc.Html(); err == nil {
			if m := placeIDPattern.FindStringSubmatch(html); m != nil {
				return m[1]
			}
		}
	}
	return ""
}

// Status 从状态文本推断营业状态
func (f CoreFields) Status() models.PlaceStatus {
	return models.ParsePlaceStatus(f.StatusText)
}

// normalizeWebsiteURL 清洗官网链接
// 页面中的官网链接偶尔是协议相对或带跳转包装的形式
func normalizeWebsiteURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	// 跳转包装: /url?q=https://example.com&...
	if strings.HasPrefix(href, "/url?") {
		if idx := strings.Index(href, "q="); idx >= 0 {
			target := href[idx+2:]
			if amp := strings.IndexByte(target, '&'); amp >= 0 {
				target = target[:amp]
			}
			return target
		}
	}
	return href
}
