package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FeedSelector 搜索结果列表容器
// 列表滚动的进度信号 = 该容器的scrollHeight
const FeedSelector = "div[role='feed']"

// FeedLink 搜索结果中发现的一条商家链接
type FeedLink struct {
	// URL 详情页链接
	URL string

	// Name 列表中的展示名称(可为空)
	Name string
}

// 商家链接的选择器级联: 列表内文章链接 → 列表内任意详情链接 → 全页兜底
var feedLinkQueries = []string{
	"div[role='feed'] a.hfpxzc",
	"div[role='feed'] a[href*='/maps/place/']",
	"a[href*='/maps/place/']",
}

// noResultsPhrases 各语言的"无结果"提示短语
// 命中任一短语时,SEARCH分支静默终止而非报错
var noResultsPhrases = map[string][]string{
	"en": {"can't find", "no results", "did not match any places"},
	"de": {"keine ergebnisse", "wurde nicht gefunden"},
	"fr": {"aucun résultat", "ne correspond à aucun lieu"},
	"es": {"no se encontraron", "sin resultados"},
	"zh": {"找不到", "没有找到相关结果"},
}

// ExtractFeedLinks 抽取搜索结果中的商家链接
// 级联语义: 某一档选择器有命中即停止尝试后续档位;
// 返回去重后按出现顺序排列的链接
func ExtractFeedLinks(doc *goquery.Document) []FeedLink {
	if doc == nil {
		return nil
	}

	for _, query := range feedLinkQueries {
		links := collectLinks(doc, query)
		if len(links) > 0 {
			return links
		}
	}
	return nil
}

// collectLinks 收集单个查询命中的去重链接
func collectLinks(doc *goquery.Document, query string) []FeedLink {
	seen := make(map[string]bool)
	var links []FeedLink

	doc.Find(query).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || !strings.Contains(href, "/maps/place/") {
			return
		}
		if seen[href] {
			return
		}
		seen[href] = true

		name, _ := sel.Attr("aria-label")
		links = append(links, FeedLink{URL: href, Name: strings.TrimSpace(name)})
	})

	return links
}

// HasNoResults 检查页面是否为"无结果"页
// 按配置语言匹配本地化短语,未知语言回落到英语短语表
func HasNoResults(doc *goquery.Document, language string) bool {
	if doc == nil {
		return false
	}

	phrases, ok := noResultsPhrases[language]
	if !ok {
		phrases = noResultsPhrases["en"]
	}

	body := strings.ToLower(doc.Find("body").Text())
	for _, phrase := range phrases {
		if strings.Contains(body, phrase) {
			return true
		}
	}
	return false
}
