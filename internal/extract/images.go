package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// imageSizePattern 图片URL中的宽高token,重写为高分辨率变体
var imageSizePattern = regexp.MustCompile(`=w\d+-h\d+`)

// highResVariant 统一升级到的分辨率
const highResVariant = "=w1024-h768"

// 图片节点的选择器级联
var imageQueries = []string{
	"button[jsaction*='heroHeaderImage'] img",
	"div[role='img'] img[src*='googleusercontent']",
	"img[src*='googleusercontent.com']",
}

// ExtractImages 抽取详情页图片URL
// 返回去重后按出现顺序排列、至多max个的URL序列,
// 每个URL的宽高token升级为高分辨率变体
func ExtractImages(doc *goquery.Document, max int) []string {
	if max <= 0 || doc == nil {
		return nil
	}

	seen := make(map[string]bool)
	var images []string

	for _, query := range imageQueries {
		doc.Find(query).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			src, ok := sel.Attr("src")
			if !ok {
				return true
			}
			src = strings.TrimSpace(src)
			if src == "" || strings.HasPrefix(src, "data:") {
				return true
			}

			upgraded := UpgradeImageURL(src)
			if seen[upgraded] {
				return true
			}
			seen[upgraded] = true
			images = append(images, upgraded)

			return len(images) < max
		})

		// 级联语义: 某一档查询有结果就不再尝试下一档
		if len(images) > 0 {
			break
		}
	}

	return images
}

// UpgradeImageURL 把URL中的宽高token重写为高分辨率变体
func UpgradeImageURL(src string) string {
	return imageSizePattern.ReplaceAllString(src, highResVariant)
}
