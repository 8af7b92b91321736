package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/RecoveryAshes/GmapLeads/internal/models"
)

// ReviewNodeSelector 评论节点选择器
// 评论面板的滚动进度信号 = 该选择器命中的可见节点数
const ReviewNodeSelector = "div.jftiEf"

// starsPattern aria-label中的评分数字(如"5 stars"、"4.0 星")
var starsPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// 评论节点内部的子选择器
var (
	reviewAuthorCascade = Cascade{Queries: []string{
		"div.d4r55",
		"button.al6Kxe div.d4r55",
	}}
	reviewDateCascade = Cascade{Queries: []string{
		"span.rsqaWe",
		"span.xRkPPb",
	}}
	reviewTextCascade = Cascade{Queries: []string{
		"span.wiI7pd",
		"div.MyEned span",
	}}
)

// ParseReviews 从已渲染的页面解析评论
// 返回至多max条; 作者/评分/日期/正文全缺失的空壳节点被丢弃
func ParseReviews(doc *goquery.Document, max int) []models.Review {
	if max <= 0 || doc == nil {
		return nil
	}

	var reviews []models.Review

	doc.Find(ReviewNodeSelector).EachWithBreak(func(_ int, node *goquery.Selection) bool {
		review := parseReviewNode(node)
		if review.IsEmpty() {
			return true
		}
		reviews = append(reviews, review)
		return len(reviews) < max
	})

	return reviews
}

// CountReviewNodes 当前可见评论节点数(滚动进度信号)
func CountReviewNodes(doc *goquery.Document) int {
	if doc == nil {
		return 0
	}
	return doc.Find(ReviewNodeSelector).Length()
}

// parseReviewNode 解析单个评论节点
func parseReviewNode(node *goquery.Selection) models.Review {
	review := models.Review{
		Name:        firstTextIn(node, reviewAuthorCascade),
		Stars:       parseStars(node),
		PublishedAt: firstTextIn(node, reviewDateCascade),
		Text:        firstTextIn(node, reviewTextCascade),
	}

	// 商家回复嵌在评论节点尾部的独立块中
	if reply := node.Find("div.CDe7pd span.wiI7pd"); reply.Length() > 0 {
		review.OwnerReply = strings.TrimSpace(reply.First().Text())
		// 回复块与正文选择器同类,正文误取回复时清理掉
		if review.Text == review.OwnerReply {
			review.Text = firstTextIn(node, Cascade{Queries: []string{"div.MyEned span"}})
		}
	}

	return review
}

// parseStars 从aria-label解析评分数字
// 无法解析时返回nil(评分允许缺失)
func parseStars(node *goquery.Selection) *float64 {
	label := ""
	for _, query := range []string{"span.kvMYJc", "span[role='img']"} {
		if sel := node.Find(query); sel.Length() > 0 {
			if val, ok := sel.First().Attr("aria-label"); ok && val != "" {
				label = val
				break
			}
		}
	}
	if label == "" {
		return nil
	}

	m := starsPattern.FindStringSubmatch(label)
	if m == nil {
		return nil
	}
	stars, err := strconv.ParseFloat(m[1], 64)
	if err != nil || stars < 0 || stars > 5 {
		return nil
	}
	return &stars
}

// firstTextIn 在节点内执行级联取文本
func firstTextIn(node *goquery.Selection, cascade Cascade) string {
	for _, query := range cascade.Queries {
		if sel := node.Find(query); sel.Length() > 0 {
			if text := strings.TrimSpace(sel.First().Text()); text != "" {
				return text
			}
		}
	}
	return ""
}
