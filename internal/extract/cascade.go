// Package extract 提供对已渲染页面HTML的字段抽取启发式
//
// 设计原则: 每个字段使用独立回退的选择器级联 —— 按序尝试备选查询,
// 取第一个非空结果; 单个字段抽取失败不影响其他字段。目标站点的
// 页面结构频繁且无预告地变动,正确性目标是"尽量拿到可用字段值",
// 而非"要么全有要么全无"。
//
// 所有函数针对goquery文档工作,与渲染引擎解耦,可离线单测。
package extract

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Transform 从命中的选区提取字符串值
type Transform func(*goquery.Selection) string

// TextTransform 取选区的纯文本(去首尾空白)
func TextTransform(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.First().Text())
}

// AttrTransform 取选区首个节点的指定属性
func AttrTransform(attr string) Transform {
	return func(sel *goquery.Selection) string {
		val, _ := sel.First().Attr(attr)
		return strings.TrimSpace(val)
	}
}

// Cascade 选择器级联
// 有序的备选查询列表+统一的取值变换,命中即停
type Cascade struct {
	// Queries 按优先级排列的CSS查询
	Queries []string

	// Get 取值变换,nil时默认取文本
	Get Transform
}

// First 执行级联,返回第一个非空结果
// 所有查询都落空时返回空串(字段缺失是正常结果,不是错误)
func (c Cascade) First(doc *goquery.Document) string {
	get := c.Get
	if get == nil {
		get = TextTransform
	}
	for _, query := range c.Queries {
		sel := doc.Find(query)
		if sel.Length() == 0 {
			continue
		}
		if val := get(sel); val != "" {
			return val
		}
	}
	return ""
}

// StripIconLabel 去掉文本开头的图标标签token
// 地址/电话等字段的文本常以一个私有区图标字符开头(如" 大街123号")
func StripIconLabel(s string) string {
	return strings.TrimLeftFunc(s, func(r rune) bool {
		if unicode.IsSpace(r) {
			return true
		}
		// Unicode私有使用区(图标字体的占位符)
		if r >= 0xE000 && r <= 0xF8FF {
			return true
		}
		return r == '�'
	})
}
