package contact

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// visibleText 提取HTML中的可见文本
// 纯文本邮箱/电话的正则扫描只针对可见文本执行,
// 避免把脚本与样式里的资源名当成联系方式
func visibleText(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var builder strings.Builder
	skipDepth := 0

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			return builder.String()

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isInvisibleTag(string(name)) {
				skipDepth++
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isInvisibleTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}

		case html.TextToken:
			if skipDepth == 0 {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					builder.WriteString(text)
					builder.WriteByte(' ')
				}
			}
		}
	}
}

// isInvisibleTag 内容不可见的标签
func isInvisibleTag(name string) bool {
	switch name {
	case "script", "style", "noscript", "template":
		return true
	}
	return false
}
