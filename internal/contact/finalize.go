package contact

import (
	"strings"
)

// FinalizeEmails 邮箱候选的最终过滤
// 过滤顺序: 占位域名黑名单 → 文件扩展名误报 → 功能性前缀 →
// 域名必须包含点号; 保留发现顺序,去重
func FinalizeEmails(candidates []string) []string {
	seen := make(map[string]bool)
	var out []string

	for _, raw := range candidates {
		email := strings.ToLower(strings.TrimSpace(raw))
		if email == "" || seen[email] {
			continue
		}
		if !isPlausibleEmail(email) {
			continue
		}
		seen[email] = true
		out = append(out, email)
	}
	return out
}

// isPlausibleEmail 单个邮箱是否可信
func isPlausibleEmail(email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]

	// 域名部分必须包含点号
	if !strings.Contains(domain, ".") {
		return false
	}

	for _, excluded := range excludedEmailDomains {
		if domain == excluded || strings.HasSuffix(domain, "."+excluded) {
			return false
		}
	}
	for _, suffix := range excludedEmailSuffixes {
		if strings.HasSuffix(email, suffix) {
			return false
		}
	}
	for _, prefix := range excludedEmailPrefixes {
		if strings.HasPrefix(email, prefix) {
			return false
		}
	}
	return true
}

// FinalizePhones 电话候选的归一化与过滤
// 仅保留数字与"+()-. "字符,至少7位数字; 保留发现顺序,按归一化值去重
func FinalizePhones(candidates []string) []string {
	seen := make(map[string]bool)
	var out []string

	for _, raw := range candidates {
		phone := NormalizePhone(raw)
		if phone == "" || seen[phone] {
			continue
		}
		seen[phone] = true
		out = append(out, phone)
	}
	return out
}

// NormalizePhone 归一化单个电话号码
// 数字不足7位时返回空串(丢弃)
func NormalizePhone(raw string) string {
	var builder strings.Builder
	digits := 0

	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			digits++
			builder.WriteRune(r)
		case r == '+' || r == '(' || r == ')' || r == '-' || r == '.' || r == ' ':
			builder.WriteRune(r)
		}
	}

	if digits < 7 {
		return ""
	}
	return strings.TrimSpace(builder.String())
}
