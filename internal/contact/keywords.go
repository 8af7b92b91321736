// Package contact 实现商家官网的联系方式挖掘
//
// 从官网首页出发做至多maxDepth+1层的广度优先遍历:
// 第0层抽取页面自身的联系数据,并把匹配"联系我们"关键词的出站
// 链接排为第1层候选; 第1层重复抽取,深度允许时再把"关于/团队"
// 关键词链接排为第2层候选。同一遍历内绝不重访URL。
package contact

import "regexp"

// contactKeywords 联系页关键词(匹配链接文本或URL路径)
var contactKeywords = []string{
	"contact",
	"contact-us",
	"contactus",
	"get-in-touch",
	"reach-us",
	"kontakt",
	"impressum",
	"联系",
	"联系我们",
}

// aboutKeywords 关于/团队页关键词(仅在深度允许时用于第2层候选)
var aboutKeywords = []string{
	"about",
	"about-us",
	"aboutus",
	"team",
	"our-team",
	"company",
	"who-we-are",
	"关于",
	"团队",
}

var (
	// emailPattern 纯文本邮箱
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	// obfuscatedEmailPattern "name [at] domain [dot] tld"式反混淆
	obfuscatedEmailPattern = regexp.MustCompile(
		`([A-Za-z0-9._%+\-]+)\s*(?:\[at\]|\(at\)|\{at\})\s*([A-Za-z0-9\-]+)\s*(?:\[dot\]|\(dot\)|\{dot\})\s*([A-Za-z]{2,})`)

	// phonePattern 纯文本电话号码(宽松匹配,归一化时再过滤)
	phonePattern = regexp.MustCompile(`\+?\(?\d[\d\s().\-]{5,}\d`)
)

// excludedEmailDomains 占位/监控域名黑名单
// 建站模板与错误上报SDK会在页面里留下这类假邮箱
var excludedEmailDomains = []string{
	"example.com",
	"domain.com",
	"yourdomain.com",
	"email.com",
	"wixpress.com",
	"sentry.io",
	"sentry.wixpress.com",
}

// excludedEmailSuffixes 文件扩展名结尾的误报(图片资源名形似邮箱)
var excludedEmailSuffixes = []string{
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico", ".css", ".js",
}

// excludedEmailPrefixes 功能性前缀,对获客没有价值
var excludedEmailPrefixes = []string{
	"noreply@", "no-reply@", "donotreply@", "do-not-reply@", "admin@",
}
