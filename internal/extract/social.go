package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// SocialPlatform 社交平台及其链接识别模式
type SocialPlatform struct {
	Name    string
	Pattern *regexp.Regexp
}

// SocialPlatforms 固定的平台模式表,按表序匹配
// 联系方式挖掘与详情页抽取共用同一张表
var SocialPlatforms = []SocialPlatform{
	{"facebook", regexp.MustCompile(`https?://(?:www\.)?facebook\.com/[A-Za-z0-9_.\-]+`)},
	{"instagram", regexp.MustCompile(`https?://(?:www\.)?instagram\.com/[A-Za-z0-9_.\-]+`)},
	{"twitter", regexp.MustCompile(`https?://(?:www\.)?(?:twitter|x)\.com/[A-Za-z0-9_]+`)},
	{"linkedin", regexp.MustCompile(`https?://(?:www\.)?linkedin\.com/(?:company|in)/[A-Za-z0-9_.\-]+`)},
	{"youtube", regexp.MustCompile(`https?://(?:www\.)?youtube\.com/(?:channel/|user/|@)[A-Za-z0-9_.\-]+`)},
	{"pinterest", regexp.MustCompile(`https?://(?:www\.)?pinterest\.com/[A-Za-z0-9_.\-]+`)},
	{"tiktok", regexp.MustCompile(`https?://(?:www\.)?tiktok\.com/@[A-Za-z0-9_.\-]+`)},
}

// MatchSocialURL 判断链接是否指向已知社交平台
// 返回平台名与匹配出的规范链接
func MatchSocialURL(href string) (platform, matched string, ok bool) {
	for _, p := range SocialPlatforms {
		if m := p.Pattern.FindString(href); m != "" {
			// 过滤平台首页等过短的无效链接
			if len(m) > len("https://www.")+len(p.Name)+len(".com/")+2 {
				return p.Name, m, true
			}
		}
	}
	return "", "", false
}

// ExtractSocialProfiles 从页面链接中抽取社交档案
// 每个平台只保留最先出现的一条
func ExtractSocialProfiles(doc *goquery.Document) map[string]string {
	profiles := make(map[string]string)
	if doc == nil {
		return profiles
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		platform, matched, ok := MatchSocialURL(href)
		if !ok {
			return
		}
		if _, exists := profiles[platform]; !exists {
			profiles[platform] = matched
		}
	})

	return profiles
}

// FindSocialLinks 在原始HTML文本中扫描社交链接
// 挖掘器在链接不在<a>标签里时用作兜底
func FindSocialLinks(html string) map[string]string {
	profiles := make(map[string]string)
	for _, p := range SocialPlatforms {
		if m := p.Pattern.FindString(html); m != "" {
			if len(m) > len("https://www.")+len(p.Name)+len(".com/")+2 {
				profiles[p.Name] = m
			}
		}
	}
	return profiles
}
