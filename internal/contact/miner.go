package contact

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/RecoveryAshes/GmapLeads/internal/extract"
	"github.com/RecoveryAshes/GmapLeads/internal/utils"
)

// Options 挖掘器参数
type Options struct {
	// Timeout 单个页面请求的超时时间
	Timeout time.Duration

	// MaxDepth 遍历深度: 0=仅首页, 1=首页+联系页, 2=再加关于/团队页
	MaxDepth int

	// MaxScannedPages 单次遍历扫描页面总数上限
	MaxScannedPages int
}

// DefaultOptions 默认挖掘参数
func DefaultOptions() Options {
	return Options{
		Timeout:         20 * time.Second,
		MaxDepth:        1,
		MaxScannedPages: 12,
	}
}

// Result 一次联系方式挖掘的结果
type Result struct {
	// Email / Phone 顶层主值 = 发现顺序中的第一个幸存候选
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	// Emails / Phones 过滤后的全部候选(发现顺序)
	Emails []string `json:"emails,omitempty"`
	Phones []string `json:"phones,omitempty"`

	// SocialProfiles 平台名→档案链接,每个平台取最先发现的一条
	SocialProfiles map[string]string `json:"socialProfiles,omitempty"`

	// ContactPersons 微格式标注中发现的联系人姓名
	ContactPersons []string `json:"contactPersons,omitempty"`

	// ScannedPages 实际扫描过的页面URL
	ScannedPages []string `json:"scannedPages,omitempty"`

	// Error 首个页面级失败的描述(遍历不中止),无失败时为空
	Error string `json:"error,omitempty"`
}

// Miner 联系方式挖掘器
// 持有HTTP头部与参数,可跨多次挖掘复用; 每次挖掘创建独立的采集器
type Miner struct {
	headers http.Header
	opts    Options
}

// NewMiner 创建挖掘器
func NewMiner(headers http.Header, opts Options) *Miner {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.MaxScannedPages <= 0 {
		opts.MaxScannedPages = DefaultOptions().MaxScannedPages
	}
	return &Miner{headers: headers, opts: opts}
}

// ExtractContactDetails 挖掘指定官网的联系方式
// 广度优先遍历至多MaxDepth+1层,页面失败记入Result.Error后继续;
// 只有起始URL本身不合法时才返回error
func (m *Miner) ExtractContactDetails(ctx context.Context, websiteURL string) (*Result, error) {
	parsed, err := url.Parse(websiteURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("官网URL无效 [%s]: %w", websiteURL, err)
	}

	result := &Result{SocialProfiles: make(map[string]string)}
	var emailCandidates, phoneCandidates []string

	host := parsed.Hostname()
	collector := colly.NewCollector(
		colly.MaxDepth(m.opts.MaxDepth+1),
		colly.AllowedDomains(host, "www."+host, strings.TrimPrefix(host, "www.")),
		colly.Async(true),
		colly.IgnoreRobotsTxt(),
	)

	// 小商家官网的证书问题很常见,挖掘时忽略证书错误
	collector.SetClient(&http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	collector.SetRequestTimeout(m.opts.Timeout)

	// 单并发+小延迟: 对目标站点保持低调
	_ = collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       200 * time.Millisecond,
	})

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil || len(result.ScannedPages) >= m.opts.MaxScannedPages {
			r.Abort()
			return
		}
		for name, values := range m.headers {
			if len(values) > 0 {
				r.Headers.Set(name, values[0])
			}
		}
		r.Headers.Set("Accept-Encoding", "gzip, deflate, br")
	})

	// 响应体按Content-Encoding解开后交给HTML回调
	collector.OnResponse(func(r *colly.Response) {
		body, err := decompressBody(r.Body, r.Headers.Get("Content-Encoding"))
		if err != nil {
			if result.Error == "" {
				result.Error = fmt.Sprintf("解压失败 [%s]: %v", r.Request.URL, err)
			}
			return
		}
		r.Body = body
	})

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		pageURL := e.Request.URL.String()
		level := e.Request.Depth - 1
		result.ScannedPages = append(result.ScannedPages, pageURL)
		utils.Debugf("🔍 挖掘页面 [L%d]: %s", level, pageURL)

		m.harvestPage(e.DOM, e.Response.Body, result, &emailCandidates, &phoneCandidates)
		m.queueCandidates(e, level)
	})

	collector.OnError(func(r *colly.Response, err error) {
		// 仅记录首个失败,遍历继续
		if result.Error == "" {
			result.Error = fmt.Sprintf("页面访问失败 [%s]: %v", r.Request.URL, err)
		}
		utils.Warnf("⚠️ 挖掘页面失败 [%s]: %v", r.Request.URL, err)
	})

	if err := collector.Visit(websiteURL); err != nil {
		// 起始页直接失败: 记入结果,返回空结果而非error
		result.Error = fmt.Sprintf("起始页访问失败 [%s]: %v", websiteURL, err)
	}
	collector.Wait()

	result.Emails = FinalizeEmails(emailCandidates)
	result.Phones = FinalizePhones(phoneCandidates)
	if len(result.Emails) > 0 {
		result.Email = result.Emails[0]
	}
	if len(result.Phones) > 0 {
		result.Phone = result.Phones[0]
	}

	return result, nil
}

// harvestPage 单页联系数据收割
// 各来源独立收集: mailto链接、可见文本邮箱、反混淆邮箱、
// tel链接、可见文本电话、社交平台链接、微格式联系人
func (m *Miner) harvestPage(doc *goquery.Selection, body []byte, result *Result, emails, phones *[]string) {
	// mailto: 链接
	doc.Find("a[href^='mailto:']").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if idx := strings.IndexByte(addr, '?'); idx >= 0 {
			addr = addr[:idx]
		}
		if addr != "" {
			*emails = append(*emails, addr)
		}
	})

	// tel: 链接
	doc.Find("a[href^='tel:']").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if number := strings.TrimPrefix(href, "tel:"); number != "" {
			*phones = append(*phones, number)
		}
	})

	// 可见文本中的邮箱/电话/反混淆邮箱
	text := visibleText(body)
	*emails = append(*emails, emailPattern.FindAllString(text, -1)...)
	for _, m := range obfuscatedEmailPattern.FindAllStringSubmatch(text, -1) {
		*emails = append(*emails, fmt.Sprintf("%s@%s.%s", m[1], m[2], m[3]))
	}
	*phones = append(*phones, phonePattern.FindAllString(text, -1)...)

	// 社交平台链接: 先扫<a>标签,再对原始HTML兜底
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if platform, matched, ok := extract.MatchSocialURL(href); ok {
			if _, exists := result.SocialProfiles[platform]; !exists {
				result.SocialProfiles[platform] = matched
			}
		}
	})
	for platform, matched := range extract.FindSocialLinks(string(body)) {
		if _, exists := result.SocialProfiles[platform]; !exists {
			result.SocialProfiles[platform] = matched
		}
	}

	// 微格式标注的联系人姓名
	doc.Find("[itemprop='employee'] [itemprop='name'], .vcard .fn").Each(func(_ int, sel *goquery.Selection) {
		if name := strings.TrimSpace(sel.Text()); name != "" {
			result.ContactPersons = append(result.ContactPersons, name)
		}
	})
}

// queueCandidates 按层级关键词把出站链接排入下一层
func (m *Miner) queueCandidates(e *colly.HTMLElement, level int) {
	var keywords []string
	switch {
	case level == 0:
		keywords = contactKeywords
	case level == 1 && m.opts.MaxDepth >= 2:
		keywords = aboutKeywords
	default:
		return
	}

	e.DOM.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return
		}
		if !matchesKeyword(href, sel.Text(), keywords) {
			return
		}
		// Visit内部处理绝对化、重访抑制与深度限制
		_ = e.Request.Visit(href)
	})
}

// matchesKeyword 链接文本或URL路径是否命中关键词
func matchesKeyword(href, linkText string, keywords []string) bool {
	hrefLower := strings.ToLower(href)
	textLower := strings.ToLower(strings.TrimSpace(linkText))

	for _, kw := range keywords {
		if strings.Contains(hrefLower, kw) || strings.Contains(textLower, kw) {
			return true
		}
	}
	return false
}
