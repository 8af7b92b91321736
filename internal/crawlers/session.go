package crawlers

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/RecoveryAshes/GmapLeads/internal/utils"
)

// 浏览器启动失败的最大重试次数
const maxLaunchRetries = 3

// SessionConfig 浏览器会话配置
type SessionConfig struct {
	// Headless 无头模式
	Headless bool

	// ProxyURLs 代理地址列表,轮换时按序循环取用
	ProxyURLs []string

	// NavTimeout 单次导航的超时时间
	NavTimeout time.Duration

	// Headers 应用到所有请求的HTTP头部(经HeaderManager合并)
	Headers http.Header

	// BlockResources 是否拦截字体/媒体等重资源(降低流量与指纹面)
	BlockResources bool
}

// BrowserSession 浏览器会话
// 职责: 管理浏览器进程生命周期,提供页面创建,支持会话轮换
// (丢弃当前网络身份与存储,换下一个代理重新启动)
// 会话作为显式参数传入任务处理上下文,不做包级隐式状态
type BrowserSession struct {
	config SessionConfig

	browser  *rod.Browser
	launcher *launcher.Launcher

	// proxyIndex 下一个代理的下标
	proxyIndex int

	// rotations 累计轮换次数
	rotations int

	mu sync.Mutex
}

// NewBrowserSession 创建浏览器会话(不启动)
func NewBrowserSession(config SessionConfig) *BrowserSession {
	if config.NavTimeout <= 0 {
		config.NavTimeout = 60 * time.Second
	}
	return &BrowserSession{config: config}
}

// Start 启动浏览器并建立连接
// 启动失败时最多重试maxLaunchRetries次
func (s *BrowserSession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launchLocked()
}

// launchLocked 启动浏览器(调用方持锁)
func (s *BrowserSession) launchLocked() error {
	var lastErr error

	for attempt := 1; attempt <= maxLaunchRetries; attempt++ {
		l := launcher.New().
			Headless(s.config.Headless).
			Set("ignore-certificate-errors").
			Set("disable-blink-features", "AutomationControlled").
			Set("lang", "en-US")

		if proxy := s.currentProxy(); proxy != "" {
			l = l.Proxy(proxy)
			utils.Debugf("🌐 使用代理: %s", proxy)
		}

		controlURL, err := l.Launch()
		if err != nil {
			lastErr = fmt.Errorf("浏览器启动失败: %w", err)
			utils.Warnf("❌ 浏览器启动失败(第%d次): %v", attempt, err)
			continue
		}

		browser := rod.New().ControlURL(controlURL)
		if err := browser.Connect(); err != nil {
			l.Cleanup()
			lastErr = fmt.Errorf("浏览器连接失败: %w", err)
			utils.Warnf("❌ 浏览器连接失败(第%d次): %v", attempt, err)
			continue
		}

		s.launcher = l
		s.browser = browser
		utils.Infof("🚀 浏览器会话已启动 (headless=%v)", s.config.Headless)
		return nil
	}

	return lastErr
}

// currentProxy 当前轮换位置对应的代理地址
func (s *BrowserSession) currentProxy() string {
	if len(s.config.ProxyURLs) == 0 {
		return ""
	}
	return s.config.ProxyURLs[s.proxyIndex%len(s.config.ProxyURLs)]
}

// NewPage 创建一个新页面并应用头部/资源策略
// 调用方负责关闭页面(详情页按任务作用域,挖掘页按调用作用域)
func (s *BrowserSession) NewPage() (*rod.Page, error) {
	s.mu.Lock()
	browser := s.browser
	s.mu.Unlock()

	if browser == nil {
		return nil, fmt.Errorf("浏览器会话未启动")
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("创建页面失败: %w", err)
	}

	if err := s.applyRequestPolicy(page); err != nil {
		_ = page.Close()
		return nil, err
	}

	return page, nil
}

// applyRequestPolicy 通过请求劫持应用自定义头部与资源拦截
func (s *BrowserSession) applyRequestPolicy(page *rod.Page) error {
	if len(s.config.Headers) == 0 && !s.config.BlockResources {
		return nil
	}

	router := page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		if s.config.BlockResources {
			switch h.Request.Type() {
			case proto.NetworkResourceTypeFont, proto.NetworkResourceTypeMedia:
				h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
		}

		for name, values := range s.config.Headers {
			if len(values) > 0 {
				h.Request.Req().Header.Set(name, values[0])
			}
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return fmt.Errorf("设置请求劫持失败: %w", err)
	}

	go router.Run()
	return nil
}

// Navigate 带超时导航并等待页面加载完成
func (s *BrowserSession) Navigate(page *rod.Page, urlStr string) error {
	p := page.Timeout(s.config.NavTimeout)
	if err := p.Navigate(urlStr); err != nil {
		return fmt.Errorf("页面导航失败 [%s]: %w", urlStr, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("页面加载超时 [%s]: %w", urlStr, err)
	}
	return nil
}

// Rotate 会话轮换
// 清理存储与Cookie后关闭当前浏览器,换下一个代理身份重新启动,
// 确保重试不再复用被标记的身份/IP
func (s *BrowserSession) Rotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	utils.Warn("🔄 轮换浏览器会话(丢弃当前身份)")

	if s.browser != nil {
		// 尽力清理,失败不阻塞轮换
		_ = proto.NetworkClearBrowserCookies{}.Call(s.browser)
		_ = proto.NetworkClearBrowserCache{}.Call(s.browser)
		_ = s.browser.Close()
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
		s.launcher = nil
	}

	s.proxyIndex++
	s.rotations++

	return s.launchLocked()
}

// Rotations 累计轮换次数
func (s *BrowserSession) Rotations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotations
}

// Close 关闭浏览器会话
func (s *BrowserSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			utils.Warnf("关闭浏览器失败: %v", err)
		}
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
		s.launcher = nil
	}
	utils.Info("✅ 浏览器会话已关闭")
}
