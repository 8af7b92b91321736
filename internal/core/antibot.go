package core

import (
	"errors"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/RecoveryAshes/GmapLeads/internal/utils"
)

// ErrCaptchaDetected 页面出现人机验证
// 命中后由调度层旋转浏览器会话并重试任务
var ErrCaptchaDetected = errors.New("检测到人机验证页面")

// consentSelectors 同意墙按钮选择器级联
// Google在不同地区/语言下渲染的同意弹窗结构不同,按命中率排序逐个尝试
var consentSelectors = []string{
	"form[action*='consent'] button",
	"button[aria-label*='Accept all']",
	"button[aria-label*='Accept the use of cookies']",
	"button[jsname='b3VHJd']",
}

// captchaSelector 人机验证页面的特征选择器
const captchaSelector = "iframe[src*='recaptcha'], #captcha-form"

// dismissConsent 尝试点掉同意墙
// 未出现同意墙属于正常情况,静默返回; 点击后等待页面重载
func dismissConsent(page *rod.Page) {
	for _, selector := range consentSelectors {
		has, el, err := page.Has(selector)
		if err != nil || !has {
			continue
		}
		utils.Debugf("🔄 点击同意墙按钮: %s", selector)
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			utils.Warnf("⚠️ 同意墙按钮点击失败: %v", err)
			continue
		}
		if err := page.Timeout(10 * time.Second).WaitLoad(); err != nil {
			utils.Warnf("⚠️ 同意墙确认后页面加载超时: %v", err)
		}
		return
	}
}

// checkCaptcha 检查页面是否被人机验证拦截
func checkCaptcha(page *rod.Page) error {
	has, _, err := page.Has(captchaSelector)
	if err != nil {
		return nil
	}
	if has {
		return ErrCaptchaDetected
	}
	return nil
}
