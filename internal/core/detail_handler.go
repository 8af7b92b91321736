package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/RecoveryAshes/GmapLeads/internal/crawlers"
	"github.com/RecoveryAshes/GmapLeads/internal/extract"
	"github.com/RecoveryAshes/GmapLeads/internal/models"
	"github.com/RecoveryAshes/GmapLeads/internal/utils"
)

// reviewsTabSelectors 评论入口按钮选择器级联
var reviewsTabSelectors = []string{
	"button[jsaction*='moreReviews']",
	"button[role='tab'][aria-label*='Reviews']",
	"button[aria-label*='reviews']",
}

// reviewScrollScript 滚动评论面板并返回已加载的评论节点数
const reviewScrollScript = `() => {
	const nodes = document.querySelectorAll("div.jftiEf");
	if (nodes.length > 0) {
		nodes[nodes.length - 1].scrollIntoView();
	}
	return nodes.length;
}`

// reviewsSortMenuIndex 排序偏好到菜单项序号的映射
var reviewsSortMenuIndex = map[string]int{
	models.ReviewsSortMostRelevant:   0,
	models.ReviewsSortNewest:         1,
	models.ReviewsSortHighestRanking: 2,
	models.ReviewsSortLowestRanking:  3,
}

// handleDetail 处理DETAIL任务
// 预算耗尽时整任务跳过(不算失败不重试); 页面快照交给纯解析层,
// 评论需要继续操纵页面,以闭包形式注入
func (o *Orchestrator) handleDetail(ctx context.Context, task *models.Task, page *rod.Page) error {
	if !o.estimator.CheckBudget() {
		utils.Warnf("⚠️ 成本预算耗尽,跳过详情任务: %s", task.URL)
		return nil
	}

	doc, pageURL, err := snapshotPage(page)
	if err != nil {
		return err
	}

	fetchReviews := func() ([]models.Review, error) {
		return o.collectReviews(ctx, page)
	}
	return o.processDetailDocument(ctx, task, doc, pageURL, fetchReviews)
}

// processDetailDocument 详情页快照的解析与记录组装
// 商家名称是唯一的硬性字段,缺失视为页面结构异常(可重试);
// 其余字段全部软失败: 抽错记入_error注记,记录照常输出
func (o *Orchestrator) processDetailDocument(ctx context.Context, task *models.Task, doc *goquery.Document, pageURL string, fetchReviews func() ([]models.Review, error)) error {
	o.summary.DetailPages++

	fields := extract.ExtractCoreFields(doc)
	name := fields.Name
	if name == "" {
		name = task.Detail.KnownName
	}
	if name == "" {
		return fmt.Errorf("详情页结构异常,未抽取到商家名称: %s", pageURL)
	}

	status := fields.Status()
	if o.input.SkipClosedPlaces && status == models.StatusPermanentlyClosed {
		o.summary.SkippedClosed++
		utils.Infof("⏭️ 商家已永久停业,按配置跳过: %s", name)
		return nil
	}

	record := &models.ListingRecord{
		PlaceID:      extract.ExtractPlaceID(pageURL, doc),
		ScrapedURL:   pageURL,
		Name:         name,
		Address:      fields.Address,
		Location:     extract.ExtractCoordinates(pageURL, doc),
		PlusCode:     fields.PlusCode,
		Category:     fields.Category,
		Status:       status,
		Phone:        fields.Phone,
		Website:      fields.Website,
		SearchString: task.Detail.SearchTerm,
		ScrapedAt:    time.Now(),
	}

	if o.input.ScrapePlaceDetailPage {
		record.OpeningHours = extract.ExtractOpeningHours(doc)
		record.SocialProfiles = extract.ExtractSocialProfiles(doc)

		// 图片与评论各按半个详情单位在尝试前计费,计费后闸门关闭则跳过该项
		if o.input.MaxImages > 0 {
			if o.estimator.AddDetails(1) {
				record.ImageUrls = extract.ExtractImages(doc, o.input.MaxImages)
			} else {
				utils.Warnf("⚠️ 成本预算耗尽,跳过图片抽取: %s", name)
			}
		}

		if o.input.MaxReviews > 0 && fetchReviews != nil {
			if o.estimator.AddDetails(1) {
				reviews, err := fetchReviews()
				if err != nil {
					record.AppendErrorNote(fmt.Sprintf("评论抽取失败: %v", err))
				} else {
					record.Reviews = reviews
				}
			} else {
				utils.Warnf("⚠️ 成本预算耗尽,跳过评论抽取: %s", name)
			}
		}
	}

	o.mineContacts(ctx, record)

	if err := o.dataset.Push(record); err != nil {
		return fmt.Errorf("数据集写入失败: %w", err)
	}

	o.state.ScrapedItemsCount++
	o.state.UpdatedAt = time.Now()
	o.estimator.Snapshot(o.state)
	o.summary.PlacesScraped++

	if o.state.ShouldCheckpoint() {
		o.persistCheckpoint()
	}

	utils.Infof("✅ 商家记录输出 [%s] (累计 %d 条)", name, o.state.ScrapedItemsCount)
	return nil
}

// mineContacts 对商家官网执行联系方式挖掘,结果合并进记录
// 原生抽取的值优先,挖掘结果只填补空缺; 任何失败都只留注记
func (o *Orchestrator) mineContacts(ctx context.Context, record *models.ListingRecord) {
	if !o.input.ContactsEnabled() || record.Website == "" || o.miner == nil {
		return
	}

	if o.monitor != nil {
		if canOpen, reason := o.monitor.CanOpenExtraPage(); !canOpen {
			record.AppendErrorNote("资源受限,跳过联系方式挖掘: " + reason)
			return
		}
	}

	if !o.estimator.CheckBudget() {
		utils.Warnf("⚠️ 成本预算耗尽,跳过联系方式挖掘: %s", record.Website)
		return
	}
	if !o.estimator.AddContact(1) {
		utils.Warnf("⚠️ 本次联系方式挖掘触达成本上限")
	}

	result, err := o.miner.ExtractContactDetails(ctx, record.Website)
	if err != nil {
		record.AppendErrorNote(fmt.Sprintf("联系方式挖掘失败: %v", err))
		return
	}

	if record.Email == "" {
		record.Email = result.Email
	}
	if record.Phone == "" {
		record.Phone = result.Phone
	}
	record.MergeSocialProfiles(result.SocialProfiles)

	if result.Error != "" {
		record.AppendErrorNote("联系方式挖掘部分失败: " + result.Error)
	}
}

// collectReviews 打开评论面板,滚动加载后解析
// 排序偏好是尽力而为: 菜单交互失败时保持默认排序继续
func (o *Orchestrator) collectReviews(ctx context.Context, page *rod.Page) ([]models.Review, error) {
	if err := openReviewsTab(page); err != nil {
		return nil, err
	}

	applyReviewsSort(page, o.input.ReviewsSort)

	_, err := crawlers.ScrollUntilStable(ctx, crawlers.ScrollOptions{
		MaxIterations: o.input.ReviewScrollCap(),
		Target:        o.input.MaxReviews,
		Interval:      1500 * time.Millisecond,
		Jitter:        500 * time.Millisecond,
	}, func(context.Context) (int, error) {
		res, evalErr := page.Eval(reviewScrollScript)
		if evalErr != nil {
			return 0, evalErr
		}
		return res.Value.Int(), nil
	})
	if err != nil {
		return nil, err
	}

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return extract.ParseReviews(doc, o.input.MaxReviews), nil
}

// openReviewsTab 点击评论入口并等待面板渲染
func openReviewsTab(page *rod.Page) error {
	for _, selector := range reviewsTabSelectors {
		has, el, err := page.Has(selector)
		if err != nil || !has {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			continue
		}
		_, err = page.Timeout(10 * time.Second).Element(extract.ReviewNodeSelector)
		return err
	}
	return fmt.Errorf("未找到评论面板入口")
}

// applyReviewsSort 尽力切换评论排序
func applyReviewsSort(page *rod.Page, sortPref string) {
	index, ok := reviewsSortMenuIndex[sortPref]
	if !ok || index == 0 {
		// 默认排序即最相关,无需交互
		return
	}

	has, el, err := page.Has("button[aria-label*='Sort']")
	if err != nil || !has {
		return
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return
	}

	items, err := page.Timeout(5 * time.Second).Elements("div[role='menuitemradio']")
	if err != nil || index >= len(items) {
		return
	}
	if err := items[index].Click(proto.InputMouseButtonLeft, 1); err != nil {
		utils.Debugf("评论排序切换失败,保持默认排序: %v", err)
	}
}
