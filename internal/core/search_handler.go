package core

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"

	"github.com/RecoveryAshes/GmapLeads/internal/crawlers"
	"github.com/RecoveryAshes/GmapLeads/internal/extract"
	"github.com/RecoveryAshes/GmapLeads/internal/models"
	"github.com/RecoveryAshes/GmapLeads/internal/utils"
)

// feedScrollScript 滚动结果列表并返回滚动高度作为稳定性信号
const feedScrollScript = `() => {
	const el = document.querySelector("div[role='feed']");
	if (!el) return 0;
	el.scrollTo(0, el.scrollHeight);
	return el.scrollHeight;
}`

// handleSearch 处理SEARCH任务
// 等待结果列表出现 → 滚动到稳定 → 抽取商家链接 → 按上限入队DETAIL任务
func (o *Orchestrator) handleSearch(ctx context.Context, task *models.Task, page *rod.Page) error {
	o.estimator.AddSearches(1)
	o.summary.SearchPages++

	if err := waitForFeed(page); err != nil {
		// 列表缺席可能是正常的"无结果",按语言短语判定
		doc, _, snapErr := snapshotPage(page)
		if snapErr == nil && extract.HasNoResults(doc, o.input.Language) {
			utils.Infof("🔍 搜索无结果,静默完成: %s", task.URL)
			return nil
		}
		return err
	}

	scrollResult, err := crawlers.ScrollUntilStable(ctx, crawlers.ScrollOptions{
		MaxIterations: o.input.FeedScrollCap(),
		Interval:      time.Second,
		Jitter:        500 * time.Millisecond,
	}, func(context.Context) (int, error) {
		res, evalErr := page.Eval(feedScrollScript)
		if evalErr != nil {
			return 0, evalErr
		}
		return res.Value.Int(), nil
	})
	if err != nil {
		return err
	}
	utils.Debugf("📊 列表滚动完成: %d 次迭代, 原因=%s", scrollResult.Iterations, scrollResult.Reason)

	doc, _, err := snapshotPage(page)
	if err != nil {
		return err
	}

	enqueued, err := o.processSearchDocument(task, doc)
	if err != nil {
		return err
	}
	utils.Infof("✅ 搜索页处理完成 [%s]: 入队 %d 个详情任务", task.Search.Term, enqueued)
	return nil
}

// waitForFeed 等待结果列表容器渲染
func waitForFeed(page *rod.Page) error {
	_, err := page.Timeout(10 * time.Second).Element(extract.FeedSelector)
	return err
}

// processSearchDocument 搜索页快照的纯解析部分
// 依次施加三道闸门: 全局商家上限、单搜索词上限、成本预算;
// 任一闸门关闭即停止入队,剩余链接丢弃
func (o *Orchestrator) processSearchDocument(task *models.Task, doc *goquery.Document) (int, error) {
	links := extract.ExtractFeedLinks(doc)
	o.estimator.AddListings(len(links))
	utils.Debugf("🔍 结果列表抽取到 %d 个商家链接", len(links))

	enqueued := 0
	for _, link := range links {
		if o.input.MaxCrawledPlaces > 0 && o.baseScraped+o.detailEnqueued >= o.input.MaxCrawledPlaces {
			utils.Infof("📊 已达全局商家上限 %d,停止入队", o.input.MaxCrawledPlaces)
			break
		}
		if o.input.MaxCrawledPlacesPerSearch > 0 && task.Search.EnqueuedDetails >= o.input.MaxCrawledPlacesPerSearch {
			utils.Infof("📊 搜索词 [%s] 已达单词上限 %d,停止入队", task.Search.Term, o.input.MaxCrawledPlacesPerSearch)
			break
		}
		if !o.estimator.CheckBudget() {
			utils.Warnf("⚠️ 成本预算耗尽,停止入队详情任务")
			break
		}

		detailTask, err := models.NewDetailTask(ensureLanguageParam(link.URL, o.input.Language), models.DetailPayload{
			SearchTerm: task.Search.Term,
			KnownName:  link.Name,
		})
		if err != nil {
			utils.Warnf("⚠️ 商家链接不合法,跳过 [%s]: %v", link.URL, err)
			continue
		}

		added, err := o.queue.Push(detailTask)
		if err != nil {
			return enqueued, err
		}
		if !added {
			// 重复商家(多个搜索词命中同一地点),静默吸收
			continue
		}

		o.estimator.AddPlace(1)
		task.Search.EnqueuedDetails++
		o.detailEnqueued++
		enqueued++
	}

	return enqueued, nil
}

// handleExtractAndSearch 处理EXTRACT_AND_SEARCH任务
// 从已渲染的详情页视口派生坐标锚点,为每个搜索词合成锚定搜索任务;
// 锚点派生失败只降级告警,详情抽取照常进行
func (o *Orchestrator) handleExtractAndSearch(ctx context.Context, task *models.Task, page *rod.Page) error {
	info, err := page.Info()
	if err != nil {
		return err
	}

	anchor := extract.ExtractCoordinates(info.URL, nil)
	if anchor == nil {
		utils.Warnf("⚠️ 无法从页面视口派生坐标锚点,放弃派生搜索: %s", task.URL)
	} else {
		zoom := zoomFromURL(info.URL)
		derived := 0
		for _, term := range task.Anchor.Terms {
			searchTask, err := models.NewSearchTask(
				BuildSearchURLAt(term, anchor, zoom, o.input.Language),
				models.SearchPayload{Term: term, Anchor: anchor},
			)
			if err != nil {
				utils.Warnf("⚠️ 锚定搜索URL合成失败 [%s]: %v", term, err)
				continue
			}
			added, err := o.queue.Push(searchTask)
			if err != nil {
				return err
			}
			if added {
				derived++
			}
		}
		utils.Infof("✅ 锚点派生完成 (%.5f, %.5f): %d 个搜索任务", anchor.Lat, anchor.Lng, derived)
	}

	// 起始页本身就是详情页,顺带完成抽取
	detailTask := &models.Task{
		ID:        task.ID,
		URL:       task.URL,
		Label:     models.LabelDetail,
		Detail:    &models.DetailPayload{},
		CreatedAt: task.CreatedAt,
	}
	return o.handleDetail(ctx, detailTask, page)
}
