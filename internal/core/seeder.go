package core

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"

	"github.com/RecoveryAshes/GmapLeads/internal/crawlers"
	"github.com/RecoveryAshes/GmapLeads/internal/models"
	"github.com/RecoveryAshes/GmapLeads/internal/utils"
)

// atSegmentPattern 地图URL中的视口段 @lat,lng,zoomz
var atSegmentPattern = regexp.MustCompile(`@(-?\d{1,3}\.\d+),(-?\d{1,3}\.\d+)(?:,(\d+(?:\.\d+)?)z)?`)

// ZoomForRadius 按搜索半径推导地图缩放级别
// 半径翻倍,缩放级别减一; 下限10保证城市级别以上不再缩小
func ZoomForRadius(radiusKm float64) int {
	if radiusKm <= 0 {
		radiusKm = 1
	}
	zoom := 16 - int(math.Floor(math.Log2(radiusKm)))
	if zoom < 10 {
		return 10
	}
	return zoom
}

// BuildSearchURL 把搜索词合成为地图搜索URL
// 锚点优先级: 自定义坐标(带缩放) > 文本位置(拼入搜索词) > 裸搜索词
func BuildSearchURL(term string, input *models.RunInput) string {
	lang := url.QueryEscape(input.Language)

	if input.CustomGeolocation != nil {
		if lat, lng, ok := input.CustomGeolocation.Point(); ok {
			zoom := ZoomForRadius(input.CustomGeolocation.RadiusKm)
			return fmt.Sprintf("https://www.google.com/maps/search/%s/@%.7f,%.7f,%dz?hl=%s",
				url.PathEscape(term), lat, lng, zoom, lang)
		}
	}

	if input.SearchLocation != "" {
		query := term + " in " + input.SearchLocation
		return fmt.Sprintf("https://www.google.com/maps/search/%s?hl=%s",
			url.PathEscape(query), lang)
	}

	return fmt.Sprintf("https://www.google.com/maps/search/%s?hl=%s",
		url.PathEscape(term), lang)
}

// BuildSearchURLAt 在指定锚点处合成搜索URL
// EXTRACT_AND_SEARCH任务从详情页视口派生锚点后使用
func BuildSearchURLAt(term string, anchor *models.Coordinates, zoom int, language string) string {
	if zoom <= 0 {
		zoom = 13
	}
	return fmt.Sprintf("https://www.google.com/maps/search/%s/@%.7f,%.7f,%dz?hl=%s",
		url.PathEscape(term), anchor.Lat, anchor.Lng, zoom, url.QueryEscape(language))
}

// zoomFromURL 从地图URL视口段解析缩放级别,解析不到返回0
func zoomFromURL(urlStr string) int {
	m := atSegmentPattern.FindStringSubmatch(urlStr)
	if m == nil || m[3] == "" {
		return 0
	}
	zoom, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0
	}
	return int(zoom)
}

// ensureLanguageParam 给URL补充hl语言参数(已存在时保留原值)
func ensureLanguageParam(urlStr, language string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}
	query := parsed.Query()
	if query.Get("hl") == "" {
		query.Set("hl", language)
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

// SeedTasks 把运行输入展开为初始任务并入队
// startUrls按URL形态推断标签; 显式标签优先于推断;
// 同时给出startUrls与搜索词时,详情类起始URL升级为EXTRACT_AND_SEARCH,
// 在详情抓取之外额外以该地点为锚点派生搜索
func SeedTasks(queue *crawlers.TaskQueue, input *models.RunInput) (int, error) {
	seeded := 0

	for _, startURL := range input.StartUrls {
		label := models.TaskLabel(startURL.Label)
		switch label {
		case models.LabelSearch, models.LabelDetail, models.LabelExtractAndSearch:
			// 显式标签优先于推断
		default:
			if label != "" {
				utils.Warnf("⚠️ 未知任务标签 [%s],回退URL形态推断: %s", startURL.Label, startURL.URL)
			}
			var warned bool
			label, warned = models.InferLabelFromURL(startURL.URL)
			if warned {
				utils.Warnf("⚠️ 无法从URL形态推断任务类型,按详情页处理: %s", startURL.URL)
			}
		}

		taskURL := ensureLanguageParam(startURL.URL, input.Language)

		var task *models.Task
		var err error
		switch {
		case label == models.LabelExtractAndSearch,
			label == models.LabelDetail && len(input.SearchStringsArray) > 0:
			task, err = models.NewAnchorTask(taskURL, models.AnchorPayload{
				Terms: input.SearchStringsArray,
			})
		case label == models.LabelDetail:
			task, err = models.NewDetailTask(taskURL, models.DetailPayload{})
		default:
			task, err = models.NewSearchTask(taskURL, models.SearchPayload{})
		}
		if err != nil {
			return seeded, fmt.Errorf("起始URL不合法 [%s]: %w", startURL.URL, err)
		}

		added, err := queue.Push(task)
		if err != nil {
			return seeded, err
		}
		if added {
			seeded++
		}
	}

	for _, term := range input.SearchStringsArray {
		payload := models.SearchPayload{
			Term:     term,
			Location: input.SearchLocation,
		}
		if input.CustomGeolocation != nil {
			if lat, lng, ok := input.CustomGeolocation.Point(); ok {
				payload.Anchor = &models.Coordinates{Lat: lat, Lng: lng}
			}
		}

		task, err := models.NewSearchTask(BuildSearchURL(term, input), payload)
		if err != nil {
			return seeded, fmt.Errorf("搜索词无法合成URL [%s]: %w", term, err)
		}

		added, err := queue.Push(task)
		if err != nil {
			return seeded, err
		}
		if added {
			seeded++
		}
	}

	// 本次全部被幂等吸收但队列已有任务(恢复运行的重复播种)不算错误
	if seeded == 0 && queue.EnqueuedCount() == 0 {
		return 0, fmt.Errorf("运行输入未产生任何任务: 需要startUrls或searchStringsArray")
	}

	utils.Infof("🚀 初始任务播种完成: %d 个任务", seeded)
	return seeded, nil
}
