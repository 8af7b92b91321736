package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/RecoveryAshes/GmapLeads/internal/models"
)

var (
	// atCoordsPattern URL中内嵌的@lat,lng片段
	atCoordsPattern = regexp.MustCompile(`@(-?\d{1,3}\.\d+),(-?\d{1,3}\.\d+)`)

	// jsonLatPattern / jsonLngPattern 页面内嵌元数据中的经纬度键
	jsonLatPattern = regexp.MustCompile(`"latitude"\s*:\s*(-?\d{1,3}\.\d+)`)
	jsonLngPattern = regexp.MustCompile(`"longitude"\s*:\s*(-?\d{1,3}\.\d+)`)
)

// ExtractCoordinates 推导商家坐标
// 优先级: (a)当前页面URL的@lat,lng片段 → (b)地图预览图URL的center=参数
// → (c)路线链接URL的@lat,lng片段 → (d)内嵌脚本/JSON元数据的经纬度键
// 全部落空时返回nil(坐标允许缺失)
func ExtractCoordinates(pageURL string, doc *goquery.Document) *models.Coordinates {
	if c := coordsFromAtSegment(pageURL); c != nil {
		return c
	}
	if doc == nil {
		return nil
	}

	if c := coordsFromPreviewImage(doc); c != nil {
		return c
	}
	if c := coordsFromDirectionsLink(doc); c != nil {
		return c
	}
	return coordsFromEmbeddedJSON(doc)
}

// coordsFromAtSegment 解析URL中的@lat,lng
func coordsFromAtSegment(urlStr string) *models.Coordinates {
	m := atCoordsPattern.FindStringSubmatch(urlStr)
	if m == nil {
		return nil
	}
	lat, err1 := strconv.ParseFloat(m[1], 64)
	lng, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	return &models.Coordinates{Lat: lat, Lng: lng}
}

// coordsFromPreviewImage 解析地图预览图URL的center=lat%2Clng参数
func coordsFromPreviewImage(doc *goquery.Document) *models.Coordinates {
	var result *models.Coordinates

	doc.Find("img[src*='center=']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, _ := sel.Attr("src")
		parsed, err := url.Parse(src)
		if err != nil {
			return true
		}
		center := parsed.Query().Get("center")
		if center == "" {
			return true
		}

		parts := strings.SplitN(center, ",", 2)
		if len(parts) != 2 {
			return true
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 != nil || err2 != nil {
			return true
		}

		result = &models.Coordinates{Lat: lat, Lng: lng}
		return false
	})

	return result
}

// coordsFromDirectionsLink 解析路线链接中的@lat,lng
func coordsFromDirectionsLink(doc *goquery.Document) *models.Coordinates {
	var result *models.Coordinates

	doc.Find("a[href*='/dir/']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if c := coordsFromAtSegment(href); c != nil {
			result = c
			return false
		}
		return true
	})

	return result
}

// coordsFromEmbeddedJSON 扫描内嵌脚本元数据中的latitude/longitude键
func coordsFromEmbeddedJSON(doc *goquery.Document) *models.Coordinates {
	html, err := doc.Html()
	if err != nil {
		return nil
	}

	latMatch := jsonLatPattern.FindStringSubmatch(html)
	lngMatch := jsonLngPattern.FindStringSubmatch(html)
	if latMatch == nil || lngMatch == nil {
		return nil
	}

	lat, err1 := strconv.ParseFloat(latMatch[1], 64)
	lng, err2 := strconv.ParseFloat(lngMatch[1], 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	return &models.Coordinates{Lat: lat, Lng: lng}
}
