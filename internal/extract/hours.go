package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/RecoveryAshes/GmapLeads/internal/models"
)

// ExtractOpeningHours 抽取营业时间表
// 返回按页面顺序排列的(星期, 时段)行; 页面无时间表时返回nil
func ExtractOpeningHours(doc *goquery.Document) []models.OpeningHoursRow {
	if doc == nil {
		return nil
	}

	var rows []models.OpeningHoursRow

	// 主结构: 营业时间展开后的表格
	doc.Find("table.eK4R0e tr").Each(func(_ int, tr *goquery.Selection) {
		day := strings.TrimSpace(tr.Find("td.ylH6lf").First().Text())
		hours := strings.TrimSpace(tr.Find("td.mxowUb").First().Text())
		if day == "" && hours == "" {
			return
		}
		rows = append(rows, models.OpeningHoursRow{Day: day, Hours: hours})
	})
	if len(rows) > 0 {
		return rows
	}

	// 兜底: aria-label形式("Monday, 9 AM to 5 PM; Tuesday, ...")
	label, ok := doc.Find("div[jsaction*='openhours']").First().Attr("aria-label")
	if !ok || label == "" {
		return nil
	}
	for _, part := range strings.Split(label, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.SplitN(part, ",", 2)
		row := models.OpeningHoursRow{Day: strings.TrimSpace(fields[0])}
		if len(fields) == 2 {
			row.Hours = strings.TrimSpace(fields[1])
		}
		rows = append(rows, row)
	}

	return rows
}
