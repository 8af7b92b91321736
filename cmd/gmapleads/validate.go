package main

import (
	"fmt"
	"net/url"

	"github.com/RecoveryAshes/GmapLeads/internal/models"
)

// ValidateURL 验证URL格式
func ValidateURL(urlStr string) error {
	return models.ValidateURL(urlStr)
}

// ValidateFlags 验证命令行标志
func ValidateFlags(
	targetURL string,
	maxPlaces int,
	maxCost float64,
	maxImages int,
	maxReviews int,
) error {
	// 验证URL
	if targetURL != "" {
		normalized, err := NormalizeURL(targetURL)
		if err != nil {
			return fmt.Errorf("无效的目标URL: %w", err)
		}
		if err := ValidateURL(normalized); err != nil {
			return fmt.Errorf("无效的目标URL: %w", err)
		}
	}

	// 验证数量上限
	if maxPlaces < 0 {
		return fmt.Errorf("商家数量上限不能为负数,当前值: %d", maxPlaces)
	}
	if maxImages < 0 || maxReviews < 0 {
		return fmt.Errorf("图片/评论数量上限不能为负数")
	}

	// 验证成本上限
	if maxCost < 0 {
		return fmt.Errorf("成本上限不能为负数,当前值: %.4f", maxCost)
	}

	return nil
}

// NormalizeURL 规范化URL
func NormalizeURL(urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	// 如果没有协议,默认使用https
	if parsed.Scheme == "" {
		urlStr = "https://" + urlStr
		parsed, err = url.Parse(urlStr)
		if err != nil {
			return "", err
		}
	}

	return parsed.String(), nil
}
