package apiclient

import (
	"context"
	"net/url"

	"research-admin/internal/shared/model"
)

// DashboardService /api/dashboard
type DashboardService struct {
	c *Client
}

// countryFallbackLimit 本地统计国家分布时拉取的上限
const countryFallbackLimit = 1000

// Get 仪表盘统计；超级管理员可按 category 过滤
func (s *DashboardService) Get(ctx context.Context, params url.Values) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	if err := s.c.Get(ctx, "/api/dashboard", params, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// CountryBreakdown 国家分布；服务端未提供时用已通过的调研本地统计
func (s *DashboardService) CountryBreakdown(ctx context.Context, stats *model.DashboardStats) ([]model.CountryCount, error) {
	if stats != nil && len(stats.ResearchByCountry) > 0 {
		return stats.ResearchByCountry, nil
	}
	params := NewParams().
		Set("status", string(model.StatusApproved)).
		SetInt("limit", countryFallbackLimit)
	page, err := s.c.Research.List(ctx, params.Values())
	if err != nil {
		return nil, err
	}
	return model.CountByCountry(page.Data), nil
}
