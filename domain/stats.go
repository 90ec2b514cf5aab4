package domain

import "context"

// DashboardStats is the dashboard summary, scoped to what the caller may see.
type DashboardStats struct {
	TotalNews    int64          `json:"totalNews"`
	ApprovedNews int64          `json:"approvedNews"`
	PendingNews  int64          `json:"pendingNews"`
	TotalUsers   int64          `json:"totalUsers"`
	RecentNews   []*ArticleView `json:"recentNews"`
}

// StatsService computes dashboard statistics.
type StatsService interface {
	Dashboard(ctx context.Context, ident *Identity) (*DashboardStats, error)
}
