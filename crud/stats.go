package crud

import (
	"context"

	"gorm.io/gorm"

	"greenmag/domain"
	"greenmag/errs"
	"greenmag/query"
)

// recentNewsLimit is the number of articles shown on the dashboard.
const recentNewsLimit = 5

// StatsService computes the dashboard summary.
// It implements the domain.StatsService interface.
type StatsService struct {
	db       *gorm.DB
	articles articleGorm
}

// NewStatsService returns an instance of StatsService.
func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{
		db:       db,
		articles: articleGorm{db: db},
	}
}

var _ domain.StatsService = &StatsService{}

// Dashboard counts what ident can see. Admins see everything including the
// number of users, editors see their own pending articles, and users see
// published numbers only.
func (ss *StatsService) Dashboard(ctx context.Context, ident *domain.Identity) (*domain.DashboardStats, error) {
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}
	visible := query.Visibility(ident)
	articles := func() *gorm.DB {
		return ss.db.WithContext(ctx).Model(&domain.Article{}).Scopes(visible)
	}

	var stats domain.DashboardStats
	if err := articles().Count(&stats.TotalNews).Error; err != nil {
		return nil, errs.Internal(err)
	}
	err := articles().
		Where("status = ?", domain.StatusApproved).
		Count(&stats.ApprovedNews).Error
	if err != nil {
		return nil, errs.Internal(err)
	}
	err = articles().
		Where("status = ?", domain.StatusPending).
		Count(&stats.PendingNews).Error
	if err != nil {
		return nil, errs.Internal(err)
	}
	if ident.IsAdmin() {
		err = ss.db.WithContext(ctx).Model(&domain.User{}).Count(&stats.TotalUsers).Error
		if err != nil {
			return nil, errs.Internal(err)
		}
	}

	var recent []domain.Article
	err = ss.db.WithContext(ctx).
		Scopes(visible, query.Newest).
		Limit(recentNewsLimit).
		Preload("Author").
		Find(&recent).Error
	if err != nil {
		return nil, errs.Internal(err)
	}
	ids := make([]int, len(recent))
	for i := range recent {
		ids[i] = recent[i].ID
	}
	counts, err := ss.articles.CommentCounts(ctx, ids)
	if err != nil {
		return nil, errs.Internal(err)
	}
	stats.RecentNews = make([]*domain.ArticleView, len(recent))
	for i := range recent {
		stats.RecentNews[i] = articleView(&recent[i], counts[recent[i].ID])
	}
	return &stats, nil
}
