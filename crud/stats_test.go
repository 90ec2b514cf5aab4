package crud

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenmag/domain"
	"greenmag/errs"
)

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.published(t, "One")
	f.published(t, "Two")
	f.create(t, f.editor, "Mine Pending")
	f.create(t, f.editor2, "Theirs Pending")

	stats, err := f.Stats.Dashboard(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalNews)
	assert.Equal(t, int64(2), stats.ApprovedNews)
	assert.Equal(t, int64(2), stats.PendingNews)
	assert.Equal(t, int64(5), stats.TotalUsers)
	require.Len(t, stats.RecentNews, 4)
	assert.Equal(t, "Theirs Pending", stats.RecentNews[0].Title)

	stats, err = f.Stats.Dashboard(ctx, f.editor)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalNews)
	assert.Equal(t, int64(1), stats.PendingNews)
	assert.Zero(t, stats.TotalUsers)

	stats, err = f.Stats.Dashboard(ctx, f.reader)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalNews)
	assert.Zero(t, stats.PendingNews)
	assert.Len(t, stats.RecentNews, 2)

	_, err = f.Stats.Dashboard(ctx, nil)
	assertCode(t, err, errs.EUNAUTHORIZED)
}

func TestDashboardCommentCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.published(t, "Quiet")
	busy := f.published(t, "Busy")
	for _, ident := range []*domain.Identity{f.reader, f.reader2} {
		_, err := f.Comment.Create(ctx, ident, busy.ID, "First!")
		require.NoError(t, err)
	}

	stats, err := f.Stats.Dashboard(ctx, f.reader)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, a := range stats.RecentNews {
		counts[a.Title] = a.CommentCount
	}
	assert.Equal(t, map[string]int{"Quiet": 0, "Busy": 2}, counts)

	page, err := f.Article.List(ctx, f.reader, domain.ArticleFilter{})
	require.NoError(t, err)
	for _, a := range page.Articles {
		assert.Equal(t, counts[a.Title], a.CommentCount, a.Title)
	}
}
