package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenmag/domain"
	"greenmag/errs"
	"greenmag/testutil"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        Page
		field       string
	}{
		{"defaults", 0, 0, Page{Page: 1, Limit: DefaultArticleLimit}, ""},
		{"explicit", 3, 25, Page{Page: 3, Limit: 25}, ""},
		{"clamped", 1, 1000, Page{Page: 1, Limit: MaxLimit}, ""},
		{"negative page", -1, 10, Page{}, "page"},
		{"negative limit", 1, -5, Page{}, "limit"},
		{"last reachable page", maxSkip/10 + 1, 10, Page{Page: maxSkip/10 + 1, Limit: 10}, ""},
		{"page beyond any offset", maxSkip/10 + 2, 10, Page{}, "page"},
		{"huge page", math.MaxInt, 100, Page{}, "page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPage(tt.page, tt.limit, DefaultArticleLimit)
			if tt.field != "" {
				require.Error(t, err)
				assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
				assert.Equal(t, tt.field, errs.ErrorField(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPagination(t *testing.T) {
	p := Page{Page: 2, Limit: 10}
	assert.Equal(t, 10, p.Skip())
	assert.Equal(t, domain.Pagination{Page: 2, Limit: 10, Total: 0, Pages: 0}, p.Pagination(0))
	assert.Equal(t, 1, p.Pagination(10).Pages)
	assert.Equal(t, 2, p.Pagination(11).Pages)
	assert.Equal(t, 3, p.Pagination(21).Pages)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\dir`, escapeLike(`c:\dir`))
}

func TestArticlesScope(t *testing.T) {
	db := testutil.NewDB(t)
	author := &domain.User{Name: "A", Email: "a@greenmag.com", Role: domain.RoleEditor, PasswordHash: "x"}
	require.NoError(t, db.Create(author).Error)
	other := &domain.User{Name: "B", Email: "b@greenmag.com", Role: domain.RoleEditor, PasswordHash: "x"}
	require.NoError(t, db.Create(other).Error)

	energy := "energy"
	rows := []domain.Article{
		{Title: "Solar Farms", Slug: "s1", Content: "sun", Status: domain.StatusApproved, AuthorID: author.ID, Category: &energy},
		{Title: "Wind", Slug: "s2", Content: "Solar and wind", Status: domain.StatusApproved, AuthorID: other.ID},
		{Title: "Draft on solar", Slug: "s3", Content: "wip", Status: domain.StatusPending, AuthorID: author.ID, Category: &energy},
		{Title: "Secret solar", Slug: "s4", Content: "wip", Status: domain.StatusPending, AuthorID: other.ID},
		{Title: "Rejected", Slug: "s5", Content: "no", Status: domain.StatusRejected, AuthorID: other.ID},
	}
	require.NoError(t, db.Create(&rows).Error)

	ident := &domain.Identity{UserID: author.ID, Role: domain.RoleEditor}
	admin := &domain.Identity{UserID: 99, Role: domain.RoleAdmin}
	solar := "SOLAR"
	pending := domain.StatusPending

	count := func(t *testing.T, ident *domain.Identity, f domain.ArticleFilter) []string {
		t.Helper()
		scope, err := Articles(ident, f)
		require.NoError(t, err)
		var got []domain.Article
		require.NoError(t, db.Scopes(scope).Order("slug").Find(&got).Error)
		slugs := make([]string, len(got))
		for i := range got {
			slugs[i] = got[i].Slug
		}
		return slugs
	}

	assert.Equal(t, []string{"s1", "s2"}, count(t, nil, domain.ArticleFilter{}))
	assert.Equal(t, []string{"s1", "s2", "s3"}, count(t, ident, domain.ArticleFilter{}))
	assert.Equal(t, []string{"s1", "s2", "s3", "s4", "s5"}, count(t, admin, domain.ArticleFilter{}))

	assert.Equal(t, []string{"s1", "s2"}, count(t, nil, domain.ArticleFilter{Search: &solar}))
	assert.Equal(t, []string{"s1", "s2", "s3"}, count(t, ident, domain.ArticleFilter{Search: &solar}))
	assert.Equal(t, []string{"s3"}, count(t, ident, domain.ArticleFilter{Status: &pending}))
	assert.Equal(t, []string{"s3", "s4"}, count(t, admin, domain.ArticleFilter{Status: &pending}))
	assert.Equal(t, []string{"s1", "s3"}, count(t, ident, domain.ArticleFilter{Category: &energy}))
	assert.Empty(t, count(t, nil, domain.ArticleFilter{Status: &pending}))

	// Listing goes by authorship alone, so a former editor now holding the
	// USER role still lists their own drafts.
	demoted := &domain.Identity{UserID: author.ID, Role: domain.RoleUser}
	assert.Equal(t, []string{"s1", "s2", "s3"}, count(t, demoted, domain.ArticleFilter{}))

	bogus := domain.Status("LIVE")
	_, err := Articles(nil, domain.ArticleFilter{Status: &bogus})
	require.Error(t, err)
	assert.Equal(t, "status", errs.ErrorField(err))
}
