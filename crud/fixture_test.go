package crud

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"greenmag/domain"
	"greenmag/errs"
	"greenmag/testutil"
)

const testPepper = "test-pepper"

// fixture is a migrated database with one account per role, plus a second
// editor and a second reader for ownership checks.
type fixture struct {
	db *gorm.DB
	*Services

	admin   *domain.Identity
	editor  *domain.Identity
	editor2 *domain.Identity
	reader  *domain.Identity
	reader2 *domain.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	s, err := NewServices(db, WithAll(testPepper)...)
	require.NoError(t, err)
	f := &fixture{db: db, Services: s}
	f.admin = f.account(t, "Ada", "ada@greenmag.com", domain.RoleAdmin)
	f.editor = f.account(t, "Eve", "eve@greenmag.com", domain.RoleEditor)
	f.editor2 = f.account(t, "Ed", "ed@greenmag.com", domain.RoleEditor)
	f.reader = f.account(t, "Uma", "uma@greenmag.com", domain.RoleUser)
	f.reader2 = f.account(t, "Ulf", "ulf@greenmag.com", domain.RoleUser)
	return f
}

// account inserts a user directly, skipping the bcrypt cost of Register.
func (f *fixture) account(t *testing.T, name, email string, role domain.Role) *domain.Identity {
	t.Helper()
	u := &domain.User{Name: name, Email: email, Role: role, PasswordHash: "unused"}
	require.NoError(t, f.db.Create(u).Error)
	return &domain.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func (f *fixture) create(t *testing.T, ident *domain.Identity, title string) *domain.ArticleView {
	t.Helper()
	a, err := f.Article.Create(context.Background(), ident, domain.ArticleInput{
		Title:   title,
		Content: "Body of " + title,
	})
	require.NoError(t, err)
	return a
}

// published creates an article by f.editor and approves it.
func (f *fixture) published(t *testing.T, title string) *domain.ArticleView {
	t.Helper()
	a := f.create(t, f.editor, title)
	a, err := f.Article.Moderate(context.Background(), f.admin, a.ID, domain.StatusApproved)
	require.NoError(t, err)
	return a
}

// assertLikeCount checks the denormalized counter against the like rows.
func (f *fixture) assertLikeCount(t *testing.T, newsID int, want int) {
	t.Helper()
	var article domain.Article
	require.NoError(t, f.db.First(&article, newsID).Error)
	var rows int64
	require.NoError(t, f.db.Model(&domain.Like{}).Where("news_id = ?", newsID).Count(&rows).Error)
	assert.Equal(t, want, article.LikeCount, "like_count")
	assert.Equal(t, int64(want), rows, "like rows")
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, errs.ErrorCode(err), err.Error())
}

func strptr(s string) *string {
	return &s
}
