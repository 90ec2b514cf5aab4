package crud

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenmag/domain"
	"greenmag/errs"
)

func TestCommentGating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.create(t, f.editor, "Pending")
	rejected := f.create(t, f.editor, "Rejected")
	_, err := f.Article.Moderate(ctx, f.admin, rejected.ID, domain.StatusRejected)
	require.NoError(t, err)
	approved := f.published(t, "Approved")

	for _, a := range []*domain.ArticleView{pending, rejected} {
		_, err := f.Comment.Create(ctx, f.reader, a.ID, "hello")
		assertCode(t, err, errs.ENOTFOUND)
		_, err = f.Comment.Create(ctx, f.admin, a.ID, "hello")
		assertCode(t, err, errs.ENOTFOUND)
		_, err = f.Comment.List(ctx, a.ID, 0, 0)
		assertCode(t, err, errs.ENOTFOUND)
	}

	_, err = f.Comment.Create(ctx, f.reader, 9999, "hello")
	assertCode(t, err, errs.ENOTFOUND)
	_, err = f.Comment.Create(ctx, nil, approved.ID, "hello")
	assertCode(t, err, errs.EUNAUTHORIZED)

	older, err := f.Comment.Create(ctx, f.reader2, approved.ID, "older")
	require.NoError(t, err)
	c, err := f.Comment.Create(ctx, f.reader, approved.ID, "  newest  ")
	require.NoError(t, err)
	assert.Equal(t, "newest", c.Content)
	assert.Equal(t, f.reader.UserID, c.UserID)
	require.NotNil(t, c.User)
	assert.Equal(t, "Uma", c.User.Name)

	page, err := f.Comment.List(ctx, approved.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Comments, 2)
	assert.Equal(t, c.ID, page.Comments[0].ID)
	assert.Equal(t, older.ID, page.Comments[1].ID)
	assert.Equal(t, domain.Pagination{Page: 1, Limit: 20, Total: 2, Pages: 1}, page.Pagination)
}

func TestCommentLength(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.published(t, "Wordy")

	_, err := f.Comment.Create(ctx, f.reader, a.ID, strings.Repeat("é", domain.CommentMaxLength))
	require.NoError(t, err)

	_, err = f.Comment.Create(ctx, f.reader, a.ID, strings.Repeat("a", domain.CommentMaxLength+1))
	assertCode(t, err, errs.EINVALID)
	assert.Equal(t, "content", errs.ErrorField(err))

	_, err = f.Comment.Create(ctx, f.reader, a.ID, " \n\t ")
	assertCode(t, err, errs.EINVALID)
}

func TestCommentOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.published(t, "Debated")
	c, err := f.Comment.Create(ctx, f.reader, a.ID, "mine")
	require.NoError(t, err)

	t.Run("author edits", func(t *testing.T) {
		got, err := f.Comment.Update(ctx, f.reader, c.ID, "mine, edited")
		require.NoError(t, err)
		assert.Equal(t, "mine, edited", got.Content)
		assert.Equal(t, a.ID, got.NewsID)
	})

	t.Run("others cannot edit or delete", func(t *testing.T) {
		_, err := f.Comment.Update(ctx, f.reader2, c.ID, "not yours")
		assertCode(t, err, errs.EFORBIDDEN)
		_, err = f.Comment.Update(ctx, f.editor, c.ID, "not yours")
		assertCode(t, err, errs.EFORBIDDEN)
		assertCode(t, f.Comment.Delete(ctx, f.reader2, c.ID), errs.EFORBIDDEN)
		assertCode(t, f.Comment.Delete(ctx, nil, c.ID), errs.EUNAUTHORIZED)
	})

	t.Run("edit is validated", func(t *testing.T) {
		_, err := f.Comment.Update(ctx, f.reader, c.ID, "")
		assertCode(t, err, errs.EINVALID)
	})

	t.Run("admin moderates comments", func(t *testing.T) {
		got, err := f.Comment.Update(ctx, f.admin, c.ID, "[removed]")
		require.NoError(t, err)
		assert.Equal(t, f.reader.UserID, got.UserID)
		require.NoError(t, f.Comment.Delete(ctx, f.admin, c.ID))
		_, err = f.Comment.Update(ctx, f.reader, c.ID, "back")
		assertCode(t, err, errs.ENOTFOUND)
	})

	t.Run("author deletes", func(t *testing.T) {
		c, err := f.Comment.Create(ctx, f.reader2, a.ID, "brief")
		require.NoError(t, err)
		require.NoError(t, f.Comment.Delete(ctx, f.reader2, c.ID))
		assertCode(t, f.Comment.Delete(ctx, f.reader2, c.ID), errs.ENOTFOUND)
	})
}

func TestCommentPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.published(t, "Busy Thread")
	for i := 0; i < 25; i++ {
		_, err := f.Comment.Create(ctx, f.reader, a.ID, "comment")
		require.NoError(t, err)
	}

	page, err := f.Comment.List(ctx, a.ID, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page.Comments, 5)
	assert.Equal(t, domain.Pagination{Page: 2, Limit: 20, Total: 25, Pages: 2}, page.Pagination)

	page, err = f.Comment.List(ctx, a.ID, 1, 500)
	require.NoError(t, err)
	assert.Len(t, page.Comments, 25)
	assert.Equal(t, 100, page.Pagination.Limit)
}
