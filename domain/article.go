package domain

import (
	"context"
	"time"
)

// Status is the moderation state of an Article.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Article is a piece of news content. Only APPROVED articles are public.
// LikeCount is a denormalized copy of len(Likes) that is only ever changed in
// the same transaction that inserts or deletes a Like row.
type Article struct {
	ID        int     `json:"id"`
	Title     string  `json:"title" gorm:"not null"`
	Slug      string  `json:"slug" gorm:"not null;uniqueIndex"`
	Content   string  `json:"content" gorm:"type:text;not null"`
	Category  *string `json:"category" gorm:"index"`
	Thumbnail *string `json:"thumbnail"`
	Status    Status  `json:"status" gorm:"not null;index;default:PENDING"`
	LikeCount int     `json:"likeCount" gorm:"not null;default:0"`
	AuthorID  int     `json:"authorId" gorm:"not null;index"`
	Author    *User   `json:"-" gorm:"foreignKey:AuthorID"`

	Comments []Comment `json:"-" gorm:"foreignKey:NewsID;constraint:OnDelete:CASCADE"`
	Likes    []Like    `json:"-" gorm:"foreignKey:NewsID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ArticleView is an Article as returned to callers, with its author and
// either its comment count (listings) or its comments (single lookups).
type ArticleView struct {
	Article
	Author       *Author        `json:"author"`
	CommentCount int            `json:"commentCount"`
	Comments     []*CommentView `json:"comments,omitempty"`
}

// ArticleInput holds the fields accepted when creating an article.
type ArticleInput struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Category  *string `json:"category"`
	Thumbnail *string `json:"thumbnail"`
}

// ArticleUpdate holds a partial update. Nil fields keep their current value.
type ArticleUpdate struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Category  *string `json:"category"`
	Thumbnail *string `json:"thumbnail"`
}

// HasChanges reports whether any field is set.
func (u ArticleUpdate) HasChanges() bool {
	return u.Title != nil || u.Content != nil || u.Category != nil || u.Thumbnail != nil
}

// ArticleFilter holds the optional listing filters.
type ArticleFilter struct {
	Status   *Status `json:"status"`
	Category *string `json:"category"`
	Search   *string `json:"search"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// ArticlePage is one page of a visibility-filtered article listing.
type ArticlePage struct {
	Articles   []*ArticleView `json:"articles"`
	Pagination Pagination     `json:"pagination"`
}

// ArticleService is the article lifecycle: creation, lookups, edits,
// moderation and deletion, each gated by the caller's identity.
type ArticleService interface {
	List(ctx context.Context, ident *Identity, filter ArticleFilter) (*ArticlePage, error)
	ByID(ctx context.Context, ident *Identity, id int) (*ArticleView, error)
	BySlug(ctx context.Context, ident *Identity, slug string) (*ArticleView, error)
	Create(ctx context.Context, ident *Identity, input ArticleInput) (*ArticleView, error)
	Update(ctx context.Context, ident *Identity, id int, upd ArticleUpdate) (*ArticleView, error)
	Moderate(ctx context.Context, ident *Identity, id int, status Status) (*ArticleView, error)
	Revise(ctx context.Context, ident *Identity, id int, upd ArticleUpdate, status *Status) (*ArticleView, error)
	Delete(ctx context.Context, ident *Identity, id int) error
}
