package domain

import (
	"context"
	"time"
)

// CommentMaxLength is the maximum comment length in characters.
const CommentMaxLength = 1000

// Comment is a reader's remark on an APPROVED article.
// NewsID and UserID never change after creation.
type Comment struct {
	ID      int    `json:"id"`
	Content string `json:"content" gorm:"type:text;not null"`
	NewsID  int    `json:"newsId" gorm:"not null;index"`
	UserID  int    `json:"userId" gorm:"not null;index"`
	User    *User  `json:"-" gorm:"foreignKey:UserID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentView is a Comment as returned to callers, with its author's public data.
type CommentView struct {
	Comment
	User *Author `json:"user"`
}

// CommentPage is one page of an article's comments, newest first.
type CommentPage struct {
	Comments   []*CommentView `json:"comments"`
	Pagination Pagination     `json:"pagination"`
}

// CommentService manages comments and their ownership rules.
type CommentService interface {
	List(ctx context.Context, newsID int, page, limit int) (*CommentPage, error)
	Create(ctx context.Context, ident *Identity, newsID int, content string) (*CommentView, error)
	Update(ctx context.Context, ident *Identity, id int, content string) (*CommentView, error)
	Delete(ctx context.Context, ident *Identity, id int) error
}
