package domain

import (
	"context"
	"time"
)

// Like is the join between a User and an Article they like. The pair
// (UserID, NewsID) is unique, which is what keeps concurrent toggles honest.
type Like struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId" gorm:"not null;uniqueIndex:idx_likes_user_news"`
	NewsID    int       `json:"newsId" gorm:"not null;uniqueIndex:idx_likes_user_news;index"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikeState is the result of a toggle or a like status lookup.
type LikeState struct {
	Liked      bool `json:"liked"`
	TotalLikes int  `json:"totalLikes"`
}

// LikeService toggles likes and reports like state.
type LikeService interface {
	Toggle(ctx context.Context, ident *Identity, newsID int) (*LikeState, error)
	Status(ctx context.Context, ident *Identity, newsID int) (*LikeState, error)
}
