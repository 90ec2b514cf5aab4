package crud

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"greenmag/access"
	"greenmag/domain"
	"greenmag/errs"
)

// toggleAttempts is how often a toggle runs when its insert loses a race.
const toggleAttempts = 2

// LikeService manages Likes and keeps Article.LikeCount in step with them.
// It implements the domain.LikeService interface.
type LikeService struct {
	likeGorm
	access *access.Evaluator
}

// likeGorm runs the like transactions on the database.
type likeGorm struct {
	db *gorm.DB
}

// NewLikeService returns an instance of LikeService.
func NewLikeService(db *gorm.DB, evaluator *access.Evaluator) *LikeService {
	return &LikeService{
		likeGorm: likeGorm{
			db: db,
		},
		access: evaluator,
	}
}

// Ensure the LikeService struct properly implements the domain.LikeService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.LikeService = &LikeService{}

// Toggle likes the article if ident does not like it yet and unlikes it otherwise.
// The row change and the counter change commit together. If a concurrent toggle
// by the same user inserted the row first, the toggle is rerun and takes the
// unlike branch.
func (ls *LikeService) Toggle(ctx context.Context, ident *domain.Identity, newsID int) (*domain.LikeState, error) {
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}
	for attempt := 0; attempt < toggleAttempts; attempt++ {
		state, err := ls.likeGorm.Toggle(ctx, newsID, ident.UserID, func(article *domain.Article) error {
			if err := ls.access.Check(ident, access.Read, access.Article(article)); err != nil {
				return err
			}
			return ls.access.Check(ident, access.Toggle, access.LikeOn(article))
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return nil, errs.Ensure(err)
		}
		return state, nil
	}
	return nil, errs.Errorf(errs.ECONFLICT, "The like could not be toggled. Please try again.")
}

// Status reports the like count of an article and whether ident likes it.
// Anonymous callers always get liked=false.
func (ls *LikeService) Status(ctx context.Context, ident *domain.Identity, newsID int) (*domain.LikeState, error) {
	article, err := ls.likeGorm.article(ls.db.WithContext(ctx), newsID)
	if err != nil {
		return nil, err
	}
	if err := ls.access.Check(ident, access.Read, access.Article(article)); err != nil {
		return nil, err
	}
	state := &domain.LikeState{TotalLikes: article.LikeCount}
	if ident == nil {
		return state, nil
	}
	state.Liked, err = ls.likeGorm.Exists(ctx, ident.UserID, newsID)
	if err != nil {
		return nil, errs.Internal(err)
	}
	return state, nil
}

// Toggle flips the like of userID on newsID in one transaction. check runs
// against the article inside the transaction before anything is written.
// A lost insert race surfaces as gorm.ErrDuplicatedKey.
func (lg *likeGorm) Toggle(ctx context.Context, newsID, userID int, check func(*domain.Article) error) (*domain.LikeState, error) {
	var state domain.LikeState
	err := lg.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		article, err := lg.article(tx, newsID)
		if err != nil {
			return err
		}
		if err := check(article); err != nil {
			return err
		}

		res := tx.Where("user_id = ? AND news_id = ?", userID, newsID).Delete(&domain.Like{})
		if res.Error != nil {
			return res.Error
		}
		delta := -1
		if res.RowsAffected == 0 {
			if err := tx.Create(&domain.Like{UserID: userID, NewsID: newsID}).Error; err != nil {
				return err
			}
			delta = 1
			state.Liked = true
		}

		err = tx.Model(&domain.Article{}).
			Where("id = ?", newsID).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
		if err != nil {
			return err
		}
		var counts []int
		err = tx.Model(&domain.Article{}).
			Where("id = ?", newsID).
			Pluck("like_count", &counts).Error
		if err != nil {
			return err
		}
		if len(counts) == 1 {
			state.TotalLikes = counts[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Exists reports whether userID likes newsID.
func (lg *likeGorm) Exists(ctx context.Context, userID, newsID int) (bool, error) {
	var n int64
	err := lg.db.WithContext(ctx).
		Model(&domain.Like{}).
		Where("user_id = ? AND news_id = ?", userID, newsID).
		Count(&n).Error
	return n > 0, err
}

// article loads the columns of an article that access decisions and the
// like state need, using db so it can run inside a transaction.
func (lg *likeGorm) article(db *gorm.DB, newsID int) (*domain.Article, error) {
	var article domain.Article
	err := db.
		Select("id", "author_id", "status", "like_count").
		First(&article, "id = ?", newsID).Error
	if err != nil {
		return nil, lookupErr(err, "article")
	}
	return &article, nil
}
