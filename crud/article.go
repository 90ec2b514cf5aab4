package crud

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"greenmag/access"
	"greenmag/domain"
	"greenmag/errs"
	"greenmag/log"
	"greenmag/query"
	"greenmag/slug"
)

// slugAttempts is how often an insert is tried when the chosen slug loses a race.
const slugAttempts = 2

// maxSlugProbes bounds the -1, -2, ... suffixes tried for one title.
const maxSlugProbes = 1000

// ArticleService manages Articles and their status lifecycle.
// It implements the domain.ArticleService interface.
type ArticleService struct {
	articleValidator
	access *access.Evaluator
}

// articleValidator runs validations on incoming Article data.
// On success, it passes the data on to articleGorm.
// Otherwise, it returns the error of the validation that has failed.
type articleValidator struct {
	articleGorm
}

// articleGorm runs CRUD operations on the database using incoming Article data.
// It assumes that data has been validated and access has been checked.
type articleGorm struct {
	db *gorm.DB
}

// NewArticleService returns an instance of ArticleService.
func NewArticleService(db *gorm.DB, evaluator *access.Evaluator) *ArticleService {
	return &ArticleService{
		articleValidator: articleValidator{
			articleGorm{
				db: db,
			},
		},
		access: evaluator,
	}
}

// Ensure the ArticleService struct properly implements the domain.ArticleService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.ArticleService = &ArticleService{}

// List returns one page of the articles ident may see, newest first.
func (as *ArticleService) List(ctx context.Context, ident *domain.Identity, filter domain.ArticleFilter) (*domain.ArticlePage, error) {
	page, err := query.NewPage(filter.Page, filter.Limit, query.DefaultArticleLimit)
	if err != nil {
		return nil, err
	}
	scope, err := query.Articles(ident, filter)
	if err != nil {
		return nil, err
	}
	articles, total, err := as.articleGorm.List(ctx, scope, page)
	if err != nil {
		return nil, errs.Internal(err)
	}
	views, err := as.withCommentCounts(ctx, articles)
	if err != nil {
		return nil, err
	}
	return &domain.ArticlePage{
		Articles:   views,
		Pagination: page.Pagination(total),
	}, nil
}

// ByID returns a single article with its author and comments.
func (as *ArticleService) ByID(ctx context.Context, ident *domain.Identity, id int) (*domain.ArticleView, error) {
	article, err := as.articleGorm.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return as.readable(ctx, ident, article)
}

// BySlug returns a single article with its author and comments.
func (as *ArticleService) BySlug(ctx context.Context, ident *domain.Identity, s string) (*domain.ArticleView, error) {
	article, err := as.articleGorm.BySlug(ctx, s)
	if err != nil {
		return nil, err
	}
	return as.readable(ctx, ident, article)
}

// readable checks that ident may see article and loads its comments.
func (as *ArticleService) readable(ctx context.Context, ident *domain.Identity, article *domain.Article) (*domain.ArticleView, error) {
	if err := as.access.Check(ident, access.Read, access.Article(article)); err != nil {
		return nil, err
	}
	comments, err := as.articleGorm.Comments(ctx, article.ID)
	if err != nil {
		return nil, errs.Internal(err)
	}
	view := articleView(article, len(comments))
	view.Comments = make([]*domain.CommentView, 0, len(comments))
	for i := range comments {
		view.Comments = append(view.Comments, commentView(&comments[i]))
	}
	return view, nil
}

// Create stores a new article owned by ident. Articles by admins are
// published right away, everybody else's wait for moderation.
func (as *ArticleService) Create(ctx context.Context, ident *domain.Identity, input domain.ArticleInput) (*domain.ArticleView, error) {
	if err := as.access.Check(ident, access.Create, access.NewArticle()); err != nil {
		return nil, err
	}
	article := &domain.Article{
		Title:     input.Title,
		Content:   input.Content,
		Category:  optional(input.Category),
		Thumbnail: optional(input.Thumbnail),
		AuthorID:  ident.UserID,
		Status:    domain.StatusPending,
	}
	if ident.IsAdmin() {
		article.Status = domain.StatusApproved
	}
	err := runArticleValFns(article,
		as.titleRequired,
		as.contentRequired,
		as.thumbnailURL)
	if err != nil {
		return nil, err
	}
	err = as.withFreshSlug(ctx, article, func() error {
		return as.articleGorm.Create(ctx, article)
	})
	if err != nil {
		return nil, err
	}
	log.Log.WithFields(logrus.Fields{
		"article_id": article.ID,
		"slug":       article.Slug,
		"status":     article.Status,
		"author_id":  article.AuthorID,
	}).Info("article created")
	return as.view(ctx, article.ID)
}

// Update applies a partial update. A changed title regenerates the slug,
// the status is never touched.
func (as *ArticleService) Update(ctx context.Context, ident *domain.Identity, id int, upd domain.ArticleUpdate) (*domain.ArticleView, error) {
	article, err := as.articleGorm.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := as.access.Check(ident, access.Update, access.Article(article)); err != nil {
		return nil, err
	}

	oldTitle := article.Title
	if upd.Title != nil {
		article.Title = *upd.Title
	}
	if upd.Content != nil {
		article.Content = *upd.Content
	}
	if upd.Category != nil {
		article.Category = optional(upd.Category)
	}
	if upd.Thumbnail != nil {
		article.Thumbnail = optional(upd.Thumbnail)
	}
	err = runArticleValFns(article,
		as.titleRequired,
		as.contentRequired,
		as.thumbnailURL)
	if err != nil {
		return nil, err
	}

	save := func() error { return as.articleGorm.Update(ctx, article) }
	if article.Title != oldTitle {
		err = as.withFreshSlug(ctx, article, save)
	} else {
		err = errs.Ensure(save())
	}
	if err != nil {
		return nil, err
	}
	return as.view(ctx, article.ID)
}

// Revise is Update followed by Moderate when status is set. Both run in one
// transaction, so a refused moderation leaves the field changes unsaved.
func (as *ArticleService) Revise(ctx context.Context, ident *domain.Identity, id int, upd domain.ArticleUpdate, status *domain.Status) (*domain.ArticleView, error) {
	if status == nil {
		return as.Update(ctx, ident, id, upd)
	}
	var view *domain.ArticleView
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txs := as.withDB(tx)
		if upd.HasChanges() {
			if _, err := txs.Update(ctx, ident, id, upd); err != nil {
				return err
			}
		}
		var err error
		view, err = txs.Moderate(ctx, ident, id, *status)
		return err
	})
	if err != nil {
		return nil, errs.Ensure(err)
	}
	return view, nil
}

// withDB returns a copy of the service that runs its queries on db.
func (as *ArticleService) withDB(db *gorm.DB) *ArticleService {
	return &ArticleService{
		articleValidator: articleValidator{
			articleGorm{
				db: db,
			},
		},
		access: as.access,
	}
}

// Moderate moves a PENDING article to APPROVED or REJECTED. It is the only
// way out of PENDING, and there is no way back.
func (as *ArticleService) Moderate(ctx context.Context, ident *domain.Identity, id int, status domain.Status) (*domain.ArticleView, error) {
	article, err := as.articleGorm.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := as.access.Check(ident, access.Moderate, access.Article(article)); err != nil {
		return nil, err
	}
	if status != domain.StatusApproved && status != domain.StatusRejected {
		return nil, errs.Invalid("status", "The status must be APPROVED or REJECTED.")
	}
	if article.Status != domain.StatusPending {
		return nil, errs.Invalid("status", "Only pending articles can be moderated.")
	}
	moved, err := as.articleGorm.Transition(ctx, id, domain.StatusPending, status)
	if err != nil {
		return nil, errs.Internal(err)
	}
	if !moved {
		// Someone else moderated it between the lookup and the update.
		return nil, errs.Invalid("status", "Only pending articles can be moderated.")
	}
	log.Log.WithFields(logrus.Fields{
		"article_id":   id,
		"status":       status,
		"moderated_by": ident.UserID,
	}).Info("article moderated")
	return as.view(ctx, id)
}

// Delete removes an article together with its likes and comments.
func (as *ArticleService) Delete(ctx context.Context, ident *domain.Identity, id int) error {
	article, err := as.articleGorm.ByID(ctx, id)
	if err != nil {
		return err
	}
	if err := as.access.Check(ident, access.Delete, access.Article(article)); err != nil {
		return err
	}
	if err := as.articleGorm.Delete(ctx, id); err != nil {
		return errs.Internal(err)
	}
	log.Log.WithFields(logrus.Fields{
		"article_id": id,
		"deleted_by": ident.UserID,
	}).Info("article deleted")
	return nil
}

// withFreshSlug picks a free slug for article and runs write. If the store
// rejects the slug as a duplicate, a new one is picked and write runs once more.
func (as *ArticleService) withFreshSlug(ctx context.Context, article *domain.Article, write func() error) error {
	gen := slug.NewGenerator(func(ctx context.Context, s string) (bool, error) {
		return as.articleGorm.SlugTaken(ctx, s, article.ID)
	})
	gen.MaxProbes = maxSlugProbes
	for attempt := 0; attempt < slugAttempts; attempt++ {
		s, err := gen.Unique(ctx, article.Title)
		if err != nil {
			var e *errs.Error
			if errors.As(err, &e) {
				return err
			}
			return errs.Errorf(errs.ECONFLICT, "No free slug could be found for this title.")
		}
		article.Slug = s
		err = write()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Log.WithField("slug", s).Warn("slug taken concurrently, retrying")
			continue
		}
		return errs.Ensure(err)
	}
	return errs.Errorf(errs.ECONFLICT, "The slug for this title was taken concurrently. Please try again.")
}

// view reloads an article with its author for returning to the caller.
func (as *ArticleService) view(ctx context.Context, id int) (*domain.ArticleView, error) {
	article, err := as.articleGorm.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := as.articleGorm.CommentCounts(ctx, []int{id})
	if err != nil {
		return nil, errs.Internal(err)
	}
	return articleView(article, counts[id]), nil
}

func (as *ArticleService) withCommentCounts(ctx context.Context, articles []domain.Article) ([]*domain.ArticleView, error) {
	ids := make([]int, len(articles))
	for i := range articles {
		ids[i] = articles[i].ID
	}
	counts, err := as.articleGorm.CommentCounts(ctx, ids)
	if err != nil {
		return nil, errs.Internal(err)
	}
	views := make([]*domain.ArticleView, len(articles))
	for i := range articles {
		views[i] = articleView(&articles[i], counts[articles[i].ID])
	}
	return views, nil
}

// runArticleValFns runs any number of functions of type articleValFn on the passed in Article object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runArticleValFns(article *domain.Article, fns ...articleValFn) error {
	for _, fn := range fns {
		if err := fn(article); err != nil {
			return err
		}
	}
	return nil
}

// An articleValFn is any function that takes in a pointer to a domain.Article object and returns an error.
type articleValFn func(article *domain.Article) error

// titleRequired trims the title and makes sure it is not empty.
func (av *articleValidator) titleRequired(article *domain.Article) error {
	article.Title = strings.TrimSpace(article.Title)
	if article.Title == "" {
		return errs.Invalid("title", "A title is required.")
	}
	return nil
}

// contentRequired makes sure the content is not blank.
func (av *articleValidator) contentRequired(article *domain.Article) error {
	if strings.TrimSpace(article.Content) == "" {
		return errs.Invalid("content", "Content is required.")
	}
	return nil
}

// thumbnailURL makes sure a thumbnail, if present, is an absolute http(s) URL.
func (av *articleValidator) thumbnailURL(article *domain.Article) error {
	if article.Thumbnail == nil {
		return nil
	}
	t := *article.Thumbnail
	if !strings.HasPrefix(t, "http://") && !strings.HasPrefix(t, "https://") {
		return errs.Invalid("thumbnail", "The thumbnail must be an http or https URL.")
	}
	return nil
}

// List runs a scoped listing and its count.
func (ag *articleGorm) List(ctx context.Context, scope query.Scope, page query.Page) ([]domain.Article, int64, error) {
	var total int64
	err := ag.db.WithContext(ctx).
		Model(&domain.Article{}).
		Scopes(scope).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	var articles []domain.Article
	err = ag.db.WithContext(ctx).
		Scopes(scope, query.Newest, page.Paginate).
		Preload("Author").
		Find(&articles).Error
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// ByID retrieves a single Article by ID along with its author.
// If the record doesn't exist, it returns errs.ENOTFOUND.
func (ag *articleGorm) ByID(ctx context.Context, id int) (*domain.Article, error) {
	var article domain.Article
	err := ag.db.WithContext(ctx).
		Preload("Author").
		First(&article, "id = ?", id).Error
	if err != nil {
		return nil, lookupErr(err, "article")
	}
	return &article, nil
}

// BySlug retrieves a single Article by slug along with its author.
func (ag *articleGorm) BySlug(ctx context.Context, s string) (*domain.Article, error) {
	var article domain.Article
	err := ag.db.WithContext(ctx).
		Preload("Author").
		First(&article, "slug = ?", s).Error
	if err != nil {
		return nil, lookupErr(err, "article")
	}
	return &article, nil
}

// Comments returns an article's comments newest first, with their authors.
func (ag *articleGorm) Comments(ctx context.Context, id int) ([]domain.Comment, error) {
	var comments []domain.Comment
	err := ag.db.WithContext(ctx).
		Where("news_id = ?", id).
		Scopes(query.Newest).
		Preload("User").
		Find(&comments).Error
	return comments, err
}

// CommentCounts returns the number of comments per article id.
func (ag *articleGorm) CommentCounts(ctx context.Context, ids []int) (map[int]int, error) {
	counts := make(map[int]int, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []struct {
		NewsID int
		Total  int
	}
	err := ag.db.WithContext(ctx).
		Model(&domain.Comment{}).
		Select("news_id, COUNT(*) AS total").
		Where("news_id IN ?", ids).
		Group("news_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.NewsID] = r.Total
	}
	return counts, nil
}

// SlugTaken reports whether an article other than exceptID uses s.
func (ag *articleGorm) SlugTaken(ctx context.Context, s string, exceptID int) (bool, error) {
	var n int64
	err := ag.db.WithContext(ctx).
		Model(&domain.Article{}).
		Where("slug = ? AND id <> ?", s, exceptID).
		Count(&n).Error
	if err != nil {
		return false, errs.Internal(err)
	}
	return n > 0, nil
}

// Create stores the data from the Article object in a new database record.
// The raw gorm error is returned so slug collisions can be told apart.
func (ag *articleGorm) Create(ctx context.Context, article *domain.Article) error {
	return ag.db.WithContext(ctx).Omit("Author", "Comments", "Likes").Create(article).Error
}

// Update saves the editable columns of an article. Inside an outer
// transaction it runs in a savepoint, so a duplicate slug can be retried.
func (ag *articleGorm) Update(ctx context.Context, article *domain.Article) error {
	return ag.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(article).
			Select("title", "slug", "content", "category", "thumbnail").
			Updates(article).Error
	})
}

// Transition sets the status to to, but only while it is still from.
// It reports whether the row was changed.
func (ag *articleGorm) Transition(ctx context.Context, id int, from, to domain.Status) (bool, error) {
	res := ag.db.WithContext(ctx).
		Model(&domain.Article{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}

// Delete permanently deletes an article and everything that references it.
func (ag *articleGorm) Delete(ctx context.Context, id int) error {
	return ag.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("news_id = ?", id).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("news_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Article{}, id).Error
	})
}
