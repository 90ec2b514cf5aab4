package crud

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"greenmag/access"
	"greenmag/domain"
	"greenmag/errs"
	"greenmag/query"
)

// CommentService manages Comments.
// It implements the domain.CommentService interface.
type CommentService struct {
	commentValidator
	access *access.Evaluator
}

// commentValidator runs validations on incoming Comment data.
// On success, it passes the data on to commentGorm.
// Otherwise, it returns the error of the validation that has failed.
type commentValidator struct {
	commentGorm
}

// commentGorm runs CRUD operations on the database using incoming Comment data.
type commentGorm struct {
	db *gorm.DB
}

// NewCommentService returns an instance of CommentService.
func NewCommentService(db *gorm.DB, evaluator *access.Evaluator) *CommentService {
	return &CommentService{
		commentValidator: commentValidator{
			commentGorm{
				db: db,
			},
		},
		access: evaluator,
	}
}

// Ensure the CommentService struct properly implements the domain.CommentService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.CommentService = &CommentService{}

// List returns one page of an APPROVED article's comments, newest first.
func (cs *CommentService) List(ctx context.Context, newsID int, page, limit int) (*domain.CommentPage, error) {
	p, err := query.NewPage(page, limit, query.DefaultCommentLimit)
	if err != nil {
		return nil, err
	}
	if _, err := cs.commentGorm.approvedArticle(ctx, newsID); err != nil {
		return nil, err
	}
	comments, total, err := cs.commentGorm.ByNewsID(ctx, newsID, p)
	if err != nil {
		return nil, errs.Internal(err)
	}
	views := make([]*domain.CommentView, len(comments))
	for i := range comments {
		views[i] = commentView(&comments[i])
	}
	return &domain.CommentPage{
		Comments:   views,
		Pagination: p.Pagination(total),
	}, nil
}

// Create adds a comment by ident to an APPROVED article.
func (cs *CommentService) Create(ctx context.Context, ident *domain.Identity, newsID int, content string) (*domain.CommentView, error) {
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}
	comment := &domain.Comment{
		Content: content,
		NewsID:  newsID,
		UserID:  ident.UserID,
	}
	err := runCommentValFns(comment,
		cs.contentRequired,
		cs.contentMaxLength)
	if err != nil {
		return nil, err
	}
	article, err := cs.commentGorm.article(ctx, newsID)
	if err != nil {
		return nil, err
	}
	if err := cs.access.Check(ident, access.Create, access.CommentOn(article)); err != nil {
		return nil, err
	}
	if err := cs.commentGorm.Create(ctx, comment); err != nil {
		return nil, errs.Internal(err)
	}
	return cs.view(ctx, comment.ID)
}

// Update replaces the content of a comment. Only its author or an admin may do so.
func (cs *CommentService) Update(ctx context.Context, ident *domain.Identity, id int, content string) (*domain.CommentView, error) {
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}
	comment, err := cs.commentGorm.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cs.access.Check(ident, access.Update, access.Comment(comment)); err != nil {
		return nil, err
	}
	comment.Content = content
	err = runCommentValFns(comment,
		cs.contentRequired,
		cs.contentMaxLength)
	if err != nil {
		return nil, err
	}
	if err := cs.commentGorm.Update(ctx, comment); err != nil {
		return nil, errs.Internal(err)
	}
	return cs.view(ctx, comment.ID)
}

// Delete removes a comment. Only its author or an admin may do so.
func (cs *CommentService) Delete(ctx context.Context, ident *domain.Identity, id int) error {
	if err := requireIdentity(ident); err != nil {
		return err
	}
	comment, err := cs.commentGorm.ByID(ctx, id)
	if err != nil {
		return err
	}
	if err := cs.access.Check(ident, access.Delete, access.Comment(comment)); err != nil {
		return err
	}
	return errs.Ensure(cs.commentGorm.Delete(ctx, comment))
}

func (cs *CommentService) view(ctx context.Context, id int) (*domain.CommentView, error) {
	comment, err := cs.commentGorm.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return commentView(comment), nil
}

// runCommentValFns runs any number of functions of type commentValFn on the passed in Comment object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runCommentValFns(comment *domain.Comment, fns ...commentValFn) error {
	for _, fn := range fns {
		if err := fn(comment); err != nil {
			return err
		}
	}
	return nil
}

// A commentValFn is any function that takes in a pointer to a domain.Comment object and returns an error.
type commentValFn func(comment *domain.Comment) error

// contentRequired trims the content and makes sure it is not empty.
func (cv *commentValidator) contentRequired(comment *domain.Comment) error {
	comment.Content = strings.TrimSpace(comment.Content)
	if comment.Content == "" {
		return errs.Invalid("content", "Comment content must not be empty.")
	}
	return nil
}

// contentMaxLength makes sure that the content does not exceed domain.CommentMaxLength characters.
func (cv *commentValidator) contentMaxLength(comment *domain.Comment) error {
	if utf8.RuneCountInString(comment.Content) > domain.CommentMaxLength {
		return errs.Invalid("content", "Comment content max length is %d characters.", domain.CommentMaxLength)
	}
	return nil
}

// article looks up the article a comment belongs to.
func (cg *commentGorm) article(ctx context.Context, newsID int) (*domain.Article, error) {
	var article domain.Article
	err := cg.db.WithContext(ctx).
		Select("id", "author_id", "status").
		First(&article, "id = ?", newsID).Error
	if err != nil {
		return nil, lookupErr(err, "article")
	}
	return &article, nil
}

// approvedArticle is article, but anything other than APPROVED is ENOTFOUND.
func (cg *commentGorm) approvedArticle(ctx context.Context, newsID int) (*domain.Article, error) {
	article, err := cg.article(ctx, newsID)
	if err != nil {
		return nil, err
	}
	if article.Status != domain.StatusApproved {
		return nil, errs.Errorf(errs.ENOTFOUND, "The article does not exist.")
	}
	return article, nil
}

// ByID retrieves a single Comment with its author.
func (cg *commentGorm) ByID(ctx context.Context, id int) (*domain.Comment, error) {
	var comment domain.Comment
	err := cg.db.WithContext(ctx).
		Preload("User").
		First(&comment, "id = ?", id).Error
	if err != nil {
		return nil, lookupErr(err, "comment")
	}
	return &comment, nil
}

// ByNewsID returns one page of an article's comments and the total count.
func (cg *commentGorm) ByNewsID(ctx context.Context, newsID int, page query.Page) ([]domain.Comment, int64, error) {
	var total int64
	err := cg.db.WithContext(ctx).
		Model(&domain.Comment{}).
		Where("news_id = ?", newsID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	var comments []domain.Comment
	err = cg.db.WithContext(ctx).
		Where("news_id = ?", newsID).
		Scopes(query.Newest, page.Paginate).
		Preload("User").
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// Create stores the data from the Comment object in a new database record.
func (cg *commentGorm) Create(ctx context.Context, comment *domain.Comment) error {
	return cg.db.WithContext(ctx).Omit("User").Create(comment).Error
}

// Update saves a comment's content.
func (cg *commentGorm) Update(ctx context.Context, comment *domain.Comment) error {
	return cg.db.WithContext(ctx).
		Model(comment).
		Select("content").
		Updates(comment).Error
}

// Delete permanently deletes the comment.
func (cg *commentGorm) Delete(ctx context.Context, comment *domain.Comment) error {
	return cg.db.WithContext(ctx).Delete(&domain.Comment{}, comment.ID).Error
}
