package crud

import (
	"gorm.io/gorm"

	"greenmag/access"
)

// A ServicesConfig is any function that takes in a pointer to a Services
// object and returns an error. It wraps the constructor of a crud service,
// so main.go can pick the services it needs using functional options.
type ServicesConfig func(*Services) error

// Services is a container object holding pointers to all the crud services.
// They share the database connection and the access evaluator provided by Services.
type Services struct {
	db      *gorm.DB
	access  *access.Evaluator
	User    *UserService
	Article *ArticleService
	Comment *CommentService
	Like    *LikeService
	Stats   *StatsService
}

// NewServices returns a new Services object, containing any crud services
// it's told to create by one of the passed in ServicesConfig functions.
func NewServices(db *gorm.DB, cfgs ...ServicesConfig) (*Services, error) {
	evaluator, err := access.NewEvaluator()
	if err != nil {
		return nil, err
	}
	s := Services{
		db:     db,
		access: evaluator,
	}
	for _, cfg := range cfgs {
		if err := cfg(&s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// WithUser wraps the constructor of UserService, NewUserService.
func WithUser(pepper string) ServicesConfig {
	return func(s *Services) error {
		s.User = NewUserService(s.db, pepper)
		return nil
	}
}

// WithArticle wraps the constructor of ArticleService, NewArticleService.
func WithArticle() ServicesConfig {
	return func(s *Services) error {
		s.Article = NewArticleService(s.db, s.access)
		return nil
	}
}

// WithComment wraps the constructor of CommentService, NewCommentService.
func WithComment() ServicesConfig {
	return func(s *Services) error {
		s.Comment = NewCommentService(s.db, s.access)
		return nil
	}
}

// WithLike wraps the constructor of LikeService, NewLikeService.
func WithLike() ServicesConfig {
	return func(s *Services) error {
		s.Like = NewLikeService(s.db, s.access)
		return nil
	}
}

// WithStats wraps the constructor of StatsService, NewStatsService.
func WithStats() ServicesConfig {
	return func(s *Services) error {
		s.Stats = NewStatsService(s.db)
		return nil
	}
}

// WithAll creates every crud service.
func WithAll(pepper string) []ServicesConfig {
	return []ServicesConfig{
		WithUser(pepper),
		WithArticle(),
		WithComment(),
		WithLike(),
		WithStats(),
	}
}
