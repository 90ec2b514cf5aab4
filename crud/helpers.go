package crud

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"greenmag/domain"
	"greenmag/errs"
)

// lookupErr turns a failed single-row lookup into ENOTFOUND or a store failure.
func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.Errorf(errs.ENOTFOUND, "The %s does not exist.", what)
	}
	return errs.Internal(err)
}

// requireIdentity fails with EUNAUTHORIZED for anonymous callers.
func requireIdentity(ident *domain.Identity) error {
	if ident == nil {
		return errs.Errorf(errs.EUNAUTHORIZED, "You must be signed in to do that.")
	}
	return nil
}

// optional trims s and turns the empty string into nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// authorOf returns the public projection of u.
func authorOf(u *domain.User, withEmail bool) *domain.Author {
	if u == nil {
		return nil
	}
	a := &domain.Author{ID: u.ID, Name: u.Name}
	if withEmail {
		a.Email = u.Email
	}
	return a
}

func articleView(a *domain.Article, commentCount int) *domain.ArticleView {
	return &domain.ArticleView{
		Article:      *a,
		Author:       authorOf(a.Author, true),
		CommentCount: commentCount,
	}
}

func commentView(c *domain.Comment) *domain.CommentView {
	return &domain.CommentView{
		Comment: *c,
		User:    authorOf(c.User, false),
	}
}
