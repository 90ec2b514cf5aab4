// Package query composes the visibility-filtered listing queries used by the
// article and comment listings.
package query

import (
	"math"
	"strings"

	"gorm.io/gorm"

	"greenmag/domain"
	"greenmag/errs"
)

const (
	// DefaultArticleLimit is the page size of article listings when none is given.
	DefaultArticleLimit = 10
	// DefaultCommentLimit is the page size of comment listings when none is given.
	DefaultCommentLimit = 20
	// MaxLimit caps any requested page size.
	MaxLimit = 100
)

// maxSkip is the largest offset a page may start at.
const maxSkip = math.MaxInt32

// Scope is a reusable gorm query modifier.
type Scope = func(db *gorm.DB) *gorm.DB

// Page is a validated, 1-indexed pagination request.
type Page struct {
	Page  int
	Limit int
}

// NewPage validates page and limit. Zero values fall back to page 1 and
// defaultLimit, limits above MaxLimit are clamped.
func NewPage(page, limit, defaultLimit int) (Page, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultLimit
	}
	if page < 1 {
		return Page{}, errs.Invalid("page", "Page must be a positive integer.")
	}
	if limit < 1 {
		return Page{}, errs.Invalid("limit", "Limit must be a positive integer.")
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page > (maxSkip/limit)+1 {
		return Page{}, errs.Invalid("page", "Page is out of range.")
	}
	return Page{Page: page, Limit: limit}, nil
}

// Skip is the number of rows before this page.
func (p Page) Skip() int {
	return (p.Page - 1) * p.Limit
}

// Pagination describes this page given the total number of matching rows.
func (p Page) Pagination(total int64) domain.Pagination {
	pages := 0
	if total > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return domain.Pagination{
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: pages,
	}
}

// Paginate applies the page's offset and limit.
func (p Page) Paginate(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Skip()).Limit(p.Limit)
}

// Newest orders by creation time descending. The id breaks ties, so repeated
// calls over unchanged data page identically.
func Newest(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

// Visibility restricts articles to those ident may list: APPROVED ones for
// anonymous callers, APPROVED or own ones for everybody else but admins.
func Visibility(ident *domain.Identity) Scope {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case ident == nil:
			return db.Where("status = ?", domain.StatusApproved)
		case ident.IsAdmin():
			return db
		default:
			return db.Where("(status = ? OR author_id = ?)", domain.StatusApproved, ident.UserID)
		}
	}
}

// Articles composes the visibility predicate with the optional filters. Every
// filter is a conjunction, so a filter can only narrow what the caller sees.
func Articles(ident *domain.Identity, f domain.ArticleFilter) (Scope, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, errs.Invalid("status", "Status %q is not a valid status.", *f.Status)
	}
	visible := Visibility(ident)
	return func(db *gorm.DB) *gorm.DB {
		db = visible(db)
		if f.Status != nil {
			db = db.Where("status = ?", *f.Status)
		}
		if f.Category != nil && *f.Category != "" {
			db = db.Where("category = ?", *f.Category)
		}
		if f.Search != nil {
			if term := strings.TrimSpace(*f.Search); term != "" {
				pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
				db = db.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\')`, pattern, pattern)
			}
		}
		return db
	}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
