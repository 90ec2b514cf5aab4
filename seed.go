package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"greenmag/crud"
	"greenmag/domain"
	"greenmag/errs"
	"greenmag/log"
	"greenmag/slug"
)

// seedPassword is the password of every seeded account.
const seedPassword = "password123"

type seedAccount struct {
	name  string
	email string
	role  domain.Role
}

var seedAccounts = []seedAccount{
	{"Admin User", "admin@greenmag.com", domain.RoleAdmin},
	{"Editor User", "editor@greenmag.com", domain.RoleEditor},
	{"Normal User", "user@greenmag.com", domain.RoleUser},
}

type seedArticle struct {
	author    string
	title     string
	content   string
	category  string
	thumbnail string
	approve   bool
}

var seedArticles = []seedArticle{
	{
		author:    "admin@greenmag.com",
		title:     "Breaking: Local Community Garden Wins National Award",
		content:   "The Green Valley Community Garden has been recognized as the best urban garden project in the country.",
		category:  "Lifestyle",
		thumbnail: "https://images.unsplash.com/photo-1585829365295-ab7cd400c167?w=800",
	},
	{
		author:    "editor@greenmag.com",
		title:     "New Technology Transforms Waste Management in Our City",
		content:   "Our city is implementing waste sorting technology that promises to raise recycling rates by 40% within two years.",
		category:  "Technology",
		thumbnail: "https://images.unsplash.com/photo-1532996122724-e3c354a0b15b?w=800",
		approve:   true,
	},
	{
		author:    "editor@greenmag.com",
		title:     "Local Restaurant Chain Launches Zero-Waste Initiative",
		content:   "GreenEats announced a zero-waste initiative across all of its locations starting next month.",
		category:  "Food",
		thumbnail: "https://images.unsplash.com/photo-1414235077428-338989a2e8c0?w=800",
	},
}

// Seed creates demo accounts and articles. Running it again changes nothing:
// accounts are matched by email and articles by the slug of their title.
func Seed(ctx context.Context, db *gorm.DB, services *crud.Services) error {
	idents := make(map[string]*domain.Identity, len(seedAccounts))
	for _, a := range seedAccounts {
		user := domain.User{Name: a.name, Email: a.email, Password: seedPassword, Role: a.role}
		err := services.User.Register(ctx, &user)
		if errs.ErrorCode(err) == errs.ECONFLICT {
			if err := db.WithContext(ctx).Where("email = ?", a.email).First(&user).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else {
			log.Log.WithFields(logrus.Fields{"email": a.email, "role": a.role}).Info("seeded account")
		}
		idents[a.email] = &domain.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}
	}

	admin := idents["admin@greenmag.com"]
	for _, a := range seedArticles {
		_, err := services.Article.BySlug(ctx, admin, slug.Make(a.title))
		if err == nil {
			continue
		}
		if errs.ErrorCode(err) != errs.ENOTFOUND {
			return err
		}
		category, thumbnail := a.category, a.thumbnail
		article, err := services.Article.Create(ctx, idents[a.author], domain.ArticleInput{
			Title:     a.title,
			Content:   a.content,
			Category:  &category,
			Thumbnail: &thumbnail,
		})
		if err != nil {
			return err
		}
		if a.approve {
			if _, err := services.Article.Moderate(ctx, admin, article.ID, domain.StatusApproved); err != nil {
				return err
			}
		}
		log.Log.WithField("slug", article.Slug).Info("seeded article")
	}
	return nil
}
