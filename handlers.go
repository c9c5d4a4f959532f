package quill

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/eringen/quill/blog"
)

// Limits for the generated feeds.
const (
	feedLimit    = 50
	sitemapLimit = 50000
)

func (a *App) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := a.Store.Ping(ctx); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleHome serves the paginated list of published posts.
func (a *App) handleHome(c echo.Context) error {
	page := 1
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	res, err := a.Service.List(c.Request().Context(), blog.ListRequest{Page: &page})
	if err != nil {
		return err
	}
	return Render(c, HomePage(a.Config, res))
}

// handlePost serves a published post as HTML. Drafts are not shown here even
// though getBlogBySlug returns them.
func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := a.Service.GetBySlug(ctx, blog.SlugRequest{Slug: c.Param("slug")})
	if err != nil {
		return err
	}
	if !post.Published {
		return blog.ErrNotFound
	}
	author := ""
	if u, err := a.Store.GetUserByID(ctx, post.AuthorID); err == nil {
		author = u.DisplayName()
	} else if !errors.Is(err, blog.ErrNotFound) {
		return err
	}
	return Render(c, PostPage(a.Config, post, author))
}

func (a *App) publishedPosts(ctx context.Context, limit int) ([]blog.BlogPost, error) {
	return a.Store.ListPosts(ctx, blog.ListFilter{Limit: limit, OnlyPublished: true})
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.publishedPosts(c.Request().Context(), feedLimit)
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.publishedPosts(c.Request().Context(), sitemapLimit)
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

// postSummary is the excerpt, or the first 160 characters of the content.
func postSummary(p blog.BlogPost) string {
	if p.Excerpt != nil && *p.Excerpt != "" {
		return *p.Excerpt
	}
	if utf8.RuneCountInString(p.Content) <= 160 {
		return p.Content
	}
	return string([]rune(p.Content)[:160])
}
