package quill

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/quill/blog"
	"github.com/eringen/quill/markdown"
)

// pageWriter keeps the first write error and skips every write after it.
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

func (p *pageWriter) write(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *pageWriter) render(ctx context.Context, cmp templ.Component) {
	if p.err == nil {
		p.err = cmp.Render(ctx, p.w)
	}
}

func layout(cfg SiteConfig, title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pageTitle := cfg.Name
		if title != "" {
			pageTitle = title + " | " + cfg.Name
		}
		pw := &pageWriter{w: w}
		pw.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>%s</title><link rel="alternate" type="application/rss+xml" href="/feed.xml"></head>`+
			`<body><header><a href="/">%s</a></header><main>`,
			templ.EscapeString(pageTitle), templ.EscapeString(cfg.Name))
		pw.render(ctx, body)
		pw.write(`</main></body></html>`)
		return pw.err
	})
}

// HomePage lists a page of published posts.
func HomePage(cfg SiteConfig, res blog.ListResponse) templ.Component {
	return layout(cfg, "", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}
		if len(res.Posts) == 0 {
			pw.write(`<p>No posts yet.</p>`)
			return pw.err
		}
		pw.write(`<ul class="posts">`)
		for _, p := range res.Posts {
			pw.printf(`<li><a href="%s">%s</a> <time datetime="%s">%s</time><p>%s</p></li>`,
				templ.EscapeString("/blog/"+p.Slug+"/"), templ.EscapeString(p.Title),
				p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), p.CreatedAt.Format("January 2, 2006"),
				templ.EscapeString(postSummary(p)))
		}
		pw.write(`</ul><nav>`)
		pg := res.Pagination
		if pg.Page > 1 {
			pw.printf(`<a rel="prev" href="/?page=%d">Newer</a> `, pg.Page-1)
		}
		if pg.Page < pg.TotalPages {
			pw.printf(`<a rel="next" href="/?page=%d">Older</a>`, pg.Page+1)
		}
		pw.write(`</nav>`)
		return pw.err
	}))
}

// PostPage renders a single post with its markdown content.
func PostPage(cfg SiteConfig, post blog.BlogPost, author string) templ.Component {
	return layout(cfg, post.Title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}
		pw.printf(`<article><header><h1>%s</h1><time datetime="%s">%s</time>`,
			templ.EscapeString(post.Title),
			post.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), post.CreatedAt.Format("January 2, 2006"))
		if author != "" {
			pw.printf(` &middot; By %s`, templ.EscapeString(author))
		}
		pw.write(`</header><div class="prose">`)
		pw.render(ctx, markdown.Markdown(post.Content))
		pw.write(`</div></article>`)
		return pw.err
	}))
}

// NotFoundPage is rendered for unknown pages and unpublished posts.
func NotFoundPage(cfg SiteConfig) templ.Component {
	return layout(cfg, "Not found", templ.Raw(`<h1>Page not found</h1><p><a href="/">Back to the blog</a></p>`))
}

// ServerErrorPage is rendered for 5xx failures on HTML routes.
func ServerErrorPage(cfg SiteConfig) templ.Component {
	return layout(cfg, "Error", templ.Raw(`<h1>Something went wrong</h1><p>Please try again later.</p>`))
}
