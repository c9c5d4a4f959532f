package quill

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/quill/blog"
)

var errDiskFull = errors.New("disk full")

// failOnceWriter fails write number n+1 and accepts every other write.
type failOnceWriter struct {
	n      int
	writes int
	buf    strings.Builder
}

func (w *failOnceWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes == w.n+1 {
		return 0, errDiskFull
	}
	return w.buf.Write(p)
}

func testPosts() blog.ListResponse {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return blog.ListResponse{
		Posts: []blog.BlogPost{
			{ID: 2, Title: "Second", Slug: "second", Content: "b", Published: true, CreatedAt: created},
			{ID: 1, Title: "First <draft>", Slug: "first", Content: "a", Published: true, CreatedAt: created},
		},
		Pagination: blog.Pagination{Page: 2, Limit: 2, TotalPages: 3, TotalCount: 6},
	}
}

func TestPagesReportMidwayWriteErrors(t *testing.T) {
	cfg := SiteConfig{Name: "Test Blog"}
	post := testPosts().Posts[0]

	for name, page := range map[string]func() error{
		"home": func() error {
			return HomePage(cfg, testPosts()).Render(context.Background(), &failOnceWriter{n: 2})
		},
		"post": func() error {
			return PostPage(cfg, post, "Ada").Render(context.Background(), &failOnceWriter{n: 2})
		},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, page(), errDiskFull)
		})
	}
}

func TestHomePageEscapesAndPaginates(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, HomePage(SiteConfig{Name: "Test Blog"}, testPosts()).Render(context.Background(), &sb))

	out := sb.String()
	assert.Contains(t, out, "First &lt;draft&gt;")
	assert.Contains(t, out, `href="/?page=1"`)
	assert.Contains(t, out, `href="/?page=3"`)
	assert.True(t, strings.HasSuffix(out, "</main></body></html>"))
}
