package quill

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/quill/blog"
	"github.com/eringen/quill/store"
)

const (
	adminEmail    = "admin@example.com"
	readerEmail   = "reader@example.com"
	adminPassword = "correct horse battery staple"
)

func newTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "blog.db"))
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	name := "Ada"
	ctx := t.Context()
	_, err = st.CreateUser(ctx, store.NewUser{Email: adminEmail, Name: &name, Role: blog.RoleAdmin, PasswordHash: string(hash)})
	require.NoError(t, err)
	_, err = st.CreateUser(ctx, store.NewUser{Email: readerEmail, Role: "user", PasswordHash: string(hash)})
	require.NoError(t, err)

	a := NewWithStore(SiteConfig{
		Name:          "Test Blog",
		URL:           "https://blog.example.com",
		SessionSecret: "0123456789abcdef0123456789abcdef",
		JWTSecret:     "jwt-test-secret",
	}, st, opts...)
	t.Cleanup(func() { a.Close() })
	return a
}

type reqOption func(*http.Request)

func withBearer(token string) reqOption {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+token) }
}

func withCookies(cookies []*http.Cookie) reqOption {
	return func(r *http.Request) {
		for _, c := range cookies {
			r.AddCookie(c)
		}
	}
}

func do(a *App, method, path, body string, opts ...reqOption) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func rpc(a *App, op, body string, opts ...reqOption) *httptest.ResponseRecorder {
	return do(a, http.MethodPost, "/api/rpc/"+op, body, opts...)
}

func token(t *testing.T, a *App, email string) string {
	t.Helper()
	tok, err := a.Tokens().Issue(email, "", time.Hour)
	require.NoError(t, err)
	return tok
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createPost(t *testing.T, a *App, slug string, published bool) blog.BlogPost {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"title":     "Post " + slug,
		"slug":      slug,
		"content":   "Some **bold** text about " + slug,
		"published": published,
	})
	require.NoError(t, err)
	rec := rpc(a, "createBlog", string(body), withBearer(token(t, a, adminEmail)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[blog.BlogPost](t, rec)
}

func TestRPCCreateStatusMapping(t *testing.T) {
	a := newTestApp(t)
	valid := `{"title":"Hello","slug":"hello","content":"# Hi"}`

	rec := rpc(a, "createBlog", valid)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", decodeBody[errorBody](t, rec).Error)

	rec = rpc(a, "createBlog", valid, withBearer(token(t, a, readerEmail)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", decodeBody[errorBody](t, rec).Error)

	rec = rpc(a, "createBlog", `{"title":"","slug":"Has Spaces","content":""}`, withBearer(token(t, a, adminEmail)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	eb := decodeBody[errorBody](t, rec)
	assert.Equal(t, "Validation failed", eb.Error)
	assert.Contains(t, eb.Fields, "title")
	assert.Contains(t, eb.Fields, "slug")
	assert.Contains(t, eb.Fields, "content")

	rec = rpc(a, "createBlog", valid, withBearer(token(t, a, adminEmail)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	post := decodeBody[blog.BlogPost](t, rec)
	assert.Equal(t, "hello", post.Slug)
	assert.False(t, post.Published)
	assert.Nil(t, post.Excerpt)

	rec = rpc(a, "createBlog", valid, withBearer(token(t, a, adminEmail)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Slug already exists", decodeBody[errorBody](t, rec).Error)
}

func TestRPCPostJSONShape(t *testing.T) {
	a := newTestApp(t)
	createPost(t, a, "shape", true)

	rec := rpc(a, "getBlogBySlug", `{"slug":"shape"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	raw := decodeBody[map[string]any](t, rec)
	for _, key := range []string{"id", "title", "slug", "excerpt", "content", "published", "authorId", "createdAt", "updatedAt"} {
		assert.Contains(t, raw, key)
	}
	assert.Nil(t, raw["excerpt"])
}

func TestRPCMalformedBody(t *testing.T) {
	a := newTestApp(t)

	rec := rpc(a, "createBlog", `{"title":`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "the gate answers before the body is inspected")

	rec = rpc(a, "createBlog", `{"title":`, withBearer(token(t, a, adminEmail)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorBody](t, rec).Fields, "body")

	rec = rpc(a, "getBlogBySlug", `{"slug":"a"} trailing-garbage`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorBody](t, rec).Fields, "body")

	rec = rpc(a, "updateBlog", `{"id":"seven"}`, withBearer(token(t, a, adminEmail)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must be a whole number", decodeBody[errorBody](t, rec).Fields["id"])
}

func TestRPCRequiresJSONContentType(t *testing.T) {
	a := newTestApp(t)

	rec := do(a, http.MethodPost, "/api/rpc/createBlog", "title=x", func(r *http.Request) {
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	})
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRPCUnknownOperation(t *testing.T) {
	a := newTestApp(t)

	rec := rpc(a, "dropTables", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON))
}

func TestRPCGetAllBlogs(t *testing.T) {
	a := newTestApp(t)
	for _, slug := range []string{"one", "two", "three"} {
		createPost(t, a, slug, true)
	}
	createPost(t, a, "draft", false)

	rec := rpc(a, "getAllBlogs", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeBody[blog.ListResponse](t, rec)
	assert.Equal(t, blog.Pagination{Page: 1, Limit: 10, TotalPages: 1, TotalCount: 3}, res.Pagination)
	require.Len(t, res.Posts, 3)
	assert.Equal(t, "three", res.Posts[0].Slug)

	rec = rpc(a, "getAllBlogs", `{"page":2,"limit":2,"onlyPublished":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeBody[blog.ListResponse](t, rec)
	assert.Equal(t, blog.Pagination{Page: 2, Limit: 2, TotalPages: 2, TotalCount: 4}, res.Pagination)
	assert.Len(t, res.Posts, 2)

	rec = rpc(a, "getAllBlogs", `{"limit":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorBody](t, rec).Fields, "limit")
}

func TestRPCEmptyListSerializesArray(t *testing.T) {
	a := newTestApp(t)

	rec := rpc(a, "getAllBlogs", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"posts":[]`)
}

func TestRPCUpdateAndDelete(t *testing.T) {
	a := newTestApp(t)
	p := createPost(t, a, "editable", true)
	createPost(t, a, "taken", true)
	admin := withBearer(token(t, a, adminEmail))

	rec := rpc(a, "updateBlog", `{"id":9999,"title":"x"}`, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Blog post not found", decodeBody[errorBody](t, rec).Error)

	rec = rpc(a, "updateBlog", `{"id":`+strconv.FormatInt(p.ID, 10)+`,"slug":"taken"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Slug already exists", decodeBody[errorBody](t, rec).Error)

	rec = rpc(a, "updateBlog", `{"id":`+strconv.FormatInt(p.ID, 10)+`,"slug":""}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorBody](t, rec).Fields, "slug")

	rec = rpc(a, "updateBlog", `{"id":`+strconv.FormatInt(p.ID, 10)+`,"title":"Edited"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[blog.BlogPost](t, rec)
	assert.Equal(t, "Edited", updated.Title)
	assert.Equal(t, p.Content, updated.Content)

	rec = rpc(a, "deleteBlog", `{"id":`+strconv.FormatInt(p.ID, 10)+`}`, withBearer(token(t, a, readerEmail)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = rpc(a, "deleteBlog", `{"id":`+strconv.FormatInt(p.ID, 10)+`}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = rpc(a, "deleteBlog", `{"id":`+strconv.FormatInt(p.ID, 10)+`}`, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = rpc(a, "getBlogBySlug", `{"slug":"editable"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRPCInternalErrorHidesCause(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.Store.Close())

	rec := rpc(a, "getAllBlogs", `{}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestLoginSessionAuthorizesMutations(t *testing.T) {
	a := newTestApp(t)

	rec := do(a, http.MethodPost, "/api/auth/login", `{"email":"admin@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decodeBody[errorBody](t, rec).Error)

	rec = do(a, http.MethodPost, "/api/auth/login", `{"email":"ADMIN@example.com","password":"`+adminPassword+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"email":"admin@example.com","role":"admin"}`, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, sessionName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rec = rpc(a, "createBlog", `{"title":"Via session","slug":"via-session","content":"x"}`, withCookies(cookies))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(a, http.MethodPost, "/api/auth/logout", "", withCookies(cookies))
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.Negative(t, cleared[0].MaxAge)

	rec = rpc(a, "createBlog", `{"title":"After","slug":"after","content":"x"}`, withCookies(cleared))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginNonAdminSessionIsForbidden(t *testing.T) {
	a := newTestApp(t)

	rec := do(a, http.MethodPost, "/api/auth/login", `{"email":"reader@example.com","password":"`+adminPassword+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = rpc(a, "createBlog", `{"title":"Nope","slug":"nope","content":"x"}`, withCookies(rec.Result().Cookies()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	a := newTestApp(t)
	bad := `{"email":"admin@example.com","password":"nope"}`

	for i := 0; i < a.Config.LoginAttempts; i++ {
		rec := do(a, http.MethodPost, "/api/auth/login", bad)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := do(a, http.MethodPost, "/api/auth/login", `{"email":"admin@example.com","password":"`+adminPassword+`"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestBearerTokenRejectedWhenTampered(t *testing.T) {
	a := newTestApp(t)
	tok := token(t, a, adminEmail)

	rec := rpc(a, "createBlog", `{"title":"T","slug":"t","content":"x"}`, withBearer(tok+"x"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPostPage(t *testing.T) {
	a := newTestApp(t)
	createPost(t, a, "visible", true)
	createPost(t, a, "hidden", false)

	rec := do(a, http.MethodGet, "/blog/visible/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Post visible</h1>")
	assert.Contains(t, body, "<strong>bold</strong>")
	assert.Contains(t, body, "By Ada")

	rec = do(a, http.MethodGet, "/blog/hidden/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")

	rec = do(a, http.MethodGet, "/blog/visible", "")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/blog/visible/", rec.Header().Get("Location"))
}

func TestHomePage(t *testing.T) {
	a := newTestApp(t)
	createPost(t, a, "listed", true)
	createPost(t, a, "unlisted", false)

	rec := do(a, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/blog/listed/"`)
	assert.NotContains(t, rec.Body.String(), "unlisted")
}

func TestFeedAndSitemap(t *testing.T) {
	a := newTestApp(t)
	createPost(t, a, "in-feed", true)
	createPost(t, a, "not-in-feed", false)

	rec := do(a, http.MethodGet, "/feed.xml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/rss+xml")
	assert.Contains(t, rec.Body.String(), "<link>https://blog.example.com/blog/in-feed/</link>")
	assert.NotContains(t, rec.Body.String(), "not-in-feed")

	rec = do(a, http.MethodGet, "/sitemap.xml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<loc>https://blog.example.com/blog/in-feed/</loc>")
	assert.NotContains(t, rec.Body.String(), "not-in-feed")
}

func TestHealthz(t *testing.T) {
	a := newTestApp(t)

	rec := do(a, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestCustomRoutes(t *testing.T) {
	a := newTestApp(t, WithCustomRoutes(func(a *App) {
		a.Echo.GET("/about/", func(c echo.Context) error {
			res, err := a.Service.List(c.Request().Context(), blog.ListRequest{})
			if err != nil {
				return err
			}
			return c.String(http.StatusOK, a.Config.Name+": "+strconv.Itoa(res.Pagination.TotalCount)+" posts")
		})
	}))
	createPost(t, a, "counted", true)

	rec := do(a, http.MethodGet, "/about/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Test Blog: 1 posts", rec.Body.String())
	assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))

	rec = do(a, http.MethodGet, "/about", "")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
}
