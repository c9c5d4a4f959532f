// Package quill is a small blog platform built with Go, Echo and SQLite.
// Readers browse published posts through a JSON RPC surface under /api/rpc;
// an administrator creates, edits and deletes posts through the same surface.
//
// The request-handling core lives in package blog. This package wires it to
// HTTP: session and token identity, error translation, middleware, and the
// public post page, RSS feed and sitemap.
package quill

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/eringen/quill/blog"
	"github.com/eringen/quill/store"
)

// App is the central quill application. It wires together the store, the
// blog service, identity resolution, handlers and middleware.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Store   *store.Store
	Service *blog.Service

	identity     IdentityResolver
	tokens       *TokenIssuer
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
}

// New opens the database at cfg.DatabasePath and builds a ready-to-serve App.
func New(cfg SiteConfig, opts ...Option) (*App, error) {
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("quill: init store: %w", err)
	}
	return NewWithStore(cfg, st, opts...), nil
}

// NewWithStore builds an App around an already opened store. The App takes
// ownership of st and closes it in Close.
func NewWithStore(cfg SiteConfig, st *store.Store, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:       cfg,
		Echo:         echo.New(),
		Store:        st,
		Service:      blog.NewService(st),
		loginLimiter: NewLoginLimiter(cfg.LoginAttempts, cfg.LoginWindow),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	resolvers := ChainResolver{SessionResolver{}}
	if cfg.JWTSecret != "" {
		a.tokens = NewTokenIssuer([]byte(cfg.JWTSecret))
		resolvers = append(resolvers, TokenResolver{Tokens: a.tokens})
	}
	a.identity = resolvers

	for _, opt := range opts {
		opt(a)
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return a
}

// Tokens returns the bearer token issuer, or nil when JWTSecret is unset.
func (a *App) Tokens() *TokenIssuer {
	return a.tokens
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/healthz", a.handleHealth)

	// Public pages
	e.GET("/", a.handleHome)
	e.GET("/blog/:slug/", a.handlePost)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)

	// Session management
	e.POST("/api/auth/login", a.handleLogin)
	e.POST("/api/auth/logout", handleLogout)

	// RPC endpoint set
	rpc := e.Group("/api/rpc")
	rpc.POST("/getAllBlogs", a.handleGetAllBlogs)
	rpc.POST("/getBlogBySlug", a.handleGetBlogBySlug)
	rpc.POST("/createBlog", a.handleCreateBlog)
	rpc.POST("/updateBlog", a.handleUpdateBlog)
	rpc.POST("/deleteBlog", a.handleDeleteBlog)
}

// Start listens on Config.Addr until the server is shut down.
func (a *App) Start() error {
	log.Info().Str("addr", a.Config.Addr).Msg("starting server")
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	a.loginLimiter.Stop()
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
