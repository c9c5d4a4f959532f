package quill

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/quill/blog"
)

// Each RPC handler decodes its payload, resolves the caller and hands both
// to blog.Service. Errors flow to httpErrorHandler for translation.

func (a *App) handleGetAllBlogs(c echo.Context) error {
	var req blog.ListRequest
	if err := blog.Decode(c.Request().Body, &req); err != nil {
		return err
	}
	res, err := a.Service.List(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (a *App) handleGetBlogBySlug(c echo.Context) error {
	var req blog.SlugRequest
	if err := blog.Decode(c.Request().Body, &req); err != nil {
		return err
	}
	post, err := a.Service.GetBySlug(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleCreateBlog(c echo.Context) error {
	ident := a.identity.Resolve(c)
	var req blog.CreateRequest
	if err := a.decodeGated(c, ident, &req); err != nil {
		return err
	}
	post, err := a.Service.Create(c.Request().Context(), ident, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleUpdateBlog(c echo.Context) error {
	ident := a.identity.Resolve(c)
	var req blog.UpdateRequest
	if err := a.decodeGated(c, ident, &req); err != nil {
		return err
	}
	post, err := a.Service.Update(c.Request().Context(), ident, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleDeleteBlog(c echo.Context) error {
	ident := a.identity.Resolve(c)
	var req blog.DeleteRequest
	if err := a.decodeGated(c, ident, &req); err != nil {
		return err
	}
	res, err := a.Service.Delete(c.Request().Context(), ident, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// decodeGated decodes a mutating payload. When the body is malformed the
// authorization gate still answers first, so an anonymous caller sees 401
// rather than a validation error.
func (a *App) decodeGated(c echo.Context, ident *blog.Identity, dst any) error {
	decodeErr := blog.Decode(c.Request().Body, dst)
	if decodeErr == nil {
		return nil
	}
	if _, err := a.Service.Authorize(c.Request().Context(), ident); err != nil {
		return err
	}
	return decodeErr
}
