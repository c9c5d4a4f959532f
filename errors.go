package quill

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/eringen/quill/blog"
)

// errorBody is the JSON shape of every API failure.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// apiError maps err to a status code and a body safe to show the caller.
// Unknown errors become a bare 500; their detail is only logged.
func apiError(err error) (int, errorBody) {
	var verr *blog.ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorBody{Error: "Validation failed", Fields: verr.Fields}
	case errors.Is(err, blog.ErrUnauthorized):
		return http.StatusUnauthorized, errorBody{Error: "Unauthorized"}
	case errors.Is(err, blog.ErrForbidden):
		return http.StatusForbidden, errorBody{Error: "Forbidden"}
	case errors.Is(err, blog.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "Blog post not found"}
	case errors.Is(err, blog.ErrConflict):
		return http.StatusBadRequest, errorBody{Error: "Slug already exists"}
	case errors.As(err, &he) && he.Code < http.StatusInternalServerError:
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return he.Code, errorBody{Error: msg}
	default:
		return http.StatusInternalServerError, errorBody{Error: "Internal server error"}
	}
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/") || path == "/healthz"
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	req := c.Request()
	reqID := c.Response().Header().Get(echo.HeaderXRequestID)

	if isAPIPath(req.URL.Path) {
		code, body := apiError(err)
		if code >= http.StatusInternalServerError {
			log.Error().Err(err).Str("request_id", reqID).Str("uri", req.RequestURI).Msg("server error")
		}
		if req.Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			log.Error().Err(err).Str("request_id", reqID).Msg("write error response")
		}
		return
	}

	he, ok := err.(*echo.HTTPError)
	if errors.Is(err, blog.ErrNotFound) || (ok && he.Code == http.StatusNotFound) {
		_ = RenderStatus(c, http.StatusNotFound, NotFoundPage(a.Config))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", reqID).Str("uri", req.RequestURI).Msg("server error")
		_ = RenderStatus(c, code, ServerErrorPage(a.Config))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
