package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/pier11/marina-map/internal/repository"
	"github.com/pier11/marina-map/internal/service"
	"github.com/pier11/marina-map/internal/validate"
)

// dbTimeout bounds the store work of a single request.
const dbTimeout = 5 * time.Second

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

type message struct {
	Message string `json:"message"`
}

// normalizer is implemented by request bodies that trim and case-fold
// their fields before validation.
type normalizer interface {
	Normalize()
}

func invalid(detail string) error {
	return &service.Error{Kind: service.ErrValidation, Detail: detail}
}

// bindBody decodes the request into v, normalizes it, and runs the echo
// validator. Every failure is a 422.
func bindBody(c echo.Context, v any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if msg, ok := he.Message.(string); ok {
				return invalid(msg)
			}
		}
		return invalid("Invalid request body")
	}
	if n, ok := v.(normalizer); ok {
		n.Normalize()
	}
	if err := c.Validate(v); err != nil {
		var ve *validate.Error
		if errors.As(err, &ve) {
			return invalid(ve.Detail)
		}
		return invalid(err.Error())
	}
	return nil
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, invalid(name + ": must be a positive integer")
	}
	return id, nil
}

// pageParams reads skip and limit. Limits above the maximum are clamped;
// a negative skip or a limit below 1 is rejected.
func pageParams(c echo.Context) (repository.Page, error) {
	page := repository.Page{Skip: 0, Limit: repository.DefaultLimit}
	if raw := c.QueryParam("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return page, invalid("skip: must be greater than or equal to 0")
		}
		page.Skip = n
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, invalid("limit: must be greater than or equal to 1")
		}
		page.Limit = min(n, repository.MaxLimit)
	}
	return page, nil
}

// boolParam parses an optional boolean query parameter.
func boolParam(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, invalid(name + ": value could not be parsed to a boolean")
	}
	return &v, nil
}

// statusOf maps service error kinds to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders every error as {"detail": "..."}. Domain errors
// keep their message; unexpected errors are logged with the request id
// and hidden behind a generic 500.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		detail := "Internal server error"
		var (
			se *service.Error
			he *echo.HTTPError
		)
		switch {
		case errors.As(err, &se):
			status, detail = statusOf(se), se.Detail
		case errors.As(err, &he):
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				detail = msg
			} else {
				detail = http.StatusText(he.Code)
			}
		}

		if status >= http.StatusInternalServerError {
			log.Error("unhandled error",
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
		}
		if status == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, map[string]string{"detail": detail})
		}
		if werr != nil {
			log.Warn("write error response failed", zap.Error(werr))
		}
	}
}
