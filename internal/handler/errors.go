package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/conductor/internal/apperr"
)

// MsgInternal is the only message a client sees for an unexpected error.
const MsgInternal = "Internal server error"

// ErrorHandler renders every error returned by a handler or middleware.
// Unexpected errors are logged with their type; the client gets the type
// name only.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, body := render(err)
		if code == http.StatusInternalServerError {
			log.Error("unhandled error",
				zap.Error(err),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, body)
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}

func render(err error) (int, map[string]interface{}) {
	if e, ok := apperr.From(err); ok {
		switch e.Kind {
		case apperr.Validation:
			return http.StatusUnprocessableEntity, map[string]interface{}{"error": e.Message, "details": e.Details}
		case apperr.Unexpected:
			return internal(e.Err)
		}
		return e.Kind.Status(), map[string]interface{}{"error": e.Message}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		return he.Code, map[string]interface{}{"error": msg}
	}
	return internal(err)
}

func internal(err error) (int, map[string]interface{}) {
	typ := "error"
	if err != nil {
		typ = fmt.Sprintf("%T", err)
	}
	return http.StatusInternalServerError, map[string]interface{}{"error": MsgInternal, "type": typ}
}
