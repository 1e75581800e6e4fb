package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool                 `json:"success"`
	Data    any                  `json:"data,omitempty"`
	Errors  []result.ErrorDetail `json:"errors,omitempty"`
}

func statusFor(kind result.Kind) int {
	switch kind {
	case result.KindNotFound:
		return http.StatusNotFound
	case result.KindValidation:
		return http.StatusBadRequest
	case result.KindInsufficientStock:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respond renders res, using okStatus on success.
func respond[T any](c echo.Context, okStatus int, res result.Result[T]) error {
	if !res.IsSuccess() {
		return c.JSON(statusFor(res.FirstKind()), envelope{Success: false, Errors: publicDetails(res.Errors)})
	}
	return c.JSON(okStatus, envelope{Success: true, Data: res.Value})
}

// publicDetails hides store and driver messages behind a generic text. They
// are logged where they occur.
func publicDetails(details []result.ErrorDetail) []result.ErrorDetail {
	out := make([]result.ErrorDetail, len(details))
	for i, d := range details {
		if d.Kind == result.KindException {
			d.Message = "internal error"
		}
		out[i] = d
	}
	return out
}

func badRequest(source, message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, result.ErrorDetail{Kind: result.KindValidation, Message: message, Source: source})
}

// envelopeErrorHandler renders echo errors (bad input, unknown routes,
// panics) in the same envelope as service results.
func envelopeErrorHandler(logger *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		detail := result.ErrorDetail{Kind: result.KindException, Message: http.StatusText(code)}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			switch m := he.Message.(type) {
			case result.ErrorDetail:
				detail = m
			case string:
				detail = result.ErrorDetail{Kind: kindForStatus(code), Message: m}
			default:
				detail = result.ErrorDetail{Kind: kindForStatus(code), Message: http.StatusText(code)}
			}
		} else if logger != nil {
			logger.WithFields(logrus.Fields{"method": c.Request().Method, "path": c.Path()}).WithError(err).Error("unhandled error")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, envelope{Success: false, Errors: []result.ErrorDetail{detail}})
		}
		if werr != nil && logger != nil {
			logger.WithError(werr).Warn("failed to write error response")
		}
	}
}

func kindForStatus(code int) result.Kind {
	switch {
	case code == http.StatusNotFound:
		return result.KindNotFound
	case code >= 400 && code < 500:
		return result.KindValidation
	default:
		return result.KindException
	}
}
