package helpers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// IdempotencyKeyHeader carries the client key on every mutating request.
const IdempotencyKeyHeader = "X-Idempotency-Key"

// GetIdempotencyKey returns the trimmed header value. Validation of the key
// happens in the command path so every caller gets the same rules.
func GetIdempotencyKey(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get(IdempotencyKeyHeader))
}

// ParseUUIDParam parses the named path parameter.
func ParseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// GetPagination reads limit and offset query params, defaulting to 20 and 0.
func GetPagination(c echo.Context) (limit, offset int) {
	limit = 20
	if l := c.QueryParam("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
