package middleware

// identity.go holds the helpers that read the identity JWTAuth stored in
// the Echo context.  Handlers use UserID and HasRole; the rate limiter
// uses rateSubject to key buckets per caller.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated caller's id.  ok is false when the
// request did not pass through JWTAuth.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id > 0
}

// Role returns the authenticated caller's upper-cased role or "".
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// HasRole reports whether the caller holds role.
func HasRole(c echo.Context, role string) bool {
	return Role(c) == role
}

// rateSubject identifies the caller for rate limiting; anonymous callers
// share the "anon" bucket.
func rateSubject(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}

func parseSubject(v interface{}) (uint64, bool) {
	switch t := v.(type) {
	case float64:
		if t <= 0 || t != float64(uint64(t)) {
			return 0, false
		}
		return uint64(t), true
	case string:
		n, err := strconv.ParseUint(t, 10, 64)
		return n, err == nil && n > 0
	}
	return 0, false
}
