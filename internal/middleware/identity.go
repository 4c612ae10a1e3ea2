package middleware

import "github.com/labstack/echo/v4"

// currentUserID returns the user id stored by JWTAuth, or "anon" for
// unauthenticated requests.
func currentUserID(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok && s != "" {
		return s
	}
	return "anon"
}
