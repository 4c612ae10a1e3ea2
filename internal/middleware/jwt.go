package middleware // middleware holds the echo middleware shared by the API routes

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ops/internal/model"
	"github.com/iliyamo/event-ops/internal/utils"
)

// JWTAuth validates a Bearer access token and stores its subject and role
// in the context as "user_id" (decimal string) and "role".  Missing or bad
// tokens answer 401 with the standard error envelope.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, model.Error{Code: model.CodeUnauthorized, Message: "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, model.Error{Code: model.CodeUnauthorized, Message: "invalid token"})
			}
			c.Set("user_id", strconv.FormatUint(claims.UserID, 10))
			c.Set("role", claims.Role)
			return next(c)
		}
	}
}
