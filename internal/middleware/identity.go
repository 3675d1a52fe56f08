package middleware

// identity.go keeps the context keys written by JWTAuth and the accessors
// handlers use to read them back.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/utils"
)

const (
	ctxUser   = "user"
	ctxClaims = "claims"
	ctxUserID = "user_id"
	ctxRole   = "role"
)

func setIdentity(c echo.Context, u model.User, claims *utils.SessionClaims) {
	c.Set(ctxUser, u)
	c.Set(ctxClaims, claims)
	c.Set(ctxUserID, u.ID)
	c.Set(ctxRole, u.Role)
}

// CurrentUser returns the authenticated user.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(ctxUser).(model.User)
	return u, ok
}

// UserID returns the authenticated user's id, 0 for guests.
func UserID(c echo.Context) uint64 {
	id, _ := c.Get(ctxUserID).(uint64)
	return id
}

// Claims returns the verified session claims, nil for guests.
func Claims(c echo.Context) *utils.SessionClaims {
	cl, _ := c.Get(ctxClaims).(*utils.SessionClaims)
	return cl
}

// userLabel identifies the caller in request logs. It returns "guest"
// when nobody is authenticated.
func userLabel(c echo.Context) string {
	if id := UserID(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "guest"
}
