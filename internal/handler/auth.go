package handler

import (
	"net/http" // HTTP status codes and cookies
	"strings"  // string manipulation utilities
	"time"

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/middleware"
	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/service"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth   *service.AuthService
	Cookie CookieConfig
	Log    *logger.Logger
}

func NewAuthHandler(a *service.AuthService, cookie CookieConfig, log *logger.Logger) *AuthHandler {
	return &AuthHandler{Auth: a, Cookie: cookie, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strongpassword"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileReq struct {
	Name    *string        `json:"name" validate:"omitempty,min=2,max=50"`
	Avatar  *string        `json:"avatar" validate:"omitempty,max=2048"`
	Bio     *string        `json:"bio" validate:"omitempty,max=500"`
	Phone   *string        `json:"phone" validate:"omitempty,max=20"`
	Address *model.Address `json:"address"`
}

type resetRequestReq struct {
	Email string `json:"email"`
}

type resetPasswordReq struct {
	Password string `json:"password"`
}

// setSessionCookie stores the session token in an HttpOnly cookie.
func (h *AuthHandler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.Cookie.MaxAge.Seconds()),
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

// Register creates a student account. It does not log the user in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, service.RegisterInput{
		Name:     req.Name,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: req.Password,
	})
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusCreated, "User registered successfully", echo.Map{"user": u.Public(false)})
}

// Login verifies credentials and sets the session cookie. The token is
// also returned in the body for clients that cannot use cookies.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, tok, err := h.Auth.Login(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	h.setSessionCookie(c, tok.Token)
	return ok(c, http.StatusOK, "Login successful", echo.Map{
		"user":      u.Public(false),
		"token":     tok.Token,
		"expiresAt": tok.Exp,
	})
}

// Logout clears the cookie and, when a valid session came with the
// request, denylists it so copies of the token stop working too.
func (h *AuthHandler) Logout(c echo.Context) error {
	if raw := middleware.SessionToken(c); raw != "" {
		ctx, cancel := reqCtx(c)
		defer cancel()
		if _, claims, err := h.Auth.Authenticate(ctx, raw); err == nil {
			if err := h.Auth.Logout(ctx, claims); err != nil {
				h.Log.Warn("session revoke failed", "error", err)
			}
		}
	}
	h.clearSessionCookie(c)
	return ok(c, http.StatusOK, "Logout successful", nil)
}

// Me returns the authenticated user with profile.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Auth.Me(ctx, middleware.UserID(c))
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{"user": u.Public(true)})
}

// UpdateProfile applies a partial profile update.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req profileReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.UpdateProfile(ctx, middleware.UserID(c), service.ProfileInput{
		Name:    req.Name,
		Avatar:  req.Avatar,
		Bio:     req.Bio,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "Profile updated successfully", echo.Map{"user": u.Public(true)})
}

// RequestAdminReset answers 200 whether or not the admin exists.
func (h *AuthHandler) RequestAdminReset(c echo.Context) error {
	var req resetRequestReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return badRequest(c, "Email is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	issued, err := h.Auth.RequestAdminReset(ctx, email)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	if issued == nil {
		return ok(c, http.StatusOK, "If an admin account exists, reset instructions were sent", nil)
	}
	return ok(c, http.StatusOK, "Reset token generated", echo.Map{
		"resetToken": issued.Token,
		"resetUrl":   issued.URL,
	})
}

// ResetAdminPassword consumes the token from the path.
func (h *AuthHandler) ResetAdminPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.ResetAdminPassword(ctx, c.Param("token"), req.Password); err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "Password has been reset successfully", nil)
}
