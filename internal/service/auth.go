package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/repository"
	"github.com/skillswap/course-marketplace/internal/utils"
)

// UserStore is the identity storage used by AuthService.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetAdminByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateProfile(ctx context.Context, u model.User) error
	EnrolledCourseIDs(ctx context.Context, id uint64) ([]uint64, error)
}

// ResetTokenStore persists hashed admin reset tokens.
type ResetTokenStore interface {
	Replace(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ResetPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) error
}

// SessionDenylist records logged-out session ids.
type SessionDenylist interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthConfig carries the settings AuthService needs from config.Config.
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	BcryptCost    int
	ResetTokenTTL time.Duration
	ClientURL     string
}

type AuthService struct {
	users    UserStore
	resets   ResetTokenStore
	sessions SessionDenylist
	cfg      AuthConfig
	log      *logger.Logger
	now      func() time.Time
}

func NewAuthService(users UserStore, resets ResetTokenStore, sessions SessionDenylist, cfg AuthConfig, log *logger.Logger) *AuthService {
	return &AuthService{users: users, resets: resets, sessions: sessions, cfg: cfg, log: log, now: time.Now}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a student account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return model.User{}, conflict("User already exists with this email")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, err
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: hash,
		Role:         model.RoleStudent,
		Profile:      model.Profile{Avatar: model.DefaultAvatar},
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, conflict("User already exists with this email")
		}
		return model.User{}, err
	}
	s.log.Info("user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.User, utils.SessionToken, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, utils.SessionToken{}, unauthorized("Invalid email or password")
	}
	if err != nil {
		return model.User{}, utils.SessionToken{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, utils.SessionToken{}, unauthorized("Invalid email or password")
	}
	if u.IsBlocked {
		return model.User{}, utils.SessionToken{}, forbidden("Your account has been blocked")
	}
	tok, err := utils.NewSessionToken(s.cfg.JWTSecret, u.ID, u.Role, s.cfg.TokenTTL)
	if err != nil {
		return model.User{}, utils.SessionToken{}, err
	}
	return u, tok, nil
}

// Authenticate resolves a raw session token to its live user. Tokens that
// fail verification, were logged out or whose user vanished are
// unauthorized; blocked users are forbidden.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (model.User, *utils.SessionClaims, error) {
	if raw == "" {
		return model.User{}, nil, unauthorized("Access denied. No token provided.")
	}
	claims, err := utils.ParseSessionToken(s.cfg.JWTSecret, raw)
	if err != nil {
		return model.User{}, nil, unauthorized("Invalid token.")
	}
	if s.sessions != nil {
		revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
		if err != nil {
			// Redis trouble must not lock everybody out.
			s.log.Warn("session denylist lookup failed", "error", err)
		} else if revoked {
			return model.User{}, nil, unauthorized("Session has been logged out.")
		}
	}
	id, err := claims.UserID()
	if err != nil {
		return model.User{}, nil, unauthorized("Invalid token.")
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, nil, unauthorized("Invalid token. User not found.")
	}
	if err != nil {
		return model.User{}, nil, err
	}
	if u.IsBlocked {
		return model.User{}, nil, forbidden("Your account has been blocked")
	}
	return u, claims, nil
}

// Logout denylists the session until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *utils.SessionClaims) error {
	if claims == nil || s.sessions == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.sessions.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Me returns the current user with the ids of the courses they own.
func (s *AuthService) Me(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, orNotFound(err, msgUserNotFound)
	}
	if u.EnrolledCourses, err = s.users.EnrolledCourseIDs(ctx, id); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// ProfileInput is a partial profile update; nil fields stay unchanged.
type ProfileInput struct {
	Name    *string
	Avatar  *string
	Bio     *string
	Phone   *string
	Address *model.Address
}

// UpdateProfile applies in to the user's profile.
func (s *AuthService) UpdateProfile(ctx context.Context, id uint64, in ProfileInput) (model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, orNotFound(err, msgUserNotFound)
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Avatar != nil {
		u.Profile.Avatar = *in.Avatar
	}
	if in.Bio != nil {
		u.Profile.Bio = *in.Bio
	}
	if in.Phone != nil {
		u.Profile.Phone = *in.Phone
	}
	if in.Address != nil {
		u.Profile.Address = *in.Address
	}
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return model.User{}, orNotFound(err, msgUserNotFound)
	}
	return u, nil
}

// ResetIssued is returned to the requester instead of an email.
type ResetIssued struct {
	Token string `json:"resetToken"`
	URL   string `json:"resetUrl"`
}

// RequestAdminReset issues a reset token for the admin account with the
// given email. It returns nil without error when no such admin exists so
// callers cannot tell the two cases apart by status.
func (s *AuthService) RequestAdminReset(ctx context.Context, email string) (*ResetIssued, error) {
	u, err := s.users.GetAdminByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rt, err := utils.NewResetToken(s.cfg.ResetTokenTTL)
	if err != nil {
		return nil, err
	}
	if err := s.resets.Replace(ctx, u.ID, rt.Hash, rt.Exp); err != nil {
		return nil, err
	}
	s.log.Info("admin password reset requested", "user_id", u.ID)
	return &ResetIssued{
		Token: rt.Raw,
		URL:   strings.TrimRight(s.cfg.ClientURL, "/") + "/admin/reset-password/" + rt.Raw,
	}, nil
}

// ResetAdminPassword consumes token and sets password.
func (s *AuthService) ResetAdminPassword(ctx context.Context, token, password string) error {
	if len(password) < utils.MinPasswordLen {
		return badRequest("Password must be at least 8 characters")
	}
	if token == "" {
		return badRequest("Invalid or expired token")
	}
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	err = s.resets.ResetPassword(ctx, utils.HashResetToken(token), hash, s.now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return badRequest("Invalid or expired token")
	}
	return err
}
