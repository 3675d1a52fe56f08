package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/utils"
)

var testAuthConfig = AuthConfig{
	JWTSecret:     "test-secret",
	TokenTTL:      time.Hour,
	BcryptCost:    bcrypt.MinCost,
	ResetTokenTTL: 10 * time.Minute,
	ClientURL:     "http://localhost:3000/",
}

func newAuth(m *memStore, sessions SessionDenylist) *AuthService {
	return NewAuthService(memUsers{m}, memResets{m}, sessions, testAuthConfig, logger.Nop())
}

type brokenDenylist struct{}

func (brokenDenylist) Revoke(context.Context, string, time.Time) error { return errors.New("down") }
func (brokenDenylist) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("down")
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	auth := newAuth(m, memSessions{m})

	u, err := auth.Register(ctx, RegisterInput{Name: " Sara ", Email: "Sara@Example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, "Sara", u.Name)
	assert.Equal(t, model.RoleStudent, u.Role)
	assert.Equal(t, model.DefaultAvatar, u.Profile.Avatar)
	assert.NotEqual(t, "Secret123", u.PasswordHash)

	_, err = auth.Register(ctx, RegisterInput{Name: "Sara", Email: "sara@example.com", Password: "Secret123"})
	assertKind(t, err, ErrConflict, "User already exists with this email")

	_, _, err = auth.Login(ctx, "sara@example.com", "wrong-pass")
	assertKind(t, err, ErrUnauthorized, "Invalid email or password")
	_, _, err = auth.Login(ctx, "nobody@example.com", "Secret123")
	assertKind(t, err, ErrUnauthorized, "Invalid email or password")

	got, tok, err := auth.Login(ctx, "sara@example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, tok.Token)

	me, claims, err := auth.Authenticate(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)
	assert.Equal(t, tok.JTI, claims.ID)
}

func TestBlockedUserCannotLoginOrAuthenticate(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	auth := newAuth(m, nil)
	u, err := auth.Register(ctx, RegisterInput{Name: "Sara", Email: "sara@example.com", Password: "Secret123"})
	require.NoError(t, err)
	_, tok, err := auth.Login(ctx, "sara@example.com", "Secret123")
	require.NoError(t, err)

	require.NoError(t, memUsers{m}.SetBlocked(ctx, u.ID, true))

	_, _, err = auth.Login(ctx, "sara@example.com", "Secret123")
	assertKind(t, err, ErrForbidden, "Your account has been blocked")
	_, _, err = auth.Authenticate(ctx, tok.Token)
	assertKind(t, err, ErrForbidden, "")
}

func TestAuthenticateRejects(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	auth := newAuth(m, memSessions{m})

	_, _, err := auth.Authenticate(ctx, "")
	assertKind(t, err, ErrUnauthorized, "Access denied. No token provided.")
	_, _, err = auth.Authenticate(ctx, "not-a-jwt")
	assertKind(t, err, ErrUnauthorized, "Invalid token.")

	foreign, err := utils.NewSessionToken("other-secret", 1, model.RoleAdmin, time.Hour)
	require.NoError(t, err)
	_, _, err = auth.Authenticate(ctx, foreign.Token)
	assertKind(t, err, ErrUnauthorized, "Invalid token.")

	ghost, err := utils.NewSessionToken(testAuthConfig.JWTSecret, 4242, model.RoleStudent, time.Hour)
	require.NoError(t, err)
	_, _, err = auth.Authenticate(ctx, ghost.Token)
	assertKind(t, err, ErrUnauthorized, "Invalid token. User not found.")
}

func TestLogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	auth := newAuth(m, memSessions{m})
	_, err := auth.Register(ctx, RegisterInput{Name: "Sara", Email: "sara@example.com", Password: "Secret123"})
	require.NoError(t, err)
	_, tok, err := auth.Login(ctx, "sara@example.com", "Secret123")
	require.NoError(t, err)
	_, claims, err := auth.Authenticate(ctx, tok.Token)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, claims))
	_, _, err = auth.Authenticate(ctx, tok.Token)
	assertKind(t, err, ErrUnauthorized, "Session has been logged out.")
}

func TestDenylistOutageLetsRequestsThrough(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	auth := newAuth(m, brokenDenylist{})
	_, err := auth.Register(ctx, RegisterInput{Name: "Sara", Email: "sara@example.com", Password: "Secret123"})
	require.NoError(t, err)
	_, tok, err := auth.Login(ctx, "sara@example.com", "Secret123")
	require.NoError(t, err)

	_, _, err = auth.Authenticate(ctx, tok.Token)
	assert.NoError(t, err)
}

func TestUpdateProfileIsPartial(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	auth := newAuth(m, nil)
	u, err := auth.Register(ctx, RegisterInput{Name: "Sara", Email: "sara@example.com", Password: "Secret123"})
	require.NoError(t, err)

	bio := "Backend developer"
	got, err := auth.UpdateProfile(ctx, u.ID, ProfileInput{Bio: &bio, Address: &model.Address{City: "Tehran"}})
	require.NoError(t, err)
	assert.Equal(t, "Sara", got.Name)
	assert.Equal(t, bio, got.Profile.Bio)
	assert.Equal(t, "Tehran", got.Profile.Address.City)
	assert.Equal(t, model.DefaultAvatar, got.Profile.Avatar)

	_, err = auth.UpdateProfile(ctx, 4242, ProfileInput{Bio: &bio})
	assertKind(t, err, ErrNotFound, "User not found")
}

func TestAdminPasswordReset(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	auth := newAuth(m, nil)
	admin := m.addUser("Root", "root@example.com", model.RoleAdmin)
	m.addUser("Sara", "sara@example.com", model.RoleStudent)

	issued, err := auth.RequestAdminReset(ctx, "sara@example.com")
	require.NoError(t, err)
	assert.Nil(t, issued)

	issued, err = auth.RequestAdminReset(ctx, "root@example.com")
	require.NoError(t, err)
	require.NotNil(t, issued)
	assert.Len(t, issued.Token, 64)
	assert.True(t, strings.HasPrefix(issued.URL, "http://localhost:3000/admin/reset-password/"))

	assertKind(t, auth.ResetAdminPassword(ctx, issued.Token, "short"), ErrValidation,
		"Password must be at least 8 characters")
	assertKind(t, auth.ResetAdminPassword(ctx, "bogus", "NewSecret1"), ErrValidation,
		"Invalid or expired token")

	require.NoError(t, auth.ResetAdminPassword(ctx, issued.Token, "NewSecret1"))
	u, err := memUsers{m}.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "NewSecret1"))

	// single use
	assertKind(t, auth.ResetAdminPassword(ctx, issued.Token, "Another1x"), ErrValidation, "")

	// expired
	issued, err = auth.RequestAdminReset(ctx, "root@example.com")
	require.NoError(t, err)
	auth.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	assertKind(t, auth.ResetAdminPassword(ctx, issued.Token, "NewSecret2"), ErrValidation, "Invalid or expired token")
}

func TestMeListsEnrolledCourses(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	auth := newAuth(m, nil)
	u := m.addUser("Lin", "lin@example.com", model.RoleStudent)
	a := m.addCourse("Rust 101", 40)
	b := m.addCourse("Kotlin 101", 60)

	me, err := auth.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, me.EnrolledCourses)

	_, err = memEnrollments{m}.Create(ctx, u.ID, b.ID, 1, time.Now())
	require.NoError(t, err)
	_, err = memEnrollments{m}.Create(ctx, u.ID, a.ID, 1, time.Now())
	require.NoError(t, err)

	me, err = auth.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{a.ID, b.ID}, me.EnrolledCourses)
	assert.Equal(t, me.EnrolledCourses, me.Public(true).EnrolledCourses)
	assert.Nil(t, me.Public(false).EnrolledCourses)

	_, err = auth.Me(ctx, 999)
	assertKind(t, err, ErrNotFound, "User not found")
}
