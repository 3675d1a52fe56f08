package model

import "time"

// Account roles. A user has exactly one role; admin rights are derived from it.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// Address is the postal address attached to a user profile.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Profile holds the self-editable part of a user account.
type Profile struct {
	Avatar  string  `json:"avatar"`
	Bio     string  `json:"bio"`
	Phone   string  `json:"phone"`
	Address Address `json:"address"`
}

// DefaultAvatar is stored for accounts that never uploaded a picture.
const DefaultAvatar = "https://via.placeholder.com/150?text=User"

// User represents an application user record as stored in the
// `users` table. PasswordHash never leaves the server; handlers
// render users through PublicUser.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Name         – display name (2–50 characters).
//	Email        – unique, lowercased email address.
//	PasswordHash – bcrypt hashed password.
//	Role         – student, instructor or admin.
//	IsBlocked    – blocked accounts cannot use private routes.
//	Profile      – avatar, bio, phone and address.
type User struct {
	ID              uint64    // users.id
	Name            string    // users.name
	Email           string    // users.email
	PasswordHash    string    // users.password_hash
	Role            string    // users.role
	IsBlocked       bool      // users.is_blocked
	Profile         Profile   // users.avatar, users.bio, users.phone, users.addr_*
	EnrolledCourses []uint64  // user_enrolled_courses, loaded only for the profile view
	CreatedAt       time.Time // users.created_at
	UpdatedAt       time.Time // users.updated_at
}

// IsAdmin mirrors Role == admin. It is never stored separately.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// PublicUser is the JSON shape of a user returned to clients.
type PublicUser struct {
	ID              uint64    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	IsAdmin         bool      `json:"isAdmin"`
	IsBlocked       bool      `json:"isBlocked"`
	Profile         *Profile  `json:"profile,omitempty"`
	EnrolledCourses []uint64  `json:"enrolledCourses,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Public converts u to its client-facing form. withProfile controls whether
// the profile sub-object is included.
func (u User) Public(withProfile bool) PublicUser {
	out := PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		IsAdmin:   u.IsAdmin(),
		IsBlocked: u.IsBlocked,
		CreatedAt: u.CreatedAt,
	}
	if withProfile {
		p := u.Profile
		out.Profile = &p
		out.EnrolledCourses = u.EnrolledCourses
	}
	return out
}

// PasswordResetToken models an entry in the `password_reset_tokens` table.
// The plain token is not stored; only its SHA‑256 hash.
type PasswordResetToken struct {
	ID        uint64     // password_reset_tokens.id
	UserID    uint64     // password_reset_tokens.user_id
	TokenHash string     // password_reset_tokens.token_hash
	ExpiresAt time.Time  // password_reset_tokens.expires_at
	UsedAt    *time.Time // password_reset_tokens.used_at (nullable)
	CreatedAt time.Time  // password_reset_tokens.created_at
}
