package user

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes free-tier users from paying members.
type Role int

const (
	RoleFree   Role = 0
	RoleMember Role = 1
)

// User represents a registered user. Records are created at OAuth login and
// refreshed on every subsequent login.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"not null"`
	AvatarURL string    `json:"avatar_url,omitempty" gorm:"column:avatar_url"`

	// Authentication
	OAuthProvider string `json:"oauth_provider" gorm:"column:oauth_provider;index:idx_oauth,unique"`
	OAuthID       string `json:"-" gorm:"column:oauth_id;index:idx_oauth,unique"`

	// Membership
	Role             Role       `json:"role" gorm:"default:0"`
	MembershipExpire *time.Time `json:"membership_expire,omitempty" gorm:"column:membership_expire"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// TableName returns the database table name.
func (User) TableName() string {
	return "users"
}

// IsMember reports whether the user has an active membership.
func (u *User) IsMember(now time.Time) bool {
	return u.Role == RoleMember && u.MembershipExpire != nil && u.MembershipExpire.After(now)
}
