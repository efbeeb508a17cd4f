package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser     Role = "user"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// ReservedUsername is taken by the /me routes.
const ReservedUsername = "me"

var roleRank = map[Role]int{
	RoleUser:     1,
	RoleEmployee: 2,
	RoleAdmin:    3,
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r is a known role ranked at or above min.
func (r Role) AtLeast(min Role) bool {
	rank, ok := roleRank[r]
	if !ok {
		return false
	}
	return rank >= roleRank[min]
}

type Account struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"          json:"id"`
	Username        string    `gorm:"size:150;uniqueIndex;not null"     json:"username"`
	Email           string    `gorm:"size:254;uniqueIndex;not null"     json:"email"`
	PasswordHash    string    `gorm:"not null"                          json:"-"`
	Role            Role      `gorm:"size:100;not null;default:'user'"  json:"role"`
	IsEmailVerified bool      `gorm:"not null;default:false"            json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func IsReservedUsername(username string) bool {
	return strings.EqualFold(strings.TrimSpace(username), ReservedUsername)
}

// BlacklistedToken is a revoked refresh token, keyed by its jti. Rows go away with their
// account and are purged once past ExpiresAt.
type BlacklistedToken struct {
	ID        uint      `gorm:"primaryKey"                 json:"id"`
	JTI       string    `gorm:"size:64;uniqueIndex;not null" json:"jti"`
	AccountID uint      `gorm:"index;not null"             json:"account_id"`
	Account   Account   `gorm:"constraint:OnDelete:CASCADE;foreignKey:AccountID;references:ID" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null"             json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
