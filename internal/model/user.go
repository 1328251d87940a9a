package model

import (
	"strings"
	"time"
)

// Role names the four kinds of account.  The values are stored verbatim
// in users.role and carried in the JWT "role" claim.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleInvestor Role = "Investor"
	RoleMentor   Role = "Mentor"
	RoleFounder  Role = "Founder"
)

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	for _, r := range []Role{RoleAdmin, RoleInvestor, RoleMentor, RoleFounder} {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, true
		}
	}
	return "", false
}

// HasProfile reports whether accounts of this role own a satellite profile
// row.  Admins have none.
func (r Role) HasProfile() bool {
	return r == RoleInvestor || r == RoleMentor || r == RoleFounder
}

// User represents an account as stored in the `users` table.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name, copied into the role's profile row.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – one of Admin, Investor, Mentor, Founder.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FounderProfile mirrors the `founders` satellite table.  A new founder
// starts with a team of one and no funding target.
type FounderProfile struct {
	UserID             uint64 `json:"user_id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	StartupName        string `json:"startup_name"`
	Industry           string `json:"industry"`
	Location           string `json:"location"`
	TeamSize           uint32 `json:"team_size"`
	FundingNeededCents uint64 `json:"funding_needed_cents"`
}

// MentorProfile mirrors the `mentors` satellite table.
type MentorProfile struct {
	UserID       uint64 `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Expertise    string `json:"expertise"`
	Availability string `json:"availability"`
}

// InvestorProfile mirrors the `investors` satellite table.
type InvestorProfile struct {
	UserID               uint64 `json:"user_id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	ExpertiseArea        string `json:"expertise_area"`
	AvailableBudgetCents uint64 `json:"available_budget_cents"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored; only its SHA‑256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
