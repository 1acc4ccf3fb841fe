package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the authorization role of a user. It never changes after creation.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// IsAdmin compares case-insensitively so tokens minted with "admin" still match.
func (r Role) IsAdmin() bool {
	return strings.EqualFold(string(r), string(RoleAdmin))
}

// User represents a local or federated account.
type User struct {
	ID           uuid.UUID `json:"_id" gorm:"type:char(36);primaryKey"`
	Username     string    `json:"username" gorm:"size:255;not null;uniqueIndex"`
	Email        string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	GoogleID     *string   `json:"googleId,omitempty" gorm:"size:255;uniqueIndex"`
	Name         string    `json:"name,omitempty" gorm:"size:255"`
	FirstName    string    `json:"first_name" gorm:"size:255"`
	LastName     string    `json:"last_name" gorm:"size:255"`
	PasswordHash string    `json:"-" gorm:"column:password;size:255"` // empty for federated accounts
	Role         Role      `json:"role" gorm:"type:varchar(20);not null"`
	RefreshToken *string   `json:"-" gorm:"size:512;index"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NormalizeEmail is applied on write and on every lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FullName joins first and last name.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps the stored email canonical.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// MarshalJSON adds the derived id and full_name fields.
func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		alias
		ID       uuid.UUID `json:"id"`
		FullName string    `json:"full_name"`
	}{alias: alias(u), ID: u.ID, FullName: u.FullName()})
}
