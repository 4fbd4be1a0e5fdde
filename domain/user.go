package domain

import (
	"context"
	"time"
)

// MinPasswordLength is the minimum number of characters a password must have.
const MinPasswordLength = 8

// User represents a registered account. Password and PasswordConfirm only live in
// memory while a user is being created; the database only ever stores the bcrypt
// hash of the peppered password. CreatedAt is exposed to clients as date_joined.
type User struct {
	ID              int        `json:"id"`
	Username        string     `json:"username" gorm:"size:150;notNull;uniqueIndex"`
	Email           string     `json:"email" gorm:"size:254;notNull;default:''"`
	Password        string     `json:"-" gorm:"-"`
	PasswordConfirm string     `json:"-" gorm:"-"`
	PasswordHash    string     `json:"-" gorm:"notNull"`
	LastLogin       *time.Time `json:"last_login"`

	CreatedAt time.Time `json:"date_joined"`
	UpdatedAt time.Time `json:"-"`
}

// PasswordUpdate holds the data needed to change the password of a user.
type PasswordUpdate struct {
	Current    string
	New        string
	NewConfirm string
}

// UserService is a set of methods to manipulate and work with the User model.
type UserService interface {
	ByID(ctx context.Context, id int) (*User, error)
	ByUsername(ctx context.Context, username string) (*User, error)
	All(ctx context.Context) ([]User, error)
	Create(ctx context.Context, user *User) error
	// CheckCreate reports the field errors Create would return, without the checks
	// that compare fields with each other.
	CheckCreate(ctx context.Context, user *User) error
	Authenticate(ctx context.Context, username, password string) (*User, error)
	UpdatePassword(ctx context.Context, user *User, upd *PasswordUpdate) error
	// CheckPasswordUpdate is to UpdatePassword what CheckCreate is to Create.
	CheckPasswordUpdate(ctx context.Context, user *User, upd *PasswordUpdate) error
	TouchLastLogin(ctx context.Context, user *User) error
}
