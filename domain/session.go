package domain

import (
	"context"
	"time"
)

// Session binds a random token, handed to the client in a cookie, to a user.
// Only the HMAC hash of the token is stored.
type Session struct {
	ID        int       `json:"-"`
	TokenHash string    `json:"-" gorm:"notNull;uniqueIndex"`
	UserID    int       `json:"-" gorm:"notNull;index"`
	User      User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	ExpiresAt time.Time `json:"-" gorm:"notNull;index"`
	CreatedAt time.Time `json:"-"`
}

// SessionService creates, resolves and destroys sessions.
// UserID returns an ENOTFOUND error for unknown or expired tokens.
type SessionService interface {
	Create(ctx context.Context, userID int) (string, error)
	UserID(ctx context.Context, token string) (int, error)
	Delete(ctx context.Context, token string) error
}
