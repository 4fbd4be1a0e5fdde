package domain

import (
	"context"
	"time"
)

// MaxPayloadLength is the maximum number of characters a tweet's payload may have.
const MaxPayloadLength = 180

// Tweet is a short text posted by a user. Tweets are deleted together with their author.
// The default order of tweets is newest first.
type Tweet struct {
	ID      int    `json:"id"`
	UserID  int    `json:"user" gorm:"notNull;index"`
	User    User   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Payload string `json:"payload" gorm:"type:text;notNull"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TweetService is a set of methods to manipulate and work with the Tweet model.
type TweetService interface {
	All(ctx context.Context) ([]Tweet, error)
	ByID(ctx context.Context, id int) (*Tweet, error)
	ByUserID(ctx context.Context, userID int) ([]Tweet, error)
	Create(ctx context.Context, tweet *Tweet) error
	Update(ctx context.Context, tweet *Tweet) error
	Delete(ctx context.Context, tweet *Tweet) error
}
