package domain

import (
	"context"
	"time"
)

// Like represents a many-to-many relationship between a User and a Tweet.
// A user can like a tweet only once, which is enforced by a unique index over
// both foreign keys. Likes are deleted together with their user or tweet.
type Like struct {
	ID      int   `json:"id"`
	UserID  int   `json:"user" gorm:"notNull;uniqueIndex:idx_likes_user_tweet"`
	User    User  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	TweetID int   `json:"tweet" gorm:"notNull;uniqueIndex:idx_likes_user_tweet;index"`
	Tweet   Tweet `json:"-" gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LikeService is a set of methods to manipulate and work with the Like model.
type LikeService interface {
	Create(ctx context.Context, like *Like) error
	Delete(ctx context.Context, like *Like) error
	CountByTweetID(ctx context.Context, tweetID int) (int, error)
}
