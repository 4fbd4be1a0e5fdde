package http

import (
	"time"

	"tweetapi/domain"
)

// The response types below whitelist what clients get to see of the domain
// models. Password hashes and session data never leave the server.

type tweetResponse struct {
	ID        int       `json:"id"`
	Payload   string    `json:"payload"`
	User      int       `json:"user"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newTweetResponse(t *domain.Tweet) tweetResponse {
	return tweetResponse{
		ID:        t.ID,
		Payload:   t.Payload,
		User:      t.UserID,
		Username:  t.User.Username,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// newTweetResponses never returns nil, so an empty list is encoded as [].
func newTweetResponses(tweets []domain.Tweet) []tweetResponse {
	res := make([]tweetResponse, 0, len(tweets))
	for i := range tweets {
		res = append(res, newTweetResponse(&tweets[i]))
	}
	return res
}

type userResponse struct {
	ID         int        `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	DateJoined time.Time  `json:"date_joined"`
	LastLogin  *time.Time `json:"last_login"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		DateJoined: u.CreatedAt,
		LastLogin:  u.LastLogin,
	}
}

func newUserResponses(users []domain.User) []userResponse {
	res := make([]userResponse, 0, len(users))
	for i := range users {
		res = append(res, newUserResponse(&users[i]))
	}
	return res
}

type likeResponse struct {
	ID        int       `json:"id"`
	User      int       `json:"user"`
	Tweet     int       `json:"tweet"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newLikeResponse(l *domain.Like) likeResponse {
	return likeResponse{
		ID:        l.ID,
		User:      l.UserID,
		Tweet:     l.TweetID,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}
