package crud

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"tweetapi/domain"
)

// A ServicesConfig is any function that takes in a pointer to a Services
// object and returns an error. It's basically just wrapping the constructor
// method of any given crud service. It exists to be able to easily create
// the crud services using functional options in main.go.
type ServicesConfig func(*Services) error

// Services is a container object holding all the crud services.
// The crud services all share the database connection provided by Services.
// Session is an interface, because sessions may live in redis instead of the database.
type Services struct {
	db      *gorm.DB
	User    *UserService
	Tweet   *TweetService
	Like    *LikeService
	Session domain.SessionService
}

// NewServices returns a new Services object, containing any crud services
// it's told to create by one of the passed in ServicesConfig functions.
// It shares the passed in database connection with any crud service it creates.
func NewServices(db *gorm.DB, cfgs ...ServicesConfig) (*Services, error) {
	s := Services{
		db: db,
	}
	for _, cfg := range cfgs {
		if err := cfg(&s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// WithUser wraps the constructor of UserService, NewUserService.
func WithUser(pepper string) ServicesConfig {
	return func(s *Services) error {
		if pepper == "" {
			return errors.New("crud: password pepper is required")
		}
		s.User = NewUserService(s.db, pepper)
		return nil
	}
}

// WithTweet wraps the constructor of TweetService, NewTweetService.
func WithTweet() ServicesConfig {
	return func(s *Services) error {
		s.Tweet = NewTweetService(s.db)
		return nil
	}
}

// WithLike wraps the constructor of LikeService, NewLikeService.
func WithLike() ServicesConfig {
	return func(s *Services) error {
		s.Like = NewLikeService(s.db)
		return nil
	}
}

// WithSession wraps the constructor of the database backed SessionService, NewSessionService.
func WithSession(hmacKey string, ttl time.Duration) ServicesConfig {
	return func(s *Services) error {
		if hmacKey == "" {
			return errors.New("crud: session hmac key is required")
		}
		s.Session = NewSessionService(s.db, hmacKey, ttl)
		return nil
	}
}

// WithSessionService sets a SessionService that was constructed elsewhere, e.g. one backed by redis.
func WithSessionService(ss domain.SessionService) ServicesConfig {
	return func(s *Services) error {
		if ss == nil {
			return errors.New("crud: session service is nil")
		}
		s.Session = ss
		return nil
	}
}

// WithBcryptCost sets the bcrypt cost of the UserService. It must come after WithUser.
func WithBcryptCost(cost int) ServicesConfig {
	return func(s *Services) error {
		if s.User == nil {
			return errors.New("crud: WithBcryptCost requires WithUser")
		}
		s.User.cost = cost
		return nil
	}
}
