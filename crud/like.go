package crud

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tweetapi/domain"
	"tweetapi/errs"
)

const msgAlreadyLiked = "You already like that tweet."

// LikeService manages Likes.
// It implements the domain.LikeService interface.
type LikeService struct {
	likeValidator
}

// likeValidator runs validations on incoming Like data.
// On success, it passes the data on to likeGorm.
// Otherwise, it returns the error of the validation that has failed.
type likeValidator struct {
	likeGorm
}

// likeGorm runs CRUD operations on the database using incoming Like data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type likeGorm struct {
	db *gorm.DB
}

// NewLikeService returns an instance of LikeService.
func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{
		likeValidator{
			likeGorm{
				db: db,
			},
		},
	}
}

// Ensure the LikeService struct properly implements the domain.LikeService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.LikeService = &LikeService{}

// Create runs validations needed for creating new Like database records.
func (lv *likeValidator) Create(ctx context.Context, like *domain.Like) error {
	err := runLikeValFns(ctx, like,
		lv.userIdValid,
		lv.likedTweetExists,
		lv.notAlreadyLiked)
	if err != nil {
		return err
	}
	return lv.likeGorm.Create(ctx, like)
}

// Delete runs validations needed for deleting existing Like database records.
func (lv *likeValidator) Delete(ctx context.Context, like *domain.Like) error {
	err := runLikeValFns(ctx, like,
		lv.userIdValid,
		lv.likeExists)
	if err != nil {
		return err
	}
	return lv.likeGorm.Delete(ctx, like)
}

// runLikeValFns runs any number of functions of type likeValFn on the passed in Like object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runLikeValFns(ctx context.Context, like *domain.Like, fns ...likeValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, like); err != nil {
			return err
		}
	}
	return nil
}

// A likeValFn is any function that takes in a pointer to a domain.Like object and returns an error.
type likeValFn func(ctx context.Context, like *domain.Like) error

// likeExists makes sure that the Like record to be deleted actually exists.
// It fills in the rest of the record on success.
func (lv *likeValidator) likeExists(ctx context.Context, like *domain.Like) error {
	q := lv.db.Where("user_id = ? AND tweet_id = ?", like.UserID, like.TweetID)
	return first(ctx, q, like, "You cannot unlike a tweet you have not liked.")
}

// likedTweetExists makes sure that the tweet to be liked actually exists.
func (lv *likeValidator) likedTweetExists(ctx context.Context, like *domain.Like) error {
	return first(ctx, lv.db.Where("id = ?", like.TweetID), &domain.Tweet{}, msgTweetNotFound)
}

// notAlreadyLiked makes sure that the user doesn't already like the tweet.
func (lv *likeValidator) notAlreadyLiked(ctx context.Context, like *domain.Like) error {
	err := lv.db.WithContext(ctx).
		Where("user_id = ? AND tweet_id = ?", like.UserID, like.TweetID).
		First(&domain.Like{}).Error
	if err == nil {
		return errs.Invalid(errs.Field(errs.NonFieldErrors, msgAlreadyLiked))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

// userIdValid ensures that the userId is not empty.
func (lv *likeValidator) userIdValid(ctx context.Context, like *domain.Like) error {
	if like.UserID <= 0 {
		return errs.UserIdInvalid
	}
	return nil
}

// CountByTweetID returns the number of likes of a tweet.
func (lg *likeGorm) CountByTweetID(ctx context.Context, tweetID int) (int, error) {
	var count int64
	err := lg.db.WithContext(ctx).Model(&domain.Like{}).Where("tweet_id = ?", tweetID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return int(count), nil
}

// Create stores the data from the Like object in a new database record.
// Two concurrent likes of the same pair are caught by the unique index.
func (lg *likeGorm) Create(ctx context.Context, like *domain.Like) error {
	err := lg.db.WithContext(ctx).Omit(clause.Associations).Create(like).Error
	if err != nil {
		if isDuplicate(err) {
			return errs.Invalid(errs.Field(errs.NonFieldErrors, msgAlreadyLiked))
		}
		return fmt.Errorf("create like: %w", err)
	}
	return nil
}

// Delete permanently deletes the Like record.
func (lg *likeGorm) Delete(ctx context.Context, like *domain.Like) error {
	err := lg.db.WithContext(ctx).
		Where("user_id = ? AND tweet_id = ?", like.UserID, like.TweetID).
		Delete(&domain.Like{}).Error
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}
