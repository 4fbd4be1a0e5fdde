package crud

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tweetapi/domain"
	"tweetapi/errs"
)

const msgTweetNotFound = "The tweet does not exist."

// TweetService manages Tweets.
// It implements the domain.TweetService interface.
type TweetService struct {
	tweetValidator
}

// tweetValidator runs validations on incoming Tweet data.
// On success, it passes the data on to tweetGorm.
// Otherwise, it returns the error of the validation that has failed.
type tweetValidator struct {
	tweetGorm
}

// tweetGorm runs CRUD operations on the database using incoming Tweet data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type tweetGorm struct {
	db *gorm.DB
}

// NewTweetService returns an instance of TweetService.
func NewTweetService(db *gorm.DB) *TweetService {
	return &TweetService{
		tweetValidator{
			tweetGorm{
				db: db,
			},
		},
	}
}

// Ensure the TweetService struct properly implements the domain.TweetService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.TweetService = &TweetService{}

// Create runs validations needed for creating new Tweet database records.
func (tv *tweetValidator) Create(ctx context.Context, tweet *domain.Tweet) error {
	err := runTweetValFns(ctx, tweet,
		tv.userIdValid,
		tv.authorExists,
		tv.payloadMinLength,
		tv.payloadMaxLength)
	if err != nil {
		return err
	}
	return tv.tweetGorm.Create(ctx, tweet)
}

// Update runs validations needed for updating the payload of an existing Tweet.
func (tv *tweetValidator) Update(ctx context.Context, tweet *domain.Tweet) error {
	err := runTweetValFns(ctx, tweet,
		tv.idValid,
		tv.payloadMinLength,
		tv.payloadMaxLength)
	if err != nil {
		return err
	}
	return tv.tweetGorm.Update(ctx, tweet)
}

// Delete runs validations needed for deleting existing Tweet database records.
func (tv *tweetValidator) Delete(ctx context.Context, tweet *domain.Tweet) error {
	err := runTweetValFns(ctx, tweet, tv.idValid)
	if err != nil {
		return err
	}
	return tv.tweetGorm.Delete(ctx, tweet)
}

// runTweetValFns runs any number of functions of type tweetValFn on the passed in Tweet object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runTweetValFns(ctx context.Context, tweet *domain.Tweet, fns ...tweetValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, tweet); err != nil {
			return err
		}
	}
	return nil
}

// A tweetValFn is any function that takes in a pointer to a domain.Tweet object and returns an error.
type tweetValFn = func(ctx context.Context, tweet *domain.Tweet) error

// payloadMinLength makes sure that the Tweet's payload is not blank.
func (tv *tweetValidator) payloadMinLength(ctx context.Context, tweet *domain.Tweet) error {
	if strings.TrimSpace(tweet.Payload) == "" {
		return errs.Invalid(errs.Field("payload", "This field may not be blank."))
	}
	return nil
}

// payloadMaxLength makes sure that the Tweet's payload does not exceed the maximum length.
func (tv *tweetValidator) payloadMaxLength(ctx context.Context, tweet *domain.Tweet) error {
	if utf8.RuneCountInString(tweet.Payload) > domain.MaxPayloadLength {
		return errs.Invalid(errs.Field("payload",
			fmt.Sprintf("Ensure this field has no more than %d characters.", domain.MaxPayloadLength)))
	}
	return nil
}

// idValid makes sure that the ID of a Tweet to be changed is greater than 0.
func (tv *tweetValidator) idValid(ctx context.Context, tweet *domain.Tweet) error {
	if tweet.ID <= 0 {
		return errs.IdInvalid
	}
	return nil
}

// userIdValid ensures that the author is set.
func (tv *tweetValidator) userIdValid(ctx context.Context, tweet *domain.Tweet) error {
	if tweet.UserID <= 0 {
		return errs.UserIdInvalid
	}
	return nil
}

// authorExists makes sure that the author of a new Tweet is a stored user.
func (tv *tweetValidator) authorExists(ctx context.Context, tweet *domain.Tweet) error {
	var count int64
	err := tv.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", tweet.UserID).Count(&count).Error
	if err != nil {
		return fmt.Errorf("count author: %w", err)
	}
	if count == 0 {
		return errs.Errorf(errs.ENOTFOUND, msgUserNotFound)
	}
	return nil
}

// All retrieves every Tweet along with its author, newest first.
func (tg *tweetGorm) All(ctx context.Context) ([]domain.Tweet, error) {
	tweets := []domain.Tweet{}
	err := tg.db.WithContext(ctx).
		Preload("User").
		Order("created_at desc, id desc").
		Find(&tweets).Error
	if err != nil {
		return nil, fmt.Errorf("find tweets: %w", err)
	}
	return tweets, nil
}

// ByID retrieves a single Tweet by ID along with its author.
// If the record doesn't exist, it returns an ENOTFOUND error.
func (tg *tweetGorm) ByID(ctx context.Context, id int) (*domain.Tweet, error) {
	if id <= 0 {
		return nil, errs.Errorf(errs.ENOTFOUND, msgTweetNotFound)
	}
	var tweet domain.Tweet
	err := first(ctx, tg.db.Preload("User").Where("id = ?", id), &tweet, msgTweetNotFound)
	if err != nil {
		return nil, err
	}
	return &tweet, nil
}

// ByUserID retrieves all Tweets of a user, newest first.
func (tg *tweetGorm) ByUserID(ctx context.Context, userID int) ([]domain.Tweet, error) {
	tweets := []domain.Tweet{}
	err := tg.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("User").
		Order("created_at desc, id desc").
		Find(&tweets).Error
	if err != nil {
		return nil, fmt.Errorf("find tweets of user %d: %w", userID, err)
	}
	return tweets, nil
}

// Create stores the data from the Tweet object in a new database record.
// On success, it loads the author, so the response can display the username.
func (tg *tweetGorm) Create(ctx context.Context, tweet *domain.Tweet) error {
	if err := tg.db.WithContext(ctx).Omit(clause.Associations).Create(tweet).Error; err != nil {
		return fmt.Errorf("create tweet: %w", err)
	}
	return tg.loadAuthor(ctx, tweet)
}

// Update saves the Tweet's payload. The update timestamp is set by gorm.
func (tg *tweetGorm) Update(ctx context.Context, tweet *domain.Tweet) error {
	res := tg.db.WithContext(ctx).
		Model(&domain.Tweet{ID: tweet.ID}).
		Omit(clause.Associations).
		Update("payload", tweet.Payload)
	if res.Error != nil {
		return fmt.Errorf("update tweet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.Errorf(errs.ENOTFOUND, msgTweetNotFound)
	}
	updated, err := tg.ByID(ctx, tweet.ID)
	if err != nil {
		return err
	}
	*tweet = *updated
	return nil
}

// Delete permanently deletes a Tweet record. Its Likes are removed by the
// foreign key's ON DELETE CASCADE.
func (tg *tweetGorm) Delete(ctx context.Context, tweet *domain.Tweet) error {
	res := tg.db.WithContext(ctx).Delete(&domain.Tweet{}, tweet.ID)
	if res.Error != nil {
		return fmt.Errorf("delete tweet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.Errorf(errs.ENOTFOUND, msgTweetNotFound)
	}
	return nil
}

// loadAuthor fills in the Tweet's User.
func (tg *tweetGorm) loadAuthor(ctx context.Context, tweet *domain.Tweet) error {
	var user domain.User
	if err := first(ctx, tg.db.Where("id = ?", tweet.UserID), &user, msgUserNotFound); err != nil {
		return err
	}
	tweet.User = user
	return nil
}
