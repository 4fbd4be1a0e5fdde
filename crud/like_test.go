package crud

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetapi/domain"
	"tweetapi/errs"
)

func TestLikeLifecycle(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice", "password1")
	bob := createUser(t, s, "bob", "password1")
	tweet := createTweet(t, s, alice, "hi")

	like := &domain.Like{UserID: bob.ID, TweetID: tweet.ID}
	require.NoError(t, s.Like.Create(ctx, like))
	assert.NotZero(t, like.ID)
	require.NoError(t, s.Like.Create(ctx, &domain.Like{UserID: alice.ID, TweetID: tweet.ID}))

	count, err := s.Like.CountByTweetID(ctx, tweet.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, s.Like.Delete(ctx, &domain.Like{UserID: bob.ID, TweetID: tweet.ID}))
	count, err = s.Like.CountByTweetID(ctx, tweet.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = s.Like.Delete(ctx, &domain.Like{UserID: bob.ID, TweetID: tweet.ID})
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
}

func TestLikeTwice(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice", "password1")
	tweet := createTweet(t, s, alice, "hi")

	require.NoError(t, s.Like.Create(ctx, &domain.Like{UserID: alice.ID, TweetID: tweet.ID}))
	err := s.Like.Create(ctx, &domain.Like{UserID: alice.ID, TweetID: tweet.ID})

	require.Equal(t, errs.EINVALID, errs.ErrorCode(err))
	assert.Equal(t, "You already like that tweet.", fieldsOf(err)[errs.NonFieldErrors])
}

func TestLikeUniqueIndex(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice", "password1")
	tweet := createTweet(t, s, alice, "hi")

	// Bypass the validator, as two concurrent requests could.
	lg := &likeGorm{db: s.db}
	require.NoError(t, lg.Create(ctx, &domain.Like{UserID: alice.ID, TweetID: tweet.ID}))
	err := lg.Create(ctx, &domain.Like{UserID: alice.ID, TweetID: tweet.ID})

	require.Equal(t, errs.EINVALID, errs.ErrorCode(err))
	assert.Equal(t, "You already like that tweet.", fieldsOf(err)[errs.NonFieldErrors])
}

func TestLikeUnknownTweet(t *testing.T) {
	s := newTestServices(t)
	alice := createUser(t, s, "alice", "password1")

	err := s.Like.Create(context.Background(), &domain.Like{UserID: alice.ID, TweetID: 99999})
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
}
