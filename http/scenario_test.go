package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenario walks through a new user's first steps, entirely over http.
func TestScenario(t *testing.T) {
	env := newTestEnv(t, Options{})
	bob := env.createUser("bob", "password1")
	c := env.client()

	res, body := env.do(c, "POST", "/api/v1/users", map[string]string{
		"username":         "alice",
		"email":            "alice@x.com",
		"password":         "password1",
		"password_confirm": "password1",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var alice userResponse
	decode(t, body, &alice)

	res, body = env.do(c, "POST", "/api/v1/users/login",
		map[string]string{"username": "alice", "password": "password1"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	require.NotNil(t, sessionCookie(t, env, c))

	res, body = env.do(c, "POST", "/api/v1/tweets", map[string]string{"payload": "hi"})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var tweet tweetResponse
	decode(t, body, &tweet)
	assert.Equal(t, alice.ID, tweet.User)
	assert.Equal(t, "alice", tweet.Username)

	res, body = env.do(c, "GET", fmt.Sprintf("/api/v1/users/%d/tweets", bob.ID), nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	res, body = env.do(c, "GET", "/api/v1/users/99999/tweets", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.NotEmpty(t, detailOf(t, body))

	res, body = env.do(c, "POST", "/api/v1/users/logout", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, detailOf(t, body))

	res, _ = env.do(c, "POST", "/api/v1/tweets", map[string]string{"payload": "after logout"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}
