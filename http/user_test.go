package http

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t, Options{})
	c := env.client()

	res, body := env.do(c, "POST", "/api/v1/users", map[string]string{
		"username":         "alice",
		"email":            "alice@x.com",
		"password":         "password1",
		"password_confirm": "password1",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))

	var user userResponse
	decode(t, body, &user)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@x.com", user.Email)
	assert.False(t, user.DateJoined.IsZero())
	assert.Nil(t, user.LastLogin)
	assert.NotContains(t, string(body), "password")

	// Registering doesn't sign in.
	assert.Nil(t, sessionCookie(t, env, c))
	env.login("alice", "password1")

	res, body = env.do(c, "POST", "/api/v1/users", map[string]string{
		"username":         "동현",
		"password":         "password1",
		"password_confirm": "password1",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	decode(t, body, &user)
	assert.Equal(t, "동현", user.Username)
	env.login("동현", "password1")
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.createUser("taken", "password1")

	valid := func(overrides map[string]string) map[string]string {
		body := map[string]string{
			"username":         "alice",
			"email":            "alice@x.com",
			"password":         "password1",
			"password_confirm": "password1",
		}
		for k, v := range overrides {
			body[k] = v
		}
		return body
	}

	tests := []struct {
		name  string
		body  map[string]string
		field string
		msg   string
	}{
		{"duplicate username", valid(map[string]string{"username": "taken"}),
			"username", "A user with that username already exists."},
		{"mismatched passwords", valid(map[string]string{"password_confirm": "password2"}),
			"password_confirm", "Passwords do not match."},
		{"short password", valid(map[string]string{"password": "short", "password_confirm": "short"}),
			"password", "Ensure this field has at least 8 characters."},
		{"bad username", valid(map[string]string{"username": "al ice"}),
			"username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."},
		{"long username", valid(map[string]string{"username": strings.Repeat("a", 151)}),
			"username", "Ensure this field has no more than 150 characters."},
		{"bad email", valid(map[string]string{"email": "nope"}),
			"email", "Enter a valid email address."},
		{"missing username", valid(map[string]string{"username": ""}),
			"username", "This field is required."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, body := env.do(env.client(), "POST", "/api/v1/users", tc.body)
			require.Equal(t, http.StatusBadRequest, res.StatusCode, string(body))
			var fields map[string][]string
			decode(t, body, &fields)
			assert.Equal(t, []string{tc.msg}, fields[tc.field])
		})
	}

	// Email is optional.
	res, body := env.do(env.client(), "POST", "/api/v1/users", valid(map[string]string{"email": ""}))
	assert.Equal(t, http.StatusCreated, res.StatusCode, string(body))
}

func TestRegisterReportsEveryInvalidField(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.createUser("taken", "password1")

	tests := []struct {
		name string
		body map[string]string
		want string
	}{
		{"duplicate username and short passwords",
			map[string]string{"username": "taken", "password": "short", "password_confirm": "short"},
			`{
				"username": ["A user with that username already exists."],
				"password": ["Ensure this field has at least 8 characters."],
				"password_confirm": ["Ensure this field has at least 8 characters."]
			}`},
		{"bad username and short password",
			map[string]string{"username": "al ice", "password": "short", "password_confirm": "password1"},
			`{
				"username": ["Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."],
				"password": ["Ensure this field has at least 8 characters."]
			}`},
		{"missing password",
			map[string]string{"username": "alice", "password": "", "password_confirm": "password1"},
			`{"password": ["This field is required."]}`},
		// Whether the passwords match is only checked once the fields are valid.
		{"duplicate username and mismatched passwords",
			map[string]string{"username": "taken", "password": "password1", "password_confirm": "password2"},
			`{"username": ["A user with that username already exists."]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, body := env.do(env.client(), "POST", "/api/v1/users", tc.body)
			require.Equal(t, http.StatusBadRequest, res.StatusCode, string(body))
			assert.JSONEq(t, tc.want, string(body))
		})
	}
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.createUser("alice", "password1")
	env.createUser("bob", "password1")

	// The user list answers anonymous requests with 401, not 403.
	res, body := env.do(env.client(), "GET", "/api/v1/users", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "Login required.", detailOf(t, body))

	c := env.login("alice", "password1")
	res, body = env.do(c, "GET", "/api/v1/users", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var users []userResponse
	decode(t, body, &users)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	assert.NotContains(t, string(body), "password")
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t, Options{})
	bob := env.createUser("bob", "password1")
	env.createUser("alice", "password1")
	c := env.login("alice", "password1")

	res, body := env.do(c, "GET", fmt.Sprintf("/api/v1/users/%d", bob.ID), nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var user userResponse
	decode(t, body, &user)
	assert.Equal(t, "bob", user.Username)

	res, body = env.do(c, "GET", "/api/v1/users/99999", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "The user does not exist.", detailOf(t, body))

	res, _ = env.do(env.client(), "GET", fmt.Sprintf("/api/v1/users/%d", bob.ID), nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestUserTweets(t *testing.T) {
	env := newTestEnv(t, Options{})
	alice := env.createUser("alice", "password1")
	bob := env.createUser("bob", "password1")
	c := env.login("alice", "password1")

	for _, p := range []string{"first", "second"} {
		res, _ := env.do(c, "POST", "/api/v1/tweets", map[string]string{"payload": p})
		require.Equal(t, http.StatusCreated, res.StatusCode)
	}

	res, body := env.do(c, "GET", fmt.Sprintf("/api/v1/users/%d/tweets", alice.ID), nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var tweets []tweetResponse
	decode(t, body, &tweets)
	require.Len(t, tweets, 2)
	assert.Equal(t, "second", tweets[0].Payload)
	for _, tw := range tweets {
		assert.Equal(t, alice.ID, tw.User)
	}

	res, body = env.do(c, "GET", fmt.Sprintf("/api/v1/users/%d/tweets", bob.ID), nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	res, body = env.do(c, "GET", "/api/v1/users/99999/tweets", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.NotEmpty(t, detailOf(t, body))
}
