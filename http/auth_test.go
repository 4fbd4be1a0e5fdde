package http

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionCookie(t *testing.T, env *testEnv, c *http.Client) *http.Cookie {
	t.Helper()
	u, err := url.Parse(env.srv.URL)
	require.NoError(t, err)
	for _, ck := range c.Jar.Cookies(u) {
		if ck.Name == "session_token" {
			return ck
		}
	}
	return nil
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, Options{})
	alice := env.createUser("alice", "password1")
	c := env.client()

	res, body := env.do(c, "POST", "/api/v1/users/login",
		map[string]string{"username": " alice ", "password": "password1"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))

	var user userResponse
	decode(t, body, &user)
	assert.Equal(t, alice.ID, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.NotNil(t, user.LastLogin)
	assert.NotContains(t, string(body), "password")

	var setCookie *http.Cookie
	for _, ck := range res.Cookies() {
		if ck.Name == "session_token" {
			setCookie = ck
		}
	}
	require.NotNil(t, setCookie)
	assert.True(t, setCookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, setCookie.SameSite)
	assert.Equal(t, 336*60*60, setCookie.MaxAge)

	res, _ = env.do(c, "GET", "/api/v1/tweets", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestLoginFailure(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.createUser("alice", "password1")
	c := env.client()

	for _, creds := range []map[string]string{
		{"username": "alice", "password": "wrong-password"},
		{"username": "nobody", "password": "password1"},
	} {
		res, body := env.do(c, "POST", "/api/v1/users/login", creds)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.JSONEq(t, `{"non_field_errors":["Unable to log in with provided credentials."]}`, string(body))
	}
	assert.Nil(t, sessionCookie(t, env, c))

	res, body := env.do(c, "POST", "/api/v1/users/login", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.JSONEq(t, `{"username":["This field is required."],"password":["This field is required."]}`, string(body))

	res, body = env.do(c, "POST", "/api/v1/users/login", "not an object")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, detailOf(t, body), "JSON parse error")
}

func TestLoginReplacesSession(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.createUser("alice", "password1")
	c := env.login("alice", "password1")
	old := sessionCookie(t, env, c)
	require.NotNil(t, old)

	res, _ := env.do(c, "POST", "/api/v1/users/login",
		map[string]string{"username": "alice", "password": "password1"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	current := sessionCookie(t, env, c)
	require.NotNil(t, current)
	assert.NotEqual(t, old.Value, current.Value)

	// The old session is gone.
	_, err := env.services.Session.UserID(context.Background(), old.Value)
	assert.Error(t, err)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.createUser("alice", "password1")
	c := env.login("alice", "password1")
	token := sessionCookie(t, env, c).Value

	res, body := env.do(c, "POST", "/api/v1/users/logout", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"detail":"Successfully logged out."}`, string(body))
	assert.Nil(t, sessionCookie(t, env, c))

	// Replaying the old token doesn't work either.
	anon := env.client()
	res, _ = env.do(anon, "GET", "/api/v1/tweets", nil, "Cookie", "session_token="+token)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body = env.do(c, "POST", "/api/v1/users/logout", nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "Authentication credentials were not provided.", detailOf(t, body))
}

func TestUnknownSessionIsAnonymous(t *testing.T) {
	env := newTestEnv(t, Options{})
	res, _ := env.do(env.client(), "GET", "/api/v1/tweets", nil, "Cookie", "session_token=bogus")
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestUpdatePassword(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.createUser("alice", "password1")
	c := env.login("alice", "password1")

	tests := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{"wrong current", map[string]string{
			"current_password": "wrong-one", "new_password": "password2", "new_password_confirm": "password2",
		}, "current_password"},
		{"reused", map[string]string{
			"current_password": "password1", "new_password": "password1", "new_password_confirm": "password1",
		}, "new_password"},
		{"mismatch", map[string]string{
			"current_password": "password1", "new_password": "password2", "new_password_confirm": "password3",
		}, "new_password_confirm"},
		{"too short", map[string]string{
			"current_password": "password1", "new_password": "short", "new_password_confirm": "short",
		}, "new_password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, body := env.do(c, "PUT", "/api/v1/users/password", tc.body)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			var fields map[string][]string
			decode(t, body, &fields)
			assert.Contains(t, fields, tc.field)
		})
	}

	res, body := env.do(c, "PUT", "/api/v1/users/password", map[string]string{
		"current_password": "password1", "new_password": "password2", "new_password_confirm": "password2",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	assert.JSONEq(t, `{"detail":"Password has been changed."}`, string(body))

	res, _ = env.do(env.client(), "POST", "/api/v1/users/login",
		map[string]string{"username": "alice", "password": "password1"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	env.login("alice", "password2")
}

func TestUpdatePasswordReportsEveryInvalidField(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.createUser("alice", "password1")
	c := env.login("alice", "password1")

	res, body := env.do(c, "PUT", "/api/v1/users/password", map[string]string{
		"current_password": "wrong-one", "new_password": "short", "new_password_confirm": "short",
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.JSONEq(t, `{
		"current_password": ["The current password is incorrect."],
		"new_password": ["Ensure this field has at least 8 characters."],
		"new_password_confirm": ["Ensure this field has at least 8 characters."]
	}`, string(body))

	res, body = env.do(c, "PUT", "/api/v1/users/password", map[string]string{
		"current_password": "", "new_password": "short", "new_password_confirm": "password2",
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.JSONEq(t, `{
		"current_password": ["This field is required."],
		"new_password": ["Ensure this field has at least 8 characters."]
	}`, string(body))

	env.login("alice", "password1")
}

func TestUpdatePasswordAnonymous(t *testing.T) {
	env := newTestEnv(t, Options{})
	res, _ := env.do(env.client(), "PUT", "/api/v1/users/password", map[string]string{
		"current_password": "password1", "new_password": "password2", "new_password_confirm": "password2",
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestTrustedHeaderMode(t *testing.T) {
	env := newTestEnv(t, Options{AuthMode: AuthModeTrustedHeader})
	alice := env.createUser("alice", "password1")
	c := env.client()

	res, body := env.do(c, "POST", "/api/v1/tweets", map[string]string{"payload": "via header"},
		"X-Username", "alice")
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var tweet tweetResponse
	decode(t, body, &tweet)
	assert.Equal(t, alice.ID, tweet.User)

	res, _ = env.do(c, "GET", "/api/v1/tweets", nil, "X-Username", "nobody")
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	res, _ = env.do(c, "GET", "/api/v1/tweets", nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	// Session cookies are ignored in this mode.
	login, _ := env.do(c, "POST", "/api/v1/users/login",
		map[string]string{"username": "alice", "password": "password1"})
	require.Equal(t, http.StatusOK, login.StatusCode)
	res, _ = env.do(c, "GET", "/api/v1/tweets", nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestSessionModeIgnoresHeader(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.createUser("alice", "password1")

	res, _ := env.do(env.client(), "GET", "/api/v1/tweets", nil, "X-Username", "alice")
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}
