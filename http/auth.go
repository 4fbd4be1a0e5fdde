package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"tweetapi/auth"
	"tweetapi/domain"
	"tweetapi/errs"
	"tweetapi/logger"
	"tweetapi/validation"
)

func (s *Server) registerAuthRoutes(r *mux.Router) {
	// Sign in with username and password, which starts a new session.
	r.HandleFunc("/api/v1/users/login", s.handleLogin).Methods("POST")

	// End the current session.
	r.HandleFunc("/api/v1/users/logout", s.requireAuth(s.handleLogout)).Methods("POST")

	// Change the password of the authed user.
	r.HandleFunc("/api/v1/users/password", s.requireAuth(s.handleUpdatePassword)).Methods("PUT")

	// Get a CSRF token to send along with unsafe requests, if CSRF protection is on.
	r.HandleFunc("/api/v1/csrf", s.handleCSRFToken).Methods("GET")
}

type loginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type passwordInput struct {
	CurrentPassword    string `json:"current_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required"`
}

// handleLogin handles the route "POST /api/v1/users/login".
// It checks the submitted credentials, starts a new session and returns the user.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := decodeJSON(w, r, &in); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(&in); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	user, err := s.us.Authenticate(r.Context(), in.Username, in.Password)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	if err := s.signIn(w, r, user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, newUserResponse(user))
}

// handleLogout handles the route "POST /api/v1/users/logout".
// It destroys the current session and expires the session cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(s.opts.CookieName); err == nil && cookie.Value != "" {
		if err := s.ss.Delete(r.Context(), cookie.Value); err != nil && errs.ErrorCode(err) == errs.EINTERNAL {
			errs.ReturnError(w, r, err)
			return
		}
	}
	s.clearSessionCookie(w)
	respondDetail(w, r, http.StatusOK, "Successfully logged out.")
}

// handleUpdatePassword handles the route "PUT /api/v1/users/password".
// The authed user has to confirm the change with their current password.
func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var in passwordInput
	if err := decodeJSON(w, r, &in); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	user := auth.GetUser(r.Context())
	upd := &domain.PasswordUpdate{
		Current:    in.CurrentPassword,
		New:        in.NewPassword,
		NewConfirm: in.NewPasswordConfirm,
	}
	if err := validation.Struct(&in); err != nil {
		errs.ReturnError(w, r, errs.Join(err, s.us.CheckPasswordUpdate(r.Context(), user, upd)))
		return
	}
	if err := s.us.UpdatePassword(r.Context(), user, upd); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	respondDetail(w, r, http.StatusOK, "Password has been changed.")
}

// signIn starts a new session for the user and hands its token to the client in a cookie.
// A session the client already had is destroyed, so session IDs don't survive a login.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, user *domain.User) error {
	ctx := r.Context()
	if cookie, err := r.Cookie(s.opts.CookieName); err == nil && cookie.Value != "" {
		if err := s.ss.Delete(ctx, cookie.Value); err != nil && errs.ErrorCode(err) == errs.EINTERNAL {
			return err
		}
	}

	token, err := s.ss.Create(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := s.us.TouchLastLogin(ctx, user); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.opts.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// checkUser looks up the user of the session cookie and puts them into the request context.
// Requests without a valid session pass through anonymously.
func (s *Server) checkUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.opts.CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := s.ss.UserID(r.Context(), cookie.Value)
		if err != nil {
			s.logLookupFailure(r.Context(), err)
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.us.ByID(r.Context(), userID)
		if err != nil {
			s.logLookupFailure(r.Context(), err)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.SetUser(r.Context(), user)))
	})
}

// trustHeader authenticates requests by the username in the trusted header.
// It must only be used behind a proxy that sets that header itself.
func (s *Server) trustHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := r.Header.Get(s.opts.TrustedHeader)
		if username == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.us.ByUsername(r.Context(), username)
		if err != nil {
			s.logLookupFailure(r.Context(), err)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.SetUser(r.Context(), user)))
	})
}

// logLookupFailure logs errors of the authentication lookups that are not
// just unknown sessions or users.
func (s *Server) logLookupFailure(ctx context.Context, err error) {
	switch errs.ErrorCode(err) {
	case errs.ENOTFOUND, errs.EINVALID:
		return
	}
	logger.FromContext(ctx).WithError(err).Error("authentication lookup failed")
}

// requireAuth rejects anonymous requests with 403 Forbidden.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			errs.ReturnError(w, r, errs.Errorf(errs.EFORBIDDEN, "Authentication credentials were not provided."))
			return
		}
		next(w, r)
	}
}

// requireLogin rejects anonymous requests with 401 Unauthorized. Only the user list
// uses it; every other protected route answers anonymous requests with 403.
func (s *Server) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			errs.ReturnError(w, r, errs.Errorf(errs.EUNAUTHORIZED, "Login required."))
			return
		}
		next(w, r)
	}
}
