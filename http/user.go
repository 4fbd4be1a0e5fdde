package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"tweetapi/domain"
	"tweetapi/errs"
	"tweetapi/validation"
)

const msgUserNotFound = "The user does not exist."

func (s *Server) registerUserRoutes(r *mux.Router) {
	// List all users. Anonymous requests get 401 here, unlike anywhere else.
	r.HandleFunc("/api/v1/users", s.requireLogin(s.handleListUsers)).Methods("GET")

	// Register a new user.
	r.HandleFunc("/api/v1/users", s.handleRegister).Methods("POST")

	// Get a single user, and the tweets of a user.
	r.HandleFunc("/api/v1/users/{id:[0-9]+}", s.requireAuth(s.handleGetUser)).Methods("GET")
	r.HandleFunc("/api/v1/users/{id:[0-9]+}/tweets", s.requireAuth(s.handleListUserTweets)).Methods("GET")
}

type registerInput struct {
	Username        string `json:"username" validate:"required,max=150,username"`
	Email           string `json:"email" validate:"omitempty,max=254,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

// handleListUsers handles the route "GET /api/v1/users".
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.us.All(r.Context())
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, newUserResponses(users))
}

// handleRegister handles the route "POST /api/v1/users".
// It doesn't sign the new user in, that's up to a subsequent login.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := decodeJSON(w, r, &in); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	user := &domain.User{
		Username:        in.Username,
		Email:           in.Email,
		Password:        in.Password,
		PasswordConfirm: in.PasswordConfirm,
	}
	if err := validation.Struct(&in); err != nil {
		// Add what the user service has to say about the other fields.
		errs.ReturnError(w, r, errs.Join(err, s.us.CheckCreate(r.Context(), user)))
		return
	}
	if err := s.us.Create(r.Context(), user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, newUserResponse(user))
}

// handleGetUser handles the route "GET /api/v1/users/{id}".
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.userFromPath(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, newUserResponse(user))
}

// handleListUserTweets handles the route "GET /api/v1/users/{id}/tweets".
// An existing user without tweets yields an empty list, an unknown user 404.
func (s *Server) handleListUserTweets(w http.ResponseWriter, r *http.Request) {
	user, err := s.userFromPath(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	tweets, err := s.ts.ByUserID(r.Context(), user.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, newTweetResponses(tweets))
}

func (s *Server) userFromPath(r *http.Request) (*domain.User, error) {
	id, err := idVar(r, "id", msgUserNotFound)
	if err != nil {
		return nil, err
	}
	return s.us.ByID(r.Context(), id)
}
