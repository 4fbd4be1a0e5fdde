package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"tweetapi/auth"
	"tweetapi/domain"
	"tweetapi/errs"
	"tweetapi/validation"
)

const msgTweetNotFound = "The tweet does not exist."

func (s *Server) registerTweetRoutes(r *mux.Router) {
	// List all tweets, newest first.
	r.HandleFunc("/api/v1/tweets", s.requireAuth(s.handleListTweets)).Methods("GET")

	// Post a new tweet as the authed user.
	r.HandleFunc("/api/v1/tweets", s.requireAuth(s.handleCreateTweet)).Methods("POST")

	// Get, edit or delete a single tweet. Only its author may edit or delete it.
	r.HandleFunc("/api/v1/tweets/{id:[0-9]+}", s.requireAuth(s.handleGetTweet)).Methods("GET")
	r.HandleFunc("/api/v1/tweets/{id:[0-9]+}", s.requireAuth(s.handleUpdateTweet)).Methods("PUT")
	r.HandleFunc("/api/v1/tweets/{id:[0-9]+}", s.requireAuth(s.handleDeleteTweet)).Methods("DELETE")
}

// tweetInput is the body of tweet create and update requests. The author is
// never read from the body, it's always the authed user.
type tweetInput struct {
	Payload *string `json:"payload" validate:"required"`
}

// decodeTweetInput parses and validates a tweetInput and returns its trimmed payload.
func decodeTweetInput(w http.ResponseWriter, r *http.Request) (string, error) {
	var in tweetInput
	if err := decodeJSON(w, r, &in); err != nil {
		return "", err
	}
	if err := validation.Struct(&in); err != nil {
		return "", err
	}
	return strings.TrimSpace(*in.Payload), nil
}

// handleListTweets handles the route "GET /api/v1/tweets".
func (s *Server) handleListTweets(w http.ResponseWriter, r *http.Request) {
	tweets, err := s.ts.All(r.Context())
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, newTweetResponses(tweets))
}

// handleCreateTweet handles the route "POST /api/v1/tweets".
func (s *Server) handleCreateTweet(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeTweetInput(w, r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	tweet := &domain.Tweet{
		UserID:  auth.GetUser(r.Context()).ID,
		Payload: payload,
	}
	if err := s.ts.Create(r.Context(), tweet); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, newTweetResponse(tweet))
}

// handleGetTweet handles the route "GET /api/v1/tweets/{id}".
func (s *Server) handleGetTweet(w http.ResponseWriter, r *http.Request) {
	tweet, err := s.tweetFromPath(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, newTweetResponse(tweet))
}

// handleUpdateTweet handles the route "PUT /api/v1/tweets/{id}".
// The tweet has to exist and belong to the authed user before the body is even looked at.
func (s *Server) handleUpdateTweet(w http.ResponseWriter, r *http.Request) {
	tweet, err := s.ownTweetFromPath(r, "You can only edit your own tweets.")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	payload, err := decodeTweetInput(w, r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	tweet.Payload = payload
	if err := s.ts.Update(r.Context(), tweet); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, newTweetResponse(tweet))
}

// handleDeleteTweet handles the route "DELETE /api/v1/tweets/{id}".
func (s *Server) handleDeleteTweet(w http.ResponseWriter, r *http.Request) {
	tweet, err := s.ownTweetFromPath(r, "You can only delete your own tweets.")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	if err := s.ts.Delete(r.Context(), tweet); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// tweetFromPath looks up the tweet whose ID is in the route.
func (s *Server) tweetFromPath(r *http.Request) (*domain.Tweet, error) {
	id, err := idVar(r, "id", msgTweetNotFound)
	if err != nil {
		return nil, err
	}
	return s.ts.ByID(r.Context(), id)
}

// ownTweetFromPath looks up the tweet whose ID is in the route and makes sure
// it was posted by the authed user. Otherwise it returns EFORBIDDEN with denyMsg.
func (s *Server) ownTweetFromPath(r *http.Request, denyMsg string) (*domain.Tweet, error) {
	tweet, err := s.tweetFromPath(r)
	if err != nil {
		return nil, err
	}
	if tweet.UserID != auth.GetUser(r.Context()).ID {
		return nil, errs.Errorf(errs.EFORBIDDEN, denyMsg)
	}
	return tweet, nil
}
