package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"tweetapi/auth"
	"tweetapi/domain"
	"tweetapi/errs"
)

func (s *Server) registerLikeRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/tweets/{id:[0-9]+}/likes", s.requireAuth(s.handleCreateLike)).Methods("POST")
	r.HandleFunc("/api/v1/tweets/{id:[0-9]+}/likes", s.requireAuth(s.handleDeleteLike)).Methods("DELETE")
	r.HandleFunc("/api/v1/tweets/{id:[0-9]+}/likes", s.requireAuth(s.handleCountLikes)).Methods("GET")
}

// likeFromPath builds a Like of the authed user for the tweet in the route.
func likeFromPath(r *http.Request) (*domain.Like, error) {
	tweetID, err := idVar(r, "id", msgTweetNotFound)
	if err != nil {
		return nil, err
	}
	return &domain.Like{
		UserID:  auth.GetUser(r.Context()).ID,
		TweetID: tweetID,
	}, nil
}

// handleCreateLike handles the route "POST /api/v1/tweets/{id}/likes".
func (s *Server) handleCreateLike(w http.ResponseWriter, r *http.Request) {
	like, err := likeFromPath(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.ls.Create(r.Context(), like); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, newLikeResponse(like))
}

// handleDeleteLike handles the route "DELETE /api/v1/tweets/{id}/likes".
func (s *Server) handleDeleteLike(w http.ResponseWriter, r *http.Request) {
	like, err := likeFromPath(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.ls.Delete(r.Context(), like); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCountLikes handles the route "GET /api/v1/tweets/{id}/likes".
func (s *Server) handleCountLikes(w http.ResponseWriter, r *http.Request) {
	tweet, err := s.tweetFromPath(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	count, err := s.ls.CountByTweetID(r.Context(), tweet.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]int{"count": count})
}
