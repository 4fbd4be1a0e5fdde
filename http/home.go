package http

import (
	"html/template"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"

	"tweetapi/errs"
)

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Tweets</title></head>
<body>
<h1>Tweets</h1>
{{if .}}<ul>
{{range .}}<li><strong>{{.Username}}</strong> {{.Payload}} <small>{{.CreatedAt.Format "2006-01-02 15:04"}}</small></li>
{{end}}</ul>
{{else}}<p>No tweets yet.</p>
{{end}}</body>
</html>
`))

func (s *Server) registerHomeRoutes(r *mux.Router) {
	// Public html page listing every tweet.
	r.HandleFunc("/", s.handleHome).Methods("GET")

	// Liveness and readiness check for load balancers.
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
}

// handleHome handles the route "GET /".
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	tweets, err := s.ts.All(r.Context())
	if err != nil {
		errs.LogError(r, err)
		http.Error(w, "Internal error.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, newTweetResponses(tweets)); err != nil {
		errs.LogError(r, err)
	}
}

// handleHealth handles the route "GET /healthz".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Health != nil {
		if err := s.opts.Health(r.Context()); err != nil {
			errs.LogError(r, err)
			respond(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCSRFToken handles the route "GET /api/v1/csrf".
// The token is empty if CSRF protection is disabled.
func (s *Server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	token := ""
	if len(s.opts.CSRFKey) > 0 {
		token = csrf.Token(r)
	}
	respond(w, r, http.StatusOK, map[string]string{"csrf_token": token})
}
