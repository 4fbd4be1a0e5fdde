package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"tweetapi/crud"
	"tweetapi/domain"
	"tweetapi/errs"
)

// Authentication modes. They are never combined: a server resolves users
// either from session cookies or from a trusted request header.
const (
	AuthModeSession       = "session"
	AuthModeTrustedHeader = "trusted-header"
)

// Options configures the parts of the Server that differ between deployments.
type Options struct {
	// CookieName is the name of the session cookie.
	CookieName string
	// CookieSecure marks the session cookie as https only.
	CookieSecure bool
	// SessionTTL is the lifetime of a session and of its cookie.
	SessionTTL time.Duration
	// AuthMode is AuthModeSession or AuthModeTrustedHeader.
	AuthMode string
	// TrustedHeader names the header carrying the username in AuthModeTrustedHeader.
	TrustedHeader string
	// CSRFKey enables CSRF protection if it's not empty. It must be 32 bytes long.
	CSRFKey []byte
	// Health reports whether the server's dependencies are reachable.
	Health func(ctx context.Context) error
}

// Server provides the http functionality of this app, namely routing,
// request handling, and middleware. It also performs authentication and
// authorization before handing things over to one of the crud services.
type Server struct {
	router  *mux.Router
	handler http.Handler
	log     *logrus.Logger
	opts    Options

	us domain.UserService
	ts domain.TweetService
	ls domain.LikeService
	ss domain.SessionService
}

// NewServer returns a new instance of the server, registers all necessary
// routes and gives their handlers access to the services passed in.
func NewServer(log *logrus.Logger, services *crud.Services, opts Options) *Server {
	if opts.CookieName == "" {
		opts.CookieName = "session_token"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 336 * time.Hour
	}
	if opts.AuthMode == "" {
		opts.AuthMode = AuthModeSession
	}
	if opts.TrustedHeader == "" {
		opts.TrustedHeader = "X-Username"
	}

	// Construct a new Server with a gorilla router and the services passed in.
	s := &Server{
		router: mux.NewRouter(),
		log:    log,
		opts:   opts,
		us:     services.User,
		ts:     services.Tweet,
		ls:     services.Like,
		ss:     services.Session,
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errs.ReturnError(w, r, errs.Errorf(errs.ENOTFOUND, "Not found."))
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"detail":"Method not allowed."}` + "\n"))
	})

	// Register the routes of the auth system.
	s.registerAuthRoutes(s.router)

	// Register the routes of the crud system.
	s.registerUserRoutes(s.router)
	s.registerTweetRoutes(s.router)
	s.registerLikeRoutes(s.router)

	// Register everything else.
	s.registerHomeRoutes(s.router)

	// Set up middleware that needs to run on every request, the outermost first.
	var h http.Handler = s.router
	if opts.AuthMode == AuthModeTrustedHeader {
		log.WithField("header", opts.TrustedHeader).
			Warn("trusting the username header, any client can impersonate any user")
		h = s.trustHeader(h)
	} else {
		h = s.checkUser(h)
	}
	if len(opts.CSRFKey) > 0 {
		h = csrf.Protect(opts.CSRFKey,
			csrf.Secure(opts.CookieSecure),
			csrf.Path("/"),
			csrf.ErrorHandler(http.HandlerFunc(handleCSRFFailure)),
		)(h)
	}
	h = s.logRequests(h)
	s.handler = h
	return s
}

// ServeHTTP makes the Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run listens and serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// handleCSRFFailure replies to requests rejected by the CSRF middleware.
func handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	errs.ReturnError(w, r, errs.Errorf(errs.EFORBIDDEN, "CSRF Failed: %s", csrf.FailureReason(r)))
}
