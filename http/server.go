package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"greenmag/auth"
	"greenmag/crud"
	"greenmag/domain"
	"greenmag/errs"
	"greenmag/log"
)

// maxBodyBytes caps json request bodies.
const maxBodyBytes = 1 << 20

// Server provides the http functionality of this app, namely routing,
// request handling, and middleware. It resolves the caller's identity from
// the bearer credential and hands everything else over to the crud services,
// which make the access decisions.
type Server struct {
	router *mux.Router
	tokens *auth.Tokens
	us     domain.UserService
	as     domain.ArticleService
	cs     domain.CommentService
	ls     domain.LikeService
	ss     domain.StatsService
}

// NewServer returns a new instance of the server, registers all necessary
// routes and gives their handlers access to the services passed in.
func NewServer(services *crud.Services, tokens *auth.Tokens) *Server {
	s := &Server{
		router: mux.NewRouter(),
		tokens: tokens,
		us:     services.User,
		as:     services.Article,
		cs:     services.Comment,
		ls:     services.Like,
		ss:     services.Stats,
	}

	api := s.router.PathPrefix("/api").Subrouter()
	s.registerAuthRoutes(api)
	s.registerArticleRoutes(api)
	s.registerCommentRoutes(api)
	s.registerLikeRoutes(api)
	s.registerStatsRoutes(api)

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNoRoute)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.handleNoRoute)

	// Set up middleware that needs to run on every matched request.
	s.router.Use(requestID, logRequests, setContentTypeJSON, s.identify)
	return s
}

// routeMethods are the methods tried when looking for an Allow list.
var routeMethods = []string{"GET", "POST", "PUT", "DELETE"}

// handleNoRoute answers requests no route accepts: 405 with an Allow header
// when the path exists for other methods, 404 otherwise.
func (s *Server) handleNoRoute(w http.ResponseWriter, r *http.Request) {
	allowed := s.allowedMethods(r)
	if len(allowed) == 0 {
		errs.ReturnError(w, r, errs.Errorf(errs.ENOTFOUND, "No such endpoint."))
		return
	}
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	json.NewEncoder(w).Encode(map[string]string{"error": "Method not allowed.", "code": "method_not_allowed"})
}

// allowedMethods lists the methods a route exists for at r's path.
func (s *Server) allowedMethods(r *http.Request) []string {
	var allowed []string
	for _, method := range routeMethods {
		req := r.Clone(r.Context())
		req.Method = method
		var match mux.RouteMatch
		if s.router.Match(req, &match) && match.MatchErr == nil && match.Route != nil {
			allowed = append(allowed, method)
		}
	}
	return allowed
}

// ServeHTTP makes the server usable as an http.Handler, e.g. in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run starts to listen and serve on the specified port. It only returns on failure.
func (s *Server) Run(port int) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	log.Log.WithField("port", port).Info("listening")
	return srv.ListenAndServe()
}

// The setContentTypeJSON middleware sets the content type to "application/json".
func setContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// The requestID middleware makes sure every request carries an X-Request-ID
// header and echoes it back, so log lines can be correlated with responses.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// The logRequests middleware logs one line per request once it has been served.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  r.Header.Get("X-Request-ID"),
		}).Info("request")
	})
}

// The identify middleware puts the identity carried by a valid bearer
// credential into the request context. Requests without one, or with an
// invalid one, continue anonymously; requireAuth rejects them where needed.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		ident, err := s.tokens.Verify(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.SetIdentity(r.Context(), ident)))
	})
}

// requireAuth answers 401 unless identify found a valid credential. The
// response says why the presented credential was rejected, if there was one.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth.GetIdentity(r.Context()) != nil {
			next(w, r)
			return
		}
		_, err := s.tokens.Verify(auth.BearerToken(r))
		if err == nil {
			err = errs.Errorf(errs.EUNAUTHORIZED, "A credential is required.")
		}
		errs.ReturnError(w, r, err)
	}
}

// decodeJSON reads a json request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return errs.Errorf(errs.EINVALID, "The request body is empty.")
	}
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return errs.Invalid(typeErr.Field, "The field %s has the wrong type.", typeErr.Field)
		}
		return errs.Errorf(errs.EINVALID, "The request body is not valid json.")
	}
	return nil
}

// respond writes v as json with the given status code.
func respond(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		errs.LogError(r, fmt.Errorf("encode response: %w", err))
	}
}

// pathID parses the numeric {id} route variable.
func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, errs.Invalid("id", "Invalid id format.")
	}
	return id, nil
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errs.Invalid(name, "The %s parameter must be an integer.", name)
	}
	return n, nil
}

// queryString returns a pointer to a query parameter, or nil when it is absent or empty.
func queryString(r *http.Request, name string) *string {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	return &v
}

// message is the body of responses that carry no resource.
type message struct {
	Message string `json:"message"`
}
