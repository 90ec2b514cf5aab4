package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"greenmag/auth"
	"greenmag/domain"
	"greenmag/errs"
)

func (s *Server) registerAuthRoutes(r *mux.Router) {
	r.HandleFunc("/auth/register", s.handleRegister).Methods("POST")
	r.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/auth/me", s.requireAuth(s.handleMe)).Methods("GET")
}

// credentials is the body of register and login requests.
type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// session is returned on successful register and login.
type session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(r, &body); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	// Self-registered accounts are always readers.
	user := domain.User{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
		Role:     domain.RoleUser,
	}
	if err := s.us.Register(r.Context(), &user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	s.signIn(w, r, http.StatusCreated, &user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(r, &body); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	user, err := s.us.Authenticate(r.Context(), body.Email, body.Password)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	s.signIn(w, r, http.StatusOK, user)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	ident := auth.GetIdentity(r.Context())
	user, err := s.us.ByID(r.Context(), ident.UserID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, user)
}

// signIn issues a credential for user and writes it together with the user.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, status int, user *domain.User) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, status, &session{Token: token, User: user})
}
