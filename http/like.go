package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"greenmag/auth"
	"greenmag/errs"
)

func (s *Server) registerLikeRoutes(r *mux.Router) {
	r.HandleFunc("/likes", s.handleLikeStatus).Methods("GET")
	r.HandleFunc("/likes", s.requireAuth(s.handleToggleLike)).Methods("POST")
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NewsID int `json:"newsId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if body.NewsID <= 0 {
		errs.ReturnError(w, r, errs.Invalid("newsId", "News ID is required."))
		return
	}
	state, err := s.ls.Toggle(r.Context(), auth.GetIdentity(r.Context()), body.NewsID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, state)
}

// likeStatus is the body of GET /likes.
type likeStatus struct {
	TotalLikes int  `json:"totalLikes"`
	UserLiked  bool `json:"userLiked"`
}

func (s *Server) handleLikeStatus(w http.ResponseWriter, r *http.Request) {
	newsID, err := newsIDParam(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	state, err := s.ls.Status(r.Context(), auth.GetIdentity(r.Context()), newsID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, &likeStatus{TotalLikes: state.TotalLikes, UserLiked: state.Liked})
}
