package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"greenmag/auth"
	"greenmag/errs"
)

func (s *Server) registerCommentRoutes(r *mux.Router) {
	r.HandleFunc("/comments", s.handleListComments).Methods("GET")
	r.HandleFunc("/comments", s.requireAuth(s.handleCreateComment)).Methods("POST")
	r.HandleFunc("/comments/{id:[0-9]+}", s.requireAuth(s.handleUpdateComment)).Methods("PUT")
	r.HandleFunc("/comments/{id:[0-9]+}", s.requireAuth(s.handleDeleteComment)).Methods("DELETE")
}

// newsIDParam reads the required newsId query parameter.
func newsIDParam(r *http.Request) (int, error) {
	id, err := queryInt(r, "newsId")
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errs.Invalid("newsId", "News ID is required.")
	}
	return id, nil
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	newsID, err := newsIDParam(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	comments, err := s.cs.List(r.Context(), newsID, page, limit)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, comments)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NewsID  int    `json:"newsId"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &body); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if body.NewsID <= 0 {
		errs.ReturnError(w, r, errs.Invalid("newsId", "News ID is required."))
		return
	}
	comment, err := s.cs.Create(r.Context(), auth.GetIdentity(r.Context()), body.NewsID, body.Content)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, comment)
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &body); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	comment, err := s.cs.Update(r.Context(), auth.GetIdentity(r.Context()), id, body.Content)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, comment)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.cs.Delete(r.Context(), auth.GetIdentity(r.Context()), id); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, &message{Message: "Comment deleted successfully."})
}
