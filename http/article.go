package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"greenmag/auth"
	"greenmag/domain"
	"greenmag/errs"
)

func (s *Server) registerArticleRoutes(r *mux.Router) {
	r.HandleFunc("/news", s.handleListArticles).Methods("GET")
	r.HandleFunc("/news", s.requireAuth(s.handleCreateArticle)).Methods("POST")
	r.HandleFunc("/news/slug/{slug}", s.handleArticleBySlug).Methods("GET")
	r.HandleFunc("/news/{id:[0-9]+}", s.handleArticleByID).Methods("GET")
	r.HandleFunc("/news/{id:[0-9]+}", s.requireAuth(s.handleUpdateArticle)).Methods("PUT")
	r.HandleFunc("/news/{id:[0-9]+}", s.requireAuth(s.handleDeleteArticle)).Methods("DELETE")
	r.HandleFunc("/news/{id:[0-9]+}/status", s.requireAuth(s.handleModerateArticle)).Methods("PUT")
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	var filter domain.ArticleFilter
	var err error
	if filter.Page, err = queryInt(r, "page"); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if v := queryString(r, "status"); v != nil {
		status := domain.Status(*v)
		filter.Status = &status
	}
	filter.Category = queryString(r, "category")
	filter.Search = queryString(r, "search")

	page, err := s.as.List(r.Context(), auth.GetIdentity(r.Context()), filter)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, page)
}

func (s *Server) handleArticleByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	article, err := s.as.ByID(r.Context(), auth.GetIdentity(r.Context()), id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, article)
}

func (s *Server) handleArticleBySlug(w http.ResponseWriter, r *http.Request) {
	article, err := s.as.BySlug(r.Context(), auth.GetIdentity(r.Context()), mux.Vars(r)["slug"])
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, article)
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var input domain.ArticleInput
	if err := decodeJSON(r, &input); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	article, err := s.as.Create(r.Context(), auth.GetIdentity(r.Context()), input)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, article)
}

// articleUpdate is the body of PUT /news/{id}. A status, if present, is
// applied as a moderation together with the field changes.
type articleUpdate struct {
	domain.ArticleUpdate
	Status *domain.Status `json:"status"`
}

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	var body articleUpdate
	if err := decodeJSON(r, &body); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	article, err := s.as.Revise(r.Context(), auth.GetIdentity(r.Context()), id, body.ArticleUpdate, body.Status)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, article)
}

func (s *Server) handleModerateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	var body struct {
		Status domain.Status `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	article, err := s.as.Moderate(r.Context(), auth.GetIdentity(r.Context()), id, body.Status)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, article)
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.as.Delete(r.Context(), auth.GetIdentity(r.Context()), id); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, &message{Message: "Article deleted successfully."})
}
