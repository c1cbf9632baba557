package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"EcoFinds/pkg/kit"
)

// Server exposes the read side of the catalog.
type Server struct {
	Store Store
	Log   *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)
	r.Get("/categories", s.categories)

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{
		Query:    q.Get("q"),
		Category: Category(q.Get("category")),
	}

	products, err := s.Store.List(r.Context(), f)
	if err != nil {
		s.logErr("list products failed", err)
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.logErr("get product failed", err, zap.String("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) categories(w http.ResponseWriter, _ *http.Request) {
	out := make([]Category, 0, len(Categories)+1)
	out = append(out, All)
	out = append(out, Categories...)
	kit.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) logErr(msg string, err error, fields ...zap.Field) {
	if s.Log == nil {
		return
	}
	s.Log.Error(msg, append(fields, zap.Error(err))...)
}
