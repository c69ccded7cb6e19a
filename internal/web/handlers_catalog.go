package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/albaseet/catalog/internal/catalog"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListCategories returns the bilingual category and subcategory lists.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, r, http.StatusOK, map[string][]catalog.Option{
		"categories":    catalog.Categories,
		"subcategories": catalog.Subcategories,
	})
}

// handleListProducts filters and sorts the catalog from the query string,
// e.g. /api/products?category=padel&search=court&sort=price-asc&lang=ar.
// Malformed parameters fall back to defaults instead of failing.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.service.Query(r.Context(), catalog.ParseCriteria(r.URL.Query()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, newProductList(products))
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, p)
}
