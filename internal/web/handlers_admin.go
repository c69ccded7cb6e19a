package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/albaseet/catalog/internal/catalog"
	"github.com/albaseet/catalog/internal/core"
)

// handleCreateProduct stores one product from a JSON draft.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var d catalog.Draft
	if err := decodeJSON(w, r, &d); err != nil {
		s.respondError(w, r, err)
		return
	}

	p, err := s.service.CreateProduct(r.Context(), d)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusCreated, p)
}

// handleUpdateProduct applies a partial update. Omitted fields are kept.
func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var patch catalog.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.respondError(w, r, err)
		return
	}

	p, err := s.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type stockRequest struct {
	Stock *int `json:"stock"`
}

// handleUpdateStock sets the stock of one size, addressed by its position
// in the product's size list.
func (s *Server) handleUpdateStock(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: size index %q", core.ErrInvalidBody, chi.URLParam(r, "index")))
		return
	}

	var req stockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Stock == nil {
		s.respondError(w, r, core.ValidationErrors{{Field: "stock", Message: "is required"}})
		return
	}

	p, err := s.service.UpdateStock(r.Context(), chi.URLParam(r, "id"), index, *req.Stock)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, p)
}

// handleRefreshProducts reloads the catalog snapshot from the database.
func (s *Server) handleRefreshProducts(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Refresh(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	products, err := s.service.Products(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, map[string]int{"count": len(products)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, stats)
}

func (s *Server) handleLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := s.service.LowStock(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, newProductList(products))
}

func (s *Server) handleOutOfStock(w http.ResponseWriter, r *http.Request) {
	products, err := s.service.OutOfStock(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, newProductList(products))
}
