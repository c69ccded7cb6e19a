package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/albaseet/catalog/internal/core"
	"github.com/albaseet/catalog/internal/importer"
)

// Multipart framing allowance on top of the file size limit, and the part
// of the form kept in memory before spilling to disk.
const (
	multipartOverhead = 1 << 20
	multipartMemory   = 8 << 20
)

var templateContentTypes = map[importer.Format]string{
	importer.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	importer.FormatCSV:  "text/csv; charset=utf-8",
	importer.FormatTSV:  "text/tab-separated-values; charset=utf-8",
}

// handlePreviewImport parses an uploaded spreadsheet (multipart field "file")
// and returns the accepted drafts and the rejected rows without saving.
func (s *Server) handlePreviewImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.service.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge), strings.Contains(err.Error(), "request body too large"):
			err = fmt.Errorf("upload over %d bytes: %w", maxSize, core.ErrFileTooLarge)
		case errors.Is(err, http.ErrNotMultipart):
			err = fmt.Errorf("%w: %v", core.ErrNoFile, err)
		default:
			err = fmt.Errorf("%w: %v", core.ErrInvalidBody, err)
		}
		s.respondError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}
	defer file.Close()

	preview, err := s.service.PreviewImport(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, preview)
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	preview, err := s.service.GetImport(chi.URLParam(r, "importID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, preview)
}

// handleCommitImport saves the accepted rows of a previewed import.
func (s *Server) handleCommitImport(w http.ResponseWriter, r *http.Request) {
	commit, err := s.service.CommitImport(r.Context(), chi.URLParam(r, "importID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusCreated, commit)
}

func (s *Server) handleDiscardImport(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DiscardImport(chi.URLParam(r, "importID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDownloadTemplate serves the import template. ?format= picks xlsx
// (default), csv or tsv.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	format := importer.FormatXLSX
	if f := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))); f != "" {
		format = importer.Format(f)
	}
	contentType, ok := templateContentTypes[format]
	if !ok {
		s.respondError(w, r, &importer.ParseError{Format: format, Err: importer.ErrUnsupportedFormat})
		return
	}

	var buf bytes.Buffer
	if err := importer.WriteTemplate(&buf, format); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, importer.TemplateFileName(format)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
