package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"lexdesk/internal/practice"
)

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	u, cleanup, err := readMultipartFile(w, r)
	if err != nil {
		s.apiError(w, err)
		return
	}
	defer cleanup()

	d, err := s.svc.UploadDocument(r.Context(), userID(r), practice.DocumentInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		FolderID:    optionalID(r.FormValue("folder_id")),
	}, u)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		s.apiError(w, err)
		return
	}
	size, err := queryInt(r, "page_size")
	if err != nil {
		s.apiError(w, err)
		return
	}
	q := r.URL.Query()
	res, err := s.svc.ListDocuments(r.Context(), userID(r), practice.DocumentFilter{
		FolderID: optionalID(q.Get("folder")),
		Search:   q.Get("search"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.GetDocument(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleDownloadDocument buffers the content so that a failed read still
// produces a JSON error instead of a truncated file.
func (s *Server) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	d, err := s.svc.DownloadDocument(r.Context(), userID(r), r.PathValue("id"), s.opts.Decryption, &buf)
	if err != nil {
		s.apiError(w, err)
		return
	}
	w.Header().Set("Content-Type", d.FileType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Title))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleDownloadAttachment(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	a, err := s.svc.DownloadAttachment(r.Context(), userID(r), r.PathValue("id"), r.PathValue("attachmentID"), s.opts.Decryption, &buf)
	if err != nil {
		s.apiError(w, err)
		return
	}
	w.Header().Set("Content-Type", a.FileType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.FileName))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleMoveDocument(w http.ResponseWriter, r *http.Request) {
	var d practice.Drag
	if err := decodeJSON(r, &d); err != nil {
		s.apiError(w, err)
		return
	}
	moved, err := s.svc.MoveDocument(r.Context(), userID(r), d)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"moved": moved})
}

func (s *Server) handleShareDocument(w http.ResponseWriter, r *http.Request) {
	var in shareRequest
	if err := decodeJSON(r, &in); err != nil {
		s.apiError(w, err)
		return
	}
	p, err := s.svc.ShareDocument(r.Context(), userID(r), r.PathValue("id"), in.Email, in.Permission)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDocumentAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.DocumentAudit(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
