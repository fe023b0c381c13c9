package server

import (
	"net/http"

	"lexdesk/internal/practice"
)

func (s *Server) registerAPI(mux *http.ServeMux) {
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.authenticated(h))
	}

	// profiles
	handle("GET /api/me", s.handleMe)
	handle("PATCH /api/me", s.handleUpdateMe)
	handle("DELETE /api/sessions/current", s.handleSignOut)
	handle("GET /api/profiles", s.handleListProfiles)

	// clients
	handle("POST /api/clients", s.handleCreateClient)
	handle("GET /api/clients", s.handleListClients)
	handle("GET /api/clients/{id}", s.handleGetClient)

	// cases and tasks
	handle("POST /api/cases", s.handleCreateCase)
	handle("GET /api/cases", s.handleListCases)
	handle("POST /api/cases/move", s.handleMoveCase)
	handle("GET /api/cases/{id}", s.handleGetCase)
	handle("PATCH /api/cases/{id}", s.handleUpdateCase)
	handle("PUT /api/cases/{id}/deadline", s.handleSetDeadline)
	handle("POST /api/cases/{id}/toggle-task", s.handleToggleTask)
	handle("POST /api/cases/{id}/share", s.handleShareCase)
	handle("GET /api/tasks", s.handleListTasks)
	handle("DELETE /api/tasks/{id}", s.handleDeleteTask)

	// folders
	handle("POST /api/folders/{kind}", s.handleCreateFolder)
	handle("GET /api/folders/{kind}", s.handleListFolders)
	handle("PATCH /api/folders/{kind}/{id}", s.handleMoveFolder)

	// documents
	handle("POST /api/documents", s.handleUploadDocument)
	handle("GET /api/documents", s.handleListDocuments)
	handle("POST /api/documents/move", s.handleMoveDocument)
	handle("GET /api/documents/{id}", s.handleGetDocument)
	handle("GET /api/documents/{id}/content", s.handleDownloadDocument)
	handle("POST /api/documents/{id}/share", s.handleShareDocument)
	handle("GET /api/documents/{id}/audit", s.handleDocumentAudit)

	// messages
	handle("POST /api/messages", s.handleSendMessage)
	handle("GET /api/messages", s.handleListConversation)
	handle("PATCH /api/messages/{id}", s.handleUpdateMessage)
	handle("GET /api/messages/{id}/attachments/{attachmentID}", s.handleDownloadAttachment)

	// billing and reporting
	handle("POST /api/time-entries", s.handleRecordTimeEntry)
	handle("GET /api/time-entries", s.handleListTimeEntries)
	handle("GET /api/invoices", s.handleListInvoices)
	handle("GET /api/reports/dashboard", s.handleDashboard)
}

// apiError reports a REST failure; unclassified errors are 500s.
func (s *Server) apiError(w http.ResponseWriter, err error) {
	s.writeError(w, err, http.StatusInternalServerError)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var in practice.ProfilePatch
	if err := decodeJSON(r, &in); err != nil {
		s.apiError(w, err)
		return
	}
	p, err := s.svc.UpdateProfile(r.Context(), userID(r), in)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleSignOut revokes the token the request was authenticated with.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RevokeToken(r.Context(), bearerToken(r)); err != nil {
		s.apiError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.svc.ListProfiles(r.Context(), userID(r))
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var in practice.ClientInput
	if err := decodeJSON(r, &in); err != nil {
		s.apiError(w, err)
		return
	}
	c, err := s.svc.CreateClient(r.Context(), userID(r), in)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.svc.ListClients(r.Context(), userID(r))
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.GetClient(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func caseFilter(r *http.Request) (practice.CaseFilter, error) {
	q := r.URL.Query()
	bucket, err := practice.ParseDeadlineBucket(q.Get("deadline"))
	if err != nil {
		return practice.CaseFilter{}, err
	}
	return practice.CaseFilter{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		Deadline: bucket,
		Sort:     q.Get("sort"),
	}, nil
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var in practice.CaseInput
	if err := decodeJSON(r, &in); err != nil {
		s.apiError(w, err)
		return
	}
	c, err := s.svc.CreateCase(r.Context(), userID(r), in)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	f, err := caseFilter(r)
	if err != nil {
		s.apiError(w, err)
		return
	}
	cases, err := s.svc.ListCases(r.Context(), userID(r), f)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	f, err := caseFilter(r)
	if err != nil {
		s.apiError(w, err)
		return
	}
	tasks, err := s.svc.ListTasks(r.Context(), userID(r), f)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.GetCase(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCase(w http.ResponseWriter, r *http.Request) {
	var p practice.CasePatch
	if err := decodeJSON(r, &p); err != nil {
		s.apiError(w, err)
		return
	}
	c, err := s.svc.UpdateCase(r.Context(), userID(r), r.PathValue("id"), p)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleSetDeadline(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Deadline *string `json:"deadline"`
	}
	if err := decodeJSON(r, &in); err != nil {
		s.apiError(w, err)
		return
	}
	var deadline string
	if in.Deadline != nil {
		deadline = *in.Deadline
	}
	t, err := optionalTime(deadline)
	if err != nil {
		s.apiError(w, err)
		return
	}
	c, err := s.svc.SetDeadline(r.Context(), userID(r), r.PathValue("id"), t)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.ToggleTask(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTask(r.Context(), userID(r), r.PathValue("id")); err != nil {
		s.apiError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type shareRequest struct {
	Email      string                   `json:"email"`
	Permission practice.PermissionLevel `json:"permission"`
}

func (s *Server) handleShareCase(w http.ResponseWriter, r *http.Request) {
	var in shareRequest
	if err := decodeJSON(r, &in); err != nil {
		s.apiError(w, err)
		return
	}
	p, err := s.svc.ShareCase(r.Context(), userID(r), r.PathValue("id"), in.Email, in.Permission)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleMoveCase(w http.ResponseWriter, r *http.Request) {
	var d practice.Drag
	if err := decodeJSON(r, &d); err != nil {
		s.apiError(w, err)
		return
	}
	moved, err := s.svc.MoveCase(r.Context(), userID(r), d)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"moved": moved})
}

type folderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_folder_id"`
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var in folderRequest
	if err := decodeJSON(r, &in); err != nil {
		s.apiError(w, err)
		return
	}
	kind := practice.FolderKind(r.PathValue("kind"))
	f, err := s.svc.CreateFolder(r.Context(), userID(r), kind, in.Name, in.ParentID)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	kind := practice.FolderKind(r.PathValue("kind"))
	folders, err := s.svc.ListFolders(r.Context(), userID(r), kind, optionalID(r.URL.Query().Get("parent")))
	if err != nil {
		s.apiError(w, err)
		return
	}
	if folders == nil {
		folders = []*practice.Folder{}
	}
	writeJSON(w, http.StatusOK, folders)
}

func (s *Server) handleMoveFolder(w http.ResponseWriter, r *http.Request) {
	var in folderRequest
	if err := decodeJSON(r, &in); err != nil {
		s.apiError(w, err)
		return
	}
	kind := practice.FolderKind(r.PathValue("kind"))
	f, err := s.svc.MoveFolder(r.Context(), userID(r), kind, r.PathValue("id"), in.ParentID)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var in practice.MessageInput
	if err := decodeJSON(r, &in); err != nil {
		s.apiError(w, err)
		return
	}
	m, err := s.svc.SendMessage(r.Context(), userID(r), in)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListConversation(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.svc.ListConversation(r.Context(), userID(r), r.URL.Query().Get("with"))
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleUpdateMessage(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status practice.MessageStatus `json:"status"`
	}
	if err := decodeJSON(r, &in); err != nil {
		s.apiError(w, err)
		return
	}
	m, err := s.svc.UpdateMessageStatus(r.Context(), userID(r), r.PathValue("id"), in.Status)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleRecordTimeEntry(w http.ResponseWriter, r *http.Request) {
	var in practice.TimeEntryInput
	if err := decodeJSON(r, &in); err != nil {
		s.apiError(w, err)
		return
	}
	e, err := s.svc.RecordTimeEntry(r.Context(), userID(r), in)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleListTimeEntries(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r)
	if err != nil {
		s.apiError(w, err)
		return
	}
	entries, err := s.svc.ListTimeEntries(r.Context(), userID(r), from, to)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r)
	if err != nil {
		s.apiError(w, err)
		return
	}
	invoices, err := s.svc.ListInvoices(r.Context(), userID(r), practice.InvoiceFilter{
		From:   from,
		To:     to,
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r)
	if err != nil {
		s.apiError(w, err)
		return
	}
	var rng practice.ReportRange
	if from != nil {
		rng.From = *from
	}
	if to != nil {
		rng.To = *to
	}
	rep, err := s.svc.Dashboard(r.Context(), userID(r), rng)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
