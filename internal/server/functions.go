package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"lexdesk/internal/integrations/calendar"
	"lexdesk/internal/integrations/research"
	"lexdesk/internal/practice"
)

// maxWebhookBody bounds payment webhook payloads.
const maxWebhookBody = 64 << 10

func (s *Server) registerFunctions(mux *http.ServeMux) {
	mux.HandleFunc("POST /functions/case-notifications", s.authenticated(s.handleCaseNotification))
	mux.HandleFunc("POST /functions/message-notifications", s.authenticated(s.handleMessageNotification))
	mux.HandleFunc("POST /functions/create-invoice", s.authenticated(s.handleCreateInvoice))
	mux.HandleFunc("POST /functions/stripe-webhook", s.handleStripeWebhook)
	mux.HandleFunc("POST /functions/get-calendar-events", s.authenticated(s.handleCalendarEvents))
	mux.HandleFunc("POST /functions/sync-task-calendar", s.authenticated(s.handleSyncTaskCalendar))
	mux.HandleFunc("POST /functions/search-opinions", s.authenticated(s.handleSearchOpinions))
	mux.HandleFunc("POST /functions/calculate-similarity", s.authenticated(s.handleSimilarity))
	mux.HandleFunc("POST /functions/time-entries", s.authenticated(s.handleTimeEntries))
	mux.HandleFunc("POST /functions/message-attachments", s.authenticated(s.handleMessageAttachment))
}

// fnError reports a function failure. Unclassified errors are 400s.
func (s *Server) fnError(w http.ResponseWriter, err error) {
	s.logger.Warn("function failed", "error", err)
	writeJSON(w, statusFor(err, http.StatusBadRequest), errorBody(err.Error()))
}

func notConfigured(name string) error {
	return fmt.Errorf("%w: %s is not configured", practice.ErrUpstream, name)
}

func (s *Server) handleCaseNotification(w http.ResponseWriter, r *http.Request) {
	var n practice.CaseNotification
	if err := decodeJSON(r, &n); err != nil {
		s.fnError(w, err)
		return
	}
	if err := s.svc.NotifyCase(r.Context(), n); err != nil {
		s.fnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification sent successfully"})
}

func (s *Server) handleMessageNotification(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ReceiverEmail string `json:"receiverEmail"`
		MessageType   string `json:"messageType"`
	}
	if err := decodeJSON(r, &in); err != nil {
		s.fnError(w, err)
		return
	}
	if err := s.svc.NotifyMessage(r.Context(), in.ReceiverEmail, in.MessageType); err != nil {
		s.fnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification sent successfully"})
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ClientID    string  `json:"client_id"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		DueDate     string  `json:"due_date"`
	}
	if err := decodeJSON(r, &in); err != nil {
		s.fnError(w, err)
		return
	}
	due, err := optionalTime(in.DueDate)
	if err != nil {
		s.fnError(w, err)
		return
	}
	inv, err := s.svc.CreateInvoice(r.Context(), userID(r), practice.InvoiceInput{
		ClientID:    in.ClientID,
		Amount:      in.Amount,
		Description: in.Description,
		DueDate:     due,
	})
	if err != nil {
		s.fnError(w, err)
		return
	}
	var external any
	if inv.ExternalID != "" {
		external = map[string]string{"id": inv.ExternalID}
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoice": external, "dbInvoice": inv})
}

// handleStripeWebhook verifies the signature before the service sees the
// event, so an unsigned payload never reaches the store.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if s.integ.Webhooks == nil {
		s.fnError(w, notConfigured("payment webhooks"))
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		s.fnError(w, fmt.Errorf("%w: reading payload: %v", practice.ErrInvalidInput, err))
		return
	}
	ev, err := s.integ.Webhooks.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		s.logger.Warn("rejected payment webhook", "error", err)
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if _, err := s.svc.ApplyPaymentEvent(r.Context(), ev); err != nil {
		s.fnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (s *Server) handleCalendarEvents(w http.ResponseWriter, r *http.Request) {
	if s.integ.Calendar == nil {
		s.fnError(w, notConfigured("Google OAuth"))
		return
	}
	var in struct {
		Date        string `json:"date"`
		AccessToken string `json:"accessToken"`
	}
	if err := decodeJSON(r, &in); err != nil {
		s.fnError(w, err)
		return
	}
	day, err := calendar.ParseDay(in.Date)
	if err != nil {
		s.fnError(w, err)
		return
	}
	events, err := s.integ.Calendar.EventsForDay(r.Context(), in.AccessToken, day)
	if err != nil {
		s.fnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleSyncTaskCalendar(w http.ResponseWriter, r *http.Request) {
	if s.integ.Calendar == nil {
		s.fnError(w, notConfigured("Google OAuth"))
		return
	}
	var in struct {
		Task        calendar.TaskEvent `json:"task"`
		AccessToken string             `json:"accessToken"`
	}
	if err := decodeJSON(r, &in); err != nil {
		s.fnError(w, err)
		return
	}
	ev, err := s.integ.Calendar.CreateDeadlineEvent(r.Context(), in.AccessToken, in.Task)
	if err != nil {
		s.fnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "event": ev})
}

func (s *Server) handleSearchOpinions(w http.ResponseWriter, r *http.Request) {
	if s.integ.Research == nil {
		s.fnError(w, notConfigured("opinion search"))
		return
	}
	var in research.SearchRequest
	if err := decodeJSON(r, &in); err != nil {
		s.fnError(w, err)
		return
	}
	out, err := s.integ.Research.Search(r.Context(), in)
	if err != nil {
		s.fnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	if s.integ.Similarity == nil {
		s.fnError(w, notConfigured("similarity scoring"))
		return
	}
	var in struct {
		Text1 string `json:"text1"`
		Text2 string `json:"text2"`
	}
	if err := decodeJSON(r, &in); err != nil {
		s.fnError(w, err)
		return
	}
	out, err := s.integ.Similarity.Score(r.Context(), in.Text1, in.Text2)
	if err != nil {
		s.fnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleTimeEntries relays the action and returns the tracker's payload.
// A local mirroring failure after the tracker accepted the action is logged
// by the service and does not fail the request.
func (s *Server) handleTimeEntries(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Action        string                `json:"action"`
		TimeEntryData practice.TrackRequest `json:"timeEntryData"`
	}
	if err := decodeJSON(r, &in); err != nil {
		s.fnError(w, err)
		return
	}
	tracked, entry, err := s.svc.TrackTime(r.Context(), userID(r), in.Action, in.TimeEntryData)
	if tracked == nil {
		s.fnError(w, err)
		return
	}
	if len(tracked.Raw) > 0 {
		writeJSON(w, http.StatusOK, json.RawMessage(tracked.Raw))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleMessageAttachment(w http.ResponseWriter, r *http.Request) {
	u, cleanup, err := readMultipartFile(w, r)
	if err != nil {
		s.fnError(w, err)
		return
	}
	defer cleanup()

	a, err := s.svc.AddAttachment(r.Context(), userID(r), r.FormValue("messageId"), r.FormValue("receiverEmail"), u)
	if err != nil {
		s.fnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "File uploaded successfully",
		"path":    a.StoragePath,
	})
}

// readMultipartFile parses a multipart body and returns its "file" part.
// The cleanup func releases the part and any temporary files.
func readMultipartFile(w http.ResponseWriter, r *http.Request) (practice.Upload, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return practice.Upload{}, nil, practice.ErrFileTooLarge
		}
		return practice.Upload{}, nil, fmt.Errorf("%w: invalid multipart form: %v", practice.ErrInvalidInput, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		r.MultipartForm.RemoveAll()
		return practice.Upload{}, nil, fmt.Errorf("%w: no file uploaded", practice.ErrInvalidInput)
	}
	cleanup := func() {
		file.Close()
		r.MultipartForm.RemoveAll()
	}
	return practice.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, cleanup, nil
}
