package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"lexdesk/internal/practice"
)

var t0 = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

// newTestStore creates a new in-memory store with the schema applied.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.MigrateUp(); err != nil {
		s.Close()
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func addProfile(t *testing.T, s *SQLiteStore, id string) *practice.Profile {
	t.Helper()
	p := &practice.Profile{
		ID: id, Email: id + "@example.com", FullName: id, Role: "lawyer",
		Timezone: "UTC", Language: "en", EmailNotifications: true,
		CreatedAt: t0, UpdatedAt: t0,
	}
	if err := s.CreateProfile(context.Background(), p); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	return p
}

func addCase(t *testing.T, s *SQLiteStore, id, owner, title string, created time.Time) *practice.Case {
	t.Helper()
	c := &practice.Case{
		ID: id, UserID: owner, Title: title,
		Status: practice.CaseActive, Priority: practice.PriorityMedium,
		CreatedAt: created, UpdatedAt: created,
	}
	if err := s.CreateCase(context.Background(), c); err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}
	return c
}

func ids[T any](items []*T, id func(*T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func caseID(c *practice.Case) string { return c.ID }

func TestSQLiteStore_Profiles(t *testing.T) {
	ctx := context.Background()

	t.Run("returns nil when profile not found", func(t *testing.T) {
		s := newTestStore(t)

		p, err := s.FindProfileByEmail(ctx, "nobody@example.com")
		if err != nil {
			t.Fatalf("FindProfileByEmail() error = %v", err)
		}
		if p != nil {
			t.Errorf("FindProfileByEmail() = %v, want nil", p)
		}
	})

	t.Run("finds created profile", func(t *testing.T) {
		s := newTestStore(t)
		want := addProfile(t, s, "alice")

		got, err := s.FindProfileByID(ctx, "alice")
		if err != nil {
			t.Fatalf("FindProfileByID() error = %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("FindProfileByID() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("sessions round trip", func(t *testing.T) {
		s := newTestStore(t)
		addProfile(t, s, "alice")
		sess := &practice.Session{ID: "s1", UserID: "alice", TokenHash: "abc", CreatedAt: t0, ExpiresAt: t0.Add(time.Hour)}
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}

		got, err := s.FindSessionByTokenHash(ctx, "abc")
		if err != nil {
			t.Fatalf("FindSessionByTokenHash() error = %v", err)
		}
		if diff := cmp.Diff(sess, got); diff != "" {
			t.Errorf("FindSessionByTokenHash() mismatch (-want +got):\n%s", diff)
		}

		if err := s.DeleteSessionByTokenHash(ctx, "abc"); err != nil {
			t.Fatalf("DeleteSessionByTokenHash() error = %v", err)
		}
		if got, err := s.FindSessionByTokenHash(ctx, "abc"); err != nil || got != nil {
			t.Errorf("FindSessionByTokenHash() after delete = %v, %v; want nil, nil", got, err)
		}
		if err := s.DeleteSessionByTokenHash(ctx, "abc"); !errors.Is(err, practice.ErrNotFound) {
			t.Errorf("DeleteSessionByTokenHash(again) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("updates editable columns only", func(t *testing.T) {
		s := newTestStore(t)
		p := addProfile(t, s, "alice")

		edit := *p
		edit.Email = "changed@example.com"
		edit.Role = "admin"
		edit.FullName = "Alice Liddell"
		edit.PhoneNumber = "555-0100"
		edit.Timezone = "Europe/London"
		edit.SMSNotifications = true
		edit.UpdatedAt = t0.Add(time.Hour)
		if err := s.UpdateProfile(ctx, &edit); err != nil {
			t.Fatalf("UpdateProfile() error = %v", err)
		}

		got, err := s.FindProfileByID(ctx, "alice")
		if err != nil {
			t.Fatalf("FindProfileByID() error = %v", err)
		}
		want := edit
		want.Email = p.Email
		want.Role = p.Role
		if diff := cmp.Diff(&want, got); diff != "" {
			t.Errorf("FindProfileByID() mismatch (-want +got):\n%s", diff)
		}

		if err := s.UpdateProfile(ctx, &practice.Profile{ID: "nobody"}); !errors.Is(err, practice.ErrNotFound) {
			t.Errorf("UpdateProfile(missing) error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStore_CaseRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addProfile(t, s, "alice")

	deadline := time.Date(2025, 2, 1, 17, 30, 0, 123, time.UTC)
	want := &practice.Case{
		ID: "c1", UserID: "alice", Title: "Smith v. Jones", Description: "contract dispute",
		Status: practice.CasePending, Priority: practice.PriorityHigh, Deadline: &deadline,
		InvolvedParties: []practice.Party{{Name: "Smith", Role: "plaintiff"}, {Name: "Jones", Role: "defendant", Contact: "j@example.com"}},
		CreatedAt:       t0, UpdatedAt: t0,
	}
	if err := s.CreateCase(ctx, want); err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}

	got, err := s.FindCase(ctx, "c1")
	if err != nil {
		t.Fatalf("FindCase() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindCase() mismatch (-want +got):\n%s", diff)
	}

	want.Status = practice.CaseClosed
	want.Deadline = nil
	want.IsTask = true
	want.UpdatedAt = t0.Add(time.Minute)
	if err := s.UpdateCase(ctx, want); err != nil {
		t.Fatalf("UpdateCase() error = %v", err)
	}
	got, err = s.FindCase(ctx, "c1")
	if err != nil {
		t.Fatalf("FindCase() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindCase() after update mismatch (-want +got):\n%s", diff)
	}

	if err := s.DeleteCase(ctx, "c1"); err != nil {
		t.Fatalf("DeleteCase() error = %v", err)
	}
	if err := s.DeleteCase(ctx, "c1"); !errors.Is(err, practice.ErrNotFound) {
		t.Errorf("DeleteCase() twice error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_SearchFoldsUnicodeCase(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addProfile(t, s, "alice")

	addCase(t, s, "c1", "alice", "Succession ÉMILE Roux", t0)
	addCase(t, s, "c2", "alice", "Müller v. Straße GmbH", t0.Add(time.Hour))
	addCase(t, s, "c3", "alice", "Emile's lease", t0.Add(2*time.Hour))
	doc := &practice.Document{
		ID: "d1", UploaderID: "alice", Title: "ΑΓΩΓΗ Athens", FilePath: "d1.pdf",
		FileType: "application/pdf", FileSize: 1, CreatedAt: t0, UpdatedAt: t0,
	}
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	tests := []struct {
		search string
		want   []string
	}{
		{"émile", []string{"c1"}},
		{"MÜLLER", []string{"c2"}},
		{"strasse", []string{"c2"}},
		{"emile", []string{"c3"}},
	}
	for _, tt := range tests {
		got, err := s.QueryCases(ctx, practice.CaseQuery{VisibleTo: "alice", Search: tt.search})
		if err != nil {
			t.Fatalf("QueryCases(%q) error = %v", tt.search, err)
		}
		if diff := cmp.Diff(tt.want, ids(got, caseID)); diff != "" {
			t.Errorf("QueryCases(%q) mismatch (-want +got):\n%s", tt.search, diff)
		}
	}

	docs, err := s.QueryDocuments(ctx, practice.DocumentQuery{VisibleTo: "alice", Search: "αγωγη"})
	if err != nil {
		t.Fatalf("QueryDocuments() error = %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "d1" {
		t.Errorf("QueryDocuments(αγωγη) = %d documents, want d1", len(docs))
	}
}

func TestSQLiteStore_QueryCases(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addProfile(t, s, "alice")
	addProfile(t, s, "bob")

	addCase(t, s, "c1", "alice", "Estate of Doe", t0)
	addCase(t, s, "c2", "alice", "DOE v. Roe", t0.Add(time.Hour))
	addCase(t, s, "c3", "alice", "100% custody", t0.Add(2*time.Hour))
	addCase(t, s, "c4", "bob", "Bob's matter", t0.Add(3*time.Hour))

	task := addCase(t, s, "t1", "alice", "File motion", t0.Add(4*time.Hour))
	task.IsTask = true
	task.Status = practice.CaseCompleted
	if err := s.UpdateCase(ctx, task); err != nil {
		t.Fatalf("UpdateCase() error = %v", err)
	}

	isTask := true
	tests := []struct {
		name  string
		query practice.CaseQuery
		want  []string
	}{
		{"newest first", practice.CaseQuery{VisibleTo: "alice"}, []string{"t1", "c3", "c2", "c1"}},
		{"oldest first", practice.CaseQuery{VisibleTo: "alice", Ascending: true}, []string{"c1", "c2", "c3", "t1"}},
		{"search ignores case", practice.CaseQuery{VisibleTo: "alice", Search: "doe"}, []string{"c2", "c1"}},
		{"search escapes wildcards", practice.CaseQuery{VisibleTo: "alice", Search: "0%"}, []string{"c3"}},
		{"status", practice.CaseQuery{VisibleTo: "alice", Status: practice.CaseCompleted}, []string{"t1"}},
		{"tasks only", practice.CaseQuery{VisibleTo: "alice", IsTask: &isTask}, []string{"t1"}},
		{"other owner", practice.CaseQuery{VisibleTo: "bob"}, []string{"c4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.QueryCases(ctx, tt.query)
			if err != nil {
				t.Fatalf("QueryCases() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, ids(got, caseID)); diff != "" {
				t.Errorf("QueryCases() ids mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("shared cases are visible", func(t *testing.T) {
		err := s.GrantPermission(ctx, &practice.Permission{
			ID: "p1", ResourceKind: practice.ResourceCase, ResourceID: "c1",
			UserID: "bob", Level: practice.PermissionRead, GrantedBy: "alice", CreatedAt: t0,
		})
		if err != nil {
			t.Fatalf("GrantPermission() error = %v", err)
		}
		got, err := s.QueryCases(ctx, practice.CaseQuery{VisibleTo: "bob"})
		if err != nil {
			t.Fatalf("QueryCases() error = %v", err)
		}
		if diff := cmp.Diff([]string{"c4", "c1"}, ids(got, caseID)); diff != "" {
			t.Errorf("QueryCases() ids mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("requires a user", func(t *testing.T) {
		if _, err := s.QueryCases(ctx, practice.CaseQuery{}); !errors.Is(err, practice.ErrInvalidInput) {
			t.Errorf("QueryCases() error = %v, want ErrInvalidInput", err)
		}
	})
}

func TestSQLiteStore_GrantPermissionUpserts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addProfile(t, s, "alice")
	addProfile(t, s, "bob")
	addCase(t, s, "c1", "alice", "Matter", t0)

	for i, level := range []practice.PermissionLevel{practice.PermissionRead, practice.PermissionWrite} {
		p := &practice.Permission{
			ID: fmt.Sprintf("p%d", i), ResourceKind: practice.ResourceCase, ResourceID: "c1",
			UserID: "bob", Level: level, GrantedBy: "alice", CreatedAt: t0,
		}
		if err := s.GrantPermission(ctx, p); err != nil {
			t.Fatalf("GrantPermission(%s) error = %v", level, err)
		}
		if p.ID != "p0" {
			t.Errorf("GrantPermission(%s) id = %q, want %q", level, p.ID, "p0")
		}
	}

	perms, err := s.ListPermissions(ctx, practice.ResourceCase, "c1")
	if err != nil {
		t.Fatalf("ListPermissions() error = %v", err)
	}
	if len(perms) != 1 {
		t.Fatalf("ListPermissions() returned %d rows, want 1", len(perms))
	}
	if perms[0].Level != practice.PermissionWrite {
		t.Errorf("permission level = %q, want %q", perms[0].Level, practice.PermissionWrite)
	}

	got, err := s.FindPermission(ctx, practice.ResourceCase, "c1", "carol")
	if err != nil {
		t.Fatalf("FindPermission() error = %v", err)
	}
	if got != nil {
		t.Errorf("FindPermission() = %v, want nil", got)
	}
}

func TestSQLiteStore_Folders(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addProfile(t, s, "alice")

	root := &practice.Folder{ID: "f1", Kind: practice.FolderDocuments, UserID: "alice", Name: "Pleadings", CreatedAt: t0, UpdatedAt: t0}
	child := &practice.Folder{ID: "f2", Kind: practice.FolderDocuments, UserID: "alice", Name: "Drafts", ParentID: &root.ID, CreatedAt: t0, UpdatedAt: t0}
	for _, f := range []*practice.Folder{root, child} {
		if err := s.CreateFolder(ctx, f); err != nil {
			t.Fatalf("CreateFolder(%s) error = %v", f.Name, err)
		}
	}

	// Case and document folders are separate trees.
	got, err := s.FindFolder(ctx, practice.FolderCases, "f1")
	if err != nil {
		t.Fatalf("FindFolder() error = %v", err)
	}
	if got != nil {
		t.Errorf("FindFolder(cases, f1) = %v, want nil", got)
	}

	if err := s.UpdateFolderParent(ctx, practice.FolderDocuments, "f2", nil, t0.Add(time.Minute)); err != nil {
		t.Fatalf("UpdateFolderParent() error = %v", err)
	}
	got, err = s.FindFolder(ctx, practice.FolderDocuments, "f2")
	if err != nil {
		t.Fatalf("FindFolder() error = %v", err)
	}
	if got.ParentID != nil {
		t.Errorf("ParentID = %v, want nil", *got.ParentID)
	}

	list, err := s.ListFolders(ctx, practice.FolderDocuments, "alice")
	if err != nil {
		t.Fatalf("ListFolders() error = %v", err)
	}
	if len(list) != 2 {
		t.Errorf("ListFolders() returned %d folders, want 2", len(list))
	}
}

func TestSQLiteStore_QueryDocuments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addProfile(t, s, "alice")
	addProfile(t, s, "bob")

	folder := &practice.Folder{ID: "f1", Kind: practice.FolderDocuments, UserID: "alice", Name: "Evidence", CreatedAt: t0, UpdatedAt: t0}
	if err := s.CreateFolder(ctx, folder); err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		d := &practice.Document{
			ID: fmt.Sprintf("d%d", i), UploaderID: "alice", Title: fmt.Sprintf("Exhibit %d", i),
			FilePath: fmt.Sprintf("key-%d.pdf", i), FileType: "application/pdf", FileSize: 10,
			CreatedAt: t0.Add(time.Duration(i) * time.Minute), UpdatedAt: t0,
		}
		if i%2 == 0 {
			d.FolderID = &folder.ID
		}
		if err := s.CreateDocument(ctx, d); err != nil {
			t.Fatalf("CreateDocument() error = %v", err)
		}
	}
	docID := func(d *practice.Document) string { return d.ID }

	t.Run("pages newest first", func(t *testing.T) {
		first, err := s.QueryDocuments(ctx, practice.DocumentQuery{VisibleTo: "alice", Limit: 2})
		if err != nil {
			t.Fatalf("QueryDocuments() error = %v", err)
		}
		second, err := s.QueryDocuments(ctx, practice.DocumentQuery{VisibleTo: "alice", Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("QueryDocuments() error = %v", err)
		}
		if diff := cmp.Diff([]string{"d4", "d3"}, ids(first, docID)); diff != "" {
			t.Errorf("first page mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"d2", "d1"}, ids(second, docID)); diff != "" {
			t.Errorf("second page mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("filters by folder and joins its name", func(t *testing.T) {
		got, err := s.QueryDocuments(ctx, practice.DocumentQuery{VisibleTo: "alice", FolderID: &folder.ID})
		if err != nil {
			t.Fatalf("QueryDocuments() error = %v", err)
		}
		if diff := cmp.Diff([]string{"d4", "d2", "d0"}, ids(got, docID)); diff != "" {
			t.Errorf("QueryDocuments() mismatch (-want +got):\n%s", diff)
		}
		for _, d := range got {
			if d.FolderName != "Evidence" {
				t.Errorf("document %s FolderName = %q, want %q", d.ID, d.FolderName, "Evidence")
			}
		}
	})

	t.Run("shared documents carry permissions", func(t *testing.T) {
		err := s.GrantPermission(ctx, &practice.Permission{
			ID: "p1", ResourceKind: practice.ResourceDocument, ResourceID: "d1",
			UserID: "bob", Level: practice.PermissionRead, GrantedBy: "alice", CreatedAt: t0,
		})
		if err != nil {
			t.Fatalf("GrantPermission() error = %v", err)
		}
		got, err := s.QueryDocuments(ctx, practice.DocumentQuery{VisibleTo: "bob"})
		if err != nil {
			t.Fatalf("QueryDocuments() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != "d1" {
			t.Fatalf("QueryDocuments() = %v, want [d1]", ids(got, docID))
		}
		if len(got[0].Permissions) != 1 || got[0].Permissions[0].UserID != "bob" {
			t.Errorf("Permissions = %+v, want one grant for bob", got[0].Permissions)
		}
	})
}

func TestSQLiteStore_Conversation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for _, id := range []string{"alice", "bob", "carol"} {
		addProfile(t, s, id)
	}

	msgs := []*practice.Message{
		{ID: "m1", SenderID: "alice", ReceiverID: "bob", Content: "hi", CreatedAt: t0},
		{ID: "m2", SenderID: "bob", ReceiverID: "alice", Content: "hello", CreatedAt: t0.Add(time.Second)},
		{ID: "m3", SenderID: "alice", ReceiverID: "carol", Content: "other", CreatedAt: t0.Add(2 * time.Second)},
	}
	for _, m := range msgs {
		m.Status = practice.MessageSent
		m.UpdatedAt = m.CreatedAt
		if err := s.CreateMessage(ctx, m); err != nil {
			t.Fatalf("CreateMessage(%s) error = %v", m.ID, err)
		}
	}

	got, err := s.ListConversation(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("ListConversation() error = %v", err)
	}
	msgID := func(m *practice.Message) string { return m.ID }
	if diff := cmp.Diff([]string{"m1", "m2"}, ids(got, msgID)); diff != "" {
		t.Errorf("ListConversation() mismatch (-want +got):\n%s", diff)
	}

	if err := s.UpdateMessageStatus(ctx, "m1", practice.MessageRead, t0.Add(time.Minute)); err != nil {
		t.Fatalf("UpdateMessageStatus() error = %v", err)
	}
	m, err := s.FindMessage(ctx, "m1")
	if err != nil {
		t.Fatalf("FindMessage() error = %v", err)
	}
	if m.Status != practice.MessageRead {
		t.Errorf("Status = %q, want %q", m.Status, practice.MessageRead)
	}

	a := &practice.Attachment{ID: "a1", MessageID: "m1", FileName: "brief.pdf", FileType: "application/pdf", FileSize: 42, StoragePath: "k.pdf", CreatedAt: t0}
	if err := s.CreateAttachment(ctx, a); err != nil {
		t.Fatalf("CreateAttachment() error = %v", err)
	}
	atts, err := s.ListAttachments(ctx, "m1")
	if err != nil {
		t.Fatalf("ListAttachments() error = %v", err)
	}
	if diff := cmp.Diff([]*practice.Attachment{a}, atts); diff != "" {
		t.Errorf("ListAttachments() mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteStore_TimeEntries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addProfile(t, s, "alice")

	day := func(d int) time.Time { return time.Date(2025, 1, d, 10, 0, 0, 0, time.UTC) }
	for i, d := range []int{1, 5, 10} {
		e := &practice.TimeEntry{
			ID: fmt.Sprintf("e%d", i), UserID: "alice", StartTime: day(d), DurationSeconds: 3600,
			Billable: true, HourlyRate: 200, Status: practice.TimeCompleted, CreatedAt: t0, UpdatedAt: t0,
		}
		if err := s.CreateTimeEntry(ctx, e); err != nil {
			t.Fatalf("CreateTimeEntry() error = %v", err)
		}
	}

	// Bounds are inclusive.
	from, to := day(5), day(10)
	got, err := s.ListTimeEntries(ctx, practice.TimeEntryQuery{UserID: "alice", From: &from, To: &to})
	if err != nil {
		t.Fatalf("ListTimeEntries() error = %v", err)
	}
	entryID := func(e *practice.TimeEntry) string { return e.ID }
	if diff := cmp.Diff([]string{"e2", "e1"}, ids(got, entryID)); diff != "" {
		t.Errorf("ListTimeEntries() mismatch (-want +got):\n%s", diff)
	}

	t.Run("external ids", func(t *testing.T) {
		e := got[0]
		e.ExternalID = "ck-1"
		e.UpdatedAt = t0.Add(time.Hour)
		if err := s.UpdateTimeEntry(ctx, e); err != nil {
			t.Fatalf("UpdateTimeEntry() error = %v", err)
		}
		found, err := s.FindTimeEntryByExternalID(ctx, "ck-1")
		if err != nil {
			t.Fatalf("FindTimeEntryByExternalID() error = %v", err)
		}
		if found == nil || found.ID != e.ID {
			t.Fatalf("FindTimeEntryByExternalID() = %v, want %s", found, e.ID)
		}

		dup := &practice.TimeEntry{
			ID: "dup", UserID: "alice", ExternalID: "ck-1", StartTime: t0,
			Status: practice.TimeRunning, CreatedAt: t0, UpdatedAt: t0,
		}
		if err := s.CreateTimeEntry(ctx, dup); err == nil {
			t.Error("CreateTimeEntry() with duplicate external id expected error")
		}
	})
}

func TestSQLiteStore_Invoices(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addProfile(t, s, "alice")
	client := &practice.Client{ID: "cl1", UserID: "alice", Name: "Acme", CreatedAt: t0, UpdatedAt: t0}
	if err := s.CreateClient(ctx, client); err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}

	due := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	inv := &practice.Invoice{
		ID: "i1", UserID: "alice", ClientID: "cl1", ExternalID: "in_123", AmountCents: 25000,
		Status: practice.InvoiceDraft, DueDate: &due, Notes: "January work", CreatedAt: t0, UpdatedAt: t0,
	}
	if err := s.CreateInvoice(ctx, inv); err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}
	local := &practice.Invoice{
		ID: "i2", UserID: "alice", ClientID: "cl1", AmountCents: 100,
		Status: practice.InvoiceSent, CreatedAt: t0.Add(time.Hour), UpdatedAt: t0,
	}
	if err := s.CreateInvoice(ctx, local); err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}

	t.Run("non-positive amounts are rejected", func(t *testing.T) {
		bad := &practice.Invoice{ID: "i3", UserID: "alice", ClientID: "cl1", Status: practice.InvoiceDraft, CreatedAt: t0, UpdatedAt: t0}
		if err := s.CreateInvoice(ctx, bad); err == nil {
			t.Error("CreateInvoice() with zero amount expected error")
		}
	})

	t.Run("updates status by external id", func(t *testing.T) {
		n, err := s.UpdateInvoiceStatusByExternalID(ctx, "in_123", practice.InvoicePaid, t0.Add(time.Minute))
		if err != nil {
			t.Fatalf("UpdateInvoiceStatusByExternalID() error = %v", err)
		}
		if n != 1 {
			t.Errorf("UpdateInvoiceStatusByExternalID() = %d, want 1", n)
		}
		n, err = s.UpdateInvoiceStatusByExternalID(ctx, "in_unknown", practice.InvoicePaid, t0)
		if err != nil {
			t.Fatalf("UpdateInvoiceStatusByExternalID() error = %v", err)
		}
		if n != 0 {
			t.Errorf("UpdateInvoiceStatusByExternalID(unknown) = %d, want 0", n)
		}
	})

	t.Run("filters by status", func(t *testing.T) {
		got, err := s.ListInvoices(ctx, practice.InvoiceQuery{UserID: "alice", Status: practice.InvoicePaid})
		if err != nil {
			t.Fatalf("ListInvoices() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != "i1" {
			t.Fatalf("ListInvoices() = %v, want [i1]", got)
		}
		if got[0].DueDate == nil || !got[0].DueDate.Equal(due) {
			t.Errorf("DueDate = %v, want %v", got[0].DueDate, due)
		}
	})

	t.Run("filters by creation range", func(t *testing.T) {
		from := t0.Add(time.Hour)
		got, err := s.ListInvoices(ctx, practice.InvoiceQuery{UserID: "alice", From: &from})
		if err != nil {
			t.Fatalf("ListInvoices() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != "i2" {
			t.Errorf("ListInvoices() = %v, want [i2]", got)
		}
	})
}
