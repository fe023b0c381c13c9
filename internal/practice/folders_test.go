package practice_test

import (
	"context"
	"errors"
	"testing"

	"lexdesk/internal/practice"
	"lexdesk/internal/testutil"
)

func TestService_Folders(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	user := env.AddUser(t, "ada@example.com")
	other := env.AddUser(t, "bob@example.com")

	mkdir := func(name string, parent *string) *practice.Folder {
		t.Helper()
		f, err := env.Service.CreateFolder(ctx, user.ID, practice.FolderDocuments, name, parent)
		if err != nil {
			t.Fatalf("CreateFolder(%q) error = %v", name, err)
		}
		return f
	}

	// a
	// └── b
	//     └── c
	// d
	a := mkdir("a", nil)
	b := mkdir("b", &a.ID)
	c := mkdir("c", &b.ID)
	d := mkdir(" d ", nil)
	if d.Name != "d" {
		t.Errorf("Name = %q, want trimmed", d.Name)
	}

	t.Run("lists one level", func(t *testing.T) {
		top, err := env.Service.ListFolders(ctx, user.ID, practice.FolderDocuments, nil)
		if err != nil {
			t.Fatalf("ListFolders() error = %v", err)
		}
		if got := folderNames(top); len(got) != 2 || !got["a"] || !got["d"] {
			t.Errorf("top level = %v, want a and d", got)
		}

		under, err := env.Service.ListFolders(ctx, user.ID, practice.FolderDocuments, &b.ID)
		if err != nil {
			t.Fatalf("ListFolders(b) error = %v", err)
		}
		if len(under) != 1 || under[0].ID != c.ID {
			t.Errorf("under b = %v, want [c]", folderNames(under))
		}

		cases, err := env.Service.ListFolders(ctx, user.ID, practice.FolderCases, nil)
		if err != nil {
			t.Fatalf("ListFolders(cases) error = %v", err)
		}
		if len(cases) != 0 {
			t.Errorf("case folders = %v, want none", folderNames(cases))
		}

		theirs, err := env.Service.ListFolders(ctx, other.ID, practice.FolderDocuments, nil)
		if err != nil {
			t.Fatalf("ListFolders(other) error = %v", err)
		}
		if len(theirs) != 0 {
			t.Errorf("other user's folders = %v, want none", folderNames(theirs))
		}
	})

	t.Run("rejects cycles", func(t *testing.T) {
		for _, target := range []*practice.Folder{a, b, c} {
			if _, err := env.Service.MoveFolder(ctx, user.ID, practice.FolderDocuments, a.ID, &target.ID); !errors.Is(err, practice.ErrInvalidInput) {
				t.Errorf("MoveFolder(a under %s) error = %v, want ErrInvalidInput", target.Name, err)
			}
		}
	})

	t.Run("re-parents", func(t *testing.T) {
		moved, err := env.Service.MoveFolder(ctx, user.ID, practice.FolderDocuments, c.ID, &d.ID)
		if err != nil {
			t.Fatalf("MoveFolder() error = %v", err)
		}
		if moved.ParentID == nil || *moved.ParentID != d.ID {
			t.Errorf("ParentID = %v, want %s", moved.ParentID, d.ID)
		}

		// c is no longer below a.
		if _, err := env.Service.MoveFolder(ctx, user.ID, practice.FolderDocuments, a.ID, &c.ID); err != nil {
			t.Fatalf("MoveFolder(a under c) error = %v", err)
		}

		root, err := env.Service.MoveFolder(ctx, user.ID, practice.FolderDocuments, a.ID, nil)
		if err != nil {
			t.Fatalf("MoveFolder(a to root) error = %v", err)
		}
		if root.ParentID != nil {
			t.Errorf("ParentID = %s, want root", *root.ParentID)
		}
	})

	t.Run("rejects unknown folders", func(t *testing.T) {
		if _, err := env.Service.MoveFolder(ctx, other.ID, practice.FolderDocuments, a.ID, nil); !errors.Is(err, practice.ErrNotFound) {
			t.Errorf("MoveFolder(other user) error = %v, want ErrNotFound", err)
		}
		if _, err := env.Service.MoveFolder(ctx, user.ID, practice.FolderDocuments, a.ID, strPtr("nope")); !errors.Is(err, practice.ErrNotFound) {
			t.Errorf("MoveFolder(missing parent) error = %v, want ErrNotFound", err)
		}
		if _, err := env.Service.CreateFolder(ctx, user.ID, practice.FolderCases, "x", &a.ID); !errors.Is(err, practice.ErrNotFound) {
			t.Errorf("CreateFolder(parent of other kind) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		if _, err := env.Service.CreateFolder(ctx, user.ID, practice.FolderDocuments, "  ", nil); !errors.Is(err, practice.ErrInvalidInput) {
			t.Errorf("CreateFolder(blank) error = %v, want ErrInvalidInput", err)
		}
		if _, err := env.Service.CreateFolder(ctx, user.ID, "photos", "x", nil); !errors.Is(err, practice.ErrInvalidInput) {
			t.Errorf("CreateFolder(bad kind) error = %v, want ErrInvalidInput", err)
		}
	})
}

func folderNames(folders []*practice.Folder) map[string]bool {
	names := make(map[string]bool, len(folders))
	for _, f := range folders {
		names[f.Name] = true
	}
	return names
}
