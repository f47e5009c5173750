package tree

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRename(t *testing.T) {
	f := SampleLeft()

	got, err := Rename(f, "public", "  Publications ")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	want := SampleLeft()
	want[0].Children[0].Name = "Publications"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rename mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(SampleLeft(), f); diff != "" {
		t.Errorf("Rename changed its input (-want +got):\n%s", diff)
	}
}

func TestRenameNoOps(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		newName string
		wantErr error
	}{
		{"empty name", "public", "", ErrEmptyName},
		{"whitespace name", "public", " \t ", ErrEmptyName},
		{"missing id", "nope", "x", ErrNodeNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Rename(SampleLeft(), tc.id, tc.newName)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Rename error = %v, want %v", err, tc.wantErr)
			}
			if diff := cmp.Diff(SampleLeft(), got); diff != "" {
				t.Errorf("Forest changed on no-op (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	got, err := Delete(SampleLeft(), "thesis")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	public, _ := got.Find("public")
	want := []Node{NewFile("report", "research report.pdf")}
	if diff := cmp.Diff(want, public.Children); diff != "" {
		t.Errorf("Public children mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteFolderRemovesSubtree(t *testing.T) {
	got, err := Delete(SampleLeft(), "private")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	for _, id := range []string{"private", "thesis1", "report1"} {
		if got.Contains(id) {
			t.Errorf("%q still present after deleting its folder", id)
		}
	}
	if got.Len() != SampleLeft().Len()-3 {
		t.Errorf("Len() = %d, want %d", got.Len(), SampleLeft().Len()-3)
	}
}

func TestDeleteRoot(t *testing.T) {
	got, err := Delete(SampleRight(), "myfolder")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty forest, got %d roots", len(got))
	}
}

func TestDeleteMissing(t *testing.T) {
	got, err := Delete(SampleLeft(), "missing")
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Delete error = %v, want ErrNodeNotFound", err)
	}
	if diff := cmp.Diff(SampleLeft(), got); diff != "" {
		t.Errorf("Forest changed on no-op (-want +got):\n%s", diff)
	}
}

func TestCreateFolder(t *testing.T) {
	gen := NewCounterGenerator(1)
	got, created, err := CreateFolder(SampleLeft(), "rightyAI", gen)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}

	root := got[0]
	if len(root.Children) != 4 {
		t.Fatalf("Expected 4 children, got %d", len(root.Children))
	}
	want := NewFolder("folder-1", DefaultFolderName)
	if diff := cmp.Diff(want, root.Children[3]); diff != "" {
		t.Errorf("New folder mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, created); diff != "" {
		t.Errorf("Returned node mismatch (-want +got):\n%s", diff)
	}

	// everything else is untouched
	rest := got.Clone()
	rest[0].Children = rest[0].Children[:3]
	if diff := cmp.Diff(SampleLeft(), rest); diff != "" {
		t.Errorf("Other nodes changed (-want +got):\n%s", diff)
	}
}

func TestCreateFile(t *testing.T) {
	gen := NewCounterGenerator(7)
	got, created, err := CreateFile(SampleLeft(), "public", gen)
	if err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}
	public, _ := got.Find("public")
	if len(public.Children) != 3 {
		t.Fatalf("Expected 3 children, got %d", len(public.Children))
	}
	last := public.Children[2]
	if last.Kind != File || last.Name != DefaultFileName || last.ID != "file-7" || last.Children != nil {
		t.Errorf("Unexpected new file: %+v", last)
	}
	if created.ID != last.ID {
		t.Errorf("Returned id %q, appended %q", created.ID, last.ID)
	}
}

func TestCreateNoOps(t *testing.T) {
	gen := NewCounterGenerator(1)

	got, _, err := CreateFile(SampleLeft(), "thesis", gen)
	if !errors.Is(err, ErrNotFolder) {
		t.Errorf("CreateFile on file: error = %v, want ErrNotFolder", err)
	}
	if diff := cmp.Diff(SampleLeft(), got); diff != "" {
		t.Errorf("Forest changed (-want +got):\n%s", diff)
	}

	got, _, err = CreateFolder(SampleLeft(), "missing", gen)
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("CreateFolder on missing: error = %v, want ErrNodeNotFound", err)
	}
	if diff := cmp.Diff(SampleLeft(), got); diff != "" {
		t.Errorf("Forest changed (-want +got):\n%s", diff)
	}
}

func TestAppendDoesNotAliasInput(t *testing.T) {
	f := SampleLeft()
	n := NewFolder("x", "X", NewFile("y", "y"))
	got, err := Append(f, "public", n)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	n.Children[0].Name = "changed"
	added, _ := got.Find("y")
	if added.Name != "y" {
		t.Error("Appended node aliases the caller's value")
	}
	if len(f[0].Children[0].Children) != 2 {
		t.Error("Append changed its input")
	}
}

func TestExtract(t *testing.T) {
	got, n, err := Extract(SampleLeft(), "public")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if n.ID != "public" || len(n.Children) != 2 {
		t.Errorf("Unexpected extracted node: %+v", n)
	}
	if got.Contains("public") || got.Contains("thesis") {
		t.Error("Extracted subtree still present")
	}
}
