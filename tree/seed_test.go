package tree

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFlattenUnflatten(t *testing.T) {
	f := SampleLeft()
	flat := Flatten(f)

	if len(flat) != f.Len() {
		t.Fatalf("Expected %d records, got %d", f.Len(), len(flat))
	}
	if flat[0].ID != "rightyAI" || flat[0].ParentID != "" {
		t.Errorf("First record should be the root, got %+v", flat[0])
	}
	if diff := cmp.Diff([]string{"public", "private", "integration"}, flat[0].ChildIDs); diff != "" {
		t.Errorf("Root child ids mismatch (-want +got):\n%s", diff)
	}

	back, err := Unflatten(flat)
	if err != nil {
		t.Fatalf("Unflatten failed: %v", err)
	}
	if diff := cmp.Diff(f, back); diff != "" {
		t.Errorf("Unflatten mismatch (-want +got):\n%s", diff)
	}
}

func TestUnflattenRejectsBadRecords(t *testing.T) {
	tests := []struct {
		name    string
		records []FlatNode
	}{
		{"duplicate", []FlatNode{{ID: "a", Kind: Folder}, {ID: "a", Kind: File}}},
		{"unknown child", []FlatNode{{ID: "a", Kind: Folder, ChildIDs: []string{"b"}}}},
		{"file with children", []FlatNode{{ID: "a", Kind: File, ChildIDs: []string{"b"}}, {ID: "b", ParentID: "a"}}},
		{"orphan", []FlatNode{{ID: "a", Kind: Folder}, {ID: "b", ParentID: "zzz"}}},
		{"contradictory parent", []FlatNode{
			{ID: "a", Kind: Folder, ChildIDs: []string{"c"}},
			{ID: "b", Kind: Folder},
			{ID: "c", Kind: File, ParentID: "b"},
		}},
		{"listed root", []FlatNode{
			{ID: "a", Kind: Folder, ChildIDs: []string{"b"}},
			{ID: "b", Kind: File},
		}},
	}
	for _, tc := range tests {
		if _, err := Unflatten(tc.records); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestLoadSeedNested(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	data := `{
		"left": [{"id":"a","name":"A","type":"folder","children":[{"id":"b","name":"b.txt","type":"file"}]}],
		"right": [{"id":"c","name":"C","type":"folder"}]
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	left, right, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed failed: %v", err)
	}
	if diff := cmp.Diff(Forest{NewFolder("a", "A", NewFile("b", "b.txt"))}, left); diff != "" {
		t.Errorf("Left mismatch (-want +got):\n%s", diff)
	}
	// folders without children come back with an empty list
	if diff := cmp.Diff(Forest{NewFolder("c", "C")}, right); diff != "" {
		t.Errorf("Right mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSeedFlat(t *testing.T) {
	data := `{
		"format": "flat",
		"left": [
			{"id":"a","name":"A","type":"folder","childIds":["b"]},
			{"id":"b","name":"b.txt","type":"file","parentId":"a"}
		]
	}`
	left, right, err := ParseSeed([]byte(data))
	if err != nil {
		t.Fatalf("ParseSeed failed: %v", err)
	}
	if diff := cmp.Diff(Forest{NewFolder("a", "A", NewFile("b", "b.txt"))}, left); diff != "" {
		t.Errorf("Left mismatch (-want +got):\n%s", diff)
	}
	if right == nil || len(right) != 0 {
		t.Errorf("Missing side should be an empty forest, got %#v", right)
	}
}

func TestParseSeedInvalid(t *testing.T) {
	tests := map[string]string{
		"duplicate ids":  `{"left":[{"id":"a","name":"A","type":"folder","children":[{"id":"a","name":"x","type":"file"}]}]}`,
		"file children":  `{"left":[{"id":"a","name":"A","type":"file","children":[{"id":"b","name":"x","type":"file"}]}]}`,
		"missing id":     `{"right":[{"name":"A","type":"file"}]}`,
		"unknown format": `{"format":"xml","left":[]}`,
		"bad json":       `{"left":`,
	}
	for name, data := range tests {
		if _, _, err := ParseSeed([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	if err := Fprint(&buf, SampleRight()); err != nil {
		t.Fatalf("Fprint failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 7 {
		t.Fatalf("Expected 7 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "+ My Folder [myfolder]" {
		t.Errorf("Unexpected root line %q", lines[0])
	}
	if lines[2] != "    - leukocytes.png [leuk]" {
		t.Errorf("Unexpected leaf line %q", lines[2])
	}
}

func TestCounterGenerator(t *testing.T) {
	gen := NewCounterGenerator(5)
	if got := gen.NewID("file"); got != "file-5" {
		t.Errorf("NewID = %q, want file-5", got)
	}
	if got := gen.NewID("folder"); got != "folder-6" {
		t.Errorf("NewID = %q, want folder-6", got)
	}
}

func TestUUIDGenerator(t *testing.T) {
	var gen UUIDGenerator
	a, b := gen.NewID("file"), gen.NewID("file")
	if a == b {
		t.Error("UUIDGenerator repeated an id")
	}
	if !strings.HasPrefix(a, "file-") || len(a) != len("file-")+36 {
		t.Errorf("Unexpected id format %q", a)
	}
}
