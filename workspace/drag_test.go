package workspace

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tree-browser/tree"
)

func TestBeginDragCapturesPayload(t *testing.T) {
	s := newTestStore(t, ModeCopy)

	d, err := s.BeginDrag(Left, "thesis")
	if err != nil {
		t.Fatalf("BeginDrag failed: %v", err)
	}
	if d.Token == "" {
		t.Error("Drag token is empty")
	}
	if diff := cmp.Diff([]string{"rightyAI", "public"}, d.Path); diff != "" {
		t.Errorf("Path mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(tree.NewFile("thesis", "thesis.pdf"), d.Node); diff != "" {
		t.Errorf("Node mismatch (-want +got):\n%s", diff)
	}
	if s.ActiveDrags() != 1 {
		t.Errorf("ActiveDrags() = %d, want 1", s.ActiveDrags())
	}

	if _, err := s.BeginDrag(Left, "missing"); !errors.Is(err, tree.ErrNodeNotFound) {
		t.Errorf("Expected ErrNodeNotFound, got %v", err)
	}
	if _, err := s.BeginDrag("top", "thesis"); !errors.Is(err, ErrUnknownPane) {
		t.Errorf("Expected ErrUnknownPane, got %v", err)
	}
}

func TestDragOverInnermostClaims(t *testing.T) {
	s := newTestStore(t, ModeCopy)
	d, err := s.BeginDrag(Left, "integration")
	if err != nil {
		t.Fatalf("BeginDrag failed: %v", err)
	}

	tests := []struct {
		pane    Pane
		hovered []string
		want    string
	}{
		{Right, []string{"leuk", "cancer", "myfolder"}, "leuk"},
		{Right, []string{"ghost", "cancer", "myfolder"}, "cancer"},
		{Left, []string{"leuk", "cancer"}, ""},
		{Left, nil, ""},
	}
	for _, tc := range tests {
		got, err := s.DragOver(d.Token, tc.pane, tc.hovered)
		if err != nil {
			t.Fatalf("DragOver failed: %v", err)
		}
		if got != tc.want {
			t.Errorf("DragOver(%s, %v) = %q, want %q", tc.pane, tc.hovered, got, tc.want)
		}
	}

	if _, err := s.DragOver("bogus", Left, []string{"public"}); !errors.Is(err, ErrDragNotFound) {
		t.Errorf("Expected ErrDragNotFound, got %v", err)
	}
}

func TestDragOverRecordsTarget(t *testing.T) {
	s := newTestStore(t, ModeCopy)
	d, _ := s.BeginDrag(Left, "integration")

	if _, err := s.DragOver(d.Token, Right, []string{"images"}); err != nil {
		t.Fatalf("DragOver failed: %v", err)
	}
	got, err := s.Drag(d.Token)
	if err != nil {
		t.Fatalf("Drag failed: %v", err)
	}
	if got.Over != "images" || got.OverPane != Right {
		t.Errorf("Over = %s/%q, want right/images", got.OverPane, got.Over)
	}
}

func TestDropOntoFileUsesParent(t *testing.T) {
	s := newTestStore(t, ModeCopy)
	d, _ := s.BeginDrag(Left, "private")

	c, err := s.Drop(d.Token, Right, "leuk")
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if !c.Applied || c.TargetID != "leuk" || c.Dest != Right {
		t.Errorf("Unexpected change %+v", c)
	}

	snap := s.Snapshot()
	if p, _ := snap.Right.Parent(c.Created); p.ID != "cancer" {
		t.Errorf("Copied node parent = %q, want cancer", p.ID)
	}
	if diff := cmp.Diff(tree.SampleLeft(), snap.Left); diff != "" {
		t.Errorf("Source changed (-want +got):\n%s", diff)
	}

	// the token is consumed
	if _, err := s.Drop(d.Token, Right, "leuk"); !errors.Is(err, ErrDragNotFound) {
		t.Errorf("Expected ErrDragNotFound on second drop, got %v", err)
	}
	if s.ActiveDrags() != 0 {
		t.Errorf("ActiveDrags() = %d, want 0", s.ActiveDrags())
	}
}

func TestDropCopiesCapturedPayload(t *testing.T) {
	s := newTestStore(t, ModeCopy)
	d, _ := s.BeginDrag(Left, "public")

	if _, err := s.Rename(Left, "public", "Renamed meanwhile"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	c, err := s.Drop(d.Token, Right, "myfolder")
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	right, _, _ := s.Forest(Right)
	copied, _ := right.Find(c.Created)
	if copied.Name != "Public" {
		t.Errorf("Copied name = %q, want the name captured at drag start", copied.Name)
	}
}

func TestDropMove(t *testing.T) {
	s := newTestStore(t, ModeMove)
	d, _ := s.BeginDrag(Right, "images")

	if _, err := s.Drop(d.Token, Left, "rightyAI"); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	snap := s.Snapshot()
	if snap.Right.Contains("images") {
		t.Error("Moved node still in source")
	}
	moved, ok := snap.Left.Find("images")
	if !ok || len(moved.Children) != 2 {
		t.Errorf("Moved node missing or incomplete: %+v", moved)
	}
}

func TestDropNoOps(t *testing.T) {
	s := newTestStore(t, ModeCopy)
	before := s.Snapshot()

	self, _ := s.BeginDrag(Left, "public")
	if _, err := s.Drop(self.Token, Left, "public"); !errors.Is(err, tree.ErrSelfDrop) {
		t.Errorf("Expected ErrSelfDrop, got %v", err)
	}

	nowhere, _ := s.BeginDrag(Left, "public")
	if _, err := s.Drop(nowhere.Token, Right, ""); !errors.Is(err, ErrNoDropTarget) {
		t.Errorf("Expected ErrNoDropTarget, got %v", err)
	}

	missing, _ := s.BeginDrag(Left, "public")
	if _, err := s.Drop(missing.Token, Right, "ghost"); !errors.Is(err, tree.ErrNodeNotFound) {
		t.Errorf("Expected ErrNodeNotFound, got %v", err)
	}

	after := s.Snapshot()
	if diff := cmp.Diff(before, after, cmp.FilterPath(func(p cmp.Path) bool {
		return p.String() == "Seq"
	}, cmp.Ignore())); diff != "" {
		t.Errorf("State changed (-want +got):\n%s", diff)
	}
}

func TestCancelDrag(t *testing.T) {
	s := newTestStore(t, ModeCopy)
	d, _ := s.BeginDrag(Left, "public")

	if !s.CancelDrag(d.Token) {
		t.Error("CancelDrag should report an active drag")
	}
	if s.CancelDrag(d.Token) {
		t.Error("CancelDrag should report false the second time")
	}
	if _, err := s.Drop(d.Token, Right, "images"); !errors.Is(err, ErrDragNotFound) {
		t.Errorf("Expected ErrDragNotFound, got %v", err)
	}
}

func TestDragExpires(t *testing.T) {
	s, err := New(Config{
		Left:    tree.SampleLeft(),
		Right:   tree.SampleRight(),
		DragTTL: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	d, _ := s.BeginDrag(Left, "public")
	time.Sleep(60 * time.Millisecond)

	if _, err := s.Drop(d.Token, Right, "images"); !errors.Is(err, ErrDragNotFound) {
		t.Errorf("Expected ErrDragNotFound after expiry, got %v", err)
	}
	right, version, _ := s.Forest(Right)
	if version != 0 || right.Len() != tree.SampleRight().Len() {
		t.Error("Expired drag changed the destination")
	}
}

func TestConcurrentDropsConsumeTokenOnce(t *testing.T) {
	for round := 0; round < 50; round++ {
		s := newTestStore(t, ModeCopy)
		d, err := s.BeginDrag(Left, "thesis")
		if err != nil {
			t.Fatal(err)
		}

		var (
			wg      sync.WaitGroup
			applied atomic.Int32
		)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ch, _ := s.Drop(d.Token, Right, "images"); ch.Applied {
					applied.Add(1)
				}
			}()
		}
		wg.Wait()

		if n := applied.Load(); n != 1 {
			t.Fatalf("round %d: %d drops applied, want 1", round, n)
		}
		right, _, _ := s.Forest(Right)
		if right.Len() != tree.SampleRight().Len()+1 {
			t.Fatalf("round %d: right pane has %d nodes", round, right.Len())
		}
	}
}

func TestDragOverAfterDropDoesNotRevive(t *testing.T) {
	s := newTestStore(t, ModeCopy)
	d, _ := s.BeginDrag(Left, "thesis")
	if _, err := s.Drop(d.Token, Right, "images"); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if _, err := s.DragOver(d.Token, Right, []string{"images"}); !errors.Is(err, ErrDragNotFound) {
		t.Errorf("Expected ErrDragNotFound, got %v", err)
	}
	if s.ActiveDrags() != 0 {
		t.Errorf("ActiveDrags() = %d, want 0", s.ActiveDrags())
	}
}
