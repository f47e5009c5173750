package workspace

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"tree-browser/tree"
)

// Drag is the payload of one drag gesture, captured when it starts.
type Drag struct {
	Token string    `json:"token"`
	Pane  Pane      `json:"pane"`
	Node  tree.Node `json:"node"`
	// Path holds the ancestor ids of Node, root first.
	Path []string `json:"path"`
	// Over is the node currently claiming the pointer, if any.
	Over     string    `json:"over,omitempty"`
	OverPane Pane      `json:"overPane,omitempty"`
	Started  time.Time `json:"started"`
}

// BeginDrag captures nodeID of pane p as the payload of a new gesture.
// Gestures that are neither dropped nor cancelled expire after the drag TTL.
func (s *Store) BeginDrag(p Pane, nodeID string) (Drag, error) {
	s.mu.RLock()
	ps, ok := s.panes[p]
	if !ok {
		s.mu.RUnlock()
		return Drag{}, fmt.Errorf("%w: %q", ErrUnknownPane, p)
	}
	node, found := ps.forest.Find(nodeID)
	path, _ := ps.index.Ancestors(nodeID)
	s.mu.RUnlock()

	if !found {
		return Drag{}, fmt.Errorf("drag %q: %w", nodeID, tree.ErrNodeNotFound)
	}

	d := Drag{
		Token:   uuid.NewString(),
		Pane:    p,
		Node:    node.Clone(),
		Path:    path,
		Started: time.Now(),
	}
	s.drags.Set(d.Token, d, cache.DefaultExpiration)
	log.Printf("Drag %s started on %s/%s", d.Token, p, nodeID)
	return d, nil
}

// Drag returns the payload of an active gesture.
func (s *Store) Drag(token string) (Drag, error) {
	v, ok := s.drags.Get(token)
	if !ok {
		return Drag{}, ErrDragNotFound
	}
	return v.(Drag), nil
}

// DragOver reports which node claims the pointer. hovered lists the node ids
// under the pointer, innermost first; the first one present in pane p wins
// and outer ancestors are not signalled. An empty result means no node in p
// accepts the drop.
func (s *Store) DragOver(token string, p Pane, hovered []string) (string, error) {
	s.dragMu.Lock()
	defer s.dragMu.Unlock()

	d, err := s.Drag(token)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	ps, ok := s.panes[p]
	var over string
	if ok {
		for _, id := range hovered {
			if ps.index.Contains(id) {
				over = id
				break
			}
		}
	}
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPane, p)
	}

	d.Over, d.OverPane = over, p
	if over == "" {
		d.OverPane = ""
	}
	s.drags.Set(token, d, cache.DefaultExpiration)
	return over, nil
}

// Drop ends the gesture by dropping its payload onto targetID in pane p.
// The token is consumed whether or not the drop applies.
func (s *Store) Drop(token string, p Pane, targetID string) (Change, error) {
	d, ok := s.takeDrag(token)
	if !ok {
		c := Change{Action: s.relocateAction(), Pane: p, Dest: p, TargetID: targetID}
		return s.mutate(c, func(map[Pane]tree.Forest, *Change) (map[Pane]tree.Forest, error) {
			return nil, fmt.Errorf("drop %s: %w", token, ErrDragNotFound)
		})
	}
	return s.relocate(d.Pane, d.Node, p, targetID)
}

// CancelDrag abandons a gesture. It reports whether the gesture was active.
func (s *Store) CancelDrag(token string) bool {
	if _, ok := s.takeDrag(token); !ok {
		return false
	}
	log.Printf("Drag %s cancelled", token)
	return true
}

// takeDrag removes the gesture and returns it. Only one caller gets a given
// token.
func (s *Store) takeDrag(token string) (Drag, bool) {
	s.dragMu.Lock()
	defer s.dragMu.Unlock()
	v, ok := s.drags.Get(token)
	if !ok {
		return Drag{}, false
	}
	s.drags.Delete(token)
	return v.(Drag), true
}

// ActiveDrags counts gestures that have not been dropped, cancelled or expired.
func (s *Store) ActiveDrags() int {
	s.drags.DeleteExpired()
	return s.drags.ItemCount()
}
