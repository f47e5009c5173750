package workspace

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"tree-browser/tree"
)

const DefaultDragTTL = 2 * time.Minute

type Config struct {
	Left    tree.Forest
	Right   tree.Forest
	Mode    Mode
	IDs     tree.IDGenerator
	DragTTL time.Duration
}

// Change describes one attempted mutation. Applied is false when the attempt
// was a no-op, in which case Err says why.
type Change struct {
	Seq      uint64    `json:"seq"`
	Time     time.Time `json:"time"`
	Action   Action    `json:"action"`
	Pane     Pane      `json:"pane"`
	NodeID   string    `json:"nodeId"`
	Dest     Pane      `json:"dest,omitempty"`
	TargetID string    `json:"targetId,omitempty"`
	Name     string    `json:"name,omitempty"`
	// Created is the id of the node a create or drop added.
	Created string `json:"created,omitempty"`
	Applied bool   `json:"applied"`
	Err     error  `json:"-"`
}

// Event is delivered to subscribers after every attempted mutation. State
// shares the stored forests; subscribers must treat it as read-only.
type Event struct {
	Change Change
	State  Snapshot
}

type paneState struct {
	forest  tree.Forest
	index   *tree.Index
	version uint64
}

func newPaneState(f tree.Forest) *paneState {
	if f == nil {
		f = tree.Forest{}
	}
	return &paneState{forest: f, index: tree.NewIndex(f)}
}

// Store owns the left and right forests. Forests are never modified in
// place: every mutation computes new values and swaps them in under mu.
type Store struct {
	mu    sync.RWMutex
	panes map[Pane]*paneState
	seq   uint64

	mode  Mode
	ids   tree.IDGenerator
	drags *cache.Cache

	// guards read-modify-write sequences on drags
	dragMu sync.Mutex

	// held while subscribers run so they observe changes in Seq order
	notifyMu sync.Mutex
	subsMu   sync.RWMutex
	subs     map[int]func(Event)
	nextSub  int
}

func New(cfg Config) (*Store, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeCopy
	}
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	if cfg.IDs == nil {
		cfg.IDs = tree.UUIDGenerator{}
	}
	if cfg.DragTTL <= 0 {
		cfg.DragTTL = DefaultDragTTL
	}
	left, right := cfg.Left.Clone(), cfg.Right.Clone()
	for pane, f := range map[Pane]tree.Forest{Left: left, Right: right} {
		if err := tree.Validate(f); err != nil {
			return nil, fmt.Errorf("%s forest: %w", pane, err)
		}
	}
	return &Store{
		panes: map[Pane]*paneState{
			Left:  newPaneState(left),
			Right: newPaneState(right),
		},
		mode:  cfg.Mode,
		ids:   cfg.IDs,
		drags: cache.New(cfg.DragTTL, cfg.DragTTL),
		subs:  make(map[int]func(Event)),
	}, nil
}

func (s *Store) Mode() Mode {
	return s.mode
}

// Subscribe registers fn to be called after every attempted mutation,
// applied or not, in Seq order. fn must not call back into the store's
// mutating methods. The returned func removes it.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

type Snapshot struct {
	Left     tree.Forest     `json:"left"`
	Right    tree.Forest     `json:"right"`
	Versions map[Pane]uint64 `json:"versions"`
	Seq      uint64          `json:"seq"`
}

// Snapshot returns deep copies of both forests.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := s.view()
	view.Left = view.Left.Clone()
	view.Right = view.Right.Clone()
	return view
}

// view shares the stored forests. Callers hold mu.
func (s *Store) view() Snapshot {
	return Snapshot{
		Left:  s.panes[Left].forest,
		Right: s.panes[Right].forest,
		Versions: map[Pane]uint64{
			Left:  s.panes[Left].version,
			Right: s.panes[Right].version,
		},
		Seq: s.seq,
	}
}

// Forest returns a deep copy of one pane and its version.
func (s *Store) Forest(p Pane) (tree.Forest, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ps, ok := s.panes[p]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownPane, p)
	}
	return ps.forest.Clone(), ps.version, nil
}

// mutate runs fn under the write lock. fn receives the current forests and
// returns the panes it replaces; nothing is swapped when it returns an error.
func (s *Store) mutate(c Change, fn func(cur map[Pane]tree.Forest, c *Change) (map[Pane]tree.Forest, error)) (Change, error) {
	s.mu.Lock()
	var err error
	if _, ok := s.panes[c.Pane]; !ok {
		err = fmt.Errorf("%w: %q", ErrUnknownPane, c.Pane)
	} else if _, ok := s.panes[c.Dest]; c.Dest != "" && !ok {
		err = fmt.Errorf("%w: %q", ErrUnknownPane, c.Dest)
	}
	if err == nil {
		cur := map[Pane]tree.Forest{Left: s.panes[Left].forest, Right: s.panes[Right].forest}
		var next map[Pane]tree.Forest
		next, err = fn(cur, &c)
		if err == nil {
			for p, f := range next {
				ps := s.panes[p]
				ps.forest = f
				ps.index = tree.NewIndex(f)
				ps.version++
			}
		}
	}
	s.seq++
	c.Seq = s.seq
	c.Time = time.Now()
	c.Applied = err == nil
	c.Err = err
	ev := Event{Change: c, State: s.view()}

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	if err != nil {
		log.Printf("Ignored %s on %s/%s: %v", c.Action, c.Pane, c.NodeID, err)
	} else {
		log.Printf("Applied %s on %s/%s (seq %d)", c.Action, c.Pane, c.NodeID, c.Seq)
	}

	s.subsMu.RLock()
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
	return c, err
}

// Rename sets the trimmed name of a node. Blank names are rejected.
func (s *Store) Rename(p Pane, nodeID, name string) (Change, error) {
	c := Change{Action: ActionRename, Pane: p, NodeID: nodeID, Name: name}
	return s.mutate(c, func(cur map[Pane]tree.Forest, c *Change) (map[Pane]tree.Forest, error) {
		f, err := tree.Rename(cur[p], nodeID, name)
		if err != nil {
			return nil, err
		}
		return map[Pane]tree.Forest{p: f}, nil
	})
}

// Delete removes a node and its subtree.
func (s *Store) Delete(p Pane, nodeID string) (Change, error) {
	c := Change{Action: ActionDelete, Pane: p, NodeID: nodeID}
	return s.mutate(c, func(cur map[Pane]tree.Forest, c *Change) (map[Pane]tree.Forest, error) {
		f, err := tree.Delete(cur[p], nodeID)
		if err != nil {
			return nil, err
		}
		return map[Pane]tree.Forest{p: f}, nil
	})
}

// CreateFile appends a default-named file to folder parentID.
func (s *Store) CreateFile(p Pane, parentID string) (Change, error) {
	c := Change{Action: ActionCreateFile, Pane: p, NodeID: parentID}
	return s.mutate(c, func(cur map[Pane]tree.Forest, c *Change) (map[Pane]tree.Forest, error) {
		f, n, err := tree.CreateFile(cur[p], parentID, s.uniqueIDs(p))
		if err != nil {
			return nil, err
		}
		c.Created = n.ID
		return map[Pane]tree.Forest{p: f}, nil
	})
}

// CreateFolder appends a default-named, empty folder to folder parentID.
func (s *Store) CreateFolder(p Pane, parentID string) (Change, error) {
	c := Change{Action: ActionCreateFolder, Pane: p, NodeID: parentID}
	return s.mutate(c, func(cur map[Pane]tree.Forest, c *Change) (map[Pane]tree.Forest, error) {
		f, n, err := tree.CreateFolder(cur[p], parentID, s.uniqueIDs(p))
		if err != nil {
			return nil, err
		}
		c.Created = n.ID
		return map[Pane]tree.Forest{p: f}, nil
	})
}

// uniqueIDs wraps the store generator so it never returns an id already
// present in pane p. Callers hold mu.
func (s *Store) uniqueIDs(p Pane) tree.IDGenerator {
	return &avoidingGenerator{gen: s.ids, taken: s.panes[p].index}
}

type avoidingGenerator struct {
	gen   tree.IDGenerator
	taken *tree.Index
}

func (g *avoidingGenerator) NewID(prefix string) string {
	for {
		if id := g.gen.NewID(prefix); !g.taken.Contains(id) {
			return id
		}
	}
}

// Relocate drops the current node nodeID of pane from onto targetID in pane
// to, without a drag gesture.
func (s *Store) Relocate(from Pane, nodeID string, to Pane, targetID string) (Change, error) {
	s.mu.RLock()
	var (
		node tree.Node
		ok   bool
	)
	if ps, known := s.panes[from]; known {
		node, ok = ps.forest.Find(nodeID)
	}
	s.mu.RUnlock()

	if !ok {
		c := Change{Action: s.relocateAction(), Pane: from, NodeID: nodeID, Dest: to, TargetID: targetID}
		return s.mutate(c, func(map[Pane]tree.Forest, *Change) (map[Pane]tree.Forest, error) {
			return nil, fmt.Errorf("relocate %q: %w", nodeID, tree.ErrNodeNotFound)
		})
	}
	return s.relocate(from, node, to, targetID)
}

func (s *Store) relocateAction() Action {
	if s.mode == ModeMove {
		return ActionMove
	}
	return ActionCopy
}

// relocate applies a drop of node, captured from pane from, onto targetID in
// pane to. Copy mode uses node itself; move mode removes the node with the
// same id from the current source forest.
func (s *Store) relocate(from Pane, node tree.Node, to Pane, targetID string) (Change, error) {
	c := Change{Action: s.relocateAction(), Pane: from, NodeID: node.ID, Dest: to, TargetID: targetID}
	return s.mutate(c, func(cur map[Pane]tree.Forest, c *Change) (map[Pane]tree.Forest, error) {
		if targetID == "" {
			return nil, ErrNoDropTarget
		}
		if from == to && node.ID == targetID {
			return nil, tree.ErrSelfDrop
		}
		if s.mode == ModeMove {
			src, dst, moved, err := tree.Move(cur[from], node.ID, cur[to], targetID, from == to, s.ids)
			if err != nil {
				return nil, err
			}
			c.Created = moved.ID
			if from == to {
				return map[Pane]tree.Forest{to: dst}, nil
			}
			return map[Pane]tree.Forest{from: src, to: dst}, nil
		}
		dst, clone, err := tree.Copy(node, cur[to], targetID, s.ids)
		if err != nil {
			return nil, err
		}
		c.Created = clone.ID
		return map[Pane]tree.Forest{to: dst}, nil
	})
}
