package tree

// Index answers id lookups on a forest without walking it. It is a read-only
// view of the forest it was built from; rebuild it after every mutation.
type Index struct {
	nodes map[string]FlatNode
}

func NewIndex(f Forest) *Index {
	flat := Flatten(f)
	idx := &Index{nodes: make(map[string]FlatNode, len(flat))}
	for _, r := range flat {
		// first occurrence wins, matching Forest.Find
		if _, ok := idx.nodes[r.ID]; !ok {
			idx.nodes[r.ID] = r
		}
	}
	return idx
}

func (idx *Index) Len() int {
	return len(idx.nodes)
}

func (idx *Index) Contains(id string) bool {
	_, ok := idx.nodes[id]
	return ok
}

func (idx *Index) Kind(id string) (Kind, bool) {
	r, ok := idx.nodes[id]
	return r.Kind, ok
}

// ParentID returns the id of the folder holding id; empty for roots.
func (idx *Index) ParentID(id string) (string, bool) {
	r, ok := idx.nodes[id]
	return r.ParentID, ok
}

// Ancestors returns the ids from the root down to the parent of id.
func (idx *Index) Ancestors(id string) ([]string, bool) {
	r, ok := idx.nodes[id]
	if !ok {
		return nil, false
	}
	var rev []string
	for p := r.ParentID; p != ""; p = idx.nodes[p].ParentID {
		rev = append(rev, p)
	}
	path := make([]string, len(rev))
	for i, p := range rev {
		path[len(rev)-1-i] = p
	}
	return path, true
}

// InsertionParentID is the indexed form of InsertionParent.
func (idx *Index) InsertionParentID(targetID string) (string, error) {
	r, ok := idx.nodes[targetID]
	if !ok {
		return "", ErrNodeNotFound
	}
	if r.Kind == Folder {
		return r.ID, nil
	}
	if r.ParentID == "" {
		return "", ErrNoParent
	}
	return r.ParentID, nil
}

// IsWithin reports whether id lies in the subtree rooted at ancestorID,
// ancestorID itself included.
func (idx *Index) IsWithin(id, ancestorID string) bool {
	for cur := id; cur != ""; cur = idx.nodes[cur].ParentID {
		if cur == ancestorID {
			return true
		}
		if _, ok := idx.nodes[cur]; !ok {
			return false
		}
	}
	return false
}
