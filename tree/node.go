package tree

import (
	"encoding/json"
	"fmt"
)

type Kind int

const (
	File Kind = iota
	Folder
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Folder:
		return "folder"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	if k != File && k != Folder {
		return nil, fmt.Errorf("invalid node kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "file":
		*k = File
	case "folder":
		*k = Folder
	default:
		return fmt.Errorf("invalid node type %q", string(b))
	}
	return nil
}

// Node is a file or folder entry. Children is only meaningful for folders.
type Node struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     Kind   `json:"type"`
	Children []Node `json:"children,omitempty"`
}

// Forest is the ordered list of root nodes shown in one pane.
type Forest []Node

func NewFile(id, name string) Node {
	return Node{ID: id, Name: name, Kind: File}
}

func NewFolder(id, name string, children ...Node) Node {
	if children == nil {
		children = []Node{}
	}
	return Node{ID: id, Name: name, Kind: Folder, Children: children}
}

func (n Node) IsFolder() bool {
	return n.Kind == Folder
}

// MarshalJSON always emits children for folders (an empty array for a leaf
// folder) and never for files.
func (n Node) MarshalJSON() ([]byte, error) {
	type wire struct {
		ID       string  `json:"id"`
		Name     string  `json:"name"`
		Kind     Kind    `json:"type"`
		Children *[]Node `json:"children,omitempty"`
	}
	w := wire{ID: n.ID, Name: n.Name, Kind: n.Kind}
	if n.Kind == Folder {
		children := n.Children
		if children == nil {
			children = []Node{}
		}
		w.Children = &children
	}
	return json.Marshal(w)
}

// Clone returns a deep copy that shares no slices with n.
func (n Node) Clone() Node {
	c := n
	if n.Children != nil {
		c.Children = make([]Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

func (f Forest) Clone() Forest {
	if f == nil {
		return nil
	}
	c := make(Forest, len(f))
	for i, n := range f {
		c[i] = n.Clone()
	}
	return c
}

// Find returns the node with the given id, searching depth first.
func (f Forest) Find(id string) (Node, bool) {
	for _, n := range f {
		if found, ok := n.find(id); ok {
			return found, true
		}
	}
	return Node{}, false
}

func (n Node) find(id string) (Node, bool) {
	if n.ID == id {
		return n, true
	}
	for _, child := range n.Children {
		if found, ok := child.find(id); ok {
			return found, true
		}
	}
	return Node{}, false
}

// Contains reports whether id is present anywhere in the forest.
func (f Forest) Contains(id string) bool {
	_, ok := f.Find(id)
	return ok
}

// Path returns the ids of the ancestors of id, root first. The node itself is
// not included; a root node has an empty, non-nil path.
func (f Forest) Path(id string) ([]string, bool) {
	for _, n := range f {
		if path, ok := n.path(id, []string{}); ok {
			return path, true
		}
	}
	return nil, false
}

func (n Node) path(id string, prefix []string) ([]string, bool) {
	if n.ID == id {
		return prefix, true
	}
	next := append(prefix[:len(prefix):len(prefix)], n.ID)
	for _, child := range n.Children {
		if path, ok := child.path(id, next); ok {
			return path, true
		}
	}
	return nil, false
}

// Parent returns the folder whose children list contains id.
func (f Forest) Parent(id string) (Node, bool) {
	for _, n := range f {
		if p, ok := n.parentOf(id); ok {
			return p, true
		}
	}
	return Node{}, false
}

func (n Node) parentOf(id string) (Node, bool) {
	for _, child := range n.Children {
		if child.ID == id {
			return n, true
		}
		if p, ok := child.parentOf(id); ok {
			return p, true
		}
	}
	return Node{}, false
}

// Walk visits every node depth first, parents before children. parentID is
// empty for roots. Returning false stops the walk.
func (f Forest) Walk(fn func(n Node, parentID string) bool) {
	for _, n := range f {
		if !n.walk("", fn) {
			return
		}
	}
}

func (n Node) walk(parentID string, fn func(Node, string) bool) bool {
	if !fn(n, parentID) {
		return false
	}
	for _, child := range n.Children {
		if !child.walk(n.ID, fn) {
			return false
		}
	}
	return true
}

// Len counts every node in the forest.
func (f Forest) Len() int {
	count := 0
	f.Walk(func(Node, string) bool {
		count++
		return true
	})
	return count
}

// IDs returns the set of ids present in the forest.
func (f Forest) IDs() map[string]struct{} {
	ids := make(map[string]struct{})
	f.Walk(func(n Node, _ string) bool {
		ids[n.ID] = struct{}{}
		return true
	})
	return ids
}
