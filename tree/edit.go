package tree

import (
	"fmt"
	"strings"
)

const (
	DefaultFileName   = "New File.txt"
	DefaultFolderName = "New Folder"
)

// rewrite rebuilds the slices on the path to every node matching id, replacing
// that node with fn(node). Untouched subtrees are shared with the input, which
// is never written to. It reports whether any node matched.
func rewrite(nodes []Node, id string, fn func(Node) Node) ([]Node, bool) {
	var out []Node
	matched := false
	for i, n := range nodes {
		replacement := n
		changed := false
		if n.ID == id {
			replacement = fn(n)
			changed = true
		} else if len(n.Children) > 0 {
			if children, ok := rewrite(n.Children, id, fn); ok {
				replacement.Children = children
				changed = true
			}
		}
		if changed {
			if out == nil {
				out = make([]Node, len(nodes))
				copy(out, nodes)
			}
			out[i] = replacement
			matched = true
		}
	}
	if !matched {
		return nodes, false
	}
	return out, true
}

// prune drops every node with the given id, at any depth.
func prune(nodes []Node, id string) ([]Node, bool) {
	out := make([]Node, 0, len(nodes))
	removed := false
	for _, n := range nodes {
		if n.ID == id {
			removed = true
			continue
		}
		if len(n.Children) > 0 {
			if children, ok := prune(n.Children, id); ok {
				n.Children = children
				removed = true
			}
		}
		out = append(out, n)
	}
	if !removed {
		return nodes, false
	}
	return out, true
}

// Rename sets the name of node id to the trimmed newName.
func Rename(f Forest, id, newName string) (Forest, error) {
	name := strings.TrimSpace(newName)
	if name == "" {
		return f, ErrEmptyName
	}
	out, ok := rewrite(f, id, func(n Node) Node {
		n.Name = name
		return n
	})
	if !ok {
		return f, fmt.Errorf("rename %q: %w", id, ErrNodeNotFound)
	}
	return out, nil
}

// Delete removes node id together with its subtree.
func Delete(f Forest, id string) (Forest, error) {
	out, ok := prune(f, id)
	if !ok {
		return f, fmt.Errorf("delete %q: %w", id, ErrNodeNotFound)
	}
	return out, nil
}

// CreateFile appends a new file with the default name to folder parentID.
func CreateFile(f Forest, parentID string, gen IDGenerator) (Forest, Node, error) {
	return create(f, parentID, NewFile(gen.NewID("file"), DefaultFileName))
}

// CreateFolder appends a new, empty folder with the default name to folder parentID.
func CreateFolder(f Forest, parentID string, gen IDGenerator) (Forest, Node, error) {
	return create(f, parentID, NewFolder(gen.NewID("folder"), DefaultFolderName))
}

func create(f Forest, parentID string, n Node) (Forest, Node, error) {
	out, err := Append(f, parentID, n)
	if err != nil {
		return f, Node{}, fmt.Errorf("create %s under %q: %w", n.Kind, parentID, err)
	}
	return out, n, nil
}

// Append adds a deep copy of n as the last child of folder parentID.
func Append(f Forest, parentID string, n Node) (Forest, error) {
	parent, ok := f.Find(parentID)
	if !ok {
		return f, ErrNodeNotFound
	}
	if !parent.IsFolder() {
		return f, ErrNotFolder
	}
	added := n.Clone()
	out, _ := rewrite(f, parentID, func(p Node) Node {
		children := make([]Node, len(p.Children), len(p.Children)+1)
		copy(children, p.Children)
		p.Children = append(children, added)
		return p
	})
	return out, nil
}

// Extract removes node id from the forest and returns it.
func Extract(f Forest, id string) (Forest, Node, error) {
	n, ok := f.Find(id)
	if !ok {
		return f, Node{}, ErrNodeNotFound
	}
	out, _ := prune(f, id)
	return out, n, nil
}
