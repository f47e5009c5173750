package tree

import "fmt"

// FlatNode is the pointer-free form of a node: relations are expressed by id.
type FlatNode struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Kind     Kind     `json:"type"`
	ParentID string   `json:"parentId,omitempty"` // empty for roots
	ChildIDs []string `json:"childIds,omitempty"`
}

// Flatten lists every node of the forest, parents before children.
func Flatten(f Forest) []FlatNode {
	var flat []FlatNode
	f.Walk(func(n Node, parentID string) bool {
		var childIDs []string
		if len(n.Children) > 0 {
			childIDs = make([]string, len(n.Children))
			for i, child := range n.Children {
				childIDs[i] = child.ID
			}
		}
		flat = append(flat, FlatNode{
			ID:       n.ID,
			Name:     n.Name,
			Kind:     n.Kind,
			ParentID: parentID,
			ChildIDs: childIDs,
		})
		return true
	})
	return flat
}

// Unflatten rebuilds a forest from flat records. Roots keep the order in which
// they appear; children follow each record's ChildIDs, and every child's
// ParentID must name the record that lists it.
func Unflatten(records []FlatNode) (Forest, error) {
	byID := make(map[string]FlatNode, len(records))
	for _, r := range records {
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate id %q", r.ID)
		}
		byID[r.ID] = r
	}

	visited := make(map[string]bool, len(records))
	var build func(id, parentID string) (Node, error)
	build = func(id, parentID string) (Node, error) {
		r, ok := byID[id]
		if !ok {
			return Node{}, fmt.Errorf("unknown child id %q", id)
		}
		if r.ParentID != parentID {
			return Node{}, fmt.Errorf("id %q is listed under %q but names parent %q", id, parentID, r.ParentID)
		}
		if visited[id] {
			return Node{}, fmt.Errorf("id %q is reachable twice", id)
		}
		visited[id] = true

		n := Node{ID: r.ID, Name: r.Name, Kind: r.Kind}
		if r.Kind == Folder {
			n.Children = make([]Node, 0, len(r.ChildIDs))
		} else if len(r.ChildIDs) > 0 {
			return Node{}, fmt.Errorf("file %q has children", id)
		}
		for _, childID := range r.ChildIDs {
			child, err := build(childID, id)
			if err != nil {
				return Node{}, err
			}
			n.Children = append(n.Children, child)
		}
		return n, nil
	}

	forest := Forest{}
	for _, r := range records {
		if r.ParentID != "" {
			continue
		}
		n, err := build(r.ID, "")
		if err != nil {
			return nil, err
		}
		forest = append(forest, n)
	}
	if len(visited) != len(records) {
		return nil, fmt.Errorf("%d records are not reachable from a root", len(records)-len(visited))
	}
	return forest, nil
}
