package tree

import "fmt"

// InsertionParent resolves the folder that receives a node dropped on
// targetID: the target itself when it is a folder, otherwise the folder that
// holds the target file.
func InsertionParent(f Forest, targetID string) (Node, error) {
	target, ok := f.Find(targetID)
	if !ok {
		return Node{}, ErrNodeNotFound
	}
	if target.IsFolder() {
		return target, nil
	}
	parent, ok := f.Parent(targetID)
	if !ok {
		return Node{}, ErrNoParent
	}
	return parent, nil
}

// CloneWithNewIDs deep copies n and gives every node of the copy a fresh id
// derived from its old one. Ids present in taken are never produced; the new
// ids are added to taken.
func CloneWithNewIDs(n Node, gen IDGenerator, taken map[string]struct{}) Node {
	c := n
	c.ID = freshID(gen, n.ID, taken)
	if n.Children != nil {
		c.Children = make([]Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = CloneWithNewIDs(child, gen, taken)
		}
	}
	return c
}

func freshID(gen IDGenerator, prefix string, taken map[string]struct{}) string {
	for {
		id := gen.NewID(prefix)
		if _, dup := taken[id]; !dup {
			if taken != nil {
				taken[id] = struct{}{}
			}
			return id
		}
	}
}

// Copy appends a copy of node as a child of the insertion parent resolved from
// targetID in dst. Every id in the copy is new to dst. dst is the only forest
// that changes; the caller supplies node, typically captured from another
// forest when the drag started.
func Copy(node Node, dst Forest, targetID string, gen IDGenerator) (Forest, Node, error) {
	parent, err := InsertionParent(dst, targetID)
	if err != nil {
		return dst, Node{}, fmt.Errorf("copy %q onto %q: %w", node.ID, targetID, err)
	}
	clone := CloneWithNewIDs(node, gen, dst.IDs())
	out, err := Append(dst, parent.ID, clone)
	if err != nil {
		return dst, Node{}, fmt.Errorf("copy %q onto %q: %w", node.ID, targetID, err)
	}
	return out, clone, nil
}

// Move removes nodeID from src and appends it, ids intact, under the
// insertion parent resolved from targetID in dst. When src and dst are the
// same forest pass sameForest; the result is then returned in both values.
// Across forests, a moved subtree whose ids collide with dst is re-keyed with
// gen. The moved node is returned as it now appears in dst.
func Move(src Forest, nodeID string, dst Forest, targetID string, sameForest bool, gen IDGenerator) (Forest, Forest, Node, error) {
	wrap := func(err error) error {
		return fmt.Errorf("move %q onto %q: %w", nodeID, targetID, err)
	}
	node, ok := src.Find(nodeID)
	if !ok {
		return src, dst, Node{}, wrap(ErrNodeNotFound)
	}
	if sameForest {
		dst = src
	}
	parent, err := InsertionParent(dst, targetID)
	if err != nil {
		return src, dst, Node{}, wrap(err)
	}
	if sameForest {
		if parent.ID == nodeID {
			return src, dst, Node{}, wrap(ErrSelfDrop)
		}
		if _, inside := Forest(node.Children).Find(parent.ID); inside {
			return src, dst, Node{}, wrap(ErrCycle)
		}
	}

	remaining, moved, err := Extract(src, nodeID)
	if err != nil {
		return src, dst, Node{}, wrap(err)
	}
	if sameForest {
		dst = remaining
	} else if taken := dst.IDs(); overlaps(moved, taken) {
		moved = CloneWithNewIDs(moved, gen, taken)
	}
	out, err := Append(dst, parent.ID, moved)
	if err != nil {
		return src, dst, Node{}, wrap(err)
	}
	if sameForest {
		return out, out, moved, nil
	}
	return remaining, out, moved, nil
}

func overlaps(n Node, ids map[string]struct{}) bool {
	if _, ok := ids[n.ID]; ok {
		return true
	}
	for _, child := range n.Children {
		if overlaps(child, ids) {
			return true
		}
	}
	return false
}
