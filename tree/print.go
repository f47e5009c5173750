package tree

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes the forest as an indented outline, one node per line.
func Fprint(w io.Writer, f Forest) error {
	for _, n := range f {
		if err := fprintNode(w, n, 0); err != nil {
			return err
		}
	}
	return nil
}

func fprintNode(w io.Writer, n Node, depth int) error {
	marker := "-"
	if n.IsFolder() {
		marker = "+"
	}
	if _, err := fmt.Fprintf(w, "%s%s %s [%s]\n", strings.Repeat("  ", depth), marker, n.Name, n.ID); err != nil {
		return err
	}
	for _, child := range n.Children {
		if err := fprintNode(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}
