package tree

import "errors"

// Every operation that fails with one of these leaves its input forest as is.
var (
	ErrNodeNotFound = errors.New("node not found")
	ErrNotFolder    = errors.New("node is not a folder")
	ErrEmptyName    = errors.New("name is empty")
	ErrSelfDrop     = errors.New("node dropped onto itself")
	ErrNoParent     = errors.New("drop target has no parent folder")
	ErrCycle        = errors.New("folder cannot be moved into its own subtree")
)
