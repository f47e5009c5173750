package scan

import (
	"path/filepath"

	"tree-browser/tree"
)

// FileData is one directory entry found while scanning. Only names and
// kinds are kept; file bytes are never read.
type FileData struct {
	Parent   *FileData
	Dir      string // Full path on disk
	IsDir    bool
	IsLink   bool
	Children []*FileData
}

func newRootFileData(dir string) *FileData {
	return &FileData{Dir: dir, IsDir: true}
}

func newFileData(parent *FileData, name string, isDir bool, isLink bool) *FileData {
	return &FileData{
		Parent: parent,
		Dir:    filepath.Join(parent.Path(), name),
		IsDir:  isDir,
		IsLink: isLink,
	}
}

func (d FileData) Root() bool {
	return d.Parent == nil
}

func (d FileData) Path() string {
	return d.Dir
}

func (d FileData) Name() string {
	return filepath.Base(d.Dir)
}

// toNode converts the scanned entry into a tree node. Ids are the slash
// separated path relative to root, prefixed with idPrefix, so they are
// unique within one scan. Symlinks become files and are never followed.
func (d *FileData) toNode(root, idPrefix string) tree.Node {
	rel, err := filepath.Rel(root, d.Path())
	if err != nil {
		rel = d.Name()
	}
	id := idPrefix + filepath.ToSlash(rel)

	if !d.IsDir {
		return tree.NewFile(id, d.Name())
	}
	children := make([]tree.Node, 0, len(d.Children))
	for _, child := range d.Children {
		children = append(children, child.toNode(root, idPrefix))
	}
	return tree.NewFolder(id, d.Name(), children...)
}
