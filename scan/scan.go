package scan

import (
	"io/fs"
	"log"
	"os"
	"runtime"
	"sort"
	"sync"

	"tree-browser/tree"
)

// Forest scans dir and returns its contents as a forest: one root node per
// entry directly under dir. Node ids are idPrefix plus the entry's relative
// path. A concurrency of 0 uses DefaultConcurrency.
func Forest(dir string, idPrefix string, concurrency int, spinner *ProgressSpinner) (tree.Forest, error) {
	children, err := ScanDirConcurrent(dir, concurrency, spinner)
	if err != nil {
		return nil, err
	}
	forest := make(tree.Forest, 0, len(children))
	for _, child := range children {
		forest = append(forest, child.toNode(dir, idPrefix))
	}
	return forest, nil
}

func ScanDirConcurrent(dir string, concurrency int, spinner *ProgressSpinner) ([]*FileData, error) {
	root := newRootFileData(dir)

	if concurrency == 0 {
		concurrency = DefaultConcurrency()
	}

	ch := make(chan *FileData)
	closeWait := &sync.WaitGroup{}

	var wait sync.WaitGroup
	wait.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			for file := range ch {
				if err := scanDir(file, ch, closeWait, spinner); err != nil {
					// Unreadable folders stay empty
					log.Printf("Error scanning %s: %v", file.Path(), err)
				}
				closeWait.Done()
				if spinner != nil {
					spinner.IncrementProcessed()
				}
			}
			wait.Done()
		}()
	}

	err := scanDir(root, ch, closeWait, spinner)
	if err != nil {
		close(ch)
		wait.Wait()
		return nil, err
	}

	go func() {
		closeWait.Wait()
		close(ch)
	}()

	wait.Wait()

	return root.Children, nil
}

func DefaultConcurrency() int {
	maxProcs := runtime.GOMAXPROCS(0)
	numCPU := runtime.NumCPU()
	if maxProcs < numCPU {
		return maxProcs
	}
	return numCPU
}

func scanDir(parent *FileData, ch chan *FileData, closeWait *sync.WaitGroup, spinner *ProgressSpinner) error {
	if !parent.IsDir {
		return nil
	}

	entries, err := os.ReadDir(parent.Path())
	if err != nil {
		return err
	}

	// Folders first, then by name, like the browser lists them
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	children := make([]*FileData, 0, len(entries))
	closeWait.Add(len(entries))
	if spinner != nil {
		spinner.IncrementDiscovered(len(entries))
	}
	for _, entry := range entries {
		isLink := entry.Type()&fs.ModeSymlink != 0
		isDir := entry.IsDir() && !isLink

		f := newFileData(parent, entry.Name(), isDir, isLink)
		go func() {
			ch <- f
		}()
		children = append(children, f)
	}

	parent.Children = children
	return nil
}
