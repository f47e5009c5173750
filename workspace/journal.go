package workspace

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// JournalEntry is one line of the journal file.
type JournalEntry struct {
	Timestamp string `json:"timestamp"`
	Seq       uint64 `json:"seq"`
	Action    Action `json:"action"`
	Pane      Pane   `json:"pane"`
	Node      string `json:"node"`
	Dest      Pane   `json:"dest,omitempty"`
	Target    string `json:"target,omitempty"`
	Name      string `json:"name,omitempty"`
	Created   string `json:"created,omitempty"`
	Applied   bool   `json:"applied"`
	Error     string `json:"error,omitempty"`
}

// Journal appends every change to a JSONL file. It never truncates the file.
type Journal struct {
	path string
	mu   sync.Mutex
}

func OpenJournal(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	f.Close()
	return &Journal{path: path}, nil
}

func (j *Journal) Path() string {
	return j.path
}

// Record is a Store subscriber.
func (j *Journal) Record(ev Event) {
	if err := j.Append(ev.Change); err != nil {
		log.Printf("Failed to write journal entry: %v", err)
	}
}

func (j *Journal) Append(c Change) error {
	entry := JournalEntry{
		Timestamp: c.Time.Format(time.RFC3339),
		Seq:       c.Seq,
		Action:    c.Action,
		Pane:      c.Pane,
		Node:      c.NodeID,
		Dest:      c.Dest,
		Target:    c.TargetID,
		Name:      c.Name,
		Created:   c.Created,
		Applied:   c.Applied,
	}
	if c.Err != nil {
		entry.Error = c.Err.Error()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(data, '\n'))
	return err
}
