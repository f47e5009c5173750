package tree

import (
	"encoding/json"
	"fmt"
	"os"
)

// SampleLeft and SampleRight return the forests a fresh workspace starts with.
func SampleLeft() Forest {
	return Forest{
		NewFolder("rightyAI", "Righty AI",
			NewFolder("public", "Public",
				NewFile("thesis", "thesis.pdf"),
				NewFile("report", "research report.pdf"),
			),
			NewFolder("private", "Private",
				NewFile("thesis1", "thesis.pdf"),
				NewFile("report1", "research report.pdf"),
			),
			NewFile("integration", "integration.pdf"),
		),
	}
}

func SampleRight() Forest {
	return Forest{
		NewFolder("myfolder", "My Folder",
			NewFolder("cancer", "Cancer Files",
				NewFile("leuk", "leukocytes.png"),
				NewFile("leukomia", "leukomia.txt"),
			),
			NewFolder("images", "Images",
				NewFile("1", "1.png"),
				NewFile("2", "2.png"),
			),
		),
	}
}

// Seed is the on-disk form of the two initial forests. Format "flat" reads
// each side as a list of FlatNode records instead of nested nodes.
type Seed struct {
	Format string          `json:"format,omitempty"`
	Left   json.RawMessage `json:"left"`
	Right  json.RawMessage `json:"right"`
}

// LoadSeed reads and validates a seed file.
func LoadSeed(filename string) (left, right Forest, err error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read seed: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (left, right Forest, err error) {
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal seed: %w", err)
	}
	if left, err = decodeSide(seed.Format, seed.Left); err != nil {
		return nil, nil, fmt.Errorf("left: %w", err)
	}
	if right, err = decodeSide(seed.Format, seed.Right); err != nil {
		return nil, nil, fmt.Errorf("right: %w", err)
	}
	return left, right, nil
}

func decodeSide(format string, raw json.RawMessage) (Forest, error) {
	if len(raw) == 0 {
		return Forest{}, nil
	}
	var f Forest
	switch format {
	case "", "nested":
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, err
		}
	case "flat":
		var records []FlatNode
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, err
		}
		var err error
		if f, err = Unflatten(records); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown seed format %q", format)
	}
	if f == nil {
		f = Forest{}
	}
	if err := Validate(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks that ids are non-empty and unique and that files carry no
// children. Folders decoded without children get an empty list.
func Validate(f Forest) error {
	seen := make(map[string]struct{})
	var check func(nodes []Node) error
	check = func(nodes []Node) error {
		for i := range nodes {
			n := &nodes[i]
			if n.ID == "" {
				return fmt.Errorf("node %q has no id", n.Name)
			}
			if _, dup := seen[n.ID]; dup {
				return fmt.Errorf("duplicate id %q", n.ID)
			}
			seen[n.ID] = struct{}{}
			if n.Kind == File {
				if len(n.Children) > 0 {
					return fmt.Errorf("file %q has children", n.ID)
				}
				n.Children = nil
				continue
			}
			if n.Children == nil {
				n.Children = []Node{}
			}
			if err := check(n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return check(f)
}
