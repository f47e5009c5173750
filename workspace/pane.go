package workspace

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPane  = errors.New("unknown pane")
	ErrUnknownMode  = errors.New("unknown relocation mode")
	ErrDragNotFound = errors.New("drag not found or expired")
	ErrNoDropTarget = errors.New("drop has no target")
)

type Pane string

const (
	Left  Pane = "left"
	Right Pane = "right"
)

func ParsePane(s string) (Pane, error) {
	switch Pane(s) {
	case Left, Right:
		return Pane(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPane, s)
}

func (p Pane) Opposite() Pane {
	if p == Left {
		return Right
	}
	return Left
}

// Mode selects what a drop does with the dragged subtree.
type Mode string

const (
	// ModeCopy appends a copy with fresh ids and leaves the source as is.
	ModeCopy Mode = "copy"
	// ModeMove removes the subtree from its source and appends it, ids intact.
	ModeMove Mode = "move"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCopy, ModeMove:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

type Action string

const (
	ActionRename       Action = "rename"
	ActionDelete       Action = "delete"
	ActionCreateFile   Action = "create_file"
	ActionCreateFolder Action = "create_folder"
	ActionCopy         Action = "copy"
	ActionMove         Action = "move"
)
