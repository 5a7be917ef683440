package edit

import "fmt"

// Kind is the type of an edit operation.
type Kind uint8

const (
	// Leave keeps an old item where it is.
	Leave Kind = iota
	// Skip marks an old item passed over by the cursor. It is never emitted.
	Skip
	// Move relocates an old item in front of its new right-hand neighbour.
	Move
	// Modify reuses a removed old item in place for a new item.
	Modify
	// MoveModify reuses a removed old item elsewhere for a new item.
	MoveModify
	// Insert creates a new item.
	Insert
	// Delete destroys an old item.
	Delete
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case Leave:
		return "Leave"
	case Skip:
		return "Skip"
	case Move:
		return "Move"
	case Modify:
		return "Modify"
	case MoveModify:
		return "MoveModify"
	case Insert:
		return "Insert"
	case Delete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// Op is one step of an edit script. From is the old index and To the new
// index; either is -1 when the kind has no such side (Insert has no From,
// Delete has no To).
type Op struct {
	Kind Kind
	From int
	To   int
}

// String renders the op as Kind(from→to).
func (o Op) String() string {
	switch o.Kind {
	case Insert:
		return fmt.Sprintf("Insert(→%d)", o.To)
	case Delete:
		return fmt.Sprintf("Delete(%d→)", o.From)
	default:
		return fmt.Sprintf("%s(%d→%d)", o.Kind, o.From, o.To)
	}
}

// Reuses reports whether the op keeps the old item at From alive.
func (o Op) Reuses() bool {
	switch o.Kind {
	case Leave, Move, Modify, MoveModify:
		return true
	}
	return false
}

// Relocates reports whether applying the op moves or creates a node, as
// opposed to leaving it where it already is.
func (o Op) Relocates() bool {
	switch o.Kind {
	case Move, MoveModify, Insert:
		return true
	}
	return false
}
