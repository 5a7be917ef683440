package template

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/net/html"

	"github.com/vango-dev/trellis/pkg/dom"
)

// HoleKind is what a hole controls.
type HoleKind uint8

const (
	// HoleNode is child content: text, nodes, nested templates, lists and
	// Dynamic values.
	HoleNode HoleKind = iota
	// HoleAttr sets or removes an attribute.
	HoleAttr
	// HoleBoolAttr adds or removes a valueless attribute.
	HoleBoolAttr
	// HoleProp assigns a node property.
	HoleProp
	// HoleEvent installs an event listener.
	HoleEvent
	// HoleBinding hands its values to a registered Binding.
	HoleBinding
)

// String returns the string representation of the HoleKind.
func (k HoleKind) String() string {
	switch k {
	case HoleNode:
		return "Node"
	case HoleAttr:
		return "Attr"
	case HoleBoolAttr:
		return "BoolAttr"
	case HoleProp:
		return "Prop"
	case HoleEvent:
		return "Event"
	case HoleBinding:
		return "Binding"
	default:
		return "Unknown"
	}
}

// Hole describes one dynamic position in a skeleton.
type Hole struct {
	Kind HoleKind

	// Path is the child-index path from the fragment to the element the
	// hole sits on, or to the marker comment of a node hole.
	Path []int

	// Name is the attribute, property, event or binding name.
	Name string

	// Modifiers are the dot-separated suffixes of a binding name.
	Modifiers []string

	// Strings are the static pieces around the values of an interpolated
	// attribute or property, one more than Slots. Nil for single values.
	Strings []string

	// Start is the index of the hole's first value and Slots the number
	// of values it consumes.
	Start int
	Slots int
}

// Skeleton is the parsed, value-free form of a template.
type Skeleton struct {
	Strings []string
	Holes   []Hole

	proto       *html.Node
	fingerprint uint64
	slots       int
}

// Fingerprint returns the hash of the static segments.
func (s *Skeleton) Fingerprint() uint64 { return s.fingerprint }

// Slots returns the number of values a result for s must carry.
func (s *Skeleton) Slots() int { return s.slots }

// Fragment returns a fresh copy of the skeleton's nodes.
func (s *Skeleton) Fragment() *html.Node {
	return dom.Clone(s.proto)
}

// samePieces reports whether s was built from strings.
func (s *Skeleton) samePieces(strings []string) bool {
	if len(s.Strings) != len(strings) {
		return false
	}
	for i := range strings {
		if s.Strings[i] != strings[i] {
			return false
		}
	}
	return true
}

// fingerprint hashes the segments with length prefixes so that moving text
// across a boundary changes the hash.
func fingerprint(strings []string) uint64 {
	d := xxhash.New()
	var n [8]byte
	for _, s := range strings {
		binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
		_, _ = d.Write(n[:])
		_, _ = d.WriteString(s)
	}
	return d.Sum64()
}
