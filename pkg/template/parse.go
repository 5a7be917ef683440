package template

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/trellis/pkg/dom"
)

// holeAttrPrefix names the placeholder attribute that stands in for an
// attribute with holes until the parsed tree is walked.
const holeAttrPrefix = "t-h"

type scanState uint8

const (
	stText scanState = iota
	stTagName
	stInTag
	stAttrName
	stAfterAttrName
	stBeforeValue
	stValueQuoted
	stValueUnquoted
	stComment
	stEndTag
	stRawText
)

// rawTextTags hold text the HTML parser does not treat as markup.
var rawTextTags = map[string]bool{
	"script":   true,
	"style":    true,
	"textarea": true,
	"title":    true,
}

// pendingAttr is an attribute being scanned.
type pendingAttr struct {
	name   string
	mark   int
	pieces []string
	value  strings.Builder
	holes  int
}

// slotRef says where a value slot ended up while scanning.
type slotRef struct {
	node bool
	ord  int // marker ordinal for node holes, attribute group otherwise
}

type attrGroup struct {
	name   string
	pieces []string
}

// scanner rewrites template segments into parseable markup: node holes
// become marker comments and attributes with holes become placeholder
// attributes.
type scanner struct {
	out    strings.Builder
	state  scanState
	quote  byte
	dashes int
	tag    strings.Builder
	raw    string
	attr   *pendingAttr

	slots   []slotRef
	groups  []attrGroup
	markers int
}

// Parse turns template segments into a skeleton. len(strings)-1 values
// fill it.
func Parse(segments []string) (*Skeleton, error) {
	if len(segments) == 0 {
		return nil, ErrInvalidMarkup.WithDetail("a template needs at least one segment")
	}

	sc := &scanner{}
	for i, seg := range segments {
		sc.feed(seg)
		if i < len(segments)-1 {
			if err := sc.hole(i); err != nil {
				return nil, err
			}
		}
	}
	if sc.attr != nil {
		sc.finishAttr()
	}

	frag, err := parseFragment(sc.out.String())
	if err != nil {
		return nil, err
	}

	sk := &Skeleton{
		Strings:     append([]string(nil), segments...),
		proto:       frag,
		fingerprint: fingerprint(segments),
		slots:       len(segments) - 1,
	}
	if err := sc.locate(sk); err != nil {
		return nil, err
	}
	return sk, nil
}

func parseFragment(markup string) (*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "template", DataAtom: atom.Template}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, ErrInvalidMarkup.Wrap(err)
	}
	frag := dom.NewFragment()
	for _, n := range nodes {
		frag.AppendChild(n)
	}
	return frag, nil
}

func (sc *scanner) feed(seg string) {
	for i := 0; i < len(seg); i++ {
		sc.step(seg, i)
	}
}

// step consumes seg[i].
func (sc *scanner) step(seg string, i int) {
	c := seg[i]
	switch sc.state {
	case stText:
		sc.out.WriteByte(c)
		if c != '<' || i+1 >= len(seg) {
			return
		}
		switch next := seg[i+1]; {
		case strings.HasPrefix(seg[i+1:], "!--"):
			sc.state = stComment
		case next == '/':
			sc.state = stEndTag
		case isLetter(next):
			sc.state = stTagName
			sc.tag.Reset()
		}

	case stTagName:
		switch {
		case isSpace(c):
			sc.out.WriteByte(c)
			sc.state = stInTag
		case c == '>':
			sc.out.WriteByte(c)
			sc.closeTag()
		default:
			sc.out.WriteByte(c)
			sc.tag.WriteByte(toLower(c))
		}

	case stInTag:
		switch {
		case isSpace(c), c == '/':
			sc.out.WriteByte(c)
		case c == '>':
			sc.out.WriteByte(c)
			sc.closeTag()
		default:
			sc.attr = &pendingAttr{mark: sc.out.Len()}
			sc.attr.name = string(c)
			sc.out.WriteByte(c)
			sc.state = stAttrName
		}

	case stAttrName:
		switch {
		case c == '=':
			sc.out.WriteByte(c)
			sc.state = stBeforeValue
		case isSpace(c):
			sc.out.WriteByte(c)
			sc.state = stAfterAttrName
		case c == '>' || c == '/':
			sc.finishAttr()
			sc.state = stInTag
			sc.step(seg, i)
		default:
			sc.out.WriteByte(c)
			sc.attr.name += string(c)
		}

	case stAfterAttrName:
		switch {
		case isSpace(c):
			sc.out.WriteByte(c)
		case c == '=':
			sc.out.WriteByte(c)
			sc.state = stBeforeValue
		default:
			sc.finishAttr()
			sc.state = stInTag
			sc.step(seg, i)
		}

	case stBeforeValue:
		switch {
		case isSpace(c):
			sc.out.WriteByte(c)
		case c == '"' || c == '\'':
			sc.out.WriteByte(c)
			sc.quote = c
			sc.state = stValueQuoted
		case c == '>':
			sc.finishAttr()
			sc.state = stInTag
			sc.step(seg, i)
		default:
			sc.state = stValueUnquoted
			sc.step(seg, i)
		}

	case stValueQuoted:
		sc.out.WriteByte(c)
		if c == sc.quote {
			sc.finishAttr()
			sc.state = stInTag
			return
		}
		sc.attr.value.WriteByte(c)

	case stValueUnquoted:
		switch {
		case isSpace(c) || c == '>':
			sc.finishAttr()
			sc.state = stInTag
			sc.step(seg, i)
		default:
			sc.out.WriteByte(c)
			sc.attr.value.WriteByte(c)
		}

	case stComment:
		sc.out.WriteByte(c)
		switch {
		case c == '-':
			sc.dashes++
		case c == '>' && sc.dashes >= 2:
			sc.state = stText
			sc.dashes = 0
		default:
			sc.dashes = 0
		}

	case stEndTag:
		sc.out.WriteByte(c)
		if c == '>' {
			sc.state = stText
		}

	case stRawText:
		sc.out.WriteByte(c)
		closing := "</" + sc.raw
		if c == '<' && strings.HasPrefix(strings.ToLower(seg[i:]), closing) {
			sc.state = stEndTag
		}
	}
}

func (sc *scanner) closeTag() {
	if name := sc.tag.String(); rawTextTags[name] {
		sc.raw = name
		sc.state = stRawText
		return
	}
	sc.state = stText
}

// hole places value slot i at the current scan position.
func (sc *scanner) hole(i int) error {
	switch sc.state {
	case stText:
		sc.out.WriteString("<!--" + dom.MarkerData + "-->")
		sc.slots = append(sc.slots, slotRef{node: true, ord: sc.markers})
		sc.markers++
		return nil

	case stBeforeValue, stValueQuoted, stValueUnquoted:
		if sc.state == stBeforeValue {
			sc.state = stValueUnquoted
		}
		a := sc.attr
		a.pieces = append(a.pieces, a.value.String())
		a.value.Reset()
		a.holes++
		sc.slots = append(sc.slots, slotRef{ord: len(sc.groups)})
		return nil
	}

	where := map[scanState]string{
		stTagName:       "a tag name",
		stInTag:         "a tag outside an attribute value",
		stAttrName:      "an attribute name",
		stAfterAttrName: "an attribute name",
		stComment:       "a comment",
		stEndTag:        "a closing tag",
		stRawText:       "<" + sc.raw + "> content",
	}[sc.state]
	return ErrInvalidMarkup.WithDetail(fmt.Sprintf("value %d sits inside %s", i, where))
}

// finishAttr ends the current attribute. An attribute with holes is cut
// from the output and replaced by a placeholder.
func (sc *scanner) finishAttr() {
	a := sc.attr
	sc.attr = nil
	if a == nil || a.holes == 0 {
		return
	}
	a.pieces = append(a.pieces, a.value.String())

	text := sc.out.String()[:a.mark]
	sc.out.Reset()
	sc.out.WriteString(text)
	sc.out.WriteString(holeAttrPrefix + strconv.Itoa(len(sc.groups)) + " ")
	sc.groups = append(sc.groups, attrGroup{name: a.name, pieces: a.pieces})
}

// locate walks the parsed tree and fills in the skeleton's holes.
func (sc *scanner) locate(sk *Skeleton) error {
	var markers [][]int
	groupPaths := make(map[int][]int)

	var walk func(n *html.Node) error
	walk = func(n *html.Node) error {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case dom.IsMarker(c):
				markers = append(markers, dom.Path(c))
			case c.Type == html.ElementNode:
				kept := c.Attr[:0]
				for _, a := range c.Attr {
					if k, ok := groupIndex(a.Key); ok && k < len(sc.groups) {
						groupPaths[k] = dom.Path(c)
						continue
					}
					kept = append(kept, a)
				}
				c.Attr = kept
			}
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(sk.proto); err != nil {
		return err
	}

	if len(markers) != sc.markers || len(groupPaths) != len(sc.groups) {
		return ErrInvalidMarkup.WithDetail(fmt.Sprintf(
			"found %d of %d child holes and %d of %d attribute holes after parsing",
			len(markers), sc.markers, len(groupPaths), len(sc.groups)))
	}

	for i := 0; i < len(sc.slots); {
		ref := sc.slots[i]
		if ref.node {
			sk.Holes = append(sk.Holes, Hole{Kind: HoleNode, Path: markers[ref.ord], Start: i, Slots: 1})
			i++
			continue
		}
		g := sc.groups[ref.ord]
		h, err := attrHole(g, groupPaths[ref.ord], i)
		if err != nil {
			return err
		}
		sk.Holes = append(sk.Holes, h)
		i += h.Slots
	}
	return nil
}

// attrHole builds the hole for an attribute group from its name prefix.
func attrHole(g attrGroup, path []int, start int) (Hole, error) {
	h := Hole{Path: path, Start: start, Slots: len(g.pieces) - 1}
	if !(len(g.pieces) == 2 && g.pieces[0] == "" && g.pieces[1] == "") {
		h.Strings = g.pieces
	}

	name := g.name
	switch name[0] {
	case '.':
		h.Kind, h.Name = HoleProp, name[1:]
	case '?':
		h.Kind, h.Name = HoleBoolAttr, strings.ToLower(name[1:])
	case '@':
		h.Kind, h.Name = HoleEvent, name[1:]
	case ':':
		parts := strings.Split(name[1:], ".")
		h.Kind, h.Name, h.Modifiers = HoleBinding, parts[0], parts[1:]
	default:
		h.Kind, h.Name = HoleAttr, strings.ToLower(name)
	}

	if h.Name == "" {
		return h, ErrInvalidMarkup.WithDetail(fmt.Sprintf("attribute %q has no name", name))
	}
	if h.Strings != nil && (h.Kind == HoleEvent || h.Kind == HoleBoolAttr) {
		return h, ErrInvalidMarkup.WithDetail(fmt.Sprintf("%s %q takes exactly one value", h.Kind, h.Name))
	}
	return h, nil
}

func groupIndex(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, holeAttrPrefix)
	if !ok {
		return 0, false
	}
	k, err := strconv.Atoi(rest)
	return k, err == nil
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func toLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
