package dom

import "golang.org/x/net/html"

// Path returns the child-index path from n's root down to n.
func Path(n *html.Node) []int {
	var rev []int
	for ; n != nil && n.Parent != nil; n = n.Parent {
		i := 0
		for s := n.PrevSibling; s != nil; s = s.PrevSibling {
			i++
		}
		rev = append(rev, i)
	}
	path := make([]int, len(rev))
	for i, v := range rev {
		path[len(rev)-1-i] = v
	}
	return path
}

// Root returns the topmost ancestor of n.
func Root(n *html.Node) *html.Node {
	for n != nil && n.Parent != nil {
		n = n.Parent
	}
	return n
}

// Contains reports whether n is inside ancestor's subtree (or is ancestor).
func Contains(ancestor, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// ComparePosition orders a and b in document order: -1 when a precedes b,
// 1 when it follows, 0 when they are the same node or live in different
// trees. An ancestor precedes its descendants.
func ComparePosition(a, b *html.Node) int {
	if a == b {
		return 0
	}
	if Root(a) != Root(b) {
		return 0
	}
	return ComparePaths(Path(a), Path(b))
}

// ComparePaths orders two child-index paths; a prefix sorts first.
func ComparePaths(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}
