package dom

import "golang.org/x/net/html"

// GetAttr returns the value of the named attribute.
func GetAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether the named attribute is present.
func HasAttr(n *html.Node, name string) bool {
	_, ok := GetAttr(n, name)
	return ok
}

// SetAttr sets an attribute, adding it when missing.
// Setting an attribute to its current value records nothing.
func SetAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			if a.Val == value {
				return
			}
			n.Attr[i].Val = value
			notify(n, Mutation{Kind: MutationAttributes, Target: n, Name: name, OldValue: a.Val})
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
	notify(n, Mutation{Kind: MutationAttributes, Target: n, Name: name})
}

// RemoveAttr removes an attribute if present.
func RemoveAttr(n *html.Node, name string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			notify(n, Mutation{Kind: MutationAttributes, Target: n, Name: name, OldValue: a.Val})
			return
		}
	}
}
