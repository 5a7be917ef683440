// Package dom is the output medium trellis renders into.
//
// Nodes are plain *html.Node values from golang.org/x/net/html. The package
// adds what a browser DOM has and html.Node lacks: fragments that dissolve on
// insertion, JavaScript-style properties, event listeners with bubbling,
// document-order comparison, and a mutation recorder used by tests to assert
// that a patch touched only the nodes it had to.
//
// All structural changes made by the runtime go through this package so the
// recorder sees them. Properties and listeners live in a side table keyed by
// weak pointers, so dropping a node drops its state.
package dom
