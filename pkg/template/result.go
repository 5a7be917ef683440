package template

import (
	"sync"
	"unsafe"

	"golang.org/x/net/html"
)

// Result is a skeleton paired with the values for one render.
type Result struct {
	Skeleton *Skeleton
	Values   []any

	err error
}

// Err returns the parse error of the result's segments, if any.
func (r *Result) Err() error { return r.err }

// Keyed pairs a list item with an explicit reconciliation key.
type Keyed struct {
	Key   any
	Value any
}

// Key wraps v so list reconciliation matches it by k.
func Key(k, v any) Keyed {
	return Keyed{Key: k, Value: v}
}

// Dynamic is a child-content value that manages its own nodes, such as a
// nested component. Mount inserts its nodes into parent before the given
// node; Unmount takes them out again.
type Dynamic interface {
	Mount(parent, before *html.Node) error
	Unmount()
}

// skeletonCache shares skeletons between results built from the same
// segments. Lookups go by the address of the segment slice first, then by
// fingerprint.
var skeletonCache = struct {
	sync.RWMutex
	byAddr map[addrKey]*Skeleton
	byHash map[uint64][]*Skeleton
}{
	byAddr: make(map[addrKey]*Skeleton),
	byHash: make(map[uint64][]*Skeleton),
}

type addrKey struct {
	first *string
	n     int
}

// HTML builds a result from template segments and the values of their
// holes. Segments are parsed once and cached.
func HTML(segments []string, values ...any) *Result {
	sk, err := skeletonFor(segments)
	return &Result{Skeleton: sk, Values: values, err: err}
}

func skeletonFor(segments []string) (*Skeleton, error) {
	if len(segments) == 0 {
		return Parse(segments)
	}
	key := addrKey{first: &segments[0], n: len(segments)}

	skeletonCache.RLock()
	sk, ok := skeletonCache.byAddr[key]
	skeletonCache.RUnlock()
	if ok && sameData(sk.Strings, segments) {
		return sk, nil
	}

	sk = nil
	fp := fingerprint(segments)
	skeletonCache.RLock()
	for _, cand := range skeletonCache.byHash[fp] {
		if cand.samePieces(segments) {
			sk = cand
			break
		}
	}
	skeletonCache.RUnlock()

	if sk == nil {
		parsed, err := Parse(segments)
		if err != nil {
			return nil, err
		}
		sk = parsed
		skeletonCache.Lock()
		skeletonCache.byHash[fp] = append(skeletonCache.byHash[fp], sk)
		skeletonCache.Unlock()
	}

	skeletonCache.Lock()
	skeletonCache.byAddr[key] = sk
	skeletonCache.Unlock()
	return sk, nil
}

// sameData reports whether a and b hold the same string headers, which is
// the case when b is the slice the skeleton was cached for and has not
// been modified since.
func sameData(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) || unsafe.StringData(a[i]) != unsafe.StringData(b[i]) {
			return false
		}
	}
	return true
}
