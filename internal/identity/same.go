// Package identity implements the shallow "same value" test used to decide
// whether a watched value or a template hole changed.
package identity

import "reflect"

// Same reports whether a and b are the same value under shallow identity:
// comparable values compare with ==, slices compare by backing array and
// length, maps and pointers-in-disguise by address. Functions never compare
// equal, so a new handler always counts as a change.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return safeEqual(a, b)
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ta.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && (va.Len() == 0 || va.UnsafePointer() == vb.UnsafePointer())
	case reflect.Map:
		return va.UnsafePointer() == vb.UnsafePointer()
	default:
		return false
	}
}

// safeEqual compares two values of a comparable type. Interface-typed
// fields inside structs can still hold non-comparable values; those count
// as different.
func safeEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
