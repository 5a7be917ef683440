package template

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/vango-dev/trellis/pkg/dom"
)

// stringify renders a hole value as text. nil renders as "".
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// interpolate joins static pieces and values.
func interpolate(pieces []string, values []any) string {
	var b strings.Builder
	for i, p := range pieces {
		b.WriteString(p)
		if i < len(values) {
			b.WriteString(stringify(values[i]))
		}
	}
	return b.String()
}

// truthy decides presence for boolean attributes.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	return true
}

// asList returns the items of a slice value. []byte is not a list.
func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []*Result:
		out := make([]any, len(x))
		for i, r := range x {
			out[i] = r
		}
		return out, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	case []byte:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// handler normalises an event hole value.
func handler(v any) (dom.Listener, bool) {
	switch fn := v.(type) {
	case dom.Listener:
		return fn, true
	case func(*dom.Event):
		return fn, true
	case func():
		return func(*dom.Event) { fn() }, true
	}
	return nil, false
}
