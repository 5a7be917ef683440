// Package errors provides structured, coded errors for trellis.
//
// Every error the runtime can report has a stable code (e.g. "T020") that maps
// to a category, a short message and a longer explanation. Public packages
// export sentinels built from these codes, and errors created with [New] match
// those sentinels through errors.Is regardless of any detail attached later.
//
// # Error Categories
//
//   - config: programmer mistakes detected at construction or update time
//     (non-function event handler, unknown binding, wrong value count)
//   - runtime: failures inside a render pass or watcher during a flush
//   - structure: node range and template structure misuse
//   - cli: configuration file and command-line failures
//
// # Usage
//
//	err := errors.New("T020").
//	    WithDetail(fmt.Sprintf("hole %d got %T", idx, v)).
//	    WithSuggestion("Pass a func(*dom.Event) or nil")
//
//	fmt.Println(err.Format())
package errors
