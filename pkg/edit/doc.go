// Package edit computes edit scripts between two ordered lists.
//
// A script is a list of [Op] values that turns the old list into the new
// one while moving as few items as possible. Items that already appear in
// the same relative order in both lists (the longest increasing
// subsequence of their new positions) are left alone; every other matched
// item is moved in front of its new right-hand neighbour.
//
// When reuse is allowed, an old item that has no counterpart in the new
// list is repurposed to render an unmatched new item instead of being
// destroyed while another is created:
//
//	ops := edit.Compute([]string{"a", "b"}, []string{"a", "c"}, true)
//	// [Leave(0→0), Modify(1→1)]
//
// Use [Replay] to apply a script to a plain slice.
package edit
