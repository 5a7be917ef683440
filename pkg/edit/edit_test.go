package edit

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestComputeConcreteCases(t *testing.T) {
	tests := []struct {
		name       string
		old, new   []int
		allowReuse bool
		want       []Op
	}{
		{
			name: "rotate right",
			old:  []int{1, 2, 3},
			new:  []int{3, 1, 2},
			want: []Op{{Move, 2, 0}, {Leave, 0, 1}, {Leave, 1, 2}},
		},
		{
			name: "all deleted",
			old:  []int{1, 2, 3},
			new:  []int{},
			want: []Op{{Delete, 0, -1}, {Delete, 1, -1}, {Delete, 2, -1}},
		},
		{
			name: "all inserted",
			old:  nil,
			new:  []int{1, 2, 3},
			want: []Op{{Insert, -1, 0}, {Insert, -1, 1}, {Insert, -1, 2}},
		},
		{
			name: "identical",
			old:  []int{1, 2, 3},
			new:  []int{1, 2, 3},
			want: []Op{{Leave, 0, 0}, {Leave, 1, 1}, {Leave, 2, 2}},
		},
		{
			name:       "disjoint without reuse",
			old:        []int{1, 2},
			new:        []int{3, 4},
			allowReuse: false,
			want:       []Op{{Insert, -1, 0}, {Insert, -1, 1}, {Delete, 0, -1}, {Delete, 1, -1}},
		},
		{
			name:       "disjoint with reuse",
			old:        []int{1, 2},
			new:        []int{3, 4},
			allowReuse: true,
			want:       []Op{{Modify, 0, 0}, {Modify, 1, 1}},
		},
		{
			name:       "replace middle with reuse",
			old:        []int{1, 2, 3},
			new:        []int{1, 9, 3},
			allowReuse: true,
			want:       []Op{{Leave, 0, 0}, {Modify, 1, 1}, {Leave, 2, 2}},
		},
		{
			name:       "reuse removed item elsewhere",
			old:        []int{5, 1},
			new:        []int{1, 7},
			allowReuse: true,
			want:       []Op{{Leave, 1, 0}, {MoveModify, 0, 1}},
		},
		{
			name:       "swap moves one item",
			old:        []int{1, 2, 3},
			new:        []int{2, 1, 3},
			allowReuse: true,
			want:       []Op{{Leave, 1, 0}, {Move, 0, 1}, {Leave, 2, 2}},
		},
		{
			name: "duplicates match once",
			old:  []int{1, 1},
			new:  []int{1, 1},
			want: []Op{{Leave, 0, 0}, {Insert, -1, 1}, {Delete, 1, -1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.old, tt.new, tt.allowReuse)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Compute() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.new, Replay(tt.old, got, tt.new), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Replay() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComputeMovesOnlyUnstableItems(t *testing.T) {
	old := []string{"a", "b", "c", "d", "e", "f"}
	new := []string{"f", "a", "b", "c", "d", "e"}

	ops := Compute(old, new, false)

	if n := Count(ops, Move); n != 1 {
		t.Errorf("moves = %d, want 1 (%v)", n, ops)
	}
	if n := Count(ops, Leave); n != 5 {
		t.Errorf("leaves = %d, want 5", n)
	}
}

func TestLeaveOpsKeepOldOrder(t *testing.T) {
	old := []int{4, 8, 1, 3, 9, 2, 7}
	new := []int{1, 2, 9, 4, 3, 8, 7}

	last := -1
	for _, op := range Compute(old, new, true) {
		if op.Kind != Leave {
			continue
		}
		if op.From <= last {
			t.Fatalf("Leave ops out of old order: %v", op)
		}
		last = op.From
	}
}

func TestComputeKeysNonComparable(t *testing.T) {
	old := []any{"a", []int{1}, "b"}
	new := []any{[]int{1}, "b", "a"}

	ops := ComputeKeys(old, new, false)

	if n := Count(ops, Insert); n != 1 {
		t.Errorf("inserts = %d, want 1 for the slice key (%v)", n, ops)
	}
	if n := Count(ops, Delete); n != 1 {
		t.Errorf("deletes = %d, want 1 for the slice key", n)
	}
}

func TestLongestIncreasingSubsequence(t *testing.T) {
	tests := []struct {
		seq  []int
		want []int
	}{
		{nil, nil},
		{[]int{5}, []int{0}},
		{[]int{1, 2, 0}, []int{0, 1}},
		{[]int{3, 1, 2}, []int{1, 2}},
		{[]int{0, 8, 4, 12, 2, 10, 6, 14, 1, 9}, []int{0, 4, 6, 9}},
		{[]int{5, 4, 3}, []int{2}},
	}
	for _, tt := range tests {
		got := LongestIncreasingSubsequence(tt.seq)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("LIS(%v) mismatch (-want +got):\n%s", tt.seq, diff)
		}
	}
}

func TestOpString(t *testing.T) {
	tests := map[string]Op{
		"Move(2→0)":   {Move, 2, 0},
		"Insert(→3)":  {Insert, -1, 3},
		"Delete(1→)":  {Delete, 1, -1},
		"Modify(0→0)": {Modify, 0, 0},
	}
	for want, op := range tests {
		if got := op.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestOpPredicates(t *testing.T) {
	tests := []struct {
		kind      Kind
		reuses    bool
		relocates bool
	}{
		{Leave, true, false},
		{Move, true, true},
		{Modify, true, false},
		{MoveModify, true, true},
		{Insert, false, true},
		{Delete, false, false},
	}
	for _, tt := range tests {
		op := Op{Kind: tt.kind}
		if got := op.Reuses(); got != tt.reuses {
			t.Errorf("%v.Reuses() = %v, want %v", tt.kind, got, tt.reuses)
		}
		if got := op.Relocates(); got != tt.relocates {
			t.Errorf("%v.Relocates() = %v, want %v", tt.kind, got, tt.relocates)
		}
	}
}
