package align

import (
	"math/rand"
	"strings"
	"testing"
)

func TestAlign(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		hyp     string
		wantOps []Op
	}{
		{
			name:    "identical",
			ref:     "A B C",
			hyp:     "A B C",
			wantOps: []Op{Equal, Equal, Equal},
		},
		{
			name:    "one_substitution",
			ref:     "A B C",
			hyp:     "A X C",
			wantOps: []Op{Equal, Replace, Equal},
		},
		{
			name:    "trailing_insertion",
			ref:     "A B",
			hyp:     "A B C",
			wantOps: []Op{Equal, Equal, Insert},
		},
		{
			name:    "leading_deletion",
			ref:     "A B C",
			hyp:     "B C",
			wantOps: []Op{Delete, Equal, Equal},
		},
		{
			name:    "empty_reference",
			ref:     "",
			hyp:     "A B",
			wantOps: []Op{Insert, Insert},
		},
		{
			name:    "empty_hypothesis",
			ref:     "A B",
			hyp:     "",
			wantOps: []Op{Delete, Delete},
		},
		{
			name:    "both_empty",
			ref:     "",
			hyp:     "",
			wantOps: []Op{},
		},
		{
			name:    "mixed_errors",
			ref:     "the quick brown fox jumps over the lazy dog",
			hyp:     "a quick brown cat jumps the lazy dog",
			wantOps: []Op{Replace, Equal, Equal, Replace, Equal, Delete, Equal, Equal, Equal},
		},
		{
			name:    "prefers_substitution_over_insert_delete",
			ref:     "A B",
			hyp:     "C D",
			wantOps: []Op{Replace, Replace},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Align(strings.Fields(tt.ref), strings.Fields(tt.hyp))
			if len(got.Ops) != len(tt.wantOps) {
				t.Fatalf("got %d ops %v, want %d", len(got.Ops), got.Ops, len(tt.wantOps))
			}
			for i, op := range got.Ops {
				if op.Op != tt.wantOps[i] {
					t.Fatalf("op %d = %s, want %s (all: %v)", i, op.Op, tt.wantOps[i], got.Ops)
				}
			}
		})
	}
}

func TestAlignPositionsAndDisplayRows(t *testing.T) {
	ref := []string{"A", "B", "C", "D"}
	hyp := []string{"A", "C", "D", "E"}
	got := Align(ref, hyp)

	want := []EditOp{
		{Op: Equal, Ref: 0, Hyp: 0},
		{Op: Delete, Ref: 1, Hyp: None},
		{Op: Equal, Ref: 2, Hyp: 1},
		{Op: Equal, Ref: 3, Hyp: 2},
		{Op: Insert, Ref: None, Hyp: 3},
	}
	if len(got.Ops) != len(want) {
		t.Fatalf("got ops %v, want %v", got.Ops, want)
	}
	for i := range want {
		if got.Ops[i] != want[i] {
			t.Fatalf("op %d = %+v, want %+v", i, got.Ops[i], want[i])
		}
	}
	wantRef := []string{"A", "B", "C", "D", ""}
	wantHyp := []string{"A", "", "C", "D", "E"}
	for i := range wantRef {
		if got.Ref[i] != wantRef[i] || got.Hyp[i] != wantHyp[i] {
			t.Fatalf("row %d = (%q, %q), want (%q, %q)", i, got.Ref[i], got.Hyp[i], wantRef[i], wantHyp[i])
		}
	}
}

func TestAlignConsumesEveryPositionOnce(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	vocab := []string{"a", "b", "c", "d"}
	randSeq := func() []string {
		out := make([]string, rnd.Intn(12))
		for i := range out {
			out[i] = vocab[rnd.Intn(len(vocab))]
		}
		return out
	}
	for iter := 0; iter < 300; iter++ {
		ref, hyp := randSeq(), randSeq()
		al := Align(ref, hyp)

		nextRef, nextHyp := 0, 0
		for _, op := range al.Ops {
			if op.Op.ConsumesRef() {
				if op.Ref != nextRef {
					t.Fatalf("ref index %d out of order, want %d (%v vs %v)", op.Ref, nextRef, ref, hyp)
				}
				nextRef++
			} else if op.Ref != None {
				t.Fatalf("insert carries ref index %d", op.Ref)
			}
			if op.Op.ConsumesHyp() {
				if op.Hyp != nextHyp {
					t.Fatalf("hyp index %d out of order, want %d (%v vs %v)", op.Hyp, nextHyp, ref, hyp)
				}
				nextHyp++
			} else if op.Hyp != None {
				t.Fatalf("delete carries hyp index %d", op.Hyp)
			}
			if op.Op == Equal && ref[op.Ref] != hyp[op.Hyp] {
				t.Fatalf("equal op on differing tokens %q/%q", ref[op.Ref], hyp[op.Hyp])
			}
			if op.Op == Replace && ref[op.Ref] == hyp[op.Hyp] {
				t.Fatalf("replace op on matching tokens %q", ref[op.Ref])
			}
		}
		if nextRef != len(ref) || nextHyp != len(hyp) {
			t.Fatalf("consumed (%d, %d), want (%d, %d)", nextRef, nextHyp, len(ref), len(hyp))
		}
		if got, want := al.Distance(), levenshtein(ref, hyp); got != want {
			t.Fatalf("distance %d, want minimum %d (%v vs %v)", got, want, ref, hyp)
		}
		if (al.Distance() == 0) != equalSeq(ref, hyp) {
			t.Fatalf("zero distance must mean identical sequences (%v vs %v)", ref, hyp)
		}
	}
}

func levenshtein(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func equalSeq(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOpString(t *testing.T) {
	for op, want := range map[Op]string{Equal: "equal", Replace: "replace", Insert: "insert", Delete: "delete"} {
		if op.String() != want {
			t.Fatalf("Op(%d).String() = %q, want %q", op, op.String(), want)
		}
	}
}
