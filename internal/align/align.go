// Package align computes minimum edit distance alignments between token sequences.
package align

// Op classifies one aligned position.
type Op uint8

const (
	Equal Op = iota
	Replace
	Insert
	Delete
)

// None marks the side of an EditOp that has no token.
const None = -1

func (o Op) String() string {
	switch o {
	case Equal:
		return "equal"
	case Replace:
		return "replace"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// ConsumesRef reports whether the op advances the reference position.
func (o Op) ConsumesRef() bool {
	return o != Insert
}

// ConsumesHyp reports whether the op advances the hypothesis position.
func (o Op) ConsumesHyp() bool {
	return o != Delete
}

// EditOp is one operation of an alignment with its source positions.
type EditOp struct {
	Op  Op
	Ref int
	Hyp int
}

// Alignment is the ordered op list plus display rows.
// Ref and Hyp hold "" where a side has no token.
type Alignment struct {
	Ops []EditOp
	Ref []string
	Hyp []string
}

// Counts tallies the ops by kind.
func (a Alignment) Counts() (equal, replace, insert, del int) {
	for _, op := range a.Ops {
		switch op.Op {
		case Equal:
			equal++
		case Replace:
			replace++
		case Insert:
			insert++
		case Delete:
			del++
		}
	}
	return equal, replace, insert, del
}

// Distance returns the edit distance of the alignment.
func (a Alignment) Distance() int {
	_, replace, insert, del := a.Counts()
	return replace + insert + del
}

// Backpointers, stored one byte per cell.
const (
	stepDiag byte = iota
	stepSub
	stepUp
	stepLeft
)

// Align aligns hyp against ref with unit costs.
//
// Costs are kept in two rolling rows; each cell also records the step it came
// from, preferring a match, then a substitution, then a deletion, then an
// insertion. Walking those steps back from the corner gives the same path as a
// diagonal-first backtrace over the full cost matrix.
func Align(ref, hyp []string) Alignment {
	n, m := len(ref), len(hyp)
	cols := m + 1

	steps := make([]byte, (n+1)*cols)
	prev := make([]int, cols)
	curr := make([]int, cols)
	for j := 1; j <= m; j++ {
		prev[j] = j
		steps[j] = stepLeft
	}

	for i := 1; i <= n; i++ {
		curr[0] = i
		steps[i*cols] = stepUp
		for j := 1; j <= m; j++ {
			idx := i*cols + j
			if ref[i-1] == hyp[j-1] {
				curr[j] = prev[j-1]
				steps[idx] = stepDiag
				continue
			}
			best, step := prev[j-1]+1, stepSub
			if del := prev[j] + 1; del < best {
				best, step = del, stepUp
			}
			if ins := curr[j-1] + 1; ins < best {
				best, step = ins, stepLeft
			}
			curr[j] = best
			steps[idx] = step
		}
		prev, curr = curr, prev
	}

	ops := make([]EditOp, 0, max(n, m))
	i, j := n, m
	for i > 0 || j > 0 {
		switch steps[i*cols+j] {
		case stepDiag:
			i--
			j--
			ops = append(ops, EditOp{Op: Equal, Ref: i, Hyp: j})
		case stepSub:
			i--
			j--
			ops = append(ops, EditOp{Op: Replace, Ref: i, Hyp: j})
		case stepUp:
			i--
			ops = append(ops, EditOp{Op: Delete, Ref: i, Hyp: None})
		default:
			j--
			ops = append(ops, EditOp{Op: Insert, Ref: None, Hyp: j})
		}
	}
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}

	out := Alignment{
		Ops: ops,
		Ref: make([]string, len(ops)),
		Hyp: make([]string, len(ops)),
	}
	for k, op := range ops {
		if op.Ref != None {
			out.Ref[k] = ref[op.Ref]
		}
		if op.Hyp != None {
			out.Hyp[k] = hyp[op.Hyp]
		}
	}
	return out
}
