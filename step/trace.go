package step

import "iter"

// Trace is the finite, non-restartable sequence of Steps produced by a
// single algorithm run.
//
// The sequence supports single-step advancement and early termination,
// but no rewind: once consumed or closed, a Trace must be replaced by a
// fresh run.
type Trace struct {
	steps  []Step
	pos    int
	closed bool
}

// Len returns the total number of steps in the trace.
func (t *Trace) Len() int {
	return len(t.steps)
}

// Next returns the next step, advancing the cursor. It returns false when
// the trace is exhausted or closed.
func (t *Trace) Next() (Step, bool) {
	if t.closed || t.pos >= len(t.steps) {
		return Step{}, false
	}
	s := t.steps[t.pos]
	t.pos++
	return s, true
}

// All returns an iterator over the remaining steps. Breaking out of the
// iteration terminates the trace early; the cursor advances with each
// yielded step.
//
// Example:
//
//	for i, s := range trace.All() {
//	    if s.Active.IsEmpty() {
//	        break // early termination
//	    }
//	    render(i, s)
//	}
func (t *Trace) All() iter.Seq2[int, Step] {
	return func(yield func(int, Step) bool) {
		for {
			s, ok := t.Next()
			if !ok {
				return
			}
			if !yield(s.Index, s) {
				t.Close()
				return
			}
		}
	}
}

// Close terminates the trace. Subsequent Next calls return false.
func (t *Trace) Close() {
	t.closed = true
}

// Terminal returns the final step of the trace without advancing the
// cursor. Its Result set is the answer set of the run.
func (t *Trace) Terminal() (Step, bool) {
	if len(t.steps) == 0 {
		return Step{}, false
	}
	return t.steps[len(t.steps)-1], true
}

// ResultIDs returns the point IDs of the terminal step's result set in
// ascending ID order.
func (t *Trace) ResultIDs() []uint32 {
	last, ok := t.Terminal()
	if !ok {
		return nil
	}
	return last.Result.ToArray()
}
