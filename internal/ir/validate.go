package ir

import "fmt"

// ValidationError reports a structural defect found by Validate.
type ValidationError struct {
	Func string
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("function %s: %s", e.Func, e.Msg)
}

// Validate walks every function's CFG the way an interpreter's dispatch
// loop would (block by block, following each terminator's targets) but
// checks well-formedness instead of executing: every jump target is in
// range, Entry is in range, and every block is terminated. It also reports
// blocks unreachable from Entry, matching spec.md §4.4's "declared-but-dead
// successor blocks" as a non-fatal note rather than an error, since the
// emitter may deliberately leave one behind a `return`.
func Validate(m *Module) ([]string, []error) {
	var errs []error
	var notes []string
	for _, fn := range m.Functions {
		errs = append(errs, validateFunc(fn)...)
		notes = append(notes, deadBlockNotes(fn)...)
	}
	return notes, errs
}

func validateFunc(fn *Function) []error {
	var errs []error
	n := len(fn.Blocks)
	if fn.Entry < 0 || fn.Entry >= n {
		errs = append(errs, &ValidationError{Func: fn.Name, Msg: fmt.Sprintf("entry block %d out of range [0,%d)", fn.Entry, n)})
	}
	for i, blk := range fn.Blocks {
		if blk.Term == nil {
			errs = append(errs, &ValidationError{Func: fn.Name, Msg: fmt.Sprintf("block%d has no terminator", i)})
			continue
		}
		for _, target := range termTargets(blk.Term) {
			if target < 0 || target >= n {
				errs = append(errs, &ValidationError{Func: fn.Name, Msg: fmt.Sprintf("block%d: jump target block%d out of range", i, target)})
			}
		}
	}
	return errs
}

func termTargets(t Terminator) []int {
	switch tt := t.(type) {
	case Jump:
		return []int{tt.Target}
	case Branch:
		return []int{tt.Then, tt.Else}
	default:
		return nil
	}
}

func deadBlockNotes(fn *Function) []string {
	if fn.Entry < 0 || fn.Entry >= len(fn.Blocks) {
		return nil
	}
	reached := make([]bool, len(fn.Blocks))
	queue := []int{fn.Entry}
	reached[fn.Entry] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		blk := fn.Blocks[cur]
		if blk.Term == nil {
			continue
		}
		for _, t := range termTargets(blk.Term) {
			if t >= 0 && t < len(reached) && !reached[t] {
				reached[t] = true
				queue = append(queue, t)
			}
		}
	}
	var notes []string
	for i, ok := range reached {
		if !ok {
			notes = append(notes, fmt.Sprintf("%s: block%d is declared but unreachable", fn.Name, i))
		}
	}
	return notes
}
