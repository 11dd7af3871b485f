package vm

import "github.com/yourfavoritedev/goscheme/value"

// Frame is one call's activation record: the closure being executed,
// the absolute stack index its locals begin at, the list of up-values
// this frame has handed out that are still Open (so Return can close
// them), and the instruction index to resume at once a nested call
// returns.
type Frame struct {
	Closure      *value.Closure
	StackOffset  int
	OpenUpValues []*value.UpValue
	PC           int
}

func newFrame(cl *value.Closure, stackOffset int) *Frame {
	return &Frame{Closure: cl, StackOffset: stackOffset}
}

// openUpValueAt returns this frame's existing open up-value for the
// absolute stack index, if one exists. Sibling closures capturing the
// same local must share one cell, so a second capture of the same
// slot reuses the first cell rather than allocating another.
func (f *Frame) openUpValueAt(index int) *value.UpValue {
	for _, uv := range f.OpenUpValues {
		if uv.State == value.UpValueOpen && uv.Index == index {
			return uv
		}
	}
	return nil
}
