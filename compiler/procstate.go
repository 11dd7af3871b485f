package compiler

import (
	"github.com/yourfavoritedev/goscheme/code"
	"github.com/yourfavoritedev/goscheme/scmerr"
	"github.com/yourfavoritedev/goscheme/value"
)

// Local is a compile-time record of a declared local variable: the
// stack slot the VM will store it in, and the lexical depth it was
// declared at (used only to detect a duplicate declaration within the
// same scope; with let/letrec unimplemented, every procedure body is
// a single scope and Depth is always 0).
type Local struct {
	Name  string
	Depth int
	Slot  value.LocalId
}

// Upvalue is a compile-time record of a free variable a procedure
// closes over: Origin says whether Id names a local slot of the
// immediately enclosing procedure (CaptureParent) or an up-value
// already captured by the immediately enclosing closure
// (CaptureOuter).
type Upvalue struct {
	Name   string
	Origin byte
	Id     byte
}

// ProcState accumulates one procedure's compiled bytecode while the
// compiler is working on it. Once the body is fully compiled it is
// frozen into an immutable *value.Procedure.
type ProcState struct {
	Code      []byte
	Constants []value.Value
	Locals    []Local
	Upvalues  []Upvalue
	Depth     int
	Arity     int
	Variadic  bool
}

func newProcState() *ProcState {
	return &ProcState{}
}

// emit appends an encoded instruction to the procedure's code and
// returns the byte offset it starts at, used by callers that need to
// patch a jump target later.
func (p *ProcState) emit(op code.Opcode, operands ...int) int {
	pos := len(p.Code)
	p.Code = append(p.Code, code.Make(op, operands...)...)
	return pos
}

// patchJump overwrites the 3-byte operand of the Jump/JumpFalse
// instruction starting at pos with target, rejecting a target beyond
// the 24-bit absolute byte offset the operand width can encode.
func (p *ProcState) patchJump(pos int, target int) error {
	if target > MaxJumpTarget {
		return scmerr.NewCompileError("jump target %d exceeds the maximum addressable byte offset %d", target, MaxJumpTarget)
	}
	code.PutUint24(p.Code[pos+1:], uint32(target))
	return nil
}

// addConstant interns v into this procedure's own constant pool,
// matching the per-procedure (not compiler-wide) constants table the
// prototype carries at runtime. The pool is deduplicating: a value
// structurally equal to an already-interned constant reuses its id,
// so (+ 1 1) carries one constant, not two. Constants are immutable
// by convention; scalars, strings and quoted data are the expected
// inhabitants.
func (p *ProcState) addConstant(v value.Value) value.ConstantId {
	for i, existing := range p.Constants {
		if value.Equal(existing, v) {
			return value.ConstantId(i)
		}
	}
	id := value.ConstantId(len(p.Constants))
	p.Constants = append(p.Constants, v)
	return id
}

// declareLocal reserves the next slot for name, rejecting a second
// declaration of the same name at the same depth and enforcing
// MaxLocals.
func (p *ProcState) declareLocal(name string) (value.LocalId, error) {
	for i := len(p.Locals) - 1; i >= 0; i-- {
		if p.Locals[i].Depth < p.Depth {
			break
		}
		if p.Locals[i].Name == name {
			return 0, scmerr.NewCompileError("duplicate local variable %q in the same scope", name)
		}
	}
	if len(p.Locals) >= MaxLocals {
		return 0, scmerr.NewCompileError("too many local variables in one procedure (max %d)", MaxLocals)
	}
	slot := value.LocalId(len(p.Locals))
	p.Locals = append(p.Locals, Local{Name: name, Depth: p.Depth, Slot: slot})
	return slot, nil
}

// resolveLocal searches this procedure's own locals innermost first.
func (p *ProcState) resolveLocal(name string) (value.LocalId, bool) {
	for i := len(p.Locals) - 1; i >= 0; i-- {
		if p.Locals[i].Name == name {
			return p.Locals[i].Slot, true
		}
	}
	return 0, false
}

// resolveOwnUpvalue finds an up-value this procedure has already
// registered for name, so repeated references to the same free
// variable share one slot instead of capturing it twice.
func (p *ProcState) resolveOwnUpvalue(name string) (value.UpValueId, bool) {
	for i, uv := range p.Upvalues {
		if uv.Name == name {
			return value.UpValueId(i), true
		}
	}
	return 0, false
}

func (p *ProcState) addUpvalue(name string, origin, id byte) value.UpValueId {
	p.Upvalues = append(p.Upvalues, Upvalue{Name: name, Origin: origin, Id: id})
	return value.UpValueId(len(p.Upvalues) - 1)
}
