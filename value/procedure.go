package value

import "fmt"

// ConstantId indexes a Procedure's own constant pool.
type ConstantId uint16

// LocalId indexes a stack frame's local-variable slots. The compiler
// enforces an 8-bit ceiling (256 locals per procedure), matching the
// opcode operand width.
type LocalId uint8

// UpValueId indexes a Closure's up-value vector.
type UpValueId uint8

// ProcId indexes an Environment's procedure-prototype table.
type ProcId uint16

// Signature describes a procedure's arity: Arity fixed parameters,
// plus (if Variadic) a trailing rest parameter collecting any
// additional arguments into a list.
type Signature struct {
	Arity    int
	Variadic bool
}

// Procedure is an immutable compiled prototype: its own bytecode,
// signature, constants table, local-variable count, up-value count,
// and a weak back-reference to the environment it was compiled
// against (used to resolve LoadEnvVar/StoreEnvVar and to look up
// sibling procedure prototypes referenced by CreateClosure).
//
// A Procedure never changes after Compile returns; the compiler
// builds it via a ProcState and then freezes it into this shape.
type Procedure struct {
	Code         []byte
	Signature    Signature
	Constants    []Value
	LocalCount   int
	UpValueCount int
	Env          *WeakEnv
}

func (*Procedure) Type() ValueType { return PROCEDURE_VALUE }

func (p *Procedure) Repr() string {
	return fmt.Sprintf("<procedure %p>", p)
}

// UpValueState distinguishes a live stack-resident up-value from one
// that has been closed over after its owning frame returned.
type UpValueState int

const (
	UpValueOpen UpValueState = iota
	UpValueClosed
)

// UpValue is a two-state cell: Open, pointing at an absolute index in
// the VM's operand stack, or Closed, owning a copy of the value after
// the frame that held it has returned. The same *UpValue is shared
// across every closure that captured it, so closing it in place is
// visible to all of them.
type UpValue struct {
	State  UpValueState
	Index  int // absolute stack index, valid only while State == UpValueOpen
	Closed Value
}

func NewOpenUpValue(index int) *UpValue {
	return &UpValue{State: UpValueOpen, Index: index}
}

// Close transitions the up-value from Open to Closed, copying value
// (read from the VM's operand stack by the caller) into the cell.
func (u *UpValue) Close(value Value) {
	u.State = UpValueClosed
	u.Closed = value
	u.Index = 0
}

// Closure is a shared-ownership record pairing an immutable Procedure
// prototype with a fixed-length vector of up-value handles captured
// at the point the closure was created.
type Closure struct {
	Proc     *Procedure
	UpValues []*UpValue
}

func NewClosure(proc *Procedure, upValues []*UpValue) *Closure {
	return &Closure{Proc: proc, UpValues: upValues}
}

func (*Closure) Type() ValueType { return CLOSURE_VALUE }

// Repr formats a closure the same way as its underlying procedure:
// the closure adds no externally-visible identity beyond its
// prototype's address.
func (c *Closure) Repr() string {
	return fmt.Sprintf("<procedure %p>", c.Proc)
}

// SameIdentity reports whether two values refer to the same
// Procedure or Closure. Compiled code has no meaningful structural
// comparison, so these two variants compare by pointer identity.
func SameIdentity(a, b Value) bool {
	switch av := a.(type) {
	case *Procedure:
		bv, ok := b.(*Procedure)
		return ok && av == bv
	case *Closure:
		bv, ok := b.(*Closure)
		return ok && av == bv
	default:
		return false
	}
}
