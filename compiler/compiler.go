// Package compiler turns a parsed value.Value expression tree into a
// compiled value.Closure: a single-pass, tree-walking lowering to
// stack bytecode. There is no separate optimization pass; each
// expression is compiled exactly once in the order it is visited,
// matching the core's single-pass design.
package compiler

import (
	"github.com/yourfavoritedev/goscheme/code"
	"github.com/yourfavoritedev/goscheme/scmerr"
	"github.com/yourfavoritedev/goscheme/value"
)

// Context controls where a define is legal. TopLevel and BodyStart
// both allow it; BodyRest (once a non-define expression has been seen
// in a procedure body) does not.
type Context int

const (
	TopLevel Context = iota
	BodyStart
	BodyRest
)

// Compiler holds the mutable state of one compilation: the shared
// environment (for global variable and procedure-prototype
// resolution) and a stack of in-progress ProcStates, one per nested
// lambda currently being compiled.
type Compiler struct {
	env       *value.Environment
	procStack []*ProcState
	context   Context
}

func newCompiler(env *value.Environment) *Compiler {
	c := &Compiler{env: env}
	c.procStack = append(c.procStack, newProcState())
	return c
}

func (c *Compiler) proc() *ProcState {
	return c.procStack[len(c.procStack)-1]
}

func (c *Compiler) enterProc() {
	c.procStack = append(c.procStack, newProcState())
}

func (c *Compiler) leaveProc() *ProcState {
	p := c.proc()
	c.procStack = c.procStack[:len(c.procStack)-1]
	return p
}

// Compile compiles a single top-level expression (typically a
// value.Sequence produced by parsing a whole file, or one form
// produced by parsing one REPL line) against env, returning an
// executable closure with zero arity and zero up-values.
//
// env is shared with any previous call to Compile against the same
// Environment: a top-level define performed while compiling one input
// is visible by name when compiling the next, which is what lets a
// REPL build up state one line at a time.
func Compile(env *value.Environment, expr value.Value) (*value.Closure, error) {
	c := newCompiler(env)
	c.context = TopLevel

	var items []value.Value
	if seq, ok := expr.(value.Sequence); ok {
		items = seq.Items
	} else {
		items = []value.Value{expr}
	}

	if len(items) == 0 {
		c.proc().emit(code.PushVoid)
	} else {
		for i, item := range items {
			if err := c.compileExpr(item); err != nil {
				return nil, err
			}
			if i < len(items)-1 {
				c.proc().emit(code.Pop)
			}
		}
	}
	c.proc().emit(code.End)

	top := c.leaveProc()
	proto := &value.Procedure{
		Code:         top.Code,
		Signature:    value.Signature{Arity: 0, Variadic: false},
		Constants:    top.Constants,
		LocalCount:   len(top.Locals),
		UpValueCount: len(top.Upvalues),
		Env:          env.WeakSelf(),
	}
	env.AddProcedure(proto)
	return value.NewClosure(proto, nil), nil
}

// compileExpr compiles one expression, leaving exactly one value on
// the operand stack.
func (c *Compiler) compileExpr(expr value.Value) error {
	switch e := expr.(type) {
	case value.Nil:
		c.proc().emit(code.PushNil)
		return nil
	case value.Void:
		c.proc().emit(code.PushVoid)
		return nil
	case value.Bool:
		if e {
			c.proc().emit(code.PushTrue)
		} else {
			c.proc().emit(code.PushFalse)
		}
		return nil
	case value.Number:
		id := c.proc().addConstant(e)
		c.proc().emit(code.PushConstant, int(id))
		return nil
	case value.String:
		id := c.proc().addConstant(e)
		c.proc().emit(code.PushConstant, int(id))
		return nil
	case value.Ident:
		return c.compileAccess(string(e))
	case value.Quote:
		id := c.proc().addConstant(e.Expr)
		c.proc().emit(code.PushConstant, int(id))
		return nil
	case value.List:
		return c.compileForm(e.Items)
	case value.Sequence:
		return c.compileBody(e.Items)
	default:
		return scmerr.NewCompileError("cannot compile value of type %s", expr.Type())
	}
}

// compileAccess resolves an identifier reference in the standard
// order: innermost local of the current procedure, then an up-value
// reached through enclosing procedures, then the global environment,
// and finally an unbound-variable error.
func (c *Compiler) compileAccess(name string) error {
	if slot, ok := c.proc().resolveLocal(name); ok {
		c.proc().emit(code.LoadLocalVar, int(slot))
		return nil
	}

	if id, ok := c.resolveUpvalue(len(c.procStack)-1, name); ok {
		c.proc().emit(code.LoadUpValue, int(id))
		return nil
	}

	if id, ok := c.env.ResolveVar(name); ok {
		c.proc().emit(code.LoadEnvVar, int(id))
		return nil
	}

	return scmerr.NewCompileError("unbound variable: %s", name)
}

// resolveUpvalue recursively walks the procedure stack looking for
// name as a local of some enclosing procedure, registering an
// up-value descriptor in every procedure between the reference and
// the binding site. level indexes c.procStack.
func (c *Compiler) resolveUpvalue(level int, name string) (value.UpValueId, bool) {
	if level == 0 {
		return 0, false
	}

	cur := c.procStack[level]
	if id, ok := cur.resolveOwnUpvalue(name); ok {
		return id, true
	}

	parent := c.procStack[level-1]
	if slot, ok := parent.resolveLocal(name); ok {
		id := cur.addUpvalue(name, code.CaptureParent, byte(slot))
		return id, true
	}

	if outerId, ok := c.resolveUpvalue(level-1, name); ok {
		id := cur.addUpvalue(name, code.CaptureOuter, byte(outerId))
		return id, true
	}

	return 0, false
}
