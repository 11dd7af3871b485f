package compiler

import (
	"github.com/yourfavoritedev/goscheme/code"
	"github.com/yourfavoritedev/goscheme/scmerr"
	"github.com/yourfavoritedev/goscheme/value"
)

// compileForm lowers a parsed list: either a recognized special form
// (define, lambda, if, and, or, quote, or one of the
// recognized-but-unimplemented forms) or a procedure call.
func (c *Compiler) compileForm(items []value.Value) error {
	if len(items) == 0 {
		return scmerr.NewCompileError("ill-formed expression: ()")
	}

	if ident, ok := items[0].(value.Ident); ok {
		switch string(ident) {
		case "define":
			return c.compileDefine(items[1:])
		case "lambda":
			return c.compileLambda(items[1:])
		case "if":
			return c.compileIf(items[1:])
		case "and":
			return c.compileAnd(items[1:])
		case "or":
			return c.compileOr(items[1:])
		case "quote":
			if len(items) != 2 {
				return scmerr.NewCompileError("ill-formed quote: expected exactly one operand")
			}
			id := c.proc().addConstant(items[1])
			c.proc().emit(code.PushConstant, int(id))
			return nil
		case "let", "let*", "letrec", "fluid-let":
			return scmerr.NewUnimplementedError(string(ident))
		case "set!":
			return scmerr.NewUnimplementedError("set!")
		case "define-syntax":
			return scmerr.NewUnimplementedError("define-syntax")
		}
	}

	return c.compileCall(items)
}

// compileDefine lowers the two define shapes: (define name expr), and
// the procedure shorthand (define (name . formals) body...), which
// desugars to (define name (lambda formals body...)). In both shapes
// the name is interned (top level) or declared as a local (body start)
// before the value expression is compiled, so a procedure body can
// refer to the name it is being bound to; that is what makes
// (define (fib n) ... (fib ...) ...) recursion work.
func (c *Compiler) compileDefine(items []value.Value) error {
	if len(items) < 2 {
		return scmerr.NewCompileError("ill-formed define: expected a name and a value")
	}

	var name value.Ident
	var compileValue func() error

	switch target := items[0].(type) {
	case value.Ident:
		if len(items) != 2 {
			return scmerr.NewCompileError("ill-formed define: expected (define name expr)")
		}
		name = target
		valueExpr := items[1]
		compileValue = func() error { return c.compileExpr(valueExpr) }
	case value.List:
		if len(target.Items) == 0 {
			return scmerr.NewCompileError("ill-formed define: expected a procedure name")
		}
		procName, ok := target.Items[0].(value.Ident)
		if !ok {
			return scmerr.NewCompileError("ill-formed define: procedure name must be an identifier")
		}
		name = procName
		lambdaItems := append([]value.Value{value.List{Items: target.Items[1:]}}, items[1:]...)
		compileValue = func() error { return c.compileLambda(lambdaItems) }
	default:
		return scmerr.NewCompileError("ill-formed define: name must be an identifier")
	}

	switch c.context {
	case TopLevel:
		id := c.env.InternVar(string(name))
		if err := compileValue(); err != nil {
			return err
		}
		c.proc().emit(code.StoreEnvVar, int(id))
		c.proc().emit(code.Pop)
		c.proc().emit(code.PushVoid)
		return nil
	case BodyStart:
		slot, err := c.proc().declareLocal(string(name))
		if err != nil {
			return err
		}
		if err := compileValue(); err != nil {
			return err
		}
		c.proc().emit(code.StoreLocalVar, int(slot))
		c.proc().emit(code.Pop)
		c.proc().emit(code.PushVoid)
		return nil
	default: // BodyRest
		return scmerr.NewCompileError("define is not allowed here; definitions must precede expressions in a body")
	}
}

// compileBody lowers a procedure body (or a Sequence nested inside an
// expression; the top-level sequence is lowered by Compile itself, in
// TopLevel context): leading defines are legal (BodyStart), and once the first
// non-define expression is seen, context switches to BodyRest for the
// remainder. Every expression but the last is popped; the body's
// value is whatever the last expression leaves on the stack.
func (c *Compiler) compileBody(exprs []value.Value) error {
	if len(exprs) == 0 {
		return scmerr.NewCompileError("ill-formed body: expected at least one expression")
	}

	savedContext := c.context
	c.context = BodyStart
	seenNonDefine := false

	for i, expr := range exprs {
		if seenNonDefine {
			c.context = BodyRest
		}
		if err := c.compileExpr(expr); err != nil {
			c.context = savedContext
			return err
		}
		if i < len(exprs)-1 {
			c.proc().emit(code.Pop)
		}
		if !isDefineForm(expr) {
			seenNonDefine = true
		}
	}

	c.context = savedContext
	return nil
}

func isDefineForm(expr value.Value) bool {
	l, ok := expr.(value.List)
	if !ok || len(l.Items) == 0 {
		return false
	}
	ident, ok := l.Items[0].(value.Ident)
	return ok && string(ident) == "define"
}

// compileLambda lowers (lambda formals body...): it compiles the body
// in a fresh ProcState, freezes the result into a Procedure prototype
// registered with the environment, then emits CreateClosure followed
// by its run of CaptureValue instructions in the *enclosing* procedure
// so the new closure's up-values are filled in from the current frame.
func (c *Compiler) compileLambda(items []value.Value) error {
	if len(items) < 2 {
		return scmerr.NewCompileError("ill-formed lambda: expected (lambda formals body...)")
	}

	params, variadic, rest, err := parseFormals(items[0])
	if err != nil {
		return err
	}

	c.enterProc()
	proc := c.proc()
	proc.Arity = len(params)
	proc.Variadic = variadic

	for _, p := range params {
		if _, err := proc.declareLocal(p); err != nil {
			c.leaveProc()
			return err
		}
	}
	if variadic {
		if _, err := proc.declareLocal(rest); err != nil {
			c.leaveProc()
			return err
		}
	}

	savedContext := c.context
	if err := c.compileBody(items[1:]); err != nil {
		c.leaveProc()
		c.context = savedContext
		return err
	}
	c.context = savedContext
	proc.emit(code.Return)

	finished := c.leaveProc()
	proto := &value.Procedure{
		Code: finished.Code,
		Signature: value.Signature{
			Arity:    finished.Arity,
			Variadic: finished.Variadic,
		},
		Constants:    finished.Constants,
		LocalCount:   len(finished.Locals),
		UpValueCount: len(finished.Upvalues),
		Env:          c.env.WeakSelf(),
	}
	procId := c.env.AddProcedure(proto)

	c.proc().emit(code.CreateClosure, int(procId))
	for _, uv := range finished.Upvalues {
		c.proc().emit(code.CaptureValue, int(uv.Origin), int(uv.Id))
	}
	return nil
}

// parseFormals interprets a lambda's formal-parameter expression: a
// bare identifier names a single rest parameter collecting every
// argument; a proper list of identifiers is a fixed-arity parameter
// list; a list containing the dot keyword marks the trailing name
// after it as a rest parameter collecting any arguments beyond the
// fixed ones before the dot.
func parseFormals(formals value.Value) (params []string, variadic bool, rest string, err error) {
	switch f := formals.(type) {
	case value.Ident:
		return nil, true, string(f), nil
	case value.Nil:
		return nil, false, "", nil
	case value.List:
		for i := 0; i < len(f.Items); i++ {
			if kw, ok := f.Items[i].(value.Keyword); ok && kw == value.DotKeyword {
				if i != len(f.Items)-2 {
					return nil, false, "", scmerr.NewCompileError("ill-formed lambda formals: dot must be followed by exactly one identifier")
				}
				restIdent, ok := f.Items[i+1].(value.Ident)
				if !ok {
					return nil, false, "", scmerr.NewCompileError("ill-formed lambda formals: rest parameter must be an identifier")
				}
				return params, true, string(restIdent), nil
			}
			ident, ok := f.Items[i].(value.Ident)
			if !ok {
				return nil, false, "", scmerr.NewCompileError("ill-formed lambda formals: every parameter must be an identifier")
			}
			params = append(params, string(ident))
		}
		return params, false, "", nil
	default:
		return nil, false, "", scmerr.NewCompileError("ill-formed lambda formals")
	}
}

// compileIf lowers (if test conseq) / (if test conseq altern) using
// backpatched Jump/JumpFalse addresses: JumpFalse is non-popping, so
// each branch is responsible for its own explicit Pop of the test
// value before computing its result.
func (c *Compiler) compileIf(items []value.Value) error {
	if len(items) != 2 && len(items) != 3 {
		return scmerr.NewCompileError("ill-formed if: expected (if test conseq [altern])")
	}

	if err := c.compileExpr(items[0]); err != nil {
		return err
	}

	jumpFalsePos := c.proc().emit(code.JumpFalse, 0)
	c.proc().emit(code.Pop)

	if err := c.compileExpr(items[1]); err != nil {
		return err
	}

	jumpPos := c.proc().emit(code.Jump, 0)

	alternativeStart := len(c.proc().Code)
	if err := c.proc().patchJump(jumpFalsePos, alternativeStart); err != nil {
		return err
	}
	c.proc().emit(code.Pop)

	if len(items) == 3 {
		if err := c.compileExpr(items[2]); err != nil {
			return err
		}
	} else {
		c.proc().emit(code.PushVoid)
	}

	end := len(c.proc().Code)
	return c.proc().patchJump(jumpPos, end)
}

// compileAnd lowers (and e1 e2 ...) as a chain of non-popping
// JumpFalse instructions that short-circuit straight to the end on
// the first falsy operand, leaving that falsy value as the result; an
// empty operand list evaluates to #t.
func (c *Compiler) compileAnd(items []value.Value) error {
	if len(items) == 0 {
		c.proc().emit(code.PushTrue)
		return nil
	}

	var shortCircuits []int
	for i, expr := range items {
		if err := c.compileExpr(expr); err != nil {
			return err
		}
		if i < len(items)-1 {
			pos := c.proc().emit(code.JumpFalse, 0)
			shortCircuits = append(shortCircuits, pos)
			c.proc().emit(code.Pop)
		}
	}

	end := len(c.proc().Code)
	for _, pos := range shortCircuits {
		if err := c.proc().patchJump(pos, end); err != nil {
			return err
		}
	}
	return nil
}

// compileOr lowers (or e1 e2 ...). There is no JumpTrue opcode, so
// each non-final operand is followed by JumpFalse-to-continue /
// Jump-to-end: on a truthy operand the JumpFalse is not taken and the
// Jump skips straight to the end keeping that value; on a falsy
// operand the JumpFalse lands just past the Jump, where the falsy
// value is popped and the next operand is tried. An empty operand
// list evaluates to #f.
func (c *Compiler) compileOr(items []value.Value) error {
	if len(items) == 0 {
		c.proc().emit(code.PushFalse)
		return nil
	}

	var jumpsToEnd []int
	for i, expr := range items {
		if i == len(items)-1 {
			if err := c.compileExpr(expr); err != nil {
				return err
			}
			break
		}

		if err := c.compileExpr(expr); err != nil {
			return err
		}
		jumpFalsePos := c.proc().emit(code.JumpFalse, 0)
		jumpEndPos := c.proc().emit(code.Jump, 0)
		jumpsToEnd = append(jumpsToEnd, jumpEndPos)

		continueAt := len(c.proc().Code)
		if err := c.proc().patchJump(jumpFalsePos, continueAt); err != nil {
			return err
		}
		c.proc().emit(code.Pop)
	}

	end := len(c.proc().Code)
	for _, pos := range jumpsToEnd {
		if err := c.proc().patchJump(pos, end); err != nil {
			return err
		}
	}
	return nil
}

// compileCall lowers a procedure application. When the callee is
// itself a lambda expression, the value CreateClosure just pushed is
// known statically to be a Closure, so CallClosure is emitted.
// Otherwise the callee is an arbitrary expression (most commonly a
// variable reference) that could evaluate to either a NativeFunc or a
// user-defined Closure at runtime, so the general-purpose CallNative
// is emitted; the VM transparently degrades it to a closure call when
// the callee turns out to be one.
func (c *Compiler) compileCall(items []value.Value) error {
	callee := items[0]
	args := items[1:]

	calleeIsLambda := false
	if l, ok := callee.(value.List); ok && len(l.Items) > 0 {
		if ident, ok := l.Items[0].(value.Ident); ok && string(ident) == "lambda" {
			calleeIsLambda = true
		}
	}

	if err := c.compileExpr(callee); err != nil {
		return err
	}
	for _, arg := range args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}

	if calleeIsLambda {
		c.proc().emit(code.CallClosure, len(args))
	} else {
		c.proc().emit(code.CallNative, len(args))
	}
	return nil
}
