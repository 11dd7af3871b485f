// Package builtins installs the core standard library into a fresh
// Environment: arithmetic, numeric comparison, boolean predicates,
// pair/list primitives, the assert family used for testing, and
// display/newline for output. Each binding is a value.NativeFunc,
// the externally-supplied callable type the compiler and VM treat
// opaquely and resolve through the same LoadEnvVar/StoreEnvVar path as
// any other global.
package builtins

import (
	"fmt"
	"io"

	"github.com/yourfavoritedev/goscheme/scmerr"
	"github.com/yourfavoritedev/goscheme/value"
)

// Install binds every core procedure into env, writing display and
// newline output to out.
func Install(env *value.Environment, out io.Writer) {
	env.BindNativeFunc("+", numberAdd)
	env.BindNativeFunc("-", numberSub)
	env.BindNativeFunc("*", numberMul)
	env.BindNativeFunc("=", chainedComparison("=", func(a, b float64) bool { return a == b }))
	env.BindNativeFunc("<", chainedComparison("<", func(a, b float64) bool { return a < b }))
	env.BindNativeFunc(">", chainedComparison(">", func(a, b float64) bool { return a > b }))
	env.BindNativeFunc("<=", chainedComparison("<=", func(a, b float64) bool { return a <= b }))
	env.BindNativeFunc(">=", chainedComparison(">=", func(a, b float64) bool { return a >= b }))
	env.BindNativeFunc("number?", numberIsNumber)

	env.BindNativeFunc("boolean?", booleanIsBoolean)
	env.BindNativeFunc("not", booleanNot)

	env.BindNativeFunc("cons", cons)
	env.BindNativeFunc("car", car)
	env.BindNativeFunc("cdr", cdr)
	env.BindNativeFunc("pair?", pairIsPair)
	env.BindNativeFunc("null?", nullIsNull)
	env.BindNativeFunc("list", list)

	env.BindNativeFunc("assert", assert)
	env.BindNativeFunc("assert-eq", assertEq)

	env.BindNativeFunc("display", display(out))
	env.BindNativeFunc("newline", newline(out))
}

func args1(name string, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, scmerr.NewRuntimeError("%s: expected 1 argument, got %d", name, len(args))
	}
	return args[0], nil
}

func args2(name string, args []value.Value) (value.Value, value.Value, error) {
	if len(args) != 2 {
		return nil, nil, scmerr.NewRuntimeError("%s: expected 2 arguments, got %d", name, len(args))
	}
	return args[0], args[1], nil
}

func asNumber(name string, v value.Value) (float64, error) {
	n, ok := value.AsNumber(v)
	if !ok {
		return 0, scmerr.NewRuntimeError("%s: expected a number, got %s", name, v.Type())
	}
	return n, nil
}

// numberAdd sums every argument, starting the accumulator at 0, so
// (+) evaluates to 0.
func numberAdd(env *value.Environment, args []value.Value) (value.Value, error) {
	sum := 0.0
	for _, a := range args {
		n, err := asNumber("+", a)
		if err != nil {
			return nil, err
		}
		sum += n
	}
	return value.Number(sum), nil
}

// numberSub starts the accumulator at the first argument, so (- 5)
// evaluates to 5, and subtracts every remaining argument from it.
// (-) with no arguments is a runtime error.
func numberSub(env *value.Environment, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, scmerr.NewRuntimeError("-: expected at least 1 argument, got 0")
	}
	acc, err := asNumber("-", args[0])
	if err != nil {
		return nil, err
	}
	for _, a := range args[1:] {
		n, err := asNumber("-", a)
		if err != nil {
			return nil, err
		}
		acc -= n
	}
	return value.Number(acc), nil
}

// numberMul multiplies every argument, starting the accumulator at 1,
// so (*) evaluates to 1.
func numberMul(env *value.Environment, args []value.Value) (value.Value, error) {
	product := 1.0
	for _, a := range args {
		n, err := asNumber("*", a)
		if err != nil {
			return nil, err
		}
		product *= n
	}
	return value.Number(product), nil
}

// chainedComparison builds a variadic, chained comparison builtin
// (at least two arguments) out of a binary predicate: (op a b c)
// checks op(a,b) && op(b,c), the "chained" semantics shared by all
// five of = < > <= >=.
func chainedComparison(name string, op func(a, b float64) bool) func(*value.Environment, []value.Value) (value.Value, error) {
	return func(env *value.Environment, args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return nil, scmerr.NewRuntimeError("%s: expected at least 2 arguments, got %d", name, len(args))
		}
		prev, err := asNumber(name, args[0])
		if err != nil {
			return nil, err
		}
		for _, a := range args[1:] {
			cur, err := asNumber(name, a)
			if err != nil {
				return nil, err
			}
			if !op(prev, cur) {
				return value.Bool(false), nil
			}
			prev = cur
		}
		return value.Bool(true), nil
	}
}

func numberIsNumber(env *value.Environment, args []value.Value) (value.Value, error) {
	arg, err := args1("number?", args)
	if err != nil {
		return nil, err
	}
	_, ok := arg.(value.Number)
	return value.Bool(ok), nil
}

func booleanIsBoolean(env *value.Environment, args []value.Value) (value.Value, error) {
	arg, err := args1("boolean?", args)
	if err != nil {
		return nil, err
	}
	_, ok := arg.(value.Bool)
	return value.Bool(ok), nil
}

func booleanNot(env *value.Environment, args []value.Value) (value.Value, error) {
	arg, err := args1("not", args)
	if err != nil {
		return nil, err
	}
	return value.Bool(!value.IsTruthy(arg)), nil
}

func cons(env *value.Environment, args []value.Value) (value.Value, error) {
	head, tail, err := args2("cons", args)
	if err != nil {
		return nil, err
	}
	return value.NewPair(head, tail), nil
}

func car(env *value.Environment, args []value.Value) (value.Value, error) {
	arg, err := args1("car", args)
	if err != nil {
		return nil, err
	}
	p, ok := value.AsPair(arg)
	if !ok {
		return nil, scmerr.NewRuntimeError("car: expected a pair, got %s", arg.Type())
	}
	return p.Head, nil
}

func cdr(env *value.Environment, args []value.Value) (value.Value, error) {
	arg, err := args1("cdr", args)
	if err != nil {
		return nil, err
	}
	p, ok := value.AsPair(arg)
	if !ok {
		return nil, scmerr.NewRuntimeError("cdr: expected a pair, got %s", arg.Type())
	}
	return p.Tail, nil
}

func pairIsPair(env *value.Environment, args []value.Value) (value.Value, error) {
	arg, err := args1("pair?", args)
	if err != nil {
		return nil, err
	}
	_, ok := value.AsPair(arg)
	return value.Bool(ok), nil
}

func nullIsNull(env *value.Environment, args []value.Value) (value.Value, error) {
	arg, err := args1("null?", args)
	if err != nil {
		return nil, err
	}
	return value.Bool(value.IsNil(arg)), nil
}

func list(env *value.Environment, args []value.Value) (value.Value, error) {
	return value.ListFromSlice(args), nil
}

// assert is not part of Scheme proper; it is the engine's own
// extension for writing tests directly in Scheme source. On success
// it returns the asserted expression's value (not Void), so
// (assert (assert #t)) composes.
func assert(env *value.Environment, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, scmerr.NewRuntimeError("assert: expected an assertion expression")
	}
	expr := args[0]
	var msg value.Value
	if len(args) > 1 {
		msg = args[1]
	}

	if b, ok := expr.(value.Bool); ok && !bool(b) {
		switch m := msg.(type) {
		case value.String:
			return nil, scmerr.NewAssertionError("%s", string(m))
		case nil:
			return nil, scmerr.NewAssertionError("%s", expr.Repr())
		default:
			return nil, scmerr.NewRuntimeError("assert: message must be a string, got %s", msg.Type())
		}
	}
	return expr, nil
}

// assertEq returns a two-element list of both operands on success,
// and reports both operands' external representation on failure.
func assertEq(env *value.Environment, args []value.Value) (value.Value, error) {
	a, b, err := args2("assert-eq", args)
	if err != nil {
		return nil, err
	}
	if value.Equal(a, b) {
		return value.NewList(a, b), nil
	}
	return nil, scmerr.NewAssertionError("%s == %s", a.Repr(), b.Repr())
}

func display(out io.Writer) func(*value.Environment, []value.Value) (value.Value, error) {
	return func(env *value.Environment, args []value.Value) (value.Value, error) {
		arg, err := args1("display", args)
		if err != nil {
			return nil, err
		}
		fmt.Fprint(out, arg.Repr())
		return value.Void{}, nil
	}
}

func newline(out io.Writer) func(*value.Environment, []value.Value) (value.Value, error) {
	return func(env *value.Environment, args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return nil, scmerr.NewRuntimeError("newline: expected 0 arguments, got %d", len(args))
		}
		fmt.Fprint(out, "\n")
		return value.Void{}, nil
	}
}
