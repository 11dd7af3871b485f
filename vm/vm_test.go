package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourfavoritedev/goscheme/builtins"
	"github.com/yourfavoritedev/goscheme/compiler"
	"github.com/yourfavoritedev/goscheme/parser"
	"github.com/yourfavoritedev/goscheme/value"
)

func runProgram(t *testing.T, source string) value.Value {
	t.Helper()
	var out bytes.Buffer

	env := value.NewEnvironment()
	builtins.Install(env, &out)

	expr, err := parser.Parse(source)
	require.NoError(t, err)

	closure, err := compiler.Compile(env, expr)
	require.NoError(t, err)

	machine := New(env)
	result, err := machine.Eval(closure)
	require.NoError(t, err)
	return result
}

func TestArithmetic(t *testing.T) {
	assert.Equal(t, value.Number(3), runProgram(t, "(+ 1 2)"))
	assert.Equal(t, value.Number(0), runProgram(t, "(+)"))
	assert.Equal(t, value.Number(1), runProgram(t, "(*)"))
	assert.Equal(t, value.Number(5), runProgram(t, "(- 5)"))
	assert.Equal(t, value.Number(1), runProgram(t, "(- 4 2 1)"))
	assert.Equal(t, value.Bool(true), runProgram(t, "(< 1 2 3)"))
	assert.Equal(t, value.Bool(false), runProgram(t, "(< 1 3 2)"))
}

func TestIf(t *testing.T) {
	assert.Equal(t, value.Number(1), runProgram(t, "(if #t 1 2)"))
	assert.Equal(t, value.Number(2), runProgram(t, "(if #f 1 2)"))
	assert.Equal(t, value.Void{}, runProgram(t, "(if #f 1)"))
}

func TestAndOr(t *testing.T) {
	assert.Equal(t, value.Bool(true), runProgram(t, "(and #t #t #t)"))
	assert.Equal(t, value.Bool(false), runProgram(t, "(and #t #f #t)"))
	assert.Equal(t, value.Bool(true), runProgram(t, "(or #f #f #t)"))
	assert.Equal(t, value.Bool(false), runProgram(t, "(or #f #f)"))
	assert.Equal(t, value.Bool(true), runProgram(t, "(and)"))
	assert.Equal(t, value.Bool(false), runProgram(t, "(or)"))
}

func TestTopLevelDefines(t *testing.T) {
	assert.Equal(t, value.Number(15), runProgram(t, `
		(define x 10)
		(define y 5)
		(+ x y)
	`))
}

func TestSimpleClosureCapture(t *testing.T) {
	result := runProgram(t, `
		(define make-adder (lambda (n) (lambda (x) (+ x n))))
		(define add5 (make-adder 5))
		(add5 3)
	`)
	assert.Equal(t, value.Number(8), result)
}

func TestNestedUpvalueAcrossTwoFrames(t *testing.T) {
	result := runProgram(t, `
		(define make-counter
		  (lambda (start)
		    (lambda ()
		      (lambda (delta)
		        (+ start delta)))))
		(define c ((make-counter 10)))
		(c 5)
	`)
	assert.Equal(t, value.Number(15), result)
}

func TestDefineProcedureShorthand(t *testing.T) {
	result := runProgram(t, `
		(define (double n) (+ n n))
		(double 7)
	`)
	assert.Equal(t, value.Number(14), result)
}

func TestLambdaParametersDoNotLeakIntoEnvironment(t *testing.T) {
	env := value.NewEnvironment()
	builtins.Install(env, &bytes.Buffer{})

	expr, err := parser.Parse(`
		(define add-self (lambda (x) (+ x x)))
		(add-self 7)
	`)
	require.NoError(t, err)
	closure, err := compiler.Compile(env, expr)
	require.NoError(t, err)

	result, err := New(env).Eval(closure)
	require.NoError(t, err)
	assert.Equal(t, value.Number(14), result)

	_, ok := env.ResolveVar("x")
	assert.False(t, ok)
}

func TestWrongArityIsRuntimeError(t *testing.T) {
	env := value.NewEnvironment()
	builtins.Install(env, &bytes.Buffer{})

	expr, err := parser.Parse(`
		(define id (lambda (x) x))
		(id 1 2)
	`)
	require.NoError(t, err)
	closure, err := compiler.Compile(env, expr)
	require.NoError(t, err)

	_, err = New(env).Eval(closure)
	assert.Error(t, err)
}

func TestSiblingClosuresShareOneUpValueCell(t *testing.T) {
	result := runProgram(t, `
		((lambda (x) (cons (lambda () x) (lambda () x))) 1)
	`)

	pair, ok := result.(*value.Pair)
	require.True(t, ok)
	first, ok := pair.Head.(*value.Closure)
	require.True(t, ok)
	second, ok := pair.Tail.(*value.Closure)
	require.True(t, ok)

	require.Len(t, first.UpValues, 1)
	assert.Same(t, first.UpValues[0], second.UpValues[0])
	assert.Equal(t, value.UpValueClosed, first.UpValues[0].State)
	assert.Equal(t, value.Number(1), first.UpValues[0].Closed)
}

func TestEvalIsRepeatable(t *testing.T) {
	env := value.NewEnvironment()
	builtins.Install(env, &bytes.Buffer{})

	expr, err := parser.Parse("(+ 1 2)")
	require.NoError(t, err)
	closure, err := compiler.Compile(env, expr)
	require.NoError(t, err)

	machine := New(env)
	for i := 0; i < 2; i++ {
		result, err := machine.Eval(closure)
		require.NoError(t, err)
		assert.Equal(t, value.Number(3), result)
	}
}

func TestRecursiveFibonacci(t *testing.T) {
	result := runProgram(t, `
		(define fib
		  (lambda (n)
		    (if (< n 2)
		        n
		        (+ (fib (- n 1)) (fib (- n 2))))))
		(fib 10)
	`)
	assert.Equal(t, value.Number(55), result)
}

func TestVariadicRestParameter(t *testing.T) {
	result := runProgram(t, `
		(define sum-all
		  (lambda args
		    (if (null? args)
		        0
		        (+ (car args) (car (cdr args))))))
		(sum-all 3 4)
	`)
	assert.Equal(t, value.Number(7), result)
}

func TestVariadicWithFixedPrefix(t *testing.T) {
	result := runProgram(t, `
		(define first-and-rest-length
		  (lambda (first . rest)
		    first))
		(first-and-rest-length 1 2 3)
	`)
	assert.Equal(t, value.Number(1), result)
}

func TestConsCarCdr(t *testing.T) {
	assert.Equal(t, value.Number(1), runProgram(t, "(car (cons 1 2))"))
	assert.Equal(t, value.Number(2), runProgram(t, "(cdr (cons 1 2))"))
	assert.Equal(t, value.Bool(true), runProgram(t, "(null? '())"))
	assert.Equal(t, value.Bool(true), runProgram(t, "(pair? (cons 1 2))"))
}

func TestAssert(t *testing.T) {
	assert.Equal(t, value.Bool(true), runProgram(t, "(assert #t)"))
}

func TestAssertFailureIsError(t *testing.T) {
	var out bytes.Buffer
	env := value.NewEnvironment()
	builtins.Install(env, &out)

	expr, err := parser.Parse("(assert #f \"boom\")")
	require.NoError(t, err)
	closure, err := compiler.Compile(env, expr)
	require.NoError(t, err)

	machine := New(env)
	_, err = machine.Eval(closure)
	assert.Error(t, err)
}

func TestReentrantEvalIsRejected(t *testing.T) {
	env := value.NewEnvironment()
	builtins.Install(env, &bytes.Buffer{})

	expr, err := parser.Parse("(+ 1 2)")
	require.NoError(t, err)
	closure, err := compiler.Compile(env, expr)
	require.NoError(t, err)

	machine := New(env)
	machine.frames = append(machine.frames, &Frame{})
	_, err = machine.Eval(closure)
	assert.Error(t, err)
}
