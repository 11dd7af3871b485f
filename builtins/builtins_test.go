package builtins_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourfavoritedev/goscheme/builtins"
	"github.com/yourfavoritedev/goscheme/value"
)

func newEnv(out *bytes.Buffer) *value.Environment {
	env := value.NewEnvironment()
	builtins.Install(env, out)
	return env
}

func call(t *testing.T, env *value.Environment, name string, args ...value.Value) (value.Value, error) {
	t.Helper()
	id, ok := env.ResolveVar(name)
	require.True(t, ok, "builtin %s is not bound", name)
	fn, ok := env.GetVar(id).(value.NativeFunc)
	require.True(t, ok, "%s is not a NativeFunc", name)
	return fn.Fn(env, args)
}

func TestDisplayWritesRepr(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(&out)

	result, err := call(t, env, "display", value.Number(42))
	assert.NoError(t, err)
	assert.Equal(t, value.Void{}, result)
	assert.Equal(t, "42", out.String())
}

func TestNewlineWritesLineFeed(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(&out)

	_, err := call(t, env, "newline")
	assert.NoError(t, err)
	assert.Equal(t, "\n", out.String())
}

func TestComparisonChaining(t *testing.T) {
	env := newEnv(&bytes.Buffer{})

	result, err := call(t, env, "<", value.Number(1), value.Number(2), value.Number(3))
	assert.NoError(t, err)
	assert.Equal(t, value.Bool(true), result)

	result, err = call(t, env, "<", value.Number(1), value.Number(5), value.Number(3))
	assert.NoError(t, err)
	assert.Equal(t, value.Bool(false), result)

	_, err = call(t, env, "<", value.Number(1))
	assert.Error(t, err)
}

func TestSubtractZeroArgsIsError(t *testing.T) {
	env := newEnv(&bytes.Buffer{})
	_, err := call(t, env, "-")
	assert.Error(t, err)
}

func TestSubtractUnaryReturnsOperand(t *testing.T) {
	env := newEnv(&bytes.Buffer{})
	result, err := call(t, env, "-", value.Number(5))
	assert.NoError(t, err)
	assert.Equal(t, value.Number(5), result)
}

func TestAssertEqReturnsBothOperandsOnSuccess(t *testing.T) {
	env := newEnv(&bytes.Buffer{})
	result, err := call(t, env, "assert-eq", value.Number(1), value.Number(1))
	assert.NoError(t, err)
	assert.Equal(t, value.NewList(value.Number(1), value.Number(1)), result)
}

func TestAssertEqFailureReportsValues(t *testing.T) {
	env := newEnv(&bytes.Buffer{})
	_, err := call(t, env, "assert-eq", value.Number(1), value.Number(2))
	assert.Error(t, err)
}

func TestConsCarCdr(t *testing.T) {
	env := newEnv(&bytes.Buffer{})

	pair, err := call(t, env, "cons", value.Number(1), value.Number(2))
	assert.NoError(t, err)

	head, err := call(t, env, "car", pair)
	assert.NoError(t, err)
	assert.Equal(t, value.Number(1), head)

	tail, err := call(t, env, "cdr", pair)
	assert.NoError(t, err)
	assert.Equal(t, value.Number(2), tail)
}

func TestCarOfNonPairIsError(t *testing.T) {
	env := newEnv(&bytes.Buffer{})
	_, err := call(t, env, "car", value.Number(1))
	assert.Error(t, err)
}
