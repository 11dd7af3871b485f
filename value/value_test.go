package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepr(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Nil{}, "'()"},
		{Void{}, "#!void"},
		{Bool(true), "#t"},
		{Bool(false), "#f"},
		{Number(42), "42"},
		{Number(3.5), "3.5"},
		{Ident("foo"), "foo"},
		{List{Items: []Value{Number(1), Number(2)}}, "(1 2)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.Repr())
	}
}

func TestPairRepr(t *testing.T) {
	properList := NewPair(Number(1), NewPair(Number(2), Nil{}))
	assert.Equal(t, "(1 2)", properList.Repr())

	dotted := NewPair(Number(1), Number(2))
	assert.Equal(t, "(1 . 2)", dotted.Repr())
}

func TestListFromSlice(t *testing.T) {
	l := ListFromSlice([]Value{Number(1), Number(2), Number(3)})
	p, ok := l.(*Pair)
	assert.True(t, ok)
	assert.Equal(t, "(1 2 3)", p.Repr())
}

func TestIsTruthy(t *testing.T) {
	assert.True(t, IsTruthy(Number(0)))
	assert.True(t, IsTruthy(Nil{}))
	assert.True(t, IsTruthy(Void{}))
	assert.False(t, IsTruthy(Bool(false)))
	assert.True(t, IsTruthy(Bool(true)))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Number(1), Number(1)))
	assert.False(t, Equal(Number(1), Number(2)))
	assert.True(t, Equal(String("a"), String("a")))
	assert.False(t, Equal(Number(1), Bool(true)))
	assert.True(t, Equal(
		NewPair(Number(1), Nil{}),
		NewPair(Number(1), Nil{}),
	))
	assert.True(t, Equal(
		List{Items: []Value{Number(1), Number(2)}},
		List{Items: []Value{Number(1), Number(2)}},
	))

	proc := &Procedure{}
	assert.True(t, Equal(proc, proc))
	assert.False(t, Equal(proc, &Procedure{}))
}

func TestEnvironmentVars(t *testing.T) {
	env := NewEnvironment()
	id := env.InternVar("x")
	env.SetVar(id, Number(10))
	assert.Equal(t, Number(10), env.GetVar(id))

	resolved, ok := env.ResolveVar("x")
	assert.True(t, ok)
	assert.Equal(t, id, resolved)

	_, ok = env.ResolveVar("never-defined")
	assert.False(t, ok)
}

func TestWeakEnvUpgrade(t *testing.T) {
	env := NewEnvironment()
	weak := env.WeakSelf()
	assert.Same(t, env, weak.Upgrade())
}
