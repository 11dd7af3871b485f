package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourfavoritedev/goscheme/value"
)

func TestParseProgram(t *testing.T) {
	result, err := Parse("(define x 1) x")
	require.NoError(t, err)

	seq, ok := result.(value.Sequence)
	require.True(t, ok)
	require.Len(t, seq.Items, 2)

	form, ok := seq.Items[0].(value.List)
	require.True(t, ok)
	assert.Equal(t, value.Ident("define"), form.Items[0])
	assert.Equal(t, value.Ident("x"), form.Items[1])
	assert.Equal(t, value.Number(1), form.Items[2])

	assert.Equal(t, value.Ident("x"), seq.Items[1])
}

func TestParseAtoms(t *testing.T) {
	tests := []struct {
		input string
		want  value.Value
	}{
		{"42", value.Number(42)},
		{"-3.5", value.Number(-3.5)},
		{"#t", value.Bool(true)},
		{"#f", value.Bool(false)},
		{"foo", value.Ident("foo")},
		{"-", value.Ident("-")},
		{"->foo", value.Ident("->foo")},
		{`"hi"`, value.String("hi")},
	}

	for _, tt := range tests {
		result, err := ParseOne(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, result, "input %q", tt.input)
	}
}

func TestParseQuote(t *testing.T) {
	result, err := ParseOne("'(1 2)")
	require.NoError(t, err)

	q, ok := result.(value.Quote)
	require.True(t, ok)
	l, ok := q.Expr.(value.List)
	require.True(t, ok)
	assert.Len(t, l.Items, 2)
}

func TestParseDottedFormals(t *testing.T) {
	result, err := ParseOne("(lambda (a . rest) a)")
	require.NoError(t, err)

	form, ok := result.(value.List)
	require.True(t, ok)
	formals, ok := form.Items[1].(value.List)
	require.True(t, ok)
	assert.Equal(t, value.Keyword(value.DotKeyword), formals.Items[1])
	assert.Equal(t, value.Ident("rest"), formals.Items[2])
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"(unterminated",
		")",
		"'",
		`"never closed`,
	} {
		_, err := Parse(input)
		assert.Error(t, err, "input %q", input)
	}
}
