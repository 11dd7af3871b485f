package value

// AsNumber extracts a float64 from v, reporting ok=false if v is not
// a Number.
func AsNumber(v Value) (float64, bool) {
	n, ok := v.(Number)
	return float64(n), ok
}

// AsIdent extracts the identifier name from v.
func AsIdent(v Value) (string, bool) {
	i, ok := v.(Ident)
	return string(i), ok
}

// AsPair extracts the *Pair from v.
func AsPair(v Value) (*Pair, bool) {
	p, ok := v.(*Pair)
	return p, ok
}

// AsClosure extracts the *Closure from v.
func AsClosure(v Value) (*Closure, bool) {
	c, ok := v.(*Closure)
	return c, ok
}

// IsNil reports whether v is the empty-list atom.
func IsNil(v Value) bool {
	_, ok := v.(Nil)
	return ok
}

// Equal is the engine's one equality predicate: structural for
// scalars and data composites (pairs, lists, vectors, quotes),
// identity for Procedure and Closure. NativeFuncs are never equal to
// anything; Go function values have no usable identity comparison.
func Equal(a, b Value) bool {
	if SameIdentity(a, b) {
		return true
	}
	switch av := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Void:
		_, ok := b.(Void)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Ident:
		bv, ok := b.(Ident)
		return ok && av == bv
	case Keyword:
		bv, ok := b.(Keyword)
		return ok && av == bv
	case Quote:
		bv, ok := b.(Quote)
		return ok && Equal(av.Expr, bv.Expr)
	case *Pair:
		bv, ok := b.(*Pair)
		return ok && Equal(av.Head, bv.Head) && Equal(av.Tail, bv.Tail)
	case List:
		bv, ok := b.(List)
		return ok && itemsEqual(av.Items, bv.Items)
	case Vector:
		bv, ok := b.(Vector)
		return ok && itemsEqual(av.Items, bv.Items)
	default:
		return false
	}
}

func itemsEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
