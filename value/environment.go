package value

// SymbolId is an opaque, interned handle for a variable or builtin
// name. Using an integer id rather than comparing strings keeps
// LoadEnvVar/StoreEnvVar a cheap array index at VM time.
type SymbolId uint16

// SymbolTable interns variable names to SymbolIds: the first use of a
// name gets the next id, re-interning returns the same id. The map
// keeps lookup O(1); the parallel names slice serves reverse lookups
// for diagnostics.
type SymbolTable struct {
	names []string
	ids   map[string]SymbolId
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{ids: make(map[string]SymbolId)}
}

// Intern returns the SymbolId for name, allocating a new one on first
// use.
func (t *SymbolTable) Intern(name string) SymbolId {
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := SymbolId(len(t.names))
	t.names = append(t.names, name)
	t.ids[name] = id
	return id
}

// Resolve looks up an already-interned name without creating a new
// binding; used by the compiler to tell "unbound variable" apart from
// "first definition of a global".
func (t *SymbolTable) Resolve(name string) (SymbolId, bool) {
	id, ok := t.ids[name]
	return id, ok
}

// Name returns the interned string for id, for diagnostics and
// disassembly.
func (t *SymbolTable) Name(id SymbolId) string {
	return t.names[id]
}

// Environment is the root binding table shared by the compiler and
// the VM. It pairs a SymbolTable (name -> SymbolId) with a parallel
// values array (SymbolId -> Value) and a sequential table of compiled
// Procedure prototypes (ProcId -> *Procedure). Compiler and VM hold
// the same *Environment, so a top-level define performed while
// compiling one input is immediately visible when compiling the next
// (the REPL case), and LoadEnvVar/StoreEnvVar always see the latest
// value.
type Environment struct {
	Symbols    *SymbolTable
	VarValues  []Value
	Procedures []*Procedure
	weak       *WeakEnv
}

func NewEnvironment() *Environment {
	env := &Environment{Symbols: NewSymbolTable()}
	env.weak = &WeakEnv{env: env}
	return env
}

// WeakSelf returns the back-reference every Procedure compiled
// against this environment stores. The environment transitively owns
// its procedures, so the procedure's pointer back must not count as
// ownership.
func (e *Environment) WeakSelf() *WeakEnv {
	return e.weak
}

// grow ensures VarValues has room for index, lazily extending it with
// Void.
func (e *Environment) grow(index int) {
	for len(e.VarValues) <= index {
		e.VarValues = append(e.VarValues, Void{})
	}
}

// InternVar interns name and ensures a value slot exists for it,
// without changing any existing binding. Used by the compiler when
// compiling a top-level define before the StoreEnvVar that will
// assign it its real value.
func (e *Environment) InternVar(name string) SymbolId {
	id := e.Symbols.Intern(name)
	e.grow(int(id))
	return id
}

// ResolveVar looks up a name that must already be bound, returning
// its SymbolId and ok=false if it has never been interned (an unbound
// variable, from the compiler's point of view).
func (e *Environment) ResolveVar(name string) (SymbolId, bool) {
	return e.Symbols.Resolve(name)
}

// GetVar reads the current value bound to id.
func (e *Environment) GetVar(id SymbolId) Value {
	e.grow(int(id))
	return e.VarValues[id]
}

// SetVar assigns v to the binding named by id, growing the table if
// this is the first assignment (as happens for a fresh top-level
// define).
func (e *Environment) SetVar(id SymbolId, v Value) {
	e.grow(int(id))
	e.VarValues[id] = v
}

// AddProcedure appends a freshly-compiled prototype to the
// environment's procedure table and returns its ProcId, used by
// CreateClosure to find the prototype again at VM time.
func (e *Environment) AddProcedure(proc *Procedure) ProcId {
	id := ProcId(len(e.Procedures))
	e.Procedures = append(e.Procedures, proc)
	return id
}

// Procedure looks up a previously-registered prototype by id.
func (e *Environment) Procedure(id ProcId) *Procedure {
	return e.Procedures[id]
}

// BindNativeFunc interns name and binds it directly to a NativeFunc
// value, the mechanism by which the builtins package installs +, -,
// display, and friends into the root environment.
func (e *Environment) BindNativeFunc(name string, fn func(env *Environment, args []Value) (Value, error)) {
	id := e.InternVar(name)
	e.SetVar(id, NativeFunc{Name: name, Fn: fn})
}

// WeakEnv models a non-owning reference to an Environment. Go's
// garbage collector handles reference cycles on its own, but keeping
// the non-owning reference as a distinct type preserves
// fail-loudly-on-dangling semantics: Upgrade panics if the
// environment has already been torn down, rather than silently
// returning a zero value.
type WeakEnv struct {
	env *Environment
}

// Upgrade returns the referenced Environment, panicking if it has
// been released. The Environment outlives every Procedure compiled
// against it for the program's whole lifetime, so Upgrade should
// never observe a nil env in practice; the panic exists to fail
// loudly rather than silently misbehave if that invariant is ever
// violated.
func (w *WeakEnv) Upgrade() *Environment {
	if w == nil || w.env == nil {
		panic("goscheme: attempt to upgrade a released environment reference")
	}
	return w.env
}
