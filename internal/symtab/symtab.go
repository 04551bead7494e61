// Package symtab implements the lexical scope stack: a stack of scopes, each mapping a name
// to a Type, searched top-down on lookup and written only to the innermost scope on
// declaration.
//
// Each scope is backed by a github.com/dolthub/swiss map rather than a builtin Go map: its
// open-addressing layout avoids builtin map's per-bucket pointer chasing for the small,
// short-lived scopes a single-pass checker pushes and pops constantly.
package symtab

import (
	"fmt"

	"github.com/dolthub/swiss"

	"exc/internal/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Symbol is a named, typed entry in a scope.
type Symbol struct {
	Name string
	Type types.Type
}

// scope is one level of lexical nesting.
type scope struct {
	vars *swiss.Map[string, *Symbol]
}

// SymTab is a stack of scopes. The zero value is not usable; use New.
type SymTab struct {
	scopes []*scope
}

// ---------------------
// ----- functions -----
// ---------------------

// New returns a SymTab with a single global scope pre-populated with the built-in
// operator/function signatures.
func New() *SymTab {
	st := &SymTab{}
	st.Push()
	seedBuiltins(st)
	return st
}

func newScope() *scope {
	return &scope{vars: swiss.NewMap[string, *Symbol](8)}
}

// Push opens a new innermost scope.
func (st *SymTab) Push() {
	st.scopes = append(st.scopes, newScope())
}

// Pop discards the innermost scope.
func (st *SymTab) Pop() {
	if len(st.scopes) == 0 {
		return
	}
	st.scopes = st.scopes[:len(st.scopes)-1]
}

// Depth returns the number of scopes currently open, for diagnostics and tests.
func (st *SymTab) Depth() int {
	return len(st.scopes)
}

// Declare binds name to typ in the innermost scope. It fails if name already exists in that
// scope.
func (st *SymTab) Declare(name string, typ types.Type) error {
	top := st.top()
	if _, ok := top.vars.Get(name); ok {
		return fmt.Errorf("duplicate declaration of %q in the same scope", name)
	}
	top.vars.Put(name, &Symbol{Name: name, Type: typ})
	return nil
}

// Lookup searches scopes from innermost to outermost and returns the first match.
func (st *SymTab) Lookup(name string) (types.Type, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if sym, ok := st.scopes[i].vars.Get(name); ok {
			return sym.Type, true
		}
	}
	return types.Type{}, false
}

// DeclaredInCurrentScope reports whether name is bound in the innermost scope specifically,
// used by the checker to reject duplicate function definitions at module scope.
func (st *SymTab) DeclaredInCurrentScope(name string) bool {
	_, ok := st.top().vars.Get(name)
	return ok
}

func (st *SymTab) top() *scope {
	return st.scopes[len(st.scopes)-1]
}

// seedBuiltins populates the global scope with the operator/function signature table.
// Operators are entered under their canonical call name. The checker looks up calls to
// user/built-in functions here; operator operands are checked by its own switch, and the IR
// generator does not use this table.
func seedBuiltins(st *SymTab) {
	must := func(name string, typ types.Type) {
		if err := st.Declare(name, typ); err != nil {
			panic(err) // unreachable: the global scope starts empty
		}
	}

	must("print_int", types.Function(types.Unit, types.Int))
	must("print_bool", types.Function(types.Unit, types.Bool))
	must("read_int", types.Function(types.Int))

	must("unary_-", types.Function(types.Int, types.Int))
	must("not", types.Function(types.Bool, types.Bool))

	for _, op := range []string{"+", "-", "*", "/", "%"} {
		must(op, types.Function(types.Int, types.Int, types.Int))
	}
	for _, op := range []string{"<", "<=", ">", ">="} {
		must(op, types.Function(types.Bool, types.Int, types.Int))
	}
	// '==' and '!=' are overloaded (Int,Int->Bool and Bool,Bool->Bool), so they are entered only
	// under their type-specialized names (eq_int/eq_bool, ne_int/ne_bool), the names the IR
	// generator emits for them.
	must("eq_int", types.Function(types.Bool, types.Int, types.Int))
	must("eq_bool", types.Function(types.Bool, types.Bool, types.Bool))
	must("ne_int", types.Function(types.Bool, types.Int, types.Int))
	must("ne_bool", types.Function(types.Bool, types.Bool, types.Bool))

	must("and", types.Function(types.Bool, types.Bool, types.Bool))
	must("or", types.Function(types.Bool, types.Bool, types.Bool))
}
