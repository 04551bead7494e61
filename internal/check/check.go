// Package check implements a single-pass, top-down type checker: a lexical scope stack plus,
// inside a function body, the declared return type and a loop-result-type stack used to
// type-check 'break' values.
//
// The walker is one recursive method per AST kind dispatched from a switch, annotating each
// node's type slot as it goes. Operator operands are checked by a direct switch over the
// operator spelling in checkBinaryOp/checkUnaryOp, since this language's operator set is fixed
// and small; the operator entries seeded into symtab are not consulted for this.
package check

import (
	"exc/internal/ast"
	"exc/internal/diag"
	"exc/internal/symtab"
	"exc/internal/types"
	"exc/internal/util"
)

// loopFrame tracks one enclosing 'while' loop's labels are not needed at this stage (that's
// the IR generator's job); the checker only needs the type that 'break' values in this loop
// must agree on.
type loopFrame struct {
	resultType *types.Type // nil until the first 'break' (with or without value) fixes it
}

// Checker walks a Module AST, annotating every node's Typ field and returning the first
// diagnostic encountered. Compilation aborts on that first error.
type Checker struct {
	st         *symtab.SymTab
	loops      *util.Stack // of *loopFrame
	funcReturn *types.Type // declared return type of the function currently being checked, nil at module level
}

// New returns a Checker with a fresh global scope seeded with built-in signatures.
func New() *Checker {
	return &Checker{st: symtab.New(), loops: &util.Stack{}}
}

// Check type-checks mod in place and returns the first diagnostic, if any.
func Check(mod *ast.Node) error {
	return New().checkModule(mod)
}

// ---------------------
// ----- functions -----
// ---------------------

func semErr(n *ast.Node, format string, args ...interface{}) error {
	return diag.New(diag.Semantic, diag.Location{Line: n.Line, Col: n.Col}, format, args...)
}

func (c *Checker) checkModule(mod *ast.Node) error {
	// Function names are globally unique within a module; register every signature before
	// checking any body, so forward calls and recursion both resolve.
	for _, fn := range mod.Functions {
		if c.st.DeclaredInCurrentScope(fn.Name) {
			return semErr(fn, "duplicate function definition %q", fn.Name)
		}
		params := make([]types.Type, len(fn.Params))
		for i, p := range fn.Params {
			pt, err := resolveTypeName(fn, p.Type)
			if err != nil {
				return err
			}
			params[i] = pt
		}
		ret, err := resolveTypeName(fn, fn.ReturnType)
		if err != nil {
			return err
		}
		if err := c.st.Declare(fn.Name, types.Function(ret, params...)); err != nil {
			return semErr(fn, "%s", err)
		}
	}

	for _, fn := range mod.Functions {
		if err := c.checkFunDef(fn); err != nil {
			return err
		}
	}

	if mod.TopLevel != nil {
		if err := c.checkExpr(mod.TopLevel); err != nil {
			return err
		}
	}
	mod.Typ = &types.Unit
	return nil
}

func (c *Checker) checkFunDef(fn *ast.Node) error {
	sig, _ := c.st.Lookup(fn.Name)
	ret := sig.Result

	c.st.Push()
	defer c.st.Pop()
	for i, p := range fn.Params {
		if c.st.DeclaredInCurrentScope(p.Name) {
			return semErr(fn, "duplicate parameter name %q in function %q", p.Name, fn.Name)
		}
		if err := c.st.Declare(p.Name, sig.Params[i]); err != nil {
			return semErr(fn, "%s", err)
		}
	}

	prevReturn := c.funcReturn
	c.funcReturn = ret
	defer func() { c.funcReturn = prevReturn }()

	if err := c.checkBlock(fn.Then); err != nil {
		return err
	}
	// A body whose last statement is a 'return' needs no trailing expression: checkReturn has
	// already matched that value against the declared return type.
	body := fn.Then.Children
	endsInReturn := len(body) > 0 && body[len(body)-1].Kind == ast.Return
	if !endsInReturn && !fn.Then.Typ.Equal(*ret) {
		return semErr(fn, "function %q declared to return %s but body has type %s", fn.Name, ret, fn.Then.Typ)
	}
	fn.Typ = &types.Unit
	return nil
}

// checkExpr dispatches on n.Kind, annotates n.Typ, and returns the first error.
func (c *Checker) checkExpr(n *ast.Node) error {
	switch n.Kind {
	case ast.IntLit:
		n.Typ = &types.Int
	case ast.BoolLit:
		n.Typ = &types.Bool
	case ast.Ident:
		return c.checkIdent(n)
	case ast.BinaryOp:
		return c.checkBinaryOp(n)
	case ast.UnaryOp:
		return c.checkUnaryOp(n)
	case ast.If:
		return c.checkIf(n)
	case ast.While:
		return c.checkWhile(n)
	case ast.Break:
		return c.checkBreak(n)
	case ast.Continue:
		if c.loops.Size() == 0 {
			return semErr(n, "'continue' outside of a loop")
		}
		n.Typ = &types.Unit
	case ast.VarDecl:
		return c.checkVarDecl(n)
	case ast.Assign:
		return c.checkAssign(n)
	case ast.Block:
		return c.checkBlock(n)
	case ast.Call:
		return c.checkCall(n)
	case ast.Return:
		return c.checkReturn(n)
	default:
		return semErr(n, "internal error: unexpected node kind in checkExpr")
	}
	return nil
}

func (c *Checker) checkIdent(n *ast.Node) error {
	t, ok := c.st.Lookup(n.Name)
	if !ok {
		return semErr(n, "unbound identifier %q", n.Name)
	}
	n.Typ = &t
	return nil
}

func (c *Checker) checkVarDecl(n *ast.Node) error {
	if err := c.checkExpr(n.Right); err != nil {
		return err
	}
	initType := *n.Right.Typ
	if n.DeclaredType != "" {
		declared, err := resolveTypeName(n, n.DeclaredType)
		if err != nil {
			return err
		}
		if !declared.Equal(initType) {
			return semErr(n, "variable %q declared as %s but initialized with %s", n.Name, declared, initType)
		}
	}
	if err := c.st.Declare(n.Name, initType); err != nil {
		return semErr(n, "%s", err)
	}
	n.Typ = &types.Unit
	return nil
}

func (c *Checker) checkAssign(n *ast.Node) error {
	targetType, ok := c.st.Lookup(n.Name)
	if !ok {
		return semErr(n, "unbound identifier %q", n.Name)
	}
	if err := c.checkExpr(n.Right); err != nil {
		return err
	}
	if !n.Right.Typ.Equal(targetType) {
		return semErr(n, "cannot assign %s to %q of type %s", n.Right.Typ, n.Name, targetType)
	}
	n.Left.Typ = &targetType
	n.Typ = &targetType
	return nil
}

func (c *Checker) checkBinaryOp(n *ast.Node) error {
	if err := c.checkExpr(n.Left); err != nil {
		return err
	}
	if err := c.checkExpr(n.Right); err != nil {
		return err
	}
	switch n.Op {
	case "and", "or":
		if !n.Left.Typ.Equal(types.Bool) || !n.Right.Typ.Equal(types.Bool) {
			return semErr(n, "%q requires Bool operands, got %s and %s", n.Op, n.Left.Typ, n.Right.Typ)
		}
		n.Typ = &types.Bool
	case "==", "!=":
		if !n.Left.Typ.Equal(*n.Right.Typ) {
			return semErr(n, "%q requires operands of the same type, got %s and %s", n.Op, n.Left.Typ, n.Right.Typ)
		}
		if !n.Left.Typ.Equal(types.Int) && !n.Left.Typ.Equal(types.Bool) {
			return semErr(n, "%q is only defined for Int and Bool, got %s", n.Op, n.Left.Typ)
		}
		n.Typ = &types.Bool
	case "<", "<=", ">", ">=":
		if !n.Left.Typ.Equal(types.Int) || !n.Right.Typ.Equal(types.Int) {
			return semErr(n, "%q requires Int operands, got %s and %s", n.Op, n.Left.Typ, n.Right.Typ)
		}
		n.Typ = &types.Bool
	case "+", "-", "*", "/", "%":
		if !n.Left.Typ.Equal(types.Int) || !n.Right.Typ.Equal(types.Int) {
			return semErr(n, "%q requires Int operands, got %s and %s", n.Op, n.Left.Typ, n.Right.Typ)
		}
		n.Typ = &types.Int
	default:
		return semErr(n, "internal error: unknown binary operator %q", n.Op)
	}
	return nil
}

func (c *Checker) checkUnaryOp(n *ast.Node) error {
	if err := c.checkExpr(n.Operand); err != nil {
		return err
	}
	switch n.Op {
	case "-":
		if !n.Operand.Typ.Equal(types.Int) {
			return semErr(n, "unary '-' requires an Int operand, got %s", n.Operand.Typ)
		}
		n.Typ = &types.Int
	case "not":
		if !n.Operand.Typ.Equal(types.Bool) {
			return semErr(n, "'not' requires a Bool operand, got %s", n.Operand.Typ)
		}
		n.Typ = &types.Bool
	default:
		return semErr(n, "internal error: unknown unary operator %q", n.Op)
	}
	return nil
}

func (c *Checker) checkIf(n *ast.Node) error {
	if err := c.checkExpr(n.Cond); err != nil {
		return err
	}
	if !n.Cond.Typ.Equal(types.Bool) {
		return semErr(n.Cond, "'if' condition must be Bool, got %s", n.Cond.Typ)
	}
	if err := c.checkExpr(n.Then); err != nil {
		return err
	}
	if n.Else == nil {
		n.Typ = &types.Unit
		return nil
	}
	if err := c.checkExpr(n.Else); err != nil {
		return err
	}
	if !n.Then.Typ.Equal(*n.Else.Typ) {
		return semErr(n, "'if' branches have different types: %s vs %s", n.Then.Typ, n.Else.Typ)
	}
	n.Typ = n.Then.Typ
	return nil
}

func (c *Checker) checkWhile(n *ast.Node) error {
	if err := c.checkExpr(n.Cond); err != nil {
		return err
	}
	if !n.Cond.Typ.Equal(types.Bool) {
		return semErr(n.Cond, "'while' condition must be Bool, got %s", n.Cond.Typ)
	}
	c.loops.Push(&loopFrame{})
	if err := c.checkExpr(n.Then); err != nil {
		return err
	}
	c.loops.Pop()
	if !n.Then.Typ.IsUnit() {
		return semErr(n.Then, "'while' body must have type Unit, got %s", n.Then.Typ)
	}
	n.Typ = &types.Unit
	return nil
}

func (c *Checker) checkBreak(n *ast.Node) error {
	if c.loops.Size() == 0 {
		return semErr(n, "'break' outside of a loop")
	}
	frame := c.loops.Peek().(*loopFrame)

	var valType types.Type
	if n.Operand != nil {
		if err := c.checkExpr(n.Operand); err != nil {
			return err
		}
		valType = *n.Operand.Typ
	} else {
		valType = types.Unit
	}

	if frame.resultType == nil {
		t := valType
		frame.resultType = &t
	} else if !frame.resultType.Equal(valType) {
		return semErr(n, "inconsistent 'break' value types in the same loop: %s vs %s", frame.resultType, valType)
	}
	n.Typ = &types.Unit
	return nil
}

func (c *Checker) checkCall(n *ast.Node) error {
	sig, ok := c.st.Lookup(n.Name)
	if !ok {
		return semErr(n, "call to undeclared function %q", n.Name)
	}
	if sig.Kind != types.KindFunction {
		return semErr(n, "%q is not callable", n.Name)
	}
	if len(n.Children) != len(sig.Params) {
		return semErr(n, "%q expects %d argument(s), got %d", n.Name, len(sig.Params), len(n.Children))
	}
	for i, arg := range n.Children {
		if err := c.checkExpr(arg); err != nil {
			return err
		}
		if !arg.Typ.Equal(sig.Params[i]) {
			return semErr(arg, "argument %d to %q: expected %s, got %s", i+1, n.Name, sig.Params[i], arg.Typ)
		}
	}
	n.Typ = sig.Result
	return nil
}

func (c *Checker) checkReturn(n *ast.Node) error {
	if c.funcReturn == nil {
		return semErr(n, "'return' outside of a function body")
	}
	var valType types.Type
	if n.Operand != nil {
		if err := c.checkExpr(n.Operand); err != nil {
			return err
		}
		valType = *n.Operand.Typ
	} else {
		valType = types.Unit
	}
	if !valType.Equal(*c.funcReturn) {
		return semErr(n, "'return' type mismatch: function returns %s, got %s", c.funcReturn, valType)
	}
	n.Typ = &types.Unit
	return nil
}

func (c *Checker) checkBlock(n *ast.Node) error {
	c.st.Push()
	defer c.st.Pop()
	for _, stmt := range n.Children {
		if err := c.checkExpr(stmt); err != nil {
			return err
		}
	}
	if n.TrailingExpr && len(n.Children) > 0 {
		n.Typ = n.Children[len(n.Children)-1].Typ
	} else {
		n.Typ = &types.Unit
	}
	return nil
}

// resolveTypeName maps a parsed type-name string ("Int", "Bool" or "Unit"; function types
// have no surface syntax in this language) to a types.Type.
func resolveTypeName(n *ast.Node, name string) (types.Type, error) {
	switch name {
	case "Int":
		return types.Int, nil
	case "Bool":
		return types.Bool, nil
	case "Unit":
		return types.Unit, nil
	default:
		return types.Type{}, semErr(n, "unknown type name %q", name)
	}
}
