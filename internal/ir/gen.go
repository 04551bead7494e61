package ir

import (
	"fmt"
	"strconv"

	"exc/internal/ast"
	"exc/internal/types"
	"exc/internal/util"
)

// loopCtx is a loop frame: its start/end labels for Jump/Continue/Break, and the IR variable
// its 'break' values are copied into (allocated lazily on the first 'break'; a 'break' without
// a value copies a unit constant into it).
type loopCtx struct {
	startLabel string
	endLabel   string
	resultVar  string
}

// generator lowers one function body (or the module top level) into a flat Instr list. Two
// contextual stacks are threaded through the recursion instead of living in package-level
// mutable state: a scope stack of source-name -> IR-variable-name, and a loop stack used to
// resolve 'break'/'continue' targets.
type generator struct {
	scopes   *util.Stack // of map[string]string
	loops    *util.Stack // of *loopCtx
	labels   *util.LabelGen
	seq      int
	instrs   []Instr
	varTypes map[string]types.Type
}

func newGenerator() *generator {
	g := &generator{scopes: &util.Stack{}, loops: &util.Stack{}, labels: &util.LabelGen{}, varTypes: map[string]types.Type{}}
	g.scopes.Push(map[string]string{})
	return g
}

func (g *generator) emit(i Instr) {
	g.instrs = append(g.instrs, i)
}

func (g *generator) fresh(prefix string) string {
	name := prefix + strconv.Itoa(g.seq)
	g.seq++
	return name
}

// bind introduces name in the innermost scope, mapped to a freshly allocated IR variable, and
// returns that IR variable's name. Each declaration gets a unique IR name so that shadowing in
// nested blocks never aliases two source variables onto the same frame slot.
func (g *generator) bind(name string) string {
	irName := g.fresh(name + ".")
	frame := g.scopes.Peek().(map[string]string)
	frame[name] = irName
	return irName
}

func (g *generator) resolve(name string) string {
	for i := 1; i <= g.scopes.Size(); i++ {
		frame := g.scopes.Get(i).(map[string]string)
		if irName, ok := frame[name]; ok {
			return irName
		}
	}
	panic(fmt.Sprintf("internal error: unbound identifier %q reached IR generation", name))
}

func (g *generator) materializeUnit() string {
	dest := g.fresh("unit")
	g.emit(Instr{Op: OpLoadIntConst, Dest: dest, IntVal: 0})
	g.varTypes[dest] = types.Unit
	return dest
}

func (g *generator) currentLoop() *loopCtx {
	v := g.loops.Peek()
	if v == nil {
		panic("internal error: 'break'/'continue' reached IR generation outside a loop")
	}
	return v.(*loopCtx)
}

// constVal holds the compile-time value of a folded constant expression: either an int64 or a
// bool, tagged by isBool.
type constVal struct {
	isBool bool
	i      int64
	b      bool
}

// foldConst evaluates n at IR-generation time if every leaf it reaches is an integer or
// boolean literal, returning the resulting value and true. It returns false for anything that
// touches an identifier, call, or side-effecting form, and for integer division or modulo by a
// literal zero (left to fail at run time like any other division, rather than folded away).
func foldConst(n *ast.Node) (constVal, bool) {
	switch n.Kind {
	case ast.IntLit:
		return constVal{i: n.IntVal}, true
	case ast.BoolLit:
		return constVal{isBool: true, b: n.BoolVal}, true
	case ast.UnaryOp:
		v, ok := foldConst(n.Operand)
		if !ok {
			return constVal{}, false
		}
		switch n.Op {
		case "-":
			return constVal{i: -v.i}, true
		case "not":
			return constVal{isBool: true, b: !v.b}, true
		}
		return constVal{}, false
	case ast.BinaryOp:
		l, ok := foldConst(n.Left)
		if !ok {
			return constVal{}, false
		}
		r, ok := foldConst(n.Right)
		if !ok {
			return constVal{}, false
		}
		switch n.Op {
		case "+":
			return constVal{i: l.i + r.i}, true
		case "-":
			return constVal{i: l.i - r.i}, true
		case "*":
			return constVal{i: l.i * r.i}, true
		case "/":
			if r.i == 0 {
				return constVal{}, false
			}
			return constVal{i: l.i / r.i}, true
		case "%":
			if r.i == 0 {
				return constVal{}, false
			}
			return constVal{i: l.i % r.i}, true
		case "<":
			return constVal{isBool: true, b: l.i < r.i}, true
		case "<=":
			return constVal{isBool: true, b: l.i <= r.i}, true
		case ">":
			return constVal{isBool: true, b: l.i > r.i}, true
		case ">=":
			return constVal{isBool: true, b: l.i >= r.i}, true
		case "==":
			if l.isBool {
				return constVal{isBool: true, b: l.b == r.b}, true
			}
			return constVal{isBool: true, b: l.i == r.i}, true
		case "!=":
			if l.isBool {
				return constVal{isBool: true, b: l.b != r.b}, true
			}
			return constVal{isBool: true, b: l.i != r.i}, true
		case "and":
			return constVal{isBool: true, b: l.b && r.b}, true
		case "or":
			return constVal{isBool: true, b: l.b || r.b}, true
		}
		return constVal{}, false
	default:
		return constVal{}, false
	}
}

// emitConst materializes a folded constant as a single LoadIntConst/LoadBoolConst instruction
// and returns its destination variable.
func (g *generator) emitConst(cv constVal) string {
	dest := g.fresh("t")
	if cv.isBool {
		g.emit(Instr{Op: OpLoadBoolConst, Dest: dest, BoolVal: cv.b})
		g.varTypes[dest] = types.Bool
	} else {
		g.emit(Instr{Op: OpLoadIntConst, Dest: dest, IntVal: cv.i})
		g.varTypes[dest] = types.Int
	}
	return dest
}

// ---------------------
// ----- functions -----
// ---------------------

// GenModule lowers a type-checked module into IR.
func GenModule(mod *ast.Node) *Module {
	m := &Module{}
	for _, fn := range mod.Functions {
		m.Functions = append(m.Functions, genFunction(fn))
	}
	m.Main = genMain(mod.TopLevel)
	return m
}

func genFunction(fn *ast.Node) *Function {
	g := newGenerator()
	entry := "entry"
	g.emit(Instr{Op: OpLabel, Label: entry})

	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		irName := g.bind(p.Name)
		params[i] = irName
		g.varTypes[irName] = paramType(p.Type)
	}

	bodyDest := g.genExpr(fn.Then)
	if len(g.instrs) == 0 || g.instrs[len(g.instrs)-1].Op != OpReturn {
		g.emit(Instr{Op: OpReturn, Src: bodyDest})
	}

	return &Function{Name: fn.Name, Params: params, EntryLabel: entry, Instrs: g.instrs, VarTypes: g.varTypes}
}

// genMain lowers the module's top-level statements into a synthetic "main" function. main
// always returns 0, regardless of what the top-level expression evaluates to.
func genMain(top *ast.Node) *Function {
	g := newGenerator()
	entry := "entry"
	g.emit(Instr{Op: OpLabel, Label: entry})
	if top != nil {
		g.genExpr(top)
	}
	g.emit(Instr{Op: OpReturn, Src: ""})
	return &Function{Name: "main", EntryLabel: entry, Instrs: g.instrs, VarTypes: g.varTypes}
}

func paramType(typeName string) types.Type {
	switch typeName {
	case "Bool":
		return types.Bool
	default:
		return types.Int
	}
}

// genExpr lowers n and returns the IR variable holding its value. Every expression produces a
// destination variable, even Unit-typed ones, which keeps the model uniform: statements that
// produce Unit still materialize a unit constant rather than being treated as a special case.
func (g *generator) genExpr(n *ast.Node) string {
	switch n.Kind {
	case ast.IntLit:
		dest := g.fresh("t")
		g.emit(Instr{Op: OpLoadIntConst, Dest: dest, IntVal: n.IntVal})
		g.varTypes[dest] = types.Int
		return dest
	case ast.BoolLit:
		dest := g.fresh("t")
		g.emit(Instr{Op: OpLoadBoolConst, Dest: dest, BoolVal: n.BoolVal})
		g.varTypes[dest] = types.Bool
		return dest
	case ast.Ident:
		return g.resolve(n.Name)
	case ast.BinaryOp:
		return g.genBinaryOp(n)
	case ast.UnaryOp:
		if cv, ok := foldConst(n); ok {
			return g.emitConst(cv)
		}
		operand := g.genExpr(n.Operand)
		dest := g.fresh("t")
		callee := "not"
		if n.Op == "-" {
			callee = "unary_-"
		}
		g.emit(Instr{Op: OpCall, Dest: dest, Callee: callee, Args: []string{operand}})
		g.varTypes[dest] = *n.Typ
		return dest
	case ast.If:
		return g.genIf(n)
	case ast.While:
		return g.genWhile(n)
	case ast.Break:
		return g.genBreak(n)
	case ast.Continue:
		loop := g.currentLoop()
		g.emit(Instr{Op: OpJump, Label: loop.startLabel})
		return g.materializeUnit()
	case ast.VarDecl:
		val := g.genExpr(n.Right)
		irName := g.bind(n.Name)
		g.emit(Instr{Op: OpCopy, Dest: irName, Src: val})
		g.varTypes[irName] = *n.Right.Typ
		return g.materializeUnit()
	case ast.Assign:
		val := g.genExpr(n.Right)
		irName := g.resolve(n.Name)
		g.emit(Instr{Op: OpCopy, Dest: irName, Src: val})
		return irName
	case ast.Block:
		return g.genBlock(n)
	case ast.Call:
		args := make([]string, len(n.Children))
		for i, a := range n.Children {
			args[i] = g.genExpr(a)
		}
		dest := g.fresh("t")
		g.emit(Instr{Op: OpCall, Dest: dest, Callee: n.Name, Args: args})
		g.varTypes[dest] = *n.Typ
		return dest
	case ast.Return:
		var val string
		if n.Operand != nil {
			val = g.genExpr(n.Operand)
		} else {
			val = g.materializeUnit()
		}
		g.emit(Instr{Op: OpReturn, Src: val})
		return g.materializeUnit()
	default:
		panic(fmt.Sprintf("internal error: unexpected node kind %v reached IR generation", n.Kind))
	}
}

// genBinaryOp lowers a binary operator. A fully literal subexpression (e.g. `1 + 2 * 3`) folds
// to a single constant below rather than emitting the Call chain. Otherwise, 'and'/'or' are
// short-circuit lowered to conditional jumps; every other operator lowers to a Call to its
// canonical operator name, with '=='/'!=' resolved to their type-specialized name.
func (g *generator) genBinaryOp(n *ast.Node) string {
	if cv, ok := foldConst(n); ok {
		return g.emitConst(cv)
	}

	switch n.Op {
	case "and":
		return g.genShortCircuit(n, true)
	case "or":
		return g.genShortCircuit(n, false)
	}

	left := g.genExpr(n.Left)
	right := g.genExpr(n.Right)
	callee := n.Op
	switch n.Op {
	case "==":
		callee = equalityCallee("eq", *n.Left.Typ)
	case "!=":
		callee = equalityCallee("ne", *n.Left.Typ)
	}
	dest := g.fresh("t")
	g.emit(Instr{Op: OpCall, Dest: dest, Callee: callee, Args: []string{left, right}})
	g.varTypes[dest] = *n.Typ
	return dest
}

func equalityCallee(base string, operand types.Type) string {
	if operand.Equal(types.Bool) {
		return base + "_bool"
	}
	return base + "_int"
}

// genShortCircuit lowers 'and' (isAnd==true) or 'or' (isAnd==false) to conditional jumps so
// that the right operand is only evaluated when it can affect the result.
func (g *generator) genShortCircuit(n *ast.Node, isAnd bool) string {
	left := g.genExpr(n.Left)
	dest := g.fresh("t")
	rhsLabel := g.labels.Next(util.LabelShortCircuit)
	shortLabel := g.labels.Next(util.LabelShortCircuit)
	endLabel := g.labels.Next(util.LabelMerge)

	if isAnd {
		g.emit(Instr{Op: OpCondJump, CondVar: left, ThenLabel: rhsLabel, ElseLabel: shortLabel})
	} else {
		g.emit(Instr{Op: OpCondJump, CondVar: left, ThenLabel: shortLabel, ElseLabel: rhsLabel})
	}

	g.emit(Instr{Op: OpLabel, Label: rhsLabel})
	right := g.genExpr(n.Right)
	g.emit(Instr{Op: OpCopy, Dest: dest, Src: right})
	g.emit(Instr{Op: OpJump, Label: endLabel})

	g.emit(Instr{Op: OpLabel, Label: shortLabel})
	g.emit(Instr{Op: OpLoadBoolConst, Dest: dest, BoolVal: !isAnd})
	g.emit(Instr{Op: OpJump, Label: endLabel})

	g.emit(Instr{Op: OpLabel, Label: endLabel})
	g.varTypes[dest] = types.Bool
	return dest
}

func (g *generator) genIf(n *ast.Node) string {
	condVar := g.genExpr(n.Cond)
	thenLabel := g.labels.Next(util.LabelIfThen)
	elseLabel := g.labels.Next(util.LabelIfElse)
	endLabel := g.labels.Next(util.LabelIfEnd)

	g.emit(Instr{Op: OpCondJump, CondVar: condVar, ThenLabel: thenLabel, ElseLabel: elseLabel})

	dest := g.fresh("t")

	g.emit(Instr{Op: OpLabel, Label: thenLabel})
	thenVal := g.genExpr(n.Then)
	g.emit(Instr{Op: OpCopy, Dest: dest, Src: thenVal})
	g.emit(Instr{Op: OpJump, Label: endLabel})

	g.emit(Instr{Op: OpLabel, Label: elseLabel})
	if n.Else != nil {
		elseVal := g.genExpr(n.Else)
		g.emit(Instr{Op: OpCopy, Dest: dest, Src: elseVal})
	} else {
		unit := g.materializeUnit()
		g.emit(Instr{Op: OpCopy, Dest: dest, Src: unit})
	}
	g.emit(Instr{Op: OpJump, Label: endLabel})

	g.emit(Instr{Op: OpLabel, Label: endLabel})
	g.varTypes[dest] = *n.Typ
	return dest
}

func (g *generator) genWhile(n *ast.Node) string {
	startLabel := g.labels.Next(util.LabelWhileHead)
	bodyLabel := g.labels.Next(util.LabelWhileBody)
	endLabel := g.labels.Next(util.LabelWhileEnd)

	loop := &loopCtx{startLabel: startLabel, endLabel: endLabel}
	g.loops.Push(loop)

	g.emit(Instr{Op: OpLabel, Label: startLabel})
	condVar := g.genExpr(n.Cond)
	g.emit(Instr{Op: OpCondJump, CondVar: condVar, ThenLabel: bodyLabel, ElseLabel: endLabel})

	g.emit(Instr{Op: OpLabel, Label: bodyLabel})
	g.genExpr(n.Then)
	g.emit(Instr{Op: OpJump, Label: startLabel})

	g.emit(Instr{Op: OpLabel, Label: endLabel})
	g.loops.Pop()

	// The While expression's own type is always Unit, even though a 'break' inside it may have
	// carried a value into loop.resultVar; that variable exists purely to let the assembly
	// generator materialize the break value, it is not the loop's result.
	return g.materializeUnit()
}

func (g *generator) genBreak(n *ast.Node) string {
	loop := g.currentLoop()
	var val string
	if n.Operand != nil {
		val = g.genExpr(n.Operand)
	} else {
		val = g.materializeUnit()
	}
	if loop.resultVar == "" {
		loop.resultVar = g.fresh("brk")
	}
	g.emit(Instr{Op: OpCopy, Dest: loop.resultVar, Src: val})
	g.emit(Instr{Op: OpJump, Label: loop.endLabel})
	return g.materializeUnit()
}

func (g *generator) genBlock(n *ast.Node) string {
	g.scopes.Push(map[string]string{})
	defer g.scopes.Pop()

	var last string
	for i, stmt := range n.Children {
		val := g.genExpr(stmt)
		if n.TrailingExpr && i == len(n.Children)-1 {
			last = val
		}
	}
	if n.TrailingExpr && len(n.Children) > 0 {
		return last
	}
	return g.materializeUnit()
}
