// Package ast defines the syntax tree produced by the parser and annotated by the type
// checker. Node is a single tagged variant: one struct, a Kind tag, and exhaustive switches
// over Kind rather than per-kind Go types with virtual dispatch. Fields are named rather than
// threaded through one positional child slice, since positional indexing into an untyped slice
// is exactly the kind of thing that silently breaks when a grammar rule gains a child.
package ast

import (
	"fmt"
	"strings"

	"exc/internal/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Kind tags the variant of a Node.
type Kind int

const (
	IntLit Kind = iota
	BoolLit
	Ident
	BinaryOp
	UnaryOp
	If
	While
	Break
	Continue
	VarDecl
	Assign
	Block
	Call
	FunDef
	Return
	Module
)

// Param is a function parameter: a name and its declared type name (resolved to types.Type by
// the checker).
type Param struct {
	Name string
	Type string
	Line int
	Col  int
}

// Node is the single tagged-variant AST node. Every node carries its source location and a
// mutable Typ slot, filled in by the checker. Fields not meaningful for a given Kind are left
// zero.
type Node struct {
	Kind Kind
	Line int
	Col  int
	Typ  *types.Type // nil until the checker visits this node

	Name string // Ident/VarDecl/Assign-target/Call-callee/FunDef name
	Op   string // BinaryOp/UnaryOp operator spelling

	IntVal  int64
	BoolVal bool

	DeclaredType string // VarDecl optional type annotation; "" means none given
	ReturnType   string // FunDef declared return type name
	Params       []Param

	Left, Right *Node // BinaryOp(Left,Right); Assign(Left=target Ident, Right=value); VarDecl(Right=initializer)
	Cond        *Node // If/While condition
	Then        *Node // If then-branch; While/FunDef body (a Block)
	Else        *Node // If else-branch, nil if absent
	Operand     *Node // UnaryOp operand; Break optional value; Return optional value

	Children     []*Node // Block statements (TrailingExpr marks whether the last one is a value); Call arguments
	TrailingExpr bool    // Block: true if the last entry of Children has no trailing ';'

	Functions []*Node // Module: function definitions
	TopLevel  *Node   // Module: optional top-level expression, nil if absent
}

// ---------------------
// ----- functions -----
// ---------------------

// kindNames provides print-friendly names for Kind, used by String/Print.
var kindNames = [...]string{
	IntLit:   "IntLit",
	BoolLit:  "BoolLit",
	Ident:    "Ident",
	BinaryOp: "BinaryOp",
	UnaryOp:  "UnaryOp",
	If:       "If",
	While:    "While",
	Break:    "Break",
	Continue: "Continue",
	VarDecl:  "VarDecl",
	Assign:   "Assign",
	Block:    "Block",
	Call:     "Call",
	FunDef:   "FunDef",
	Return:   "Return",
	Module:   "Module",
}

// String returns a print-friendly one-line summary of n, used by Print and by diagnostics.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	typ := ""
	if n.Typ != nil {
		typ = " : " + n.Typ.String()
	}
	switch n.Kind {
	case IntLit:
		return fmt.Sprintf("IntLit(%d)%s", n.IntVal, typ)
	case BoolLit:
		return fmt.Sprintf("BoolLit(%t)%s", n.BoolVal, typ)
	case Ident:
		return fmt.Sprintf("Ident(%s)%s", n.Name, typ)
	case BinaryOp:
		return fmt.Sprintf("BinaryOp(%s)%s", n.Op, typ)
	case UnaryOp:
		return fmt.Sprintf("UnaryOp(%s)%s", n.Op, typ)
	case Call:
		return fmt.Sprintf("Call(%s)%s", n.Name, typ)
	case VarDecl:
		return fmt.Sprintf("VarDecl(%s: %s)%s", n.Name, n.DeclaredType, typ)
	case FunDef:
		return fmt.Sprintf("FunDef(%s): %s", n.Name, n.ReturnType)
	default:
		return fmt.Sprintf("%s%s", kindNames[n.Kind], typ)
	}
}

// children returns n's structural children in evaluation order, for Print and for generic
// tree walks that don't care about Kind (e.g. "does every node have a type").
func (n *Node) children() []*Node {
	var out []*Node
	for _, c := range []*Node{n.Left, n.Right, n.Cond, n.Then, n.Else, n.Operand, n.TopLevel} {
		if c != nil {
			out = append(out, c)
		}
	}
	out = append(out, n.Children...)
	out = append(out, n.Functions...)
	return out
}

// Print recursively prints n and its children to stdout, indenting one level per depth. The
// driver does not call it; -vb prints the IR, not the AST.
func (n *Node) Print(depth int) {
	if n == nil {
		fmt.Printf("%s---> NIL\n", strings.Repeat("  ", depth))
		return
	}
	fmt.Printf("%s%s\n", strings.Repeat("  ", depth), n.String())
	for _, c := range n.children() {
		c.Print(depth + 1)
	}
}

// Walk applies visit to n and every descendant, used by tests asserting that every node has a
// non-nil type after type checking succeeds.
func (n *Node) Walk(visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.children() {
		c.Walk(visit)
	}
}
