// Package ir defines a three-address intermediate representation and the generator that
// lowers a type-checked ast.Node tree into it.
//
// The instruction set is a flat tagged-variant slice per function: one struct, an Op tag, and
// only the fields relevant to that Op populated. Each instruction kind has a fixed, small, and
// different operand shape (a Call's callee+args bears no resemblance to a CondJump's two
// labels), so a single exhaustive switch in the assembly generator is clearer than a
// method-per-variant interface for a fixed, closed instruction set this small.
package ir

import (
	"fmt"
	"strings"

	"exc/internal/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Op tags the variant of an Instr.
type Op int

const (
	OpLoadIntConst Op = iota
	OpLoadBoolConst
	OpCopy
	OpCall
	OpJump
	OpCondJump
	OpLabel
	OpReturn
)

var opNames = [...]string{
	OpLoadIntConst:  "load_int",
	OpLoadBoolConst: "load_bool",
	OpCopy:          "copy",
	OpCall:          "call",
	OpJump:          "jump",
	OpCondJump:      "cond_jump",
	OpLabel:         "label",
	OpReturn:        "return",
}

func (o Op) String() string { return opNames[o] }

// Instr is one three-address instruction. Only the fields relevant to Op are populated.
type Instr struct {
	Op Op

	Dest string // LoadIntConst/LoadBoolConst/Copy/Call destination
	Src  string // Copy source; Return source (may be "")

	IntVal  int64 // LoadIntConst
	BoolVal bool  // LoadBoolConst

	Callee string   // Call: user function, built-in, or lowered-operator canonical name
	Args   []string // Call arguments, left-to-right

	Label     string // Label name; Jump target
	ThenLabel string // CondJump
	ElseLabel string // CondJump
	CondVar   string // CondJump
}

// String renders an instruction the way it would appear in a -vb IR dump.
func (i Instr) String() string {
	switch i.Op {
	case OpLoadIntConst:
		return fmt.Sprintf("%s = load_int %d", i.Dest, i.IntVal)
	case OpLoadBoolConst:
		return fmt.Sprintf("%s = load_bool %t", i.Dest, i.BoolVal)
	case OpCopy:
		return fmt.Sprintf("%s = copy %s", i.Dest, i.Src)
	case OpCall:
		return fmt.Sprintf("%s = call %s(%s)", i.Dest, i.Callee, strings.Join(i.Args, ", "))
	case OpJump:
		return fmt.Sprintf("jump %s", i.Label)
	case OpCondJump:
		return fmt.Sprintf("cond_jump %s, %s, %s", i.CondVar, i.ThenLabel, i.ElseLabel)
	case OpLabel:
		return fmt.Sprintf("%s:", i.Label)
	case OpReturn:
		if i.Src == "" {
			return "return"
		}
		return fmt.Sprintf("return %s", i.Src)
	default:
		return "<invalid instruction>"
	}
}

// Function is one function's flat IR instruction list: it starts with an implicit entry label
// and ends with an implicit or explicit return.
type Function struct {
	Name       string
	Params     []string // IR variable names bound to incoming arguments, in order
	EntryLabel string
	Instrs     []Instr
	VarTypes   map[string]types.Type // side table: IR variable name -> type
}

// Module is the whole program's IR: one Function per user-defined function, plus a synthetic
// "main" function for the module's top-level expression.
type Module struct {
	Functions []*Function
	Main      *Function
}
