// Package diag provides source-location-carrying diagnostics for every compiler stage.
//
// Every stage of exc fails fast on the first diagnostic: there is no error recovery, so there
// is exactly one diagnostic per run, and it is formatted consistently regardless of which
// stage raised it.
package diag

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Location is a 1-indexed source position. A Location with Line == 0 is the synthetic
// "builtin" location used where there is no source position (the Module node, and driver-level
// diagnostics such as assembler failures).
type Location struct {
	Line int
	Col  int
}

// Stage identifies which compiler stage raised a Diagnostic.
type Stage int

const (
	Lexical Stage = iota
	Syntactic
	Semantic
	IRError
	Assembly
)

// Diagnostic is a fatal compiler error tied to a source location and a stage.
type Diagnostic struct {
	Stage Stage
	Loc   Location
	Msg   string
}

// ---------------------
// ----- Constants -----
// ---------------------

// Builtin is the sentinel location for diagnostics and nodes with no source position.
var Builtin = Location{Line: 0, Col: 0}

var stageNames = [...]string{
	Lexical:   "lexical error",
	Syntactic: "syntax error",
	Semantic:  "type error",
	IRError:   "internal compiler error",
	Assembly:  "assembler error",
}

var (
	fatalColor = color.New(color.FgRed, color.Bold)
	locColor   = color.New(color.FgCyan)
)

// ---------------------
// ----- functions -----
// ---------------------

// New creates a Diagnostic for stage at location loc with a formatted message.
func New(stage Stage, loc Location, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Stage: stage, Loc: loc, Msg: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Loc.Line == 0 {
		return fmt.Sprintf("%s: %s", stageNames[d.Stage], d.Msg)
	}
	return fmt.Sprintf("%s: %d:%d: %s", stageNames[d.Stage], d.Loc.Line, d.Loc.Col, d.Msg)
}

// Print writes the Diagnostic to stderr using fatalColor for the stage tag and locColor for
// the location, falling back to plain text when color is disabled (piped stdout, NO_COLOR, …).
func (d *Diagnostic) Print() {
	tag := fatalColor.Sprint(stageNames[d.Stage])
	if d.Loc.Line == 0 {
		fmt.Fprintf(os.Stderr, "%s: %s\n", tag, d.Msg)
		return
	}
	loc := locColor.Sprintf("%d:%d", d.Loc.Line, d.Loc.Col)
	fmt.Fprintf(os.Stderr, "%s: %s: %s\n", tag, loc, d.Msg)
}
