// writer.go buffers generated assembly text: a strings.Builder with small helper methods for
// the AT&T-syntax instruction, label and comment lines the assembly generator emits.
package util

import (
	"fmt"
	"strings"
)

// Writer accumulates generated assembly text.
type Writer struct {
	sb strings.Builder
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write appends a formatted string verbatim (no implicit indentation), for directives,
// comments and raw lines.
func (w *Writer) Write(format string, args ...interface{}) {
	fmt.Fprintf(&w.sb, format, args...)
}

// WriteString appends s verbatim.
func (w *Writer) WriteString(s string) {
	w.sb.WriteString(s)
}

// Ins0 writes a zero-operand instruction, e.g. "ret", "cqto", "leave".
func (w *Writer) Ins0(op string) {
	fmt.Fprintf(&w.sb, "\t%s\n", op)
}

// Ins1 writes a one-operand instruction, e.g. "pushq %rbp", "jmp L", "call f".
func (w *Writer) Ins1(op, rs1 string) {
	fmt.Fprintf(&w.sb, "\t%s\t%s\n", op, rs1)
}

// Ins2 writes a two-operand instruction in AT&T order (source, destination), e.g.
// "movq %rax, -8(%rbp)".
func (w *Writer) Ins2(op, src, dst string) {
	fmt.Fprintf(&w.sb, "\t%s\t%s, %s\n", op, src, dst)
}

// Label writes a label definition line.
func (w *Writer) Label(name string) {
	fmt.Fprintf(&w.sb, "%s:\n", name)
}

// Comment writes an indented "# ..." comment line. The assembly generator does not currently
// emit comments, so generated assembly carries no IR annotations.
func (w *Writer) Comment(format string, args ...interface{}) {
	fmt.Fprintf(&w.sb, "\t# %s\n", fmt.Sprintf(format, args...))
}

// String returns the accumulated assembly text.
func (w *Writer) String() string {
	return w.sb.String()
}
