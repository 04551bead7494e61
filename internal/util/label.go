// label.go generates unique assembly/IR labels, keyed by a label-kind-to-prefix table so that
// generated assembly reads like hand-written assembly rather than a flat numeric counter.
package util

import "strconv"

// LabelKind identifies what a generated label is for, so that generated assembly reads like
// hand-written assembly (Lthen0, Lwhile0, ...) instead of a flat counter.
type LabelKind int

const (
	LabelIfThen LabelKind = iota
	LabelIfElse
	LabelIfEnd
	LabelWhileHead
	LabelWhileBody
	LabelWhileEnd
	LabelShortCircuit
	LabelMerge
)

// labelPrefixes provides the string literal prefix for each LabelKind.
var labelPrefixes = [...]string{
	LabelIfThen:       "Lthen",
	LabelIfElse:       "Lelse",
	LabelIfEnd:        "Lendif",
	LabelWhileHead:    "Lwhile",
	LabelWhileBody:    "Lbody",
	LabelWhileEnd:     "Lendwhile",
	LabelShortCircuit: "Lsc",
	LabelMerge:        "Lmerge",
}

// LabelGen hands out function-unique labels of a given LabelKind. Each ir.Function owns one.
type LabelGen struct {
	seq [len(labelPrefixes)]int
}

// Next returns the next unique label of kind, scoped to this LabelGen. Each ir.Function owns
// its own LabelGen, so labels only need to be unique within one function.
func (g *LabelGen) Next(kind LabelKind) string {
	n := g.seq[kind]
	g.seq[kind]++
	return labelPrefixes[kind] + strconv.Itoa(n)
}
