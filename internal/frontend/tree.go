// tree.go provides the driver-facing entry points TokenStream and ParseModule (an alias for
// Parse, which lives in parser.go).
package frontend

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"exc/internal/ast"
)

// TokenStream scans src and returns a human-readable, column-aligned dump of every token, for
// the driver's -ts debug flag.
func TokenStream(src string) (string, error) {
	lx := NewLexer(src)
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 1, ' ', 0)
	for {
		tok := lx.Next()
		if tok.Kind == tokenError {
			return "", fmt.Errorf("lexical error at line %d:%d: %s", tok.Line, tok.Col, tok.Text)
		}
		fmt.Fprintf(tw, "%d:%d\t%s\t%q\n", tok.Line, tok.Col, tok.Kind, tok.Text)
		if tok.Kind == End {
			break
		}
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// ParseModule is an alias for Parse kept for symmetry with the other pipeline stages'
// Parse/Check/Generate naming; the driver calls this one.
func ParseModule(src string) (*ast.Node, error) {
	return Parse(src)
}
