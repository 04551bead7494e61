package frontend

// reservedWord associates a reserved spelling with the token it produces.
type reservedWord struct {
	val  string
	kind Kind
}

// reserved holds every keyword and boolean literal, indexed by word length (first dimension
// equals len(word)-2, since the shortest reserved word is two characters). Indexing by length
// before comparing strings is faster than a flat scan or a map lookup for a table this small.
var reserved = [...][]reservedWord{
	// Two-grams: if, do, or
	{
		{"if", Keyword},
		{"do", Keyword},
		{"or", Keyword},
	},
	// Three-grams: fun, var, and, not
	{
		{"fun", Keyword},
		{"var", Keyword},
		{"and", Keyword},
		{"not", Keyword},
	},
	// Four-grams: then, else, true
	{
		{"then", Keyword},
		{"else", Keyword},
		{"true", BoolLiteral},
	},
	// Five-grams: while, break, false
	{
		{"while", Keyword},
		{"break", Keyword},
		{"false", BoolLiteral},
	},
	// Six-grams: return
	{
		{"return", Keyword},
	},
	// Seven-grams: (none)
	{},
	// Eight-grams: continue
	{
		{"continue", Keyword},
	},
}

// isReserved reports whether s is a keyword or boolean literal. On true it also returns the
// Kind to tag the token with (Keyword or BoolLiteral); on false the caller should emit
// Identifier.
func isReserved(s string) (bool, Kind) {
	n := len(s)
	if n < 2 || n > 8 {
		return false, Identifier
	}
	for _, w := range reserved[n-2] {
		if w.val == s {
			return true, w.kind
		}
	}
	return false, Identifier
}
