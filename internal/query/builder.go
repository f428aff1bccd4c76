package query

import (
	"strconv"
	"strings"
)

// placeholder marks a positional parameter inside a clause template. Markers
// are numbered once, in append order, when the predicate is built.
const placeholder = '?'

// Builder accumulates predicate clauses and their parameter values.
type Builder struct {
	clauses []string
	args    []any
}

// Add appends a clause whose '?' markers bind args in order.
func (b *Builder) Add(clause string, args ...any) {
	b.clauses = append(b.clauses, clause)
	b.args = append(b.args, args...)
}

// Len returns the number of clauses added so far.
func (b *Builder) Len() int { return len(b.clauses) }

// Build joins the clauses with AND and renumbers the markers to $1..$n.
// It returns an empty string when no clause was added.
func (b *Builder) Build() (string, []any) {
	if len(b.clauses) == 0 {
		return "", nil
	}
	return renumber(strings.Join(b.clauses, " AND ")), b.args
}

// renumber replaces every placeholder marker with $1, $2, ... left to right.
func renumber(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] != placeholder {
			sb.WriteByte(s[i])
			continue
		}
		n++
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}
