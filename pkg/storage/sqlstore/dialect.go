package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported databases.
type Dialect struct {
	Name string

	// DoubleType and LongTextType are the column types for floats and
	// JSON payloads.
	DoubleType   string
	LongTextType string

	// Numbered placeholders ($1, $2, ...) instead of '?'.
	Numbered bool
}

var (
	SQLite   = Dialect{Name: "sqlite", DoubleType: "REAL", LongTextType: "TEXT"}
	Postgres = Dialect{Name: "postgres", DoubleType: "DOUBLE PRECISION", LongTextType: "TEXT", Numbered: true}
	MySQL    = Dialect{Name: "mysql", DoubleType: "DOUBLE", LongTextType: "LONGTEXT"}
)

// Rebind rewrites '?' placeholders for dialects with numbered placeholders.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
