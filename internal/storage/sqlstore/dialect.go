package sqlstore

import (
	"strconv"
	"strings"
)

// dialect captures the differences between the supported SQL backends.
// Queries are written with "?" placeholders and rebound per dialect.
type dialect struct {
	name          string
	dollarParams  bool
	realType      string
	timestampType string
}

var (
	sqliteDialect = dialect{
		name:          "sqlite",
		realType:      "REAL",
		timestampType: "INTEGER",
	}
	postgresDialect = dialect{
		name:          "postgres",
		dollarParams:  true,
		realType:      "DOUBLE PRECISION",
		timestampType: "BIGINT",
	}
)

// rebind rewrites "?" placeholders to "$1, $2, ..." for PostgreSQL.
func (d dialect) rebind(query string) string {
	if !d.dollarParams {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
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
