package dialect

import (
	"strconv"
	"strings"

	core "ordersaga/data/db"
)

// Name is a normalized dialect name.
type Name string

const (
	NameMySQL    Name = "mysql"
	NameSQLite   Name = "sqlite"
	NamePostgres Name = "postgres"
	NameUnknown  Name = ""
)

// Dialect captures the SQL capabilities that differ across drivers.
//
// Abstracted capabilities:
//   - Rebind: placeholder syntax (?, vs $1, $2, ...)
//   - IsUniqueViolation: unique/primary-key conflict detection
//   - QuoteIdentifier: identifier quoting
//   - SupportsDeleteLimit: whether DELETE ... LIMIT is allowed
type Dialect struct {
	name Name
}

// New builds a Dialect from a driver name (case-insensitive).
func New(name string) Dialect {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql":
		return Dialect{name: NameMySQL}
	case "sqlite", "sqlite3":
		return Dialect{name: NameSQLite}
	case "postgres", "postgresql":
		return Dialect{name: NamePostgres}
	default:
		return Dialect{name: NameUnknown}
	}
}

// FromDatabase infers the dialect from an IDatabase, if it implements
// IDialectNameProvider; otherwise returns Unknown.
func FromDatabase(db core.IDatabase) Dialect {
	if db == nil {
		return Dialect{name: NameUnknown}
	}
	if p, ok := db.(core.IDialectNameProvider); ok {
		return New(p.GetDialectName())
	}
	return Dialect{name: NameUnknown}
}

// Name returns the normalized dialect name.
func (d Dialect) Name() Name {
	return d.name
}

// QuoteIdentifier escapes a table/column identifier for the dialect.
//
// Dotted names (schema.table) are quoted segment by segment. MySQL uses
// backticks, Postgres/SQLite use double quotes. Unknown dialects are
// returned unmodified. This does not validate identifier syntax.
func (d Dialect) QuoteIdentifier(name string) string {
	if name == "" {
		return ""
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "" {
			continue
		}
		switch d.name {
		case NameMySQL:
			parts[i] = "`" + p + "`"
		case NameSQLite, NamePostgres:
			parts[i] = `"` + p + `"`
		default:
			// unknown dialect: leave as-is
		}
	}
	return strings.Join(parts, ".")
}

// Rebind converts the generic `?` placeholder into the dialect's native
// form.
//
// Only Postgres is rewritten today (? -> $1, $2, ...); every other dialect
// is returned unchanged.
//
// Limitation: this is a naive character scan, not a SQL parser — it cannot
// tell a placeholder from a literal `?` inside a quoted string. Avoid `?`
// in string literals, or rebind before substituting them in.
func (d Dialect) Rebind(query string) string {
	if query == "" {
		return query
	}
	switch d.name {
	case NamePostgres:
		var sb strings.Builder
		sb.Grow(len(query) + 4)
		argIndex := 1
		for i := 0; i < len(query); i++ {
			ch := query[i]
			if ch == '?' {
				sb.WriteByte('$')
				sb.WriteString(strconv.Itoa(argIndex))
				argIndex++
			} else {
				sb.WriteByte(ch)
			}
		}
		return sb.String()
	default:
		return query
	}
}

// SupportsDeleteLimit reports whether the dialect allows DELETE ... LIMIT.
func (d Dialect) SupportsDeleteLimit() bool {
	switch d.name {
	case NameMySQL, NameSQLite:
		return true
	default:
		return false
	}
}

// IsUniqueViolation reports whether err looks like a unique/primary-key
// conflict.
//
// This matches on error message keywords rather than driver-specific error
// codes (e.g. mysql.MySQLError.Number == 1062), which is a reasonable
// tradeoff for a thin dialect shim but can mis-classify if a driver changes
// its wording.
func (d Dialect) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch d.name {
	case NameMySQL:
		return strings.Contains(msg, "duplicate entry") ||
			strings.Contains(msg, "duplicate key")
	case NameSQLite:
		return strings.Contains(msg, "unique constraint failed")
	case NamePostgres:
		return strings.Contains(msg, "duplicate key") ||
			strings.Contains(msg, "unique constraint")
	default:
		return strings.Contains(msg, "duplicate key") ||
			strings.Contains(msg, "unique constraint")
	}
}
