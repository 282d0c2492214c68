package migrate

import "strings"

// SplitStatements splits a SQL script into individual statements on `;`,
// ignoring semicolons inside single- or double-quoted string literals.
// Statements are trimmed of surrounding whitespace; empty statements are
// dropped, and trailing content after the last `;` is kept as a final
// statement.
//
// Escaped quotes, dollar-quoting and comments are not understood; scripts
// containing semicolons in those constructs (e.g. stored procedure bodies)
// are out of scope for this scanner.
func SplitStatements(script string) []string {
	var out []string
	var cur strings.Builder
	inSingle, inDouble := false, false

	for i := 0; i < len(script); i++ {
		c := script[i]
		if c == '\'' && !inDouble {
			inSingle = !inSingle
		}
		if c == '"' && !inSingle {
			inDouble = !inDouble
		}

		if c == ';' && !inSingle && !inDouble {
			if stmt := strings.TrimSpace(cur.String()); stmt != "" {
				out = append(out, stmt)
			}
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}

	if stmt := strings.TrimSpace(cur.String()); stmt != "" {
		out = append(out, stmt)
	}
	return out
}
