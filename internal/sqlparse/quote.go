package sqlparse

import "strings"

// quotedIdents returns the unescaped text of every backtick-quoted
// identifier in sql. String literals and comments are skipped.
func quotedIdents(sql string) map[string]bool {
	quoted := make(map[string]bool)
	for i := 0; i < len(sql); i++ {
		switch c := sql[i]; {
		case c == '\'' || c == '"':
			i = skipString(sql, i, c)
		case c == '#' || (c == '-' && strings.HasPrefix(sql[i:], "-- ")):
			if j := strings.IndexByte(sql[i:], '\n'); j >= 0 {
				i += j
			} else {
				i = len(sql)
			}
		case c == '/' && strings.HasPrefix(sql[i:], "/*"):
			if j := strings.Index(sql[i+2:], "*/"); j >= 0 {
				i += j + 3
			} else {
				i = len(sql)
			}
		case c == '`':
			var b strings.Builder
			j := i + 1
			for ; j < len(sql); j++ {
				if sql[j] != '`' {
					b.WriteByte(sql[j])
					continue
				}
				if j+1 < len(sql) && sql[j+1] == '`' {
					b.WriteByte('`')
					j++
					continue
				}
				break
			}
			quoted[b.String()] = true
			i = j
		}
	}
	return quoted
}

// skipString returns the index of the quote closing the literal opened at
// sql[start]. Doubled quotes and backslash escapes stay inside the literal.
func skipString(sql string, start int, q byte) int {
	for i := start + 1; i < len(sql); i++ {
		switch sql[i] {
		case '\\':
			i++
		case q:
			if i+1 < len(sql) && sql[i+1] == q {
				i++
				continue
			}
			return i
		}
	}
	return len(sql)
}
