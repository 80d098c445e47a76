package postgres

import (
	"strings"
	"unicode"
)

// orTSQuery joins terms into a to_tsquery OR expression. Everything but
// letters and digits is dropped so user text can never break the tsquery
// grammar.
func orTSQuery(terms []string) string {
	var parts []string
	for _, term := range terms {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, term)
		if clean != "" {
			parts = append(parts, clean)
		}
	}
	return strings.Join(parts, " | ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
