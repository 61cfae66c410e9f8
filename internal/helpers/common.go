package helpers

import (
	"strings"
)

// FormatCommand renders a command line for prompts and logs, quoting
// arguments that contain whitespace
func FormatCommand(name string, args ...string) string {
	var b strings.Builder
	b.WriteString(name)
	for _, arg := range args {
		b.WriteByte(' ')
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			b.WriteByte('\'')
			b.WriteString(strings.ReplaceAll(arg, "'", `'\''`))
			b.WriteByte('\'')
			continue
		}
		b.WriteString(arg)
	}
	return b.String()
}

// SplitFlags separates backend flags (tokens starting with '-') from
// package names, preserving order within each group
func SplitFlags(tokens []string) (names, flags []string) {
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		switch {
		case tok == "":
		case strings.HasPrefix(tok, "-"):
			flags = append(flags, tok)
		default:
			names = append(names, tok)
		}
	}
	return names, flags
}
