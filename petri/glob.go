package petri

import (
	"path/filepath"
	"strings"
)

// globMeta are the glob metacharacters disallowed in plain labels (spec §7:
// "label containing whitespace or glob metacharacters" is a construction
// error).
const globMeta = "*?["

// validateLabel rejects labels containing whitespace or glob metacharacters.
func validateLabel(label string) error {
	if label == "" {
		return newConstructionError(label, "label must not be empty")
	}
	if strings.ContainsAny(label, " \t\r\n") {
		return newConstructionError(label, "label must not contain whitespace")
	}
	if strings.ContainsAny(label, globMeta) {
		return newConstructionError(label, "label must not contain glob metacharacters (*, ?, [)")
	}
	return nil
}

// isLiteral reports whether pat contains no glob metacharacters, i.e. it
// names exactly one place rather than a pattern.
func isLiteral(pat string) bool {
	return !strings.ContainsAny(pat, globMeta)
}

// matchGlob returns every label in candidates that pat matches, preserving
// candidates' order. Patterns use shell-style globbing (*, ?, [...]), the
// same syntax path/filepath.Match implements.
func matchGlob(pat string, candidates []string) []string {
	var out []string
	for _, c := range candidates {
		ok, err := filepath.Match(pat, c)
		if err != nil {
			continue
		}
		if ok {
			out = append(out, c)
		}
	}
	return out
}
