// Package sqlcheck performs syntactic safety validation of generated SQL
// before it reaches the warehouse. It is not a SQL parser: the rules are
// deliberately coarse and err on the side of rejection.
package sqlcheck

import (
	"fmt"
	"regexp"
	"strings"
)

// forbiddenKeywords are statement types that must never reach the warehouse.
// Checked in order so the reported keyword is deterministic.
var forbiddenKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER",
	"CREATE", "GRANT", "REVOKE", "TRUNCATE",
}

var (
	keywordPatterns = compileKeywordPatterns()
	limitPattern    = regexp.MustCompile(`\bLIMIT\s+\d+`)
)

func compileKeywordPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(forbiddenKeywords))
	for _, kw := range forbiddenKeywords {
		patterns[kw] = regexp.MustCompile(`\b` + kw + `\b`)
	}
	return patterns
}

// Verdict is the outcome of validating a single SQL statement.
type Verdict struct {
	Valid  bool
	Reason string
}

// Validate applies the safety rules to a single SQL statement.
// All checks run on the uppercased, whitespace-trimmed text.
func Validate(sql string) Verdict {
	upper := strings.ToUpper(strings.TrimSpace(sql))

	if !strings.HasPrefix(upper, "SELECT") {
		return Verdict{Reason: "must start with SELECT"}
	}

	for _, kw := range forbiddenKeywords {
		if keywordPatterns[kw].MatchString(upper) {
			return Verdict{Reason: fmt.Sprintf("forbidden keyword detected: %s", kw)}
		}
	}

	if !limitPattern.MatchString(upper) {
		return Verdict{Reason: "missing or invalid LIMIT clause"}
	}

	return Verdict{Valid: true}
}
