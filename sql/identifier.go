package sql

import (
	"regexp"
)

var identifierRegexp = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func ValidIdentifier(s string) bool {
	return identifierRegexp.MatchString(s)
}

// CheckIdentifier returns a QueryError naming what (table, column, index, ...) if s is not a
// valid identifier.
func CheckIdentifier(what, s string) error {
	if !ValidIdentifier(s) {
		return Errorf("invalid %s name: %q", what, s)
	}
	return nil
}
