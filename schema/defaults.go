package schema

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/leftmike/sqlmirror/sql"
)

var (
	incrementRegexp = regexp.MustCompile(`(?i)INCREMENT|IDENTITY|\b(?:SMALL|BIG)?SERIAL\b`)
	defaultRegexp   = regexp.MustCompile(`(?i)\bDEFAULT\s*\((.*)\)`)
	defaultWord     = regexp.MustCompile(`(?i)\bDEFAULT\s+('(?:[^']|'')*'|[^\s,]+)`)
	numberRegexp    = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	notNullRegexp   = regexp.MustCompile(`(?i)\bNOT\s+NULL\b`)
	castRegexp      = regexp.MustCompile(`^('(?:[^']|'')*')::[\w\s]+$`)
)

// DefaultValues returns n values for a new column key declared with spec, or for the missing
// cells of an existing column. With absent, every value is sql.Absent. An auto incrementing
// column gets 1 through n. A DEFAULT(x) column gets x, decoded as a time, json, a number,
// CURRENT_TIMESTAMP, TRUE or FALSE, or a string, in that order. A NOT NULL column without a
// default is an error; otherwise the values are NULL.
func DefaultValues(key string, spec []string, n int, absent bool) ([]sql.Value, error) {
	if n < 0 {
		n = 0
	}
	vals := make([]sql.Value, n)
	if absent {
		for vdx := range vals {
			vals[vdx] = sql.Absent
		}
		return vals, nil
	}

	all := strings.Join(spec, " ")
	if incrementRegexp.MatchString(all) {
		for vdx := range vals {
			vals[vdx] = sql.Int64Value(vdx + 1)
		}
		return vals, nil
	}

	raw, ok := findDefault(spec)
	if ok {
		v := decodeDefault(raw, time.Now())
		for vdx := range vals {
			vals[vdx] = v
		}
		if v != nil || !notNullRegexp.MatchString(all) {
			return vals, nil
		}
	}

	if notNullRegexp.MatchString(all) {
		return nil, sql.Errorf("column %s is NOT NULL and has no default", key)
	}
	return vals, nil
}

func findDefault(spec []string) (string, bool) {
	for _, s := range spec {
		if m := defaultRegexp.FindStringSubmatch(s); m != nil {
			return strings.TrimSpace(m[1]), true
		}
		if m := defaultWord.FindStringSubmatch(s); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// DefaultToValue decodes the default of a column as reported by the database; nil and NULL
// are NULL.
func DefaultToValue(raw *string) sql.Value {
	if raw == nil {
		return nil
	}
	return decodeDefault(*raw, time.Now())
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 {
		q := s[0]
		if (q == '\'' || q == '"') && s[len(s)-1] == q {
			return strings.ReplaceAll(s[1:len(s)-1], string([]byte{q, q}), string(q)), true
		}
	}
	return s, false
}

func isTimestamp(s string) bool {
	s = strings.ToUpper(s)
	return s == "CURRENT_TIMESTAMP" || s == "CURRENT_TIMESTAMP()" || s == "NOW()" ||
		s == "LOCALTIMESTAMP" || s == "GETDATE()"
}

func decodeDefault(raw string, now time.Time) sql.Value {
	raw = strings.TrimSpace(raw)
	if m := castRegexp.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	if raw == "" || strings.EqualFold(raw, sql.NullString) {
		return nil
	}

	s, _ := unquote(raw)
	isJSON := strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{")
	if !isJSON && !numberRegexp.MatchString(s) && strings.ContainsAny(s, "0123456789") {
		if t, err := dateparse.ParseAny(s); err == nil {
			return sql.TimeValue(t)
		}
	}
	if isJSON {
		var j interface{}
		if err := json.Unmarshal([]byte(s), &j); err == nil {
			if v, err := sql.ValueOf(j); err == nil {
				return v
			}
		}
	}
	if numberRegexp.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err == nil {
			return sql.Float64Value(f)
		}
	}
	if isTimestamp(s) {
		return sql.TimeValue(now)
	}
	switch strings.ToUpper(s) {
	case "TRUE":
		return sql.BoolValue(true)
	case "FALSE":
		return sql.BoolValue(false)
	}
	return sql.StringValue(s)
}
