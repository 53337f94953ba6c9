package sql

import (
	"encoding/hex"
	"strings"
	"time"
)

func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Literal renders v as an SQL literal suitable for an INSERT or UPDATE statement.
func Literal(v Value) string {
	switch v := v.(type) {
	case nil, absentValue:
		return NullString
	case BoolValue:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case Int64Value, Float64Value:
		return v.String()
	case StringValue:
		return QuoteString(string(v))
	case JSONValue:
		return QuoteString(string(v))
	case TimeValue:
		return QuoteString(time.Time(v).Format(TimeFormat))
	case BytesValue:
		return "X'" + hex.EncodeToString(v) + "'"
	}
	return QuoteString(v.String())
}
