package sql

import (
	"fmt"
)

type absentValue struct{}

// Absent marks a cell with no data. It is distinct from NULL and is never written to a
// database; it keeps the rows of an empty or partially filled table rectangular.
var Absent Value = absentValue{}

func (absentValue) String() string {
	return AbsentString
}

func (absentValue) Compare(v2 Value) (int, error) {
	if _, ok := v2.(absentValue); ok {
		return 0, nil
	}
	return 0, fmt.Errorf("sql: want absent got %v", v2)
}

func IsAbsent(v Value) bool {
	_, ok := v.(absentValue)
	return ok
}

// IsEmpty is true for NULL and Absent.
func IsEmpty(v Value) bool {
	return v == nil || IsAbsent(v)
}

// AllAbsent is true if every value in row is Absent; an empty row is not.
func AllAbsent(row []Value) bool {
	if len(row) == 0 {
		return false
	}
	for _, v := range row {
		if !IsAbsent(v) {
			return false
		}
	}
	return true
}
