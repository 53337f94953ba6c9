package sql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	NullString   = "NULL"
	TrueString   = "true"
	FalseString  = "false"
	AbsentString = ""

	TimeFormat = "2006-01-02 15:04:05"
)

type Value interface {
	fmt.Stringer

	// return -1 if v1 < v2
	// return 0 if v1 == v2
	// return 1 if v1 > v2
	Compare(v2 Value) (int, error)
}

type BoolValue bool

func (b BoolValue) String() string {
	if b {
		return TrueString
	}
	return FalseString
}

func (b1 BoolValue) Compare(v2 Value) (int, error) {
	if b2, ok := v2.(BoolValue); ok {
		if b1 {
			if b2 {
				return 0, nil
			}
			return 1, nil
		} else {
			if b2 {
				return -1, nil
			}
			return 0, nil
		}
	}
	return 0, fmt.Errorf("sql: want boolean got %v", v2)
}

type Int64Value int64

func (i Int64Value) String() string {
	return strconv.FormatInt(int64(i), 10)
}

func (i1 Int64Value) Compare(v2 Value) (int, error) {
	switch v2 := v2.(type) {
	case Int64Value:
		if i1 < v2 {
			return -1, nil
		} else if i1 > v2 {
			return 1, nil
		}
		return 0, nil
	case Float64Value:
		if Float64Value(i1) < v2 {
			return -1, nil
		} else if Float64Value(i1) > v2 {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("sql: want number got %v", v2)
}

type Float64Value float64

func (d Float64Value) String() string {
	return strconv.FormatFloat(float64(d), 'g', -1, 64)
}

func (d1 Float64Value) Compare(v2 Value) (int, error) {
	switch v2 := v2.(type) {
	case Int64Value:
		if d1 < Float64Value(v2) {
			return -1, nil
		} else if d1 > Float64Value(v2) {
			return 1, nil
		}
		return 0, nil
	case Float64Value:
		if d1 < v2 {
			return -1, nil
		} else if d1 > v2 {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("sql: want number got %v", v2)
}

type StringValue string

func (s StringValue) String() string {
	return fmt.Sprintf("'%s'", string(s))
}

func (s1 StringValue) Compare(v2 Value) (int, error) {
	if s2, ok := v2.(StringValue); ok {
		return strings.Compare(string(s1), string(s2)), nil
	}
	return 0, fmt.Errorf("sql: want string got %v", v2)
}

type BytesValue []byte

var (
	hexDigits = [16]rune{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'a', 'b', 'c', 'd',
		'e', 'f'}
)

func (b BytesValue) String() string {
	var buf bytes.Buffer
	buf.WriteString("'\\x")
	for _, v := range b {
		buf.WriteRune(hexDigits[v>>4])
		buf.WriteRune(hexDigits[v&0xF])
	}

	buf.WriteRune('\'')
	return buf.String()
}

func (b1 BytesValue) Compare(v2 Value) (int, error) {
	if b2, ok := v2.(BytesValue); ok {
		return bytes.Compare([]byte(b1), []byte(b2)), nil
	}
	return 0, fmt.Errorf("sql: want bytes got %v", v2)
}

type TimeValue time.Time

func (t TimeValue) String() string {
	return fmt.Sprintf("'%s'", time.Time(t).Format(TimeFormat))
}

func (t1 TimeValue) Compare(v2 Value) (int, error) {
	if t2, ok := v2.(TimeValue); ok {
		if time.Time(t1).Before(time.Time(t2)) {
			return -1, nil
		} else if time.Time(t1).After(time.Time(t2)) {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("sql: want time got %v", v2)
}

// JSONValue holds an encoded JSON array or object.
type JSONValue string

func (j JSONValue) String() string {
	return fmt.Sprintf("'%s'", string(j))
}

func (j1 JSONValue) Compare(v2 Value) (int, error) {
	if j2, ok := v2.(JSONValue); ok {
		return strings.Compare(string(j1), string(j2)), nil
	}
	return 0, fmt.Errorf("sql: want json got %v", v2)
}

func rank(v Value) int {
	switch v.(type) {
	case nil:
		return 0
	case absentValue:
		return 1
	case BoolValue:
		return 2
	case Float64Value, Int64Value:
		return 3
	case TimeValue:
		return 4
	case StringValue:
		return 5
	case JSONValue:
		return 6
	case BytesValue:
		return 7
	default:
		panic(fmt.Sprintf("unexpected type for sql.Value: %T: %v", v, v))
	}
}

// Compare orders any two values: NULL first, then Absent, then booleans, numbers, times,
// strings, json, and bytes.
func Compare(v1, v2 Value) int {
	r1 := rank(v1)
	r2 := rank(v2)
	if r1 < r2 {
		return -1
	} else if r1 > r2 {
		return 1
	}
	if r1 <= 1 {
		return 0
	}
	cmp, _ := v1.Compare(v2)
	return cmp
}

// Equal reports whether v1 and v2 are the same value; numbers compare across int and float.
func Equal(v1, v2 Value) bool {
	return Compare(v1, v2) == 0
}

func Format(v Value) string {
	if v == nil {
		return NullString
	}

	return v.String()
}

// Text returns the value without quoting, as it would be shown in a result table.
func Text(v Value) string {
	switch v := v.(type) {
	case nil:
		return NullString
	case StringValue:
		return string(v)
	case JSONValue:
		return string(v)
	case TimeValue:
		return time.Time(v).Format(TimeFormat)
	}
	return v.String()
}

// ValueOf converts a Go value, as returned by database/sql or supplied by a caller, to a
// Value.
func ValueOf(v interface{}) (Value, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case Value:
		return v, nil
	case bool:
		return BoolValue(v), nil
	case int:
		return Int64Value(v), nil
	case int8:
		return Int64Value(v), nil
	case int16:
		return Int64Value(v), nil
	case int32:
		return Int64Value(v), nil
	case int64:
		return Int64Value(v), nil
	case uint:
		return Int64Value(v), nil
	case uint8:
		return Int64Value(v), nil
	case uint16:
		return Int64Value(v), nil
	case uint32:
		return Int64Value(v), nil
	case uint64:
		return Int64Value(v), nil
	case float32:
		return Float64Value(v), nil
	case float64:
		return Float64Value(v), nil
	case decimal.Decimal:
		return Float64Value(v.InexactFloat64()), nil
	case string:
		return StringValue(v), nil
	case []byte:
		return BytesValue(append([]byte(nil), v...)), nil
	case time.Time:
		return TimeValue(v), nil
	case []interface{}, map[string]interface{}:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("sql: json value: %s", err)
		}
		return JSONValue(b), nil
	}
	return nil, fmt.Errorf("sql: unexpected type for value: %T: %v", v, v)
}

// Native converts a Value back to the Go value a database/sql driver accepts.
func Native(v Value) interface{} {
	switch v := v.(type) {
	case nil, absentValue:
		return nil
	case BoolValue:
		return bool(v)
	case Int64Value:
		return int64(v)
	case Float64Value:
		return float64(v)
	case StringValue:
		return string(v)
	case BytesValue:
		return []byte(v)
	case TimeValue:
		return time.Time(v)
	case JSONValue:
		return string(v)
	}
	panic(fmt.Sprintf("unexpected type for sql.Value: %T: %v", v, v))
}

/*
database/sql package ==>
Scan converts from columns to Go types:
*string
*[]byte
*int, *int8, *int16, *int32, *int64
*uint, *uint8, *uint16, *uint32, *uint64
*bool
*float32, *float64
*interface{}
*RawBytes
any type implementing Scanner (see Scanner docs)

database/sql/driver package ==>
nil
int64
float64
bool
[]byte
string
time.Time
*/
