package testutil

import (
	"fmt"
	"reflect"

	"github.com/leftmike/sqlmirror/sql"
)

var valueType = reflect.TypeOf((*sql.Value)(nil)).Elem()

func format(v sql.Value) string {
	if sql.IsAbsent(v) {
		return "<absent>"
	}
	return sql.Format(v)
}

// sqlValueEqual compares two values of the same type with sql.Compare, so times compare as
// instants and bytes by content. NULL and Absent are never equal to each other.
func sqlValueEqual(v1, v2 sql.Value) (bool, string) {
	if sql.Compare(v1, v2) != 0 {
		return false, fmt.Sprintf("%s != %s\n", format(v1), format(v2))
	}
	return true, ""
}

func deepValueEqual(v1, v2 reflect.Value) (bool, string) {
	if !v1.IsValid() || !v2.IsValid() {
		return v1.IsValid() == v2.IsValid(), ""
	}
	if v1.Type() != v2.Type() {
		return false, fmt.Sprintf("%#v.Type() != %#v.Type()\n", v1, v2)
	}

	if v1.Type() == valueType && v1.CanInterface() {
		var sv1, sv2 sql.Value
		if !v1.IsNil() {
			sv1 = v1.Elem().Interface().(sql.Value)
		}
		if !v2.IsNil() {
			sv2 = v2.Elem().Interface().(sql.Value)
		}
		if sv1 == nil || sv2 == nil || reflect.TypeOf(sv1) != reflect.TypeOf(sv2) {
			if sv1 == nil && sv2 == nil {
				return true, ""
			}
			return false, fmt.Sprintf("%s != %s\n", format(sv1), format(sv2))
		}
		return sqlValueEqual(sv1, sv2)
	} else if v1.Kind() != reflect.Interface && v1.Type().Implements(valueType) &&
		v1.CanInterface() {

		return sqlValueEqual(v1.Interface().(sql.Value), v2.Interface().(sql.Value))
	}

	switch v1.Kind() {
	case reflect.Array:
		for i := 0; i < v1.Len(); i++ {
			if ok, err := deepValueEqual(v1.Index(i), v2.Index(i)); !ok {
				return false, fmt.Sprintf("%s%#v[%d] != %#v[%d]\n", err, v1, i, v2, i)
			}
		}
		return true, ""
	case reflect.Slice:
		if v1.IsNil() != v2.IsNil() {
			return false, fmt.Sprintf("%#v != %#v\n", v1, v2)
		}
		if v1.Len() != v2.Len() {
			return false, fmt.Sprintf("%#v != %#v\n", v1, v2)
		}
		if v1.Pointer() == v2.Pointer() {
			return true, ""
		}
		for i := 0; i < v1.Len(); i++ {
			if ok, err := deepValueEqual(v1.Index(i), v2.Index(i)); !ok {
				return false, fmt.Sprintf("%s[%d] of %d\n", err, i, v1.Len())
			}
		}
		return true, ""
	case reflect.Interface:
		if v1.IsNil() || v2.IsNil() {
			return v1.IsNil() == v2.IsNil(), ""
		}
		return deepValueEqual(v1.Elem(), v2.Elem())
	case reflect.Ptr:
		if v1.Pointer() == v2.Pointer() {
			return true, ""
		}
		return deepValueEqual(v1.Elem(), v2.Elem())
	case reflect.Struct:
		for i, n := 0, v1.NumField(); i < n; i++ {
			if ok, err := deepValueEqual(v1.Field(i), v2.Field(i)); !ok {
				return false, fmt.Sprintf("%s%#v != %#v\n", err, v1, v2)
			}
		}
		return true, ""
	case reflect.Map:
		if v1.IsNil() != v2.IsNil() {
			return false, fmt.Sprintf("%#v != %#v\n", v1, v2)
		}
		if v1.Len() != v2.Len() {
			return false, fmt.Sprintf("%#v != %#v\n", v1, v2)
		}
		if v1.Pointer() == v2.Pointer() {
			return true, ""
		}
		for _, k := range v1.MapKeys() {
			val1 := v1.MapIndex(k)
			val2 := v2.MapIndex(k)
			if !val1.IsValid() || !val2.IsValid() {
				return false, fmt.Sprintf("%#v != %#v\n", v1, v2)
			}
			if ok, err := deepValueEqual(v1.MapIndex(k), v2.MapIndex(k)); !ok {
				return false, fmt.Sprintf("%s%#v != %#v\n", err, v1, v2)
			}
		}
		return true, ""
	case reflect.Func:
		if v1.IsNil() && v2.IsNil() {
			return true, ""
		}
		return false, fmt.Sprintf("%#v != %#v\n", v1, v2)
	default:
		if v1.Interface() != v2.Interface() {
			return false, fmt.Sprintf("%#v != %#v\n", v1, v2)
		}
		return true, ""
	}
}

// DeepEqual is reflect.DeepEqual for test results holding sql.Values: values of the same type
// compare with sql.Compare, and NULL, Absent, and the empty string all differ. The optional
// argument receives a description, in sql.Format notation, of what was not equal.
func DeepEqual(x, y interface{}, trc ...*string) bool {
	if len(trc) > 1 {
		panic("testutil.DeepEqual: more than one optional argument")
	}

	var eq bool
	var s string
	if x == nil || y == nil {
		if x != y {
			s = fmt.Sprintf("%v != %v\n", x, y)
		}
		eq = (x == y)
	} else if sv1, ok := x.(sql.Value); ok && reflect.TypeOf(x) == reflect.TypeOf(y) {
		eq, s = sqlValueEqual(sv1, y.(sql.Value))
	} else {
		v1 := reflect.ValueOf(x)
		v2 := reflect.ValueOf(y)
		if v1.Type() != v2.Type() {
			s = fmt.Sprintf("%#v.Type() != %#v.Type()\n", v1, v2)
			eq = false
		} else {
			eq, s = deepValueEqual(v1, v2)
		}
	}

	if len(trc) == 1 && trc[0] != nil {
		*trc[0] = s
	}
	return eq
}
