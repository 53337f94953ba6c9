package condition_test

import (
	"testing"

	"github.com/leftmike/sqlmirror/condition"
	"github.com/leftmike/sqlmirror/sql"
)

func TestParse(t *testing.T) {
	cases := []struct {
		s    string
		r    string
		fail bool
	}{
		{s: "age > 18", r: "(age > 18)"},
		{s: "a == 1 and b != 2 or c", r: "(((a == 1) and (b != 2)) or c)"},
		{s: "a or b and c", r: "(a or (b and c))"},
		{s: "a + b * c", r: "(a + (b * c))"},
		{s: "(a + b) * c", r: "((a + b) * c)"},
		{s: "2 ** 3 ** 2", r: "(2 ** (3 ** 2))"},
		{s: "-5", r: "-5"},
		{s: "-a", r: "(-a)"},
		{s: "-2 ** 2", r: "(-(2 ** 2))"},
		{s: "2 ** -1", r: "(2 ** -1)"},
		{s: "-2 * 3", r: "(-2 * 3)"},
		{s: "-a ** 2 + 1", r: "((-(a ** 2)) + 1)"},
		{s: "not a", r: "(not a)"},
		{s: "not a == 1", r: "(not (a == 1))"},
		{s: "x in [1, 2]", r: "(x in [1, 2])"},
		{s: "x not in (1,2)", r: "(x not in [1, 2])"},
		{s: "x is none", r: "(x is nil)"},
		{s: "x IS NOT NULL", r: "(x is not nil)"},
		{s: "name like 'a%'", r: "(name like 'a%')"},
		{s: "name not like \"a%\"", r: "(name not like 'a%')"},
		{s: "max(users.age) > 3", r: "(max(users.age) > 3)"},
		{s: "ROUND(a, 2)", r: "round(a, 2)"},
		{s: "a = 1", r: "(a == 1)"},
		{s: "a <> 1", r: "(a != 1)"},
		{s: "flag == true", r: "(flag == true)"},
		{s: "age >", fail: true},
		{s: "(a", fail: true},
		{s: "a b", fail: true},
		{s: "a not b", fail: true},
		{s: "x in 1", fail: true},
		{s: "'abc", fail: true},
		{s: "", fail: true},
	}

	for _, c := range cases {
		e, err := condition.Parse(c.s)
		if c.fail {
			if err == nil {
				t.Errorf("Parse(%q) did not fail", c.s)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) failed with %s", c.s, err)
		} else if e.String() != c.r {
			t.Errorf("Parse(%q) got %s want %s", c.s, e, c.r)
		}
	}
}

type testColumn struct {
	name string
	vals []sql.Value
}

func (tc testColumn) Key() string {
	return condition.Name(tc.name).Key()
}

func (tc testColumn) Name() string {
	return tc.name
}

func (tc testColumn) Aggregate(fn string, args ...sql.Value) (sql.Value, error) {
	var r sql.Value
	for _, v := range tc.vals {
		if sql.IsEmpty(v) {
			continue
		}
		switch fn {
		case "max":
			if r == nil || sql.Compare(v, r) > 0 {
				r = v
			}
		case "min":
			if r == nil || sql.Compare(v, r) < 0 {
				r = v
			}
		case "count":
			if r == nil {
				r = sql.Int64Value(0)
			}
			r = r.(sql.Int64Value) + 1
		default:
			return nil, sql.Errorf("unknown aggregate: %s", fn)
		}
	}
	return r, nil
}

func TestCompile(t *testing.T) {
	cols := []string{"age", "name"}
	ages := testColumn{name: "age",
		vals: []sql.Value{sql.Int64Value(10), sql.Int64Value(20), sql.Int64Value(30)}}

	cases := []struct {
		s    string
		row  []sql.Value
		r    sql.Value
		fail bool
	}{
		{s: "age > 18", row: []sql.Value{sql.Int64Value(20), nil}, r: sql.BoolValue(true)},
		{s: "age > 18", row: []sql.Value{sql.Int64Value(10), nil}, r: sql.BoolValue(false)},
		{s: "age > 18", row: []sql.Value{nil, nil}, r: nil},
		{s: "age > 18", row: []sql.Value{sql.Absent, nil}, r: nil},
		{s: "age is none", row: []sql.Value{nil, nil}, r: sql.BoolValue(true)},
		{s: "age is none", row: []sql.Value{sql.Absent, nil}, r: sql.BoolValue(true)},
		{s: "age is not none", row: []sql.Value{sql.Int64Value(1), nil},
			r: sql.BoolValue(true)},
		{s: "name == 'bob'", row: []sql.Value{nil, sql.StringValue("bob")},
			r: sql.BoolValue(true)},
		{s: "name == 5", row: []sql.Value{nil, sql.StringValue("bob")}, r: sql.BoolValue(false)},
		{s: "name != 5", row: []sql.Value{nil, sql.StringValue("bob")}, r: sql.BoolValue(true)},
		{s: "name < 5", row: []sql.Value{nil, sql.StringValue("bob")}, fail: true},
		{s: "age == 20.0", row: []sql.Value{sql.Int64Value(20), nil}, r: sql.BoolValue(true)},
		{s: "age + 1", row: []sql.Value{sql.Int64Value(20), nil}, r: sql.Int64Value(21)},
		{s: "age / 8", row: []sql.Value{sql.Int64Value(20), nil}, r: sql.Float64Value(2.5)},
		{s: "age % 7", row: []sql.Value{sql.Int64Value(20), nil}, r: sql.Int64Value(6)},
		{s: "-2 ** 2", row: []sql.Value{nil, nil}, r: sql.Float64Value(-4)},
		{s: "-age ** 2", row: []sql.Value{sql.Int64Value(3), nil}, r: sql.Float64Value(-9)},
		{s: "2 ** -1", row: []sql.Value{nil, nil}, r: sql.Float64Value(0.5)},
		{s: "age / 0", row: []sql.Value{sql.Int64Value(20), nil}, fail: true},
		{s: "name + 's'", row: []sql.Value{nil, sql.StringValue("bob")},
			r: sql.StringValue("bobs")},
		{s: "len(name)", row: []sql.Value{nil, sql.StringValue("bob")}, r: sql.Int64Value(3)},
		{s: "upper(name)", row: []sql.Value{nil, sql.StringValue("bob")},
			r: sql.StringValue("BOB")},
		{s: "abs(age)", row: []sql.Value{sql.Int64Value(-4), nil}, r: sql.Int64Value(4)},
		{s: "round(1.25, 1)", row: []sql.Value{nil, nil}, r: sql.Float64Value(1.3)},
		{s: "age in [10, 20]", row: []sql.Value{sql.Int64Value(20), nil}, r: sql.BoolValue(true)},
		{s: "age not in [10, 20]", row: []sql.Value{sql.Int64Value(20), nil},
			r: sql.BoolValue(false)},
		{s: "age in [10, none]", row: []sql.Value{sql.Int64Value(20), nil}, r: nil},
		{s: "name like \"b%\"", row: []sql.Value{nil, sql.StringValue("bob")},
			r: sql.BoolValue(true)},
		{s: "name not like 'b_'", row: []sql.Value{nil, sql.StringValue("bob")},
			r: sql.BoolValue(true)},
		{s: "age > 18 and name == 'bob'", row: []sql.Value{nil, sql.StringValue("ann")},
			r: sql.BoolValue(false)},
		{s: "age > 18 or name == 'bob'", row: []sql.Value{nil, sql.StringValue("bob")},
			r: sql.BoolValue(true)},
		{s: "age > 18 or name == 'bob'", row: []sql.Value{nil, sql.StringValue("ann")}, r: nil},
		{s: "not age > 18", row: []sql.Value{sql.Int64Value(10), nil}, r: sql.BoolValue(true)},
		{s: "age < max(age)", row: []sql.Value{sql.Int64Value(20), nil},
			r: sql.BoolValue(true)},
		{s: "age == min(age)", row: []sql.Value{sql.Int64Value(10), nil},
			r: sql.BoolValue(true)},
		{s: "missing > 1", row: []sql.Value{nil, nil}, fail: true},
		{s: "nosuch(age, 1)", row: []sql.Value{nil, nil}, fail: true},
		{s: "bogus(name)", row: []sql.Value{nil, nil}, fail: true},
	}

	for _, c := range cases {
		e, err := condition.Parse(c.s)
		if err != nil {
			t.Errorf("Parse(%q) failed with %s", c.s, err)
			continue
		}
		ev, err := condition.Compile(e, cols, ages)
		if err == nil {
			var r sql.Value
			r, err = ev(c.row)
			if err == nil {
				if c.fail {
					t.Errorf("Compile(%q)(%v) did not fail", c.s, c.row)
				} else if !sql.Equal(r, c.r) {
					t.Errorf("Compile(%q)(%v) got %s want %s", c.s, c.row, sql.Format(r),
						sql.Format(c.r))
				}
				continue
			}
		}
		if !c.fail {
			t.Errorf("Compile(%q)(%v) failed with %s", c.s, c.row, err)
		}
	}
}
