package frame_test

import (
	"testing"

	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
	"github.com/leftmike/sqlmirror/testutil"
)

func people() *frame.Frame {
	f := frame.New([]string{"id", "name", "age"})
	f.Append(1, []sql.Value{sql.Int64Value(1), sql.StringValue("ann"), sql.Int64Value(30)})
	f.Append(2, []sql.Value{sql.Int64Value(2), sql.StringValue("bob"), nil})
	f.Append(3, []sql.Value{sql.Int64Value(3), sql.StringValue("cat"), sql.Int64Value(20)})
	f.Append(4, []sql.Value{sql.Int64Value(4), sql.StringValue("ann"), sql.Int64Value(30)})
	return f
}

func TestSlice(t *testing.T) {
	cases := []struct {
		lo, hi int
		idxs   []int64
	}{
		{0, -1, []int64{1, 2, 3, 4}},
		{1, 3, []int64{2, 3}},
		{3, 10, []int64{4}},
		{5, -1, []int64{}},
		{2, 1, []int64{}},
	}

	for _, c := range cases {
		idxs := people().Slice(c.lo, c.hi).Indexes()
		if !testutil.DeepEqual(idxs, c.idxs) {
			t.Errorf("Slice(%d, %d) got %v want %v", c.lo, c.hi, idxs, c.idxs)
		}
	}
}

func TestProjectDistinct(t *testing.T) {
	pf, err := people().Project([]string{"name", "age"})
	if err != nil {
		t.Fatalf("Project() failed with %s", err)
	}
	idxs := pf.Distinct().Indexes()
	if !testutil.DeepEqual(idxs, []int64{1, 2, 3}) {
		t.Errorf("Distinct() got %v want [1 2 3]", idxs)
	}

	_, err = people().Project([]string{"missing"})
	if err == nil {
		t.Error("Project(missing) did not fail")
	}
}

func TestSortBy(t *testing.T) {
	cases := []struct {
		reverse bool
		idxs    []int64
	}{
		{false, []int64{3, 1, 4, 2}},
		{true, []int64{1, 4, 3, 2}},
	}

	for _, c := range cases {
		sf, err := people().SortBy([]string{"age"}, c.reverse)
		if err != nil {
			t.Fatalf("SortBy(age) failed with %s", err)
		}
		if !testutil.DeepEqual(sf.Indexes(), c.idxs) {
			t.Errorf("SortBy(age, %v) got %v want %v", c.reverse, sf.Indexes(), c.idxs)
		}
	}
}

func TestMaps(t *testing.T) {
	m := people().Maps()
	if len(m) != 4 {
		t.Fatalf("Maps() got %d rows want 4", len(m))
	}
	if m[2]["name"] != sql.StringValue("cat") {
		t.Errorf("Maps()[2][name] got %v want 'cat'", m[2]["name"])
	}
}
