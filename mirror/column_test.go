package mirror_test

import (
	"context"
	"testing"

	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/mirror"
	"github.com/leftmike/sqlmirror/sql"
	"github.com/leftmike/sqlmirror/testutil"
)

func TestAggregates(t *testing.T) {
	_, tbls, _ := testPeople(t, sql.SQLite)
	people := tbls.Table("people")
	age := people.Column("age")
	name := people.Column("name")

	under := func(v sql.Value) bool {
		return sql.Compare(v, sql.Int64Value(25)) < 0
	}

	cases := []struct {
		fn   string
		args []sql.Value
		r    sql.Value
		fail bool
	}{
		{fn: "max", r: sql.Int64Value(30)},
		{fn: "MIN", r: sql.Int64Value(10)},
		{fn: "len", r: sql.Int64Value(3)},
		{fn: "count", r: sql.Int64Value(3)},
		{fn: "sum", r: sql.Int64Value(60)},
		{fn: "avg", r: sql.Float64Value(20)},
		{fn: "mult", r: sql.Int64Value(6000)},
		{fn: "diff", r: sql.Int64Value(-40)},
		{fn: "round", args: row(1), r: sql.JSONValue("[10,20,30]")},
		{fn: "round", args: row("x"), fail: true},
		{fn: "median", fail: true},
	}
	for _, c := range cases {
		r, err := age.Aggregate(c.fn, c.args...)
		if c.fail {
			if err == nil {
				t.Errorf("Aggregate(%s) did not fail", c.fn)
			}
		} else if err != nil {
			t.Errorf("Aggregate(%s) failed with %s", c.fn, err)
		} else if !testutil.DeepEqual(r, c.r) {
			t.Errorf("Aggregate(%s) got %v want %v", c.fn, r, c.r)
		}
	}

	if v := age.Max(under); !sql.Equal(v, sql.Int64Value(20)) {
		t.Errorf("Max(under) got %v want 20", v)
	}
	if n := age.Len(under); n != 2 {
		t.Errorf("Len(under) got %d want 2", n)
	}
	if v, err := age.Sum(func(v sql.Value) bool { return false }); err != nil ||
		!sql.Equal(v, sql.Int64Value(0)) {

		t.Errorf("Sum(none) got %v, %v want 0", v, err)
	}
	if _, err := age.Avg(func(v sql.Value) bool { return false }); err == nil {
		t.Error("Avg(none) did not fail")
	}
	if _, err := name.Sum(nil); err == nil {
		t.Error("Sum(name) did not fail")
	}
	if v, err := age.Quot(nil); err != nil {
		t.Errorf("Quot() failed with %s", err)
	} else if _, ok := v.(sql.Float64Value); !ok {
		t.Errorf("Quot() got %v want a float", v)
	}

	vals, err := age.Power(2, nil)
	if err != nil {
		t.Fatalf("Power() failed with %s", err)
	}
	if !testutil.DeepEqual(vals, row(100.0, 400.0, 900.0)) {
		t.Errorf("Power(2) got %v", vals)
	}
	if vals := name.Mirror(nil); !testutil.DeepEqual(vals, row("cat", "bob", "ann")) {
		t.Errorf("Mirror() got %v", vals)
	}
	if s := name.Join(", ", nil); s != "ann, bob, cat" {
		t.Errorf("Join() got %s", s)
	}
	if f := name.Enumerate(nil); !testutil.DeepEqual(f.Indexes(), []int64{0, 1, 2}) {
		t.Errorf("Enumerate() got %v", f.Indexes())
	}
	if vals := age.Random(5, nil); len(vals) != 5 {
		t.Errorf("Random(5) got %v", vals)
	}
	if vals := age.Shuffle(3, nil); len(vals) != 3 {
		t.Errorf("Shuffle(3) got %v", vals)
	}
	if _, err := age.RandomOne(nil); err != nil {
		t.Errorf("RandomOne() failed with %s", err)
	}
	vals = age.Map(
		func(v sql.Value) sql.Value {
			return sql.Int64Value(int64(v.(sql.Int64Value)) + 1)
		}, under)
	if !testutil.DeepEqual(vals, row(11, 21)) {
		t.Errorf("Map() got %v", vals)
	}
	if !testutil.DeepEqual(age.Values(), row(10, 20, 30)) {
		t.Errorf("Map() changed the column: %v", age.Values())
	}
}

func TestColumnSQL(t *testing.T) {
	_, tbls, _ := testPeople(t, sql.SQLite)
	people := tbls.Table("people")
	age := people.Column("age")

	cases := []struct {
		fn     string
		digits []int
		s      string
	}{
		{fn: "max", s: "MAX(people.age)"},
		{fn: "length", s: "COUNT(people.age)"},
		{fn: "Avg", s: "AVG(people.age)"},
		{fn: "round", digits: []int{2}, s: "ROUND(people.age,2)"},
		{fn: "median"},
	}
	for _, c := range cases {
		s, err := age.SQL(c.fn, c.digits...)
		if c.s == "" {
			if err == nil {
				t.Errorf("SQL(%s) did not fail", c.fn)
			}
		} else if err != nil {
			t.Errorf("SQL(%s) failed with %s", c.fn, err)
		} else if s != c.s {
			t.Errorf("SQL(%s) got %s want %s", c.fn, s, c.s)
		}
	}

	cond := where(t, people, "age", "age == max(age)")
	if s := cond.String(); s != "WHERE (age = 30)" {
		t.Errorf("Where(age == max(age)) got %s", s)
	}
}

func TestColumnEdit(t *testing.T) {
	ctx := context.Background()
	fd, tbls, u := testPeople(t, sql.MySQL)
	age := tbls.Table("people").Column("age")

	ok, err := age.SetDefault(ctx, 5)
	if err != nil {
		t.Fatalf("SetDefault() failed with %s", err)
	} else if !ok {
		t.Fatal("SetDefault() returned false")
	}
	if last := fd.Last(); last.Command != driver.AlterColumnCommand ||
		last.Text != "age INT NULL DEFAULT 5" {
		t.Errorf("SetDefault() got %s", last)
	}
	if def, err := age.Default(ctx); err != nil || !sql.Equal(def, sql.Float64Value(5)) {
		t.Errorf("Default() got %v, %v want 5", def, err)
	}

	_, err = age.SetRequired(ctx, true)
	if err != nil {
		t.Fatalf("SetRequired() failed with %s", err)
	}
	if last := fd.Last(); last.Text != "age INT NOT NULL DEFAULT 5" {
		t.Errorf("SetRequired() got %s", last)
	}

	_, err = age.SetType(ctx, "BIGINT")
	if err != nil {
		t.Fatalf("SetType() failed with %s", err)
	}
	if last := fd.Last(); last.Text != "age BIGINT NOT NULL DEFAULT 5" {
		t.Errorf("SetType() got %s", last)
	}
	if _, err := age.SetType(ctx, " "); err == nil {
		t.Error("SetType() without a type did not fail")
	}
	if *u != 3 {
		t.Errorf("upgraded %d times want 3", *u)
	}
}

func TestClearing(t *testing.T) {
	ctx := context.Background()
	fd, tbls, _ := testPeople(t, sql.SQLite)
	people := tbls.Table("people")

	ok, err := people.Column("name").Clearing(ctx)
	if err != nil {
		t.Fatalf("Clearing() failed with %s", err)
	} else if !ok {
		t.Fatal("Clearing() returned false")
	}
	var update testutil.Call
	for _, c := range fd.Calls {
		if c.Command == driver.UpdateCommand {
			update = c
		}
	}
	if update.Text != "name = NULL" {
		t.Errorf("Clearing() got %s", update)
	}
	if vals := people.Column("name").Values(); len(vals) != 0 {
		t.Errorf("Clearing() left %v", vals)
	}
	if people.Count() != 3 {
		t.Errorf("Clearing() got %d rows want 3", people.Count())
	}

	if _, err := people.Column("id").Clearing(ctx); err == nil {
		t.Error("Clearing(id) did not fail")
	}
}

func testPets(t *testing.T, d sql.Dialect) (*testutil.Driver, *mirror.Tables) {
	t.Helper()

	fd := testutil.NewDriver(d)
	fd.AddTable("owners",
		[]driver.Field{
			{Name: "id", Type: "INT", NotNull: true, Primary: true},
			{Name: "name", Type: "TEXT"},
		},
		row(1, "ann"), row(2, "bob"))
	fd.AddTable("pets",
		[]driver.Field{
			{Name: "id", Type: "INT", NotNull: true, Primary: true},
			{Name: "name", Type: "TEXT"},
			{Name: "owner", Type: "INT"},
		},
		row(1, "rex", 1), row(2, "tom", 2), row(3, "fluffy", 1), row(4, "stray", nil))
	tbls, err := mirror.NewTables(context.Background(), "test", fd, snapshot(fd), nil)
	if err != nil {
		t.Fatalf("NewTables() failed with %s", err)
	}
	fd.Reset()
	return fd, tbls
}

func TestForeign(t *testing.T) {
	ctx := context.Background()
	fd, tbls := testPets(t, sql.MySQL)
	owners := tbls.Table("owners")
	owner := tbls.Table("pets").Column("owner")

	ok, err := owner.SetForeign(ctx, "fk_owner", owners)
	if err != nil {
		t.Fatalf("SetForeign() failed with %s", err)
	} else if !ok {
		t.Fatal("SetForeign() returned false")
	}
	s := "CONSTRAINT fk_owner FOREIGN KEY (owner) REFERENCES owners (id)"
	if last := fd.Last(); last.Command != driver.CreateForeignCommand || last.Text != s {
		t.Errorf("SetForeign() got %s want %s", last, s)
	}

	if _, err := owner.SetForeign(ctx, "fk_owner", owners); err == nil {
		t.Error("SetForeign(fk_owner) twice did not fail")
	}
	if _, err := owner.SetForeign(ctx, "fk_other", nil); err == nil {
		t.Error("SetForeign(nil) did not fail")
	}

	m, err := owner.Foreign(ctx)
	if err != nil {
		t.Fatalf("Foreign() failed with %s", err)
	}
	f, ok := m["fk_owner"]
	if !ok || len(m) != 1 {
		t.Fatalf("Foreign() got %v", m)
	}
	cols := []string{"id_x", "name_x", "owner", "id_y", "name_y"}
	if !testutil.DeepEqual(f.Columns, cols) {
		t.Errorf("Foreign() got columns %v want %v", f.Columns, cols)
	}
	if vals := columnValues(t, f, "name_y"); !testutil.DeepEqual(vals, row("ann", "bob", "ann")) {
		t.Errorf("Foreign() got owners %v", vals)
	}
	if vals := columnValues(t, f, "name_x"); !testutil.DeepEqual(vals,
		row("rex", "tom", "fluffy")) {

		t.Errorf("Foreign() got pets %v", vals)
	}

	m, err = tbls.Table("pets").Column("name").Foreign(ctx)
	if err != nil || len(m) != 0 {
		t.Errorf("Foreign(name) got %v, %v", m, err)
	}
}

func TestForeignSQLite(t *testing.T) {
	ctx := context.Background()
	fd, tbls := testPets(t, sql.SQLite)

	ok, err := tbls.Table("pets").Column("owner").SetForeign(ctx, "fk_owner",
		tbls.Table("owners"))
	if err != nil || ok {
		t.Errorf("SetForeign() got %v, %v want false, nil", ok, err)
	}
	if len(fd.Calls) != 0 {
		t.Errorf("SetForeign() called the driver: %v", fd.Calls)
	}
}
