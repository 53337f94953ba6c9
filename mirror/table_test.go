package mirror_test

import (
	"context"
	"testing"

	"github.com/leftmike/sqlmirror/condition"
	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/mirror"
	"github.com/leftmike/sqlmirror/sql"
	"github.com/leftmike/sqlmirror/testutil"
)

func snapshot(fd *testutil.Driver) mirror.Snapshot {
	snap := mirror.Snapshot{Frames: map[string]*frame.Frame{}}
	for _, n := range fd.Order {
		tbl := fd.Tables[n]
		var cols []string
		for _, fld := range tbl.Fields {
			cols = append(cols, fld.Name)
		}
		if len(tbl.Rows) == 0 {
			snap.Frames[n] = mirror.Placeholder(cols)
		} else {
			f := frame.New(cols)
			for rdx, r := range tbl.Rows {
				f.Append(int64(rdx), append([]sql.Value(nil), r...))
			}
			snap.Frames[n] = f
		}
		snap.Tables = append(snap.Tables, n)
	}
	return snap
}

var peopleFields = []driver.Field{
	{Name: "id", Type: "INT", NotNull: true, Primary: true},
	{Name: "name", Type: "VARCHAR(32)"},
	{Name: "age", Type: "INT"},
}

func row(vals ...interface{}) []sql.Value {
	r := make([]sql.Value, 0, len(vals))
	for _, v := range vals {
		sv, err := sql.ValueOf(v)
		if err != nil {
			panic(err)
		}
		r = append(r, sv)
	}
	return r
}

type upgrades int

func (u *upgrades) upgrade(ctx context.Context) error {
	*u += 1
	return nil
}

func testPeople(t *testing.T, d sql.Dialect) (*testutil.Driver, *mirror.Tables, *upgrades) {
	t.Helper()

	fd := testutil.NewDriver(d)
	fd.AddTable("people", peopleFields, row(1, "ann", 10), row(2, "bob", 20), row(3, "cat", 30))
	var u upgrades
	tbls, err := mirror.NewTables(context.Background(), "test", fd, snapshot(fd), u.upgrade)
	if err != nil {
		t.Fatalf("NewTables() failed with %s", err)
	}
	fd.Reset()
	return fd, tbls, &u
}

func where(t *testing.T, tbl *mirror.Table, key, params string) *condition.Condition {
	t.Helper()

	cond := condition.New(tbl)
	err := cond.Where([]condition.Item{
		{
			Key: key,
			Build: func(col condition.Column) (condition.Clause, error) {
				return condition.NewWhere(col, params, nil, false)
			},
		},
	})
	if err != nil {
		t.Fatalf("Where(%s) failed with %s", params, err)
	}
	return cond
}

func columnValues(t *testing.T, f *frame.Frame, col string) []sql.Value {
	t.Helper()

	vals, err := f.Column(col)
	if err != nil {
		t.Fatalf("Column(%s) failed with %s", col, err)
	}
	return vals
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	fd, tbls, _ := testPeople(t, sql.SQLite)
	people := tbls.Table("people")
	if people == nil {
		t.Fatal("Table(people) returned nil")
	}

	cond := where(t, people, "age", "age > 18")
	f, err := people.Get(ctx, mirror.GetOptions{Condition: cond})
	if err != nil {
		t.Fatalf("Get() failed with %s", err)
	}
	if idxs := f.Indexes(); !testutil.DeepEqual(idxs, []int64{1, 2}) {
		t.Errorf("Get(age > 18) got indexes %v want [1 2]", idxs)
	}
	if vals := columnValues(t, f, "name"); !testutil.DeepEqual(vals, row("bob", "cat")) {
		t.Errorf("Get(age > 18) got %v", vals)
	}
	if len(fd.Calls) != 0 {
		t.Errorf("Get() called the driver: %v", fd.Calls)
	}

	f, err = people.Get(ctx, mirror.GetOptions{Columns: []string{"name"}, Condition: cond})
	if err != nil {
		t.Fatalf("Get(name) failed with %s", err)
	}
	if len(f.Columns) != 1 || f.Len() != 2 {
		t.Errorf("Get(name) got %v %v", f.Columns, f.Rows)
	}

	_, err = people.Get(ctx, mirror.GetOptions{Condition: cond, SQL: true})
	if err != nil {
		t.Fatalf("Get(SQL) failed with %s", err)
	}
	last := fd.Last()
	if last.Command != driver.SelectCommand || last.Text != "WHERE (age > 18)" {
		t.Errorf("Get(SQL) got %s", last)
	}

	_, err = people.Get(ctx, mirror.GetOptions{Columns: []string{"email"}})
	if err == nil {
		t.Error("Get(email) did not fail")
	}

	f, err = people.Get(ctx, mirror.GetOptions{Columns: []string{"age"}, Distinct: true})
	if err != nil {
		t.Fatalf("Get(distinct) failed with %s", err)
	} else if f.Len() != 3 {
		t.Errorf("Get(distinct) got %d rows want 3", f.Len())
	}
}

func TestGetAggregate(t *testing.T) {
	ctx := context.Background()
	_, tbls, _ := testPeople(t, sql.SQLite)
	people := tbls.Table("people")

	f, err := people.Get(ctx,
		mirror.GetOptions{Condition: where(t, people, "age", "age == max(age)")})
	if err != nil {
		t.Fatalf("Get(max) failed with %s", err)
	}
	if vals := columnValues(t, f, "name"); !testutil.DeepEqual(vals, row("cat")) {
		t.Errorf("Get(age == max(age)) got %v", vals)
	}
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	fd, tbls, u := testPeople(t, sql.SQLite)
	people := tbls.Table("people")

	ok, err := people.Add(ctx, [][]sql.Value{row("dan", 40)}, []string{"name", "age"})
	if err != nil {
		t.Fatalf("Add() failed with %s", err)
	} else if !ok {
		t.Fatal("Add() returned false")
	}
	if people.Count() != 4 {
		t.Errorf("Count() got %d want 4", people.Count())
	}
	f, _ := people.Get(ctx, mirror.GetOptions{})
	if vals := columnValues(t, f, "id"); !testutil.DeepEqual(vals, row(1, 2, 3, 4)) {
		t.Errorf("Add() ids got %v", vals)
	}
	if idxs := f.Indexes(); !testutil.DeepEqual(idxs, []int64{0, 1, 2, 3}) {
		t.Errorf("Add() indexes got %v", idxs)
	}
	if *u != 1 {
		t.Errorf("Add() upgraded %d times want 1", *u)
	}
	if last := fd.Last(); last.Command != driver.InsertCommand || last.Text != "id, name, age" {
		t.Errorf("Add() got %s", last)
	}
	if n := len(fd.Tables["people"].Rows); n != 4 {
		t.Errorf("Add() inserted %d rows want 4", n)
	}

	ok, err = people.Add(ctx, [][]sql.Value{row(nil, "eve", 50), row(nil, "fay", 60)},
		[]string{"id", "name", "age"})
	if err != nil {
		t.Fatalf("Add(batch) failed with %s", err)
	} else if !ok {
		t.Fatal("Add(batch) returned false")
	}
	if max := people.Column("id").Max(nil); !sql.Equal(max, sql.Int64Value(6)) {
		t.Errorf("Add(batch) max id got %v want 6", max)
	}

	ok, err = people.Add(ctx, nil, []string{"name"})
	if err != nil || ok {
		t.Errorf("Add(no rows) got %v, %v want false, nil", ok, err)
	}

	fd.Reset()
	cases := []struct {
		rows [][]sql.Value
		cols []string
	}{
		{rows: [][]sql.Value{row("x")}, cols: []string{"email"}},
		{rows: [][]sql.Value{row("x", 1)}, cols: []string{"name"}},
		{rows: [][]sql.Value{row("x", "y")}, cols: []string{"name", "name"}},
	}
	for _, c := range cases {
		_, err := people.Add(ctx, c.rows, c.cols)
		if err == nil {
			t.Errorf("Add(%v, %v) did not fail", c.rows, c.cols)
		}
	}
	for _, c := range fd.Calls {
		if c.Command == driver.InsertCommand {
			t.Errorf("Add() failed but called %s", c)
		}
	}
}

func TestAddRequired(t *testing.T) {
	ctx := context.Background()
	fd := testutil.NewDriver(sql.SQLite)
	fd.AddTable("people",
		[]driver.Field{
			{Name: "id", Type: "INT", NotNull: true, Primary: true},
			{Name: "name", Type: "TEXT", NotNull: true},
			{Name: "age", Type: "INT", Default: strPtr("18")},
		})
	tbls, err := mirror.NewTables(ctx, "test", fd, snapshot(fd), nil)
	if err != nil {
		t.Fatalf("NewTables() failed with %s", err)
	}
	people := tbls.Table("people")
	if !people.IsEmpty() || !people.IsColumn("id", "name", "age") {
		t.Fatalf("placeholder row: got %d rows and columns %v", people.Count(),
			people.Columns())
	}

	_, err = people.Add(ctx, [][]sql.Value{row(20)}, []string{"age"})
	if err == nil {
		t.Error("Add() without a required column did not fail")
	}

	_, err = people.Add(ctx, [][]sql.Value{row("ann")}, []string{"name"})
	if err != nil {
		t.Fatalf("Add() failed with %s", err)
	}
	f, _ := people.Get(ctx, mirror.GetOptions{})
	if len(f.Rows) != 1 || !testutil.DeepEqual(f.Rows[0].Values, row(1, "ann", 18.0)) {
		t.Errorf("Add() got %v", f.Rows)
	}

	req, err := people.RequiredColumns(ctx)
	if err != nil {
		t.Fatalf("RequiredColumns() failed with %s", err)
	} else if !testutil.DeepEqual(req, []string{"id", "name"}) {
		t.Errorf("RequiredColumns() got %v", req)
	}
}

func strPtr(s string) *string {
	return &s
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	fd, tbls, u := testPeople(t, sql.SQLite)
	people := tbls.Table("people")

	ok, err := people.Update(ctx,
		map[string]sql.Value{"age": sql.Int64Value(21), "email": sql.StringValue("x")},
		where(t, people, "name", `name == "bob"`))
	if err != nil {
		t.Fatalf("Update() failed with %s", err)
	} else if !ok {
		t.Fatal("Update() returned false")
	}
	if last := fd.Last(); last.Command != driver.UpdateCommand ||
		last.Text != "age = 21 WHERE (name = 'bob')" {
		t.Errorf("Update() got %s", last)
	}
	f, _ := people.Get(ctx, mirror.GetOptions{})
	if vals := columnValues(t, f, "age"); !testutil.DeepEqual(vals, row(10, 21, 30)) {
		t.Errorf("Update() got %v", vals)
	}
	if *u != 1 {
		t.Errorf("Update() upgraded %d times want 1", *u)
	}

	ok, err = people.Update(ctx, map[string]sql.Value{"email": sql.StringValue("x")}, nil)
	if err != nil || ok {
		t.Errorf("Update(email) got %v, %v want false, nil", ok, err)
	}

	ob, err := condition.NewOrderBy("age", false)
	if err != nil {
		t.Fatalf("NewOrderBy() failed with %s", err)
	}
	cond := condition.New(people)
	if err := cond.OrderBy(ob); err != nil {
		t.Fatalf("OrderBy() failed with %s", err)
	}
	fd.Reset()
	_, err = people.Update(ctx, map[string]sql.Value{"age": sql.Int64Value(1)}, cond)
	if err == nil {
		t.Error("Update(order by) did not fail")
	}
	if len(fd.Calls) != 0 {
		t.Errorf("Update(order by) called the driver: %v", fd.Calls)
	}

	_, err = people.Update(ctx, map[string]sql.Value{"age": sql.Int64Value(1)}, nil)
	if err != nil {
		t.Fatalf("Update(all) failed with %s", err)
	}
	if vals := people.Column("age").Values(); !testutil.DeepEqual(vals, row(1, 1, 1)) {
		t.Errorf("Update(all) got %v", vals)
	}
}

func TestAbsentRows(t *testing.T) {
	ctx := context.Background()
	_, tbls, _ := testPeople(t, sql.SQLite)
	people := tbls.Table("people")

	_, err := people.Update(ctx,
		map[string]sql.Value{"id": sql.Absent, "name": sql.Absent, "age": sql.Absent},
		where(t, people, "id", "id == 2"))
	if err != nil {
		t.Fatalf("Update() failed with %s", err)
	}
	if people.Count() != 2 {
		t.Errorf("Count() got %d want 2", people.Count())
	}
	f, _ := people.Get(ctx, mirror.GetOptions{})
	if idxs := f.Indexes(); !testutil.DeepEqual(idxs, []int64{0, 2}) {
		t.Errorf("Get() got indexes %v want [0 2]", idxs)
	}

	_, err = people.Update(ctx, map[string]sql.Value{"name": sql.Absent},
		where(t, people, "id", "id == 3"))
	if err != nil {
		t.Fatalf("Update() failed with %s", err)
	}
	if people.Count() != 2 {
		t.Errorf("Count() got %d want 2", people.Count())
	}
	if vals := people.Column("name").Values(); !testutil.DeepEqual(vals, row("ann")) {
		t.Errorf("Column(name) got %v", vals)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	fd, tbls, u := testPeople(t, sql.SQLite)
	people := tbls.Table("people")

	ok, err := people.Delete(ctx, where(t, people, "age", "age < 25"))
	if err != nil {
		t.Fatalf("Delete() failed with %s", err)
	} else if !ok {
		t.Fatal("Delete() returned false")
	}
	if last := fd.Last(); last.Command != driver.DeleteCommand ||
		last.Text != "WHERE (age < 25)" {
		t.Errorf("Delete() got %s", last)
	}
	if vals := people.Column("name").Values(); !testutil.DeepEqual(vals, row("cat")) {
		t.Errorf("Delete() left %v", vals)
	}

	_, err = people.Delete(ctx, nil)
	if err != nil {
		t.Fatalf("Delete(all) failed with %s", err)
	}
	if !people.IsEmpty() || !people.IsColumn("id", "name", "age") {
		t.Errorf("Delete(all) left %d rows and columns %v", people.Count(), people.Columns())
	}
	if *u != 2 {
		t.Errorf("Delete() upgraded %d times want 2", *u)
	}
}

func TestColumnLifecycle(t *testing.T) {
	ctx := context.Background()
	fd, tbls, u := testPeople(t, sql.SQLite)
	people := tbls.Table("people")

	ok, err := people.AddColumn(ctx, "email", row("a@x"), "VARCHAR(64)", "DEFAULT 'none'")
	if err != nil {
		t.Fatalf("AddColumn() failed with %s", err)
	} else if !ok {
		t.Fatal("AddColumn() returned false")
	}
	if last := fd.Last(); last.Command != driver.AddColumnCommand ||
		last.Text != "email VARCHAR(64) DEFAULT 'none'" {
		t.Errorf("AddColumn() got %s", last)
	}
	want := row("a@x", "none", "none")
	if vals := people.Column("email").Values(); !testutil.DeepEqual(vals, want) {
		t.Errorf("AddColumn() got %v want %v", vals, want)
	}

	fd.Reset()
	cases := []struct {
		col  string
		vals []sql.Value
		spec []string
	}{
		{col: "email", spec: []string{"TEXT"}},
		{col: "1bad", spec: []string{"TEXT"}},
		{col: "other"},
		{col: "other", vals: row(1, 2, 3, 4), spec: []string{"INT"}},
		{col: "other", spec: []string{"INT NOT NULL"}},
	}
	for _, c := range cases {
		_, err := people.AddColumn(ctx, c.col, c.vals, c.spec...)
		if err == nil {
			t.Errorf("AddColumn(%s, %v, %v) did not fail", c.col, c.vals, c.spec)
		}
	}
	if len(fd.Calls) != 0 {
		t.Errorf("AddColumn() failed but called the driver: %v", fd.Calls)
	}

	ok, err = people.RenameColumn(ctx, "email", "mail")
	if err != nil {
		t.Fatalf("RenameColumn() failed with %s", err)
	} else if !ok {
		t.Fatal("RenameColumn() returned false")
	}
	if people.IsColumn("email") || !people.IsColumn("mail") {
		t.Errorf("RenameColumn() got columns %v", people.Columns())
	}
	for _, c := range [][2]string{{"email", "x"}, {"mail", "name"}, {"mail", "bad-name"}} {
		if _, err := people.RenameColumn(ctx, c[0], c[1]); err == nil {
			t.Errorf("RenameColumn(%s, %s) did not fail", c[0], c[1])
		}
	}

	ok, err = people.RemoveColumn(ctx, "mail")
	if err != nil {
		t.Fatalf("RemoveColumn() failed with %s", err)
	} else if !ok {
		t.Fatal("RemoveColumn() returned false")
	}
	if !testutil.DeepEqual(people.Columns(), []string{"id", "name", "age"}) {
		t.Errorf("RemoveColumn() got columns %v", people.Columns())
	}
	f, _ := people.Get(ctx, mirror.GetOptions{})
	if len(f.Rows[0].Values) != 3 {
		t.Errorf("RemoveColumn() got row %v", f.Rows[0])
	}
	if _, err := people.RemoveColumn(ctx, "mail"); err == nil {
		t.Error("RemoveColumn(mail) did not fail")
	}

	ok, err = people.EditColumn(ctx, "age", "BIGINT", "NOT NULL")
	if err != nil {
		t.Fatalf("EditColumn() failed with %s", err)
	} else if !ok {
		t.Fatal("EditColumn() returned false")
	}
	if last := fd.Last(); last.Command != driver.AlterColumnCommand ||
		last.Text != "age BIGINT NOT NULL" {
		t.Errorf("EditColumn() got %s", last)
	}
	if _, err := people.EditColumn(ctx, "age"); err == nil {
		t.Error("EditColumn(age) without changes did not fail")
	}
	if *u != 4 {
		t.Errorf("upgraded %d times want 4", *u)
	}
}

func TestTypes(t *testing.T) {
	ctx := context.Background()
	_, tbls, _ := testPeople(t, sql.SQLite)
	people := tbls.Table("people")

	types, err := people.Types(ctx)
	if err != nil {
		t.Fatalf("Types() failed with %s", err)
	}
	if len(types) != 3 || !types["id"].Primary || types["name"].Required ||
		types["age"].Number != 3 {
		t.Errorf("Types() got %+v", types)
	}

	pks, err := people.PrimaryKeys(ctx)
	if err != nil {
		t.Fatalf("PrimaryKeys() failed with %s", err)
	} else if !testutil.DeepEqual(pks, []string{"id"}) {
		t.Errorf("PrimaryKeys() got %v", pks)
	}

	id := people.Column("id")
	if p, err := id.IsPrimary(ctx); err != nil || !p {
		t.Errorf("IsPrimary() got %v, %v", p, err)
	}
	if n, err := id.Number(ctx); err != nil || n != 1 {
		t.Errorf("Number() got %d, %v", n, err)
	}
	if typ, err := people.Column("name").Type(ctx); err != nil || typ != "VARCHAR(32)" {
		t.Errorf("Type() got %s, %v", typ, err)
	}
}

func TestIndexes(t *testing.T) {
	ctx := context.Background()
	fd, tbls, u := testPeople(t, sql.SQLite)
	people := tbls.Table("people")
	fd.Indexes["people"] = []driver.Index{{Name: "people_age", Columns: []string{"age"}}}

	idxs, err := people.Indexes(ctx)
	if err != nil {
		t.Fatalf("Indexes() failed with %s", err)
	} else if len(idxs) != 1 {
		t.Errorf("Indexes() got %v", idxs)
	}

	ok, err := people.DropIndex(ctx, "people_age")
	if err != nil || !ok {
		t.Errorf("DropIndex() got %v, %v", ok, err)
	}
	if _, err := people.DropIndex(ctx, "bad name"); err == nil {
		t.Error("DropIndex(bad name) did not fail")
	}
	if _, err := people.SetIndex(ctx, nil); err == nil {
		t.Error("SetIndex(nil) did not fail")
	}
	if *u != 1 {
		t.Errorf("upgraded %d times want 1", *u)
	}

	fd.Fail[driver.DropIndexCommand] = sql.Errorf("no such index")
	if _, err := people.DropIndex(ctx, "people_name"); err == nil {
		t.Error("DropIndex() did not return the driver error")
	}
}

func TestCommit(t *testing.T) {
	ctx := context.Background()
	fd, tbls, _ := testPeople(t, sql.SQLite)
	people := tbls.Table("people")

	if err := people.Commit(ctx); err != nil {
		t.Errorf("Commit() failed with %s", err)
	}
	if err := people.Rollback(); err != nil {
		t.Errorf("Rollback() failed with %s", err)
	}
	cmds := fd.Commands()
	if !testutil.DeepEqual(cmds, []driver.Command{driver.CommitCommand, driver.RollbackCommand}) {
		t.Errorf("got commands %v", cmds)
	}
}
