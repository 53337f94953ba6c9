package mirror

import (
	"github.com/leftmike/sqlmirror/sql"
)

// Database is the mirrors of the databases reached through one method, such as mysql, by
// name and in the order they were added.
type Database struct {
	method sql.Dialect
	names  []string
	dbs    map[string]*Tables
}

func NewDatabase(method sql.Dialect) *Database {
	return &Database{
		method: method,
		dbs:    map[string]*Tables{},
	}
}

func (db *Database) Method() sql.Dialect {
	return db.method
}

func (db *Database) Add(tbls *Tables) error {
	if err := sql.CheckIdentifier("database", tbls.name); err != nil {
		return err
	}
	if _, ok := db.dbs[tbls.name]; ok {
		return sql.Errorf("database %s already exists", tbls.name)
	}
	db.dbs[tbls.name] = tbls
	db.names = append(db.names, tbls.name)
	return nil
}

// Get returns the named database or nil.
func (db *Database) Get(name string) *Tables {
	return db.dbs[name]
}

func (db *Database) Names() []string {
	return append([]string(nil), db.names...)
}

// Remove forgets the named database; the connection to it is closed.
func (db *Database) Remove(name string) (bool, error) {
	tbls, ok := db.dbs[name]
	if !ok {
		return false, nil
	}
	delete(db.dbs, name)
	for ndx, n := range db.names {
		if n == name {
			db.names = append(db.names[:ndx], db.names[ndx+1:]...)
			break
		}
	}
	return true, tbls.Close()
}

// Close closes the connections to every database.
func (db *Database) Close() error {
	var err error
	for _, n := range db.names {
		if cerr := db.dbs[n].Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
