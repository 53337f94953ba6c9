package schema

import (
	"fmt"
	"math"

	"github.com/leftmike/sqlmirror/sql"
)

// DataTypes spells column types and constraints for one dialect. A method returns "" when the
// dialect does not have the type or a size is out of range.
type DataTypes struct {
	Dialect sql.Dialect
}

func (dt DataTypes) is(ds ...sql.Dialect) bool {
	for _, d := range ds {
		if dt.Dialect == d {
			return true
		}
	}
	return false
}

// sized returns typ when no size is given, or typ(n) when the size n is within (-lim, lim).
// A size of zero is a size: SMALLINT(0).
func sized(typ string, lim float64, size []int64) string {
	if len(size) == 0 {
		return typ
	}
	n := size[0]
	if len(size) > 1 || float64(n) <= -lim || float64(n) >= lim {
		return ""
	}
	return fmt.Sprintf("%s(%d)", typ, n)
}

func (dt DataTypes) Bool() string {
	switch dt.Dialect {
	case sql.MySQL:
		return "TINYINT(1)"
	case sql.SQLite, sql.PostgreSQL:
		return "BOOLEAN"
	case sql.SQLServer:
		return "BIT(1)"
	}
	return ""
}

func (dt DataTypes) Serial() string {
	if dt.is(sql.PostgreSQL) {
		return "SERIAL"
	}
	return ""
}

func (dt DataTypes) SmallSerial() string {
	if dt.is(sql.PostgreSQL) {
		return "SMALLSERIAL"
	}
	return ""
}

func (dt DataTypes) BigSerial() string {
	if dt.is(sql.PostgreSQL) {
		return "BIGSERIAL"
	}
	return ""
}

func (dt DataTypes) Integer(n ...int64) string {
	if dt.is(sql.SQLite, sql.PostgreSQL) {
		return sized("INTEGER", math.MaxInt32+1, n)
	}
	return ""
}

func (dt DataTypes) Int(n ...int64) string {
	if dt.is(sql.MySQL, sql.SQLite, sql.SQLServer) {
		return sized("INT", math.MaxInt32+1, n)
	}
	return ""
}

func (dt DataTypes) TinyInt(n ...int64) string {
	if dt.is(sql.MySQL, sql.SQLServer) {
		return sized("TINYINT", 128, n)
	}
	return ""
}

func (dt DataTypes) Bit(n ...int64) string {
	if dt.is(sql.MySQL) {
		return sized("BIT", 128, n)
	}
	return ""
}

func (dt DataTypes) SmallInt(n ...int64) string {
	if dt.is(sql.MySQL, sql.SQLServer, sql.PostgreSQL) {
		return sized("SMALLINT", 32768, n)
	}
	return ""
}

func (dt DataTypes) MediumInt(n ...int64) string {
	if dt.is(sql.MySQL) {
		return sized("MEDIUMINT", 32768, n)
	}
	return ""
}

func (dt DataTypes) BigInt(n ...int64) string {
	if dt.is(sql.MySQL, sql.SQLServer, sql.PostgreSQL) {
		return sized("BIGINT", math.Inf(1), n)
	}
	return ""
}

func (dt DataTypes) Numeric(precision, scale int) string {
	if dt.is(sql.PostgreSQL) {
		return fmt.Sprintf("NUMERIC(%d,%d)", precision, scale)
	}
	return ""
}

func (dt DataTypes) Float() string {
	switch dt.Dialect {
	case sql.MySQL:
		return "FLOAT"
	case sql.SQLite, sql.PostgreSQL:
		return "REAL"
	}
	return ""
}

func (dt DataTypes) Double() string {
	switch dt.Dialect {
	case sql.MySQL, sql.SQLite:
		return "DOUBLE"
	case sql.PostgreSQL:
		return "DOUBLE PRECISION"
	}
	return ""
}

// Decimal returns DECIMAL, or DECIMAL(precision,scale) when precision is not zero; precision
// must be in 1..65 and scale in 0..precision.
func (dt DataTypes) Decimal(precision, scale int) string {
	if !dt.is(sql.MySQL, sql.SQLite, sql.PostgreSQL) {
		return ""
	}
	if precision == 0 {
		return "DECIMAL"
	}
	if precision < 0 || precision > 65 || scale < 0 || scale > precision {
		return ""
	}
	return fmt.Sprintf("DECIMAL(%d,%d)", precision, scale)
}

func (dt DataTypes) String(n int) string {
	if !dt.is(sql.SQLite) {
		return ""
	}
	if n > 0 {
		return fmt.Sprintf("STRING(%d)", n)
	}
	return "STRING"
}

func (dt DataTypes) Text() string {
	switch dt.Dialect {
	case sql.MySQL, sql.SQLite, sql.PostgreSQL, sql.SQLServer:
		return "TEXT"
	}
	return ""
}

func (dt DataTypes) TinyText() string {
	if dt.is(sql.MySQL) {
		return "TINYTEXT"
	}
	return ""
}

func (dt DataTypes) MediumText() string {
	if dt.is(sql.MySQL) {
		return "MEDIUMTEXT"
	}
	return ""
}

func (dt DataTypes) LongText() string {
	if dt.is(sql.MySQL) {
		return "LONGTEXT"
	}
	return ""
}

func (dt DataTypes) NText() string {
	if dt.is(sql.SQLServer) {
		return "NTEXT"
	}
	return ""
}

func (dt DataTypes) Char(n int) string {
	if n <= 0 {
		return ""
	}
	switch dt.Dialect {
	case sql.MySQL, sql.SQLite, sql.SQLServer:
		return fmt.Sprintf("CHAR(%d)", n)
	case sql.PostgreSQL:
		return fmt.Sprintf("CHARACTER(%d)", n)
	}
	return ""
}

func (dt DataTypes) VarChar(n int) string {
	if n <= 0 {
		return ""
	}
	switch dt.Dialect {
	case sql.MySQL, sql.SQLite, sql.SQLServer:
		return fmt.Sprintf("VARCHAR(%d)", n)
	case sql.PostgreSQL:
		return fmt.Sprintf("CHARACTER VARYING(%d)", n)
	}
	return ""
}

func (dt DataTypes) NChar(n int) string {
	if n > 0 && dt.is(sql.SQLServer, sql.MySQL) {
		return fmt.Sprintf("NCHAR(%d)", n)
	}
	return ""
}

func (dt DataTypes) NVarChar(n int) string {
	if n > 0 && dt.is(sql.SQLServer, sql.MySQL) {
		return fmt.Sprintf("NVARCHAR(%d)", n)
	}
	return ""
}

func (dt DataTypes) JSON() string {
	if dt.is(sql.MySQL, sql.PostgreSQL) {
		return "JSON"
	}
	return ""
}

func (dt DataTypes) Date() string {
	if dt.is(sql.MySQL, sql.SQLite, sql.PostgreSQL, sql.SQLServer) {
		return "DATE"
	}
	return ""
}

func (dt DataTypes) Time() string {
	if dt.is(sql.MySQL, sql.SQLite, sql.PostgreSQL, sql.SQLServer) {
		return "TIME"
	}
	return ""
}

func (dt DataTypes) DateTime() string {
	if dt.is(sql.MySQL, sql.SQLite, sql.SQLServer) {
		return "DATETIME"
	}
	return ""
}

func (dt DataTypes) Timestamp() string {
	if dt.is(sql.MySQL, sql.PostgreSQL) {
		return "TIMESTAMP"
	}
	return ""
}

func (dt DataTypes) Year() string {
	if dt.is(sql.MySQL) {
		return "YEAR"
	}
	return ""
}

func (dt DataTypes) Interval() string {
	if dt.is(sql.PostgreSQL) {
		return "INTERVAL"
	}
	return ""
}

func (dt DataTypes) TinyBlob() string {
	if dt.is(sql.MySQL, sql.SQLite) {
		return "TINYBLOB"
	}
	return ""
}

func (dt DataTypes) Blob() string {
	if dt.is(sql.MySQL, sql.SQLite) {
		return "BLOB"
	}
	return ""
}

func (dt DataTypes) MediumBlob() string {
	if dt.is(sql.MySQL, sql.SQLite) {
		return "MEDIUMBLOB"
	}
	return ""
}

func (dt DataTypes) LongBlob() string {
	if dt.is(sql.MySQL, sql.SQLite) {
		return "LONGBLOB"
	}
	return ""
}

func (dt DataTypes) ByteA() string {
	if dt.is(sql.PostgreSQL) {
		return "BYTEA"
	}
	return ""
}

func (dt DataTypes) VarBinary(n int) string {
	if n > 0 && dt.is(sql.SQLServer, sql.MySQL) {
		return fmt.Sprintf("VARBINARY(%d)", n)
	}
	return ""
}

// Enum returns ENUM('a','b',...) for mysql.
func (dt DataTypes) Enum(vals ...string) string {
	if !dt.is(sql.MySQL) || len(vals) == 0 {
		return ""
	}
	return "ENUM(" + quoteList(vals) + ")"
}

func (dt DataTypes) Set(vals ...string) string {
	if !dt.is(sql.MySQL) || len(vals) == 0 {
		return ""
	}
	return "SET(" + quoteList(vals) + ")"
}

func (dt DataTypes) UUID() string {
	switch dt.Dialect {
	case sql.PostgreSQL:
		return "UUID"
	case sql.SQLServer:
		return "UNIQUEIDENTIFIER"
	case sql.MySQL, sql.SQLite:
		return "CHAR(36)"
	}
	return ""
}

func (dt DataTypes) Money() string {
	switch dt.Dialect {
	case sql.PostgreSQL, sql.SQLServer:
		return "MONEY"
	case sql.MySQL, sql.SQLite:
		return "DECIMAL(19,4)"
	}
	return ""
}

func quoteList(vals []string) string {
	var s string
	for vdx, v := range vals {
		if vdx > 0 {
			s += ","
		}
		s += sql.QuoteString(v)
	}
	return s
}
