package condition

import (
	"fmt"
	"strings"

	"github.com/leftmike/sqlmirror/sql"
)

type Expr interface {
	fmt.Stringer
}

type Op int

const (
	AddOp Op = iota
	AndOp
	DivideOp
	EqualOp
	GreaterEqualOp
	GreaterThanOp
	InOp
	IsNotOp
	IsOp
	LessEqualOp
	LessThanOp
	LikeOp
	ModuloOp
	MultiplyOp
	NegateOp
	NotEqualOp
	NotInOp
	NotLikeOp
	NotOp
	OrOp
	PowerOp
	SubtractOp
)

var ops = [...]struct {
	name       string
	precedence int
}{
	AddOp:          {"+", 7},
	AndOp:          {"and", 2},
	DivideOp:       {"/", 8},
	EqualOp:        {"==", 4},
	GreaterEqualOp: {">=", 5},
	GreaterThanOp:  {">", 5},
	InOp:           {"in", 4},
	IsNotOp:        {"is not", 4},
	IsOp:           {"is", 4},
	LessEqualOp:    {"<=", 5},
	LessThanOp:     {"<", 5},
	LikeOp:         {"like", 4},
	ModuloOp:       {"%", 8},
	MultiplyOp:     {"*", 8},
	NegateOp:       {"-", 9},
	NotEqualOp:     {"!=", 4},
	NotInOp:        {"not in", 4},
	NotLikeOp:      {"not like", 4},
	NotOp:          {"not", 3},
	OrOp:           {"or", 1},
	PowerOp:        {"**", 10},
	SubtractOp:     {"-", 7},
}

func (op Op) Precedence() int {
	return ops[op].precedence
}

func (op Op) String() string {
	return ops[op].name
}

type Literal struct {
	Value sql.Value
}

func (l *Literal) String() string {
	if l.Value == nil {
		return "nil"
	}
	return l.Value.String()
}

// Ref is a column reference, optionally qualified by a table.
type Ref struct {
	Table  string
	Column string
}

func (r *Ref) String() string {
	if r.Table != "" {
		return r.Table + "." + r.Column
	}
	return r.Column
}

type List struct {
	Exprs []Expr
}

func (l *List) String() string {
	s := make([]string, 0, len(l.Exprs))
	for _, e := range l.Exprs {
		s = append(s, e.String())
	}
	return "[" + strings.Join(s, ", ") + "]"
}

type Unary struct {
	Op   Op
	Expr Expr
}

func (u *Unary) String() string {
	if u.Op == NotOp {
		return fmt.Sprintf("(not %s)", u.Expr)
	}
	return fmt.Sprintf("(%s%s)", ops[u.Op].name, u.Expr)
}

type Binary struct {
	Op    Op
	Left  Expr
	Right Expr
}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, ops[b.Op].name, b.Right)
}

type Call struct {
	Name string
	Args []Expr
}

func (c *Call) String() string {
	s := make([]string, 0, len(c.Args))
	for _, a := range c.Args {
		s = append(s, a.String())
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(s, ", "))
}
