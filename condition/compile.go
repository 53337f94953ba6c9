package condition

import (
	"fmt"
	"math"
	"strings"

	"github.com/leftmike/sqlmirror/sql"
)

// Evaluator is a compiled expression over a row of a frame. A nil result is SQL unknown.
type Evaluator func(row []sql.Value) (sql.Value, error)

type compileCtx struct {
	cols []string
	col  Column
}

// Compile resolves column references in e against cols and returns a closure evaluating it
// over rows with those columns. Calls whose first argument is col are replaced by the value
// of col's aggregate of the same name.
func Compile(e Expr, cols []string, col Column) (Evaluator, error) {
	cctx := compileCtx{cols: cols, col: col}
	return cctx.compile(e)
}

func (cctx compileCtx) columnIndex(r *Ref) (int, error) {
	for cdx, c := range cctx.cols {
		if c == r.Column {
			return cdx, nil
		}
	}
	if r.Table != "" {
		qn := r.Table + "." + r.Column
		for cdx, c := range cctx.cols {
			if c == qn {
				return cdx, nil
			}
		}
	}
	return -1, fmt.Errorf("condition: column %s not found", r)
}

func (cctx compileCtx) isColumn(e Expr) bool {
	r, ok := e.(*Ref)
	if !ok || cctx.col == nil {
		return false
	}
	return refersTo(r, cctx.col)
}

func refersTo(r *Ref, col Column) bool {
	if r.Table == "" {
		return r.Column == col.Key() || r.Column == col.Name()
	}
	return r.String() == col.Name() || (r.Column == col.Key() && col.Name() == col.Key())
}

func constant(v sql.Value) Evaluator {
	return func(row []sql.Value) (sql.Value, error) {
		return v, nil
	}
}

func (cctx compileCtx) compile(e Expr) (Evaluator, error) {
	switch e := e.(type) {
	case *Literal:
		return constant(e.Value), nil
	case *Ref:
		cdx, err := cctx.columnIndex(e)
		if err != nil {
			return nil, err
		}
		return func(row []sql.Value) (sql.Value, error) {
			return row[cdx], nil
		}, nil
	case *List:
		return nil, fmt.Errorf("condition: unexpected list: %s", e)
	case *Call:
		return cctx.compileCall(e)
	case *Unary:
		a, err := cctx.compile(e.Expr)
		if err != nil {
			return nil, err
		}
		if e.Op == NotOp {
			return func(row []sql.Value) (sql.Value, error) {
				v, err := a(row)
				if err != nil {
					return nil, err
				}
				return not3(v)
			}, nil
		}
		return func(row []sql.Value) (sql.Value, error) {
			v, err := a(row)
			if err != nil || sql.IsEmpty(v) {
				return nil, err
			}
			return arith(SubtractOp, sql.Int64Value(0), v)
		}, nil
	case *Binary:
		return cctx.compileBinary(e)
	}
	panic(fmt.Sprintf("unexpected type for expr: %T: %v", e, e))
}

func (cctx compileCtx) compileBinary(e *Binary) (Evaluator, error) {
	left, err := cctx.compile(e.Left)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case InOp, NotInOp:
		l, ok := e.Right.(*List)
		if !ok {
			return nil, fmt.Errorf("condition: %s: want a list", e)
		}
		var items []Evaluator
		for _, ie := range l.Exprs {
			item, err := cctx.compile(ie)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return func(row []sql.Value) (sql.Value, error) {
			v, err := left(row)
			if err != nil {
				return nil, err
			}
			r, err := in3(v, row, items)
			if err != nil || e.Op == InOp {
				return r, err
			}
			return not3(r)
		}, nil
	case LikeOp, NotLikeOp:
		lit, ok := e.Right.(*Literal)
		if !ok {
			return nil, fmt.Errorf("condition: %s: want a pattern", e)
		}
		s, ok := lit.Value.(sql.StringValue)
		if !ok {
			return nil, fmt.Errorf("condition: %s: want a string pattern", e)
		}
		re, err := LikeRegexp(string(s))
		if err != nil {
			return nil, err
		}
		return func(row []sql.Value) (sql.Value, error) {
			v, err := left(row)
			if err != nil || sql.IsEmpty(v) {
				return nil, err
			}
			return sql.BoolValue(re.MatchString(sql.Text(v)) == (e.Op == LikeOp)), nil
		}, nil
	}

	right, err := cctx.compile(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case AndOp, OrOp:
		return func(row []sql.Value) (sql.Value, error) {
			l, err := left(row)
			if err != nil {
				return nil, err
			}
			r, err := right(row)
			if err != nil {
				return nil, err
			}
			if e.Op == AndOp {
				return and3(l, r)
			}
			return or3(l, r)
		}, nil
	case IsOp, IsNotOp:
		return func(row []sql.Value) (sql.Value, error) {
			l, err := left(row)
			if err != nil {
				return nil, err
			}
			r, err := right(row)
			if err != nil {
				return nil, err
			}
			var is bool
			if sql.IsEmpty(r) {
				is = sql.IsEmpty(l)
			} else if sql.IsEmpty(l) {
				is = false
			} else {
				is = sql.Compare(l, r) == 0
			}
			return sql.BoolValue(is == (e.Op == IsOp)), nil
		}, nil
	case EqualOp, NotEqualOp, LessThanOp, LessEqualOp, GreaterThanOp, GreaterEqualOp:
		return func(row []sql.Value) (sql.Value, error) {
			l, err := left(row)
			if err != nil {
				return nil, err
			}
			r, err := right(row)
			if err != nil {
				return nil, err
			}
			return compare(e.Op, l, r)
		}, nil
	}

	return func(row []sql.Value) (sql.Value, error) {
		l, err := left(row)
		if err != nil {
			return nil, err
		}
		r, err := right(row)
		if err != nil {
			return nil, err
		}
		return arith(e.Op, l, r)
	}, nil
}

func (cctx compileCtx) compileCall(e *Call) (Evaluator, error) {
	if len(e.Args) > 0 && cctx.isColumn(e.Args[0]) {
		args, err := literalArgs(e.Args[1:])
		if err != nil {
			return nil, err
		}
		v, err := cctx.col.Aggregate(e.Name, args...)
		if err != nil {
			return nil, err
		}
		return constant(v), nil
	}

	fn, ok := scalarFuncs[e.Name]
	if !ok {
		return nil, fmt.Errorf("condition: unknown function %s", e.Name)
	}
	if len(e.Args) < fn.min || len(e.Args) > fn.max {
		return nil, fmt.Errorf("condition: %s: wrong number of arguments", e)
	}
	var args []Evaluator
	for _, a := range e.Args {
		ae, err := cctx.compile(a)
		if err != nil {
			return nil, err
		}
		args = append(args, ae)
	}
	return func(row []sql.Value) (sql.Value, error) {
		vals := make([]sql.Value, 0, len(args))
		for _, a := range args {
			v, err := a(row)
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		if sql.IsEmpty(vals[0]) {
			return nil, nil
		}
		return fn.fn(vals)
	}, nil
}

func literalArgs(exprs []Expr) ([]sql.Value, error) {
	var args []sql.Value
	for _, a := range exprs {
		switch a := a.(type) {
		case *Literal:
			args = append(args, a.Value)
		case *Ref:
			args = append(args, sql.StringValue(a.String()))
		default:
			return nil, fmt.Errorf("condition: %s: want a literal argument", a)
		}
	}
	return args, nil
}

var scalarFuncs = map[string]struct {
	min, max int
	fn       func(vals []sql.Value) (sql.Value, error)
}{
	"abs": {1, 1, func(vals []sql.Value) (sql.Value, error) {
		switch v := vals[0].(type) {
		case sql.Int64Value:
			if v < 0 {
				return -v, nil
			}
			return v, nil
		case sql.Float64Value:
			return sql.Float64Value(math.Abs(float64(v))), nil
		}
		return nil, fmt.Errorf("condition: abs: want a number got %v", vals[0])
	}},
	"len":    {1, 1, length},
	"length": {1, 1, length},
	"lower": {1, 1, func(vals []sql.Value) (sql.Value, error) {
		return sql.StringValue(strings.ToLower(sql.Text(vals[0]))), nil
	}},
	"upper": {1, 1, func(vals []sql.Value) (sql.Value, error) {
		return sql.StringValue(strings.ToUpper(sql.Text(vals[0]))), nil
	}},
	"round": {1, 2, func(vals []sql.Value) (sql.Value, error) {
		f, ok := toFloat(vals[0])
		if !ok {
			return nil, fmt.Errorf("condition: round: want a number got %v", vals[0])
		}
		var places int64
		if len(vals) > 1 {
			p, ok := vals[1].(sql.Int64Value)
			if !ok {
				return nil, fmt.Errorf("condition: round: want integer places got %v", vals[1])
			}
			places = int64(p)
		}
		pow := math.Pow(10, float64(places))
		return sql.Float64Value(math.Round(f*pow) / pow), nil
	}},
}

func length(vals []sql.Value) (sql.Value, error) {
	switch v := vals[0].(type) {
	case sql.StringValue:
		return sql.Int64Value(len([]rune(string(v)))), nil
	case sql.BytesValue:
		return sql.Int64Value(len(v)), nil
	}
	return sql.Int64Value(len([]rune(sql.Text(vals[0])))), nil
}

func toFloat(v sql.Value) (float64, bool) {
	switch v := v.(type) {
	case sql.Int64Value:
		return float64(v), true
	case sql.Float64Value:
		return float64(v), true
	}
	return 0, false
}

func isNumber(v sql.Value) bool {
	_, ok := toFloat(v)
	return ok
}

func compare(op Op, l, r sql.Value) (sql.Value, error) {
	if sql.IsEmpty(l) || sql.IsEmpty(r) {
		return nil, nil
	}

	var cmp int
	if isNumber(l) && isNumber(r) {
		cmp = sql.Compare(l, r)
	} else {
		var err error
		cmp, err = l.Compare(r)
		if err != nil {
			if op == EqualOp {
				return sql.BoolValue(false), nil
			} else if op == NotEqualOp {
				return sql.BoolValue(true), nil
			}
			return nil, fmt.Errorf("condition: cannot compare %s and %s", sql.Format(l),
				sql.Format(r))
		}
	}

	var b bool
	switch op {
	case EqualOp:
		b = cmp == 0
	case NotEqualOp:
		b = cmp != 0
	case LessThanOp:
		b = cmp < 0
	case LessEqualOp:
		b = cmp <= 0
	case GreaterThanOp:
		b = cmp > 0
	case GreaterEqualOp:
		b = cmp >= 0
	}
	return sql.BoolValue(b), nil
}

func arith(op Op, l, r sql.Value) (sql.Value, error) {
	if sql.IsEmpty(l) || sql.IsEmpty(r) {
		return nil, nil
	}

	if ls, ok := l.(sql.StringValue); ok && op == AddOp {
		if rs, ok := r.(sql.StringValue); ok {
			return ls + rs, nil
		}
	}

	li, lint := l.(sql.Int64Value)
	ri, rint := r.(sql.Int64Value)
	if lint && rint {
		switch op {
		case AddOp:
			return li + ri, nil
		case SubtractOp:
			return li - ri, nil
		case MultiplyOp:
			return li * ri, nil
		case ModuloOp:
			if ri == 0 {
				return nil, fmt.Errorf("condition: modulo by zero")
			}
			return li % ri, nil
		}
	}

	lf, ok := toFloat(l)
	if !ok {
		return nil, fmt.Errorf("condition: %s: want a number got %s", op, sql.Format(l))
	}
	rf, ok := toFloat(r)
	if !ok {
		return nil, fmt.Errorf("condition: %s: want a number got %s", op, sql.Format(r))
	}
	switch op {
	case AddOp:
		return sql.Float64Value(lf + rf), nil
	case SubtractOp:
		return sql.Float64Value(lf - rf), nil
	case MultiplyOp:
		return sql.Float64Value(lf * rf), nil
	case DivideOp:
		if rf == 0 {
			return nil, fmt.Errorf("condition: division by zero")
		}
		return sql.Float64Value(lf / rf), nil
	case ModuloOp:
		if rf == 0 {
			return nil, fmt.Errorf("condition: modulo by zero")
		}
		return sql.Float64Value(math.Mod(lf, rf)), nil
	case PowerOp:
		return sql.Float64Value(math.Pow(lf, rf)), nil
	}
	panic(fmt.Sprintf("unexpected arithmetic operator: %s", op))
}

func truth(v sql.Value) (bool, bool, error) {
	if sql.IsEmpty(v) {
		return false, false, nil
	}
	b, ok := v.(sql.BoolValue)
	if !ok {
		return false, false, fmt.Errorf("condition: want boolean got %s", sql.Format(v))
	}
	return bool(b), true, nil
}

func not3(v sql.Value) (sql.Value, error) {
	b, known, err := truth(v)
	if err != nil || !known {
		return nil, err
	}
	return sql.BoolValue(!b), nil
}

func and3(l, r sql.Value) (sql.Value, error) {
	lb, lk, err := truth(l)
	if err != nil {
		return nil, err
	}
	rb, rk, err := truth(r)
	if err != nil {
		return nil, err
	}
	if (lk && !lb) || (rk && !rb) {
		return sql.BoolValue(false), nil
	}
	if lk && rk {
		return sql.BoolValue(true), nil
	}
	return nil, nil
}

func or3(l, r sql.Value) (sql.Value, error) {
	lb, lk, err := truth(l)
	if err != nil {
		return nil, err
	}
	rb, rk, err := truth(r)
	if err != nil {
		return nil, err
	}
	if (lk && lb) || (rk && rb) {
		return sql.BoolValue(true), nil
	}
	if lk && rk {
		return sql.BoolValue(false), nil
	}
	return nil, nil
}

func in3(v sql.Value, row []sql.Value, items []Evaluator) (sql.Value, error) {
	if sql.IsEmpty(v) {
		return nil, nil
	}
	unknown := false
	for _, item := range items {
		iv, err := item(row)
		if err != nil {
			return nil, err
		}
		if sql.IsEmpty(iv) {
			unknown = true
			continue
		}
		eq, err := compare(EqualOp, v, iv)
		if err != nil {
			return nil, err
		}
		if eq == sql.BoolValue(true) {
			return sql.BoolValue(true), nil
		}
	}
	if unknown {
		return nil, nil
	}
	return sql.BoolValue(false), nil
}

// Truth evaluates a compiled predicate over a row; unknown is false.
func Truth(ev Evaluator, row []sql.Value) (bool, error) {
	v, err := ev(row)
	if err != nil {
		return false, err
	}
	b, _, err := truth(v)
	return b, err
}
