package mirror

import (
	"encoding/json"
	"math"
	"math/rand"
	"strings"

	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

// Cond selects values; a nil Cond selects every value.
type Cond func(v sql.Value) bool

func (c *Column) selected(cond Cond) []sql.Value {
	if cond == nil {
		return c.Values()
	}
	var vals []sql.Value
	for _, v := range c.values {
		if cond(v) {
			vals = append(vals, v)
		}
	}
	return vals
}

// Aggregate computes fn over the values of the column; it is how conditions evaluate calls
// such as max(age). count is the same as len.
func (c *Column) Aggregate(fn string, args ...sql.Value) (sql.Value, error) {
	switch strings.ToLower(fn) {
	case "max":
		return c.Max(nil), nil
	case "min":
		return c.Min(nil), nil
	case "len", "length", "count":
		return sql.Int64Value(c.Len(nil)), nil
	case "sum":
		return c.Sum(nil)
	case "avg":
		return c.Avg(nil)
	case "mult":
		return c.Mult(nil)
	case "diff":
		return c.Diff(nil)
	case "quot":
		return c.Quot(nil)
	case "round":
		k := 0
		if len(args) > 0 {
			n, ok := number(args[0])
			if !ok {
				return nil, sql.Errorf("round: digits must be a number: %s", sql.Format(args[0]))
			}
			k = int(n)
		}
		vals, err := c.Round(k, nil)
		if err != nil {
			return nil, err
		}
		return list(vals)
	}
	return nil, sql.Errorf("attribute %s does not exist", fn)
}

func list(vals []sql.Value) (sql.Value, error) {
	l := make([]interface{}, 0, len(vals))
	for _, v := range vals {
		l = append(l, sql.Native(v))
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return sql.JSONValue(b), nil
}

func number(v sql.Value) (float64, bool) {
	switch v := v.(type) {
	case sql.Int64Value:
		return float64(v), true
	case sql.Float64Value:
		return float64(v), true
	case sql.BoolValue:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (c *Column) numbers(cond Cond, what string) ([]sql.Value, bool, error) {
	vals := c.selected(cond)
	ints := true
	nums := make([]sql.Value, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		if _, ok := number(v); !ok {
			return nil, false, sql.Errorf("%s: %s: not a number: %s", what, c.Name(),
				sql.Format(v))
		}
		if _, ok := v.(sql.Float64Value); ok {
			ints = false
		}
		nums = append(nums, v)
	}
	return nums, ints, nil
}

func extreme(vals []sql.Value, want int) sql.Value {
	var ext sql.Value
	for _, v := range vals {
		if v == nil {
			continue
		}
		if ext == nil || sql.Compare(v, ext) == want {
			ext = v
		}
	}
	return ext
}

// Max returns the largest of the selected values; NULLs are skipped.
func (c *Column) Max(cond Cond) sql.Value {
	return extreme(c.selected(cond), 1)
}

func (c *Column) Min(cond Cond) sql.Value {
	return extreme(c.selected(cond), -1)
}

func (c *Column) Len(cond Cond) int {
	return len(c.selected(cond))
}

// reduce folds the selected numbers with op; the result is an integer if every number is.
func (c *Column) reduce(cond Cond, what string, op func(a, b float64) float64) (sql.Value,
	error) {

	nums, ints, err := c.numbers(cond, what)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return nil, nil
	}
	acc, _ := number(nums[0])
	for _, v := range nums[1:] {
		n, _ := number(v)
		acc = op(acc, n)
	}
	if ints && !math.IsInf(acc, 0) && acc == math.Trunc(acc) {
		return sql.Int64Value(int64(acc)), nil
	}
	return sql.Float64Value(acc), nil
}

func (c *Column) Sum(cond Cond) (sql.Value, error) {
	nums, _, err := c.numbers(cond, "sum")
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return sql.Int64Value(0), nil
	}
	return c.reduce(cond, "sum",
		func(a, b float64) float64 {
			return a + b
		})
}

func (c *Column) Avg(cond Cond) (sql.Value, error) {
	nums, _, err := c.numbers(cond, "avg")
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return nil, sql.Errorf("avg: %s: no values", c.Name())
	}
	var sum float64
	for _, v := range nums {
		n, _ := number(v)
		sum += n
	}
	return sql.Float64Value(sum / float64(len(nums))), nil
}

// Round returns each of the selected numbers rounded to k digits.
func (c *Column) Round(k int, cond Cond) ([]sql.Value, error) {
	nums, _, err := c.numbers(cond, "round")
	if err != nil {
		return nil, err
	}
	p := math.Pow(10, float64(k))
	vals := make([]sql.Value, 0, len(nums))
	for _, v := range nums {
		n, _ := number(v)
		vals = append(vals, sql.Float64Value(math.RoundToEven(n*p)/p))
	}
	return vals, nil
}

func (c *Column) Mult(cond Cond) (sql.Value, error) {
	return c.reduce(cond, "mult",
		func(a, b float64) float64 {
			return a * b
		})
}

func (c *Column) Diff(cond Cond) (sql.Value, error) {
	return c.reduce(cond, "diff",
		func(a, b float64) float64 {
			return a - b
		})
}

func (c *Column) Quot(cond Cond) (sql.Value, error) {
	nums, _, err := c.numbers(cond, "quot")
	if err != nil {
		return nil, err
	}
	for _, v := range nums[min(1, len(nums)):] {
		if n, _ := number(v); n == 0 {
			return nil, sql.Errorf("quot: %s: division by zero", c.Name())
		}
	}
	v, err := c.reduce(cond, "quot",
		func(a, b float64) float64 {
			return a / b
		})
	if i, ok := v.(sql.Int64Value); ok && err == nil {
		return sql.Float64Value(i), nil
	}
	return v, err
}

// Power returns each of the selected numbers raised to x.
func (c *Column) Power(x float64, cond Cond) ([]sql.Value, error) {
	nums, _, err := c.numbers(cond, "power")
	if err != nil {
		return nil, err
	}
	vals := make([]sql.Value, 0, len(nums))
	for _, v := range nums {
		n, _ := number(v)
		vals = append(vals, sql.Float64Value(math.Pow(n, x)))
	}
	return vals, nil
}

// Random returns k values chosen from the selected values, with replacement.
func (c *Column) Random(k int, cond Cond) []sql.Value {
	vals := c.selected(cond)
	if len(vals) == 0 || k <= 0 {
		return nil
	}
	choices := make([]sql.Value, 0, k)
	for i := 0; i < k; i++ {
		choices = append(choices, vals[rand.Intn(len(vals))])
	}
	return choices
}

func (c *Column) RandomOne(cond Cond) (sql.Value, error) {
	vals := c.selected(cond)
	if len(vals) == 0 {
		return nil, sql.Errorf("random: %s: no values", c.Name())
	}
	return vals[rand.Intn(len(vals))], nil
}

// Shuffle returns the selected values shuffled n times.
func (c *Column) Shuffle(n int, cond Cond) []sql.Value {
	vals := c.selected(cond)
	if n < 0 {
		n = -n
	}
	for i := 0; i < n; i++ {
		rand.Shuffle(len(vals),
			func(i, j int) {
				vals[i], vals[j] = vals[j], vals[i]
			})
	}
	return vals
}

func (c *Column) Filter(fn Cond) []sql.Value {
	return c.selected(fn)
}

func (c *Column) Map(fn func(v sql.Value) sql.Value, cond Cond) []sql.Value {
	vals := c.selected(cond)
	for vdx, v := range vals {
		vals[vdx] = fn(v)
	}
	return vals
}

// Enumerate returns the selected values as a frame with a single column, where each row's
// index is its position.
func (c *Column) Enumerate(cond Cond) *frame.Frame {
	f := frame.New([]string{c.key})
	for vdx, v := range c.selected(cond) {
		f.Append(int64(vdx), []sql.Value{v})
	}
	return f
}

// Mirror returns the selected values in reverse order.
func (c *Column) Mirror(cond Cond) []sql.Value {
	vals := c.selected(cond)
	for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
		vals[i], vals[j] = vals[j], vals[i]
	}
	return vals
}

// Join returns the text of the selected values separated by sep.
func (c *Column) Join(sep string, cond Cond) string {
	vals := c.selected(cond)
	s := make([]string, 0, len(vals))
	for _, v := range vals {
		s = append(s, sql.Text(v))
	}
	return strings.Join(s, sep)
}
