package scanner_test

import (
	"testing"

	. "github.com/leftmike/sqlmirror/condition/scanner"
	"github.com/leftmike/sqlmirror/condition/token"
)

func TestScan(t *testing.T) {
	cases := []struct {
		s string
		r rune
	}{
		{"", token.EOF},
		{"   ", token.EOF},
		{"abc", token.Identifier},
		{"and", token.Keyword},
		{"NOT", token.Keyword},
		{"BETWEEN", token.Keyword},
		{"'and'", token.String},
		{"\"and\"", token.String},
		{"'isn\\'t go fun?'", token.String},
		{"'isn''t'", token.String},
		{"12345", token.Integer},
		{"1234.5678", token.Float},
		{"12.abc", token.Integer},
		{", ", token.Comma},
		{".id", token.Dot},
		{"(123", token.LParen},
		{")+", token.RParen},
		{"[1, 2]", token.LBracket},
		{"]", token.RBracket},
		{"-abc", token.Minus},
		{"+abc", token.Plus},
		{"*(abc)", token.Star},
		{"**2", token.StarStar},
		{"/12", token.Slash},
		{"%", token.Percent},
		{"=123", token.Equal},
		{"<123", token.Less},
		{">123", token.Greater},
		{"<=", token.LessEqual},
		{"<>", token.LessGreater},
		{">=", token.GreaterEqual},
		{"==", token.EqualEqual},
		{"!=", token.BangEqual},
		{">-123", token.Greater},
		{"!x", token.Error},
		{"'abc", token.Error},
		{"#", token.Error},
	}

	for _, c := range cases {
		var s Scanner
		s.Init(c.s)
		var sctx ScanCtx
		s.Scan(&sctx)
		if sctx.Token != c.r {
			t.Errorf("Scan(%q) got %s want %s", c.s, token.Format(sctx.Token),
				token.Format(c.r))
		}
	}
}

func TestScanValues(t *testing.T) {
	var s Scanner
	s.Init(`age >= 18 and name == "it's" or x <> 'a''b' and y in [1.5, 2]`)

	type tok struct {
		r    rune
		text string
	}
	want := []tok{
		{token.Identifier, "age"},
		{token.GreaterEqual, ">="},
		{token.Integer, "18"},
		{token.Keyword, "and"},
		{token.Identifier, "name"},
		{token.EqualEqual, "=="},
		{token.String, `"it's"`},
		{token.Keyword, "or"},
		{token.Identifier, "x"},
		{token.LessGreater, "<>"},
		{token.String, "'a''b'"},
		{token.Keyword, "and"},
		{token.Identifier, "y"},
		{token.Keyword, "in"},
		{token.LBracket, "["},
		{token.Float, "1.5"},
		{token.Comma, ","},
		{token.Integer, "2"},
		{token.RBracket, "]"},
		{token.EOF, ""},
	}

	src := `age >= 18 and name == "it's" or x <> 'a''b' and y in [1.5, 2]`
	for i, w := range want {
		var sctx ScanCtx
		s.Scan(&sctx)
		if sctx.Token != w.r {
			t.Fatalf("Scan(%d) got %s want %s", i, token.Format(sctx.Token), token.Format(w.r))
		}
		if sctx.Text(src) != w.text {
			t.Errorf("Scan(%d) text got %q want %q", i, sctx.Text(src), w.text)
		}
		if sctx.Token == token.String && i == 6 && sctx.String != "it's" {
			t.Errorf("Scan(%d) string got %q want \"it's\"", i, sctx.String)
		}
		if sctx.Token == token.String && i == 10 && sctx.String != "a'b" {
			t.Errorf("Scan(%d) string got %q want \"a'b\"", i, sctx.String)
		}
	}
}

func TestScanNumber(t *testing.T) {
	cases := []struct {
		s   string
		r   rune
		i   int64
		f   float64
		end int
	}{
		{"0", token.Integer, 0, 0, 1},
		{"42)", token.Integer, 42, 0, 2},
		{"3.25", token.Float, 0, 3.25, 4},
		{"3.", token.Integer, 3, 0, 1},
		{"3.x", token.Integer, 3, 0, 1},
	}

	for _, c := range cases {
		var s Scanner
		s.Init(c.s)
		var sctx ScanCtx
		s.Scan(&sctx)
		if sctx.Token != c.r {
			t.Errorf("Scan(%q) got %s want %s", c.s, token.Format(sctx.Token), token.Format(c.r))
		} else if sctx.Token == token.Integer && sctx.Integer != c.i {
			t.Errorf("Scan(%q) got %d want %d", c.s, sctx.Integer, c.i)
		} else if sctx.Token == token.Float && sctx.Float != c.f {
			t.Errorf("Scan(%q) got %f want %f", c.s, sctx.Float, c.f)
		}
		if sctx.End != c.end {
			t.Errorf("Scan(%q) end got %d want %d", c.s, sctx.End, c.end)
		}
	}
}
