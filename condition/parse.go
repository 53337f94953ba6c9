package condition

import (
	"fmt"
	"strings"

	"github.com/leftmike/sqlmirror/condition/scanner"
	"github.com/leftmike/sqlmirror/condition/token"
	"github.com/leftmike/sqlmirror/sql"
)

type parser struct {
	src  string
	toks []scanner.ScanCtx
	pos  int
	sctx *scanner.ScanCtx
}

// tokenize scans all of src; the last token is always token.EOF or token.Error.
func tokenize(src string) []scanner.ScanCtx {
	var s scanner.Scanner
	s.Init(src)

	var toks []scanner.ScanCtx
	for {
		var sctx scanner.ScanCtx
		s.Scan(&sctx)
		toks = append(toks, sctx)
		if sctx.Token == token.EOF || sctx.Token == token.Error {
			return toks
		}
	}
}

// Parse parses a condition, such as `age > 18 and (status == "active" or status == "pending")`,
// into an expression.
func Parse(src string) (Expr, error) {
	p := parser{src: src, toks: tokenize(src)}

	e, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.scan() != token.EOF {
		return nil, p.unexpected()
	}
	return e, nil
}

func (p *parser) scan() rune {
	i := p.pos
	if i >= len(p.toks) {
		i = len(p.toks) - 1
	}
	p.sctx = &p.toks[i]
	p.pos += 1
	return p.sctx.Token
}

func (p *parser) unscan() {
	p.pos -= 1
}

func (p *parser) unexpected() error {
	if p.sctx.Token == token.Error {
		return fmt.Errorf("condition: %s: %s", p.src, p.sctx.Error)
	} else if p.sctx.Token == token.EOF {
		return fmt.Errorf("condition: %s: unexpected end of condition", p.src)
	}
	return fmt.Errorf("condition: %s: unexpected %q at %d", p.src, p.sctx.Text(p.src),
		p.sctx.Offset)
}

func (p *parser) expect(r rune) error {
	if p.scan() != r {
		return p.unexpected()
	}
	return nil
}

func (p *parser) keyword(kw string) bool {
	return p.sctx.Token == token.Keyword && p.sctx.Keyword == kw
}

var binaryOps = map[rune]Op{
	token.EqualEqual:   EqualOp,
	token.Equal:        EqualOp,
	token.BangEqual:    NotEqualOp,
	token.LessGreater:  NotEqualOp,
	token.Less:         LessThanOp,
	token.LessEqual:    LessEqualOp,
	token.Greater:      GreaterThanOp,
	token.GreaterEqual: GreaterEqualOp,
	token.Plus:         AddOp,
	token.Minus:        SubtractOp,
	token.Star:         MultiplyOp,
	token.Slash:        DivideOp,
	token.Percent:      ModuloOp,
	token.StarStar:     PowerOp,
}

var keywordOps = map[string]Op{
	"and":  AndOp,
	"or":   OrOp,
	"in":   InOp,
	"is":   IsOp,
	"like": LikeOp,
}

// binaryOp scans a binary operator; it consumes the second keyword of `is not`, `not in`,
// and `not like`.
func (p *parser) binaryOp() (Op, bool, error) {
	r := p.scan()
	if op, ok := binaryOps[r]; ok {
		return op, true, nil
	}
	if r != token.Keyword {
		p.unscan()
		return 0, false, nil
	}

	kw := p.sctx.Keyword
	if kw == "not" {
		p.scan()
		if p.keyword("in") {
			return NotInOp, true, nil
		} else if p.keyword("like") {
			return NotLikeOp, true, nil
		}
		return 0, false, p.unexpected()
	}

	op, ok := keywordOps[kw]
	if !ok {
		p.unscan()
		return 0, false, nil
	}
	if op == IsOp {
		if p.scan() == token.Keyword && p.keyword("not") {
			return IsNotOp, true, nil
		}
		p.unscan()
	}
	return op, true, nil
}

func (p *parser) parseExpr(prec int) (Expr, error) {
	e, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		save := p.pos

		op, ok, err := p.binaryOp()
		if err != nil {
			return nil, err
		}
		if !ok {
			return e, nil
		}
		if op.Precedence() <= prec {
			p.pos = save
			return e, nil
		}

		var right Expr
		if op == InOp || op == NotInOp {
			right, err = p.parseList()
		} else if op == PowerOp {
			// right associative
			right, err = p.parseExpr(op.Precedence() - 1)
		} else {
			right, err = p.parseExpr(op.Precedence())
		}
		if err != nil {
			return nil, err
		}
		e = &Binary{Op: op, Left: e, Right: right}
	}
}

func (p *parser) parseList() (Expr, error) {
	r := p.scan()
	var end rune
	if r == token.LBracket {
		end = token.RBracket
	} else if r == token.LParen {
		end = token.RParen
	} else {
		return nil, p.unexpected()
	}

	exprs, err := p.parseExprs(end)
	if err != nil {
		return nil, err
	}
	return &List{Exprs: exprs}, nil
}

// parseExprs parses a comma separated list of expressions up to and including end.
func (p *parser) parseExprs(end rune) ([]Expr, error) {
	var exprs []Expr
	if p.scan() == end {
		return exprs, nil
	}
	p.unscan()

	for {
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)

		r := p.scan()
		if r == end {
			break
		} else if r != token.Comma {
			return nil, p.unexpected()
		}
	}
	return exprs, nil
}

func (p *parser) parseUnary() (Expr, error) {
	r := p.scan()
	switch r {
	case token.Minus:
		// ** binds tighter than unary minus: -2 ** 2 is -(2 ** 2).
		e, err := p.parseExpr(NegateOp.Precedence())
		if err != nil {
			return nil, err
		}
		if l, ok := e.(*Literal); ok {
			switch v := l.Value.(type) {
			case sql.Int64Value:
				return &Literal{Value: -v}, nil
			case sql.Float64Value:
				return &Literal{Value: -v}, nil
			}
		}
		return &Unary{Op: NegateOp, Expr: e}, nil
	case token.Plus:
		return p.parseExpr(NegateOp.Precedence())
	case token.Keyword:
		if p.keyword("not") {
			e, err := p.parseExpr(NotOp.Precedence())
			if err != nil {
				return nil, err
			}
			return &Unary{Op: NotOp, Expr: e}, nil
		}
	}
	p.unscan()
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.scan() {
	case token.Integer:
		return &Literal{Value: sql.Int64Value(p.sctx.Integer)}, nil
	case token.Float:
		return &Literal{Value: sql.Float64Value(p.sctx.Float)}, nil
	case token.String:
		return &Literal{Value: sql.StringValue(p.sctx.String)}, nil
	case token.Keyword:
		switch p.sctx.Keyword {
		case "true":
			return &Literal{Value: sql.BoolValue(true)}, nil
		case "false":
			return &Literal{Value: sql.BoolValue(false)}, nil
		case "none", "null", "nil":
			return &Literal{Value: nil}, nil
		}
	case token.Identifier:
		id := p.sctx.Ident
		switch p.scan() {
		case token.Dot:
			if p.scan() != token.Identifier {
				return nil, p.unexpected()
			}
			return &Ref{Table: id, Column: p.sctx.Ident}, nil
		case token.LParen:
			args, err := p.parseExprs(token.RParen)
			if err != nil {
				return nil, err
			}
			return &Call{Name: strings.ToLower(id), Args: args}, nil
		}
		p.unscan()
		return &Ref{Column: id}, nil
	case token.LParen:
		exprs, err := p.parseExprs(token.RParen)
		if err != nil {
			return nil, err
		}
		if len(exprs) == 1 {
			return exprs[0], nil
		}
		return &List{Exprs: exprs}, nil
	case token.LBracket:
		exprs, err := p.parseExprs(token.RBracket)
		if err != nil {
			return nil, err
		}
		return &List{Exprs: exprs}, nil
	}
	return nil, p.unexpected()
}
