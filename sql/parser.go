package sql

import (
	"fmt"
	"strconv"

	"github.com/csbase/csbase/dberrors"
	"github.com/csbase/csbase/expr"
	"github.com/csbase/csbase/value"
)

// Parser is a recursive-descent parser over a Lexer, grounded on the
// teacher pack's ha1tch/tsqlparser split between a token-emitting Lexer
// and a Parser that tracks current/peek tokens and advances explicitly.
type Parser struct {
	lex *Lexer

	cur  Token
	peek Token
	err  error
}

// Parse lexes and parses a single statement from input.
func Parse(input string) (*Statement, error) {
	p := &Parser{lex: NewLexer(input)}
	p.next()
	p.next()
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != EOF && p.cur.Type != SEMICOLON {
		return nil, p.parseErrorf("unexpected trailing input %q", p.cur.Literal)
	}
	return stmt, nil
}

func (p *Parser) next() {
	p.cur = p.peek
	tok, err := p.lex.NextToken()
	if err != nil && p.err == nil {
		p.err = err
	}
	p.peek = tok
}

func (p *Parser) parseErrorf(format string, args ...any) error {
	return dberrors.ParseError(fmt.Sprintf("line %d:%d: %s", p.cur.Line, p.cur.Column, fmt.Sprintf(format, args...)))
}

func (p *Parser) expect(t TokenType, what string) error {
	if p.cur.Type != t {
		return p.parseErrorf("expected %s, got %q", what, p.cur.Literal)
	}
	return nil
}

func (p *Parser) parseStatement() (*Statement, error) {
	if p.err != nil {
		return nil, dberrors.ParseError(p.err.Error())
	}
	switch p.cur.Type {
	case CREATE:
		return p.parseCreateTable()
	case DROP:
		return p.parseDropTable()
	case INSERT:
		return p.parseInsert()
	case SELECT:
		return p.parseSelect()
	case DELETE:
		return p.parseDelete()
	default:
		return nil, p.parseErrorf("expected a statement, got %q", p.cur.Literal)
	}
}

func (p *Parser) parseCreateTable() (*Statement, error) {
	p.next() // CREATE
	if err := p.expect(TABLE, "TABLE"); err != nil {
		return nil, err
	}
	p.next() // TABLE
	if err := p.expect(IDENT, "table name"); err != nil {
		return nil, err
	}
	name := p.cur.Literal
	p.next()
	if err := p.expect(LPAREN, "("); err != nil {
		return nil, err
	}
	p.next()

	var cols []ColumnDef
	for {
		if err := p.expect(IDENT, "column name"); err != nil {
			return nil, err
		}
		colName := p.cur.Literal
		p.next()
		if err := p.expect(IDENT, "column type"); err != nil {
			return nil, err
		}
		cols = append(cols, ColumnDef{Name: colName, Type: p.cur.Literal})
		p.next()
		if p.cur.Type == COMMA {
			p.next()
			continue
		}
		break
	}
	if err := p.expect(RPAREN, ")"); err != nil {
		return nil, err
	}
	p.next()
	return &Statement{CreateTable: &CreateTable{Name: name, Columns: cols}}, nil
}

func (p *Parser) parseDropTable() (*Statement, error) {
	p.next() // DROP
	if err := p.expect(TABLE, "TABLE"); err != nil {
		return nil, err
	}
	p.next()
	if err := p.expect(IDENT, "table name"); err != nil {
		return nil, err
	}
	name := p.cur.Literal
	p.next()
	return &Statement{DropTable: &DropTable{Name: name}}, nil
}

func (p *Parser) parseInsert() (*Statement, error) {
	p.next() // INSERT
	if err := p.expect(INTO, "INTO"); err != nil {
		return nil, err
	}
	p.next()
	if err := p.expect(IDENT, "table name"); err != nil {
		return nil, err
	}
	table := p.cur.Literal
	p.next()

	if err := p.expect(LPAREN, "("); err != nil {
		return nil, err
	}
	p.next()
	var cols []string
	for {
		if err := p.expect(IDENT, "column name"); err != nil {
			return nil, err
		}
		cols = append(cols, p.cur.Literal)
		p.next()
		if p.cur.Type == COMMA {
			p.next()
			continue
		}
		break
	}
	if err := p.expect(RPAREN, ")"); err != nil {
		return nil, err
	}
	p.next()

	if err := p.expect(VALUES, "VALUES"); err != nil {
		return nil, err
	}
	p.next()
	if err := p.expect(LPAREN, "("); err != nil {
		return nil, err
	}
	p.next()
	var values []*expr.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		values = append(values, e)
		if p.cur.Type == COMMA {
			p.next()
			continue
		}
		break
	}
	if err := p.expect(RPAREN, ")"); err != nil {
		return nil, err
	}
	p.next()

	return &Statement{Insert: &Insert{Table: table, Columns: cols, Values: values}}, nil
}

func (p *Parser) parseSelect() (*Statement, error) {
	p.next() // SELECT
	var cols []string
	if p.cur.Type == ASTERISK {
		p.next()
	} else {
		for {
			if err := p.expect(IDENT, "column name"); err != nil {
				return nil, err
			}
			cols = append(cols, p.cur.Literal)
			p.next()
			if p.cur.Type == COMMA {
				p.next()
				continue
			}
			break
		}
	}
	if err := p.expect(FROM, "FROM"); err != nil {
		return nil, err
	}
	p.next()
	if err := p.expect(IDENT, "table name"); err != nil {
		return nil, err
	}
	table := p.cur.Literal
	p.next()

	var cond *expr.Expr
	if p.cur.Type == WHERE {
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		cond = e
	}
	return &Statement{Select: &Select{Table: table, Columns: cols, Condition: cond}}, nil
}

func (p *Parser) parseDelete() (*Statement, error) {
	p.next() // DELETE
	if err := p.expect(FROM, "FROM"); err != nil {
		return nil, err
	}
	p.next()
	if err := p.expect(IDENT, "table name"); err != nil {
		return nil, err
	}
	table := p.cur.Literal
	p.next()

	var cond *expr.Expr
	if p.cur.Type == WHERE {
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		cond = e
	}
	return &Statement{Delete: &Delete{Table: table, Condition: cond}}, nil
}

// Expression grammar, lowest to highest precedence:
//
//	or_expr     := and_expr (OR and_expr)*
//	and_expr    := cmp_expr (AND cmp_expr)*
//	cmp_expr    := add_expr (cmp_op add_expr)?
//	add_expr    := mul_expr ((+|-) mul_expr)*
//	mul_expr    := primary ((*|/) primary)*
//	primary     := literal | IDENT | '(' or_expr ')'

func (p *Parser) parseExpr() (*expr.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (*expr.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == OR {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = expr.Logical(left, value.Or, right)
	}
	return left, nil
}

func (p *Parser) parseAnd() (*expr.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == AND {
		p.next()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = expr.Logical(left, value.And, right)
	}
	return left, nil
}

var comparators = map[TokenType]value.Comparator{
	EQ:  value.Eq,
	NEQ: value.Neq,
	LT:  value.Lt,
	LTE: value.Lte,
	GT:  value.Gt,
	GTE: value.Gte,
}

func (p *Parser) parseComparison() (*expr.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if cmp, ok := comparators[p.cur.Type]; ok {
		p.next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return expr.Compare(left, cmp, right), nil
	}
	return left, nil
}

func (p *Parser) parseAdditive() (*expr.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == PLUS || p.cur.Type == MINUS {
		op := expr.Add
		if p.cur.Type == MINUS {
			op = expr.Sub
		}
		p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = expr.Arithmetic(left, op, right)
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (*expr.Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == ASTERISK || p.cur.Type == SLASH {
		op := expr.Mul
		if p.cur.Type == SLASH {
			op = expr.Div
		}
		p.next()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = expr.Arithmetic(left, op, right)
	}
	return left, nil
}

func (p *Parser) parsePrimary() (*expr.Expr, error) {
	switch p.cur.Type {
	case INT_LIT:
		n, err := strconv.ParseInt(p.cur.Literal, 10, 32)
		if err != nil {
			return nil, p.parseErrorf("invalid integer literal %q", p.cur.Literal)
		}
		p.next()
		return expr.Lit(value.NewInt(int32(n))), nil
	case FLOAT_LIT:
		f, err := strconv.ParseFloat(p.cur.Literal, 32)
		if err != nil {
			return nil, p.parseErrorf("invalid float literal %q", p.cur.Literal)
		}
		p.next()
		return expr.Lit(value.NewFloat(float32(f))), nil
	case STRING_LIT:
		s := p.cur.Literal
		p.next()
		return expr.Lit(value.NewStr(s)), nil
	case TRUE:
		p.next()
		return expr.Lit(value.NewBool(true)), nil
	case FALSE:
		p.next()
		return expr.Lit(value.NewBool(false)), nil
	case NULL:
		p.next()
		return expr.Lit(value.Null), nil
	case IDENT:
		name := p.cur.Literal
		p.next()
		return expr.Ident(name), nil
	case LPAREN:
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(RPAREN, ")"); err != nil {
			return nil, err
		}
		p.next()
		return e, nil
	default:
		return nil, p.parseErrorf("expected an expression, got %q", p.cur.Literal)
	}
}
