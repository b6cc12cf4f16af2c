package expr

import (
	"strconv"
	"strings"

	"github.com/aretw0/cadence/pkg/rational"
)

// Parse compiles source text into an expression tree.
//
// Grammar:
//
//	expr    := term (('+'|'-') term)*
//	term    := unary (('*'|'/') unary)*
//	unary   := '-' unary | primary
//	primary := NUMBER
//	         | 'rat' '(' INT ',' INT ')'
//	         | REF '.' IDENT
//	         | 'tempo' '(' REF ')' | 'measure' '(' REF ')'
//	         | '(' expr ')'
//	REF     := 'e' INT
//
// Decimal literals are converted to exact rationals (pow-10 denominator), so
// parsing never loses precision. Fails with *SyntaxError on empty input,
// unbalanced delimiters or tokens outside the grammar.
func Parse(source string) (Node, error) {
	if strings.TrimSpace(source) == "" {
		return nil, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}
	tokens, err := lex(source)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.typ != tokEOF {
		return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected trailing " + describe(tok)}
	}
	return node, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.typ != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(typ tokenType, what string) (token, error) {
	tok := p.next()
	if tok.typ != typ {
		return tok, &SyntaxError{Pos: tok.pos, Msg: "expected " + what + ", found " + describe(tok)}
	}
	return tok, nil
}

func (p *parser) parseExpr() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().typ {
		case tokPlus:
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = &BinaryOp{Op: OpAdd, Left: left, Right: right}
		case tokMinus:
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = &BinaryOp{Op: OpSub, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseTerm() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().typ {
		case tokStar:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = &BinaryOp{Op: OpMul, Left: left, Right: right}
		case tokSlash:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = &BinaryOp{Op: OpDiv, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (Node, error) {
	if p.peek().typ == tokMinus {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if lit, ok := operand.(*Literal); ok {
			return &Literal{Value: lit.Value.Neg()}, nil
		}
		return &BinaryOp{Op: OpMul, Left: &Literal{Value: rational.FromInt(-1)}, Right: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.next()
	switch tok.typ {
	case tokNumber:
		value, err := parseNumber(tok)
		if err != nil {
			return nil, err
		}
		return &Literal{Value: value}, nil

	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil

	case tokIdent:
		switch tok.lexeme {
		case "rat":
			return p.parseRat(tok)
		case "tempo":
			return p.parseHelper(tok, HelperTempo)
		case "measure":
			return p.parseHelper(tok, HelperMeasure)
		}
		entity, ok := parseEntityRef(tok.lexeme)
		if !ok {
			return nil, &SyntaxError{Pos: tok.pos, Msg: "unknown token " + strconv.Quote(tok.lexeme)}
		}
		if _, err := p.expect(tokDot, "'.' after entity reference"); err != nil {
			return nil, err
		}
		name, err := p.expect(tokIdent, "variable name")
		if err != nil {
			return nil, err
		}
		return &VariableRef{Entity: entity, Name: name.lexeme}, nil

	case tokEOF:
		return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected end of expression"}
	}
	return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected " + describe(tok)}
}

// parseRat parses the explicit rational constructor rat(n, d).
func (p *parser) parseRat(start token) (Node, error) {
	if _, err := p.expect(tokLParen, "'(' after rat"); err != nil {
		return nil, err
	}
	num, err := p.parseSignedInt()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokComma, "','"); err != nil {
		return nil, err
	}
	den, err := p.parseSignedInt()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	value, err := rational.New(num, den)
	if err != nil {
		return nil, &SyntaxError{Pos: start.pos, Msg: "zero denominator in rational literal"}
	}
	return &Literal{Value: value}, nil
}

func (p *parser) parseHelper(start token, h Helper) (Node, error) {
	if _, err := p.expect(tokLParen, "'(' after "+h.String()); err != nil {
		return nil, err
	}
	ref, err := p.expect(tokIdent, "entity reference")
	if err != nil {
		return nil, err
	}
	entity, ok := parseEntityRef(ref.lexeme)
	if !ok {
		return nil, &SyntaxError{Pos: ref.pos, Msg: h.String() + " expects an entity reference like e0"}
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return &HelperCall{Helper: h, Entity: entity}, nil
}

func (p *parser) parseSignedInt() (int64, error) {
	negative := false
	if p.peek().typ == tokMinus {
		p.next()
		negative = true
	}
	tok, err := p.expect(tokNumber, "integer")
	if err != nil {
		return 0, err
	}
	if strings.Contains(tok.lexeme, ".") {
		return 0, &SyntaxError{Pos: tok.pos, Msg: "expected integer, found decimal"}
	}
	n, convErr := strconv.ParseInt(tok.lexeme, 10, 64)
	if convErr != nil {
		return 0, &SyntaxError{Pos: tok.pos, Msg: "integer out of range"}
	}
	if negative {
		n = -n
	}
	return n, nil
}

func parseNumber(tok token) (rational.Rational, error) {
	whole, frac, hasFrac := strings.Cut(tok.lexeme, ".")
	num, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return rational.Rational{}, &SyntaxError{Pos: tok.pos, Msg: "number out of range"}
	}
	value := rational.FromInt(num)
	if hasFrac {
		fracNum, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return rational.Rational{}, &SyntaxError{Pos: tok.pos, Msg: "number out of range"}
		}
		den := int64(1)
		for range len(frac) {
			den *= 10
		}
		part, err := rational.New(fracNum, den)
		if err != nil {
			return rational.Rational{}, &SyntaxError{Pos: tok.pos, Msg: "invalid decimal"}
		}
		value = value.Add(part)
	}
	return value, nil
}

// parseEntityRef recognizes the eN reference form.
func parseEntityRef(lexeme string) (int, bool) {
	if len(lexeme) < 2 || lexeme[0] != 'e' {
		return 0, false
	}
	id, err := strconv.Atoi(lexeme[1:])
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

func describe(tok token) string {
	if tok.typ == tokEOF {
		return "end of expression"
	}
	return strconv.Quote(tok.lexeme)
}
