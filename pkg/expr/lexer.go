package expr

// tokenType is the kind of lexical token.
type tokenType int

const (
	tokEOF tokenType = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
	tokComma
	tokDot
)

// token is a lexical token with its source position.
type token struct {
	typ    tokenType
	lexeme string
	pos    int
}

// lex splits source text into tokens. It only fails on characters outside
// the grammar; structural validation is the parser's job.
func lex(source string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(source) {
		c := source[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '+':
			tokens = append(tokens, token{tokPlus, "+", i})
			i++
		case c == '-':
			tokens = append(tokens, token{tokMinus, "-", i})
			i++
		case c == '*':
			tokens = append(tokens, token{tokStar, "*", i})
			i++
		case c == '/':
			tokens = append(tokens, token{tokSlash, "/", i})
			i++
		case c == '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++
		case c == ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++
		case c == ',':
			tokens = append(tokens, token{tokComma, ",", i})
			i++
		case c == '.':
			tokens = append(tokens, token{tokDot, ".", i})
			i++
		case c >= '0' && c <= '9':
			start := i
			for i < len(source) && source[i] >= '0' && source[i] <= '9' {
				i++
			}
			// Decimal fraction; a bare trailing dot belongs to the next token.
			if i+1 < len(source) && source[i] == '.' && source[i+1] >= '0' && source[i+1] <= '9' {
				i++
				for i < len(source) && source[i] >= '0' && source[i] <= '9' {
					i++
				}
			}
			tokens = append(tokens, token{tokNumber, source[start:i], start})
		case isIdentStart(c):
			start := i
			for i < len(source) && isIdentPart(source[i]) {
				i++
			}
			tokens = append(tokens, token{tokIdent, source[start:i], start})
		default:
			return nil, &SyntaxError{Pos: i, Msg: "unexpected character " + string(c)}
		}
	}
	tokens = append(tokens, token{tokEOF, "", len(source)})
	return tokens, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
