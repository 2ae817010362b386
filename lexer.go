package gridcalc

import (
	"strconv"
	"strings"
)

// TokenType represents different types of tokens in formulas
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenBoolean
	TokenCell // any identifier that is not a keyword or function name
	TokenFunction
	TokenOperator
	TokenLeftParen
	TokenRightParen
	TokenComma
	TokenColon
)

var tokenTypeNames = map[TokenType]string{
	TokenEOF:        "end of formula",
	TokenNumber:     "number",
	TokenBoolean:    "boolean",
	TokenCell:       "cell reference",
	TokenFunction:   "function",
	TokenOperator:   "operator",
	TokenLeftParen:  "'('",
	TokenRightParen: "')'",
	TokenComma:      "','",
	TokenColon:      "':'",
}

func (t TokenType) String() string {
	return tokenTypeNames[t]
}

// Operator represents the operators of the formula language
type Operator int

const (
	OpAdd Operator = iota + 1
	OpSubtract
	OpMultiply
	OpDivide
	OpPower
	OpAnd
	OpOr
	OpNot
)

var operatorSymbols = map[Operator]string{
	OpAdd:      "+",
	OpSubtract: "-",
	OpMultiply: "*",
	OpDivide:   "/",
	OpPower:    "^",
	OpAnd:      "AND",
	OpOr:       "OR",
	OpNot:      "NOT",
}

func (op Operator) String() string {
	return operatorSymbols[op]
}

// binaryPrecedence is the binding power of each binary operator. all
// levels are left-associative. NOT is prefix-only and has no entry.
var binaryPrecedence = map[Operator]int{
	OpOr:       1,
	OpAnd:      2,
	OpAdd:      3,
	OpSubtract: 3,
	OpMultiply: 4,
	OpDivide:   4,
	OpPower:    5,
}

// keywordOperators are identifiers that lex as operators
var keywordOperators = map[string]Operator{
	"AND": OpAnd,
	"OR":  OpOr,
	"NOT": OpNot,
}

// character classification constants. slightly easier to read.
const (
	charTab      = '\t'
	charNewline  = '\n'
	charReturn   = '\r'
	charSpace    = ' '
	charLParen   = '('
	charRParen   = ')'
	charAsterisk = '*'
	charPlus     = '+'
	charComma    = ','
	charMinus    = '-'
	charPeriod   = '.'
	charSlash    = '/'
	charColon    = ':'
	charCaret    = '^'
)

var symbolOperators = map[rune]Operator{
	charPlus:     OpAdd,
	charMinus:    OpSubtract,
	charAsterisk: OpMultiply,
	charSlash:    OpDivide,
	charCaret:    OpPower,
}

// Token represents a lexical token with position information
type Token struct {
	Type    TokenType
	Value   string
	Pos     int       // rune position in input
	Op      Operator  // set for TokenOperator
	Literal CellValue // set for TokenNumber and TokenBoolean
}

// isValue reports whether the token ends an operand
func (t Token) isValue() bool {
	switch t.Type {
	case TokenNumber, TokenBoolean, TokenCell, TokenRightParen:
		return true
	}
	return false
}

// Lexer tokenizes formula bodies (the text after '='). every token is
// validated against the one before it as soon as it is produced.
type Lexer struct {
	input   string
	runes   []rune
	pos     int
	tokens  []Token
	checker syntaxChecker
}

// NewLexer creates a new lexer for a formula body
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: input,
		runes: []rune(input),
	}
}

// Tokenize tokenizes the entire input. the returned stream always ends
// with a TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
		if err := l.checker.check(l.tokens); err != nil {
			return nil, err
		}
		if tok.Type == TokenEOF {
			break
		}
	}
	if err := l.checker.finish(l.tokens); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

// nextToken returns the next token from the input
func (l *Lexer) nextToken() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.runes) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	startPos := l.pos
	ch := l.runes[l.pos]

	if isDigit(ch) || ch == charPeriod {
		return l.scanNumber()
	}
	if isAlpha(ch) {
		return l.scanIdentifier(), nil
	}

	l.pos++
	switch ch {
	case charLParen:
		return Token{Type: TokenLeftParen, Value: "(", Pos: startPos}, nil
	case charRParen:
		return Token{Type: TokenRightParen, Value: ")", Pos: startPos}, nil
	case charComma:
		return Token{Type: TokenComma, Value: ",", Pos: startPos}, nil
	case charColon:
		return Token{Type: TokenColon, Value: ":", Pos: startPos}, nil
	}
	if op, exists := symbolOperators[ch]; exists {
		return Token{Type: TokenOperator, Value: string(ch), Pos: startPos, Op: op}, nil
	}

	return Token{}, newTokenError(KindLexical, len(l.tokens), "invalid char %q", ch)
}

// scanNumber reads a run of digits and periods. a period makes it a Double.
func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos
	for l.pos < len(l.runes) && (isDigit(l.runes[l.pos]) || l.runes[l.pos] == charPeriod) {
		l.pos++
	}
	text := string(l.runes[start:l.pos])

	var literal CellValue
	if strings.ContainsRune(text, charPeriod) {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Token{}, newTokenError(KindLexical, len(l.tokens), "malformed number %q", text)
		}
		literal = DoubleVal(f)
	} else {
		i, err := strconv.Atoi(text)
		if err != nil {
			return Token{}, newTokenError(KindLexical, len(l.tokens), "malformed number %q", text)
		}
		literal = IntVal(i)
	}
	return Token{Type: TokenNumber, Value: text, Pos: start, Literal: literal}, nil
}

// scanIdentifier reads a letter followed by letters or digits and
// classifies the uppercased word
func (l *Lexer) scanIdentifier() Token {
	start := l.pos
	for l.pos < len(l.runes) && (isAlpha(l.runes[l.pos]) || isDigit(l.runes[l.pos])) {
		l.pos++
	}
	word := strings.ToUpper(string(l.runes[start:l.pos]))

	if op, exists := keywordOperators[word]; exists {
		return Token{Type: TokenOperator, Value: word, Pos: start, Op: op}
	}
	switch word {
	case "TRUE":
		return Token{Type: TokenBoolean, Value: word, Pos: start, Literal: BoolVal(true)}
	case "FALSE":
		return Token{Type: TokenBoolean, Value: word, Pos: start, Literal: BoolVal(false)}
	}
	if isBuiltinFunction(word) {
		return Token{Type: TokenFunction, Value: word, Pos: start}
	}
	return Token{Type: TokenCell, Value: word, Pos: start}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.runes) {
		ch := l.runes[l.pos]
		if ch == charSpace || ch == charTab || ch == charNewline || ch == charReturn {
			l.pos++
		} else {
			break
		}
	}
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// syntaxChecker validates each new token against its predecessor and
// tracks parenthesis depth
type syntaxChecker struct {
	parenLevel int
}

// check validates the last token of the stream
func (c *syntaxChecker) check(tokens []Token) error {
	index := len(tokens) - 1
	cur := tokens[index]
	var prev *Token
	if index > 0 {
		prev = &tokens[index-1]
	}

	if prev != nil && prev.Type == TokenColon && cur.Type != TokenCell {
		return newTokenError(KindSyntax, index, "cell reference expected after ':', found %s", cur.Type)
	}

	switch cur.Type {
	case TokenLeftParen:
		c.parenLevel++
	case TokenRightParen:
		c.parenLevel--
		if c.parenLevel < 0 {
			return newTokenError(KindSyntax, index, "unexpected ')'")
		}
	case TokenComma:
		if c.parenLevel <= 0 {
			return newTokenError(KindSyntax, index, "',' outside of function arguments")
		}
		if prev != nil && prev.Type == TokenOperator {
			return newTokenError(KindSyntax, index, "',' after operator %s", prev.Op)
		}
	case TokenColon:
		if prev == nil || prev.Type != TokenCell {
			return newTokenError(KindSyntax, index, "':' must follow a cell reference")
		}
	case TokenOperator:
		// unary context: start of formula, after an operator, '(' or ','
		unary := prev == nil || prev.Type == TokenOperator || prev.Type == TokenLeftParen || prev.Type == TokenComma
		switch cur.Op {
		case OpAdd, OpSubtract:
			if !unary && !prev.isValue() {
				return newTokenError(KindSyntax, index, "unexpected operator %s after %s", cur.Op, prev.Type)
			}
		case OpNot:
			if !unary {
				return newTokenError(KindSyntax, index, "NOT must start an operand")
			}
		default:
			if unary {
				return newTokenError(KindSyntax, index, "operator %s is missing its left operand", cur.Op)
			}
		}
	}
	return nil
}

// finish validates the complete stream, which ends with TokenEOF
func (c *syntaxChecker) finish(tokens []Token) error {
	index := len(tokens) - 1
	if c.parenLevel > 0 {
		return newTokenError(KindSyntax, index, "')' expected")
	}
	if index > 0 && tokens[index-1].Type == TokenOperator {
		return newTokenError(KindSyntax, index, "formula cannot end with operator %s", tokens[index-1].Op)
	}
	return nil
}
