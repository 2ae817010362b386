package gridcalc

import (
	"strings"
)

// Parser builds expression trees from a token stream by precedence
// climbing. the tree is constant-folded before it is returned.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a new parser over a token stream ending in TokenEOF
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseFormula lexes, parses and folds formula text. the leading '=' is
// optional.
func ParseFormula(text string) (Node, error) {
	body := strings.TrimPrefix(strings.TrimSpace(text), "=")
	tokens, err := NewLexer(body).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// Parse parses the tokens into a folded tree
func (p *Parser) Parse() (Node, error) {
	if len(p.tokens) == 0 {
		return nil, newTokenError(KindSyntax, 0, "no tokens to parse")
	}

	node, err := p.parseExpression(1)
	if err != nil {
		return nil, err
	}

	// ensure we've consumed all tokens except EOF
	if tok := p.current(); tok.Type != TokenEOF {
		return nil, newTokenError(KindSyntax, p.pos, "unexpected %s %q after expression", tok.Type, tok.Value)
	}

	return Optimize(node)
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek(offset int) Token {
	pos := p.pos + offset
	if pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[pos]
}

func (p *Parser) expect(tokenType TokenType) error {
	tok := p.current()
	if tok.Type != tokenType {
		return newTokenError(KindSyntax, p.pos, "expected %s, found %s", tokenType, tok.Type)
	}
	p.pos++
	return nil
}

// parseExpression climbs binary operators whose precedence is at least
// minPrec. the right operand is parsed one level higher, so equal
// precedence groups to the left.
func (p *Parser) parseExpression(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.current()
		if tok.Type != TokenOperator {
			break
		}
		prec, isBinary := binaryPrecedence[tok.Op]
		if !isBinary || prec < minPrec {
			break
		}
		p.pos++

		right, err := p.parseExpression(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryOpNode{Left: left, Op: tok.Op, Right: right}
	}

	return left, nil
}

// parseUnary handles prefix +, - and NOT, which bind tighter than any
// binary operator
func (p *Parser) parseUnary() (Node, error) {
	tok := p.current()
	if tok.Type == TokenOperator && (tok.Op == OpAdd || tok.Op == OpSubtract || tok.Op == OpNot) {
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOpNode{Op: tok.Op, Operand: operand}, nil
	}
	return p.parsePrimary()
}

// parsePrimary handles literals, references, function calls and
// parenthesized expressions
func (p *Parser) parsePrimary() (Node, error) {
	tok := p.current()

	switch tok.Type {
	case TokenNumber, TokenBoolean:
		p.pos++
		return &LiteralNode{Value: tok.Literal}, nil

	case TokenCell:
		if p.peek(1).Type == TokenColon {
			return nil, newTokenError(KindSyntax, p.pos+1, "ranges are only allowed as function arguments")
		}
		p.pos++
		return p.parseCellReference(tok, p.pos-1)

	case TokenFunction:
		return p.parseFunctionCall()

	case TokenLeftParen:
		p.pos++
		node, err := p.parseExpression(1)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return node, nil
	}

	return nil, newTokenError(KindSyntax, p.pos, "unexpected %s %q", tok.Type, tok.Value)
}

// parseFunctionCall parses NAME(arg, ...). an argument of the form
// CELL:CELL expands to every cell of the rectangle.
func (p *Parser) parseFunctionCall() (Node, error) {
	name := p.current().Value
	p.pos++

	if err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}

	args := []Node{}
	if p.current().Type == TokenRightParen {
		p.pos++
		return &FunctionCallNode{Name: name, Args: args}, nil
	}

	for {
		if p.current().Type == TokenCell && p.peek(1).Type == TokenColon {
			cells, err := p.parseRange()
			if err != nil {
				return nil, err
			}
			args = append(args, cells...)
		} else {
			arg, err := p.parseExpression(1)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}

		if p.current().Type != TokenComma {
			break
		}
		p.pos++
	}

	if err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return &FunctionCallNode{Name: name, Args: args}, nil
}

// parseRange consumes CELL ':' CELL and returns one reference node per
// cell, column-major
func (p *Parser) parseRange() ([]Node, error) {
	startTok, startPos := p.current(), p.pos
	p.pos += 2 // cell and colon
	endTok, endPos := p.current(), p.pos
	if err := p.expect(TokenCell); err != nil {
		return nil, err
	}

	start, err := p.parseCellAddress(startTok, startPos)
	if err != nil {
		return nil, err
	}
	end, err := p.parseCellAddress(endTok, endPos)
	if err != nil {
		return nil, err
	}

	var cells []Node
	for ref := range (RangeAddress{Start: start, End: end}).Cells() {
		cells = append(cells, &CellRefNode{Ref: ref})
	}
	return cells, nil
}

func (p *Parser) parseCellReference(tok Token, pos int) (Node, error) {
	ref, err := p.parseCellAddress(tok, pos)
	if err != nil {
		return nil, err
	}
	return &CellRefNode{Ref: ref}, nil
}

// parseCellAddress decodes an identifier like "AB12" into a reference
func (p *Parser) parseCellAddress(tok Token, pos int) (CellRef, error) {
	ref, err := ParseCellRef(tok.Value)
	if err != nil {
		return CellRef{}, newTokenError(KindSyntax, pos, "malformed cell reference %q", tok.Value)
	}
	return ref, nil
}
