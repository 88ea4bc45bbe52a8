// Package expr implements the calculator's expression pipeline: parenthesis
// balance checking, lexical validation, tokenization, infix-to-postfix
// conversion and stack-based evaluation of +, -, * and / over decimal numbers.
package expr

import "strconv"

// TokenKind represents the kind of a lexical token.
type TokenKind int

const (
	TokenNumber   TokenKind = iota // integer or decimal literal
	TokenOperator                  // + - * /
	TokenLParen                    // (
	TokenRParen                    // )
)

// Token represents a single lexical token. Tokens are values and are never
// mutated after the lexer produces them.
type Token struct {
	Kind  TokenKind
	Text  string  // raw source text
	Value float64 // parsed value (for TokenNumber)
	Op    byte    // operator symbol (for TokenOperator)
	Pos   int     // byte offset in source
}

// String returns a debug-friendly representation of the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenNumber:
		return "NUMBER"
	case TokenOperator:
		return "OPERATOR"
	case TokenLParen:
		return "LPAREN"
	case TokenRParen:
		return "RPAREN"
	default:
		return "UNKNOWN"
	}
}

// String returns the token's source text, or a synthesized one for tokens
// built by hand.
func (t Token) String() string {
	if t.Text != "" {
		return t.Text
	}
	switch t.Kind {
	case TokenNumber:
		return strconv.FormatFloat(t.Value, 'f', -1, 64)
	case TokenOperator:
		return string(t.Op)
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	default:
		return "?"
	}
}

// Num builds a number token.
func Num(v float64) Token {
	return Token{Kind: TokenNumber, Value: v}
}

// Op builds an operator token.
func Op(op byte) Token {
	return Token{Kind: TokenOperator, Op: op}
}

// precedence ranks the binary operators. Higher binds tighter.
var precedence = map[byte]int{
	'+': 1,
	'-': 1,
	'*': 2,
	'/': 2,
}

// isOperator reports whether ch is one of the four binary operators.
func isOperator(ch byte) bool {
	_, ok := precedence[ch]
	return ok
}
