package expr

import (
	"regexp"
	"strconv"
)

// tokenPattern matches a maximal unsigned numeric literal or a single
// operator or parenthesis. Anything else (whitespace included) is skipped.
var tokenPattern = regexp.MustCompile(`\d+(?:\.\d+)?|[-+*/()]`)

// Tokenize scans expression left to right and returns its tokens in source
// order. It expects input that already passed IsLexicallyValid and
// IsBalanced; characters it does not recognize are dropped. A leading '-' is
// an operator token, there is no unary minus.
func Tokenize(expression string) []Token {
	matches := tokenPattern.FindAllStringIndex(expression, -1)
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		text := expression[m[0]:m[1]]
		tokens = append(tokens, newToken(text, m[0]))
	}
	return tokens
}

func newToken(text string, pos int) Token {
	switch ch := text[0]; ch {
	case '(':
		return Token{Kind: TokenLParen, Text: text, Pos: pos}
	case ')':
		return Token{Kind: TokenRParen, Text: text, Pos: pos}
	case '+', '-', '*', '/':
		return Token{Kind: TokenOperator, Text: text, Op: ch, Pos: pos}
	}

	// The pattern only admits digits and one inner '.', so this cannot fail
	// short of overflowing to +Inf, which ParseFloat reports alongside the value.
	v, _ := strconv.ParseFloat(text, 64)
	return Token{Kind: TokenNumber, Text: text, Value: v, Pos: pos}
}
