package expr

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lemonberrylabs/string-calculator/pkg/types"
)

var (
	invalidCharPattern  = regexp.MustCompile(`[^0-9+\-*/().\s]`)
	digitPattern        = regexp.MustCompile(`[0-9]`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
	numberPattern       = regexp.MustCompile(`\d+(?:\.\d+)?`)
	operatorRunPattern  = regexp.MustCompile(`[+\-*/]{2,}`)
	strayDecimalPattern = regexp.MustCompile(`\.`)
)

// numberPlaceholder stands in for every numeric literal once whitespace is
// stripped, so operator runs are checked against a one-symbol-per-operand
// form of the expression.
const numberPlaceholder = "N"

// IsBalanced reports whether every ')' closes an earlier '(' and no '(' is
// left open. Characters other than parentheses are ignored, so the empty
// string is balanced.
func IsBalanced(expression string) bool {
	depth := 0
	for i := 0; i < len(expression); i++ {
		switch expression[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// IsLexicallyValid reports whether expression uses only digits, the four
// operators, parentheses, decimal points and whitespace, contains at least
// one digit, and never places two operators next to each other. It does not
// check parenthesis balance.
func IsLexicallyValid(expression string) bool {
	return lexicalError(expression) == nil
}

// lexicalError explains why expression fails IsLexicallyValid.
func lexicalError(expression string) *types.CalcError {
	if loc := invalidCharPattern.FindStringIndex(expression); loc != nil {
		return types.NewSyntaxError(fmt.Sprintf("invalid character %q at position %d",
			expression[loc[0]:loc[1]], loc[0]))
	}

	if !digitPattern.MatchString(expression) {
		return types.NewSyntaxError("expression contains no numbers")
	}

	normalized := whitespacePattern.ReplaceAllString(expression, "")
	normalized = numberPattern.ReplaceAllString(normalized, numberPlaceholder)

	if run := operatorRunPattern.FindString(normalized); run != "" {
		return types.NewSyntaxError(fmt.Sprintf("consecutive operators %q", run))
	}

	return nil
}

// decimalError rejects a decimal point without digits on both sides ("1.",
// ".5", "1.2.3"). IsLexicallyValid admits these, but the tokenizer would
// silently drop the point and evaluate a different number.
func decimalError(expression string) *types.CalcError {
	normalized := whitespacePattern.ReplaceAllString(expression, "")
	normalized = numberPattern.ReplaceAllString(normalized, numberPlaceholder)
	if strayDecimalPattern.MatchString(normalized) {
		return types.NewSyntaxError("misplaced decimal point")
	}
	return nil
}

// Check validates expression in a fixed order: empty input, lexical
// validity and decimal points, then parenthesis balance. It returns the first failure as a
// *types.CalcError, or nil when the expression may be evaluated.
func Check(expression string) error {
	if strings.TrimSpace(expression) == "" {
		return types.NewEmptyExpressionError()
	}
	if err := lexicalError(expression); err != nil {
		return err
	}
	if err := decimalError(expression); err != nil {
		return err
	}
	if !IsBalanced(expression) {
		return types.NewUnbalancedError()
	}
	return nil
}
