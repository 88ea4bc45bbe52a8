package expr

import "github.com/lemonberrylabs/string-calculator/pkg/types"

// EvaluateTokenized tokenizes expression, converts it to postfix and
// evaluates it. It assumes the caller already ran Check; on unvalidated
// input it still never panics, but only operand/operator mismatches are
// reported (as MalformedExpression).
func EvaluateTokenized(expression string) (types.Number, error) {
	return EvaluatePostfix(ToPostfix(Tokenize(expression)))
}

// Evaluate validates expression with Check and, if it passes, evaluates it
// with EvaluateTokenized. Safe to call on raw user input.
func Evaluate(expression string) (types.Number, error) {
	if err := Check(expression); err != nil {
		return types.Number{}, err
	}
	return EvaluateTokenized(expression)
}
