package expr

import (
	"fmt"

	"github.com/lemonberrylabs/string-calculator/pkg/types"
)

// EvaluatePostfix runs postfix tokens through a value stack and returns the
// single remaining value, normalized by types.NewNumber. Division follows
// IEEE 754, so dividing by zero yields Infinity or NaN rather than an error.
//
// A MalformedExpression error is returned when an operator finds fewer than
// two operands, when a parenthesis is present, or when the stack does not
// end with exactly one value.
func EvaluatePostfix(postfix []Token) (types.Number, error) {
	stack := make([]float64, 0, len(postfix))

	for _, tok := range postfix {
		switch tok.Kind {
		case TokenNumber:
			stack = append(stack, tok.Value)

		case TokenOperator:
			if len(stack) < 2 {
				return types.Number{}, types.NewMalformedError(
					fmt.Sprintf("operator %q at position %d is missing an operand", string(tok.Op), tok.Pos))
			}
			b := stack[len(stack)-1]
			a := stack[len(stack)-2]
			stack = stack[:len(stack)-2]

			v, err := apply(tok.Op, a, b)
			if err != nil {
				return types.Number{}, err
			}
			stack = append(stack, v)

		default:
			return types.Number{}, types.NewMalformedError(
				fmt.Sprintf("unmatched %s at position %d", tok, tok.Pos))
		}
	}

	switch len(stack) {
	case 1:
		return types.NewNumber(stack[0]), nil
	case 0:
		return types.Number{}, types.NewMalformedError("expression has no operands")
	default:
		return types.Number{}, types.NewMalformedError(
			fmt.Sprintf("expression leaves %d values without an operator", len(stack)))
	}
}

func apply(op byte, a, b float64) (float64, error) {
	switch op {
	case '+':
		return a + b, nil
	case '-':
		return a - b, nil
	case '*':
		return a * b, nil
	case '/':
		return a / b, nil
	default:
		return 0, types.NewMalformedError(fmt.Sprintf("unsupported operator %q", string(op)))
	}
}
