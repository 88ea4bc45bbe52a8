package expr

// ToPostfix reorders infix tokens into postfix (reverse Polish) order using
// the shunting-yard algorithm. '*' and '/' bind tighter than '+' and '-', and
// operators of equal precedence associate to the left. Parentheses never
// appear in well-formed output.
//
// ToPostfix does no validation. Unbalanced input yields a malformed sequence
// (a leftover '(' is emitted as-is) which EvaluatePostfix rejects.
func ToPostfix(tokens []Token) []Token {
	output := make([]Token, 0, len(tokens))
	var ops []Token

	for _, tok := range tokens {
		switch tok.Kind {
		case TokenNumber:
			output = append(output, tok)

		case TokenOperator:
			// >= rather than > makes equal precedence pop first: 4 - 2 - 1 is (4 - 2) - 1
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.Kind != TokenOperator || precedence[top.Op] < precedence[tok.Op] {
					break
				}
				output = append(output, top)
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, tok)

		case TokenLParen:
			ops = append(ops, tok)

		case TokenRParen:
			for len(ops) > 0 && ops[len(ops)-1].Kind != TokenLParen {
				output = append(output, ops[len(ops)-1])
				ops = ops[:len(ops)-1]
			}
			if len(ops) > 0 {
				ops = ops[:len(ops)-1] // discard the matching '('
			}
		}
	}

	for i := len(ops) - 1; i >= 0; i-- {
		output = append(output, ops[i])
	}
	return output
}
