package expr

import (
	"math"
	"testing"

	"github.com/lemonberrylabs/string-calculator/pkg/types"
)

func TestIsBalanced(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"2 + 3 * (4 - 1)", true},
		{"(4 + 5) * (4 / 2)", true},
		{"((()))", true},
		{"2 + 3) * (4 - 1", false},
		{"2 + 3) * 4", false},
		{"2 + (3", false},
		{")(", false},
		{"(()", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsBalanced(tt.input); got != tt.want {
				t.Errorf("IsBalanced(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsLexicallyValid(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", false},
		{"   ", false},
		{"4 + 5 - (3 * 2)", true},
		{" ( 12 + 34 ) / 2 - 7 * (3 + 1) ", true},
		{"34.7 + 12.2", true},
		{"2 + (3", true}, // balance is checked separately
		{"5 + 3 % 2", false},
		{"7 $ 1", false},
		{"4 + 5a", false},
		{"10 & 2", false},
		{"9 - e + 3 * r", false},
		{"((()))", false},
		{"+-", false},
		{"+ - * /", false},
		{"5 ++ 2", false},
		{"1 -- 8 ** 3", false},
		{"5 ** 2 / 4", false},
		{"5 + + 2", false}, // whitespace does not separate operators
		{"1.", true}, // decimal points are checked by Check
		{".5 + 1", true},
		{"1.2.3", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsLexicallyValid(tt.input); got != tt.want {
				t.Errorf("IsLexicallyValid(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize(" 12.5*(3 - 40)")
	want := []struct {
		kind TokenKind
		text string
		pos  int
	}{
		{TokenNumber, "12.5", 1},
		{TokenOperator, "*", 5},
		{TokenLParen, "(", 6},
		{TokenNumber, "3", 7},
		{TokenOperator, "-", 9},
		{TokenNumber, "40", 11},
		{TokenRParen, ")", 13},
	}

	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(tokens), tokens, len(want))
	}
	for i, w := range want {
		tok := tokens[i]
		if tok.Kind != w.kind || tok.Text != w.text || tok.Pos != w.pos {
			t.Errorf("token %d: got %s %q @%d, want %s %q @%d",
				i, tok.Kind, tok.Text, tok.Pos, w.kind, w.text, w.pos)
		}
	}
	if tokens[0].Value != 12.5 {
		t.Errorf("expected 12.5, got %v", tokens[0].Value)
	}
	if tokens[1].Op != '*' {
		t.Errorf("expected '*', got %q", tokens[1].Op)
	}
}

func TestTokenizeLeadingMinusIsOperator(t *testing.T) {
	tokens := Tokenize("-5")
	if len(tokens) != 2 || tokens[0].Kind != TokenOperator || tokens[1].Kind != TokenNumber {
		t.Fatalf("got %v, want [- 5] as operator and number", tokens)
	}
}

func TestTokenizeNothingRecognized(t *testing.T) {
	if tokens := Tokenize("   "); len(tokens) != 0 {
		t.Errorf("expected no tokens, got %v", tokens)
	}
}

func postfixString(tokens []Token) string {
	s := ""
	for i, tok := range tokens {
		if i > 0 {
			s += " "
		}
		s += tok.String()
	}
	return s
}

func TestToPostfix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2", "1 2 +"},
		{"2 + 3 * 4", "2 3 4 * +"},
		{"(2 + 3) * 4", "2 3 + 4 *"},
		{"4 - 2 - 1", "4 2 - 1 -"},
		{"8 / 4 / 2", "8 4 / 2 /"},
		{"4 + 3 * 2 - 4 / 2", "4 3 2 * + 4 2 / -"},
		{"46 + 71 * (4 - 1)", "46 71 4 1 - * +"},
		{"((1))", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := postfixString(ToPostfix(Tokenize(tt.input)))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToPostfixHandBuiltTokens(t *testing.T) {
	got := postfixString(ToPostfix([]Token{Num(1), Op('-'), Num(2), Op('*'), Num(3)}))
	if got != "1 2 3 * -" {
		t.Errorf("got %q", got)
	}
}

func TestEvaluateTokenized(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"46 + 71 * (4 - 1)", 259},
		{"(46 + 71) * (4 - 1)", 351},
		{"4 + 3 * 2 - 4 / 2", 8},
		{"4 - 2 - 1", 1},
		{"34.7 + 12.2", 46.9},
		{"24.1 / 8.3", 2.9},
		{"(2 + 3) * (4 - 1)", 15},
		{"10 / 4", 2.5},
		{"1 / 3", 0.33},
		{"(14.2 * 7.1) / 0.45", 224.04},
		{"1.15 - 4", -2.85},
		{"42", 42},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := EvaluateTokenized(tt.input)
			if err != nil {
				t.Fatalf("eval error: %v", err)
			}
			if got.Float64() != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateTokenizedMalformed(t *testing.T) {
	inputs := []string{
		"46 + * 71",
		"1 +",
		"* 2",
		"1 2",
		"",
		"()",
		"(1 + 2",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := EvaluateTokenized(input)
			if err == nil {
				t.Fatal("expected MalformedExpression")
			}
			ce, ok := err.(*types.CalcError)
			if !ok {
				t.Fatalf("expected CalcError, got %T", err)
			}
			if !ce.HasTag(types.TagMalformedExpression) {
				t.Errorf("expected MalformedExpression tag, got %v", ce.Tags)
			}
		})
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 / 0", "Infinity"},
		{"0 - 1 / 0", "-Infinity"},
		{"0 / 0", "NaN"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Evaluate(tt.input)
			if err != nil {
				t.Fatalf("division by zero must not fail: %v", err)
			}
			if !got.IsAnomaly() {
				t.Errorf("expected anomaly, got %v", got)
			}
			if got.String() != tt.want {
				t.Errorf("got %q, want %q", got.String(), tt.want)
			}
		})
	}
	got, _ := Evaluate("0 / 0")
	if !math.IsNaN(got.Float64()) {
		t.Errorf("expected NaN, got %v", got.Float64())
	}
}

func TestEvaluateValidationOrder(t *testing.T) {
	tests := []struct {
		input string
		tag   string
	}{
		{"", types.TagEmptyExpression},
		{"  \t ", types.TagEmptyExpression},
		{"((()))", types.TagInvalidCharacterOrSyntax},
		{"(2 ++ 3", types.TagInvalidCharacterOrSyntax},
		{"4 + 5a", types.TagInvalidCharacterOrSyntax},
		{"46 + (71 * 1", types.TagUnbalancedParentheses},
		{"2 + 3) * (4 - 1", types.TagUnbalancedParentheses},
		{"(1 +) 2", types.TagMalformedExpression},
		{"1 2", types.TagMalformedExpression},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Evaluate(tt.input)
			if err == nil {
				t.Fatalf("expected %s", tt.tag)
			}
			ce := types.AsCalcError(err)
			if ce == nil {
				t.Fatalf("expected CalcError, got %T", err)
			}
			if ce.Reason() != tt.tag {
				t.Errorf("got %s, want %s", ce.Reason(), tt.tag)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	if err := Check("(4+5) * (5-2)"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := Check("5 + 3 % 2")
	ce := types.AsCalcError(err)
	if ce == nil {
		t.Fatalf("expected CalcError, got %v", err)
	}
	if ce.Message != `invalid character "%" at position 6` {
		t.Errorf("unexpected message %q", ce.Message)
	}
}

func TestCheckRejectsMisplacedDecimalPoint(t *testing.T) {
	for _, input := range []string{"1.", ".5 + 1", "1.2.3", "(2 + 3.) * 4"} {
		t.Run(input, func(t *testing.T) {
			ce := types.AsCalcError(Check(input))
			if ce == nil {
				t.Fatalf("Check(%q) accepted a misplaced decimal point", input)
			}
			if ce.Reason() != types.TagInvalidCharacterOrSyntax || ce.Message != "misplaced decimal point" {
				t.Errorf("got %s %q", ce.Reason(), ce.Message)
			}
		})
	}
	if err := Check("12.25 * (0.5 + 3)"); err != nil {
		t.Errorf("unexpected error for well-formed decimals: %v", err)
	}
}

func TestEvaluateIsRepeatable(t *testing.T) {
	inputs := []string{"46 + 71 * (4 - 1)", "24.1 / 8.3", "46 + * 71", "1 / 0"}
	for _, input := range inputs {
		first, firstErr := Evaluate(input)
		for i := 0; i < 3; i++ {
			got, err := Evaluate(input)
			if (err == nil) != (firstErr == nil) {
				t.Fatalf("%q: error changed between runs: %v vs %v", input, firstErr, err)
			}
			if err == nil && !got.Equal(first) {
				t.Fatalf("%q: result changed between runs: %v vs %v", input, first, got)
			}
		}
	}
}
