package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error tag constants for the calculator's failure taxonomy.
const (
	TagEmptyExpression          = "EmptyExpression"
	TagInvalidCharacterOrSyntax = "InvalidCharacterOrSyntax"
	TagUnbalancedParentheses    = "UnbalancedParentheses"
	TagMalformedExpression      = "MalformedExpression"
)

// Messages shown to the person typing into the calculator.
const (
	MessageEmpty       = "Please fill the field"
	MessageInvalid     = "Please enter a valid numbers with operators(+, -, *, /) eg: 1 + 4 + 18"
	MessageParentheses = "Invalid Parentheses"
)

// Codes attached to each failure, stable across transports.
const (
	CodeEmptyExpression int64 = 1 + iota
	CodeInvalidCharacterOrSyntax
	CodeUnbalancedParentheses
	CodeMalformedExpression
)

// CalcError is a non-fatal validation or evaluation failure with message,
// code, and tags.
type CalcError struct {
	Message string
	Code    int64
	Tags    []string
}

// Error implements the error interface.
func (e *CalcError) Error() string {
	return fmt.Sprintf("%s (code=%d, tags=[%s])", e.Message, e.Code, strings.Join(e.Tags, ", "))
}

// HasTag returns true if the error has the specified tag.
func (e *CalcError) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Reason returns the primary tag.
func (e *CalcError) Reason() string {
	if len(e.Tags) == 0 {
		return ""
	}
	return e.Tags[0]
}

// UserMessage maps the failure to one of the three messages the calculator
// form displays.
func (e *CalcError) UserMessage() string {
	switch {
	case e.HasTag(TagEmptyExpression):
		return MessageEmpty
	case e.HasTag(TagUnbalancedParentheses):
		return MessageParentheses
	default:
		return MessageInvalid
	}
}

// AsCalcError unwraps err into a *CalcError. Returns nil if err is not one.
func AsCalcError(err error) *CalcError {
	var ce *CalcError
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}

// NewEmptyExpressionError creates an EmptyExpression error.
func NewEmptyExpressionError() *CalcError {
	return &CalcError{Message: "expression is empty", Code: CodeEmptyExpression, Tags: []string{TagEmptyExpression}}
}

// NewSyntaxError creates an InvalidCharacterOrSyntax error.
func NewSyntaxError(msg string) *CalcError {
	return &CalcError{Message: msg, Code: CodeInvalidCharacterOrSyntax, Tags: []string{TagInvalidCharacterOrSyntax}}
}

// NewUnbalancedError creates an UnbalancedParentheses error.
func NewUnbalancedError() *CalcError {
	return &CalcError{Message: "unbalanced parentheses", Code: CodeUnbalancedParentheses, Tags: []string{TagUnbalancedParentheses}}
}

// NewMalformedError creates a MalformedExpression error.
func NewMalformedError(msg string) *CalcError {
	return &CalcError{Message: msg, Code: CodeMalformedExpression, Tags: []string{TagMalformedExpression}}
}
