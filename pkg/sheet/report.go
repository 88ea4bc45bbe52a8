package sheet

import (
	"github.com/lemonberrylabs/string-calculator/pkg/expr"
	"github.com/lemonberrylabs/string-calculator/pkg/types"
)

// Result is the outcome of one sheet entry.
type Result struct {
	Name       string        `json:"name" yaml:"name"`
	Expression string        `json:"expression" yaml:"expression"`
	Value      *types.Number `json:"result,omitempty" yaml:"result,omitempty"`
	Display    string        `json:"display,omitempty" yaml:"display,omitempty"`
	Error      *Failure      `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failure describes why an entry could not be evaluated.
type Failure struct {
	Reason      string `json:"reason" yaml:"reason"`
	Message     string `json:"message" yaml:"message"`
	UserMessage string `json:"userMessage" yaml:"userMessage"`
}

// Report is the outcome of evaluating a whole sheet.
type Report struct {
	Sheet   string   `json:"sheet" yaml:"sheet"`
	Results []Result `json:"results" yaml:"results"`
	Passed  int      `json:"passed" yaml:"passed"`
	Failed  int      `json:"failed" yaml:"failed"`
}

// Evaluate evaluates every entry independently. One failing entry does not
// stop the others.
func (s *Sheet) Evaluate() Report {
	r := Report{Sheet: s.Name, Results: make([]Result, 0, len(s.Entries))}
	for _, e := range s.Entries {
		res := EvaluateOne(e.Name, e.Expression)
		if res.Error != nil {
			r.Failed++
		} else {
			r.Passed++
		}
		r.Results = append(r.Results, res)
	}
	return r
}

// EvaluateOne evaluates a single expression into a Result.
func EvaluateOne(name, expression string) Result {
	res := Result{Name: name, Expression: expression}
	v, err := expr.Evaluate(expression)
	if err != nil {
		res.Error = failureFrom(err)
		return res
	}
	res.Value = &v
	res.Display = v.String()
	return res
}

func failureFrom(err error) *Failure {
	if ce := types.AsCalcError(err); ce != nil {
		return &Failure{Reason: ce.Reason(), Message: ce.Message, UserMessage: ce.UserMessage()}
	}
	return &Failure{Message: err.Error(), UserMessage: types.MessageInvalid}
}
