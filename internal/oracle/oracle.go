// Package oracle wraps the external AI grading service. Its output is
// always advisory: it never marks a record graded and never reaches a
// student's total.
package oracle

import "context"

// Result is the oracle's assessment of one answer image.
type Result struct {
	Score      float64 `json:"score"`
	Comment    string  `json:"comment"`
	Confidence float64 `json:"confidence"`
}

// Client grades one answer image. correctAnswer is empty for question
// types that carry no key (the oracle then judges free-form content).
// Implementations must respect ctx deadlines; callers impose the timeout.
type Client interface {
	Grade(ctx context.Context, imageURL string, fullScore float64, correctAnswer string) (*Result, error)
}
