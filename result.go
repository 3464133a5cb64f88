package mailprobe

import (
	"slices"

	"github.com/optimode/mailprobe/types"
)

// Result is the verdict for one address.
type Result struct {
	Email  string       `json:"email"`
	Status types.Status `json:"status"`
	Score  int          `json:"score"`
	Checks types.Checks `json:"checks"`
	Issues []string     `json:"issues"`
}

func newResult(email string) Result {
	return Result{
		Email:  email,
		Status: types.StatusInvalid,
		Issues: []string{},
	}
}

// HasIssue reports whether issue is among the result's issues.
func (r Result) HasIssue(issue string) bool {
	return slices.Contains(r.Issues, issue)
}

// Summary counts results by status.
type Summary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
	Risky   int `json:"risky"`
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case types.StatusValid:
			s.Valid++
		case types.StatusRisky:
			s.Risky++
		default:
			s.Invalid++
		}
	}
	return s
}
