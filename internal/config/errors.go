package config

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Issue is one rejected configuration value. Field is the dotted path of
// the key, such as auth.bearer.token.
type Issue struct {
	Field   string
	Problem string
}

// Section returns the top-level key Field belongs to.
func (i Issue) Section() string {
	section, _, _ := strings.Cut(i.Field, ".")
	return section
}

func (i Issue) String() string {
	return i.Field + " " + i.Problem
}

// ValidationError lists every problem found in a configuration, in the
// order the sections were checked.
type ValidationError struct {
	Issues []Issue
}

// Reject records that field has problem.
func (e *ValidationError) Reject(field, problem string) {
	e.Issues = append(e.Issues, Issue{Field: field, Problem: problem})
}

// Rejectf records a formatted problem for field.
func (e *ValidationError) Rejectf(field, format string, args ...any) {
	e.Reject(field, fmt.Sprintf(format, args...))
}

// Sections returns the sections with at least one issue.
func (e *ValidationError) Sections() []string {
	return lo.Uniq(lo.Map(e.Issues, func(i Issue, _ int) string {
		return i.Section()
	}))
}

// Error reports a single issue inline and groups several by section.
func (e *ValidationError) Error() string {
	switch len(e.Issues) {
	case 0:
		return "invalid config"
	case 1:
		return "invalid config: " + e.Issues[0].String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "invalid config (%d problems)", len(e.Issues))
	grouped := lo.GroupBy(e.Issues, func(i Issue) string { return i.Section() })
	for _, section := range e.Sections() {
		fmt.Fprintf(&b, "\n  %s:", section)
		for _, issue := range grouped[section] {
			fmt.Fprintf(&b, "\n    - %s", issue)
		}
	}
	return b.String()
}

// Err returns e when it holds issues and nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}
