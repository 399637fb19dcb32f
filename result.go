package mapengine

import (
	"strings"

	"github.com/kaptinlin/go-i18n"
)

// IssueCode identifies a localizable message template, grounded on
// result.go's EvaluationError.Code/Localize split between a stable code and
// localizer-rendered text.
type IssueCode string

const (
	CodeMixedTypes    IssueCode = "issue.mixed_types"
	CodeMissingValues IssueCode = "issue.missing_values"
)

// LocalizedIssue pairs a message code and its interpolation params with the
// default English rendering produced by detectIssues.
type LocalizedIssue struct {
	Code    IssueCode
	Params  map[string]any
	Message string
}

func (i LocalizedIssue) Error() string { return i.Message }

// Localize renders the issue via localizer; with a nil localizer it falls
// back to the default English message, matching EvaluationError.Localize.
func (i LocalizedIssue) Localize(localizer *i18n.Localizer) string {
	if localizer == nil {
		return i.Message
	}
	return localizer.Get(string(i.Code), i18n.Vars(i.Params))
}

// LocalizePayloadIssues renders AnalyzePayload's PayloadIssues through
// localizer, preserving order.
func LocalizePayloadIssues(issues []PayloadIssue, localizer *i18n.Localizer) []string {
	out := make([]string, len(issues))
	for idx, issue := range issues {
		out[idx] = localizedIssueFor(issue).Localize(localizer)
	}
	return out
}

func localizedIssueFor(issue PayloadIssue) LocalizedIssue {
	return LocalizedIssue{
		Code:    issueCodeFor(issue),
		Params:  map[string]any{"field": issue.Field},
		Message: issue.Message,
	}
}

func issueCodeFor(issue PayloadIssue) IssueCode {
	if strings.HasPrefix(issue.Message, "Mixed value types") {
		return CodeMixedTypes
	}
	return CodeMissingValues
}
