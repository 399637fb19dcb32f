package mapengine

import (
	"embed"

	"github.com/kaptinlin/go-i18n"
)

// localesFS embeds the message catalogs behind result.go's IssueCode
// constants (issue.mixed_types, issue.missing_values), not schema-validation
// messages.
//
//go:embed locales/*.json
var localesFS embed.FS

// GetI18n returns the bundle that localizes AnalyzePayload's PayloadIssues
// (result.go's LocalizePayloadIssues), loading locales from localesFS.
func GetI18n() (*i18n.I18n, error) {
	bundle := i18n.NewBundle(
		i18n.WithDefaultLocale("en"),
		i18n.WithLocales("en", "zh-Hans"),
	)

	err := bundle.LoadFS(localesFS, "locales/*.json")

	return bundle, err
}
