// Package triage maps completed symptom-category answers to care
// recommendation bundles.
package triage

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/terra-clan/health-assistant/internal/models"
	"github.com/terra-clan/health-assistant/internal/wizard"
)

// Resolve returns one recommendation per reported issue, in answer order.
// Categories answered with models.NoIssueOption, and categories missing from
// table, produce nothing.
func Resolve(answers *wizard.Answers[string], table models.RecommendationTable) []models.CategoryRecommendation {
	var out []models.CategoryRecommendation

	for _, key := range answers.Keys() {
		text, _ := answers.Get(key)
		if text == models.NoIssueOption {
			continue
		}

		category := models.Tag(key)
		pair, ok := table[category]
		if !ok {
			continue
		}

		out = append(out, models.CategoryRecommendation{
			Category:    category,
			Title:       Title(category),
			Answer:      text,
			Modern:      pair.Modern,
			Traditional: pair.Traditional,
		})
	}

	return out
}

// Title returns the display name of a category, e.g. "Musculoskeletal"
func Title(category models.Tag) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(category), "-", " "))
}
