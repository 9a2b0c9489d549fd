// Package questionnaire runs the vitals and triage questionnaires in a
// terminal.
package questionnaire

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/terra-clan/health-assistant/internal/models"
)

// Sessions is the part of the assessment manager the terminal front-end drives
type Sessions interface {
	Create(ctx context.Context, kind models.AssessmentKind) (*models.Session, error)
	Answer(ctx context.Context, id string, option int) (*models.Session, error)
	Dashboard(ctx context.Context, id string) (*models.Dashboard, error)
}

// PromptFunc asks one question and returns the chosen option index
type PromptFunc func(q *models.QuestionView, p models.Progress) (int, error)

// Run walks a questionnaire with interactive select prompts and prints the
// result to out
func Run(ctx context.Context, sessions Sessions, kind models.AssessmentKind, out io.Writer) error {
	return RunWith(ctx, sessions, kind, out, huhPrompt)
}

// RunWith is Run with a custom prompt
func RunWith(ctx context.Context, sessions Sessions, kind models.AssessmentKind, out io.Writer, prompt PromptFunc) error {
	s, err := sessions.Create(ctx, kind)
	if err != nil {
		return err
	}

	for s.Status == models.WizardInProgress {
		choice, err := prompt(s.Question, *s.Progress)
		if err != nil {
			return err
		}
		if s, err = sessions.Answer(ctx, s.ID, choice); err != nil {
			return err
		}
	}

	switch kind {
	case models.KindVitals:
		d, err := sessions.Dashboard(ctx, s.ID)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, RenderDashboard(*d))
	case models.KindIssues:
		fmt.Fprintln(out, RenderRecommendations(s.Recommendations))
	}
	return nil
}

func huhPrompt(q *models.QuestionView, p models.Progress) (int, error) {
	options := make([]huh.Option[int], len(q.Options))
	for i, o := range q.Options {
		options[i] = huh.NewOption(o.Text, o.Index)
	}

	var choice int
	err := huh.NewSelect[int]().
		Title(q.Prompt).
		Description(ProgressLine(p)).
		Options(options...).
		Value(&choice).
		Run()
	return choice, err
}

// ProgressLine formats progress as "Question 2 of 5 (40% Complete)"
func ProgressLine(p models.Progress) string {
	return fmt.Sprintf("Question %d of %d (%d%% Complete)", p.Current, p.Total, int(math.Round(p.Percent)))
}

// RenderDashboard draws the four vitals cards side by side
func RenderDashboard(d models.Dashboard) string {
	cards := make([]string, len(d.Cards))
	for i, c := range d.Cards {
		value := lipgloss.NewStyle().Bold(true).Foreground(severityColor(c.Severity)).Render(c.Value)
		body := c.Title + "\n" + value
		if !c.Reported {
			body += "\n" + SubtitleStyle.Render("not reported")
		}
		cards[i] = cardStyle.BorderForeground(severityColor(c.Severity)).Render(body)
	}

	return TitleStyle.Render("Health Overview") + "\n" +
		lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// RenderRecommendations lists the modern and traditional bundles of every
// reported issue
func RenderRecommendations(recs []models.CategoryRecommendation) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Your Personalized Recommendations"))
	b.WriteString("\n")

	if len(recs) == 0 {
		b.WriteString(SubtitleStyle.Render("No issues reported. Keep up the healthy habits!"))
		return b.String()
	}

	for _, r := range recs {
		b.WriteString(labelStyle.Render(r.Title + " Issues"))
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render("You reported: " + r.Answer))
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			bundleStyle.Render(renderBundle(r.Modern)),
			bundleStyle.Render(renderBundle(r.Traditional)),
		))
		b.WriteString("\n")
	}
	return b.String()
}

func renderBundle(bundle models.RecommendationBundle) string {
	lines := []string{labelStyle.Render(bundle.Title), bundle.Description, ""}
	for _, r := range bundle.Recommendations {
		lines = append(lines, "• "+r)
	}
	return strings.Join(lines, "\n")
}
