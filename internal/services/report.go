package services

import (
	"fmt"
	"strings"

	"github.com/confradar/confradar/pkg/models"
)

// ReportBuilder renders the ranked list as deterministic text. The
// same table feeds the remote answer generator as prompt context and
// stands in as the response when that generator fails.
type ReportBuilder struct{}

func NewReportBuilder() *ReportBuilder {
	return &ReportBuilder{}
}

// IntentSummary is a compact, stable rendering of the parsed intent.
func (b *ReportBuilder) IntentSummary(intent models.UserIntent) string {
	var parts []string
	if intent.Rank != "" {
		parts = append(parts, "rank="+intent.Rank)
	}
	if intent.DaysAvailable != nil {
		parts = append(parts, fmt.Sprintf("days_available=%d", *intent.DaysAvailable))
	}
	if len(intent.Keywords) > 0 {
		parts = append(parts, "keywords="+strings.Join(intent.Keywords, ","))
	}
	if len(parts) == 0 {
		return "no explicit constraints"
	}
	return strings.Join(parts, " ")
}

// Table renders one line per result: position, title, tier, deadline
// with its local notation and countdown, and the score breakdown.
func (b *ReportBuilder) Table(results []models.RankedConference) string {
	if len(results) == 0 {
		return "no matching conferences"
	}

	var sb strings.Builder
	for i, r := range results {
		tier := r.Conference.Rank
		if tier == "" {
			tier = "-"
		}

		deadline := "no dated deadline"
		if r.Deadline != nil {
			deadline = fmt.Sprintf("%s %s (%s)", r.Deadline.LocalTime, r.Deadline.Timezone, r.Deadline.Countdown)
		}

		fmt.Fprintf(&sb, "%d. %s [%s/%s] — %s — content %d, time %d, difficulty %d, overall %d\n",
			i+1, r.Conference.Title, tier, r.Conference.Category, deadline,
			r.Score.ContentMatch, r.Score.TimeFeasibility, r.Score.Difficulty, r.Score.Overall)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Report is the deterministic fallback answer.
func (b *ReportBuilder) Report(intent models.UserIntent, results []models.RankedConference) string {
	var sb strings.Builder
	sb.WriteString("Parsed request: ")
	sb.WriteString(b.IntentSummary(intent))
	sb.WriteString("\n\n")

	if len(results) == 0 {
		sb.WriteString("No conferences matched the request.")
		return sb.String()
	}

	sb.WriteString("Top candidates:\n")
	sb.WriteString(b.Table(results))
	return sb.String()
}
