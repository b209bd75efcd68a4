package services

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/huangang/feedback360/internal/models"
)

const reportRule = "=================================================="

// ExportReport renders the assessment as a plain-text report.
// The output depends only on a, so equal values give byte-identical reports.
func ExportReport(a models.Assessment) string {
	summary := analysisOf(a).Summary
	var sb strings.Builder

	sb.WriteString(reportRule + "\n")
	sb.WriteString("360° FEEDBACK REPORT\n")
	sb.WriteString(reportRule + "\n")
	fmt.Fprintf(&sb, "Candidate: %s\n", a.CandidateName)
	fmt.Fprintf(&sb, "Role: %s\n", a.CandidateRole)
	fmt.Fprintf(&sb, "Assessment ID: %s\n", a.ID)
	if !a.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "Created: %s\n", a.CreatedAt.UTC().Format("2006-01-02 15:04 UTC"))
	} else {
		sb.WriteString("Created: \n")
	}
	fmt.Fprintf(&sb, "Responses: %d/%d\n", len(a.Submissions), len(a.Reviewers))

	writeSection(&sb, "OVERALL SCORE")
	fmt.Fprintf(&sb, "%s/5 (%d%%)\n", formatScore(summary.OverallScore), ScorePercent(summary.OverallScore))

	writeSection(&sb, "RECOMMENDATION")
	sb.WriteString(summary.Recommendation + "\n")
	fmt.Fprintf(&sb, "Rationale: %s\n", summary.Rationale)

	writeSection(&sb, "STRENGTHS")
	writeList(&sb, summary.Strengths)

	writeSection(&sb, "CONCERNS")
	writeList(&sb, summary.Concerns)

	writeSection(&sb, "CRITERIA BREAKDOWN")
	for _, c := range models.AllCriteria {
		b := BreakdownFor(summary, c)
		fmt.Fprintf(&sb, "%s: %s/5\n", c.Label(), formatScore(b.Score))
		if b.Feedback != "" {
			fmt.Fprintf(&sb, "  %s\n", b.Feedback)
		}
	}

	writeSection(&sb, "CONSENSUS AREAS")
	writeList(&sb, summary.ConsensusAreas)

	writeSection(&sb, "EXECUTIVE SUMMARY")
	sb.WriteString(summary.ExecutiveSummary + "\n")

	return sb.String()
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", len(title)) + "\n")
}

func writeList(sb *strings.Builder, items []string) {
	for _, item := range items {
		sb.WriteString("- " + item + "\n")
	}
}

func formatScore(f float64) string {
	return strconv.FormatFloat(clampScore(f), 'f', 1, 64)
}

// ReportFilename names the downloaded report, e.g. feedback-report-sarah-johnson-2026-01-05.txt.
func ReportFilename(a models.Assessment) string {
	slug := slugify(a.CandidateName)
	if slug == "" {
		slug = slugify(a.ID)
	}
	if a.CreatedAt.IsZero() {
		return "feedback-report-" + slug + ".txt"
	}
	return "feedback-report-" + slug + "-" + a.CreatedAt.UTC().Format("2006-01-02") + ".txt"
}

func slugify(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
