package services

import (
	"math"
	"strings"
	"time"

	"github.com/huangang/feedback360/internal/models"
)

// RecommendationClass controls how a recommendation is emphasised on the dashboard.
type RecommendationClass string

const (
	RecommendationStrongPositive RecommendationClass = "strong-positive"
	RecommendationPositive       RecommendationClass = "positive"
	RecommendationNeutralCaution RecommendationClass = "neutral-caution"
	RecommendationNegativeLean   RecommendationClass = "negative-lean"
	RecommendationStrongNegative RecommendationClass = "strong-negative"
	RecommendationNeutralUnknown RecommendationClass = "neutral-unknown"
)

// First match wins; "strong hire" must be checked before "hire".
var recommendationRules = []struct {
	substr string
	class  RecommendationClass
}{
	{"strong hire", RecommendationStrongPositive},
	{"hire", RecommendationPositive},
	{"consider", RecommendationNeutralCaution},
	{"caution", RecommendationNegativeLean},
	{"do not", RecommendationStrongNegative},
}

func ClassifyRecommendation(text string) RecommendationClass {
	lower := strings.ToLower(text)
	for _, rule := range recommendationRules {
		if strings.Contains(lower, rule.substr) {
			return rule.class
		}
	}
	return RecommendationNeutralUnknown
}

// ScorePercent scales an overall score in [0,5] to a whole percentage.
func ScorePercent(overall float64) int {
	return int(math.Round(clampScore(overall) * 20))
}

// BreakdownFor returns the agent's verdict for c, or {0, ""} when it gave none.
func BreakdownFor(summary models.Summary, c models.Criterion) models.CriterionBreakdown {
	if b, ok := summary.Breakdown[c]; ok {
		return b
	}
	return models.CriterionBreakdown{}
}

type CriterionView struct {
	Key      models.Criterion `json:"key"`
	Label    string           `json:"label"`
	Score    float64          `json:"score"`
	Percent  int              `json:"percent"`
	Feedback string           `json:"feedback"`
}

type ReviewerScore struct {
	Key     models.Criterion `json:"key"`
	Label   string           `json:"label"`
	Score   int              `json:"score"`
	Comment string           `json:"comment"`
}

// ReviewerDetail is one roster entry with its link state and, once submitted, its answers.
type ReviewerDetail struct {
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	LinkStatus  models.LinkStatus `json:"link_status"`
	Submitted   bool              `json:"submitted"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	Scores      []ReviewerScore   `json:"scores,omitempty"`
}

// SummaryView is the dashboard projection of an assessment.
type SummaryView struct {
	AssessmentID        string                  `json:"assessment_id"`
	CandidateName       string                  `json:"candidate_name"`
	CandidateRole       string                  `json:"candidate_role"`
	Status              models.AssessmentStatus `json:"status"`
	CreatedAt           time.Time               `json:"created_at"`
	HasAnalysis         bool                    `json:"has_analysis"`
	OverallScore        float64                 `json:"overall_score"`
	ScorePercent        int                     `json:"score_percent"`
	Recommendation      string                  `json:"recommendation"`
	RecommendationClass RecommendationClass     `json:"recommendation_class"`
	Rationale           string                  `json:"recommendation_rationale"`
	Strengths           []string                `json:"strengths"`
	Concerns            []string                `json:"concerns"`
	ConsensusAreas      []string                `json:"consensus_areas"`
	ExecutiveSummary    string                  `json:"executive_summary"`
	Breakdown           []CriterionView         `json:"breakdown"`
	Reviewers           []ReviewerDetail        `json:"reviewers"`
	Invitation          models.InvitationStatus `json:"invitation_status"`
	ReviewerCount       int                     `json:"reviewer_count"`
	ResponseCount       int                     `json:"response_count"`
	ResponseRate        int                     `json:"response_rate"`
}

// analysisOf returns the attached analysis or an empty one.
func analysisOf(a models.Assessment) models.Analysis {
	if a.ExternalAnalysis == nil {
		return models.Analysis{}
	}
	return *a.ExternalAnalysis
}

func RenderSummary(a models.Assessment) SummaryView {
	analysis := analysisOf(a)
	summary := analysis.Summary

	view := SummaryView{
		AssessmentID:        a.ID,
		CandidateName:       a.CandidateName,
		CandidateRole:       a.CandidateRole,
		Status:              a.Status,
		CreatedAt:           a.CreatedAt,
		HasAnalysis:         hasSummary(summary),
		OverallScore:        clampScore(summary.OverallScore),
		ScorePercent:        ScorePercent(summary.OverallScore),
		Recommendation:      summary.Recommendation,
		RecommendationClass: ClassifyRecommendation(summary.Recommendation),
		Rationale:           summary.Rationale,
		Strengths:           nonNil(summary.Strengths),
		Concerns:            nonNil(summary.Concerns),
		ConsensusAreas:      nonNil(summary.ConsensusAreas),
		ExecutiveSummary:    summary.ExecutiveSummary,
		Invitation:          analysis.InvitationStatus,
		ReviewerCount:       len(a.Reviewers),
		ResponseCount:       len(a.Submissions),
	}

	for _, c := range models.AllCriteria {
		b := BreakdownFor(summary, c)
		view.Breakdown = append(view.Breakdown, CriterionView{
			Key:      c,
			Label:    c.Label(),
			Score:    clampScore(b.Score),
			Percent:  ScorePercent(b.Score),
			Feedback: b.Feedback,
		})
	}

	view.Reviewers = make([]ReviewerDetail, 0, len(a.Reviewers))
	for i, r := range a.Reviewers {
		detail := ReviewerDetail{Name: r.Name, Email: r.Email, LinkStatus: models.LinkPending}
		if i < len(a.FormLinks) {
			detail.LinkStatus = a.FormLinks[i].Status
		}
		if sub, ok := submissionFrom(a, r.Email); ok {
			submittedAt := sub.SubmittedAt
			detail.Submitted = true
			detail.SubmittedAt = &submittedAt
			for _, c := range models.AllCriteria {
				detail.Scores = append(detail.Scores, ReviewerScore{
					Key:     c,
					Label:   c.Label(),
					Score:   sub.Scores[c],
					Comment: sub.TextResponses[c],
				})
			}
		}
		view.Reviewers = append(view.Reviewers, detail)
	}

	if len(a.Reviewers) > 0 {
		view.ResponseRate = int(math.Round(float64(len(a.Submissions)) * 100 / float64(len(a.Reviewers))))
	}
	return view
}

func submissionFrom(a models.Assessment, email string) (models.FeedbackSubmission, bool) {
	for _, s := range a.Submissions {
		if models.SameEmail(s.ReviewerEmail, email) {
			return s, true
		}
	}
	return models.FeedbackSubmission{}, false
}

// hasSummary distinguishes an analysed assessment from one carrying only invitation counters.
func hasSummary(s models.Summary) bool {
	return s.Recommendation != "" || s.OverallScore > 0 || len(s.Breakdown) > 0 || s.ExecutiveSummary != ""
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
