package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangang/feedback360/internal/models"
)

const invitationPromptTemplate = `You are the invitation dispatcher for a 360-degree feedback process.

Candidate: {{candidate_name}}
Role: {{candidate_role}}
Assessment ID: {{assessment_id}}

Send one invitation email to each reviewer below. Each reviewer must receive exactly
their own form link; do not invent or alter links.

Reviewers:
{{reviewers}}

Respond with JSON only, using this shape:
{
  "form_links": [
    {"reviewer_email": "...", "unique_form_link": "...", "status": "sent|pending|failed"}
  ],
  "invitation_status": {
    "total_invited": 0,
    "successfully_sent": 0,
    "failed": 0,
    "pending_responses": 0
  }
}`

const analysisPromptTemplate = `You are an experienced hiring analyst summarising 360-degree feedback.

Candidate: {{candidate_name}}
Role: {{candidate_role}}
Reviewers invited: {{invited}}
Responses received: {{responded}}

Each criterion was scored from 1 (poor) to 5 (excellent). Criteria:
{{criteria}}

Submissions:
{{submissions}}

Respond with JSON only, using this shape:
{
  "summary": {
    "overall_score": 0.0,
    "recommendation": "Strong Hire | Hire | Consider | Proceed with Caution | Do Not Proceed",
    "recommendation_rationale": "...",
    "strengths": ["..."],
    "concerns": ["..."],
    "breakdown": {
      "<criterion_key>": {"score": 0.0, "feedback": "..."}
    },
    "consensus_areas": ["..."],
    "executive_summary": "..."
  }
}
overall_score and every breakdown score must be between 0 and 5.`

type promptReviewer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Link  string `json:"unique_form_link"`
}

// BuildInvitationPrompt asks the agent to deliver the links of the given reviewers.
func BuildInvitationPrompt(a models.Assessment, reviewers []models.Reviewer) string {
	var list []promptReviewer
	for _, r := range reviewers {
		entry := promptReviewer{Name: r.Name, Email: r.Email}
		for _, l := range a.FormLinks {
			if models.SameEmail(l.Email, r.Email) {
				entry.Link = l.Link
				break
			}
		}
		list = append(list, entry)
	}

	prompt := invitationPromptTemplate
	prompt = strings.ReplaceAll(prompt, "{{candidate_name}}", a.CandidateName)
	prompt = strings.ReplaceAll(prompt, "{{candidate_role}}", a.CandidateRole)
	prompt = strings.ReplaceAll(prompt, "{{assessment_id}}", a.ID)
	prompt = strings.ReplaceAll(prompt, "{{reviewers}}", indentJSON(list))
	return prompt
}

type promptSubmission struct {
	Reviewer string                       `json:"reviewer"`
	Scores   map[models.Criterion]int    `json:"scores"`
	Comments map[models.Criterion]string `json:"comments"`
}

// BuildAnalysisPrompt asks the agent to summarise every submission collected so far.
func BuildAnalysisPrompt(a models.Assessment) string {
	var criteria strings.Builder
	for _, c := range models.AllCriteria {
		fmt.Fprintf(&criteria, "- %s (%s)\n", c, c.Label())
	}

	subs := make([]promptSubmission, 0, len(a.Submissions))
	for _, s := range a.Submissions {
		subs = append(subs, promptSubmission{
			Reviewer: s.ReviewerName,
			Scores:   s.Scores,
			Comments: s.TextResponses,
		})
	}

	prompt := analysisPromptTemplate
	prompt = strings.ReplaceAll(prompt, "{{candidate_name}}", a.CandidateName)
	prompt = strings.ReplaceAll(prompt, "{{candidate_role}}", a.CandidateRole)
	prompt = strings.ReplaceAll(prompt, "{{invited}}", fmt.Sprint(len(a.Reviewers)))
	prompt = strings.ReplaceAll(prompt, "{{responded}}", fmt.Sprint(len(a.Submissions)))
	prompt = strings.ReplaceAll(prompt, "{{criteria}}", strings.TrimRight(criteria.String(), "\n"))
	prompt = strings.ReplaceAll(prompt, "{{submissions}}", indentJSON(subs))
	return prompt
}

func indentJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}
