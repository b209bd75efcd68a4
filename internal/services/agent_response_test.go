package services

import (
	"testing"

	"github.com/huangang/feedback360/internal/models"
)

func TestParseAgentResponse_ResultEnvelopeWithProse(t *testing.T) {
	text := "Here is the analysis you asked for:\n```json\n" +
		`{"result": {"summary": {"overall_score": 3.5, "recommendation": "Hire", "recommendation_rationale": "good", ` +
		`"strengths": ["vision", " "], "breakdown": {"Leadership & Vision": {"score": 4, "feedback": "clear"}, "cultural_fit": 2}}}}` +
		"\n```\nLet me know if you need more."

	p := ParseAgentResponse(text)
	if !p.Parsed || !p.HasSummary {
		t.Fatalf("expected parsed summary, got %+v", p)
	}
	if p.Summary.OverallScore != 3.5 {
		t.Errorf("OverallScore = %v, expected 3.5", p.Summary.OverallScore)
	}
	if p.Summary.Rationale != "good" {
		t.Errorf("Rationale = %q, expected good", p.Summary.Rationale)
	}
	if len(p.Summary.Strengths) != 1 {
		t.Errorf("blank strengths should be dropped: %v", p.Summary.Strengths)
	}
	if b := p.Summary.Breakdown[models.LeadershipVision]; b.Score != 4 || b.Feedback != "clear" {
		t.Errorf("label-keyed breakdown = %+v", b)
	}
	if b := p.Summary.Breakdown[models.CulturalFit]; b.Score != 2 {
		t.Errorf("bare-number breakdown = %+v", b)
	}
}

func TestParseAgentResponse_TopLevelSummary(t *testing.T) {
	p := ParseAgentResponse(`{"overall_score": "4.2", "recommendation": "Strong Hire", "concerns": "none really"}`)
	if !p.HasSummary {
		t.Fatal("top-level summary fields should be recognised")
	}
	if p.Summary.OverallScore != 4.2 {
		t.Errorf("numeric string score = %v, expected 4.2", p.Summary.OverallScore)
	}
	if len(p.Summary.Concerns) != 1 || p.Summary.Concerns[0] != "none really" {
		t.Errorf("single-string list = %v", p.Summary.Concerns)
	}
}

func TestParseAgentResponse_ClampsScores(t *testing.T) {
	p := ParseAgentResponse(`{"summary": {"overall_score": 9, "breakdown": {"team_management": {"score": -2}, "cultural_fit": {"score": "high"}}}}`)
	if p.Summary.OverallScore != 5 {
		t.Errorf("OverallScore = %v, expected clamp to 5", p.Summary.OverallScore)
	}
	if p.Summary.Breakdown[models.TeamManagement].Score != 0 {
		t.Errorf("negative score should clamp to 0")
	}
	if p.Summary.Breakdown[models.CulturalFit].Score != 0 {
		t.Errorf("non-numeric score should be 0")
	}
}

func TestParseAgentResponse_FormLinksAndCounters(t *testing.T) {
	p := ParseAgentResponse(`{"form_links": [
		{"reviewer_email": "john@x.com", "unique_form_link": "https://a", "status": "SENT"},
		{"email": "mia@x.com", "link": "https://b", "status": "bounced"},
		{"link": "https://c"}
	], "invitation_status": {"total_invited": 2, "successfully_sent": 1, "failed": "1", "pending_responses": -3}}`)

	if p.HasSummary {
		t.Error("invitation-only reply should not count as a summary")
	}
	if len(p.FormLinks) != 2 {
		t.Fatalf("links = %d, expected 2 (entry without email dropped)", len(p.FormLinks))
	}
	if p.FormLinks[0].Status != models.LinkSent || p.FormLinks[1].Status != models.LinkFailed {
		t.Errorf("statuses = %q, %q", p.FormLinks[0].Status, p.FormLinks[1].Status)
	}
	if p.FormLinks[1].Link != "https://b" {
		t.Errorf("link alias not honoured: %q", p.FormLinks[1].Link)
	}
	expected := models.InvitationStatus{TotalInvited: 2, SuccessfullySent: 1, Failed: 1, PendingResponses: 0}
	if p.InvitationStatus != expected {
		t.Errorf("InvitationStatus = %+v, expected %+v", p.InvitationStatus, expected)
	}
}

func TestParseAgentResponse_DegradesToEmpty(t *testing.T) {
	for _, text := range []string{"", "no json here", "{broken", `["array"]`, "} backwards {"} {
		p := ParseAgentResponse(text)
		if p.Parsed || p.HasSummary || len(p.FormLinks) != 0 || !p.InvitationStatus.IsZero() {
			t.Errorf("ParseAgentResponse(%q) = %+v, expected empty payload", text, p)
		}
	}
}

func TestParseAgentResponse_BracesInSurroundingProse(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"brace after", "Here is the analysis: {\"summary\": {\"overall_score\": 4, \"recommendation\": \"Hire\"}}\nLet me know if you need {more} detail."},
		{"brace before", "Using template {criteria} as requested.\n{\"summary\": {\"overall_score\": 4, \"recommendation\": \"Hire\"}}"},
		{"braces both sides and inside strings", "{draft} result: {\"summary\": {\"overall_score\": 4, \"recommendation\": \"Hire\", \"executive_summary\": \"Uses {curly} notes\"}} {end}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseAgentResponse(tt.text)
			if !p.Parsed || !p.HasSummary {
				t.Fatalf("Parsed = %v, HasSummary = %v, expected both true", p.Parsed, p.HasSummary)
			}
			if p.Summary.OverallScore != 4 {
				t.Errorf("OverallScore = %v, expected 4", p.Summary.OverallScore)
			}
			if p.Summary.Recommendation != "Hire" {
				t.Errorf("Recommendation = %q, expected Hire", p.Summary.Recommendation)
			}
		})
	}
}

func TestExtractJSONObject_Unbalanced(t *testing.T) {
	if got := extractJSONObject("no json here {oops"); got != "" {
		t.Errorf("extractJSONObject() = %q, expected empty", got)
	}
}
