package models

import (
	"strings"
	"time"
)

// AssessmentStatus tracks one candidate evaluation cycle.
type AssessmentStatus string

const (
	AssessmentDraft     AssessmentStatus = "draft"
	AssessmentSent      AssessmentStatus = "sent"
	AssessmentCompleted AssessmentStatus = "completed"
)

// LinkStatus is the delivery state of a reviewer invitation.
type LinkStatus string

const (
	LinkSent    LinkStatus = "sent"
	LinkPending LinkStatus = "pending"
	LinkFailed  LinkStatus = "failed"
)

// NormalizeLinkStatus maps free-form agent output onto a known status; anything unrecognised is pending.
func NormalizeLinkStatus(s string) LinkStatus {
	switch LinkStatus(strings.ToLower(strings.TrimSpace(s))) {
	case LinkSent, "delivered", "success":
		return LinkSent
	case LinkFailed, "error", "bounced":
		return LinkFailed
	default:
		return LinkPending
	}
}

type Reviewer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type FormLink struct {
	Email        string     `json:"email"`
	ReviewerName string     `json:"reviewer_name"`
	Link         string     `json:"link"`
	Status       LinkStatus `json:"status"`
}

// FeedbackSubmission is what one reviewer produced. It is never mutated after it is appended.
type FeedbackSubmission struct {
	ReviewerEmail string               `json:"reviewer_email"`
	ReviewerName  string               `json:"reviewer_name"`
	SubmittedAt   time.Time            `json:"submission_timestamp"`
	Scores        map[Criterion]int    `json:"scores"`
	TextResponses map[Criterion]string `json:"text_responses"`
}

// Assessment is the aggregate for one candidate. Values are treated as immutable:
// every With* method returns a modified copy and leaves the receiver untouched.
type Assessment struct {
	ID               string               `json:"id"`
	CandidateName    string               `json:"candidate_name"`
	CandidateRole    string               `json:"candidate_role"`
	Reviewers        []Reviewer           `json:"reviewers"`
	FormLinks        []FormLink           `json:"form_links"`
	Status           AssessmentStatus     `json:"status"`
	Submissions      []FeedbackSubmission `json:"submissions"`
	ExternalAnalysis *Analysis            `json:"external_analysis,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

// SameEmail compares reviewer emails ignoring case and surrounding whitespace.
func SameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Clone returns a deep copy, so the result shares no slices or maps with a.
func (a Assessment) Clone() Assessment {
	out := a
	out.Reviewers = append([]Reviewer(nil), a.Reviewers...)
	out.FormLinks = append([]FormLink(nil), a.FormLinks...)
	out.Submissions = make([]FeedbackSubmission, len(a.Submissions))
	for i, s := range a.Submissions {
		out.Submissions[i] = s.clone()
	}
	if a.ExternalAnalysis != nil {
		analysis := a.ExternalAnalysis.Clone()
		out.ExternalAnalysis = &analysis
	}
	return out
}

func (s FeedbackSubmission) clone() FeedbackSubmission {
	out := s
	out.Scores = make(map[Criterion]int, len(s.Scores))
	for k, v := range s.Scores {
		out.Scores[k] = v
	}
	out.TextResponses = make(map[Criterion]string, len(s.TextResponses))
	for k, v := range s.TextResponses {
		out.TextResponses[k] = v
	}
	return out
}

// ReviewerByEmail returns the first roster entry matching email.
func (a Assessment) ReviewerByEmail(email string) (Reviewer, bool) {
	for _, r := range a.Reviewers {
		if SameEmail(r.Email, email) {
			return r, true
		}
	}
	return Reviewer{}, false
}

func (a Assessment) HasSubmissionFrom(email string) bool {
	for _, s := range a.Submissions {
		if SameEmail(s.ReviewerEmail, email) {
			return true
		}
	}
	return false
}

// PendingReviewers lists roster entries that have not submitted yet, in roster order.
func (a Assessment) PendingReviewers() []Reviewer {
	var pending []Reviewer
	for _, r := range a.Reviewers {
		if !a.HasSubmissionFrom(r.Email) {
			pending = append(pending, r)
		}
	}
	return pending
}

// WithSubmission appends sub. The assessment is completed once every reviewer has submitted.
func (a Assessment) WithSubmission(sub FeedbackSubmission) Assessment {
	out := a.Clone()
	out.Submissions = append(out.Submissions, sub.clone())
	if len(out.Reviewers) > 0 && len(out.PendingReviewers()) == 0 {
		out.Status = AssessmentCompleted
	}
	return out
}

// WithAnalysis replaces the external analysis wholesale.
func (a Assessment) WithAnalysis(analysis Analysis) Assessment {
	out := a.Clone()
	cp := analysis.Clone()
	out.ExternalAnalysis = &cp
	return out
}

// WithInvitationResult merges link statuses reported by the agent (matched by email)
// and records the invitation counters. Links the agent did not mention keep their status.
func (a Assessment) WithInvitationResult(links []FormLink, status InvitationStatus) Assessment {
	out := a.Clone()
	for i := range out.FormLinks {
		for _, l := range links {
			if SameEmail(l.Email, out.FormLinks[i].Email) {
				out.FormLinks[i].Status = l.Status
				break
			}
		}
	}

	analysis := Analysis{}
	if out.ExternalAnalysis != nil {
		analysis = *out.ExternalAnalysis
	}
	analysis.InvitationStatus = status
	out.ExternalAnalysis = &analysis
	return out
}

// WithLinkStatus sets the status of every link whose email is in emails.
func (a Assessment) WithLinkStatus(emails []string, status LinkStatus) Assessment {
	out := a.Clone()
	for i := range out.FormLinks {
		for _, e := range emails {
			if SameEmail(e, out.FormLinks[i].Email) {
				out.FormLinks[i].Status = status
			}
		}
	}
	return out
}
