package models

import "time"

// AssessmentRecord is the persisted form of an Assessment. Roster, links and
// analysis are stored as JSON columns; submissions live in their own table.
type AssessmentRecord struct {
	ID               string             `gorm:"primaryKey;size:64"`
	CandidateName    string             `gorm:"size:200;not null"`
	CandidateRole    string             `gorm:"size:200;not null"`
	Status           string             `gorm:"size:20;index;not null"`
	Reviewers        []Reviewer         `gorm:"type:text;serializer:json"`
	FormLinks        []FormLink         `gorm:"type:text;serializer:json"`
	ExternalAnalysis *Analysis          `gorm:"type:text;serializer:json"`
	Submissions      []SubmissionRecord `gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time          `gorm:"index"`
	UpdatedAt        time.Time
}

func (AssessmentRecord) TableName() string { return "assessments" }

// SubmissionRecord is one reviewer's feedback. The unique index enforces
// one submission per reviewer per assessment at the storage level.
type SubmissionRecord struct {
	ID            uint                 `gorm:"primaryKey"`
	AssessmentID  string               `gorm:"size:64;not null;uniqueIndex:idx_submission_reviewer"`
	ReviewerEmail string               `gorm:"size:255;not null;uniqueIndex:idx_submission_reviewer"`
	ReviewerName  string               `gorm:"size:200"`
	SubmittedAt   time.Time            `gorm:"not null"`
	Scores        map[Criterion]int    `gorm:"type:text;serializer:json"`
	TextResponses map[Criterion]string `gorm:"type:text;serializer:json"`
}

func (SubmissionRecord) TableName() string { return "feedback_submissions" }

// NewAssessmentRecord converts the aggregate into its row form (submissions excluded).
func NewAssessmentRecord(a Assessment) AssessmentRecord {
	return AssessmentRecord{
		ID:               a.ID,
		CandidateName:    a.CandidateName,
		CandidateRole:    a.CandidateRole,
		Status:           string(a.Status),
		Reviewers:        a.Reviewers,
		FormLinks:        a.FormLinks,
		ExternalAnalysis: a.ExternalAnalysis,
		CreatedAt:        a.CreatedAt,
	}
}

func NewSubmissionRecord(assessmentID string, s FeedbackSubmission) SubmissionRecord {
	return SubmissionRecord{
		AssessmentID:  assessmentID,
		ReviewerEmail: s.ReviewerEmail,
		ReviewerName:  s.ReviewerName,
		SubmittedAt:   s.SubmittedAt,
		Scores:        s.Scores,
		TextResponses: s.TextResponses,
	}
}

// ToAssessment rebuilds the aggregate. Submissions must be preloaded in ID order.
func (r AssessmentRecord) ToAssessment() Assessment {
	a := Assessment{
		ID:               r.ID,
		CandidateName:    r.CandidateName,
		CandidateRole:    r.CandidateRole,
		Status:           AssessmentStatus(r.Status),
		Reviewers:        r.Reviewers,
		FormLinks:        r.FormLinks,
		ExternalAnalysis: r.ExternalAnalysis,
		CreatedAt:        r.CreatedAt,
	}
	for _, s := range r.Submissions {
		a.Submissions = append(a.Submissions, s.ToSubmission())
	}
	return a
}

func (s SubmissionRecord) ToSubmission() FeedbackSubmission {
	return FeedbackSubmission{
		ReviewerEmail: s.ReviewerEmail,
		ReviewerName:  s.ReviewerName,
		SubmittedAt:   s.SubmittedAt,
		Scores:        s.Scores,
		TextResponses: s.TextResponses,
	}
}
