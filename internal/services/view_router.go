package services

import (
	"context"
	"errors"

	"github.com/huangang/feedback360/internal/models"
	"github.com/huangang/feedback360/internal/repository"
	"github.com/huangang/feedback360/internal/utils"
	"github.com/huangang/feedback360/pkg/logger"
)

type ViewMode string

const (
	ViewModeDefault  ViewMode = "default"
	ViewModeFeedback ViewMode = "feedback"
)

// Reasons reported when a request falls back to the default view.
const (
	ViewReasonNoParams      = "missing_parameters"
	ViewReasonInvalidToken  = "invalid_token"
	ViewReasonTokenMismatch = "token_mismatch"
	ViewReasonUnknownAssess = "assessment_not_found"
	ViewReasonNotOnRoster   = "reviewer_not_on_roster"
	ViewReasonLookupFailed  = "lookup_failed"
)

// ViewResolution tells the browser which screen to render.
type ViewResolution struct {
	Mode             ViewMode         `json:"mode"`
	Reason           string           `json:"reason,omitempty"`
	AssessmentID     string           `json:"assessment_id,omitempty"`
	CandidateName    string           `json:"candidate_name,omitempty"`
	CandidateRole    string           `json:"candidate_role,omitempty"`
	Reviewer         *models.Reviewer `json:"reviewer,omitempty"`
	AlreadySubmitted bool             `json:"already_submitted"`
}

type ViewRouter struct {
	repo repository.AssessmentRepository
}

func NewViewRouter(repo repository.AssessmentRepository) *ViewRouter {
	return &ViewRouter{repo: repo}
}

// ResolveView binds a form link to a reviewer. Every failure falls back to the
// default view; an invalid link is never reported as an error.
func (r *ViewRouter) ResolveView(ctx context.Context, params utils.FormLinkParams) ViewResolution {
	if !params.Complete() {
		return fallback(ViewReasonNoParams)
	}

	email, assessmentID, err := utils.DecodeReviewerToken(params.ReviewerID)
	if err != nil {
		return fallback(ViewReasonInvalidToken)
	}
	if !models.SameEmail(email, params.Email) || assessmentID != params.AssessmentID {
		return fallback(ViewReasonTokenMismatch)
	}

	a, err := r.repo.Get(ctx, assessmentID)
	if errors.Is(err, models.ErrNotFound) {
		return fallback(ViewReasonUnknownAssess)
	}
	if err != nil {
		logger.Warnf("[View] Failed to load assessment %s: %v", assessmentID, err)
		return fallback(ViewReasonLookupFailed)
	}

	reviewer, ok := a.ReviewerByEmail(email)
	if !ok {
		return fallback(ViewReasonNotOnRoster)
	}

	return ViewResolution{
		Mode:             ViewModeFeedback,
		AssessmentID:     a.ID,
		CandidateName:    a.CandidateName,
		CandidateRole:    a.CandidateRole,
		Reviewer:         &reviewer,
		AlreadySubmitted: a.HasSubmissionFrom(email),
	}
}

func fallback(reason string) ViewResolution {
	return ViewResolution{Mode: ViewModeDefault, Reason: reason}
}
