package repository

import (
	"context"
	"fmt"

	"github.com/huangang/feedback360/internal/models"
)

// AssessmentRepository stores assessment aggregates as whole values.
// Every read returns a copy; callers never observe a partially applied update.
type AssessmentRepository interface {
	Create(ctx context.Context, a models.Assessment) error
	Get(ctx context.Context, id string) (models.Assessment, error)
	// ListAll returns every assessment, newest first.
	ListAll(ctx context.Context) ([]models.Assessment, error)
	// AppendSubmission atomically checks the roster and the one-submission-per-reviewer
	// rule, then appends sub.
	AppendSubmission(ctx context.Context, id string, sub models.FeedbackSubmission) (models.Assessment, error)
	// Update applies mutate to the current value and stores the result atomically.
	Update(ctx context.Context, id string, mutate func(models.Assessment) (models.Assessment, error)) (models.Assessment, error)
}

// applySubmission is the append rule shared by all repository implementations.
func applySubmission(a models.Assessment, sub models.FeedbackSubmission) (models.Assessment, error) {
	if _, ok := a.ReviewerByEmail(sub.ReviewerEmail); !ok {
		return a, fmt.Errorf("%w: %s is not on the roster of assessment %s", models.ErrUnknownReviewer, sub.ReviewerEmail, a.ID)
	}
	if a.HasSubmissionFrom(sub.ReviewerEmail) {
		return a, fmt.Errorf("%w: %s", models.ErrDuplicateSubmission, sub.ReviewerEmail)
	}
	return a.WithSubmission(sub), nil
}
