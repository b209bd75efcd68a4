package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huangang/feedback360/internal/models"
	"github.com/huangang/feedback360/internal/repository"
	"github.com/huangang/feedback360/internal/utils"
	"github.com/huangang/feedback360/pkg/logger"
)

// CreateAssessmentInput is the requester's form.
type CreateAssessmentInput struct {
	CandidateName string            `json:"candidate_name"`
	CandidateRole string            `json:"candidate_role"`
	Reviewers     []models.Reviewer `json:"reviewers"`
}

// CreateAssessment validates the input and builds a new assessment with one form
// link per reviewer. It performs no I/O.
func CreateAssessment(in CreateAssessmentInput, origin string, now time.Time, newID func() string) (models.Assessment, error) {
	name := strings.TrimSpace(in.CandidateName)
	role := strings.TrimSpace(in.CandidateRole)
	if name == "" {
		return models.Assessment{}, fmt.Errorf("%w: candidate name is required", models.ErrValidation)
	}
	if role == "" {
		return models.Assessment{}, fmt.Errorf("%w: candidate role is required", models.ErrValidation)
	}
	if len(in.Reviewers) == 0 {
		return models.Assessment{}, fmt.Errorf("%w: at least one reviewer is required", models.ErrValidation)
	}

	reviewers := make([]models.Reviewer, 0, len(in.Reviewers))
	for i, r := range in.Reviewers {
		email := strings.TrimSpace(r.Email)
		if !strings.Contains(email, "@") {
			return models.Assessment{}, fmt.Errorf("%w: reviewer %d has an invalid email %q", models.ErrValidation, i+1, r.Email)
		}
		for _, prev := range reviewers {
			if models.SameEmail(prev.Email, email) {
				return models.Assessment{}, fmt.Errorf("%w: reviewer email %s is listed twice", models.ErrValidation, email)
			}
		}
		reviewerName := strings.TrimSpace(r.Name)
		if reviewerName == "" {
			reviewerName = email
		}
		reviewers = append(reviewers, models.Reviewer{Name: reviewerName, Email: email})
	}

	a := models.Assessment{
		ID:            newID(),
		CandidateName: name,
		CandidateRole: role,
		Reviewers:     reviewers,
		Status:        models.AssessmentDraft,
		CreatedAt:     now,
	}
	for _, r := range reviewers {
		a.FormLinks = append(a.FormLinks, models.FormLink{
			Email:        r.Email,
			ReviewerName: r.Name,
			Link:         utils.BuildFormLink(origin, r.Email, a.ID),
			Status:       models.LinkPending,
		})
	}
	a.Status = models.AssessmentSent
	return a, nil
}

// InvitationOutcome is returned by operations that dispatch invitations.
// InvitationError is set when the agent failed; the assessment itself is still valid.
type InvitationOutcome struct {
	Assessment      models.Assessment `json:"assessment"`
	InvitationError string            `json:"invitation_error,omitempty"`
}

type AssessmentService struct {
	repo   repository.AssessmentRepository
	agent  Agent
	guard  *OperationGuard
	hub    *SSEHub
	queue  TaskQueue
	origin string
	now    func() time.Time
	newID  func() string
}

func NewAssessmentService(repo repository.AssessmentRepository, agent Agent, origin string) *AssessmentService {
	return &AssessmentService{
		repo:   repo,
		agent:  agent,
		guard:  NewOperationGuard(),
		hub:    GetSSEHub(),
		origin: origin,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// SetTaskQueue enables automatic analysis once every reviewer has responded.
func (s *AssessmentService) SetTaskQueue(q TaskQueue) {
	s.queue = q
}

func (s *AssessmentService) SetEventHub(hub *SSEHub) {
	s.hub = hub
}

// Create persists a new assessment and asks the agent to send the invitations.
// clientKey scopes the busy check, so one requester cannot double-submit the form.
func (s *AssessmentService) Create(ctx context.Context, in CreateAssessmentInput, clientKey string) (*InvitationOutcome, error) {
	release, err := s.guard.Acquire(operationKey("create", clientKey))
	if err != nil {
		return nil, err
	}
	defer release()

	a, err := CreateAssessment(in, s.origin, s.now(), s.newID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	logger.Info().Str("assessment_id", a.ID).Int("reviewers", len(a.Reviewers)).Msg("Assessment created")
	s.publish(EventAssessmentCreated, a, nil)

	updated, invErr := s.dispatchInvitations(ctx, a, a.Reviewers)
	out := &InvitationOutcome{Assessment: updated}
	if invErr != nil {
		out.InvitationError = invErr.Error()
	}
	return out, nil
}

// dispatchInvitations asks the agent to deliver the links of reviewers and records
// the reported delivery state. On agent failure the links are marked failed.
func (s *AssessmentService) dispatchInvitations(ctx context.Context, a models.Assessment, reviewers []models.Reviewer) (models.Assessment, error) {
	emails := make([]string, 0, len(reviewers))
	for _, r := range reviewers {
		emails = append(emails, r.Email)
	}

	reply, err := s.invokeAgent(ctx, BuildInvitationPrompt(a, reviewers))
	if err != nil {
		logger.Warnf("[Assessment] Invitation dispatch failed for %s: %v", a.ID, err)
		updated, uerr := s.repo.Update(ctx, a.ID, func(cur models.Assessment) (models.Assessment, error) {
			return cur.WithLinkStatus(emails, models.LinkFailed), nil
		})
		if uerr != nil {
			logger.Errorf("[Assessment] Failed to record link failure for %s: %v", a.ID, uerr)
			return a, err
		}
		return updated, err
	}

	payload := ParseAgentResponse(reply)
	if !payload.Parsed {
		return a, fmt.Errorf("%w: invitation response was not valid JSON", models.ErrAgentCall)
	}

	updated, err := s.repo.Update(ctx, a.ID, func(cur models.Assessment) (models.Assessment, error) {
		status := payload.InvitationStatus
		if status.IsZero() {
			status = countInvitations(cur.WithInvitationResult(payload.FormLinks, status), emails)
		}
		return cur.WithInvitationResult(payload.FormLinks, status), nil
	})
	if err != nil {
		return a, err
	}

	s.publish(EventInvitationsSent, updated, nil)
	return updated, nil
}

// countInvitations derives counters from link states when the agent reported none.
func countInvitations(a models.Assessment, emails []string) models.InvitationStatus {
	status := models.InvitationStatus{
		TotalInvited:     len(emails),
		PendingResponses: len(a.PendingReviewers()),
	}
	for _, l := range a.FormLinks {
		for _, e := range emails {
			if !models.SameEmail(e, l.Email) {
				continue
			}
			switch l.Status {
			case models.LinkSent:
				status.SuccessfullySent++
			case models.LinkFailed:
				status.Failed++
			}
		}
	}
	return status
}

func (s *AssessmentService) Get(ctx context.Context, id string) (models.Assessment, error) {
	return s.repo.Get(ctx, id)
}

func (s *AssessmentService) List(ctx context.Context) ([]models.Assessment, error) {
	return s.repo.ListAll(ctx)
}

func (s *AssessmentService) Summary(ctx context.Context, id string) (SummaryView, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return SummaryView{}, err
	}
	return RenderSummary(a), nil
}

// Export returns the report file name and its text.
func (s *AssessmentService) Export(ctx context.Context, id string) (string, string, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", "", err
	}
	return ReportFilename(a), ExportReport(a), nil
}

// SubmitFeedback validates and records one reviewer's feedback. When it completes
// the roster, an analysis task is queued.
func (s *AssessmentService) SubmitFeedback(ctx context.Context, id string, in SubmissionInput) (models.Assessment, error) {
	scores, texts, err := ValidateSubmissionInput(in)
	if err != nil {
		return models.Assessment{}, err
	}

	release, err := s.guard.Acquire(operationKey("submit", id+"/"+strings.ToLower(strings.TrimSpace(in.Email))))
	if err != nil {
		return models.Assessment{}, err
	}
	defer release()

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Assessment{}, err
	}
	reviewer, ok := current.ReviewerByEmail(in.Email)
	if !ok {
		return models.Assessment{}, fmt.Errorf("%w: %s is not on the roster of assessment %s", models.ErrUnknownReviewer, in.Email, id)
	}

	updated, err := s.repo.AppendSubmission(ctx, id, models.FeedbackSubmission{
		ReviewerEmail: reviewer.Email,
		ReviewerName:  reviewer.Name,
		SubmittedAt:   s.now(),
		Scores:        scores,
		TextResponses: texts,
	})
	if err != nil {
		return models.Assessment{}, err
	}

	logger.Info().Str("assessment_id", id).Str("reviewer", reviewer.Email).
		Int("responses", len(updated.Submissions)).Msg("Feedback submitted")
	s.publish(EventSubmissionReceived, updated, func(e *AssessmentEvent) { e.ReviewerEmail = reviewer.Email })

	if updated.Status == models.AssessmentCompleted && current.Status != models.AssessmentCompleted && s.queue != nil {
		if err := s.queue.Enqueue(&AnalysisTask{AssessmentID: id, Reason: "completed"}); err != nil {
			logger.Warnf("[Assessment] Failed to enqueue analysis for %s: %v", id, err)
		}
	}
	return updated, nil
}

// Analyze asks the agent to summarise the collected feedback and attaches the result.
func (s *AssessmentService) Analyze(ctx context.Context, id string) (models.Assessment, error) {
	release, err := s.guard.Acquire(operationKey("analyze", id))
	if err != nil {
		return models.Assessment{}, err
	}
	defer release()

	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Assessment{}, err
	}
	if len(a.Submissions) == 0 {
		return models.Assessment{}, fmt.Errorf("%w: no feedback has been submitted yet", models.ErrValidation)
	}

	reply, err := s.invokeAgent(ctx, BuildAnalysisPrompt(a))
	if err == nil {
		if payload := ParseAgentResponse(reply); payload.Parsed {
			return s.attachAnalysis(ctx, id, payload.Analysis())
		}
		err = fmt.Errorf("%w: analysis response was not valid JSON", models.ErrAgentCall)
	}

	logger.Warnf("[Assessment] Analysis failed for %s: %v", id, err)
	s.publish(EventAnalysisFailed, a, func(e *AssessmentEvent) { e.Error = err.Error() })
	return models.Assessment{}, err
}

func (s *AssessmentService) attachAnalysis(ctx context.Context, id string, analysis models.Analysis) (models.Assessment, error) {
	updated, err := s.repo.Update(ctx, id, func(cur models.Assessment) (models.Assessment, error) {
		if analysis.InvitationStatus.IsZero() && cur.ExternalAnalysis != nil {
			analysis.InvitationStatus = cur.ExternalAnalysis.InvitationStatus
		}
		return cur.WithAnalysis(analysis), nil
	})
	if err != nil {
		return models.Assessment{}, err
	}

	score := analysis.Summary.OverallScore
	logger.Info().Str("assessment_id", id).Float64("overall_score", score).
		Str("recommendation", analysis.Summary.Recommendation).Msg("Analysis attached")
	s.publish(EventAnalysisCompleted, updated, func(e *AssessmentEvent) { e.Score = &score })
	return updated, nil
}

// ProcessAnalysisTask is the queue processor. A task racing a manual analysis is dropped.
func (s *AssessmentService) ProcessAnalysisTask(ctx context.Context, task *AnalysisTask) error {
	_, err := s.Analyze(ctx, task.AssessmentID)
	if errors.Is(err, models.ErrBusy) {
		logger.Infof("[Assessment] Analysis of %s already running, skipping task", task.AssessmentID)
		return nil
	}
	return err
}

// ResendInvitations dispatches invitations again, to pending reviewers only or to everyone.
func (s *AssessmentService) ResendInvitations(ctx context.Context, id string, pendingOnly bool) (*InvitationOutcome, error) {
	release, err := s.guard.Acquire(operationKey("resend", id))
	if err != nil {
		return nil, err
	}
	defer release()

	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	reviewers := a.Reviewers
	if pendingOnly {
		reviewers = a.PendingReviewers()
	}
	if len(reviewers) == 0 {
		return nil, fmt.Errorf("%w: every reviewer has already responded", models.ErrValidation)
	}

	updated, err := s.dispatchInvitations(ctx, a, reviewers)
	if err != nil {
		return nil, err
	}
	return &InvitationOutcome{Assessment: updated}, nil
}

// invokeAgent guarantees agent errors carry ErrAgentCall whatever the Agent implementation returns.
func (s *AssessmentService) invokeAgent(ctx context.Context, prompt string) (string, error) {
	reply, err := s.agent.Invoke(ctx, prompt)
	if err != nil && !errors.Is(err, models.ErrAgentCall) {
		err = fmt.Errorf("%w: %w", models.ErrAgentCall, err)
	}
	return reply, err
}

func (s *AssessmentService) publish(eventType string, a models.Assessment, mutate func(*AssessmentEvent)) {
	if s.hub == nil {
		return
	}
	event := AssessmentEvent{
		Type:         eventType,
		AssessmentID: a.ID,
		Status:       string(a.Status),
		Responses:    len(a.Submissions),
		Reviewers:    len(a.Reviewers),
		Timestamp:    s.now(),
	}
	if mutate != nil {
		mutate(&event)
	}
	s.hub.Publish(event)
}
