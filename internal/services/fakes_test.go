package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/huangang/feedback360/internal/models"
)

// fakeAgent answers invitation and analysis prompts with canned replies.
type fakeAgent struct {
	mu            sync.Mutex
	prompts       []string
	inviteReply   string
	inviteErr     error
	analysisReply string
	analysisErr   error
	block         chan struct{}
}

func (f *fakeAgent) Invoke(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if strings.Contains(prompt, "invitation dispatcher") {
		return f.inviteReply, f.inviteErr
	}
	return f.analysisReply, f.analysisErr
}

func (f *fakeAgent) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func sentReply(emails ...string) string {
	var links []string
	for _, e := range emails {
		links = append(links, fmt.Sprintf(`{"reviewer_email": %q, "status": "sent"}`, e))
	}
	return fmt.Sprintf("Invitations dispatched.\n```json\n{\"form_links\": [%s], \"invitation_status\": {\"total_invited\": %d, \"successfully_sent\": %d, \"failed\": 0, \"pending_responses\": %d}}\n```",
		strings.Join(links, ","), len(emails), len(emails), len(emails))
}

func analysisReply(overall float64, recommendation string, criterionScore float64) string {
	var entries []string
	for _, c := range models.AllCriteria {
		entries = append(entries, fmt.Sprintf(`%q: {"score": %v, "feedback": "consistent"}`, c, criterionScore))
	}
	return fmt.Sprintf(`{"result": {"summary": {"overall_score": %v, "recommendation": %q, "recommendation_rationale": "solid track record", "strengths": ["vision"], "concerns": ["delegation"], "breakdown": {%s}, "consensus_areas": ["strategy"], "executive_summary": "Strong leader."}}}`,
		overall, recommendation, strings.Join(entries, ","))
}

func allScores(v float64) map[string]float64 {
	scores := map[string]float64{}
	for _, c := range models.AllCriteria {
		scores[string(c)] = v
	}
	return scores
}

var fixedNow = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("assess-%d", n)
	}
}
