package services

import (
	"sync"
	"time"
)

// Assessment event types.
const (
	EventAssessmentCreated  = "created"
	EventInvitationsSent    = "invitations_sent"
	EventSubmissionReceived = "submission_received"
	EventAnalysisCompleted  = "analysis_completed"
	EventAnalysisFailed     = "analysis_failed"
)

// AssessmentEvent is a real-time update pushed to dashboard clients.
type AssessmentEvent struct {
	Type          string    `json:"type"`
	AssessmentID  string    `json:"assessment_id"`
	Status        string    `json:"status"`
	ReviewerEmail string    `json:"reviewer_email,omitempty"`
	Responses     int       `json:"responses"`
	Reviewers     int       `json:"reviewers"`
	Score         *float64  `json:"score,omitempty"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// SSEHub manages SSE client connections and event broadcasting
type SSEHub struct {
	clients map[string]chan AssessmentEvent
	mu      sync.RWMutex
}

func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]chan AssessmentEvent),
	}
}

// Subscribe registers a new client and returns a channel for receiving events
func (h *SSEHub) Subscribe(clientID string) <-chan AssessmentEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan AssessmentEvent, 100)
	h.clients[clientID] = ch
	return ch
}

func (h *SSEHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[clientID]; ok {
		close(ch)
		delete(h.clients, clientID)
	}
}

// Publish broadcasts an event to all connected clients. Slow clients miss events.
func (h *SSEHub) Publish(event AssessmentEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var globalSSEHub *SSEHub
var sseHubOnce sync.Once

// GetSSEHub returns the global SSE hub singleton
func GetSSEHub() *SSEHub {
	sseHubOnce.Do(func() {
		globalSSEHub = NewSSEHub()
	})
	return globalSSEHub
}
