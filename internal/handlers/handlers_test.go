package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/huangang/feedback360/internal/models"
	"github.com/huangang/feedback360/internal/repository"
	"github.com/huangang/feedback360/internal/services"
	"github.com/huangang/feedback360/internal/utils"
)

const testOrigin = "https://feedback.example.com/"

type stubAgent struct {
	inviteErr error
}

func (s *stubAgent) Invoke(ctx context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "invitation dispatcher") {
		if s.inviteErr != nil {
			return "", s.inviteErr
		}
		return `{"invitation_status": {"total_invited": 2, "successfully_sent": 2, "failed": 0, "pending_responses": 2}}`, nil
	}
	return `{"summary": {"overall_score": 4.2, "recommendation": "Strong Hire", "strengths": ["vision"], "executive_summary": "Ready."}}`, nil
}

type testEnv struct {
	router  *gin.Engine
	service *services.AssessmentService
	hub     *services.SSEHub
}

func newTestEnv(agent services.Agent) *testEnv {
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepository()
	hub := services.NewSSEHub()
	svc := services.NewAssessmentService(repo, agent, testOrigin)
	svc.SetEventHub(hub)

	assessments := NewAssessmentHandler(svc)
	feedback := NewFeedbackHandler(svc)
	view := NewViewHandler(services.NewViewRouter(repo))

	r := gin.New()
	r.GET("/health", NewHealthHandler(nil, services.NewSyncQueue(), hub).CheckHealth)
	api := r.Group("/api")
	api.GET("/view", view.Resolve)
	api.GET("/events/assessments", NewSSEHandler(hub).StreamAssessmentEvents)
	api.POST("/assessments", assessments.Create)
	api.GET("/assessments", assessments.List)
	api.GET("/assessments/:id", assessments.Get)
	api.GET("/assessments/:id/summary", assessments.Summary)
	api.GET("/assessments/:id/report", assessments.Report)
	api.POST("/assessments/:id/analyze", assessments.Analyze)
	api.POST("/assessments/:id/resend", assessments.Resend)
	api.POST("/assessments/:id/feedback", feedback.Submit)

	return &testEnv{router: r, service: svc, hub: hub}
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("invalid data payload: %v", err)
		}
	}
	return env
}

func createBody() map[string]interface{} {
	return map[string]interface{}{
		"candidate_name": "Sarah Johnson",
		"candidate_role": "Engineering Manager",
		"reviewers": []map[string]string{
			{"name": "John", "email": "john@x.com"},
			{"name": "Mia", "email": "mia@x.com"},
		},
	}
}

func (e *testEnv) create(t *testing.T) models.Assessment {
	t.Helper()
	w := e.do("POST", "/api/assessments", createBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, expected %d (%s)", w.Code, http.StatusCreated, w.Body.String())
	}
	var out services.InvitationOutcome
	decode(t, w, &out)
	return out.Assessment
}

func scores(v float64) map[string]float64 {
	out := map[string]float64{}
	for _, c := range models.AllCriteria {
		out[string(c)] = v
	}
	return out
}

func TestAssessmentHandler_CreateAndGet(t *testing.T) {
	env := newTestEnv(&stubAgent{})
	a := env.create(t)

	if a.ID == "" || a.Status != models.AssessmentSent {
		t.Fatalf("created assessment = %+v", a)
	}
	if len(a.FormLinks) != 2 || !strings.HasPrefix(a.FormLinks[0].Link, testOrigin+"?reviewerId=") {
		t.Errorf("form links = %+v", a.FormLinks)
	}

	w := env.do("GET", "/api/assessments/"+a.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, expected %d", w.Code, http.StatusOK)
	}
	var got models.Assessment
	decode(t, w, &got)
	if got.CandidateName != "Sarah Johnson" {
		t.Errorf("CandidateName = %q, expected %q", got.CandidateName, "Sarah Johnson")
	}

	w = env.do("GET", "/api/assessments", nil)
	var list struct {
		Items []models.Assessment `json:"items"`
		Total int                 `json:"total"`
	}
	decode(t, w, &list)
	if list.Total != 1 || len(list.Items) != 1 {
		t.Errorf("list total = %d, expected 1", list.Total)
	}
}

func TestAssessmentHandler_CreateReportsInvitationFailure(t *testing.T) {
	env := newTestEnv(&stubAgent{inviteErr: errors.New("provider down")})

	w := env.do("POST", "/api/assessments", createBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, expected %d", w.Code, http.StatusCreated)
	}
	var out services.InvitationOutcome
	decode(t, w, &out)
	if out.InvitationError == "" {
		t.Error("invitation_error should be reported")
	}
	for _, l := range out.Assessment.FormLinks {
		if l.Status != models.LinkFailed {
			t.Errorf("link %s status = %s, expected failed", l.Email, l.Status)
		}
	}
}

func TestAssessmentHandler_CreateValidation(t *testing.T) {
	env := newTestEnv(&stubAgent{})

	tests := []struct {
		name string
		body interface{}
	}{
		{"malformed body", "not an object"},
		{"missing candidate", map[string]interface{}{"candidate_role": "EM", "reviewers": []map[string]string{{"email": "a@x.com"}}}},
		{"no reviewers", map[string]interface{}{"candidate_name": "Sarah", "candidate_role": "EM"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("POST", "/api/assessments", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, expected %d", w.Code, http.StatusBadRequest)
			}
			if env := decode(t, w, nil); env.Kind != "validation_error" {
				t.Errorf("kind = %q, expected %q", env.Kind, "validation_error")
			}
		})
	}
}

func TestAssessmentHandler_NotFound(t *testing.T) {
	env := newTestEnv(&stubAgent{})
	for _, path := range []string{"/api/assessments/missing", "/api/assessments/missing/summary", "/api/assessments/missing/report"} {
		w := env.do("GET", path, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, expected %d", path, w.Code, http.StatusNotFound)
		}
	}
}

func TestFeedbackHandler_Submit(t *testing.T) {
	env := newTestEnv(&stubAgent{})
	a := env.create(t)
	path := "/api/assessments/" + a.ID + "/feedback"

	w := env.do("POST", path, map[string]interface{}{"email": "JOHN@x.com", "scores": scores(4), "comments": map[string]string{"leadership_vision": "steady"}})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, expected %d (%s)", w.Code, http.StatusCreated, w.Body.String())
	}
	var out struct {
		Responses int `json:"responses"`
	}
	decode(t, w, &out)
	if out.Responses != 1 {
		t.Errorf("responses = %d, expected 1", out.Responses)
	}

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
		kind   string
	}{
		{"duplicate", map[string]interface{}{"email": "john@x.com", "scores": scores(3)}, http.StatusConflict, "duplicate_submission"},
		{"not on roster", map[string]interface{}{"email": "eve@x.com", "scores": scores(3)}, http.StatusForbidden, "unknown_reviewer"},
		{"out of range score", map[string]interface{}{"email": "mia@x.com", "scores": scores(6)}, http.StatusBadRequest, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("POST", path, tt.body)
			if w.Code != tt.status {
				t.Errorf("status = %d, expected %d", w.Code, tt.status)
			}
			if got := decode(t, w, nil).Kind; got != tt.kind {
				t.Errorf("kind = %q, expected %q", got, tt.kind)
			}
		})
	}
}

func TestAssessmentHandler_AnalyzeAndReport(t *testing.T) {
	env := newTestEnv(&stubAgent{})
	a := env.create(t)

	w := env.do("POST", "/api/assessments/"+a.ID+"/analyze", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("analyze without feedback status = %d, expected %d", w.Code, http.StatusBadRequest)
	}

	env.do("POST", "/api/assessments/"+a.ID+"/feedback", map[string]interface{}{"email": "john@x.com", "scores": scores(4)})

	w = env.do("POST", "/api/assessments/"+a.ID+"/analyze", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("analyze status = %d, expected %d (%s)", w.Code, http.StatusOK, w.Body.String())
	}
	var view services.SummaryView
	decode(t, w, &view)
	if view.ScorePercent != 84 || view.RecommendationClass != services.RecommendationStrongPositive {
		t.Errorf("summary = %d%% %s, expected 84%% strong-positive", view.ScorePercent, view.RecommendationClass)
	}

	w = env.do("GET", "/api/assessments/"+a.ID+"/report", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("report status = %d, expected %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, expected text/plain", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment; filename=\"feedback-report-sarah-johnson-") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(w.Body.String(), "360° FEEDBACK REPORT") || !strings.Contains(w.Body.String(), "4.2/5 (84%)") {
		t.Errorf("unexpected report body:\n%s", w.Body.String())
	}
}

func TestAssessmentHandler_Resend(t *testing.T) {
	env := newTestEnv(&stubAgent{})
	a := env.create(t)

	if w := env.do("POST", "/api/assessments/"+a.ID+"/resend?pending_only=maybe", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad pending_only status = %d, expected %d", w.Code, http.StatusBadRequest)
	}
	if w := env.do("POST", "/api/assessments/"+a.ID+"/resend", nil); w.Code != http.StatusOK {
		t.Errorf("resend status = %d, expected %d (%s)", w.Code, http.StatusOK, w.Body.String())
	}
	if w := env.do("POST", "/api/assessments/"+a.ID+"/resend", map[string]bool{"pending_only": false}); w.Code != http.StatusOK {
		t.Errorf("resend all status = %d, expected %d", w.Code, http.StatusOK)
	}

	for _, email := range []string{"john@x.com", "mia@x.com"} {
		env.do("POST", "/api/assessments/"+a.ID+"/feedback", map[string]interface{}{"email": email, "scores": scores(4)})
	}
	w := env.do("POST", "/api/assessments/"+a.ID+"/resend", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("resend with nobody pending status = %d, expected %d", w.Code, http.StatusBadRequest)
	}
}

func TestViewHandler_Resolve(t *testing.T) {
	env := newTestEnv(&stubAgent{})
	a := env.create(t)

	params, err := utils.ParseFormLink(a.FormLinks[1].Link)
	if err != nil {
		t.Fatalf("ParseFormLink failed: %v", err)
	}

	tests := []struct {
		name   string
		query  string
		mode   services.ViewMode
		reason string
	}{
		{"no parameters", "", services.ViewModeDefault, services.ViewReasonNoParams},
		{"garbage token", "?reviewerId=%25%25&email=mia@x.com&assessmentId=" + a.ID, services.ViewModeDefault, services.ViewReasonInvalidToken},
		{"valid link", "?reviewerId=" + params.ReviewerID + "&email=" + params.Email + "&assessmentId=" + params.AssessmentID, services.ViewModeFeedback, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("GET", "/api/view"+tt.query, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, expected %d", w.Code, http.StatusOK)
			}
			var res services.ViewResolution
			decode(t, w, &res)
			if res.Mode != tt.mode || res.Reason != tt.reason {
				t.Errorf("resolution = %s/%q, expected %s/%q", res.Mode, res.Reason, tt.mode, tt.reason)
			}
		})
	}
}

func TestHealthHandler_Memory(t *testing.T) {
	env := newTestEnv(&stubAgent{})
	w := env.do("GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected %d", w.Code, http.StatusOK)
	}
	var body struct {
		Status     string                 `json:"status"`
		Components map[string]interface{} `json:"components"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Status != "healthy" || body.Components["storage"] != "memory" || body.Components["queue_mode"] != "sync" {
		t.Errorf("health = %+v", body)
	}
}
