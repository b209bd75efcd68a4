package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/huangang/feedback360/internal/models"
	"github.com/tidwall/gjson"
)

// AgentPayload is the typed result of parsing an agent reply.
// Every field falls back to its zero value when the reply omits or garbles it.
type AgentPayload struct {
	// Parsed is false when no JSON object could be found at all.
	Parsed           bool
	HasSummary       bool
	Summary          models.Summary
	FormLinks        []models.FormLink
	InvitationStatus models.InvitationStatus
}

// Analysis returns the payload as an analysis value ready to attach to an assessment.
func (p AgentPayload) Analysis() models.Analysis {
	return models.Analysis{Summary: p.Summary, InvitationStatus: p.InvitationStatus}
}

var summaryKeys = []string{
	"overall_score", "recommendation", "recommendation_rationale", "strengths",
	"concerns", "breakdown", "consensus_areas", "executive_summary",
}

// ParseAgentResponse extracts the reporting payload from free-form agent text.
// It accepts surrounding prose and code fences, a {"result": {...}} envelope,
// and a summary either nested under "summary" or spread over the top level.
func ParseAgentResponse(text string) AgentPayload {
	raw := extractJSONObject(text)
	if raw == "" {
		return AgentPayload{}
	}

	root := gjson.Parse(raw)
	if result := root.Get("result"); result.IsObject() {
		root = result
	}

	payload := AgentPayload{Parsed: true}

	summary := root.Get("summary")
	if !summary.IsObject() {
		summary = root
	}
	for _, k := range summaryKeys {
		if summary.Get(k).Exists() {
			payload.HasSummary = true
			break
		}
	}
	if payload.HasSummary {
		payload.Summary = parseSummary(summary)
	}

	payload.FormLinks = parseFormLinks(root.Get("form_links"))
	payload.InvitationStatus = parseInvitationStatus(root.Get("invitation_status"))
	return payload
}

// extractJSONObject returns the first balanced {...} span of text that is valid JSON.
// Braces in the surrounding prose are skipped.
func extractJSONObject(text string) string {
	text = strings.TrimSpace(text)
	if gjson.Valid(text) && strings.HasPrefix(text, "{") {
		return text
	}

	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		end := matchingBrace(text, start)
		if end < 0 {
			continue
		}
		if candidate := text[start : end+1]; gjson.Valid(candidate) {
			return candidate
		}
	}
	return ""
}

// matchingBrace returns the index of the brace closing text[start], ignoring
// braces inside JSON string literals, or -1 when it is never closed.
func matchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseSummary(s gjson.Result) models.Summary {
	out := models.Summary{
		OverallScore:     clampScore(numberOf(s.Get("overall_score"))),
		Recommendation:   strings.TrimSpace(s.Get("recommendation").String()),
		Rationale:        strings.TrimSpace(firstString(s, "recommendation_rationale", "rationale")),
		Strengths:        stringList(s.Get("strengths")),
		Concerns:         stringList(s.Get("concerns")),
		ConsensusAreas:   stringList(s.Get("consensus_areas")),
		ExecutiveSummary: strings.TrimSpace(s.Get("executive_summary").String()),
		Breakdown:        map[models.Criterion]models.CriterionBreakdown{},
	}

	breakdown := s.Get("breakdown")
	switch {
	case breakdown.IsObject():
		breakdown.ForEach(func(key, value gjson.Result) bool {
			if c, ok := criterionFromKey(key.String()); ok {
				out.Breakdown[c] = parseBreakdownEntry(value)
			}
			return true
		})
	case breakdown.IsArray():
		for _, item := range breakdown.Array() {
			if c, ok := criterionFromKey(firstString(item, "criterion", "key", "name")); ok {
				out.Breakdown[c] = parseBreakdownEntry(item)
			}
		}
	}
	return out
}

func parseBreakdownEntry(v gjson.Result) models.CriterionBreakdown {
	if !v.IsObject() {
		return models.CriterionBreakdown{Score: clampScore(numberOf(v))}
	}
	return models.CriterionBreakdown{
		Score:    clampScore(numberOf(v.Get("score"))),
		Feedback: strings.TrimSpace(firstString(v, "feedback", "comment")),
	}
}

// criterionFromKey accepts both keys ("cultural_fit") and labels ("Cultural Fit").
func criterionFromKey(key string) (models.Criterion, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(key, "&", " "))
	normalized = strings.Join(strings.FieldsFunc(normalized, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), "_")
	c := models.Criterion(normalized)
	return c, c.Valid()
}

func parseFormLinks(v gjson.Result) []models.FormLink {
	if !v.IsArray() {
		return nil
	}
	var links []models.FormLink
	for _, item := range v.Array() {
		email := strings.TrimSpace(firstString(item, "reviewer_email", "email"))
		if email == "" {
			continue
		}
		links = append(links, models.FormLink{
			Email:        email,
			ReviewerName: strings.TrimSpace(firstString(item, "reviewer_name", "name")),
			Link:         strings.TrimSpace(firstString(item, "unique_form_link", "link")),
			Status:       models.NormalizeLinkStatus(item.Get("status").String()),
		})
	}
	return links
}

func parseInvitationStatus(v gjson.Result) models.InvitationStatus {
	if !v.IsObject() {
		return models.InvitationStatus{}
	}
	return models.InvitationStatus{
		TotalInvited:     counter(v.Get("total_invited")),
		SuccessfullySent: counter(v.Get("successfully_sent")),
		Failed:           counter(v.Get("failed")),
		PendingResponses: counter(v.Get("pending_responses")),
	}
}

func firstString(v gjson.Result, keys ...string) string {
	for _, k := range keys {
		if r := v.Get(k); r.Exists() && r.Type == gjson.String {
			return r.String()
		}
	}
	return ""
}

func stringList(v gjson.Result) []string {
	var out []string
	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
		}
	case v.Type == gjson.String:
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// numberOf reads a JSON number or numeric string; anything else is 0.
func numberOf(v gjson.Result) float64 {
	switch v.Type {
	case gjson.Number:
		return v.Num
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func clampScore(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > models.MaxSummaryScore {
		return models.MaxSummaryScore
	}
	return f
}

func counter(v gjson.Result) int {
	n := int(numberOf(v))
	if n < 0 {
		return 0
	}
	return n
}
