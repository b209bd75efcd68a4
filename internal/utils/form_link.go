package utils

import (
	"errors"
	"net/url"
	"strings"
)

// Query parameter names understood by the feedback-entry view.
const (
	ParamReviewerID   = "reviewerId"
	ParamEmail        = "email"
	ParamAssessmentID = "assessmentId"
)

var ErrInvalidLink = errors.New("invalid form link")

// FormLinkParams are the identity parameters carried by a reviewer form link.
type FormLinkParams struct {
	ReviewerID   string
	Email        string
	AssessmentID string
}

// Complete reports whether all three parameters are present.
func (p FormLinkParams) Complete() bool {
	return p.ReviewerID != "" && p.Email != "" && p.AssessmentID != ""
}

// BuildFormLink returns <origin>?reviewerId=<token>&email=<email>&assessmentId=<id>.
// Parameter order is fixed; url.Values.Encode would sort the keys. An origin that
// already carries a query string keeps it and gets the parameters appended with &.
func BuildFormLink(origin, email, assessmentID string) string {
	base := strings.TrimRight(origin, "?&")
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString(sep)
	sb.WriteString(ParamReviewerID)
	sb.WriteString("=")
	sb.WriteString(url.QueryEscape(EncodeReviewerToken(email, assessmentID)))
	sb.WriteString("&")
	sb.WriteString(ParamEmail)
	sb.WriteString("=")
	sb.WriteString(url.QueryEscape(email))
	sb.WriteString("&")
	sb.WriteString(ParamAssessmentID)
	sb.WriteString("=")
	sb.WriteString(url.QueryEscape(assessmentID))
	return sb.String()
}

// ParamsFromQuery extracts the link parameters from already parsed query values.
func ParamsFromQuery(q url.Values) FormLinkParams {
	return FormLinkParams{
		ReviewerID:   q.Get(ParamReviewerID),
		Email:        q.Get(ParamEmail),
		AssessmentID: q.Get(ParamAssessmentID),
	}
}

// ParseFormLink parses a link produced by BuildFormLink.
func ParseFormLink(link string) (FormLinkParams, error) {
	u, err := url.Parse(link)
	if err != nil {
		return FormLinkParams{}, ErrInvalidLink
	}
	params := ParamsFromQuery(u.Query())
	if !params.Complete() {
		return params, ErrInvalidLink
	}
	return params, nil
}
