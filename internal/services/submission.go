package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/huangang/feedback360/internal/models"
)

// SubmissionInput is what the feedback form posts.
type SubmissionInput struct {
	Email    string             `json:"email"`
	Scores   map[string]float64 `json:"scores"`
	Comments map[string]string  `json:"comments"`
}

// ValidateSubmissionInput checks that every criterion has an integer score in
// [1,5] and that no unknown criterion is present. Missing comments become "".
func ValidateSubmissionInput(in SubmissionInput) (map[models.Criterion]int, map[models.Criterion]string, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, nil, fmt.Errorf("%w: email is required", models.ErrValidation)
	}

	var unknown []string
	for k := range in.Scores {
		if !models.Criterion(k).Valid() {
			unknown = append(unknown, k)
		}
	}
	for k := range in.Comments {
		if !models.Criterion(k).Valid() {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, nil, fmt.Errorf("%w: unknown criteria %s", models.ErrValidation, strings.Join(unknown, ", "))
	}

	scores := make(map[models.Criterion]int, len(models.AllCriteria))
	texts := make(map[models.Criterion]string, len(models.AllCriteria))
	for _, c := range models.AllCriteria {
		v, ok := in.Scores[string(c)]
		if !ok {
			return nil, nil, fmt.Errorf("%w: score for %s is required", models.ErrValidation, c)
		}
		if v != math.Trunc(v) || v < models.MinCriterionScore || v > models.MaxCriterionScore {
			return nil, nil, fmt.Errorf("%w: score for %s must be an integer between %d and %d",
				models.ErrValidation, c, models.MinCriterionScore, models.MaxCriterionScore)
		}
		scores[c] = int(v)
		texts[c] = strings.TrimSpace(in.Comments[string(c)])
	}
	return scores, texts, nil
}
