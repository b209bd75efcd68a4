package models

// Criterion is one of the five fixed evaluation dimensions.
type Criterion string

const (
	LeadershipVision       Criterion = "leadership_vision"
	CommunicationInfluence Criterion = "communication_influence"
	ExperienceExpertise    Criterion = "experience_expertise"
	CulturalFit            Criterion = "cultural_fit"
	TeamManagement         Criterion = "team_management"
)

// AllCriteria is the closed criterion set in display order.
var AllCriteria = []Criterion{
	LeadershipVision,
	CommunicationInfluence,
	ExperienceExpertise,
	CulturalFit,
	TeamManagement,
}

var criterionLabels = map[Criterion]string{
	LeadershipVision:       "Leadership & Vision",
	CommunicationInfluence: "Communication & Influence",
	ExperienceExpertise:    "Experience & Expertise",
	CulturalFit:            "Cultural Fit",
	TeamManagement:         "Team Management",
}

func (c Criterion) Label() string {
	if l, ok := criterionLabels[c]; ok {
		return l
	}
	return string(c)
}

func (c Criterion) Valid() bool {
	_, ok := criterionLabels[c]
	return ok
}

const (
	MinCriterionScore = 1
	MaxCriterionScore = 5
	MaxSummaryScore   = 5.0
)

// CriterionBreakdown is the agent's per-criterion verdict; Score is in [0,5].
type CriterionBreakdown struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Summary is the aggregated verdict produced by the agent.
type Summary struct {
	OverallScore     float64                          `json:"overall_score"`
	Recommendation   string                           `json:"recommendation"`
	Rationale        string                           `json:"recommendation_rationale"`
	Strengths        []string                         `json:"strengths"`
	Concerns         []string                         `json:"concerns"`
	Breakdown        map[Criterion]CriterionBreakdown `json:"breakdown"`
	ConsensusAreas   []string                         `json:"consensus_areas"`
	ExecutiveSummary string                           `json:"executive_summary"`
}

type InvitationStatus struct {
	TotalInvited     int `json:"total_invited"`
	SuccessfullySent int `json:"successfully_sent"`
	Failed           int `json:"failed"`
	PendingResponses int `json:"pending_responses"`
}

// Analysis is the externally supplied payload attached to an assessment.
type Analysis struct {
	Summary          Summary          `json:"summary"`
	InvitationStatus InvitationStatus `json:"invitation_status"`
}

func (a Analysis) Clone() Analysis {
	out := a
	out.Summary.Strengths = append([]string(nil), a.Summary.Strengths...)
	out.Summary.Concerns = append([]string(nil), a.Summary.Concerns...)
	out.Summary.ConsensusAreas = append([]string(nil), a.Summary.ConsensusAreas...)
	if a.Summary.Breakdown != nil {
		out.Summary.Breakdown = make(map[Criterion]CriterionBreakdown, len(a.Summary.Breakdown))
		for k, v := range a.Summary.Breakdown {
			out.Summary.Breakdown[k] = v
		}
	}
	return out
}

// IsZero reports whether no invitation counter was supplied.
func (s InvitationStatus) IsZero() bool {
	return s == InvitationStatus{}
}
