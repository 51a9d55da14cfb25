// Package document defines the weekly update document: its nested sections, the
// fully populated default shape, the deep merge used to layer partial documents on
// top of it, and the rules that decide when a repeated item counts as blank.
package document

import "strings"

// DefaultSentimentScore is the neutral team sentiment used when none was recorded.
const DefaultSentimentScore = 3.5

type Severity string

const (
	SeverityGreen  Severity = "Green"
	SeverityYellow Severity = "Yellow"
	SeverityRed    Severity = "Red"
)

type DeliveryRisk string

const (
	DeliveryRiskLow    DeliveryRisk = "Low"
	DeliveryRiskMedium DeliveryRisk = "Medium"
	DeliveryRiskHigh   DeliveryRisk = "High"
)

type WorkloadBalance string

const (
	WorkloadTooMuch   WorkloadBalance = "TooMuch"
	WorkloadJustRight WorkloadBalance = "JustRight"
	WorkloadTooLittle WorkloadBalance = "TooLittle"
)

type GoalStatus string

const (
	GoalNotStarted GoalStatus = "NotStarted"
	GoalInProgress GoalStatus = "InProgress"
	GoalCompleted  GoalStatus = "Completed"
	GoalBlocked    GoalStatus = "Blocked"
)

// Section keys as they appear in the serialized document.
const (
	KeyMeta                  = "meta"
	KeyTop3Bullets           = "top_3_bullets"
	KeyTeamHealth            = "team_health"
	KeyDeliveryPerformance   = "delivery_performance"
	KeyStakeholderEngagement = "stakeholder_engagement"
	KeyRisksEscalations      = "risks_escalations"
	KeyOpportunitiesWins     = "opportunities_wins"
	KeySupportNeeded         = "support_needed"
	KeyPersonalUpdates       = "personal_updates"
	KeyTeamMembersUpdates    = "team_members_updates"
)

// SectionKeys lists the eight persisted sections in save order.
var SectionKeys = []string{
	KeyTeamHealth,
	KeyDeliveryPerformance,
	KeyStakeholderEngagement,
	KeyRisksEscalations,
	KeyOpportunitiesWins,
	KeySupportNeeded,
	KeyPersonalUpdates,
	KeyTeamMembersUpdates,
}

type Document struct {
	Meta                  Meta                  `json:"meta"`
	Top3Bullets           string                `json:"top_3_bullets"`
	TeamHealth            TeamHealth            `json:"team_health"`
	DeliveryPerformance   DeliveryPerformance   `json:"delivery_performance"`
	StakeholderEngagement StakeholderEngagement `json:"stakeholder_engagement"`
	RisksEscalations      RisksEscalations      `json:"risks_escalations"`
	OpportunitiesWins     OpportunitiesWins     `json:"opportunities_wins"`
	SupportNeeded         SupportNeeded         `json:"support_needed"`
	PersonalUpdates       PersonalUpdates       `json:"personal_updates"`
	TeamMembersUpdates    TeamMembersUpdates    `json:"team_members_updates"`
}

type Meta struct {
	Date      string `json:"date"`
	TeamName  string `json:"team_name"`
	ClientOrg string `json:"client_org"`
}

type TeamHealth struct {
	OwnerInput     string   `json:"owner_input"`
	SentimentScore *float64 `json:"sentiment_score"`
	OverallStatus  string   `json:"overall_status"`
}

type DeliveryPerformance struct {
	Accomplishments []string        `json:"accomplishments"`
	MissesDelays    []string        `json:"misses_delays"`
	WorkloadBalance WorkloadBalance `json:"workload_balance"`
}

type StakeholderEngagement struct {
	FeedbackNotes    []string `json:"feedback_notes"`
	ExpectationShift []string `json:"expectation_shift"`
	StakeholderNPS   *float64 `json:"stakeholder_nps"`
}

type Risk struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

type RisksEscalations struct {
	Risks       []Risk   `json:"risks"`
	Escalations []string `json:"escalations"`
}

type OpportunitiesWins struct {
	Wins      []string `json:"wins"`
	GrowthOps []string `json:"growth_ops"`
}

type SupportNeeded struct {
	Requests []string `json:"requests"`
}

type Goal struct {
	Description string     `json:"description"`
	Status      GoalStatus `json:"status"`
	Update      string     `json:"update"`
}

type PersonalUpdates struct {
	PersonalWins  []string `json:"personal_wins"`
	Reflections   []string `json:"reflections"`
	Goals         []Goal   `json:"goals"`
	SupportNeeded string   `json:"support_needed"`
}

type Contributor struct {
	Name        string `json:"name"`
	Achievement string `json:"achievement"`
	Recognition string `json:"recognition"`
}

type MemberAttention struct {
	Name         string       `json:"name"`
	Issue        string       `json:"issue"`
	SupportPlan  string       `json:"support_plan"`
	DeliveryRisk DeliveryRisk `json:"delivery_risk"`
}

type TeamMembersUpdates struct {
	PeopleChanges           string            `json:"people_changes"`
	TopContributors         []Contributor     `json:"top_contributors"`
	MembersNeedingAttention []MemberAttention `json:"members_needing_attention"`
}

// Blank reports whether a free-text list item carries no content.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func (r Risk) IsBlank() bool {
	return Blank(r.Title) && Blank(r.Description)
}

func (g Goal) IsBlank() bool {
	return Blank(g.Description) && Blank(g.Update)
}

// A contributor without a name is structurally empty, whatever else was typed.
func (c Contributor) IsBlank() bool {
	return Blank(c.Name)
}

func (m MemberAttention) IsBlank() bool {
	return Blank(m.Name)
}

// NonBlank returns the items of values that carry content, preserving order.
func NonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if Blank(value) {
			continue
		}
		out = append(out, value)
	}
	return out
}

// NonBlankItems filters structured list items with their IsBlank rule.
func NonBlankItems[T interface{ IsBlank() bool }](items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item.IsBlank() {
			continue
		}
		out = append(out, item)
	}
	return out
}
