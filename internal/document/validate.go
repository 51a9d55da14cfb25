package document

import "fmt"

var severities = map[Severity]struct{}{
	SeverityGreen:  {},
	SeverityYellow: {},
	SeverityRed:    {},
}

var deliveryRisks = map[DeliveryRisk]struct{}{
	DeliveryRiskLow:    {},
	DeliveryRiskMedium: {},
	DeliveryRiskHigh:   {},
}

var workloadBalances = map[WorkloadBalance]struct{}{
	WorkloadTooMuch:   {},
	WorkloadJustRight: {},
	WorkloadTooLittle: {},
}

var goalStatuses = map[GoalStatus]struct{}{
	GoalNotStarted: {},
	GoalInProgress: {},
	GoalCompleted:  {},
	GoalBlocked:    {},
}

// Normalize fills empty enum values with their defaults. Items that are blank are
// left alone; they never reach storage.
func Normalize(d Document) Document {
	if d.DeliveryPerformance.WorkloadBalance == "" {
		d.DeliveryPerformance.WorkloadBalance = WorkloadJustRight
	}

	risks := make([]Risk, len(d.RisksEscalations.Risks))
	for i, risk := range d.RisksEscalations.Risks {
		if risk.Severity == "" {
			risk.Severity = SeverityGreen
		}
		risks[i] = risk
	}
	d.RisksEscalations.Risks = risks

	goals := make([]Goal, len(d.PersonalUpdates.Goals))
	for i, goal := range d.PersonalUpdates.Goals {
		if goal.Status == "" {
			goal.Status = GoalNotStarted
		}
		goals[i] = goal
	}
	d.PersonalUpdates.Goals = goals

	members := make([]MemberAttention, len(d.TeamMembersUpdates.MembersNeedingAttention))
	for i, member := range d.TeamMembersUpdates.MembersNeedingAttention {
		if member.DeliveryRisk == "" {
			member.DeliveryRisk = DeliveryRiskLow
		}
		members[i] = member
	}
	d.TeamMembersUpdates.MembersNeedingAttention = members
	return d
}

// Validate reports every enum or range problem in the non-blank content of d.
// Call it on a normalized document.
func Validate(d Document) []string {
	var problems []string

	if score := d.TeamHealth.SentimentScore; score != nil && (*score < 1.0 || *score > 5.0) {
		problems = append(problems, fmt.Sprintf("team_health.sentiment_score: %.2f is outside 1.0-5.0", *score))
	}
	if _, ok := workloadBalances[d.DeliveryPerformance.WorkloadBalance]; !ok {
		problems = append(problems, fmt.Sprintf("delivery_performance.workload_balance: unknown value %q", d.DeliveryPerformance.WorkloadBalance))
	}
	if nps := d.StakeholderEngagement.StakeholderNPS; nps != nil && (*nps < -100 || *nps > 100) {
		problems = append(problems, fmt.Sprintf("stakeholder_engagement.stakeholder_nps: %.0f is outside -100..100", *nps))
	}
	for i, risk := range d.RisksEscalations.Risks {
		if risk.IsBlank() {
			continue
		}
		if _, ok := severities[risk.Severity]; !ok {
			problems = append(problems, fmt.Sprintf("risks_escalations.risks[%d].severity: unknown value %q", i, risk.Severity))
		}
	}
	for i, goal := range d.PersonalUpdates.Goals {
		if goal.IsBlank() {
			continue
		}
		if _, ok := goalStatuses[goal.Status]; !ok {
			problems = append(problems, fmt.Sprintf("personal_updates.goals[%d].status: unknown value %q", i, goal.Status))
		}
	}
	for i, member := range d.TeamMembersUpdates.MembersNeedingAttention {
		if member.IsBlank() {
			continue
		}
		if _, ok := deliveryRisks[member.DeliveryRisk]; !ok {
			problems = append(problems, fmt.Sprintf("team_members_updates.members_needing_attention[%d].delivery_risk: unknown value %q", i, member.DeliveryRisk))
		}
	}
	return problems
}
