package export

import (
	"strconv"
	"strings"

	"cadence/api/internal/document"
)

// Section is one printable block of a weekly update.
type Section struct {
	Title   string
	Entries []Entry
}

// Entry is either a scalar field (Value) or a list field (Items).
type Entry struct {
	Label string
	Value string
	Items []string
	List  bool
}

func field(label, value string) Entry {
	return Entry{Label: label, Value: value}
}

func list(label string, items []string) Entry {
	return Entry{Label: label, Items: document.NonBlank(items), List: true}
}

func number(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func joinParts(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if !document.Blank(p) {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	return strings.Join(kept, " | ")
}

// BuildSections flattens a document into the order it is printed in.
func BuildSections(doc document.Document) []Section {
	risks := make([]string, 0, len(doc.RisksEscalations.Risks))
	for _, r := range document.NonBlankItems(doc.RisksEscalations.Risks) {
		risks = append(risks, joinParts("["+string(r.Severity)+"] "+r.Title, r.Description))
	}
	goals := make([]string, 0, len(doc.PersonalUpdates.Goals))
	for _, g := range document.NonBlankItems(doc.PersonalUpdates.Goals) {
		goals = append(goals, joinParts(g.Description, string(g.Status), g.Update))
	}
	contributors := make([]string, 0, len(doc.TeamMembersUpdates.TopContributors))
	for _, c := range document.NonBlankItems(doc.TeamMembersUpdates.TopContributors) {
		contributors = append(contributors, joinParts(c.Name, c.Achievement, c.Recognition))
	}
	attention := make([]string, 0, len(doc.TeamMembersUpdates.MembersNeedingAttention))
	for _, m := range document.NonBlankItems(doc.TeamMembersUpdates.MembersNeedingAttention) {
		attention = append(attention, joinParts(m.Name, m.Issue, m.SupportPlan, "risk: "+string(m.DeliveryRisk)))
	}

	return []Section{
		{Title: "Top 3 Bullets", Entries: []Entry{list("Highlights", strings.Split(doc.Top3Bullets, "\n"))}},
		{Title: "Team Health", Entries: []Entry{
			field("Owner input", doc.TeamHealth.OwnerInput),
			field("Sentiment score", number(doc.TeamHealth.SentimentScore)),
			field("Overall status", doc.TeamHealth.OverallStatus),
		}},
		{Title: "Delivery Performance", Entries: []Entry{
			list("Accomplishments", doc.DeliveryPerformance.Accomplishments),
			list("Misses and delays", doc.DeliveryPerformance.MissesDelays),
			field("Workload balance", string(doc.DeliveryPerformance.WorkloadBalance)),
		}},
		{Title: "Stakeholder Engagement", Entries: []Entry{
			list("Feedback notes", doc.StakeholderEngagement.FeedbackNotes),
			list("Expectation shifts", doc.StakeholderEngagement.ExpectationShift),
			field("Stakeholder NPS", number(doc.StakeholderEngagement.StakeholderNPS)),
		}},
		{Title: "Risks and Escalations", Entries: []Entry{
			list("Risks", risks),
			list("Escalations", doc.RisksEscalations.Escalations),
		}},
		{Title: "Opportunities and Wins", Entries: []Entry{
			list("Wins", doc.OpportunitiesWins.Wins),
			list("Growth opportunities", doc.OpportunitiesWins.GrowthOps),
		}},
		{Title: "Support Needed", Entries: []Entry{list("Requests", doc.SupportNeeded.Requests)}},
		{Title: "Personal Updates", Entries: []Entry{
			list("Personal wins", doc.PersonalUpdates.PersonalWins),
			list("Reflections", doc.PersonalUpdates.Reflections),
			list("Goals", goals),
			field("Support needed", doc.PersonalUpdates.SupportNeeded),
		}},
		{Title: "Team Members", Entries: []Entry{
			field("People changes", doc.TeamMembersUpdates.PeopleChanges),
			list("Top contributors", contributors),
			list("Members needing attention", attention),
		}},
	}
}
