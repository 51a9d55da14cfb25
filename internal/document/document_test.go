package document

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDefaultHasOnePlaceholderPerList(t *testing.T) {
	d := Default()

	assert.Equal(t, []string{""}, d.DeliveryPerformance.Accomplishments)
	assert.Equal(t, []string{""}, d.DeliveryPerformance.MissesDelays)
	assert.Equal(t, []string{""}, d.StakeholderEngagement.FeedbackNotes)
	assert.Equal(t, []string{""}, d.StakeholderEngagement.ExpectationShift)
	assert.Equal(t, []Risk{{Severity: SeverityGreen}}, d.RisksEscalations.Risks)
	assert.Equal(t, []string{""}, d.RisksEscalations.Escalations)
	assert.Equal(t, []string{""}, d.OpportunitiesWins.Wins)
	assert.Equal(t, []string{""}, d.OpportunitiesWins.GrowthOps)
	assert.Equal(t, []string{""}, d.SupportNeeded.Requests)
	assert.Equal(t, []string{""}, d.PersonalUpdates.PersonalWins)
	assert.Equal(t, []string{""}, d.PersonalUpdates.Reflections)
	assert.Equal(t, []Goal{{Status: GoalNotStarted}}, d.PersonalUpdates.Goals)
	assert.Equal(t, []Contributor{{}}, d.TeamMembersUpdates.TopContributors)
	assert.Equal(t, []MemberAttention{{DeliveryRisk: DeliveryRiskLow}}, d.TeamMembersUpdates.MembersNeedingAttention)

	require.NotNil(t, d.TeamHealth.SentimentScore)
	assert.Equal(t, DefaultSentimentScore, *d.TeamHealth.SentimentScore)
	assert.Nil(t, d.StakeholderEngagement.StakeholderNPS)
	assert.Equal(t, WorkloadJustRight, d.DeliveryPerformance.WorkloadBalance)
}

func TestDefaultReturnsFreshValues(t *testing.T) {
	a := Default()
	a.DeliveryPerformance.Accomplishments[0] = "mutated"
	*a.TeamHealth.SentimentScore = 1

	b := Default()
	assert.Equal(t, "", b.DeliveryPerformance.Accomplishments[0])
	assert.Equal(t, DefaultSentimentScore, *b.TeamHealth.SentimentScore)
}

func TestMergeRecursesAndKeepsTargetOnNil(t *testing.T) {
	target := map[string]any{
		"a": "keep",
		"b": map[string]any{"x": 1.0, "y": "old"},
		"c": []any{"one"},
	}
	source := map[string]any{
		"a": nil,
		"b": map[string]any{"y": "new", "z": true},
		"c": []any{"two", "three"},
		"d": map[string]any{"nested": "created"},
	}

	got := Merge(target, source)

	want := map[string]any{
		"a": "keep",
		"b": map[string]any{"x": 1.0, "y": "new", "z": true},
		"c": []any{"two", "three"},
		"d": map[string]any{"nested": "created"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeReplacesArraysWholesale(t *testing.T) {
	got := Merge(map[string]any{"list": []any{"a", "b", "c"}}, map[string]any{"list": []any{}})
	assert.Equal(t, []any{}, got["list"])
}

func TestMergeDoesNotAliasSourceArrays(t *testing.T) {
	source := map[string]any{
		"list": []any{"a", map[string]any{"note": "x", "owner": nil}},
	}
	got := Merge(map[string]any{}, source)

	items := source["list"].([]any)
	items[0] = "changed"
	items[1].(map[string]any)["note"] = "changed"

	assert.Equal(t, []any{"a", map[string]any{"note": "x", "owner": nil}}, got["list"])
}

func TestMergeIsIdempotent(t *testing.T) {
	partials := []map[string]any{
		{},
		{"top_3_bullets": "Shipped search"},
		{
			"team_health": map[string]any{"owner_input": "steady", "sentiment_score": nil},
			"delivery_performance": map[string]any{
				"accomplishments": []any{"Shipped X", ""},
			},
		},
		{
			"risks_escalations": map[string]any{
				"risks": []any{map[string]any{"title": "Vendor", "severity": "Red"}},
			},
			"unknown_section": map[string]any{"kept": "as is"},
		},
	}

	for _, partial := range partials {
		once := Merge(DefaultMap(), partial)
		twice := Merge(Merge(DefaultMap(), partial), partial)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("merge not idempotent for %v (-once +twice):\n%s", partial, diff)
		}
	}
}

func TestParseFillsMissingSections(t *testing.T) {
	d, err := Parse([]byte(`{
		"meta": {"date": "2025-05-12", "team_name": "Frontend Platform"},
		"team_health": {"owner_input": "Good week", "sentiment_score": null},
		"delivery_performance": {"accomplishments": ["Shipped X"]}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "2025-05-12", d.Meta.Date)
	assert.Equal(t, "Frontend Platform", d.Meta.TeamName)
	assert.Equal(t, "", d.Meta.ClientOrg)
	assert.Equal(t, "Good week", d.TeamHealth.OwnerInput)
	require.NotNil(t, d.TeamHealth.SentimentScore)
	assert.Equal(t, DefaultSentimentScore, *d.TeamHealth.SentimentScore)
	assert.Equal(t, []string{"Shipped X"}, d.DeliveryPerformance.Accomplishments)
	assert.Equal(t, []string{""}, d.DeliveryPerformance.MissesDelays)
	assert.Equal(t, WorkloadJustRight, d.DeliveryPerformance.WorkloadBalance)
	assert.Equal(t, []Goal{{Status: GoalNotStarted}}, d.PersonalUpdates.Goals)
}

func TestParseEmptyInputIsDefault(t *testing.T) {
	d, err := Parse(nil)
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), d); diff != "" {
		t.Fatalf("unexpected document (-want +got):\n%s", diff)
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"meta":`))
	require.Error(t, err)
}

func TestComposeKeepsPlaceholdersForEmptyLists(t *testing.T) {
	nps := 42.0
	fields, err := SectionFields(StakeholderEngagement{
		FeedbackNotes:  []string{"Positive demo"},
		StakeholderNPS: &nps,
	})
	require.NoError(t, err)
	health, err := SectionFields(TeamHealth{OwnerInput: "fine"})
	require.NoError(t, err)

	d, err := Compose(map[string]any{
		KeyTop3Bullets:           "summary",
		KeyStakeholderEngagement: fields,
		KeyTeamHealth:            health,
	})
	require.NoError(t, err)

	assert.Equal(t, "summary", d.Top3Bullets)
	assert.Equal(t, []string{"Positive demo"}, d.StakeholderEngagement.FeedbackNotes)
	assert.Equal(t, []string{""}, d.StakeholderEngagement.ExpectationShift)
	require.NotNil(t, d.StakeholderEngagement.StakeholderNPS)
	assert.Equal(t, 42.0, *d.StakeholderEngagement.StakeholderNPS)
	assert.Equal(t, "fine", d.TeamHealth.OwnerInput)
	require.NotNil(t, d.TeamHealth.SentimentScore)
	assert.Equal(t, DefaultSentimentScore, *d.TeamHealth.SentimentScore)
}

func TestBlankRules(t *testing.T) {
	assert.Equal(t, []string{"Shipped X"}, NonBlank([]string{"Shipped X", "", "  ", "\t\n"}))
	assert.Empty(t, NonBlank([]string{"", " "}))

	assert.True(t, Risk{Severity: SeverityRed}.IsBlank())
	assert.False(t, Risk{Title: "Vendor"}.IsBlank())
	assert.False(t, Risk{Description: "late"}.IsBlank())

	assert.True(t, Contributor{Achievement: "did things"}.IsBlank())
	assert.False(t, Contributor{Name: "Ana"}.IsBlank())

	assert.True(t, MemberAttention{Issue: "burnout", DeliveryRisk: DeliveryRiskHigh}.IsBlank())
	assert.True(t, Goal{Status: GoalBlocked}.IsBlank())
	assert.False(t, Goal{Update: "halfway"}.IsBlank())

	items := NonBlankItems([]Contributor{{Name: "Ana"}, {}, {Name: " "}, {Name: "Bo"}})
	assert.Equal(t, []Contributor{{Name: "Ana"}, {Name: "Bo"}}, items)
}

func TestNormalizeAndValidate(t *testing.T) {
	d := Default()
	d.DeliveryPerformance.WorkloadBalance = ""
	d.RisksEscalations.Risks = []Risk{{Title: "Vendor"}, {Title: "Budget", Severity: "Purple"}}
	d.PersonalUpdates.Goals = []Goal{{Description: "Hire"}}
	d.TeamMembersUpdates.MembersNeedingAttention = []MemberAttention{{Name: "Ana", DeliveryRisk: "Extreme"}, {DeliveryRisk: "Bogus"}}

	n := Normalize(d)
	assert.Equal(t, WorkloadJustRight, n.DeliveryPerformance.WorkloadBalance)
	assert.Equal(t, SeverityGreen, n.RisksEscalations.Risks[0].Severity)
	assert.Equal(t, GoalNotStarted, n.PersonalUpdates.Goals[0].Status)

	problems := Validate(n)
	require.Len(t, problems, 2)
	assert.Contains(t, problems[0], "risks_escalations.risks[1].severity")
	assert.Contains(t, problems[1], "members_needing_attention[0].delivery_risk")
}

func TestValidateRanges(t *testing.T) {
	d := Default()
	low := 0.5
	nps := 150.0
	d.TeamHealth.SentimentScore = &low
	d.StakeholderEngagement.StakeholderNPS = &nps

	problems := Validate(d)
	require.Len(t, problems, 2)
	assert.Contains(t, problems[0], "sentiment_score")
	assert.Contains(t, problems[1], "stakeholder_nps")

	assert.Empty(t, Validate(Default()))
}
