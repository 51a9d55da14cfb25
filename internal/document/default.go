package document

import (
	"encoding/json"
	"fmt"
)

// Default returns a document with every section present and every repeated
// list holding exactly one empty placeholder item.
func Default() Document {
	sentiment := DefaultSentimentScore
	return Document{
		Meta: Meta{},
		TeamHealth: TeamHealth{
			SentimentScore: &sentiment,
		},
		DeliveryPerformance: DeliveryPerformance{
			Accomplishments: []string{""},
			MissesDelays:    []string{""},
			WorkloadBalance: WorkloadJustRight,
		},
		StakeholderEngagement: StakeholderEngagement{
			FeedbackNotes:    []string{""},
			ExpectationShift: []string{""},
		},
		RisksEscalations: RisksEscalations{
			Risks:       []Risk{PlaceholderRisk()},
			Escalations: []string{""},
		},
		OpportunitiesWins: OpportunitiesWins{
			Wins:      []string{""},
			GrowthOps: []string{""},
		},
		SupportNeeded: SupportNeeded{
			Requests: []string{""},
		},
		PersonalUpdates: PersonalUpdates{
			PersonalWins: []string{""},
			Reflections:  []string{""},
			Goals:        []Goal{PlaceholderGoal()},
		},
		TeamMembersUpdates: TeamMembersUpdates{
			TopContributors:         []Contributor{{}},
			MembersNeedingAttention: []MemberAttention{PlaceholderMemberAttention()},
		},
	}
}

func PlaceholderRisk() Risk {
	return Risk{Severity: SeverityGreen}
}

func PlaceholderGoal() Goal {
	return Goal{Status: GoalNotStarted}
}

func PlaceholderMemberAttention() MemberAttention {
	return MemberAttention{DeliveryRisk: DeliveryRiskLow}
}

// DefaultMap is Default in its generic map form.
func DefaultMap() map[string]any {
	m, err := ToMap(Default())
	if err != nil {
		// Default only contains JSON-safe values.
		panic(fmt.Sprintf("document: encode default: %v", err))
	}
	return m
}

// ToMap converts any JSON-encodable value into its generic object form.
func ToMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document map: %w", err)
	}
	return out, nil
}

// FromMap decodes a generic object into a Document.
func FromMap(m map[string]any) (Document, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return Document{}, fmt.Errorf("encode document map: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Parse layers a partial JSON document onto the default document. Any section or
// field the input leaves out, or sets to null, keeps its default value.
func Parse(raw []byte) (Document, error) {
	var partial map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &partial); err != nil {
			return Document{}, fmt.Errorf("parse document: %w", err)
		}
	}
	return FromMap(Merge(DefaultMap(), partial))
}

// Complete fills whatever d leaves empty from the default document.
func Complete(d Document) (Document, error) {
	m, err := ToMap(d)
	if err != nil {
		return Document{}, err
	}
	return FromMap(Merge(DefaultMap(), m))
}

// Compose builds a document from the default shape plus per-key fragments. Empty
// lists inside section fragments are dropped first so the default placeholder item
// survives for lists that loaded no rows.
func Compose(fragments map[string]any) (Document, error) {
	base := DefaultMap()
	for key, fragment := range fragments {
		if section, ok := fragment.(map[string]any); ok {
			fragment = pruneEmptyLists(section)
		}
		Merge(base, map[string]any{key: fragment})
	}
	return FromMap(base)
}

// SectionFields returns the generic form of one section value.
func SectionFields(section any) (map[string]any, error) {
	return ToMap(section)
}

func pruneEmptyLists(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		if list, ok := value.([]any); ok && len(list) == 0 {
			continue
		}
		out[key] = value
	}
	return out
}
