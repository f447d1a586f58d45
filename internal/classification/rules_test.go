package classification

import (
	"testing"

	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleTable_Apply(t *testing.T) {
	table := NewDefaultRuleTable()

	tests := []struct {
		name      string
		record    model.Record
		wantRule  string
		wantCat   model.Category
		wantMatch bool
	}{
		{
			name: "interview is urgent",
			record: model.Record{
				Subject: "Interview with Google",
				Snippet: "Your technical interview is scheduled for Friday.",
				Sender:  "recruiter@google.com",
			},
			wantMatch: true,
			wantRule:  RuleUrgent,
			wantCat:   model.CategoryUrgent,
		},
		{
			name: "flash sale is ignored",
			record: model.Record{
				Subject: "Walmart Flash Sale – 50% OFF",
				Snippet: "Biggest deals of the season, today only!",
				Sender:  "promo@walmart.com",
			},
			wantMatch: true,
			wantRule:  RulePromo,
			wantCat:   model.CategoryIgnore,
		},
		{
			name:      "promo beats urgent",
			record:    model.Record{Subject: "Interview prep sale", Snippet: "Big discounts"},
			wantMatch: true,
			wantRule:  RulePromo,
			wantCat:   model.CategoryIgnore,
		},
		{
			name:      "promotional sender domain",
			record:    model.Record{Subject: "Hello", Snippet: "Something new", Sender: "Shop <hello@mail.marketing.example.com>"},
			wantMatch: true,
			wantRule:  RulePromo,
			wantCat:   model.CategoryIgnore,
		},
		{
			name:      "local part is not the domain",
			record:    model.Record{Subject: "Hello", Snippet: "Something new", Sender: "promo@example.com"},
			wantMatch: false,
		},
		{
			name:      "financial mail reads later",
			record:    model.Record{Subject: "Your HDFC Credit Card Statement", Snippet: "Your statement for this month is ready.", Sender: "alerts@hdfc.com"},
			wantMatch: true,
			wantRule:  RuleReadLater,
			wantCat:   model.CategoryReadLater,
		},
		{
			name:      "newsletter reads later",
			record:    model.Record{Subject: "The Weekly Digest", Snippet: "Top stories"},
			wantMatch: true,
			wantRule:  RuleReadLater,
			wantCat:   model.CategoryReadLater,
		},
		{
			name:      "case insensitive",
			record:    model.Record{Subject: "URGENT: server down"},
			wantMatch: true,
			wantRule:  RuleUrgent,
			wantCat:   model.CategoryUrgent,
		},
		{
			name:      "substring inside a longer word still matches",
			record:    model.Record{Subject: "Wholesale pricing"},
			wantMatch: true,
			wantRule:  RulePromo,
			wantCat:   model.CategoryIgnore,
		},
		{
			name:      "no match",
			record:    model.Record{Subject: "Google Calendar Invite", Snippet: "You’ve been invited.", Sender: "noreply@calendar.google.com"},
			wantMatch: false,
		},
		{
			name:      "empty record",
			record:    model.Record{},
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, ok := table.ApplyRecord(tt.record)
			require.Equal(t, tt.wantMatch, ok, "match=%+v", match)
			if !tt.wantMatch {
				return
			}
			assert.Equal(t, tt.wantRule, match.Rule)
			assert.Equal(t, tt.wantCat, match.Category)
			assert.NotEmpty(t, match.Trigger)
		})
	}
}

func TestRuleTable_OrderIsFixed(t *testing.T) {
	rules := NewDefaultRuleTable().Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, RulePromo, rules[0].Name)
	assert.Equal(t, RuleUrgent, rules[1].Name)
	assert.Equal(t, RuleReadLater, rules[2].Name)
}

func TestRuleTable_Update(t *testing.T) {
	table := NewDefaultRuleTable()

	_, ok := table.Apply("standup notes", "")
	assert.False(t, ok)

	custom := RuleSet{EditorialKeywords: []string{"  Standup "}}.Merge(DefaultRuleSet())
	table.Update(custom)

	match, ok := table.Apply("Team STANDUP notes", "")
	require.True(t, ok)
	assert.Equal(t, model.CategoryReadLater, match.Category)
	assert.Equal(t, "standup", match.Trigger)

	// Lists not overridden keep their defaults
	match, ok = table.Apply("50% off everything", "")
	require.True(t, ok)
	assert.Equal(t, model.CategoryIgnore, match.Category)
}

func TestSenderDomain(t *testing.T) {
	tests := map[string]string{
		"recruiter@google.com":                 "google.com",
		"Walmart <promo@Walmart.COM>":          "walmart.com",
		"  deals@udemy.com ":                   "udemy.com",
		"not-an-address":                       "",
		"trailing@":                            "",
		"":                                     "",
		`"Team, Ops" <ops@alerts.example.org>`: "alerts.example.org",
	}

	for in, want := range tests {
		assert.Equal(t, want, SenderDomain(in), in)
	}
}
