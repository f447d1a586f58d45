// Package classification provides the keyword rule table and label normalization
// used to triage email records.
package classification

import (
	"net/mail"
	"strings"
	"sync"

	"github.com/Veraticus/inbox-triage/internal/model"
)

// Rule names, in evaluation order.
const (
	RulePromo     = "promo"
	RuleUrgent    = "urgent"
	RuleReadLater = "read-later"
)

// RuleSet holds the keyword lists behind the rule table.
type RuleSet struct {
	PromoKeywords     []string `mapstructure:"promo_keywords"`
	PromoDomains      []string `mapstructure:"promo_domains"`
	UrgentKeywords    []string `mapstructure:"urgent_keywords"`
	FinanceKeywords   []string `mapstructure:"finance_keywords"`
	EditorialKeywords []string `mapstructure:"editorial_keywords"`
}

// Merge returns a copy of s where every empty list is taken from fallback.
func (s RuleSet) Merge(fallback RuleSet) RuleSet {
	pick := func(primary, secondary []string) []string {
		if len(primary) > 0 {
			return primary
		}
		return secondary
	}

	return RuleSet{
		PromoKeywords:     pick(s.PromoKeywords, fallback.PromoKeywords),
		PromoDomains:      pick(s.PromoDomains, fallback.PromoDomains),
		UrgentKeywords:    pick(s.UrgentKeywords, fallback.UrgentKeywords),
		FinanceKeywords:   pick(s.FinanceKeywords, fallback.FinanceKeywords),
		EditorialKeywords: pick(s.EditorialKeywords, fallback.EditorialKeywords),
	}
}

// Rule is one entry of the rule table.
type Rule struct {
	Name          string
	Category      model.Category
	Keywords      []string
	SenderDomains []string
}

// Match describes which rule fired and what triggered it.
type Match struct {
	Rule     string
	Trigger  string
	Category model.Category
}

// RuleTable evaluates rules in a fixed order; the first match wins.
type RuleTable struct {
	rules []Rule
	mu    sync.RWMutex
}

// NewRuleTable builds a rule table from the given keyword lists.
func NewRuleTable(set RuleSet) *RuleTable {
	return &RuleTable{rules: buildRules(set)}
}

// NewDefaultRuleTable builds a rule table from DefaultRuleSet.
func NewDefaultRuleTable() *RuleTable {
	return NewRuleTable(DefaultRuleSet())
}

func buildRules(set RuleSet) []Rule {
	readLater := make([]string, 0, len(set.FinanceKeywords)+len(set.EditorialKeywords))
	readLater = append(readLater, lowerAll(set.FinanceKeywords)...)
	readLater = append(readLater, lowerAll(set.EditorialKeywords)...)

	return []Rule{
		{
			Name:          RulePromo,
			Category:      model.CategoryIgnore,
			Keywords:      lowerAll(set.PromoKeywords),
			SenderDomains: lowerAll(set.PromoDomains),
		},
		{
			Name:     RuleUrgent,
			Category: model.CategoryUrgent,
			Keywords: lowerAll(set.UrgentKeywords),
		},
		{
			Name:     RuleReadLater,
			Category: model.CategoryReadLater,
			Keywords: readLater,
		},
	}
}

// Apply returns the category of the first matching rule. Matching is
// case-insensitive substring containment, so keywords also match inside
// longer words.
func (t *RuleTable) Apply(text, sender string) (Match, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	lowered := strings.ToLower(text)
	domain := SenderDomain(sender)

	for _, rule := range t.rules {
		if kw, ok := containsAny(lowered, rule.Keywords); ok {
			return Match{Rule: rule.Name, Category: rule.Category, Trigger: kw}, true
		}
		if domain == "" {
			continue
		}
		if d, ok := containsAny(domain, rule.SenderDomains); ok {
			return Match{Rule: rule.Name, Category: rule.Category, Trigger: "domain:" + d}, true
		}
	}

	return Match{}, false
}

// ApplyRecord applies the table to a record's joined text and sender.
func (t *RuleTable) ApplyRecord(r model.Record) (Match, bool) {
	return t.Apply(r.Text(), r.Sender)
}

// Rules returns a copy of the rules in evaluation order.
func (t *RuleTable) Rules() []Rule {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Update replaces the keyword lists. Rule order is unchanged.
func (t *RuleTable) Update(set RuleSet) {
	rules := buildRules(set)

	t.mu.Lock()
	t.rules = rules
	t.mu.Unlock()
}

// SenderDomain extracts the lowercased domain of a sender address.
// It accepts bare addresses and "Name <addr>" forms and returns "" when
// no domain can be found.
func SenderDomain(sender string) string {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return ""
	}

	address := sender
	if parsed, err := mail.ParseAddress(sender); err == nil {
		address = parsed.Address
	}

	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return ""
	}

	return strings.ToLower(strings.Trim(address[at+1:], "<> "))
}

func containsAny(haystack string, needles []string) (string, bool) {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return n, true
		}
	}
	return "", false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
