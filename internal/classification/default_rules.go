package classification

// DefaultRuleSet returns the built-in keyword lists. Keyword membership is
// configurable; the rule order is not.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		PromoKeywords: []string{
			"sale",
			"deal",
			"% off",
			"discount",
			"coupon",
			"promo",
			"cashback",
			"free",
			"limited time",
			"today only",
			"exclusive",
			"save up to",
			"flash",
		},
		PromoDomains: []string{
			"promo",
			"deals",
			"offers",
			"marketing",
			"mailchimp",
			"sendgrid",
			"campaign",
			"mktg",
		},
		UrgentKeywords: []string{
			"interview",
			"offer letter",
			"job offer",
			"shortlisted",
			"urgent",
			"action required",
			"action needed",
			"deadline",
			"assessment",
			"recruiter",
		},
		FinanceKeywords: []string{
			"invoice",
			"receipt",
			"statement",
			"payment",
			"transaction",
			"billing",
			"renewal",
			"subscription",
			"refund",
			"order",
		},
		EditorialKeywords: []string{
			"newsletter",
			"digest",
			"weekly",
			"webinar",
			"blog",
			"article",
			"highlights",
			"update",
		},
	}
}
