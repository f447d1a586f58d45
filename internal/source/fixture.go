// Package source provides the record feeds the triage engine consumes: a
// built-in demo inbox, JSON or CSV files, and a Gmail mailbox.
package source

import (
	"context"
	"fmt"

	"github.com/Veraticus/inbox-triage/internal/model"
)

// FixtureSource serves a fixed, in-memory list of records.
type FixtureSource struct {
	records []model.Record
}

// NewFixtureSource creates a source over records. With no records it serves
// the demo inbox.
func NewFixtureSource(records ...model.Record) *FixtureSource {
	if len(records) == 0 {
		records = DemoInbox()
	}
	return &FixtureSource{records: records}
}

// Fetch returns a copy of the fixture records.
func (s *FixtureSource) Fetch(ctx context.Context) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch canceled: %w", err)
	}
	out := make([]model.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// DemoInbox returns twenty sample emails covering every bucket and a few
// records no rule matches.
func DemoInbox() []model.Record {
	return []model.Record{
		{Subject: "Interview with Google", Snippet: "Your technical round is scheduled for Friday.", Sender: "recruiter@google.com"},
		{Subject: "50% Off Flipkart Deals", Snippet: "Big Billion Days are here!", Sender: "promo@flipkart.com"},
		{Subject: "Your HDFC Credit Card Statement", Snippet: "Your statement for this month is ready.", Sender: "alerts@hdfc.com"},
		{Subject: "Offer from Amazon", Snippet: "Save up to 60% today only!", Sender: "promo@amazon.com"},
		{Subject: "LinkedIn Job Alert", Snippet: "5 new jobs match your profile.", Sender: "jobs@linkedin.com"},
		{Subject: "Resume Shortlisted", Snippet: "You've been shortlisted for next steps.", Sender: "hr@startup.com"},
		{Subject: "New Login to Your Account", Snippet: "We noticed a new login.", Sender: "security@xyz.com"},
		{Subject: "Netflix Subscription Renewal", Snippet: "Your monthly plan has been renewed.", Sender: "billing@netflix.com"},
		{Subject: "Exclusive Invite to Webinar", Snippet: "Join us this weekend.", Sender: "events@saascompany.com"},
		{Subject: "Apple Invoice", Snippet: "Your receipt for Apple Music.", Sender: "billing@apple.com"},
		{Subject: "Team Standup Notes", Snippet: "Here are today's highlights.", Sender: "teammate@company.com"},
		{Subject: "Free Udemy Course!", Snippet: "Claim your 100% free learning access.", Sender: "deals@udemy.com"},
		{Subject: "Congratulations! You’re shortlisted", Snippet: "Schedule your interview now.", Sender: "careers@unicorn.com"},
		{Subject: "Amazon Delivered", Snippet: "Your package was delivered.", Sender: "tracking@amazon.com"},
		{Subject: "Paytm Cashback Received", Snippet: "₹50 added to your wallet.", Sender: "rewards@paytm.com"},
		{Subject: "Reminder: Doctor's Appointment", Snippet: "This is your confirmation.", Sender: "noreply@clinic.com"},
		{Subject: "Offer Letter", Snippet: "We’re excited to welcome you.", Sender: "hr@company.com"},
		{Subject: "Google Calendar Invite", Snippet: "You’ve been invited.", Sender: "noreply@calendar.google.com"},
		{Subject: "Spotify Premium Update", Snippet: "New playlist just dropped!", Sender: "music@spotify.com"},
		{Subject: "Important Account Alert", Snippet: "Action needed now.", Sender: "support@bank.com"},
	}
}
