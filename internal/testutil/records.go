package testutil

import (
	"github.com/Veraticus/inbox-triage/internal/model"
)

// Fixture records, one per rule outcome.
var (
	// RecordUrgent matches the urgent rule.
	RecordUrgent = model.Record{Subject: "Interview with Google", Snippet: "Your technical round is scheduled for Friday.", Sender: "recruiter@google.com"}
	// RecordPromo matches the promo rule through its keywords.
	RecordPromo = model.Record{Subject: "50% Off Flipkart Deals", Snippet: "Big Billion Days are here!", Sender: "promo@flipkart.com"}
	// RecordPromoDomain matches the promo rule through the sender domain only.
	RecordPromoDomain = model.Record{Subject: "Your picks", Snippet: "Curated for you.", Sender: "news@mktg.shop.com"}
	// RecordReadLater matches the read-later rule.
	RecordReadLater = model.Record{Subject: "Apple Invoice", Snippet: "Your receipt for Apple Music.", Sender: "billing@apple.com"}
	// RecordUnmatched matches no rule and goes to the fallback.
	RecordUnmatched = model.Record{Subject: "New Login to Your Account", Snippet: "We noticed a new login.", Sender: "security@xyz.com"}
)

// RecordBuilder assembles record lists for tests.
//
// Example:
//
//	records := testutil.NewRecordBuilder().
//		WithUrgent().
//		WithUnmatched(3).
//		Build()
type RecordBuilder struct {
	records []model.Record
}

// NewRecordBuilder creates an empty builder.
func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{}
}

// With appends arbitrary records.
func (b *RecordBuilder) With(records ...model.Record) *RecordBuilder {
	b.records = append(b.records, records...)
	return b
}

// WithUrgent appends RecordUrgent.
func (b *RecordBuilder) WithUrgent() *RecordBuilder {
	return b.With(RecordUrgent)
}

// WithPromo appends RecordPromo.
func (b *RecordBuilder) WithPromo() *RecordBuilder {
	return b.With(RecordPromo)
}

// WithReadLater appends RecordReadLater.
func (b *RecordBuilder) WithReadLater() *RecordBuilder {
	return b.With(RecordReadLater)
}

// WithUnmatched appends n distinct records that match no rule.
func (b *RecordBuilder) WithUnmatched(n int) *RecordBuilder {
	for i := 0; i < n; i++ {
		r := RecordUnmatched
		if i > 0 {
			r.Snippet = r.Snippet + " #" + string(rune('A'+i%26)) + string(rune('a'+i/26%26))
		}
		b.records = append(b.records, r)
	}
	return b
}

// WithDuplicate appends a copy of the record at index i.
func (b *RecordBuilder) WithDuplicate(i int) *RecordBuilder {
	return b.With(b.records[i])
}

// Build returns the assembled records.
func (b *RecordBuilder) Build() []model.Record {
	out := make([]model.Record, len(b.records))
	copy(out, b.records)
	return out
}
