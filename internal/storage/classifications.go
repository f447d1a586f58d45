package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/model"
)

const classificationColumns = `identity, record_id, subject, snippet, sender, category, origin, confidence, reason, classified_at`

// Get returns the classification for identity in this session.
func (s *SQLiteStore) Get(ctx context.Context, identity string) (model.Classification, error) {
	if err := validateContext(ctx); err != nil {
		return model.Classification{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+classificationColumns+`
		FROM classifications
		WHERE session_id = ? AND identity = ?
	`, s.sessionID, identity)

	c, err := scanClassification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Classification{}, fmt.Errorf("classification %s: %w", identity, common.ErrNotFound)
	}
	if err != nil {
		return model.Classification{}, fmt.Errorf("failed to get classification: %w", err)
	}
	return c, nil
}

// Save upserts c. The existing origin is checked inside the same transaction.
func (s *SQLiteStore) Save(ctx context.Context, c model.Classification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateClassification(c); err != nil {
		return err
	}

	if c.ClassifiedAt.IsZero() {
		c.ClassifiedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing string
	err = tx.QueryRowContext(ctx, `
		SELECT origin FROM classifications WHERE session_id = ? AND identity = ?
	`, s.sessionID, c.Identity).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to read existing classification: %w", err)
	default:
		if replaceErr := checkReplace(model.Origin(existing), c.Origin); replaceErr != nil {
			return replaceErr
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO classifications (session_id, `+classificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, identity) DO UPDATE SET
			record_id = excluded.record_id,
			subject = excluded.subject,
			snippet = excluded.snippet,
			sender = excluded.sender,
			category = excluded.category,
			origin = excluded.origin,
			confidence = excluded.confidence,
			reason = excluded.reason,
			classified_at = excluded.classified_at
	`,
		s.sessionID,
		c.Identity,
		nullString(c.Record.ID),
		c.Record.Subject,
		c.Record.Snippet,
		c.Record.Sender,
		string(c.Category),
		string(c.Origin),
		c.Confidence,
		nullString(c.Reason),
		c.ClassifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save classification: %w", err)
	}

	return tx.Commit()
}

// List returns the session's classifications in first-insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Classification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+classificationColumns+`
		FROM classifications
		WHERE session_id = ?
		ORDER BY seq
	`, s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query classifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Classification
	for rows.Next() {
		c, scanErr := scanClassification(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan classification: %w", scanErr)
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClassification(row rowScanner) (model.Classification, error) {
	var c model.Classification
	var recordID, reason sql.NullString
	var category, origin string

	err := row.Scan(
		&c.Identity,
		&recordID,
		&c.Record.Subject,
		&c.Record.Snippet,
		&c.Record.Sender,
		&category,
		&origin,
		&c.Confidence,
		&reason,
		&c.ClassifiedAt,
	)
	if err != nil {
		return model.Classification{}, err
	}

	c.Record.ID = recordID.String
	c.Reason = reason.String
	c.Category = model.Category(category)
	c.Origin = model.Origin(origin)
	return c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
