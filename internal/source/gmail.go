package source

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/googleauth"
	"github.com/Veraticus/inbox-triage/internal/model"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// gmailPageLimit is the largest page messages.list accepts.
const gmailPageLimit = 500

// GmailConfig configures the Gmail source.
type GmailConfig struct {
	ClientID      string
	ClientSecret  string
	TokenFile     string
	Query         string
	User          string
	MaxResults    int
	Concurrency   int
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultGmailConfig returns the latest ten inbox messages of the
// authenticated user.
func DefaultGmailConfig() GmailConfig {
	return GmailConfig{
		Query:         "in:inbox",
		User:          "me",
		MaxResults:    10,
		Concurrency:   4,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// OAuthConfig returns the read-only OAuth settings for the mailbox.
func (c GmailConfig) OAuthConfig() googleauth.OAuth2Config {
	return googleauth.OAuth2Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenFile:    c.TokenFile,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}
}

func (c GmailConfig) withDefaults() GmailConfig {
	d := DefaultGmailConfig()
	if c.User == "" {
		c.User = d.User
	}
	if c.MaxResults <= 0 {
		c.MaxResults = d.MaxResults
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = d.RetryAttempts
	}
	return c
}

// GmailSource fetches the subject, snippet and sender of recent messages.
type GmailSource struct {
	service *gmail.Service
	logger  *slog.Logger
	config  GmailConfig
}

// NewGmailSource authenticates with a stored token and creates the source.
// Run the auth command first to obtain the token.
func NewGmailSource(ctx context.Context, cfg GmailConfig, logger *slog.Logger) (*GmailSource, error) {
	client, err := googleauth.NewHTTPClient(ctx, cfg.OAuthConfig(), false)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with Gmail: %w", err)
	}

	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create gmail service: %w", err)
	}

	return NewGmailSourceWithService(service, cfg, logger), nil
}

// NewGmailSourceWithService wraps an existing Gmail service.
func NewGmailSourceWithService(service *gmail.Service, cfg GmailConfig, logger *slog.Logger) *GmailSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &GmailSource{
		service: service,
		config:  cfg.withDefaults(),
		logger:  logger.With("component", "gmail"),
	}
}

// Fetch lists up to MaxResults messages matching the query and loads their
// metadata. Records keep the order the mailbox returned them in.
func (s *GmailSource) Fetch(ctx context.Context) ([]model.Record, error) {
	ids, err := s.listMessageIDs(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("fetching gmail messages", "count", len(ids), "query", s.config.Query)

	records := make([]model.Record, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			msg, err := s.getMessage(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to get message %s: %w", id, err)
			}
			records[i] = recordFromMessage(msg)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *GmailSource) listMessageIDs(ctx context.Context) ([]string, error) {
	var ids []string
	pageToken := ""

	for len(ids) < s.config.MaxResults {
		call := s.service.Users.Messages.List(s.config.User).
			MaxResults(int64(min(s.config.MaxResults-len(ids), gmailPageLimit))).
			Context(ctx)
		if s.config.Query != "" {
			call = call.Q(s.config.Query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var resp *gmail.ListMessagesResponse
		err := common.WithRetry(ctx, func() error {
			var listErr error
			resp, listErr = call.Do()
			return googleauth.ClassifyAPIError(listErr)
		}, s.retryOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}

		for _, m := range resp.Messages {
			if len(ids) == s.config.MaxResults {
				break
			}
			ids = append(ids, m.Id)
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return ids, nil
}

func (s *GmailSource) getMessage(ctx context.Context, id string) (*gmail.Message, error) {
	var msg *gmail.Message
	err := common.WithRetry(ctx, func() error {
		var getErr error
		msg, getErr = s.service.Users.Messages.Get(s.config.User, id).
			Format("metadata").
			MetadataHeaders("Subject", "From").
			Context(ctx).
			Do()
		return googleauth.ClassifyAPIError(getErr)
	}, s.retryOptions())
	return msg, err
}

func (s *GmailSource) retryOptions() common.RetryOptions {
	return common.RetryOptions{
		MaxAttempts:  s.config.RetryAttempts,
		InitialDelay: s.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// recordFromMessage maps message metadata onto a record. Gmail returns
// snippets HTML-escaped.
func recordFromMessage(msg *gmail.Message) model.Record {
	r := model.Record{
		ID:      msg.Id,
		Snippet: html.UnescapeString(msg.Snippet),
	}
	if msg.Payload == nil {
		return r
	}
	for _, header := range msg.Payload.Headers {
		switch strings.ToLower(header.Name) {
		case "subject":
			r.Subject = header.Value
		case "from":
			r.Sender = header.Value
		}
	}
	return r
}
