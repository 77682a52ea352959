// Package events publishes enrichment results to NATS for downstream
// consumers. Publishing is best-effort: the HTTP response never waits on or
// fails because of the event stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/c360studio/prospect/enrich"
	"github.com/c360studio/prospect/enrich/weburl"
)

// ResultEvent is the payload published after each successful enrichment.
type ResultEvent struct {
	ID         string        `json:"id"`
	Website    string        `json:"website"`
	EnrichedAt time.Time     `json:"enriched_at"`
	Result     enrich.Result `json:"result"`
}

// Publisher sends result events to NATS.
type Publisher struct {
	conn          *nats.Conn
	subjectPrefix string
	logger        *slog.Logger
}

// Connect dials the NATS server and returns a ready publisher.
func Connect(url, subjectPrefix string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(url,
		nats.Name("prospect"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}

	logger.Info("Connected to NATS", "url", url, "subject_prefix", subjectPrefix)

	return &Publisher{
		conn:          conn,
		subjectPrefix: subjectPrefix,
		logger:        logger,
	}, nil
}

// PublishResult emits one result event on the subject derived from the
// website host.
func (p *Publisher) PublishResult(ctx context.Context, website string, result *enrich.Result) error {
	subject, err := SubjectFor(p.subjectPrefix, website)
	if err != nil {
		return err
	}

	event := ResultEvent{
		ID:         uuid.NewString(),
		Website:    website,
		EnrichedAt: time.Now().UTC(),
		Result:     *result,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal result event: %w", err)
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}

	p.logger.Debug("Published result event", "subject", subject, "event_id", event.ID)
	return nil
}

// SubjectFor derives the NATS subject for a website: the configured prefix
// plus a token from the website host, so consumers can subscribe to single
// companies or wildcard the stream.
func SubjectFor(prefix, website string) (string, error) {
	u, err := weburl.ParseWebsite(website)
	if err != nil {
		return "", fmt.Errorf("derive event subject: %w", err)
	}
	return prefix + "." + weburl.Slug(u), nil
}

// Close drains the connection, flushing any buffered events.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("NATS drain failed", "error", err)
	}
}
