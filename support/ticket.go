package support

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/hupe1980/supportmesh/capability"
	"github.com/hupe1980/supportmesh/config"
	"github.com/hupe1980/supportmesh/logging"
)

const defaultAirtableBaseURL = "https://api.airtable.com/v0"

// ticketer files escalation tickets in Airtable and notifies the support
// channel via a Slack webhook. The Airtable insert is authoritative; a failed
// Slack post only logs a warning so a broken webhook never blocks an
// escalation.
type ticketer struct {
	client          *http.Client
	airtableBaseURL string
	airtable        config.AirtableConfig
	slackWebhookURL string
	logger          logging.Logger
}

func newTicketer(cfg config.SupportConfig, logger logging.Logger) *ticketer {
	return &ticketer{
		client:          &http.Client{Timeout: 5 * time.Second},
		airtableBaseURL: defaultAirtableBaseURL,
		airtable:        cfg.Airtable,
		slackWebhookURL: cfg.SlackWebhookURL,
		logger:          logger,
	}
}

type ticketArgs struct {
	CustomerConcern string `json:"customer_concern" description:"The customer's concern, in their own words."`
}

// CreateTicket exposes ticket creation as a capability for the escalation team.
func (t *ticketer) CreateTicket() capability.Capability {
	return capability.NewFunctionFromStruct(
		"create_support_ticket",
		"Files a support ticket for any request that requires human intervention, "+
			"including all modification requests (cancellation, update, deletion) and "+
			"topics not covered by other tools.",
		ticketArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			concern, _ := args["customer_concern"].(string)
			ticketID := fmt.Sprintf("T-%04d", 1000+rand.IntN(9000))

			if err := t.insertRecord(ctx, ticketID, concern); err != nil {
				t.notifySlack(ctx, "--FAILED--", fmt.Sprintf("TICKETING SYSTEM ERROR: %v\nQuery: %s", err, concern))
				return nil, fmt.Errorf("failed to create ticket: %w", err)
			}
			t.notifySlack(ctx, ticketID, concern)

			return map[string]any{
				"ticket_id": ticketID,
				"concern":   concern,
				"status":    "created",
			}, nil
		})
}

func (t *ticketer) insertRecord(ctx context.Context, ticketID, concern string) error {
	if t.airtable.BaseID == "" || t.airtable.Token == "" {
		t.logger.Warn("support.ticket.airtable_disabled", "ticket_id", ticketID)
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"fields": map[string]any{
			"TicketID":         ticketID,
			"Customer Concern": concern,
			"Status":           "New",
		},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/%s", t.airtableBaseURL, t.airtable.BaseID, t.airtable.TableID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+t.airtable.Token)
	req.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("airtable returned status %d", res.StatusCode)
	}
	t.logger.Info("support.ticket.created", "ticket_id", ticketID)
	return nil
}

func (t *ticketer) notifySlack(ctx context.Context, ticketID, concern string) {
	if t.slackWebhookURL == "" {
		return
	}

	payload := map[string]any{
		"text": fmt.Sprintf("New Support Ticket: %s", ticketID),
		"blocks": []map[string]any{
			{"type": "section", "text": map[string]any{"type": "mrkdwn", "text": "*New Escalated Support Ticket*"}},
			{"type": "section", "fields": []map[string]any{
				{"type": "mrkdwn", "text": fmt.Sprintf("*Ticket ID:*\n`%s`", ticketID)},
				{"type": "mrkdwn", "text": "*Status:*\nNew (view in Airtable)"},
			}},
			{"type": "divider"},
			{"type": "section", "text": map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Customer Concern:*\n```%s```", concern)}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.logger.Warn("support.ticket.slack_failed", "ticket_id", ticketID, "error", err.Error())
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.slackWebhookURL, bytes.NewReader(body))
	if err != nil {
		t.logger.Warn("support.ticket.slack_failed", "ticket_id", ticketID, "error", err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		t.logger.Warn("support.ticket.slack_failed", "ticket_id", ticketID, "error", err.Error())
		return
	}
	res.Body.Close()
}
