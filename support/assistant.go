// Package support assembles the customer-support assistant: three specialist
// teams (orders, refunds and payments, human escalation) behind a routing
// supervisor. The tool layer talks to the order and payment services, the
// ticketing backend and the notification webhook named in the configuration.
package support

import (
	"fmt"

	"github.com/hupe1980/supportmesh/capability"
	"github.com/hupe1980/supportmesh/config"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/oracle"
	"github.com/hupe1980/supportmesh/session"
	"github.com/hupe1980/supportmesh/supervisor"
	"github.com/hupe1980/supportmesh/team"
)

// NewAssistant builds the supervisor for the customer-support domain. All
// teams share the oracle; each gets its own instruction and private tool
// registry.
func NewAssistant(cfg *config.Config, o oracle.Oracle, store session.Store, logger logging.Logger) (*supervisor.Supervisor, error) {
	t := newTools(cfg.Support)
	tk := newTicketer(cfg.Support, logger)

	teamOpts := func(opts *team.Options) {
		opts.ParallelActions = cfg.Engine.ParallelActions
		opts.OracleTimeout = cfg.Oracle.OracleTimeout()
		opts.Logger = logger
	}

	ordersTools, err := capability.NewRegistry(t.OrderStatus())
	if err != nil {
		return nil, fmt.Errorf("orders team tools: %w", err)
	}
	orders := team.New(
		"orders_team_tool",
		"Handles queries about order status, shipping, tracking or delivery.",
		ordersInstruction, o, ordersTools, teamOpts,
	)

	refundTools, err := capability.NewRegistry(t.RefundStatus(), t.PaymentDetails())
	if err != nil {
		return nil, fmt.Errorf("refunds team tools: %w", err)
	}
	refunds := team.New(
		"refunds_payment_team_tool",
		"Handles queries about refund status and payment details.",
		refundsPaymentInstruction, o, refundTools, teamOpts,
	)

	escalationTools, err := capability.NewRegistry(tk.CreateTicket())
	if err != nil {
		return nil, fmt.Errorf("escalation team tools: %w", err)
	}
	escalation := team.New(
		"human_escalation_team_tool",
		"Handles any request that requires human intervention, including all "+
			"modification requests and topics not covered by the other teams.",
		humanEscalationInstruction, o, escalationTools, teamOpts,
	)

	teams, err := capability.NewRegistry(
		team.NewFacade(orders),
		team.NewFacade(refunds),
		team.NewFacade(escalation),
	)
	if err != nil {
		return nil, fmt.Errorf("team registry: %w", err)
	}

	return supervisor.New(supervisorInstruction, o, teams, func(opts *supervisor.Options) {
		opts.Store = store
		opts.ParallelActions = cfg.Engine.ParallelActions
		opts.OracleTimeout = cfg.Oracle.OracleTimeout()
		opts.SnapshotBufferSize = cfg.Engine.SnapshotBufferSize
		opts.Logger = logger
	}), nil
}
