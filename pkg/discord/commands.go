package discord

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/dbfutures/rolegate/pkg/billing"
	"github.com/dbfutures/rolegate/pkg/entitlement"
)

const (
	commandSubscribe = "subscribe"
	commandCancel    = "cancel"

	commandTimeout = 15 * time.Second
)

// Billing is the slash-command view of the billing provider.
type Billing interface {
	PaymentLink(identity string) string
	CancelSubscription(ctx context.Context, identity string) (billing.CancelResult, error)
}

// Definitions returns the application commands the gate registers.
func Definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        commandSubscribe,
			Description: "Get a payment link for the premium role",
		},
		{
			Name:        commandCancel,
			Description: "Cancel your subscription at the end of the billing period",
		},
	}
}

// RegisterCommands overwrites the guild's command set with Definitions.
// It is a plain REST call and does not require an open gateway connection.
func RegisterCommands(s *discordgo.Session, appID, guildID string) error {
	_, err := s.ApplicationCommandBulkOverwrite(appID, guildID, Definitions())
	return err
}

// Commands handles the /subscribe and /cancel slash commands. Replies are
// always ephemeral.
type Commands struct {
	billing Billing
	logger  entitlement.Logger
	metrics entitlement.Metrics
}

var errBillingRequired = errors.New("discord: billing provider is required")

func NewCommands(b Billing, logger entitlement.Logger, metrics entitlement.Metrics) (*Commands, error) {
	if b == nil {
		return nil, errBillingRequired
	}
	if logger == nil {
		logger = &entitlement.NoopLogger{}
	}
	if metrics == nil {
		metrics = &entitlement.NoopMetrics{}
	}
	return &Commands{billing: b, logger: logger, metrics: metrics}, nil
}

// responder abstracts InteractionRespond for testing.
type responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// Handle is a discordgo handler for InteractionCreate events.
func (c *Commands) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	c.handle(s, i)
}

func (c *Commands) handle(r responder, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	invoker := invokerID(i)
	name := i.ApplicationCommandData().Name

	switch name {
	case commandSubscribe:
		c.reply(r, i, "Subscribe here: "+c.billing.PaymentLink(invoker))
		c.metrics.RecordCommand(commandSubscribe, "ok")
	case commandCancel:
		c.handleCancel(ctx, r, i, invoker)
	}
}

func (c *Commands) handleCancel(ctx context.Context, r responder, i *discordgo.InteractionCreate, invoker string) {
	result, err := c.billing.CancelSubscription(ctx, invoker)
	if err != nil {
		c.logger.Error("cancel subscription failed",
			entitlement.Field{Key: "identity", Value: invoker},
			entitlement.Field{Key: "error", Value: err.Error()},
		)
		c.metrics.RecordCommand(commandCancel, "error")
		c.reply(r, i, "Something went wrong while cancelling. Please try again.")
		return
	}

	switch result {
	case billing.CancelNoActiveSubscription:
		c.metrics.RecordCommand(commandCancel, "no_subscription")
		c.reply(r, i, "You don't have an active subscription.")
	default:
		c.metrics.RecordCommand(commandCancel, "ok")
		c.reply(r, i, "Your subscription will end at the close of the current billing period.")
	}
}

func (c *Commands) reply(r responder, i *discordgo.InteractionCreate, content string) {
	err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		c.logger.Error("interaction respond failed",
			entitlement.Field{Key: "error", Value: err.Error()},
		)
	}
}

// invokerID returns the Discord user ID behind the interaction. Guild
// interactions carry a Member, DM interactions carry a User.
func invokerID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
