package discord

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbfutures/rolegate/pkg/billing"
)

type fakeBilling struct {
	link         string
	cancelResult billing.CancelResult
	cancelErr    error

	cancelCalls []string
}

func (f *fakeBilling) PaymentLink(identity string) string {
	return f.link + "?client_reference_id=" + identity
}

func (f *fakeBilling) CancelSubscription(ctx context.Context, identity string) (billing.CancelResult, error) {
	f.cancelCalls = append(f.cancelCalls, identity)
	return f.cancelResult, f.cancelErr
}

type fakeResponder struct {
	responses []*discordgo.InteractionResponse
	err       error
}

func (f *fakeResponder) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.responses = append(f.responses, resp)
	return f.err
}

func commandInteraction(name, userID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{Name: name},
			Member: &discordgo.Member{
				User: &discordgo.User{ID: userID},
			},
		},
	}
}

func newTestCommands(t *testing.T, b *fakeBilling) *Commands {
	t.Helper()
	cmds, err := NewCommands(b, nil, nil)
	require.NoError(t, err)
	return cmds
}

func TestNewCommandsRequiresBilling(t *testing.T) {
	_, err := NewCommands(nil, nil, nil)
	require.Error(t, err)
}

func TestSubscribeRepliesWithPaymentLink(t *testing.T) {
	b := &fakeBilling{link: "https://buy.stripe.com/test_link"}
	cmds := newTestCommands(t, b)
	r := &fakeResponder{}

	cmds.handle(r, commandInteraction(commandSubscribe, "u123"))

	require.Len(t, r.responses, 1)
	resp := r.responses[0]
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	assert.Contains(t, resp.Data.Content, "client_reference_id=u123")
}

func TestCancelScheduled(t *testing.T) {
	b := &fakeBilling{cancelResult: billing.CancelScheduled}
	cmds := newTestCommands(t, b)
	r := &fakeResponder{}

	cmds.handle(r, commandInteraction(commandCancel, "u123"))

	assert.Equal(t, []string{"u123"}, b.cancelCalls)
	require.Len(t, r.responses, 1)
	assert.Contains(t, r.responses[0].Data.Content, "end at the close of the current billing period")
	assert.Equal(t, discordgo.MessageFlagsEphemeral, r.responses[0].Data.Flags)
}

func TestCancelNoActiveSubscription(t *testing.T) {
	b := &fakeBilling{cancelResult: billing.CancelNoActiveSubscription}
	cmds := newTestCommands(t, b)
	r := &fakeResponder{}

	cmds.handle(r, commandInteraction(commandCancel, "u123"))

	require.Len(t, r.responses, 1)
	assert.Contains(t, r.responses[0].Data.Content, "don't have an active subscription")
}

func TestCancelProviderError(t *testing.T) {
	b := &fakeBilling{cancelErr: errors.New("stripe unavailable")}
	cmds := newTestCommands(t, b)
	r := &fakeResponder{}

	cmds.handle(r, commandInteraction(commandCancel, "u123"))

	require.Len(t, r.responses, 1)
	assert.Contains(t, r.responses[0].Data.Content, "Something went wrong")
}

func TestDMInvokerResolvesFromUser(t *testing.T) {
	b := &fakeBilling{link: "https://buy.stripe.com/test_link"}
	cmds := newTestCommands(t, b)
	r := &fakeResponder{}

	i := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{Name: commandSubscribe},
			User: &discordgo.User{ID: "u456"},
		},
	}
	cmds.handle(r, i)

	require.Len(t, r.responses, 1)
	assert.Contains(t, r.responses[0].Data.Content, "client_reference_id=u456")
}

func TestNonCommandInteractionIgnored(t *testing.T) {
	b := &fakeBilling{}
	cmds := newTestCommands(t, b)
	r := &fakeResponder{}

	cmds.handle(r, &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{Type: discordgo.InteractionPing},
	})

	assert.Empty(t, r.responses)
	assert.Empty(t, b.cancelCalls)
}

func TestUnknownCommandIgnored(t *testing.T) {
	b := &fakeBilling{}
	cmds := newTestCommands(t, b)
	r := &fakeResponder{}

	cmds.handle(r, commandInteraction("whoami", "u123"))

	assert.Empty(t, r.responses)
}

func TestDefinitionsCoverBothCommands(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 2)

	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
		assert.NotEmpty(t, d.Description)
	}
	assert.Equal(t, "subscribe cancel", strings.Join(names, " "))
}
