// Package config loads the gate's runtime configuration from the
// environment, with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	envStripeSecretKey     = "STRIPE_SECRET_KEY"
	envStripeWebhookSecret = "STRIPE_WEBHOOK_SECRET"
	envStripePaymentLink   = "STRIPE_PAYMENT_LINK"
	envDiscordToken        = "DISCORD_TOKEN"
	envDiscordAppID        = "CLIENT_ID"
	envGuildID             = "GUILD_ID"
	envDiscordRoleID       = "DISCORD_ROLE_ID"
	envHTTPAddr            = "HTTP_ADDR"

	defaultListenAddr = ":3000"
)

type Config struct {
	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentLinkURL      string

	DiscordToken string
	DiscordAppID string
	GuildID      string
	RoleID       string

	ListenAddr string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	// Best effort: absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		StripeSecretKey:     os.Getenv(envStripeSecretKey),
		StripeWebhookSecret: os.Getenv(envStripeWebhookSecret),
		PaymentLinkURL:      os.Getenv(envStripePaymentLink),
		DiscordToken:        os.Getenv(envDiscordToken),
		DiscordAppID:        os.Getenv(envDiscordAppID),
		GuildID:             os.Getenv(envGuildID),
		RoleID:              os.Getenv(envDiscordRoleID),
		ListenAddr:          os.Getenv(envHTTPAddr),
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate reports every missing key at once so a misconfigured deployment
// can be fixed in one round trip.
func (c *Config) validate() error {
	var missing []string
	for _, kv := range []struct {
		key   string
		value string
	}{
		{envStripeSecretKey, c.StripeSecretKey},
		{envStripeWebhookSecret, c.StripeWebhookSecret},
		{envStripePaymentLink, c.PaymentLinkURL},
		{envDiscordToken, c.DiscordToken},
		{envDiscordAppID, c.DiscordAppID},
		{envGuildID, c.GuildID},
		{envDiscordRoleID, c.RoleID},
	} {
		if strings.TrimSpace(kv.value) == "" {
			missing = append(missing, kv.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
